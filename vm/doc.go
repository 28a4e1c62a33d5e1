// Package vm implements the PL/0 P-Machine: a small register-and-stack
// virtual machine executing the four-field (op, r, l, m) instruction
// format emitted by package compiler.
//
// An Instance owns one unified stack of activation records (no separate
// return stack) and sixteen general-purpose registers used as scratch
// space for expression evaluation. Procedure calls extend the stack with a
// four-cell header (scratch, static link, dynamic link, return address);
// LOD and STO address locals and outer-scope variables by walking static
// links via base(l, bp).
//
// Run drives a fetch-decode-execute loop until a halt instruction or a
// fatal condition is reached; faults are reported as *internal/diag.Error
// values, recovered from an internal panic the same way a divide-by-zero
// or stack-overflow condition is raised.
package vm
