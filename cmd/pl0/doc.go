// The pl0 command line tool compiles and runs a PL/0-family source file on
// the package vm P-Machine.
//
// Usage:
//
//	-src file
//		  PL/0 source file to compile and run
//	-config file
//		  TOML config file (defaults to pl0.toml, or built-in defaults)
//	-debug
//		  enable debug diagnostics (full error causes)
//	-trace file
//		  write a per-instruction execution trace to file
//	-dump-lexemes file
//		  write the scanned lexeme list to file and exit
//	-dump-literals file
//		  write the literal table to file and exit
//	-dump-code file
//		  write the compiled instruction stream to file and exit
package main
