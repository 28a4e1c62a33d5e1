// Package symtab implements the compiler's stack-discipline symbol table.
// Entries are pushed as declarations are processed and popped in bulk when
// a block's scope ends, so that the live entries at any moment form the
// stack of all enclosing scopes' declarations in declaration order.
package symtab

// Kind classifies a declared symbol.
type Kind int

// Symbol kinds.
const (
	Constant Kind = iota
	Variable
	Procedure
)

// Entry is a single declared symbol.
type Entry struct {
	Kind    Kind
	Name    string
	Value   int // meaningful only for Constant
	Level   int // static nesting depth at which declared
	Address int // variable: frame offset; procedure: code entry address
}

// Table is the symbol table: a plain slice used as a stack. Lookup scans
// from the top down so that the innermost declaration shadows outer ones.
type Table struct {
	entries []Entry
}

// Mark is a saved position in the table, returned by Len and consumed by
// ShrinkTo to implement block-exit scope popping.
type Mark = int

// Len returns the current number of live entries; used as a Mark to
// remember a block's entry point before its declarations are pushed.
func (t *Table) Len() Mark {
	return len(t.entries)
}

// Push appends a new entry to the top of the table.
func (t *Table) Push(e Entry) {
	t.entries = append(t.entries, e)
}

// ShrinkTo discards all entries pushed since mark was taken, restoring the
// table to the scope it had at that point. This is the block-exit
// operation: the index must be decremented by exactly the number of
// declarations the exiting block contributed, which is precisely
// len(t.entries)-mark.
func (t *Table) ShrinkTo(mark Mark) {
	t.entries = t.entries[:mark]
}

// Lookup returns the nearest (innermost) entry named name and true, or the
// zero Entry and false if no such symbol is declared.
func (t *Table) Lookup(name string) (Entry, bool) {
	for i := len(t.entries) - 1; i >= 0; i-- {
		if t.entries[i].Name == name {
			return t.entries[i], true
		}
	}
	return Entry{}, false
}
