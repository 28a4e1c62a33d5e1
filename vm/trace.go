package vm

import (
	"fmt"
	"strings"

	"github.com/dbrandt/pl0/code"
)

// traceEntry captures the one instruction emitTrace renders: its code
// address and the decoded instruction. Register/pc/bp/sp/stack state is
// read live off the Instance at render time, since the trace reports
// *post-execution* machine state.
type traceEntry struct {
	line int
	ins  code.Instruction
}

// emitTrace renders one line of the per-instruction trace: line number,
// mnemonic, r, l, m, the post-execution pc/bp/sp, and the live stack with
// "|" separators between activation records.
func (i *Instance) emitTrace(t traceEntry) {
	if i.traceOut == nil {
		return
	}
	fmt.Fprintf(i.traceOut, "%4d  %-4s %3d %3d %3d  | pc=%-4d bp=%-4d sp=%-4d | %s\n",
		t.line, t.ins.Op, t.ins.R, t.ins.L, t.ins.M,
		i.pc, i.bp, i.sp, i.renderStack())
}

// renderStack formats cells 1..sp with a "|" token inserted immediately
// before any cell whose index begins a new activation record, per the
// boundary list maintained by CAL/RTN.
func (i *Instance) renderStack() string {
	if i.sp < 1 {
		return ""
	}
	bounds := make(map[int]bool, len(i.arBoundaries))
	for _, b := range i.arBoundaries {
		bounds[b] = true
	}
	var b strings.Builder
	for addr := 1; addr <= i.sp; addr++ {
		if bounds[addr] && addr != 1 {
			b.WriteString("| ")
		}
		fmt.Fprintf(&b, "%d ", i.stack[addr])
	}
	return strings.TrimSpace(b.String())
}
