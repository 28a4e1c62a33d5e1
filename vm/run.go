package vm

import (
	"fmt"

	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/internal/diag"
)

// halted is the sentinel panic value Run's SIO-halt case raises to unwind
// out of the fetch loop via the same recover path as a genuine fault,
// without being mistaken for one.
type halted struct{}

// base performs static-link traversal: walk l static links up from bp and
// return the base of the enclosing activation record l levels out.
func base(stack []Cell, l, bp int) int {
	b := bp
	for ; l > 0; l-- {
		b = int(stack[b+1])
	}
	return b
}

// Run executes instructions starting at the current pc until the machine
// halts (SIO 0,0,3, or RTN out of the outermost frame) or a fatal condition
// occurs. On halt it returns nil, or the trace write error if writing the
// trace failed; a fatal condition is reported as a *diag.Error with phase
// Exec, matching the scanner and compiler's error shape.
func (i *Instance) Run() (err error) {
	defer func() {
		if e := recover(); e != nil {
			if _, ok := e.(halted); ok {
				err = i.traceErr()
				return
			}
			if de, ok := e.(*diag.Error); ok {
				err = errors.WithStack(de)
				return
			}
			panic(e)
		}
	}()

	for {
		i.step()
		i.insCount++
	}
}

// traceErr surfaces a sticky trace-write failure, if tracing is enabled and
// writing ever failed.
func (i *Instance) traceErr() error {
	if i.traceOut != nil && i.traceOut.Err != nil {
		return errors.Wrap(i.traceOut.Err, "write trace")
	}
	return nil
}

func (i *Instance) fault(c diag.Code) {
	panic(diag.New(diag.Exec, c))
}

func (i *Instance) push(v Cell) {
	i.sp++
	if i.sp > i.maxStack {
		i.fault(diag.StackOverflow)
	}
	i.stack[i.sp] = v
}

// step fetches, decodes, and executes exactly one instruction, advancing pc
// unless the instruction itself set a new one (CAL, JMP, JPC, RTN).
func (i *Instance) step() {
	if i.pc < 0 || i.pc >= len(i.code) {
		i.fault(diag.InvalidOpcode)
	}
	ins := i.code[i.pc]
	if !ins.Op.Valid() {
		i.fault(diag.InvalidOpcode)
	}

	var trace traceEntry
	if i.traceOut != nil {
		trace = traceEntry{line: i.pc, ins: ins}
	}

	switch ins.Op {
	case code.LIT:
		i.regs[ins.R] = Cell(ins.M)
		i.pc++

	case code.RTN:
		// The outermost block's own RTN is never reached via CAL (nothing
		// pushed an activation-record boundary for it), so an empty
		// boundary list at this point identifies program termination.
		outermost := len(i.arBoundaries) == 0
		dynLink := i.stack[i.bp+2]
		retAddr := i.stack[i.bp+3]
		i.sp = i.bp - 1
		i.bp = int(dynLink)
		i.pc = int(retAddr)
		if !outermost {
			i.arBoundaries = i.arBoundaries[:len(i.arBoundaries)-1]
		}
		if outermost {
			i.emitTrace(trace)
			panic(halted{})
		}

	case code.LOD:
		i.regs[ins.R] = i.stack[base(i.stack, ins.L, i.bp)+ins.M]
		i.pc++

	case code.STO:
		i.stack[base(i.stack, ins.L, i.bp)+ins.M] = i.regs[ins.R]
		i.pc++

	case code.CAL:
		sl := base(i.stack, ins.L, i.bp)
		dl := i.bp
		ra := i.pc + 1
		newBase := i.sp + 1
		i.push(0) // scratch
		i.push(Cell(sl))
		i.push(Cell(dl))
		i.push(Cell(ra))
		i.arBoundaries = append(i.arBoundaries, newBase)
		i.bp = newBase
		i.pc = ins.M

	case code.INC:
		i.sp += ins.M
		if i.sp > i.maxStack {
			i.fault(diag.StackOverflow)
		}
		i.pc++

	case code.JMP:
		i.pc = ins.M

	case code.JPC:
		if i.regs[ins.R] == 0 {
			i.pc = ins.M
		} else {
			i.pc++
		}

	case code.SIO1:
		fmt.Fprintf(i.out, "%d\n", i.regs[ins.R])
		i.pc++

	case code.SIO2:
		var v int
		if _, err := fmt.Fscan(i.in, &v); err != nil {
			i.fault(diag.InputError)
		}
		i.regs[ins.R] = Cell(v)
		i.pc++

	case code.SIO3:
		i.emitTrace(trace)
		panic(halted{})

	case code.NEG:
		i.regs[ins.R] = -i.regs[ins.L]
		i.pc++

	case code.ADD:
		i.regs[ins.R] = i.regs[ins.L] + i.regs[ins.M]
		i.pc++

	case code.SUB:
		i.regs[ins.R] = i.regs[ins.L] - i.regs[ins.M]
		i.pc++

	case code.MUL:
		i.regs[ins.R] = i.regs[ins.L] * i.regs[ins.M]
		i.pc++

	case code.DIV:
		if i.regs[ins.M] == 0 {
			i.fault(diag.DivisionByZero)
		}
		i.regs[ins.R] = i.regs[ins.L] / i.regs[ins.M]
		i.pc++

	case code.MOD:
		if i.regs[ins.M] == 0 {
			i.fault(diag.DivisionByZero)
		}
		i.regs[ins.R] = i.regs[ins.L] % i.regs[ins.M]
		i.pc++

	case code.ODD:
		i.regs[ins.R] = i.regs[ins.L] % 2
		i.pc++

	case code.EQL:
		i.regs[ins.R] = boolCell(i.regs[ins.L] == i.regs[ins.M])
		i.pc++

	case code.NEQ:
		i.regs[ins.R] = boolCell(i.regs[ins.L] != i.regs[ins.M])
		i.pc++

	case code.LSS:
		i.regs[ins.R] = boolCell(i.regs[ins.L] < i.regs[ins.M])
		i.pc++

	case code.LEQ:
		i.regs[ins.R] = boolCell(i.regs[ins.L] <= i.regs[ins.M])
		i.pc++

	case code.GTR:
		i.regs[ins.R] = boolCell(i.regs[ins.L] > i.regs[ins.M])
		i.pc++

	case code.GEQ:
		i.regs[ins.R] = boolCell(i.regs[ins.L] >= i.regs[ins.M])
		i.pc++

	default:
		i.fault(diag.InvalidOpcode)
	}

	i.emitTrace(trace)
}

func boolCell(b bool) Cell {
	if b {
		return 1
	}
	return 0
}
