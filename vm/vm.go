// Package vm implements the P-Machine: a register-plus-stack virtual
// machine with one unified stack of activation records, sixteen
// general-purpose registers, and a fetch-decode-execute loop driven by the
// compiler's emitted code.Program.
package vm

import (
	"bufio"
	"io"
	"os"

	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/internal/diag"
	"github.com/dbrandt/pl0/internal/ngi"
)

// Cell is the raw type stored in a stack location or register.
type Cell int

// Execution limits.
const (
	MaxStackHeight = 2000
	MaxCodeLength  = 500
	NumRegisters   = 16
)

// Option configures an Instance at construction time using the standard
// functional-options shape.
type Option func(*Instance) error

// WithInput sets the reader SIO-read instructions consume signed decimal
// integers from. Defaults to os.Stdin.
func WithInput(r io.Reader) Option {
	return func(i *Instance) error { i.in = bufio.NewReader(r); return nil }
}

// WithOutput sets the writer SIO-write instructions print to. Defaults to
// os.Stdout.
func WithOutput(w io.Writer) Option {
	return func(i *Instance) error { i.out = w; return nil }
}

// WithTrace enables per-instruction trace recording and directs the
// rendered trace lines to w. Write errors are recorded on a sticky
// ngi.ErrWriter rather than checked after every instruction, and surfaced
// once Run returns.
func WithTrace(w io.Writer) Option {
	return func(i *Instance) error { i.traceOut = ngi.NewErrWriter(w); return nil }
}

// WithStackHeight overrides the default stack height limit.
func WithStackHeight(n int) Option {
	return func(i *Instance) error { i.maxStack = n; return nil }
}

// Instance is a single P-Machine execution context.
type Instance struct {
	code code.Program

	regs  [NumRegisters]Cell
	stack []Cell

	pc, bp, sp int

	maxStack int

	// arBoundaries records the new frame's base sp captured at each CAL,
	// popped at the matching RTN, so the trace renderer can draw the "|"
	// separator between activation records.
	arBoundaries []int

	in       *bufio.Reader
	out      io.Writer
	traceOut *ngi.ErrWriter

	insCount int64
}

// New constructs a P-Machine instance ready to execute prog. It fails
// immediately if prog exceeds MaxCodeLength with a "code-length exceeded"
// condition, which is a load-time rather than a runtime fault: the
// instruction stream is known in full before the first fetch.
func New(prog code.Program, opts ...Option) (*Instance, error) {
	i := &Instance{
		code:     prog,
		maxStack: MaxStackHeight,
		bp:       1,
		sp:       0,
	}
	for _, opt := range opts {
		if err := opt(i); err != nil {
			return nil, err
		}
	}
	if len(prog) > MaxCodeLength {
		return nil, errors.WithStack(diag.New(diag.Exec, diag.CodeLengthExceeded))
	}
	i.stack = make([]Cell, i.maxStack+1)
	if i.in == nil {
		i.in = bufio.NewReader(os.Stdin)
	}
	if i.out == nil {
		i.out = os.Stdout
	}
	return i, nil
}

// Registers returns a copy of the live register file.
func (i *Instance) Registers() [NumRegisters]Cell {
	return i.regs
}

// Stack returns the live portion of the stack, cells 1..sp, for tracing.
// The returned slice aliases the instance's backing array and must not be
// retained across further Run calls.
func (i *Instance) Stack() []Cell {
	if i.sp < 1 {
		return nil
	}
	return i.stack[1 : i.sp+1]
}

// PC, BP, SP expose the machine's control registers, chiefly for tests and
// trace rendering.
func (i *Instance) PC() int { return i.pc }
func (i *Instance) BP() int { return i.bp }
func (i *Instance) SP() int { return i.sp }

// InstructionCount returns the number of instructions executed so far.
func (i *Instance) InstructionCount() int64 {
	return i.insCount
}
