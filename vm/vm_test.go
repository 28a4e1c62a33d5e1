package vm_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/vm"
)

// wrap builds the tiny top-level block a real compiler would emit for
// "begin write <exprRegResult> end.": a leading JMP over nothing, INC for
// the (empty) frame, the caller-supplied body, then SIO3 (no RTN).
func wrap(body ...code.Instruction) code.Program {
	prog := code.Program{
		{Op: code.JMP, M: 1},
		{Op: code.INC, M: 4},
	}
	prog = append(prog, body...)
	prog = append(prog, code.Instruction{Op: code.SIO3, M: 3})
	return prog
}

func TestArithmeticAndWrite(t *testing.T) {
	// reg0 := 5; reg1 := 3; reg0 := reg0 + reg1; write reg0  => prints 8
	prog := wrap(
		code.Instruction{Op: code.LIT, R: 0, M: 5},
		code.Instruction{Op: code.LIT, R: 1, M: 3},
		code.Instruction{Op: code.ADD, R: 0, L: 0, M: 1},
		code.Instruction{Op: code.SIO1, R: 0, M: 1},
	)
	var out bytes.Buffer
	m, err := vm.New(prog, vm.WithOutput(&out))
	require.NoError(t, err)
	require.NoError(t, m.Run())
	require.Equal(t, "8\n", out.String())
}

func TestDivisionByZeroFaults(t *testing.T) {
	prog := wrap(
		code.Instruction{Op: code.LIT, R: 0, M: 1},
		code.Instruction{Op: code.LIT, R: 1, M: 0},
		code.Instruction{Op: code.DIV, R: 0, L: 0, M: 1},
	)
	m, err := vm.New(prog)
	require.NoError(t, err)
	err = m.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "division by zero")
}

func TestInvalidOpcodeFaults(t *testing.T) {
	prog := code.Program{{Op: code.Op(99)}}
	m, err := vm.New(prog)
	require.NoError(t, err)
	err = m.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid opcode")
}

func TestReadFailureFaultsWithInputError(t *testing.T) {
	prog := wrap(code.Instruction{Op: code.SIO2, R: 0, M: 2})
	m, err := vm.New(prog, vm.WithInput(strings.NewReader("not-a-number")))
	require.NoError(t, err)
	err = m.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "failed to read an integer")
}

func TestCodeLengthExceededAtLoad(t *testing.T) {
	prog := make(code.Program, vm.MaxCodeLength+1)
	for i := range prog {
		prog[i] = code.Instruction{Op: code.SIO3, M: 3}
	}
	_, err := vm.New(prog)
	require.Error(t, err)
	require.Contains(t, err.Error(), "code-length exceeded")
}

func TestStackOverflowFaults(t *testing.T) {
	prog := code.Program{{Op: code.INC, M: vm.MaxStackHeight + 10}}
	m, err := vm.New(prog)
	require.NoError(t, err)
	err = m.Run()
	require.Error(t, err)
	require.Contains(t, err.Error(), "stack overflow")
}

// TestProcedureCallAndReturn exercises CAL/RTN and static-link-based LOD
// across one level of nesting: an inner procedure loads its caller's
// variable through one static link and writes it.
func TestProcedureCallAndReturn(t *testing.T) {
	prog := code.Program{
		/*0*/ {Op: code.JMP, M: 1},
		/*1*/ {Op: code.INC, M: 5}, // frameHeaderSize(4) + 1 local
		/*2*/ {Op: code.LIT, R: 0, M: 42},
		/*3*/ {Op: code.STO, R: 0, L: 0, M: 4}, // outer.x := 42
		/*4*/ {Op: code.CAL, L: 0, M: 6},
		/*5*/ {Op: code.RTN},
		/*6*/ {Op: code.JMP, M: 7}, // inner block's own leading jump
		/*7*/ {Op: code.INC, M: 4}, // inner: no locals of its own
		/*8*/ {Op: code.LOD, R: 0, L: 1, M: 4}, // load outer.x via one static link
		/*9*/ {Op: code.SIO1, R: 0, M: 1},
		/*10*/ {Op: code.RTN},
	}

	var out bytes.Buffer
	m, err := vm.New(prog, vm.WithOutput(&out))
	require.NoError(t, err)
	require.NoError(t, m.Run())
	require.Equal(t, "42\n", out.String())
}
