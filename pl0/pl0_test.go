package pl0_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/config"
	"github.com/dbrandt/pl0/internal/diag"
	"github.com/dbrandt/pl0/pl0"
	"github.com/dbrandt/pl0/vm"
)

func TestEndToEndAssignAddWrite(t *testing.T) {
	src := `const a=5; var b; begin b := a + 3; write b end.`
	result, err := pl0.Compile(src)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, pl0.Run(result.Program, config.DefaultConfig(), vm.WithOutput(&out)))
	require.Equal(t, "8\n", out.String())
}

func TestEndToEndWhileLoop(t *testing.T) {
	src := `var x; begin x := 0; while x < 3 do begin write x; x := x + 1 end end.`
	result, err := pl0.Compile(src)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, pl0.Run(result.Program, config.DefaultConfig(), vm.WithOutput(&out)))
	require.Equal(t, "0\n1\n2\n", out.String())
}

func TestEndToEndProcedureCall(t *testing.T) {
	src := `var x; procedure p; begin x := x + 1; write x end; begin x := 0; call p; call p end.`
	result, err := pl0.Compile(src)
	require.NoError(t, err)

	var out bytes.Buffer
	require.NoError(t, pl0.Run(result.Program, config.DefaultConfig(), vm.WithOutput(&out)))
	require.Equal(t, "1\n2\n", out.String())
}

func TestWireCodeRoundTrip(t *testing.T) {
	prog := code.Program{
		{Op: code.LIT, R: 0, M: 7},
		{Op: code.SIO1, R: 0, M: 1},
		{Op: code.SIO3, M: 3},
	}
	var buf bytes.Buffer
	require.NoError(t, pl0.WriteCode(&buf, prog))
	got, err := pl0.ReadCode(&buf)
	require.NoError(t, err)
	require.Equal(t, prog, got)
}

func TestWireLiteralsRoundTrip(t *testing.T) {
	_, lits, err := pl0.Scan(`const a=5; var bcd;`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pl0.WriteLiterals(&buf, lits))
	got, err := pl0.ReadLiterals(&buf)
	require.NoError(t, err)
	require.Equal(t, lits.All(), got.All())
}

func TestWireLexemesRoundTrip(t *testing.T) {
	toks, _, err := pl0.Scan(`const a=5;`)
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, pl0.WriteLexemes(&buf, toks))
	got, err := pl0.ReadLexemes(&buf)
	require.NoError(t, err)
	require.Equal(t, toks, got)
}

func TestEndToEndReadMultiply(t *testing.T) {
	src := `var x, y; begin read x; read y; write x * y end.`
	result, err := pl0.Compile(src)
	require.NoError(t, err)

	var out bytes.Buffer
	err = pl0.Run(result.Program, config.DefaultConfig(),
		vm.WithInput(strings.NewReader("4 7")), vm.WithOutput(&out))
	require.NoError(t, err)
	require.Equal(t, "28\n", out.String())
}

func TestEndToEndOddConditional(t *testing.T) {
	src := `var n; begin read n; if odd n then write n else write 0 end.`
	result, err := pl0.Compile(src)
	require.NoError(t, err)

	var outOdd bytes.Buffer
	require.NoError(t, pl0.Run(result.Program, config.DefaultConfig(),
		vm.WithInput(strings.NewReader("7")), vm.WithOutput(&outOdd)))
	require.Equal(t, "7\n", outOdd.String())

	var outEven bytes.Buffer
	require.NoError(t, pl0.Run(result.Program, config.DefaultConfig(),
		vm.WithInput(strings.NewReader("8")), vm.WithOutput(&outEven)))
	require.Equal(t, "0\n", outEven.String())
}

func TestEndToEndProcedureTraceSeparators(t *testing.T) {
	src := `procedure p; var a; begin a := 10; write a end; call p.`
	result, err := pl0.Compile(src)
	require.NoError(t, err)

	var out, trace bytes.Buffer
	require.NoError(t, pl0.Run(result.Program, config.DefaultConfig(),
		vm.WithOutput(&out), vm.WithTrace(&trace)))
	require.Equal(t, "10\n", out.String())
	// Each trace line has two fixed column separators; a procedure call
	// pushes a fresh activation record onto the shared stack, which adds a
	// third "|" marking the boundary once code resumes executing inside it.
	foundBoundary := false
	for _, line := range strings.Split(trace.String(), "\n") {
		if strings.Count(line, "|") >= 3 {
			foundBoundary = true
			break
		}
	}
	require.True(t, foundBoundary, "expected a trace line with an activation-record boundary marker:\n%s", trace.String())
}

func TestIdentifierStartsWithDigitHaltsAtScan(t *testing.T) {
	_, err := pl0.Compile("var x; begin x := 1abc end.")
	require.Error(t, err)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	require.Equal(t, diag.IdentifierStartsWithDigit, de.ErrCode())
	require.Equal(t, diag.Scan, de.Phase)
}
