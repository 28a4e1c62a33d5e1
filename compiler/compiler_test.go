package compiler_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/compiler"
	"github.com/dbrandt/pl0/internal/diag"
)

func compileErr(t *testing.T, src string) *diag.Error {
	t.Helper()
	_, err := compiler.Compile(src)
	require.Error(t, err)
	var de *diag.Error
	require.ErrorAs(t, err, &de)
	return de
}

func TestProgramMustEndWithPeriod(t *testing.T) {
	de := compileErr(t, "var x; begin x := 1 end")
	require.Equal(t, diag.PeriodExpected, de.ErrCode())
}

func TestUseEqualsNotBecomes(t *testing.T) {
	de := compileErr(t, "const a := 5; begin end.")
	require.Equal(t, diag.UseEqualsNotBecomes, de.ErrCode())
}

func TestEqualsMustBeFollowedByNumber(t *testing.T) {
	de := compileErr(t, "const a = b; begin end.")
	require.Equal(t, diag.EqualsMustBeFollowedByNumber, de.ErrCode())
}

func TestIdentifierMustBeFollowedByEquals(t *testing.T) {
	de := compileErr(t, "const a 5; begin end.")
	require.Equal(t, diag.IdentifierMustBeFollowedByEquals, de.ErrCode())
}

func TestDeclKeywordMustBeFollowedByIdent(t *testing.T) {
	de := compileErr(t, "var 5; begin end.")
	require.Equal(t, diag.DeclKeywordMustBeFollowedByIdent, de.ErrCode())
}

func TestSemicolonOrCommaMissing(t *testing.T) {
	de := compileErr(t, "var x y; begin end.")
	require.Equal(t, diag.SemicolonOrCommaMissing, de.ErrCode())
}

func TestUndeclaredIdentifier(t *testing.T) {
	de := compileErr(t, "begin x := 1 end.")
	require.Equal(t, diag.UndeclaredIdentifier, de.ErrCode())
}

func TestAssignmentToConstant(t *testing.T) {
	de := compileErr(t, "const a = 5; begin a := 1 end.")
	require.Equal(t, diag.AssignmentToConstOrProc, de.ErrCode())
}

func TestAssignmentToProcedure(t *testing.T) {
	de := compileErr(t, "procedure p; begin end; begin p := 1 end.")
	require.Equal(t, diag.AssignmentToConstOrProc, de.ErrCode())
}

func TestAssignmentOperatorExpected(t *testing.T) {
	de := compileErr(t, "var x; begin x = 1 end.")
	require.Equal(t, diag.AssignmentOperatorExpected, de.ErrCode())
}

func TestThenExpected(t *testing.T) {
	de := compileErr(t, "var x; begin if x = 0 x := 1 end.")
	require.Equal(t, diag.ThenExpected, de.ErrCode())
}

func TestSemicolonOrEndExpected(t *testing.T) {
	de := compileErr(t, "var x; begin x := 1 x := 2 end.")
	require.Equal(t, diag.SemicolonOrEndExpected, de.ErrCode())
}

func TestDoExpected(t *testing.T) {
	de := compileErr(t, "var x; begin while x = 0 x := 1 end.")
	require.Equal(t, diag.DoExpected, de.ErrCode())
}

func TestRelationalOperatorExpected(t *testing.T) {
	de := compileErr(t, "var x; begin if x then x := 1 end.")
	require.Equal(t, diag.RelationalOperatorExpected, de.ErrCode())
}

func TestProcedureInExpressionAsFactor(t *testing.T) {
	de := compileErr(t, "var x; procedure p; begin end; begin x := p + 1 end.")
	require.Equal(t, diag.ProcedureInExpression, de.ErrCode())
}

func TestProcedureInExpressionAsWriteOperand(t *testing.T) {
	de := compileErr(t, "procedure p; begin end; begin write p end.")
	require.Equal(t, diag.ProcedureInExpression, de.ErrCode())
}

func TestRightParenMissing(t *testing.T) {
	de := compileErr(t, "var x; begin x := (1 + 2 end.")
	require.Equal(t, diag.RightParenMissing, de.ErrCode())
}

func TestInvalidExpressionStart(t *testing.T) {
	de := compileErr(t, "var x; begin x := end.")
	require.Equal(t, diag.InvalidExpressionStart, de.ErrCode())
}

func TestReadMustBeFollowedByIdent(t *testing.T) {
	de := compileErr(t, "begin read 5 end.")
	require.Equal(t, diag.ReadOrWriteMustBeFollowedByIdent, de.ErrCode())
}

func TestWriteMustBeFollowedByIdent(t *testing.T) {
	de := compileErr(t, "begin write end.")
	require.Equal(t, diag.ReadOrWriteMustBeFollowedByIdent, de.ErrCode())
}

func TestCallMustBeFollowedByIdent(t *testing.T) {
	de := compileErr(t, "begin call 5 end.")
	require.Equal(t, diag.CallMustBeFollowedByIdent, de.ErrCode())
}

func TestCallOfConstant(t *testing.T) {
	de := compileErr(t, "const a = 5; begin call a end.")
	require.Equal(t, diag.CallOfConstOrVar, de.ErrCode())
}

func TestCallOfVariable(t *testing.T) {
	de := compileErr(t, "var x; begin call x end.")
	require.Equal(t, diag.CallOfConstOrVar, de.ErrCode())
}

func TestWriteOfNumberLiteral(t *testing.T) {
	res, err := compiler.Compile("begin write 0 end.")
	require.NoError(t, err)
	var lit, sio code.Instruction
	var foundLit, foundSIO bool
	for _, ins := range res.Program {
		if ins.Op == code.LIT {
			lit = ins
			foundLit = true
		}
		if ins.Op == code.SIO1 {
			sio = ins
			foundSIO = true
		}
	}
	require.True(t, foundLit)
	require.True(t, foundSIO)
	require.Equal(t, 0, lit.M)
	require.Equal(t, lit.R, sio.R)
}

func TestEmptyBeginEndBlockIsValid(t *testing.T) {
	res, err := compiler.Compile("begin end.")
	require.NoError(t, err)
	// block() always emits its own leading JMP, INC, and trailing RTN, plus
	// program()'s SIO3 halt; an empty body contributes nothing beyond that.
	require.Len(t, res.Program, 4)
	require.Equal(t, code.JMP, res.Program[0].Op)
	require.Equal(t, code.INC, res.Program[1].Op)
	require.Equal(t, code.RTN, res.Program[2].Op)
	require.Equal(t, code.SIO3, res.Program[3].Op)
}

func TestNestedProcedureStaticLinkDepth(t *testing.T) {
	// Three levels deep: the innermost procedure references a variable
	// declared two levels out, exercising base(l, bp) with l=2.
	src := `
var x;
procedure p;
  procedure q;
  begin
    x := x + 1
  end;
begin
  call q
end;
begin
  x := 0;
  call p
end.
`
	res, err := compiler.Compile(src)
	require.NoError(t, err)

	var lods, stos []code.Instruction
	for _, ins := range res.Program {
		if ins.Op == code.LOD {
			lods = append(lods, ins)
		}
		if ins.Op == code.STO {
			stos = append(stos, ins)
		}
	}
	require.NotEmpty(t, lods)
	require.NotEmpty(t, stos)
	// q is nested two levels below the declaration of x (outer block -> p -> q),
	// so every access to x from within q carries level difference 2.
	require.Equal(t, 2, lods[0].L)
	require.Equal(t, 2, stos[0].L)
}

func TestRegisterAllocationReleasesAfterEachStatement(t *testing.T) {
	// Two independent assignments in sequence must each start allocating
	// from register 0: nothing should leak a live register across
	// statements.
	res, err := compiler.Compile("var a,b; begin a := 1 + 2; b := 3 + 4 end.")
	require.NoError(t, err)
	var adds []code.Instruction
	for _, ins := range res.Program {
		if ins.Op == code.ADD {
			adds = append(adds, ins)
		}
	}
	require.Len(t, adds, 2)
	require.Equal(t, 0, adds[0].R)
	require.Equal(t, 0, adds[1].R)
}

func TestIfWithoutElseBackpatchTarget(t *testing.T) {
	res, err := compiler.Compile("var x; begin if x = 0 then x := 1 end.")
	require.NoError(t, err)
	found := false
	for i, ins := range res.Program {
		if ins.Op == code.JPC {
			found = true
			// with no else branch, JPC must target the block's own
			// trailing RTN, the instruction immediately preceding
			// program()'s final SIO3 halt.
			require.Equal(t, len(res.Program)-2, ins.M)
		}
		_ = i
	}
	require.True(t, found)
}

func TestWhileLoopBackpatchTargets(t *testing.T) {
	res, err := compiler.Compile("var x; begin while x < 3 do x := x + 1 end.")
	require.NoError(t, err)
	var jmpAddr, jpcAddr = -1, -1
	var jmp, jpc code.Instruction
	for i, ins := range res.Program {
		if ins.Op == code.JMP && i > 0 {
			jmp = ins
			jmpAddr = i
		}
		if ins.Op == code.JPC {
			jpc = ins
			jpcAddr = i
		}
	}
	require.NotEqual(t, -1, jmpAddr)
	require.NotEqual(t, -1, jpcAddr)
	// the condition is tested (JPC) before the body runs, and the body's
	// trailing JMP jumps back to the start of the condition; JPC's own
	// target is the instruction right after that back-edge, i.e. loop exit.
	require.Less(t, jpcAddr, jmpAddr)
	require.LessOrEqual(t, jmp.M, jpcAddr)
	require.Equal(t, jmpAddr+1, jpc.M)
}
