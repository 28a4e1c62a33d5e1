package compiler

import (
	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/internal/diag"
	"github.com/dbrandt/pl0/symtab"
	"github.com/dbrandt/pl0/token"
)

// statement parses the optional statement production. An empty statement
// (none of the leading tokens match) is valid and emits nothing, covering
// the "empty begin end block" boundary case.
func (c *Compiler) statement() error {
	if c.err != nil {
		return c.err
	}
	switch c.tok.Kind {
	case token.Ident:
		return c.assignment()
	case token.Call:
		return c.callStatement()
	case token.Begin:
		return c.beginStatement()
	case token.If:
		return c.ifStatement()
	case token.While:
		return c.whileStatement()
	case token.Read:
		return c.readStatement()
	case token.Write:
		return c.writeStatement()
	default:
		return nil
	}
}

func (c *Compiler) resolve(name string) (symtab.Entry, error) {
	e, ok := c.sym.Lookup(name)
	if !ok {
		return symtab.Entry{}, errors.WithStack(diag.Newf(diag.Parse, diag.UndeclaredIdentifier, "%q", name))
	}
	return e, nil
}

func (c *Compiler) assignment() error {
	name := c.lit.At(c.tok.Literal)
	c.advance()
	sym, err := c.resolve(name)
	if err != nil {
		return err
	}
	if sym.Kind != symtab.Variable {
		return errors.WithStack(diag.New(diag.Parse, diag.AssignmentToConstOrProc))
	}
	if err := c.expect(token.Becomes, diag.AssignmentOperatorExpected); err != nil {
		return err
	}
	if err := c.expression(); err != nil {
		return err
	}
	r := c.reg
	c.popReg()
	c.emit(code.STO, r, c.level-sym.Level, sym.Address)
	return nil
}

func (c *Compiler) callStatement() error {
	c.advance()
	if c.err != nil || c.tok.Kind != token.Ident {
		return orErr(c.err, diag.New(diag.Parse, diag.CallMustBeFollowedByIdent))
	}
	name := c.lit.At(c.tok.Literal)
	c.advance()
	sym, err := c.resolve(name)
	if err != nil {
		return err
	}
	if sym.Kind != symtab.Procedure {
		return errors.WithStack(diag.New(diag.Parse, diag.CallOfConstOrVar))
	}
	c.emit(code.CAL, 0, c.level-sym.Level, sym.Address)
	return nil
}

func (c *Compiler) beginStatement() error {
	c.advance()
	if err := c.statement(); err != nil {
		return err
	}
	for c.err == nil && c.tok.Kind == token.Semicolon {
		c.advance()
		if err := c.statement(); err != nil {
			return err
		}
	}
	return c.expect(token.End, diag.SemicolonOrEndExpected)
}

func (c *Compiler) ifStatement() error {
	c.advance()
	if err := c.condition(); err != nil {
		return err
	}
	r := c.reg
	c.popReg()
	jpc := c.emit(code.JPC, r, 0, 0)
	if err := c.expect(token.Then, diag.ThenExpected); err != nil {
		return err
	}
	if err := c.statement(); err != nil {
		return err
	}
	if c.err == nil && c.tok.Kind == token.Else {
		jmp := c.emit(code.JMP, 0, 0, 0)
		c.patch(jpc, len(c.prog))
		c.advance()
		if err := c.statement(); err != nil {
			return err
		}
		c.patch(jmp, len(c.prog))
		return nil
	}
	c.patch(jpc, len(c.prog))
	return nil
}

func (c *Compiler) whileStatement() error {
	c.advance()
	condAddr := len(c.prog)
	if err := c.condition(); err != nil {
		return err
	}
	r := c.reg
	c.popReg()
	jpc := c.emit(code.JPC, r, 0, 0)
	if err := c.expect(token.Do, diag.DoExpected); err != nil {
		return err
	}
	if err := c.statement(); err != nil {
		return err
	}
	c.emit(code.JMP, 0, 0, condAddr)
	c.patch(jpc, len(c.prog))
	return nil
}

func (c *Compiler) readStatement() error {
	c.advance()
	if c.err != nil || c.tok.Kind != token.Ident {
		return orErr(c.err, diag.New(diag.Parse, diag.ReadOrWriteMustBeFollowedByIdent))
	}
	name := c.lit.At(c.tok.Literal)
	c.advance()
	sym, err := c.resolve(name)
	if err != nil {
		return err
	}
	if sym.Kind != symtab.Variable {
		return errors.WithStack(diag.New(diag.Parse, diag.AssignmentToConstOrProc))
	}
	r := c.pushReg()
	c.emit(code.SIO2, r, 0, 2)
	c.popReg()
	c.emit(code.STO, r, c.level-sym.Level, sym.Address)
	return nil
}

// writeStatement parses "write" followed by either an identifier (a
// variable or constant; a procedure identifier fails ProcedureInExpression)
// or a bare number literal. The number-literal form widens the strict
// "write ident" grammar to also let write print a literal value directly,
// which the historical write-sym handler never supported; see DESIGN.md.
func (c *Compiler) writeStatement() error {
	c.advance()
	if c.tok.Kind == token.Number {
		v, err := c.numberValue()
		if err != nil {
			return err
		}
		r := c.pushReg()
		c.emit(code.LIT, r, 0, v)
		c.advance()
		c.emit(code.SIO1, r, 0, 1)
		c.popReg()
		return nil
	}
	if c.err != nil || c.tok.Kind != token.Ident {
		return orErr(c.err, diag.New(diag.Parse, diag.ReadOrWriteMustBeFollowedByIdent))
	}
	name := c.lit.At(c.tok.Literal)
	c.advance()
	sym, err := c.resolve(name)
	if err != nil {
		return err
	}
	r := c.pushReg()
	switch sym.Kind {
	case symtab.Variable:
		c.emit(code.LOD, r, c.level-sym.Level, sym.Address)
	case symtab.Constant:
		c.emit(code.LIT, r, 0, sym.Value)
	case symtab.Procedure:
		c.popReg()
		return errors.WithStack(diag.New(diag.Parse, diag.ProcedureInExpression))
	}
	c.emit(code.SIO1, r, 0, 1)
	c.popReg()
	return nil
}
