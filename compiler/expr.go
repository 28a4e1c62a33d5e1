package compiler

import (
	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/internal/diag"
	"github.com/dbrandt/pl0/symtab"
	"github.com/dbrandt/pl0/token"
)

// condition parses "odd expression | expression rel-op expression". On
// success the boolean result (0 or 1) is left live in the register c.reg
// points at; the caller pops it.
func (c *Compiler) condition() error {
	if c.err != nil {
		return c.err
	}
	if c.tok.Kind == token.Odd {
		c.advance()
		if err := c.expression(); err != nil {
			return err
		}
		r := c.reg
		c.emit(code.ODD, r, r, 0)
		return nil
	}

	if err := c.expression(); err != nil {
		return err
	}
	left := c.reg

	op, ok := relOpcode(c.tok.Kind)
	if !ok {
		return errors.WithStack(diag.New(diag.Parse, diag.RelationalOperatorExpected))
	}
	c.advance()

	if err := c.expression(); err != nil {
		return err
	}
	right := c.reg

	c.emit(op, left, left, right)
	c.popReg()
	return nil
}

func relOpcode(k token.Kind) (code.Op, bool) {
	switch k {
	case token.Eql:
		return code.EQL, true
	case token.Neq:
		return code.NEQ, true
	case token.Lss:
		return code.LSS, true
	case token.Leq:
		return code.LEQ, true
	case token.Gtr:
		return code.GTR, true
	case token.Geq:
		return code.GEQ, true
	default:
		return 0, false
	}
}

// expression parses "['+'|'-'] term {('+'|'-') term}". The result is left
// live in the register c.reg points at.
func (c *Compiler) expression() error {
	if c.err != nil {
		return c.err
	}

	negate := false
	switch c.tok.Kind {
	case token.Plus:
		c.advance()
	case token.Minus:
		c.advance()
		negate = true
	}

	if err := c.term(); err != nil {
		return err
	}
	if negate {
		r := c.reg
		c.emit(code.NEG, r, r, 0)
	}

	for c.err == nil && (c.tok.Kind == token.Plus || c.tok.Kind == token.Minus) {
		op := c.tok.Kind
		c.advance()
		left := c.reg
		if err := c.term(); err != nil {
			return err
		}
		right := c.reg
		if op == token.Plus {
			c.emit(code.ADD, left, left, right)
		} else {
			c.emit(code.SUB, left, left, right)
		}
		c.popReg()
	}
	return c.err
}

// term parses "factor {('*'|'/') factor}". The result is left live in the
// register c.reg points at.
func (c *Compiler) term() error {
	if err := c.factor(); err != nil {
		return err
	}
	for c.err == nil && (c.tok.Kind == token.Times || c.tok.Kind == token.Slash) {
		op := c.tok.Kind
		c.advance()
		left := c.reg
		if err := c.factor(); err != nil {
			return err
		}
		right := c.reg
		if op == token.Times {
			c.emit(code.MUL, left, left, right)
		} else {
			c.emit(code.DIV, left, left, right)
		}
		c.popReg()
	}
	return c.err
}

// factor parses "ident | number | '(' expression ')'", allocating a fresh
// register and leaving the produced value in it.
func (c *Compiler) factor() error {
	if c.err != nil {
		return c.err
	}
	switch c.tok.Kind {
	case token.Ident:
		name := c.lit.At(c.tok.Literal)
		c.advance()
		sym, err := c.resolve(name)
		if err != nil {
			return err
		}
		r := c.pushReg()
		switch sym.Kind {
		case symtab.Constant:
			c.emit(code.LIT, r, 0, sym.Value)
		case symtab.Variable:
			c.emit(code.LOD, r, c.level-sym.Level, sym.Address)
		case symtab.Procedure:
			c.popReg()
			return errors.WithStack(diag.New(diag.Parse, diag.ProcedureInExpression))
		}
		return nil

	case token.Number:
		v, err := c.numberValue()
		if err != nil {
			return err
		}
		r := c.pushReg()
		c.emit(code.LIT, r, 0, v)
		c.advance()
		return nil

	case token.LParen:
		c.advance()
		if err := c.expression(); err != nil {
			return err
		}
		return c.expect(token.RParen, diag.RightParenMissing)

	default:
		return errors.WithStack(diag.New(diag.Parse, diag.InvalidExpressionStart))
	}
}
