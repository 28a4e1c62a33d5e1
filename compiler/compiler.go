// Package compiler implements the single-pass recursive-descent parser and
// code generator: parsing and scope-resolved code generation happen in
// lockstep, with no AST materialized in between.
package compiler

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/internal/diag"
	"github.com/dbrandt/pl0/scanner"
	"github.com/dbrandt/pl0/symtab"
	"github.com/dbrandt/pl0/token"
)

// frameHeaderSize is the number of reserved cells (scratch, static link,
// dynamic link, return address) at the base of every activation record;
// the first local variable's address is frameHeaderSize.
const frameHeaderSize = 4

// Result is the output of a successful compilation.
type Result struct {
	Program  code.Program
	Literals *scanner.Literals
}

// lexer is the subset of *scanner.Scanner the compiler depends on; kept as
// an interface so tests can drive the compiler with canned token streams.
type lexer interface {
	Next() (token.Token, error)
}

// Compiler holds all parser/codegen state: the current lookahead token, the
// symbol table (shared stack across nested blocks), the instruction stream
// built so far, the current lexical level, and the monotone register
// allocator.
type Compiler struct {
	lex lexer
	lit *scanner.Literals
	sym *symtab.Table

	prog code.Program
	tok  token.Token
	err  error

	level int
	reg   int // currentRegister; -1 means no live intermediate
}

// Compile parses and compiles src in one pass, returning the emitted
// instruction stream and the interned literal table. Compilation aborts on
// the first fatal condition; no attempt is made to recover and continue
// parsing after an error.
func Compile(src string) (Result, error) {
	sc := scanner.New(src)
	c := &Compiler{lex: sc, lit: sc.Literals, sym: &symtab.Table{}, level: -1, reg: -1}
	c.advance()
	if c.err != nil {
		return Result{}, c.err
	}
	if err := c.program(); err != nil {
		return Result{}, err
	}
	return Result{Program: c.prog, Literals: c.lit}, nil
}

// advance consumes the current lookahead token and fetches the next one,
// recording any lexical error in c.err so that subsequent parse steps can
// bail out via c.err-checking helpers.
func (c *Compiler) advance() {
	if c.err != nil {
		return
	}
	tok, err := c.lex.Next()
	if err != nil {
		c.err = err
		return
	}
	c.tok = tok
}

// expect consumes the current token if it has kind k, else returns a fatal
// Parse error with the given code.
func (c *Compiler) expect(k token.Kind, code diag.Code) error {
	if c.err != nil {
		return c.err
	}
	if c.tok.Kind != k {
		return errors.WithStack(diag.New(diag.Parse, code))
	}
	c.advance()
	return c.err
}

func (c *Compiler) emit(op code.Op, r, l, m int) int {
	addr := len(c.prog)
	c.prog = append(c.prog, code.Instruction{Op: op, R: r, L: l, M: m})
	return addr
}

func (c *Compiler) patch(addr, m int) {
	c.prog[addr].M = m
}

// pushReg allocates a fresh virtual register for a newly produced
// intermediate value and returns it.
func (c *Compiler) pushReg() int {
	c.reg++
	return c.reg
}

// popReg releases the top intermediate, returning the register the result
// of consuming it (a binary operator) now lives in.
func (c *Compiler) popReg() int {
	c.reg--
	return c.reg
}

// program parses the top-level "block '.'" production.
func (c *Compiler) program() error {
	if err := c.block(); err != nil {
		return err
	}
	if err := c.expect(token.Period, diag.PeriodExpected); err != nil {
		return err
	}
	c.emit(code.SIO3, 0, 0, 3)
	return nil
}

// block implements the block-entry contract: reserve a placeholder jump,
// process declarations (consts, vars, nested procedures), back-patch the
// jump to the first executable instruction, reserve frame space, parse the
// body statement, and emit the block's return.
func (c *Compiler) block() error {
	c.level++
	defer func() { c.level-- }()

	jmp := c.emit(code.JMP, 0, 0, 0)
	mark := c.sym.Len()

	if err := c.constDecl(); err != nil {
		return err
	}
	varCount, err := c.varDecl()
	if err != nil {
		return err
	}
	if err := c.procDecls(); err != nil {
		return err
	}

	c.patch(jmp, len(c.prog))
	c.emit(code.INC, 0, 0, frameHeaderSize+varCount)

	if err := c.statement(); err != nil {
		return err
	}
	c.emit(code.RTN, 0, 0, 0)

	c.sym.ShrinkTo(mark)
	return nil
}

// constDecl parses an optional "const ident = number {, ident = number} ;".
func (c *Compiler) constDecl() error {
	if c.err != nil || c.tok.Kind != token.Const {
		return c.err
	}
	c.advance()
	for {
		if c.err != nil || c.tok.Kind != token.Ident {
			return orErr(c.err, diag.New(diag.Parse, diag.DeclKeywordMustBeFollowedByIdent))
		}
		name := c.lit.At(c.tok.Literal)
		c.advance()
		if err := c.expect(token.Eql, diag.IdentifierMustBeFollowedByEquals); err != nil {
			if c.tok.Kind == token.Becomes {
				return errors.WithStack(diag.New(diag.Parse, diag.UseEqualsNotBecomes))
			}
			return err
		}
		if c.err != nil || c.tok.Kind != token.Number {
			return orErr(c.err, diag.New(diag.Parse, diag.EqualsMustBeFollowedByNumber))
		}
		value, err := c.numberValue()
		if err != nil {
			return err
		}
		c.advance()
		c.sym.Push(symtab.Entry{Kind: symtab.Constant, Name: name, Value: value, Level: c.level})
		if c.tok.Kind == token.Comma {
			c.advance()
			continue
		}
		break
	}
	return c.expect(token.Semicolon, diag.SemicolonOrCommaMissing)
}

// numberValue converts the current NUMBER token's literal spelling to an
// integer, raising NumberTooLarge if conversion fails. In practice this is
// unreachable once the scanner's own 5-digit cap is in force, but the
// taxonomy entry is kept for completeness.
func (c *Compiler) numberValue() (int, error) {
	v, err := strconv.Atoi(c.lit.At(c.tok.Literal))
	if err != nil {
		return 0, errors.WithStack(diag.New(diag.Parse, diag.NumberTooLarge))
	}
	return v, nil
}

// varDecl parses an optional "var ident {, ident} ;" and returns the number
// of variables declared.
func (c *Compiler) varDecl() (int, error) {
	if c.err != nil || c.tok.Kind != token.Var {
		return 0, c.err
	}
	c.advance()
	count := 0
	for {
		if c.err != nil || c.tok.Kind != token.Ident {
			return 0, orErr(c.err, diag.New(diag.Parse, diag.DeclKeywordMustBeFollowedByIdent))
		}
		name := c.lit.At(c.tok.Literal)
		c.advance()
		c.sym.Push(symtab.Entry{Kind: symtab.Variable, Name: name, Level: c.level, Address: frameHeaderSize + count})
		count++
		if c.tok.Kind == token.Comma {
			c.advance()
			continue
		}
		break
	}
	if err := c.expect(token.Semicolon, diag.SemicolonOrCommaMissing); err != nil {
		return 0, err
	}
	return count, nil
}

// procDecls parses zero or more "procedure ident ; block ;" declarations.
func (c *Compiler) procDecls() error {
	for c.err == nil && c.tok.Kind == token.Procedure {
		c.advance()
		if c.err != nil || c.tok.Kind != token.Ident {
			return orErr(c.err, diag.New(diag.Parse, diag.DeclKeywordMustBeFollowedByIdent))
		}
		name := c.lit.At(c.tok.Literal)
		c.advance()
		c.sym.Push(symtab.Entry{Kind: symtab.Procedure, Name: name, Level: c.level, Address: len(c.prog)})
		if err := c.expect(token.Semicolon, diag.SemicolonOrCommaMissing); err != nil {
			return err
		}
		if err := c.block(); err != nil {
			return err
		}
		if err := c.expect(token.Semicolon, diag.SemicolonOrEndExpected); err != nil {
			return err
		}
	}
	return c.err
}

// orErr returns base if non-nil, else wraps fallback.
func orErr(base error, fallback *diag.Error) error {
	if base != nil {
		return base
	}
	return errors.WithStack(fallback)
}
