package pl0

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/scanner"
	"github.com/dbrandt/pl0/token"
)

// wireKind and unwireKind convert between the compiler's 0-indexed Kind
// values (Null=0 is a pure sentinel) and the historical 1-indexed token
// numbering the reference tool uses (nulsym=1, identsym=2, numbersym=3,
// ...), so that a dumped lexeme list lines up with its numbering rather
// than Go's.
func wireKind(k token.Kind) int   { return int(k) + 1 }
func unwireKind(v int) token.Kind { return token.Kind(v - 1) }

// WriteLexemes writes toks in the lexeme-list wire format: whitespace-
// separated decimal integers, with each IDENT/NUMBER token immediately
// followed by its literal-table index.
func WriteLexemes(w io.Writer, toks []token.Token) error {
	bw := bufio.NewWriter(w)
	for _, t := range toks {
		if _, err := fmt.Fprintf(bw, "%d ", wireKind(t.Kind)); err != nil {
			return err
		}
		if t.HasLiteral() {
			if _, err := fmt.Fprintf(bw, "%d ", t.Literal); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// ReadLexemes parses the lexeme-list wire format back into tokens.
func ReadLexemes(r io.Reader) ([]token.Token, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	var toks []token.Token
	for sc.Scan() {
		var v int
		if _, err := fmt.Sscanf(sc.Text(), "%d", &v); err != nil {
			return nil, errors.Wrap(err, "parse lexeme kind")
		}
		k := unwireKind(v)
		t := token.Token{Kind: k}
		if t.HasLiteral() {
			if !sc.Scan() {
				return nil, errors.Errorf("truncated lexeme list: %s missing literal index", k)
			}
			if _, err := fmt.Sscanf(sc.Text(), "%d", &t.Literal); err != nil {
				return nil, errors.Wrap(err, "parse literal index")
			}
		}
		toks = append(toks, t)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return toks, nil
}

// WriteLiterals writes lits in the literal-table wire format:
// whitespace-separated spellings in insertion order.
func WriteLiterals(w io.Writer, lits *scanner.Literals) error {
	bw := bufio.NewWriter(w)
	for _, s := range lits.All() {
		if _, err := fmt.Fprintf(bw, "%s ", s); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadLiterals parses the literal-table wire format back into a Literals
// table, preserving insertion order (position 0 is the first entry).
func ReadLiterals(r io.Reader) (*scanner.Literals, error) {
	sc := bufio.NewScanner(r)
	sc.Split(bufio.ScanWords)
	lits := scanner.NewLiterals()
	for sc.Scan() {
		lits.Intern(sc.Text())
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return lits, nil
}

// WriteCode writes prog in the instruction-file wire format: one
// instruction per line, "op r l m" as four decimal integers.
func WriteCode(w io.Writer, prog code.Program) error {
	bw := bufio.NewWriter(w)
	for _, ins := range prog {
		if _, err := fmt.Fprintf(bw, "%d %d %d %d\n", int(ins.Op), ins.R, ins.L, ins.M); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// ReadCode parses the instruction-file wire format back into a Program.
func ReadCode(r io.Reader) (code.Program, error) {
	sc := bufio.NewScanner(r)
	var prog code.Program
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var op, rr, l, m int
		if _, err := fmt.Sscanf(line, "%d %d %d %d", &op, &rr, &l, &m); err != nil {
			return nil, errors.Wrapf(err, "parse instruction line %q", line)
		}
		prog = append(prog, code.Instruction{Op: code.Op(op), R: rr, L: l, M: m})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return prog, nil
}
