// Package scanner implements the deterministic finite-state lexer for the
// PL/0-family language: multi-character operator handling via maximal
// munch, comment elision, and reserved-word discrimination. It is
// hand-rolled rather than built on text/scanner because PL/0's grammar
// needs genuine character classification: letter-runs, digit-runs, and
// multi-character operators that stdlib's generic tokenizer doesn't
// discriminate the way this language requires.
package scanner

import (
	"unicode"

	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/internal/diag"
	"github.com/dbrandt/pl0/token"
)

const (
	maxIdentifierLength = 11
	maxNumberLength     = 5
)

// Scanner turns PL/0 source text into a token stream, interning identifier
// and number spellings into a Literals table as it goes.
type Scanner struct {
	src          []rune
	pos          int
	readPos      int
	ch           rune
	Literals     *Literals
	MaxIdentLen  int
	MaxNumberLen int
}

// New returns a Scanner over src. MaxIdentLen and MaxNumberLen default to
// 11/5; override them via the exported fields before the first call to
// Next if a different configuration is required (see the config package).
func New(src string) *Scanner {
	s := &Scanner{
		src:          []rune(src),
		Literals:     NewLiterals(),
		MaxIdentLen:  maxIdentifierLength,
		MaxNumberLen: maxNumberLength,
	}
	s.readChar()
	return s
}

func (s *Scanner) readChar() {
	if s.readPos >= len(s.src) {
		s.ch = 0
	} else {
		s.ch = s.src[s.readPos]
	}
	s.pos = s.readPos
	s.readPos++
}

func (s *Scanner) peekChar() rune {
	if s.readPos >= len(s.src) {
		return 0
	}
	return s.src[s.readPos]
}

func isLetter(ch rune) bool {
	return unicode.IsLetter(ch) && ch < unicode.MaxASCII
}

func isDigit(ch rune) bool {
	return ch >= '0' && ch <= '9'
}

func isWhitespace(ch rune) bool {
	return ch == ' ' || ch == '\t' || ch == '\n' || ch == '\r'
}

// Next returns the next token in the stream. At end of input it returns a
// Null-kind token with a nil error; callers should stop scanning once they
// observe that. Any lexical failure is returned as a *diag.Error wrapped
// with github.com/pkg/errors.
func (s *Scanner) Next() (token.Token, error) {
	if err := s.skipSpaceAndComments(); err != nil {
		return token.Token{}, err
	}

	switch {
	case s.ch == 0:
		return token.Token{}, nil
	case isLetter(s.ch):
		return s.scanIdent()
	case isDigit(s.ch):
		return s.scanNumber()
	default:
		return s.scanOperator()
	}
}

// skipSpaceAndComments advances past whitespace and /* ... */ comments,
// which may be interleaved arbitrarily.
func (s *Scanner) skipSpaceAndComments() error {
	for {
		for isWhitespace(s.ch) {
			s.readChar()
		}
		if s.ch == '/' && s.peekChar() == '*' {
			s.readChar() // consume '/'
			s.readChar() // consume '*'
			for {
				if s.ch == 0 {
					return errors.WithStack(diag.New(diag.Scan, diag.UnterminatedComment))
				}
				if s.ch == '*' && s.peekChar() == '/' {
					s.readChar()
					s.readChar()
					break
				}
				s.readChar()
			}
			continue
		}
		return nil
	}
}

func (s *Scanner) scanIdent() (token.Token, error) {
	start := s.pos
	for isLetter(s.ch) || isDigit(s.ch) {
		s.readChar()
	}
	spelling := string(s.src[start:s.pos])
	if len(spelling) > s.MaxIdentLen {
		return token.Token{}, errors.WithStack(diag.Newf(diag.Scan, diag.IdentifierTooLong, "%q", spelling))
	}
	if kind, ok := token.Lookup(spelling); ok {
		return token.Token{Kind: kind}, nil
	}
	return token.Token{Kind: token.Ident, Literal: s.Literals.Intern(spelling)}, nil
}

func (s *Scanner) scanNumber() (token.Token, error) {
	start := s.pos
	for isDigit(s.ch) {
		s.readChar()
	}
	spelling := string(s.src[start:s.pos])
	if isLetter(s.ch) {
		return token.Token{}, errors.WithStack(diag.New(diag.Scan, diag.IdentifierStartsWithDigit))
	}
	if len(spelling) > s.MaxNumberLen {
		return token.Token{}, errors.WithStack(diag.Newf(diag.Scan, diag.NumberTooLong, "%q", spelling))
	}
	return token.Token{Kind: token.Number, Literal: s.Literals.Intern(spelling)}, nil
}

func (s *Scanner) scanOperator() (token.Token, error) {
	ch := s.ch
	switch ch {
	case '+':
		s.readChar()
		return token.Token{Kind: token.Plus}, nil
	case '-':
		s.readChar()
		return token.Token{Kind: token.Minus}, nil
	case '*':
		s.readChar()
		return token.Token{Kind: token.Times}, nil
	case '/':
		// comments are consumed by skipSpaceAndComments; a bare '/' here is
		// division.
		s.readChar()
		return token.Token{Kind: token.Slash}, nil
	case '(':
		s.readChar()
		return token.Token{Kind: token.LParen}, nil
	case ')':
		s.readChar()
		return token.Token{Kind: token.RParen}, nil
	case '=':
		s.readChar()
		return token.Token{Kind: token.Eql}, nil
	case ',':
		s.readChar()
		return token.Token{Kind: token.Comma}, nil
	case '.':
		s.readChar()
		return token.Token{Kind: token.Period}, nil
	case ';':
		s.readChar()
		return token.Token{Kind: token.Semicolon}, nil
	case '<':
		s.readChar()
		switch s.ch {
		case '=':
			s.readChar()
			return token.Token{Kind: token.Leq}, nil
		case '>':
			s.readChar()
			return token.Token{Kind: token.Neq}, nil
		default:
			return token.Token{Kind: token.Lss}, nil
		}
	case '>':
		s.readChar()
		if s.ch == '=' {
			s.readChar()
			return token.Token{Kind: token.Geq}, nil
		}
		return token.Token{Kind: token.Gtr}, nil
	case ':':
		s.readChar()
		if s.ch == '=' {
			s.readChar()
			return token.Token{Kind: token.Becomes}, nil
		}
		return token.Token{}, errors.WithStack(diag.New(diag.Scan, diag.InvalidSymbol))
	default:
		return token.Token{}, errors.WithStack(diag.Newf(diag.Scan, diag.InvalidSymbol, "%q", ch))
	}
}
