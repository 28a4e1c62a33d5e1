// Package diag defines the fatal-error taxonomy shared by the scanner, the
// compiler, and the VM. Every syntactic and semantic condition the parser
// can raise, plus the scanner's lexical conditions and the VM's runtime
// conditions, is a distinct Code with a fixed diagnostic sentence, following
// the historical tool's numbered printf diagnostics.
package diag

import "fmt"

// Phase identifies which subsystem raised an Error.
type Phase int

// Phases in pipeline order.
const (
	Scan Phase = iota
	Parse
	Exec
)

func (p Phase) String() string {
	switch p {
	case Scan:
		return "scan"
	case Parse:
		return "parse"
	case Exec:
		return "exec"
	default:
		return "?"
	}
}

// Code is a fatal condition identity. Every recognized condition has a
// distinct Code and a fixed message, so callers can match on Code() rather
// than on message text.
type Code int

// Scanner (lexical) conditions.
const (
	IdentifierTooLong Code = iota + 1
	NumberTooLong
	IdentifierStartsWithDigit
	UnterminatedComment
	InvalidSymbol
)

// Parser / code-generator (syntactic and semantic) conditions, numbered
// consecutively from 100 (UseEqualsNotBecomes) to 119 (CallOfConstOrVar).
const (
	UseEqualsNotBecomes Code = iota + 100
	EqualsMustBeFollowedByNumber
	IdentifierMustBeFollowedByEquals
	DeclKeywordMustBeFollowedByIdent
	SemicolonOrCommaMissing
	PeriodExpected
	UndeclaredIdentifier
	AssignmentToConstOrProc
	AssignmentOperatorExpected
	ThenExpected
	SemicolonOrEndExpected
	DoExpected
	RelationalOperatorExpected
	ProcedureInExpression
	RightParenMissing
	InvalidExpressionStart
	NumberTooLarge
	ReadOrWriteMustBeFollowedByIdent
	CallMustBeFollowedByIdent
	CallOfConstOrVar
)

// VM runtime conditions.
const (
	StackOverflow Code = iota + 200
	CodeLengthExceeded
	DivisionByZero
	InvalidOpcode
	InputError
)

var messages = map[Code]string{
	IdentifierTooLong:         "identifier is too long",
	NumberTooLong:             "number is too long",
	IdentifierStartsWithDigit: "identifier cannot start with a digit",
	UnterminatedComment:       "unterminated comment",
	InvalidSymbol:             "invalid symbol",

	UseEqualsNotBecomes:              "use = instead of :=",
	EqualsMustBeFollowedByNumber:     "= must be followed by a number",
	IdentifierMustBeFollowedByEquals: "identifier must be followed by =",
	DeclKeywordMustBeFollowedByIdent: "const, var, procedure must be followed by an identifier",
	SemicolonOrCommaMissing:          "semicolon or comma missing",
	PeriodExpected:                   "period expected",
	UndeclaredIdentifier:             "undeclared identifier",
	AssignmentToConstOrProc:          "assignment to constant or procedure is not allowed",
	AssignmentOperatorExpected:       "assignment operator expected",
	ThenExpected:                     "then expected",
	SemicolonOrEndExpected:           "semicolon or end expected",
	DoExpected:                       "do expected",
	RelationalOperatorExpected:       "relational operator expected",
	ProcedureInExpression:            "expression must not contain a procedure identifier",
	RightParenMissing:                "right parenthesis missing",
	InvalidExpressionStart:           "an expression cannot begin with this symbol",
	NumberTooLarge:                   "this number is too large",
	ReadOrWriteMustBeFollowedByIdent: "read or write must be followed by an identifier",
	CallMustBeFollowedByIdent:        "call must be followed by an identifier",
	CallOfConstOrVar:                 "call of a constant or variable is meaningless",

	StackOverflow:      "stack overflow",
	CodeLengthExceeded: "code-length exceeded",
	DivisionByZero:     "division by zero",
	InvalidOpcode:      "invalid opcode",
	InputError:         "failed to read an integer from standard input",
}

// Error is a fatal diagnostic raised by the scanner, compiler, or VM.
type Error struct {
	Phase Phase
	Code  Code
	// Detail, if non-empty, is appended to the fixed message (e.g. the
	// offending identifier spelling).
	Detail string
}

// New returns an Error for the given phase and code.
func New(phase Phase, code Code) *Error {
	return &Error{Phase: phase, Code: code}
}

// Newf returns an Error for the given phase and code with a formatted
// detail suffix.
func Newf(phase Phase, code Code, format string, args ...interface{}) *Error {
	return &Error{Phase: phase, Code: code, Detail: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	msg := messages[e.Code]
	if msg == "" {
		msg = "unknown error"
	}
	if e.Detail == "" {
		return fmt.Sprintf("%s error %d: %s", e.Phase, int(e.Code), msg)
	}
	return fmt.Sprintf("%s error %d: %s: %s", e.Phase, int(e.Code), msg, e.Detail)
}

// ErrCode returns e's Code field, the accessor callers use to match on a
// specific fatal condition without string comparison.
func (e *Error) ErrCode() Code { return e.Code }
