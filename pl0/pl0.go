// Package pl0 is the thin glue layer binding the scanner, compiler, and VM
// into one end-to-end pipeline, and the home of the three wire formats used
// to persist intermediate state between phases: small, stdlib-formatted
// adapter code rather than a framework.
package pl0

import (
	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/code"
	"github.com/dbrandt/pl0/compiler"
	"github.com/dbrandt/pl0/config"
	"github.com/dbrandt/pl0/scanner"
	"github.com/dbrandt/pl0/token"
	"github.com/dbrandt/pl0/vm"
)

// Compile scans and compiles src in one pass, returning the emitted
// instruction stream and the interned literal table.
func Compile(src string) (compiler.Result, error) {
	return compiler.Compile(src)
}

// Scan tokenizes src to completion without compiling it, for use by the
// lexeme-dump CLI flag. Unlike the compiler, which consumes tokens one at a
// time as it parses, this materializes the whole stream up front.
func Scan(src string) ([]token.Token, *scanner.Literals, error) {
	sc := scanner.New(src)
	var toks []token.Token
	for {
		tok, err := sc.Next()
		if err != nil {
			return nil, nil, err
		}
		if tok.Kind == token.Null {
			break
		}
		toks = append(toks, tok)
	}
	return toks, sc.Literals, nil
}

// Run executes prog to completion, wiring cfg's stack-height limit and any
// caller-supplied options (input/output/trace) into the VM instance. The
// code-length limit is vm.MaxCodeLength whatever cfg says.
func Run(prog code.Program, cfg *config.Config, opts ...vm.Option) error {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	allOpts := append([]vm.Option{vm.WithStackHeight(cfg.Execution.MaxStackHeight)}, opts...)
	m, err := vm.New(prog, allOpts...)
	if err != nil {
		return errors.Wrap(err, "load program")
	}
	return m.Run()
}
