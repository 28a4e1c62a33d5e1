package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/pkg/errors"

	"github.com/dbrandt/pl0/config"
	"github.com/dbrandt/pl0/pl0"
	"github.com/dbrandt/pl0/vm"
)

var (
	debug        bool
	configPath   string
	tracePath    string
	dumpLexemes  string
	dumpLiterals string
	dumpCode     string
)

func atExit(err error) {
	if err == nil {
		return
	}
	if !debug {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	fmt.Fprintf(os.Stderr, "%+v\n", err)
	os.Exit(1)
}

func main() {
	var err error
	defer func() { atExit(err) }()

	srcPath := flag.String("src", "", "PL/0 source `file` to compile and run")
	flag.StringVar(&configPath, "config", "", "TOML config `file` (defaults to pl0.toml, or built-in defaults)")
	flag.BoolVar(&debug, "debug", false, "enable debug diagnostics (full error causes)")
	flag.StringVar(&tracePath, "trace", "", "write a per-instruction execution trace to `file`")
	flag.StringVar(&dumpLexemes, "dump-lexemes", "", "write the scanned lexeme list to `file` and exit")
	flag.StringVar(&dumpLiterals, "dump-literals", "", "write the literal table to `file` and exit")
	flag.StringVar(&dumpCode, "dump-code", "", "write the compiled instruction stream to `file` and exit")
	flag.Parse()

	if *srcPath == "" {
		err = errors.New("-src is required")
		return
	}

	var srcBytes []byte
	srcBytes, err = os.ReadFile(*srcPath)
	if err != nil {
		err = errors.Wrapf(err, "read source file %q", *srcPath)
		return
	}
	src := string(srcBytes)

	var cfg *config.Config
	if configPath != "" {
		cfg, err = config.LoadFrom(configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		err = errors.Wrap(err, "load config")
		return
	}

	if dumpLexemes != "" {
		err = writeDump(dumpLexemes, func(f *os.File) error {
			toks, _, scanErr := pl0.Scan(src)
			if scanErr != nil {
				return scanErr
			}
			return pl0.WriteLexemes(f, toks)
		})
		return
	}

	compiled, err := pl0.Compile(src)
	if err != nil {
		err = errors.Wrap(err, "compile")
		return
	}

	if dumpLiterals != "" {
		err = writeDump(dumpLiterals, func(f *os.File) error {
			return pl0.WriteLiterals(f, compiled.Literals)
		})
		return
	}
	if dumpCode != "" {
		err = writeDump(dumpCode, func(f *os.File) error {
			return pl0.WriteCode(f, compiled.Program)
		})
		return
	}

	var opts []vm.Option
	if tracePath != "" {
		var traceFile *os.File
		traceFile, err = os.Create(tracePath)
		if err != nil {
			err = errors.Wrapf(err, "create trace file %q", tracePath)
			return
		}
		defer traceFile.Close()
		opts = append(opts, vm.WithTrace(traceFile))
	}

	err = pl0.Run(compiled.Program, cfg, opts...)
	if err != nil {
		err = errors.Wrap(err, "run")
	}
}

func writeDump(path string, fn func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "create dump file %q", path)
	}
	defer f.Close()
	return fn(f)
}
