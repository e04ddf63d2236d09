package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"

	"github.com/NKU-RuntimeError/SysY-compiler/arena"
	"github.com/NKU-RuntimeError/SysY-compiler/constfold"
	"github.com/NKU-RuntimeError/SysY-compiler/internal/logstream"
	"github.com/NKU-RuntimeError/SysY-compiler/irgen"
	"github.com/NKU-RuntimeError/SysY-compiler/lexer"
	"github.com/NKU-RuntimeError/SysY-compiler/parser"
	"github.com/NKU-RuntimeError/SysY-compiler/token"
)

var cliLog = logstream.For("cli")

func usage() {
	fmt.Fprintln(os.Stderr, "usage: compiler -S -o <out.s> <in.sy> [-O2]")
}

// parseArgs validates the fixed positional layout: -S -o <out> <in>
// with an optional trailing -O2. -O2 is accepted but otherwise inert:
// whole-program optimization is out of scope here, so any pipeline
// invoking this compiler with -O2 gets unoptimized IR back, to be
// optimized downstream by a real backend if it wants to.
func parseArgs(args []string) (out, in string, err error) {
	if len(args) != 4 && len(args) != 5 {
		return "", "", fmt.Errorf("expected 4 or 5 arguments, got %d", len(args))
	}
	if args[0] != "-S" {
		return "", "", fmt.Errorf("expected -S as the first argument, got %q", args[0])
	}
	if args[1] != "-o" {
		return "", "", fmt.Errorf("expected -o as the second argument, got %q", args[1])
	}
	out, in = args[2], args[3]
	if len(args) == 5 && args[4] != "-O2" {
		return "", "", fmt.Errorf("unrecognized trailing argument %q", args[4])
	}
	return out, in, nil
}

// moduleName derives the LLVM module name from the input file's base
// name, stripping its extension, the way a real build would name the
// object it produces after the source that fed it.
func moduleName(in string) string {
	base := filepath.Base(in)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// compile drives the fixed lexer -> parser -> const-eval -> lowering
// pipeline over the source at in and returns the resulting module's
// textual IR. The parser has no recover point of its own (only
// const-eval and lowering do), so this is the one place a syntax
// error's panic is turned into a returned error.
func compile(in string) (ir string, err error) {
	defer token.Recover(&err)

	source, readErr := os.ReadFile(in)
	if readErr != nil {
		return "", fmt.Errorf("reading %s: %w", in, readErr)
	}

	a := arena.New()
	defer a.Release()
	unit := parser.New(lexer.New(string(source)), a).ParseCompileUnit()

	if err := constfold.Fold(unit, a); err != nil {
		return "", err
	}

	mod, err := irgen.Lower(unit, moduleName(in))
	if err != nil {
		return "", err
	}
	return mod.String(), nil
}

// writeOutput writes ir to out under a sibling lock file, so two
// invocations racing to the same output path (a build system fanning
// this compiler out in parallel against an aliased intermediate
// directory) never interleave their writes.
func writeOutput(out, ir string) error {
	lock := flock.New(out + ".lock")
	if err := lock.Lock(); err != nil {
		return fmt.Errorf("acquire output lock for %s: %w", out, err)
	}
	defer lock.Unlock()

	if err := os.WriteFile(out, []byte(ir), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", out, err)
	}
	return nil
}

func main() {
	out, in, err := parseArgs(os.Args[1:])
	if err != nil {
		usage()
		cliLog.Err("%v", err)
		os.Exit(1)
	}

	ir, err := compile(in)
	if err != nil {
		cliLog.Err("%v", err)
		os.Exit(1)
	}

	if err := writeOutput(out, ir); err != nil {
		cliLog.Err("%v", err)
		os.Exit(1)
	}

	cliLog.Info("wrote %s", out)
}
