package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"nl/internal/ast"
	"nl/internal/compile"
	"nl/internal/diagrender"
	"nl/internal/identtab"
)

// checkCmd is NL's core CLI contract: tokenize, parse, and fully resolve a
// source file, with two diagnostic-aid flags layered on top.
type checkCmd struct {
	dumpBytecode bool
	noColor      bool
}

func (*checkCmd) Name() string     { return "check" }
func (*checkCmd) Synopsis() string { return "Tokenize, parse and fully resolve an NL source file" }
func (*checkCmd) Usage() string {
	return `check <file>:
  Tokenize, parse, resolve identifiers and resolve types for an NL source
  file, then print the annotated AST to stdout.

  Exit 0 on success, 1 if any error diagnostic was emitted, 2 on a CLI
  usage error (bad arguments, unreadable file).
`
}

func (cmd *checkCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&cmd.dumpBytecode, "dump-bytecode", false,
		"disassemble the bytecode generated for every resolved constant, to stderr")
	f.BoolVar(&cmd.noColor, "no-color", false, "disable ANSI color in diagnostic output")
}

func (cmd *checkCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	args := f.Args()
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "usage: nlc check [flags] <file>")
		return subcommands.ExitUsageError
	}

	res, err := compileFile(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err)
		return subcommands.ExitUsageError
	}

	if cmd.dumpBytecode {
		dumpConstants(os.Stderr, res.stmts, res.storage)
	}

	renderer := diagrender.New(res.store, !cmd.noColor)
	renderer.RenderAll(os.Stderr, res.diags.Messages())

	if err := ast.Print(res.stmts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "💥 failed to print AST: %s\n", err)
	}

	if !res.ok {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// dumpConstants disassembles every constant's compiled initializer,
// recursing into function bodies (whose nested constants are the only part
// of a proc this version of the language gives a runtime value), printing
// one listing per constant.
func dumpConstants(w *os.File, stmts []ast.Stmt, storage *identtab.Storage) {
	for _, s := range stmts {
		dumpStatement(w, s, storage)
	}
}

func dumpStatement(w *os.File, s ast.Stmt, storage *identtab.Storage) {
	switch n := s.(type) {
	case *ast.ConstantStmt:
		if !n.Name.HasID {
			return
		}
		c := compile.New(storage)
		if err := c.CompileExpr(n.Value, nil); err != nil {
			fmt.Fprintf(w, "-- %s: <uncompilable: %s> --\n", n.Name.Name, err)
			return
		}
		c.Finish()
		fmt.Fprintf(w, "-- %s --\n%s\n", n.Name.Name, compile.Disassemble(c.Code(), c.Data()))
	case *ast.FunctionStmt:
		for _, body := range n.Body {
			dumpStatement(w, body, storage)
		}
	}
}
