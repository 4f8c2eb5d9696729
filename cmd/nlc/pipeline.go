package main

import (
	"nl/internal/ast"
	"nl/internal/diag"
	"nl/internal/identtab"
	"nl/internal/lexer"
	"nl/internal/parser"
	"nl/internal/resolve"
	"nl/internal/source"
	"nl/internal/typecheck"
)

// result bundles one run of the full pipeline through type resolution —
// shared between the check and repl subcommands so both drive lexing,
// parsing, identifier resolution and type resolution identically.
type result struct {
	store   *source.Store
	stmts   []ast.Stmt
	storage *identtab.Storage
	diags   *diag.Bag
	ok      bool
}

// compileBlob runs the full pipeline over an in-memory source blob. Each
// phase short-circuits the next on failure: a phase that reports an error
// diagnostic prevents downstream phases from running.
func compileBlob(name string, text []byte) result {
	store := source.NewStore()
	fileID := store.AddBlob(name, text)
	diags := &diag.Bag{}
	storage := identtab.NewStorage()
	root := identtab.SeedBuiltins(storage)

	lx := lexer.New(fileID, text, diags)
	toks := lx.TokensResumable()
	stmts := parser.Parse(toks, diags)

	ok := !diags.HasErrors()
	if ok {
		ok = resolve.Resolve(stmts, storage, root, diags)
	}
	if ok {
		ok = typecheck.Resolve(stmts, storage, diags)
	}

	return result{store: store, stmts: stmts, storage: storage, diags: diags, ok: ok}
}

// compileFile loads path through store (registering it for diagnostic
// rendering) and runs the same pipeline as compileBlob.
func compileFile(path string) (result, error) {
	store := source.NewStore()
	fileID, err := store.AddOnDisk(path)
	if err != nil {
		return result{}, err
	}
	data, err := store.Load(fileID)
	if err != nil {
		return result{}, err
	}

	diags := &diag.Bag{}
	storage := identtab.NewStorage()
	root := identtab.SeedBuiltins(storage)

	lx := lexer.New(fileID, data, diags)
	toks := lx.TokensResumable()
	stmts := parser.Parse(toks, diags)

	ok := !diags.HasErrors()
	if ok {
		ok = resolve.Resolve(stmts, storage, root, diags)
	}
	if ok {
		ok = typecheck.Resolve(stmts, storage, diags)
	}

	return result{store: store, stmts: stmts, storage: storage, diags: diags, ok: ok}, nil
}
