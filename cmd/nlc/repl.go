package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/subcommands"

	"nl/internal/ast"
	"nl/internal/diag"
	"nl/internal/diagrender"
	"nl/internal/lexer"
	"nl/internal/source"
	"nl/internal/token"
)

// replCmd is NL's interactive prompt: line buffering with an
// unfinished-input heuristic, "exit" to quit, readline for real
// history/editing. The continuation check relies on NL's own grammar — an
// explicit `;` or `end` terminator — since every NL statement ends with one
// of those two tokens.
type replCmd struct{}

func (*replCmd) Name() string { return "repl" }
func (*replCmd) Synopsis() string {
	return "Interactively evaluate NL constant declarations and expressions"
}
func (*replCmd) Usage() string {
	return `repl:
  Start an interactive session. Enter a const declaration, a proc
  declaration, or a bare expression per prompt; 'exit' quits.
`
}
func (*replCmd) SetFlags(f *flag.FlagSet) {}

func (*replCmd) Execute(_ context.Context, _ *flag.FlagSet, _ ...any) subcommands.ExitStatus {
	rl, err := readline.New(">>> ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "💥 %s\n", err)
		return subcommands.ExitFailure
	}
	defer rl.Close()

	fmt.Println("NL REPL — enter a const declaration, a proc, or an expression. 'exit' to quit.")

	var history strings.Builder
	var pending strings.Builder
	exprCount := 0

	for {
		if pending.Len() == 0 {
			rl.SetPrompt(">>> ")
		} else {
			rl.SetPrompt("... ")
		}

		line, err := rl.Readline()
		if err != nil {
			if err == io.EOF || err == readline.ErrInterrupt {
				return subcommands.ExitSuccess
			}
			fmt.Fprintf(os.Stderr, "💥 %s\n", err)
			return subcommands.ExitFailure
		}

		if pending.Len() == 0 && strings.TrimSpace(line) == "exit" {
			return subcommands.ExitSuccess
		}

		if pending.Len() > 0 {
			pending.WriteByte('\n')
		}
		pending.WriteString(line)

		toks := probeTokens(pending.String())
		if !inputComplete(toks) {
			continue
		}
		entered := pending.String()
		pending.Reset()

		isExpr := !looksLikeStatement(toks)
		stmtText := entered
		var exprName string
		if isExpr {
			exprCount++
			exprName = fmt.Sprintf("__repl%d", exprCount)
			stmtText = fmt.Sprintf("const %s = %s;", exprName, strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(entered), ";")))
		}

		before := history.String()
		if history.Len() > 0 {
			history.WriteByte('\n')
		}
		history.WriteString(stmtText)

		res := compileBlob("<repl>", []byte(history.String()))
		renderer := diagrender.New(res.store, true)
		renderer.RenderAll(os.Stderr, res.diags.Messages())

		if !res.ok {
			history.Reset()
			history.WriteString(before)
			continue
		}

		if isExpr {
			printLastConstant(res, exprName)
		} else {
			fmt.Println("ok")
		}
	}
}

// printLastConstant looks up name (the synthetic binding for a bare
// expression) in the freshly rebuilt identifier storage and prints its
// resolved Variant and type.
func printLastConstant(res result, name string) {
	for i := len(res.stmts) - 1; i >= 0; i-- {
		cs, ok := res.stmts[i].(*ast.ConstantStmt)
		if !ok || cs.Name.Name != name || !cs.Name.HasID {
			continue
		}
		entry := res.storage.Get(cs.Name.ID)
		if entry.Data.HasType {
			fmt.Printf("%s : %s\n", entry.Value.String(), entry.Data.Type.String())
		}
		return
	}
}

// probeTokens lexes text for the sole purpose of deciding whether it forms
// a complete statement; lexical errors are discarded here and surface again
// (rendered properly) once the text is actually compiled.
func probeTokens(text string) []token.Token {
	probeDiags := &diag.Bag{}
	store := source.NewStore()
	fileID := store.AddBlob("<repl-probe>", []byte(text))
	lx := lexer.New(fileID, []byte(text), probeDiags)
	return lx.TokensResumable()
}

func isSkippable(k token.Kind) bool {
	return k == token.EOF || k == token.Whitespace || k == token.Comment || k == token.Documentation
}

// inputComplete reports whether tok is a balanced, terminated statement:
// every paren is closed and the last meaningful token is `;` or `end`. An
// input with no meaningful tokens at all (a blank line) counts as complete
// so the REPL doesn't hang waiting for more.
func inputComplete(toks []token.Token) bool {
	depth := 0
	var last token.Kind = token.EOF
	seen := false
	for _, t := range toks {
		switch t.Kind {
		case token.LParen:
			depth++
		case token.RParen:
			depth--
		}
		if !isSkippable(t.Kind) {
			last = t.Kind
			seen = true
		}
	}
	if !seen {
		return true
	}
	if depth > 0 {
		return false
	}
	return last == token.Semicolon || last == token.End
}

// looksLikeStatement reports whether toks begins (ignoring an optional
// leading debug `!` flag) with `const` or `proc` — NL's only two top-level
// statement kinds — as opposed to a bare expression.
func looksLikeStatement(toks []token.Token) bool {
	idx := 0
	kind, ok := nthMeaningful(toks, idx)
	if !ok {
		return false
	}
	if kind == token.Bang {
		kind, ok = nthMeaningful(toks, idx+1)
		if !ok {
			return false
		}
	}
	return kind == token.Const || kind == token.Proc
}

func nthMeaningful(toks []token.Token, n int) (token.Kind, bool) {
	count := 0
	for _, t := range toks {
		if isSkippable(t.Kind) {
			continue
		}
		if count == n {
			return t.Kind, true
		}
		count++
	}
	return token.EOF, false
}
