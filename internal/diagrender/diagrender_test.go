package diagrender

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"

	"nl/internal/diag"
	"nl/internal/source"
)

// assertGoldenMatch compares got against a golden string, failing with a
// unified diff (rather than a raw string dump) when they disagree.
func assertGoldenMatch(t *testing.T, got, want string) {
	t.Helper()
	if got == want {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	if err != nil {
		t.Fatalf("rendered output did not match golden, and the diff itself failed: %v\nwant:\n%s\ngot:\n%s", err, want, got)
	}
	t.Fatalf("rendered output did not match golden:\n%s", diff)
}

func TestRenderHeaderAndSpan(t *testing.T) {
	store := source.NewStore()
	file := store.AddBlob("test.nl", []byte("const x = bogus;\n"))

	start := source.Location{File: file, Index: 10, Line: 0, Column: 10}
	end := source.Location{File: file, Index: 15, Line: 0, Column: 15}
	msg := diag.Message{Kind: diag.Error, Text: "undeclared identifier", Primary: true, Start: start, End: end}

	r := New(store, false)
	var b strings.Builder
	r.Render(&b, msg)
	out := b.String()

	if !strings.Contains(out, "test.nl:1:11: error: undeclared identifier") {
		t.Errorf("missing expected header line, got:\n%s", out)
	}
	if !strings.Contains(out, "const x = bogus;") {
		t.Errorf("missing source line, got:\n%s", out)
	}
	if !strings.Contains(out, "^") {
		t.Errorf("missing caret underline, got:\n%s", out)
	}
}

func TestRenderColorWrapsWholeBlock(t *testing.T) {
	store := source.NewStore()
	file := store.AddBlob("t.nl", []byte("x\n"))
	msg := diag.Message{Kind: diag.Error, Text: "boom", Primary: true,
		Start: source.Location{File: file}, End: source.Location{File: file, Index: 1, Column: 1}}

	r := New(store, true)
	var b strings.Builder
	r.Render(&b, msg)
	out := b.String()
	if !strings.HasPrefix(out, colorRed) {
		t.Error("colored render should start with the red ANSI escape")
	}
	if !strings.HasSuffix(out, colorReset) {
		t.Error("colored render should end with the reset ANSI escape")
	}
}

func TestRenderGoldenOutputForUndeclaredIdentifier(t *testing.T) {
	store := source.NewStore()
	file := store.AddBlob("golden.nl", []byte("const x = bogus;\n"))
	start := source.Location{File: file, Index: 10, Line: 0, Column: 10}
	end := source.Location{File: file, Index: 15, Line: 0, Column: 15}
	msg := diag.Message{Kind: diag.Error, Text: "undeclared identifier", Primary: true, Start: start, End: end}

	r := New(store, false)
	var b strings.Builder
	r.Render(&b, msg)

	want := "golden.nl:1:11: error: undeclared identifier\n" +
		"  const x = bogus;\n" +
		"            ^^^^^\n"
	assertGoldenMatch(t, b.String(), want)
}

func TestRenderAllPreservesOrder(t *testing.T) {
	store := source.NewStore()
	file := store.AddBlob("t.nl", []byte("a\nb\n"))
	msgs := []diag.Message{
		{Kind: diag.Error, Text: "first", Start: source.Location{File: file}, End: source.Location{File: file, Index: 1, Column: 1}},
		{Kind: diag.Warning, Text: "second", Start: source.Location{File: file, Line: 1}, End: source.Location{File: file, Line: 1, Index: 3, Column: 1}},
	}
	r := New(store, false)
	var b strings.Builder
	r.RenderAll(&b, msgs)
	out := b.String()
	if strings.Index(out, "first") > strings.Index(out, "second") {
		t.Error("RenderAll should preserve insertion order")
	}
}
