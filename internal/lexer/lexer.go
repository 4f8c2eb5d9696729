// Package lexer turns source bytes into a token stream: a readChar/peek
// cursor with a dispatch per current character. Whitespace, comments and
// documentation comments are emitted as tokens rather than skipped,
// unrecognized runs are coalesced into one diagnostic, and an unterminated
// string fails at the opening quote.
package lexer

import (
	"math/big"

	"nl/internal/diag"
	"nl/internal/source"
	"nl/internal/token"
)

func isLetter(b byte) bool {
	return 'a' <= b && b <= 'z' || 'A' <= b && b <= 'Z' || b == '_'
}

func isDigit(b byte) bool {
	return '0' <= b && b <= '9'
}

func isIdentContinue(b byte) bool {
	return isLetter(b) || isDigit(b)
}

// Lexer produces NL tokens from one file's bytes.
type Lexer struct {
	reader *source.Reader
	diags  *diag.Bag
	file   source.FileID
	bytes  []byte
}

// New constructs a Lexer over the given file's already-loaded bytes.
func New(file source.FileID, bytes []byte, diags *diag.Bag) *Lexer {
	return &Lexer{
		reader: source.NewReader(file, bytes),
		diags:  diags,
		file:   file,
		bytes:  bytes,
	}
}

func (l *Lexer) makeRange(start source.Location) source.Range {
	return source.Range{Start: start, End: l.reader.Location()}
}

// Next scans and returns the next token, which may be a skippable kind
// (Whitespace, Comment, Documentation). Neither Tokens nor TokensResumable
// filters these out; the parser sees them and skips them itself.
func (l *Lexer) Next() (token.Token, error) {
	start := l.reader.Location()
	b, ok := l.reader.Peek(0)
	if !ok {
		return token.Token{Kind: token.EOF, Range: l.makeRange(start)}, nil
	}

	switch {
	case b == ' ' || b == '\t' || b == '\r' || b == '\n':
		return l.scanWhitespace(start), nil
	case b == '/' && l.peekIs(1, '/'):
		return l.scanComment(start), nil
	case b == '(':
		return l.simple(start, token.LParen, 1), nil
	case b == ')':
		return l.simple(start, token.RParen, 1), nil
	case b == ':':
		return l.simple(start, token.Colon, 1), nil
	case b == ';':
		return l.simple(start, token.Semicolon, 1), nil
	case b == ',':
		return l.simple(start, token.Comma, 1), nil
	case b == '~':
		return l.simple(start, token.Tilde, 1), nil
	case b == '+':
		return l.simple(start, token.Plus, 1), nil
	case b == '-':
		return l.simple(start, token.Minus, 1), nil
	case b == '*':
		return l.simple(start, token.Star, 1), nil
	case b == '%':
		return l.simple(start, token.Percent, 1), nil
	case b == '&':
		return l.simple(start, token.Amp, 1), nil
	case b == '|':
		return l.simple(start, token.Pipe, 1), nil
	case b == '^':
		return l.simple(start, token.Caret, 1), nil
	case b == '/':
		return l.simple(start, token.Slash, 1), nil
	case b == '!':
		if l.peekIs(1, '=') {
			return l.simple(start, token.BangEqual, 2), nil
		}
		return l.simple(start, token.Bang, 1), nil
	case b == '=':
		if l.peekIs(1, '=') {
			return l.simple(start, token.EqualEqual, 2), nil
		}
		return l.simple(start, token.Equal, 1), nil
	case b == '<':
		if l.peekIs(1, '=') {
			return l.simple(start, token.LessEqual, 2), nil
		}
		if l.peekIs(1, '<') {
			return l.simple(start, token.Shl, 2), nil
		}
		return l.simple(start, token.Less, 1), nil
	case b == '>':
		if l.peekIs(1, '=') {
			return l.simple(start, token.GreaterEqual, 2), nil
		}
		if l.peekIs(1, '>') {
			return l.simple(start, token.Shr, 2), nil
		}
		return l.simple(start, token.Greater, 1), nil
	case b == '"':
		return l.scanString(start)
	case isDigit(b):
		return l.scanInteger(start), nil
	case isLetter(b):
		return l.scanIdentifier(start), nil
	default:
		return l.scanUnrecognized(start)
	}
}

func (l *Lexer) peekIs(offset int, want byte) bool {
	b, ok := l.reader.Peek(offset)
	return ok && b == want
}

func (l *Lexer) simple(start source.Location, kind token.Kind, width int) token.Token {
	l.reader.Advance(width)
	rng := l.makeRange(start)
	return token.Token{Kind: kind, Text: string(l.reader.SliceFrom(start.Index)), Range: rng}
}

func (l *Lexer) scanWhitespace(start source.Location) token.Token {
	for {
		b, ok := l.reader.Peek(0)
		if !ok || !(b == ' ' || b == '\t' || b == '\r' || b == '\n') {
			break
		}
		l.reader.Advance(1)
	}
	return token.Token{Kind: token.Whitespace, Text: string(l.reader.SliceFrom(start.Index)), Range: l.makeRange(start)}
}

// scanComment consumes either a documentation token ("///...") or a plain
// comment token ("//...") up to (not including) the line break.
func (l *Lexer) scanComment(start source.Location) token.Token {
	isDoc := l.peekIs(2, '/')
	for {
		b, ok := l.reader.Peek(0)
		if !ok || b == '\n' {
			break
		}
		l.reader.Advance(1)
	}
	kind := token.Comment
	if isDoc {
		kind = token.Documentation
	}
	return token.Token{Kind: kind, Text: string(l.reader.SliceFrom(start.Index)), Range: l.makeRange(start)}
}

func (l *Lexer) scanString(start source.Location) (token.Token, error) {
	l.reader.Advance(1) // opening quote
	for {
		b, ok := l.reader.Peek(0)
		if !ok {
			return token.Token{}, &UnterminatedStringError{Range: l.makeRange(start)}
		}
		l.reader.Advance(1)
		if b == '"' {
			break
		}
	}
	text := l.reader.SliceFrom(start.Index)
	return token.Token{
		Kind:  token.String,
		Text:  string(text),
		Value: string(text[1 : len(text)-1]),
		Range: l.makeRange(start),
	}, nil
}

func (l *Lexer) scanInteger(start source.Location) token.Token {
	for {
		b, ok := l.reader.Peek(0)
		if !ok || !isDigit(b) {
			break
		}
		l.reader.Advance(1)
	}
	text := string(l.reader.SliceFrom(start.Index))
	value := new(big.Int)
	value.SetString(text, 10)
	return token.Token{Kind: token.Integer, Text: text, Value: value, Range: l.makeRange(start)}
}

func (l *Lexer) scanIdentifier(start source.Location) token.Token {
	for {
		b, ok := l.reader.Peek(0)
		if !ok || !isIdentContinue(b) {
			break
		}
		l.reader.Advance(1)
	}
	text := string(l.reader.SliceFrom(start.Index))
	kind := token.Identifier
	if kw, ok := token.Keywords[text]; ok {
		kind = kw
	}
	return token.Token{Kind: kind, Text: text, Range: l.makeRange(start)}
}

// scanUnrecognized coalesces a contiguous run of bytes that match no token
// rule into a single UnrecognizedInputError. The run ends at the next byte
// that either is whitespace or would itself start a recognized token.
func (l *Lexer) scanUnrecognized(start source.Location) (token.Token, error) {
	for {
		b, ok := l.reader.Peek(0)
		if !ok {
			break
		}
		if b == ' ' || b == '\t' || b == '\r' || b == '\n' || isLetter(b) || isDigit(b) {
			break
		}
		if isSingleCharPunct(b) {
			break
		}
		l.reader.Advance(1)
	}
	if l.reader.Location().Index == start.Index {
		// always consume at least one byte so the caller can resume.
		l.reader.Advance(1)
	}
	rng := l.makeRange(start)
	return token.Token{}, &UnrecognizedInputError{Range: rng, Text: string(l.reader.SliceFrom(start.Index))}
}

func isSingleCharPunct(b byte) bool {
	switch b {
	case '(', ')', ':', ';', ',', '~', '+', '-', '*', '%', '&', '|', '^', '/', '!', '=', '<', '>', '"':
		return true
	}
	return false
}

// Tokens scans the entire input, returning every token including skippable
// kinds. It stops and returns the tokens so far and an error on the first
// lexical error. Callers that want best-effort recovery across the whole
// file use TokensResumable instead, which keeps scanning with the same
// Lexer after recoverable errors.
func (l *Lexer) Tokens() ([]token.Token, error) {
	var out []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			l.pushError(err)
			return out, err
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out, nil
		}
	}
}

// TokensResumable scans the whole input, recording every lexical error in
// diags and swallowing unrecognized-input errors so that scanning continues
// to EOF; it stops only on an unterminated string, which has no sensible
// resumption point. This is what the parser and CLI use so that one bad
// byte run does not suppress every token after it.
func (l *Lexer) TokensResumable() []token.Token {
	var out []token.Token
	for {
		tok, err := l.Next()
		if err != nil {
			l.pushError(err)
			if _, fatal := err.(*UnterminatedStringError); fatal {
				out = append(out, token.Token{Kind: token.EOF, Range: l.makeRange(l.reader.Location())})
				return out
			}
			continue
		}
		out = append(out, tok)
		if tok.Kind == token.EOF {
			return out
		}
	}
}

func (l *Lexer) pushError(err error) {
	switch e := err.(type) {
	case *UnrecognizedInputError:
		l.diags.PushError(e.Range, "unrecognized input: %q", e.Text)
	case *UnterminatedStringError:
		l.diags.PushError(e.Range, "unexpected end of string")
	}
}
