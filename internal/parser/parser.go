// Package parser implements NL's recursive-descent parser: a
// one-token-lookahead cursor over the token stream with peek/advance/expect
// helpers. Parse errors are pushed directly into the shared diag.Bag, since
// NL's pipeline threads one diagnostic bag through every phase rather than
// each phase keeping a private error list.
package parser

import (
	"errors"
	"math/big"

	"nl/internal/ast"
	"nl/internal/diag"
	"nl/internal/source"
	"nl/internal/token"
	"nl/internal/types"
)

// errParse is an internal sentinel: a diagnostic has already been pushed at
// the point of failure, so callers just propagate it to trigger recovery
// without recording a second message.
var errParse = errors.New("parse error")

// Parser holds the token stream (including trivia) and a one-token-lookahead
// cursor over its meaningful tokens; Whitespace, Comment and Documentation
// tokens are skipped transparently by sync, with Documentation text
// accumulated as the pending doc comment for the next statement.
type Parser struct {
	toks       []token.Token
	rawPos     int
	curTok     token.Token
	curValid   bool
	pendingDoc string
	diags      *diag.Bag
}

// New constructs a Parser over a full token stream (as produced by
// lexer.TokensResumable, which already includes a trailing EOF token).
func New(toks []token.Token, diags *diag.Bag) *Parser {
	return &Parser{toks: toks, diags: diags}
}

// Parse parses every top-level statement until EOF, recovering from syntax
// errors so that one bad statement does not suppress diagnostics for the
// rest of the file.
func Parse(toks []token.Token, diags *diag.Bag) []ast.Stmt {
	p := New(toks, diags)
	var stmts []ast.Stmt
	for p.peek().Kind != token.EOF {
		if s, ok := p.parseTopLevelStatement(); ok {
			stmts = append(stmts, s)
		}
	}
	return stmts
}

func (p *Parser) parseTopLevelStatement() (ast.Stmt, bool) {
	flags := ast.StmtFlags{}
	if p.peek().Kind == token.Bang {
		p.advance()
		flags.Debug = true
	}
	switch p.peek().Kind {
	case token.Const:
		return p.parseConstant(flags)
	case token.Proc:
		return p.parseFunction(flags)
	default:
		tok := p.peek()
		p.diags.PushError(tok.Range, "expected 'const' or 'proc', found %q", tok.Text)
		p.recoverToSemicolon()
		return nil, false
	}
}

// --- cursor -----------------------------------------------------------

func (p *Parser) sync() {
	if p.curValid {
		return
	}
	doc := ""
	for {
		t := p.toks[p.rawPos]
		switch t.Kind {
		case token.Whitespace:
			p.rawPos++
			continue
		case token.Comment:
			doc = ""
			p.rawPos++
			continue
		case token.Documentation:
			doc = appendDoc(doc, t.Text)
			p.rawPos++
			continue
		}
		p.curTok = t
		p.curValid = true
		p.pendingDoc = doc
		return
	}
}

func appendDoc(existing, raw string) string {
	line := raw
	if len(line) >= 3 {
		line = line[3:]
	}
	if len(line) > 0 && line[0] == ' ' {
		line = line[1:]
	}
	if existing == "" {
		return line
	}
	return existing + "\n" + line
}

func (p *Parser) peek() token.Token {
	p.sync()
	return p.curTok
}

// peekNextKind looks at the token following the current one, skipping
// trivia, without consuming anything. Used only to disambiguate Postfix's
// `/Identifier` field access from the `/` division operator: a bare "/"
// stays a binary operator unless an identifier immediately follows it.
func (p *Parser) peekNextKind() token.Kind {
	p.sync()
	i := p.rawPos + 1
	for {
		t := p.toks[i]
		switch t.Kind {
		case token.Whitespace, token.Comment, token.Documentation:
			i++
			continue
		}
		return t.Kind
	}
}

func (p *Parser) advance() token.Token {
	p.sync()
	t := p.curTok
	p.rawPos++
	p.curValid = false
	return t
}

func (p *Parser) expect(kind token.Kind) (token.Token, bool) {
	if p.peek().Kind == kind {
		return p.advance(), true
	}
	tok := p.peek()
	p.diags.PushError(tok.Range, "expected %s, found %q", kind, tok.Text)
	return tok, false
}

// --- error recovery -----------------------------------------------------

// recoverToSemicolon skips tokens until a top-level ';' (paren and
// begin/end nesting at depth zero), consuming it — the recovery rule for a
// malformed const declaration.
func (p *Parser) recoverToSemicolon() {
	depth := 0
	for {
		t := p.peek()
		switch t.Kind {
		case token.EOF:
			return
		case token.LParen, token.Begin:
			depth++
		case token.RParen, token.End:
			if depth > 0 {
				depth--
			}
		case token.Semicolon:
			if depth == 0 {
				p.advance()
				return
			}
		}
		p.advance()
	}
}

// recoverToEnd skips tokens until a matching-depth 'end', consuming it — the
// recovery rule for a malformed proc declaration.
func (p *Parser) recoverToEnd() {
	depth := 0
	for {
		t := p.peek()
		switch t.Kind {
		case token.EOF:
			return
		case token.LParen, token.Begin:
			depth++
		case token.RParen:
			if depth > 0 {
				depth--
			}
		case token.End:
			if depth == 0 {
				p.advance()
				return
			}
			depth--
		}
		p.advance()
	}
}

// --- statements -----------------------------------------------------

func (p *Parser) parseConstant(flags ast.StmtFlags) (ast.Stmt, bool) {
	start := p.peek().Range.Start
	doc := p.pendingDoc
	p.advance() // 'const'

	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		p.recoverToSemicolon()
		return nil, false
	}
	name := ast.Identifier{Name: nameTok.Text, Range: nameTok.Range}

	var typeExpr ast.Expr
	if p.peek().Kind == token.Colon {
		p.advance()
		te, err := p.parseExprAtom()
		if err != nil {
			p.recoverToSemicolon()
			return nil, false
		}
		typeExpr = te
	}

	if _, ok := p.expect(token.Equal); !ok {
		p.recoverToSemicolon()
		return nil, false
	}

	value, err := p.parseCallExpr()
	if err != nil {
		p.recoverToSemicolon()
		return nil, false
	}

	semi, ok := p.expect(token.Semicolon)
	if !ok {
		p.recoverToSemicolon()
		return nil, false
	}

	return &ast.ConstantStmt{
		Name:     name,
		TypeExpr: typeExpr,
		Value:    value,
		Doc:      doc,
		Flags:    flags,
		Span:     source.Range{Start: start, End: semi.Range.End},
	}, true
}

func (p *Parser) parseFunction(flags ast.StmtFlags) (ast.Stmt, bool) {
	start := p.peek().Range.Start
	doc := p.pendingDoc
	p.advance() // 'proc'

	nameTok, ok := p.expect(token.Identifier)
	if !ok {
		p.recoverToEnd()
		return nil, false
	}
	name := ast.Identifier{Name: nameTok.Text, Range: nameTok.Range}

	var args []ast.Argument
	var returnType ast.Expr
	var meta ast.FunctionMeta

declLoop:
	for {
		switch p.peek().Kind {
		case token.Is:
			p.advance()
			switch p.peek().Kind {
			case token.Recursive:
				p.advance()
				meta.Recursive = true
			case token.EntryPoint:
				p.advance()
				meta.EntryPoint = true
			default:
				tok := p.peek()
				p.diags.PushError(tok.Range, "expected 'recursive' or 'entry_point' after 'is'")
				p.recoverToEnd()
				return nil, false
			}
		case token.Param:
			p.advance()
			argNameTok, ok := p.expect(token.Identifier)
			if !ok {
				p.recoverToEnd()
				return nil, false
			}
			argType, err := p.parseExprAtom()
			if err != nil {
				p.recoverToEnd()
				return nil, false
			}
			args = append(args, ast.Argument{
				Name:     ast.Identifier{Name: argNameTok.Text, Range: argNameTok.Range},
				TypeExpr: argType,
				Span:     source.Range{Start: argNameTok.Range.Start, End: argType.Range().End},
			})
		case token.Returns:
			p.advance()
			rt, err := p.parseExprAtom()
			if err != nil {
				p.recoverToEnd()
				return nil, false
			}
			returnType = rt
		default:
			break declLoop
		}
	}

	if _, ok := p.expect(token.Begin); !ok {
		p.recoverToEnd()
		return nil, false
	}

	var body []ast.Stmt
	for p.peek().Kind != token.End && p.peek().Kind != token.EOF {
		innerFlags := ast.StmtFlags{}
		if p.peek().Kind == token.Bang {
			p.advance()
			innerFlags.Debug = true
		}
		switch p.peek().Kind {
		case token.Const:
			if s, ok := p.parseConstant(innerFlags); ok {
				body = append(body, s)
			}
		case token.Proc:
			if s, ok := p.parseFunction(innerFlags); ok {
				body = append(body, s)
			}
		default:
			tok := p.peek()
			p.diags.PushError(tok.Range, "expected 'const' or 'proc', found %q", tok.Text)
			p.recoverToSemicolon()
		}
	}

	endTok, ok := p.expect(token.End)
	if !ok {
		return nil, false
	}

	return &ast.FunctionStmt{
		Name:       name,
		Args:       args,
		ReturnType: returnType,
		Body:       body,
		Meta:       meta,
		Doc:        doc,
		Flags:      flags,
		Span:       source.Range{Start: start, End: endTok.Range.End},
	}, true
}

// --- expressions -----------------------------------------------------

var binaryOps = map[token.Kind]types.BinaryOp{
	token.Plus: types.Add, token.Minus: types.Sub, token.Star: types.Mul,
	token.Slash: types.Div, token.Percent: types.Mod,
	token.EqualEqual: types.Eq, token.BangEqual: types.Ne,
	token.Less: types.Lt, token.LessEqual: types.Le,
	token.Greater: types.Gt, token.GreaterEqual: types.Ge,
	token.Shl: types.Shl, token.Shr: types.Shr,
	token.Amp: types.BAnd, token.Pipe: types.BOr, token.Caret: types.BXor,
	token.And: types.LAnd, token.Or: types.LOr,
}

var unaryOps = map[token.Kind]types.UnaryOp{
	token.Plus: types.UnaryID, token.Minus: types.UnaryNeg,
	token.Tilde: types.UnaryBNot, token.Not: types.UnaryLNot,
}

func isArgStarter(k token.Kind) bool {
	switch k {
	case token.Identifier, token.Integer, token.String, token.LParen,
		token.Not, token.Tilde:
		return true
	}
	return false
}

// parseCallExpr is the general expression entry point: a left-to-right
// chain of CallTerms joined by binary operators. There is no operator
// precedence; every binary operator associates left-to-right.
func (p *Parser) parseCallExpr() (ast.Expr, error) {
	left, err := p.parseCallTerm()
	if err != nil {
		return nil, err
	}
	for {
		op, ok := binaryOps[p.peek().Kind]
		if !ok {
			return left, nil
		}
		opTok := p.advance()
		right, err := p.parseCallTerm()
		if err != nil {
			return nil, err
		}
		left = &ast.BinaryExpr{
			Left: left, Op: op, OpRange: opTok.Range, Right: right,
			Span:        source.Range{Start: left.Range().Start, End: right.Range().End},
			Annotations: ast.Annotations{Constantness: types.Unknown},
		}
	}
}

// parseCallTerm parses one Unary and then decides, by looking at the very
// next token, whether it is a no-arg call (`!`), a call with arguments
// (the next token starts another expression), or neither — in which case it
// is returned unchanged to become a binary expression's operand. A `+` or
// `-` after an operand is read as a binary operator, never as the start of
// an argument.
func (p *Parser) parseCallTerm() (ast.Expr, error) {
	operand, err := p.parseUnary()
	if err != nil {
		return nil, err
	}
	if p.peek().Kind == token.Bang {
		bang := p.advance()
		return &ast.CallExpr{
			Callee: operand, Bang: true,
			Span:        source.Range{Start: operand.Range().Start, End: bang.Range.End},
			Annotations: ast.Annotations{Constantness: types.Unknown},
		}, nil
	}
	if isArgStarter(p.peek().Kind) {
		var args []ast.Expr
		for {
			arg, err := p.parseCallExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
			if p.peek().Kind != token.Comma {
				break
			}
			p.advance()
		}
		end := args[len(args)-1].Range().End
		return &ast.CallExpr{
			Callee: operand, Args: args,
			Span:        source.Range{Start: operand.Range().Start, End: end},
			Annotations: ast.Annotations{Constantness: types.Unknown},
		}, nil
	}
	return operand, nil
}

func (p *Parser) parseUnary() (ast.Expr, error) {
	if op, ok := unaryOps[p.peek().Kind]; ok {
		opTok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return nil, err
		}
		return &ast.UnaryExpr{
			Op: op, OpRange: opTok.Range, Operand: operand,
			Span:        source.Range{Start: opTok.Range.Start, End: operand.Range().End},
			Annotations: ast.Annotations{Constantness: types.Unknown},
		}, nil
	}
	return p.parsePostfix()
}

// parsePostfix consumes a chain of `/Identifier` field accesses following
// an atom. A `/` only starts a field access when an identifier immediately
// follows it; otherwise it is left for parseCallExpr to consume as the
// division operator.
func (p *Parser) parsePostfix() (ast.Expr, error) {
	base, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().Kind == token.Slash && p.peekNextKind() == token.Identifier {
		p.advance() // '/'
		fieldTok := p.advance()
		base = &ast.FieldAccessExpr{
			Base:        base,
			Field:       ast.Identifier{Name: fieldTok.Text, Range: fieldTok.Range},
			Span:        source.Range{Start: base.Range().Start, End: fieldTok.Range.End},
			Annotations: ast.Annotations{Constantness: types.Unknown},
		}
	}
	return base, nil
}

func (p *Parser) parseAtom() (ast.Expr, error) {
	tok := p.peek()
	switch tok.Kind {
	case token.Identifier:
		p.advance()
		return &ast.IdentifierExpr{
			Identifier:  ast.Identifier{Name: tok.Text, Range: tok.Range},
			Annotations: ast.Annotations{Constantness: types.Unknown},
		}, nil
	case token.Integer:
		p.advance()
		mag, _ := tok.Value.(*big.Int)
		if mag == nil {
			mag = new(big.Int)
		}
		expr := &ast.IntegerExpr{
			Text: tok.Text, Magnitude: mag, TypeFlag: "ct", Span: tok.Range,
			Annotations: ast.Annotations{Constantness: types.Constant},
		}
		if p.peek().Kind == token.Identifier {
			flagTok := p.peek()
			if token.IntegerFlags[flagTok.Text] {
				p.advance()
				expr.TypeFlag = flagTok.Text
				expr.Span = source.Range{Start: tok.Range.Start, End: flagTok.Range.End}
			} else {
				p.diags.PushError(flagTok.Range, "unknown integer type flag %q", flagTok.Text)
			}
		}
		return expr, nil
	case token.String:
		p.advance()
		text, _ := tok.Value.(string)
		return &ast.StringExpr{
			Text: text, Span: tok.Range,
			Annotations: ast.Annotations{Constantness: types.NotConstant},
		}, nil
	case token.LParen:
		p.advance()
		inner, err := p.parseCallExpr()
		if err != nil {
			return nil, err
		}
		rparen, ok := p.expect(token.RParen)
		if !ok {
			return nil, errParse
		}
		return &ast.GroupExpr{
			Inner: inner, Span: source.Range{Start: tok.Range.Start, End: rparen.Range.End},
			Annotations: ast.Annotations{Constantness: types.Unknown},
		}, nil
	default:
		p.diags.PushError(tok.Range, "unexpected token %q", tok.Text)
		return nil, errParse
	}
}

// parseExprAtom parses the atomic expression used for type positions
// (`: ExprAtom`, `param x ExprAtom`, `returns ExprAtom`): always a single
// Atom, never a full call or binary chain, since NL's type expressions are
// always simple names or parenthesized groups.
func (p *Parser) parseExprAtom() (ast.Expr, error) {
	return p.parseAtom()
}
