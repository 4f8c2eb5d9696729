package ast

import (
	"encoding/json"
	"io"
)

// printer implements ExprVisitor and StmtVisitor, building a JSON-friendly
// representation of the annotated AST out of maps and slices, surfacing
// each node's resolved type (under "resolved_type", since "type" holds the
// node kind), constantness and (where cached) value.
type printer struct{}

func (p printer) annotations(a *Annotations) map[string]any {
	out := map[string]any{"constantness": a.Constantness.String()}
	if a.HasType {
		out["resolved_type"] = a.Type.String()
	}
	if a.HasValue {
		out["value"] = a.Value.String()
	}
	return out
}

func identJSON(id Identifier) map[string]any {
	out := map[string]any{"name": id.Name}
	if id.HasID {
		out["identifier_id"] = int32(id.ID)
	}
	return out
}

func (p printer) VisitIdentifier(e *IdentifierExpr) any {
	out := identJSON(e.Identifier)
	out["type"] = "Identifier"
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitInteger(e *IntegerExpr) any {
	out := map[string]any{"type": "Integer", "text": e.Text, "type_flag": e.TypeFlag}
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitString(e *StringExpr) any {
	out := map[string]any{"type": "String", "text": e.Text}
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitBinary(e *BinaryExpr) any {
	out := map[string]any{
		"type":  "Binary",
		"op":    int(e.Op),
		"left":  e.Left.Accept(p),
		"right": e.Right.Accept(p),
	}
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitUnary(e *UnaryExpr) any {
	out := map[string]any{
		"type":    "Unary",
		"op":      int(e.Op),
		"operand": e.Operand.Accept(p),
	}
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitCall(e *CallExpr) any {
	args := make([]any, 0, len(e.Args))
	for _, a := range e.Args {
		args = append(args, a.Accept(p))
	}
	out := map[string]any{
		"type":   "Call",
		"callee": e.Callee.Accept(p),
		"bang":   e.Bang,
		"args":   args,
	}
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitGroup(e *GroupExpr) any {
	out := map[string]any{"type": "Group", "inner": e.Inner.Accept(p)}
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitFieldAccess(e *FieldAccessExpr) any {
	out := map[string]any{"type": "FieldAccess", "base": e.Base.Accept(p), "field": identJSON(e.Field)}
	for k, v := range p.annotations(&e.Annotations) {
		out[k] = v
	}
	return out
}

func (p printer) VisitConstant(s *ConstantStmt) any {
	out := map[string]any{
		"type":  "Constant",
		"name":  identJSON(s.Name),
		"value": s.Value.Accept(p),
		"debug": s.Flags.Debug,
	}
	if s.TypeExpr != nil {
		out["type_expr"] = s.TypeExpr.Accept(p)
	}
	if s.Doc != "" {
		out["doc"] = s.Doc
	}
	return out
}

func (p printer) VisitFunction(s *FunctionStmt) any {
	args := make([]any, 0, len(s.Args))
	for _, a := range s.Args {
		args = append(args, map[string]any{"name": identJSON(a.Name), "type_expr": a.TypeExpr.Accept(p)})
	}
	body := make([]any, 0, len(s.Body))
	for _, b := range s.Body {
		body = append(body, b.Accept(p))
	}
	out := map[string]any{
		"type":      "Function",
		"name":      identJSON(s.Name),
		"args":      args,
		"body":      body,
		"recursive": s.Meta.Recursive,
		"entry_point": s.Meta.EntryPoint,
		"debug":     s.Flags.Debug,
	}
	if s.ReturnType != nil {
		out["returns"] = s.ReturnType.Accept(p)
	}
	if s.Doc != "" {
		out["doc"] = s.Doc
	}
	return out
}

// Print renders statements as indented JSON to w.
func Print(stmts []Stmt, w io.Writer) error {
	p := printer{}
	out := make([]any, 0, len(stmts))
	for _, s := range stmts {
		out = append(out, s.Accept(p))
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
