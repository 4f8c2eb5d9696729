package ast

// Hooks bundles the optional per-node callbacks a tree-wide pass may want:
// every field defaults to nil (a no-op), and a pass sets only the hooks it
// needs. Walk calls enter, then recurses into children left-to-right, then
// calls exit, for every node — except EnterFunctionScope, which fires
// after the function's name has been visited but before its arguments and
// body, so a pass can push a nested scope exactly where it's needed.
type Hooks struct {
	EnterConstant func(s *ConstantStmt)
	ExitConstant  func(s *ConstantStmt)

	EnterFunction      func(s *FunctionStmt)
	EnterFunctionScope func(s *FunctionStmt)
	ExitFunction       func(s *FunctionStmt)

	EnterArgument func(a *Argument)
	ExitArgument  func(a *Argument)

	EnterBinary func(e *BinaryExpr)
	ExitBinary  func(e *BinaryExpr)

	EnterUnary func(e *UnaryExpr)
	ExitUnary  func(e *UnaryExpr)

	EnterCall func(e *CallExpr)
	ExitCall  func(e *CallExpr)

	EnterGroup func(e *GroupExpr)
	ExitGroup  func(e *GroupExpr)

	EnterFieldAccess func(e *FieldAccessExpr)
	ExitFieldAccess  func(e *FieldAccessExpr)

	// Leaf visits.
	VisitIdentifier           func(e *IdentifierExpr)
	VisitIdentifierDefinition func(id *Identifier)
	VisitIdentifierUsage      func(e *IdentifierExpr)
	VisitInteger              func(e *IntegerExpr)
	VisitString               func(e *StringExpr)
}

// Walk traverses every statement in source order, invoking h's callbacks.
func Walk(stmts []Stmt, h *Hooks) {
	for _, s := range stmts {
		walkStmt(s, h)
	}
}

func walkStmt(s Stmt, h *Hooks) {
	switch n := s.(type) {
	case *ConstantStmt:
		if h.EnterConstant != nil {
			h.EnterConstant(n)
		}
		if h.VisitIdentifierDefinition != nil {
			h.VisitIdentifierDefinition(&n.Name)
		}
		if n.TypeExpr != nil {
			walkExpr(n.TypeExpr, h)
		}
		if n.Value != nil {
			walkExpr(n.Value, h)
		}
		if h.ExitConstant != nil {
			h.ExitConstant(n)
		}
	case *FunctionStmt:
		if h.EnterFunction != nil {
			h.EnterFunction(n)
		}
		if h.VisitIdentifierDefinition != nil {
			h.VisitIdentifierDefinition(&n.Name)
		}
		if h.EnterFunctionScope != nil {
			h.EnterFunctionScope(n)
		}
		for i := range n.Args {
			arg := &n.Args[i]
			if h.EnterArgument != nil {
				h.EnterArgument(arg)
			}
			if h.VisitIdentifierDefinition != nil {
				h.VisitIdentifierDefinition(&arg.Name)
			}
			if arg.TypeExpr != nil {
				walkExpr(arg.TypeExpr, h)
			}
			if h.ExitArgument != nil {
				h.ExitArgument(arg)
			}
		}
		if n.ReturnType != nil {
			walkExpr(n.ReturnType, h)
		}
		for _, body := range n.Body {
			walkStmt(body, h)
		}
		if h.ExitFunction != nil {
			h.ExitFunction(n)
		}
	}
}

func walkExpr(e Expr, h *Hooks) {
	switch n := e.(type) {
	case *IdentifierExpr:
		if h.VisitIdentifier != nil {
			h.VisitIdentifier(n)
		}
		if h.VisitIdentifierUsage != nil {
			h.VisitIdentifierUsage(n)
		}
	case *IntegerExpr:
		if h.VisitInteger != nil {
			h.VisitInteger(n)
		}
	case *StringExpr:
		if h.VisitString != nil {
			h.VisitString(n)
		}
	case *BinaryExpr:
		if h.EnterBinary != nil {
			h.EnterBinary(n)
		}
		walkExpr(n.Left, h)
		walkExpr(n.Right, h)
		if h.ExitBinary != nil {
			h.ExitBinary(n)
		}
	case *UnaryExpr:
		if h.EnterUnary != nil {
			h.EnterUnary(n)
		}
		walkExpr(n.Operand, h)
		if h.ExitUnary != nil {
			h.ExitUnary(n)
		}
	case *CallExpr:
		if h.EnterCall != nil {
			h.EnterCall(n)
		}
		walkExpr(n.Callee, h)
		for _, a := range n.Args {
			walkExpr(a, h)
		}
		if h.ExitCall != nil {
			h.ExitCall(n)
		}
	case *GroupExpr:
		if h.EnterGroup != nil {
			h.EnterGroup(n)
		}
		walkExpr(n.Inner, h)
		if h.ExitGroup != nil {
			h.ExitGroup(n)
		}
	case *FieldAccessExpr:
		if h.EnterFieldAccess != nil {
			h.EnterFieldAccess(n)
		}
		// The field name itself is never an independent binding site;
		// resolving it is handled by the pass via EnterFieldAccess, since
		// segmented access is a single resolution failure, not a usage of
		// Field in isolation.
		walkExpr(n.Base, h)
		if h.ExitFieldAccess != nil {
			h.ExitFieldAccess(n)
		}
	}
}
