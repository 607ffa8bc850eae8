package hir

// Visitor is called for every node of a body. Implementations decide whether
// to descend by calling the matching Walk function.
type Visitor interface {
	VisitStmt(s Stmt)
	VisitExpr(e Expr)
	VisitBlock(b *Block)
	VisitPat(p Pat)
	VisitLocal(l *Local)
	VisitTy(t Ty)
}

func WalkStmt(v Visitor, s Stmt) {
	switch s := s.(type) {
	case *LetStmt:
		v.VisitLocal(s.Local)
	case *ExprStmt:
		v.VisitExpr(s.Expr)
	}
}

func WalkBlock(v Visitor, b *Block) {
	for _, s := range b.Stmts {
		v.VisitStmt(s)
	}
	if b.Tail != nil {
		v.VisitExpr(b.Tail)
	}
}

func WalkLocal(v Visitor, l *Local) {
	v.VisitPat(l.Pat)
	if l.Ty != nil {
		v.VisitTy(l.Ty)
	}
	if l.Init != nil {
		v.VisitExpr(l.Init)
	}
}

func WalkPat(v Visitor, p Pat) {
	if p, ok := p.(*TuplePat); ok {
		for _, elem := range p.Elems {
			v.VisitPat(elem)
		}
	}
}

func WalkTy(v Visitor, t Ty) {
	switch t := t.(type) {
	case *RefTy:
		v.VisitTy(t.Elem)
	case *FixedLengthVecTy:
		v.VisitTy(t.Elem)
		v.VisitExpr(t.Count)
	}
}

func WalkFnDecl(v Visitor, d *FnDecl) {
	for _, arg := range d.Inputs {
		v.VisitPat(arg.Pat)
		if arg.Ty != nil {
			v.VisitTy(arg.Ty)
		}
	}
	if d.Output != nil {
		v.VisitTy(d.Output)
	}
}

func WalkExpr(v Visitor, e Expr) {
	switch e := e.(type) {
	case *Path, *Lit:
	case *Paren:
		v.VisitExpr(e.Inner)
	case *Field:
		v.VisitExpr(e.Base)
	case *TupField:
		v.VisitExpr(e.Base)
	case *Index:
		v.VisitExpr(e.Base)
		v.VisitExpr(e.Index)
	case *Unary:
		v.VisitExpr(e.Operand)
	case *Binary:
		v.VisitExpr(e.Lhs)
		v.VisitExpr(e.Rhs)
	case *MethodCall:
		v.VisitExpr(e.Receiver)
		for _, t := range e.TypeArgs {
			v.VisitTy(t)
		}
		for _, arg := range e.Args {
			v.VisitExpr(arg)
		}
	case *Call:
		v.VisitExpr(e.Func)
		for _, arg := range e.Args {
			v.VisitExpr(arg)
		}
	case *Closure:
		WalkFnDecl(v, e.Decl)
		v.VisitBlock(e.Body)
	case *BlockExpr:
		v.VisitBlock(e.Block)
	}
}

// Inner returns the operand expression of the place-forming expressions a
// method receiver can be derived from: parens, fields, tuple fields, indexing
// and dereference. ok is false for any other expression.
func Inner(e Expr) (inner Expr, ok bool) {
	switch e := e.(type) {
	case *Paren:
		return e.Inner, true
	case *Field:
		return e.Base, true
	case *TupField:
		return e.Base, true
	case *Index:
		return e.Base, true
	case *Unary:
		if e.Op == UnDeref {
			return e.Operand, true
		}
	}
	return nil, false
}
