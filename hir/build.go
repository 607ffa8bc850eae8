package hir

import "go/token"

// Builder allocates node ids and synthetic positions while constructing
// bodies by hand, as checking fixtures do. Every node gets a distinct id and
// a distinct one-character range.
type Builder struct {
	next NodeID
}

func NewBuilder() *Builder {
	return &Builder{next: DummyNodeID}
}

func (b *Builder) meta() Meta {
	b.next++
	pos := token.Pos(b.next)
	return Meta{Range: Range{PosStart: pos, PosEnd: pos + 1}, NodeID: b.next}
}

// NextID reserves an id that is not attached to any node, such as a closure definition id
func (b *Builder) NextID() NodeID { return b.meta().NodeID }

func (b *Builder) Path(name string) *Path  { return &Path{Meta: b.meta(), Name: name} }
func (b *Builder) Lit(value string) *Lit   { return &Lit{Meta: b.meta(), Value: value} }
func (b *Builder) Paren(inner Expr) *Paren { return &Paren{Meta: b.meta(), Inner: inner} }
func (b *Builder) Deref(operand Expr) *Unary {
	return &Unary{Meta: b.meta(), Op: UnDeref, Operand: operand}
}

func (b *Builder) Field(base Expr, name string) *Field {
	return &Field{Meta: b.meta(), Base: base, Name: name}
}

func (b *Builder) TupField(base Expr, index int) *TupField {
	return &TupField{Meta: b.meta(), Base: base, Index: index}
}

func (b *Builder) Index(base, index Expr) *Index {
	return &Index{Meta: b.meta(), Base: base, Index: index}
}

func (b *Builder) Binary(op BinOp, lhs, rhs Expr) *Binary {
	return &Binary{Meta: b.meta(), Op: op, Lhs: lhs, Rhs: rhs}
}

func (b *Builder) MethodCall(receiver Expr, name string, args ...Expr) *MethodCall {
	return &MethodCall{Meta: b.meta(), Receiver: receiver, Name: name, Args: args}
}

func (b *Builder) Call(fn Expr, args ...Expr) *Call {
	return &Call{Meta: b.meta(), Func: fn, Args: args}
}

func (b *Builder) Closure(decl *FnDecl, body *Block) *Closure {
	return &Closure{Meta: b.meta(), Decl: decl, Body: body}
}

func (b *Builder) Block(tail Expr, stmts ...Stmt) *Block {
	return &Block{Meta: b.meta(), Stmts: stmts, Tail: tail}
}

func (b *Builder) Let(pat Pat, ty Ty, init Expr) *LetStmt {
	return &LetStmt{Meta: b.meta(), Local: &Local{Meta: b.meta(), Pat: pat, Ty: ty, Init: init}}
}

func (b *Builder) Semi(e Expr) *ExprStmt { return &ExprStmt{Meta: b.meta(), Expr: e, Semi: true} }

func (b *Builder) Bind(name string, mutable bool) *BindingPat {
	return &BindingPat{Meta: b.meta(), Name: name, Mutable: mutable}
}

func (b *Builder) TuplePat(elems ...Pat) *TuplePat { return &TuplePat{Meta: b.meta(), Elems: elems} }
func (b *Builder) Wild() *WildPat                  { return &WildPat{Meta: b.meta()} }

func (b *Builder) PathTy(name string) *PathTy { return &PathTy{Meta: b.meta(), Name: name} }

func (b *Builder) ArrayTy(elem Ty, count Expr) *FixedLengthVecTy {
	return &FixedLengthVecTy{Meta: b.meta(), Elem: elem, Count: count}
}

func (b *Builder) Arg(pat Pat, ty Ty) *Arg { return &Arg{Meta: b.meta(), Pat: pat, Ty: ty} }

func (b *Builder) Fn(name string, decl *FnDecl, body *Block) *Fn {
	return &Fn{Meta: b.meta(), Name: name, Decl: decl, Body: body}
}

func (b *Builder) RefTy(elem Ty, mutable bool) *RefTy {
	return &RefTy{Meta: b.meta(), Mutable: mutable, Elem: elem}
}

func (b *Builder) BlockExpr(block *Block) *BlockExpr { return &BlockExpr{Meta: b.meta(), Block: block} }

// ExprStmt is e in statement position without a trailing semicolon
func (b *Builder) ExprStmt(e Expr) *ExprStmt { return &ExprStmt{Meta: b.meta(), Expr: e} }

// LetUninit is `let pat;`
func (b *Builder) LetUninit(pat Pat) *LetStmt { return b.Let(pat, nil, nil) }
