package hir

// Node is the base interface for every node of a function body
type Node interface {
	Positioner
	ID() NodeID
}

// Expr is the interface for all expression nodes
type Expr interface {
	Node
	exprNode()
}

// Stmt is the interface for all statement nodes
type Stmt interface {
	Node
	stmtNode()
}

// Pat is the interface for all pattern nodes
type Pat interface {
	Node
	patNode()
}

// Ty is the interface for written type annotations
type Ty interface {
	Node
	tyNode()
}

var (
	_ Expr = (*Path)(nil)
	_ Expr = (*Lit)(nil)
	_ Expr = (*Paren)(nil)
	_ Expr = (*Field)(nil)
	_ Expr = (*TupField)(nil)
	_ Expr = (*Index)(nil)
	_ Expr = (*Unary)(nil)
	_ Expr = (*Binary)(nil)
	_ Expr = (*MethodCall)(nil)
	_ Expr = (*Call)(nil)
	_ Expr = (*Closure)(nil)
	_ Expr = (*BlockExpr)(nil)

	_ Stmt = (*LetStmt)(nil)
	_ Stmt = (*ExprStmt)(nil)

	_ Pat = (*BindingPat)(nil)
	_ Pat = (*TuplePat)(nil)
	_ Pat = (*WildPat)(nil)

	_ Ty = (*PathTy)(nil)
	_ Ty = (*RefTy)(nil)
	_ Ty = (*FixedLengthVecTy)(nil)
)

type UnOp uint8

const (
	UnDeref UnOp = iota
	UnNot
	UnNeg
)

func (op UnOp) String() string {
	switch op {
	case UnDeref:
		return "*"
	case UnNot:
		return "!"
	default:
		return "-"
	}
}

type BinOp uint8

const (
	BinAdd BinOp = iota
	BinSub
	BinMul
	BinDiv
	BinRem
	BinAnd
	BinOr
	BinBitXor
	BinBitAnd
	BinBitOr
	BinShl
	BinShr
	BinEq
	BinLt
	BinLe
	BinNe
	BinGe
	BinGt
)

var binOpStrings = [...]string{"+", "-", "*", "/", "%", "&&", "||", "^", "&", "|", "<<", ">>", "==", "<", "<=", "!=", ">=", ">"}

func (op BinOp) String() string { return binOpStrings[op] }

// IsByValue reports whether the overloaded form of op takes its operands by value.
// Comparison operators take both operands by reference, and the lazy
// operators are never overloaded.
func (op BinOp) IsByValue() bool {
	switch op {
	case BinAdd, BinSub, BinMul, BinDiv, BinRem, BinBitXor, BinBitAnd, BinBitOr, BinShl, BinShr:
		return true
	default:
		return false
	}
}

type Path struct {
	Meta
	Name string
}

type Lit struct {
	Meta
	Value string
}

type Paren struct {
	Meta
	Inner Expr
}

type Field struct {
	Meta
	Base Expr
	Name string
}

type TupField struct {
	Meta
	Base  Expr
	Index int
}

type Index struct {
	Meta
	Base, Index Expr
}

type Unary struct {
	Meta
	Op      UnOp
	Operand Expr
}

type Binary struct {
	Meta
	Op       BinOp
	Lhs, Rhs Expr
}

type MethodCall struct {
	Meta
	Receiver Expr
	Name     string
	TypeArgs []Ty
	Args     []Expr
}

type Call struct {
	Meta
	Func Expr
	Args []Expr
}

type Closure struct {
	Meta
	Decl *FnDecl
	Body *Block
}

type BlockExpr struct {
	Meta
	Block *Block
}

func (*Path) exprNode()       {}
func (*Lit) exprNode()        {}
func (*Paren) exprNode()      {}
func (*Field) exprNode()      {}
func (*TupField) exprNode()   {}
func (*Index) exprNode()      {}
func (*Unary) exprNode()      {}
func (*Binary) exprNode()     {}
func (*MethodCall) exprNode() {}
func (*Call) exprNode()       {}
func (*Closure) exprNode()    {}
func (*BlockExpr) exprNode()  {}

type LetStmt struct {
	Meta
	Local *Local
}

// ExprStmt is an expression in statement position, with or without a trailing semicolon
type ExprStmt struct {
	Meta
	Expr Expr
	Semi bool
}

func (*LetStmt) stmtNode()  {}
func (*ExprStmt) stmtNode() {}

type Block struct {
	Meta
	Stmts []Stmt
	// Tail may be nil
	Tail Expr
}

// Local is a `let` binding. Ty and Init may be nil
type Local struct {
	Meta
	Pat  Pat
	Ty   Ty
	Init Expr
}

type BindingPat struct {
	Meta
	Name    string
	Mutable bool
}

type TuplePat struct {
	Meta
	Elems []Pat
}

type WildPat struct {
	Meta
}

func (*BindingPat) patNode() {}
func (*TuplePat) patNode()   {}
func (*WildPat) patNode()    {}

// IsBinding reports whether p is a plain identifier binding, whose type is the type of the whole pattern
func IsBinding(p Pat) bool {
	_, ok := p.(*BindingPat)
	return ok
}

type PathTy struct {
	Meta
	Name string
}

type RefTy struct {
	Meta
	Mutable bool
	Elem    Ty
}

// FixedLengthVecTy is `[Elem; Count]`
type FixedLengthVecTy struct {
	Meta
	Elem  Ty
	Count Expr
}

func (*PathTy) tyNode()           {}
func (*RefTy) tyNode()            {}
func (*FixedLengthVecTy) tyNode() {}

type Arg struct {
	Meta
	Pat Pat
	Ty  Ty
}

type FnDecl struct {
	Inputs []*Arg
	// Output may be nil for the unit return type
	Output Ty
}

// Fn is a checked function body, the unit writeback operates on
type Fn struct {
	Meta
	Name string
	Decl *FnDecl
	Body *Block
}
