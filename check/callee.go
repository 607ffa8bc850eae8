package check

import (
	"fmt"

	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/types"
)

// MethodCall keys the method map. Autoderef is 0 for the call expression
// itself: an overloaded deref performed while autoderefing Expr n times is
// keyed by n+1.
type MethodCall struct {
	Expr      hir.NodeID
	Autoderef uint32
}

func MethodCallExpr(id hir.NodeID) MethodCall { return MethodCall{Expr: id} }

// MethodCallAutoderef keys the overloaded deref of the autoderef step n of id
func MethodCallAutoderef(id hir.NodeID, n uint32) MethodCall {
	return MethodCall{Expr: id, Autoderef: n + 1}
}

func (m MethodCall) String() string {
	if m.Autoderef == 0 {
		return fmt.Sprintf("#%d", m.Expr)
	}
	return fmt.Sprintf("#%d/deref%d", m.Expr, m.Autoderef-1)
}

// MethodOrigin says how the callee of a method call is dispatched
type MethodOrigin interface {
	types.Foldable
	fmt.Stringer
	methodOrigin()
}

var (
	_ MethodOrigin = MethodStatic{}
	_ MethodOrigin = MethodTypeParam{}
	_ MethodOrigin = MethodTraitObject{}
)

// MethodStatic is a method of an inherent impl, dispatched statically
type MethodStatic struct {
	Def types.DefID
}

// MethodTypeParam is a trait method dispatched through the impl selected for
// TraitRef, either now (Impl set) or after monomorphization
type MethodTypeParam struct {
	TraitRef  types.TraitRef
	MethodNum int
	// Impl is NoDef unless the impl was already known when the call was confirmed
	Impl types.DefID
}

// MethodTraitObject is a trait method dispatched through the vtable of a trait object
type MethodTraitObject struct {
	TraitRef types.TraitRef
	// ObjectTraitID is the trait the method was requested from, which the
	// principal of the object inherits from
	ObjectTraitID types.DefID
	MethodNum     int
	VtableIndex   int
}

func (MethodStatic) methodOrigin()      {}
func (MethodTypeParam) methodOrigin()   {}
func (MethodTraitObject) methodOrigin() {}

func (o MethodStatic) FoldWith(types.Folder) types.Foldable { return o }
func (o MethodTypeParam) FoldWith(f types.Folder) types.Foldable {
	o.TraitRef = types.Fold(f, o.TraitRef)
	return o
}
func (o MethodTraitObject) FoldWith(f types.Folder) types.Foldable {
	o.TraitRef = types.Fold(f, o.TraitRef)
	return o
}

func (o MethodStatic) String() string { return fmt.Sprintf("static(%d)", o.Def) }
func (o MethodTypeParam) String() string {
	return fmt.Sprintf("param(%v, method %d)", o.TraitRef, o.MethodNum)
}
func (o MethodTraitObject) String() string {
	return fmt.Sprintf("object(%v, method %d, vtable %d)", o.TraitRef, o.MethodNum, o.VtableIndex)
}

// MethodCallee is a fully typed method call
type MethodCallee struct {
	Origin MethodOrigin
	// Ty is the function type of the callee, receiver first
	Ty     types.Ty
	Substs *types.Substs
}

func (m MethodCallee) FoldWith(f types.Folder) types.Foldable {
	return MethodCallee{Origin: types.Fold(f, m.Origin), Ty: f.FoldTy(m.Ty), Substs: types.FoldSubsts(f, m.Substs)}
}

func (m MethodCallee) String() string {
	return fmt.Sprintf("%v: %v %v", m.Origin, m.Ty, m.Substs)
}

// Sig returns the signature of the callee
func (m MethodCallee) Sig() (types.FnSig, bool) {
	if fn, ok := m.Ty.(*types.FnTy); ok {
		return fn.Fn.Sig.Value, true
	}
	return types.FnSig{}, false
}
