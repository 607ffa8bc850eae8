package check

import (
	"fmt"

	"github.com/cottand/tyck/types"
)

// AutoRef is an implicit `&` or `&mut` taken of an expression
type AutoRef struct {
	Region types.Region
	Mutbl  types.Mutability
}

func (a AutoRef) FoldWith(f types.Folder) types.Foldable {
	return AutoRef{Region: f.FoldRegion(a.Region), Mutbl: a.Mutbl}
}

func (a AutoRef) String() string {
	if a.Mutbl == types.Mutable {
		return "&mut"
	}
	return "&"
}

// Adjustment is an implicit coercion recorded against an expression
type Adjustment interface {
	types.Foldable
	fmt.Stringer
	adjustment()
}

var (
	_ Adjustment = ReifyFnPointer{}
	_ Adjustment = UnsafeFnPointer{}
	_ Adjustment = DerefRef{}
)

// ReifyFnPointer turns a function item into a function pointer
type ReifyFnPointer struct{}

// UnsafeFnPointer turns a safe function pointer into an unsafe one
type UnsafeFnPointer struct{}

// DerefRef dereferences an expression Autoderefs times, then optionally
// references the result and unsizes it
type DerefRef struct {
	Autoderefs uint32
	Autoref    *AutoRef
	// Unsize is the type after unsizing, or nil
	Unsize types.Ty
}

func (ReifyFnPointer) adjustment()  {}
func (UnsafeFnPointer) adjustment() {}
func (DerefRef) adjustment()        {}

func (a ReifyFnPointer) FoldWith(types.Folder) types.Foldable  { return a }
func (a UnsafeFnPointer) FoldWith(types.Folder) types.Foldable { return a }

func (a DerefRef) FoldWith(f types.Folder) types.Foldable {
	out := DerefRef{Autoderefs: a.Autoderefs}
	if a.Autoref != nil {
		autoref := types.Fold(f, *a.Autoref)
		out.Autoref = &autoref
	}
	if a.Unsize != nil {
		out.Unsize = f.FoldTy(a.Unsize)
	}
	return out
}

func (ReifyFnPointer) String() string  { return "reify-fn-pointer" }
func (UnsafeFnPointer) String() string { return "unsafe-fn-pointer" }

func (a DerefRef) String() string {
	s := fmt.Sprintf("{autoderefs: %d", a.Autoderefs)
	if a.Autoref != nil {
		s += ", autoref: " + a.Autoref.String()
	}
	if a.Unsize != nil {
		s += ", unsize: " + a.Unsize.String()
	}
	return s + "}"
}

// AdjustTyForAutoref is t seen through autoref, or t itself when autoref is nil
func AdjustTyForAutoref(c *types.Ctxt, t types.Ty, autoref *AutoRef) types.Ty {
	if autoref == nil {
		return t
	}
	return c.MkRef(autoref.Region, types.TypeAndMut{Ty: t, Mutbl: autoref.Mutbl})
}
