package infer

import (
	"fmt"

	"github.com/cottand/tyck/types"
)

// UnresolvedError reports a placeholder with no unique value
type UnresolvedError struct {
	// Ty is the unresolved type placeholder, or nil for a region
	Ty     types.Ty
	Region types.Region
	reason string
}

func (e *UnresolvedError) Error() string {
	if e.Ty != nil {
		infer, _ := e.Ty.(*types.InferTy)
		switch {
		case infer != nil && infer.Kind == types.IntVar:
			return fmt.Sprintf("unconstrained integer type %v", e.Ty)
		case infer != nil && infer.Kind == types.FloatVar:
			return fmt.Sprintf("unconstrained float type %v", e.Ty)
		default:
			return fmt.Sprintf("unconstrained type %v", e.Ty)
		}
	}
	return fmt.Sprintf("unresolved region %v: %s", e.Region, e.reason)
}

// opportunistic replaces bound placeholders by their values and leaves
// everything else as it is
type opportunistic struct {
	ic *Ctxt
}

func (o *opportunistic) Ctxt() *types.Ctxt { return o.ic.C }
func (o *opportunistic) EnterBinder()      {}
func (o *opportunistic) ExitBinder()       {}

func (o *opportunistic) FoldTy(t types.Ty) types.Ty {
	if !t.Flags().Has(types.HasTyInfer) {
		return t
	}
	t = o.ic.ShallowResolve(t)
	return types.SuperFoldTy(o, t)
}

func (o *opportunistic) FoldRegion(r types.Region) types.Region { return r }

// ResolveIfPossible substitutes every bound placeholder of value
func (ic *Ctxt) ResolveIfPossible(value types.Foldable) types.Foldable {
	return value.FoldWith(&opportunistic{ic: ic})
}

func (ic *Ctxt) ResolveTyIfPossible(t types.Ty) types.Ty {
	return (&opportunistic{ic: ic}).FoldTy(t)
}

// fullResolver replaces every placeholder by its value. The first placeholder
// without one is recorded; it and any later ones become the error sentinel
// (types) or 'static (regions) so that the result is placeholder free.
type fullResolver struct {
	ic  *Ctxt
	err error
}

func (f *fullResolver) Ctxt() *types.Ctxt { return f.ic.C }
func (f *fullResolver) EnterBinder()      {}
func (f *fullResolver) ExitBinder()       {}

func (f *fullResolver) FoldTy(t types.Ty) types.Ty {
	if !t.Flags().NeedsInfer() {
		return t
	}
	t = f.ic.ShallowResolve(t)
	if v, ok := t.(*types.InferTy); ok {
		if f.err == nil {
			f.err = &UnresolvedError{Ty: v}
		}
		return f.ic.C.Types.Err
	}
	return types.SuperFoldTy(f, t)
}

func (f *fullResolver) FoldRegion(r types.Region) types.Region {
	resolved, err := f.ic.resolveRegion(r)
	if err != nil {
		if f.err == nil {
			f.err = err
		}
		return types.Static()
	}
	return resolved
}

// FullyResolve replaces every placeholder of value. It is idempotent, and
// when it fails the returned value is still placeholder free.
func (ic *Ctxt) FullyResolve(value types.Foldable) (types.Foldable, error) {
	f := &fullResolver{ic: ic}
	out := value.FoldWith(f)
	return out, f.err
}

func (ic *Ctxt) FullyResolveTy(t types.Ty) (types.Ty, error) {
	f := &fullResolver{ic: ic}
	out := f.FoldTy(t)
	return out, f.err
}

// DefaultNumericVars binds every unbound integer placeholder to i32 and every
// float placeholder to f64
func (ic *Ctxt) DefaultNumericVars() {
	for vid := range ic.tyVars {
		root := ic.find(uint32(vid))
		v := ic.tyVars[root]
		if v.value != nil {
			continue
		}
		switch v.kind {
		case types.IntVar:
			ic.bind(root, ic.C.Types.I32)
		case types.FloatVar:
			ic.bind(root, ic.C.Types.F64)
		}
	}
}
