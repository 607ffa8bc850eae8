package relate

import (
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/types"
)

// SuperTys relates two types structurally. It does not handle inference
// placeholders: relations must resolve or bind them in their Tys hook
// before calling it, and a placeholder reaching it is a compiler bug.
func SuperTys(r TypeRelation, a, b types.Ty) (types.Ty, error) {
	c := r.Ctxt()
	logger.Debug(r.Tag()+".super_tys", "a", a, "b", b)

	if _, ok := a.(*types.InferTy); ok {
		ilerr.Bug(nil, "%s: placeholder %v encountered in structural relation with %v", r.Tag(), a, b)
	}
	if _, ok := b.(*types.InferTy); ok {
		ilerr.Bug(nil, "%s: placeholder %v encountered in structural relation with %v", r.Tag(), b, a)
	}
	if types.IsError(a) || types.IsError(b) {
		return c.Types.Err, nil
	}

	sorts := func() (types.Ty, error) {
		return nil, expectedFound(r, types.Mismatch, a, b)
	}

	switch a := a.(type) {
	case *types.ScalarTy, *types.StrTy:
		// interned, so structural equality is identity
		if types.Ty(a) == b {
			return a, nil
		}
		return sorts()

	case *types.ParamTy:
		if b, ok := b.(*types.ParamTy); ok && a.Idx == b.Idx && a.Space == b.Space {
			return a, nil
		}
		return sorts()

	case *types.AdtTy:
		b, ok := b.(*types.AdtTy)
		if !ok || a.Def != b.Def || a.Kind != b.Kind {
			return sorts()
		}
		substs, err := ItemSubsts(r, a.Def, a.Substs, b.Substs)
		if err != nil {
			return nil, err
		}
		return c.MkAdt(a.Kind, a.Def, a.Name, substs), nil

	case *types.TraitObjectTy:
		b, ok := b.(*types.TraitObjectTy)
		if !ok {
			return sorts()
		}
		principal, err := PolyTraitRef(r, a.Principal, b.Principal)
		if err != nil {
			return nil, err
		}
		bounds, err := ExistentialBounds(r, a.Bounds, b.Bounds)
		if err != nil {
			return nil, err
		}
		return c.MkTrait(principal, bounds), nil

	case *types.ClosureTy:
		b, ok := b.(*types.ClosureTy)
		if !ok || a.Def != b.Def {
			return sorts()
		}
		// every closure type with the same id is the type of the same
		// closure expression, so all of their regions are equated
		substs, err := Substs(r, nil, a.Substs, b.Substs)
		if err != nil {
			return nil, err
		}
		return c.MkClosure(a.Def, substs), nil

	case *types.BoxTy:
		b, ok := b.(*types.BoxTy)
		if !ok {
			return sorts()
		}
		inner, err := Relate(r, a.Inner, b.Inner)
		if err != nil {
			return nil, err
		}
		return c.MkBox(inner), nil

	case *types.RawPtrTy:
		b, ok := b.(*types.RawPtrTy)
		if !ok {
			return sorts()
		}
		mt, err := TypeAndMut(r, a.Mt, b.Mt)
		if err != nil {
			return nil, err
		}
		return c.MkPtr(mt), nil

	case *types.RefTy:
		b, ok := b.(*types.RefTy)
		if !ok {
			return sorts()
		}
		region, err := RelateWithVariance(r, types.Contravariant, a.Region, b.Region)
		if err != nil {
			return nil, err
		}
		mt, err := TypeAndMut(r, a.Mt, b.Mt)
		if err != nil {
			return nil, err
		}
		return c.MkRef(region, mt), nil

	case *types.ArrayTy:
		b, ok := b.(*types.ArrayTy)
		if !ok {
			return sorts()
		}
		elem, err := Relate(r, a.Elem, b.Elem)
		if err != nil {
			return nil, err
		}
		if a.Len != b.Len {
			return nil, expectedFound(r, types.FixedArraySize, a.Len, b.Len)
		}
		return c.MkArray(elem, a.Len), nil

	case *types.SliceTy:
		b, ok := b.(*types.SliceTy)
		if !ok {
			return sorts()
		}
		elem, err := Relate(r, a.Elem, b.Elem)
		if err != nil {
			return nil, err
		}
		return c.MkSlice(elem), nil

	case *types.TupleTy:
		b, ok := b.(*types.TupleTy)
		if !ok {
			return sorts()
		}
		if len(a.Elems) != len(b.Elems) {
			if len(a.Elems) == 0 || len(b.Elems) == 0 {
				return sorts()
			}
			return nil, expectedFound(r, types.TupleSize, len(a.Elems), len(b.Elems))
		}
		elems := make([]types.Ty, len(a.Elems))
		for i := range a.Elems {
			elem, err := Relate(r, a.Elems[i], b.Elems[i])
			if err != nil {
				return nil, err
			}
			elems[i] = elem
		}
		return c.MkTup(elems...), nil

	case *types.FnTy:
		b, ok := b.(*types.FnTy)
		if !ok || a.Def != b.Def {
			return sorts()
		}
		fn, err := BareFn(r, a.Fn, b.Fn)
		if err != nil {
			return nil, err
		}
		return c.MkFn(a.Def, fn), nil

	case *types.ProjectionTy:
		b, ok := b.(*types.ProjectionTy)
		if !ok {
			return sorts()
		}
		projection, err := Projection(r, a.Data, b.Data)
		if err != nil {
			return nil, err
		}
		return c.MkProjection(projection), nil

	default:
		return sorts()
	}
}
