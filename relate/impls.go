package relate

import (
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/types"
)

// TypeAndMut relates the targets of two references or pointers. A mutable
// target is invariant: writing through the pointer forbids widening.
func TypeAndMut(r TypeRelation, a, b types.TypeAndMut) (types.TypeAndMut, error) {
	logger.Debug(r.Tag()+".mts", "a", a, "b", b)
	if a.Mutbl != b.Mutbl {
		return types.TypeAndMut{}, expectedFound(r, types.MutabilityMismatch, a.Mutbl, b.Mutbl)
	}
	variance := types.Covariant
	if a.Mutbl == types.Mutable {
		variance = types.Invariant
	}
	t, err := RelateWithVariance(r, variance, a.Ty, b.Ty)
	if err != nil {
		return types.TypeAndMut{}, err
	}
	return types.TypeAndMut{Ty: t, Mutbl: a.Mutbl}, nil
}

// ItemSubsts relates the substitutions of two uses of the item def, using
// its declared variances when they are known
func ItemSubsts(r TypeRelation, def types.DefID, a, b *types.Substs) (*types.Substs, error) {
	logger.Debug(r.Tag()+".substs", "def", def, "a", a, "b", b)
	variances, _ := r.Ctxt().ItemVariances(def)
	return Substs(r, variances, a, b)
}

// Substs relates two substitutions space by space. With nil variances every
// slot is invariant. Nothing is related unless every type space has the same
// length on both sides.
func Substs(r TypeRelation, variances *types.ItemVariances, a, b *types.Substs) (*types.Substs, error) {
	for _, space := range types.AllSpaces {
		if la, lb := len(a.Types.Slice(space)), len(b.Types.Slice(space)); la != lb {
			return nil, expectedFound(r, types.TyParamSize, la, lb)
		}
	}
	out := types.EmptySubsts()
	for _, space := range types.AllSpaces {
		var tyVariances []types.Variance
		if variances != nil {
			tyVariances = variances.Types.Slice(space)
		}
		tps, err := TypeParams(r, tyVariances, a.Types.Slice(space), b.Types.Slice(space))
		if err != nil {
			return nil, err
		}
		out.Types = out.Types.With(space, tps)
	}

	if a.Regions.Erased || b.Regions.Erased {
		out.Regions = types.ErasedRegions()
		return out, nil
	}
	for _, space := range types.AllSpaces {
		var regionVariances []types.Variance
		if variances != nil {
			regionVariances = variances.Regions.Slice(space)
		}
		regions, err := RegionParams(r, regionVariances, a.Regions.Regions.Slice(space), b.Regions.Regions.Slice(space))
		if err != nil {
			return nil, err
		}
		out.Regions.Regions = out.Regions.Regions.With(space, regions)
	}
	return out, nil
}

// TypeParams relates two vectors of type arguments. Vectors of different
// length are not compared at all.
func TypeParams(r TypeRelation, variances []types.Variance, a, b []types.Ty) ([]types.Ty, error) {
	if len(a) != len(b) {
		return nil, expectedFound(r, types.TyParamSize, len(a), len(b))
	}
	if a == nil {
		return nil, nil
	}
	out := make([]types.Ty, len(a))
	for i := range a {
		v := types.Invariant
		if variances != nil {
			v = variances[i]
		}
		t, err := RelateWithVariance(r, v, a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

// RegionParams relates two vectors of region arguments. The lengths are
// fixed by the item's declaration, so a mismatch is a compiler bug.
func RegionParams(r TypeRelation, variances []types.Variance, a, b []types.Region) ([]types.Region, error) {
	if variances != nil && len(variances) != len(a) {
		ilerr.Bug(nil, "%s: %d region variances for %d region parameters", r.Tag(), len(variances), len(a))
	}
	if len(a) != len(b) {
		ilerr.Bug(nil, "%s: relating %d region parameters with %d", r.Tag(), len(a), len(b))
	}
	if a == nil {
		return nil, nil
	}
	out := make([]types.Region, len(a))
	for i := range a {
		v := types.Invariant
		if variances != nil {
			v = variances[i]
		}
		region, err := RelateWithVariance(r, v, a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = region
	}
	return out, nil
}

func BareFn(r TypeRelation, a, b types.BareFnTy) (types.BareFnTy, error) {
	unsafety, err := Unsafety(r, a.Unsafety, b.Unsafety)
	if err != nil {
		return types.BareFnTy{}, err
	}
	abi, err := Abi(r, a.Abi, b.Abi)
	if err != nil {
		return types.BareFnTy{}, err
	}
	sig, err := PolyFnSig(r, a.Sig, b.Sig)
	if err != nil {
		return types.BareFnTy{}, err
	}
	return types.BareFnTy{Unsafety: unsafety, Abi: abi, Sig: sig}, nil
}

func PolyFnSig(r TypeRelation, a, b types.PolyFnSig) (types.PolyFnSig, error) {
	return binder(r, a, b, FnSig)
}

// FnSig relates two signatures: inputs contravariantly, outputs covariantly
func FnSig(r TypeRelation, a, b types.FnSig) (types.FnSig, error) {
	if a.Variadic != b.Variadic {
		return types.FnSig{}, expectedFound(r, types.VariadicMismatch, a.Variadic, b.Variadic)
	}
	inputs, err := argVecs(r, a.Inputs, b.Inputs)
	if err != nil {
		return types.FnSig{}, err
	}
	var output types.FnOutput
	switch {
	case !a.Output.Diverging && !b.Output.Diverging:
		t, err := Relate(r, a.Output.Ty, b.Output.Ty)
		if err != nil {
			return types.FnSig{}, err
		}
		output = types.Converging(t)
	case a.Output.Diverging && b.Output.Diverging:
		output = types.Diverges
	default:
		return types.FnSig{}, expectedFound(r, types.ConvergenceMismatch, !a.Output.Diverging, !b.Output.Diverging)
	}
	return types.FnSig{Inputs: inputs, Output: output, Variadic: a.Variadic}, nil
}

func argVecs(r TypeRelation, a, b []types.Ty) ([]types.Ty, error) {
	if len(a) != len(b) {
		return nil, expectedFound(r, types.ArgCount, len(a), len(b))
	}
	out := make([]types.Ty, len(a))
	for i := range a {
		t, err := RelateWithVariance(r, types.Contravariant, a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}

func Unsafety(r TypeRelation, a, b types.Unsafety) (types.Unsafety, error) {
	if a != b {
		return a, expectedFound(r, types.UnsafetyMismatch, a, b)
	}
	return a, nil
}

func Abi(r TypeRelation, a, b types.Abi) (types.Abi, error) {
	if a != b {
		return a, expectedFound(r, types.AbiMismatch, a, b)
	}
	return a, nil
}

// Projection relates two projections of the same associated item
func Projection(r TypeRelation, a, b types.Projection) (types.Projection, error) {
	if a.Item != b.Item {
		return types.Projection{}, expectedFound(r, types.ProjectionNameMismatched, a.Item, b.Item)
	}
	traitRef, err := TraitRef(r, a.TraitRef, b.TraitRef)
	if err != nil {
		return types.Projection{}, err
	}
	return types.Projection{TraitRef: traitRef, Item: a.Item}, nil
}

func ProjectionPredicate(r TypeRelation, a, b types.ProjectionPredicate) (types.ProjectionPredicate, error) {
	projection, err := Projection(r, a.Projection, b.Projection)
	if err != nil {
		return types.ProjectionPredicate{}, err
	}
	t, err := Relate(r, a.Ty, b.Ty)
	if err != nil {
		return types.ProjectionPredicate{}, err
	}
	return types.ProjectionPredicate{Projection: projection, Ty: t}, nil
}

func PolyProjectionPredicate(r TypeRelation, a, b types.PolyProjectionPredicate) (types.PolyProjectionPredicate, error) {
	return binder(r, a, b, ProjectionPredicate)
}

// ProjectionBounds relates two lists of projection bounds pairwise. Lists
// are kept sorted by trait and item name when trait objects are interned,
// so no search is needed.
func ProjectionBounds(r TypeRelation, a, b []types.PolyProjectionPredicate) ([]types.PolyProjectionPredicate, error) {
	if len(a) != len(b) {
		return nil, expectedFound(r, types.ProjectionBoundsLength, len(a), len(b))
	}
	if a == nil {
		return nil, nil
	}
	out := make([]types.PolyProjectionPredicate, len(a))
	for i := range a {
		p, err := PolyProjectionPredicate(r, a[i], b[i])
		if err != nil {
			return nil, err
		}
		out[i] = p
	}
	return out, nil
}

// ExistentialBounds relates the region bound contravariantly, then the
// builtin bounds, then the projection bounds
func ExistentialBounds(r TypeRelation, a, b types.ExistentialBounds) (types.ExistentialBounds, error) {
	region, err := RelateWithVariance(r, types.Contravariant, a.RegionBound, b.RegionBound)
	if err != nil {
		return types.ExistentialBounds{}, err
	}
	builtin, err := BuiltinBounds(r, a.Builtin, b.Builtin)
	if err != nil {
		return types.ExistentialBounds{}, err
	}
	projections, err := ProjectionBounds(r, a.Projections, b.Projections)
	if err != nil {
		return types.ExistentialBounds{}, err
	}
	return types.ExistentialBounds{RegionBound: region, Builtin: builtin, Projections: projections}, nil
}

// BuiltinBounds only relate when they are exactly the same set
func BuiltinBounds(r TypeRelation, a, b types.BuiltinBounds) (types.BuiltinBounds, error) {
	if a != b {
		return a, expectedFound(r, types.BuiltinBoundsMismatch, a, b)
	}
	return a, nil
}

// TraitRef relates two references to the same trait
func TraitRef(r TypeRelation, a, b types.TraitRef) (types.TraitRef, error) {
	if a.Def != b.Def {
		return types.TraitRef{}, expectedFound(r, types.TraitsMismatch, a.Name, b.Name)
	}
	substs, err := ItemSubsts(r, a.Def, a.Substs, b.Substs)
	if err != nil {
		return types.TraitRef{}, err
	}
	return types.TraitRef{Def: a.Def, Name: a.Name, Substs: substs}, nil
}

func PolyTraitRef(r TypeRelation, a, b types.PolyTraitRef) (types.PolyTraitRef, error) {
	return binder(r, a, b, TraitRef)
}
