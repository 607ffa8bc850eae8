package infer

import (
	"github.com/cottand/tyck/relate"
	"github.com/cottand/tyck/types"
)

var (
	_ relate.TypeRelation = (*Equate)(nil)
	_ relate.TypeRelation = (*Sub)(nil)
	_ relate.TypeRelation = (*Bivariate)(nil)
)

// fields are shared by every relation of one comparison
type fields struct {
	ic          *Ctxt
	aIsExpected bool
}

func (f fields) Ctxt() *types.Ctxt { return f.ic.C }
func (f fields) AIsExpected() bool { return f.aIsExpected }

func (f fields) equate() *Equate       { return &Equate{fields: f} }
func (f fields) sub(flip bool) *Sub    { return &Sub{fields: f, flipped: flip} }
func (f fields) bivariate() *Bivariate { return &Bivariate{fields: f} }

// Equate requires both sides to be the same term
type Equate struct{ fields }

func (e *Equate) Tag() string                                     { return "Equate" }
func (e *Equate) WithVariance(types.Variance) relate.TypeRelation { return e }

func (e *Equate) Tys(a, b types.Ty) (types.Ty, error) {
	ic := e.ic
	a, b = ic.ShallowResolve(a), ic.ShallowResolve(b)
	if a == b {
		return a, nil
	}
	if t, done, err := ic.relateVars(e, a, b, false); done {
		return t, err
	}
	return relate.SuperTys(e, a, b)
}

func (e *Equate) Regions(a, b types.Region) (types.Region, error) {
	if !e.ic.makeEqRegion(a, b) {
		return a, types.NewTypeError(types.RegionsMismatch, e.aIsExpected, a, b)
	}
	return a, nil
}

func (e *Equate) Binders(a, b types.Foldable, inner relate.BinderFunc) (types.Foldable, error) {
	// bound regions at the same position are the same region, so the values
	// can be compared as they are
	return inner(e, a, b)
}

// Sub requires a to be a subtype of b, or b of a when flipped
type Sub struct {
	fields
	flipped bool
}

func (s *Sub) Tag() string { return "Sub" }

func (s *Sub) WithVariance(v types.Variance) relate.TypeRelation {
	switch v {
	case types.Covariant:
		return s
	case types.Contravariant:
		return s.sub(!s.flipped)
	case types.Invariant:
		return s.equate()
	default:
		return s.bivariate()
	}
}

func (s *Sub) Tys(a, b types.Ty) (types.Ty, error) {
	ic := s.ic
	a, b = ic.ShallowResolve(a), ic.ShallowResolve(b)
	if a == b {
		return a, nil
	}
	if t, done, err := ic.relateVars(s, a, b, true); done {
		return t, err
	}
	return relate.SuperTys(s, a, b)
}

func (s *Sub) Regions(a, b types.Region) (types.Region, error) {
	sub, sup := a, b
	if s.flipped {
		sub, sup = b, a
	}
	if !s.ic.makeSubregion(sub, sup) {
		return a, types.NewTypeError(types.RegionsMismatch, s.aIsExpected, a, b)
	}
	return a, nil
}

// Binders instantiates the regions bound on the subtype side with
// placeholders and those on the supertype side with fresh free regions, so
// the subtype must hold for every choice of the latter
func (s *Sub) Binders(a, b types.Foldable, inner relate.BinderFunc) (types.Foldable, error) {
	original := a
	sub, sup := &a, &b
	if s.flipped {
		sub, sup = &b, &a
	}
	*sub, _ = s.ic.ReplaceLateBoundRegionsWithFresh(nil, types.HigherRankedRegion, *sub)
	*sup, _ = types.ReplaceLateBoundRegions(s.ic.C, types.Bind(*sup), s.ic.skolemize)
	if _, err := inner(s, a, b); err != nil {
		return nil, err
	}
	// the instantiated regions must not leak out of the comparison
	return original, nil
}

func (ic *Ctxt) skolemize(br types.BoundRegion) types.Region {
	ic.nextSkolemized++
	return types.Free(^ic.nextSkolemized, br)
}

// Bivariate relates anything of the same shape
type Bivariate struct{ fields }

func (b *Bivariate) Tag() string { return "Bivariate" }

func (b *Bivariate) WithVariance(v types.Variance) relate.TypeRelation {
	if v == types.Invariant {
		return b.equate()
	}
	return b
}

func (b *Bivariate) Tys(x, y types.Ty) (types.Ty, error) {
	ic := b.ic
	x, y = ic.ShallowResolve(x), ic.ShallowResolve(y)
	if x == y {
		return x, nil
	}
	_, xVar := x.(*types.InferTy)
	_, yVar := y.(*types.InferTy)
	if xVar || yVar {
		// a placeholder is left unconstrained
		return x, nil
	}
	return relate.SuperTys(b, x, y)
}

func (b *Bivariate) Regions(x, _ types.Region) (types.Region, error) { return x, nil }

func (b *Bivariate) Binders(x, y types.Foldable, inner relate.BinderFunc) (types.Foldable, error) {
	return inner(b, x, y)
}

// relateVars handles the cases of a relation where either side is an unbound
// placeholder. done is false when neither side is one.
func (ic *Ctxt) relateVars(r relate.TypeRelation, a, b types.Ty, generalize bool) (t types.Ty, done bool, err error) {
	av, aIsVar := a.(*types.InferTy)
	bv, bIsVar := b.(*types.InferTy)
	switch {
	case aIsVar && bIsVar:
		if av.Kind != types.TyVar && bv.Kind != types.TyVar && av.Kind != bv.Kind {
			return nil, true, ic.numericMismatch(r, av, b)
		}
		ic.unify(av.Vid, bv.Vid)
		return a, true, nil
	case aIsVar:
		return ic.instantiate(r, av, b, generalize, true)
	case bIsVar:
		return ic.instantiate(r, bv, a, generalize, false)
	default:
		return nil, false, nil
	}
}

// instantiate binds the placeholder v with t, then relates again so that the
// binding is checked against t
func (ic *Ctxt) instantiate(r relate.TypeRelation, v *types.InferTy, t types.Ty, generalize, varIsA bool) (types.Ty, bool, error) {
	switch v.Kind {
	case types.IntVar:
		if s, ok := t.(*types.ScalarTy); ok && s.Kind.IsInt() {
			ic.bind(v.Vid, t)
			return t, true, nil
		}
		return nil, true, ic.numericMismatch(r, v, t)
	case types.FloatVar:
		if s, ok := t.(*types.ScalarTy); ok && s.Kind.IsFloat() {
			ic.bind(v.Vid, t)
			return t, true, nil
		}
		return nil, true, ic.numericMismatch(r, v, t)
	}

	if ic.occurs(v.Vid, t) {
		return nil, true, &types.TypeError{Kind: types.CyclicTy}
	}
	value := t
	if generalize {
		value = ic.generalize(t)
	}
	ic.bind(v.Vid, value)
	if value == t {
		return t, true, nil
	}
	if varIsA {
		out, err := r.Tys(value, t)
		return out, true, err
	}
	out, err := r.Tys(t, value)
	return out, true, err
}

func (ic *Ctxt) numericMismatch(r relate.TypeRelation, v *types.InferTy, t types.Ty) error {
	kind := types.IntMismatch
	if v.Kind == types.FloatVar {
		kind = types.FloatMismatch
	}
	return types.NewTypeError[types.Ty](kind, r.AIsExpected(), v, t)
}

// occurs reports whether the placeholder vid appears in t
func (ic *Ctxt) occurs(vid uint32, t types.Ty) bool {
	root := ic.find(vid)
	found := false
	types.Walk(t, func(t types.Ty) bool {
		if found {
			return false
		}
		if v, ok := t.(*types.InferTy); ok {
			if resolved := ic.ShallowResolve(v); resolved != t {
				found = ic.occurs(vid, resolved)
			} else {
				found = ic.find(v.Vid) == root
			}
			return false
		}
		return t.Flags().Has(types.HasTyInfer)
	})
	return found
}

// generalize replaces every region of t that is not a parameter with a
// fresh placeholder, so that binding a placeholder to t under subtyping does
// not force the regions to be equal
func (ic *Ctxt) generalize(t types.Ty) types.Ty {
	f := &types.BottomUpFolder{C: ic.C, Region: func(r types.Region, _ uint32) types.Region {
		if r.Kind == types.ReLateBound || r.Kind == types.ReEarlyBound {
			return r
		}
		return ic.NextRegionVar(types.GeneralizedRegion, nil)
	}}
	return f.FoldTy(t)
}

// Sub relates a <: b through the subtyping relation, undoing every binding
// when it fails
func (ic *Ctxt) Sub(aIsExpected bool, a, b types.Ty) error {
	return ic.CommitIfOk(func() error {
		_, err := fields{ic: ic, aIsExpected: aIsExpected}.sub(false).Tys(a, b)
		return err
	})
}

// Equate relates a == b, undoing every binding when it fails
func (ic *Ctxt) Equate(aIsExpected bool, a, b types.Ty) error {
	return ic.CommitIfOk(func() error {
		_, err := fields{ic: ic, aIsExpected: aIsExpected}.equate().Tys(a, b)
		return err
	})
}

// SubTraitRefs relates two poly trait references, a the subtype
func (ic *Ctxt) SubTraitRefs(aIsExpected bool, a, b types.PolyTraitRef) error {
	return ic.CommitIfOk(func() error {
		_, err := relate.PolyTraitRef(fields{ic: ic, aIsExpected: aIsExpected}.sub(false), a, b)
		return err
	})
}

// Relation returns the relation of the given variance rooted at this oracle
func (ic *Ctxt) Relation(v types.Variance, aIsExpected bool) relate.TypeRelation {
	return fields{ic: ic, aIsExpected: aIsExpected}.sub(false).WithVariance(v)
}

// EquateTraitRefs relates two trait references for equality, undoing every
// binding when it fails
func (ic *Ctxt) EquateTraitRefs(aIsExpected bool, a, b types.TraitRef) error {
	return ic.CommitIfOk(func() error {
		_, err := relate.TraitRef(fields{ic: ic, aIsExpected: aIsExpected}.equate(), a, b)
		return err
	})
}

// RegionOutlives records that long outlives short
func (ic *Ctxt) RegionOutlives(long, short types.Region) error {
	if !ic.makeSubregion(short, long) {
		return types.NewTypeError(types.RegionsMismatch, true, long, short)
	}
	return nil
}
