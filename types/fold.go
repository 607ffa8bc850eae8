package types

import "github.com/cottand/tyck/ilerr"

// Foldable terms can be rebuilt bottom-up by a Folder
type Foldable interface {
	FoldWith(f Folder) Foldable
}

// Folder rewrites types and regions. Implementations usually handle the
// variants they care about and defer to SuperFoldTy for the rest.
// EnterBinder and ExitBinder bracket the value of every Binder visited.
type Folder interface {
	Ctxt() *Ctxt
	FoldTy(t Ty) Ty
	FoldRegion(r Region) Region
	EnterBinder()
	ExitBinder()
}

// Binder marks the late-bound regions of Value as bound: within Value they
// are ReLateBound regions at depth 1
type Binder[T Foldable] struct {
	Value T
}

func Bind[T Foldable](value T) Binder[T] { return Binder[T]{Value: value} }

func (b Binder[T]) FoldWith(f Folder) Foldable {
	f.EnterBinder()
	defer f.ExitBinder()
	return Binder[T]{Value: b.Value.FoldWith(f).(T)}
}

// Fold applies f to a term, keeping its static type
func Fold[T Foldable](f Folder, t T) T {
	return t.FoldWith(f).(T)
}

// TyTerm lets a bare type flow where a Foldable is expected
type TyTerm struct{ Ty Ty }

func (t TyTerm) FoldWith(f Folder) Foldable { return TyTerm{f.FoldTy(t.Ty)} }

func (m TypeAndMut) FoldWith(f Folder) Foldable {
	return TypeAndMut{Ty: f.FoldTy(m.Ty), Mutbl: m.Mutbl}
}

func (s *Substs) FoldWith(f Folder) Foldable { return FoldSubsts(f, s) }

func (t TraitRef) FoldWith(f Folder) Foldable {
	return TraitRef{Def: t.Def, Name: t.Name, Substs: FoldSubsts(f, t.Substs)}
}

func (p Projection) FoldWith(f Folder) Foldable {
	return Projection{TraitRef: Fold(f, p.TraitRef), Item: p.Item}
}

func (p ProjectionPredicate) FoldWith(f Folder) Foldable {
	return ProjectionPredicate{Projection: Fold(f, p.Projection), Ty: f.FoldTy(p.Ty)}
}

func (s FnSig) FoldWith(f Folder) Foldable {
	out := FnSig{Inputs: foldTys(f, s.Inputs), Variadic: s.Variadic, Output: s.Output}
	if !s.Output.Diverging {
		out.Output.Ty = f.FoldTy(s.Output.Ty)
	}
	return out
}

func (f BareFnTy) FoldWith(folder Folder) Foldable {
	return BareFnTy{Unsafety: f.Unsafety, Abi: f.Abi, Sig: Fold(folder, f.Sig)}
}

func (b ExistentialBounds) FoldWith(f Folder) Foldable {
	out := ExistentialBounds{RegionBound: f.FoldRegion(b.RegionBound), Builtin: b.Builtin}
	for _, p := range b.Projections {
		out.Projections = append(out.Projections, Fold(f, p))
	}
	return out
}

func foldTys(f Folder, ts []Ty) []Ty {
	if ts == nil {
		return nil
	}
	out := make([]Ty, len(ts))
	for i, t := range ts {
		out[i] = f.FoldTy(t)
	}
	return out
}

func FoldSubsts(f Folder, s *Substs) *Substs {
	if s == nil {
		return nil
	}
	out := &Substs{Types: MapPerSpace(s.Types, f.FoldTy), Regions: s.Regions}
	if !s.Regions.Erased {
		out.Regions.Regions = MapPerSpace(s.Regions.Regions, f.FoldRegion)
	}
	return out
}

// SuperFoldTy rebuilds t with f applied to its immediate children
func SuperFoldTy(f Folder, t Ty) Ty {
	c := f.Ctxt()
	switch t := t.(type) {
	case *AdtTy:
		return c.MkAdt(t.Kind, t.Def, t.Name, FoldSubsts(f, t.Substs))
	case *BoxTy:
		return c.MkBox(f.FoldTy(t.Inner))
	case *TraitObjectTy:
		return c.MkTrait(Fold(f, t.Principal), Fold(f, t.Bounds))
	case *RefTy:
		return c.MkRef(f.FoldRegion(t.Region), Fold(f, t.Mt))
	case *RawPtrTy:
		return c.MkPtr(Fold(f, t.Mt))
	case *ArrayTy:
		return c.MkArray(f.FoldTy(t.Elem), t.Len)
	case *SliceTy:
		return c.MkSlice(f.FoldTy(t.Elem))
	case *TupleTy:
		return c.MkTup(foldTys(f, t.Elems)...)
	case *FnTy:
		return c.MkFn(t.Def, Fold(f, t.Fn))
	case *ClosureTy:
		return c.MkClosure(t.Def, FoldSubsts(f, t.Substs))
	case *ProjectionTy:
		return c.MkProjection(Fold(f, t.Data))
	default:
		// scalars, str, params, placeholders and the error sentinel have no children
		return t
	}
}

// Walk calls fn on t and, while fn returns true, on every type t contains
func Walk(t Ty, fn func(Ty) bool) {
	if !fn(t) {
		return
	}
	walkSubsts := func(s *Substs) {
		if s == nil {
			return
		}
		s.Types.All(func(_ ParamSpace, _ uint32, t Ty) bool {
			Walk(t, fn)
			return true
		})
	}
	switch t := t.(type) {
	case *AdtTy:
		walkSubsts(t.Substs)
	case *BoxTy:
		Walk(t.Inner, fn)
	case *TraitObjectTy:
		walkSubsts(t.Principal.Value.Substs)
		for _, p := range t.Bounds.Projections {
			walkSubsts(p.Value.Projection.TraitRef.Substs)
			Walk(p.Value.Ty, fn)
		}
	case *RefTy:
		Walk(t.Mt.Ty, fn)
	case *RawPtrTy:
		Walk(t.Mt.Ty, fn)
	case *ArrayTy:
		Walk(t.Elem, fn)
	case *SliceTy:
		Walk(t.Elem, fn)
	case *TupleTy:
		for _, elem := range t.Elems {
			Walk(elem, fn)
		}
	case *FnTy:
		for _, in := range t.Fn.Sig.Value.Inputs {
			Walk(in, fn)
		}
		if !t.Fn.Sig.Value.Output.Diverging {
			Walk(t.Fn.Sig.Value.Output.Ty, fn)
		}
	case *ClosureTy:
		walkSubsts(t.Substs)
	case *ProjectionTy:
		walkSubsts(t.Data.TraitRef.Substs)
	}
}

// BottomUpFolder applies Ty to every type after its children were folded
// and Region to every region. Either function may be nil.
type BottomUpFolder struct {
	C      *Ctxt
	Ty     func(Ty) Ty
	Region func(r Region, depth uint32) Region

	depth uint32
}

func (b *BottomUpFolder) Ctxt() *Ctxt  { return b.C }
func (b *BottomUpFolder) EnterBinder() { b.depth++ }
func (b *BottomUpFolder) ExitBinder()  { b.depth-- }

func (b *BottomUpFolder) FoldTy(t Ty) Ty {
	t = SuperFoldTy(b, t)
	if b.Ty != nil {
		t = b.Ty(t)
	}
	return t
}

func (b *BottomUpFolder) FoldRegion(r Region) Region {
	if b.Region != nil {
		return b.Region(r, b.depth)
	}
	return r
}

// substFolder replaces parameters by their values in substs
type substFolder struct {
	c      *Ctxt
	substs *Substs
	// number of binders crossed, by which late-bound regions of substituted types are shifted
	binders uint32
}

func (s *substFolder) Ctxt() *Ctxt  { return s.c }
func (s *substFolder) EnterBinder() { s.binders++ }
func (s *substFolder) ExitBinder()  { s.binders-- }

func (s *substFolder) FoldTy(t Ty) Ty {
	if !t.Flags().Has(HasParams) {
		return t
	}
	param, ok := t.(*ParamTy)
	if !ok {
		return SuperFoldTy(s, t)
	}
	replacement, ok := s.substs.Type(param.Space, param.Idx)
	if !ok {
		ilerr.Bug(nil, "type parameter %s (%s/%d) out of range when substituting %v", param.Name, param.Space, param.Idx, s.substs)
	}
	if s.binders == 0 || !replacement.Flags().Has(HasLateBound) {
		return replacement
	}
	return ShiftRegions(s.c, replacement, s.binders)
}

func (s *substFolder) FoldRegion(r Region) Region {
	if r.Kind != ReEarlyBound {
		return r
	}
	if s.substs.Regions.Erased {
		return Static()
	}
	replacement, ok := s.substs.Regions.Regions.Get(r.Space, r.Index)
	if !ok {
		ilerr.Bug(nil, "region parameter %s (%s/%d) out of range when substituting %v", r, r.Space, r.Index, s.substs)
	}
	if replacement.Kind == ReLateBound {
		replacement.Depth += s.binders
	}
	return replacement
}

// Subst replaces every parameter of value by its counterpart in substs. A
// parameter with no counterpart is a compiler bug.
func Subst[T Foldable](c *Ctxt, substs *Substs, value T) T {
	return Fold[T](&substFolder{c: c, substs: substs}, value)
}

func SubstTy(c *Ctxt, substs *Substs, t Ty) Ty {
	return (&substFolder{c: c, substs: substs}).FoldTy(t)
}

// ShiftRegions adds amount to the depth of every late-bound region of t that
// escapes it
func ShiftRegions(c *Ctxt, t Ty, amount uint32) Ty {
	f := &BottomUpFolder{C: c, Region: func(r Region, depth uint32) Region {
		if r.Kind == ReLateBound && r.Depth > depth {
			r.Depth += amount
		}
		return r
	}}
	return f.FoldTy(t)
}

// ReplaceLateBoundRegions instantiates the regions bound by b. Each distinct
// bound region is passed to replace once; the returned map records the choices.
func ReplaceLateBoundRegions[T Foldable](c *Ctxt, b Binder[T], replace func(BoundRegion) Region) (T, map[BoundRegion]Region) {
	chosen := map[BoundRegion]Region{}
	f := &BottomUpFolder{C: c, Region: func(r Region, depth uint32) Region {
		if r.Kind != ReLateBound || r.Depth != depth+1 {
			return r
		}
		br := r.Bound()
		replacement, ok := chosen[br]
		if !ok {
			replacement = replace(br)
			chosen[br] = replacement
		}
		return replacement
	}}
	return Fold(f, b.Value), chosen
}

// Liberate is ReplaceLateBoundRegions into free regions of the scope node
func Liberate[T Foldable](c *Ctxt, scope uint32, b Binder[T]) T {
	value, _ := ReplaceLateBoundRegions(c, b, func(br BoundRegion) Region { return Free(scope, br) })
	return value
}

// EraseRegions maps every region of t to 'static and erases substitution regions
func EraseRegions(c *Ctxt, t Ty) Ty {
	f := &BottomUpFolder{C: c, Region: func(Region, uint32) Region { return Static() }}
	return f.FoldTy(t)
}
