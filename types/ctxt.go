package types

import (
	"cmp"
	"sort"

	"github.com/cottand/tyck/ilerr"
	"github.com/hashicorp/go-set/v3"
	xset "github.com/xtgo/set"
)

// CommonTypes are interned once per Ctxt
type CommonTypes struct {
	Bool, Char               Ty
	I8, I16, I32, I64, Isize Ty
	U8, U16, U32, U64, Usize Ty
	F32, F64                 Ty
	Str, Unit, Err           Ty
}

// Ctxt owns the term arena and the item tables of one compilation unit.
// It is not safe for concurrent use.
type Ctxt struct {
	interner map[uint64][]Ty
	Types    CommonTypes

	// VariancesComputed gates ItemVariances: before variance inference has
	// run, every parameter is treated as Invariant
	VariancesComputed bool
	variances         map[DefID]*ItemVariances

	Traits  map[DefID]*TraitDef
	Impls   map[DefID]*ImplDef
	Methods map[DefID]*Method
	Adts    map[DefID]*AdtDef
	// TraitImpls lists the impls of each trait, in declaration order
	TraitImpls map[DefID][]DefID
	// Destructors holds the methods that implement the Drop lang item
	Destructors *set.Set[DefID]
	Lang        LangItems

	lastDef DefID
}

func NewCtxt() *Ctxt {
	c := &Ctxt{
		interner:    map[uint64][]Ty{},
		variances:   map[DefID]*ItemVariances{},
		Traits:      map[DefID]*TraitDef{},
		Impls:       map[DefID]*ImplDef{},
		Methods:     map[DefID]*Method{},
		Adts:        map[DefID]*AdtDef{},
		TraitImpls:  map[DefID][]DefID{},
		Destructors: set.New[DefID](0),
	}
	scalar := func(k ScalarKind) Ty { return c.intern(&ScalarTy{Kind: k}) }
	c.Types = CommonTypes{
		Bool: scalar(Bool), Char: scalar(Char),
		I8: scalar(I8), I16: scalar(I16), I32: scalar(I32), I64: scalar(I64), Isize: scalar(Isize),
		U8: scalar(U8), U16: scalar(U16), U32: scalar(U32), U64: scalar(U64), Usize: scalar(Usize),
		F32: scalar(F32), F64: scalar(F64),
		Str:  c.intern(&StrTy{}),
		Unit: c.intern(&TupleTy{}),
		Err:  c.intern(&ErrorTy{}),
	}
	return c
}

// intern returns the canonical term structurally equal to t
func (c *Ctxt) intern(t Ty) Ty {
	hash := t.structuralHash()
	for _, existing := range c.interner[hash] {
		if existing.sameAs(t) {
			return existing
		}
	}
	base := t.base()
	base.hash = hash
	base.flags = t.structuralFlags()
	c.interner[hash] = append(c.interner[hash], t)
	return t
}

func orEmpty(s *Substs) *Substs {
	if s == nil {
		return EmptySubsts()
	}
	return s
}

func (c *Ctxt) MkScalar(k ScalarKind) Ty { return c.intern(&ScalarTy{Kind: k}) }

func (c *Ctxt) MkAdt(kind AdtKind, def DefID, name string, substs *Substs) Ty {
	return c.intern(&AdtTy{Kind: kind, Def: def, Name: name, Substs: orEmpty(substs)})
}

func (c *Ctxt) MkStruct(def DefID, substs *Substs) Ty {
	adt := c.AdtDef(def)
	return c.MkAdt(adt.Kind, def, adt.Name, substs)
}

func (c *Ctxt) MkBox(inner Ty) Ty { return c.intern(&BoxTy{Inner: inner}) }

// MkTrait interns a trait object type, putting its projection bounds in
// canonical order and dropping duplicates
func (c *Ctxt) MkTrait(principal PolyTraitRef, bounds ExistentialBounds) Ty {
	principal.Value.Substs = orEmpty(principal.Value.Substs)
	if len(bounds.Projections) > 1 {
		projections := projectionBounds(append([]PolyProjectionPredicate(nil), bounds.Projections...))
		sort.Sort(projections)
		bounds.Projections = projections[:xset.Uniq(projections)]
	}
	return c.intern(&TraitObjectTy{Principal: principal, Bounds: bounds})
}

func (c *Ctxt) MkRef(r Region, mt TypeAndMut) Ty { return c.intern(&RefTy{Region: r, Mt: mt}) }

func (c *Ctxt) MkImmRef(r Region, t Ty) Ty { return c.MkRef(r, TypeAndMut{Ty: t, Mutbl: Immutable}) }

func (c *Ctxt) MkMutRef(r Region, t Ty) Ty { return c.MkRef(r, TypeAndMut{Ty: t, Mutbl: Mutable}) }

func (c *Ctxt) MkPtr(mt TypeAndMut) Ty { return c.intern(&RawPtrTy{Mt: mt}) }

func (c *Ctxt) MkArray(elem Ty, n uint64) Ty { return c.intern(&ArrayTy{Elem: elem, Len: n}) }

func (c *Ctxt) MkSlice(elem Ty) Ty { return c.intern(&SliceTy{Elem: elem}) }

func (c *Ctxt) MkTup(elems ...Ty) Ty {
	if len(elems) == 0 {
		return c.Types.Unit
	}
	return c.intern(&TupleTy{Elems: elems})
}

func (c *Ctxt) MkFn(def DefID, fn BareFnTy) Ty { return c.intern(&FnTy{Def: def, Fn: fn}) }

// MkFnPtr is the type of a safe Rust-ABI function pointer with no late-bound regions
func (c *Ctxt) MkFnPtr(inputs []Ty, output Ty) Ty {
	return c.MkFn(NoDef, BareFnTy{Sig: Bind(FnSig{Inputs: inputs, Output: Converging(output)})})
}

func (c *Ctxt) MkClosure(def DefID, substs *Substs) Ty {
	return c.intern(&ClosureTy{Def: def, Substs: orEmpty(substs)})
}

func (c *Ctxt) MkProjection(p Projection) Ty {
	p.TraitRef.Substs = orEmpty(p.TraitRef.Substs)
	return c.intern(&ProjectionTy{Data: p})
}

func (c *Ctxt) MkParam(space ParamSpace, index uint32, name string) Ty {
	return c.intern(&ParamTy{Space: space, Idx: index, Name: name})
}

// MkSelfParam is the implicit Self parameter of a trait
func (c *Ctxt) MkSelfParam() Ty { return c.MkParam(SelfSpace, 0, "Self") }

func (c *Ctxt) MkInfer(kind InferKind, vid uint32) Ty {
	return c.intern(&InferTy{Kind: kind, Vid: vid})
}

func (c *Ctxt) MkTyVar(vid uint32) Ty { return c.MkInfer(TyVar, vid) }

// PrincipalWithSelfTy re-expresses the principal trait reference of an
// object with self as its implementing type
func (c *Ctxt) PrincipalWithSelfTy(obj *TraitObjectTy, self Ty) PolyTraitRef {
	principal := obj.Principal.Value
	return Bind(TraitRef{Def: principal.Def, Name: principal.Name, Substs: principal.Substs.WithSelfTy(self)})
}

// NewDefID allocates a fresh item id
func (c *Ctxt) NewDefID() DefID {
	c.lastDef++
	return c.lastDef
}

func (c *Ctxt) AddTrait(t *TraitDef) { c.Traits[t.Def] = t }

func (c *Ctxt) AddAdt(a *AdtDef) { c.Adts[a.Def] = a }

func (c *Ctxt) AddImpl(i *ImplDef) {
	c.Impls[i.Def] = i
	if i.TraitRef != nil {
		c.TraitImpls[i.TraitRef.Def] = append(c.TraitImpls[i.TraitRef.Def], i.Def)
	}
}

// AddMethod registers m and, when m implements the Drop lang item, records it
// as a destructor
func (c *Ctxt) AddMethod(m *Method) {
	c.Methods[m.Def] = m
	if m.Container.Kind != ImplContainer || c.Lang.Drop == NoDef {
		return
	}
	if impl, ok := c.Impls[m.Container.Def]; ok && impl.TraitRef != nil && impl.TraitRef.Def == c.Lang.Drop {
		c.Destructors.Insert(m.Def)
	}
}

func (c *Ctxt) SetVariances(def DefID, v *ItemVariances) { c.variances[def] = v }

// ItemVariances returns the declared variances of def, or false while
// variances are not computed
func (c *Ctxt) ItemVariances(def DefID) (*ItemVariances, bool) {
	if !c.VariancesComputed {
		return nil, false
	}
	v, ok := c.variances[def]
	return v, ok
}

func (c *Ctxt) TraitDef(def DefID) *TraitDef {
	t, ok := c.Traits[def]
	if !ok {
		ilerr.Bug(nil, "no trait with id %d", def)
	}
	return t
}

func (c *Ctxt) ImplDef(def DefID) *ImplDef {
	i, ok := c.Impls[def]
	if !ok {
		ilerr.Bug(nil, "no impl with id %d", def)
	}
	return i
}

func (c *Ctxt) Method(def DefID) *Method {
	m, ok := c.Methods[def]
	if !ok {
		ilerr.Bug(nil, "no method with id %d", def)
	}
	return m
}

func (c *Ctxt) AdtDef(def DefID) *AdtDef {
	a, ok := c.Adts[def]
	if !ok {
		ilerr.Bug(nil, "no struct or enum with id %d", def)
	}
	return a
}

// ImplTraitRef returns the trait reference template of impl, or nil for an inherent impl
func (c *Ctxt) ImplTraitRef(impl DefID) *TraitRef { return c.ImplDef(impl).TraitRef }

// TraitMethodByName finds the method called name declared by trait
func (c *Ctxt) TraitMethodByName(trait DefID, name string) (*Method, bool) {
	for _, m := range c.TraitDef(trait).Methods {
		if method := c.Method(m); method.Name == name {
			return method, true
		}
	}
	return nil, false
}

// projectionBounds sorts by trait, then item name, then trait arguments,
// then bound type
type projectionBounds []PolyProjectionPredicate

func (p projectionBounds) Len() int      { return len(p) }
func (p projectionBounds) Swap(i, j int) { p[i], p[j] = p[j], p[i] }
func (p projectionBounds) Less(i, j int) bool {
	a, b := p[i].Value, p[j].Value
	if c := cmp.Compare(a.Projection.TraitRef.Def, b.Projection.TraitRef.Def); c != 0 {
		return c < 0
	}
	if c := cmp.Compare(a.Projection.Item, b.Projection.Item); c != 0 {
		return c < 0
	}
	sa := newHasher("substs").substs(a.Projection.TraitRef.Substs).sum()
	sb := newHasher("substs").substs(b.Projection.TraitRef.Substs).sum()
	if sa != sb {
		return sa < sb
	}
	return a.Ty.Hash() < b.Ty.Hash()
}
