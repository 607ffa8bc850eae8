// Package fixture builds small item universes and function bodies by hand
// and checks them end to end: it stands in for the parser, name resolution
// and method probing that would normally come before confirmation and
// writeback.
package fixture

import (
	"github.com/cottand/tyck/internal/log"
	"github.com/cottand/tyck/types"
)

var logger = log.DefaultLogger.With("section", "fixture")

// Universe is the item universe every scenario is checked against
type Universe struct {
	C *types.Ctxt
	// Named are the types a written path type resolves to
	Named map[string]types.Ty

	Widget, Cell, Grid, Handle types.Ty
	// DrawableObject is `dyn Drawable + 'static`
	DrawableObject types.Ty

	NamedTrait, Drawable types.DefID

	WidgetImpl, CellImpl, HandleImpl types.DefID
	WidgetNamed, CellDrop            types.DefID
}

// NewUniverse declares the lang traits and the items the scenarios use:
//
//	struct Widget { count: i32 }
//	impl Widget { fn get(&self) -> i32; fn convert<T>(&self, t: T) -> T }
//	trait Named { fn name(&self) -> &str }
//	trait Drawable: Named { fn draw(&self) }
//	impl Named for Widget
//	struct Cell { value: i32 }
//	impl Cell { fn set(&mut self, v: i32) }
//	impl Drop for Cell
//	struct Grid;   impl Index<usize> + IndexMut<usize> for Grid { type Output = Cell }
//	struct Handle; impl Deref + DerefMut for Handle { type Target = Cell }
//	impl Handle { fn poke(&mut self) }
//	impl Add<i32> for i32, impl PartialEq<i32> for i32, impl PartialEq<Widget> for Widget
func NewUniverse() *Universe {
	c := types.NewCtxt()
	u := &Universe{C: c, Named: map[string]types.Ty{}}
	for name, t := range map[string]types.Ty{
		"bool": c.Types.Bool, "char": c.Types.Char, "str": c.Types.Str,
		"i8": c.Types.I8, "i16": c.Types.I16, "i32": c.Types.I32, "i64": c.Types.I64, "isize": c.Types.Isize,
		"u8": c.Types.U8, "u16": c.Types.U16, "u32": c.Types.U32, "u64": c.Types.U64, "usize": c.Types.Usize,
		"f32": c.Types.F32, "f64": c.Types.F64,
	} {
		u.Named[name] = t
	}

	u.declareLangItems()

	u.Widget = u.declareStruct("Widget", types.FieldDef{Name: "count", Ty: c.Types.I32})
	u.Cell = u.declareStruct("Cell", types.FieldDef{Name: "value", Ty: c.Types.I32})
	u.Grid = u.declareStruct("Grid")
	u.Handle = u.declareStruct("Handle")

	u.WidgetImpl = u.inherentImpl(u.Widget)
	u.implMethod(u.WidgetImpl, "get", types.Immutable, nil, c.Types.I32)
	tParam := c.MkParam(types.FnSpace, 0, "T")
	convert := u.implMethod(u.WidgetImpl, "convert", types.Immutable, []types.Ty{tParam}, tParam)
	convert.Generics.Types = convert.Generics.Types.With(types.FnSpace, []types.TypeParamDef{
		{Name: "T", Def: c.NewDefID(), Space: types.FnSpace, Index: 0},
	})

	u.CellImpl = u.inherentImpl(u.Cell)
	u.implMethod(u.CellImpl, "set", types.Mutable, []types.Ty{c.Types.I32}, c.Types.Unit)

	u.HandleImpl = u.inherentImpl(u.Handle)
	u.implMethod(u.HandleImpl, "poke", types.Mutable, nil, c.Types.Unit)

	self := c.MkSelfParam()
	named := u.declareTrait("Named", nil)
	u.NamedTrait = named.Def
	u.traitMethod(named, "name", types.Immutable, nil, c.MkImmRef(lateBound(0, "'a"), c.Types.Str))
	drawable := u.declareTrait("Drawable", nil, traitRef(named, self))
	u.Drawable = drawable.Def
	u.traitMethod(drawable, "draw", types.Immutable, nil, c.Types.Unit)

	u.WidgetNamed = u.traitImpl(traitRef(named, u.Widget), nil)
	u.implMethod(u.WidgetNamed, "name", types.Immutable, nil, c.MkImmRef(lateBound(0, "'a"), c.Types.Str))

	lang := c.Lang
	u.CellDrop = u.traitImpl(traitRef(c.TraitDef(lang.Drop), u.Cell), nil)
	u.implMethod(u.CellDrop, "drop", types.Mutable, nil, c.Types.Unit)

	u.traitImpl(traitRef(c.TraitDef(lang.Index), u.Grid, c.Types.Usize), map[string]types.Ty{"Output": u.Cell})
	u.traitImpl(traitRef(c.TraitDef(lang.IndexMut), u.Grid, c.Types.Usize), nil)
	u.traitImpl(traitRef(c.TraitDef(lang.Deref), u.Handle), map[string]types.Ty{"Target": u.Cell})
	u.traitImpl(traitRef(c.TraitDef(lang.DerefMut), u.Handle), nil)
	u.traitImpl(traitRef(c.TraitDef(lang.Add), c.Types.I32, c.Types.I32), map[string]types.Ty{"Output": c.Types.I32})
	u.traitImpl(traitRef(c.TraitDef(lang.PartialEq), c.Types.I32, c.Types.I32), nil)
	u.traitImpl(traitRef(c.TraitDef(lang.PartialEq), u.Widget, u.Widget), nil)

	u.DrawableObject = c.MkTrait(
		types.Bind(types.TraitRef{Def: drawable.Def, Name: drawable.Name, Substs: types.EmptySubsts()}),
		types.ExistentialBounds{RegionBound: types.Static()},
	)
	u.Named["Box<Drawable>"] = c.MkBox(u.DrawableObject)
	return u
}

func lateBound(index uint32, name string) types.Region {
	return types.LateBound(1, types.BoundRegion{Index: index, Name: name})
}

func traitRef(t *types.TraitDef, self types.Ty, params ...types.Ty) types.TraitRef {
	return types.TraitRef{Def: t.Def, Name: t.Name, Substs: types.NewTraitSubsts(self, params, nil)}
}

func (u *Universe) declareStruct(name string, fields ...types.FieldDef) types.Ty {
	c := u.C
	def := &types.AdtDef{Def: c.NewDefID(), Name: name, Kind: types.StructKind, Fields: fields}
	c.AddAdt(def)
	t := c.MkStruct(def.Def, nil)
	u.Named[name] = t
	return t
}

// declareTrait declares a trait with the given TypeSpace parameters and
// supertraits, the latter in terms of Self
func (u *Universe) declareTrait(name string, params []string, supers ...types.TraitRef) *types.TraitDef {
	c := u.C
	typeParams := make([]types.TypeParamDef, len(params))
	for i, p := range params {
		typeParams[i] = types.TypeParamDef{Name: p, Def: c.NewDefID(), Space: types.TypeSpace, Index: uint32(i)}
	}
	self := types.TypeParamDef{Name: "Self", Def: c.NewDefID(), Space: types.SelfSpace}
	t := &types.TraitDef{
		Def:         c.NewDefID(),
		Name:        name,
		Generics:    types.Generics{Types: types.NewPerSpace(typeParams, []types.TypeParamDef{self}, nil)},
		Supertraits: supers,
	}
	c.AddTrait(t)
	return t
}

// declareLangItems declares Drop, Deref, DerefMut, Index, IndexMut, Add and PartialEq
func (u *Universe) declareLangItems() {
	c := u.C
	self := c.MkSelfParam()
	a := lateBound(0, "'a")

	drop := u.declareTrait("Drop", nil)
	c.Lang.Drop = drop.Def
	u.traitMethod(drop, "drop", types.Mutable, nil, c.Types.Unit)

	deref := u.declareTrait("Deref", nil)
	deref.AssocTypes = []string{"Target"}
	c.Lang.Deref = deref.Def
	target := c.MkProjection(types.Projection{TraitRef: traitRef(deref, self), Item: "Target"})
	u.traitMethod(deref, "deref", types.Immutable, nil, c.MkImmRef(a, target))

	derefMut := u.declareTrait("DerefMut", nil, traitRef(deref, self))
	c.Lang.DerefMut = derefMut.Def
	u.traitMethod(derefMut, "deref_mut", types.Mutable, nil, c.MkMutRef(a, target))

	idx := c.MkParam(types.TypeSpace, 0, "Idx")
	index := u.declareTrait("Index", []string{"Idx"})
	index.AssocTypes = []string{"Output"}
	c.Lang.Index = index.Def
	output := c.MkProjection(types.Projection{TraitRef: traitRef(index, self, idx), Item: "Output"})
	u.traitMethod(index, "index", types.Immutable, []types.Ty{idx}, c.MkImmRef(a, output))

	indexMut := u.declareTrait("IndexMut", []string{"Idx"}, traitRef(index, self, idx))
	c.Lang.IndexMut = indexMut.Def
	u.traitMethod(indexMut, "index_mut", types.Mutable, []types.Ty{idx}, c.MkMutRef(a, output))

	rhs := c.MkParam(types.TypeSpace, 0, "Rhs")
	add := u.declareTrait("Add", []string{"Rhs"})
	add.AssocTypes = []string{"Output"}
	c.Lang.Add = add.Def
	sum := c.MkProjection(types.Projection{TraitRef: traitRef(add, self, rhs), Item: "Output"})
	u.addMethod(add.Generics, types.ItemContainer{Kind: types.TraitContainer, Def: add.Def}, &types.Method{
		Name:         "add",
		ExplicitSelf: types.ExplicitSelf{Kind: types.ByValueSelf},
		Fty:          fnTy([]types.Ty{self, rhs}, sum),
	})

	eq := u.declareTrait("PartialEq", []string{"Rhs"})
	c.Lang.PartialEq = eq.Def
	u.addMethod(eq.Generics, types.ItemContainer{Kind: types.TraitContainer, Def: eq.Def}, &types.Method{
		Name:         "eq",
		ExplicitSelf: types.ExplicitSelf{Kind: types.ByReferenceSelf},
		Fty:          fnTy([]types.Ty{c.MkImmRef(a, self), c.MkImmRef(lateBound(1, "'b"), rhs)}, c.Types.Bool),
	})
}

func (u *Universe) inherentImpl(self types.Ty) types.DefID {
	impl := &types.ImplDef{Def: u.C.NewDefID(), SelfTy: self}
	u.C.AddImpl(impl)
	return impl.Def
}

func (u *Universe) traitImpl(trait types.TraitRef, assoc map[string]types.Ty) types.DefID {
	impl := &types.ImplDef{Def: u.C.NewDefID(), SelfTy: trait.SelfTy(), TraitRef: &trait, AssocTypes: assoc}
	u.C.AddImpl(impl)
	return impl.Def
}

func fnTy(inputs []types.Ty, output types.Ty) types.BareFnTy {
	return types.BareFnTy{Sig: types.Bind(types.FnSig{Inputs: inputs, Output: types.Converging(output)})}
}

// refMethod is a method taking self by a reference of mutability mutbl,
// bound late as 'a
func refMethod(c *types.Ctxt, name string, self types.Ty, mutbl types.Mutability, inputs []types.Ty, output types.Ty) *types.Method {
	receiver := c.MkRef(lateBound(0, "'a"), types.TypeAndMut{Ty: self, Mutbl: mutbl})
	return &types.Method{
		Name:         name,
		ExplicitSelf: types.ExplicitSelf{Kind: types.ByReferenceSelf, Mutbl: mutbl},
		Fty:          fnTy(append([]types.Ty{receiver}, inputs...), output),
	}
}

func (u *Universe) implMethod(impl types.DefID, name string, mutbl types.Mutability, inputs []types.Ty, output types.Ty) *types.Method {
	def := u.C.ImplDef(impl)
	m := refMethod(u.C, name, def.SelfTy, mutbl, inputs, output)
	return u.addMethod(def.Generics, types.ItemContainer{Kind: types.ImplContainer, Def: impl}, m)
}

func (u *Universe) traitMethod(t *types.TraitDef, name string, mutbl types.Mutability, inputs []types.Ty, output types.Ty) *types.Method {
	m := refMethod(u.C, name, u.C.MkSelfParam(), mutbl, inputs, output)
	return u.addMethod(t.Generics, types.ItemContainer{Kind: types.TraitContainer, Def: t.Def}, m)
}

// addMethod completes m as a member of container, whose generics m inherits
func (u *Universe) addMethod(container types.Generics, at types.ItemContainer, m *types.Method) *types.Method {
	c := u.C
	m.Def = c.NewDefID()
	m.Generics = container
	m.Container = at
	switch at.Kind {
	case types.TraitContainer:
		t := c.TraitDef(at.Def)
		t.Methods = append(t.Methods, m.Def)
	case types.ImplContainer:
		impl := c.ImplDef(at.Def)
		impl.Methods = append(impl.Methods, m.Def)
	}
	c.AddMethod(m)
	logger.Debug("declared method", "name", m.Name, "def", m.Def, "container", at.Def)
	return m
}

// Method finds the method called name of the impl or trait container
func (u *Universe) Method(container types.DefID, name string) *types.Method {
	var methods []types.DefID
	if impl, ok := u.C.Impls[container]; ok {
		methods = impl.Methods
	} else {
		methods = u.C.TraitDef(container).Methods
	}
	for _, def := range methods {
		if m := u.C.Method(def); m.Name == name {
			return m
		}
	}
	panic("fixture: no method " + name)
}
