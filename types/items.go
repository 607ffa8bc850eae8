package types

type TypeParamDef struct {
	Name  string
	Def   DefID
	Space ParamSpace
	Index uint32
}

type RegionParamDef struct {
	Name  string
	Def   DefID
	Space ParamSpace
	Index uint32
}

func (d RegionParamDef) ToEarlyBound() Region { return EarlyBound(d.Space, d.Index, d.Name) }

// Generics are the declared parameters of an item. Method generics include
// the parameters of their container in TypeSpace and SelfSpace.
type Generics struct {
	Types   PerSpace[TypeParamDef]
	Regions PerSpace[RegionParamDef]
}

func (g Generics) HasTypeParams(space ParamSpace) bool { return g.Types.Len(space) > 0 }

// IdentitySubsts maps every parameter of g to itself
func (g Generics) IdentitySubsts(c *Ctxt) *Substs {
	types := MapPerSpace(g.Types, func(d TypeParamDef) Ty { return c.MkParam(d.Space, d.Index, d.Name) })
	regions := MapPerSpace(g.Regions, RegionParamDef.ToEarlyBound)
	return NewSubsts(types, regions)
}

type ExplicitSelfKind uint8

const (
	// StaticSelf is a method with no receiver, callable only by path
	StaticSelf ExplicitSelfKind = iota
	ByValueSelf
	ByReferenceSelf
	ByBoxSelf
)

type ExplicitSelf struct {
	Kind  ExplicitSelfKind
	Mutbl Mutability
}

type ContainerKind uint8

const (
	ImplContainer ContainerKind = iota
	TraitContainer
)

// ItemContainer is the impl or trait a method is declared in
type ItemContainer struct {
	Kind ContainerKind
	Def  DefID
}

type Method struct {
	Def          DefID
	Name         string
	Generics     Generics
	Predicates   GenericPredicates
	Fty          BareFnTy
	ExplicitSelf ExplicitSelf
	Container    ItemContainer
}

// TakesMutSelf reports whether the first input of m is `&mut Self`-like
func (m *Method) TakesMutSelf() bool {
	inputs := m.Fty.Sig.Value.Inputs
	if len(inputs) == 0 {
		return false
	}
	ref, ok := inputs[0].(*RefTy)
	return ok && ref.Mt.Mutbl == Mutable
}

type TraitDef struct {
	Def      DefID
	Name     string
	Generics Generics
	// Supertraits are trait references with Self as SelfSpace parameter
	Supertraits []TraitRef
	Methods     []DefID
	AssocTypes  []string
}

// MethodIndex is the position of method amongst the methods of t, or -1
func (t *TraitDef) MethodIndex(method DefID) int {
	for i, m := range t.Methods {
		if m == method {
			return i
		}
	}
	return -1
}

type ImplDef struct {
	Def      DefID
	Generics Generics
	SelfTy   Ty
	// TraitRef is nil for inherent impls
	TraitRef   *TraitRef
	AssocTypes map[string]Ty
	Methods    []DefID
}

type FieldDef struct {
	Name string
	Ty   Ty
}

type AdtDef struct {
	Def      DefID
	Name     string
	Kind     AdtKind
	Generics Generics
	Fields   []FieldDef
}

// Field returns the declared type of the named field, in terms of the
// parameters of d
func (d *AdtDef) Field(name string) (Ty, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f.Ty, true
		}
	}
	return nil, false
}

// LangItems are the traits the checker itself knows about. An unset item is NoDef.
type LangItems struct {
	Drop     DefID
	Deref    DefID
	DerefMut DefID
	Index    DefID
	IndexMut DefID
	Add      DefID
	// PartialEq is the comparison operator trait, which takes its operands by reference
	PartialEq DefID
}
