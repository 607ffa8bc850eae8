package types

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Ty is an interned type term. Terms are only ever built through the Mk*
// methods of Ctxt, so two terms are structurally equal if and only if they
// are the same pointer and == can be used to compare them.
type Ty interface {
	fmt.Stringer
	Hash() uint64
	Flags() TypeFlags

	structuralHash() uint64
	structuralFlags() TypeFlags
	sameAs(other Ty) bool
	base() *tyBase
}

type TypeFlags uint16

const (
	HasParams TypeFlags = 1 << iota
	HasSelf
	HasTyInfer
	HasRegionInfer
	HasLateBound
	HasTyErr
	HasProjection
)

func (f TypeFlags) Has(flags TypeFlags) bool { return f&flags != 0 }

// NeedsInfer reports whether a term mentions a type or region placeholder
func (f TypeFlags) NeedsInfer() bool { return f.Has(HasTyInfer | HasRegionInfer) }

type tyBase struct {
	hash  uint64
	flags TypeFlags
}

func (b *tyBase) Hash() uint64     { return b.hash }
func (b *tyBase) Flags() TypeFlags { return b.flags }
func (b *tyBase) base() *tyBase    { return b }

var (
	_ Ty = (*ScalarTy)(nil)
	_ Ty = (*StrTy)(nil)
	_ Ty = (*AdtTy)(nil)
	_ Ty = (*BoxTy)(nil)
	_ Ty = (*TraitObjectTy)(nil)
	_ Ty = (*RefTy)(nil)
	_ Ty = (*RawPtrTy)(nil)
	_ Ty = (*ArrayTy)(nil)
	_ Ty = (*SliceTy)(nil)
	_ Ty = (*TupleTy)(nil)
	_ Ty = (*FnTy)(nil)
	_ Ty = (*ClosureTy)(nil)
	_ Ty = (*ProjectionTy)(nil)
	_ Ty = (*ParamTy)(nil)
	_ Ty = (*InferTy)(nil)
	_ Ty = (*ErrorTy)(nil)
)

type ScalarKind uint8

const (
	Bool ScalarKind = iota
	Char
	I8
	I16
	I32
	I64
	Isize
	U8
	U16
	U32
	U64
	Usize
	F32
	F64
)

var scalarNames = [...]string{"bool", "char", "i8", "i16", "i32", "i64", "isize", "u8", "u16", "u32", "u64", "usize", "f32", "f64"}

func (k ScalarKind) String() string { return scalarNames[k] }
func (k ScalarKind) IsInt() bool    { return k >= I8 && k <= Usize }
func (k ScalarKind) IsFloat() bool  { return k == F32 || k == F64 }

type ScalarTy struct {
	tyBase
	Kind ScalarKind
}

func (t *ScalarTy) String() string             { return t.Kind.String() }
func (t *ScalarTy) structuralHash() uint64     { return newHasher("scalar").u32(uint32(t.Kind)).sum() }
func (t *ScalarTy) structuralFlags() TypeFlags { return 0 }
func (t *ScalarTy) sameAs(other Ty) bool {
	o, ok := other.(*ScalarTy)
	return ok && o.Kind == t.Kind
}

type StrTy struct{ tyBase }

func (t *StrTy) String() string             { return "str" }
func (t *StrTy) structuralHash() uint64     { return newHasher("str").sum() }
func (t *StrTy) structuralFlags() TypeFlags { return 0 }
func (t *StrTy) sameAs(other Ty) bool {
	_, ok := other.(*StrTy)
	return ok
}

type AdtKind uint8

const (
	StructKind AdtKind = iota
	EnumKind
)

// AdtTy is a nominal struct or enum type applied to its substitutions
type AdtTy struct {
	tyBase
	Kind   AdtKind
	Def    DefID
	Name   string
	Substs *Substs
}

func (t *AdtTy) String() string { return t.Name + t.Substs.typesString(TypeSpace) }
func (t *AdtTy) structuralHash() uint64 {
	return newHasher("adt").u32(uint32(t.Kind)).u32(uint32(t.Def)).substs(t.Substs).sum()
}
func (t *AdtTy) structuralFlags() TypeFlags { return t.Substs.flags() }
func (t *AdtTy) sameAs(other Ty) bool {
	o, ok := other.(*AdtTy)
	return ok && o.Kind == t.Kind && o.Def == t.Def && o.Substs.Equal(t.Substs)
}

// BoxTy is the owning pointer, dereferenceable by the builtin autoderef
type BoxTy struct {
	tyBase
	Inner Ty
}

func (t *BoxTy) String() string             { return "Box<" + t.Inner.String() + ">" }
func (t *BoxTy) structuralHash() uint64     { return newHasher("box").ty(t.Inner).sum() }
func (t *BoxTy) structuralFlags() TypeFlags { return t.Inner.Flags() }
func (t *BoxTy) sameAs(other Ty) bool {
	o, ok := other.(*BoxTy)
	return ok && o.Inner == t.Inner
}

// TraitObjectTy is a dynamically dispatched value of some type implementing Principal.
// The substitutions of Principal have no self slot: see PrincipalWithSelfTy.
type TraitObjectTy struct {
	tyBase
	Principal PolyTraitRef
	Bounds    ExistentialBounds
}

func (t *TraitObjectTy) String() string {
	sb := &strings.Builder{}
	sb.WriteString("dyn ")
	sb.WriteString(t.Principal.Value.Name)
	sb.WriteString(t.Principal.Value.Substs.typesString(TypeSpace))
	sb.WriteString(t.Bounds.String())
	return sb.String()
}
func (t *TraitObjectTy) structuralHash() uint64 {
	h := newHasher("trait").traitRef(t.Principal.Value)
	h.region(t.Bounds.RegionBound).u32(uint32(t.Bounds.Builtin))
	h.u64(uint64(len(t.Bounds.Projections)))
	for _, p := range t.Bounds.Projections {
		h.traitRef(p.Value.Projection.TraitRef).str(p.Value.Projection.Item).ty(p.Value.Ty)
	}
	return h.sum()
}
func (t *TraitObjectTy) structuralFlags() TypeFlags {
	flags := t.Principal.Value.Substs.flags() | t.Bounds.RegionBound.flags()
	for _, p := range t.Bounds.Projections {
		flags |= p.Value.Projection.TraitRef.Substs.flags() | p.Value.Ty.Flags()
	}
	return flags
}
func (t *TraitObjectTy) sameAs(other Ty) bool {
	o, ok := other.(*TraitObjectTy)
	return ok && o.Principal.Value.Equal(t.Principal.Value) && o.Bounds.Equal(t.Bounds)
}

type RefTy struct {
	tyBase
	Region Region
	Mt     TypeAndMut
}

func (t *RefTy) String() string { return "&" + t.Region.prefixString() + t.Mt.String() }
func (t *RefTy) structuralHash() uint64 {
	return newHasher("ref").region(t.Region).u32(uint32(t.Mt.Mutbl)).ty(t.Mt.Ty).sum()
}
func (t *RefTy) structuralFlags() TypeFlags { return t.Region.flags() | t.Mt.Ty.Flags() }
func (t *RefTy) sameAs(other Ty) bool {
	o, ok := other.(*RefTy)
	return ok && o.Region == t.Region && o.Mt == t.Mt
}

type RawPtrTy struct {
	tyBase
	Mt TypeAndMut
}

func (t *RawPtrTy) String() string {
	if t.Mt.Mutbl == Mutable {
		return "*mut " + t.Mt.Ty.String()
	}
	return "*const " + t.Mt.Ty.String()
}
func (t *RawPtrTy) structuralHash() uint64 {
	return newHasher("ptr").u32(uint32(t.Mt.Mutbl)).ty(t.Mt.Ty).sum()
}
func (t *RawPtrTy) structuralFlags() TypeFlags { return t.Mt.Ty.Flags() }
func (t *RawPtrTy) sameAs(other Ty) bool {
	o, ok := other.(*RawPtrTy)
	return ok && o.Mt == t.Mt
}

// ArrayTy is a fixed length array `[Elem; Len]`
type ArrayTy struct {
	tyBase
	Elem Ty
	Len  uint64
}

func (t *ArrayTy) String() string {
	return "[" + t.Elem.String() + "; " + strconv.FormatUint(t.Len, 10) + "]"
}
func (t *ArrayTy) structuralHash() uint64     { return newHasher("array").ty(t.Elem).u64(t.Len).sum() }
func (t *ArrayTy) structuralFlags() TypeFlags { return t.Elem.Flags() }
func (t *ArrayTy) sameAs(other Ty) bool {
	o, ok := other.(*ArrayTy)
	return ok && o.Elem == t.Elem && o.Len == t.Len
}

type SliceTy struct {
	tyBase
	Elem Ty
}

func (t *SliceTy) String() string             { return "[" + t.Elem.String() + "]" }
func (t *SliceTy) structuralHash() uint64     { return newHasher("slice").ty(t.Elem).sum() }
func (t *SliceTy) structuralFlags() TypeFlags { return t.Elem.Flags() }
func (t *SliceTy) sameAs(other Ty) bool {
	o, ok := other.(*SliceTy)
	return ok && o.Elem == t.Elem
}

type TupleTy struct {
	tyBase
	Elems []Ty
}

func (t *TupleTy) String() string {
	if len(t.Elems) == 1 {
		return "(" + t.Elems[0].String() + ",)"
	}
	return "(" + joinTys(t.Elems) + ")"
}
func (t *TupleTy) structuralHash() uint64 { return newHasher("tuple").tys(t.Elems).sum() }
func (t *TupleTy) structuralFlags() TypeFlags {
	var flags TypeFlags
	for _, elem := range t.Elems {
		flags |= elem.Flags()
	}
	return flags
}
func (t *TupleTy) sameAs(other Ty) bool {
	o, ok := other.(*TupleTy)
	return ok && slices.Equal(o.Elems, t.Elems)
}

// FnTy is a function pointer (Def == NoDef) or the zero-sized type of a function item
type FnTy struct {
	tyBase
	Def DefID
	Fn  BareFnTy
}

func (t *FnTy) String() string { return t.Fn.String() }
func (t *FnTy) structuralHash() uint64 {
	h := newHasher("fn").u32(uint32(t.Def)).u32(uint32(t.Fn.Unsafety)).u32(uint32(t.Fn.Abi))
	return h.fnSig(t.Fn.Sig.Value).sum()
}
func (t *FnTy) structuralFlags() TypeFlags { return t.Fn.Sig.Value.flags() }
func (t *FnTy) sameAs(other Ty) bool {
	o, ok := other.(*FnTy)
	return ok && o.Def == t.Def && o.Fn.Equal(t.Fn)
}

// ClosureTy is the anonymous type of one closure expression
type ClosureTy struct {
	tyBase
	Def    DefID
	Substs *Substs
}

func (t *ClosureTy) String() string { return "[closure#" + strconv.Itoa(int(t.Def)) + "]" }
func (t *ClosureTy) structuralHash() uint64 {
	return newHasher("closure").u32(uint32(t.Def)).substs(t.Substs).sum()
}
func (t *ClosureTy) structuralFlags() TypeFlags { return t.Substs.flags() }
func (t *ClosureTy) sameAs(other Ty) bool {
	o, ok := other.(*ClosureTy)
	return ok && o.Def == t.Def && o.Substs.Equal(t.Substs)
}

// ProjectionTy is an associated type projection `<T as Trait>::Item`
type ProjectionTy struct {
	tyBase
	Data Projection
}

func (t *ProjectionTy) String() string { return t.Data.String() }
func (t *ProjectionTy) structuralHash() uint64 {
	return newHasher("projection").traitRef(t.Data.TraitRef).str(t.Data.Item).sum()
}
func (t *ProjectionTy) structuralFlags() TypeFlags {
	return t.Data.TraitRef.Substs.flags() | HasProjection
}
func (t *ProjectionTy) sameAs(other Ty) bool {
	o, ok := other.(*ProjectionTy)
	return ok && o.Data.Item == t.Data.Item && o.Data.TraitRef.Equal(t.Data.TraitRef)
}

// ParamTy names a declared generic parameter slot
type ParamTy struct {
	tyBase
	Space ParamSpace
	Idx   uint32
	Name  string
}

func (t *ParamTy) String() string { return t.Name }
func (t *ParamTy) structuralHash() uint64 {
	return newHasher("param").u32(uint32(t.Space)).u32(t.Idx).str(t.Name).sum()
}
func (t *ParamTy) structuralFlags() TypeFlags {
	if t.Space == SelfSpace {
		return HasParams | HasSelf
	}
	return HasParams
}
func (t *ParamTy) sameAs(other Ty) bool {
	o, ok := other.(*ParamTy)
	return ok && o.Space == t.Space && o.Idx == t.Idx && o.Name == t.Name
}

type InferKind uint8

const (
	TyVar InferKind = iota
	IntVar
	FloatVar
)

// InferTy is an inference placeholder minted by the oracle
type InferTy struct {
	tyBase
	Kind InferKind
	Vid  uint32
}

func (t *InferTy) String() string {
	suffix := [...]string{"t", "i", "f"}[t.Kind]
	return "_#" + strconv.Itoa(int(t.Vid)) + suffix
}
func (t *InferTy) structuralHash() uint64 {
	return newHasher("infer").u32(uint32(t.Kind)).u32(t.Vid).sum()
}
func (t *InferTy) structuralFlags() TypeFlags { return HasTyInfer }
func (t *InferTy) sameAs(other Ty) bool {
	o, ok := other.(*InferTy)
	return ok && o.Kind == t.Kind && o.Vid == t.Vid
}

// ErrorTy is the error sentinel. It relates to everything so that one
// reported error does not cascade.
type ErrorTy struct{ tyBase }

func (t *ErrorTy) String() string             { return "[type error]" }
func (t *ErrorTy) structuralHash() uint64     { return newHasher("error").sum() }
func (t *ErrorTy) structuralFlags() TypeFlags { return HasTyErr }
func (t *ErrorTy) sameAs(other Ty) bool {
	_, ok := other.(*ErrorTy)
	return ok
}

func joinTys(ts []Ty) string {
	strs := make([]string, len(ts))
	for i, t := range ts {
		strs[i] = t.String()
	}
	return strings.Join(strs, ", ")
}

// IsScalar reports whether operators on t are builtin rather than overloaded
func IsScalar(t Ty) bool {
	switch t := t.(type) {
	case *ScalarTy, *RawPtrTy, *FnTy:
		return true
	case *InferTy:
		return t.Kind == IntVar || t.Kind == FloatVar
	default:
		return false
	}
}

func IsTyVar(t Ty) bool {
	infer, ok := t.(*InferTy)
	return ok && infer.Kind == TyVar
}

func IsError(t Ty) bool {
	_, ok := t.(*ErrorTy)
	return ok
}

// BuiltinDeref dereferences references and boxes, and raw pointers when explicit is set
func BuiltinDeref(t Ty, explicit bool) (TypeAndMut, bool) {
	switch t := t.(type) {
	case *BoxTy:
		return TypeAndMut{Ty: t.Inner, Mutbl: Immutable}, true
	case *RefTy:
		return t.Mt, true
	case *RawPtrTy:
		if explicit {
			return t.Mt, true
		}
	}
	return TypeAndMut{}, false
}

// BuiltinIndex returns the element type of arrays and slices
func BuiltinIndex(t Ty) (Ty, bool) {
	switch t := t.(type) {
	case *ArrayTy:
		return t.Elem, true
	case *SliceTy:
		return t.Elem, true
	}
	return nil, false
}
