package types

import (
	"slices"
	"strconv"
	"strings"
)

// DefID identifies an item (trait, impl, method, struct, closure) of the universe
type DefID uint32

// NoDef is the DefID of nothing, e.g. of a function pointer type
const NoDef DefID = 0

type Mutability uint8

const (
	Immutable Mutability = iota
	Mutable
)

func (m Mutability) String() string {
	if m == Mutable {
		return "mut"
	}
	return "imm"
}

// TypeAndMut is the target of a reference or raw pointer
type TypeAndMut struct {
	Ty    Ty
	Mutbl Mutability
}

func (m TypeAndMut) String() string {
	if m.Mutbl == Mutable {
		return "mut " + m.Ty.String()
	}
	return m.Ty.String()
}

type Unsafety uint8

const (
	Normal Unsafety = iota
	Unsafe
)

type Abi uint8

const (
	AbiRust Abi = iota
	AbiC
	AbiRustCall
)

func (a Abi) String() string {
	return [...]string{"Rust", "C", "rust-call"}[a]
}

// FnOutput is either a returned type or divergence
type FnOutput struct {
	Diverging bool
	Ty        Ty
}

func Converging(t Ty) FnOutput { return FnOutput{Ty: t} }

var Diverges = FnOutput{Diverging: true}

type FnSig struct {
	Inputs   []Ty
	Output   FnOutput
	Variadic bool
}

func (s FnSig) Equal(other FnSig) bool {
	return s.Variadic == other.Variadic && s.Output == other.Output && slices.Equal(s.Inputs, other.Inputs)
}

func (s FnSig) flags() TypeFlags {
	var flags TypeFlags
	for _, in := range s.Inputs {
		flags |= in.Flags()
	}
	if !s.Output.Diverging {
		flags |= s.Output.Ty.Flags()
	}
	return flags
}

type PolyFnSig = Binder[FnSig]

type BareFnTy struct {
	Unsafety Unsafety
	Abi      Abi
	Sig      PolyFnSig
}

func (f BareFnTy) Equal(other BareFnTy) bool {
	return f.Unsafety == other.Unsafety && f.Abi == other.Abi && f.Sig.Value.Equal(other.Sig.Value)
}

func (f BareFnTy) String() string {
	sb := &strings.Builder{}
	if f.Unsafety == Unsafe {
		sb.WriteString("unsafe ")
	}
	if f.Abi != AbiRust {
		sb.WriteString("extern " + strconv.Quote(f.Abi.String()) + " ")
	}
	sig := f.Sig.Value
	sb.WriteString("fn(")
	sb.WriteString(joinTys(sig.Inputs))
	if sig.Variadic {
		sb.WriteString(", ...")
	}
	sb.WriteString(")")
	switch {
	case sig.Output.Diverging:
		sb.WriteString(" -> !")
	case !isUnit(sig.Output.Ty):
		sb.WriteString(" -> " + sig.Output.Ty.String())
	}
	return sb.String()
}

func isUnit(t Ty) bool {
	tup, ok := t.(*TupleTy)
	return ok && len(tup.Elems) == 0
}

// TraitRef names a trait applied to substitutions; the implementing type is
// Substs.SelfTy()
type TraitRef struct {
	Def    DefID
	Name   string
	Substs *Substs
}

func (t TraitRef) SelfTy() Ty { return t.Substs.SelfTy() }

func (t TraitRef) Equal(other TraitRef) bool {
	return t.Def == other.Def && t.Substs.Equal(other.Substs)
}

func (t TraitRef) String() string {
	self := t.SelfTy()
	if self == nil {
		return t.Name + t.Substs.typesString(TypeSpace)
	}
	return "<" + self.String() + " as " + t.Name + t.Substs.typesString(TypeSpace) + ">"
}

type PolyTraitRef = Binder[TraitRef]

// Projection is `<TraitRef>::Item`
type Projection struct {
	TraitRef TraitRef
	Item     string
}

func (p Projection) String() string { return p.TraitRef.String() + "::" + p.Item }

// ProjectionPredicate asserts that Projection normalizes to Ty
type ProjectionPredicate struct {
	Projection Projection
	Ty         Ty
}

func (p ProjectionPredicate) String() string {
	return p.Projection.String() + " == " + p.Ty.String()
}

type PolyProjectionPredicate = Binder[ProjectionPredicate]

// BuiltinBounds is a set of the compiler-known bounds a trait object can carry
type BuiltinBounds uint8

const (
	BoundSend BuiltinBounds = 1 << iota
	BoundSized
	BoundCopy
	BoundSync
)

func (b BuiltinBounds) Contains(bound BuiltinBounds) bool { return b&bound == bound }

func (b BuiltinBounds) String() string {
	var names []string
	for i, name := range [...]string{"Send", "Sized", "Copy", "Sync"} {
		if b.Contains(1 << i) {
			names = append(names, name)
		}
	}
	return strings.Join(names, " + ")
}

// ExistentialBounds are the bounds of a trait object besides its principal.
// Projections are kept canonically ordered by Ctxt.MkTrait.
type ExistentialBounds struct {
	RegionBound Region
	Builtin     BuiltinBounds
	Projections []PolyProjectionPredicate
}

func (b ExistentialBounds) Equal(other ExistentialBounds) bool {
	return b.RegionBound == other.RegionBound && b.Builtin == other.Builtin &&
		slices.EqualFunc(b.Projections, other.Projections, func(x, y PolyProjectionPredicate) bool {
			return x.Value.Projection.Item == y.Value.Projection.Item &&
				x.Value.Projection.TraitRef.Equal(y.Value.Projection.TraitRef) &&
				x.Value.Ty == y.Value.Ty
		})
}

func (b ExistentialBounds) String() string {
	sb := &strings.Builder{}
	for _, p := range b.Projections {
		sb.WriteString(" + " + p.Value.String())
	}
	if b.Builtin != 0 {
		sb.WriteString(" + " + b.Builtin.String())
	}
	if b.RegionBound.Kind == ReStatic || b.RegionBound.Name != "" {
		sb.WriteString(" + " + b.RegionBound.String())
	}
	return sb.String()
}
