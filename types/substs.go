package types

import (
	"slices"
	"strings"
)

// ParamSpace partitions the generic parameters of an item: those declared by
// the enclosing type or trait, the implicit Self of a trait, and those
// declared by a method
type ParamSpace uint8

const (
	TypeSpace ParamSpace = iota
	SelfSpace
	FnSpace
)

var AllSpaces = [...]ParamSpace{TypeSpace, SelfSpace, FnSpace}

func (s ParamSpace) String() string {
	return [...]string{"TypeSpace", "SelfSpace", "FnSpace"}[s]
}

// PerSpace holds one vector per ParamSpace. It is a value: With returns a copy
type PerSpace[T any] struct {
	spaces [len(AllSpaces)][]T
}

func NewPerSpace[T any](types, self, fn []T) PerSpace[T] {
	return PerSpace[T]{spaces: [len(AllSpaces)][]T{types, self, fn}}
}

func (p PerSpace[T]) Slice(space ParamSpace) []T { return p.spaces[space] }
func (p PerSpace[T]) Len(space ParamSpace) int   { return len(p.spaces[space]) }

func (p PerSpace[T]) Get(space ParamSpace, index uint32) (T, bool) {
	s := p.spaces[space]
	if int(index) >= len(s) {
		var zero T
		return zero, false
	}
	return s[index], true
}

// With returns a copy of p where space holds elems
func (p PerSpace[T]) With(space ParamSpace, elems []T) PerSpace[T] {
	p.spaces[space] = elems
	return p
}

func (p PerSpace[T]) IsEmpty() bool {
	for _, s := range p.spaces {
		if len(s) > 0 {
			return false
		}
	}
	return true
}

// All iterates the elements of every space in order
func (p PerSpace[T]) All(yield func(ParamSpace, uint32, T) bool) {
	for space, elems := range p.spaces {
		for i, elem := range elems {
			if !yield(ParamSpace(space), uint32(i), elem) {
				return
			}
		}
	}
}

func MapPerSpace[T, U any](p PerSpace[T], f func(T) U) PerSpace[U] {
	var out PerSpace[U]
	for space, elems := range p.spaces {
		if elems == nil {
			continue
		}
		mapped := make([]U, len(elems))
		for i, elem := range elems {
			mapped[i] = f(elem)
		}
		out.spaces[space] = mapped
	}
	return out
}

// RegionSubsts is either erased, after region checking no longer matters,
// or one vector of regions per space
type RegionSubsts struct {
	Erased  bool
	Regions PerSpace[Region]
}

func ErasedRegions() RegionSubsts { return RegionSubsts{Erased: true} }

func (r RegionSubsts) Equal(other RegionSubsts) bool {
	if r.Erased || other.Erased {
		return r.Erased == other.Erased
	}
	for _, space := range AllSpaces {
		if !slices.Equal(r.Regions.Slice(space), other.Regions.Slice(space)) {
			return false
		}
	}
	return true
}

// Substs is a substitution environment. It is never mutated after
// construction: every With* method returns a new one.
type Substs struct {
	Types   PerSpace[Ty]
	Regions RegionSubsts
}

func NewSubsts(types PerSpace[Ty], regions PerSpace[Region]) *Substs {
	return &Substs{Types: types, Regions: RegionSubsts{Regions: regions}}
}

func EmptySubsts() *Substs { return &Substs{} }

// NewTraitSubsts builds the substitutions of a trait reference: the
// implementing type in SelfSpace and the trait's own parameters in TypeSpace
func NewTraitSubsts(self Ty, params []Ty, regions []Region) *Substs {
	return NewSubsts(
		NewPerSpace(params, []Ty{self}, nil),
		NewPerSpace(regions, nil, nil),
	)
}

// SelfTy returns the implementing type, or nil
func (s *Substs) SelfTy() Ty {
	t, _ := s.Types.Get(SelfSpace, 0)
	return t
}

func (s *Substs) Type(space ParamSpace, index uint32) (Ty, bool) {
	return s.Types.Get(space, index)
}

func (s *Substs) WithSelfTy(self Ty) *Substs {
	out := *s
	out.Types = out.Types.With(SelfSpace, []Ty{self})
	return &out
}

// WithMethod returns s with the FnSpace replaced by the given method parameters
func (s *Substs) WithMethod(types []Ty, regions []Region) *Substs {
	out := *s
	out.Types = out.Types.With(FnSpace, types)
	if !out.Regions.Erased {
		out.Regions.Regions = out.Regions.Regions.With(FnSpace, regions)
	}
	return &out
}

// WithSpace returns s with space of both types and regions replaced
func (s *Substs) WithSpace(space ParamSpace, types []Ty, regions []Region) *Substs {
	out := *s
	out.Types = out.Types.With(space, types)
	if !out.Regions.Erased {
		out.Regions.Regions = out.Regions.Regions.With(space, regions)
	}
	return &out
}

func (s *Substs) Erase() *Substs {
	return &Substs{Types: s.Types, Regions: ErasedRegions()}
}

func (s *Substs) Equal(other *Substs) bool {
	if s == other {
		return true
	}
	if s == nil || other == nil {
		return s.isEmpty() && other.isEmpty()
	}
	for _, space := range AllSpaces {
		if !slices.Equal(s.Types.Slice(space), other.Types.Slice(space)) {
			return false
		}
	}
	return s.Regions.Equal(other.Regions)
}

func (s *Substs) isEmpty() bool {
	return s == nil || s.Types.IsEmpty() && (s.Regions.Erased || s.Regions.Regions.IsEmpty())
}

func (s *Substs) flags() TypeFlags {
	if s == nil {
		return 0
	}
	var flags TypeFlags
	s.Types.All(func(_ ParamSpace, _ uint32, t Ty) bool {
		flags |= t.Flags()
		return true
	})
	if !s.Regions.Erased {
		s.Regions.Regions.All(func(_ ParamSpace, _ uint32, r Region) bool {
			flags |= r.flags()
			return true
		})
	}
	return flags
}

// Flags summarizes every term mentioned by s
func (s *Substs) Flags() TypeFlags { return s.flags() }

// typesString renders the types of space as `<A, B>`, or nothing when empty
func (s *Substs) typesString(space ParamSpace) string {
	if s == nil || s.Types.Len(space) == 0 {
		return ""
	}
	return "<" + joinTys(s.Types.Slice(space)) + ">"
}

func (s *Substs) String() string {
	if s == nil {
		return "[]"
	}
	sb := &strings.Builder{}
	sb.WriteString("[")
	for i, space := range AllSpaces {
		if i > 0 {
			sb.WriteString("; ")
		}
		sb.WriteString(joinTys(s.Types.Slice(space)))
	}
	if !s.Regions.Erased && !s.Regions.Regions.IsEmpty() {
		sb.WriteString(" |")
		s.Regions.Regions.All(func(_ ParamSpace, _ uint32, r Region) bool {
			sb.WriteString(" " + r.String())
			return true
		})
	}
	sb.WriteString("]")
	return sb.String()
}

// ItemSubsts are the substitutions recorded against a path expression naming a generic item
type ItemSubsts struct {
	Substs *Substs
}

func (s ItemSubsts) IsNoop() bool { return s.Substs.isEmpty() }
