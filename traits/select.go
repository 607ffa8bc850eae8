package traits

import (
	"errors"

	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/types"
)

// ErrAmbiguous is returned by selection while the self type of an obligation
// is not known well enough to pick one candidate
var ErrAmbiguous = errors.New("type annotations required: cannot pick an implementation yet")

// UnimplementedError says no impl, where clause or object satisfies Trait
type UnimplementedError struct {
	Trait types.TraitRef
}

func (e *UnimplementedError) Error() string {
	return "the trait " + e.Trait.Name + " is not implemented for " + e.Trait.SelfTy().String()
}

type CandidateKind uint8

const (
	ImplCandidate CandidateKind = iota
	// ParamCandidate is a where clause of the function being checked
	ParamCandidate
	// ObjectCandidate is the principal trait of a trait object or one of its supertraits
	ObjectCandidate
)

type Selection struct {
	Kind CandidateKind
	// Impl and Substs are set for ImplCandidate
	Impl   *types.ImplDef
	Substs *types.Substs
	// Bound is the matched where clause or object trait for the other kinds
	Bound types.PolyTraitRef
}

// Selector proves trait references against the impls of a Ctxt and the where
// clauses in scope
type Selector struct {
	ic *infer.Ctxt
	// env holds the elaborated where clauses of the function being checked
	env []types.PolyTraitRef
}

func NewSelector(ic *infer.Ctxt, env []types.Predicate) *Selector {
	s := &Selector{ic: ic}
	for _, p := range Elaborate(ic.C, env) {
		if tp, ok := p.(types.TraitPredicate); ok {
			s.env = append(s.env, tp.Trait)
		}
	}
	return s
}

// candidates lists every way of proving trait that matches it, without
// binding anything
func (s *Selector) candidates(at hir.Positioner, trait types.TraitRef) []Selection {
	c := s.ic.C
	var out []Selection
	for _, bound := range s.env {
		if s.ic.Probe(func() error { return s.ic.EquateTraitRefs(true, bound.Value, trait) }) == nil {
			out = append(out, Selection{Kind: ParamCandidate, Bound: bound})
		}
	}
	if obj, ok := s.ic.ShallowResolve(trait.SelfTy()).(*types.TraitObjectTy); ok {
		principal := c.PrincipalWithSelfTy(obj, trait.SelfTy())
		for _, super := range Upcast(c, principal, trait.Def) {
			if s.ic.Probe(func() error { return s.ic.EquateTraitRefs(true, super.Value, trait) }) == nil {
				out = append(out, Selection{Kind: ObjectCandidate, Bound: super})
			}
		}
	}
	for _, id := range c.TraitImpls[trait.Def] {
		impl := c.ImplDef(id)
		err := s.ic.Probe(func() error {
			substs := s.ic.FreshSubstsForGenerics(at, impl.Generics)
			return s.ic.EquateTraitRefs(true, types.Subst(c, substs, *impl.TraitRef), trait)
		})
		if err == nil {
			out = append(out, Selection{Kind: ImplCandidate, Impl: impl})
		}
	}
	return out
}

// Select picks the unique candidate proving trait and binds the placeholders
// of trait accordingly. A where clause wins over impls, as it is what the
// caller promised.
func (s *Selector) Select(at hir.Positioner, trait types.TraitRef) (Selection, error) {
	self := s.ic.ShallowResolve(trait.SelfTy())
	if types.IsTyVar(self) {
		return Selection{}, ErrAmbiguous
	}
	cands := s.candidates(at, trait)
	if len(cands) == 0 {
		return Selection{}, &UnimplementedError{Trait: trait}
	}
	if len(cands) > 1 && cands[0].Kind == ImplCandidate {
		logger.Debug("ambiguous selection", "trait", trait, "candidates", len(cands))
		return Selection{}, ErrAmbiguous
	}
	sel := cands[0]
	switch sel.Kind {
	case ImplCandidate:
		sel.Substs = s.ic.FreshSubstsForGenerics(at, sel.Impl.Generics)
		if err := s.ic.EquateTraitRefs(true, types.Subst(s.ic.C, sel.Substs, *sel.Impl.TraitRef), trait); err != nil {
			return Selection{}, err
		}
	default:
		if err := s.ic.EquateTraitRefs(true, sel.Bound.Value, trait); err != nil {
			return Selection{}, err
		}
	}
	logger.Debug("selected", "trait", trait, "kind", sel.Kind)
	return sel, nil
}
