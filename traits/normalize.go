package traits

import (
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/types"
)

// normalizer replaces the projections of a term by the type they stand for
// when an impl or a trait object bound tells it, and by a fresh placeholder
// constrained with a projection obligation otherwise
type normalizer struct {
	sel         *Selector
	at          hir.Positioner
	cause       ObligationCause
	obligations []Obligation
	depth       uint32
}

func (n *normalizer) Ctxt() *types.Ctxt { return n.sel.ic.C }
func (n *normalizer) EnterBinder()      { n.depth++ }
func (n *normalizer) ExitBinder()       { n.depth-- }

func (n *normalizer) FoldRegion(r types.Region) types.Region { return r }

func (n *normalizer) FoldTy(t types.Ty) types.Ty {
	if !t.Flags().Has(types.HasProjection) {
		return t
	}
	t = types.SuperFoldTy(n, t)
	proj, ok := t.(*types.ProjectionTy)
	if !ok || n.depth > 0 {
		// projections under a binder may mention its regions and are left for later
		return t
	}
	if ty, ok := n.sel.Project(n.at, proj.Data); ok {
		return ty
	}
	fresh := n.sel.ic.NextTyVar()
	pred := types.ProjectionPred{Projection: types.Bind(types.ProjectionPredicate{Projection: proj.Data, Ty: fresh})}
	cause := n.cause
	cause.Code = ProjectionObligation
	n.obligations = append(n.obligations, NewObligation(cause, pred))
	return fresh
}

// Normalize replaces every projection of value that can be replaced. The
// returned obligations constrain the placeholders standing for the others.
func (s *Selector) Normalize(at hir.Positioner, cause ObligationCause, value types.Foldable) (types.Foldable, []Obligation) {
	n := &normalizer{sel: s, at: at, cause: cause}
	out := value.FoldWith(n)
	if len(n.obligations) > 0 {
		logger.Debug("deferred projections", "count", len(n.obligations), "value", out)
	}
	return out, n.obligations
}

// Project finds the type p stands for, when selection can already tell it
func (s *Selector) Project(at hir.Positioner, p types.Projection) (types.Ty, bool) {
	c := s.ic.C
	if obj, ok := s.ic.ShallowResolve(p.TraitRef.SelfTy()).(*types.TraitObjectTy); ok {
		for _, bound := range obj.Bounds.Projections {
			b := bound.Value.Projection
			if b.TraitRef.Def == p.TraitRef.Def && b.Item == p.Item {
				return bound.Value.Ty, true
			}
		}
	}
	var sel Selection
	err := s.ic.CommitIfOk(func() error {
		var err error
		sel, err = s.Select(at, p.TraitRef)
		return err
	})
	if err != nil || sel.Kind != ImplCandidate {
		return nil, false
	}
	assoc, ok := sel.Impl.AssocTypes[p.Item]
	if !ok {
		return nil, false
	}
	return types.SubstTy(c, sel.Substs, assoc), true
}
