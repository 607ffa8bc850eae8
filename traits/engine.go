package traits

import (
	"errors"

	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/types"
)

// Engine is the trait engine of one function: a selector over its where
// clauses and the worklist of its obligations
type Engine struct {
	*Selector
	Fulfill *FulfillmentContext
}

func NewEngine(ic *infer.Ctxt, env []types.Predicate) *Engine {
	return &Engine{Selector: NewSelector(ic, env), Fulfill: NewFulfillmentContext()}
}

func (e *Engine) Upcast(source types.PolyTraitRef, target types.DefID) []types.PolyTraitRef {
	return Upcast(e.ic.C, source, target)
}

func (e *Engine) RegisterPredicate(cause ObligationCause, p types.Predicate) {
	e.Fulfill.Register(NewObligation(cause, p))
}

func (e *Engine) RegisterRegionObligation(t types.Ty, r types.Region, cause ObligationCause) {
	e.Fulfill.RegisterRegionObligation(t, r, cause)
}

// NormalizeAssociatedTypes normalizes value, registering the obligations of
// the projections it could not replace yet
func (e *Engine) NormalizeAssociatedTypes(at hir.Positioner, cause ObligationCause, value types.Foldable) types.Foldable {
	out, obligations := e.Normalize(at, cause, value)
	for _, o := range obligations {
		e.Fulfill.Register(o)
	}
	return out
}

func (e *Engine) SelectWherePossible() []*FulfillmentError {
	return e.Fulfill.SelectWherePossible(e.Selector)
}

func (e *Engine) SelectAll() []*FulfillmentError { return e.Fulfill.SelectAll(e.Selector) }

// PredicateMayHold reports whether trait could be proven, now or once more
// placeholders are known. Nothing is bound.
func (e *Engine) PredicateMayHold(at hir.Positioner, trait types.TraitRef) bool {
	err := e.ic.Probe(func() error {
		_, err := e.Select(at, trait)
		return err
	})
	return err == nil || errors.Is(err, ErrAmbiguous)
}
