package traits

import (
	"errors"

	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/types"
	"github.com/hashicorp/go-set/v3"
)

// maxRecursionDepth bounds how deep nested obligations may go before the
// engine gives up on one
const maxRecursionDepth = 64

// FulfillmentError is an obligation that cannot hold
type FulfillmentError struct {
	Obligation Obligation
	Err        error
}

func (e *FulfillmentError) Error() string {
	return e.Obligation.Predicate.String() + ": " + e.Err.Error()
}

func (e *FulfillmentError) Unwrap() error { return e.Err }

// FulfillmentContext is the worklist of obligations registered while
// checking one function
type FulfillmentContext struct {
	pending []Obligation
	// seen holds every obligation ever registered, so a predicate proven
	// once is not proven again
	seen *set.HashSet[Obligation, uint64]
}

func NewFulfillmentContext() *FulfillmentContext {
	return &FulfillmentContext{seen: set.NewHashSet[Obligation, uint64](0)}
}

// Register adds o to the worklist unless an identical obligation was
// registered before
func (f *FulfillmentContext) Register(o Obligation) {
	if !f.seen.Insert(o) {
		return
	}
	logger.Debug("registered obligation", "obligation", o)
	f.pending = append(f.pending, o)
}

// RegisterRegionObligation adds `t: r`
func (f *FulfillmentContext) RegisterRegionObligation(t types.Ty, r types.Region, cause ObligationCause) {
	f.Register(NewObligation(cause, types.TypeOutlivesPredicate{Ty: t, Region: r}))
}

// Pending returns the obligations not proven yet
func (f *FulfillmentContext) Pending() []Obligation { return f.pending }

// SelectWherePossible proves every obligation it can, repeating as long as
// proving one makes progress on others. Obligations that are still
// ambiguous stay pending.
func (f *FulfillmentContext) SelectWherePossible(s *Selector) []*FulfillmentError {
	var errs []*FulfillmentError
	for progress := true; progress; {
		progress = false
		work := f.pending
		f.pending = nil
		for _, o := range work {
			nested, err := f.process(s, o)
			switch {
			case errors.Is(err, ErrAmbiguous):
				f.pending = append(f.pending, o)
			case err != nil:
				errs = append(errs, &FulfillmentError{Obligation: o, Err: err})
				progress = true
			default:
				progress = true
				for _, n := range nested {
					n.RecursionDepth = o.RecursionDepth + 1
					if n.RecursionDepth > maxRecursionDepth {
						errs = append(errs, &FulfillmentError{Obligation: n, Err: errors.New("overflow evaluating requirement")})
						continue
					}
					f.Register(n)
				}
			}
		}
	}
	return errs
}

// SelectAll is SelectWherePossible followed by reporting every obligation
// left ambiguous
func (f *FulfillmentContext) SelectAll(s *Selector) []*FulfillmentError {
	errs := f.SelectWherePossible(s)
	for _, o := range f.pending {
		errs = append(errs, &FulfillmentError{Obligation: o, Err: ErrAmbiguous})
	}
	f.pending = nil
	return errs
}

func (f *FulfillmentContext) process(s *Selector, o Obligation) ([]Obligation, error) {
	ic := s.ic
	span := o.Cause.Span
	switch p := ic.ResolveIfPossible(o.Predicate).(type) {
	case types.TraitPredicate:
		if types.IsError(ic.ShallowResolve(p.Trait.Value.SelfTy())) {
			return nil, nil
		}
		_, err := s.Select(span, p.Trait.Value)
		return nil, err
	case types.EquatePredicate:
		return nil, ic.Equate(true, p.A, p.B)
	case types.RegionOutlivesPredicate:
		return nil, ic.RegionOutlives(p.A, p.B)
	case types.TypeOutlivesPredicate:
		return nil, typeOutlives(s, p.Ty, p.Region)
	case types.ProjectionPred:
		return projectObligation(s, span, o.Cause, p.Projection.Value)
	default:
		return nil, nil
	}
}

// typeOutlives requires every reference region of t to outlive r
func typeOutlives(s *Selector, t types.Ty, r types.Region) error {
	var err error
	types.Walk(t, func(t types.Ty) bool {
		if ref, ok := t.(*types.RefTy); ok && err == nil {
			err = s.ic.RegionOutlives(ref.Region, r)
		}
		return err == nil
	})
	return err
}

func projectObligation(s *Selector, at hir.Range, cause ObligationCause, p types.ProjectionPredicate) ([]Obligation, error) {
	ty, ok := s.Project(at, p.Projection)
	if !ok {
		if types.IsTyVar(s.ic.ShallowResolve(p.Projection.TraitRef.SelfTy())) {
			return nil, ErrAmbiguous
		}
		// the trait itself must hold for the projection to mean anything
		_, err := s.Select(at, p.Projection.TraitRef)
		if err != nil {
			return nil, err
		}
		return nil, ErrAmbiguous
	}
	normalized, nested := s.Normalize(at, cause, types.TyTerm{Ty: ty})
	if err := s.ic.Equate(true, normalized.(types.TyTerm).Ty, p.Ty); err != nil {
		return nil, err
	}
	return nested, nil
}
