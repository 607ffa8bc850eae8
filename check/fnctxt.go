// Package check holds the per-function state shared by method confirmation
// and writeback: the working and permanent tables, the collaborators they
// consult and the autoderef and overloaded operator machinery.
package check

import (
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/internal/log"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
)

var logger = log.DefaultLogger.With("section", "check")

// Oracle is the inference context of the function being checked
type Oracle interface {
	Ctxt() *types.Ctxt
	NextTyVar() types.Ty
	NextTyVars(n int) []types.Ty
	NextRegionVar(origin types.RegionOrigin, at hir.Positioner) types.Region
	RegionVarsForDefs(at hir.Positioner, defs []types.RegionParamDef) []types.Region
	FreshSubstsForGenerics(at hir.Positioner, g types.Generics) *types.Substs
	ReplaceLateBoundRegionsWithFresh(at hir.Positioner, origin types.RegionOrigin, value types.Foldable) (types.Foldable, map[types.BoundRegion]types.Region)

	// Sub relates a <: b and Equate a == b, undoing their bindings on failure
	Sub(aIsExpected bool, a, b types.Ty) error
	Equate(aIsExpected bool, a, b types.Ty) error

	ShallowResolve(t types.Ty) types.Ty
	ResolveIfPossible(value types.Foldable) types.Foldable
	ResolveTyIfPossible(t types.Ty) types.Ty
	// FullyResolve is idempotent and, even when failing, returns a value
	// without placeholders
	FullyResolve(value types.Foldable) (types.Foldable, error)
}

// TraitEngine proves the obligations registered while checking a function
type TraitEngine interface {
	Upcast(source types.PolyTraitRef, target types.DefID) []types.PolyTraitRef
	RegisterPredicate(cause traits.ObligationCause, p types.Predicate)
	RegisterRegionObligation(t types.Ty, r types.Region, cause traits.ObligationCause)
	NormalizeAssociatedTypes(at hir.Positioner, cause traits.ObligationCause, value types.Foldable) types.Foldable
	SelectWherePossible() []*traits.FulfillmentError
}

// OverloadResolver tells whether an overloaded operator may be implemented
// for some types, without committing to an implementation
type OverloadResolver interface {
	PredicateMayHold(at hir.Positioner, trait types.TraitRef) bool
}

// LvaluePreference says whether an lvalue is going to be mutated, which
// selects DerefMut and IndexMut over Deref and Index
type LvaluePreference uint8

const (
	NoPreference LvaluePreference = iota
	PreferMutLvalue
)

func (p LvaluePreference) String() string {
	if p == PreferMutLvalue {
		return "prefer-mut"
	}
	return "no-preference"
}

// FnCtxt is the state of the function currently being checked. It is owned
// by a single checking pass and never shared.
type FnCtxt struct {
	C         *types.Ctxt
	Infer     Oracle
	Traits    TraitEngine
	Overloads OverloadResolver
	Session   *Session
	// BodyID is the node id of the function body
	BodyID hir.NodeID

	Inh    *Inherited
	Tables *Tables

	// WritebackErrors is set once writeback reported a failure for this function
	WritebackErrors bool
}

func NewFnCtxt(sess *Session, ic Oracle, engine TraitEngine, overloads OverloadResolver, body hir.NodeID) *FnCtxt {
	return &FnCtxt{
		C:         ic.Ctxt(),
		Infer:     ic,
		Traits:    engine,
		Overloads: overloads,
		Session:   sess,
		BodyID:    body,
		Inh:       NewInherited(),
		Tables:    NewTables(),
	}
}

// ReplaceLateBound instantiates the regions bound by b with fresh placeholders
func ReplaceLateBound[T types.Foldable](fcx *FnCtxt, at hir.Positioner, origin types.RegionOrigin, b types.Binder[T]) T {
	out, _ := fcx.Infer.ReplaceLateBoundRegionsWithFresh(at, origin, b.Value)
	return out.(T)
}

// Resolve substitutes the placeholders of value that are already bound
func Resolve[T types.Foldable](fcx *FnCtxt, value T) T {
	return fcx.Infer.ResolveIfPossible(value).(T)
}

func (fcx *FnCtxt) WriteTy(id hir.NodeID, t types.Ty) {
	logger.Debug("write type", "node", id, "ty", t)
	fcx.Inh.NodeTypes[id] = t
}

func (fcx *FnCtxt) WriteSubsts(id hir.NodeID, s types.ItemSubsts) {
	if !s.IsNoop() {
		fcx.Inh.ItemSubsts[id] = s
	}
}

func (fcx *FnCtxt) WriteAdjustment(id hir.NodeID, adj Adjustment) {
	logger.Debug("write adjustment", "node", id, "adjustment", adj)
	fcx.Inh.Adjustments[id] = adj
}

// WriteAutoderefAdjustment records derefs plain autoderefs, if any
func (fcx *FnCtxt) WriteAutoderefAdjustment(id hir.NodeID, derefs uint32) {
	if derefs == 0 {
		return
	}
	fcx.WriteAdjustment(id, DerefRef{Autoderefs: derefs})
}

func (fcx *FnCtxt) WriteMethod(call MethodCall, callee MethodCallee) {
	logger.Debug("write method", "call", call, "callee", callee)
	fcx.Inh.MethodMap[call] = callee
}

// OptNodeTy returns the type recorded for id
func (fcx *FnCtxt) OptNodeTy(id hir.NodeID) (types.Ty, bool) {
	t, ok := fcx.Inh.NodeTypes[id]
	return t, ok
}

func (fcx *FnCtxt) NodeTy(id hir.NodeID) types.Ty {
	t, ok := fcx.Inh.NodeTypes[id]
	if !ok {
		ilerr.Bug(nil, "no type for node #%d in fcx", id)
	}
	return t
}

func (fcx *FnCtxt) ExprTy(e hir.Expr) types.Ty {
	t, ok := fcx.Inh.NodeTypes[e.ID()]
	if !ok {
		ilerr.Bug(e, "no type for expression %v", hir.ExprString(e))
	}
	return t
}

func (fcx *FnCtxt) LocalTy(at hir.Positioner, id hir.NodeID) types.Ty {
	t, ok := fcx.Inh.Locals[id]
	if !ok {
		ilerr.Bug(at, "no type for local variable #%d", id)
	}
	return t
}

// Report records a user error against the session of this function
func (fcx *FnCtxt) Report(err ilerr.IleError) { fcx.Session.Report(err) }

// NormalizeAssociatedTypesIn replaces the projections of value where possible
func NormalizeAssociatedTypesIn[T types.Foldable](fcx *FnCtxt, at hir.Positioner, value T) T {
	cause := traits.MiscCause(at, fcx.BodyID)
	return fcx.Traits.NormalizeAssociatedTypes(at, cause, value).(T)
}

// InstantiateTypeScheme substitutes substs into value and normalizes the result
func InstantiateTypeScheme[T types.Foldable](fcx *FnCtxt, at hir.Positioner, substs *types.Substs, value T) T {
	return NormalizeAssociatedTypesIn(fcx, at, types.Subst(fcx.C, substs, value))
}

// AddObligationsForParameters registers every predicate of preds
func (fcx *FnCtxt) AddObligationsForParameters(cause traits.ObligationCause, preds types.InstantiatedPredicates) {
	for _, p := range preds.All() {
		fcx.Traits.RegisterPredicate(cause, p)
	}
}

// AddDefaultRegionParamBounds requires every type of substs to outlive the
// scope of expr
func (fcx *FnCtxt) AddDefaultRegionParamBounds(substs *types.Substs, expr hir.Expr) {
	scope := types.Scope(uint32(expr.ID()))
	cause := traits.ObligationCause{Span: hir.RangeOf(expr), BodyID: fcx.BodyID, Code: traits.MiscObligation}
	substs.Types.All(func(_ types.ParamSpace, _ uint32, t types.Ty) bool {
		fcx.Traits.RegisterRegionObligation(t, scope, cause)
		return true
	})
}

// SelectNewObligations proves what it can of the pending obligations and
// reports the ones that cannot hold
func (fcx *FnCtxt) SelectNewObligations() {
	for _, err := range fcx.Traits.SelectWherePossible() {
		fcx.Report(ilerr.New(ilerr.NewUnsatisfiedObligation{Positioner: err.Obligation.Cause.Span, Err: err}))
	}
}

// StructurallyResolvedType resolves the head of t, reporting a user error and
// returning the error sentinel when it is still an unconstrained type placeholder
func (fcx *FnCtxt) StructurallyResolvedType(at hir.Positioner, t types.Ty) types.Ty {
	t = fcx.Infer.ShallowResolve(t)
	if types.IsTyVar(t) {
		fcx.Report(ilerr.New(ilerr.NewTypeAnnotationsRequired{Positioner: hir.RangeOf(at)}))
		if err := fcx.Infer.Equate(true, t, fcx.C.Types.Err); err != nil {
			ilerr.Bug(at, "cannot bind %v to the error type: %v", t, err)
		}
		return fcx.C.Types.Err
	}
	return t
}

// DemandSuptype requires actual <: expected, reporting a mismatch otherwise
func (fcx *FnCtxt) DemandSuptype(at hir.Positioner, expected, actual types.Ty) {
	if err := fcx.Infer.Sub(false, actual, expected); err != nil {
		fcx.Report(ilerr.New(ilerr.NewTypeMismatch{Positioner: hir.RangeOf(at), Err: err}))
	}
}

// DemandEqtype requires actual == expected, reporting a mismatch otherwise
func (fcx *FnCtxt) DemandEqtype(at hir.Positioner, expected, actual types.Ty) {
	if err := fcx.Infer.Equate(true, expected, actual); err != nil {
		fcx.Report(ilerr.New(ilerr.NewTypeMismatch{Positioner: hir.RangeOf(at), Err: err}))
	}
}
