package fixture

import (
	"errors"

	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/check/method"
	"github.com/cottand/tyck/check/writeback"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
)

// Unit is one function to check: its body, the picks probing would have
// made for its method calls and its where clauses
type Unit struct {
	Fn    *hir.Fn
	Picks map[hir.NodeID]method.Pick
	Env   []types.Predicate
}

// Result is what checking a Unit produced
type Result struct {
	Unit    Unit
	FnCtxt  *check.FnCtxt
	Engine  *traits.Engine
	Session *check.Session
	// Tables is a snapshot of the permanent tables once writeback is over
	Tables check.Tables
	// Err is set when checking aborted on a fatal error or a compiler bug
	Err error
}

// Errors returns the user errors reported while checking
func (r *Result) Errors() []ilerr.IleError { return r.Session.Errors.Errors() }

// Callee returns the permanent callee of the method call or overloaded operator id
func (r *Result) Callee(id hir.NodeID) (check.MethodCallee, bool) {
	return r.Tables.MethodMap.Get(check.MethodCallExpr(id))
}

// Check runs checking, obligation selection, numeric defaulting, region
// resolution and writeback over unit
func Check(u *Universe, unit Unit) *Result {
	sess := check.NewSession()
	ic := infer.New(u.C)
	engine := traits.NewEngine(ic, unit.Env)
	fcx := check.NewFnCtxt(sess, ic, engine, engine, unit.Fn.Body.ID())
	res := &Result{Unit: unit, FnCtxt: fcx, Engine: engine, Session: sess}

	res.Err = sess.Run(func() error {
		ck := &checker{u: u, fcx: fcx, ic: ic, fn: unit.Fn, picks: unit.Picks}
		ck.checkFn()

		fcx.SelectNewObligations()
		ic.DefaultNumericVars()
		for _, err := range engine.SelectAll() {
			at := err.Obligation.Cause.Span
			if errors.Is(err, traits.ErrAmbiguous) {
				fcx.Report(ilerr.New(ilerr.NewTypeAnnotationsRequired{Positioner: at}))
				continue
			}
			fcx.Report(ilerr.New(ilerr.NewUnsatisfiedObligation{Positioner: at, Err: err}))
		}
		ic.ResolveRegions()

		writeback.ResolveTypeVarsInFn(fcx, unit.Fn.Decl, unit.Fn.Body)
		return nil
	})
	if res.Err != nil {
		logger.Debug("checking aborted", "fn", unit.Fn.Name, "err", res.Err)
	}
	res.Tables = fcx.Tables.Snapshot()
	return res
}
