package method

import (
	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/types"
)

// fixupDerefsOnMethodReceiverIfNecessary biases the receiver towards
// mutability when the callee takes `&mut self`: the autoderefs, indexing and
// dereferences the receiver is derived through are resolved again preferring
// mutable lvalues, which switches Deref to DerefMut and Index to IndexMut.
func (cx *confirmCtxt) fixupDerefsOnMethodReceiverIfNecessary(callee check.MethodCallee) {
	sig, ok := callee.Sig()
	if !ok || len(sig.Inputs) == 0 {
		return
	}
	if ref, ok := sig.Inputs[0].(*types.RefTy); !ok || ref.Mt.Mutbl != types.Mutable {
		return
	}

	exprs := []hir.Expr{cx.selfExpr}
	for {
		inner, ok := hir.Inner(exprs[len(exprs)-1])
		if !ok {
			break
		}
		exprs = append(exprs, inner)
	}
	logger.Debug("fixing up receiver", "exprs", len(exprs))

	// innermost first
	for i := range exprs {
		expr := exprs[len(exprs)-1-i]
		cx.fixupAutoderefs(expr)
		// retrying the innermost expression would loop forever
		if i == 0 {
			continue
		}
		switch e := expr.(type) {
		case *hir.Index:
			cx.fixupIndex(e)
		case *hir.Unary:
			if e.Op == hir.UnDeref {
				cx.fixupDeref(e)
			}
		}
	}
}

// fixupAutoderefs replays the autoderefs recorded for expr preferring mutable
// lvalues. It stops after the recorded count so that no overloaded deref is
// recorded for a step the receiver never takes.
func (cx *confirmCtxt) fixupAutoderefs(expr hir.Expr) {
	fcx := cx.fcx
	var count uint32
	if adj, ok := fcx.Inh.Adjustments[expr.ID()].(check.DerefRef); ok {
		count = adj.Autoderefs
	}
	if count == 0 {
		return
	}
	fcx.Autoderef(expr, fcx.ExprTy(expr), expr, check.UnresolvedError, check.PreferMutLvalue,
		func(_ types.Ty, n uint32) bool { return n == count })
}

func (cx *confirmCtxt) fixupIndex(expr *hir.Index) {
	fcx := cx.fcx
	base := expr.Base

	// an overloaded index autorefs its base as the method takes self by
	// reference: peel it off to get the adjustment TryIndexStep starts from
	var autoderefs uint32
	var unsize types.Ty
	switch adj := fcx.Inh.Adjustments[base.ID()].(type) {
	case nil:
	case check.DerefRef:
		autoderefs = adj.Autoderefs
		if adj.Autoref == nil {
			if adj.Unsize != nil {
				ilerr.Bug(base, "unsizing %v without autoref", adj.Unsize)
			}
		} else if adj.Unsize != nil {
			mt, ok := types.BuiltinDeref(adj.Unsize, false)
			if !ok {
				ilerr.Bug(base, "autoref'd unsize target %v is not a reference", adj.Unsize)
			}
			unsize = mt.Ty
		}
	default:
		ilerr.Bug(base, "unexpected adjustment %v of an indexed base", adj)
	}

	adjustedBaseTy := unsize
	if unsize == nil {
		adjustedBaseTy = fcx.AdjustExprTy(base, check.DerefRef{Autoderefs: autoderefs})
	}
	indexTy := fcx.ExprTy(expr.Index)

	input, output, ok := fcx.TryIndexStep(check.MethodCallExpr(expr.ID()), expr, base, adjustedBaseTy, autoderefs, unsize != nil, check.PreferMutLvalue, indexTy)
	if !ok {
		return
	}
	cx.warnIfStillImmutable(expr, fcx.C.Lang.IndexMut)
	fcx.DemandSuptype(expr.Index, input, indexTy)
	fcx.DemandSuptype(expr, fcx.ExprTy(expr), output)
}

func (cx *confirmCtxt) fixupDeref(expr *hir.Unary) {
	fcx := cx.fcx
	call := check.MethodCallExpr(expr.ID())
	if _, overloaded := fcx.Inh.MethodMap[call]; !overloaded {
		return
	}
	fcx.TryOverloadedDeref(expr, &call, expr.Operand, fcx.ExprTy(expr.Operand), check.PreferMutLvalue)
	cx.warnIfStillImmutable(expr, fcx.C.Lang.DerefMut)
}

// warnIfStillImmutable flags an overloaded operator that resolution kept
// immutable although a mutable receiver is needed. The call is accepted
// here; borrow checking rejects it.
func (cx *confirmCtxt) warnIfStillImmutable(expr hir.Expr, mutTrait types.DefID) {
	callee, ok := cx.fcx.Inh.MethodMap[check.MethodCallExpr(expr.ID())]
	if !ok {
		return
	}
	if origin, ok := callee.Origin.(check.MethodTypeParam); ok && origin.TraitRef.Def != mutTrait {
		logger.Warn("no mutable overload for receiver of &mut self method", "expr", expr, "trait", origin.TraitRef.Name)
	}
}
