// Package writeback is the last pass over a checked function: it replaces
// every placeholder of the working tables by its final value and moves the
// results into the permanent tables.
package writeback

import (
	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/internal/log"
	"github.com/cottand/tyck/types"
)

var logger = log.DefaultLogger.With("section", "writeback")

// ResolveTypeVarsInExpr resolves a standalone expression, such as a constant
// initializer
func ResolveTypeVarsInExpr(fcx *check.FnCtxt, e hir.Expr) {
	if fcx.WritebackErrors {
		ilerr.Bug(e, "writeback of %v already failed", hir.ExprString(e))
	}
	wbcx := newWritebackCtxt(fcx)
	wbcx.VisitExpr(e)
	wbcx.visitUpvarBorrowMap()
	wbcx.visitClosures()
}

// ResolveTypeVarsInFn resolves the body of a function and the patterns of
// its arguments. Once a placeholder fails to resolve, fcx.WritebackErrors is
// set and no further error is reported for the function, but the traversal
// still completes so that every node reaches the permanent tables.
func ResolveTypeVarsInFn(fcx *check.FnCtxt, decl *hir.FnDecl, body *hir.Block) {
	if fcx.WritebackErrors {
		ilerr.Bug(body, "writeback of this function already failed")
	}
	wbcx := newWritebackCtxt(fcx)
	wbcx.VisitBlock(body)
	for _, arg := range decl.Inputs {
		wbcx.visitNodeID(reason{role: ilerr.RolePattern, at: hir.RangeOf(arg.Pat)}, arg.ID())
		wbcx.VisitPat(arg.Pat)
		if !hir.IsBinding(arg.Pat) {
			wbcx.visitNodeID(reason{role: ilerr.RolePattern, at: hir.RangeOf(arg.Pat)}, arg.Pat.ID())
		}
	}
	wbcx.visitUpvarBorrowMap()
	wbcx.visitClosures()
}

var _ hir.Visitor = (*writebackCtxt)(nil)

type writebackCtxt struct {
	fcx          *check.FnCtxt
	closureSpans map[hir.NodeID]hir.Range
}

func newWritebackCtxt(fcx *check.FnCtxt) *writebackCtxt {
	return &writebackCtxt{fcx: fcx, closureSpans: map[hir.NodeID]hir.Range{}}
}

func exprReason(at hir.Positioner) reason {
	return reason{role: ilerr.RoleExpr, at: hir.RangeOf(at)}
}

func (w *writebackCtxt) VisitStmt(s hir.Stmt) {
	w.visitNodeID(exprReason(s), s.ID())
	hir.WalkStmt(w, s)
}

func (w *writebackCtxt) VisitExpr(e hir.Expr) {
	w.fixScalarBinaryExpr(e)

	w.visitNodeID(exprReason(e), e.ID())
	w.visitMethodMapEntry(exprReason(e), check.MethodCallExpr(e.ID()))

	if c, ok := e.(*hir.Closure); ok {
		w.closureSpans[c.ID()] = hir.RangeOf(c)
		for _, input := range c.Decl.Inputs {
			w.visitNodeID(exprReason(e), input.ID())
		}
	}
	hir.WalkExpr(w, e)
}

func (w *writebackCtxt) VisitBlock(b *hir.Block) {
	w.visitNodeID(exprReason(b), b.ID())
	hir.WalkBlock(w, b)
}

func (w *writebackCtxt) VisitPat(p hir.Pat) {
	w.visitNodeID(reason{role: ilerr.RolePattern, at: hir.RangeOf(p)}, p.ID())
	logger.Debug("pattern resolved", "pat", hir.PatString(p), "node", p.ID())
	hir.WalkPat(w, p)
}

func (w *writebackCtxt) VisitLocal(l *hir.Local) {
	t := w.fcx.LocalTy(l, l.ID())
	t = w.resolveTy(t, reason{role: ilerr.RoleLocal, at: hir.RangeOf(l)})
	w.fcx.Tables.WriteTy(l.ID(), t)
	hir.WalkLocal(w, l)
}

func (w *writebackCtxt) VisitTy(t hir.Ty) {
	if v, ok := t.(*hir.FixedLengthVecTy); ok {
		w.VisitTy(v.Elem)
		w.fcx.Tables.WriteTy(v.Count.ID(), w.fcx.C.Types.Usize)
		return
	}
	hir.WalkTy(w, t)
}

// fixScalarBinaryExpr drops the speculative operator callee of a binary
// expression whose operands turned out to be scalars, along with the autoref
// of the left operand when the operator takes its operands by reference
func (w *writebackCtxt) fixScalarBinaryExpr(e hir.Expr) {
	bin, ok := e.(*hir.Binary)
	if !ok {
		return
	}
	fcx := w.fcx
	lhs, lok := fcx.OptNodeTy(bin.Lhs.ID())
	rhs, rok := fcx.OptNodeTy(bin.Rhs.ID())
	if !lok || !rok {
		return
	}
	lhs, rhs = fcx.Infer.ResolveTyIfPossible(lhs), fcx.Infer.ResolveTyIfPossible(rhs)
	if !types.IsScalar(lhs) || !types.IsScalar(rhs) {
		return
	}
	logger.Debug("builtin binary operator", "expr", e, "lhs", lhs, "rhs", rhs)
	delete(fcx.Inh.MethodMap, check.MethodCallExpr(e.ID()))
	if !bin.Op.IsByValue() {
		delete(fcx.Inh.Adjustments, bin.Lhs.ID())
	}
}

// visitUpvarBorrowMap resolves the region of every by-reference capture
func (w *writebackCtxt) visitUpvarBorrowMap() {
	fcx := w.fcx
	for _, e := range check.Entries(fcx.Inh.UpvarCaptures) {
		capture := resolve(w, e.Value, reason{role: ilerr.RoleUpvar, upvar: e.Key})
		logger.Debug("upvar capture resolved", "upvar", e.Key, "byRef", capture.ByRef, "region", capture.Region)
		fcx.Tables.WriteUpvarCapture(e.Key, capture)
	}
}

// visitClosures resolves the signature of every closure and copies its kind
func (w *writebackCtxt) visitClosures() {
	fcx := w.fcx
	for _, e := range check.Entries(fcx.Inh.ClosureTys) {
		t := resolve(w, e.Value, reason{role: ilerr.RoleClosure, closure: e.Key})
		fcx.Tables.WriteClosureTy(e.Key, t)
	}
	for _, e := range check.Entries(fcx.Inh.ClosureKinds) {
		fcx.Tables.WriteClosureKind(e.Key, e.Value)
	}
}

// visitNodeID resolves and moves the adjustment, type and item substitutions
// recorded for id. A node checking recorded no type for is skipped.
func (w *writebackCtxt) visitNodeID(r reason, id hir.NodeID) {
	fcx := w.fcx
	w.visitAdjustments(r, id)

	t, ok := fcx.OptNodeTy(id)
	if !ok {
		return
	}
	t = w.resolveTy(t, r)
	fcx.Tables.WriteTy(id, t)
	logger.Debug("node type resolved", "node", id, "ty", t)

	if substs, ok := fcx.Inh.ItemSubsts[id]; ok {
		resolved := resolve(w, substs.Substs, r)
		fcx.Tables.WriteSubsts(id, types.ItemSubsts{Substs: resolved})
	}
}

func (w *writebackCtxt) visitAdjustments(r reason, id hir.NodeID) {
	fcx := w.fcx
	adj, ok := fcx.Inh.Adjustments[id]
	if !ok {
		return
	}
	delete(fcx.Inh.Adjustments, id)

	if d, ok := adj.(check.DerefRef); ok {
		for i := uint32(0); i < d.Autoderefs; i++ {
			w.visitMethodMapEntry(r, check.MethodCallAutoderef(id, i))
		}
	}
	resolved := resolve(w, adj, r)
	logger.Debug("adjustment resolved", "node", id, "adjustment", resolved)
	fcx.Tables.WriteAdjustment(id, resolved)
}

func (w *writebackCtxt) visitMethodMapEntry(r reason, call check.MethodCall) {
	fcx := w.fcx
	callee, ok := fcx.Inh.MethodMap[call]
	if !ok {
		return
	}
	delete(fcx.Inh.MethodMap, call)
	resolved := resolve(w, callee, r)
	logger.Debug("method resolved", "call", call, "callee", resolved)
	fcx.Tables.WriteMethod(call, resolved)
}
