package writeback

import (
	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/types"
)

// reason is what is being resolved, which decides the error reported when
// resolution fails
type reason struct {
	role ilerr.UnresolvedRole
	at   hir.Range
	// upvar is set for RoleUpvar and closure for RoleClosure
	upvar   check.UpvarID
	closure types.DefID
}

// span is where to report r. Closures are keyed by the node id of their
// expression, whose range the traversal recorded.
func (r reason) span(w *writebackCtxt) hir.Range {
	switch r.role {
	case ilerr.RoleUpvar:
		return w.closureSpans[r.upvar.ClosureExpr]
	case ilerr.RoleClosure:
		return w.closureSpans[hir.NodeID(r.closure)]
	default:
		return r.at
	}
}

// resolve fully resolves value. On failure the error is reported, unless
// writeback already failed for this function, and the placeholders are
// replaced by the error type and 'static.
func resolve[T types.Foldable](w *writebackCtxt, value T, r reason) T {
	out, err := w.fcx.Infer.FullyResolve(value)
	if err != nil {
		w.reportError(err, r)
	}
	return out.(T)
}

func (w *writebackCtxt) resolveTy(t types.Ty, r reason) types.Ty {
	return resolve(w, types.TyTerm{Ty: t}, r).Ty
}

func (w *writebackCtxt) reportError(err error, r reason) {
	fcx := w.fcx
	alreadyFailed := fcx.WritebackErrors
	fcx.WritebackErrors = true
	if alreadyFailed || fcx.Session.HasErrors() {
		logger.Debug("unresolved placeholder not reported", "err", err, "role", r.role)
		return
	}
	fcx.Report(ilerr.New(ilerr.NewCannotDetermineType{Positioner: r.span(w), Role: r.role, Cause: err}))
}
