package check_test

import (
	"errors"
	"testing"

	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/internal/fixture"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
	"github.com/davecgh/go-spew/spew"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newFnCtxt(u *fixture.Universe) (*check.FnCtxt, *infer.Ctxt) {
	ic := infer.New(u.C)
	engine := traits.NewEngine(ic, nil)
	return check.NewFnCtxt(check.NewSession(), ic, engine, engine, 0), ic
}

func TestSessionRun(t *testing.T) {
	b := hir.NewBuilder()
	at := b.Path("x")

	t.Run("ok", func(t *testing.T) {
		sess := check.NewSession()
		assert.NoError(t, sess.Run(func() error { return nil }))
		assert.False(t, sess.HasErrors())
	})

	t.Run("compiler bug", func(t *testing.T) {
		sess := check.NewSession()
		err := sess.Run(func() error {
			ilerr.Bug(at, "broken %s", "invariant")
			return nil
		})
		var bug *ilerr.CompilerBug
		require.ErrorAs(t, err, &bug)
		assert.Equal(t, "broken invariant", bug.Msg)
		assert.False(t, sess.HasErrors(), "a bug is not a user error")
	})

	t.Run("fatal error is reported", func(t *testing.T) {
		sess := check.NewSession()
		err := sess.Run(func() error {
			ilerr.Abort(ilerr.New(ilerr.NewTypeAnnotationsRequired{Positioner: at}))
			return nil
		})
		var fatal *ilerr.Fatal
		require.ErrorAs(t, err, &fatal)
		require.True(t, sess.HasErrors())
		assert.Equal(t, ilerr.TypeAnnotationsRequired, sess.Errors.Errors()[0].Code())
	})

	t.Run("foreign panics keep unwinding", func(t *testing.T) {
		assert.PanicsWithValue(t, "boom", func() {
			_ = check.NewSession().Run(func() error { panic("boom") })
		})
	})

	t.Run("returned errors pass through", func(t *testing.T) {
		sentinel := errors.New("sentinel")
		assert.ErrorIs(t, check.NewSession().Run(func() error { return sentinel }), sentinel)
	})
}

func TestTablesArePersistent(t *testing.T) {
	c := types.NewCtxt()
	tables := check.NewTables()
	tables.WriteTy(3, c.Types.I32)
	tables.WriteTy(1, c.Types.Bool)
	snap := tables.Snapshot()

	tables.WriteTy(2, c.Types.Char)
	tables.WriteAdjustment(1, check.DerefRef{Autoderefs: 1})

	keys := func(m check.Tables) []hir.NodeID {
		var out []hir.NodeID
		for _, e := range check.Entries(m.NodeTypes) {
			out = append(out, e.Key)
		}
		return out
	}
	if diff := cmp.Diff([]hir.NodeID{1, 3}, keys(snap)); diff != "" {
		t.Errorf("snapshot changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]hir.NodeID{1, 2, 3}, keys(*tables)); diff != "" {
		t.Errorf("entries are not in key order (-want +got):\n%s", diff)
	}
	assert.Zero(t, snap.Adjustments.Len())
	_, ok := tables.Adjustment(1)
	assert.True(t, ok)
}

func TestInheritedClosureTables(t *testing.T) {
	c := types.NewCtxt()
	inh := check.NewInherited()
	inh.CaptureUpvar(check.UpvarID{Var: 2, ClosureExpr: 9}, check.UpvarCapture{ByRef: true, Region: types.Static()})
	inh.CaptureUpvar(check.UpvarID{Var: 7, ClosureExpr: 4}, check.UpvarCapture{})
	inh.CaptureUpvar(check.UpvarID{Var: 1, ClosureExpr: 9}, check.UpvarCapture{})
	inh.CaptureUpvar(check.UpvarID{Var: 2, ClosureExpr: 9}, check.UpvarCapture{Kind: check.MutBorrow})

	var ids []check.UpvarID
	for _, e := range check.Entries(inh.UpvarCaptures) {
		ids = append(ids, e.Key)
	}
	want := []check.UpvarID{{Var: 7, ClosureExpr: 4}, {Var: 1, ClosureExpr: 9}, {Var: 2, ClosureExpr: 9}}
	if diff := cmp.Diff(want, ids); diff != "" {
		t.Errorf("captures are not ordered by closure then variable (-want +got):\n%s", diff)
	}
	first, ok := inh.UpvarCaptures.Get(check.UpvarID{Var: 2, ClosureExpr: 9})
	require.True(t, ok)
	assert.True(t, first.ByRef, "the first capture recorded wins")

	fty := types.BareFnTy{Sig: types.Bind(types.FnSig{Output: types.Converging(c.Types.Unit)})}
	inh.WriteClosure(8, fty, check.FnMutClosureKind)
	inh.WriteClosure(3, fty, check.FnClosureKind)
	kinds := check.Entries(inh.ClosureKinds)
	assert.Empty(t, cmp.Diff([]check.Entry[types.DefID, check.ClosureKind]{
		{Key: 3, Value: check.FnClosureKind},
		{Key: 8, Value: check.FnMutClosureKind},
	}, kinds))
	assert.Equal(t, 2, inh.ClosureTys.Len())
}

func TestAutoderef(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C

	t.Run("builtin", func(t *testing.T) {
		fcx, _ := newFnCtxt(u)
		expr := hir.NewBuilder().Path("r")
		base := c.MkImmRef(types.Static(), c.MkBox(c.Types.I32))
		got, derefs, stopped := fcx.Autoderef(expr, base, expr, check.UnresolvedError, check.NoPreference, func(t types.Ty, _ uint32) bool {
			return t == c.Types.I32
		})
		require.True(t, stopped)
		assert.Same(t, c.Types.I32, got)
		assert.Equal(t, uint32(2), derefs)
		assert.Empty(t, fcx.Inh.MethodMap)
	})

	t.Run("runs out of derefs", func(t *testing.T) {
		fcx, _ := newFnCtxt(u)
		expr := hir.NewBuilder().Path("w")
		got, derefs, stopped := fcx.Autoderef(expr, c.MkImmRef(types.Static(), u.Widget), expr, check.UnresolvedError, check.NoPreference, func(types.Ty, uint32) bool { return false })
		assert.False(t, stopped)
		assert.Same(t, u.Widget, got)
		assert.Equal(t, uint32(1), derefs)
	})

	type overloaded struct {
		pref  check.LvaluePreference
		trait types.DefID
	}
	for name, tc := range map[string]overloaded{
		"overloaded":         {check.NoPreference, c.Lang.Deref},
		"overloaded mutably": {check.PreferMutLvalue, c.Lang.DerefMut},
	} {
		t.Run(name, func(t *testing.T) {
			fcx, _ := newFnCtxt(u)
			expr := hir.NewBuilder().Path("h")
			got, derefs, stopped := fcx.Autoderef(expr, u.Handle, expr, check.UnresolvedError, tc.pref, func(t types.Ty, _ uint32) bool {
				return t == u.Cell
			})
			require.True(t, stopped)
			assert.Same(t, u.Cell, got)
			assert.Equal(t, uint32(1), derefs)

			callee, ok := fcx.Inh.MethodMap[check.MethodCallAutoderef(expr.ID(), 0)]
			require.True(t, ok, "no overloaded deref recorded: %s", spew.Sdump(fcx.Inh.MethodMap))
			origin, ok := callee.Origin.(check.MethodTypeParam)
			require.True(t, ok)
			assert.Equal(t, tc.trait, origin.TraitRef.Def)
		})
	}

	t.Run("placeholder", func(t *testing.T) {
		fcx, ic := newFnCtxt(u)
		expr := hir.NewBuilder().Path("v")
		got, _, stopped := fcx.Autoderef(expr, ic.NextTyVar(), expr, check.UnresolvedError, check.NoPreference, func(types.Ty, uint32) bool { return true })
		assert.False(t, stopped)
		assert.True(t, types.IsError(got))
		assert.True(t, fcx.Session.HasErrors())
	})
}

func TestAdjustExprTy(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	fcx, _ := newFnCtxt(u)
	expr := hir.NewBuilder().Path("h")
	fcx.WriteTy(expr.ID(), u.Handle)
	_, _, stopped := fcx.Autoderef(expr, u.Handle, expr, check.UnresolvedError, check.NoPreference, func(t types.Ty, _ uint32) bool {
		return t == u.Cell
	})
	require.True(t, stopped)

	adj := check.DerefRef{Autoderefs: 1, Autoref: &check.AutoRef{Region: types.Static(), Mutbl: types.Immutable}}
	once := fcx.AdjustExprTy(expr, adj)
	assert.Same(t, c.MkImmRef(types.Static(), u.Cell), once)
	assert.Same(t, once, fcx.AdjustExprTy(expr, adj), "replaying an adjustment gives the same type")
	assert.Same(t, u.Handle, fcx.AdjustExprTy(expr, nil))

	unsized := check.DerefRef{Autoref: &check.AutoRef{Region: types.Static()}, Unsize: c.MkSlice(c.Types.I32)}
	assert.Same(t, c.MkSlice(c.Types.I32), fcx.AdjustExprTy(expr, unsized))
}

func TestStructurallyResolvedType(t *testing.T) {
	u := fixture.NewUniverse()
	fcx, ic := newFnCtxt(u)
	at := hir.NewBuilder().Path("x")

	v := ic.NextTyVar()
	require.NoError(t, ic.Equate(true, v, u.Cell))
	assert.Same(t, u.Cell, fcx.StructurallyResolvedType(at, v))
	assert.False(t, fcx.Session.HasErrors())

	unknown := ic.NextTyVar()
	assert.True(t, types.IsError(fcx.StructurallyResolvedType(at, unknown)))
	assert.True(t, types.IsError(ic.ShallowResolve(unknown)), "the placeholder is bound to the error type")
	require.Len(t, fcx.Session.Errors.Errors(), 1)
	assert.Equal(t, ilerr.TypeAnnotationsRequired, fcx.Session.Errors.Errors()[0].Code())
}
