package writeback_test

import (
	"testing"

	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/check/writeback"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/internal/fixture"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func run(t *testing.T, u *fixture.Universe, name string) (*fixture.Scenario, *fixture.Result) {
	t.Helper()
	s, ok := fixture.Lookup(u, name)
	require.True(t, ok, name)
	res := fixture.Check(u, s.Unit)
	require.NoError(t, res.Err)
	return s, res
}

func TestEveryNodeIsResolved(t *testing.T) {
	u := fixture.NewUniverse()
	for _, name := range []string{"inherent", "object", "operators", "closure", "reconcile"} {
		t.Run(name, func(t *testing.T) {
			_, res := run(t, u, name)
			require.Empty(t, res.Errors())
			assert.False(t, res.FnCtxt.WritebackErrors)

			entries := check.Entries(res.Tables.NodeTypes)
			require.NotEmpty(t, entries)
			for _, e := range entries {
				assert.False(t, e.Value.Flags().NeedsInfer(), "#%d: %v", e.Key, e.Value)
			}
			for _, e := range check.Entries(res.Tables.MethodMap) {
				assert.False(t, e.Value.Ty.Flags().NeedsInfer(), "%v: %v", e.Key, e.Value)
			}
			assert.Empty(t, res.FnCtxt.Inh.MethodMap, "every callee moves to the permanent tables")
			assert.Empty(t, res.FnCtxt.Inh.Adjustments, "every adjustment moves to the permanent tables")
		})
	}
}

func TestScalarOperators(t *testing.T) {
	u := fixture.NewUniverse()
	s, res := run(t, u, "operators")
	require.Empty(t, res.Errors())

	for _, node := range []string{"sum", "same", "index"} {
		_, ok := res.Callee(s.Node(node).ID())
		assert.False(t, ok, "%s is a builtin operation", node)
	}
	sum, ok := res.Tables.NodeTy(s.Node("sum").ID())
	require.True(t, ok)
	assert.Same(t, u.C.Types.I32, sum)
	same, ok := res.Tables.NodeTy(s.Node("same").ID())
	require.True(t, ok)
	assert.Same(t, u.C.Types.Bool, same)

	callee, ok := res.Callee(s.Node("widgets").ID())
	require.True(t, ok, "== between widgets goes through PartialEq")
	origin, ok := callee.Origin.(check.MethodTypeParam)
	require.True(t, ok, "origin %v", callee.Origin)
	assert.Equal(t, u.C.Lang.PartialEq, origin.TraitRef.Def)
	assert.Same(t, u.Widget, origin.TraitRef.SelfTy())
}

func TestClosures(t *testing.T) {
	u := fixture.NewUniverse()
	s, res := run(t, u, "closure")
	require.Empty(t, res.Errors())

	add, count := s.Node("add").ID(), s.Node("count").ID()
	var captured []check.UpvarID
	for _, e := range check.Entries(res.Tables.UpvarCaptures) {
		captured = append(captured, e.Key)
		assert.True(t, e.Value.ByRef, "%v", e.Key)
		assert.Equal(t, check.ImmBorrow, e.Value.Kind, "%v", e.Key)
		assert.NotEqual(t, types.ReVar, e.Value.Region.Kind, "%v", e.Key)
	}
	want := []check.UpvarID{
		{Var: s.Node("y").ID(), ClosureExpr: add},
		{Var: s.Node("w").ID(), ClosureExpr: count},
	}
	assert.ElementsMatch(t, want, captured)

	fty, ok := res.Tables.ClosureTys.Get(types.DefID(add))
	require.True(t, ok)
	require.Len(t, fty.Sig.Value.Inputs, 1)
	assert.Same(t, u.C.Types.I32, fty.Sig.Value.Inputs[0])
	assert.Same(t, u.C.Types.I32, fty.Sig.Value.Output.Ty)
	fty, ok = res.Tables.ClosureTys.Get(types.DefID(count))
	require.True(t, ok)
	assert.Empty(t, fty.Sig.Value.Inputs)

	kinds := check.Entries(res.Tables.ClosureKinds)
	assert.Empty(t, cmp.Diff([]check.Entry[types.DefID, check.ClosureKind]{
		{Key: types.DefID(add), Value: check.FnClosureKind},
		{Key: types.DefID(count), Value: check.FnClosureKind},
	}, kinds))
}

func TestUnresolvedPlaceholders(t *testing.T) {
	u := fixture.NewUniverse()

	t.Run("reported once per function", func(t *testing.T) {
		s, res := run(t, u, "ambiguous")
		assert.Equal(t, []ilerr.ErrCode{ilerr.CannotDetermineLocal}, res.Session.Errors.Codes())
		assert.True(t, res.FnCtxt.WritebackErrors)

		for _, node := range []string{"x", "y"} {
			ty, ok := res.Tables.NodeTy(s.Node(node).ID())
			require.True(t, ok, "%s still reaches the tables", node)
			assert.Same(t, u.C.Types.Err, ty, node)
		}
		z, ok := res.Tables.NodeTy(s.Node("z").ID())
		require.True(t, ok)
		assert.Same(t, u.C.Types.I32, z, "z defaults to i32")
	})

	newFnCtxt := func() (*check.FnCtxt, *hir.Builder) {
		ic := infer.New(u.C)
		engine := traits.NewEngine(ic, nil)
		b := hir.NewBuilder()
		return check.NewFnCtxt(check.NewSession(), ic, engine, engine, b.NextID()), b
	}

	t.Run("not reported after earlier errors", func(t *testing.T) {
		fcx, b := newFnCtxt()
		e := b.Path("x")
		fcx.WriteTy(e.ID(), fcx.Infer.NextTyVar())
		fcx.Report(ilerr.New(ilerr.NewTypeAnnotationsRequired{Positioner: e}))

		writeback.ResolveTypeVarsInExpr(fcx, e)
		assert.Equal(t, []ilerr.ErrCode{ilerr.TypeAnnotationsRequired}, fcx.Session.Errors.Codes())
		assert.True(t, fcx.WritebackErrors)
		ty, ok := fcx.Tables.NodeTy(e.ID())
		require.True(t, ok)
		assert.Same(t, u.C.Types.Err, ty)
	})

	t.Run("expression", func(t *testing.T) {
		fcx, b := newFnCtxt()
		e := b.Path("x")
		fcx.WriteTy(e.ID(), fcx.Infer.NextTyVar())

		writeback.ResolveTypeVarsInExpr(fcx, e)
		assert.Equal(t, []ilerr.ErrCode{ilerr.CannotDetermineExprType}, fcx.Session.Errors.Codes())
	})

	t.Run("second writeback is a bug", func(t *testing.T) {
		fcx, b := newFnCtxt()
		e := b.Path("x")
		fcx.WriteTy(e.ID(), fcx.Infer.NextTyVar())
		writeback.ResolveTypeVarsInExpr(fcx, e)

		err := fcx.Session.Run(func() error {
			writeback.ResolveTypeVarsInExpr(fcx, e)
			return nil
		})
		var bug *ilerr.CompilerBug
		assert.ErrorAs(t, err, &bug)
	})
}
