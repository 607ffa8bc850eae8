package infer

import (
	"errors"
	"testing"

	"github.com/cottand/tyck/relate"
	"github.com/cottand/tyck/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func kindOf(t *testing.T, err error) types.ErrorKind {
	var typeErr *types.TypeError
	require.True(t, errors.As(err, &typeErr), "expected a type error, got %v", err)
	return typeErr.Kind
}

func TestSubReflexive(t *testing.T) {
	c := types.NewCtxt()
	scope := types.Scope(4)
	testCases := []types.Ty{
		c.Types.I32,
		c.MkImmRef(scope, c.Types.Str),
		c.MkMutRef(types.Static(), c.MkTup(c.Types.Bool, c.Types.Char)),
		c.MkFnPtr([]types.Ty{c.Types.U8}, c.Types.Unit),
		c.MkArray(c.Types.F64, 2),
	}
	for _, ty := range testCases {
		t.Run(ty.String(), func(t *testing.T) {
			ic := New(c)
			assert.NoError(t, ic.Sub(true, ty, ty))
			assert.NoError(t, ic.Equate(true, ty, ty))

			for _, v := range []types.Variance{types.Covariant, types.Invariant, types.Contravariant} {
				r := ic.Relation(v, true)
				out, err := relate.Relate(r, ty, ty)
				require.NoError(t, err)
				assert.Same(t, ty, out, "%s", r.Tag())
				// the structural case rebuilds the term, which interns to ty again
				out, err = relate.SuperTys(r, ty, ty)
				require.NoError(t, err)
				assert.Same(t, ty, out, "%s", r.Tag())
			}
		})
	}
}

func TestSubRegions(t *testing.T) {
	c := types.NewCtxt()
	scope := types.Scope(4)
	long := c.MkImmRef(types.Static(), c.Types.I32)
	short := c.MkImmRef(scope, c.Types.I32)

	ic := New(c)
	assert.NoError(t, ic.Sub(true, long, short), "a longer borrow can be used as a shorter one")
	assert.Equal(t, types.RegionsMismatch, kindOf(t, ic.Sub(true, short, long)))
	assert.Equal(t, types.RegionsMismatch, kindOf(t, ic.Equate(true, long, short)))
}

func TestMutabilityIsInvariant(t *testing.T) {
	c := types.NewCtxt()
	ic := New(c)
	imm := c.MkImmRef(types.Static(), c.Types.I32)
	mut := c.MkMutRef(types.Static(), c.Types.I32)

	assert.Equal(t, types.MutabilityMismatch, kindOf(t, ic.Sub(true, mut, imm)))
	assert.Equal(t, types.MutabilityMismatch, kindOf(t, ic.Sub(true, imm, mut)))

	// the target of a mutable reference does not widen
	scope := types.Scope(1)
	outer := c.MkMutRef(types.Static(), c.MkImmRef(types.Static(), c.Types.I32))
	inner := c.MkMutRef(types.Static(), c.MkImmRef(scope, c.Types.I32))
	assert.Error(t, ic.Sub(true, outer, inner))
	immOuter := c.MkImmRef(types.Static(), c.MkImmRef(types.Static(), c.Types.I32))
	immInner := c.MkImmRef(types.Static(), c.MkImmRef(scope, c.Types.I32))
	assert.NoError(t, ic.Sub(true, immOuter, immInner))
}

func TestFnSignatures(t *testing.T) {
	c := types.NewCtxt()
	scope := types.Scope(2)
	takesShort := c.MkFnPtr([]types.Ty{c.MkImmRef(scope, c.Types.I32)}, c.Types.Unit)
	takesStatic := c.MkFnPtr([]types.Ty{c.MkImmRef(types.Static(), c.Types.I32)}, c.Types.Unit)

	ic := New(c)
	assert.NoError(t, ic.Sub(true, takesShort, takesStatic), "inputs are contravariant")
	assert.Error(t, ic.Sub(true, takesStatic, takesShort))

	variadic := c.MkFn(types.NoDef, types.BareFnTy{Sig: types.Bind(types.FnSig{
		Inputs:   []types.Ty{c.MkImmRef(scope, c.Types.I32)},
		Output:   types.Converging(c.Types.Unit),
		Variadic: true,
	})})
	assert.Equal(t, types.VariadicMismatch, kindOf(t, ic.Sub(true, takesShort, variadic)))

	twoArgs := c.MkFnPtr([]types.Ty{c.Types.I32, c.Types.I32}, c.Types.Unit)
	oneArg := c.MkFnPtr([]types.Ty{c.Types.I32}, c.Types.Unit)
	assert.Equal(t, types.ArgCount, kindOf(t, ic.Sub(true, twoArgs, oneArg)))

	diverging := c.MkFn(types.NoDef, types.BareFnTy{Sig: types.Bind(types.FnSig{Inputs: []types.Ty{c.Types.I32}, Output: types.Diverges})})
	assert.Equal(t, types.ConvergenceMismatch, kindOf(t, ic.Sub(true, oneArg, diverging)))
}

func TestStructuralMismatches(t *testing.T) {
	c := types.NewCtxt()
	testCases := []struct {
		name string
		a, b types.Ty
		kind types.ErrorKind
	}{
		{"scalars", c.Types.I32, c.Types.Bool, types.Mismatch},
		{"tuple size", c.MkTup(c.Types.I32), c.MkTup(c.Types.I32, c.Types.I32), types.TupleSize},
		{"array size", c.MkArray(c.Types.I32, 2), c.MkArray(c.Types.I32, 3), types.FixedArraySize},
		{"unit against tuple", c.Types.Unit, c.MkTup(c.Types.I32), types.Mismatch},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.kind, kindOf(t, New(c).Sub(true, tc.a, tc.b)))
		})
	}

	t.Run("error sentinel relates to anything", func(t *testing.T) {
		assert.NoError(t, New(c).Sub(true, c.Types.Err, c.Types.Bool))
		assert.NoError(t, New(c).Equate(true, c.MkTup(c.Types.I32), c.Types.Err))
	})
}

func TestExpectedFound(t *testing.T) {
	c := types.NewCtxt()
	var typeErr *types.TypeError
	require.ErrorAs(t, New(c).Sub(true, c.Types.I32, c.Types.Bool), &typeErr)
	assert.Equal(t, c.Types.I32, typeErr.Expected)
	require.ErrorAs(t, New(c).Sub(false, c.Types.I32, c.Types.Bool), &typeErr)
	assert.Equal(t, c.Types.Bool, typeErr.Expected)
}

func TestPlaceholders(t *testing.T) {
	c := types.NewCtxt()

	t.Run("binding", func(t *testing.T) {
		ic := New(c)
		v := ic.NextTyVar()
		require.NoError(t, ic.Sub(true, v, c.MkTup(c.Types.I32, c.Types.Bool)))
		assert.Same(t, c.MkTup(c.Types.I32, c.Types.Bool), ic.ShallowResolve(v))
	})

	t.Run("var against var unifies", func(t *testing.T) {
		ic := New(c)
		a, b := ic.NextTyVar(), ic.NextTyVar()
		require.NoError(t, ic.Sub(true, a, b))
		require.NoError(t, ic.Equate(true, b, c.Types.Char))
		assert.Same(t, c.Types.Char, ic.ShallowResolve(a))
	})

	t.Run("int placeholder", func(t *testing.T) {
		ic := New(c)
		i := ic.NextIntVar()
		assert.Equal(t, types.IntMismatch, kindOf(t, ic.Equate(true, i, c.Types.Bool)))
		assert.Equal(t, types.IntMismatch, kindOf(t, ic.Equate(true, i, ic.NextFloatVar())))
		require.NoError(t, ic.Equate(true, i, c.Types.U8))
		assert.Same(t, c.Types.U8, ic.ShallowResolve(i))
	})

	t.Run("occurs check", func(t *testing.T) {
		ic := New(c)
		v := ic.NextTyVar()
		assert.Equal(t, types.CyclicTy, kindOf(t, ic.Equate(true, v, c.MkBox(v))))
	})

	t.Run("failed relation is undone", func(t *testing.T) {
		ic := New(c)
		v := ic.NextTyVar()
		err := ic.Equate(true, c.MkTup(v, c.Types.I32), c.MkTup(c.Types.Char, c.Types.Bool))
		require.Error(t, err)
		assert.Same(t, v, ic.ShallowResolve(v))
	})

	t.Run("trial unification is discarded", func(t *testing.T) {
		ic := New(c)
		v := ic.NextTyVar()
		require.NoError(t, ic.Probe(func() error { return ic.Equate(true, v, c.Types.I32) }))
		assert.Same(t, v, ic.ShallowResolve(v))
	})
}

func TestResolve(t *testing.T) {
	c := types.NewCtxt()

	t.Run("numeric defaults", func(t *testing.T) {
		ic := New(c)
		i, f := ic.NextIntVar(), ic.NextFloatVar()
		ic.DefaultNumericVars()
		ic.ResolveRegions()
		got, err := ic.FullyResolveTy(c.MkTup(i, f))
		require.NoError(t, err)
		assert.Same(t, c.MkTup(c.Types.I32, c.Types.F64), got)
	})

	t.Run("unconstrained", func(t *testing.T) {
		ic := New(c)
		v := ic.NextTyVar()
		ic.ResolveRegions()
		got, err := ic.FullyResolveTy(c.MkTup(v, c.Types.I32))
		var unresolved *UnresolvedError
		require.ErrorAs(t, err, &unresolved)
		assert.Same(t, v, unresolved.Ty)
		assert.False(t, got.Flags().NeedsInfer(), "the result is placeholder free even on failure")
	})

	t.Run("regions take their lower bound", func(t *testing.T) {
		ic := New(c)
		r := ic.NextRegionVar(types.MiscRegion, nil)
		require.NoError(t, ic.Sub(true, c.MkImmRef(r, c.Types.I32), c.MkImmRef(types.Scope(3), c.Types.I32)))
		ic.ResolveRegions()
		got, err := ic.FullyResolveTy(c.MkImmRef(r, c.Types.I32))
		require.NoError(t, err)
		assert.Same(t, c.MkImmRef(types.Scope(3), c.Types.I32), got)
	})

	t.Run("region without bounds is empty", func(t *testing.T) {
		ic := New(c)
		r := ic.NextRegionVar(types.MiscRegion, nil)
		ic.ResolveRegions()
		got, err := ic.FullyResolveTy(c.MkImmRef(r, c.Types.I32))
		require.NoError(t, err)
		assert.Same(t, c.MkImmRef(types.Empty(), c.Types.I32), got)
	})

	t.Run("idempotent", func(t *testing.T) {
		ic := New(c)
		v := ic.NextTyVar()
		require.NoError(t, ic.Equate(true, v, c.Types.Bool))
		ic.ResolveRegions()
		once, err := ic.FullyResolveTy(c.MkBox(v))
		require.NoError(t, err)
		twice, err := ic.FullyResolveTy(once)
		require.NoError(t, err)
		assert.Same(t, once, twice)
	})
}
