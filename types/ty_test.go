package types

import (
	"testing"

	"github.com/cottand/tyck/ilerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestInterning(t *testing.T) {
	c := NewCtxt()
	def := c.NewDefID()
	testCases := []struct {
		name string
		mk   func() Ty
	}{
		{"scalar", func() Ty { return c.MkScalar(I32) }},
		{"ref", func() Ty { return c.MkImmRef(Static(), c.Types.Bool) }},
		{"tuple", func() Ty { return c.MkTup(c.Types.I32, c.Types.Str) }},
		{"array", func() Ty { return c.MkArray(c.Types.U8, 4) }},
		{"fn pointer", func() Ty { return c.MkFnPtr([]Ty{c.Types.I32}, c.Types.Unit) }},
		{"struct", func() Ty {
			return c.MkAdt(StructKind, def, "Pair", NewSubsts(NewPerSpace([]Ty{c.Types.Char}, nil, nil), PerSpace[Region]{}))
		}},
		{"param", func() Ty { return c.MkParam(FnSpace, 0, "T") }},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Same(t, tc.mk(), tc.mk())
		})
	}

	t.Run("distinct", func(t *testing.T) {
		assert.NotSame(t, c.MkImmRef(Static(), c.Types.I32), c.MkMutRef(Static(), c.Types.I32))
		assert.NotSame(t, c.MkArray(c.Types.U8, 4), c.MkArray(c.Types.U8, 5))
		assert.Same(t, c.Types.I32, c.MkScalar(I32))
		assert.Same(t, c.Types.Unit, c.MkTup())
	})
}

func TestFlags(t *testing.T) {
	c := NewCtxt()
	v := c.MkTyVar(0)
	testCases := []struct {
		name     string
		ty       Ty
		has      TypeFlags
		needsInf bool
	}{
		{"scalar", c.Types.I32, 0, false},
		{"placeholder", v, HasTyInfer, true},
		{"ref to placeholder", c.MkImmRef(Static(), v), HasTyInfer, true},
		{"region placeholder", c.MkImmRef(RegionVar(0), c.Types.I32), HasRegionInfer, true},
		{"self", c.MkSelfParam(), HasParams | HasSelf, false},
		{"late bound", c.MkImmRef(LateBound(1, BoundRegion{Index: 0, Name: "'a"}), c.Types.I32), HasLateBound, false},
		{"error", c.MkTup(c.Types.Err), HasTyErr, false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			if tc.has != 0 {
				assert.True(t, tc.ty.Flags().Has(tc.has), "flags of %s: %b", tc.ty, tc.ty.Flags())
			} else {
				assert.Zero(t, tc.ty.Flags())
			}
			assert.Equal(t, tc.needsInf, tc.ty.Flags().NeedsInfer())
		})
	}
}

func TestSubst(t *testing.T) {
	c := NewCtxt()
	tParam := c.MkParam(TypeSpace, 0, "T")
	uParam := c.MkParam(FnSpace, 0, "U")
	a := EarlyBound(TypeSpace, 0, "'a")
	ty := c.MkTup(c.MkImmRef(a, tParam), uParam)

	substs := NewSubsts(
		NewPerSpace([]Ty{c.Types.I32}, nil, []Ty{c.Types.Bool}),
		NewPerSpace([]Region{Static()}, nil, nil),
	)
	got := SubstTy(c, substs, ty)
	assert.Same(t, c.MkTup(c.MkImmRef(Static(), c.Types.I32), c.Types.Bool), got)

	t.Run("missing parameter is a bug", func(t *testing.T) {
		short := NewSubsts(NewPerSpace([]Ty{c.Types.I32}, nil, nil), NewPerSpace([]Region{Static()}, nil, nil))
		defer func() {
			r := recover()
			_, ok := ilerr.AsAbort(r)
			assert.True(t, ok, "expected a compiler bug, got %v", r)
		}()
		SubstTy(c, short, ty)
	})

	t.Run("with method", func(t *testing.T) {
		m := substs.WithMethod([]Ty{c.Types.Char}, nil)
		got, ok := m.Type(FnSpace, 0)
		require.True(t, ok)
		assert.Same(t, c.Types.Char, got)
		orig, _ := substs.Type(FnSpace, 0)
		assert.Same(t, c.Types.Bool, orig, "substitutions are never mutated")
	})
}

func TestReplaceLateBoundRegions(t *testing.T) {
	c := NewCtxt()
	a := LateBound(1, BoundRegion{Index: 0, Name: "'a"})
	sig := FnSig{Inputs: []Ty{c.MkImmRef(a, c.Types.I32)}, Output: Converging(c.MkImmRef(a, c.Types.I32))}

	calls := 0
	got, chosen := ReplaceLateBoundRegions(c, Bind(sig), func(BoundRegion) Region {
		calls++
		return RegionVar(7)
	})
	assert.Equal(t, 1, calls, "each bound region is replaced once")
	assert.Len(t, chosen, 1)
	assert.Same(t, c.MkImmRef(RegionVar(7), c.Types.I32), got.Inputs[0])
	assert.Same(t, got.Inputs[0], got.Output.Ty)

	liberated := Liberate(c, 3, Bind(sig))
	ref, ok := liberated.Inputs[0].(*RefTy)
	require.True(t, ok)
	assert.Equal(t, ReFree, ref.Region.Kind)
	assert.Equal(t, "'a", ref.Region.String())
}

func TestString(t *testing.T) {
	c := NewCtxt()
	testCases := []struct {
		ty       Ty
		expected string
	}{
		{c.MkImmRef(Static(), c.Types.Str), "&'static str"},
		{c.MkMutRef(RegionVar(2), c.Types.I32), "&mut i32"},
		{c.MkFnPtr([]Ty{c.Types.I32}, c.Types.Bool), "fn(i32) -> bool"},
		{c.MkTup(c.Types.I32), "(i32,)"},
		{c.MkInfer(IntVar, 4), "_#4i"},
		{c.MkBox(c.Types.U8), "Box<u8>"},
	}
	for _, tc := range testCases {
		t.Run(tc.expected, func(t *testing.T) {
			assert.Equal(t, tc.expected, tc.ty.String())
		})
	}
}

func TestIsScalar(t *testing.T) {
	c := NewCtxt()
	item := c.MkFn(c.NewDefID(), BareFnTy{Sig: Bind(FnSig{Inputs: []Ty{c.Types.I32}, Output: Converging(c.Types.Bool)})})
	testCases := []struct {
		name   string
		ty     Ty
		scalar bool
	}{
		{"integer", c.Types.I32, true},
		{"fn item", item, true},
		{"fn pointer", c.MkFnPtr([]Ty{c.Types.I32}, c.Types.Unit), true},
		{"box", c.MkBox(c.Types.I32), false},
		{"tuple", c.MkTup(c.Types.I32, c.Types.I32), false},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.scalar, IsScalar(tc.ty))
		})
	}
}
