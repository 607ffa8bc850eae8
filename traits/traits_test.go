package traits_test

import (
	"errors"
	"testing"

	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/internal/fixture"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func ref(u *fixture.Universe, trait types.DefID, self types.Ty, params ...types.Ty) types.TraitRef {
	return types.TraitRef{Def: trait, Name: u.C.TraitDef(trait).Name, Substs: types.NewTraitSubsts(self, params, nil)}
}

func pred(r types.TraitRef) types.Predicate { return types.TraitPredicate{Trait: types.Bind(r)} }

func defs(refs []types.PolyTraitRef) []string {
	out := make([]string, len(refs))
	for i, r := range refs {
		out[i] = r.Value.Name + " for " + r.Value.SelfTy().String()
	}
	return out
}

func TestSupertraits(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C

	drawable := types.Bind(ref(u, u.Drawable, u.Widget))
	assert.Equal(t, []string{"Drawable for Widget", "Named for Widget"}, defs(traits.Supertraits(c, drawable)))

	t.Run("upcast", func(t *testing.T) {
		assert.Equal(t, []string{"Named for Widget"}, defs(traits.Upcast(c, drawable, u.NamedTrait)))
		assert.Equal(t, []string{"Drawable for Widget"}, defs(traits.Upcast(c, drawable, u.Drawable)))
		assert.Empty(t, traits.Upcast(c, drawable, c.Lang.Deref))

		derefMut := types.Bind(ref(u, c.Lang.DerefMut, u.Handle))
		assert.Equal(t, []string{"Deref for Handle"}, defs(traits.Upcast(c, derefMut, c.Lang.Deref)))
	})

	t.Run("elaborate", func(t *testing.T) {
		named := pred(ref(u, u.NamedTrait, u.Widget))
		elaborated := traits.Elaborate(c, []types.Predicate{pred(ref(u, u.Drawable, u.Widget)), named})
		assert.Len(t, elaborated, 2, "Named is reached twice but listed once: %v", elaborated)
	})
}

func TestSelect(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	param := c.MkParam(types.FnSpace, 0, "T")

	testCases := []struct {
		name  string
		env   []types.Predicate
		trait func(ic *infer.Ctxt) types.TraitRef
		kind  traits.CandidateKind
		err   error
	}{
		{
			name:  "impl",
			trait: func(*infer.Ctxt) types.TraitRef { return ref(u, u.NamedTrait, u.Widget) },
			kind:  traits.ImplCandidate,
		},
		{
			name:  "where clause through its supertrait",
			env:   []types.Predicate{pred(ref(u, u.Drawable, param))},
			trait: func(*infer.Ctxt) types.TraitRef { return ref(u, u.NamedTrait, param) },
			kind:  traits.ParamCandidate,
		},
		{
			name:  "object",
			trait: func(*infer.Ctxt) types.TraitRef { return ref(u, u.NamedTrait, u.DrawableObject) },
			kind:  traits.ObjectCandidate,
		},
		{
			name:  "int placeholder is matched against impls",
			trait: func(ic *infer.Ctxt) types.TraitRef { return ref(u, c.Lang.Add, ic.NextIntVar(), c.Types.I32) },
			kind:  traits.ImplCandidate,
		},
		{
			name:  "unknown self",
			trait: func(ic *infer.Ctxt) types.TraitRef { return ref(u, u.NamedTrait, ic.NextTyVar()) },
			err:   traits.ErrAmbiguous,
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ic := infer.New(c)
			sel, err := traits.NewSelector(ic, tc.env).Select(nil, tc.trait(ic))
			if tc.err != nil {
				assert.ErrorIs(t, err, tc.err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.kind, sel.Kind)
		})
	}

	t.Run("unimplemented", func(t *testing.T) {
		ic := infer.New(c)
		_, err := traits.NewSelector(ic, nil).Select(nil, ref(u, u.NamedTrait, u.Cell))
		var unimplemented *traits.UnimplementedError
		require.ErrorAs(t, err, &unimplemented)
		assert.Equal(t, "the trait Named is not implemented for Cell", err.Error())
	})

	t.Run("binds the trait parameters", func(t *testing.T) {
		ic := infer.New(c)
		rhs := ic.NextTyVar()
		_, err := traits.NewSelector(ic, nil).Select(nil, ref(u, c.Lang.PartialEq, u.Widget, rhs))
		require.NoError(t, err)
		assert.Same(t, u.Widget, ic.ShallowResolve(rhs))
	})
}

func TestProject(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	projection := func(trait types.DefID, item string, self types.Ty, params ...types.Ty) types.Projection {
		return types.Projection{TraitRef: ref(u, trait, self, params...), Item: item}
	}

	engine := traits.NewEngine(infer.New(c), nil)
	got, ok := engine.Project(nil, projection(c.Lang.Index, "Output", u.Grid, c.Types.Usize))
	require.True(t, ok)
	assert.Same(t, u.Cell, got)

	got, ok = engine.Project(nil, projection(c.Lang.Deref, "Target", u.Handle))
	require.True(t, ok)
	assert.Same(t, u.Cell, got)

	_, ok = engine.Project(nil, projection(c.Lang.Deref, "Target", u.Widget))
	assert.False(t, ok)

	t.Run("deferred until the self type is known", func(t *testing.T) {
		ic := infer.New(c)
		engine := traits.NewEngine(ic, nil)
		self := ic.NextTyVar()
		target := c.MkProjection(projection(c.Lang.Deref, "Target", self))

		out := engine.NormalizeAssociatedTypes(nil, traits.MiscCause(nil, 0), types.TyTerm{Ty: c.MkImmRef(types.Static(), target)})
		normalized := out.(types.TyTerm).Ty
		assert.False(t, normalized.Flags().Has(types.HasProjection))
		require.Len(t, engine.Fulfill.Pending(), 1)

		assert.Empty(t, engine.SelectWherePossible())
		require.Len(t, engine.Fulfill.Pending(), 1, "stays pending while the self type is unknown")

		require.NoError(t, ic.Equate(true, self, u.Handle))
		assert.Empty(t, engine.SelectWherePossible())
		assert.Empty(t, engine.Fulfill.Pending())
		assert.Same(t, c.MkImmRef(types.Static(), u.Cell), ic.ResolveTyIfPossible(normalized))
	})
}

func TestFulfill(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	cause := traits.MiscCause(nil, 1)

	t.Run("ambiguous until known", func(t *testing.T) {
		ic := infer.New(c)
		engine := traits.NewEngine(ic, nil)
		v := ic.NextTyVar()
		engine.RegisterPredicate(cause, pred(ref(u, u.NamedTrait, v)))
		engine.RegisterPredicate(cause, pred(ref(u, u.NamedTrait, v)))
		require.Len(t, engine.Fulfill.Pending(), 1, "identical obligations are registered once")

		assert.Empty(t, engine.SelectWherePossible())
		require.NoError(t, ic.Equate(true, v, u.Widget))
		assert.Empty(t, engine.SelectAll())
	})

	t.Run("left ambiguous", func(t *testing.T) {
		ic := infer.New(c)
		engine := traits.NewEngine(ic, nil)
		engine.RegisterPredicate(cause, pred(ref(u, u.NamedTrait, ic.NextTyVar())))
		errs := engine.SelectAll()
		require.Len(t, errs, 1)
		assert.ErrorIs(t, errs[0], traits.ErrAmbiguous)
		assert.Empty(t, engine.Fulfill.Pending())
	})

	t.Run("unsatisfied", func(t *testing.T) {
		engine := traits.NewEngine(infer.New(c), nil)
		engine.RegisterPredicate(cause, pred(ref(u, u.NamedTrait, u.Grid)))
		errs := engine.SelectAll()
		require.Len(t, errs, 1)
		var unimplemented *traits.UnimplementedError
		assert.True(t, errors.As(errs[0], &unimplemented))
	})

	t.Run("an error sentinel self type holds", func(t *testing.T) {
		engine := traits.NewEngine(infer.New(c), nil)
		engine.RegisterPredicate(cause, pred(ref(u, u.NamedTrait, c.Types.Err)))
		assert.Empty(t, engine.SelectAll())
	})

	t.Run("type outlives", func(t *testing.T) {
		engine := traits.NewEngine(infer.New(c), nil)
		engine.RegisterRegionObligation(c.MkImmRef(types.Static(), c.Types.I32), types.Scope(3), cause)
		assert.Empty(t, engine.SelectAll())

		engine.RegisterRegionObligation(c.MkImmRef(types.Scope(3), c.Types.I32), types.Static(), cause)
		assert.Len(t, engine.SelectAll(), 1)
	})

	t.Run("may hold", func(t *testing.T) {
		ic := infer.New(c)
		engine := traits.NewEngine(ic, nil)
		v := ic.NextTyVar()
		assert.True(t, engine.PredicateMayHold(nil, ref(u, u.NamedTrait, v)))
		assert.True(t, engine.PredicateMayHold(nil, ref(u, u.NamedTrait, u.Widget)))
		assert.False(t, engine.PredicateMayHold(nil, ref(u, u.NamedTrait, u.Cell)))
		assert.Same(t, v, ic.ShallowResolve(v))
	})
}
