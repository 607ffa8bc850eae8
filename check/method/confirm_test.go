package method_test

import (
	"testing"

	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/check/method"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/internal/fixture"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// confirmation is one method call `x.m()` on a receiver of a given type,
// ready to be confirmed outside of any function body
type confirmation struct {
	u      *fixture.Universe
	fcx    *check.FnCtxt
	ic     *infer.Ctxt
	engine *traits.Engine
	recv   hir.Expr
	call   *hir.MethodCall
	recvTy types.Ty
}

func newConfirmation(u *fixture.Universe, recvTy types.Ty, env ...types.Predicate) *confirmation {
	ic := infer.New(u.C)
	engine := traits.NewEngine(ic, env)
	b := hir.NewBuilder()
	recv := b.Path("x")
	call := b.MethodCall(recv, "m")
	fcx := check.NewFnCtxt(check.NewSession(), ic, engine, engine, b.NextID())
	fcx.WriteTy(recv.ID(), recvTy)
	return &confirmation{u: u, fcx: fcx, ic: ic, engine: engine, recv: recv, call: call, recvTy: recvTy}
}

func (cf *confirmation) confirm(pick method.Pick, supplied ...types.Ty) check.MethodCallee {
	return method.Confirm(cf.fcx, cf.call, cf.recv, cf.call, cf.recvTy, pick, supplied)
}

// run confirms inside a session so that aborts and bugs come back as errors
func (cf *confirmation) run(pick method.Pick, supplied ...types.Ty) error {
	return cf.fcx.Session.Run(func() error {
		cf.confirm(pick, supplied...)
		return nil
	})
}

func (cf *confirmation) resolved(callee check.MethodCallee) string {
	return cf.ic.ResolveTyIfPossible(callee.Ty).String()
}

func (cf *confirmation) adjustment() string {
	adj, ok := cf.fcx.Inh.Adjustments[cf.recv.ID()]
	if !ok {
		return ""
	}
	return adj.String()
}

func imm() *types.Mutability {
	m := types.Immutable
	return &m
}

func mut() *types.Mutability {
	m := types.Mutable
	return &m
}

func traitRef(u *fixture.Universe, trait types.DefID, self types.Ty, params ...types.Ty) types.TraitRef {
	return types.TraitRef{Def: trait, Name: u.C.TraitDef(trait).Name, Substs: types.NewTraitSubsts(self, params, nil)}
}

func TestConfirmPicks(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	name := u.Method(u.NamedTrait, "name")
	param := c.MkParam(types.FnSpace, 0, "T")

	testCases := []struct {
		name       string
		recvTy     types.Ty
		env        []types.Predicate
		pick       method.Pick
		callee     string
		adjustment string
		origin     func(t *testing.T, o check.MethodOrigin)
	}{
		{
			name:       "inherent",
			recvTy:     u.Widget,
			pick:       method.Pick{Item: u.Method(u.WidgetImpl, "get"), Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Autoref: imm()},
			callee:     "fn(&Widget) -> i32",
			adjustment: "{autoderefs: 0, autoref: &}",
			origin: func(t *testing.T, o check.MethodOrigin) {
				assert.Equal(t, check.MethodStatic{Def: u.Method(u.WidgetImpl, "get").Def}, o)
			},
		},
		{
			name:       "inherent through a reference",
			recvTy:     c.MkImmRef(types.Static(), u.Widget),
			pick:       method.Pick{Item: u.Method(u.WidgetImpl, "get"), Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Autoderefs: 1, Autoref: imm()},
			callee:     "fn(&Widget) -> i32",
			adjustment: "{autoderefs: 1, autoref: &}",
		},
		{
			name:       "extension impl",
			recvTy:     u.Widget,
			pick:       method.Pick{Item: name, Kind: method.ExtensionImplPick{Impl: u.WidgetNamed, MethodNum: 0}, Autoref: imm()},
			callee:     "fn(&Widget) -> &str",
			adjustment: "{autoderefs: 0, autoref: &}",
			origin: func(t *testing.T, o check.MethodOrigin) {
				p, ok := o.(check.MethodTypeParam)
				require.True(t, ok, "origin %v", o)
				assert.Equal(t, u.WidgetNamed, p.Impl)
				assert.Equal(t, u.NamedTrait, p.TraitRef.Def)
				assert.Same(t, u.Widget, p.TraitRef.SelfTy())
			},
		},
		{
			name:       "trait",
			recvTy:     u.Widget,
			pick:       method.Pick{Item: name, Kind: method.TraitPick{Trait: u.NamedTrait, MethodNum: 0}, Autoref: imm()},
			callee:     "fn(&Widget) -> &str",
			adjustment: "{autoderefs: 0, autoref: &}",
			origin: func(t *testing.T, o check.MethodOrigin) {
				p, ok := o.(check.MethodTypeParam)
				require.True(t, ok, "origin %v", o)
				assert.Equal(t, types.NoDef, p.Impl, "the impl is not known yet")
				assert.Equal(t, u.NamedTrait, p.TraitRef.Def)
			},
		},
		{
			name:   "where clause",
			recvTy: param,
			env:    []types.Predicate{types.TraitPredicate{Trait: types.Bind(traitRef(u, u.NamedTrait, param))}},
			pick: method.Pick{
				Item:    name,
				Kind:    method.WhereClausePick{Bound: types.Bind(traitRef(u, u.NamedTrait, param)), MethodNum: 0},
				Autoref: imm(),
			},
			callee:     "fn(&T) -> &str",
			adjustment: "{autoderefs: 0, autoref: &}",
			origin: func(t *testing.T, o check.MethodOrigin) {
				p, ok := o.(check.MethodTypeParam)
				require.True(t, ok, "origin %v", o)
				assert.Same(t, param, p.TraitRef.SelfTy())
			},
		},
		{
			name:       "object",
			recvTy:     c.MkBox(u.DrawableObject),
			pick:       method.Pick{Item: name, Kind: method.ObjectPick{Trait: u.NamedTrait, MethodNum: 0, VtableIndex: 0}, Autoderefs: 1, Autoref: imm()},
			adjustment: "{autoderefs: 1, autoref: &}",
			origin: func(t *testing.T, o check.MethodOrigin) {
				p, ok := o.(check.MethodTraitObject)
				require.True(t, ok, "origin %v", o)
				assert.Equal(t, u.NamedTrait, p.ObjectTraitID)
				assert.Equal(t, u.NamedTrait, p.TraitRef.Def)
				assert.Same(t, u.DrawableObject, p.TraitRef.SelfTy())
			},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cf := newConfirmation(u, tc.recvTy, tc.env...)
			callee := cf.confirm(tc.pick)
			if tc.callee != "" {
				assert.Equal(t, tc.callee, cf.resolved(callee))
			}
			assert.Equal(t, tc.adjustment, cf.adjustment())
			if tc.origin != nil {
				tc.origin(t, check.Resolve(cf.fcx, callee).Origin)
			}
			assert.False(t, cf.fcx.Session.HasErrors(), "unexpected errors: %v", cf.fcx.Session.Errors.Codes())
			assert.Empty(t, cf.engine.SelectAll())
		})
	}
}

func TestConfirmTypeArguments(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	convert := method.Pick{Item: u.Method(u.WidgetImpl, "convert"), Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Autoref: imm()}
	get := method.Pick{Item: u.Method(u.WidgetImpl, "get"), Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Autoref: imm()}

	t.Run("supplied", func(t *testing.T) {
		cf := newConfirmation(u, u.Widget)
		callee := cf.confirm(convert, c.Types.Bool)
		assert.Equal(t, "fn(&Widget, bool) -> bool", cf.resolved(callee))
		assert.False(t, cf.fcx.Session.HasErrors())
	})

	t.Run("inferred", func(t *testing.T) {
		cf := newConfirmation(u, u.Widget)
		callee := cf.confirm(convert)
		sig, ok := callee.Sig()
		require.True(t, ok)
		assert.True(t, types.IsTyVar(cf.ic.ShallowResolve(sig.Output.Ty)))
	})

	t.Run("none taken", func(t *testing.T) {
		cf := newConfirmation(u, u.Widget)
		callee := cf.confirm(get, c.Types.Bool)
		assert.Equal(t, "fn(&Widget) -> i32", cf.resolved(callee))
		assert.Equal(t, []ilerr.ErrCode{ilerr.MethodTakesNoTypeArgs}, cf.fcx.Session.Errors.Codes())
	})

	t.Run("wrong number", func(t *testing.T) {
		cf := newConfirmation(u, u.Widget)
		callee := cf.confirm(convert, c.Types.Bool, c.Types.Char)
		assert.Equal(t, "fn(&Widget, [type error]) -> [type error]", cf.resolved(callee))
		assert.Equal(t, []ilerr.ErrCode{ilerr.WrongNumberOfTypeArgs}, cf.fcx.Session.Errors.Codes())
	})
}

func TestConfirmRegistersMethodPredicates(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	param := c.MkParam(types.FnSpace, 0, "T")
	bounded := *u.Method(u.WidgetImpl, "convert")
	bounded.Predicates = types.GenericPredicates{Predicates: types.NewPerSpace[types.Predicate](nil, nil, []types.Predicate{
		types.TraitPredicate{Trait: types.Bind(traitRef(u, u.NamedTrait, param))},
	})}
	pick := method.Pick{Item: &bounded, Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Autoref: imm()}

	t.Run("satisfied", func(t *testing.T) {
		cf := newConfirmation(u, u.Widget)
		cf.confirm(pick, u.Widget)
		assert.NotEmpty(t, cf.engine.Fulfill.Pending())
		assert.Empty(t, cf.engine.SelectAll())
	})

	t.Run("unsatisfied", func(t *testing.T) {
		cf := newConfirmation(u, u.Widget)
		cf.confirm(pick, u.Cell)
		errs := cf.engine.SelectAll()
		require.Len(t, errs, 1, "errors: %s", spew.Sdump(errs))
		var unimplemented *traits.UnimplementedError
		assert.ErrorAs(t, errs[0], &unimplemented)
	})
}

func TestConfirmRejects(t *testing.T) {
	u := fixture.NewUniverse()
	c := u.C
	name := u.Method(u.NamedTrait, "name")

	// trait Conv<X>; trait Both: Conv<i32> + Conv<bool>
	selfDef := types.TypeParamDef{Name: "Self", Def: c.NewDefID(), Space: types.SelfSpace}
	conv := &types.TraitDef{Def: c.NewDefID(), Name: "Conv", Generics: types.Generics{Types: types.NewPerSpace(
		[]types.TypeParamDef{{Name: "X", Def: c.NewDefID(), Space: types.TypeSpace}},
		[]types.TypeParamDef{selfDef}, nil,
	)}}
	c.AddTrait(conv)
	both := &types.TraitDef{
		Def:         c.NewDefID(),
		Name:        "Both",
		Generics:    types.Generics{Types: types.NewPerSpace(nil, []types.TypeParamDef{selfDef}, nil)},
		Supertraits: []types.TraitRef{traitRef(u, conv.Def, c.MkSelfParam(), c.Types.I32), traitRef(u, conv.Def, c.MkSelfParam(), c.Types.Bool)},
	}
	c.AddTrait(both)
	bothObject := c.MkTrait(types.Bind(types.TraitRef{Def: both.Def, Name: both.Name, Substs: types.EmptySubsts()}), types.ExistentialBounds{RegionBound: types.Static()})

	testCases := []struct {
		name   string
		recvTy types.Ty
		pick   method.Pick
		fatal  ilerr.ErrCode
	}{
		{
			name:   "ambiguous upcast",
			recvTy: c.MkBox(bothObject),
			pick:   method.Pick{Item: name, Kind: method.ObjectPick{Trait: conv.Def}, Autoderefs: 1, Autoref: imm()},
		},
		{
			name:   "destructor from its impl",
			recvTy: u.Cell,
			pick:   method.Pick{Item: u.Method(u.CellDrop, "drop"), Kind: method.InherentImplPick{Impl: u.CellDrop}, Autoref: mut()},
		},
		{
			name:   "explicit destructor call",
			recvTy: u.Cell,
			pick:   method.Pick{Item: u.Method(c.Lang.Drop, "drop"), Kind: method.TraitPick{Trait: c.Lang.Drop}, Autoref: mut()},
			fatal:  ilerr.ExplicitDestructorCall,
		},
		{
			name:   "autoderefs disagree with probing",
			recvTy: u.Widget,
			pick:   method.Pick{Item: u.Method(u.WidgetImpl, "get"), Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Autoderefs: 2, Autoref: imm()},
		},
		{
			name:   "unsize without autoref",
			recvTy: c.MkArray(c.Types.I32, 2),
			pick:   method.Pick{Item: u.Method(u.WidgetImpl, "get"), Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Unsize: c.MkSlice(c.Types.I32)},
		},
		{
			name:   "inherent pick of a trait impl",
			recvTy: u.Widget,
			pick:   method.Pick{Item: name, Kind: method.InherentImplPick{Impl: u.WidgetNamed}, Autoref: imm()},
		},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cf := newConfirmation(u, tc.recvTy)
			err := cf.run(tc.pick)
			require.Error(t, err)
			if tc.fatal != ilerr.None {
				var fatal *ilerr.Fatal
				require.ErrorAs(t, err, &fatal)
				assert.Equal(t, []ilerr.ErrCode{tc.fatal}, cf.fcx.Session.Errors.Codes())
				return
			}
			var bug *ilerr.CompilerBug
			assert.ErrorAs(t, err, &bug)
			assert.False(t, cf.fcx.Session.HasErrors())
		})
	}
}

func TestConfirmScenarios(t *testing.T) {
	u := fixture.NewUniverse()

	t.Run("inherent", func(t *testing.T) {
		s, _ := fixture.Lookup(u, "inherent")
		res := fixture.Check(u, s.Unit)
		require.NoError(t, res.Err)
		require.Empty(t, res.Errors())

		callee, ok := res.Callee(s.Node("call").ID())
		require.True(t, ok)
		sig, ok := callee.Sig()
		require.True(t, ok)
		require.Len(t, sig.Inputs, 1)
		receiver, ok := sig.Inputs[0].(*types.RefTy)
		require.True(t, ok, "receiver %v", sig.Inputs[0])
		assert.Equal(t, types.Immutable, receiver.Mt.Mutbl)
		assert.Same(t, u.Widget, receiver.Mt.Ty)
		assert.Same(t, u.C.Types.I32, sig.Output.Ty)
		assert.Equal(t, check.MethodStatic{Def: u.Method(u.WidgetImpl, "get").Def}, callee.Origin)

		adj, ok := res.Tables.Adjustments.Get(s.Node("receiver").ID())
		require.True(t, ok)
		assert.Equal(t, "{autoderefs: 0, autoref: &}", adj.String())
	})

	t.Run("object", func(t *testing.T) {
		s, _ := fixture.Lookup(u, "object")
		res := fixture.Check(u, s.Unit)
		require.NoError(t, res.Err)
		require.Empty(t, res.Errors())

		for node, want := range map[string]struct {
			trait  types.DefID
			vtable int
		}{
			"name": {u.NamedTrait, 0},
			"draw": {u.Drawable, 1},
		} {
			callee, ok := res.Callee(s.Node(node).ID())
			require.True(t, ok, node)
			origin, ok := callee.Origin.(check.MethodTraitObject)
			require.True(t, ok, "%s: %s", node, spew.Sdump(callee.Origin))
			assert.Equal(t, want.trait, origin.ObjectTraitID, node)
			assert.Equal(t, want.vtable, origin.VtableIndex, node)
			assert.Same(t, u.DrawableObject, origin.TraitRef.SelfTy(), node)
		}
		adj, ok := res.Tables.Adjustments.Get(s.Node("nameReceiver").ID())
		require.True(t, ok)
		assert.Equal(t, "{autoderefs: 1, autoref: &}", adj.String())
	})

	t.Run("reconcile", func(t *testing.T) {
		s, _ := fixture.Lookup(u, "reconcile")
		res := fixture.Check(u, s.Unit)
		require.NoError(t, res.Err)
		require.Empty(t, res.Errors())

		testCases := []struct {
			receiver, call string
			adjustment     string
			trait          types.DefID
		}{
			{receiver: "g", call: "index", adjustment: "{autoderefs: 1, autoref: &mut}", trait: u.C.Lang.IndexMut},
			{receiver: "h", call: "deref", adjustment: "{autoderefs: 0, autoref: &mut}", trait: u.C.Lang.DerefMut},
		}
		for _, tc := range testCases {
			t.Run(tc.call, func(t *testing.T) {
				adj, ok := res.Tables.Adjustments.Get(s.Node(tc.receiver).ID())
				require.True(t, ok)
				assert.Equal(t, tc.adjustment, adj.String())

				callee, ok := res.Callee(s.Node(tc.call).ID())
				require.True(t, ok)
				origin, ok := callee.Origin.(check.MethodTypeParam)
				require.True(t, ok, spew.Sdump(callee.Origin))
				assert.Equal(t, tc.trait, origin.TraitRef.Def)
			})
		}
	})
}

func TestMutableReceiverThroughReference(t *testing.T) {
	u := fixture.NewUniverse()
	b := hir.NewBuilder()
	h := b.Path("h")
	call := b.MethodCall(h, "poke")
	decl := &hir.FnDecl{Inputs: []*hir.Arg{b.Arg(b.Bind("h", false), b.RefTy(b.PathTy("Handle"), true))}}
	unit := fixture.Unit{
		Fn: b.Fn("poke", decl, b.Block(nil, b.Semi(call))),
		Picks: map[hir.NodeID]method.Pick{
			call.ID(): {Item: u.Method(u.HandleImpl, "poke"), Kind: method.InherentImplPick{Impl: u.HandleImpl}, Autoderefs: 1, Autoref: mut()},
		},
	}

	res := fixture.Check(u, unit)
	require.NoError(t, res.Err)
	require.Empty(t, res.Errors())

	adj, ok := res.Tables.Adjustments.Get(h.ID())
	require.True(t, ok)
	assert.Equal(t, "{autoderefs: 1, autoref: &mut}", adj.String())
	assert.Empty(t, res.FnCtxt.Inh.MethodMap, "every callee reaches the permanent tables: %s", spew.Sdump(res.FnCtxt.Inh.MethodMap))
	for n := uint32(0); n < 2; n++ {
		_, ok := res.Tables.MethodMap.Get(check.MethodCallAutoderef(h.ID(), n))
		assert.False(t, ok, "deref %d of h is builtin or not taken", n)
	}
}
