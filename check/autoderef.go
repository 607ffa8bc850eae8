package check

import (
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
)

// recursionLimit bounds the number of autoderef steps
const recursionLimit = 64

// UnresolvedTypeAction says what autoderef does on a type placeholder
type UnresolvedTypeAction uint8

const (
	// UnresolvedError reports the placeholder and stops on the error type
	UnresolvedError UnresolvedTypeAction = iota
	// UnresolvedIgnore stops on the placeholder silently
	UnresolvedIgnore
)

// Autoderef dereferences baseTy repeatedly, through builtin pointers and
// overloaded Deref impls, until shouldStop returns true. It returns the type
// reached and the number of dereferences performed. When expr is not nil
// every overloaded deref is recorded in the method map under
// MethodCallAutoderef(expr, step).
//
// An immutable dereference drops a PreferMutLvalue preference for the steps
// below it.
func (fcx *FnCtxt) Autoderef(at hir.Positioner, baseTy types.Ty, expr hir.Expr, action UnresolvedTypeAction, pref LvaluePreference, shouldStop func(t types.Ty, autoderefs uint32) bool) (types.Ty, uint32, bool) {
	t := baseTy
	for autoderefs := uint32(0); autoderefs < recursionLimit; autoderefs++ {
		var resolved types.Ty
		if action == UnresolvedError {
			resolved = fcx.StructurallyResolvedType(at, t)
		} else {
			resolved = fcx.Infer.ResolveTyIfPossible(t)
		}
		if types.IsError(resolved) {
			return resolved, autoderefs, false
		}
		if shouldStop(resolved, autoderefs) {
			return resolved, autoderefs, true
		}

		mt, ok := types.BuiltinDeref(resolved, false)
		if !ok {
			var call *MethodCall
			if expr != nil {
				c := MethodCallAutoderef(expr.ID(), autoderefs)
				call = &c
			}
			// the implicit autoref of an overloaded deref is not recorded
			mt, ok = fcx.TryOverloadedDeref(at, call, nil, resolved, pref)
		}
		if !ok {
			return resolved, autoderefs, false
		}
		t = mt.Ty
		if mt.Mutbl == types.Immutable {
			pref = NoPreference
		}
	}
	fcx.Report(ilerr.New(ilerr.NewAutoderefRecursion{Positioner: hir.RangeOf(at), Base: baseTy}))
	return fcx.C.Types.Err, 0, false
}

// TryOverloadedDeref looks for DerefMut, when preferred, then Deref on
// baseTy. The callee found is recorded under call when not nil, and baseExpr
// receives the autoref the callee takes its receiver with.
func (fcx *FnCtxt) TryOverloadedDeref(at hir.Positioner, call *MethodCall, baseExpr hir.Expr, baseTy types.Ty, pref LvaluePreference) (types.TypeAndMut, bool) {
	lang := fcx.C.Lang
	var callee MethodCallee
	found := false
	if pref == PreferMutLvalue && lang.DerefMut != types.NoDef {
		callee, found = fcx.LookupMethodInTrait(at, baseExpr, "deref_mut", lang.DerefMut, 0, nil, baseTy, nil)
	}
	if !found && lang.Deref != types.NoDef {
		callee, found = fcx.LookupMethodInTrait(at, baseExpr, "deref", lang.Deref, 0, nil, baseTy, nil)
	}
	if !found {
		return types.TypeAndMut{}, false
	}
	return fcx.overloadedLvalueReturn(at, call, callee)
}

// overloadedLvalueReturn records callee and returns the lvalue its `&T`
// return type designates
func (fcx *FnCtxt) overloadedLvalueReturn(at hir.Positioner, call *MethodCall, callee MethodCallee) (types.TypeAndMut, bool) {
	sig, ok := callee.Sig()
	if !ok || sig.Output.Diverging {
		ilerr.Bug(at, "overloaded lvalue operator %v does not return a reference", callee)
	}
	if call != nil {
		fcx.WriteMethod(*call, callee)
	}
	return types.BuiltinDeref(sig.Output.Ty, true)
}

// LookupMethodInTrait builds the callee of the method name of trait for a
// receiver of type selfTy, as used by overloaded operators. It fails when
// the trait cannot be implemented for selfTy. inputTys are the type
// parameters of the trait, fresh placeholders when nil.
//
// When selfExpr is not nil it is recorded as adjusted by autoderefs
// dereferences and the autoref the method takes self by, unsized to
// unsize when not nil.
func (fcx *FnCtxt) LookupMethodInTrait(at hir.Positioner, selfExpr hir.Expr, name string, trait types.DefID, autoderefs uint32, unsize types.Ty, selfTy types.Ty, inputTys []types.Ty) (MethodCallee, bool) {
	def := fcx.C.TraitDef(trait)
	expected := def.Generics.Types.Len(types.TypeSpace)
	if inputTys == nil {
		inputTys = fcx.Infer.NextTyVars(expected)
	} else if len(inputTys) != expected {
		ilerr.Bug(at, "%s takes %d type parameters, %d given", def.Name, expected, len(inputTys))
	}
	if def.Generics.Types.Len(types.FnSpace) != 0 || !def.Generics.Regions.IsEmpty() {
		ilerr.Bug(at, "operator trait %s has method or region parameters", def.Name)
	}
	traitRef := types.TraitRef{Def: trait, Name: def.Name, Substs: types.NewTraitSubsts(selfTy, inputTys, nil)}
	if !fcx.Overloads.PredicateMayHold(at, traitRef) {
		logger.Debug("cannot match operator obligation", "trait", traitRef)
		return MethodCallee{}, false
	}

	method, ok := fcx.C.TraitMethodByName(trait, name)
	if !ok {
		ilerr.Bug(at, "operator trait %s has no method %s", def.Name, name)
	}
	if method.Generics.Types.Len(types.FnSpace) != 0 || method.Generics.Regions.Len(types.FnSpace) != 0 {
		ilerr.Bug(at, "operator method %s is generic", name)
	}
	sig := ReplaceLateBound(fcx, at, types.LateBoundRegion, method.Fty.Sig)
	sig = InstantiateTypeScheme(fcx, at, traitRef.Substs, sig)
	if len(sig.Inputs) == 0 {
		ilerr.Bug(at, "operator method %s takes no receiver", name)
	}
	fty := fcx.C.MkFn(types.NoDef, types.BareFnTy{Unsafety: method.Fty.Unsafety, Abi: method.Fty.Abi, Sig: types.Bind(sig)})

	cause := traits.MiscCause(at, fcx.BodyID)
	fcx.Traits.RegisterPredicate(cause, types.TraitPredicate{Trait: types.Bind(traitRef)})
	fcx.AddObligationsForParameters(cause, method.Predicates.Instantiate(fcx.C, traitRef.Substs))
	fcx.SelectNewObligations()

	if selfExpr != nil {
		switch method.ExplicitSelf.Kind {
		case types.ByValueSelf:
			if unsize != nil {
				ilerr.Bug(at, "operator method %s takes self by value but its receiver is unsized", name)
			}
			fcx.WriteAutoderefAdjustment(selfExpr.ID(), autoderefs)
		case types.ByReferenceSelf:
			ref, ok := sig.Inputs[0].(*types.RefTy)
			if !ok {
				ilerr.Bug(at, "operator method %s takes &self but its first input is %v", name, sig.Inputs[0])
			}
			autoref := &AutoRef{Region: ref.Region, Mutbl: ref.Mt.Mutbl}
			adj := DerefRef{Autoderefs: autoderefs, Autoref: autoref}
			if unsize != nil {
				adj.Unsize = AdjustTyForAutoref(fcx.C, unsize, autoref)
			}
			fcx.WriteAdjustment(selfExpr.ID(), adj)
		default:
			ilerr.Bug(at, "unexpected explicit self of operator method %s", name)
		}
	}
	return MethodCallee{
		Origin: MethodTypeParam{TraitRef: traitRef, MethodNum: fcx.C.TraitDef(trait).MethodIndex(method.Def)},
		Ty:     fty,
		Substs: traitRef.Substs,
	}, true
}

// TryIndexStep indexes a base of type adjustedTy, reached by autoderefs
// dereferences of baseExpr and an optional unsizing, with an index of type
// indexTy. Builtin indexing of arrays and slices by usize wins; otherwise
// IndexMut, when preferred, then Index are looked up and the callee recorded
// under call. It returns the index type the operator expects and the type
// of the indexed lvalue.
func (fcx *FnCtxt) TryIndexStep(call MethodCall, expr, baseExpr hir.Expr, adjustedTy types.Ty, autoderefs uint32, unsize bool, pref LvaluePreference, indexTy types.Ty) (input, output types.Ty, ok bool) {
	c := fcx.C
	if elem, builtin := types.BuiltinIndex(adjustedTy); builtin && isBuiltinIndexTy(fcx.Infer.ShallowResolve(indexTy)) {
		if unsize {
			ilerr.Bug(expr, "array %v was unsized before builtin indexing", adjustedTy)
		}
		logger.Debug("builtin indexing", "expr", expr)
		fcx.WriteAutoderefAdjustment(baseExpr.ID(), autoderefs)
		return c.Types.Usize, elem, true
	}

	var unsizeTy types.Ty
	if unsize {
		unsizeTy = adjustedTy
	}
	inputTy := fcx.Infer.NextTyVar()
	var callee MethodCallee
	found := false
	if pref == PreferMutLvalue && c.Lang.IndexMut != types.NoDef {
		callee, found = fcx.LookupMethodInTrait(expr, baseExpr, "index_mut", c.Lang.IndexMut, autoderefs, unsizeTy, adjustedTy, []types.Ty{inputTy})
	}
	if !found && c.Lang.Index != types.NoDef {
		callee, found = fcx.LookupMethodInTrait(expr, baseExpr, "index", c.Lang.Index, autoderefs, unsizeTy, adjustedTy, []types.Ty{inputTy})
	}
	if !found {
		return nil, nil, false
	}
	logger.Debug("overloaded indexing", "expr", expr, "callee", callee)
	mt, ok := fcx.overloadedLvalueReturn(expr, &call, callee)
	if !ok {
		return nil, nil, false
	}
	return inputTy, mt.Ty, true
}

func isBuiltinIndexTy(t types.Ty) bool {
	switch t := t.(type) {
	case *types.ScalarTy:
		return t.Kind == types.Usize
	case *types.InferTy:
		return t.Kind == types.IntVar
	}
	return false
}

// AdjustExprTy is the type of expr once adj is applied to it. Overloaded
// autoderef steps are read back from the method map.
func (fcx *FnCtxt) AdjustExprTy(expr hir.Expr, adj Adjustment) types.Ty {
	raw := fcx.ExprTy(expr)
	if adj == nil {
		return raw
	}
	d, ok := adj.(DerefRef)
	if !ok {
		// only function pointer coercions, which this checker records but
		// never produces types for
		return raw
	}
	t := raw
	for i := uint32(0); i < d.Autoderefs; i++ {
		if callee, overloaded := fcx.Inh.MethodMap[MethodCallAutoderef(expr.ID(), i)]; overloaded {
			sig, _ := Resolve(fcx, callee).Sig()
			mt, ok := types.BuiltinDeref(sig.Output.Ty, true)
			if !ok {
				ilerr.Bug(expr, "overloaded deref of %v returns %v", t, sig.Output.Ty)
			}
			t = mt.Ty
			continue
		}
		mt, ok := types.BuiltinDeref(fcx.Infer.ResolveTyIfPossible(t), true)
		if !ok {
			ilerr.Bug(expr, "cannot autoderef %v %d times", raw, d.Autoderefs)
		}
		t = mt.Ty
	}
	t = AdjustTyForAutoref(fcx.C, t, d.Autoref)
	if d.Unsize != nil {
		return d.Unsize
	}
	return t
}
