package method

import (
	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/internal/log"
	"github.com/cottand/tyck/traits"
	"github.com/cottand/tyck/types"
)

var logger = log.DefaultLogger.With("section", "confirm")

type confirmCtxt struct {
	fcx      *check.FnCtxt
	span     hir.Positioner
	selfExpr hir.Expr
	callExpr hir.Expr
}

// Confirm turns pick, the method probing selected for the call callExpr
// with receiver selfExpr of type unadjustedSelfTy, into a fully typed
// callee. supplied are the explicit type arguments of the call.
//
// The adjustment of the receiver is recorded, and so are the obligations of
// the method. Confirm panics through ilerr when pick contradicts the
// guarantees of probing.
func Confirm(fcx *check.FnCtxt, span hir.Positioner, selfExpr, callExpr hir.Expr, unadjustedSelfTy types.Ty, pick Pick, supplied []types.Ty) check.MethodCallee {
	logger.Debug("confirm", "selfTy", unadjustedSelfTy, "pick", pick, "supplied", len(supplied))
	cx := &confirmCtxt{fcx: fcx, span: span, selfExpr: selfExpr, callExpr: callExpr}
	return cx.confirm(unadjustedSelfTy, pick, supplied)
}

func (cx *confirmCtxt) confirm(unadjustedSelfTy types.Ty, pick Pick, supplied []types.Ty) check.MethodCallee {
	selfTy := cx.adjustSelfTy(unadjustedSelfTy, pick)

	cx.enforceIllegalMethodLimitations(pick)

	rcvrSubsts, origin := cx.freshReceiverSubsts(selfTy, pick)
	methodTypes, methodRegions := cx.instantiateMethodSubsts(pick, supplied)
	allSubsts := rcvrSubsts.WithMethod(methodTypes, methodRegions)
	logger.Debug("all substs", "substs", allSubsts)

	sig, predicates := cx.instantiateMethodSig(pick, allSubsts)
	if len(sig.Inputs) == 0 {
		ilerr.Bug(cx.span, "method %s has no receiver", pick.Item.Name)
	}
	cx.unifyReceivers(selfTy, sig.Inputs[0])

	cx.addObligations(allSubsts, predicates)

	fty := cx.fcx.C.MkFn(types.NoDef, types.BareFnTy{
		Unsafety: pick.Item.Fty.Unsafety,
		Abi:      pick.Item.Fty.Abi,
		Sig:      types.Bind(sig),
	})
	callee := check.MethodCallee{Origin: origin, Ty: fty, Substs: allSubsts}

	cx.fixupDerefsOnMethodReceiverIfNecessary(callee)
	return callee
}

// adjustSelfTy replays the autoderefs of pick on the receiver, applies its
// autoref and unsizing and records the resulting adjustment
func (cx *confirmCtxt) adjustSelfTy(unadjustedSelfTy types.Ty, pick Pick) types.Ty {
	fcx := cx.fcx
	var autoref *check.AutoRef
	var unsize types.Ty
	if pick.Autoref != nil {
		region := fcx.Infer.NextRegionVar(types.AutorefRegion, cx.span)
		autoref = &check.AutoRef{Region: region, Mutbl: *pick.Autoref}
		if pick.Unsize != nil {
			unsize = check.AdjustTyForAutoref(fcx.C, pick.Unsize, autoref)
		}
	} else if pick.Unsize != nil {
		// unsizing only happens behind the autoref of the receiver
		ilerr.Bug(cx.span, "unsizing to %v without autoref", pick.Unsize)
	}

	autoderefd, n, stopped := fcx.Autoderef(cx.span, unadjustedSelfTy, cx.selfExpr, check.UnresolvedError, check.NoPreference,
		func(_ types.Ty, n uint32) bool { return n == pick.Autoderefs })
	if n != pick.Autoderefs || !stopped {
		ilerr.Bug(cx.span, "receiver %v autoderefs %d times, probing saw %d", unadjustedSelfTy, n, pick.Autoderefs)
	}

	fcx.WriteAdjustment(cx.selfExpr.ID(), check.DerefRef{Autoderefs: pick.Autoderefs, Autoref: autoref, Unsize: unsize})

	if unsize != nil {
		return unsize
	}
	return check.AdjustTyForAutoref(fcx.C, autoderefd, autoref)
}

// enforceIllegalMethodLimitations rejects direct calls of destructors
func (cx *confirmCtxt) enforceIllegalMethodLimitations(pick Pick) {
	c := cx.fcx.C
	switch pick.Item.Container.Kind {
	case types.TraitContainer:
		if c.Lang.Drop != types.NoDef && pick.Item.Container.Def == c.Lang.Drop {
			ilerr.Abort(ilerr.New(ilerr.NewExplicitDestructorCall{Positioner: hir.RangeOf(cx.span)}))
		}
	case types.ImplContainer:
		// drop is only reachable through its trait
		if c.Destructors.Contains(pick.Item.Def) {
			ilerr.Bug(cx.span, "destructor %s picked from its impl", pick.Item.Name)
		}
	}
}

// freshReceiverSubsts builds the substitutions of the container of the
// method, without the parameters of the method itself, and the origin of
// the callee
func (cx *confirmCtxt) freshReceiverSubsts(selfTy types.Ty, pick Pick) (*types.Substs, check.MethodOrigin) {
	fcx := cx.fcx
	c := fcx.C
	switch kind := pick.Kind.(type) {
	case InherentImplPick:
		impl := c.ImplDef(kind.Impl)
		if impl.TraitRef != nil {
			ilerr.Bug(cx.span, "impl %d is not an inherent impl", kind.Impl)
		}
		return fcx.Infer.FreshSubstsForGenerics(cx.span, impl.Generics), check.MethodStatic{Def: pick.Item.Def}

	case ObjectPick:
		object, objectTy := cx.extractTraitObject(selfTy)
		// the object type stands for Self: object safety rules out the
		// cases where this substitution is unsound
		original := c.PrincipalWithSelfTy(object, objectTy)
		upcast := cx.upcast(original, kind.Trait)
		traitRef := check.ReplaceLateBound(fcx, cx.span, types.LateBoundRegion, upcast)
		logger.Debug("object receiver", "original", original.Value, "upcast", traitRef, "target", kind.Trait)
		return traitRef.Substs, check.MethodTraitObject{
			TraitRef:      traitRef,
			ObjectTraitID: kind.Trait,
			MethodNum:     kind.MethodNum,
			VtableIndex:   kind.VtableIndex,
		}

	case ExtensionImplPick:
		// the method is the one declared by the trait, so the substitutions
		// are those of the trait reference of the impl, not of the impl
		impl := c.ImplDef(kind.Impl)
		if impl.TraitRef == nil {
			ilerr.Bug(cx.span, "impl %d does not implement a trait", kind.Impl)
		}
		implSubsts := fcx.Infer.FreshSubstsForGenerics(cx.span, impl.Generics)
		traitRef := check.InstantiateTypeScheme(fcx, cx.span, implSubsts, *impl.TraitRef)
		return traitRef.Substs, check.MethodTypeParam{TraitRef: traitRef, MethodNum: kind.MethodNum, Impl: kind.Impl}

	case TraitPick:
		// `$0: Trait<$1, ..., $n>`, every placeholder to be found by
		// unifying the receiver
		def := c.TraitDef(kind.Trait)
		substs := fcx.Infer.FreshSubstsForGenerics(cx.span, def.Generics)
		traitRef := types.TraitRef{Def: def.Def, Name: def.Name, Substs: substs}
		return substs, check.MethodTypeParam{TraitRef: traitRef, MethodNum: kind.MethodNum}

	case WhereClausePick:
		traitRef := check.ReplaceLateBound(fcx, cx.span, types.LateBoundRegion, kind.Bound)
		return traitRef.Substs, check.MethodTypeParam{TraitRef: traitRef, MethodNum: kind.MethodNum}
	}
	ilerr.Bug(cx.span, "unknown pick %v", pick.Kind)
	return nil, nil
}

// extractTraitObject autoderefs selfTy until a trait object appears
func (cx *confirmCtxt) extractTraitObject(selfTy types.Ty) (*types.TraitObjectTy, types.Ty) {
	var object *types.TraitObjectTy
	objectTy, _, found := cx.fcx.Autoderef(cx.span, selfTy, nil, check.UnresolvedError, check.NoPreference,
		func(t types.Ty, _ uint32) bool {
			object, _ = t.(*types.TraitObjectTy)
			return object != nil
		})
	if !found {
		ilerr.Bug(cx.span, "self type %v of an object pick never dereferences to an object", selfTy)
	}
	return object, objectTy
}

// upcast expects exactly one reference to target amongst the supertraits of source
func (cx *confirmCtxt) upcast(source types.PolyTraitRef, target types.DefID) types.PolyTraitRef {
	refs := cx.fcx.Traits.Upcast(source, target)
	if len(refs) != 1 {
		ilerr.Bug(cx.span, "cannot uniquely upcast %v to trait %d: %d candidates", source.Value, target, len(refs))
	}
	return refs[0]
}

// instantiateMethodSubsts determines the method space of the substitutions:
// the supplied type arguments, or fresh placeholders when there are none
func (cx *confirmCtxt) instantiateMethodSubsts(pick Pick, supplied []types.Ty) ([]types.Ty, []types.Region) {
	fcx := cx.fcx
	numSupplied := len(supplied)
	numMethod := pick.Item.Generics.Types.Len(types.FnSpace)

	var methodTypes []types.Ty
	switch {
	case numSupplied == 0:
		methodTypes = fcx.Infer.NextTyVars(numMethod)
	case numMethod == 0:
		fcx.Report(ilerr.New(ilerr.NewMethodTakesNoTypeArgs{Positioner: hir.RangeOf(cx.span), Supplied: numSupplied}))
		methodTypes = fcx.Infer.NextTyVars(numMethod)
	case numSupplied != numMethod:
		fcx.Report(ilerr.New(ilerr.NewWrongNumberOfTypeArgs{Positioner: hir.RangeOf(cx.span), Expected: numMethod, Supplied: numSupplied}))
		methodTypes = make([]types.Ty, numMethod)
		for i := range methodTypes {
			methodTypes[i] = fcx.C.Types.Err
		}
	default:
		methodTypes = supplied
	}

	// lifetimes cannot be supplied explicitly
	methodRegions := fcx.Infer.RegionVarsForDefs(cx.span, pick.Item.Generics.Regions.Slice(types.FnSpace))
	return methodTypes, methodRegions
}

// instantiateMethodSig instantiates the predicates and the signature of the
// method with allSubsts. The late-bound regions of the signature are replaced
// first so that normalization sees the regions the signature will have.
func (cx *confirmCtxt) instantiateMethodSig(pick Pick, allSubsts *types.Substs) (types.FnSig, types.InstantiatedPredicates) {
	fcx := cx.fcx
	predicates := pick.Item.Predicates.Instantiate(fcx.C, allSubsts)
	predicates = check.NormalizeAssociatedTypesIn(fcx, cx.span, predicates)
	logger.Debug("method predicates", "predicates", predicates.All())

	sig := check.ReplaceLateBound(fcx, cx.span, types.LateBoundRegion, pick.Item.Fty.Sig)
	sig = check.InstantiateTypeScheme(fcx, cx.span, allSubsts, sig)
	logger.Debug("method signature", "sig", types.BareFnTy{Sig: types.Bind(sig)})
	return sig, predicates
}

// unifyReceivers requires the adjusted receiver to be a subtype of what the
// method takes: probing already established it
func (cx *confirmCtxt) unifyReceivers(selfTy, methodSelfTy types.Ty) {
	if err := cx.fcx.Infer.Sub(false, selfTy, methodSelfTy); err != nil {
		ilerr.Bug(cx.span, "%v was a subtype of %v but now is not: %v", selfTy, methodSelfTy, err)
	}
}

func (cx *confirmCtxt) addObligations(allSubsts *types.Substs, predicates types.InstantiatedPredicates) {
	fcx := cx.fcx
	fcx.AddObligationsForParameters(traits.MiscCause(cx.span, fcx.BodyID), predicates)
	fcx.AddDefaultRegionParamBounds(allSubsts, cx.callExpr)
}
