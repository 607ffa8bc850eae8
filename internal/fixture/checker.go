package fixture

import (
	"strconv"
	"strings"

	"github.com/cottand/tyck/check"
	"github.com/cottand/tyck/check/method"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/infer"
	"github.com/cottand/tyck/types"
)

type binding struct {
	name string
	id   hir.NodeID
	ty   types.Ty
	// closures is how many closures enclosed the binding
	closures int
}

// checker fills the working tables of fcx the way type checking would,
// confirming method calls with the picks it is given instead of probing
type checker struct {
	u     *Universe
	fcx   *check.FnCtxt
	ic    *infer.Ctxt
	fn    *hir.Fn
	picks map[hir.NodeID]method.Pick

	bindings []binding
	closures []*hir.Closure
	// freeRegions counts the anonymous regions of the signature
	freeRegions uint32
}

func (ck *checker) checkFn() {
	fn := ck.fn
	for _, arg := range fn.Decl.Inputs {
		if arg.Ty == nil {
			ilerr.Bug(arg, "argument without a type annotation")
		}
		t := ck.sigTy(arg.Ty)
		ck.fcx.WriteTy(arg.ID(), t)
		ck.bindPat(arg.Pat, t)
	}
	ret := ck.u.C.Types.Unit
	if fn.Decl.Output != nil {
		ret = ck.sigTy(fn.Decl.Output)
	}
	bodyTy := ck.checkBlock(fn.Body)
	ck.fcx.DemandSuptype(fn.Body, ret, bodyTy)
}

// sigTy converts a type of the signature: its references have anonymous
// free regions of the function
func (ck *checker) sigTy(t hir.Ty) types.Ty {
	return ck.astConv(t, func() types.Region {
		ck.freeRegions++
		return types.Free(uint32(ck.fn.ID()), types.BoundRegion{Index: ck.freeRegions})
	})
}

// bodyTy converts a type written in the body, where elided regions are inferred
func (ck *checker) bodyTy(t hir.Ty) types.Ty {
	return ck.astConv(t, func() types.Region { return ck.ic.NextRegionVar(types.MiscRegion, t) })
}

func (ck *checker) astConv(t hir.Ty, region func() types.Region) types.Ty {
	c := ck.u.C
	switch t := t.(type) {
	case *hir.PathTy:
		named, ok := ck.u.Named[t.Name]
		if !ok {
			ilerr.Bug(t, "unknown type %s", t.Name)
		}
		return named
	case *hir.RefTy:
		mutbl := types.Immutable
		if t.Mutable {
			mutbl = types.Mutable
		}
		return c.MkRef(region(), types.TypeAndMut{Ty: ck.astConv(t.Elem, region), Mutbl: mutbl})
	case *hir.FixedLengthVecTy:
		lit, ok := t.Count.(*hir.Lit)
		if !ok {
			ilerr.Bug(t, "array length is not a literal")
		}
		n, err := strconv.ParseUint(lit.Value, 10, 64)
		if err != nil {
			ilerr.Bug(t, "array length %s: %v", lit.Value, err)
		}
		return c.MkArray(ck.astConv(t.Elem, region), n)
	}
	ilerr.Bug(t, "unknown type annotation %T", t)
	return nil
}

func (ck *checker) bindPat(p hir.Pat, t types.Ty) {
	fcx := ck.fcx
	fcx.WriteTy(p.ID(), t)
	switch p := p.(type) {
	case *hir.BindingPat:
		ck.bindings = append(ck.bindings, binding{name: p.Name, id: p.ID(), ty: t, closures: len(ck.closures)})
	case *hir.TuplePat:
		elems := ck.ic.NextTyVars(len(p.Elems))
		fcx.DemandEqtype(p, t, ck.u.C.MkTup(elems...))
		for i, elem := range p.Elems {
			ck.bindPat(elem, elems[i])
		}
	}
}

func (ck *checker) lookup(at hir.Positioner, name string) types.Ty {
	for i := len(ck.bindings) - 1; i >= 0; i-- {
		b := ck.bindings[i]
		if b.name != name {
			continue
		}
		// every closure between the binding and the use captures it
		for _, closure := range ck.closures[b.closures:] {
			id := check.UpvarID{Var: b.id, ClosureExpr: closure.ID()}
			if _, ok := ck.fcx.Inh.UpvarCaptures.Get(id); !ok {
				region := ck.ic.NextRegionVar(types.MiscRegion, at)
				ck.fcx.Inh.CaptureUpvar(id, check.UpvarCapture{ByRef: true, Kind: check.ImmBorrow, Region: region})
			}
		}
		return b.ty
	}
	ilerr.Bug(at, "unresolved name %s", name)
	return nil
}

func (ck *checker) checkBlock(b *hir.Block) types.Ty {
	mark := len(ck.bindings)
	for _, s := range b.Stmts {
		ck.checkStmt(s)
	}
	t := ck.u.C.Types.Unit
	if b.Tail != nil {
		t = ck.checkExpr(b.Tail, check.NoPreference)
	}
	ck.bindings = ck.bindings[:mark]
	ck.fcx.WriteTy(b.ID(), t)
	return t
}

func (ck *checker) checkStmt(s hir.Stmt) {
	switch s := s.(type) {
	case *hir.LetStmt:
		ck.checkLocal(s.Local)
	case *hir.ExprStmt:
		ck.checkExpr(s.Expr, check.NoPreference)
	}
	ck.fcx.WriteTy(s.ID(), ck.u.C.Types.Unit)
}

func (ck *checker) checkLocal(l *hir.Local) {
	fcx := ck.fcx
	var t types.Ty
	if l.Ty != nil {
		t = ck.bodyTy(l.Ty)
	} else {
		t = ck.ic.NextTyVar()
	}
	fcx.Inh.Locals[l.ID()] = t
	fcx.WriteTy(l.ID(), t)
	if l.Init != nil {
		fcx.DemandSuptype(l.Init, t, ck.checkExpr(l.Init, check.NoPreference))
	}
	ck.bindPat(l.Pat, t)
}

func (ck *checker) checkExpr(e hir.Expr, pref check.LvaluePreference) types.Ty {
	t := ck.exprTy(e, pref)
	ck.fcx.WriteTy(e.ID(), t)
	return t
}

func (ck *checker) exprTy(e hir.Expr, pref check.LvaluePreference) types.Ty {
	c := ck.u.C
	fcx := ck.fcx
	switch e := e.(type) {
	case *hir.Path:
		return ck.lookup(e, e.Name)
	case *hir.Lit:
		return ck.litTy(e)
	case *hir.Paren:
		return ck.checkExpr(e.Inner, pref)
	case *hir.Field:
		return ck.checkField(e, pref)
	case *hir.TupField:
		return ck.checkTupField(e, pref)
	case *hir.Index:
		return ck.checkIndex(e, pref)
	case *hir.Unary:
		operand := ck.checkExpr(e.Operand, pref)
		if e.Op != hir.UnDeref {
			return operand
		}
		resolved := fcx.StructurallyResolvedType(e, operand)
		if mt, ok := types.BuiltinDeref(resolved, true); ok {
			return mt.Ty
		}
		call := check.MethodCallExpr(e.ID())
		if mt, ok := fcx.TryOverloadedDeref(e, &call, e.Operand, resolved, pref); ok {
			return mt.Ty
		}
		ilerr.Bug(e, "type %v cannot be dereferenced", resolved)
	case *hir.Binary:
		return ck.checkBinary(e)
	case *hir.MethodCall:
		return ck.checkMethodCall(e)
	case *hir.Closure:
		return ck.checkClosure(e)
	case *hir.BlockExpr:
		return ck.checkBlock(e.Block)
	}
	ilerr.Bug(e, "unsupported expression %v", hir.ExprString(e))
	return c.Types.Err
}

func (ck *checker) litTy(e *hir.Lit) types.Ty {
	c := ck.u.C
	switch {
	case e.Value == "true", e.Value == "false":
		return c.Types.Bool
	case strings.HasPrefix(e.Value, `"`):
		return c.MkImmRef(types.Static(), c.Types.Str)
	case strings.Contains(e.Value, "."):
		return ck.ic.NextFloatVar()
	default:
		return ck.ic.NextIntVar()
	}
}

// checkField autoderefs the base until a struct with the field appears
func (ck *checker) checkField(e *hir.Field, pref check.LvaluePreference) types.Ty {
	fcx := ck.fcx
	base := ck.checkExpr(e.Base, pref)
	var field types.Ty
	_, n, found := fcx.Autoderef(e, base, e.Base, check.UnresolvedError, pref, func(t types.Ty, _ uint32) bool {
		adt, ok := t.(*types.AdtTy)
		if !ok {
			return false
		}
		declared, ok := ck.u.C.AdtDef(adt.Def).Field(e.Name)
		if ok {
			field = types.SubstTy(ck.u.C, adt.Substs, declared)
		}
		return ok
	})
	if !found {
		ilerr.Bug(e, "no field %s on %v", e.Name, base)
	}
	fcx.WriteAutoderefAdjustment(e.Base.ID(), n)
	return field
}

func (ck *checker) checkTupField(e *hir.TupField, pref check.LvaluePreference) types.Ty {
	fcx := ck.fcx
	base := ck.checkExpr(e.Base, pref)
	var field types.Ty
	_, n, found := fcx.Autoderef(e, base, e.Base, check.UnresolvedError, pref, func(t types.Ty, _ uint32) bool {
		tup, ok := t.(*types.TupleTy)
		if ok && e.Index < len(tup.Elems) {
			field = tup.Elems[e.Index]
			return true
		}
		return false
	})
	if !found {
		ilerr.Bug(e, "no field %d on %v", e.Index, base)
	}
	fcx.WriteAutoderefAdjustment(e.Base.ID(), n)
	return field
}

// checkIndex autoderefs the base until builtin or overloaded indexing applies
func (ck *checker) checkIndex(e *hir.Index, pref check.LvaluePreference) types.Ty {
	fcx := ck.fcx
	base := ck.checkExpr(e.Base, pref)
	index := ck.checkExpr(e.Index, check.NoPreference)
	var input, output types.Ty
	_, _, found := fcx.Autoderef(e, base, e.Base, check.UnresolvedError, pref, func(t types.Ty, n uint32) bool {
		var ok bool
		input, output, ok = fcx.TryIndexStep(check.MethodCallExpr(e.ID()), e, e.Base, t, n, false, pref, index)
		return ok
	})
	if !found {
		ilerr.Bug(e, "cannot index %v", base)
	}
	fcx.DemandEqtype(e.Index, input, index)
	return output
}

// operatorTrait is the lang trait and method overloading op, if any
func (ck *checker) operatorTrait(op hir.BinOp) (types.DefID, string) {
	lang := ck.u.C.Lang
	switch op {
	case hir.BinAdd:
		return lang.Add, "add"
	case hir.BinEq, hir.BinNe:
		return lang.PartialEq, "eq"
	}
	return types.NoDef, ""
}

// checkBinary looks the overloaded operator up speculatively, like checking
// does for every operator, and falls back to the builtin operator when both
// operands are scalars
func (ck *checker) checkBinary(e *hir.Binary) types.Ty {
	c := ck.u.C
	fcx := ck.fcx
	lhs := ck.checkExpr(e.Lhs, check.NoPreference)
	rhs := ck.checkExpr(e.Rhs, check.NoPreference)

	var result types.Ty
	if trait, name := ck.operatorTrait(e.Op); trait != types.NoDef {
		if callee, ok := fcx.LookupMethodInTrait(e, e.Lhs, name, trait, 0, nil, lhs, []types.Ty{rhs}); ok {
			fcx.WriteMethod(check.MethodCallExpr(e.ID()), callee)
			if sig, ok := callee.Sig(); ok && !sig.Output.Diverging {
				result = sig.Output.Ty
			}
		}
	}

	lhsR, rhsR := fcx.Infer.ResolveTyIfPossible(lhs), fcx.Infer.ResolveTyIfPossible(rhs)
	if types.IsScalar(lhsR) && types.IsScalar(rhsR) || result == nil {
		fcx.DemandEqtype(e.Rhs, lhs, rhs)
		// comparisons and the lazy operators
		if !e.Op.IsByValue() {
			return c.Types.Bool
		}
		return lhs
	}
	return result
}

func (ck *checker) checkMethodCall(e *hir.MethodCall) types.Ty {
	fcx := ck.fcx
	receiver := ck.checkExpr(e.Receiver, check.NoPreference)
	pick, ok := ck.picks[e.ID()]
	if !ok {
		ilerr.Bug(e, "no pick for %v", hir.ExprString(e))
	}
	var supplied []types.Ty
	for _, t := range e.TypeArgs {
		supplied = append(supplied, ck.bodyTy(t))
	}
	callee := method.Confirm(fcx, e, e.Receiver, e, receiver, pick, supplied)
	fcx.WriteMethod(check.MethodCallExpr(e.ID()), callee)

	sig, ok := callee.Sig()
	if !ok || len(sig.Inputs) != len(e.Args)+1 {
		ilerr.Bug(e, "%s takes %d arguments, %d given", e.Name, len(sig.Inputs)-1, len(e.Args))
	}
	for i, arg := range e.Args {
		fcx.DemandSuptype(arg, sig.Inputs[i+1], ck.checkExpr(arg, check.NoPreference))
	}
	if sig.Output.Diverging {
		return fcx.C.Types.Err
	}
	return sig.Output.Ty
}

// checkClosure records the signature and kind of a closure under the DefID
// equal to its node id. Every closure is an Fn closure borrowing what it captures.
func (ck *checker) checkClosure(e *hir.Closure) types.Ty {
	c := ck.u.C
	fcx := ck.fcx
	mark := len(ck.bindings)
	ck.closures = append(ck.closures, e)

	inputs := make([]types.Ty, len(e.Decl.Inputs))
	for i, arg := range e.Decl.Inputs {
		if arg.Ty != nil {
			inputs[i] = ck.bodyTy(arg.Ty)
		} else {
			inputs[i] = ck.ic.NextTyVar()
		}
		fcx.WriteTy(arg.ID(), inputs[i])
		ck.bindPat(arg.Pat, inputs[i])
	}
	output := ck.checkBlock(e.Body)
	if e.Decl.Output != nil {
		declared := ck.bodyTy(e.Decl.Output)
		fcx.DemandSuptype(e.Body, declared, output)
		output = declared
	}

	ck.closures = ck.closures[:len(ck.closures)-1]
	ck.bindings = ck.bindings[:mark]

	def := types.DefID(e.ID())
	fty := types.BareFnTy{Abi: types.AbiRustCall, Sig: types.Bind(types.FnSig{Inputs: inputs, Output: types.Converging(output)})}
	fcx.Inh.WriteClosure(def, fty, check.FnClosureKind)
	return c.MkClosure(def, nil)
}
