// Package infer is a small inference oracle: it mints type and region
// placeholders, relates terms by unification and resolves placeholders once
// checking of a function is over.
package infer

import (
	"slices"

	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/internal/log"
	"github.com/cottand/tyck/types"
)

var logger = log.DefaultLogger.With("section", "infer")

// tyVar is a node of the union-find forest of type placeholders. Only roots
// carry a value.
type tyVar struct {
	kind   types.InferKind
	parent uint32
	value  types.Ty
}

type regionVar struct {
	origin types.RegionOrigin
	at     hir.Range
}

// Ctxt is the per-function oracle state
type Ctxt struct {
	C *types.Ctxt

	tyVars      []tyVar
	regionVars  []regionVar
	constraints []constraint

	// regionValues is set by ResolveRegions
	regionValues   []regionValue
	regionsSolved  bool
	nextSkolemized uint32
}

func New(c *types.Ctxt) *Ctxt {
	return &Ctxt{C: c}
}

func (ic *Ctxt) Ctxt() *types.Ctxt { return ic.C }

func (ic *Ctxt) nextVar(kind types.InferKind) types.Ty {
	vid := uint32(len(ic.tyVars))
	ic.tyVars = append(ic.tyVars, tyVar{kind: kind, parent: vid})
	return ic.C.MkInfer(kind, vid)
}

func (ic *Ctxt) NextTyVar() types.Ty    { return ic.nextVar(types.TyVar) }
func (ic *Ctxt) NextIntVar() types.Ty   { return ic.nextVar(types.IntVar) }
func (ic *Ctxt) NextFloatVar() types.Ty { return ic.nextVar(types.FloatVar) }

func (ic *Ctxt) NextTyVars(n int) []types.Ty {
	if n == 0 {
		return nil
	}
	out := make([]types.Ty, n)
	for i := range out {
		out[i] = ic.NextTyVar()
	}
	return out
}

func (ic *Ctxt) NextRegionVar(origin types.RegionOrigin, at hir.Positioner) types.Region {
	vid := uint32(len(ic.regionVars))
	ic.regionVars = append(ic.regionVars, regionVar{origin: origin, at: hir.RangeOf(at)})
	logger.Debug("new region placeholder", "vid", vid, "origin", origin)
	return types.RegionVar(vid)
}

func (ic *Ctxt) RegionVarsForDefs(at hir.Positioner, defs []types.RegionParamDef) []types.Region {
	if len(defs) == 0 {
		return nil
	}
	out := make([]types.Region, len(defs))
	for i := range defs {
		out[i] = ic.NextRegionVar(types.EarlyBoundRegion, at)
	}
	return out
}

// FreshSubstsForGenerics mints one placeholder per parameter of every space of g
func (ic *Ctxt) FreshSubstsForGenerics(at hir.Positioner, g types.Generics) *types.Substs {
	tys := types.MapPerSpace(g.Types, func(types.TypeParamDef) types.Ty { return ic.NextTyVar() })
	regions := types.MapPerSpace(g.Regions, func(types.RegionParamDef) types.Region {
		return ic.NextRegionVar(types.EarlyBoundRegion, at)
	})
	return types.NewSubsts(tys, regions)
}

// ReplaceLateBoundRegionsWithFresh instantiates every region bound by the
// binder whose value is value with a fresh placeholder
func (ic *Ctxt) ReplaceLateBoundRegionsWithFresh(at hir.Positioner, origin types.RegionOrigin, value types.Foldable) (types.Foldable, map[types.BoundRegion]types.Region) {
	return types.ReplaceLateBoundRegions(ic.C, types.Bind(value), func(types.BoundRegion) types.Region {
		return ic.NextRegionVar(origin, at)
	})
}

func (ic *Ctxt) find(vid uint32) uint32 {
	for ic.tyVars[vid].parent != vid {
		grand := ic.tyVars[ic.tyVars[vid].parent].parent
		ic.tyVars[vid].parent = grand
		vid = grand
	}
	return vid
}

// ShallowResolve follows placeholder bindings at the root of t only
func (ic *Ctxt) ShallowResolve(t types.Ty) types.Ty {
	for {
		v, ok := t.(*types.InferTy)
		if !ok {
			return t
		}
		root := ic.find(v.Vid)
		value := ic.tyVars[root].value
		if value == nil {
			if root == v.Vid {
				return t
			}
			return ic.C.MkInfer(ic.tyVars[root].kind, root)
		}
		t = value
	}
}

// unify merges two unbound roots. The kind of the merged root is the most
// specific of both: an int or float placeholder wins over a general one.
func (ic *Ctxt) unify(a, b uint32) {
	a, b = ic.find(a), ic.find(b)
	if a == b {
		return
	}
	if ic.tyVars[a].kind == types.TyVar {
		a, b = b, a
	}
	ic.tyVars[b].parent = a
}

func (ic *Ctxt) bind(vid uint32, t types.Ty) {
	root := ic.find(vid)
	logger.Debug("binding placeholder", "vid", root, "ty", t)
	ic.tyVars[root].value = t
}

type snapshot struct {
	tyVars      []tyVar
	constraints int
}

func (ic *Ctxt) snapshot() snapshot {
	return snapshot{tyVars: slices.Clone(ic.tyVars), constraints: len(ic.constraints)}
}

func (ic *Ctxt) rollback(s snapshot) {
	// placeholders minted since s stay allocated so that terms mentioning
	// them remain valid, but they are unbound again
	vars := append(s.tyVars, ic.tyVars[len(s.tyVars):]...)
	for i := len(s.tyVars); i < len(vars); i++ {
		vars[i] = tyVar{kind: vars[i].kind, parent: uint32(i)}
	}
	ic.tyVars = vars
	ic.constraints = ic.constraints[:s.constraints]
}

// CommitIfOk runs f and undoes every binding it made when it fails
func (ic *Ctxt) CommitIfOk(f func() error) error {
	s := ic.snapshot()
	if err := f(); err != nil {
		ic.rollback(s)
		return err
	}
	return nil
}

// Probe runs f and undoes every binding it made, whatever the outcome
func (ic *Ctxt) Probe(f func() error) error {
	s := ic.snapshot()
	defer ic.rollback(s)
	return f()
}
