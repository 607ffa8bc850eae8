package traits

import (
	"github.com/cottand/tyck/types"
	"github.com/hashicorp/go-set/v3"
)

// Supertraits returns trait and every trait it transitively inherits from,
// each substituted for the self type and parameters of trait. A trait
// reachable along two paths is listed once.
func Supertraits(c *types.Ctxt, trait types.PolyTraitRef) []types.PolyTraitRef {
	visited := set.NewHashSet[types.TraitPredicate, uint64](0)
	var out []types.PolyTraitRef
	stack := []types.PolyTraitRef{trait}
	for len(stack) > 0 {
		next := stack[0]
		stack = stack[1:]
		if !visited.Insert(types.TraitPredicate{Trait: next}) {
			continue
		}
		out = append(out, next)
		def := c.TraitDef(next.Value.Def)
		for _, super := range def.Supertraits {
			stack = append(stack, types.Bind(types.Subst(c, next.Value.Substs, super)))
		}
	}
	return out
}

// Upcast walks up the supertraits of source and returns those that are
// references to target. It is empty when target is not a supertrait of source
// and may hold several references when target is inherited with different
// parameters.
func Upcast(c *types.Ctxt, source types.PolyTraitRef, target types.DefID) []types.PolyTraitRef {
	if source.Value.Def == target {
		return []types.PolyTraitRef{source}
	}
	var out []types.PolyTraitRef
	for _, super := range Supertraits(c, source) {
		if super.Value.Def == target {
			out = append(out, super)
		}
	}
	return out
}

// Elaborate expands the trait predicates of preds with their supertraits
func Elaborate(c *types.Ctxt, preds []types.Predicate) []types.Predicate {
	seen := set.NewHashSet[types.Predicate, uint64](len(preds))
	var out []types.Predicate
	push := func(p types.Predicate) {
		if seen.Insert(p) {
			out = append(out, p)
		}
	}
	for _, p := range preds {
		tp, ok := p.(types.TraitPredicate)
		if !ok {
			push(p)
			continue
		}
		for _, super := range Supertraits(c, tp.Trait) {
			push(types.TraitPredicate{Trait: super})
		}
	}
	return out
}
