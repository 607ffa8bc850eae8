package infer

import (
	"fmt"

	"github.com/cottand/tyck/types"
)

// constraint is `sub <= sup`: sub is a subregion of sup
type constraint struct {
	sub, sup types.Region
}

type regionValue struct {
	value    types.Region
	conflict bool
}

// IsSubRegion reports whether a is known to be contained in b without
// consulting any placeholder. Scopes are regions inside a function body and
// are contained in the free regions of that function.
func IsSubRegion(a, b types.Region) bool {
	switch {
	case a == b, a.Kind == types.ReEmpty, b.Kind == types.ReStatic:
		return true
	case a.Kind == types.ReScope && b.Kind == types.ReFree:
		return true
	default:
		return false
	}
}

// lub is the smallest concrete region containing both a and b
func lub(a, b types.Region) types.Region {
	switch {
	case IsSubRegion(a, b):
		return b
	case IsSubRegion(b, a):
		return a
	default:
		return types.Static()
	}
}

// makeSubregion records sub <= sup. Between two concrete regions the
// constraint is decided immediately, and ok is false when it does not hold.
func (ic *Ctxt) makeSubregion(sub, sup types.Region) (ok bool) {
	if sub == sup {
		return true
	}
	if !sub.IsVar() && !sup.IsVar() {
		return sub.Kind == types.ReLateBound || sup.Kind == types.ReLateBound || IsSubRegion(sub, sup)
	}
	logger.Debug("region constraint", "sub", sub, "sup", sup)
	ic.constraints = append(ic.constraints, constraint{sub: sub, sup: sup})
	return true
}

func (ic *Ctxt) makeEqRegion(a, b types.Region) bool {
	return ic.makeSubregion(a, b) && ic.makeSubregion(b, a)
}

// ResolveRegions computes the value of every region placeholder: the least
// region containing all of its lower bounds, or the empty region when it has
// none. A placeholder whose value escapes one of its concrete upper bounds is
// in conflict and will not resolve.
func (ic *Ctxt) ResolveRegions() {
	values := make([]regionValue, len(ic.regionVars))
	for i := range values {
		values[i].value = types.Empty()
	}
	valueOf := func(r types.Region) types.Region {
		if r.IsVar() {
			return values[r.Index].value
		}
		return r
	}

	for changed := true; changed; {
		changed = false
		for _, c := range ic.constraints {
			if !c.sup.IsVar() {
				continue
			}
			next := lub(values[c.sup.Index].value, valueOf(c.sub))
			if next != values[c.sup.Index].value {
				values[c.sup.Index].value = next
				changed = true
			}
		}
	}

	for _, c := range ic.constraints {
		if c.sub.IsVar() && !c.sup.IsVar() && !IsSubRegion(values[c.sub.Index].value, c.sup) {
			logger.Debug("region conflict", "var", c.sub, "value", values[c.sub.Index].value, "bound", c.sup)
			values[c.sub.Index].conflict = true
		}
	}
	ic.regionValues = values
	ic.regionsSolved = true
}

// resolveRegion returns the value ResolveRegions computed for r
func (ic *Ctxt) resolveRegion(r types.Region) (types.Region, error) {
	if !r.IsVar() {
		return r, nil
	}
	if !ic.regionsSolved || int(r.Index) >= len(ic.regionValues) {
		return r, &UnresolvedError{Region: r, reason: "regions were not resolved"}
	}
	v := ic.regionValues[r.Index]
	if v.conflict {
		return r, &UnresolvedError{Region: r, reason: fmt.Sprintf("conflicting requirements around %v", ic.regionVars[r.Index].at)}
	}
	return v.value, nil
}
