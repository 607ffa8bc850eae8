package types

import "strconv"

type RegionKind uint8

const (
	// ReEarlyBound is a region parameter of an item, substituted like a type parameter
	ReEarlyBound RegionKind = iota
	// ReLateBound is bound by an enclosing Binder, Depth binders out (innermost is 1)
	ReLateBound
	// ReFree is a late-bound region of the current function seen from inside its body
	ReFree
	// ReScope is the region of a lexical scope, keyed by its node id
	ReScope
	ReStatic
	// ReVar is an inference placeholder owned by the oracle
	ReVar
	// ReEmpty is the empty region, the result of resolving an unconstrained ReVar
	ReEmpty
)

// Region is a comparable value: two regions are the same region iff they are ==
type Region struct {
	Kind  RegionKind
	Space ParamSpace
	// Index is the parameter index for ReEarlyBound, the bound index for
	// ReLateBound and ReFree, and the variable id for ReVar
	Index uint32
	Depth uint32
	// Scope is the node id of ReScope, and of the function that frees an ReFree
	Scope uint32
	Name  string
}

// BoundRegion names a region bound by a Binder
type BoundRegion struct {
	Index uint32
	Name  string
}

func EarlyBound(space ParamSpace, index uint32, name string) Region {
	return Region{Kind: ReEarlyBound, Space: space, Index: index, Name: name}
}

func LateBound(depth uint32, br BoundRegion) Region {
	return Region{Kind: ReLateBound, Depth: depth, Index: br.Index, Name: br.Name}
}

func Free(scope uint32, br BoundRegion) Region {
	return Region{Kind: ReFree, Scope: scope, Index: br.Index, Name: br.Name}
}

func Scope(node uint32) Region { return Region{Kind: ReScope, Scope: node} }
func Static() Region           { return Region{Kind: ReStatic} }
func Empty() Region            { return Region{Kind: ReEmpty} }
func RegionVar(vid uint32) Region {
	return Region{Kind: ReVar, Index: vid}
}

func (r Region) Bound() BoundRegion { return BoundRegion{Index: r.Index, Name: r.Name} }

func (r Region) IsVar() bool { return r.Kind == ReVar }

// EscapesDepth reports whether r is bound by a binder at or outside depth
func (r Region) EscapesDepth(depth uint32) bool {
	return r.Kind == ReLateBound && r.Depth > depth
}

func (r Region) String() string {
	switch r.Kind {
	case ReEarlyBound, ReFree:
		if r.Name != "" {
			return r.Name
		}
		return "'" + strconv.Itoa(int(r.Index))
	case ReLateBound:
		if r.Name != "" {
			return r.Name
		}
		return "'^" + strconv.Itoa(int(r.Depth)) + "." + strconv.Itoa(int(r.Index))
	case ReScope:
		return "'scope#" + strconv.Itoa(int(r.Scope))
	case ReStatic:
		return "'static"
	case ReVar:
		return "'_#" + strconv.Itoa(int(r.Index)) + "r"
	default:
		return "'empty"
	}
}

// prefixString is how r is printed inside a reference type: only 'static and
// named regions are shown
func (r Region) prefixString() string {
	if r.Kind == ReStatic || (r.Name != "" && r.Kind != ReVar) {
		return r.String() + " "
	}
	return ""
}

func (r Region) flags() TypeFlags {
	switch r.Kind {
	case ReVar:
		return HasRegionInfer
	case ReEarlyBound:
		return HasParams
	case ReLateBound:
		return HasLateBound
	default:
		return 0
	}
}

// RegionOrigin records why the oracle minted a region placeholder
type RegionOrigin uint8

const (
	MiscRegion RegionOrigin = iota
	AutorefRegion
	EarlyBoundRegion
	LateBoundRegion
	HigherRankedRegion
	GeneralizedRegion
)

func (o RegionOrigin) String() string {
	return [...]string{"misc", "autoref", "early-bound", "late-bound", "higher-ranked", "generalized"}[o]
}

// RegionTerm lets a bare region flow where a Foldable is expected
type RegionTerm struct{ Region Region }

func (r RegionTerm) FoldWith(f Folder) Foldable { return RegionTerm{f.FoldRegion(r.Region)} }
