package types

import "fmt"

// Predicate is a requirement an obligation asks the trait engine to prove
type Predicate interface {
	Foldable
	fmt.Stringer
	// Hash identifies the predicate structurally, for de-duplication
	Hash() uint64
	predicate()
}

var (
	_ Predicate = TraitPredicate{}
	_ Predicate = EquatePredicate{}
	_ Predicate = RegionOutlivesPredicate{}
	_ Predicate = TypeOutlivesPredicate{}
	_ Predicate = ProjectionPred{}
)

// TraitPredicate holds when the self type of Trait implements it
type TraitPredicate struct {
	Trait PolyTraitRef
}

// EquatePredicate holds when A and B are the same type
type EquatePredicate struct {
	A, B Ty
}

// RegionOutlivesPredicate is `A: B`
type RegionOutlivesPredicate struct {
	A, B Region
}

// TypeOutlivesPredicate is `Ty: Region`
type TypeOutlivesPredicate struct {
	Ty     Ty
	Region Region
}

type ProjectionPred struct {
	Projection PolyProjectionPredicate
}

func (TraitPredicate) predicate()          {}
func (EquatePredicate) predicate()         {}
func (RegionOutlivesPredicate) predicate() {}
func (TypeOutlivesPredicate) predicate()   {}
func (ProjectionPred) predicate()          {}

func (p TraitPredicate) String() string { return p.Trait.Value.String() }
func (p EquatePredicate) String() string {
	return p.A.String() + " == " + p.B.String()
}
func (p RegionOutlivesPredicate) String() string {
	return p.A.String() + ": " + p.B.String()
}
func (p TypeOutlivesPredicate) String() string {
	return p.Ty.String() + ": " + p.Region.String()
}
func (p ProjectionPred) String() string { return p.Projection.Value.String() }

func (p TraitPredicate) Hash() uint64 {
	return newHasher("trait-pred").traitRef(p.Trait.Value).sum()
}
func (p EquatePredicate) Hash() uint64 {
	return newHasher("equate-pred").ty(p.A).ty(p.B).sum()
}
func (p RegionOutlivesPredicate) Hash() uint64 {
	return newHasher("region-outlives-pred").region(p.A).region(p.B).sum()
}
func (p TypeOutlivesPredicate) Hash() uint64 {
	return newHasher("type-outlives-pred").ty(p.Ty).region(p.Region).sum()
}
func (p ProjectionPred) Hash() uint64 {
	v := p.Projection.Value
	return newHasher("projection-pred").traitRef(v.Projection.TraitRef).str(v.Projection.Item).ty(v.Ty).sum()
}

func (p TraitPredicate) FoldWith(f Folder) Foldable { return TraitPredicate{Trait: Fold(f, p.Trait)} }
func (p EquatePredicate) FoldWith(f Folder) Foldable {
	return EquatePredicate{A: f.FoldTy(p.A), B: f.FoldTy(p.B)}
}
func (p RegionOutlivesPredicate) FoldWith(f Folder) Foldable {
	return RegionOutlivesPredicate{A: f.FoldRegion(p.A), B: f.FoldRegion(p.B)}
}
func (p TypeOutlivesPredicate) FoldWith(f Folder) Foldable {
	return TypeOutlivesPredicate{Ty: f.FoldTy(p.Ty), Region: f.FoldRegion(p.Region)}
}
func (p ProjectionPred) FoldWith(f Folder) Foldable {
	return ProjectionPred{Projection: Fold(f, p.Projection)}
}

// GenericPredicates are the where clauses of an item, in terms of its parameters
type GenericPredicates struct {
	Predicates PerSpace[Predicate]
}

// Instantiate substitutes substs into every predicate
func (g GenericPredicates) Instantiate(c *Ctxt, substs *Substs) InstantiatedPredicates {
	return InstantiatedPredicates{Predicates: MapPerSpace(g.Predicates, func(p Predicate) Predicate {
		return Subst(c, substs, p)
	})}
}

// InstantiatedPredicates are where clauses with no parameters left
type InstantiatedPredicates struct {
	Predicates PerSpace[Predicate]
}

func (p InstantiatedPredicates) FoldWith(f Folder) Foldable {
	return InstantiatedPredicates{Predicates: MapPerSpace(p.Predicates, func(pred Predicate) Predicate {
		return Fold(f, pred)
	})}
}

func (p InstantiatedPredicates) IsEmpty() bool { return p.Predicates.IsEmpty() }

// All returns the predicates of every space in order
func (p InstantiatedPredicates) All() []Predicate {
	var out []Predicate
	for _, space := range AllSpaces {
		out = append(out, p.Predicates.Slice(space)...)
	}
	return out
}
