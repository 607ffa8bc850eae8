package types

// Variance says how the subtyping of a generic argument propagates to the
// type applying it. A Variance is co- and/or contra-variant; neither is
// Invariant, both is Bivariant.
type Variance struct {
	co, contra bool
}

var (
	Covariant     = Variance{co: true}
	Contravariant = Variance{contra: true}
	Invariant     = Variance{}
	Bivariant     = Variance{co: true, contra: true}
)

func (v Variance) String() string {
	switch v {
	case Covariant:
		return "+"
	case Contravariant:
		return "-"
	case Bivariant:
		return "*"
	default:
		return "o"
	}
}

// Xform composes v, the variance of a position, with the variance of the
// argument found in it
func (v Variance) Xform(inner Variance) Variance {
	switch v {
	case Covariant:
		return inner
	case Contravariant:
		return Variance{co: inner.contra, contra: inner.co}
	case Bivariant:
		return Bivariant
	default:
		return Invariant
	}
}

// ItemVariances are the declared variances of the generic parameters of an
// item, one per slot. Both per-space vectors have the shape of the generics.
type ItemVariances struct {
	Types   PerSpace[Variance]
	Regions PerSpace[Variance]
}
