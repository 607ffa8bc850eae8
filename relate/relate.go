// Package relate implements the structural recursion shared by every type
// relation (subtyping, equality, bivariance). A relation provides the base
// cases through TypeRelation; everything else is written once here.
package relate

import (
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/internal/log"
	"github.com/cottand/tyck/types"
)

var logger = log.DefaultLogger.With("section", "relate")

// BinderFunc relates the values of two binders
type BinderFunc func(r TypeRelation, a, b types.Foldable) (types.Foldable, error)

// TypeRelation is a strategy deciding how two terms relate.
// Errors returned by the hooks are *types.TypeError.
type TypeRelation interface {
	Ctxt() *types.Ctxt

	// Tag names the relation in logs
	Tag() string

	// AIsExpected reports whether a, rather than b, is the expected side.
	// It only affects how errors are reported.
	AIsExpected() bool

	// WithVariance returns the relation to relate terms in a position of variance v
	WithVariance(v types.Variance) TypeRelation

	// Tys relates two types. Implementations handle placeholders and
	// defer to SuperTys for the structural cases.
	Tys(a, b types.Ty) (types.Ty, error)

	Regions(a, b types.Region) (types.Region, error)

	// Binders relates the values of two binders by calling inner, after
	// whatever instantiation of the bound regions the relation requires
	Binders(a, b types.Foldable, inner BinderFunc) (types.Foldable, error)
}

// Relate relates any relatable pair of terms of the same shape
func Relate[T any](r TypeRelation, a, b T) (T, error) {
	var out any
	var err error
	switch a := any(a).(type) {
	case types.Ty:
		out, err = r.Tys(a, any(b).(types.Ty))
	case types.Region:
		out, err = r.Regions(a, any(b).(types.Region))
	case types.TypeAndMut:
		out, err = TypeAndMut(r, a, any(b).(types.TypeAndMut))
	case *types.Substs:
		out, err = Substs(r, nil, a, any(b).(*types.Substs))
	case types.TraitRef:
		out, err = TraitRef(r, a, any(b).(types.TraitRef))
	case types.PolyTraitRef:
		out, err = PolyTraitRef(r, a, any(b).(types.PolyTraitRef))
	case types.FnSig:
		out, err = FnSig(r, a, any(b).(types.FnSig))
	case types.PolyFnSig:
		out, err = PolyFnSig(r, a, any(b).(types.PolyFnSig))
	case types.BareFnTy:
		out, err = BareFn(r, a, any(b).(types.BareFnTy))
	case types.Projection:
		out, err = Projection(r, a, any(b).(types.Projection))
	case types.ProjectionPredicate:
		out, err = ProjectionPredicate(r, a, any(b).(types.ProjectionPredicate))
	case types.PolyProjectionPredicate:
		out, err = PolyProjectionPredicate(r, a, any(b).(types.PolyProjectionPredicate))
	case []types.PolyProjectionPredicate:
		out, err = ProjectionBounds(r, a, any(b).([]types.PolyProjectionPredicate))
	case types.ExistentialBounds:
		out, err = ExistentialBounds(r, a, any(b).(types.ExistentialBounds))
	case types.BuiltinBounds:
		out, err = BuiltinBounds(r, a, any(b).(types.BuiltinBounds))
	case types.Unsafety:
		out, err = Unsafety(r, a, any(b).(types.Unsafety))
	case types.Abi:
		out, err = Abi(r, a, any(b).(types.Abi))
	default:
		ilerr.Bug(nil, "%s: values of type %T are not relatable", r.Tag(), a)
	}
	if err != nil {
		var zero T
		return zero, err
	}
	return out.(T), nil
}

// RelateWithVariance relates a and b in a position of variance v
func RelateWithVariance[T any](r TypeRelation, v types.Variance, a, b T) (T, error) {
	return Relate(r.WithVariance(v), a, b)
}

// Boxed relates the targets of two owning pointers and rewraps the result
func Boxed[T any](r TypeRelation, a, b *T) (*T, error) {
	out, err := Relate(r, *a, *b)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func binder[T types.Foldable](r TypeRelation, a, b types.Binder[T], relate func(TypeRelation, T, T) (T, error)) (types.Binder[T], error) {
	out, err := r.Binders(a.Value, b.Value, func(r TypeRelation, a, b types.Foldable) (types.Foldable, error) {
		return relate(r, a.(T), b.(T))
	})
	if err != nil {
		return types.Binder[T]{}, err
	}
	return types.Bind(out.(T)), nil
}

func expectedFound[T any](r TypeRelation, kind types.ErrorKind, a, b T) *types.TypeError {
	return types.NewTypeError(kind, r.AIsExpected(), a, b)
}
