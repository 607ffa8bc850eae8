package types

import "fmt"

type ErrorKind uint8

const (
	// Mismatch is the catch-all: terms of different shape
	Mismatch ErrorKind = iota
	MutabilityMismatch
	ArgCount
	TyParamSize
	TupleSize
	FixedArraySize
	VariadicMismatch
	ConvergenceMismatch
	AbiMismatch
	UnsafetyMismatch
	BuiltinBoundsMismatch
	TraitsMismatch
	ProjectionNameMismatched
	ProjectionBoundsLength
	IntMismatch
	FloatMismatch
	RegionsMismatch
	CyclicTy
)

var errorKindNames = [...]string{
	"types differ",
	"mutability differs",
	"argument count differs",
	"type parameter count differs",
	"tuple size differs",
	"array length differs",
	"variadic flag differs",
	"divergence differs",
	"ABI differs",
	"unsafety differs",
	"builtin bounds differ",
	"traits differ",
	"projection item differs",
	"projection bound count differs",
	"integer types differ",
	"float types differ",
	"regions differ",
	"cyclic type",
}

func (k ErrorKind) String() string { return errorKindNames[k] }

// TypeError is the outcome of relating incompatible terms. Expected and Found
// hold the two sides (terms, counts or flags depending on Kind), already
// ordered by which side the relation treats as expected.
type TypeError struct {
	Kind     ErrorKind
	Expected any
	Found    any
}

func (e *TypeError) Error() string {
	if e.Kind == CyclicTy {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: expected `%v`, found `%v`", e.Kind, e.Expected, e.Found)
}

// ExpectedFound orders a and b so that the expected side comes first
func ExpectedFound[T any](aIsExpected bool, a, b T) (expected, found T) {
	if aIsExpected {
		return a, b
	}
	return b, a
}

// NewTypeError builds an error of kind for sides a and b of a relation
func NewTypeError[T any](kind ErrorKind, aIsExpected bool, a, b T) *TypeError {
	expected, found := ExpectedFound(aIsExpected, a, b)
	return &TypeError{Kind: kind, Expected: expected, Found: found}
}
