package ilerr

import (
	"fmt"
	"runtime/debug"
	"strings"

	"github.com/cottand/tyck/hir"
)

// enableDebugErrorPrinting makes errors include the frame that created them when printed
const enableDebugErrorPrinting bool = false
const enableDebugFullStacktrace bool = false

type ErrCode int

const (
	None                    ErrCode = 0
	MethodTakesNoTypeArgs   ErrCode = 35
	WrongNumberOfTypeArgs   ErrCode = 36
	ExplicitDestructorCall  ErrCode = 40
	AutoderefRecursion      ErrCode = 55
	CannotDetermineExprType ErrCode = 101
	CannotDetermineLocal    ErrCode = 102
	CannotDeterminePattern  ErrCode = 103
	CannotDetermineUpvar    ErrCode = 104
	CannotDetermineClosure  ErrCode = 196
	UnsatisfiedObligation   ErrCode = 277
	TypeAnnotationsRequired ErrCode = 282
	TypeMismatch            ErrCode = 308
)

type IleError interface {
	Error() string
	Code() ErrCode
	hir.Positioner

	withStack([]byte) IleError
	getStack() []byte
}

func FormatWithCode(e IleError) string {
	if enableDebugErrorPrinting && e.getStack() != nil {
		stack := string(e.getStack())
		if !enableDebugFullStacktrace {
			stack = strings.Split(stack, "\n")[6]
		}
		return fmt.Sprintf("%s:(E%04d) %s", stack, e.Code(), e.Error())
	}
	return fmt.Sprintf("(E%04d) %s", e.Code(), e.Error())
}

func New[E IleError](err E) IleError {
	return err.withStack(debug.Stack())
}

type Unclassified struct {
	From error
	hir.Positioner
	stack []byte
}

func (e Unclassified) Error() string {
	return fmt.Sprintf("unclassified error: %v", e.From)
}
func (e Unclassified) Code() ErrCode    { return None }
func (e Unclassified) getStack() []byte { return e.stack }
func (e Unclassified) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewMethodTakesNoTypeArgs struct {
	hir.Positioner
	Supplied int
	stack    []byte
}

func (e NewMethodTakesNoTypeArgs) Error() string {
	return fmt.Sprintf("does not take type parameters: %d type parameters supplied", e.Supplied)
}
func (e NewMethodTakesNoTypeArgs) Code() ErrCode    { return MethodTakesNoTypeArgs }
func (e NewMethodTakesNoTypeArgs) getStack() []byte { return e.stack }
func (e NewMethodTakesNoTypeArgs) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewWrongNumberOfTypeArgs struct {
	hir.Positioner
	Expected, Supplied int
	stack              []byte
}

func (e NewWrongNumberOfTypeArgs) Error() string {
	return fmt.Sprintf("incorrect number of type parameters given for this method: expected %d, found %d", e.Expected, e.Supplied)
}
func (e NewWrongNumberOfTypeArgs) Code() ErrCode    { return WrongNumberOfTypeArgs }
func (e NewWrongNumberOfTypeArgs) getStack() []byte { return e.stack }
func (e NewWrongNumberOfTypeArgs) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewExplicitDestructorCall struct {
	hir.Positioner
	stack []byte
}

func (e NewExplicitDestructorCall) Error() string {
	return "explicit use of destructor method"
}
func (e NewExplicitDestructorCall) Code() ErrCode    { return ExplicitDestructorCall }
func (e NewExplicitDestructorCall) getStack() []byte { return e.stack }
func (e NewExplicitDestructorCall) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

// UnresolvedRole is what a node whose type could not be determined is
type UnresolvedRole uint8

const (
	RoleExpr UnresolvedRole = iota
	RoleLocal
	RolePattern
	RoleUpvar
	RoleClosure
)

var unresolvedMessages = [...]string{
	"cannot determine a type for this expression",
	"cannot determine a type for this local variable",
	"cannot determine a type for this pattern binding",
	"cannot determine a type for this captured variable",
	"cannot determine a type for this closure",
}

var unresolvedCodes = [...]ErrCode{
	CannotDetermineExprType,
	CannotDetermineLocal,
	CannotDeterminePattern,
	CannotDetermineUpvar,
	CannotDetermineClosure,
}

type NewCannotDetermineType struct {
	hir.Positioner
	Role UnresolvedRole
	// Cause is the oracle's reason, usually the unresolved placeholder
	Cause error
	stack []byte
}

func (e NewCannotDetermineType) Error() string {
	return fmt.Sprintf("%s: %v", unresolvedMessages[e.Role], e.Cause)
}
func (e NewCannotDetermineType) Code() ErrCode    { return unresolvedCodes[e.Role] }
func (e NewCannotDetermineType) Unwrap() error    { return e.Cause }
func (e NewCannotDetermineType) getStack() []byte { return e.stack }
func (e NewCannotDetermineType) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewTypeMismatch struct {
	hir.Positioner
	// Err is usually a *types.TypeError
	Err   error
	stack []byte
}

func (e NewTypeMismatch) Error() string {
	return fmt.Sprintf("mismatched types: %v", e.Err)
}
func (e NewTypeMismatch) Code() ErrCode    { return TypeMismatch }
func (e NewTypeMismatch) Unwrap() error    { return e.Err }
func (e NewTypeMismatch) getStack() []byte { return e.stack }
func (e NewTypeMismatch) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewAutoderefRecursion struct {
	hir.Positioner
	Base  fmt.Stringer
	stack []byte
}

func (e NewAutoderefRecursion) Error() string {
	return fmt.Sprintf("reached the recursion limit while auto-dereferencing %v", e.Base)
}
func (e NewAutoderefRecursion) Code() ErrCode    { return AutoderefRecursion }
func (e NewAutoderefRecursion) getStack() []byte { return e.stack }
func (e NewAutoderefRecursion) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewTypeAnnotationsRequired struct {
	hir.Positioner
	stack []byte
}

func (e NewTypeAnnotationsRequired) Error() string {
	return "the type of this value must be known in this context"
}
func (e NewTypeAnnotationsRequired) Code() ErrCode    { return TypeAnnotationsRequired }
func (e NewTypeAnnotationsRequired) getStack() []byte { return e.stack }
func (e NewTypeAnnotationsRequired) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}

type NewUnsatisfiedObligation struct {
	hir.Positioner
	Err   error
	stack []byte
}

func (e NewUnsatisfiedObligation) Error() string {
	return fmt.Sprintf("unsatisfied requirement: %v", e.Err)
}
func (e NewUnsatisfiedObligation) Code() ErrCode    { return UnsatisfiedObligation }
func (e NewUnsatisfiedObligation) Unwrap() error    { return e.Err }
func (e NewUnsatisfiedObligation) getStack() []byte { return e.stack }
func (e NewUnsatisfiedObligation) withStack(stack []byte) IleError {
	e.stack = stack
	return e
}
