package ilerr

import (
	"fmt"
	"runtime/debug"

	"github.com/cottand/tyck/hir"
)

// CompilerBug reports a broken internal invariant: an upstream phase handed
// over something it guaranteed it would not. It is never a user error and
// aborts the compilation unit.
type CompilerBug struct {
	Msg   string
	At    hir.Range
	Stack []byte
}

func (b *CompilerBug) Error() string {
	if b.At == (hir.Range{}) {
		return "internal compiler error: " + b.Msg
	}
	return fmt.Sprintf("internal compiler error at %v: %s", b.At, b.Msg)
}

// Fatal is a user error severe enough to abort the compilation unit
type Fatal struct {
	Err IleError
}

func (f *Fatal) Error() string { return FormatWithCode(f.Err) }
func (f *Fatal) Unwrap() error { return f.Err }

// Bug panics with a *CompilerBug. at may be nil when no location is known.
func Bug(at hir.Positioner, format string, args ...any) {
	panic(&CompilerBug{Msg: fmt.Sprintf(format, args...), At: hir.RangeOf(at), Stack: debug.Stack()})
}

// Abort panics with a *Fatal wrapping err
func Abort(err IleError) {
	panic(&Fatal{Err: err})
}

// AsAbort returns the error carried by a recovered panic value when it was
// raised by Bug or Abort. Any other value is not ours and ok is false.
func AsAbort(recovered any) (err error, ok bool) {
	switch r := recovered.(type) {
	case *CompilerBug:
		return r, true
	case *Fatal:
		return r, true
	default:
		return nil, false
	}
}
