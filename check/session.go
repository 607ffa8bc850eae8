package check

import (
	"github.com/cottand/tyck/ilerr"
	"github.com/pkg/errors"
)

// Session collects the user errors of a compilation unit
type Session struct {
	Errors *ilerr.Errors
}

func NewSession() *Session { return &Session{} }

func (s *Session) Report(err ilerr.IleError) {
	logger.Debug("error reported", "err", ilerr.FormatWithCode(err), "pos", err.Pos())
	s.Errors = s.Errors.With(err)
}

func (s *Session) HasErrors() bool { return s.Errors.HasError() }

// Run calls f, turning the panics raised by ilerr.Bug and ilerr.Abort into a
// returned error. A fatal user error is also recorded in the session. Any
// other panic is not ours and keeps unwinding.
func (s *Session) Run(f func() error) (err error) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		aborted, ok := ilerr.AsAbort(r)
		if !ok {
			panic(r)
		}
		var fatal *ilerr.Fatal
		if errors.As(aborted, &fatal) {
			s.Report(fatal.Err)
		}
		err = errors.Wrap(aborted, "aborting due to previous error")
	}()
	return f()
}
