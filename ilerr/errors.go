package ilerr

import (
	"fmt"
	"log/slog"
)

type Errors struct {
	errs []IleError
}

func (r *Errors) With(err ...IleError) *Errors {
	if r == nil {
		return &Errors{errs: err}
	}
	r.errs = append(r.errs, err...)
	return r
}

func (r *Errors) Merge(err *Errors) *Errors {
	if r == nil {
		return err
	}
	if err == nil || len(err.errs) == 0 {
		return r
	}
	return r.With(err.errs...)
}

func (r *Errors) Errors() []IleError {
	if r == nil {
		return nil
	}
	return r.errs
}

func (r *Errors) Len() int { return len(r.Errors()) }

func (r *Errors) HasError() bool {
	if r == nil {
		return false
	}
	return len(r.errs) > 0
}

// Codes lists the code of every error in order, mostly for tests
func (r *Errors) Codes() []ErrCode {
	var codes []ErrCode
	for _, e := range r.Errors() {
		codes = append(codes, e.Code())
	}
	return codes
}

func (r *Errors) LogValue() slog.Value {
	var vals []slog.Attr
	for i, v := range r.Errors() {
		vals = append(vals, slog.Attr{
			Key: fmt.Sprint("e", i),
			Value: slog.GroupValue(
				slog.Attr{
					Key:   "msg",
					Value: slog.StringValue(FormatWithCode(v)),
				},
				slog.Attr{
					Key:   "pos",
					Value: slog.StringValue(fmt.Sprint(v.Pos())),
				},
			),
		})
	}
	return slog.GroupValue(vals...)
}
