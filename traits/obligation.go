// Package traits holds the obligations generated while checking a function
// and a small engine proving them: supertrait elaboration and upcasting,
// impl matching, associated type normalization and a fulfillment worklist.
package traits

import (
	"strconv"

	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/internal/log"
	"github.com/cottand/tyck/types"
)

var logger = log.DefaultLogger.With("section", "traits")

type CauseCode uint8

const (
	// MiscObligation is an obligation with no more specific origin, such as
	// the where clauses of a called method
	MiscObligation CauseCode = iota
	// ItemObligation comes from the where clauses of an item
	ItemObligation
	// ProjectionObligation restates a projection that could not be normalized yet
	ProjectionObligation
	// ReferenceOutlivesReferent is implied by a reference type appearing in the body
	ReferenceOutlivesReferent
)

func (c CauseCode) String() string {
	return [...]string{"misc", "item", "projection", "reference-outlives-referent"}[c]
}

// ObligationCause says where an obligation was generated
type ObligationCause struct {
	Span   hir.Range
	BodyID hir.NodeID
	Code   CauseCode
}

func MiscCause(at hir.Positioner, body hir.NodeID) ObligationCause {
	return ObligationCause{Span: hir.RangeOf(at), BodyID: body, Code: MiscObligation}
}

type Obligation struct {
	Cause          ObligationCause
	RecursionDepth uint32
	Predicate      types.Predicate
}

func NewObligation(cause ObligationCause, p types.Predicate) Obligation {
	return Obligation{Cause: cause, Predicate: p}
}

// Hash identifies an obligation by its predicate and body, so that the same
// requirement registered twice is only proven once
func (o Obligation) Hash() uint64 {
	return o.Predicate.Hash() ^ uint64(o.Cause.BodyID)<<32
}

func (o Obligation) String() string {
	return o.Predicate.String() + " (" + o.Cause.Code.String() + " at " + o.Cause.Span.String() + ", depth " + strconv.Itoa(int(o.RecursionDepth)) + ")"
}
