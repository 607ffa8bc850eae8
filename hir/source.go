package hir

import (
	"fmt"
	"go/token"
)

// Positioner allows finding the location in the original source file.
// The easiest way to be a Positioner is to embed a Range
type Positioner interface {
	Pos() token.Pos // position of first character belonging to the node
	End() token.Pos // position of first character immediately after the node
}

type Range struct {
	PosStart token.Pos
	PosEnd   token.Pos
}

func (r Range) Pos() token.Pos { return r.PosStart }
func (r Range) End() token.Pos { return r.PosEnd }
func (r Range) String() string {
	if r.PosStart == r.PosEnd {
		return fmt.Sprintf("%v", r.PosStart)
	}
	return fmt.Sprintf("%v-%v", r.PosStart, r.PosEnd)
}

func RangeOf(p Positioner) Range {
	if p == nil {
		return Range{}
	}
	return Range{PosStart: p.Pos(), PosEnd: p.End()}
}

func RangeBetween(fst, snd Positioner) Range {
	return Range{fst.Pos(), snd.End()}
}

// NodeID identifies a node of a function body. Ids are stable for the
// lifetime of a compilation unit and key every side table.
type NodeID uint32

// DummyNodeID is never assigned to a real node
const DummyNodeID NodeID = 0

// Meta is embedded by every node
type Meta struct {
	Range
	NodeID NodeID
}

func (m Meta) ID() NodeID { return m.NodeID }
