package check

import (
	"cmp"
	"fmt"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/ilerr"
	"github.com/cottand/tyck/types"
)

// UpvarID is a variable captured by a closure
type UpvarID struct {
	Var         hir.NodeID
	ClosureExpr hir.NodeID
}

func (u UpvarID) String() string { return fmt.Sprintf("upvar(#%d in #%d)", u.Var, u.ClosureExpr) }

type BorrowKind uint8

const (
	ImmBorrow BorrowKind = iota
	UniqueImmBorrow
	MutBorrow
)

// UpvarCapture is how a closure captures one variable. Region is only
// meaningful when ByRef is set.
type UpvarCapture struct {
	ByRef  bool
	Kind   BorrowKind
	Region types.Region
}

func (u UpvarCapture) FoldWith(f types.Folder) types.Foldable {
	if !u.ByRef {
		return u
	}
	u.Region = f.FoldRegion(u.Region)
	return u
}

type ClosureKind uint8

const (
	FnClosureKind ClosureKind = iota
	FnMutClosureKind
	FnOnceClosureKind
)

func (k ClosureKind) String() string { return [...]string{"Fn", "FnMut", "FnOnce"}[k] }

// Inherited are the working tables of the function being checked. Checking
// and confirmation write them; writeback drains them.
type Inherited struct {
	NodeTypes     map[hir.NodeID]types.Ty
	ItemSubsts    map[hir.NodeID]types.ItemSubsts
	Adjustments   map[hir.NodeID]Adjustment
	MethodMap     map[MethodCall]MethodCallee
	UpvarCaptures *immutable.SortedMap[UpvarID, UpvarCapture]
	ClosureTys    *immutable.SortedMap[types.DefID, types.BareFnTy]
	ClosureKinds  *immutable.SortedMap[types.DefID, ClosureKind]
	// Locals are the declared types of let bindings and arguments
	Locals map[hir.NodeID]types.Ty
}

func NewInherited() *Inherited {
	return &Inherited{
		NodeTypes:     map[hir.NodeID]types.Ty{},
		ItemSubsts:    map[hir.NodeID]types.ItemSubsts{},
		Adjustments:   map[hir.NodeID]Adjustment{},
		MethodMap:     map[MethodCall]MethodCallee{},
		UpvarCaptures: immutable.NewSortedMap[UpvarID, UpvarCapture](upvarComparer{}),
		ClosureTys:    immutable.NewSortedMap[types.DefID, types.BareFnTy](orderedComparer[types.DefID]{}),
		ClosureKinds:  immutable.NewSortedMap[types.DefID, ClosureKind](orderedComparer[types.DefID]{}),
		Locals:        map[hir.NodeID]types.Ty{},
	}
}

// CaptureUpvar records how a closure captures a variable, keeping the first
// capture recorded for id
func (i *Inherited) CaptureUpvar(id UpvarID, capture UpvarCapture) {
	if _, ok := i.UpvarCaptures.Get(id); ok {
		return
	}
	i.UpvarCaptures = i.UpvarCaptures.Set(id, capture)
}

// WriteClosure records the signature and kind of the closure def
func (i *Inherited) WriteClosure(def types.DefID, fty types.BareFnTy, kind ClosureKind) {
	i.ClosureTys = i.ClosureTys.Set(def, fty)
	i.ClosureKinds = i.ClosureKinds.Set(def, kind)
}

type orderedComparer[K cmp.Ordered] struct{}

func (orderedComparer[K]) Compare(a, b K) int { return cmp.Compare(a, b) }

type methodCallComparer struct{}

func (methodCallComparer) Compare(a, b MethodCall) int {
	if c := cmp.Compare(a.Expr, b.Expr); c != 0 {
		return c
	}
	return cmp.Compare(a.Autoderef, b.Autoderef)
}

type upvarComparer struct{}

func (upvarComparer) Compare(a, b UpvarID) int {
	if c := cmp.Compare(a.ClosureExpr, b.ClosureExpr); c != 0 {
		return c
	}
	return cmp.Compare(a.Var, b.Var)
}

// Tables are the permanent, placeholder free results of checking. They are
// persistent maps: every write returns new tables and leaves the receiver
// untouched, so a snapshot handed to a later phase never changes.
type Tables struct {
	NodeTypes     *immutable.SortedMap[hir.NodeID, types.Ty]
	ItemSubsts    *immutable.SortedMap[hir.NodeID, types.ItemSubsts]
	Adjustments   *immutable.SortedMap[hir.NodeID, Adjustment]
	MethodMap     *immutable.SortedMap[MethodCall, MethodCallee]
	UpvarCaptures *immutable.SortedMap[UpvarID, UpvarCapture]
	ClosureTys    *immutable.SortedMap[types.DefID, types.BareFnTy]
	ClosureKinds  *immutable.SortedMap[types.DefID, ClosureKind]
}

func NewTables() *Tables {
	return &Tables{
		NodeTypes:     immutable.NewSortedMap[hir.NodeID, types.Ty](orderedComparer[hir.NodeID]{}),
		ItemSubsts:    immutable.NewSortedMap[hir.NodeID, types.ItemSubsts](orderedComparer[hir.NodeID]{}),
		Adjustments:   immutable.NewSortedMap[hir.NodeID, Adjustment](orderedComparer[hir.NodeID]{}),
		MethodMap:     immutable.NewSortedMap[MethodCall, MethodCallee](methodCallComparer{}),
		UpvarCaptures: immutable.NewSortedMap[UpvarID, UpvarCapture](upvarComparer{}),
		ClosureTys:    immutable.NewSortedMap[types.DefID, types.BareFnTy](orderedComparer[types.DefID]{}),
		ClosureKinds:  immutable.NewSortedMap[types.DefID, ClosureKind](orderedComparer[types.DefID]{}),
	}
}

// Snapshot returns the current state of t. Later writes to t do not affect it.
func (t *Tables) Snapshot() Tables { return *t }

func (t *Tables) WriteTy(id hir.NodeID, ty types.Ty) {
	if ty.Flags().NeedsInfer() {
		panicPlaceholder("node type", id, ty)
	}
	t.NodeTypes = t.NodeTypes.Set(id, ty)
}

func (t *Tables) WriteSubsts(id hir.NodeID, s types.ItemSubsts) {
	if s.Substs.Flags().NeedsInfer() {
		panicPlaceholder("item substs", id, s.Substs)
	}
	t.ItemSubsts = t.ItemSubsts.Set(id, s)
}

func (t *Tables) WriteAdjustment(id hir.NodeID, adj Adjustment) {
	t.Adjustments = t.Adjustments.Set(id, adj)
}

func (t *Tables) WriteMethod(call MethodCall, callee MethodCallee) {
	if callee.Ty.Flags().NeedsInfer() || callee.Substs.Flags().NeedsInfer() {
		panicPlaceholder("method callee", call.Expr, callee)
	}
	t.MethodMap = t.MethodMap.Set(call, callee)
}

func (t *Tables) WriteUpvarCapture(id UpvarID, c UpvarCapture) {
	t.UpvarCaptures = t.UpvarCaptures.Set(id, c)
}

func (t *Tables) WriteClosureTy(def types.DefID, ty types.BareFnTy) {
	t.ClosureTys = t.ClosureTys.Set(def, ty)
}

func (t *Tables) WriteClosureKind(def types.DefID, k ClosureKind) {
	t.ClosureKinds = t.ClosureKinds.Set(def, k)
}

func (t *Tables) NodeTy(id hir.NodeID) (types.Ty, bool) { return t.NodeTypes.Get(id) }

func (t *Tables) Adjustment(id hir.NodeID) (Adjustment, bool) { return t.Adjustments.Get(id) }

func (t *Tables) Method(call MethodCall) (MethodCallee, bool) { return t.MethodMap.Get(call) }

// Entries returns the entries of m in key order
func Entries[K, V any](m *immutable.SortedMap[K, V]) []Entry[K, V] {
	out := make([]Entry[K, V], 0, m.Len())
	for itr := m.Iterator(); !itr.Done(); {
		k, v, _ := itr.Next()
		out = append(out, Entry[K, V]{Key: k, Value: v})
	}
	return out
}

type Entry[K, V any] struct {
	Key   K
	Value V
}

// panicPlaceholder reports a placeholder about to reach the permanent tables
func panicPlaceholder(what string, id hir.NodeID, v any) {
	ilerr.Bug(nil, "%s of #%d still mentions placeholders: %v", what, id, v)
}
