package fixture

import (
	"maps"
	"slices"

	"github.com/cottand/tyck/check/method"
	"github.com/cottand/tyck/hir"
	"github.com/cottand/tyck/types"
)

// Scenario is a canned function together with the nodes of its body that
// are worth looking at afterwards
type Scenario struct {
	Name  string
	Unit  Unit
	Nodes map[string]hir.Node
}

// Node returns the node registered as name, panicking when there is none
func (s *Scenario) Node(name string) hir.Node {
	n, ok := s.Nodes[name]
	if !ok {
		panic("fixture: scenario " + s.Name + " has no node " + name)
	}
	return n
}

var scenarios = map[string]func(u *Universe) *Scenario{
	"inherent":  Inherent,
	"object":    Object,
	"operators": Operators,
	"closure":   Closure,
	"ambiguous": Ambiguous,
	"reconcile": Reconcile,
}

// Names lists the scenarios in alphabetical order
func Names() []string { return slices.Sorted(maps.Keys(scenarios)) }

// Lookup builds the scenario called name against u
func Lookup(u *Universe, name string) (*Scenario, bool) {
	build, ok := scenarios[name]
	if !ok {
		return nil, false
	}
	return build(u), true
}

func imm() *types.Mutability {
	m := types.Immutable
	return &m
}

func mut() *types.Mutability {
	m := types.Mutable
	return &m
}

func decl(inputs ...*hir.Arg) *hir.FnDecl { return &hir.FnDecl{Inputs: inputs} }

// Inherent is
//
//	fn inherent(w: Widget) -> i32 { w.get() }
//
// where probing picked the inherent `Widget::get(&self)` with no autoderef
// and an immutable autoref
func Inherent(u *Universe) *Scenario {
	b := hir.NewBuilder()
	w := b.Path("w")
	call := b.MethodCall(w, "get")
	d := decl(b.Arg(b.Bind("w", false), b.PathTy("Widget")))
	d.Output = b.PathTy("i32")
	fn := b.Fn("inherent", d, b.Block(call))
	return &Scenario{
		Name: "inherent",
		Unit: Unit{Fn: fn, Picks: map[hir.NodeID]method.Pick{
			call.ID(): {Item: u.Method(u.WidgetImpl, "get"), Kind: method.InherentImplPick{Impl: u.WidgetImpl}, Autoref: imm()},
		}},
		Nodes: map[string]hir.Node{"call": call, "receiver": w},
	}
}

// Object is
//
//	fn object(d: Box<dyn Drawable>) { d.name(); d.draw(); }
//
// where both calls go through the vtable of the object, name being inherited
// from the supertrait Named
func Object(u *Universe) *Scenario {
	b := hir.NewBuilder()
	d1, d2 := b.Path("d"), b.Path("d")
	name := b.MethodCall(d1, "name")
	draw := b.MethodCall(d2, "draw")
	fn := b.Fn("object", decl(b.Arg(b.Bind("d", false), b.PathTy("Box<Drawable>"))), b.Block(nil, b.Semi(name), b.Semi(draw)))
	return &Scenario{
		Name: "object",
		Unit: Unit{Fn: fn, Picks: map[hir.NodeID]method.Pick{
			name.ID(): {
				Item:       u.Method(u.NamedTrait, "name"),
				Kind:       method.ObjectPick{Trait: u.NamedTrait, MethodNum: 0, VtableIndex: 0},
				Autoderefs: 1,
				Autoref:    imm(),
			},
			draw.ID(): {
				Item:       u.Method(u.Drawable, "draw"),
				Kind:       method.ObjectPick{Trait: u.Drawable, MethodNum: 0, VtableIndex: 1},
				Autoderefs: 1,
				Autoref:    imm(),
			},
		}},
		Nodes: map[string]hir.Node{"name": name, "draw": draw, "nameReceiver": d1},
	}
}

// Operators is
//
//	fn operators(w: Widget, v: Widget, xs: [i32; 3]) -> bool {
//	    let a = 1;
//	    let b = 2;
//	    let sum = a + b;
//	    let same = a == b;
//	    let x = xs[1];
//	    w == v
//	}
func Operators(u *Universe) *Scenario {
	b := hir.NewBuilder()
	sum := b.Binary(hir.BinAdd, b.Path("a"), b.Path("b"))
	same := b.Binary(hir.BinEq, b.Path("a"), b.Path("b"))
	index := b.Index(b.Path("xs"), b.Lit("1"))
	widgets := b.Binary(hir.BinEq, b.Path("w"), b.Path("v"))
	d := decl(
		b.Arg(b.Bind("w", false), b.PathTy("Widget")),
		b.Arg(b.Bind("v", false), b.PathTy("Widget")),
		b.Arg(b.Bind("xs", false), b.ArrayTy(b.PathTy("i32"), b.Lit("3"))),
	)
	d.Output = b.PathTy("bool")
	body := b.Block(widgets,
		b.Let(b.Bind("a", false), nil, b.Lit("1")),
		b.Let(b.Bind("b", false), nil, b.Lit("2")),
		b.Let(b.Bind("sum", false), nil, sum),
		b.Let(b.Bind("same", false), nil, same),
		b.Let(b.Bind("x", false), nil, index),
	)
	return &Scenario{
		Name:  "operators",
		Unit:  Unit{Fn: b.Fn("operators", d, body)},
		Nodes: map[string]hir.Node{"sum": sum, "same": same, "index": index, "widgets": widgets},
	}
}

// Closure is
//
//	fn closure(w: Widget) -> i32 {
//	    let y = 5;
//	    let add = |x: i32| x + y;
//	    let count = || w.count;
//	    y
//	}
func Closure(u *Universe) *Scenario {
	b := hir.NewBuilder()
	add := b.Closure(decl(b.Arg(b.Bind("x", false), b.PathTy("i32"))), b.Block(b.Binary(hir.BinAdd, b.Path("x"), b.Path("y"))))
	count := b.Closure(decl(), b.Block(b.Field(b.Path("w"), "count")))
	d := decl(b.Arg(b.Bind("w", false), b.PathTy("Widget")))
	d.Output = b.PathTy("i32")
	letY := b.Let(b.Bind("y", false), nil, b.Lit("5"))
	body := b.Block(b.Path("y"),
		letY,
		b.Let(b.Bind("add", false), nil, add),
		b.Let(b.Bind("count", false), nil, count),
	)
	return &Scenario{
		Name: "closure",
		Unit: Unit{Fn: b.Fn("closure", d, body)},
		Nodes: map[string]hir.Node{
			"add": add, "count": count,
			"y": letY.Local.Pat, "w": d.Inputs[0].Pat,
		},
	}
}

// Ambiguous is
//
//	fn ambiguous() { let x; let y; let z = 1; }
//
// where nothing ever constrains x or y
func Ambiguous(u *Universe) *Scenario {
	b := hir.NewBuilder()
	x := b.LetUninit(b.Bind("x", false))
	y := b.LetUninit(b.Bind("y", false))
	z := b.Let(b.Bind("z", false), nil, b.Lit("1"))
	return &Scenario{
		Name:  "ambiguous",
		Unit:  Unit{Fn: b.Fn("ambiguous", decl(), b.Block(nil, x, y, z))},
		Nodes: map[string]hir.Node{"x": x.Local, "y": y.Local, "z": z.Local},
	}
}

// Reconcile is
//
//	fn reconcile(g: &mut Grid, mut h: Handle) { g[0].set(5); (*h).set(1); }
//
// where `Cell::set` takes `&mut self`, so that the Index and Deref used to
// reach the receivers are switched to IndexMut and DerefMut
func Reconcile(u *Universe) *Scenario {
	b := hir.NewBuilder()
	g := b.Path("g")
	index := b.Index(g, b.Lit("0"))
	setIndexed := b.MethodCall(index, "set", b.Lit("5"))
	h := b.Path("h")
	deref := b.Deref(h)
	setDerefd := b.MethodCall(b.Paren(deref), "set", b.Lit("1"))
	d := decl(
		b.Arg(b.Bind("g", false), b.RefTy(b.PathTy("Grid"), true)),
		b.Arg(b.Bind("h", true), b.PathTy("Handle")),
	)
	set := u.Method(u.CellImpl, "set")
	pick := method.Pick{Item: set, Kind: method.InherentImplPick{Impl: u.CellImpl}, Autoref: mut()}
	return &Scenario{
		Name: "reconcile",
		Unit: Unit{
			Fn:    b.Fn("reconcile", d, b.Block(nil, b.Semi(setIndexed), b.Semi(setDerefd))),
			Picks: map[hir.NodeID]method.Pick{setIndexed.ID(): pick, setDerefd.ID(): pick},
		},
		Nodes: map[string]hir.Node{"g": g, "index": index, "h": h, "deref": deref},
	}
}
