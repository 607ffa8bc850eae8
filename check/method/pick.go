// Package method confirms method calls: given the candidate probing picked
// for a call, it produces the fully typed callee and records the adjustments
// and obligations the call implies.
package method

import (
	"fmt"

	"github.com/cottand/tyck/types"
)

// PickKind is where the method of a pick comes from
type PickKind interface {
	fmt.Stringer
	pickKind()
}

var (
	_ PickKind = InherentImplPick{}
	_ PickKind = ObjectPick{}
	_ PickKind = ExtensionImplPick{}
	_ PickKind = TraitPick{}
	_ PickKind = WhereClausePick{}
)

// InherentImplPick is a method of an impl with no trait
type InherentImplPick struct {
	Impl types.DefID
}

// ObjectPick is a method of Trait called on a trait object whose principal
// inherits from Trait
type ObjectPick struct {
	Trait       types.DefID
	MethodNum   int
	VtableIndex int
}

// ExtensionImplPick is a trait method implemented by Impl
type ExtensionImplPick struct {
	Impl      types.DefID
	MethodNum int
}

// TraitPick is a trait method whose impl is not known yet
type TraitPick struct {
	Trait     types.DefID
	MethodNum int
}

// WhereClausePick is a trait method available through a where clause
type WhereClausePick struct {
	Bound     types.PolyTraitRef
	MethodNum int
}

func (InherentImplPick) pickKind()  {}
func (ObjectPick) pickKind()        {}
func (ExtensionImplPick) pickKind() {}
func (TraitPick) pickKind()         {}
func (WhereClausePick) pickKind()   {}

func (p InherentImplPick) String() string { return fmt.Sprintf("inherent(impl %d)", p.Impl) }
func (p ObjectPick) String() string {
	return fmt.Sprintf("object(trait %d, method %d, vtable %d)", p.Trait, p.MethodNum, p.VtableIndex)
}
func (p ExtensionImplPick) String() string {
	return fmt.Sprintf("extension(impl %d, method %d)", p.Impl, p.MethodNum)
}
func (p TraitPick) String() string { return fmt.Sprintf("trait(%d, method %d)", p.Trait, p.MethodNum) }
func (p WhereClausePick) String() string {
	return fmt.Sprintf("where-clause(%v, method %d)", p.Bound.Value, p.MethodNum)
}

// Pick is the outcome of probing a method call
type Pick struct {
	Item *types.Method
	Kind PickKind
	// Autoderefs is the number of dereferences of the receiver probing went through
	Autoderefs uint32
	// Autoref is set when the receiver is then referenced with that mutability
	Autoref *types.Mutability
	// Unsize is the type the autoref'd receiver is unsized to, or nil
	Unsize types.Ty
}

func (p Pick) String() string {
	return fmt.Sprintf("%s via %v, %d autoderefs", p.Item.Name, p.Kind, p.Autoderefs)
}
