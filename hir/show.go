package hir

import (
	"strconv"
	"strings"
)

// ExprString renders e in surface syntax, for logs and test names
func ExprString(e Expr) string {
	sb := &strings.Builder{}
	writeExpr(sb, e)
	return sb.String()
}

func writeExpr(sb *strings.Builder, e Expr) {
	switch e := e.(type) {
	case *Path:
		sb.WriteString(e.Name)
	case *Lit:
		sb.WriteString(e.Value)
	case *Paren:
		sb.WriteString("(")
		writeExpr(sb, e.Inner)
		sb.WriteString(")")
	case *Field:
		writeExpr(sb, e.Base)
		sb.WriteString(".")
		sb.WriteString(e.Name)
	case *TupField:
		writeExpr(sb, e.Base)
		sb.WriteString(".")
		sb.WriteString(strconv.Itoa(e.Index))
	case *Index:
		writeExpr(sb, e.Base)
		sb.WriteString("[")
		writeExpr(sb, e.Index)
		sb.WriteString("]")
	case *Unary:
		sb.WriteString(e.Op.String())
		writeExpr(sb, e.Operand)
	case *Binary:
		writeExpr(sb, e.Lhs)
		sb.WriteString(" " + e.Op.String() + " ")
		writeExpr(sb, e.Rhs)
	case *MethodCall:
		writeExpr(sb, e.Receiver)
		sb.WriteString("." + e.Name)
		if len(e.TypeArgs) > 0 {
			sb.WriteString("::<")
			for i, t := range e.TypeArgs {
				if i > 0 {
					sb.WriteString(", ")
				}
				writeTy(sb, t)
			}
			sb.WriteString(">")
		}
		writeArgs(sb, e.Args)
	case *Call:
		writeExpr(sb, e.Func)
		writeArgs(sb, e.Args)
	case *Closure:
		sb.WriteString("|")
		for i, arg := range e.Decl.Inputs {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePat(sb, arg.Pat)
		}
		sb.WriteString("| {...}")
	case *BlockExpr:
		sb.WriteString("{...}")
	default:
		sb.WriteString("<?>")
	}
}

func writeArgs(sb *strings.Builder, args []Expr) {
	sb.WriteString("(")
	for i, arg := range args {
		if i > 0 {
			sb.WriteString(", ")
		}
		writeExpr(sb, arg)
	}
	sb.WriteString(")")
}

func writePat(sb *strings.Builder, p Pat) {
	switch p := p.(type) {
	case *BindingPat:
		if p.Mutable {
			sb.WriteString("mut ")
		}
		sb.WriteString(p.Name)
	case *TuplePat:
		sb.WriteString("(")
		for i, elem := range p.Elems {
			if i > 0 {
				sb.WriteString(", ")
			}
			writePat(sb, elem)
		}
		sb.WriteString(")")
	case *WildPat:
		sb.WriteString("_")
	}
}

func writeTy(sb *strings.Builder, t Ty) {
	switch t := t.(type) {
	case *PathTy:
		sb.WriteString(t.Name)
	case *RefTy:
		sb.WriteString("&")
		if t.Mutable {
			sb.WriteString("mut ")
		}
		writeTy(sb, t.Elem)
	case *FixedLengthVecTy:
		sb.WriteString("[")
		writeTy(sb, t.Elem)
		sb.WriteString("; ")
		writeExpr(sb, t.Count)
		sb.WriteString("]")
	}
}

// PatString renders p in surface syntax
func PatString(p Pat) string {
	sb := &strings.Builder{}
	writePat(sb, p)
	return sb.String()
}
