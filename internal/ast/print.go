package ast

import (
	"fmt"
	"io"
	"strings"
)

// Dump returns a human-readable representation of the AST.
func Dump(node Node) string {
	var sb strings.Builder
	fprintNode(&sb, node, 0)
	return sb.String()
}

// TypeString renders a type annotation the way it is written in source.
func TypeString(t TypeNode) string {
	switch t := t.(type) {
	case nil:
		return "undefined"
	case *SimpleType:
		return t.Name
	case *FuncType:
		if t.Result == nil {
			return "func"
		}
		return "func<" + TypeString(t.Result) + ">"
	default:
		return fmt.Sprintf("%T", t)
	}
}

func fprintBlock(w io.Writer, label string, body []Node, indent int) {
	ind := strings.Repeat("  ", indent)
	fmt.Fprintf(w, "%s%s:\n", ind, label)
	for _, n := range body {
		fprintNode(w, n, indent+1)
	}
}

func fprintNode(w io.Writer, n Node, indent int) {
	if n == nil {
		return
	}

	ind := strings.Repeat("  ", indent)

	switch n := n.(type) {
	case *Program:
		fmt.Fprintf(w, "%sProgram\n", ind)
		for _, st := range n.Body {
			fprintNode(w, st, indent+1)
		}

	case *ImportStmt:
		fmt.Fprintf(w, "%sImport name=%s\n", ind, n.Name)

	case *FuncDecl:
		fmt.Fprintf(w, "%sFuncDecl name=%s result=%s\n", ind, n.Name, TypeString(n.Result))
		for _, p := range n.Params {
			fmt.Fprintf(w, "%s  Param %s: %s\n", ind, p.Name, TypeString(p.Type))
		}
		fprintBlock(w, "Body", n.Body, indent+1)

	case *IfStmt:
		fmt.Fprintf(w, "%sIf\n", ind)
		fmt.Fprintf(w, "%s  Cond:\n", ind)
		fprintNode(w, n.Cond, indent+2)
		fprintBlock(w, "Then", n.Then, indent+1)
		if len(n.Else) > 0 {
			fprintBlock(w, "Else", n.Else, indent+1)
		}

	case *WhileStmt:
		fmt.Fprintf(w, "%sWhile\n", ind)
		fmt.Fprintf(w, "%s  Cond:\n", ind)
		fprintNode(w, n.Cond, indent+2)
		fprintBlock(w, "Body", n.Body, indent+1)

	case *ReturnStmt:
		fmt.Fprintf(w, "%sReturn\n", ind)
		fprintNode(w, n.Value, indent+1)

	case *PassStmt:
		fmt.Fprintf(w, "%sPass\n", ind)

	case *NumberLit:
		fmt.Fprintf(w, "%sNumber %d\n", ind, n.Value)

	case *StringLit:
		fmt.Fprintf(w, "%sString %q\n", ind, n.Value)

	case *ArrayLit:
		fmt.Fprintf(w, "%sArray len=%d\n", ind, len(n.Elements))
		for _, el := range n.Elements {
			fprintNode(w, el, indent+1)
		}

	case *Ident:
		fmt.Fprintf(w, "%sIdent %s\n", ind, n.Name)

	case *BinaryExpr:
		if n.Op == OpDeclare {
			fmt.Fprintf(w, "%sBinary %s type=%s\n", ind, n.Op, TypeString(n.Annotation))
		} else {
			fmt.Fprintf(w, "%sBinary %s\n", ind, n.Op)
		}
		fprintNode(w, n.Left, indent+1)
		fprintNode(w, n.Right, indent+1)

	case *IndexExpr:
		fmt.Fprintf(w, "%sIndex %s\n", ind, n.Name)
		fprintNode(w, n.Index, indent+1)

	case *PropertyExpr:
		fmt.Fprintf(w, "%sProperty\n", ind)
		fprintNode(w, n.Object, indent+1)
		fprintNode(w, n.Member, indent+1)

	case *CallExpr:
		fmt.Fprintf(w, "%sCall args=%d\n", ind, len(n.Args))
		fprintNode(w, n.Callee, indent+1)
		for _, a := range n.Args {
			fprintNode(w, a, indent+1)
		}

	case *SimpleType, *FuncType:
		fmt.Fprintf(w, "%sType %s\n", ind, TypeString(n.(TypeNode)))

	default:
		fmt.Fprintf(w, "%s<unknown %T>\n", ind, n)
	}
}
