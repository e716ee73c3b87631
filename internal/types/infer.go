package types

import (
	"fmt"
	"strings"

	"myst/internal/ast"
)

// Infer computes the kind of an undeclared-type initializer.
//
// Literals are trivial; identifiers and call targets are looked up, the
// latter yielding the callee's recorded return kind. Array literals, index
// reads and arithmetic/comparison results are always number since all of
// them land in the primary scalar slot. Any other shape is unresolved.
func Infer(env *Env, n ast.Node) (Kind, error) {
	switch n := n.(type) {
	case *ast.NumberLit:
		return KindNumber, nil
	case *ast.StringLit:
		return KindString, nil
	case *ast.ArrayLit, *ast.IndexExpr:
		return KindNumber, nil
	case *ast.Ident:
		return env.Lookup(n.Name)
	case *ast.BinaryExpr:
		if n.Op.IsArithmetic() || n.Op.IsComparison() {
			return KindNumber, nil
		}
	case *ast.CallExpr:
		if id, ok := n.Callee.(*ast.Ident); ok {
			k, err := env.Lookup(id.Name)
			if err != nil {
				return KindUndefined, err
			}
			return k.ReturnKind(), nil
		}
	case *ast.PropertyExpr:
		name, isCall, ok := PropertyName(n)
		if !ok {
			break
		}
		k, err := env.Lookup(name)
		if err != nil {
			return KindUndefined, err
		}
		if isCall {
			return k.ReturnKind(), nil
		}
		return k, nil
	}
	return KindUndefined, fmt.Errorf("%w: cannot infer kind of %T", ErrUnresolved, n)
}

// PropertyName flattens a property path into its "object.member" symbol
// name. isCall reports whether the innermost member is a call.
func PropertyName(p *ast.PropertyExpr) (name string, isCall bool, ok bool) {
	var parts []string
	var node ast.Node = p
	for {
		switch n := node.(type) {
		case *ast.PropertyExpr:
			obj, ok := n.Object.(*ast.Ident)
			if !ok {
				return "", false, false
			}
			parts = append(parts, obj.Name)
			node = n.Member
			continue
		case *ast.Ident:
			parts = append(parts, n.Name)
		case *ast.CallExpr:
			id, ok := n.Callee.(*ast.Ident)
			if !ok {
				return "", false, false
			}
			parts = append(parts, id.Name)
			isCall = true
		default:
			return "", false, false
		}
		return strings.Join(parts, "."), isCall, true
	}
}
