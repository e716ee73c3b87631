package ir

import (
	"myst/internal/ast"
)

var arithOps = map[ast.Operator]OpCode{
	ast.OpAdd: OpAdd,
	ast.OpSub: OpSub,
	ast.OpMul: OpMul,
	ast.OpDiv: OpDiv,
}

var relations = map[ast.Operator]Relation{
	ast.OpEq:    RelEq,
	ast.OpNotEq: RelNe,
	ast.OpLt:    RelLt,
	ast.OpLtEq:  RelLe,
	ast.OpGt:    RelGt,
	ast.OpGtEq:  RelGe,
}

// lowerExpr lowers n and returns the scratch slot holding its value: the
// primary slot for scalars, the struct slot for strings and structs.
func (c *Compiler) lowerExpr(out *Chunk, n ast.Node) (Operand, error) {
	switch n := n.(type) {
	case *ast.NumberLit:
		dst := c.primary()
		out.Emit(Mov(Imm(n.Value), dst))
		return dst, nil

	case *ast.StringLit:
		dst := c.structSlot()
		out.Emit(Mov(Data(c.addString(n.Value)), dst))
		return dst, nil

	case *ast.Ident:
		dst := c.primary()
		if k, err := c.env.Lookup(n.Name); err == nil {
			dst = c.placeFor(k)
		}
		out.Emit(Mov(Name(n.Name), dst))
		return dst, nil

	case *ast.BinaryExpr:
		if n.Op.IsArithmetic() || n.Op.IsComparison() {
			return c.lowerBinary(out, n)
		}
		return Operand{}, newError(ErrUnsupportedConstruct, n, "%q in expression position", n.Op)

	case *ast.CallExpr:
		return c.lowerCallExpr(out, n)

	case *ast.PropertyExpr:
		return c.lowerProperty(out, n)

	case *ast.IndexExpr:
		return c.lowerIndex(out, n)

	case *ast.ArrayLit:
		return c.lowerArray(out, n)
	}
	return Operand{}, newError(ErrUnsupportedConstruct, n, "%T in expression position", n)
}

// lowerScalar lowers n into the primary slot.
func (c *Compiler) lowerScalar(out *Chunk, n ast.Node) error {
	place, err := c.lowerExpr(out, n)
	if err != nil {
		return err
	}
	if place != c.primary() {
		return newError(ErrUnsupportedConstruct, n, "string or struct operand where a number is required")
	}
	return nil
}

type shape int

const (
	shapeImm    shape = iota // literal number
	shapeDirect              // named cell
	shapeEval                // must be lowered into the primary slot first
)

type binOperand struct {
	shape shape
	op    Operand
}

func (c *Compiler) classify(n ast.Node) (binOperand, error) {
	switch n := n.(type) {
	case *ast.NumberLit:
		return binOperand{shape: shapeImm, op: Imm(n.Value)}, nil
	case *ast.Ident:
		return binOperand{shape: shapeDirect, op: Name(n.Name)}, nil
	case *ast.StringLit, *ast.ArrayLit, nil:
		return binOperand{}, newError(ErrUnsupportedConstruct, n, "%T operand of a binary operation", n)
	}
	return binOperand{shape: shapeEval}, nil
}

// lowerBinary lowers an arithmetic or comparison node into the primary
// slot. Operands are classified first and the operator is dispatched once:
//
//	simple ⊕ simple    one instruction
//	simple ⊕ complex   lower the complex side, combine in place
//	complex ⊕ complex  lower left, spill it to the secondary slot, lower
//	                   right, combine secondary ⊕ primary
//
// The left operand is always fully lowered and relocated before the right
// one starts.
func (c *Compiler) lowerBinary(out *Chunk, b *ast.BinaryExpr) (Operand, error) {
	left, err := c.classify(b.Left)
	if err != nil {
		return Operand{}, err
	}
	right, err := c.classify(b.Right)
	if err != nil {
		return Operand{}, err
	}

	dst := c.primary()
	combine := func(l, r Operand) Instruction {
		if rel, ok := relations[b.Op]; ok {
			return Cmp(rel, l, r, dst)
		}
		return Arith(arithOps[b.Op], l, r, dst)
	}

	switch {
	case left.shape != shapeEval && right.shape != shapeEval:
		out.Emit(combine(left.op, right.op))

	case left.shape != shapeEval:
		if err := c.lowerScalar(out, b.Right); err != nil {
			return Operand{}, err
		}
		out.Emit(combine(left.op, dst))

	case right.shape != shapeEval:
		if err := c.lowerScalar(out, b.Left); err != nil {
			return Operand{}, err
		}
		out.Emit(combine(dst, right.op))

	default:
		if err := c.lowerScalar(out, b.Left); err != nil {
			return Operand{}, err
		}
		sec := Name(c.scratch.acquire(out, Secondary))
		defer c.scratch.release(Secondary)
		out.Emit(Mov(dst, sec))
		if err := c.lowerScalar(out, b.Right); err != nil {
			return Operand{}, err
		}
		out.Emit(combine(sec, dst))
	}
	return dst, nil
}
