package ir

import (
	"myst/internal/ast"
	"myst/internal/types"
)

// lowerArray allocates one cell per element, stores the elements and
// leaves the block pointer in the primary slot.
func (c *Compiler) lowerArray(out *Chunk, a *ast.ArrayLit) (Operand, error) {
	ptr := Name(c.scratch.acquire(out, Aggregate))
	defer c.scratch.release(Aggregate)

	out.Emit(Alloc(TypeI64, int64(len(a.Elements)), ptr))
	for i, el := range a.Elements {
		src, ok := c.direct(el)
		if !ok {
			place, err := c.lowerExpr(out, el)
			if err != nil {
				return Operand{}, err
			}
			src = place
		}
		out.Emit(Pmov(src, ptr, Imm(int64(i))))
	}

	dst := c.primary()
	out.Emit(Mov(ptr, dst))
	return dst, nil
}

// lowerIndex computes name + index into the primary slot and loads
// through it. The address is recomputed on every evaluation.
func (c *Compiler) lowerIndex(out *Chunk, ix *ast.IndexExpr) (Operand, error) {
	if err := c.lowerScalar(out, ix.Index); err != nil {
		return Operand{}, err
	}
	dst := c.primary()
	out.Emit(Arith(OpAdd, Name(ix.Name), dst, dst))
	out.Emit(Deref(dst, dst))
	return dst, nil
}

// lowerProperty flattens object.member into one symbol name. A plain
// member is read from the cell of that name; a call member is a call to it.
func (c *Compiler) lowerProperty(out *Chunk, p *ast.PropertyExpr) (Operand, error) {
	name, isCall, ok := types.PropertyName(p)
	if !ok {
		return Operand{}, newError(ErrMalformedCallee, p, "property path is not reducible to a name")
	}
	if isCall {
		return c.lowerCall(out, name, memberCall(p).Args)
	}

	dst := c.primary()
	if k, err := c.env.Lookup(name); err == nil {
		dst = c.placeFor(k)
	}
	out.Emit(Mov(Name(name), dst))
	return dst, nil
}

func memberCall(p *ast.PropertyExpr) *ast.CallExpr {
	var n ast.Node = p
	for {
		switch m := n.(type) {
		case *ast.PropertyExpr:
			n = m.Member
		case *ast.CallExpr:
			return m
		default:
			return nil
		}
	}
}

// lowerImport splices the included unit's code into the stream and merges
// its data. Symbols it defines are not inspected; their kinds must come
// from the prelude.
func (c *Compiler) lowerImport(out *Chunk, s *ast.ImportStmt) error {
	if c.includer == nil {
		return newError(ErrUnsupportedConstruct, s, "import %q: no include resolver configured", s.Name)
	}
	u, err := c.includer.Include(s.Name)
	if err != nil {
		return wrapError(ErrUnresolvedSymbol, s, err)
	}
	for _, inst := range u.Code {
		out.Emit(inst)
	}
	if err := c.unit.MergeData(u.Data); err != nil {
		return wrapError(ErrUnsupportedConstruct, s, err)
	}
	c.log.Debugf("included %s: %d instructions, %d data entries", s.Name, len(u.Code), len(u.Data))
	return nil
}
