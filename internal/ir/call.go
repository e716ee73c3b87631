package ir

import (
	"myst/internal/ast"
	"myst/internal/types"
)

// lowerFuncDecl compiles the body into its own stream and emits a
// function record carrying it encoded. Data produced by the body is merged
// into the enclosing unit.
//
// The function's own name is recorded only after its body is compiled, so
// a self-call inside the body sees no kind and takes the number fallback.
func (c *Compiler) lowerFuncDecl(out *Chunk, fn *ast.FuncDecl) error {
	result := types.FromTypeNode(fn.Result)
	if result.Tag == types.Undefined {
		result = types.KindNumber
	}
	if c.scratch.reserved(fn.Name) {
		return newError(ErrInvalidDeclarationTarget, fn, "%q is a scratch slot", fn.Name)
	}
	def := &FuncDef{Name: fn.Name, Result: StorageFor(result)}

	body := c.child()
	code, err := body.lowerBody(fn, def)
	if err != nil {
		return err
	}
	if err := c.unit.MergeData(body.unit.Data); err != nil {
		return wrapError(ErrUnsupportedConstruct, fn, err)
	}

	encoded, err := EncodeCode(code)
	if err != nil {
		return wrapError(ErrUnsupportedConstruct, fn, err)
	}
	def.Body = encoded
	out.Emit(Func(def))

	if err := c.env.Declare(fn.Name, result); err != nil {
		return wrapError(ErrDuplicateDeclaration, fn, err)
	}
	if c.depth == 0 {
		c.unit.Exports[fn.Name] = result
	}
	c.log.Debugf("function %s(%d params) -> %s: %d bytes", fn.Name, len(def.Params), result, len(encoded))
	return nil
}

func (c *Compiler) lowerBody(fn *ast.FuncDecl, def *FuncDef) ([]Instruction, error) {
	c.env.Enter()
	defer c.env.Leave()

	var out Chunk
	c.scratch.declareLocal(&out)

	for _, p := range fn.Params {
		kind := types.FromTypeNode(p.Type)
		if kind.Tag == types.Undefined {
			kind = types.KindNumber
		}
		if c.scratch.reserved(p.Name) {
			return nil, newError(ErrInvalidDeclarationTarget, p, "parameter %q is a scratch slot", p.Name)
		}
		st := StorageFor(kind)
		if st == TypeNone {
			return nil, newError(ErrUnsupportedConstruct, p, "parameter %q cannot have kind %s", p.Name, kind)
		}
		// callback parameters are recorded so calls through them go
		// through the pointer they hold
		if err := c.env.Declare(p.Name, kind); err != nil {
			return nil, wrapError(ErrDuplicateDeclaration, p, err)
		}
		def.Params = append(def.Params, Param{Name: p.Name, Type: st})
	}

	for _, n := range fn.Body {
		if err := c.lowerStmt(&out, n); err != nil {
			return nil, err
		}
	}
	return out.Code, nil
}

func (c *Compiler) lowerCallExpr(out *Chunk, call *ast.CallExpr) (Operand, error) {
	switch callee := call.Callee.(type) {
	case *ast.Ident:
		return c.lowerCall(out, callee.Name, call.Args)
	case *ast.PropertyExpr:
		if name, isCall, ok := types.PropertyName(callee); ok && !isCall {
			return c.lowerCall(out, name, call.Args)
		}
	}
	return Operand{}, newError(ErrMalformedCallee, call, "callee %T is not a name", call.Callee)
}

// lowerCall pushes args left to right, calls callee and retrieves the
// result according to the callee's recorded kind. Plain calls and property
// calls both go through here.
func (c *Compiler) lowerCall(out *Chunk, callee string, args []ast.Node) (Operand, error) {
	for _, a := range args {
		if err := c.pushArg(out, a); err != nil {
			return Operand{}, err
		}
	}

	kind, err := c.env.Lookup(callee)
	if err != nil {
		c.log.Debugf("no kind recorded for callee %q, assuming number", callee)
		kind = types.KindNumber
	}

	if kind.IsCallback() {
		out.Emit(Call(Name(callee)))
	} else {
		out.Emit(Call(FuncLabel(callee)))
	}
	return c.popResult(out, kind.ReturnKind()), nil
}

func (c *Compiler) pushArg(out *Chunk, a ast.Node) error {
	if src, ok := c.direct(a); ok {
		out.Emit(Push(src))
		return nil
	}
	place, err := c.lowerExpr(out, a)
	if err != nil {
		return err
	}
	out.Emit(Push(place))
	return nil
}

// popResult emits the return-value retrieval for a callee returning k.
// Null and callback results leave nothing to pop.
func (c *Compiler) popResult(out *Chunk, k types.Kind) Operand {
	switch k.Tag {
	case types.String, types.Struct:
		dst := c.structSlot()
		out.Emit(Pop(dst))
		return dst
	case types.Null, types.Callback:
		out.Emit(Nop())
		return c.primary()
	}
	dst := c.primary()
	out.Emit(Pop(dst))
	return dst
}
