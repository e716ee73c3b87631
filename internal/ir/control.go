package ir

import "myst/internal/ast"

// lowerIf evaluates the condition in the current stream, then emits one
// scope laid out as
//
//	jeq cond, 0 -> false branch
//	scope { then }
//	jmp -> exit
//	scope { else }
//
// Jump targets are child indices of that scope; a target equal to the
// number of children leaves it.
func (c *Compiler) lowerIf(out *Chunk, s *ast.IfStmt) error {
	cond, err := c.lowerExpr(out, s.Cond)
	if err != nil {
		return err
	}
	then, err := c.lowerBlock(s.Then)
	if err != nil {
		return err
	}
	els, err := c.lowerBlock(s.Else)
	if err != nil {
		return err
	}

	children := make([]Instruction, 0, 4)
	branch := len(children)
	children = append(children, Instruction{})
	children = append(children, Scope(then))
	skip := len(children)
	children = append(children, Instruction{})
	falseBranch := len(children)
	children = append(children, Scope(els))

	children[branch] = Jeq(cond, Imm(0), falseBranch)
	children[skip] = Jmp(len(children))

	out.Emit(Scope(children))
	return nil
}

// lowerWhile emits one scope laid out as
//
//	scope { cond }
//	jeq cond, 0 -> exit
//	scope { body }
//	jmp -> 0
func (c *Compiler) lowerWhile(out *Chunk, s *ast.WhileStmt) error {
	var condCode Chunk
	cond, err := c.lowerExpr(&condCode, s.Cond)
	if err != nil {
		return err
	}
	body, err := c.lowerBlock(s.Body)
	if err != nil {
		return err
	}

	children := make([]Instruction, 0, 4)
	head := len(children)
	children = append(children, Scope(condCode.Code))
	exit := len(children)
	children = append(children, Instruction{})
	children = append(children, Scope(body))
	children = append(children, Jmp(head))

	children[exit] = Jeq(cond, Imm(0), len(children))

	out.Emit(Scope(children))
	return nil
}
