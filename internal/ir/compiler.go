package ir

import (
	"fmt"

	"github.com/tliron/commonlog"

	"myst/internal/ast"
	"myst/internal/types"
)

// Includer resolves an import to a compiled unit. The unit's code is
// spliced verbatim into the importing stream and its data merged.
type Includer interface {
	Include(name string) (*Unit, error)
}

// Options configure one compilation.
type Options struct {
	// Name of the unit; data entries are prefixed with it. Defaults to "main".
	Name string

	// Prelude seeds the symbol environment with externally known kinds.
	Prelude types.Prelude

	Scratch  ScratchNames
	Includer Includer
	Log      commonlog.Logger
}

// Compiler lowers a program into a linear instruction stream. One
// Compiler owns one stream: the unit's top level or a function body.
type Compiler struct {
	unit     *Unit
	env      *types.Env
	scratch  *scratchPool
	includer Includer
	log      commonlog.Logger
	names    *nameGen
	depth    int
}

type nameGen struct {
	prefix string
	n      int
}

func (g *nameGen) data() string {
	name := fmt.Sprintf("%s.str%d", g.prefix, g.n)
	g.n++
	return name
}

// Compile lowers prog into a unit. The first node that cannot be lowered
// abandons the whole unit: the result is then nil and err is a
// *CompileError.
//
// The returned unit does not declare the scratch slots; see DeclareScratch.
func Compile(prog *ast.Program, opts Options) (*Unit, error) {
	if prog == nil {
		return nil, fmt.Errorf("nil program")
	}
	if err := opts.Scratch.Validate(); err != nil {
		return nil, err
	}
	if opts.Name == "" {
		opts.Name = "main"
	}
	if opts.Log == nil {
		opts.Log = commonlog.GetLogger("myst.ir")
	}

	unit := &Unit{Name: opts.Name, Exports: map[string]types.Kind{}}
	c := &Compiler{
		unit:     unit,
		env:      types.NewEnv(opts.Prelude),
		scratch:  newScratchPool(opts.Scratch),
		includer: opts.Includer,
		log:      opts.Log,
		names:    &nameGen{prefix: opts.Name},
	}

	var out Chunk
	for _, n := range prog.Body {
		if err := c.lowerStmt(&out, n); err != nil {
			return nil, err
		}
	}
	unit.Code = out.Code

	c.log.Debugf("compiled unit %s: %d instructions, %d data entries, %d exports",
		unit.Name, len(unit.Code), len(unit.Data), len(unit.Exports))
	return unit, nil
}

// child returns a compiler for a nested function body. It shares the
// environment and the data name generator, but collects its data into its
// own unit and has its own scratch liveness.
func (c *Compiler) child() *Compiler {
	return &Compiler{
		unit:     &Unit{Name: c.unit.Name},
		env:      c.env,
		scratch:  newScratchPool(c.scratch.names),
		includer: c.includer,
		log:      c.log,
		names:    c.names,
		depth:    c.depth + 1,
	}
}

func (c *Compiler) primary() Operand { return Name(c.scratch.name(Primary)) }
func (c *Compiler) structSlot() Operand { return Name(c.scratch.name(Struct)) }

// placeFor is the scratch slot a value of kind k is left in.
func (c *Compiler) placeFor(k types.Kind) Operand {
	if k.IsStructLike() {
		return c.structSlot()
	}
	return c.primary()
}

func (c *Compiler) addString(s string) string {
	name := c.names.data()
	c.unit.AddData(name, s)
	return name
}

// direct returns an operand for n when it needs no evaluation: an
// immediate, a named cell or a string constant.
func (c *Compiler) direct(n ast.Node) (Operand, bool) {
	switch n := n.(type) {
	case *ast.NumberLit:
		return Imm(n.Value), true
	case *ast.Ident:
		return Name(n.Name), true
	case *ast.StringLit:
		return Data(c.addString(n.Value)), true
	}
	return Operand{}, false
}

// ---------- Statements ----------

func (c *Compiler) lowerBlock(body []ast.Node) ([]Instruction, error) {
	c.env.Enter()
	defer c.env.Leave()

	var out Chunk
	for _, n := range body {
		if err := c.lowerStmt(&out, n); err != nil {
			return nil, err
		}
	}
	return out.Code, nil
}

func (c *Compiler) lowerStmt(out *Chunk, n ast.Node) error {
	switch n := n.(type) {
	case *ast.BinaryExpr:
		switch n.Op {
		case ast.OpDeclare:
			return c.lowerDeclare(out, n)
		case ast.OpAssign:
			return c.lowerAssign(out, n)
		}
	case *ast.IfStmt:
		return c.lowerIf(out, n)
	case *ast.WhileStmt:
		return c.lowerWhile(out, n)
	case *ast.FuncDecl:
		return c.lowerFuncDecl(out, n)
	case *ast.ReturnStmt:
		return c.lowerReturn(out, n)
	case *ast.ImportStmt:
		return c.lowerImport(out, n)
	case *ast.PassStmt:
		out.Emit(Nop())
		return nil
	case nil:
		return newError(ErrUnsupportedConstruct, nil, "empty statement")
	}

	// expression statement: the value is left in its scratch slot
	_, err := c.lowerExpr(out, n)
	return err
}

func (c *Compiler) lowerDeclare(out *Chunk, b *ast.BinaryExpr) error {
	id, ok := b.Left.(*ast.Ident)
	if !ok {
		return newError(ErrInvalidDeclarationTarget, b.Left, "cannot declare %T", b.Left)
	}
	if c.scratch.reserved(id.Name) {
		return newError(ErrInvalidDeclarationTarget, id, "%q is a scratch slot", id.Name)
	}

	kind := types.FromTypeNode(b.Annotation)
	if kind.Tag == types.Undefined {
		inferred, err := types.Infer(c.env, b.Right)
		if err != nil {
			return wrapError(ErrUnresolvedSymbol, b.Right, err)
		}
		kind = inferred
	}
	st := StorageFor(kind)
	if st == TypeNone {
		return newError(ErrUnsupportedConstruct, b, "cannot declare %q with kind %s", id.Name, kind)
	}
	if err := c.env.Declare(id.Name, kind); err != nil {
		return wrapError(ErrDuplicateDeclaration, id, err)
	}

	out.Emit(Var(st, id.Name))
	return c.store(out, b.Right, id.Name)
}

func (c *Compiler) lowerAssign(out *Chunk, b *ast.BinaryExpr) error {
	id, ok := b.Left.(*ast.Ident)
	if !ok {
		return newError(ErrInvalidAssignmentTarget, b.Left, "cannot assign to %T", b.Left)
	}
	if c.scratch.reserved(id.Name) {
		return newError(ErrInvalidAssignmentTarget, id, "%q is a scratch slot", id.Name)
	}
	if _, err := c.env.Lookup(id.Name); err != nil {
		return wrapError(ErrUnresolvedSymbol, id, err)
	}
	return c.store(out, b.Right, id.Name)
}

// store moves the value of n into the named cell.
func (c *Compiler) store(out *Chunk, n ast.Node, name string) error {
	if src, ok := c.direct(n); ok {
		out.Emit(Mov(src, Name(name)))
		return nil
	}
	place, err := c.lowerExpr(out, n)
	if err != nil {
		return err
	}
	out.Emit(Mov(place, Name(name)))
	return nil
}

func (c *Compiler) lowerReturn(out *Chunk, r *ast.ReturnStmt) error {
	if r.Value == nil {
		out.Emit(Ret())
		return nil
	}
	if src, ok := c.direct(r.Value); ok {
		out.Emit(Ret(src))
		return nil
	}
	place, err := c.lowerExpr(out, r.Value)
	if err != nil {
		return err
	}
	out.Emit(Ret(place))
	return nil
}
