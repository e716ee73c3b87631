package ast

import "myst/internal/token"

// Node is any element of the syntax tree. Statements and expressions share
// one node set: a block is an ordered []Node and any node may appear in
// statement position.
type Node interface {
	Pos() token.Position
}

type TypeNode interface {
	Node
	typeNode()
}

// Program is one compilation unit.
type Program struct {
	Body []Node
}

func (p *Program) Pos() token.Position {
	if len(p.Body) > 0 {
		return p.Body[0].Pos()
	}
	return token.Position{}
}

// ---------- Types ----------

// SimpleType names a coarse kind: number, string, struct or null.
type SimpleType struct {
	Name    string
	NamePos token.Position
}

func (t *SimpleType) Pos() token.Position { return t.NamePos }
func (t *SimpleType) typeNode()           {}

// FuncType is a callback parameter type. Result is nil for a bare "func";
// "func<number>" pairs the callback role with the callback's own result kind.
type FuncType struct {
	FuncPos token.Position
	Result  TypeNode
}

func (t *FuncType) Pos() token.Position { return t.FuncPos }
func (t *FuncType) typeNode()           {}

// ---------- Operators ----------

type Operator int

const (
	OpAdd Operator = iota
	OpSub
	OpMul
	OpDiv

	OpEq
	OpNotEq
	OpLt
	OpLtEq
	OpGt
	OpGtEq

	OpAssign
	OpDeclare
)

var operatorNames = [...]string{
	OpAdd:     "+",
	OpSub:     "-",
	OpMul:     "*",
	OpDiv:     "/",
	OpEq:      "==",
	OpNotEq:   "!=",
	OpLt:      "<",
	OpLtEq:    "<=",
	OpGt:      ">",
	OpGtEq:    ">=",
	OpAssign:  "=",
	OpDeclare: "let",
}

func (op Operator) String() string {
	if op >= 0 && int(op) < len(operatorNames) {
		return operatorNames[op]
	}
	return "?"
}

func (op Operator) IsArithmetic() bool { return op >= OpAdd && op <= OpDiv }
func (op Operator) IsComparison() bool { return op >= OpEq && op <= OpGtEq }

// ---------- Literals / references ----------

type NumberLit struct {
	Value  int64
	LitPos token.Position
}

func (n *NumberLit) Pos() token.Position { return n.LitPos }

type StringLit struct {
	Value  string
	LitPos token.Position
}

func (s *StringLit) Pos() token.Position { return s.LitPos }

type ArrayLit struct {
	Elements []Node
	LBrack   token.Position
}

func (a *ArrayLit) Pos() token.Position { return a.LBrack }

type Ident struct {
	Name    string
	NamePos token.Position
}

func (i *Ident) Pos() token.Position { return i.NamePos }

// ---------- Operations ----------

// BinaryExpr covers arithmetic, comparison, assignment and declaration.
// For OpDeclare, Annotation is the declared type (nil means "infer").
type BinaryExpr struct {
	Op         Operator
	OpPos      token.Position
	Left       Node
	Right      Node
	Annotation TypeNode
}

func (b *BinaryExpr) Pos() token.Position { return b.OpPos }

// IndexExpr is name[index].
type IndexExpr struct {
	Name    string
	NamePos token.Position
	Index   Node
}

func (i *IndexExpr) Pos() token.Position { return i.NamePos }

// PropertyExpr is object.member. Member is an *Ident, a *CallExpr
// (object.member(args)) or another *PropertyExpr for deeper paths.
type PropertyExpr struct {
	Object Node
	Member Node
	DotPos token.Position
}

func (p *PropertyExpr) Pos() token.Position { return p.DotPos }

type CallExpr struct {
	Callee Node
	Args   []Node
	LParen token.Position
}

func (c *CallExpr) Pos() token.Position { return c.LParen }

// ---------- Control flow ----------

type IfStmt struct {
	IfPos token.Position
	Cond  Node
	Then  []Node
	Else  []Node
}

func (s *IfStmt) Pos() token.Position { return s.IfPos }

type WhileStmt struct {
	WhilePos token.Position
	Cond     Node
	Body     []Node
}

func (s *WhileStmt) Pos() token.Position { return s.WhilePos }

type ReturnStmt struct {
	ReturnPos token.Position
	Value     Node // nil for a bare return
}

func (s *ReturnStmt) Pos() token.Position { return s.ReturnPos }

type PassStmt struct {
	PassPos token.Position
}

func (s *PassStmt) Pos() token.Position { return s.PassPos }

// ---------- Declarations ----------

type Param struct {
	Name    string
	NamePos token.Position
	Type    TypeNode // nil means number
}

func (p *Param) Pos() token.Position { return p.NamePos }

type FuncDecl struct {
	Name    string
	NamePos token.Position
	Params  []*Param
	Result  TypeNode // nil means number
	Body    []Node
}

func (f *FuncDecl) Pos() token.Position { return f.NamePos }

// ImportStmt requests verbatim inclusion of a compiled external unit.
type ImportStmt struct {
	ImportPos token.Position
	Name      string // dotted path, e.g. "std.math"
}

func (s *ImportStmt) Pos() token.Position { return s.ImportPos }
