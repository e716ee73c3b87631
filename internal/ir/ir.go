package ir

import (
	"fmt"
	"strconv"

	"myst/internal/types"
)

// OpCode is an operation of the myst scope VM.
type OpCode byte

const (
	OpNop OpCode = iota

	OpVar // Type; Args: name
	OpMov // Args: src, dst

	// Math. Args: src, src, dst (dst may alias a source)
	OpAdd
	OpSub
	OpMul
	OpDiv

	OpCmp // Rel; Args: a, b, dst. Writes 0 or 1

	// Memory
	OpAlloc // Type; Args: count, dst
	OpPmov  // Args: src, base, index
	OpDeref // Args: addr, dst

	// Calls
	OpPush // Args: value
	OpPop  // Args: dst
	OpCall // Args: callee (func label = direct, name = indirect)
	OpRet  // Args: optional value

	// Control flow. Targets index the children of the enclosing scope.
	OpJeq // Args: cond, value; Target
	OpJne // Args: cond, value; Target
	OpJmp // Target
	OpScope
	OpFunc // Func
)

var opNames = [...]string{
	OpNop:   "nop",
	OpVar:   "var",
	OpMov:   "mov",
	OpAdd:   "add",
	OpSub:   "sub",
	OpMul:   "mul",
	OpDiv:   "div",
	OpCmp:   "cmp",
	OpAlloc: "alloc",
	OpPmov:  "pmov",
	OpDeref: "deref",
	OpPush:  "push",
	OpPop:   "pop",
	OpCall:  "call",
	OpRet:   "ret",
	OpJeq:   "jeq",
	OpJne:   "jne",
	OpJmp:   "jmp",
	OpScope: "scope",
	OpFunc:  "func",
}

func (op OpCode) String() string {
	if int(op) < len(opNames) {
		return opNames[op]
	}
	return fmt.Sprintf("op(%d)", byte(op))
}

// StorageType sizes a storage cell.
type StorageType byte

const (
	TypeNone StorageType = iota
	TypeI64
	TypePtr
	TypeStruct
)

func (t StorageType) String() string {
	switch t {
	case TypeNone:
		return "none"
	case TypeI64:
		return "i64"
	case TypePtr:
		return "ptr"
	case TypeStruct:
		return "struct"
	}
	return fmt.Sprintf("type(%d)", byte(t))
}

// StorageFor maps a coarse kind to the storage class of a cell holding it.
// Null and undefined kinds have no storage.
func StorageFor(k types.Kind) StorageType {
	switch k.Tag {
	case types.Number:
		return TypeI64
	case types.String, types.Struct:
		return TypeStruct
	case types.Callback:
		return TypePtr
	}
	return TypeNone
}

// Relation is the comparison performed by OpCmp.
type Relation byte

const (
	RelEq Relation = iota
	RelNe
	RelLt
	RelLe
	RelGt
	RelGe
)

var relNames = [...]string{
	RelEq: "eq",
	RelNe: "ne",
	RelLt: "lt",
	RelLe: "le",
	RelGt: "gt",
	RelGe: "ge",
}

func (r Relation) String() string {
	if int(r) < len(relNames) {
		return relNames[r]
	}
	return fmt.Sprintf("rel(%d)", byte(r))
}

type OperandKind byte

const (
	OperandImm  OperandKind = iota // int64 immediate
	OperandName                    // named storage cell
	OperandData                    // entry of the unit's data section
	OperandFunc                    // function label (direct call target)
)

// Operand is an instruction argument.
type Operand struct {
	Kind OperandKind
	Imm  int64
	Name string
}

func Imm(v int64) Operand { return Operand{Kind: OperandImm, Imm: v} }
func Name(n string) Operand { return Operand{Kind: OperandName, Name: n} }
func Data(n string) Operand { return Operand{Kind: OperandData, Name: n} }
func FuncLabel(n string) Operand { return Operand{Kind: OperandFunc, Name: n} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandImm:
		return strconv.FormatInt(o.Imm, 10)
	case OperandName:
		return o.Name
	case OperandData:
		return "$" + o.Name
	case OperandFunc:
		return "@" + o.Name
	}
	return "?"
}

// Instruction is one operation. Which fields are meaningful depends on Op.
type Instruction struct {
	Op       OpCode
	Type     StorageType
	Rel      Relation
	Args     []Operand
	Target   int
	Children []Instruction
	Func     *FuncDef
}

// Param is one calling-convention slot of a function record.
type Param struct {
	Name string
	Type StorageType
}

// FuncDef is a function record. Body is the function's own encoded
// instruction list (see EncodeCode), opaque to the enclosing stream.
type FuncDef struct {
	Name   string
	Params []Param
	Result StorageType
	Body   []byte
}

// Datum is a named entry of a unit's data section.
type Datum struct {
	Name string
	Str  string
}

// Unit is one compiled program or library.
type Unit struct {
	Name    string
	Code    []Instruction
	Data    []Datum
	Exports map[string]types.Kind
}

// DataString returns the string stored under name.
func (u *Unit) DataString(name string) (string, bool) {
	for _, d := range u.Data {
		if d.Name == name {
			return d.Str, true
		}
	}
	return "", false
}

// AddData appends a data entry.
func (u *Unit) AddData(name, s string) {
	u.Data = append(u.Data, Datum{Name: name, Str: s})
}

// MergeData appends entries that are not present yet. A name that is
// already present with a different value is an error.
func (u *Unit) MergeData(data []Datum) error {
	for _, d := range data {
		if existing, ok := u.DataString(d.Name); ok {
			if existing != d.Str {
				return fmt.Errorf("conflicting data entry %q", d.Name)
			}
			continue
		}
		u.Data = append(u.Data, d)
	}
	return nil
}

// Chunk is an append-only instruction stream.
type Chunk struct {
	Code []Instruction
}

// Emit appends an instruction to the end of the chunk.
func (c *Chunk) Emit(inst Instruction) int {
	c.Code = append(c.Code, inst)
	return len(c.Code) - 1
}

// ---------- Constructors ----------

func Nop() Instruction { return Instruction{Op: OpNop} }

func Var(t StorageType, name string) Instruction {
	return Instruction{Op: OpVar, Type: t, Args: []Operand{Name(name)}}
}

func Mov(src, dst Operand) Instruction {
	return Instruction{Op: OpMov, Args: []Operand{src, dst}}
}

// Arith builds add/sub/mul/div.
func Arith(op OpCode, a, b, dst Operand) Instruction {
	return Instruction{Op: op, Args: []Operand{a, b, dst}}
}

func Cmp(rel Relation, a, b, dst Operand) Instruction {
	return Instruction{Op: OpCmp, Rel: rel, Args: []Operand{a, b, dst}}
}

func Alloc(t StorageType, count int64, dst Operand) Instruction {
	return Instruction{Op: OpAlloc, Type: t, Args: []Operand{Imm(count), dst}}
}

func Pmov(src, base, index Operand) Instruction {
	return Instruction{Op: OpPmov, Args: []Operand{src, base, index}}
}

func Deref(addr, dst Operand) Instruction {
	return Instruction{Op: OpDeref, Args: []Operand{addr, dst}}
}

func Push(v Operand) Instruction { return Instruction{Op: OpPush, Args: []Operand{v}} }
func Pop(dst Operand) Instruction { return Instruction{Op: OpPop, Args: []Operand{dst}} }

func Call(callee Operand) Instruction {
	return Instruction{Op: OpCall, Args: []Operand{callee}}
}

// Ret builds a return with an optional value.
func Ret(v ...Operand) Instruction {
	return Instruction{Op: OpRet, Args: v}
}

func Jeq(cond, v Operand, target int) Instruction {
	return Instruction{Op: OpJeq, Args: []Operand{cond, v}, Target: target}
}

func Jmp(target int) Instruction {
	return Instruction{Op: OpJmp, Target: target}
}

func Scope(children []Instruction) Instruction {
	return Instruction{Op: OpScope, Children: children}
}

func Func(def *FuncDef) Instruction {
	return Instruction{Op: OpFunc, Func: def}
}

// Walk calls fn for every instruction in code, descending into scopes
// (not into function bodies, which are encoded).
func Walk(code []Instruction, fn func(*Instruction)) {
	for i := range code {
		fn(&code[i])
		if code[i].Op == OpScope {
			Walk(code[i].Children, fn)
		}
	}
}
