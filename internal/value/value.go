package value

import (
	"fmt"
	"strconv"
)

type Kind int

const (
	KindNull Kind = iota
	KindInt
	KindPtr
	KindString
	KindFunc
)

var kindNames = [...]string{
	KindNull:   "null",
	KindInt:    "int",
	KindPtr:    "ptr",
	KindString: "string",
	KindFunc:   "func",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Block is one heap allocation. Pointers address a cell of a block by
// offset.
type Block struct {
	Cells []Value
}

// Value is a runtime cell value.
type Value struct {
	Kind Kind

	Int int64
	Str string

	// KindPtr
	Block *Block
	Off   int64

	// KindFunc: the name of the function referenced
	Func string
}

// String returns a human-readable representation used by io.print and
// the disassembler.
func (v Value) String() string {
	switch v.Kind {
	case KindNull:
		return "null"
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindString:
		return v.Str
	case KindPtr:
		if v.Block == nil {
			return "<nil ptr>"
		}
		return fmt.Sprintf("<ptr +%d of %d>", v.Off, len(v.Block.Cells))
	case KindFunc:
		return "<func " + v.Func + ">"
	default:
		return "<invalid>"
	}
}

// Equal reports whether a and b hold the same value. Pointers are equal
// when they address the same cell.
func Equal(a, b Value) bool {
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindInt:
		return a.Int == b.Int
	case KindString:
		return a.Str == b.Str
	case KindPtr:
		return a.Block == b.Block && a.Off == b.Off
	case KindFunc:
		return a.Func == b.Func
	}
	return false
}

// Helpers

func Null() Value {
	return Value{Kind: KindNull}
}

func Int(v int64) Value {
	return Value{Kind: KindInt, Int: v}
}

func Str(s string) Value {
	return Value{Kind: KindString, Str: s}
}

func FuncRef(name string) Value {
	return Value{Kind: KindFunc, Func: name}
}

// Alloc returns a pointer to the first of n fresh zeroed cells.
func Alloc(n int64) Value {
	b := &Block{Cells: make([]Value, n)}
	for i := range b.Cells {
		b.Cells[i] = Int(0)
	}
	return Value{Kind: KindPtr, Block: b}
}

// Offset returns p moved by n cells.
func (v Value) Offset(n int64) Value {
	v.Off += n
	return v
}

// Cell returns the address of the cell p points at, or an error when p is
// not a pointer or is out of range.
func (v Value) Cell() (*Value, error) {
	if v.Kind != KindPtr || v.Block == nil {
		return nil, fmt.Errorf("dereference of %s value", v.Kind)
	}
	if v.Off < 0 || v.Off >= int64(len(v.Block.Cells)) {
		return nil, fmt.Errorf("pointer offset %d out of range [0,%d)", v.Off, len(v.Block.Cells))
	}
	return &v.Block.Cells[v.Off], nil
}
