package ir

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
	"sort"

	"myst/internal/types"
)

var magicV1 = [4]byte{'M', 'Y', 'S', '1'}

// maxSection bounds any single length-prefixed region read back.
const maxSection = 1 << 28

func WriteUnitToFile(filename string, u *Unit) error {
	f, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer f.Close()
	return WriteUnit(f, u)
}

func ReadUnitFromFile(filename string) (*Unit, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return ReadUnit(f)
}

// Encode returns the binary form of u.
func Encode(u *Unit) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteUnit(&buf, u); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Decode parses a unit produced by Encode.
func Decode(b []byte) (*Unit, error) {
	return ReadUnit(bytes.NewReader(b))
}

// EncodeCode encodes a bare instruction list, the form function bodies
// are embedded in.
func EncodeCode(code []Instruction) ([]byte, error) {
	e := &encoder{w: &bytes.Buffer{}}
	e.code(code)
	if e.err != nil {
		return nil, e.err
	}
	return e.w.(*bytes.Buffer).Bytes(), nil
}

func DecodeCode(b []byte) ([]Instruction, error) {
	d := &decoder{r: bytes.NewReader(b)}
	code := d.code()
	if d.err != nil {
		return nil, d.err
	}
	return code, nil
}

func WriteUnit(w io.Writer, u *Unit) error {
	e := &encoder{w: w}
	e.bytes(magicV1[:])
	e.str16(u.Name)

	// data
	e.u32(uint32(len(u.Data)))
	for _, d := range u.Data {
		e.str16(d.Name)
		e.str32(d.Str)
	}

	// exports, sorted for stable output
	names := make([]string, 0, len(u.Exports))
	for name := range u.Exports {
		names = append(names, name)
	}
	sort.Strings(names)
	e.u32(uint32(len(names)))
	for _, name := range names {
		e.str16(name)
		e.str16(u.Exports[name].String())
	}

	e.code(u.Code)
	return e.err
}

func ReadUnit(r io.Reader) (*Unit, error) {
	var hdr [4]byte
	if _, err := io.ReadFull(r, hdr[:]); err != nil {
		return nil, err
	}
	if hdr != magicV1 {
		return nil, fmt.Errorf("invalid magic header: %q", string(hdr[:]))
	}

	d := &decoder{r: r}
	u := &Unit{Name: d.str16(), Exports: map[string]types.Kind{}}

	numData := d.u32()
	for i := uint32(0); i < numData && d.err == nil; i++ {
		name := d.str16()
		u.Data = append(u.Data, Datum{Name: name, Str: d.str32()})
	}

	numExports := d.u32()
	for i := uint32(0); i < numExports && d.err == nil; i++ {
		name := d.str16()
		kindStr := d.str16()
		if d.err != nil {
			break
		}
		k, err := types.ParseKind(kindStr)
		if err != nil {
			return nil, fmt.Errorf("export %q: %w", name, err)
		}
		u.Exports[name] = k
	}

	u.Code = d.code()
	if d.err != nil {
		return nil, d.err
	}
	return u, nil
}

// ---------- encoder ----------

type encoder struct {
	w   io.Writer
	err error
}

func (e *encoder) write(v interface{}) {
	if e.err != nil {
		return
	}
	e.err = binary.Write(e.w, binary.LittleEndian, v)
}

func (e *encoder) bytes(b []byte) {
	if e.err != nil {
		return
	}
	_, e.err = e.w.Write(b)
}

func (e *encoder) u8(v uint8)   { e.write(v) }
func (e *encoder) u32(v uint32) { e.write(v) }

func (e *encoder) str16(s string) {
	if len(s) > 0xFFFF {
		if e.err == nil {
			e.err = fmt.Errorf("name too long: %.32s...", s)
		}
		return
	}
	e.write(uint16(len(s)))
	e.bytes([]byte(s))
}

func (e *encoder) str32(s string) {
	e.u32(uint32(len(s)))
	e.bytes([]byte(s))
}

func (e *encoder) operand(o Operand) {
	e.u8(uint8(o.Kind))
	switch o.Kind {
	case OperandImm:
		e.write(o.Imm)
	case OperandName, OperandData, OperandFunc:
		e.str16(o.Name)
	default:
		if e.err == nil {
			e.err = fmt.Errorf("unknown operand kind %d", o.Kind)
		}
	}
}

func (e *encoder) operands(args []Operand) {
	e.u8(uint8(len(args)))
	for _, a := range args {
		e.operand(a)
	}
}

func (e *encoder) code(code []Instruction) {
	e.u32(uint32(len(code)))
	for i := range code {
		e.instruction(&code[i])
	}
}

func (e *encoder) instruction(inst *Instruction) {
	e.u8(uint8(inst.Op))
	switch inst.Op {
	case OpNop:
	case OpVar, OpAlloc:
		e.u8(uint8(inst.Type))
		e.operands(inst.Args)
	case OpCmp:
		e.u8(uint8(inst.Rel))
		e.operands(inst.Args)
	case OpMov, OpAdd, OpSub, OpMul, OpDiv, OpPmov, OpDeref, OpPush, OpPop, OpCall, OpRet:
		e.operands(inst.Args)
	case OpJeq, OpJne:
		e.operands(inst.Args)
		e.write(int32(inst.Target))
	case OpJmp:
		e.write(int32(inst.Target))
	case OpScope:
		e.code(inst.Children)
	case OpFunc:
		e.funcDef(inst.Func)
	default:
		if e.err == nil {
			e.err = fmt.Errorf("unknown opcode %d", inst.Op)
		}
	}
}

func (e *encoder) funcDef(def *FuncDef) {
	if def == nil {
		if e.err == nil {
			e.err = fmt.Errorf("func instruction without a record")
		}
		return
	}
	e.str16(def.Name)
	e.write(uint16(len(def.Params)))
	for _, p := range def.Params {
		e.str16(p.Name)
		e.u8(uint8(p.Type))
	}
	e.u8(uint8(def.Result))
	e.u32(uint32(len(def.Body)))
	e.bytes(def.Body)
}

// ---------- decoder ----------

type decoder struct {
	r   io.Reader
	err error
}

func (d *decoder) read(v interface{}) {
	if d.err != nil {
		return
	}
	d.err = binary.Read(d.r, binary.LittleEndian, v)
}

func (d *decoder) u8() uint8 {
	var v uint8
	d.read(&v)
	return v
}

func (d *decoder) u32() uint32 {
	var v uint32
	d.read(&v)
	return v
}

func (d *decoder) raw(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n > maxSection {
		d.err = fmt.Errorf("section of %d bytes exceeds limit", n)
		return nil
	}
	b := make([]byte, n)
	_, d.err = io.ReadFull(d.r, b)
	return b
}

func (d *decoder) str16() string {
	var n uint16
	d.read(&n)
	return string(d.raw(int(n)))
}

func (d *decoder) str32() string {
	return string(d.raw(int(d.u32())))
}

func (d *decoder) operand() Operand {
	o := Operand{Kind: OperandKind(d.u8())}
	switch o.Kind {
	case OperandImm:
		d.read(&o.Imm)
	case OperandName, OperandData, OperandFunc:
		o.Name = d.str16()
	default:
		if d.err == nil {
			d.err = fmt.Errorf("unknown operand kind %d", o.Kind)
		}
	}
	return o
}

func (d *decoder) operands() []Operand {
	n := int(d.u8())
	if n == 0 || d.err != nil {
		return nil
	}
	args := make([]Operand, n)
	for i := range args {
		args[i] = d.operand()
	}
	return args
}

func (d *decoder) target() int {
	var t int32
	d.read(&t)
	return int(t)
}

func (d *decoder) code() []Instruction {
	n := d.u32()
	if d.err != nil {
		return nil
	}
	var code []Instruction
	for i := uint32(0); i < n && d.err == nil; i++ {
		code = append(code, d.instruction())
	}
	return code
}

func (d *decoder) instruction() Instruction {
	inst := Instruction{Op: OpCode(d.u8())}
	if d.err != nil {
		return inst
	}
	switch inst.Op {
	case OpNop:
	case OpVar, OpAlloc:
		inst.Type = StorageType(d.u8())
		inst.Args = d.operands()
	case OpCmp:
		inst.Rel = Relation(d.u8())
		inst.Args = d.operands()
	case OpMov, OpAdd, OpSub, OpMul, OpDiv, OpPmov, OpDeref, OpPush, OpPop, OpCall, OpRet:
		inst.Args = d.operands()
	case OpJeq, OpJne:
		inst.Args = d.operands()
		inst.Target = d.target()
	case OpJmp:
		inst.Target = d.target()
	case OpScope:
		inst.Children = d.code()
	case OpFunc:
		inst.Func = d.funcDef()
	default:
		d.err = fmt.Errorf("unknown opcode %d", inst.Op)
	}
	return inst
}

func (d *decoder) funcDef() *FuncDef {
	def := &FuncDef{Name: d.str16()}
	var numParams uint16
	d.read(&numParams)
	for i := uint16(0); i < numParams && d.err == nil; i++ {
		name := d.str16()
		def.Params = append(def.Params, Param{Name: name, Type: StorageType(d.u8())})
	}
	def.Result = StorageType(d.u8())
	def.Body = d.raw(int(d.u32()))
	return def
}
