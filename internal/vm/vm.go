package vm

import (
	"errors"
	"fmt"

	"github.com/tliron/commonlog"

	"myst/internal/ir"
	"myst/internal/runtime"
	"myst/internal/runtime/builtins"
	"myst/internal/value"
)

var (
	ErrStepBudget = errors.New("step budget exhausted")
	ErrCallDepth  = errors.New("call depth exceeded")
)

// DefaultMaxDepth bounds nested calls when VM.MaxDepth is zero.
const DefaultMaxDepth = 1024

// Frame holds the cells declared by one activation. The unit's top level
// runs in frame 0, whose cells are visible from every other frame.
type Frame struct {
	Fn    *Function // nil for the top level
	cells map[string]value.Value
}

func newFrame(fn *Function) *Frame {
	return &Frame{Fn: fn, cells: make(map[string]value.Value)}
}

// Function is a registered function record with its body decoded.
type Function struct {
	Def  *ir.FuncDef
	Body []ir.Instruction
}

// VM executes a compiled unit.
type VM struct {
	unit   *ir.Unit
	data   map[string]string
	funcs  map[string]*Function
	stack  []value.Value
	sp     int // Stack pointer: next free index
	frames []*Frame

	env *runtime.Env
	log commonlog.Logger

	// MaxDepth bounds nested calls; zero means DefaultMaxDepth.
	MaxDepth int
	// MaxSteps bounds executed instructions; zero means unlimited.
	MaxSteps int
	steps    int

	result value.Value
}

// NewVM creates a VM for the given unit.
func NewVM(u *ir.Unit, env *runtime.Env) *VM {
	if env == nil {
		env = runtime.DefaultEnv()
	}
	vm := &VM{
		unit:  u,
		data:  make(map[string]string, len(u.Data)),
		funcs: make(map[string]*Function),
		stack: make([]value.Value, 0, 256),
		env:   env,
		log:   commonlog.GetLogger("myst.vm"),
	}
	for _, d := range u.Data {
		vm.data[d.Name] = d.Str
	}
	return vm
}

// push/pop

func (vm *VM) push(v value.Value) {
	if vm.sp >= len(vm.stack) {
		vm.stack = append(vm.stack, v)
	} else {
		vm.stack[vm.sp] = v
	}
	vm.sp++
}

func (vm *VM) pop() (value.Value, error) {
	if vm.sp == 0 {
		return value.Value{}, errors.New("stack underflow")
	}
	vm.sp--
	return vm.stack[vm.sp], nil
}

// StackDepth reports the number of values on the marshaling stack.
func (vm *VM) StackDepth() int { return vm.sp }

// Run executes the unit's top level. The result is the operand of a
// top-level ret, or null when the code runs off its end.
func (vm *VM) Run() (value.Value, error) {
	vm.frames = []*Frame{newFrame(nil)}
	vm.sp = 0
	vm.steps = 0
	vm.result = value.Null()

	var loadErr error
	ir.Walk(vm.unit.Code, func(inst *ir.Instruction) {
		if inst.Op == ir.OpFunc && loadErr == nil {
			loadErr = vm.register(inst.Func)
		}
	})
	if loadErr != nil {
		return value.Value{}, loadErr
	}

	if _, err := vm.exec(vm.unit.Code); err != nil {
		return value.Value{}, err
	}
	vm.log.Debugf("unit %s finished after %d steps: %s", vm.unit.Name, vm.steps, vm.result)
	return vm.result, nil
}

// Global returns the value of a top-level cell after Run.
func (vm *VM) Global(name string) (value.Value, bool) {
	if len(vm.frames) == 0 {
		return value.Value{}, false
	}
	v, ok := vm.frames[0].cells[name]
	return v, ok
}

func (vm *VM) register(def *ir.FuncDef) error {
	if def == nil {
		return fmt.Errorf("func instruction without a record")
	}
	body, err := ir.DecodeCode(def.Body)
	if err != nil {
		return fmt.Errorf("function %s: %w", def.Name, err)
	}
	vm.funcs[def.Name] = &Function{Def: def, Body: body}
	return nil
}

func (vm *VM) frame() *Frame { return vm.frames[len(vm.frames)-1] }

// ---- cells ----

func (vm *VM) lookup(name string) (value.Value, error) {
	if v, ok := vm.frame().cells[name]; ok {
		return v, nil
	}
	if v, ok := vm.frames[0].cells[name]; ok {
		return v, nil
	}
	if _, ok := vm.funcs[name]; ok {
		return value.FuncRef(name), nil
	}
	if builtins.LookupByName(name) != nil {
		return value.FuncRef(name), nil
	}
	return value.Value{}, fmt.Errorf("undeclared cell %q", name)
}

func (vm *VM) store(name string, v value.Value) error {
	if fr := vm.frame(); fr.cells != nil {
		if _, ok := fr.cells[name]; ok {
			fr.cells[name] = v
			return nil
		}
	}
	if _, ok := vm.frames[0].cells[name]; ok {
		vm.frames[0].cells[name] = v
		return nil
	}
	return fmt.Errorf("store to undeclared cell %q", name)
}

func (vm *VM) load(o ir.Operand) (value.Value, error) {
	switch o.Kind {
	case ir.OperandImm:
		return value.Int(o.Imm), nil
	case ir.OperandName:
		return vm.lookup(o.Name)
	case ir.OperandData:
		s, ok := vm.data[o.Name]
		if !ok {
			return value.Value{}, fmt.Errorf("undefined data entry %q", o.Name)
		}
		return value.Str(s), nil
	case ir.OperandFunc:
		return value.FuncRef(o.Name), nil
	}
	return value.Value{}, fmt.Errorf("unknown operand kind %d", o.Kind)
}

func (vm *VM) dest(o ir.Operand) (string, error) {
	if o.Kind != ir.OperandName {
		return "", fmt.Errorf("destination %s is not a cell", o)
	}
	return o.Name, nil
}

func zero(t ir.StorageType) value.Value {
	if t == ir.TypeI64 {
		return value.Int(0)
	}
	return value.Null()
}

// ---- execution ----

// exec runs one instruction list. It reports whether a ret was executed.
func (vm *VM) exec(code []ir.Instruction) (bool, error) {
	pc := 0
	for pc < len(code) {
		inst := &code[pc]
		vm.steps++
		if vm.MaxSteps > 0 && vm.steps > vm.MaxSteps {
			return false, ErrStepBudget
		}

		switch inst.Op {
		case ir.OpJmp:
			if err := checkTarget(inst.Target, code); err != nil {
				return false, err
			}
			pc = inst.Target
			continue

		case ir.OpJeq, ir.OpJne:
			a, b, err := vm.pair(inst)
			if err != nil {
				return false, err
			}
			if value.Equal(a, b) == (inst.Op == ir.OpJeq) {
				if err := checkTarget(inst.Target, code); err != nil {
					return false, err
				}
				pc = inst.Target
				continue
			}

		case ir.OpScope:
			returned, err := vm.exec(inst.Children)
			if err != nil || returned {
				return returned, err
			}

		case ir.OpRet:
			if len(inst.Args) > 0 {
				v, err := vm.load(inst.Args[0])
				if err != nil {
					return false, err
				}
				if len(vm.frames) == 1 {
					vm.result = v
				} else {
					vm.push(v)
				}
			}
			return true, nil

		default:
			if err := vm.step(inst); err != nil {
				return false, fmt.Errorf("%s: %w", inst, err)
			}
		}
		pc++
	}
	return false, nil
}

func checkTarget(t int, code []ir.Instruction) error {
	if t < 0 || t > len(code) {
		return fmt.Errorf("jump target %d outside scope of %d instructions", t, len(code))
	}
	return nil
}

func (vm *VM) pair(inst *ir.Instruction) (value.Value, value.Value, error) {
	if len(inst.Args) < 2 {
		return value.Value{}, value.Value{}, fmt.Errorf("%s expects 2 operands, got %d", inst.Op, len(inst.Args))
	}
	a, err := vm.load(inst.Args[0])
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	b, err := vm.load(inst.Args[1])
	if err != nil {
		return value.Value{}, value.Value{}, err
	}
	return a, b, nil
}

func arity(inst *ir.Instruction, n int) error {
	if len(inst.Args) != n {
		return fmt.Errorf("expects %d operand(s), got %d", n, len(inst.Args))
	}
	return nil
}

// step executes one straight-line instruction.
func (vm *VM) step(inst *ir.Instruction) error {
	switch inst.Op {
	case ir.OpNop:
		return nil

	case ir.OpVar:
		if err := arity(inst, 1); err != nil {
			return err
		}
		name, err := vm.dest(inst.Args[0])
		if err != nil {
			return err
		}
		vm.frame().cells[name] = zero(inst.Type)
		return nil

	case ir.OpMov:
		if err := arity(inst, 2); err != nil {
			return err
		}
		v, err := vm.load(inst.Args[0])
		if err != nil {
			return err
		}
		return vm.storeTo(inst.Args[1], v)

	case ir.OpAdd, ir.OpSub, ir.OpMul, ir.OpDiv:
		if err := arity(inst, 3); err != nil {
			return err
		}
		a, b, err := vm.pair(inst)
		if err != nil {
			return err
		}
		v, err := arith(inst.Op, a, b)
		if err != nil {
			return err
		}
		return vm.storeTo(inst.Args[2], v)

	case ir.OpCmp:
		if err := arity(inst, 3); err != nil {
			return err
		}
		a, b, err := vm.pair(inst)
		if err != nil {
			return err
		}
		ok, err := compare(inst.Rel, a, b)
		if err != nil {
			return err
		}
		v := value.Int(0)
		if ok {
			v = value.Int(1)
		}
		return vm.storeTo(inst.Args[2], v)

	case ir.OpAlloc:
		if err := arity(inst, 2); err != nil {
			return err
		}
		n, err := vm.load(inst.Args[0])
		if err != nil {
			return err
		}
		if n.Kind != value.KindInt || n.Int < 0 {
			return fmt.Errorf("invalid allocation count %s", n)
		}
		return vm.storeTo(inst.Args[1], value.Alloc(n.Int))

	case ir.OpPmov:
		if err := arity(inst, 3); err != nil {
			return err
		}
		src, err := vm.load(inst.Args[0])
		if err != nil {
			return err
		}
		base, idx, err := vm.pair(&ir.Instruction{Args: inst.Args[1:]})
		if err != nil {
			return err
		}
		if idx.Kind != value.KindInt {
			return fmt.Errorf("index is %v, not int", idx.Kind)
		}
		cell, err := base.Offset(idx.Int).Cell()
		if err != nil {
			return err
		}
		*cell = src
		return nil

	case ir.OpDeref:
		if err := arity(inst, 2); err != nil {
			return err
		}
		addr, err := vm.load(inst.Args[0])
		if err != nil {
			return err
		}
		cell, err := addr.Cell()
		if err != nil {
			return err
		}
		return vm.storeTo(inst.Args[1], *cell)

	case ir.OpPush:
		if err := arity(inst, 1); err != nil {
			return err
		}
		v, err := vm.load(inst.Args[0])
		if err != nil {
			return err
		}
		vm.push(v)
		return nil

	case ir.OpPop:
		if err := arity(inst, 1); err != nil {
			return err
		}
		v, err := vm.pop()
		if err != nil {
			return err
		}
		return vm.storeTo(inst.Args[0], v)

	case ir.OpCall:
		if err := arity(inst, 1); err != nil {
			return err
		}
		return vm.call(inst.Args[0])

	case ir.OpFunc:
		return vm.register(inst.Func)
	}
	return fmt.Errorf("unknown opcode %s", inst.Op)
}

func (vm *VM) storeTo(o ir.Operand, v value.Value) error {
	name, err := vm.dest(o)
	if err != nil {
		return err
	}
	return vm.store(name, v)
}

// ---- calls ----

func (vm *VM) call(callee ir.Operand) error {
	name := callee.Name
	if callee.Kind == ir.OperandName {
		v, err := vm.lookup(callee.Name)
		if err != nil {
			return err
		}
		if v.Kind != value.KindFunc {
			return fmt.Errorf("call through %q holding %v", callee.Name, v.Kind)
		}
		name = v.Func
	} else if callee.Kind != ir.OperandFunc {
		return fmt.Errorf("callee %s is not a function", callee)
	}

	if fn, ok := vm.funcs[name]; ok {
		return vm.invoke(fn)
	}
	if b := builtins.LookupByName(name); b != nil {
		return vm.callBuiltin(b)
	}
	return fmt.Errorf("undefined function %q", name)
}

// invoke runs fn in a new frame. Parameters are popped in reverse
// declaration order, matching left-to-right pushes by the caller.
func (vm *VM) invoke(fn *Function) error {
	limit := vm.MaxDepth
	if limit <= 0 {
		limit = DefaultMaxDepth
	}
	if len(vm.frames) > limit {
		return fmt.Errorf("%w: %d frames", ErrCallDepth, len(vm.frames))
	}

	fr := newFrame(fn)
	params := fn.Def.Params
	for i := len(params) - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return fmt.Errorf("function %s: parameter %s: %w", fn.Def.Name, params[i].Name, err)
		}
		fr.cells[params[i].Name] = v
	}

	vm.frames = append(vm.frames, fr)
	_, err := vm.exec(fn.Body)
	vm.frames = vm.frames[:len(vm.frames)-1]
	if err != nil {
		return fmt.Errorf("in %s: %w", fn.Def.Name, err)
	}
	return nil
}

func (vm *VM) callBuiltin(b *builtins.Builtin) error {
	args := make([]value.Value, b.Meta.Arity)
	for i := len(args) - 1; i >= 0; i-- {
		v, err := vm.pop()
		if err != nil {
			return fmt.Errorf("%s: %w", b.Meta.Name, err)
		}
		args[i] = v
	}
	result, err := b.Call(vm.env, args)
	if err != nil {
		return err
	}
	if b.Meta.Pushes() {
		vm.push(result)
	}
	return nil
}

// ---- Helpers for binary operations ----

func arith(op ir.OpCode, a, b value.Value) (value.Value, error) {
	// pointer arithmetic: ptr + n, n + ptr, ptr - n
	if op == ir.OpAdd && a.Kind == value.KindPtr && b.Kind == value.KindInt {
		return a.Offset(b.Int), nil
	}
	if op == ir.OpAdd && a.Kind == value.KindInt && b.Kind == value.KindPtr {
		return b.Offset(a.Int), nil
	}
	if op == ir.OpSub && a.Kind == value.KindPtr && b.Kind == value.KindInt {
		return a.Offset(-b.Int), nil
	}

	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return value.Value{}, fmt.Errorf("%s expects (int, int), got (%v, %v)", op, a.Kind, b.Kind)
	}
	switch op {
	case ir.OpAdd:
		return value.Int(a.Int + b.Int), nil
	case ir.OpSub:
		return value.Int(a.Int - b.Int), nil
	case ir.OpMul:
		return value.Int(a.Int * b.Int), nil
	case ir.OpDiv:
		if b.Int == 0 {
			return value.Value{}, errors.New("division by zero")
		}
		return value.Int(a.Int / b.Int), nil
	}
	return value.Value{}, fmt.Errorf("unknown arithmetic op %s", op)
}

func compare(rel ir.Relation, a, b value.Value) (bool, error) {
	switch rel {
	case ir.RelEq:
		return value.Equal(a, b), nil
	case ir.RelNe:
		return !value.Equal(a, b), nil
	}
	if a.Kind != value.KindInt || b.Kind != value.KindInt {
		return false, fmt.Errorf("cmp %s expects (int, int), got (%v, %v)", rel, a.Kind, b.Kind)
	}
	switch rel {
	case ir.RelLt:
		return a.Int < b.Int, nil
	case ir.RelLe:
		return a.Int <= b.Int, nil
	case ir.RelGt:
		return a.Int > b.Int, nil
	case ir.RelGe:
		return a.Int >= b.Int, nil
	}
	return false, fmt.Errorf("unknown relation %s", rel)
}
