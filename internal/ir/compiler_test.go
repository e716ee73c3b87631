package ir_test

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"myst/internal/ast"
	"myst/internal/ir"
	"myst/internal/lexer"
	"myst/internal/parser"
	"myst/internal/runtime"
	"myst/internal/types"
	"myst/internal/value"
	"myst/internal/vm"
)

func parseSource(t *testing.T, src string) *ast.Program {
	t.Helper()
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		for _, e := range errs {
			t.Logf("parser error: %s", e)
		}
		t.Fatalf("expected no parser errors, got %d", len(errs))
	}
	return prog
}

func compileSource(t *testing.T, src string, opts ir.Options) *ir.Unit {
	t.Helper()
	unit, err := ir.Compile(parseSource(t, src), opts)
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	return unit
}

type result struct {
	value  value.Value
	output string
	vm     *vm.VM
}

// runSource compiles src with the builtin prelude, declares the scratch
// slots and executes the unit.
func runSource(t *testing.T, src string) result {
	t.Helper()
	unit := compileSource(t, src, ir.Options{Prelude: runtime.Prelude()})
	ir.DeclareScratch(unit, ir.DefaultScratch())

	var out bytes.Buffer
	m := vm.NewVM(unit, runtime.NewEnv(runtime.StreamIO(strings.NewReader(""), &out)))
	m.MaxSteps = 100000
	v, err := m.Run()
	if err != nil {
		t.Logf("listing:\n%s", ir.Format(unit))
		t.Fatalf("Run error: %v", err)
	}
	return result{value: v, output: out.String(), vm: m}
}

func expectInt(t *testing.T, v value.Value, want int64) {
	t.Helper()
	if v.Kind != value.KindInt || v.Int != want {
		t.Fatalf("expected %d, got %s (%v)", want, v, v.Kind)
	}
}

// count returns how many instructions in code (scopes included) satisfy pred.
func count(code []ir.Instruction, pred func(*ir.Instruction) bool) int {
	n := 0
	ir.Walk(code, func(inst *ir.Instruction) {
		if pred(inst) {
			n++
		}
	})
	return n
}

func mentions(inst *ir.Instruction, name string) bool {
	for _, a := range inst.Args {
		if a.Kind == ir.OperandName && a.Name == name {
			return true
		}
	}
	return false
}

func TestCompile_LiteralArithmetic(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"return 2 + 3;", 5},
		{"return 2 - 5;", -3},
		{"return 6 * 7;", 42},
		{"return 7 / 2;", 3},
		{"return 1 + 2 * 3;", 7},
		{"return (1 + 2) * 3;", 9},
		{"return -4 + 1;", -3},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			expectInt(t, runSource(t, tc.src).value, tc.want)
		})
	}
}

func TestCompile_LiteralPairIsOneInstruction(t *testing.T) {
	unit := compileSource(t, "return 2 + 3;", ir.Options{})
	if len(unit.Code) != 2 {
		t.Fatalf("expected add + ret, got:\n%s", ir.FormatCode(unit.Code))
	}
	add := unit.Code[0]
	if add.Op != ir.OpAdd || add.Args[0] != ir.Imm(2) || add.Args[1] != ir.Imm(3) || add.Args[2] != ir.Name("temp") {
		t.Fatalf("unexpected instruction %s", add)
	}
}

func TestCompile_LetThenReturn(t *testing.T) {
	expectInt(t, runSource(t, "let x = 2 + 3; return x;").value, 5)
}

func TestCompile_IfElse(t *testing.T) {
	expectInt(t, runSource(t, "if (1 < 2) { return 69; } else { return 0; }").value, 69)
	expectInt(t, runSource(t, "if (2 < 1) { return 69; } else { return 0; }").value, 0)
}

func TestCompile_IfRunsOnlyTakenBranch(t *testing.T) {
	src := `
if (1 < 2) {
    io.println("then");
} else {
    io.println("else");
}
if (2 < 1) {
    io.println("then2");
} else {
    io.println("else2");
}
`
	res := runSource(t, src)
	if res.output != "then\nelse2\n" {
		t.Fatalf("unexpected output %q", res.output)
	}
}

func TestCompile_IfLayout(t *testing.T) {
	unit := compileSource(t, "if (1 < 2) { return 69; } else { return 0; }", ir.Options{})
	if len(unit.Code) != 2 {
		t.Fatalf("expected cmp + scope, got:\n%s", ir.FormatCode(unit.Code))
	}
	scope := unit.Code[1]
	if scope.Op != ir.OpScope || len(scope.Children) != 4 {
		t.Fatalf("expected a 4-child scope, got %s", scope)
	}
	jeq, jmp := scope.Children[0], scope.Children[2]
	if jeq.Op != ir.OpJeq || jeq.Target != 3 {
		t.Fatalf("expected jeq -> 3, got %s", jeq)
	}
	if jmp.Op != ir.OpJmp || jmp.Target != len(scope.Children) {
		t.Fatalf("expected jmp past the last child, got %s", jmp)
	}
}

func TestCompile_WhileStartingFalse(t *testing.T) {
	src := `
let n = 0;
while (n > 0) {
    io.println("body");
    n = n - 1;
}
return n;
`
	res := runSource(t, src)
	expectInt(t, res.value, 0)
	if res.output != "" {
		t.Fatalf("loop body ran: %q", res.output)
	}
}

func TestCompile_WhileCountsToN(t *testing.T) {
	src := `
let i = 0;
let count = 0;
while (i < 5) {
    io.println(i);
    count = count + 1;
    i = i + 1;
}
return count;
`
	res := runSource(t, src)
	expectInt(t, res.value, 5)
	if res.output != "0\n1\n2\n3\n4\n" {
		t.Fatalf("unexpected output %q", res.output)
	}
}

func TestCompile_WhileLayout(t *testing.T) {
	unit := compileSource(t, "let i = 0; while (i < 3) { i = i + 1; }", ir.Options{})
	loop := unit.Code[len(unit.Code)-1]
	if loop.Op != ir.OpScope || len(loop.Children) != 4 {
		t.Fatalf("expected a 4-child scope, got:\n%s", ir.FormatCode(unit.Code))
	}
	if loop.Children[0].Op != ir.OpScope {
		t.Fatalf("expected condition scope first, got %s", loop.Children[0])
	}
	if exit := loop.Children[1]; exit.Op != ir.OpJeq || exit.Target != 4 {
		t.Fatalf("expected jeq -> 4, got %s", exit)
	}
	if back := loop.Children[3]; back.Op != ir.OpJmp || back.Target != 0 {
		t.Fatalf("expected jmp -> 0, got %s", back)
	}
}

func TestCompile_ArrayIndexing(t *testing.T) {
	for idx, want := range []int64{1, 2, 3} {
		src := fmt.Sprintf("let a = [1, 2, 3]; return a[%d];", idx)
		expectInt(t, runSource(t, src).value, want)
	}
}

func TestCompile_ArrayIndexIsRecomputed(t *testing.T) {
	src := `
let a = [10, 20, 30];
let i = 0;
let first = a[i];
i = 2;
return first + a[i];
`
	expectInt(t, runSource(t, src).value, 40)
}

func TestCompile_ArrayOfExpressions(t *testing.T) {
	src := `
let x = 4;
let a = [x, x * 2, x + 1 - 2];
return a[0] + a[1] + a[2];
`
	expectInt(t, runSource(t, src).value, 15)
}

func TestCompile_NestedArrayLiteralSpillsAggregate(t *testing.T) {
	unit := compileSource(t, "let a = [1, [2, 3]];", ir.Options{})
	spills := count(unit.Code, func(inst *ir.Instruction) bool {
		return inst.Op == ir.OpVar && len(inst.Args) == 1 && inst.Args[0].Name == "tempptr.1"
	})
	if spills != 1 {
		t.Fatalf("expected one tempptr.1 declaration, got %d:\n%s", spills, ir.FormatCode(unit.Code))
	}
}

func TestCompile_NumberCallPopsIntoPrimary(t *testing.T) {
	src := `
func seven(): number { return 7; }
let x = 1;
x = seven();
return x;
`
	res := runSource(t, src)
	expectInt(t, res.value, 7)
	if res.vm.StackDepth() != 0 {
		t.Fatalf("expected an empty stack, got %d values", res.vm.StackDepth())
	}
}

func TestCompile_NullCallLeavesPrimaryUntouched(t *testing.T) {
	src := `
func noop(): null { return; }
let x = 40 + 2;
noop();
`
	res := runSource(t, src)
	temp, ok := res.vm.Global("temp")
	if !ok {
		t.Fatalf("temp not declared")
	}
	expectInt(t, temp, 42)

	unit := compileSource(t, src, ir.Options{})
	last := unit.Code[len(unit.Code)-1]
	if last.Op != ir.OpNop {
		t.Fatalf("expected nop after a null call, got %s", last)
	}
	pops := count(unit.Code, func(inst *ir.Instruction) bool { return inst.Op == ir.OpPop })
	if pops != 0 {
		t.Fatalf("expected no pop, got %d", pops)
	}
}

func TestCompile_ReturnPopByKind(t *testing.T) {
	prelude := types.Prelude{
		"getnum": types.KindNumber,
		"getstr": types.KindString,
		"donull": types.KindNull,
		"getcb":  types.KindCallback,
	}
	unit := compileSource(t, "getnum(); getstr(); donull(); getcb();", ir.Options{Prelude: prelude})
	want := []string{
		"call @getnum", "pop temp",
		"call @getstr", "pop tempstruct",
		"call @donull", "nop",
		"call getcb", "nop",
	}
	if len(unit.Code) != len(want) {
		t.Fatalf("expected %d instructions, got:\n%s", len(want), ir.FormatCode(unit.Code))
	}
	for i, w := range want {
		if got := unit.Code[i].String(); got != w {
			t.Errorf("instruction %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestCompile_UnknownCalleeFallsBackToNumber(t *testing.T) {
	unit, err := ir.Compile(parseSource(t, "mystery(1, x);"), ir.Options{})
	if err != nil {
		t.Fatalf("unknown callee must not fail, got %v", err)
	}
	want := []string{"push 1", "push x", "call @mystery", "pop temp"}
	if len(unit.Code) != len(want) {
		t.Fatalf("unexpected code:\n%s", ir.FormatCode(unit.Code))
	}
	for i, w := range want {
		if got := unit.Code[i].String(); got != w {
			t.Errorf("instruction %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestCompile_CallArgumentsLeftToRight(t *testing.T) {
	src := `
func sub(a, b) { return a - b; }
return sub(10, 2 + 1);
`
	expectInt(t, runSource(t, src).value, 7)
}

func TestCompile_SelfRecursionUsesFallback(t *testing.T) {
	src := `
func fact(n: number): number {
    if (n < 2) {
        return 1;
    }
    return n * fact(n - 1);
}
return fact(5);
`
	expectInt(t, runSource(t, src).value, 120)
}

func TestCompile_CallbackParameterIsIndirect(t *testing.T) {
	src := `
func seven(): number { return 7; }
func apply(f: func<number>): number { return f() + 1; }
return apply(seven);
`
	res := runSource(t, src)
	expectInt(t, res.value, 8)

	unit := compileSource(t, src, ir.Options{})
	var applyDef *ir.FuncDef
	ir.Walk(unit.Code, func(inst *ir.Instruction) {
		if inst.Op == ir.OpFunc && inst.Func.Name == "apply" {
			applyDef = inst.Func
		}
	})
	if applyDef == nil {
		t.Fatalf("apply not emitted")
	}
	if len(applyDef.Params) != 1 || applyDef.Params[0].Type != ir.TypePtr {
		t.Fatalf("expected one ptr parameter, got %+v", applyDef.Params)
	}
	body, err := ir.DecodeCode(applyDef.Body)
	if err != nil {
		t.Fatalf("DecodeCode: %v", err)
	}
	indirect := count(body, func(inst *ir.Instruction) bool {
		return inst.Op == ir.OpCall && inst.Args[0] == ir.Name("f")
	})
	if indirect != 1 {
		t.Fatalf("expected one indirect call through f:\n%s", ir.FormatCode(body))
	}
}

func TestCompile_FunctionBodySeedsScratch(t *testing.T) {
	unit := compileSource(t, "func f() { return 1; }", ir.Options{})
	body, err := ir.DecodeCode(unit.Code[0].Func.Body)
	if err != nil {
		t.Fatalf("DecodeCode: %v", err)
	}
	want := []string{"var i64 temp", "var i64 temp2", "var ptr tempptr", "var struct tempstruct"}
	for i, w := range want {
		if got := body[i].String(); got != w {
			t.Errorf("body instruction %d: expected %q, got %q", i, w, got)
		}
	}
	if k, ok := unit.Exports["f"]; !ok || k != types.KindNumber {
		t.Fatalf("expected f exported as number, got %v (%v)", k, ok)
	}
}

func TestCompile_NestedFunctionNotExported(t *testing.T) {
	unit := compileSource(t, "func outer() { func inner() { return 1; } return inner(); }", ir.Options{})
	if _, ok := unit.Exports["inner"]; ok {
		t.Fatalf("nested function must not be exported")
	}
	if _, ok := unit.Exports["outer"]; !ok {
		t.Fatalf("outer must be exported")
	}
}

func TestCompile_SecondarySlotUsedOnce(t *testing.T) {
	unit := compileSource(t, "return (1 + 2) + (3 + 4);", ir.Options{})
	moves := count(unit.Code, func(inst *ir.Instruction) bool {
		return inst.Op == ir.OpMov && len(inst.Args) == 2 && inst.Args[1] == ir.Name("temp2")
	})
	if moves != 1 {
		t.Fatalf("expected one spill into temp2, got %d:\n%s", moves, ir.FormatCode(unit.Code))
	}
	decls := count(unit.Code, func(inst *ir.Instruction) bool { return inst.Op == ir.OpVar })
	if decls != 0 {
		t.Fatalf("expected no spill declarations:\n%s", ir.FormatCode(unit.Code))
	}

	expectInt(t, runSource(t, "return (1 + 2) + (3 + 4);").value, 10)
}

func TestCompile_DeepExpressionSpills(t *testing.T) {
	src := "return ((1 + 2) + (3 + 4)) + ((5 + 6) + (7 + 8));"
	unit := compileSource(t, src, ir.Options{})
	spills := count(unit.Code, func(inst *ir.Instruction) bool {
		return inst.Op == ir.OpVar && mentions(inst, "temp2.1")
	})
	if spills != 1 {
		t.Fatalf("expected one temp2.1 declaration, got %d:\n%s", spills, ir.FormatCode(unit.Code))
	}
	expectInt(t, runSource(t, src).value, 36)
}

func TestCompile_ComplexRightOperand(t *testing.T) {
	tests := []struct {
		src  string
		want int64
	}{
		{"let x = 10; return x - (2 + 3);", 5},
		{"let x = 10; return (2 + 3) - x;", -5},
		{"let x = 3; return 20 / (x - 1);", 10},
		{"let a = [5, 6]; return 1 - a[1];", -5},
		{"let x = 3; if (x * 2 >= 6) { return 1; } return 0;", 1},
	}
	for _, tc := range tests {
		t.Run(tc.src, func(t *testing.T) {
			expectInt(t, runSource(t, tc.src).value, tc.want)
		})
	}
}

func TestCompile_Strings(t *testing.T) {
	src := `
let greeting = "hi";
io.println(greeting);
let both = str.concat("a", "b");
io.println(both);
return str.len(both);
`
	res := runSource(t, src)
	expectInt(t, res.value, 2)
	if res.output != "hi\nab\n" {
		t.Fatalf("unexpected output %q", res.output)
	}
}

func TestCompile_StringDataFromFunctionBodies(t *testing.T) {
	src := `
func greet(): null { io.println("hello"); }
greet();
io.println("bye");
`
	res := runSource(t, src)
	if res.output != "hello\nbye\n" {
		t.Fatalf("unexpected output %q", res.output)
	}

	unit := compileSource(t, src, ir.Options{Name: "app", Prelude: runtime.Prelude()})
	if len(unit.Data) != 2 || unit.Data[0].Name != "app.str0" || unit.Data[1].Name != "app.str1" {
		t.Fatalf("unexpected data section %+v", unit.Data)
	}
}

func TestCompile_PropertyRead(t *testing.T) {
	prelude := types.Prelude{"cfg.size": types.KindNumber}
	unit := compileSource(t, "let v = cfg.size;", ir.Options{Prelude: prelude})
	want := []string{"var i64 v", "mov cfg.size, temp", "mov temp, v"}
	for i, w := range want {
		if got := unit.Code[i].String(); got != w {
			t.Errorf("instruction %d: expected %q, got %q", i, w, got)
		}
	}
}

func TestCompile_FlatNamespace(t *testing.T) {
	src := `
if (1 < 2) {
    let inner = 3;
}
return inner;
`
	expectInt(t, runSource(t, src).value, 3)

	// the same name may be declared again in a sibling block
	src = `
if (1 < 2) { let v = 1; } else { let v = 2; }
return v;
`
	expectInt(t, runSource(t, src).value, 1)
}

func TestCompile_CustomScratchNames(t *testing.T) {
	names := ir.ScratchNames{Primary: "acc", Secondary: "hold"}
	unit := compileSource(t, "return (1 + 2) * (3 + 4);", ir.Options{Scratch: names})
	got := ir.FormatCode(unit.Code)
	if !strings.Contains(got, "mov acc, hold") || strings.Contains(got, "temp,") {
		t.Fatalf("scratch names not applied:\n%s", got)
	}

	_, err := ir.Compile(&ast.Program{}, ir.Options{Scratch: ir.ScratchNames{Primary: "x", Secondary: "x"}})
	if err == nil {
		t.Fatalf("expected an error for duplicate scratch names")
	}

	_, err = ir.Compile(parseSource(t, "let acc = 1;"), ir.Options{Scratch: names})
	if !errors.Is(err, ir.ErrInvalidDeclarationTarget) {
		t.Fatalf("expected ErrInvalidDeclarationTarget for a configured scratch name, got %v", err)
	}
	// the default names are free once renamed
	unit = compileSource(t, "let temp = 10; let y = 1 + 2; return temp;", ir.Options{Scratch: names})
	ir.DeclareScratch(unit, names)
	v, err := vm.NewVM(unit, runtime.NewEnv(nil)).Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	expectInt(t, v, 10)
}

type stubIncluder map[string]*ir.Unit

func (s stubIncluder) Include(name string) (*ir.Unit, error) {
	u, ok := s[name]
	if !ok {
		return nil, fmt.Errorf("no unit %q", name)
	}
	return u, nil
}

func TestCompile_ImportSplicesUnit(t *testing.T) {
	lib := &ir.Unit{
		Name: "lib",
		Data: []ir.Datum{{Name: "lib.str0", Str: "from lib"}},
		Code: []ir.Instruction{
			ir.Var(ir.TypeI64, "shared"),
			ir.Mov(ir.Imm(5), ir.Name("shared")),
		},
	}
	prog := parseSource(t, "import lib; return shared;")
	unit, err := ir.Compile(prog, ir.Options{Includer: stubIncluder{"lib": lib}})
	if err != nil {
		t.Fatalf("Compile error: %v", err)
	}
	if len(unit.Data) != 1 || unit.Data[0].Name != "lib.str0" {
		t.Fatalf("expected lib data merged, got %+v", unit.Data)
	}
	ir.DeclareScratch(unit, ir.DefaultScratch())
	v, err := vm.NewVM(unit, nil).Run()
	if err != nil {
		t.Fatalf("Run error: %v", err)
	}
	expectInt(t, v, 5)

	_, err = ir.Compile(parseSource(t, "import missing;"), ir.Options{Includer: stubIncluder{}})
	if !errors.Is(err, ir.ErrUnresolvedSymbol) {
		t.Fatalf("expected ErrUnresolvedSymbol, got %v", err)
	}
}

func TestCompile_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
		kind error
	}{
		{"assign_to_literal", "1 = 2;", ir.ErrInvalidAssignmentTarget},
		{"assign_to_index", "let a = [1]; a[0] = 2;", ir.ErrInvalidAssignmentTarget},
		{"assign_undeclared", "y = 3;", ir.ErrUnresolvedSymbol},
		{"infer_unknown_name", "let a = b;", ir.ErrUnresolvedSymbol},
		{"infer_unknown_call", "let a = mystery();", ir.ErrUnresolvedSymbol},
		{"duplicate_let", "let a = 1; let a = 2;", ir.ErrDuplicateDeclaration},
		{"duplicate_param", "func f(a, a) { return a; }", ir.ErrDuplicateDeclaration},
		{"string_operand", `return 1 + "s";`, ir.ErrUnsupportedConstruct},
		{"null_declaration", "let n: null = 1;", ir.ErrUnsupportedConstruct},
		{"import_without_includer", "import foo;", ir.ErrUnsupportedConstruct},
		{"error_after_function", "func f() { return g + 1; } let g = 1; g = \"x\" + 1;", ir.ErrUnsupportedConstruct},
		{"declare_scratch", "let temp = 10; let y = 1 + 2; return temp;", ir.ErrInvalidDeclarationTarget},
		{"declare_scratch_secondary", "let temp2 = 1;", ir.ErrInvalidDeclarationTarget},
		{"assign_scratch", "temp = 2;", ir.ErrInvalidAssignmentTarget},
		{"param_scratch", "func f(tempstruct) { return 1; }", ir.ErrInvalidDeclarationTarget},
		{"function_scratch", "func tempptr() { return 1; }", ir.ErrInvalidDeclarationTarget},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			unit, err := ir.Compile(parseSource(t, tc.src), ir.Options{})
			if err == nil {
				t.Fatalf("expected error, got unit:\n%s", ir.Format(unit))
			}
			if unit != nil {
				t.Fatalf("expected no partial unit on error")
			}
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
			var ce *ir.CompileError
			if !errors.As(err, &ce) {
				t.Fatalf("expected *ir.CompileError, got %T", err)
			}
		})
	}
}

func TestCompile_ErrorsFromHandBuiltTrees(t *testing.T) {
	tests := []struct {
		name string
		node ast.Node
		kind error
	}{
		{
			name: "declare_non_identifier",
			node: &ast.BinaryExpr{Op: ast.OpDeclare, Left: &ast.NumberLit{Value: 1}, Right: &ast.NumberLit{Value: 2}},
			kind: ir.ErrInvalidDeclarationTarget,
		},
		{
			name: "call_literal",
			node: &ast.CallExpr{Callee: &ast.NumberLit{Value: 1}},
			kind: ir.ErrMalformedCallee,
		},
		{
			name: "property_of_call",
			node: &ast.PropertyExpr{Object: &ast.CallExpr{Callee: &ast.Ident{Name: "f"}}, Member: &ast.Ident{Name: "x"}},
			kind: ir.ErrMalformedCallee,
		},
		{
			name: "assign_in_expression",
			node: &ast.BinaryExpr{
				Op:    ast.OpAdd,
				Left:  &ast.BinaryExpr{Op: ast.OpAssign, Left: &ast.Ident{Name: "a"}, Right: &ast.NumberLit{Value: 1}},
				Right: &ast.BinaryExpr{Op: ast.OpAssign, Left: &ast.Ident{Name: "a"}, Right: &ast.NumberLit{Value: 1}},
			},
			kind: ir.ErrUnsupportedConstruct,
		},
		{
			name: "nil_statement",
			node: nil,
			kind: ir.ErrUnsupportedConstruct,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := ir.Compile(&ast.Program{Body: []ast.Node{tc.node}}, ir.Options{})
			if !errors.Is(err, tc.kind) {
				t.Fatalf("expected %v, got %v", tc.kind, err)
			}
		})
	}
}

func TestDeclareScratch(t *testing.T) {
	unit := compileSource(t, "return 1;", ir.Options{})
	ir.DeclareScratch(unit, ir.ScratchNames{Struct: "sret"})
	want := []string{"var i64 temp", "var i64 temp2", "var ptr tempptr", "var struct sret", "ret 1"}
	if len(unit.Code) != len(want) {
		t.Fatalf("unexpected code:\n%s", ir.FormatCode(unit.Code))
	}
	for i, w := range want {
		if got := unit.Code[i].String(); got != w {
			t.Errorf("instruction %d: expected %q, got %q", i, w, got)
		}
	}
}
