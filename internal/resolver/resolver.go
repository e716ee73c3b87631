// Package resolver reports lexical hazards of the flat symbol namespace.
// It never rejects a program; the compiler lowers every case it reports.
package resolver

import (
	"fmt"
	"sort"

	"myst/internal/ast"
	"myst/internal/token"
	"myst/internal/types"
)

type Kind int

const (
	// EscapedName is a use of a name after the block that declared it
	// has ended.
	EscapedName Kind = iota
	// CapturedLocal is a use inside a nested function of a local of an
	// enclosing function. Function frames only fall back to unit-level
	// cells, so the use does not see the enclosing local at run time.
	CapturedLocal
	// SelfCall is a call of a function from its own body. The name has no
	// recorded kind yet, so the call takes the number convention.
	SelfCall
)

var kindNames = [...]string{
	EscapedName:   "escaped-name",
	CapturedLocal: "captured-local",
	SelfCall:      "self-call",
}

func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

type Diagnostic struct {
	Kind    Kind
	Name    string
	Pos     token.Position
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s (%s)", d.Pos, d.Message, d.Kind)
}

// Capture describes a local of an enclosing function used by a nested one.
type Capture struct {
	Name  string
	Owner string // the enclosing function declaring Name
	Pos   token.Position
}

// FunctionInfo contains metadata about one function declaration.
type FunctionInfo struct {
	Node     *ast.FuncDecl
	Locals   []string // parameters and declared names, in order
	Captures []Capture
}

func (f *FunctionInfo) hasLocal(name string) bool {
	for _, l := range f.Locals {
		if l == name {
			return true
		}
	}
	return false
}

// Resolver walks a program and collects diagnostics.
type Resolver struct {
	funcInfos   map[*ast.FuncDecl]*FunctionInfo
	funcParents map[*ast.FuncDecl]*ast.FuncDecl
	diags       []Diagnostic

	// escape analysis state
	scopes  []map[string]bool
	closed  map[string]token.Position
	current []*ast.FuncDecl
	known   map[string]bool
}

func NewResolver() *Resolver {
	return &Resolver{
		funcInfos:   make(map[*ast.FuncDecl]*FunctionInfo),
		funcParents: make(map[*ast.FuncDecl]*ast.FuncDecl),
	}
}

// Resolve analyzes prog and returns its diagnostics ordered by position.
// Names in prelude count as declared at unit level.
func (r *Resolver) Resolve(prog *ast.Program, prelude types.Prelude) []Diagnostic {
	// First pass: collect functions and their locals
	r.collectFunctions(prog.Body, nil)

	// Second pass: uses of enclosing locals
	r.identifyCaptures()

	// Third pass: flat-namespace escapes and self calls
	r.known = make(map[string]bool, len(prelude))
	for name := range prelude {
		r.known[name] = true
	}
	r.closed = make(map[string]token.Position)
	r.scopes = []map[string]bool{{}}
	r.walkBlock(prog.Body)

	sort.SliceStable(r.diags, func(i, j int) bool {
		a, b := r.diags[i].Pos, r.diags[j].Pos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	return r.diags
}

// Functions returns the metadata gathered for every function declaration.
func (r *Resolver) Functions() map[*ast.FuncDecl]*FunctionInfo {
	return r.funcInfos
}

func (r *Resolver) report(kind Kind, name string, pos token.Position, format string, args ...interface{}) {
	r.diags = append(r.diags, Diagnostic{
		Kind:    kind,
		Name:    name,
		Pos:     pos,
		Message: fmt.Sprintf(format, args...),
	})
}

// ---------- pass 1 ----------

func (r *Resolver) collectFunctions(body []ast.Node, parent *FunctionInfo) {
	for _, n := range body {
		switch s := n.(type) {
		case *ast.FuncDecl:
			r.collectFunction(s, parent)
		case *ast.IfStmt:
			r.collectFunctions(s.Then, parent)
			r.collectFunctions(s.Else, parent)
		case *ast.WhileStmt:
			r.collectFunctions(s.Body, parent)
		}
	}
}

func (r *Resolver) collectFunction(fn *ast.FuncDecl, parent *FunctionInfo) {
	info := &FunctionInfo{Node: fn}
	for _, p := range fn.Params {
		info.Locals = append(info.Locals, p.Name)
	}
	r.funcInfos[fn] = info
	if parent != nil {
		r.funcParents[fn] = parent.Node
		if !parent.hasLocal(fn.Name) {
			parent.Locals = append(parent.Locals, fn.Name)
		}
	}
	r.collectLocalsAndNestedFunctions(fn.Body, info)
}

// collectLocalsAndNestedFunctions walks a block to find declared names and
// nested functions.
func (r *Resolver) collectLocalsAndNestedFunctions(body []ast.Node, current *FunctionInfo) {
	for _, n := range body {
		switch s := n.(type) {
		case *ast.BinaryExpr:
			if s.Op != ast.OpDeclare {
				continue
			}
			if id, ok := s.Left.(*ast.Ident); ok && !current.hasLocal(id.Name) {
				current.Locals = append(current.Locals, id.Name)
			}
		case *ast.IfStmt:
			r.collectLocalsAndNestedFunctions(s.Then, current)
			r.collectLocalsAndNestedFunctions(s.Else, current)
		case *ast.WhileStmt:
			r.collectLocalsAndNestedFunctions(s.Body, current)
		case *ast.FuncDecl:
			r.collectFunction(s, current)
		}
	}
}

// ---------- pass 2 ----------

func (r *Resolver) identifyCaptures() {
	fns := make([]*ast.FuncDecl, 0, len(r.funcInfos))
	for fn := range r.funcInfos {
		fns = append(fns, fn)
	}
	sort.Slice(fns, func(i, j int) bool {
		a, b := fns[i].NamePos, fns[j].NamePos
		if a.Line != b.Line {
			return a.Line < b.Line
		}
		return a.Column < b.Column
	})
	for _, fn := range fns {
		r.identifyCapturesForFunction(fn)
	}
}

// identifyCapturesForFunction checks each name used in fn's own body
// (nested functions excluded) against the locals of its enclosing
// functions, nearest first.
func (r *Resolver) identifyCapturesForFunction(fn *ast.FuncDecl) {
	info := r.funcInfos[fn]
	if _, nested := r.funcParents[fn]; !nested {
		return
	}

	used := make(map[string]token.Position)
	var order []string
	r.collectUsedIdentifiers(fn.Body, func(name string, pos token.Position) {
		if _, seen := used[name]; !seen {
			used[name] = pos
			order = append(order, name)
		}
	})

	for _, name := range order {
		if info.hasLocal(name) || name == fn.Name {
			continue
		}
		for parent := r.funcParents[fn]; parent != nil; parent = r.funcParents[parent] {
			if r.funcInfos[parent].hasLocal(name) {
				info.Captures = append(info.Captures, Capture{Name: name, Owner: parent.Name, Pos: used[name]})
				r.report(CapturedLocal, name, used[name],
					"%s uses %q, a local of enclosing function %s that is not visible from its frame",
					fn.Name, name, parent.Name)
				break
			}
		}
	}
}

// collectUsedIdentifiers calls use for every name read, assigned or
// called in body, skipping nested function bodies.
func (r *Resolver) collectUsedIdentifiers(body []ast.Node, use func(string, token.Position)) {
	for _, n := range body {
		r.visitUses(n, use)
	}
}

func (r *Resolver) visitUses(n ast.Node, use func(string, token.Position)) {
	switch n := n.(type) {
	case *ast.Ident:
		use(n.Name, n.NamePos)
	case *ast.BinaryExpr:
		if n.Op != ast.OpDeclare {
			r.visitUses(n.Left, use)
		}
		r.visitUses(n.Right, use)
	case *ast.IndexExpr:
		use(n.Name, n.NamePos)
		r.visitUses(n.Index, use)
	case *ast.CallExpr:
		r.visitUses(n.Callee, use)
		for _, a := range n.Args {
			r.visitUses(a, use)
		}
	case *ast.PropertyExpr:
		if name, _, ok := types.PropertyName(n); ok {
			use(name, n.DotPos)
		}
		if call := innermostCall(n); call != nil {
			for _, a := range call.Args {
				r.visitUses(a, use)
			}
		}
	case *ast.ArrayLit:
		for _, el := range n.Elements {
			r.visitUses(el, use)
		}
	case *ast.ReturnStmt:
		if n.Value != nil {
			r.visitUses(n.Value, use)
		}
	case *ast.IfStmt:
		r.visitUses(n.Cond, use)
		r.collectUsedIdentifiers(n.Then, use)
		r.collectUsedIdentifiers(n.Else, use)
	case *ast.WhileStmt:
		r.visitUses(n.Cond, use)
		r.collectUsedIdentifiers(n.Body, use)
	}
}

func innermostCall(p *ast.PropertyExpr) *ast.CallExpr {
	for {
		switch m := p.Member.(type) {
		case *ast.PropertyExpr:
			p = m
		case *ast.CallExpr:
			return m
		default:
			return nil
		}
	}
}

// ---------- pass 3 ----------

func (r *Resolver) enter() { r.scopes = append(r.scopes, map[string]bool{}) }

// leave closes the innermost block. Its names stay visible in the flat
// namespace but are no longer lexically in scope.
func (r *Resolver) leave(end token.Position) {
	top := r.scopes[len(r.scopes)-1]
	r.scopes = r.scopes[:len(r.scopes)-1]
	for name := range top {
		if !r.inScope(name) {
			r.closed[name] = end
		}
	}
}

func (r *Resolver) declare(name string) {
	r.scopes[len(r.scopes)-1][name] = true
	delete(r.closed, name)
}

func (r *Resolver) inScope(name string) bool {
	for i := len(r.scopes) - 1; i >= 0; i-- {
		if r.scopes[i][name] {
			return true
		}
	}
	return false
}

func (r *Resolver) checkUse(name string, pos token.Position) {
	if r.inScope(name) || r.known[name] {
		return
	}
	if _, ok := r.closed[name]; ok {
		r.report(EscapedName, name, pos, "%q is used outside the block that declared it", name)
		// report each escaped name once
		delete(r.closed, name)
		r.known[name] = true
		return
	}
	for i := len(r.current) - 1; i >= 0; i-- {
		if fn := r.current[i]; fn.Name == name {
			r.report(SelfCall, name, pos,
				"%s refers to itself before its declaration completes; calls use the number convention", name)
			return
		}
	}
}

func (r *Resolver) walkBlock(body []ast.Node) {
	for _, n := range body {
		r.walkStmt(n)
	}
}

func (r *Resolver) walkStmt(n ast.Node) {
	switch s := n.(type) {
	case *ast.BinaryExpr:
		if s.Op == ast.OpDeclare {
			r.walkExpr(s.Right)
			if id, ok := s.Left.(*ast.Ident); ok {
				r.declare(id.Name)
			}
			return
		}
		r.walkExpr(s)
	case *ast.FuncDecl:
		r.enter()
		r.current = append(r.current, s)
		for _, p := range s.Params {
			r.declare(p.Name)
		}
		r.walkBlock(s.Body)
		r.current = r.current[:len(r.current)-1]
		r.leave(s.NamePos)
		r.declare(s.Name)
	case *ast.IfStmt:
		r.walkExpr(s.Cond)
		r.enter()
		r.walkBlock(s.Then)
		r.leave(s.IfPos)
		if s.Else != nil {
			r.enter()
			r.walkBlock(s.Else)
			r.leave(s.IfPos)
		}
	case *ast.WhileStmt:
		r.walkExpr(s.Cond)
		r.enter()
		r.walkBlock(s.Body)
		r.leave(s.WhilePos)
	case *ast.ReturnStmt:
		if s.Value != nil {
			r.walkExpr(s.Value)
		}
	case *ast.ImportStmt, *ast.PassStmt, nil:
	default:
		r.walkExpr(s)
	}
}

func (r *Resolver) walkExpr(n ast.Node) {
	r.visitUses(n, r.checkUse)
}
