// Package modules resolves imports to compiled units.
package modules

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tliron/commonlog"

	"myst/internal/ast"
	"myst/internal/cache"
	"myst/internal/ir"
	"myst/internal/lexer"
	"myst/internal/parser"
	"myst/internal/resolver"
	"myst/internal/types"
)

const (
	SourceExt   = ".myst"
	CompiledExt = ".mystc"
)

// Loader locates, compiles and caches units by dotted name. It implements
// ir.Includer.
type Loader struct {
	// IncludeDirs are searched in order.
	IncludeDirs []string

	// Prelude seeds every compilation; exports of loaded units are added
	// on top of it for the units that import them.
	Prelude types.Prelude

	// StdImports are prepended as implicit imports of entry files.
	StdImports []string

	Scratch ir.ScratchNames

	// Cache is optional.
	Cache *cache.Store

	Log commonlog.Logger

	ctx     context.Context
	units   map[string]*ir.Unit
	loading map[string]bool
	order   []string
}

func NewLoader(includeDirs []string, prelude types.Prelude) *Loader {
	l := &Loader{IncludeDirs: includeDirs, Prelude: prelude}
	l.init()
	return l
}

func (l *Loader) init() {
	if l.units == nil {
		l.units = make(map[string]*ir.Unit)
		l.loading = make(map[string]bool)
	}
	if l.Log == nil {
		l.Log = commonlog.GetLogger("myst.modules")
	}
}

func (l *Loader) context() context.Context {
	if l.ctx == nil {
		return context.Background()
	}
	return l.ctx
}

// Include loads name for the lowering engine.
func (l *Loader) Include(name string) (*ir.Unit, error) {
	return l.Load(l.context(), name)
}

// Loaded returns the names of the units loaded so far, in completion order.
func (l *Loader) Loaded() []string {
	return append([]string(nil), l.order...)
}

// Load returns the unit named name, compiling it (and everything it
// imports) on first use.
func (l *Loader) Load(ctx context.Context, name string) (*ir.Unit, error) {
	l.init()
	if u, ok := l.units[name]; ok {
		return u, nil
	}
	if l.loading[name] {
		return nil, fmt.Errorf("import cycle detected involving module %q", name)
	}

	path, err := l.Find(name)
	if err != nil {
		return nil, err
	}

	l.loading[name] = true
	defer delete(l.loading, name)

	var u *ir.Unit
	if strings.HasSuffix(path, CompiledExt) {
		u, err = ir.ReadUnitFromFile(path)
		if err != nil {
			return nil, fmt.Errorf("cannot read %s: %w", path, err)
		}
	} else {
		u, err = l.compileFile(ctx, name, path, false)
		if err != nil {
			return nil, err
		}
	}

	l.units[name] = u
	l.order = append(l.order, name)
	l.Log.Debugf("loaded %s from %s (%d exports)", name, path, len(u.Exports))
	return u, nil
}

// Find locates the file for a dotted unit name. For a.b it tries, in each
// include dir, a/b.mystc, a/b.myst and the folder form a/b/b.myst.
func (l *Loader) Find(name string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("empty module name")
	}
	parts := strings.Split(name, ".")
	rel := filepath.Join(parts...)
	last := parts[len(parts)-1]

	var tried []string
	for _, dir := range l.IncludeDirs {
		for _, candidate := range []string{
			filepath.Join(dir, rel+CompiledExt),
			filepath.Join(dir, rel+SourceExt),
			filepath.Join(dir, rel, last+SourceExt),
		} {
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate, nil
			}
			tried = append(tried, candidate)
		}
	}
	if len(tried) == 0 {
		return "", fmt.Errorf("cannot find module %q: no include directories", name)
	}
	return "", fmt.Errorf("cannot find module %q (looked for %s)", name, strings.Join(tried, ", "))
}

// CompileFile compiles an entry file as unit name. Its standard imports
// are prepended and its imports loaded before lowering.
func (l *Loader) CompileFile(ctx context.Context, name, path string) (*ir.Unit, error) {
	return l.compileFile(ctx, name, path, true)
}

func (l *Loader) compileFile(ctx context.Context, name, path string, entry bool) (*ir.Unit, error) {
	l.init()
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read file %s: %w", path, err)
	}
	prog, err := Parse(path, string(src))
	if err != nil {
		return nil, err
	}
	if entry {
		prog = WithStdPrelude(prog, l.StdImports)
	}
	return l.compile(ctx, name, path, src, prog)
}

// Parse parses src, combining parser errors into one error.
func Parse(path, src string) (*ast.Program, error) {
	p := parser.New(lexer.New(src))
	prog := p.ParseProgram()
	if errs := p.Errors(); len(errs) > 0 {
		all := make([]error, len(errs))
		for i, e := range errs {
			all[i] = fmt.Errorf("%s: %s", path, e)
		}
		return nil, errors.Join(all...)
	}
	return prog, nil
}

func (l *Loader) compile(ctx context.Context, name, path string, src []byte, prog *ast.Program) (*ir.Unit, error) {
	prelude := l.Prelude.Clone()
	var deps []string
	for _, imp := range Collect(prog) {
		dep, err := l.Load(ctx, imp)
		if err != nil {
			return nil, fmt.Errorf("%s: import %s: %w", path, imp, err)
		}
		prelude.Merge(dep.Exports)
		if l.Cache != nil {
			digest, err := cache.Digest(dep)
			if err != nil {
				return nil, fmt.Errorf("%s: import %s: %w", path, imp, err)
			}
			deps = append(deps, imp+"@"+digest)
		}
	}

	for _, d := range resolver.NewResolver().Resolve(prog, prelude) {
		l.Log.Warningf("%s:%s", path, d)
	}

	var key string
	if l.Cache != nil {
		key = cache.Key(name, src, prelude, l.Scratch.Names(), deps)
		a, err := l.Cache.Get(ctx, key)
		switch {
		case err == nil:
			err = a.Check(deps)
			var u *ir.Unit
			if err == nil {
				u, err = a.Unit()
			}
			if err == nil {
				l.Log.Debugf("cache hit for %s (build %s)", name, a.BuildID)
				return u, nil
			}
			l.Log.Warningf("discarding cached %s: %s", name, err)
		case !errors.Is(err, cache.ErrNotFound):
			l.Log.Warningf("cache lookup for %s failed: %s", name, err)
		}
	}

	l.ctx = ctx
	u, err := ir.Compile(prog, ir.Options{
		Name:     name,
		Prelude:  prelude,
		Scratch:  l.Scratch,
		Includer: l,
		Log:      commonlog.GetLogger("myst.ir"),
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	if l.Cache != nil {
		a, err := cache.NewArtifact(key, u, path, deps)
		if err == nil {
			err = l.Cache.Put(ctx, a)
		}
		if err != nil {
			l.Log.Warningf("caching %s failed: %s", name, err)
		}
	}
	return u, nil
}

// Exports returns the exported kinds of every loaded unit.
func (l *Loader) Exports() types.Prelude {
	p := types.Prelude{}
	for _, name := range l.order {
		p.Merge(l.units[name].Exports)
	}
	return p
}

// Collect lists the top-level imports of prog in source order.
func Collect(prog *ast.Program) []string {
	var names []string
	seen := map[string]bool{}
	for _, n := range prog.Body {
		if imp, ok := n.(*ast.ImportStmt); ok && !seen[imp.Name] {
			seen[imp.Name] = true
			names = append(names, imp.Name)
		}
	}
	return names
}

// WithStdPrelude returns prog with an import of each name in std prepended,
// skipping names prog already imports.
func WithStdPrelude(prog *ast.Program, std []string) *ast.Program {
	if len(std) == 0 {
		return prog
	}
	have := map[string]bool{}
	for _, name := range Collect(prog) {
		have[name] = true
	}
	body := make([]ast.Node, 0, len(std)+len(prog.Body))
	for _, name := range std {
		if !have[name] {
			body = append(body, &ast.ImportStmt{Name: name})
			have[name] = true
		}
	}
	return &ast.Program{Body: append(body, prog.Body...)}
}
