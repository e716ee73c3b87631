package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tliron/commonlog"

	"myst/internal/ast"
	"myst/internal/cache"
	"myst/internal/config"
	"myst/internal/ir"
	"myst/internal/logging"
	"myst/internal/modules"
	"myst/internal/runtime"
	"myst/internal/value"
	"myst/internal/vm"
)

const version = "0.1.0"

var log = commonlog.GetLogger("myst.cli")

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "run":
		var code int
		code, err = cmdRun(args, os.Stdin, os.Stdout)
		if err == nil {
			os.Exit(code)
		}
	case "build":
		err = cmdBuild(args)
	case "dump":
		err = cmdDump(args, os.Stdout)
	case "ast":
		err = cmdAST(args, os.Stdout)
	case "help", "-h", "--help":
		usage()
	case "version", "--version":
		fmt.Println("myst", version)
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Println(`myst compiler

Usage:
  myst run [-v] [-I dir] [-prelude file] <file.myst|file.mystc>
  myst build [-o out.mystc] [-I dir] [-prelude file] <file.myst>
  myst dump <file.myst|file.mystc>
  myst ast <file.myst>

Commands:
  version  Print the myst version
  run      Compile and run .myst source or run a .mystc unit
  build    Compile .myst source into a .mystc unit
  dump     Print the instruction listing of a unit
  ast      Print the parsed syntax tree

Common flags:
  -v        Increase log verbosity (repeatable)
  -I        Add an include directory (repeatable)
  -prelude  Add a prelude manifest, TOML or YAML (repeatable)
  -no-cache Do not use the compiled-unit cache`)
}

// -------------- flags --------------

// countFlag counts repeated boolean flags (-v -v).
type countFlag int

func (c *countFlag) String() string { return strconv.Itoa(int(*c)) }
func (c *countFlag) IsBoolFlag() bool { return true }

func (c *countFlag) Set(s string) error {
	if s == "true" {
		*c++
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid verbosity %q", s)
	}
	*c = countFlag(n)
	return nil
}

type listFlag []string

func (l *listFlag) String() string { return strings.Join(*l, ",") }

func (l *listFlag) Set(s string) error {
	*l = append(*l, s)
	return nil
}

type commonFlags struct {
	verbose  countFlag
	includes listFlag
	preludes listFlag
	noCache  bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.Var(&c.verbose, "v", "increase log verbosity")
	fs.Var(&c.includes, "I", "include directory")
	fs.Var(&c.preludes, "prelude", "prelude manifest")
	fs.BoolVar(&c.noCache, "no-cache", false, "do not use the compiled-unit cache")
}

// -------------- session --------------

// session holds what one command needs to compile an input file.
type session struct {
	cfg    *config.Config
	loader *modules.Loader
	store  *cache.Store
}

func newSession(ctx context.Context, input string, flags *commonFlags) (*session, error) {
	absInput, err := filepath.Abs(input)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(absInput)

	cfg, err := config.FindAndLoad(dir)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.Default(dir)
	}
	logging.Configure(logging.Verbosity(int(flags.verbose), cfg.Log.Verbosity), cfg.LogFile())

	prelude, err := modules.LoadPreludes(runtime.Prelude(), append(cfg.PreludePaths(), flags.preludes...))
	if err != nil {
		return nil, err
	}

	includes := append([]string{}, flags.includes...)
	includes = append(includes, cfg.IncludePaths()...)
	includes = append(includes, dir)

	l := modules.NewLoader(includes, prelude)
	l.StdImports = cfg.Compile.StdImports
	l.Scratch = cfg.Compile.Scratch

	s := &session{cfg: cfg, loader: l}
	if dsn := cfg.CacheDSN(); dsn != "" && !flags.noCache {
		store, err := cache.Open(ctx, dsn)
		if err != nil {
			log.Warningf("cache disabled: %s", err)
		} else {
			s.store = store
			l.Cache = store
		}
	}
	log.Debugf("include path: %s", strings.Join(includes, string(filepath.ListSeparator)))
	return s, nil
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			log.Warningf("closing cache: %s", err)
		}
	}
}

// unit compiles a .myst file or decodes a .mystc file.
func (s *session) unit(ctx context.Context, input string) (*ir.Unit, error) {
	switch ext := filepath.Ext(input); ext {
	case modules.SourceExt:
		name := strings.TrimSuffix(filepath.Base(input), ext)
		return s.loader.CompileFile(ctx, name, input)
	case modules.CompiledExt:
		u, err := ir.ReadUnitFromFile(input)
		if err != nil {
			return nil, fmt.Errorf("failed to read unit: %w", err)
		}
		return u, nil
	default:
		return nil, fmt.Errorf("unsupported file extension %q (use %s or %s)", ext, modules.SourceExt, modules.CompiledExt)
	}
}

// -------------- RUN --------------

func cmdRun(args []string, stdin io.Reader, stdout io.Writer) (int, error) {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var flags commonFlags
	flags.register(fs)
	maxSteps := fs.Int("max-steps", 0, "abort after this many instructions (0: unlimited)")
	if err := fs.Parse(args); err != nil {
		return 0, err
	}
	if fs.NArg() < 1 {
		return 0, fmt.Errorf("run: missing input file")
	}
	input := fs.Arg(0)

	ctx := context.Background()
	s, err := newSession(ctx, input, &flags)
	if err != nil {
		return 0, err
	}
	defer s.Close()

	u, err := s.unit(ctx, input)
	if err != nil {
		return 0, err
	}
	if filepath.Ext(input) == modules.SourceExt {
		ir.DeclareScratch(u, s.cfg.Compile.Scratch)
	}

	m := vm.NewVM(u, runtime.NewEnv(runtime.StreamIO(stdin, stdout)))
	m.MaxSteps = *maxSteps
	v, err := m.Run()
	if err != nil {
		return 0, err
	}
	return report(stdout, v), nil
}

// report prints a non-null result and returns the exit code it implies.
func report(w io.Writer, v value.Value) int {
	if v.Kind == value.KindNull {
		return 0
	}
	fmt.Fprintln(w, v)
	if v.Kind == value.KindInt {
		return int(v.Int)
	}
	return 0
}

// -------------- BUILD --------------

func cmdBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var flags commonFlags
	flags.register(fs)

	var out string
	var standalone bool
	fs.StringVar(&out, "o", "", "output file (default: <input>.mystc)")
	fs.BoolVar(&standalone, "standalone", true, "declare the scratch slots so the unit runs on its own")

	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("build: missing input file")
	}
	input := fs.Arg(0)
	if filepath.Ext(input) != modules.SourceExt {
		return fmt.Errorf("build: input must be a %s source file", modules.SourceExt)
	}
	if out == "" {
		out = strings.TrimSuffix(input, modules.SourceExt) + modules.CompiledExt
	}

	ctx := context.Background()
	s, err := newSession(ctx, input, &flags)
	if err != nil {
		return err
	}
	defer s.Close()

	u, err := s.unit(ctx, input)
	if err != nil {
		return err
	}
	if standalone {
		ir.DeclareScratch(u, s.cfg.Compile.Scratch)
	}
	if err := ir.WriteUnitToFile(out, u); err != nil {
		return fmt.Errorf("failed to write unit: %w", err)
	}
	log.Infof("wrote %s (%d instructions)", out, len(u.Code))
	return nil
}

// -------------- DUMP / AST --------------

func cmdDump(args []string, stdout io.Writer) error {
	fs := flag.NewFlagSet("dump", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var flags commonFlags
	flags.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return fmt.Errorf("dump: missing input file")
	}
	input := fs.Arg(0)

	ctx := context.Background()
	s, err := newSession(ctx, input, &flags)
	if err != nil {
		return err
	}
	defer s.Close()

	u, err := s.unit(ctx, input)
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, ir.Format(u))
	return err
}

func cmdAST(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		return fmt.Errorf("ast: missing input file")
	}
	input := args[0]
	src, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("cannot read file %s: %w", input, err)
	}
	prog, err := modules.Parse(input, string(src))
	if err != nil {
		return err
	}
	_, err = io.WriteString(stdout, ast.Dump(prog))
	return err
}
