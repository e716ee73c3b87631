package main

import (
	"bytes"
	"flag"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"myst/internal/value"
)

func writeSource(t *testing.T, dir, name, src string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(src), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

func TestCmdRun(t *testing.T) {
	dir := t.TempDir()
	writeSource(t, dir, "util.myst", "func triple(x) { return x * 3; }")
	main := writeSource(t, dir, "main.myst", `
import util;
io.println("start");
return triple(4);
`)
	var out bytes.Buffer
	code, err := cmdRun([]string{main}, strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("cmdRun error: %v", err)
	}
	if code != 12 {
		t.Fatalf("expected exit code 12, got %d", code)
	}
	if out.String() != "start\n12\n" {
		t.Fatalf("unexpected output %q", out.String())
	}
}

func TestCmdBuildThenRun(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "prog.myst", "let a = [1, 2, 3]; return a[0] + a[2];")
	if err := cmdBuild([]string{main}); err != nil {
		t.Fatalf("cmdBuild error: %v", err)
	}
	compiled := filepath.Join(dir, "prog.mystc")
	if _, err := os.Stat(compiled); err != nil {
		t.Fatalf("expected %s: %v", compiled, err)
	}

	var out bytes.Buffer
	code, err := cmdRun([]string{compiled}, strings.NewReader(""), &out)
	if err != nil {
		t.Fatalf("cmdRun error: %v", err)
	}
	if code != 4 {
		t.Fatalf("expected exit code 4, got %d", code)
	}
}

func TestCmdRun_Errors(t *testing.T) {
	dir := t.TempDir()
	if _, err := cmdRun(nil, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected missing input error")
	}
	txt := writeSource(t, dir, "notes.txt", "")
	if _, err := cmdRun([]string{txt}, nil, &bytes.Buffer{}); err == nil || !strings.Contains(err.Error(), "unsupported file extension") {
		t.Fatalf("expected extension error, got %v", err)
	}
	loop := writeSource(t, dir, "loop.myst", "let n = 1; while n > 0 { n = n + 1; }")
	if _, err := cmdRun([]string{"-max-steps", "500", loop}, nil, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected step budget error")
	}
}

func TestCmdDumpAndAST(t *testing.T) {
	dir := t.TempDir()
	main := writeSource(t, dir, "show.myst", "let x = 2 + 3;")

	var out bytes.Buffer
	if err := cmdDump([]string{main}, &out); err != nil {
		t.Fatalf("cmdDump error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "unit show\n") || !strings.Contains(out.String(), "add 2, 3, temp") {
		t.Fatalf("unexpected listing:\n%s", out.String())
	}

	out.Reset()
	if err := cmdAST([]string{main}, &out); err != nil {
		t.Fatalf("cmdAST error: %v", err)
	}
	if !strings.HasPrefix(out.String(), "Program\n") {
		t.Fatalf("unexpected tree:\n%s", out.String())
	}
}

func TestReport(t *testing.T) {
	var out bytes.Buffer
	if code := report(&out, value.Null()); code != 0 || out.Len() != 0 {
		t.Fatalf("null result: code %d, output %q", code, out.String())
	}
	if code := report(&out, value.Int(7)); code != 7 || out.String() != "7\n" {
		t.Fatalf("int result: code %d, output %q", code, out.String())
	}
	out.Reset()
	if code := report(&out, value.Str("done")); code != 0 || out.String() != "done\n" {
		t.Fatalf("string result: code %d, output %q", code, out.String())
	}
}

func TestCountFlag(t *testing.T) {
	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	var flags commonFlags
	flags.register(fs)
	if err := fs.Parse([]string{"-v", "-v", "-I", "a", "-I", "b", "file"}); err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if flags.verbose != 2 {
		t.Fatalf("expected verbosity 2, got %d", flags.verbose)
	}
	if len(flags.includes) != 2 || flags.includes[1] != "b" {
		t.Fatalf("unexpected includes %v", flags.includes)
	}
	if fs.Arg(0) != "file" {
		t.Fatalf("unexpected args %v", fs.Args())
	}
}
