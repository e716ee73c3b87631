package modules

import (
	"path/filepath"
	"strings"
	"testing"

	"myst/internal/types"
)

func TestLoadPrelude_TOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.toml")
	writeFile(t, path, `
[symbols]
"host.clock" = "number"
"host.name" = "string"
"host.on_tick" = "callback:null"
`)
	p, err := LoadPrelude(path)
	if err != nil {
		t.Fatalf("LoadPrelude error: %v", err)
	}
	want := types.Prelude{
		"host.clock":   types.KindNumber,
		"host.name":    types.KindString,
		"host.on_tick": {Tag: types.Callback, Result: types.Null},
	}
	if len(p) != len(want) {
		t.Fatalf("expected %d symbols, got %d", len(want), len(p))
	}
	for name, k := range want {
		if p[name] != k {
			t.Errorf("%s: expected %s, got %s", name, k, p[name])
		}
	}
}

func TestLoadPrelude_YAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "host.yml")
	writeFile(t, path, `
symbols:
  host.clock: number
  host.cb: callback
`)
	p, err := LoadPrelude(path)
	if err != nil {
		t.Fatalf("LoadPrelude error: %v", err)
	}
	if p["host.clock"] != types.KindNumber || p["host.cb"] != types.KindCallback {
		t.Fatalf("unexpected prelude %v", p.Strings())
	}
}

func TestLoadPrelude_Errors(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		file    string
		content string
		want    string
	}{
		{"bad_kind_toml", "a.toml", "[symbols]\nx = \"float\"\n", `prelude entry "x"`},
		{"unknown_key_toml", "b.toml", "[symbols]\nx = \"number\"\n[extra]\ny = 1\n", "unknown key"},
		{"unknown_key_yaml", "c.yaml", "symbols:\n  x: number\nextra: 1\n", "field extra not found"},
		{"empty_yaml", "d.yaml", "", "is empty"},
		{"missing", "none.toml", "", "open"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			path := filepath.Join(dir, tc.file)
			if tc.name != "missing" {
				writeFile(t, path, tc.content)
			}
			_, err := LoadPrelude(path)
			if err == nil {
				t.Fatalf("expected error containing %q", tc.want)
			}
			if !strings.Contains(err.Error(), tc.want) {
				t.Fatalf("expected error containing %q, got %q", tc.want, err)
			}
		})
	}
}

func TestLoadPreludes_LaterWins(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.toml")
	b := filepath.Join(dir, "b.toml")
	writeFile(t, a, "[symbols]\nx = \"number\"\ny = \"number\"\n")
	writeFile(t, b, "[symbols]\nx = \"string\"\n")

	base := types.Prelude{"io.print": types.KindNull}
	p, err := LoadPreludes(base, []string{a, b})
	if err != nil {
		t.Fatalf("LoadPreludes error: %v", err)
	}
	if p["x"] != types.KindString || p["y"] != types.KindNumber || p["io.print"] != types.KindNull {
		t.Fatalf("unexpected prelude %v", p.Strings())
	}
	if len(base) != 1 {
		t.Fatalf("base prelude was modified")
	}
}
