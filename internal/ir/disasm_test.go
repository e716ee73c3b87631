package ir_test

import (
	"strings"
	"testing"

	"myst/internal/ir"
	"myst/internal/types"
)

func TestFormatStraightLine(t *testing.T) {
	unit := compileSource(t, "let x = 2 + 3; return x;", ir.Options{})
	want := `unit main
code
  var i64 x
  add 2, 3, temp
  mov temp, x
  ret x
`
	if got := ir.Format(unit); got != want {
		t.Fatalf("unexpected listing:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatScopes(t *testing.T) {
	unit := compileSource(t, "if (1 < 2) { return 69; } else { return 0; }", ir.Options{})
	want := `  cmp lt 1, 2, temp
  scope
    0: jeq temp, 0 -> 3
    1: scope
      0: ret 69
    2: jmp -> 4
    3: scope
      0: ret 0
`
	got := ir.Format(unit)
	if !strings.HasSuffix(got, want) {
		t.Fatalf("unexpected listing:\n%s\nwant suffix:\n%s", got, want)
	}
}

func TestFormatSections(t *testing.T) {
	prelude := types.Prelude{"io.println": types.KindNull}
	unit := compileSource(t, `func hi(): null { io.println("hi"); }`, ir.Options{Prelude: prelude})
	got := ir.Format(unit)
	for _, want := range []string{
		"data\n  main.str0 = \"hi\"\n",
		"exports\n  hi: null\n",
		"func hi() none\n",
		"    push $main.str0\n",
		"    call @io.println\n",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("listing missing %q:\n%s", want, got)
		}
	}
}
