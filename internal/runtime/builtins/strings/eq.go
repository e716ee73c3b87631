package strings

import (
	"fmt"

	"myst/internal/runtime/builtins"
	"myst/internal/types"
	"myst/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			ID:         builtins.StrEq,
			Name:       "str.eq",
			Arity:      2,
			ParamNames: []string{"a", "b"},
			Result:     types.KindNumber,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return value.Value{}, fmt.Errorf("str.eq expects 2 arguments, got %d", len(args))
			}
			a, b := args[0], args[1]
			if a.Kind != value.KindString || b.Kind != value.KindString {
				return value.Value{}, fmt.Errorf("str.eq expects strings, got %v and %v", a.Kind, b.Kind)
			}
			if a.Str == b.Str {
				return value.Int(1), nil
			}
			return value.Int(0), nil
		},
	})
}
