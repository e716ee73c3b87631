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
			ID:         builtins.StrConcat,
			Name:       "str.concat",
			Arity:      2,
			ParamNames: []string{"a", "b"},
			Result:     types.KindString,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			if len(args) != 2 {
				return value.Value{}, fmt.Errorf("str.concat expects 2 arguments, got %d", len(args))
			}
			// non-string operands use their printed form
			return value.Str(args[0].String() + args[1].String()), nil
		},
	})
}
