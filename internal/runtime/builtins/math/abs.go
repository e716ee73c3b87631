package math

import (
	"myst/internal/runtime/builtins"
	"myst/internal/types"
	"myst/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			ID:         builtins.MathAbs,
			Name:       "math.abs",
			Arity:      1,
			ParamNames: []string{"n"},
			Result:     types.KindNumber,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			v, err := ints("math.abs", args, 1)
			if err != nil {
				return value.Value{}, err
			}
			if v[0] < 0 {
				return value.Int(-v[0]), nil
			}
			return value.Int(v[0]), nil
		},
	})
}
