package math

import (
	"fmt"

	"myst/internal/runtime/builtins"
	"myst/internal/types"
	"myst/internal/value"
)

func ints(name string, args []value.Value, n int) ([]int64, error) {
	if len(args) != n {
		return nil, fmt.Errorf("%s expects %d argument(s), got %d", name, n, len(args))
	}
	out := make([]int64, n)
	for i, a := range args {
		if a.Kind != value.KindInt {
			return nil, fmt.Errorf("%s: argument %d is %v, not int", name, i+1, a.Kind)
		}
		out[i] = a.Int
	}
	return out, nil
}

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			ID:         builtins.MathMax,
			Name:       "math.max",
			Arity:      2,
			ParamNames: []string{"a", "b"},
			Result:     types.KindNumber,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			v, err := ints("math.max", args, 2)
			if err != nil {
				return value.Value{}, err
			}
			return value.Int(max(v[0], v[1])), nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			ID:         builtins.MathMin,
			Name:       "math.min",
			Arity:      2,
			ParamNames: []string{"a", "b"},
			Result:     types.KindNumber,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			v, err := ints("math.min", args, 2)
			if err != nil {
				return value.Value{}, err
			}
			return value.Int(min(v[0], v[1])), nil
		},
	})
}
