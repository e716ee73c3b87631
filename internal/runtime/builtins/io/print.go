package io

import (
	"fmt"

	"myst/internal/runtime/builtins"
	"myst/internal/types"
	"myst/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			ID:         builtins.Print,
			Name:       "io.print",
			Arity:      1,
			ParamNames: []string{"value"},
			Result:     types.KindNull,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return value.Value{}, fmt.Errorf("io.print expects 1 argument, got %d", len(args))
			}
			if env == nil || env.IO() == nil {
				return value.Value{}, fmt.Errorf("runtime env IO is nil")
			}
			env.IO().Print(args[0].String())
			return value.Null(), nil
		},
	})

	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			ID:         builtins.Println,
			Name:       "io.println",
			Arity:      1,
			ParamNames: []string{"value"},
			Result:     types.KindNull,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return value.Value{}, fmt.Errorf("io.println expects 1 argument, got %d", len(args))
			}
			if env == nil || env.IO() == nil {
				return value.Value{}, fmt.Errorf("runtime env IO is nil")
			}
			env.IO().Println(args[0].String())
			return value.Null(), nil
		},
	})
}
