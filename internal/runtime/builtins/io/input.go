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
			ID:         builtins.Input,
			Name:       "io.input",
			Arity:      0,
			ParamNames: []string{},
			Result:     types.KindString,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			if len(args) != 0 {
				return value.Value{}, fmt.Errorf("io.input expects 0 arguments, got %d", len(args))
			}
			if env == nil || env.IO() == nil {
				return value.Value{}, fmt.Errorf("runtime env IO is nil")
			}
			line, err := env.IO().ReadLine()
			if err != nil {
				return value.Value{}, fmt.Errorf("input failed: %w", err)
			}
			return value.Str(line), nil
		},
	})
}
