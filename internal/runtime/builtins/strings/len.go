package strings

import (
	"fmt"
	"unicode/utf8"

	"myst/internal/runtime/builtins"
	"myst/internal/types"
	"myst/internal/value"
)

func init() {
	builtins.Register(builtins.Builtin{
		Meta: builtins.Meta{
			ID:         builtins.StrLen,
			Name:       "str.len",
			Arity:      1,
			ParamNames: []string{"s"},
			Result:     types.KindNumber,
		},
		Call: func(env builtins.Env, args []value.Value) (value.Value, error) {
			if len(args) != 1 {
				return value.Value{}, fmt.Errorf("str.len expects 1 argument, got %d", len(args))
			}
			s := args[0]
			if s.Kind != value.KindString {
				return value.Value{}, fmt.Errorf("str.len called on non-string type %v", s.Kind)
			}
			return value.Int(int64(utf8.RuneCountInString(s.Str))), nil
		},
	})
}
