package runtime

import (
	"fmt"

	"myst/internal/runtime/builtins"
	// Import all builtin packages to trigger their init() functions for self-registration
	_ "myst/internal/runtime/builtins/io"
	_ "myst/internal/runtime/builtins/math"
	_ "myst/internal/runtime/builtins/strings"
	"myst/internal/types"
	"myst/internal/value"
)

// CallBuiltin executes the builtin registered under name with args given
// in declaration order.
func CallBuiltin(env *Env, name string, args []value.Value) (value.Value, error) {
	builtin := builtins.LookupByName(name)
	if builtin == nil {
		return value.Value{}, fmt.Errorf("unknown builtin %q", name)
	}
	if len(args) != builtin.Meta.Arity {
		return value.Value{}, fmt.Errorf("%s expects %d argument(s), got %d", name, builtin.Meta.Arity, len(args))
	}
	return builtin.Call(env, args)
}

// Prelude returns the kinds of every registered builtin, for seeding the
// compiler's symbol environment.
func Prelude() types.Prelude {
	p := types.Prelude{}
	for _, b := range builtins.All() {
		p[b.Meta.Name] = b.Meta.Result
	}
	return p
}
