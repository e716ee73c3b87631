package builtins

import (
	"fmt"
	"sort"
	"sync"

	"myst/internal/types"
	"myst/internal/value"
)

// Env provides host services to builtins.
// This interface is implemented by runtime.Env to avoid import cycles.
type Env interface {
	IO() IO
}

// IO is the minimal interface needed by builtin IO functions (e.g. print, input).
// This matches the interface defined in builtins/io/io.go.
type IO interface {
	Print(string)
	Println(string)
	ReadLine() (string, error)
}

// ID is a builtin function identifier.
type ID int

const (
	Print ID = iota
	Println
	Input
	StrLen
	StrConcat
	StrEq
	MathMax
	MathMin
	MathAbs
	// future builtins go here
)

// Meta contains metadata about a builtin function.
// Result is the kind the compiler records for the name, which decides how
// the caller retrieves the return value.
type Meta struct {
	ID         ID
	Name       string
	Arity      int
	ParamNames []string // Parameter names in order (must match Arity)
	Result     types.Kind
}

// Pushes reports whether a call leaves a value on the stack. Null and
// callback results leave nothing.
func (m Meta) Pushes() bool {
	switch m.Result.Tag {
	case types.Null, types.Callback:
		return false
	}
	return true
}

// Builtin represents a complete builtin function with both metadata and implementation.
type Builtin struct {
	Meta Meta
	// Call executes the builtin with its arguments in declaration order.
	// For pure builtins, env may be nil.
	Call func(env Env, args []value.Value) (value.Value, error)
}

// registry holds all registered builtins with fast lookup indexes.
type registry struct {
	mu sync.RWMutex

	// Index by ID for fast dispatch
	byID map[ID]*Builtin

	// Index by qualified name ("io.print") for call resolution
	byName map[string]*Builtin
}

var globalRegistry = &registry{
	byID:   make(map[ID]*Builtin),
	byName: make(map[string]*Builtin),
}

// Register registers a builtin. This is called automatically by each builtin's init() function.
// Panics if the builtin ID or name is already registered or if metadata is invalid.
func Register(b Builtin) {
	globalRegistry.mu.Lock()
	defer globalRegistry.mu.Unlock()

	if len(b.Meta.ParamNames) != b.Meta.Arity {
		panic(fmt.Sprintf("builtin %s (ID %d): ParamNames length (%d) != Arity (%d)",
			b.Meta.Name, b.Meta.ID, len(b.Meta.ParamNames), b.Meta.Arity))
	}
	if b.Call == nil {
		panic(fmt.Sprintf("builtin %s (ID %d) has no implementation", b.Meta.Name, b.Meta.ID))
	}
	if b.Meta.Result.Tag == types.Undefined {
		panic(fmt.Sprintf("builtin %s (ID %d) has an undefined result kind", b.Meta.Name, b.Meta.ID))
	}

	if _, exists := globalRegistry.byID[b.Meta.ID]; exists {
		panic(fmt.Sprintf("builtin ID %d (%s) is already registered", b.Meta.ID, b.Meta.Name))
	}
	if _, exists := globalRegistry.byName[b.Meta.Name]; exists {
		panic(fmt.Sprintf("builtin name %q is already registered", b.Meta.Name))
	}

	globalRegistry.byID[b.Meta.ID] = &b
	globalRegistry.byName[b.Meta.Name] = &b
}

// LookupByID finds a builtin by ID. Returns nil if not found.
func LookupByID(id ID) *Builtin {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return globalRegistry.byID[id]
}

// LookupByName finds a builtin by its qualified name.
// Returns nil if not found.
func LookupByName(name string) *Builtin {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()
	return globalRegistry.byName[name]
}

// All returns all registered builtins ordered by name.
func All() []*Builtin {
	globalRegistry.mu.RLock()
	defer globalRegistry.mu.RUnlock()

	result := make([]*Builtin, 0, len(globalRegistry.byName))
	for _, b := range globalRegistry.byName {
		result = append(result, b)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Meta.Name < result[j].Meta.Name })
	return result
}
