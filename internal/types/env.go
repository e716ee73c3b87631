package types

import (
	"errors"
	"fmt"
	"sort"
)

var (
	ErrUnresolved = errors.New("unresolved symbol")
	ErrDuplicate  = errors.New("duplicate declaration")
)

// Prelude seeds an Env with the kinds of names defined outside the unit
// being compiled: runtime builtins, symbols exported by included units and
// entries from prelude manifests.
type Prelude map[string]Kind

// Merge copies every entry of other into p, overwriting existing names.
func (p Prelude) Merge(other Prelude) {
	for name, k := range other {
		p[name] = k
	}
}

func (p Prelude) Clone() Prelude {
	out := make(Prelude, len(p))
	out.Merge(p)
	return out
}

// Names returns the prelude's names in sorted order.
func (p Prelude) Names() []string {
	names := make([]string, 0, len(p))
	for name := range p {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Strings renders the prelude in its manifest form.
func (p Prelude) Strings() map[string]string {
	out := make(map[string]string, len(p))
	for name, k := range p {
		out[name] = k.String()
	}
	return out
}

// ParsePrelude converts manifest entries (name -> kind string).
func ParsePrelude(entries map[string]string) (Prelude, error) {
	p := make(Prelude, len(entries))
	for name, s := range entries {
		k, err := ParseKind(s)
		if err != nil {
			return nil, fmt.Errorf("prelude entry %q: %w", name, err)
		}
		p[name] = k
	}
	return p, nil
}

// Env is the symbol environment of one compilation unit.
//
// Lookup is flat: a name stays visible for the rest of the unit once
// declared, including after the block that declared it ends. Enter and
// Leave bound only duplicate detection, so the same name may be declared
// again in a nested block (the later declaration wins).
type Env struct {
	symbols map[string]Kind
	frames  []map[string]struct{}
}

func NewEnv(prelude Prelude) *Env {
	e := &Env{
		symbols: make(map[string]Kind, len(prelude)),
		frames:  []map[string]struct{}{{}},
	}
	for name, k := range prelude {
		e.symbols[name] = k
	}
	return e
}

// Declare records name in the current frame. It fails if the name was
// already declared in this frame.
func (e *Env) Declare(name string, k Kind) error {
	frame := e.frames[len(e.frames)-1]
	if _, exists := frame[name]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicate, name)
	}
	frame[name] = struct{}{}
	e.symbols[name] = k
	return nil
}

func (e *Env) Lookup(name string) (Kind, error) {
	k, ok := e.symbols[name]
	if !ok {
		return KindUndefined, fmt.Errorf("%w: %q", ErrUnresolved, name)
	}
	return k, nil
}

func (e *Env) Has(name string) bool {
	_, ok := e.symbols[name]
	return ok
}

func (e *Env) Enter() {
	e.frames = append(e.frames, map[string]struct{}{})
}

func (e *Env) Leave() {
	if len(e.frames) > 1 {
		e.frames = e.frames[:len(e.frames)-1]
	}
}
