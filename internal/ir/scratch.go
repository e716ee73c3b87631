package ir

import (
	"fmt"
	"strings"
)

// Role is a scratch slot role.
type Role int

const (
	Primary   Role = iota // scalar results
	Secondary             // left operand held while the right one is lowered
	Aggregate             // array pointer while its cells are stored
	Struct                // string and struct results
)

var roles = [...]Role{Primary, Secondary, Aggregate, Struct}

func (r Role) Type() StorageType {
	switch r {
	case Aggregate:
		return TypePtr
	case Struct:
		return TypeStruct
	}
	return TypeI64
}

// ScratchNames are the cell names of the scratch roles. Empty fields take
// the defaults.
type ScratchNames struct {
	Primary   string `toml:"primary"`
	Secondary string `toml:"secondary"`
	Aggregate string `toml:"aggregate"`
	Struct    string `toml:"struct"`
}

func DefaultScratch() ScratchNames {
	return ScratchNames{
		Primary:   "temp",
		Secondary: "temp2",
		Aggregate: "tempptr",
		Struct:    "tempstruct",
	}
}

func (s ScratchNames) withDefaults() ScratchNames {
	d := DefaultScratch()
	if s.Primary == "" {
		s.Primary = d.Primary
	}
	if s.Secondary == "" {
		s.Secondary = d.Secondary
	}
	if s.Aggregate == "" {
		s.Aggregate = d.Aggregate
	}
	if s.Struct == "" {
		s.Struct = d.Struct
	}
	return s
}

func (s ScratchNames) Name(r Role) string {
	switch r {
	case Secondary:
		return s.Secondary
	case Aggregate:
		return s.Aggregate
	case Struct:
		return s.Struct
	}
	return s.Primary
}

// Names lists the resolved names in role order.
func (s ScratchNames) Names() []string {
	s = s.withDefaults()
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = s.Name(r)
	}
	return out
}

// Validate checks that the names are distinct plain identifiers.
func (s ScratchNames) Validate() error {
	s = s.withDefaults()
	seen := map[string]Role{}
	for _, r := range roles {
		name := s.Name(r)
		if strings.ContainsAny(name, ". \t\n") {
			return fmt.Errorf("scratch slot name %q must be a plain identifier", name)
		}
		if prev, dup := seen[name]; dup {
			return fmt.Errorf("scratch slot name %q used for roles %d and %d", name, prev, r)
		}
		seen[name] = r
	}
	return nil
}

// DeclareScratch prepends the unit-level declarations of every scratch
// slot. Callers run it on units that execute standalone.
func DeclareScratch(u *Unit, names ScratchNames) {
	names = names.withDefaults()
	decls := make([]Instruction, 0, len(roles)+len(u.Code))
	for _, r := range roles {
		decls = append(decls, Var(r.Type(), names.Name(r)))
	}
	u.Code = append(decls, u.Code...)
}

// scratchPool hands out scratch cells and tracks which are live. A role
// that is requested while already live yields a spill cell "<base>.<n>",
// declared where it is acquired.
type scratchPool struct {
	names ScratchNames
	live  map[Role]int
	peak  map[Role]int
}

func newScratchPool(names ScratchNames) *scratchPool {
	return &scratchPool{
		names: names.withDefaults(),
		live:  map[Role]int{},
		peak:  map[Role]int{},
	}
}

func (p *scratchPool) name(r Role) string { return p.names.Name(r) }

func (p *scratchPool) acquire(out *Chunk, r Role) string {
	depth := p.live[r]
	p.live[r]++
	if p.live[r] > p.peak[r] {
		p.peak[r] = p.live[r]
	}
	if depth == 0 {
		return p.names.Name(r)
	}
	spill := fmt.Sprintf("%s.%d", p.names.Name(r), depth)
	out.Emit(Var(r.Type(), spill))
	return spill
}

// reserved reports whether name is one of the scratch cells, so user code
// cannot declare or assign it.
func (p *scratchPool) reserved(name string) bool {
	for _, r := range roles {
		if p.names.Name(r) == name {
			return true
		}
	}
	return false
}

func (p *scratchPool) release(r Role) {
	if p.live[r] > 0 {
		p.live[r]--
	}
}

// declareLocal seeds a function body with local cells for every role so
// that a callee cannot clobber a slot its caller holds live.
func (p *scratchPool) declareLocal(out *Chunk) {
	for _, r := range roles {
		out.Emit(Var(r.Type(), p.names.Name(r)))
	}
}
