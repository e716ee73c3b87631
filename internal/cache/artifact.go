package cache

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"

	"myst/internal/ir"
)

// cborEncMode uses canonical mode for deterministic encoding.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("cache: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Artifact is one cached compilation result.
type Artifact struct {
	Key       string
	BuildID   uuid.UUID
	Name      string // unit name
	Code      []byte // ir.Encode output
	Meta      Meta
	CreatedAt time.Time
}

// Meta describes an artifact without decoding its unit.
type Meta struct {
	Exports map[string]string `cbor:"1,keyasint"`
	Source  string            `cbor:"2,keyasint,omitempty"`
	Data    int               `cbor:"3,keyasint"` // data section entries
	Format  string            `cbor:"4,keyasint"`
	Deps    []string          `cbor:"5,keyasint,omitempty"` // digests of imported units
}

// Format is the unit encoding artifacts are written in.
const Format = "MYS1"

// ErrStale indicates an artifact that must not be reused.
var ErrStale = errors.New("stale artifact")

func (m Meta) marshal() ([]byte, error) {
	b, err := cborEncMode.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("cache: marshal meta: %w", err)
	}
	return b, nil
}

func (m *Meta) unmarshal(data []byte) error {
	if err := cbor.Unmarshal(data, m); err != nil {
		return fmt.Errorf("cache: unmarshal meta: %w", err)
	}
	return nil
}

// NewArtifact encodes u for storage under key. source names where the
// unit was compiled from and is informational.
func NewArtifact(key string, u *ir.Unit, source string, deps []string) (*Artifact, error) {
	code, err := ir.Encode(u)
	if err != nil {
		return nil, fmt.Errorf("encoding unit %s: %w", u.Name, err)
	}
	exports := make(map[string]string, len(u.Exports))
	for name, k := range u.Exports {
		exports[name] = k.String()
	}
	return &Artifact{
		Key:     key,
		BuildID: uuid.New(),
		Name:    u.Name,
		Code:    code,
		Meta: Meta{
			Exports: exports,
			Source:  source,
			Data:    len(u.Data),
			Format:  Format,
			Deps:    deps,
		},
		CreatedAt: time.Now().Truncate(time.Second),
	}, nil
}

// Check verifies that the artifact was written in the current format and
// against the given dependency digests.
func (a *Artifact) Check(deps []string) error {
	if a.Meta.Format != Format {
		return fmt.Errorf("%w: %s has format %q, want %q", ErrStale, a.Key, a.Meta.Format, Format)
	}
	if !slices.Equal(a.Meta.Deps, deps) {
		return fmt.Errorf("%w: %s was built against different imports", ErrStale, a.Key)
	}
	return nil
}

// Unit decodes the stored unit.
func (a *Artifact) Unit() (*ir.Unit, error) {
	u, err := ir.Decode(a.Code)
	if err != nil {
		return nil, fmt.Errorf("decoding cached unit %s: %w", a.Key, err)
	}
	return u, nil
}

func (a *Artifact) setBuildID(s string) error {
	id, err := uuid.Parse(s)
	if err != nil {
		return fmt.Errorf("artifact %s: bad build id %q: %w", a.Key, s, err)
	}
	a.BuildID = id
	return nil
}

func unixTime(sec int64) time.Time {
	return time.Unix(sec, 0)
}
