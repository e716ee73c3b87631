package modules

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"myst/internal/types"
)

// preludeFile is the on-disk form of a prelude manifest:
//
//	[symbols]
//	"host.clock" = "number"
//	"host.on_tick" = "callback:null"
type preludeFile struct {
	Symbols map[string]string `toml:"symbols" yaml:"symbols"`
}

// LoadPrelude reads a prelude manifest. Files ending in .yml or .yaml are
// read as YAML, everything else as TOML.
func LoadPrelude(path string) (types.Prelude, error) {
	if path == "" {
		return nil, fmt.Errorf("prelude: empty path")
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("prelude: open %s: %w", path, err)
	}
	defer f.Close()

	var raw preludeFile
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		decoder := yaml.NewDecoder(f)
		decoder.KnownFields(true)
		if err := decoder.Decode(&raw); err != nil {
			if errors.Is(err, io.EOF) {
				return nil, fmt.Errorf("prelude: %s is empty", path)
			}
			return nil, fmt.Errorf("prelude: parse %s: %w", path, err)
		}
	default:
		md, err := toml.NewDecoder(f).Decode(&raw)
		if err != nil {
			return nil, fmt.Errorf("prelude: parse %s: %w", path, err)
		}
		if undecoded := md.Undecoded(); len(undecoded) > 0 {
			return nil, fmt.Errorf("prelude: %s: unknown key %s", path, undecoded[0])
		}
	}

	p, err := types.ParsePrelude(raw.Symbols)
	if err != nil {
		return nil, fmt.Errorf("prelude: %s: %w", path, err)
	}
	for name, k := range p {
		if k.Tag == types.Undefined {
			return nil, fmt.Errorf("prelude: %s: symbol %q has no kind", path, name)
		}
	}
	return p, nil
}

// LoadPreludes merges the manifests at paths in order. Later files win.
func LoadPreludes(base types.Prelude, paths []string) (types.Prelude, error) {
	out := base.Clone()
	for _, path := range paths {
		p, err := LoadPrelude(path)
		if err != nil {
			return nil, err
		}
		out.Merge(p)
	}
	return out, nil
}
