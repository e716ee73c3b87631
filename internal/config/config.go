// Package config handles myst.toml project configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"myst/internal/ir"
)

const FileName = "myst.toml"

// Config represents a myst.toml project configuration.
type Config struct {
	Project Project `toml:"project"`
	Compile Compile `toml:"compile"`
	Cache   Cache   `toml:"cache"`
	Log     Log     `toml:"log"`

	// Dir is the directory containing the myst.toml file (set at load time).
	Dir string `toml:"-"`
}

type Project struct {
	Name  string `toml:"name"`
	Entry string `toml:"entry"`
}

// Compile configures lowering and include resolution.
type Compile struct {
	IncludeDirs []string        `toml:"include_dirs"`
	Preludes    []string        `toml:"preludes"`
	StdImports  []string        `toml:"std_imports"`
	Scratch     ir.ScratchNames `toml:"scratch"`
}

// Cache configures the compiled-unit store. DSN is a SQLite path (optionally
// prefixed with "sqlite:") or a postgres:// URL.
type Cache struct {
	Enabled bool   `toml:"enabled"`
	DSN     string `toml:"dsn"`
}

type Log struct {
	Verbosity int    `toml:"verbosity"`
	File      string `toml:"file"`
}

// Default returns the configuration used when no myst.toml is found.
func Default(dir string) *Config {
	c := &Config{Dir: dir}
	c.applyDefaults()
	return c
}

// Load parses a myst.toml file from the given directory.
func Load(dir string) (*Config, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var c Config
	md, err := toml.Decode(string(data), &c)
	if err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}

	c.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}
	c.applyDefaults()

	if err := c.Compile.Scratch.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) applyDefaults() {
	if len(c.Compile.IncludeDirs) == 0 {
		c.Compile.IncludeDirs = []string{"."}
	}
	if c.Cache.Enabled && c.Cache.DSN == "" {
		c.Cache.DSN = filepath.Join(".myst", "cache.db")
	}
}

// FindAndLoad walks up from startDir to find a myst.toml file, then loads
// and returns it. Returns nil if no file is found.
func FindAndLoad(startDir string) (*Config, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		if _, err := os.Stat(filepath.Join(dir, FileName)); err == nil {
			return Load(dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil, nil
		}
		dir = parent
	}
}

// IncludePaths returns the include directories resolved against Dir.
func (c *Config) IncludePaths() []string {
	return c.resolve(c.Compile.IncludeDirs)
}

// PreludePaths returns the prelude manifest paths resolved against Dir.
func (c *Config) PreludePaths() []string {
	return c.resolve(c.Compile.Preludes)
}

// CacheDSN returns the cache DSN with relative SQLite paths resolved
// against Dir, or "" when the cache is disabled.
func (c *Config) CacheDSN() string {
	if !c.Cache.Enabled {
		return ""
	}
	dsn := c.Cache.DSN
	if filepath.IsAbs(dsn) || hasScheme(dsn) {
		return dsn
	}
	return filepath.Join(c.Dir, dsn)
}

// LogFile returns the log file path resolved against Dir, or "" for stderr.
func (c *Config) LogFile() string {
	if c.Log.File == "" || filepath.IsAbs(c.Log.File) {
		return c.Log.File
	}
	return filepath.Join(c.Dir, c.Log.File)
}

func (c *Config) resolve(paths []string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if filepath.IsAbs(p) {
			out = append(out, p)
		} else {
			out = append(out, filepath.Join(c.Dir, p))
		}
	}
	return out
}

func hasScheme(dsn string) bool {
	for i := 0; i < len(dsn); i++ {
		switch c := dsn[i]; {
		case c == ':':
			return i > 0
		case c == '/' || c == '\\' || c == '.':
			return false
		}
	}
	return false
}
