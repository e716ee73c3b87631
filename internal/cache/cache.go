// Package cache stores compiled units keyed by the content they were
// compiled from, in SQLite or PostgreSQL.
package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/tliron/commonlog"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

// ErrNotFound indicates no artifact is stored under the requested key.
var ErrNotFound = errors.New("artifact not found")

var log = commonlog.GetLogger("myst.cache")

type dialect struct {
	name   string // database/sql driver name
	blob   string // binary column type
	upsert string
}

var (
	sqliteDialect = dialect{
		name: "sqlite",
		blob: "BLOB",
		upsert: `INSERT OR REPLACE INTO units (unit_key, build_id, name, code, meta, created_at)
			VALUES (?, ?, ?, ?, ?, ?)`,
	}
	postgresDialect = dialect{
		name: "postgres",
		blob: "BYTEA",
		upsert: `INSERT INTO units (unit_key, build_id, name, code, meta, created_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT (unit_key) DO UPDATE SET
				build_id = EXCLUDED.build_id,
				name = EXCLUDED.name,
				code = EXCLUDED.code,
				meta = EXCLUDED.meta,
				created_at = EXCLUDED.created_at`,
	}
)

// dialectFor picks the driver from the DSN: postgres:// and postgresql://
// URLs go to PostgreSQL, anything else is a SQLite path (an optional
// "sqlite:" prefix is stripped).
func dialectFor(dsn string) (dialect, string) {
	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return postgresDialect, dsn
	case strings.HasPrefix(dsn, "sqlite:"):
		return sqliteDialect, strings.TrimPrefix(dsn, "sqlite:")
	}
	return sqliteDialect, dsn
}

// rebind rewrites ? placeholders into the dialect's form.
func (d dialect) rebind(query string) string {
	if d.name != postgresDialect.name {
		return query
	}
	var sb strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			sb.WriteByte('$')
			sb.WriteString(strconv.Itoa(n))
			continue
		}
		sb.WriteRune(r)
	}
	return sb.String()
}

// Store is a compiled-unit cache.
type Store struct {
	db      *sql.DB
	dialect dialect
	mu      sync.Mutex
}

// Open connects to the store named by dsn and creates its schema if needed.
func Open(ctx context.Context, dsn string) (*Store, error) {
	if dsn == "" {
		return nil, fmt.Errorf("empty cache DSN")
	}
	d, source := dialectFor(dsn)
	if d.name == sqliteDialect.name && !strings.HasPrefix(source, "file:") && source != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(source), 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open(d.name, source)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	s := &Store{db: db, dialect: d}

	if d.name == sqliteDialect.name {
		// Set busy timeout for concurrent access
		if _, err := db.ExecContext(ctx, "PRAGMA busy_timeout = 5000"); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting busy timeout: %w", err)
		}
	}

	_, err = db.ExecContext(ctx, `CREATE TABLE IF NOT EXISTS units (
		unit_key TEXT PRIMARY KEY,
		build_id TEXT NOT NULL,
		name TEXT NOT NULL,
		code `+d.blob+` NOT NULL,
		meta `+d.blob+` NOT NULL,
		created_at BIGINT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating table: %w", err)
	}

	log.Debugf("opened %s cache", d.name)
	return s, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// Put stores a, replacing any artifact under the same key.
func (s *Store) Put(ctx context.Context, a *Artifact) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	meta, err := a.Meta.marshal()
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, s.dialect.rebind(s.dialect.upsert),
		a.Key, a.BuildID.String(), a.Name, a.Code, meta, a.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("saving artifact %s: %w", a.Key, err)
	}
	log.Debugf("stored %s (%s, %d bytes)", a.Key, a.Name, len(a.Code))
	return nil
}

// Get retrieves the artifact stored under key, or ErrNotFound.
func (s *Store) Get(ctx context.Context, key string) (*Artifact, error) {
	var (
		buildID string
		meta    []byte
		created int64
	)
	a := &Artifact{Key: key}
	err := s.db.QueryRowContext(ctx,
		s.dialect.rebind("SELECT build_id, name, code, meta, created_at FROM units WHERE unit_key = ?"), key).
		Scan(&buildID, &a.Name, &a.Code, &meta, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying artifact %s: %w", key, err)
	}
	if err := a.setBuildID(buildID); err != nil {
		return nil, err
	}
	if err := a.Meta.unmarshal(meta); err != nil {
		return nil, err
	}
	a.CreatedAt = unixTime(created)
	return a, nil
}

// Delete removes the artifact under key. Deleting a missing key is not an
// error.
func (s *Store) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, s.dialect.rebind("DELETE FROM units WHERE unit_key = ?"), key); err != nil {
		return fmt.Errorf("deleting artifact %s: %w", key, err)
	}
	return nil
}
