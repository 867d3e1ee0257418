package rawstore

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// Config is the minimal configuration needed to open a raw store.
//
// Edge cases:
//   - Kind must be non-empty and must match a registered backend kind.
//   - DSN is passed through to the backend factory; validation is backend-specific.
type Config struct {
	Kind string
	DSN  string
}

// ErrSchemaCorrupt marks persistence faults that indicate a broken raw schema
// (duplicate primary keys outside the upsert path, missing key constraints).
//
// These are never transient: the operator must reset the schema (e.g. run with
// TRUNCATE_RAW=1) before reloading. Callers must not retry or swallow them.
var ErrSchemaCorrupt = errors.New("rawstore: raw schema corrupt")

// Store is a backend-agnostic gateway to the raw tables.
//
// IMPORTANT: This interface is intentionally minimal and focused on what the
// loaders need. Each backend implements these semantics in its own idiomatic
// way (Postgres ON CONFLICT, SQLite ON CONFLICT, MSSQL MERGE).
type Store interface {
	// Close releases backend resources. Treat as "call once" at shutdown.
	Close()

	// EnsureTables creates the raw namespace and every table (with its primary
	// key constraint) if absent. Idempotent.
	EnsureTables(ctx context.Context, tables []TableSpec) error

	// Upsert inserts or updates rows keyed by spec.Key, setting ingested_at to
	// the current time on every write. Rows are value slices aligned with
	// spec.Columns. Atomic per row: a row fully replaces the prior version for
	// its key or is not written at all.
	//
	// A unique-violation reported despite the conflict clause means the key
	// constraint is missing or corrupted; backends wrap it in ErrSchemaCorrupt.
	Upsert(ctx context.Context, spec TableSpec, rows [][]any) (int64, error)

	// Truncate empties the named tables. Tables that do not exist yet are
	// silently skipped so clean-slate runs work on a fresh database.
	Truncate(ctx context.Context, tables []TableSpec) error
}

type factory func(ctx context.Context, cfg Config) (Store, error)

var (
	mu        sync.RWMutex
	factories = map[string]factory{}
)

// Register registers a backend under a kind (e.g. "postgres", "sqlite").
//
// Call Register from an init() function in a backend package. Registering the
// same kind twice panics: fail fast rather than risk ambiguous selection.
func Register(kind string, f factory) {
	mu.Lock()
	defer mu.Unlock()

	if kind == "" {
		panic("rawstore: Register called with empty kind")
	}
	if f == nil {
		panic("rawstore: Register called with nil factory")
	}
	if _, exists := factories[kind]; exists {
		panic(fmt.Sprintf("rawstore: factory already registered for kind=%q", kind))
	}
	factories[kind] = f
}

// New constructs a Store using the registered backend factory.
func New(ctx context.Context, cfg Config) (Store, error) {
	if cfg.Kind == "" {
		return nil, fmt.Errorf("rawstore: missing store kind")
	}

	mu.RLock()
	f := factories[cfg.Kind]
	mu.RUnlock()

	if f == nil {
		return nil, fmt.Errorf("rawstore: unsupported store kind=%s", cfg.Kind)
	}
	return f(ctx, cfg)
}
