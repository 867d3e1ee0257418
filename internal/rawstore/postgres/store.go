package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"visetl/internal/rawstore"
)

/*
Store implements rawstore.Store for Postgres.

It provides:
  - idempotent raw schema + table creation
  - multi-row upserts via INSERT ... ON CONFLICT (pk) DO UPDATE
  - truncation tolerant of not-yet-created tables

The pool is safe for concurrent writers; per-tournament loaders upserting
disjoint key ranges of the same table go through independent connections.
*/
type Store struct {
	pool *pgxpool.Pool
}

const schemaName = "raw"

func init() {
	rawstore.Register("postgres", New)
}

// New creates a Postgres-backed raw store.
func New(ctx context.Context, cfg rawstore.Config) (rawstore.Store, error) {
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// EnsureTables creates the raw schema and every table if absent.
func (s *Store) EnsureTables(ctx context.Context, tables []rawstore.TableSpec) error {
	if _, err := s.pool.Exec(ctx, fmt.Sprintf(`CREATE SCHEMA IF NOT EXISTS %s;`, pgIdent(schemaName))); err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}
	for _, t := range tables {
		if _, err := s.pool.Exec(ctx, buildCreateSQL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// Upsert inserts or updates rows keyed by spec.Key.
//
// Rows are sent in chunks so parameter counts stay well below the Postgres
// limit even for the bulk match load (a dozen columns x tens of thousands
// of rows).
func (s *Store) Upsert(ctx context.Context, spec rawstore.TableSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	const chunk = 2000
	total := int64(0)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		sql, args := buildUpsertSQL(spec, rows[start:end])
		cmd, err := s.pool.Exec(ctx, sql, args...)
		if err != nil {
			return total, classify(spec.Name, err)
		}
		total += cmd.RowsAffected()
	}
	return total, nil
}

// Truncate empties the named tables in one statement. A missing table
// (undefined_table) means nothing was ever loaded; that is not an error.
func (s *Store) Truncate(ctx context.Context, tables []rawstore.TableSpec) error {
	if len(tables) == 0 {
		return nil
	}
	names := make([]string, len(tables))
	for i, t := range tables {
		names[i] = qualified(t.Name)
	}
	_, err := s.pool.Exec(ctx, "TRUNCATE TABLE "+strings.Join(names, ", ")+" RESTART IDENTITY CASCADE")
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "42P01" {
		return nil
	}
	return err
}

// classify wraps persistence faults that indicate schema corruption.
//
//	23505 unique_violation: duplicate primary key surfaced despite the
//	       ON CONFLICT clause, so the constraint does not cover the key.
//	42P10 invalid_column_reference: ON CONFLICT target has no matching
//	       unique constraint at all.
//
// Both require operator intervention, not a retry.
func classify(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505", "42P10":
			return fmt.Errorf("%w: %s: %v", rawstore.ErrSchemaCorrupt, table, err)
		}
	}
	return fmt.Errorf("upsert %s: %w", table, err)
}

func qualified(name string) string {
	return pgIdent(schemaName) + "." + pgIdent(name)
}

// buildCreateSQL renders CREATE TABLE IF NOT EXISTS for one raw table,
// appending the ingested_at column and the primary-key constraint.
func buildCreateSQL(t rawstore.TableSpec) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(qualified(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(pgType(c.Type))
		if t.IsKey(c.Name) {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(", ingested_at timestamptz NOT NULL DEFAULT now()")
	b.WriteString(", PRIMARY KEY (")
	for i, k := range t.Key {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(k))
	}
	b.WriteString("));")
	return b.String()
}

// buildUpsertSQL constructs one multi-row INSERT ... ON CONFLICT DO UPDATE
// statement and its args.
//
// It is pure and deterministic so placeholder numbering and the conflict
// clause can be unit tested without a database.
func buildUpsertSQL(t rawstore.TableSpec, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(qualified(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(c.Name))
	}
	b.WriteString(", ingested_at) VALUES ")

	args := make([]any, 0, len(rows)*len(t.Columns))
	p := 1
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range t.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			fmt.Fprintf(&b, "$%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(", now())")
	}

	b.WriteString(" ON CONFLICT (")
	for i, k := range t.Key {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(pgIdent(k))
	}
	b.WriteString(") DO UPDATE SET ")

	first := true
	for _, c := range t.Columns {
		if t.IsKey(c.Name) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(pgIdent(c.Name))
		b.WriteString(" = EXCLUDED.")
		b.WriteString(pgIdent(c.Name))
	}
	if !first {
		b.WriteString(", ")
	}
	// Refresh ingested_at on conflict so the latest write is authoritative.
	b.WriteString("ingested_at = now();")
	return b.String(), args
}

func pgType(t string) string {
	// Portable types map 1:1 onto Postgres.
	return t
}

// pgIdent quotes an identifier. Table and column names come from the static
// specs, not user input, but quoting keeps reserved words (e.g. "rank") safe.
func pgIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
