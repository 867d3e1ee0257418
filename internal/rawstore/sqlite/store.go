package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"visetl/internal/rawstore"
)

// Store implements rawstore.Store for SQLite.
//
// Key design points vs Postgres:
//   - SQLite has no schemas; the raw namespace is carried by the raw_ table
//     name prefix alone.
//   - There is no TIMESTAMPTZ type. ingested_at is stored as an RFC3339Nano
//     UTC string, which round-trips reliably and sorts lexicographically in
//     timestamp order.
type Store struct {
	db *sql.DB
}

func init() {
	rawstore.Register("sqlite", New)
}

func New(ctx context.Context, cfg rawstore.Config) (rawstore.Store, error) {
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() { _ = s.db.Close() }

// EnsureTables creates every raw table if absent. Idempotent.
func (s *Store) EnsureTables(ctx context.Context, tables []rawstore.TableSpec) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, buildCreateSQL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

// Upsert inserts or updates rows keyed by spec.Key using
// INSERT ... ON CONFLICT (pk) DO UPDATE.
func (s *Store) Upsert(ctx context.Context, spec rawstore.TableSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	// SQLite's default variable limit is low compared to Postgres; keep
	// chunks conservative.
	const chunk = 200
	now := time.Now().UTC().Format(time.RFC3339Nano)
	total := int64(0)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		q, args := buildUpsertSQL(spec, rows[start:end], now)
		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return total, classify(spec.Name, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

// Truncate deletes all rows from the named tables. "no such table" is not an
// error: nothing was ever loaded.
func (s *Store) Truncate(ctx context.Context, tables []rawstore.TableSpec) error {
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM "+sqlIdent(t.Name)); err != nil {
			if strings.Contains(err.Error(), "no such table") {
				continue
			}
			return fmt.Errorf("truncate %s: %w", t.Name, err)
		}
	}
	return nil
}

func classify(table string, err error) error {
	// modernc.org/sqlite surfaces constraint problems in the message text;
	// both shapes below mean the primary key is missing or violated outside
	// the upsert path.
	msg := err.Error()
	if strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "ON CONFLICT clause does not match") {
		return fmt.Errorf("%w: %s: %v", rawstore.ErrSchemaCorrupt, table, err)
	}
	return fmt.Errorf("upsert %s: %w", table, err)
}

func buildCreateSQL(t rawstore.TableSpec) string {
	var b strings.Builder
	b.WriteString("CREATE TABLE IF NOT EXISTS ")
	b.WriteString(sqlIdent(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(sqliteType(c.Type))
		if t.IsKey(c.Name) {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(", ingested_at TEXT NOT NULL")
	b.WriteString(", PRIMARY KEY (")
	for i, k := range t.Key {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(k))
	}
	b.WriteString("));")
	return b.String()
}

func buildUpsertSQL(t rawstore.TableSpec, rows [][]any, now string) (string, []any) {
	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(t.Name))
	b.WriteString(" (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(c.Name))
	}
	b.WriteString(", ingested_at) VALUES ")

	args := make([]any, 0, len(rows)*(len(t.Columns)+1))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("(")
		for j := range t.Columns {
			if j > 0 {
				b.WriteString(", ")
			}
			b.WriteString("?")
			args = append(args, row[j])
		}
		b.WriteString(", ?)")
		args = append(args, now)
	}

	b.WriteString(" ON CONFLICT (")
	for i, k := range t.Key {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(sqlIdent(k))
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
		b.WriteString(sqlIdent(c.Name))
		b.WriteString(" = excluded.")
		b.WriteString(sqlIdent(c.Name))
	}
	if !first {
		b.WriteString(", ")
	}
	b.WriteString("ingested_at = excluded.ingested_at;")
	return b.String(), args
}

// sqliteType maps the portable column types onto SQLite affinities.
func sqliteType(t string) string {
	switch t {
	case "bigint", "integer", "boolean":
		return "INTEGER"
	case "numeric":
		return "NUMERIC"
	default:
		// text, date, timestamptz
		return "TEXT"
	}
}

func sqlIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
