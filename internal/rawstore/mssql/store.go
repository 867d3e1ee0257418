package mssql

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	mssql "github.com/microsoft/go-mssqldb"

	"visetl/internal/rawstore"
)

// Store implements rawstore.Store for SQL Server.
//
// SQL Server has no ON CONFLICT clause; upserts are expressed as a MERGE
// against a VALUES table source. Semantics match the Postgres backend:
// matched rows are updated in place, new rows inserted, ingested_at refreshed
// either way.
type Store struct {
	db *sql.DB
}

const schemaName = "raw"

func init() {
	rawstore.Register("mssql", New)
}

func New(ctx context.Context, cfg rawstore.Config) (rawstore.Store, error) {
	db, err := sql.Open("sqlserver", cfg.DSN)
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

func (s *Store) EnsureTables(ctx context.Context, tables []rawstore.TableSpec) error {
	if _, err := s.db.ExecContext(ctx,
		fmt.Sprintf(`IF SCHEMA_ID(N'%s') IS NULL EXEC(N'CREATE SCHEMA %s');`, schemaName, msIdent(schemaName))); err != nil {
		return fmt.Errorf("create schema %s: %w", schemaName, err)
	}
	for _, t := range tables {
		if _, err := s.db.ExecContext(ctx, buildCreateSQL(t)); err != nil {
			return fmt.Errorf("create table %s: %w", t.Name, err)
		}
	}
	return nil
}

func (s *Store) Upsert(ctx context.Context, spec rawstore.TableSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	// SQL Server caps parameters at 2100 per statement.
	chunk := 2000 / len(spec.Columns)
	if chunk < 1 {
		chunk = 1
	}
	total := int64(0)
	for start := 0; start < len(rows); start += chunk {
		end := min(start+chunk, len(rows))
		q, args := buildMergeSQL(spec, rows[start:end])
		res, err := s.db.ExecContext(ctx, q, args...)
		if err != nil {
			return total, classify(spec.Name, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}
	return total, nil
}

func (s *Store) Truncate(ctx context.Context, tables []rawstore.TableSpec) error {
	for _, t := range tables {
		stmt := fmt.Sprintf(`IF OBJECT_ID(N'%s.%s', N'U') IS NOT NULL TRUNCATE TABLE %s;`,
			schemaName, t.Name, qualified(t.Name))
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("truncate %s: %w", t.Name, err)
		}
	}
	return nil
}

// classify wraps duplicate-key errors (2627 primary key, 2601 unique index)
// as schema corruption: MERGE matched on the key, so a duplicate can only
// mean the constraint is missing or broken.
func classify(table string, err error) error {
	var sqlErr mssql.Error
	if errors.As(err, &sqlErr) {
		switch sqlErr.Number {
		case 2601, 2627:
			return fmt.Errorf("%w: %s: %v", rawstore.ErrSchemaCorrupt, table, err)
		}
	}
	return fmt.Errorf("upsert %s: %w", table, err)
}

func qualified(name string) string {
	return msIdent(schemaName) + "." + msIdent(name)
}

func buildCreateSQL(t rawstore.TableSpec) string {
	var b strings.Builder
	fmt.Fprintf(&b, "IF OBJECT_ID(N'%s.%s', N'U') IS NULL CREATE TABLE %s (",
		schemaName, t.Name, qualified(t.Name))
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c.Name))
		b.WriteString(" ")
		b.WriteString(msType(c.Type, t.IsKey(c.Name)))
		if t.IsKey(c.Name) {
			b.WriteString(" NOT NULL")
		}
	}
	b.WriteString(", ingested_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()")
	b.WriteString(", PRIMARY KEY (")
	for i, k := range t.Key {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(k))
	}
	b.WriteString("));")
	return b.String()
}

// buildMergeSQL renders one MERGE statement covering a chunk of rows.
// Pure, so placeholder numbering and clause layout are unit-testable.
func buildMergeSQL(t rawstore.TableSpec, rows [][]any) (string, []any) {
	var b strings.Builder
	b.WriteString("MERGE INTO ")
	b.WriteString(qualified(t.Name))
	b.WriteString(" AS t USING (VALUES ")

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
			fmt.Fprintf(&b, "@p%d", p)
			args = append(args, row[j])
			p++
		}
		b.WriteString(")")
	}

	b.WriteString(") AS s (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c.Name))
	}
	b.WriteString(") ON ")
	for i, k := range t.Key {
		if i > 0 {
			b.WriteString(" AND ")
		}
		fmt.Fprintf(&b, "t.%s = s.%s", msIdent(k), msIdent(k))
	}

	b.WriteString(" WHEN MATCHED THEN UPDATE SET ")
	first := true
	for _, c := range t.Columns {
		if t.IsKey(c.Name) {
			continue
		}
		if !first {
			b.WriteString(", ")
		}
		first = false
		fmt.Fprintf(&b, "t.%s = s.%s", msIdent(c.Name), msIdent(c.Name))
	}
	if !first {
		b.WriteString(", ")
	}
	b.WriteString("t.ingested_at = SYSDATETIMEOFFSET()")

	b.WriteString(" WHEN NOT MATCHED THEN INSERT (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(msIdent(c.Name))
	}
	b.WriteString(", ingested_at) VALUES (")
	for i, c := range t.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString("s." + msIdent(c.Name))
	}
	b.WriteString(", SYSDATETIMEOFFSET());")
	return b.String(), args
}

// msType maps the portable column types onto SQL Server. Key text columns
// get a bounded NVARCHAR so they can participate in the primary key.
func msType(t string, isKey bool) string {
	switch t {
	case "bigint":
		return "BIGINT"
	case "integer":
		return "INT"
	case "boolean":
		return "BIT"
	case "numeric":
		return "DECIMAL(14,2)"
	case "date":
		return "DATE"
	case "timestamptz":
		return "DATETIMEOFFSET"
	default:
		if isKey {
			return "NVARCHAR(128)"
		}
		return "NVARCHAR(400)"
	}
}

func msIdent(name string) string {
	return "[" + strings.ReplaceAll(name, "]", "]]") + "]"
}
