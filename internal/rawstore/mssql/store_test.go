package mssql

import (
	"errors"
	"strings"
	"testing"

	mssqldb "github.com/microsoft/go-mssqldb"

	"visetl/internal/rawstore"
)

var testSpec = rawstore.TableSpec{
	Name: "raw_results",
	Columns: []rawstore.ColumnSpec{
		{Name: "tournament_id", Type: "bigint"},
		{Name: "team_id", Type: "bigint"},
		{Name: "finishing_pos", Type: "integer"},
	},
	Key: []string{"tournament_id", "team_id"},
}

func TestBuildCreateSQL(t *testing.T) {
	t.Parallel()

	sql := buildCreateSQL(testSpec)
	for _, want := range []string{
		`IF OBJECT_ID(N'raw.raw_results', N'U') IS NULL CREATE TABLE [raw].[raw_results]`,
		`[tournament_id] BIGINT NOT NULL`,
		`[finishing_pos] INT`,
		`ingested_at DATETIMEOFFSET NOT NULL DEFAULT SYSDATETIMEOFFSET()`,
		`PRIMARY KEY ([tournament_id], [team_id])`,
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("create SQL missing %q:\n%s", want, sql)
		}
	}
}

func TestBuildMergeSQL(t *testing.T) {
	t.Parallel()

	rows := [][]any{
		{int64(502), int64(330), 1},
		{int64(502), int64(411), 2},
	}
	sql, args := buildMergeSQL(testSpec, rows)

	if len(args) != 6 {
		t.Fatalf("got %d args, want 6", len(args))
	}
	for _, want := range []string{
		`MERGE INTO [raw].[raw_results] AS t USING (VALUES (@p1, @p2, @p3), (@p4, @p5, @p6)) AS s`,
		`ON t.[tournament_id] = s.[tournament_id] AND t.[team_id] = s.[team_id]`,
		`WHEN MATCHED THEN UPDATE SET t.[finishing_pos] = s.[finishing_pos], t.ingested_at = SYSDATETIMEOFFSET()`,
		`WHEN NOT MATCHED THEN INSERT ([tournament_id], [team_id], [finishing_pos], ingested_at)`,
		`VALUES (s.[tournament_id], s.[team_id], s.[finishing_pos], SYSDATETIMEOFFSET());`,
	} {
		if !strings.Contains(sql, want) {
			t.Fatalf("merge SQL missing %q:\n%s", want, sql)
		}
	}
	// Key columns never appear on the left of the UPDATE SET list.
	if strings.Contains(sql, "UPDATE SET t.[tournament_id]") {
		t.Fatalf("key column updated on match:\n%s", sql)
	}
}

func TestClassify(t *testing.T) {
	t.Parallel()

	for _, num := range []int32{2601, 2627} {
		err := classify("raw_results", mssqldb.Error{Number: num})
		if !errors.Is(err, rawstore.ErrSchemaCorrupt) {
			t.Errorf("number %d: expected schema corruption", num)
		}
	}
	if errors.Is(classify("raw_results", mssqldb.Error{Number: 547}), rawstore.ErrSchemaCorrupt) {
		t.Fatalf("number 547 must not be schema corruption")
	}
}

func TestMsType(t *testing.T) {
	t.Parallel()

	cases := []struct {
		in    string
		isKey bool
		want  string
	}{
		{"bigint", false, "BIGINT"},
		{"integer", false, "INT"},
		{"boolean", false, "BIT"},
		{"numeric", false, "DECIMAL(14,2)"},
		{"date", false, "DATE"},
		{"timestamptz", false, "DATETIMEOFFSET"},
		{"text", true, "NVARCHAR(128)"},
		{"text", false, "NVARCHAR(400)"},
	}
	for _, tc := range cases {
		if got := msType(tc.in, tc.isKey); got != tc.want {
			t.Errorf("msType(%q, %v) = %q, want %q", tc.in, tc.isKey, got, tc.want)
		}
	}
}

func TestMsIdent(t *testing.T) {
	t.Parallel()

	if got := msIdent("ra]nk"); got != "[ra]]nk]" {
		t.Fatalf("msIdent = %s", got)
	}
}
