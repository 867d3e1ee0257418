// Package loader normalizes VIS records into typed raw-table rows and
// upserts them through the raw store. One loader entry point per entity.
package loader

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"visetl/internal/vis"
)

// Each row type mirrors one raw table. Values() returns the value slice
// aligned with the table's column order in rawstore; optional fields are
// pointers so missing values land as NULL, never as zero values.

type EventRow struct {
	EventID            int64
	Code               *string
	Name               *string
	StartDate          *time.Time
	EndDate            *time.Time
	Type               *string
	NoParentEvent      *int64
	CountryCode        *string
	HasBeachTournament bool
	HasMenTournament   bool
	HasWomenTournament bool
	IsVisManaged       bool
}

func (r EventRow) Values() []any {
	return []any{r.EventID, r.Code, r.Name, r.StartDate, r.EndDate, r.Type,
		r.NoParentEvent, r.CountryCode, r.HasBeachTournament, r.HasMenTournament,
		r.HasWomenTournament, r.IsVisManaged}
}

type TournamentRow struct {
	TournamentID int64
	Name         *string
	Season       *string
	Tier         *string
	StartDate    *time.Time
	EndDate      *time.Time
	City         *string
	CountryCode  *string
	CountryName  *string
	Gender       *string
	Status       *string
	Timezone     *string
}

func (r TournamentRow) Values() []any {
	return []any{r.TournamentID, r.Name, r.Season, r.Tier, r.StartDate, r.EndDate,
		r.City, r.CountryCode, r.CountryName, r.Gender, r.Status, r.Timezone}
}

// Year infers the tournament's year from the season label or, failing that,
// the date range. Used for the per-tournament expansion cutoff.
func (r TournamentRow) Year() (int, bool) {
	if r.Season != nil {
		var y int
		if _, err := fmt.Sscanf(strings.TrimSpace(*r.Season), "%d", &y); err == nil && y >= 1900 && y <= 2100 {
			return y, true
		}
	}
	if r.StartDate != nil {
		return r.StartDate.Year(), true
	}
	if r.EndDate != nil {
		return r.EndDate.Year(), true
	}
	return 0, false
}

type TeamRow struct {
	TeamID       int64
	TournamentID int64
	PlayerAID    *int64
	PlayerBID    *int64
	CountryCode  *string
	Status       *string
	ValidFrom    *time.Time
	ValidTo      *time.Time
}

func (r TeamRow) Values() []any {
	return []any{r.TeamID, r.TournamentID, r.PlayerAID, r.PlayerBID,
		r.CountryCode, r.Status, r.ValidFrom, r.ValidTo}
}

type PlayerRow struct {
	PlayerID    int64
	FirstName   *string
	LastName    *string
	FullName    *string
	Gender      *string
	BirthDate   *time.Time
	HeightCm    *int
	CountryCode *string
	ProfileURL  *string
}

func (r PlayerRow) Values() []any {
	return []any{r.PlayerID, r.FirstName, r.LastName, r.FullName, r.Gender,
		r.BirthDate, r.HeightCm, r.CountryCode, r.ProfileURL}
}

type MatchRow struct {
	MatchID         int64
	TournamentID    int64
	Phase           *string
	RoundCode       *string
	TeamAID         *int64
	TeamBID         *int64
	WinnerTeamID    *int64
	ScoreSets       *string
	DurationMinutes *int
	PlayedAt        *string
	ResultType      *string
	Status          *string
}

func (r MatchRow) Values() []any {
	return []any{r.MatchID, r.TournamentID, r.Phase, r.RoundCode, r.TeamAID,
		r.TeamBID, r.WinnerTeamID, r.ScoreSets, r.DurationMinutes, r.PlayedAt,
		r.ResultType, r.Status}
}

type ResultRow struct {
	TournamentID int64
	TeamID       int64
	FinishingPos *int
	Points       *int
	PrizeMoney   *decimal.Decimal
}

func (r ResultRow) Values() []any {
	return []any{r.TournamentID, r.TeamID, r.FinishingPos, r.Points, r.PrizeMoney}
}

type RoundRow struct {
	RoundID      int64
	TournamentID *int64
	Code         *string
	Name         *string
	Bracket      *string
	Phase        *string
	StartDate    *time.Time
	EndDate      *time.Time
	RankMethod   *string
}

func (r RoundRow) Values() []any {
	return []any{r.RoundID, r.TournamentID, r.Code, r.Name, r.Bracket, r.Phase,
		r.StartDate, r.EndDate, r.RankMethod}
}

// IsPool reports whether the round's ranking is meaningful: only pool rounds
// publish a round ranking.
func (r RoundRow) IsPool() bool {
	return r.RankMethod != nil && strings.Contains(strings.ToLower(*r.RankMethod), "pool")
}

type RoundRankingRow struct {
	RoundID            int64
	Position           int
	Rank               *int
	TeamFederationCode *string
	TeamName           *string
	MatchPoints        *int
	MatchesWon         *int
	MatchesLost        *int
}

func (r RoundRankingRow) Values() []any {
	return []any{r.RoundID, r.Position, r.Rank, r.TeamFederationCode,
		r.TeamName, r.MatchPoints, r.MatchesWon, r.MatchesLost}
}

// Ranking types for team ranking snapshots. Stored in the leading key column
// so snapshots of different types never share a partition.
const (
	RankingWorldTour = "beach_world_tour"
	RankingOlympic   = "beach_olympic"
)

type TeamRankingRow struct {
	RankingType  string
	SnapshotDate time.Time
	Gender       string
	PlayerAID    int64
	PlayerBID    *int64
	Position     *int
	TeamName     *string
	EarnedPoints *int
}

func (r TeamRankingRow) Values() []any {
	return []any{r.RankingType, r.SnapshotDate, r.Gender, r.PlayerAID,
		r.PlayerBID, r.Position, r.TeamName, r.EarnedPoints}
}

// values flattens typed rows into the [][]any shape the store consumes.
func values[R interface{ Values() []any }](rows []R) [][]any {
	out := make([][]any, len(rows))
	for i, r := range rows {
		out[i] = r.Values()
	}
	return out
}

func strPtr(rec vis.Record, key string) *string {
	if s := rec.String(key); s != "" {
		return &s
	}
	return nil
}

func int64Ptr(rec vis.Record, key string) *int64 {
	if n, ok := rec.Int64(key); ok {
		return &n
	}
	return nil
}

func intPtr(rec vis.Record, key string) *int {
	if n, ok := rec.Int(key); ok {
		return &n
	}
	return nil
}

func datePtr(rec vis.Record, key string) *time.Time {
	if t, ok := rec.Date(key); ok {
		return &t
	}
	return nil
}
