package loader

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"visetl/internal/metrics"
	"visetl/internal/rawstore"
	"visetl/internal/vis"
)

// Fetcher is the slice of the VIS client the loaders need. Tests supply a
// canned implementation.
type Fetcher interface {
	Fetch(ctx context.Context, req vis.Request) ([]vis.Record, error)
}

// Event listing is windowed: the feed holds decades of events and the raw
// layer only tracks the current cycle.
const (
	eventWindowFirst = "2024-01-01"
	eventWindowLast  = "2026-12-31"
)

// resultPhases are fetched one by one; the unphased request covers finished
// tournaments, the explicit phases cover tournaments still in progress.
var resultPhases = [...]string{"", "MainDraw", "Qualification"}

// SnapshotKey identifies one team ranking snapshot partition.
type SnapshotKey struct {
	Date   time.Time
	Gender string
}

// Loader fetches one entity at a time and upserts the normalized rows.
// Methods return the number of rows written.
type Loader struct {
	Client Fetcher
	Store  rawstore.Store
	Log    *logrus.Logger
}

func (l *Loader) log() *logrus.Logger {
	if l.Log != nil {
		return l.Log
	}
	return logrus.StandardLogger()
}

func (l *Loader) upsert(ctx context.Context, spec rawstore.TableSpec, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	n, err := l.Store.Upsert(ctx, spec, rows)
	if err != nil {
		return 0, fmt.Errorf("upsert %s: %w", spec.Name, err)
	}
	metrics.IncCounter(metrics.RecordsTotal, float64(n), metrics.Labels{"table": spec.Name})
	l.log().WithFields(logrus.Fields{"table": spec.Name, "rows": n}).Info("upserted")
	return n, nil
}

// LoadEvents ingests the beach event calendar for the tracked window.
func (l *Loader) LoadEvents(ctx context.Context) (int64, error) {
	recs, err := l.Client.Fetch(ctx, vis.Request{
		Type: vis.GetEventList,
		FilterAttrs: map[string]string{
			"HasBeachTournament": "true",
			"NoParentEvent":      "0",
			"FirstDate":          eventWindowFirst,
			"LastDate":           eventWindowLast,
		},
	})
	if err != nil {
		return 0, fmt.Errorf("fetch events: %w", err)
	}
	var rows []EventRow
	for _, rec := range recs {
		if row, ok := normalizeEvent(rec); ok {
			rows = append(rows, row)
		}
	}
	return l.upsert(ctx, rawstore.Events, values(rows))
}

// LoadTournaments ingests the tournament list, optionally filtered to one
// season, and returns the normalized rows so the caller can fan out
// per-tournament work without re-reading the store. A positive limit caps
// how many tournaments are kept, in feed order.
func (l *Loader) LoadTournaments(ctx context.Context, season string, limit int) ([]TournamentRow, error) {
	req := vis.Request{Type: vis.GetBeachTournamentList}
	if season != "" {
		req.Filter = fmt.Sprintf("Season='%s'", season)
	}
	recs, err := l.Client.Fetch(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("fetch tournaments: %w", err)
	}
	var rows []TournamentRow
	for _, rec := range recs {
		if row, ok := normalizeTournament(rec); ok {
			rows = append(rows, row)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	if _, err := l.upsert(ctx, rawstore.Tournaments, values(rows)); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadTeams ingests the unscoped team list across all tournaments.
func (l *Loader) LoadTeams(ctx context.Context) (int64, error) {
	return l.loadTeams(ctx, vis.Request{Type: vis.GetBeachTeamList})
}

// LoadTeamsForTournament ingests the teams of a single tournament.
func (l *Loader) LoadTeamsForTournament(ctx context.Context, tournamentID int64) (int64, error) {
	return l.loadTeams(ctx, vis.Request{
		Type:   vis.GetBeachTeamList,
		Filter: fmt.Sprintf("NoTournament='%d'", tournamentID),
	})
}

func (l *Loader) loadTeams(ctx context.Context, req vis.Request) (int64, error) {
	recs, err := l.Client.Fetch(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("fetch teams: %w", err)
	}
	var rows []TeamRow
	for _, rec := range recs {
		if row, ok := normalizeTeam(rec); ok {
			rows = append(rows, row)
		}
	}
	return l.upsert(ctx, rawstore.Teams, values(rows))
}

// LoadPlayers ingests the full player registry.
func (l *Loader) LoadPlayers(ctx context.Context) (int64, error) {
	recs, err := l.Client.Fetch(ctx, vis.Request{Type: vis.GetPlayerList})
	if err != nil {
		return 0, fmt.Errorf("fetch players: %w", err)
	}
	var rows []PlayerRow
	for _, rec := range recs {
		if row, ok := normalizePlayer(rec); ok {
			rows = append(rows, row)
		}
	}
	return l.upsert(ctx, rawstore.Players, values(rows))
}

// LoadMatches ingests the unscoped match list in one bulk request.
func (l *Loader) LoadMatches(ctx context.Context) (int64, error) {
	return l.loadMatches(ctx, vis.Request{Type: vis.GetBeachMatchList}, 0)
}

// LoadMatchesForTournament ingests one tournament's matches, capped at limit
// rows when positive.
func (l *Loader) LoadMatchesForTournament(ctx context.Context, tournamentID int64, limit int) (int64, error) {
	return l.loadMatches(ctx, vis.Request{
		Type:   vis.GetBeachMatchList,
		Filter: fmt.Sprintf("NoTournament='%d'", tournamentID),
	}, limit)
}

func (l *Loader) loadMatches(ctx context.Context, req vis.Request, limit int) (int64, error) {
	recs, err := l.Client.Fetch(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("fetch matches: %w", err)
	}
	var rows []MatchRow
	for _, rec := range recs {
		if row, ok := normalizeMatch(rec); ok {
			rows = append(rows, row)
		}
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return l.upsert(ctx, rawstore.Matches, values(rows))
}

// LoadResultsForTournament ingests one tournament's final ranking. Phases
// are fetched separately and merged by team so a team appearing in both the
// qualification and the main draw keeps its main-draw placement; a single
// statement must not touch the same key twice.
func (l *Loader) LoadResultsForTournament(ctx context.Context, tournamentID int64, limit int) (int64, error) {
	byTeam := make(map[int64]ResultRow)
	var order []int64
	for _, phase := range resultPhases {
		req := vis.Request{Type: vis.GetBeachTournamentRanking, No: tournamentID}
		if phase != "" {
			req.Params = map[string]string{"Phase": phase}
		}
		recs, err := l.Client.Fetch(ctx, req)
		if err != nil {
			return 0, fmt.Errorf("fetch results (phase %q): %w", phase, err)
		}
		for _, rec := range recs {
			row, ok := normalizeResult(tournamentID, rec)
			if !ok {
				continue
			}
			if _, seen := byTeam[row.TeamID]; !seen {
				order = append(order, row.TeamID)
			}
			byTeam[row.TeamID] = row
		}
	}
	rows := make([]ResultRow, 0, len(order))
	for _, team := range order {
		rows = append(rows, byTeam[team])
	}
	if limit > 0 && len(rows) > limit {
		rows = rows[:limit]
	}
	return l.upsert(ctx, rawstore.Results, values(rows))
}

// LoadRoundsForTournament ingests one tournament's rounds and returns them
// so the caller can follow up with round rankings for pool rounds.
func (l *Loader) LoadRoundsForTournament(ctx context.Context, tournamentID int64) ([]RoundRow, error) {
	recs, err := l.Client.Fetch(ctx, vis.Request{
		Type:   vis.GetBeachRoundList,
		Filter: fmt.Sprintf("NoTournament='%d'", tournamentID),
	})
	if err != nil {
		return nil, fmt.Errorf("fetch rounds: %w", err)
	}
	var rows []RoundRow
	for _, rec := range recs {
		if row, ok := normalizeRound(rec); ok {
			rows = append(rows, row)
		}
	}
	if _, err := l.upsert(ctx, rawstore.Rounds, values(rows)); err != nil {
		return nil, err
	}
	return rows, nil
}

// LoadRoundRanking ingests the standings of one round. Non-pool rounds are
// skipped: their ranking endpoint answers with placeholder data.
func (l *Loader) LoadRoundRanking(ctx context.Context, round RoundRow) (int64, error) {
	if !round.IsPool() {
		return 0, nil
	}
	recs, err := l.Client.Fetch(ctx, vis.Request{Type: vis.GetBeachRoundRanking, No: round.RoundID})
	if err != nil {
		return 0, fmt.Errorf("fetch round ranking %d: %w", round.RoundID, err)
	}
	var rows []RoundRankingRow
	for _, rec := range recs {
		if row, ok := normalizeRoundRanking(round.RoundID, rec); ok {
			rows = append(rows, row)
		}
	}
	return l.upsert(ctx, rawstore.RoundRankings, values(rows))
}

// LoadTeamRankings snapshots the world tour and olympic selection rankings
// for both genders as of snapshot date. A single partition failing is logged
// and skipped; the snapshot only fails when no partition could be fetched.
func (l *Loader) LoadTeamRankings(ctx context.Context, snapshotDate time.Time) (int64, error) {
	partitions := []struct {
		rankingType string
		reqType     vis.RequestType
		gender      string
	}{
		{RankingWorldTour, vis.GetBeachWorldTourRanking, "M"},
		{RankingWorldTour, vis.GetBeachWorldTourRanking, "W"},
		{RankingOlympic, vis.GetBeachOlympicSelectionRanking, "M"},
		{RankingOlympic, vis.GetBeachOlympicSelectionRanking, "W"},
	}

	var total int64
	fetched := 0
	var lastErr error
	for _, p := range partitions {
		recs, err := l.Client.Fetch(ctx, vis.Request{
			Type:   p.reqType,
			Params: map[string]string{"Gender": p.gender},
		})
		if err != nil {
			lastErr = err
			l.log().WithFields(logrus.Fields{
				"ranking": p.rankingType,
				"gender":  p.gender,
			}).WithError(err).Warn("ranking partition skipped")
			continue
		}
		fetched++
		key := SnapshotKey{Date: snapshotDate, Gender: p.gender}
		var rows []TeamRankingRow
		for _, rec := range recs {
			if row, ok := normalizeTeamRanking(p.rankingType, key, rec); ok {
				rows = append(rows, row)
			}
		}
		n, err := l.upsert(ctx, rawstore.TeamRankings, values(rows))
		if err != nil {
			return total, err
		}
		total += n
	}
	if fetched == 0 && lastErr != nil {
		return 0, fmt.Errorf("fetch team rankings: %w", lastErr)
	}
	return total, nil
}
