// Package pipeline runs a full incremental load: shared entities first, in
// strict order, then a per-tournament fan-out whose failures are isolated,
// then ranking snapshots.
package pipeline

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/sirupsen/logrus"

	"visetl/internal/loader"
	"visetl/internal/metrics"
	"visetl/internal/rawstore"
)

// Tournaments before this year are listed but not expanded: the feed's
// per-tournament endpoints answer with junk or nothing for the early years.
const defaultExpandFromYear = 2015

// Options tunes one run. Zero values mean "no limit" and "sequential".
type Options struct {
	// Season filters the tournament list, e.g. "2025". Empty loads all.
	Season string

	// TruncateRaw clears every raw table before loading.
	TruncateRaw bool

	LimitTournaments     int
	LimitMatchesPerTourn int
	LimitResultsPerTourn int

	// Parallel fans the per-tournament phase out over MaxWorkers workers.
	// MaxWorkers < 2 degrades to a sequential pass.
	Parallel   bool
	MaxWorkers int

	// ExpandFromYear overrides the expansion cutoff. Zero keeps the default.
	ExpandFromYear int
}

// Report is what a run did. Counts are rows written, not rows fetched.
type Report struct {
	Events       int64
	Tournaments  int
	Teams        int64
	Players      int64
	Matches      int64
	Results      int64
	Rounds       int64
	RoundRanking int64
	TeamRanking  int64

	// Expanded is how many tournaments entered the per-tournament phase.
	Expanded int
	// FailedTournaments lists tournaments whose expansion failed. The run
	// still succeeds unless every expansion failed.
	FailedTournaments []int64

	Elapsed time.Duration
}

// Runner wires the loader, the store and the run options together.
type Runner struct {
	Loader *loader.Loader
	Store  rawstore.Store
	Log    *logrus.Logger
	Opts   Options
}

func (r *Runner) log() *logrus.Logger {
	if r.Log != nil {
		return r.Log
	}
	return logrus.StandardLogger()
}

// tournamentOutcome carries one tournament's expansion result out of the
// pool. Errors ride along instead of failing the group so one bad
// tournament never cancels its siblings.
type tournamentOutcome struct {
	tournamentID int64
	matches      int64
	results      int64
	rounds       int64
	roundRanking int64
	err          error
}

// Run executes the phases in order. A failure in any shared phase aborts
// the run; per-tournament failures are collected in the report instead.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	start := time.Now()
	report := &Report{}

	if err := r.Store.EnsureTables(ctx, rawstore.AllTables()); err != nil {
		return nil, fmt.Errorf("ensure tables: %w", err)
	}
	if r.Opts.TruncateRaw {
		r.log().Warn("truncating raw tables before load")
		if err := r.Store.Truncate(ctx, rawstore.AllTables()); err != nil {
			return nil, fmt.Errorf("truncate: %w", err)
		}
	}

	var tournaments []loader.TournamentRow

	phases := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"events", func(ctx context.Context) error {
			n, err := r.Loader.LoadEvents(ctx)
			report.Events = n
			return err
		}},
		{"tournaments", func(ctx context.Context) error {
			rows, err := r.Loader.LoadTournaments(ctx, r.Opts.Season, r.Opts.LimitTournaments)
			tournaments = rows
			report.Tournaments = len(rows)
			return err
		}},
		{"teams", func(ctx context.Context) error {
			n, err := r.Loader.LoadTeams(ctx)
			report.Teams = n
			return err
		}},
		{"players", func(ctx context.Context) error {
			n, err := r.Loader.LoadPlayers(ctx)
			report.Players = n
			return err
		}},
		{"matches", func(ctx context.Context) error {
			// With a per-tournament cap the bulk fetch would upsert
			// everything anyway; matches load scoped during expansion.
			if r.Opts.LimitMatchesPerTourn > 0 {
				r.log().Info("per-tournament match cap set, skipping bulk matches")
				return nil
			}
			n, err := r.Loader.LoadMatches(ctx)
			report.Matches = n
			return err
		}},
	}
	for _, p := range phases {
		if err := r.runPhase(ctx, p.name, p.fn); err != nil {
			return report, err
		}
	}

	if err := r.runPhase(ctx, "tournament_details", func(ctx context.Context) error {
		return r.expandTournaments(ctx, tournaments, report)
	}); err != nil {
		return report, err
	}

	if err := r.runPhase(ctx, "team_rankings", func(ctx context.Context) error {
		n, err := r.Loader.LoadTeamRankings(ctx, time.Now().UTC().Truncate(24*time.Hour))
		report.TeamRanking = n
		return err
	}); err != nil {
		return report, err
	}

	report.Elapsed = time.Since(start)
	if err := r.verify(report); err != nil {
		return report, err
	}
	r.log().WithFields(logrus.Fields{
		"tournaments": report.Tournaments,
		"matches":     report.Matches,
		"failed":      len(report.FailedTournaments),
		"elapsed":     report.Elapsed.Round(time.Millisecond),
	}).Info("load finished")
	return report, nil
}

func (r *Runner) runPhase(ctx context.Context, name string, fn func(context.Context) error) error {
	log := r.log().WithField("phase", name)
	log.Info("phase start")
	start := time.Now()
	err := fn(ctx)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.IncCounter(metrics.PhaseTotal, 1, metrics.Labels{"phase": name, "status": status})
	metrics.ObserveHistogram(metrics.PhaseDurationSeconds, elapsed.Seconds(), metrics.Labels{"phase": name})

	if err != nil {
		log.WithError(err).WithField("elapsed", elapsed.Round(time.Millisecond)).Error("phase failed")
		return fmt.Errorf("phase %s: %w", name, err)
	}
	log.WithField("elapsed", elapsed.Round(time.Millisecond)).Info("phase done")
	return nil
}

// expandTournaments loads results, rounds and pool-round rankings for every
// tournament recent enough to expand. When a per-tournament match cap is
// set, the bulk match phase is skipped and matches load here, scoped, so
// the cap applies per tournament.
func (r *Runner) expandTournaments(ctx context.Context, tournaments []loader.TournamentRow, report *Report) error {
	cutoff := r.Opts.ExpandFromYear
	if cutoff == 0 {
		cutoff = defaultExpandFromYear
	}

	// Skip only when the year is known and predates the cutoff; odd feed
	// rows with no derivable year get expanded rather than silently lost.
	var targets []loader.TournamentRow
	for _, t := range tournaments {
		if year, ok := t.Year(); ok && year < cutoff {
			continue
		}
		targets = append(targets, t)
	}
	report.Expanded = len(targets)
	if len(targets) == 0 {
		return nil
	}

	var outcomes []tournamentOutcome
	if r.Opts.Parallel && r.Opts.MaxWorkers > 1 {
		pool := pond.NewResultPool[tournamentOutcome](r.Opts.MaxWorkers)
		defer pool.StopAndWait()
		group := pool.NewGroupContext(ctx)
		for _, t := range targets {
			t := t
			group.SubmitErr(func() (tournamentOutcome, error) {
				return r.expandOne(ctx, t), nil
			})
		}
		results, err := group.Wait()
		if err != nil {
			return fmt.Errorf("expansion pool: %w", err)
		}
		outcomes = results
	} else {
		for _, t := range targets {
			outcomes = append(outcomes, r.expandOne(ctx, t))
		}
	}

	failed := 0
	for _, o := range outcomes {
		if o.err != nil {
			failed++
			report.FailedTournaments = append(report.FailedTournaments, o.tournamentID)
			metrics.IncCounter(metrics.TournamentsFailed, 1, nil)
			r.log().WithField("tournament", o.tournamentID).WithError(o.err).Warn("tournament expansion failed")
			continue
		}
		report.Matches += o.matches
		report.Results += o.results
		report.Rounds += o.rounds
		report.RoundRanking += o.roundRanking
	}
	sort.Slice(report.FailedTournaments, func(i, j int) bool {
		return report.FailedTournaments[i] < report.FailedTournaments[j]
	})
	if failed == len(outcomes) {
		return fmt.Errorf("all %d tournament expansions failed", failed)
	}
	return nil
}

func (r *Runner) expandOne(ctx context.Context, t loader.TournamentRow) tournamentOutcome {
	out := tournamentOutcome{tournamentID: t.TournamentID}

	if r.Opts.LimitMatchesPerTourn > 0 {
		n, err := r.Loader.LoadMatchesForTournament(ctx, t.TournamentID, r.Opts.LimitMatchesPerTourn)
		if err != nil {
			out.err = fmt.Errorf("matches: %w", err)
			return out
		}
		out.matches = n
	}

	n, err := r.Loader.LoadResultsForTournament(ctx, t.TournamentID, r.Opts.LimitResultsPerTourn)
	if err != nil {
		out.err = fmt.Errorf("results: %w", err)
		return out
	}
	out.results = n

	rounds, err := r.Loader.LoadRoundsForTournament(ctx, t.TournamentID)
	if err != nil {
		out.err = fmt.Errorf("rounds: %w", err)
		return out
	}
	out.rounds = int64(len(rounds))

	for _, round := range rounds {
		n, err := r.Loader.LoadRoundRanking(ctx, round)
		if err != nil {
			out.err = fmt.Errorf("round %d ranking: %w", round.RoundID, err)
			return out
		}
		out.roundRanking += n
	}
	return out
}

// verify rejects a run that technically finished but ingested nothing
// useful. A stale feed looks exactly like a bug; both should be loud.
func (r *Runner) verify(report *Report) error {
	if report.Tournaments == 0 {
		return fmt.Errorf("verification: no tournaments ingested")
	}
	if report.Teams == 0 {
		return fmt.Errorf("verification: no teams ingested")
	}
	if report.Matches == 0 {
		return fmt.Errorf("verification: no matches ingested")
	}
	return nil
}
