// The raw-table layout lives here, in one reviewable structure, so the
// loaders and every backend agree on names, column order, and keys without
// circular imports.
package rawstore

// TableSpec describes one raw table: the first-landing copy of fetched
// entity data, keyed by the remote system's identifiers.
//
// Columns deliberately exclude ingested_at; every backend appends it and
// refreshes it on each write.
type TableSpec struct {
	// Name is the bare table name. Backends qualify it with the raw
	// namespace ("raw" schema where the engine supports schemas).
	Name    string
	Columns []ColumnSpec
	// Key lists the primary-key column names, in constraint order.
	Key []string
}

// ColumnSpec declares a column with a portable type. Backends map the type
// to their own dialect ("text" becomes NVARCHAR on MSSQL, dates become TEXT
// affinity on SQLite, and so on).
type ColumnSpec struct {
	Name string
	Type string // bigint | integer | text | date | timestamptz | numeric | boolean
}

// ColumnNames returns the column names in declaration order.
func (t TableSpec) ColumnNames() []string {
	out := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		out[i] = c.Name
	}
	return out
}

// IsKey reports whether name is part of the table's primary key.
func (t TableSpec) IsKey(name string) bool {
	for _, k := range t.Key {
		if k == name {
			return true
		}
	}
	return false
}

var (
	Events = TableSpec{
		Name: "raw_events",
		Columns: []ColumnSpec{
			{Name: "event_id", Type: "bigint"},
			{Name: "code", Type: "text"},
			{Name: "name", Type: "text"},
			{Name: "start_date", Type: "date"},
			{Name: "end_date", Type: "date"},
			{Name: "type", Type: "text"},
			{Name: "no_parent_event", Type: "bigint"},
			{Name: "country_code", Type: "text"},
			{Name: "has_beach_tournament", Type: "boolean"},
			{Name: "has_men_tournament", Type: "boolean"},
			{Name: "has_women_tournament", Type: "boolean"},
			{Name: "is_vis_managed", Type: "boolean"},
		},
		Key: []string{"event_id"},
	}

	Tournaments = TableSpec{
		Name: "raw_tournaments",
		Columns: []ColumnSpec{
			{Name: "tournament_id", Type: "bigint"},
			{Name: "name", Type: "text"},
			{Name: "season", Type: "text"},
			{Name: "tier", Type: "text"},
			{Name: "start_date", Type: "date"},
			{Name: "end_date", Type: "date"},
			{Name: "city", Type: "text"},
			{Name: "country_code", Type: "text"},
			{Name: "country_name", Type: "text"},
			{Name: "gender", Type: "text"},
			{Name: "status", Type: "text"},
			{Name: "timezone", Type: "text"},
		},
		Key: []string{"tournament_id"},
	}

	Teams = TableSpec{
		Name: "raw_teams",
		Columns: []ColumnSpec{
			{Name: "team_id", Type: "bigint"},
			{Name: "tournament_id", Type: "bigint"},
			{Name: "player_a_id", Type: "bigint"},
			{Name: "player_b_id", Type: "bigint"},
			{Name: "country_code", Type: "text"},
			{Name: "status", Type: "text"},
			{Name: "valid_from", Type: "date"},
			{Name: "valid_to", Type: "date"},
		},
		Key: []string{"team_id"},
	}

	Players = TableSpec{
		Name: "raw_players",
		Columns: []ColumnSpec{
			{Name: "player_id", Type: "bigint"},
			{Name: "first_name", Type: "text"},
			{Name: "last_name", Type: "text"},
			{Name: "full_name", Type: "text"},
			{Name: "gender", Type: "text"},
			{Name: "birth_date", Type: "date"},
			{Name: "height_cm", Type: "integer"},
			{Name: "country_code", Type: "text"},
			{Name: "profile_url", Type: "text"},
		},
		Key: []string{"player_id"},
	}

	Matches = TableSpec{
		Name: "raw_matches",
		Columns: []ColumnSpec{
			{Name: "match_id", Type: "bigint"},
			{Name: "tournament_id", Type: "bigint"},
			{Name: "phase", Type: "text"},
			{Name: "round_code", Type: "text"},
			{Name: "team_a_id", Type: "bigint"},
			{Name: "team_b_id", Type: "bigint"},
			{Name: "winner_team_id", Type: "bigint"},
			{Name: "score_sets", Type: "text"},
			{Name: "duration_minutes", Type: "integer"},
			{Name: "played_at", Type: "timestamptz"},
			{Name: "result_type", Type: "text"},
			{Name: "status", Type: "text"},
		},
		Key: []string{"match_id"},
	}

	Results = TableSpec{
		Name: "raw_results",
		Columns: []ColumnSpec{
			{Name: "tournament_id", Type: "bigint"},
			{Name: "team_id", Type: "bigint"},
			{Name: "finishing_pos", Type: "integer"},
			{Name: "points", Type: "integer"},
			{Name: "prize_money", Type: "numeric"},
		},
		Key: []string{"tournament_id", "team_id"},
	}

	Rounds = TableSpec{
		Name: "raw_rounds",
		Columns: []ColumnSpec{
			{Name: "round_id", Type: "bigint"},
			{Name: "tournament_id", Type: "bigint"},
			{Name: "code", Type: "text"},
			{Name: "name", Type: "text"},
			{Name: "bracket", Type: "text"},
			{Name: "phase", Type: "text"},
			{Name: "start_date", Type: "date"},
			{Name: "end_date", Type: "date"},
			{Name: "rank_method", Type: "text"},
		},
		Key: []string{"round_id"},
	}

	RoundRankings = TableSpec{
		Name: "raw_round_rankings",
		Columns: []ColumnSpec{
			{Name: "round_id", Type: "bigint"},
			{Name: "position", Type: "integer"},
			{Name: "rank", Type: "integer"},
			{Name: "team_federation_code", Type: "text"},
			{Name: "team_name", Type: "text"},
			{Name: "match_points", Type: "integer"},
			{Name: "matches_won", Type: "integer"},
			{Name: "matches_lost", Type: "integer"},
		},
		Key: []string{"round_id", "position"},
	}

	// TeamRankings holds ranking snapshots. Ranking types (world tour,
	// olympic selection) share the table but never a key partition: the
	// ranking_type column leads the primary key.
	TeamRankings = TableSpec{
		Name: "raw_team_rankings",
		Columns: []ColumnSpec{
			{Name: "ranking_type", Type: "text"},
			{Name: "snapshot_date", Type: "date"},
			{Name: "gender", Type: "text"},
			{Name: "player_a_id", Type: "bigint"},
			{Name: "player_b_id", Type: "bigint"},
			{Name: "position", Type: "integer"},
			{Name: "team_name", Type: "text"},
			{Name: "earned_points", Type: "integer"},
		},
		Key: []string{"ranking_type", "snapshot_date", "gender", "player_a_id"},
	}
)

// AllTables lists every raw table, in an order safe for truncation
// (dependents first; raw tables carry no foreign keys, so the order only
// matters for readability of reports).
func AllTables() []TableSpec {
	return []TableSpec{
		Results,
		RoundRankings,
		TeamRankings,
		Rounds,
		Matches,
		Teams,
		Players,
		Tournaments,
		Events,
	}
}
