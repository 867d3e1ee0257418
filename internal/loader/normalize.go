package loader

import (
	"fmt"

	"visetl/internal/vis"
)

// Normalizers turn one VIS record into one typed row. A record without its
// primary key reports !ok and is dropped by the caller; everything else is
// kept with NULLs where the feed left gaps.

func normalizeEvent(rec vis.Record) (EventRow, bool) {
	no, ok := rec.Int64("No")
	if !ok {
		return EventRow{}, false
	}
	return EventRow{
		EventID:            no,
		Code:               strPtr(rec, "Code"),
		Name:               strPtr(rec, "Name"),
		StartDate:          datePtr(rec, "StartDate"),
		EndDate:            datePtr(rec, "EndDate"),
		Type:               strPtr(rec, "Type"),
		NoParentEvent:      int64Ptr(rec, "NoParentEvent"),
		CountryCode:        strPtr(rec, "CountryCode"),
		HasBeachTournament: rec.Bool("HasBeachTournament"),
		HasMenTournament:   rec.Bool("HasMenTournament"),
		HasWomenTournament: rec.Bool("HasWomenTournament"),
		IsVisManaged:       rec.Bool("IsVisManaged"),
	}, true
}

func normalizeTournament(rec vis.Record) (TournamentRow, bool) {
	no, ok := rec.Int64("No")
	if !ok {
		return TournamentRow{}, false
	}
	return TournamentRow{
		TournamentID: no,
		Name:         strPtr(rec, "Name"),
		Season:       strPtr(rec, "Season"),
		Tier:         strPtr(rec, "Type"),
		StartDate:    datePtr(rec, "StartDate"),
		EndDate:      datePtr(rec, "EndDate"),
		City:         strPtr(rec, "City"),
		CountryCode:  strPtr(rec, "CountryCode"),
		CountryName:  strPtr(rec, "CountryName"),
		Gender:       strPtr(rec, "Gender"),
		Status:       strPtr(rec, "Status"),
		Timezone:     strPtr(rec, "Timezone"),
	}, true
}

func normalizeTeam(rec vis.Record) (TeamRow, bool) {
	no, ok := rec.Int64("No")
	if !ok {
		return TeamRow{}, false
	}
	tournament, ok := rec.Int64("NoTournament")
	if !ok {
		// A team divorced from its tournament is unusable downstream.
		return TeamRow{}, false
	}
	return TeamRow{
		TeamID:       no,
		TournamentID: tournament,
		PlayerAID:    int64Ptr(rec, "NoPlayer1"),
		PlayerBID:    int64Ptr(rec, "NoPlayer2"),
		CountryCode:  strPtr(rec, "CountryCode"),
		Status:       strPtr(rec, "Status"),
		ValidFrom:    datePtr(rec, "ValidFrom"),
		ValidTo:      datePtr(rec, "ValidTo"),
	}, true
}

func normalizePlayer(rec vis.Record) (PlayerRow, bool) {
	no, ok := rec.Int64("No")
	if !ok {
		return PlayerRow{}, false
	}
	row := PlayerRow{
		PlayerID:    no,
		FirstName:   strPtr(rec, "FirstName"),
		LastName:    strPtr(rec, "LastName"),
		Gender:      strPtr(rec, "Gender"),
		BirthDate:   datePtr(rec, "BirthDate"),
		HeightCm:    normalizeHeight(rec),
		CountryCode: strPtr(rec, "CountryCode"),
	}
	if full := fullName(row.FirstName, row.LastName); full != "" {
		row.FullName = &full
	}
	url := fmt.Sprintf("https://www.fivb.com/en/beachvolleyball/players/%d", no)
	row.ProfileURL = &url
	return row, true
}

// normalizeHeight decodes the feed's height field, which arrives either as
// centimeters or as a fixed-point encoding (185 cm sent as 1850000). Values
// that fit neither shape become NULL rather than a bogus measurement.
func normalizeHeight(rec vis.Record) *int {
	h, ok := rec.Int("Height")
	if !ok || h <= 0 {
		return nil
	}
	if h >= 10000 {
		h = h / 10000
	}
	if h < 100 || h >= 500 {
		return nil
	}
	return &h
}

func fullName(first, last *string) string {
	switch {
	case first != nil && last != nil:
		return *first + " " + *last
	case first != nil:
		return *first
	case last != nil:
		return *last
	}
	return ""
}

func normalizeMatch(rec vis.Record) (MatchRow, bool) {
	no, ok := rec.Int64("No")
	if !ok {
		return MatchRow{}, false
	}
	tournament, ok := rec.Int64("NoTournament")
	if !ok {
		return MatchRow{}, false
	}
	row := MatchRow{
		MatchID:         no,
		TournamentID:    tournament,
		Phase:           strPtr(rec, "Phase"),
		RoundCode:       strPtr(rec, "RoundCode"),
		TeamAID:         int64Ptr(rec, "NoTeamA"),
		TeamBID:         int64Ptr(rec, "NoTeamB"),
		ScoreSets:       scoreSets(rec),
		DurationMinutes: durationMinutes(rec),
		ResultType:      strPtr(rec, "ResultType"),
		Status:          strPtr(rec, "Status"),
	}
	row.WinnerTeamID = winnerTeam(rec, row.TeamAID, row.TeamBID)
	if s := rec.String("BeginDateTimeUtc"); s != "" {
		row.PlayedAt = &s
	} else if s := rec.String("DateTimeLocal"); s != "" {
		row.PlayedAt = &s
	}
	return row, true
}

// winnerTeam derives the winner from set scores. A tie or missing scores
// means no winner yet: live, scheduled or forfeited matches stay NULL.
func winnerTeam(rec vis.Record, teamA, teamB *int64) *int64 {
	a, okA := rec.Int("MatchPointsA")
	b, okB := rec.Int("MatchPointsB")
	if !okA || !okB {
		return nil
	}
	switch {
	case a > b:
		return teamA
	case b > a:
		return teamB
	}
	return nil
}

func scoreSets(rec vis.Record) *string {
	a, okA := rec.Int("MatchPointsA")
	b, okB := rec.Int("MatchPointsB")
	if !okA || !okB {
		return nil
	}
	s := fmt.Sprintf("%d-%d", a, b)
	return &s
}

// durationMinutes sums the per-set durations, reported in seconds, and
// rounds down to whole minutes. No sets played means NULL.
func durationMinutes(rec vis.Record) *int {
	total := 0
	seen := false
	for _, key := range [...]string{"DurationSet1", "DurationSet2", "DurationSet3"} {
		if d, ok := rec.Int(key); ok && d > 0 {
			total += d
			seen = true
		}
	}
	if !seen {
		return nil
	}
	m := total / 60
	return &m
}

func normalizeResult(tournamentID int64, rec vis.Record) (ResultRow, bool) {
	team, ok := rec.Int64("NoTeam")
	if !ok {
		return ResultRow{}, false
	}
	row := ResultRow{
		TournamentID: tournamentID,
		TeamID:       team,
		Points:       intPtr(rec, "Points"),
	}
	if pos, ok := rec.Int("Rank"); ok {
		row.FinishingPos = &pos
	} else if pos, ok := rec.Int("Position"); ok {
		row.FinishingPos = &pos
	}
	if d, ok := rec.Decimal("PrizeMoney"); ok {
		row.PrizeMoney = &d
	}
	return row, true
}

func normalizeRound(rec vis.Record) (RoundRow, bool) {
	no, ok := rec.Int64("No")
	if !ok {
		return RoundRow{}, false
	}
	return RoundRow{
		RoundID:      no,
		TournamentID: int64Ptr(rec, "NoTournament"),
		Code:         strPtr(rec, "Code"),
		Name:         strPtr(rec, "Name"),
		Bracket:      strPtr(rec, "Bracket"),
		Phase:        strPtr(rec, "Phase"),
		StartDate:    datePtr(rec, "StartDate"),
		EndDate:      datePtr(rec, "EndDate"),
		RankMethod:   strPtr(rec, "RankMethod"),
	}, true
}

func normalizeRoundRanking(roundID int64, rec vis.Record) (RoundRankingRow, bool) {
	pos, ok := rec.Int("Position")
	if !ok {
		return RoundRankingRow{}, false
	}
	return RoundRankingRow{
		RoundID:            roundID,
		Position:           pos,
		Rank:               intPtr(rec, "Rank"),
		TeamFederationCode: strPtr(rec, "TeamFederationCode"),
		TeamName:           strPtr(rec, "TeamName"),
		MatchPoints:        intPtr(rec, "MatchPoints"),
		MatchesWon:         intPtr(rec, "MatchesWon"),
		MatchesLost:        intPtr(rec, "MatchesLost"),
	}, true
}

func normalizeTeamRanking(rankingType string, snapshot SnapshotKey, rec vis.Record) (TeamRankingRow, bool) {
	playerA, ok := rec.Int64("NoPlayer1")
	if !ok {
		return TeamRankingRow{}, false
	}
	row := TeamRankingRow{
		RankingType:  rankingType,
		SnapshotDate: snapshot.Date,
		Gender:       snapshot.Gender,
		PlayerAID:    playerA,
		PlayerBID:    int64Ptr(rec, "NoPlayer2"),
		Position:     intPtr(rec, "Position"),
		TeamName:     strPtr(rec, "TeamName"),
	}
	if p, ok := rec.Int("EarnedPointsTeam"); ok {
		row.EarnedPoints = &p
	} else if p, ok := rec.Int("Points"); ok {
		row.EarnedPoints = &p
	}
	return row, true
}
