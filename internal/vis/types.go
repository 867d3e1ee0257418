package vis

// RequestType names one of the VIS web service request types this client
// supports.
type RequestType string

const (
	GetEventList                    RequestType = "GetEventList"
	GetEvent                        RequestType = "GetEvent"
	GetBeachTournamentList          RequestType = "GetBeachTournamentList"
	GetBeachTournament              RequestType = "GetBeachTournament"
	GetBeachTeamList                RequestType = "GetBeachTeamList"
	GetBeachTeam                    RequestType = "GetBeachTeam"
	GetBeachMatchList               RequestType = "GetBeachMatchList"
	GetBeachMatch                   RequestType = "GetBeachMatch"
	GetBeachTournamentRanking       RequestType = "GetBeachTournamentRanking"
	GetBeachRoundList               RequestType = "GetBeachRoundList"
	GetBeachRound                   RequestType = "GetBeachRound"
	GetBeachRoundRanking            RequestType = "GetBeachRoundRanking"
	GetPlayerList                   RequestType = "GetPlayerList"
	GetPlayer                       RequestType = "GetPlayer"
	GetBeachWorldTourRanking        RequestType = "GetBeachWorldTourRanking"
	GetBeachOlympicSelectionRanking RequestType = "GetBeachOlympicSelectionRanking"
)

// filterStyle selects how a filter is serialized into the request body. The
// styles are not interchangeable: the service rejects an attribute filter on
// a type that expects a child element, and vice versa.
type filterStyle int

const (
	// filterAttribute renders the filter as a single Filter="..." attribute
	// holding a VIS filter expression (e.g. Filter="NoTournament='502'").
	filterAttribute filterStyle = iota
	// filterElement renders the filter as a nested <Filter .../> child
	// element whose keys become attributes.
	filterElement
)

// requestSpec is the static per-type description the client consults instead
// of branching ad hoc: wrapping convention, filter style, default field set,
// response node name, and whether the service can answer in JSON.
type requestSpec struct {
	// Legacy requests must be wrapped in a <Requests> envelope or the
	// service rejects them. This is a property of the type, never inferred
	// from the response.
	Legacy bool
	Filter filterStyle
	// XMLOnly types answer "NotInJson" when JSON is requested.
	XMLOnly bool
	// Node is the repeated response element holding one record.
	Node string
	// Fields is the canonical default field set, mirroring the remote
	// schema. Space-separated per the VIS convention.
	Fields string
}

// requestSpecs is the full table of supported request types.
var requestSpecs = map[RequestType]requestSpec{
	GetEventList: {
		Filter: filterElement,
		Node:   "Event",
		Fields: "No Code Name StartDate EndDate Type NoParentEvent CountryCode HasBeachTournament HasMenTournament HasWomenTournament IsVisManaged",
	},
	GetEvent: {
		Filter: filterAttribute,
		Node:   "Event",
		Fields: "No Code Name StartDate EndDate Type NoParentEvent CountryCode HasBeachTournament HasMenTournament HasWomenTournament IsVisManaged",
	},
	GetBeachTournamentList: {
		Filter: filterAttribute,
		Node:   "BeachTournament",
		Fields: "No Name CountryCode CountryName City StartDate EndDate Season Gender Type Status Timezone",
	},
	GetBeachTournament: {
		Filter: filterAttribute,
		Node:   "BeachTournament",
		Fields: "No Name CountryCode CountryName City StartDate EndDate Season Gender Type Status Timezone",
	},
	GetBeachTeamList: {
		Filter: filterAttribute,
		Node:   "BeachTeam",
		Fields: "No NoTournament NoPlayer1 NoPlayer2 CountryCode Status ValidFrom ValidTo",
	},
	GetBeachTeam: {
		Filter: filterAttribute,
		Node:   "BeachTeam",
		Fields: "No NoTournament NoPlayer1 NoPlayer2 CountryCode Status ValidFrom ValidTo",
	},
	GetBeachMatchList: {
		Filter: filterAttribute,
		Node:   "BeachMatch",
		Fields: "No NoTournament Phase NoRound RoundCode NoTeamA NoTeamB MatchPointsA MatchPointsB DurationSet1 DurationSet2 DurationSet3 BeginDateTimeUtc DateTimeLocal ResultType Status",
	},
	GetBeachMatch: {
		Filter: filterAttribute,
		Node:   "BeachMatch",
		Fields: "No NoTournament Phase NoRound RoundCode NoTeamA NoTeamB MatchPointsA MatchPointsB DurationSet1 DurationSet2 DurationSet3 BeginDateTimeUtc DateTimeLocal ResultType Status",
	},
	GetBeachTournamentRanking: {
		Legacy:  true,
		XMLOnly: true,
		Filter:  filterAttribute,
		Node:    "BeachTournamentRankingEntry",
		Fields:  "Rank Position NoTeam Points PrizeMoney",
	},
	GetBeachRoundList: {
		Filter: filterAttribute,
		Node:   "BeachRound",
		Fields: "No NoTournament Code Name Bracket Phase StartDate EndDate RankMethod",
	},
	GetBeachRound: {
		Filter: filterAttribute,
		Node:   "BeachRound",
		Fields: "No NoTournament Code Name Bracket Phase StartDate EndDate RankMethod",
	},
	GetBeachRoundRanking: {
		Legacy:  true,
		XMLOnly: true,
		Filter:  filterAttribute,
		Node:    "BeachRoundRankingEntry",
		Fields:  "Position Rank TeamFederationCode TeamName MatchPoints MatchesWon MatchesLost",
	},
	GetPlayerList: {
		Filter: filterAttribute,
		Node:   "Player",
		Fields: "No FirstName LastName BirthDate Height CountryCode Gender",
	},
	GetPlayer: {
		Filter: filterAttribute,
		Node:   "Player",
		Fields: "No FirstName LastName BirthDate Height CountryCode Gender",
	},
	GetBeachWorldTourRanking: {
		Legacy:  true,
		XMLOnly: true,
		Filter:  filterAttribute,
		Node:    "BeachWorldTourRankingEntry",
		Fields:  "Position NoPlayer1 NoPlayer2 TeamName EarnedPointsTeam",
	},
	GetBeachOlympicSelectionRanking: {
		Legacy:  true,
		XMLOnly: true,
		Filter:  filterAttribute,
		Node:    "BeachOlympicSelectionRankingEntry",
		Fields:  "Position NoPlayer1 NoPlayer2 TeamName Points",
	},
}

// Spec returns the static spec for a request type and whether the type is
// supported.
func Spec(rt RequestType) (requestSpec, bool) {
	s, ok := requestSpecs[rt]
	return s, ok
}
