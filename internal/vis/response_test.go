package vis

import (
	"errors"
	"testing"
)

func mustSpec(t *testing.T, rt RequestType) requestSpec {
	t.Helper()
	spec, ok := Spec(rt)
	if !ok {
		t.Fatalf("no spec for %s", rt)
	}
	return spec
}

func TestParseResponse_JSONArrayNormalizesKeys(t *testing.T) {
	t.Parallel()

	body := []byte(`[{"no": 502, "name": "Gstaad", "countryCode": "SUI"}]`)
	recs, err := parseResponse("application/json; charset=utf-8", body, mustSpec(t, GetBeachTournamentList))
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if n, ok := recs[0].Int64("No"); !ok || n != 502 {
		t.Fatalf("No = %d, %v", n, ok)
	}
	if got := recs[0].String("CountryCode"); got != "SUI" {
		t.Fatalf("CountryCode = %q", got)
	}
}

func TestParseResponse_JSONDataWrapper(t *testing.T) {
	t.Parallel()

	body := []byte(`{"data": [{"no": 1}, {"no": 2}]}`)
	recs, err := parseResponse("application/json", body, mustSpec(t, GetBeachTeamList))
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
}

func TestParseResponse_XMLAttributes(t *testing.T) {
	t.Parallel()

	body := []byte(`<BeachMatchList NrOfMatches="2">
		<BeachMatch No="11" NoTournament="502" MatchPointsA="2" MatchPointsB="1" />
		<BeachMatch No="12" NoTournament="502" Status="Scheduled" />
	</BeachMatchList>`)
	recs, err := parseResponse("text/xml", body, mustSpec(t, GetBeachMatchList))
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if n, _ := recs[0].Int64("No"); n != 11 {
		t.Fatalf("first No = %d", n)
	}
	if got := recs[1].String("Status"); got != "Scheduled" {
		t.Fatalf("Status = %q", got)
	}
}

// Ranking responses put fields in child elements, not attributes.
func TestParseResponse_XMLChildElements(t *testing.T) {
	t.Parallel()

	body := []byte(`<BeachTournamentRanking>
		<BeachTournamentRankingEntry>
			<Rank>1</Rank>
			<NoTeam>330</NoTeam>
			<PrizeMoney>20000</PrizeMoney>
		</BeachTournamentRankingEntry>
		<BeachTournamentRankingEntry>
			<Rank>2</Rank>
			<NoTeam>411</NoTeam>
		</BeachTournamentRankingEntry>
	</BeachTournamentRanking>`)
	recs, err := parseResponse("text/xml", body, mustSpec(t, GetBeachTournamentRanking))
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records, want 2", len(recs))
	}
	if n, _ := recs[0].Int64("NoTeam"); n != 330 {
		t.Fatalf("NoTeam = %d", n)
	}
	if d, ok := recs[0].Decimal("PrizeMoney"); !ok || d.String() != "20000" {
		t.Fatalf("PrizeMoney = %s, %v", d, ok)
	}
}

func TestParseResponse_NoDataBodies(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		body string
	}{
		{"empty", ""},
		{"whitespace", "   \n"},
		{"server error", "Internal Server Error occurred"},
		{"not in json", `{"message": "NotInJson"}`},
		{"errors element", `<Errors><Error Text="no data" /></Errors>`},
	}
	for _, tc := range cases {
		recs, err := parseResponse("application/json", []byte(tc.body), mustSpec(t, GetBeachTournamentList))
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tc.name, err)
		}
		if len(recs) != 0 {
			t.Fatalf("%s: got %d records, want 0", tc.name, len(recs))
		}
	}
}

func TestParseResponse_ErrorRecordsFiltered(t *testing.T) {
	t.Parallel()

	body := []byte(`[{"no": 1}, {"errors": "bad request"}]`)
	recs, err := parseResponse("application/json", body, mustSpec(t, GetBeachTournamentList))
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
}

func TestParseResponse_MalformedJSONIsParseError(t *testing.T) {
	t.Parallel()

	_, err := parseResponse("application/json", []byte(`{"data": [truncated`), mustSpec(t, GetBeachTournamentList))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
	if pe.Body == "" {
		t.Fatalf("expected body snippet in parse error")
	}
}

func TestParseResponse_MalformedXMLIsParseError(t *testing.T) {
	t.Parallel()

	_, err := parseResponse("text/xml", []byte(`<BeachMatch No="1"`), mustSpec(t, GetBeachMatchList))
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("expected *ParseError, got %v", err)
	}
}

func TestParseResponse_DeclaredCharset(t *testing.T) {
	t.Parallel()

	// iso-8859-1 encoded city name ("Zürich" with a latin-1 ü byte).
	body := append([]byte(`<?xml version="1.0" encoding="iso-8859-1"?><L><BeachTournament No="7" City="Z`), 0xFC)
	body = append(body, []byte(`rich" /></L>`)...)
	recs, err := parseResponse("text/xml", body, mustSpec(t, GetBeachTournamentList))
	if err != nil {
		t.Fatalf("parseResponse: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if got := recs[0].String("City"); got != "Zürich" {
		t.Fatalf("City = %q", got)
	}
}

func TestSnippet_CapsLongBodies(t *testing.T) {
	t.Parallel()

	long := make([]byte, bodySnippetLimit*2)
	for i := range long {
		long[i] = 'x'
	}
	s := snippet(long)
	if len(s) != bodySnippetLimit+len("...") {
		t.Fatalf("snippet length = %d", len(s))
	}
}
