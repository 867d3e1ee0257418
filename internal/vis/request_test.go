package vis

import (
	"strings"
	"testing"
)

func TestRequestBody_AttributeFilter(t *testing.T) {
	t.Parallel()

	body, err := Request{
		Type:   GetBeachTournamentList,
		Filter: "Season='2025'",
		Fields: "No Name",
	}.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	want := `<Request Type="GetBeachTournamentList" Fields="No Name" Filter="Season='2025'" />`
	if body != want {
		t.Fatalf("body mismatch:\n got %q\nwant %q", body, want)
	}
}

func TestRequestBody_ElementFilter(t *testing.T) {
	t.Parallel()

	body, err := Request{
		Type:   GetEventList,
		Fields: "No Code",
		FilterAttrs: map[string]string{
			"NoParentEvent": "0",
			"FirstDate":     "2024-01-01",
		},
	}.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	want := `<Request Type="GetEventList" Fields="No Code"><Filter FirstDate="2024-01-01" NoParentEvent="0" /></Request>`
	if body != want {
		t.Fatalf("body mismatch:\n got %q\nwant %q", body, want)
	}
}

func TestRequestBody_LegacyEnvelope(t *testing.T) {
	t.Parallel()

	body, err := Request{
		Type:   GetBeachRoundRanking,
		No:     123,
		Fields: "Position Rank",
	}.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	want := `<Requests><Request Type="GetBeachRoundRanking" Fields="Position Rank" No="123" /></Requests>`
	if body != want {
		t.Fatalf("body mismatch:\n got %q\nwant %q", body, want)
	}
}

func TestRequestBody_ParamsSortedAfterFilter(t *testing.T) {
	t.Parallel()

	body, err := Request{
		Type:   GetBeachTournamentRanking,
		No:     502,
		Fields: "Rank NoTeam",
		Params: map[string]string{"Phase": "MainDraw"},
	}.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	want := `<Requests><Request Type="GetBeachTournamentRanking" Fields="Rank NoTeam" No="502" Phase="MainDraw" /></Requests>`
	if body != want {
		t.Fatalf("body mismatch:\n got %q\nwant %q", body, want)
	}
}

func TestRequestBody_EscapesAttributeValues(t *testing.T) {
	t.Parallel()

	body, err := Request{
		Type:   GetBeachTournamentList,
		Filter: `Name='A & B <"C">'`,
		Fields: "No",
	}.Body()
	if err != nil {
		t.Fatalf("Body: %v", err)
	}
	if !strings.Contains(body, `Filter="Name='A &amp; B &lt;&quot;C&quot;&gt;'"`) {
		t.Fatalf("attribute not escaped: %q", body)
	}
}

func TestRequestBody_UnsupportedType(t *testing.T) {
	t.Parallel()

	if _, err := (Request{Type: "GetVolleyMatchList"}).Body(); err == nil {
		t.Fatalf("expected error for unsupported type")
	}
}

// Every supported type must produce a well-formed body with its default
// field set, and legacy types must be wrapped.
func TestRequestBody_AllSupportedTypes(t *testing.T) {
	t.Parallel()

	for rt, spec := range requestSpecs {
		body, err := Request{Type: rt}.Body()
		if err != nil {
			t.Fatalf("%s: Body: %v", rt, err)
		}
		if !strings.Contains(body, `Type="`+string(rt)+`"`) {
			t.Fatalf("%s: missing Type attribute: %q", rt, body)
		}
		if spec.Fields != "" && !strings.Contains(body, `Fields="`+spec.Fields+`"`) {
			t.Fatalf("%s: missing default fields: %q", rt, body)
		}
		wrapped := strings.HasPrefix(body, "<Requests>") && strings.HasSuffix(body, "</Requests>")
		if spec.Legacy != wrapped {
			t.Fatalf("%s: legacy=%v but wrapped=%v: %q", rt, spec.Legacy, wrapped, body)
		}
	}
}

func TestSpec_RankingTypesAreXMLOnly(t *testing.T) {
	t.Parallel()

	for _, rt := range []RequestType{
		GetBeachTournamentRanking,
		GetBeachRoundRanking,
		GetBeachWorldTourRanking,
		GetBeachOlympicSelectionRanking,
	} {
		spec, ok := Spec(rt)
		if !ok {
			t.Fatalf("%s: no spec", rt)
		}
		if !spec.XMLOnly {
			t.Fatalf("%s: expected XMLOnly", rt)
		}
	}
}
