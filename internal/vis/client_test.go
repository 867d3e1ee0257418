package vis

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestClientFetch_PostsBodyAndParsesJSON(t *testing.T) {
	t.Parallel()

	var gotBody, gotAccept, gotContentType string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		raw, _ := io.ReadAll(r.Body)
		gotBody = string(raw)
		gotAccept = r.Header.Get("Accept")
		gotContentType = r.Header.Get("Content-Type")
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"no": 502, "name": "Gstaad"}]`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	recs, err := c.Fetch(context.Background(), Request{
		Type:   GetBeachTournamentList,
		Filter: "Season='2025'",
		Fields: "No Name",
	})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
	if !strings.Contains(gotBody, `Type="GetBeachTournamentList"`) {
		t.Fatalf("request body = %q", gotBody)
	}
	if gotAccept != "application/json" {
		t.Fatalf("Accept = %q", gotAccept)
	}
	if !strings.Contains(gotContentType, "application/xml") {
		t.Fatalf("Content-Type = %q", gotContentType)
	}
}

// XML-only types must not ask for JSON: the service would answer NotInJson.
func TestClientFetch_XMLOnlyAcceptHeader(t *testing.T) {
	t.Parallel()

	var gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAccept = r.Header.Get("Accept")
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, `<R><BeachRoundRankingEntry><Position>1</Position></BeachRoundRankingEntry></R>`)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	recs, err := c.Fetch(context.Background(), Request{Type: GetBeachRoundRanking, No: 9})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if gotAccept != "application/xml" {
		t.Fatalf("Accept = %q, want application/xml", gotAccept)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records, want 1", len(recs))
	}
}

func TestClientFetch_Non2xxIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Fetch(context.Background(), Request{Type: GetBeachTeamList})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Status != http.StatusBadGateway {
		t.Fatalf("Status = %d, want 502", te.Status)
	}
}

func TestClientFetch_ConnectionRefusedIsTransportError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse everything

	c := NewClient(Config{BaseURL: srv.URL})
	_, err := c.Fetch(context.Background(), Request{Type: GetBeachTeamList})
	var te *TransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected *TransportError, got %v", err)
	}
	if te.Status != 0 {
		t.Fatalf("Status = %d, want 0 for connection fault", te.Status)
	}
}

func TestClientFetch_EmptyBodyMeansNoRecords(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	recs, err := c.Fetch(context.Background(), Request{Type: GetPlayerList})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("got %d records, want 0", len(recs))
	}
}
