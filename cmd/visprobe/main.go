// Command visprobe issues a single ad-hoc VIS request and prints the parsed
// records as JSON lines. Useful for inspecting what the feed returns for a
// filter before wiring it into a load, and for diagnosing parse faults.
//
// Examples:
//
//	visprobe -type GetBeachTournamentList -filter "Season='2025'"
//	visprobe -type GetBeachTournamentRanking -no 502 -param Phase=MainDraw
//	visprobe -type GetEventList -fattr FirstDate=2024-01-01 -fattr HasBeachTournament=true
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"visetl/internal/vis"
)

// kvFlag collects repeatable key=value flags.
type kvFlag map[string]string

func (f kvFlag) String() string { return fmt.Sprint(map[string]string(f)) }

func (f kvFlag) Set(s string) error {
	k, v, ok := strings.Cut(s, "=")
	if !ok || k == "" {
		return fmt.Errorf("expected key=value, got %q", s)
	}
	f[k] = v
	return nil
}

func main() {
	var (
		reqType = flag.String("type", "", "VIS request type (e.g. GetBeachTournamentList)")
		no      = flag.Int64("no", 0, "entity number for Get<Entity> types")
		filter  = flag.String("filter", "", "VIS filter expression (attribute-style types)")
		fields  = flag.String("fields", "", "override the default field set")
		baseURL = flag.String("url", "", "endpoint override (default: the public VIS endpoint)")
		timeout = flag.Duration("timeout", 60*time.Second, "request timeout")
		dump    = flag.Bool("body", false, "print the request body instead of sending it")
		params  = kvFlag{}
		fattrs  = kvFlag{}
	)
	flag.Var(params, "param", "extra request attribute key=value (repeatable)")
	flag.Var(fattrs, "fattr", "filter element attribute key=value (repeatable)")
	flag.Parse()

	if *reqType == "" {
		fatalf("missing -type")
	}

	req := vis.Request{
		Type:        vis.RequestType(*reqType),
		No:          *no,
		Filter:      *filter,
		Fields:      *fields,
		Params:      params,
		FilterAttrs: fattrs,
	}

	if *dump {
		body, err := req.Body()
		if err != nil {
			fatalf("%v", err)
		}
		fmt.Println(body)
		return
	}

	client := vis.NewClient(vis.Config{BaseURL: *baseURL, Timeout: *timeout})
	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	recs, err := client.Fetch(ctx, req)
	if err != nil {
		fatalf("%v", err)
	}

	enc := json.NewEncoder(os.Stdout)
	for _, rec := range recs {
		if err := enc.Encode(rec); err != nil {
			fatalf("encode: %v", err)
		}
	}
	fmt.Fprintf(os.Stderr, "%d records\n", len(recs))
}

func fatalf(format string, a ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", a...)
	os.Exit(1)
}
