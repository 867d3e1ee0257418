// Package vis is a client for the FIVB VIS web service: one POST endpoint
// that takes an XML request fragment and answers in JSON or XML depending on
// the request type.
//
// The client is a pure request/response translator. It builds the body per
// the static requestSpecs table, classifies failures, and normalizes both
// response formats into []Record. Retry policy belongs to the caller.
package vis

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// DefaultBaseURL is the public VIS data endpoint. No authentication is
// required for public data.
const DefaultBaseURL = "https://www.fivb.org/Vis2009/XmlRequest.asmx"

const defaultTimeout = 60 * time.Second

// Config carries the client's wiring. Zero values get sensible defaults, so
// Config{} is a working production configuration.
type Config struct {
	BaseURL   string
	Timeout   time.Duration
	UserAgent string

	// HTTPClient substitutes the transport, mainly for tests. When set, its
	// own timeout wins.
	HTTPClient *http.Client
}

// Client issues VIS requests. Safe for concurrent use.
type Client struct {
	baseURL   string
	userAgent string
	http      *http.Client
}

// NewClient builds a Client from cfg.
func NewClient(cfg Config) *Client {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	ua := cfg.UserAgent
	if ua == "" {
		ua = "visetl/1.0"
	}
	hc := cfg.HTTPClient
	if hc == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{baseURL: baseURL, userAgent: ua, http: hc}
}

// Fetch sends one request and returns the parsed records.
//
// Explicit no-data or in-body error markers return (nil, nil). Wire failures
// return *TransportError, undecodable bodies *ParseError. There is no retry
// here by contract.
func (c *Client) Fetch(ctx context.Context, req Request) ([]Record, error) {
	spec, ok := Spec(req.Type)
	if !ok {
		return nil, fmt.Errorf("vis: unsupported request type %q", req.Type)
	}

	body, err := req.Body()
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, strings.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("vis: build request: %w", err)
	}
	httpReq.Header.Set("User-Agent", c.userAgent)
	httpReq.Header.Set("Content-Type", "application/xml; charset=utf-8")
	if spec.XMLOnly {
		httpReq.Header.Set("Accept", "application/xml")
	} else {
		httpReq.Header.Set("Accept", "application/json")
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &TransportError{Err: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Status: resp.StatusCode, Err: fmt.Errorf("read body: %w", err)}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("%s: %s", req.Type, snippet(raw)),
		}
	}

	return parseResponse(resp.Header.Get("Content-Type"), raw, spec)
}
