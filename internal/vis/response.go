package vis

import (
	"bytes"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/htmlindex"
)

// TransportError is a wire-level failure: non-2xx status, timeout, or a
// connection fault. Whether it is retryable is the caller's policy.
type TransportError struct {
	Status int // 0 when the request never produced a response
	Err    error
}

func (e *TransportError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("vis: transport fault (status %d): %v", e.Status, e.Err)
	}
	return fmt.Sprintf("vis: transport fault: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// ParseError means the body did not match the expected JSON/XML shape for
// the request type. Body carries a capped snippet for diagnosis.
type ParseError struct {
	Body string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("vis: parse fault: %v (body: %s)", e.Err, e.Body)
}

func (e *ParseError) Unwrap() error { return e.Err }

const bodySnippetLimit = 2048

func snippet(body []byte) string {
	s := strings.TrimSpace(string(body))
	if len(s) > bodySnippetLimit {
		s = s[:bodySnippetLimit] + "..."
	}
	return s
}

// parseResponse turns a response body into records.
//
// Explicit no-data and error-marker bodies yield zero records without error;
// only a body that claims to be data but cannot be decoded is a ParseError.
func parseResponse(contentType string, body []byte, spec requestSpec) ([]Record, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || isErrorBody(trimmed) {
		return nil, nil
	}
	var (
		recs []Record
		err  error
	)
	if strings.Contains(contentType, "json") {
		recs, err = parseJSON(trimmed)
	} else {
		recs, err = parseXML(trimmed, spec.Node)
	}
	if err != nil {
		return nil, err
	}

	// The service sometimes embeds an error marker as a record inside an
	// otherwise well-formed body; those are not data.
	out := recs[:0]
	for _, r := range recs {
		if !r.HasErrors() {
			out = append(out, r)
		}
	}
	return out, nil
}

// isErrorBody recognizes the explicit failure markers the service puts in a
// 200 response body.
func isErrorBody(trimmed []byte) bool {
	lower := bytes.ToLower(trimmed)
	return bytes.Contains(lower, []byte("internal server error")) ||
		bytes.Contains(lower, []byte("notinjson")) ||
		bytes.HasPrefix(trimmed, []byte("<Errors"))
}

// parseJSON decodes the JSON shapes the service produces: a bare array, a
// {"data": [...]} wrapper, or a single object. Keys are normalized to
// PascalCase to match the XML attribute names.
func parseJSON(body []byte) ([]Record, error) {
	var v any
	if err := json.Unmarshal(body, &v); err != nil {
		return nil, &ParseError{Body: snippet(body), Err: err}
	}

	switch t := v.(type) {
	case []any:
		return jsonRecords(t), nil
	case map[string]any:
		if payload, ok := t["data"]; ok {
			return jsonValue(payload), nil
		}
		// Fall back to the first list/object value.
		for _, val := range t {
			if recs := jsonValue(val); recs != nil {
				return recs, nil
			}
		}
		return nil, nil
	default:
		return nil, &ParseError{Body: snippet(body), Err: errors.New("unexpected top-level JSON value")}
	}
}

func jsonValue(v any) []Record {
	switch t := v.(type) {
	case []any:
		return jsonRecords(t)
	case map[string]any:
		return []Record{jsonRecord(t)}
	default:
		return nil
	}
}

func jsonRecords(items []any) []Record {
	recs := make([]Record, 0, len(items))
	for _, item := range items {
		if m, ok := item.(map[string]any); ok {
			recs = append(recs, jsonRecord(m))
		}
	}
	return recs
}

func jsonRecord(m map[string]any) Record {
	rec := make(Record, len(m))
	for k, v := range m {
		rec[pascal(k)] = v
	}
	return rec
}

// parseXML extracts every element named node (namespace-insensitive) as one
// record: attributes and leaf child elements become keys.
func parseXML(body []byte, node string) ([]Record, error) {
	d := xml.NewDecoder(bytes.NewReader(body))
	d.CharsetReader = charsetReader

	var recs []Record
	for {
		tok, err := d.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, &ParseError{Body: snippet(body), Err: err}
		}
		se, ok := tok.(xml.StartElement)
		if !ok || se.Name.Local != node {
			continue
		}
		rec, err := decodeRecord(d, se)
		if err != nil {
			return nil, &ParseError{Body: snippet(body), Err: err}
		}
		recs = append(recs, rec)
	}
	return recs, nil
}

// decodeRecord consumes one record element: its attributes plus the text of
// its direct leaf children (e.g. <Rank>1</Rank><NoTeam>330</NoTeam>).
// Deeper nesting is skipped.
func decodeRecord(d *xml.Decoder, start xml.StartElement) (Record, error) {
	rec := Record{}
	for _, a := range start.Attr {
		rec[a.Name.Local] = a.Value
	}

	depth := 0
	var childName string
	var text strings.Builder
	for {
		tok, err := d.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			depth++
			if depth == 1 {
				childName = t.Name.Local
				text.Reset()
			}
		case xml.CharData:
			if depth == 1 && childName != "" {
				text.Write(t)
			}
		case xml.EndElement:
			if depth == 0 {
				return rec, nil
			}
			if depth == 1 && childName != "" {
				if s := strings.TrimSpace(text.String()); s != "" {
					rec[childName] = s
				}
				childName = ""
			}
			depth--
		}
	}
}

// charsetReader decodes the non-UTF-8 charsets the service occasionally
// declares on XML responses (e.g. iso-8859-1).
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	enc, err := htmlindex.Get(charset)
	if err != nil {
		return nil, fmt.Errorf("vis: unsupported charset %q", charset)
	}
	return enc.NewDecoder().Reader(input), nil
}
