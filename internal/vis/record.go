package vis

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Record is one flat response record with keys normalized to PascalCase,
// regardless of whether the wire format was JSON (camelCase keys) or XML
// (attributes and leaf child elements).
//
// Values keep whatever scalar shape the wire gave them (string for XML,
// string/float64/bool for JSON); the typed accessors below do the coercion
// so loaders never string-poke.
type Record map[string]any

// String returns the trimmed string form of a field, or "" when absent/null.
func (r Record) String(key string) string {
	v, ok := r[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		// JSON numbers: render integers without a mantissa.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

// Int64 parses a field as an integer id. Empty and non-numeric values report
// !ok rather than zero, so callers can distinguish "missing" from 0.
func (r Record) Int64(key string) (int64, bool) {
	s := r.String(key)
	if s == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// JSON may have produced a float form like "502.0".
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil || f != float64(int64(f)) {
			return 0, false
		}
		return int64(f), true
	}
	return n, true
}

// Int is Int64 narrowed for small fields (ranks, points, durations).
func (r Record) Int(key string) (int, bool) {
	n, ok := r.Int64(key)
	return int(n), ok
}

// Date parses the leading YYYY-MM-DD of a field. VIS date fields sometimes
// carry a time suffix; only the date part is significant.
func (r Record) Date(key string) (time.Time, bool) {
	s := r.String(key)
	if len(s) < 10 {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", s[:10])
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Bool interprets the VIS boolean spellings ("1", "true", "yes", "on").
// Absent fields are false.
func (r Record) Bool(key string) bool {
	switch strings.ToLower(r.String(key)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

// Decimal parses a monetary field. Empty and non-numeric values report !ok.
func (r Record) Decimal(key string) (decimal.Decimal, bool) {
	s := r.String(key)
	if s == "" {
		return decimal.Decimal{}, false
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return d, true
}

// HasErrors reports whether the record is actually an error marker the
// service embedded in an otherwise well-formed body.
func (r Record) HasErrors() bool {
	_, ok := r["Errors"]
	return ok
}

// pascal normalizes a camelCase wire key to PascalCase ("countryCode" ->
// "CountryCode", "no" -> "No").
func pascal(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
