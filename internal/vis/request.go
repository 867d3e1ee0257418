package vis

import (
	"fmt"
	"sort"
	"strings"
)

// Request describes one logical call against the VIS endpoint. The client
// turns it into the wire body using the static requestSpecs table.
type Request struct {
	Type RequestType

	// No selects a single entity for the Get<Entity> types. Zero means
	// absent.
	No int64

	// Filter is a VIS filter expression for attribute-style types, e.g.
	// "NoTournament='502'" or "Season='2025 2026'".
	Filter string

	// FilterAttrs are the child-element filter attributes for element-style
	// types (the event list). Ignored for attribute-style types.
	FilterAttrs map[string]string

	// Params are extra request attributes (Phase, Gender, ...).
	Params map[string]string

	// Fields overrides the type's default field set when non-empty.
	Fields string
}

// Body renders the request body for the wire, honoring the type's wrapping
// convention and filter style.
//
// Attribute order is deterministic (Type, Fields, No, then sorted extras) so
// bodies can be verified against a fixed table.
func (r Request) Body() (string, error) {
	spec, ok := Spec(r.Type)
	if !ok {
		return "", fmt.Errorf("vis: unsupported request type %q", r.Type)
	}

	fields := r.Fields
	if fields == "" {
		fields = spec.Fields
	}

	var b strings.Builder
	b.WriteString("<Request")
	attr(&b, "Type", string(r.Type))
	if fields != "" {
		attr(&b, "Fields", fields)
	}
	if r.No != 0 {
		attr(&b, "No", fmt.Sprintf("%d", r.No))
	}
	if spec.Filter == filterAttribute && r.Filter != "" {
		attr(&b, "Filter", r.Filter)
	}
	for _, k := range sortedKeys(r.Params) {
		if v := r.Params[k]; v != "" {
			attr(&b, k, v)
		}
	}

	if spec.Filter == filterElement && len(r.FilterAttrs) > 0 {
		b.WriteString("><Filter")
		for _, k := range sortedKeys(r.FilterAttrs) {
			if v := r.FilterAttrs[k]; v != "" {
				attr(&b, k, v)
			}
		}
		b.WriteString(" /></Request>")
	} else {
		b.WriteString(" />")
	}

	body := b.String()
	if spec.Legacy {
		body = "<Requests>" + body + "</Requests>"
	}
	return body, nil
}

func attr(b *strings.Builder, key, val string) {
	b.WriteString(" ")
	b.WriteString(key)
	b.WriteString(`="`)
	b.WriteString(escapeXML(val))
	b.WriteString(`"`)
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
)

func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
