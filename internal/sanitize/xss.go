package sanitize

import (
	"html"
	"net/url"

	"github.com/microcosm-cc/bluemonday"
)

// XSS strips all markup from strings. It is safe for concurrent use.
type XSS struct {
	policy *bluemonday.Policy
}

// NewXSS returns a cleaner backed by bluemonday's strict policy.
func NewXSS() *XSS {
	return &XSS{policy: bluemonday.StrictPolicy()}
}

// maxUnescapeRounds bounds the strip/unescape loop for nested entity
// encodings such as "&amp;lt;script&amp;gt;".
const maxUnescapeRounds = 4

// String removes markup from s and returns plain text. The values end up in
// JSON and in html/template pages, both of which escape on output, so
// entities produced by the policy are decoded again. Decoding repeats until
// stripping changes nothing, which keeps "&lt;script&gt;" from coming back
// as a live tag.
func (x *XSS) String(s string) string {
	for range maxUnescapeRounds {
		cleaned := x.policy.Sanitize(s)
		plain := html.UnescapeString(cleaned)
		if plain == s {
			return plain
		}
		s = plain
	}
	// still changing: keep the escaped form
	return x.policy.Sanitize(s)
}

// Value returns a deep copy of a decoded JSON value with every string,
// including object keys, cleaned.
func (x *XSS) Value(v any) any {
	switch t := v.(type) {
	case string:
		return x.String(t)
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			out[x.String(k)] = x.Value(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = x.Value(val)
		}
		return out
	default:
		return v
	}
}

// Values returns a cleaned copy of values.
func (x *XSS) Values(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, vs := range values {
		cleaned := make([]string, len(vs))
		for i, s := range vs {
			cleaned[i] = x.String(s)
		}
		out[x.String(k)] = cleaned
	}
	return out
}
