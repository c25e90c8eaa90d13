// Package sanitize cleans user-supplied request data before it reaches
// handlers: operator-injection keys are dropped, markup is stripped from
// strings, and repeated query parameters are collapsed.
//
// All functions return new values and leave their input untouched.
package sanitize

import (
	"net/url"
	"strings"
)

// IsOperatorKey reports whether key, or any bracketed segment of it such as
// the "$gt" in "price[$gt]", starts with '$' or contains '.'.
func IsOperatorKey(key string) bool {
	for _, seg := range keySegments(key) {
		if strings.HasPrefix(seg, "$") || strings.Contains(seg, ".") {
			return true
		}
	}
	return false
}

func keySegments(key string) []string {
	return strings.FieldsFunc(key, func(r rune) bool { return r == '[' || r == ']' })
}

// NoSQL returns a deep copy of v with every object key that IsOperatorKey
// matches removed. v is expected to be a decoded JSON value.
func NoSQL(v any) any {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(t))
		for k, val := range t {
			if IsOperatorKey(k) {
				continue
			}
			out[k] = NoSQL(val)
		}
		return out
	case []any:
		out := make([]any, len(t))
		for i, val := range t {
			out[i] = NoSQL(val)
		}
		return out
	default:
		return v
	}
}

// NoSQLValues returns a copy of values without operator keys.
func NoSQLValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, vs := range values {
		if IsOperatorKey(k) {
			continue
		}
		out[k] = append([]string(nil), vs...)
	}
	return out
}
