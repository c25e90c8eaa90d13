package sanitize

import "net/url"

// DefaultWhitelist lists the query parameters that may legitimately repeat.
var DefaultWhitelist = []string{
	"duration",
	"ratingsQuantity",
	"ratingsAverage",
	"maxGroupSize",
	"difficulty",
	"price",
}

// Pollution resolves repeated parameters. Whitelisted keys keep every value
// in order; all other keys keep only their last value.
type Pollution struct {
	whitelist map[string]struct{}
}

// NewPollution returns a resolver for the given whitelist.
func NewPollution(whitelist []string) *Pollution {
	w := make(map[string]struct{}, len(whitelist))
	for _, k := range whitelist {
		w[k] = struct{}{}
	}
	return &Pollution{whitelist: w}
}

// Allowed reports whether key may repeat.
func (p *Pollution) Allowed(key string) bool {
	_, ok := p.whitelist[key]
	return ok
}

// Values returns a resolved copy of values.
func (p *Pollution) Values(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, vs := range values {
		if len(vs) == 0 {
			continue
		}
		if p.Allowed(k) {
			out[k] = append([]string(nil), vs...)
			continue
		}
		out[k] = []string{vs[len(vs)-1]}
	}
	return out
}
