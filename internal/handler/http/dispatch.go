package http

import (
	"net/http"
	"strings"
)

type mount struct {
	prefix  string
	handler http.Handler
}

// Dispatcher delegates a request to the router mounted at the longest
// prefix of its path. Prefixes only match on segment boundaries, and when
// two mounts share a prefix the one registered first wins. The matched
// prefix is stripped from the routed path; the request is otherwise passed
// on unchanged.
type Dispatcher struct {
	mounts   []mount
	fallback http.Handler
}

// NewDispatcher returns a dispatcher that hands unclaimed requests to
// fallback.
func NewDispatcher(fallback http.Handler) *Dispatcher {
	return &Dispatcher{fallback: fallback}
}

// Mount registers handler under prefix.
func (d *Dispatcher) Mount(prefix string, handler http.Handler) {
	if prefix != "/" {
		prefix = strings.TrimSuffix(prefix, "/")
	}
	d.mounts = append(d.mounts, mount{prefix: prefix, handler: handler})
}

// Prefixes lists the mounted prefixes in registration order.
func (d *Dispatcher) Prefixes() []string {
	out := make([]string, len(d.mounts))
	for i, m := range d.mounts {
		out[i] = m.prefix
	}
	return out
}

func (d *Dispatcher) match(p string) (mount, bool) {
	var (
		best  mount
		found bool
	)
	for _, m := range d.mounts {
		if !hasPathPrefix(p, m.prefix) {
			continue
		}
		if !found || len(m.prefix) > len(best.prefix) {
			best, found = m, true
		}
	}
	return best, found
}

func (d *Dispatcher) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	m, ok := d.match(r.URL.Path)
	if !ok {
		d.fallback.ServeHTTP(w, r)
		return
	}
	m.handler.ServeHTTP(w, stripPrefix(r, m.prefix))
}

func stripPrefix(r *http.Request, prefix string) *http.Request {
	if prefix == "/" {
		return r
	}
	r2 := r.WithContext(r.Context())
	u := *r.URL
	u.Path = strings.TrimPrefix(r.URL.Path, prefix)
	if u.Path == "" {
		u.Path = "/"
	}
	if u.RawPath != "" {
		u.RawPath = strings.TrimPrefix(r.URL.RawPath, prefix)
		if u.RawPath == "" {
			u.RawPath = "/"
		}
	}
	r2.URL = &u
	return r2
}
