package http

import (
	"net/http"
	"net/url"

	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/MKhiriev/go-natours/internal/sanitize"
)

// withQuery returns a copy of r whose URL carries values as its query. The
// original RequestURI is kept.
func withQuery(r *http.Request, values url.Values) *http.Request {
	r2 := r.WithContext(r.Context())
	u := *r.URL
	u.RawQuery = values.Encode()
	r2.URL = &u
	return r2
}

// sanitizeNoSQL drops operator keys ("$gt", "a.b") from the body and query.
func (h *Handler) sanitizeNoSQL() pipeline.Filter {
	return pipeline.Named("sanitize-nosql", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		if body, ok := requestBody(r); ok {
			r = withBody(r, sanitize.NoSQL(body))
		}
		x.Request = withQuery(r, sanitize.NoSQLValues(r.URL.Query()))
		return pipeline.Continue, nil
	})
}

// sanitizeXSS strips markup from every user-supplied string.
func (h *Handler) sanitizeXSS() pipeline.Filter {
	return pipeline.Named("sanitize-xss", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		if body, ok := requestBody(r); ok {
			r = withBody(r, h.xss.Value(body))
		}
		x.Request = withQuery(r, h.xss.Values(r.URL.Query()))
		return pipeline.Continue, nil
	})
}

// parameterPollution collapses repeated query parameters to their last
// value unless they are whitelisted.
func (h *Handler) parameterPollution() pipeline.Filter {
	return pipeline.Named("hpp", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		x.Request = withQuery(x.Request, h.pollution.Values(x.Request.URL.Query()))
		return pipeline.Continue, nil
	})
}
