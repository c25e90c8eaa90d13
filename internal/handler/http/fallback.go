package http

import (
	"fmt"
	"net/http"

	"github.com/MKhiriev/go-natours/internal/apperror"
)

// fallback answers everything no router claimed, method mismatches
// included. It never writes a response itself.
func (h *Handler) fallback(w http.ResponseWriter, r *http.Request) {
	h.fail(w, r, errRouteNotFound(r))
}

func errRouteNotFound(r *http.Request) error {
	uri := r.RequestURI
	if uri == "" {
		uri = r.URL.RequestURI()
	}
	return apperror.New(fmt.Sprintf("Can't find %s on this server!", uri), http.StatusNotFound)
}
