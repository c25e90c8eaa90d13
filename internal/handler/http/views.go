package http

import (
	"net/http"

	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/go-chi/chi/v5"
)

const contentTypeHTML = "text/html; charset=utf-8"

// Pages write nothing on a render failure, so the error stage can still
// answer; it replaces the HTML content type set here.

func (h *Handler) overviewPage(w http.ResponseWriter, r *http.Request) error {
	list, err := h.services.DocumentService.List(r.Context(), tours.collection, store.Filter{Page: 1, Limit: store.DefaultLimit})
	if err != nil {
		return err
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	return h.pages.Overview(w, list)
}

func (h *Handler) tourPage(w http.ResponseWriter, r *http.Request) error {
	tour, err := h.services.DocumentService.Get(r.Context(), tours.collection, chi.URLParam(r, "id"))
	if err != nil {
		return notFound(tours.singular, err)
	}

	w.Header().Set("Content-Type", contentTypeHTML)
	return h.pages.Tour(w, tour)
}
