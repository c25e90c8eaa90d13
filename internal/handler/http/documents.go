package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/service"
	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/internal/utils"
	"github.com/MKhiriev/go-natours/models"
	"github.com/go-chi/chi/v5"
)

// resource names a collection and the key its single documents are sent
// under.
type resource struct {
	collection string
	singular   string
}

// respond writes a success body. A failed write is only logged: the status
// line is already on the wire.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, body any, statusCode int) {
	if _, err := utils.WriteJSON(w, body, statusCode); err != nil {
		logger.FromRequest(r).Err(err).Msg("error writing response")
	}
}

// documentError gives collection-specific wording to the errors every
// document route can hit.
func documentError(res resource, err error) error {
	if errors.Is(err, service.ErrInvalidDataProvided) {
		return apperror.BadRequest("Please provide the " + res.singular + " data").WithCause(err)
	}
	return notFound(res.singular, err)
}

func (h *Handler) listDocuments(res resource) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		filter, err := store.ParseFilter(r.URL.Query())
		if err != nil {
			return err
		}

		docs, err := h.services.DocumentService.List(r.Context(), res.collection, filter)
		if err != nil {
			return documentError(res, err)
		}

		h.respond(w, r, models.SuccessList(res.collection, docs), http.StatusOK)
		return nil
	}
}

func (h *Handler) getDocument(res resource) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		doc, err := h.services.DocumentService.Get(r.Context(), res.collection, chi.URLParam(r, "id"))
		if err != nil {
			return documentError(res, err)
		}

		h.respond(w, r, models.Success(map[string]any{res.singular: doc}), http.StatusOK)
		return nil
	}
}

func (h *Handler) createDocument(res resource) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		doc, err := bodyDocument(r)
		if err != nil {
			return err
		}

		created, err := h.services.DocumentService.Create(r.Context(), res.collection, doc)
		if err != nil {
			return documentError(res, err)
		}

		h.respond(w, r, models.Success(map[string]any{res.singular: created}), http.StatusCreated)
		return nil
	}
}

func (h *Handler) updateDocument(res resource) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		patch, err := bodyDocument(r)
		if err != nil {
			return err
		}

		updated, err := h.services.DocumentService.Update(r.Context(), res.collection, chi.URLParam(r, "id"), patch)
		if err != nil {
			return documentError(res, err)
		}

		h.respond(w, r, models.Success(map[string]any{res.singular: updated}), http.StatusOK)
		return nil
	}
}

func (h *Handler) deleteDocument(res resource) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		if err := h.services.DocumentService.Delete(r.Context(), res.collection, chi.URLParam(r, "id")); err != nil {
			return documentError(res, err)
		}

		utils.NoContent(w)
		return nil
	}
}

// createReview fills in the author from the logged-in user and the tour
// from the query when the body leaves them out.
func (h *Handler) createReview(w http.ResponseWriter, r *http.Request) error {
	doc, err := bodyDocument(r)
	if err != nil {
		return err
	}
	if _, ok := doc["user"]; !ok {
		if userID, ok := utils.GetUserIDFromContext(r.Context()); ok {
			doc["user"] = userID
		}
	}
	if _, ok := doc["tour"]; !ok {
		if tour := r.URL.Query().Get("tour"); tour != "" {
			doc["tour"] = tour
		}
	}

	created, err := h.services.DocumentService.Create(r.Context(), reviews.collection, doc)
	if err != nil {
		return documentError(reviews, err)
	}

	h.respond(w, r, models.Success(map[string]any{reviews.singular: created}), http.StatusCreated)
	return nil
}

// aliasTopTours presets the query of the five best rated, cheapest tours.
func (h *Handler) aliasTopTours(next handlerFunc) handlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		q := r.URL.Query()
		q.Set(store.ParamLimit, "5")
		q.Set(store.ParamSort, "-ratingsAverage,price")
		q.Set(store.ParamFields, "name,price,ratingsAverage,summary,difficulty")
		return next(w, withQuery(r, q))
	}
}
