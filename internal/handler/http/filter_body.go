package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/MKhiriev/go-natours/models"
)

const (
	mediaTypeJSON = "application/json"
	mediaTypeForm = "application/x-www-form-urlencoded"
)

type bodyCtxKey struct{}

// withBody returns a shallow copy of r carrying the decoded body.
func withBody(r *http.Request, body any) *http.Request {
	return r.WithContext(context.WithValue(r.Context(), bodyCtxKey{}, body))
}

// requestBody returns the decoded body, if the governor parsed one.
func requestBody(r *http.Request) (any, bool) {
	body := r.Context().Value(bodyCtxKey{})
	return body, body != nil
}

// bodyDocument returns the decoded body as a document. A missing body yields
// an empty document.
func bodyDocument(r *http.Request) (models.Document, error) {
	body, ok := requestBody(r)
	if !ok {
		return models.Document{}, nil
	}
	obj, ok := body.(map[string]any)
	if !ok {
		return nil, apperror.BadRequest("Request body must be a JSON object").WithCause(ErrBodyNotObject)
	}
	return models.Document(obj), nil
}

// bindBody copies the decoded body into dst, a pointer to a struct with
// json tags.
func bindBody(r *http.Request, dst any) error {
	doc, err := bodyDocument(r)
	if err != nil {
		return err
	}
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("re-encode body: %w", err)
	}
	if err = json.Unmarshal(raw, dst); err != nil {
		return apperror.BadRequest("Invalid request body").WithCause(err)
	}
	return nil
}

// bodyGovernor parses JSON and form bodies up to the configured ceiling.
//
// The declared Content-Length is checked before anything is read and the
// read itself is bounded, so an oversized body never reaches a decoder.
// Other media types are left unread behind an http.MaxBytesReader.
func (h *Handler) bodyGovernor() pipeline.Filter {
	limit := h.cfg.Security.BodyLimit

	return pipeline.Named("body", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		if r.Body == nil || r.Body == http.NoBody {
			return pipeline.Continue, nil
		}
		if r.ContentLength > limit {
			return pipeline.Handled, tooLarge(limit)
		}

		mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if mediaType != mediaTypeJSON && mediaType != mediaTypeForm {
			r.Body = http.MaxBytesReader(x.Writer, r.Body, limit)
			return pipeline.Continue, nil
		}

		raw, err := readBounded(r.Body, limit)
		_ = r.Body.Close()
		if errors.Is(err, ErrBodyTooLarge) {
			return pipeline.Handled, tooLarge(limit)
		}
		if err != nil {
			return pipeline.Handled, apperror.BadRequest("Could not read request body").WithCause(err)
		}
		r.Body = http.NoBody

		if len(bytes.TrimSpace(raw)) == 0 {
			return pipeline.Continue, nil
		}

		var body any
		switch mediaType {
		case mediaTypeJSON:
			if err = json.Unmarshal(raw, &body); err != nil {
				return pipeline.Handled, apperror.
					BadRequest("Invalid JSON in request body").
					WithCause(fmt.Errorf("%w: %w", ErrMalformedBody, err))
			}
		case mediaTypeForm:
			values, err := url.ParseQuery(string(raw))
			if err != nil {
				return pipeline.Handled, apperror.
					BadRequest("Invalid form data in request body").
					WithCause(fmt.Errorf("%w: %w", ErrMalformedBody, err))
			}
			body = formObject(values)
		}

		x.Request = withBody(r, body)
		return pipeline.Continue, nil
	})
}

// readBounded reads at most limit bytes and fails with ErrBodyTooLarge if
// the stream holds more.
func readBounded(body io.Reader, limit int64) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if int64(len(raw)) > limit {
		return nil, ErrBodyTooLarge
	}
	return raw, nil
}

func tooLarge(limit int64) error {
	return apperror.TooLarge(fmt.Sprintf("Request body is larger than %dkb", limit/1024)).WithCause(ErrBodyTooLarge)
}

// formObject turns form values into the shape JSON decoding produces: one
// value becomes a string, repeated values an array.
func formObject(values url.Values) map[string]any {
	out := make(map[string]any, len(values))
	for k, vs := range values {
		if len(vs) == 1 {
			out[k] = vs[0]
			continue
		}
		arr := make([]any, len(vs))
		for i, v := range vs {
			arr[i] = v
		}
		out[k] = arr
	}
	return out
}
