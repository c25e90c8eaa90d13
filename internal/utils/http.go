package utils

import (
	"encoding/json"
	"fmt"
	"net/http"
)

const contentTypeJSON = "application/json; charset=utf-8"

// encodeFailureBody is sent when a response value cannot be encoded. It is
// the same body the production error policy uses for unexpected errors.
var encodeFailureBody = []byte(`{"status":"error","message":"Something went very wrong!"}`)

// WriteJSON encodes data and writes it with statusCode. Nothing is written
// before encoding succeeds; on failure the client gets a generic 500 and the
// encoding error is returned to the caller for logging.
func WriteJSON(w http.ResponseWriter, data any, statusCode int) (int, error) {
	body, err := json.Marshal(data)
	if err != nil {
		w.Header().Set("Content-Type", contentTypeJSON)
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write(encodeFailureBody)
		return 0, fmt.Errorf("encode %T response: %w", data, err)
	}

	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(statusCode)
	return w.Write(body)
}

// NoContent answers 204. A Content-Type left by an earlier stage is dropped
// since there is no body to describe.
func NoContent(w http.ResponseWriter) {
	w.Header().Del("Content-Type")
	w.WriteHeader(http.StatusNoContent)
}
