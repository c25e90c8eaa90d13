package models

// StatusSuccess is the status of every successful JSON envelope.
const StatusSuccess = "success"

// Envelope is the JSON body of successful API responses.
type Envelope struct {
	Status string `json:"status"`
	// Token is set by signup and login.
	Token string `json:"token,omitempty"`
	// Results is set by list endpoints.
	Results *int `json:"results,omitempty"`
	Data    any  `json:"data"`
}

// Success wraps data in an envelope.
func Success(data any) Envelope {
	return Envelope{Status: StatusSuccess, Data: data}
}

// SuccessList wraps a list of documents under key.
func SuccessList(key string, docs []Document) Envelope {
	n := len(docs)
	return Envelope{Status: StatusSuccess, Results: &n, Data: map[string]any{key: docs}}
}
