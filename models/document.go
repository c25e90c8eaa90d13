// Package models holds the data shapes shared between the store, the
// services and the HTTP layer.
package models

import (
	"encoding/json"
	"strconv"
)

// Collection names.
const (
	CollectionTours    = "tours"
	CollectionUsers    = "users"
	CollectionReviews  = "reviews"
	CollectionBookings = "bookings"
)

// Collections lists every collection known to the stores.
var Collections = []string{CollectionTours, CollectionUsers, CollectionReviews, CollectionBookings}

// IDField is the key under which a document carries its identifier.
const IDField = "id"

// Document is a schemaless record. Values are whatever encoding/json
// produces when decoding into any, plus int64 for IDField.
type Document map[string]any

// ID returns the document identifier.
func (d Document) ID() (int64, bool) {
	switch v := d[IDField].(type) {
	case int64:
		return v, true
	case int:
		return int64(v), true
	case float64:
		return int64(v), v == float64(int64(v))
	case json.Number:
		id, err := v.Int64()
		return id, err == nil
	case string:
		id, err := strconv.ParseInt(v, 10, 64)
		return id, err == nil
	default:
		return 0, false
	}
}

// Clone returns a shallow copy of d.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		out[k] = v
	}
	return out
}

// Without returns a copy of d lacking keys.
func (d Document) Without(keys ...string) Document {
	out := d.Clone()
	for _, k := range keys {
		delete(out, k)
	}
	return out
}

// Project returns a copy of d holding only fields and IDField. An empty
// fields list returns a full copy.
func (d Document) Project(fields []string) Document {
	if len(fields) == 0 {
		return d.Clone()
	}
	out := make(Document, len(fields)+1)
	if id, ok := d[IDField]; ok {
		out[IDField] = id
	}
	for _, f := range fields {
		if v, ok := d[f]; ok {
			out[f] = v
		}
	}
	return out
}

// String returns the string value of key, or "".
func (d Document) String(key string) string {
	s, _ := d[key].(string)
	return s
}
