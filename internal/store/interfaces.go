package store

import (
	"context"

	"github.com/MKhiriev/go-natours/models"
)

//go:generate mockgen -source=interfaces.go -destination=../mock/store_mock.go -package=mock

// DocumentStore persists schemaless documents grouped in collections.
//
// Identifiers are passed as received from the client; implementations
// report ones that are not valid integers as *CastError. Uniqueness
// violations surface as *DuplicateKeyError or as the driver's own error
// shape, never as a generic failure.
type DocumentStore interface {
	List(ctx context.Context, collection string, filter Filter) ([]models.Document, error)
	Get(ctx context.Context, collection, id string) (models.Document, error)
	// FindOne returns the first document whose field equals value.
	FindOne(ctx context.Context, collection, field, value string) (models.Document, error)
	Create(ctx context.Context, collection string, doc models.Document) (models.Document, error)
	// Update merges patch into the stored document. A nil value removes the
	// field; IDField is never changed.
	Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error)
	Delete(ctx context.Context, collection, id string) error
}

// UniqueKeys lists the fields that must be unique per collection.
var UniqueKeys = map[string][]string{
	models.CollectionTours: {"name"},
	models.CollectionUsers: {"email"},
}

func knownCollection(name string) bool {
	for _, c := range models.Collections {
		if c == name {
			return true
		}
	}
	return false
}
