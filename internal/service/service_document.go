package service

import (
	"context"
	"fmt"

	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/models"
)

// documentService forwards CRUD calls to the document store. Store errors
// are returned with their shape intact so the error stage can classify
// cast failures and duplicate keys.
type documentService struct {
	documents store.DocumentStore
	logger    *logger.Logger
}

// NewDocumentService constructs a DocumentService over documents.
func NewDocumentService(documents store.DocumentStore, logger *logger.Logger) DocumentService {
	return &documentService{documents: documents, logger: logger}
}

func (s *documentService) List(ctx context.Context, collection string, filter store.Filter) ([]models.Document, error) {
	docs, err := s.documents.List(ctx, collection, filter)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return docs, nil
}

func (s *documentService) Get(ctx context.Context, collection, id string) (models.Document, error) {
	doc, err := s.documents.Get(ctx, collection, id)
	if err != nil {
		return nil, fmt.Errorf("get %s %s: %w", collection, id, err)
	}
	return doc, nil
}

func (s *documentService) Create(ctx context.Context, collection string, doc models.Document) (models.Document, error) {
	if len(doc) == 0 {
		return nil, ErrInvalidDataProvided
	}

	created, err := s.documents.Create(ctx, collection, doc)
	if err != nil {
		logger.FromContext(ctx).Err(err).Str("collection", collection).Msg("document creation ended with error")
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}
	return created, nil
}

func (s *documentService) Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error) {
	if len(patch) == 0 {
		return nil, ErrInvalidDataProvided
	}

	updated, err := s.documents.Update(ctx, collection, id, patch)
	if err != nil {
		return nil, fmt.Errorf("update %s %s: %w", collection, id, err)
	}
	return updated, nil
}

func (s *documentService) Delete(ctx context.Context, collection, id string) error {
	if err := s.documents.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("delete %s %s: %w", collection, id, err)
	}
	return nil
}
