package service

import (
	"context"

	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/models"
)

// DocumentServiceWrapper defines middleware composition for DocumentService.
// Implementations wrap an existing DocumentService to add behavior such as
// hiding sensitive fields.
type DocumentServiceWrapper interface {
	Wrap(DocumentService) DocumentService // returns a decorated DocumentService applying additional behavior
}

// userPrivacyService keeps credentials out of the generic CRUD surface:
// password fields are stripped from every users document returned and
// from every users patch accepted, and users can only be created through
// signup. Deactivated users are invisible to reads.
type userPrivacyService struct {
	inner DocumentService
}

// NewUserPrivacyService returns the wrapper; call Wrap to attach it.
func NewUserPrivacyService() DocumentServiceWrapper {
	return &userPrivacyService{}
}

func (p *userPrivacyService) Wrap(inner DocumentService) DocumentService {
	p.inner = inner
	return p
}

func hidePassword(collection string, doc models.Document) models.Document {
	if collection != models.CollectionUsers || doc == nil {
		return doc
	}
	return doc.Without(models.PasswordField, models.PasswordConfirmField, models.PasswordChangedAtField)
}

func deactivated(collection string, doc models.Document) bool {
	if collection != models.CollectionUsers {
		return false
	}
	active, ok := doc[models.ActiveField].(bool)
	return ok && !active
}

func (p *userPrivacyService) List(ctx context.Context, collection string, filter store.Filter) ([]models.Document, error) {
	if collection == models.CollectionUsers {
		for _, c := range filter.Conditions {
			if c.Field == models.PasswordField {
				return nil, ErrInvalidDataProvided
			}
		}
	}

	docs, err := p.inner.List(ctx, collection, filter)
	if err != nil {
		return nil, err
	}
	visible := docs[:0]
	for _, d := range docs {
		if deactivated(collection, d) {
			continue
		}
		visible = append(visible, hidePassword(collection, d))
	}
	return visible, nil
}

func (p *userPrivacyService) Get(ctx context.Context, collection, id string) (models.Document, error) {
	doc, err := p.inner.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}
	if deactivated(collection, doc) {
		return nil, store.ErrDocumentNotFound
	}
	return hidePassword(collection, doc), nil
}

func (p *userPrivacyService) Create(ctx context.Context, collection string, doc models.Document) (models.Document, error) {
	if collection == models.CollectionUsers {
		return nil, ErrUseSignup
	}
	return p.inner.Create(ctx, collection, doc)
}

func (p *userPrivacyService) Update(ctx context.Context, collection, id string, patch models.Document) (models.Document, error) {
	patch = hidePassword(collection, patch)
	doc, err := p.inner.Update(ctx, collection, id, patch)
	if err != nil {
		return nil, err
	}
	return hidePassword(collection, doc), nil
}

func (p *userPrivacyService) Delete(ctx context.Context, collection, id string) error {
	return p.inner.Delete(ctx, collection, id)
}
