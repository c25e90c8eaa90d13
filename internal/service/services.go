package service

import (
	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/store"
)

type Services struct {
	DocumentService DocumentService
	AuthService     AuthService
	CheckoutService CheckoutService
}

func NewServices(documents store.DocumentStore, cfg config.StructuredConfig, logger *logger.Logger) *Services {
	return &Services{
		DocumentService: NewUserPrivacyService().Wrap(NewDocumentService(documents, logger)),
		AuthService:     NewAuthService(documents, cfg.Auth, logger),
		CheckoutService: NewCheckoutService(documents, cfg.Webhook, logger),
	}
}
