package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/MKhiriev/go-natours/internal/config"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/store"
	"github.com/MKhiriev/go-natours/internal/utils"
	"github.com/MKhiriev/go-natours/models"
)

// checkoutService verifies payment-provider webhooks signed as
//
//	Stripe-Signature: t=<unix seconds>,v1=<hex HMAC-SHA256(secret, t + "." + body)>
//
// and turns completed checkouts into bookings.
type checkoutService struct {
	documents store.DocumentStore
	hasher    *utils.Hasher
	tolerance time.Duration
	now       func() time.Time
	logger    *logger.Logger
}

// NewCheckoutService constructs a CheckoutService. With an empty secret
// every webhook is rejected with ErrWebhookDisabled.
func NewCheckoutService(documents store.DocumentStore, cfg config.Webhook, logger *logger.Logger) CheckoutService {
	s := &checkoutService{
		documents: documents,
		tolerance: cfg.Tolerance,
		now:       time.Now,
		logger:    logger,
	}
	if cfg.Secret != "" {
		s.hasher = utils.NewHasher(cfg.Secret)
	}
	return s
}

func (s *checkoutService) HandleWebhook(ctx context.Context, payload []byte, signatureHeader string) (models.Document, error) {
	log := logger.FromContext(ctx)

	if err := s.verify(payload, signatureHeader); err != nil {
		log.Warn().Err(err).Msg("webhook signature rejected")
		return nil, err
	}

	var event models.CheckoutEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedEvent, err)
	}
	if event.Type != models.EventCheckoutCompleted {
		log.Debug().Str("event", event.Type).Msg("webhook event ignored")
		return nil, nil
	}

	booking, err := s.bookingFor(ctx, event.Data.Object)
	if err != nil {
		return nil, err
	}

	created, err := s.documents.Create(ctx, models.CollectionBookings, booking.Document())
	if err != nil {
		return nil, fmt.Errorf("create booking: %w", err)
	}
	log.Info().Str("event_id", event.ID).Any("booking", created[models.IDField]).Msg("booking created from checkout")
	return created, nil
}

// verify checks the timestamp against the tolerance window and accepts the
// payload if any v1 signature matches.
func (s *checkoutService) verify(payload []byte, header string) error {
	if s.hasher == nil {
		return ErrWebhookDisabled
	}

	var (
		timestamp  string
		signatures []string
	)
	for _, part := range strings.Split(header, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch key {
		case "t":
			timestamp = value
		case "v1":
			signatures = append(signatures, value)
		}
	}
	if timestamp == "" || len(signatures) == 0 {
		return ErrInvalidSignature
	}

	unix, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return ErrInvalidSignature
	}
	if age := s.now().Sub(time.Unix(unix, 0)); s.tolerance > 0 && (age > s.tolerance || age < -s.tolerance) {
		return ErrTimestampOutsideTolerance
	}

	for _, sig := range signatures {
		if s.hasher.Verify(sig, []byte(timestamp), []byte("."), payload) {
			return nil
		}
	}
	return ErrInvalidSignature
}

// bookingFor resolves the tour (client reference) and the user (customer
// email) of a session. Prices arrive in cents.
func (s *checkoutService) bookingFor(ctx context.Context, session models.CheckoutSession) (models.Booking, error) {
	tourID, err := strconv.ParseInt(session.ClientReferenceID, 10, 64)
	if err != nil {
		return models.Booking{}, fmt.Errorf("%w: client_reference_id %q", ErrMalformedEvent, session.ClientReferenceID)
	}

	userDoc, err := s.documents.FindOne(ctx, models.CollectionUsers, "email", strings.ToLower(session.CustomerEmail))
	if err != nil {
		if errors.Is(err, store.ErrDocumentNotFound) {
			return models.Booking{}, ErrCheckoutCustomerNotFound
		}
		return models.Booking{}, fmt.Errorf("user lookup failed: %w", err)
	}
	userID, _ := userDoc.ID()

	return models.Booking{
		Tour:  tourID,
		User:  userID,
		Price: float64(session.AmountTotal) / 100,
		Paid:  true,
	}, nil
}
