package http

import (
	"errors"
	"net/http"

	"github.com/MKhiriev/go-natours/internal/apperror"
	"github.com/MKhiriev/go-natours/internal/logger"
	"github.com/MKhiriev/go-natours/internal/pipeline"
	"github.com/MKhiriev/go-natours/internal/utils"
)

const (
	webhookPath            = "/webhook-checkout"
	webhookSignatureHeader = "Stripe-Signature"
)

// webhook serves POST /webhook-checkout from the raw request bytes. It sits
// ahead of the body governor because the signature covers the exact payload
// and must not see a re-encoded one.
func (h *Handler) webhook() pipeline.Filter {
	limit := h.cfg.Webhook.MaxBytes

	return pipeline.Named("webhook", func(x *pipeline.Exchange) (pipeline.Outcome, error) {
		r := x.Request
		if r.Method != http.MethodPost || r.URL.Path != webhookPath {
			return pipeline.Continue, nil
		}
		if r.ContentLength > limit {
			return pipeline.Handled, tooLarge(limit)
		}

		payload, err := readBounded(r.Body, limit)
		_ = r.Body.Close()
		if errors.Is(err, ErrBodyTooLarge) {
			return pipeline.Handled, tooLarge(limit)
		}
		if err != nil {
			return pipeline.Handled, apperror.BadRequest("Could not read request body").WithCause(err)
		}

		return pipeline.Handled, h.checkoutWebhook(x.Writer, r, payload)
	})
}

type webhookReceipt struct {
	Received bool `json:"received"`
}

func (h *Handler) checkoutWebhook(w http.ResponseWriter, r *http.Request, payload []byte) error {
	log := logger.FromRequest(r)

	booking, err := h.services.CheckoutService.HandleWebhook(r.Context(), payload, r.Header.Get(webhookSignatureHeader))
	if err != nil {
		log.Err(err).Msg("webhook rejected")
		return mapError(err)
	}
	if booking != nil {
		id, _ := booking.ID()
		log.Info().Int64("booking_id", id).Msg("booking created from checkout")
	}

	_, err = utils.WriteJSON(w, webhookReceipt{Received: true}, http.StatusOK)
	return err
}
