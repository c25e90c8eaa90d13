package models

// EventCheckoutCompleted is the only webhook event that creates a booking.
const EventCheckoutCompleted = "checkout.session.completed"

// CheckoutEvent is the subset of a payment-provider webhook event used to
// record a booking.
type CheckoutEvent struct {
	ID   string `json:"id"`
	Type string `json:"type"`
	Data struct {
		Object CheckoutSession `json:"object"`
	} `json:"data"`
}

// CheckoutSession describes a completed payment.
type CheckoutSession struct {
	ID                string `json:"id"`
	ClientReferenceID string `json:"client_reference_id"`
	CustomerEmail     string `json:"customer_email"`
	// AmountTotal is in the smallest currency unit.
	AmountTotal int64 `json:"amount_total"`
}

// Booking is the document created for a completed checkout.
type Booking struct {
	Tour  int64   `json:"tour"`
	User  int64   `json:"user"`
	Price float64 `json:"price"`
	Paid  bool    `json:"paid"`
}

// Document converts b to its stored form.
func (b Booking) Document() Document {
	return Document{
		"tour":  b.Tour,
		"user":  b.User,
		"price": b.Price,
		"paid":  b.Paid,
	}
}
