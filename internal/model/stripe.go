package model

// CheckoutSessionEvent is a minimal view of the checkout.session object
// carried in a Stripe webhook event payload.
type CheckoutSessionEvent struct {
	ID            string            `json:"id"`
	Status        string            `json:"status"`
	PaymentStatus string            `json:"payment_status"`
	Metadata      map[string]string `json:"metadata"`
}
