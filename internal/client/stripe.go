package client

import (
	"context"
	"errors"
	"fmt"

	"premium-blog-api/internal/config"

	stripe "github.com/stripe/stripe-go/v82"
	stripesession "github.com/stripe/stripe-go/v82/checkout/session"
)

// Stripe substitutes the real session id for this token when it builds the
// success redirect; the client reads it back from its own URL.
const checkoutSessionIDPlaceholder = "{CHECKOUT_SESSION_ID}"

// ErrSessionNotFound means Stripe has no session for the given id. Kept
// separate from transport faults so callers can tell tampering from outages.
var ErrSessionNotFound = errors.New("checkout session not found")

type StripeClient interface {
	CreateCheckoutSession(ctx context.Context, userID string) (*CreateSessionResponse, error)
	GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error)
}

type CreateSessionResponse struct {
	SessionID   string
	CheckoutURL string
}

// CheckoutSession is the verifier's view of a session: whether Stripe says
// the payment settled, and which user the session was opened for.
type CheckoutSession struct {
	ID     string
	Paid   bool
	UserID string
}

type stripeClientImpl struct {
	priceID string
	baseURL string
}

func NewStripeClient(stripeCfg *config.Stripe, baseURL string) StripeClient {
	stripe.Key = stripeCfg.SecretKey

	return &stripeClientImpl{
		priceID: stripeCfg.PriceID,
		baseURL: baseURL,
	}
}

func (c *stripeClientImpl) CreateCheckoutSession(ctx context.Context, userID string) (*CreateSessionResponse, error) {
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(c.priceID),
				Quantity: stripe.Int64(1),
			},
		},
		SuccessURL: stripe.String(fmt.Sprintf("%s/payment-success?session_id=%s", c.baseURL, checkoutSessionIDPlaceholder)),
		CancelURL:  stripe.String(fmt.Sprintf("%s/payment-cancelled", c.baseURL)),
		// The only channel for correlating the payment back to a user.
		Metadata: map[string]string{
			"user_id": userID,
		},
	}
	params.Context = ctx

	sess, err := stripesession.New(params)
	if err != nil {
		return nil, fmt.Errorf("stripe create checkout session: %w", err)
	}

	return &CreateSessionResponse{
		SessionID:   sess.ID,
		CheckoutURL: sess.URL,
	}, nil
}

func (c *stripeClientImpl) GetCheckoutSession(ctx context.Context, sessionID string) (*CheckoutSession, error) {
	params := &stripe.CheckoutSessionParams{}
	params.Context = ctx

	sess, err := stripesession.Get(sessionID, params)
	if err != nil {
		var stripeErr *stripe.Error
		if errors.As(err, &stripeErr) {
			if stripeErr.Code == stripe.ErrorCodeResourceMissing || stripeErr.HTTPStatusCode == 404 {
				return nil, ErrSessionNotFound
			}
		}
		return nil, fmt.Errorf("stripe get checkout session: %w", err)
	}

	return &CheckoutSession{
		ID:     sess.ID,
		Paid:   sess.PaymentStatus == stripe.CheckoutSessionPaymentStatusPaid,
		UserID: sess.Metadata["user_id"],
	}, nil
}
