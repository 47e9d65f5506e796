package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"premium-blog-api/internal/client"
	"premium-blog-api/internal/dto"
	"premium-blog-api/internal/model"
	"premium-blog-api/internal/repository"

	"github.com/rs/zerolog/log"
	"github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/gorm"
)

type BillingService interface {
	CreateCheckoutSession(ctx context.Context, userID string) (*dto.CheckoutResponse, error)
	VerifySession(ctx context.Context, sessionID string) (*dto.VerifyResponse, error)
	HandleWebhook(ctx context.Context, signature string, body []byte) error
}

type billingServiceImpl struct {
	db               *gorm.DB
	stripeClient     client.StripeClient
	webhookSecret    string
	userRepo         repository.UserRepository
	grantRepo        repository.GrantRepository
	webhookEventRepo repository.WebhookEventRepository
}

func NewBillingService(
	db *gorm.DB,
	stripeClient client.StripeClient,
	webhookSecret string,
	userRepo repository.UserRepository,
	grantRepo repository.GrantRepository,
	webhookEventRepo repository.WebhookEventRepository,
) BillingService {
	return &billingServiceImpl{
		db:               db,
		stripeClient:     stripeClient,
		webhookSecret:    webhookSecret,
		userRepo:         userRepo,
		grantRepo:        grantRepo,
		webhookEventRepo: webhookEventRepo,
	}
}

// CreateCheckoutSession opens a payment session for the caller. No local
// state is written; Stripe is the system of record for the session.
func (s *billingServiceImpl) CreateCheckoutSession(ctx context.Context, userID string) (*dto.CheckoutResponse, error) {
	resp, err := s.stripeClient.CreateCheckoutSession(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	return &dto.CheckoutResponse{
		ID:  resp.SessionID,
		URL: resp.CheckoutURL,
	}, nil
}

// VerifySession asks Stripe whether the session's payment actually settled.
// The client's redirect to the success URL is never proof of payment, so
// nothing is granted until the provider confirms it out-of-band.
func (s *billingServiceImpl) VerifySession(ctx context.Context, sessionID string) (*dto.VerifyResponse, error) {
	sessionID = strings.TrimSpace(sessionID)
	if sessionID == "" {
		return nil, fmt.Errorf("%w: empty session id", ErrInvalidSession)
	}

	sess, err := s.stripeClient.GetCheckoutSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, client.ErrSessionNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrInvalidSession, sessionID)
		}
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	if !sess.Paid {
		return &dto.VerifyResponse{Status: dto.VerificationNotPaid}, nil
	}

	if err := s.grantPremium(ctx, sess.ID, sess.UserID); err != nil {
		return nil, err
	}

	return &dto.VerifyResponse{Status: dto.VerificationPaid, Premium: true}, nil
}

// grantPremium durably upgrades the user the session was opened for. The
// user id comes from the session metadata written at checkout creation,
// never from client input. Safe to re-apply for the same session.
func (s *billingServiceImpl) grantPremium(ctx context.Context, sessionID, userID string) error {
	if userID == "" {
		// Paid session with no resolvable user: money may have moved, but
		// there is nobody to upgrade. Surface for manual reconciliation.
		log.Error().
			Str("session_id", sessionID).
			Msg("paid checkout session carries no user id metadata")
		return fmt.Errorf("%w: session has no associated user", ErrInvalidSession)
	}

	var unknownUser bool
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		applied, err := s.grantRepo.Apply(ctx, tx, &model.PremiumGrant{
			SessionID: sessionID,
			UserID:    userID,
		})
		if err != nil {
			return fmt.Errorf("record premium grant: %w", err)
		}
		if !applied {
			// Replayed session; the upgrade already landed.
			return nil
		}

		if err := s.userRepo.SetPremium(ctx, tx, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				unknownUser = true
			}
			return fmt.Errorf("set premium flag: %w", err)
		}
		return nil
	})

	if err != nil {
		if unknownUser {
			log.Error().
				Str("session_id", sessionID).
				Str("user_id", userID).
				Msg("paid checkout session references unknown user")
			return fmt.Errorf("%w: session user does not exist", ErrInvalidSession)
		}
		log.Error().Err(err).
			Str("session_id", sessionID).
			Str("user_id", userID).
			Msg("entitlement write failed after confirmed payment, manual reconciliation required")
		return ErrEntitlementWrite
	}

	return nil
}

// HandleWebhook processes provider notifications. checkout.session.completed
// is the authoritative grant trigger; the client-initiated verify call is
// only an accelerator, so a user who closes the tab after paying is still
// upgraded.
func (s *billingServiceImpl) HandleWebhook(ctx context.Context, signature string, body []byte) error {
	event, err := webhook.ConstructEventWithOptions(body, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrWebhookSignature, err)
	}

	processed, err := s.webhookEventRepo.Exists(ctx, event.ID)
	if err != nil {
		return fmt.Errorf("check webhook event: %w", err)
	}
	if processed {
		return nil
	}

	switch event.Type {
	case "checkout.session.completed":
		var sess model.CheckoutSessionEvent
		if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
			return fmt.Errorf("decode checkout.session payload: %w", err)
		}
		if sess.PaymentStatus == "paid" {
			if err := s.grantPremium(ctx, sess.ID, sess.Metadata["user_id"]); err != nil {
				return err
			}
		}
	default:
		log.Info().
			Str("type", string(event.Type)).
			Str("event_id", event.ID).
			Msg("stripe webhook ignored (unhandled type)")
	}

	return s.webhookEventRepo.MarkProcessed(ctx, event.ID, string(event.Type))
}
