package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"premium-blog-api/internal/client"
	"premium-blog-api/internal/dto"
	"premium-blog-api/internal/model"
	"premium-blog-api/internal/repository"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	stripewebhook "github.com/stripe/stripe-go/v82/webhook"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testWebhookSecret = "whsec_test_secret"

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Post{},
		&model.PremiumGrant{},
		&model.WebhookEvent{},
	))

	return db
}

type fakeStripeClient struct {
	mu        sync.Mutex
	sessions  map[string]*client.CheckoutSession
	nextID    int
	createErr error
	getErr    error
}

func newFakeStripeClient() *fakeStripeClient {
	return &fakeStripeClient{
		sessions: make(map[string]*client.CheckoutSession),
	}
}

func (f *fakeStripeClient) CreateCheckoutSession(_ context.Context, userID string) (*client.CreateSessionResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.createErr != nil {
		return nil, f.createErr
	}

	f.nextID++
	id := fmt.Sprintf("cs_test_%03d", f.nextID)
	f.sessions[id] = &client.CheckoutSession{ID: id, UserID: userID}

	return &client.CreateSessionResponse{
		SessionID:   id,
		CheckoutURL: "https://checkout.stripe.example/c/pay/" + id,
	}, nil
}

func (f *fakeStripeClient) GetCheckoutSession(_ context.Context, sessionID string) (*client.CheckoutSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.getErr != nil {
		return nil, f.getErr
	}

	sess, ok := f.sessions[sessionID]
	if !ok {
		return nil, client.ErrSessionNotFound
	}
	return sess, nil
}

func (f *fakeStripeClient) markPaid(sessionID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions[sessionID].Paid = true
}

type billingFixture struct {
	db        *gorm.DB
	stripe    *fakeStripeClient
	userRepo  repository.UserRepository
	grantRepo repository.GrantRepository
	svc       BillingService
}

func newBillingFixture(t *testing.T) *billingFixture {
	t.Helper()

	db := newTestDB(t)
	stripe := newFakeStripeClient()
	userRepo := repository.NewUserRepository(db)
	grantRepo := repository.NewGrantRepository(db)

	return &billingFixture{
		db:        db,
		stripe:    stripe,
		userRepo:  userRepo,
		grantRepo: grantRepo,
		svc: NewBillingService(
			db, stripe, testWebhookSecret,
			userRepo,
			grantRepo,
			repository.NewWebhookEventRepository(db),
		),
	}
}

func (f *billingFixture) createUser(t *testing.T) *model.User {
	t.Helper()

	user := &model.User{
		ID:           uuid.NewString(),
		Email:        uuid.NewString() + "@example.com",
		PasswordHash: "x",
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

func (f *billingFixture) grantCount(t *testing.T) int64 {
	t.Helper()

	var count int64
	require.NoError(t, f.db.Model(&model.PremiumGrant{}).Count(&count).Error)
	return count
}

func TestVerifySessionGrantsPremiumOnce(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	user := f.createUser(t)

	checkout, err := f.svc.CreateCheckoutSession(ctx, user.ID)
	require.NoError(t, err)
	f.stripe.markPaid(checkout.ID)

	result, err := f.svc.VerifySession(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.VerificationPaid, result.Status)
	assert.True(t, result.Premium)

	premium, err := f.userRepo.IsPremium(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, premium)

	// Re-verifying the same paid session must succeed without a second grant.
	result, err = f.svc.VerifySession(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.VerificationPaid, result.Status)
	assert.EqualValues(t, 1, f.grantCount(t))
}

func TestVerifySessionUnpaidDoesNotMutate(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	user := f.createUser(t)

	checkout, err := f.svc.CreateCheckoutSession(ctx, user.ID)
	require.NoError(t, err)

	result, err := f.svc.VerifySession(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.VerificationNotPaid, result.Status)

	premium, err := f.userRepo.IsPremium(ctx, user.ID)
	require.NoError(t, err)
	assert.False(t, premium)
	assert.EqualValues(t, 0, f.grantCount(t))
}

func TestVerifySessionInvalidID(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	_, err := f.svc.VerifySession(ctx, "")
	assert.ErrorIs(t, err, ErrInvalidSession)

	_, err = f.svc.VerifySession(ctx, "cs_does_not_exist")
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)
}

func TestVerifySessionProviderFault(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	f.stripe.getErr = errors.New("connection reset")

	_, err := f.svc.VerifySession(ctx, "cs_test_001")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
	assert.NotErrorIs(t, err, ErrInvalidSession)
}

func TestVerifySessionWithoutUserFailsSafely(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	// Session created with no user id in the metadata: still a valid
	// provider session, but there is nobody to upgrade.
	checkout, err := f.svc.CreateCheckoutSession(ctx, "")
	require.NoError(t, err)
	f.stripe.markPaid(checkout.ID)

	_, err = f.svc.VerifySession(ctx, checkout.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)
	assert.EqualValues(t, 0, f.grantCount(t))
}

func TestVerifySessionUnknownUserRollsBack(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()

	checkout, err := f.svc.CreateCheckoutSession(ctx, "ghost-user")
	require.NoError(t, err)
	f.stripe.markPaid(checkout.ID)

	_, err = f.svc.VerifySession(ctx, checkout.ID)
	assert.ErrorIs(t, err, ErrInvalidSession)

	// The grant row must not survive the failed upgrade.
	assert.EqualValues(t, 0, f.grantCount(t))
}

func TestVerifySessionEntitlementWriteFailure(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	user := f.createUser(t)

	checkout, err := f.svc.CreateCheckoutSession(ctx, user.ID)
	require.NoError(t, err)
	f.stripe.markPaid(checkout.ID)

	// Break the store after the payment settled: the money moved but the
	// grant cannot land.
	require.NoError(t, f.db.Migrator().DropTable(&model.User{}))

	_, err = f.svc.VerifySession(ctx, checkout.ID)
	assert.ErrorIs(t, err, ErrEntitlementWrite)
	assert.NotErrorIs(t, err, ErrInvalidSession)
	assert.NotErrorIs(t, err, ErrProviderUnavailable)

	// The grant row must not survive the failed upgrade.
	assert.EqualValues(t, 0, f.grantCount(t))
}

func signedWebhookPayload(t *testing.T, payload string) (string, []byte) {
	t.Helper()

	signed := stripewebhook.GenerateTestSignedPayload(&stripewebhook.UnsignedPayload{
		Payload:   []byte(payload),
		Secret:    testWebhookSecret,
		Timestamp: time.Now(),
		Scheme:    "v1",
	})
	return signed.Header, signed.Payload
}

func checkoutCompletedEvent(eventID, sessionID, userID string) string {
	return fmt.Sprintf(`{
		"id": %q,
		"object": "event",
		"type": "checkout.session.completed",
		"data": {
			"object": {
				"id": %q,
				"object": "checkout.session",
				"status": "complete",
				"payment_status": "paid",
				"metadata": {"user_id": %q}
			}
		}
	}`, eventID, sessionID, userID)
}

func TestHandleWebhookGrantsPremium(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	user := f.createUser(t)

	sig, body := signedWebhookPayload(t, checkoutCompletedEvent("evt_1", "cs_test_hook_1", user.ID))
	require.NoError(t, f.svc.HandleWebhook(ctx, sig, body))

	premium, err := f.userRepo.IsPremium(ctx, user.ID)
	require.NoError(t, err)
	assert.True(t, premium)
	assert.EqualValues(t, 1, f.grantCount(t))
}

func TestHandleWebhookDeduplicatesEvents(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	user := f.createUser(t)

	payload := checkoutCompletedEvent("evt_dup", "cs_test_hook_2", user.ID)

	sig, body := signedWebhookPayload(t, payload)
	require.NoError(t, f.svc.HandleWebhook(ctx, sig, body))

	sig, body = signedWebhookPayload(t, payload)
	require.NoError(t, f.svc.HandleWebhook(ctx, sig, body))

	assert.EqualValues(t, 1, f.grantCount(t))
}

func TestHandleWebhookRejectsBadSignature(t *testing.T) {
	f := newBillingFixture(t)

	err := f.svc.HandleWebhook(context.Background(), "t=1,v1=deadbeef",
		[]byte(checkoutCompletedEvent("evt_bad", "cs_x", "u_x")))
	assert.ErrorIs(t, err, ErrWebhookSignature)
}

func TestHandleWebhookIgnoresUnhandledTypes(t *testing.T) {
	f := newBillingFixture(t)

	sig, body := signedWebhookPayload(t, `{
		"id": "evt_other",
		"object": "event",
		"type": "invoice.paid",
		"data": {"object": {}}
	}`)
	require.NoError(t, f.svc.HandleWebhook(context.Background(), sig, body))
	assert.EqualValues(t, 0, f.grantCount(t))
}

func TestWebhookAndVerifyConvergeOnOneGrant(t *testing.T) {
	f := newBillingFixture(t)
	ctx := context.Background()
	user := f.createUser(t)

	checkout, err := f.svc.CreateCheckoutSession(ctx, user.ID)
	require.NoError(t, err)
	f.stripe.markPaid(checkout.ID)

	// Webhook lands first, client-initiated verification arrives later.
	sig, body := signedWebhookPayload(t, checkoutCompletedEvent("evt_race", checkout.ID, user.ID))
	require.NoError(t, f.svc.HandleWebhook(ctx, sig, body))

	result, err := f.svc.VerifySession(ctx, checkout.ID)
	require.NoError(t, err)
	assert.Equal(t, dto.VerificationPaid, result.Status)
	assert.EqualValues(t, 1, f.grantCount(t))
}

func TestCreateCheckoutSessionProviderFault(t *testing.T) {
	f := newBillingFixture(t)

	f.stripe.createErr = errors.New("api key invalid")

	_, err := f.svc.CreateCheckoutSession(context.Background(), "u1")
	assert.ErrorIs(t, err, ErrProviderUnavailable)
}
