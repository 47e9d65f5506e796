package service

import "errors"

// Sentinel errors the handlers translate at the boundary. Raw provider or
// store errors never reach a client.
var (
	// ErrInvalidSession: the session id is missing, malformed, unknown to
	// the provider, or carries no resolvable user. Not retryable.
	ErrInvalidSession = errors.New("invalid or unknown checkout session")

	// ErrProviderUnavailable: the payment provider was unreachable or
	// returned a fault. Transient; the caller may retry.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrEntitlementWrite: payment confirmed but the durable upgrade did
	// not land. Logged for manual reconciliation before being returned.
	ErrEntitlementWrite = errors.New("failed to persist entitlement")

	ErrWebhookSignature = errors.New("invalid webhook signature")

	ErrPostNotFound  = errors.New("post not found")
	ErrPostForbidden = errors.New("not the post author")

	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)
