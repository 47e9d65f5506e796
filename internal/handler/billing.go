package handler

import (
	"errors"
	"io"
	"net/http"

	"premium-blog-api/internal/dto"
	"premium-blog-api/internal/middleware"
	"premium-blog-api/internal/service"

	"github.com/labstack/echo/v4"
)

const webhookBodyLimit = 1024 * 1024 // 1 MiB

type BillingHandler struct {
	billingService service.BillingService
}

func NewBillingHandler(billingService service.BillingService) *BillingHandler {
	return &BillingHandler{
		billingService: billingService,
	}
}

func (h *BillingHandler) CreateCheckoutSession(c echo.Context) error {
	ctx := c.Request().Context()

	// The authenticated caller is the session's user; a client-supplied
	// user id is never trusted here.
	userID := middleware.UserID(c)

	resp, err := h.billingService.CreateCheckoutSession(ctx, userID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, dto.ErrorResponse{
			Error: "unable to create checkout session",
			Code:  "provider_error",
		})
	}

	return c.JSON(http.StatusOK, resp)
}

func (h *BillingHandler) VerifyPayment(c echo.Context) error {
	ctx := c.Request().Context()

	var req dto.VerifyRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid req body")
	}

	result, err := h.billingService.VerifySession(ctx, req.SessionID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidSession):
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "invalid or unknown checkout session",
				Code:  "invalid_session",
			})
		case errors.Is(err, service.ErrProviderUnavailable):
			return c.JSON(http.StatusBadGateway, dto.ErrorResponse{
				Error: "payment provider unavailable, please retry",
				Code:  "provider_error",
			})
		case errors.Is(err, service.ErrEntitlementWrite):
			return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
				Error: "payment confirmed but upgrade failed, contact support",
				Code:  "entitlement_write_failure",
			})
		default:
			return err
		}
	}

	if result.Status == dto.VerificationNotPaid {
		// Expected business outcome, not an operational fault.
		return c.JSON(http.StatusConflict, result)
	}

	return c.JSON(http.StatusOK, result)
}

func (h *BillingHandler) Webhook(c echo.Context) error {
	ctx := c.Request().Context()

	c.Request().Body = http.MaxBytesReader(c.Response(), c.Request().Body, webhookBodyLimit)
	body, err := io.ReadAll(c.Request().Body)
	if err != nil {
		return c.NoContent(http.StatusBadRequest)
	}

	signature := c.Request().Header.Get("Stripe-Signature")

	if err := h.billingService.HandleWebhook(ctx, signature, body); err != nil {
		if errors.Is(err, service.ErrWebhookSignature) {
			return c.JSON(http.StatusBadRequest, dto.ErrorResponse{
				Error: "invalid stripe signature",
			})
		}
		return c.JSON(http.StatusInternalServerError, dto.ErrorResponse{
			Error: "processing failed",
		})
	}

	return c.JSON(http.StatusOK, map[string]bool{"received": true})
}
