package billing

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"docchat-backend/internal/shared/server/middleware"
	"docchat-backend/internal/shared/server/respond"
	"docchat-backend/internal/shared/telemetry"
)

// Handler serves billing routes.
type Handler struct {
	Stripe     *StripeClient
	PricePro   string
	SuccessURL string
	CancelURL  string
}

// NewHandler constructs a Handler.
func NewHandler(stripe *StripeClient, pricePro, successURL, cancelURL string) *Handler {
	return &Handler{
		Stripe:     stripe,
		PricePro:   pricePro,
		SuccessURL: successURL,
		CancelURL:  cancelURL,
	}
}

// RegisterRoutes attaches billing routes to the router group.
func (h *Handler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/billing/checkout", h.checkout)
}

type checkoutRequest struct {
	PlanID string `json:"planId"`
}

func (h *Handler) checkout(c *gin.Context) {
	userID := middleware.UserIDFromContext(c)

	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respond.Error(c, http.StatusBadRequest, "validation_error", "invalid request body", nil)
		return
	}

	switch strings.ToLower(strings.TrimSpace(req.PlanID)) {
	case "free":
		// Nothing to purchase.
		respond.JSON(c, http.StatusOK, gin.H{"message": "You are already on the free plan."})
	case "pro":
		if h.Stripe == nil || h.PricePro == "" {
			respond.Error(c, http.StatusInternalServerError, "billing_not_configured", "billing not configured", nil)
			return
		}
		session, err := h.Stripe.CreateCheckoutSession(c.Request.Context(), userID, h.PricePro, h.SuccessURL, h.CancelURL)
		if err != nil {
			telemetry.Error("billing.checkout.failed", map[string]any{
				"err":    err.Error(),
				"userId": userID,
			})
			respond.Error(c, http.StatusBadGateway, "checkout_failed", "failed to create checkout session", nil)
			return
		}
		respond.JSON(c, http.StatusOK, gin.H{
			"sessionId": session.ID,
			"url":       session.URL,
		})
	default:
		respond.Error(c, http.StatusBadRequest, "validation_error", "unknown planId", nil)
	}
}
