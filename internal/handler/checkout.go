package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"transit/internal/domain"
	"transit/internal/service"
)

// CheckoutHandler handles HTTP requests for checkout sessions.
type CheckoutHandler struct {
	checkoutService *service.CheckoutService
}

// NewCheckoutHandler creates a new CheckoutHandler.
func NewCheckoutHandler(checkoutService *service.CheckoutService) *CheckoutHandler {
	return &CheckoutHandler{checkoutService: checkoutService}
}

// CreateCheckoutRequest is the HTTP request body for opening a checkout session.
type CreateCheckoutRequest struct {
	UserID       string  `json:"user_id"`
	PurchaseType string  `json:"purchase_type"` // wallet_topup, pass, ticket
	Amount       float64 `json:"amount"`
	RouteID      string  `json:"route_id,omitempty"`
	StationID    string  `json:"station_id,omitempty"`
	BusID        string  `json:"bus_id,omitempty"`
}

// CreateCheckoutResponse is the HTTP response for opening a checkout session.
type CreateCheckoutResponse struct {
	PaymentID   string `json:"payment_id"`
	CheckoutURL string `json:"checkout_url"`
}

// PaymentResponse is the HTTP response for payment data.
type PaymentResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	PurchaseType string  `json:"purchase_type"`
	Amount       float64 `json:"amount"`
	Status       string  `json:"status"`
	CheckoutURL  string  `json:"checkout_url,omitempty"`
	RouteID      string  `json:"route_id,omitempty"`
	StationID    string  `json:"station_id,omitempty"`
	BusID        string  `json:"bus_id,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// CreateSession handles POST /v1/checkout
func (h *CheckoutHandler) CreateSession(c *gin.Context) {
	var req CreateCheckoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	result, err := h.checkoutService.CreateSession(c.Request.Context(), service.CreateSessionRequest{
		UserID:       req.UserID,
		PurchaseType: domain.PurchaseType(req.PurchaseType),
		Amount:       req.Amount,
		RouteID:      req.RouteID,
		StationID:    req.StationID,
		BusID:        req.BusID,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, CreateCheckoutResponse{
		PaymentID:   result.PaymentID,
		CheckoutURL: result.CheckoutURL,
	})
}

// GetPayment handles GET /v1/payments/:id
func (h *CheckoutHandler) GetPayment(c *gin.Context) {
	payment, err := h.checkoutService.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, PaymentResponse{
		ID:           payment.ID,
		UserID:       payment.UserID,
		PurchaseType: string(payment.PurchaseType),
		Amount:       payment.Amount,
		Status:       string(payment.Status),
		CheckoutURL:  payment.CheckoutURL,
		RouteID:      payment.RouteID,
		StationID:    payment.StationID,
		BusID:        payment.BusID,
		CreatedAt:    payment.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
