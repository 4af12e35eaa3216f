package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"transit/internal/repository"
	"transit/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidUserID),
		errors.Is(err, service.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidPurchaseType),
		errors.Is(err, service.ErrMissingRoute),
		errors.Is(err, service.ErrMissingStationOrBus),
		errors.Is(err, service.ErrNegativeDistance),
		errors.Is(err, service.ErrInvalidCoordinates):
		return http.StatusBadRequest

	// Payment required
	case errors.Is(err, service.ErrInsufficientFunds):
		return http.StatusPaymentRequired

	// Conflict errors
	case errors.Is(err, service.ErrCheckoutInFlight),
		errors.Is(err, service.ErrTicketNotValidForUse),
		errors.Is(err, service.ErrTicketNotCancellable),
		errors.Is(err, service.ErrUserHasActiveRide),
		errors.Is(err, service.ErrRideNotActive),
		errors.Is(err, repository.ErrDuplicate):
		return http.StatusConflict

	// Upstream provider failures
	case errors.Is(err, service.ErrProviderUnavailable):
		return http.StatusBadGateway

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
