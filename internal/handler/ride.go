package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"transit/internal/domain"
	"transit/internal/service"
)

// RideHandler handles HTTP requests for rides and fare quotes.
type RideHandler struct {
	rideService *service.RideService
}

// NewRideHandler creates a new RideHandler.
func NewRideHandler(rideService *service.RideService) *RideHandler {
	return &RideHandler{rideService: rideService}
}

// StartRideRequest is the HTTP request body for starting a ride.
type StartRideRequest struct {
	UserID  string  `json:"user_id"`
	RouteID string  `json:"route_id,omitempty"`
	BusID   string  `json:"bus_id,omitempty"`
	Lat     float64 `json:"lat"`
	Lng     float64 `json:"lng"`
}

// EndRideRequest is the HTTP request body for ending a ride.
type EndRideRequest struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// FareResponse is the fare breakdown attached to completed rides and quotes.
type FareResponse struct {
	OriginalFare       float64 `json:"original_fare"`
	DiscountAmount     float64 `json:"discount_amount"`
	DiscountPercentage float64 `json:"discount_percentage"`
	Concession         string  `json:"concession"`
	FinalFare          float64 `json:"final_fare"`
}

// RideResponse is the HTTP response for ride data.
type RideResponse struct {
	ID            string        `json:"id"`
	UserID        string        `json:"user_id"`
	RouteID       string        `json:"route_id,omitempty"`
	BusID         string        `json:"bus_id,omitempty"`
	Status        string        `json:"status"`
	StartLat      float64       `json:"start_lat"`
	StartLng      float64       `json:"start_lng"`
	EndLat        float64       `json:"end_lat,omitempty"`
	EndLng        float64       `json:"end_lng,omitempty"`
	DistanceKm    float64       `json:"distance_km,omitempty"`
	Method        string        `json:"calculation_method,omitempty"`
	Fare          *FareResponse `json:"fare,omitempty"`
	PaymentStatus string        `json:"payment_status"`
	CreatedAt     string        `json:"created_at"`
	CompletedAt   string        `json:"completed_at,omitempty"`
}

// EndRideResponse is the HTTP response for ending a ride.
type EndRideResponse struct {
	Ride  RideResponse         `json:"ride"`
	Debit service.DebitOutcome `json:"debit"`
}

// QuoteResponse is the HTTP response for a fare quote.
type QuoteResponse struct {
	DistanceKm  float64      `json:"distance_km"`
	DurationMin float64      `json:"duration_min"`
	Method      string       `json:"calculation_method"`
	Fare        FareResponse `json:"fare"`
}

func rideResponse(r *domain.Ride) RideResponse {
	resp := RideResponse{
		ID:            r.ID,
		UserID:        r.UserID,
		RouteID:       r.RouteID,
		BusID:         r.BusID,
		Status:        string(r.Status),
		StartLat:      r.Start.Lat,
		StartLng:      r.Start.Lng,
		PaymentStatus: string(r.PaymentStatus),
		CreatedAt:     r.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if r.End != nil {
		resp.EndLat = r.End.Lat
		resp.EndLng = r.End.Lng
		resp.DistanceKm = r.DistanceKm
		resp.Method = string(r.Method)
		resp.Fare = &FareResponse{
			OriginalFare:       r.Fare.OriginalFare,
			DiscountAmount:     r.Fare.DiscountAmount,
			DiscountPercentage: r.Fare.DiscountPercentage,
			Concession:         string(r.Fare.Concession),
			FinalFare:          r.Fare.FinalFare,
		}
	}
	if !r.CompletedAt.IsZero() {
		resp.CompletedAt = r.CompletedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// StartRide handles POST /v1/rides
func (h *RideHandler) StartRide(c *gin.Context) {
	var req StartRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	ride, err := h.rideService.StartRide(c.Request.Context(), req.UserID, req.RouteID, req.BusID, domain.GeoPoint{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusCreated, rideResponse(ride))
}

// EndRide handles POST /v1/rides/:id/end
func (h *RideHandler) EndRide(c *gin.Context) {
	var req EndRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}

	summary, err := h.rideService.EndRide(c.Request.Context(), c.Param("id"), domain.GeoPoint{Lat: req.Lat, Lng: req.Lng})
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, EndRideResponse{
		Ride:  rideResponse(summary.Ride),
		Debit: summary.Debit,
	})
}

// GetRide handles GET /v1/rides/:id
func (h *RideHandler) GetRide(c *gin.Context) {
	ride, err := h.rideService.GetRide(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, rideResponse(ride))
}

// GetActiveRide handles GET /v1/rides/active?user_id=...
func (h *RideHandler) GetActiveRide(c *gin.Context) {
	ride, err := h.rideService.GetActiveRide(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, rideResponse(ride))
}

// QuoteFare handles GET /v1/fare/estimate
func (h *RideHandler) QuoteFare(c *gin.Context) {
	originLat, err1 := strconv.ParseFloat(c.Query("origin_lat"), 64)
	originLng, err2 := strconv.ParseFloat(c.Query("origin_lng"), 64)
	destLat, err3 := strconv.ParseFloat(c.Query("dest_lat"), 64)
	destLng, err4 := strconv.ParseFloat(c.Query("dest_lng"), 64)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "origin and destination coordinates are required"})
		return
	}

	concession := domain.ConcessionType(c.DefaultQuery("concession", string(domain.ConcessionGeneral)))

	estimate, fare, err := h.rideService.QuoteFare(c.Request.Context(),
		domain.GeoPoint{Lat: originLat, Lng: originLng},
		domain.GeoPoint{Lat: destLat, Lng: destLng},
		concession)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, QuoteResponse{
		DistanceKm:  estimate.DistanceKm,
		DurationMin: estimate.DurationMin,
		Method:      string(estimate.Method),
		Fare: FareResponse{
			OriginalFare:       fare.OriginalFare,
			DiscountAmount:     fare.DiscountAmount,
			DiscountPercentage: fare.DiscountPercentage,
			Concession:         string(fare.Concession),
			FinalFare:          fare.FinalFare,
		},
	})
}
