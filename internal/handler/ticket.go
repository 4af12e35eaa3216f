package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"transit/internal/domain"
	"transit/internal/service"
)

// TicketHandler handles HTTP requests for tickets and passes.
type TicketHandler struct {
	ticketService *service.TicketService
	passService   *service.PassService
}

// NewTicketHandler creates a new TicketHandler.
func NewTicketHandler(ticketService *service.TicketService, passService *service.PassService) *TicketHandler {
	return &TicketHandler{
		ticketService: ticketService,
		passService:   passService,
	}
}

// TicketResponse is the HTTP response for ticket data.
type TicketResponse struct {
	ID           string  `json:"id"`
	UserID       string  `json:"user_id"`
	RouteID      string  `json:"route_id"`
	BusID        string  `json:"bus_id"`
	StartStation string  `json:"start_station"`
	EndStation   string  `json:"end_station"`
	Price        float64 `json:"price"`
	Status       string  `json:"status"`
	UsageCount   int     `json:"usage_count"`
	MaxUsage     int     `json:"max_usage"`
	ExpiresAt    string  `json:"expires_at"`
	LastUsedAt   string  `json:"last_used_at,omitempty"`
	CreatedAt    string  `json:"created_at"`
}

// PassResponse is the HTTP response for pass data.
type PassResponse struct {
	ID          string  `json:"id"`
	UserID      string  `json:"user_id"`
	RouteID     string  `json:"route_id"`
	Fare        float64 `json:"fare"`
	Valid       bool    `json:"valid"`
	PurchasedAt string  `json:"purchased_at"`
	ExpiresAt   string  `json:"expires_at"`
}

func ticketResponse(t *domain.Ticket) TicketResponse {
	resp := TicketResponse{
		ID:           t.ID,
		UserID:       t.UserID,
		RouteID:      t.RouteID,
		BusID:        t.BusID,
		StartStation: t.StartStation,
		EndStation:   t.EndStation,
		Price:        t.Price,
		Status:       string(t.Status),
		UsageCount:   t.UsageCount,
		MaxUsage:     t.MaxUsage,
		ExpiresAt:    t.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		CreatedAt:    t.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
	if !t.LastUsedAt.IsZero() {
		resp.LastUsedAt = t.LastUsedAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return resp
}

// GetTicket handles GET /v1/tickets/:id
func (h *TicketHandler) GetTicket(c *gin.Context) {
	ticket, err := h.ticketService.GetTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, ticketResponse(ticket))
}

// ListTickets handles GET /v1/tickets?user_id=...
func (h *TicketHandler) ListTickets(c *gin.Context) {
	tickets, err := h.ticketService.ListTickets(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TicketResponse, 0, len(tickets))
	for _, t := range tickets {
		response = append(response, ticketResponse(t))
	}
	respondJSON(c, http.StatusOK, response)
}

// UseTicket handles POST /v1/tickets/:id/use
func (h *TicketHandler) UseTicket(c *gin.Context) {
	ticket, err := h.ticketService.UseTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, ticketResponse(ticket))
}

// CancelTicket handles POST /v1/tickets/:id/cancel
func (h *TicketHandler) CancelTicket(c *gin.Context) {
	ticket, err := h.ticketService.CancelTicket(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, ticketResponse(ticket))
}

// ListPasses handles GET /v1/passes?user_id=...
func (h *TicketHandler) ListPasses(c *gin.Context) {
	passes, err := h.passService.ListPasses(c.Request.Context(), c.Query("user_id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PassResponse, 0, len(passes))
	for _, p := range passes {
		response = append(response, PassResponse{
			ID:          p.ID,
			UserID:      p.UserID,
			RouteID:     p.RouteID,
			Fare:        p.Fare,
			Valid:       p.IsValid(time.Now()),
			PurchasedAt: p.PurchasedAt.Format("2006-01-02T15:04:05Z07:00"),
			ExpiresAt:   p.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}
	respondJSON(c, http.StatusOK, response)
}

// GetActivePass handles GET /v1/passes/active?user_id=...&route_id=...
func (h *TicketHandler) GetActivePass(c *gin.Context) {
	pass, err := h.passService.GetActivePass(c.Request.Context(), c.Query("user_id"), c.Query("route_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondJSON(c, http.StatusOK, PassResponse{
		ID:          pass.ID,
		UserID:      pass.UserID,
		RouteID:     pass.RouteID,
		Fare:        pass.Fare,
		Valid:       pass.IsValid(time.Now()),
		PurchasedAt: pass.PurchasedAt.Format("2006-01-02T15:04:05Z07:00"),
		ExpiresAt:   pass.ExpiresAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}
