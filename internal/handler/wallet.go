package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"transit/internal/service"
)

// WalletHandler handles HTTP requests for wallet reads.
type WalletHandler struct {
	walletService *service.WalletService
}

// NewWalletHandler creates a new WalletHandler.
func NewWalletHandler(walletService *service.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// BalanceResponse is the HTTP response for a wallet balance.
type BalanceResponse struct {
	UserID  string  `json:"user_id"`
	Balance float64 `json:"balance"`
}

// TransactionResponse is the HTTP response for one ledger entry.
type TransactionResponse struct {
	ID              string  `json:"id"`
	Amount          float64 `json:"amount"`
	Direction       string  `json:"direction"`
	Reason          string  `json:"reason"`
	RelatedEntityID string  `json:"related_entity_id,omitempty"`
	CreatedAt       string  `json:"created_at"`
}

// GetBalance handles GET /v1/wallet/:userID
func (h *WalletHandler) GetBalance(c *gin.Context) {
	userID := c.Param("userID")

	balance, err := h.walletService.GetBalance(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, BalanceResponse{UserID: userID, Balance: balance})
}

// ListTransactions handles GET /v1/wallet/:userID/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID := c.Param("userID")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	entries, err := h.walletService.ListTransactions(c.Request.Context(), userID, limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TransactionResponse, 0, len(entries))
	for _, e := range entries {
		response = append(response, TransactionResponse{
			ID:              e.ID,
			Amount:          e.Amount,
			Direction:       string(e.Direction),
			Reason:          e.Reason,
			RelatedEntityID: e.RelatedEntityID,
			CreatedAt:       e.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	respondJSON(c, http.StatusOK, response)
}
