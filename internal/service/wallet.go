package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"transit/internal/domain"
	"transit/internal/repository"
)

// WalletService owns per-user balances and their append-only ledgers.
// Atomicity lives in the repository; this layer validates and translates
// storage outcomes into business results.
type WalletService struct {
	walletRepo repository.WalletRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// Credit adds amount to the user's balance and returns the new balance.
// Crediting a user without a wallet creates one. A repeated credit for the
// same related entity is a no-op returning the current balance.
func (s *WalletService) Credit(ctx context.Context, userID string, amount float64, reason, relatedID string) (float64, error) {
	if userID == "" {
		return 0, ErrInvalidUserID
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.walletRepo.Credit(ctx, &domain.WalletTransaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Amount:          amount,
		Direction:       domain.DirectionCredit,
		Reason:          reason,
		RelatedEntityID: relatedID,
		CreatedAt:       time.Now(),
	})
	if errors.Is(err, repository.ErrDuplicate) {
		return balance, nil
	}
	return balance, err
}

// Debit subtracts amount from the user's balance and returns the new
// balance. Fails with ErrInsufficientFunds when the balance does not cover
// the amount; the wallet and ledger are left untouched.
func (s *WalletService) Debit(ctx context.Context, userID string, amount float64, reason, relatedID string) (float64, error) {
	if userID == "" {
		return 0, ErrInvalidUserID
	}
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}

	balance, err := s.walletRepo.Debit(ctx, &domain.WalletTransaction{
		ID:              uuid.New().String(),
		UserID:          userID,
		Amount:          amount,
		Direction:       domain.DirectionDebit,
		Reason:          reason,
		RelatedEntityID: relatedID,
		CreatedAt:       time.Now(),
	})
	if errors.Is(err, repository.ErrInsufficientBalance) {
		return balance, ErrInsufficientFunds
	}
	if errors.Is(err, repository.ErrDuplicate) {
		return balance, nil
	}
	return balance, err
}

// GetBalance returns the user's balance. Users never credited report zero.
func (s *WalletService) GetBalance(ctx context.Context, userID string) (float64, error) {
	if userID == "" {
		return 0, ErrInvalidUserID
	}

	wallet, err := s.walletRepo.GetByUserID(ctx, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return wallet.Balance, nil
}

// ListTransactions returns the user's ledger entries, newest first.
func (s *WalletService) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.walletRepo.ListTransactions(ctx, userID, limit, offset)
}
