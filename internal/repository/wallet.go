package repository

import (
	"context"

	"transit/internal/domain"
)

// WalletRepository defines the persistence operations for wallets and their
// ledgers. Credit and Debit are atomic: the balance update and the ledger
// append happen together or not at all, and concurrent debits on the same
// user cannot jointly overdraw.
type WalletRepository interface {
	// Credit adds amount to the user's balance, creating the wallet at
	// zero if absent, and appends a ledger entry. When the entry's
	// (direction, related entity) pair has already been recorded, nothing
	// is written and ErrDuplicate is returned with the current balance.
	// This is what makes replayed settlement credits safe.
	Credit(ctx context.Context, entry *domain.WalletTransaction) (float64, error)

	// Debit subtracts amount from the user's balance and appends a ledger
	// entry. Returns ErrInsufficientBalance when the balance does not
	// cover the amount; the wallet is left untouched. Duplicate entries
	// behave as in Credit.
	Debit(ctx context.Context, entry *domain.WalletTransaction) (float64, error)

	// GetByUserID retrieves a wallet. Returns ErrNotFound for users that
	// have never been credited or debited.
	GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error)

	// ListTransactions returns the user's ledger entries, newest first.
	ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, error)
}
