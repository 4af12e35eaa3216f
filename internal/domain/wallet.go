package domain

import "time"

// TransactionDirection marks a ledger entry as money in or money out.
type TransactionDirection string

const (
	DirectionCredit TransactionDirection = "CREDIT"
	DirectionDebit  TransactionDirection = "DEBIT"
)

// Wallet represents a rider's prepaid balance. The balance is mutated only
// through ledgered credit/debit operations and never goes negative.
type Wallet struct {
	UserID    string
	Balance   float64
	UpdatedAt time.Time
}

// WalletTransaction is an append-only ledger entry. The signed sum of a
// user's entries always equals the wallet balance.
type WalletTransaction struct {
	ID              string
	UserID          string
	Amount          float64
	Direction       TransactionDirection
	Reason          string
	RelatedEntityID string
	CreatedAt       time.Time
}
