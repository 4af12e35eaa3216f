package postgres

import (
	"context"
	"database/sql"
	"errors"

	"transit/internal/domain"
	"transit/internal/repository"
)

// WalletRepository is a PostgreSQL implementation of repository.WalletRepository.
// Balance updates and ledger appends run in one transaction so no partial
// write is ever visible.
type WalletRepository struct {
	db *sql.DB
}

// NewWalletRepository creates a new PostgreSQL wallet repository.
func NewWalletRepository(db *sql.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// Credit adds the entry amount to the user's balance, creating the wallet
// at zero if absent. A replay of the same (direction, related entity) entry
// writes nothing and returns ErrDuplicate with the current balance.
func (r *WalletRepository) Credit(ctx context.Context, entry *domain.WalletTransaction) (float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	if err := r.appendEntry(ctx, tx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			balance, berr := r.currentBalance(ctx, r.db, entry.UserID)
			if berr != nil {
				return 0, berr
			}
			return balance, repository.ErrDuplicate
		}
		return 0, err
	}

	query := `
		INSERT INTO wallets (user_id, balance, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE
		SET balance = wallets.balance + EXCLUDED.balance, updated_at = EXCLUDED.updated_at
		RETURNING balance
	`

	var balance float64
	if err := tx.QueryRowContext(ctx, query, entry.UserID, entry.Amount, entry.CreatedAt).Scan(&balance); err != nil {
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// Debit subtracts the entry amount from the user's balance. The balance
// check and the update are a single conditional statement, so two
// concurrent debits that would jointly overdraw cannot both succeed.
func (r *WalletRepository) Debit(ctx context.Context, entry *domain.WalletTransaction) (float64, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() { _ = tx.Rollback() }()

	query := `
		UPDATE wallets
		SET balance = balance - $1, updated_at = $2
		WHERE user_id = $3 AND balance >= $1
		RETURNING balance
	`

	var balance float64
	err = tx.QueryRowContext(ctx, query, entry.Amount, entry.CreatedAt, entry.UserID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return r.debitRejected(ctx, entry.UserID)
	}
	if err != nil {
		return 0, err
	}

	if err := r.appendEntry(ctx, tx, entry); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			// Already debited for this entity: discard this attempt and
			// report the balance as it stands.
			current, berr := r.currentBalance(ctx, r.db, entry.UserID)
			if berr != nil {
				return 0, berr
			}
			return current, repository.ErrDuplicate
		}
		return 0, err
	}

	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return balance, nil
}

// debitRejected distinguishes a missing wallet from an underfunded one.
func (r *WalletRepository) debitRejected(ctx context.Context, userID string) (float64, error) {
	balance, err := r.currentBalance(ctx, r.db, userID)
	if errors.Is(err, repository.ErrNotFound) {
		return 0, repository.ErrInsufficientBalance
	}
	if err != nil {
		return 0, err
	}
	return balance, repository.ErrInsufficientBalance
}

// GetByUserID retrieves a wallet.
func (r *WalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	query := `SELECT user_id, balance, updated_at FROM wallets WHERE user_id = $1`

	var wallet domain.Wallet
	err := r.db.QueryRowContext(ctx, query, userID).Scan(&wallet.UserID, &wallet.Balance, &wallet.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wallet, nil
}

// ListTransactions returns the user's ledger entries, newest first.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, error) {
	query := `
		SELECT id, user_id, amount, direction, reason, related_entity_id, created_at
		FROM wallet_transactions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryContext(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.WalletTransaction
	for rows.Next() {
		var entry domain.WalletTransaction
		if err := rows.Scan(&entry.ID, &entry.UserID, &entry.Amount, &entry.Direction, &entry.Reason, &entry.RelatedEntityID, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, &entry)
	}
	return entries, rows.Err()
}

func (r *WalletRepository) appendEntry(ctx context.Context, q Querier, entry *domain.WalletTransaction) error {
	query := `
		INSERT INTO wallet_transactions (id, user_id, amount, direction, reason, related_entity_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := q.ExecContext(ctx, query,
		entry.ID,
		entry.UserID,
		entry.Amount,
		entry.Direction,
		entry.Reason,
		entry.RelatedEntityID,
		entry.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

func (r *WalletRepository) currentBalance(ctx context.Context, q Querier, userID string) (float64, error) {
	var balance float64
	err := q.QueryRowContext(ctx, `SELECT balance FROM wallets WHERE user_id = $1`, userID).Scan(&balance)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, repository.ErrNotFound
	}
	return balance, err
}
