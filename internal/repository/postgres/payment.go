package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"transit/internal/domain"
	"transit/internal/repository"
)

// PaymentRepository is a PostgreSQL implementation of repository.PaymentRepository.
type PaymentRepository struct {
	db *sql.DB
}

// NewPaymentRepository creates a new PostgreSQL payment repository.
func NewPaymentRepository(db *sql.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

const paymentColumns = `id, user_id, purchase_type, amount, external_session_id, checkout_url, status, route_id, station_id, bus_id, created_at`

// Create persists a new payment.
func (r *PaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		payment.ID,
		payment.UserID,
		payment.PurchaseType,
		payment.Amount,
		payment.ExternalSessionID,
		payment.CheckoutURL,
		payment.Status,
		payment.RouteID,
		payment.StationID,
		payment.BusID,
		payment.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a payment by ID.
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, id))
}

// GetByExternalSessionID retrieves a payment by the provider's session id.
func (r *PaymentRepository) GetByExternalSessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE external_session_id = $1`
	return scanPayment(r.db.QueryRowContext(ctx, query, sessionID))
}

// FindPendingByUserAndType returns the newest pending payment of the given
// type created by the user at or after since. Returns nil when none exists.
func (r *PaymentRepository) FindPendingByUserAndType(ctx context.Context, userID string, purchaseType domain.PurchaseType, since time.Time) (*domain.Payment, error) {
	query := `
		SELECT ` + paymentColumns + `
		FROM payments
		WHERE user_id = $1 AND purchase_type = $2 AND status = $3 AND created_at >= $4
		ORDER BY created_at DESC
		LIMIT 1
	`

	payment, err := scanPayment(r.db.QueryRowContext(ctx, query, userID, purchaseType, domain.PaymentStatusPending, since))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil
	}
	return payment, err
}

// MarkCompleted atomically moves the payment from PENDING to COMPLETED.
// The conditional update serializes concurrent settlement of the same
// session via the row lock: the loser observes zero rows affected.
func (r *PaymentRepository) MarkCompleted(ctx context.Context, sessionID string) (bool, error) {
	query := `UPDATE payments SET status = $1 WHERE external_session_id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, domain.PaymentStatusCompleted, sessionID, domain.PaymentStatusPending)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// MarkFailed moves a pending payment to FAILED. Terminal states are never
// reversed, so completed or already-failed payments are left untouched.
func (r *PaymentRepository) MarkFailed(ctx context.Context, sessionID string) error {
	query := `UPDATE payments SET status = $1 WHERE external_session_id = $2 AND status = $3`

	_, err := r.db.ExecContext(ctx, query, domain.PaymentStatusFailed, sessionID, domain.PaymentStatusPending)
	return err
}

func scanPayment(row *sql.Row) (*domain.Payment, error) {
	var payment domain.Payment
	err := row.Scan(
		&payment.ID,
		&payment.UserID,
		&payment.PurchaseType,
		&payment.Amount,
		&payment.ExternalSessionID,
		&payment.CheckoutURL,
		&payment.Status,
		&payment.RouteID,
		&payment.StationID,
		&payment.BusID,
		&payment.CreatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
