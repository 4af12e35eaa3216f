package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"transit/internal/domain"
	"transit/internal/repository"
)

// PassRepository is a PostgreSQL implementation of repository.PassRepository.
type PassRepository struct {
	db *sql.DB
}

// NewPassRepository creates a new PostgreSQL pass repository.
func NewPassRepository(db *sql.DB) *PassRepository {
	return &PassRepository{db: db}
}

// CreateIfNone inserts the pass unless a still-valid pass exists for the
// same (user, route). The unique index on external_payment_ref is what
// makes concurrent settlement deliveries for the same session safe; the
// NOT EXISTS clause additionally stops a second session from stacking a
// pass on top of a still-valid one.
func (r *PassRepository) CreateIfNone(ctx context.Context, pass *domain.Pass, now time.Time) error {
	query := `
		INSERT INTO passes (id, user_id, route_id, fare, external_payment_ref, purchased_at, expires_at)
		SELECT $1, $2, $3, $4, $5, $6, $7
		WHERE NOT EXISTS (
			SELECT 1 FROM passes WHERE user_id = $2 AND route_id = $3 AND expires_at > $8
		)
	`

	result, err := r.db.ExecContext(ctx, query,
		pass.ID,
		pass.UserID,
		pass.RouteID,
		pass.Fare,
		pass.ExternalPaymentRef,
		pass.PurchasedAt,
		pass.ExpiresAt,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrDuplicate
		}
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrDuplicate
	}
	return nil
}

// GetActiveByUserAndRoute returns the user's non-expired pass for the route.
func (r *PassRepository) GetActiveByUserAndRoute(ctx context.Context, userID, routeID string, now time.Time) (*domain.Pass, error) {
	query := `
		SELECT id, user_id, route_id, fare, external_payment_ref, purchased_at, expires_at
		FROM passes
		WHERE user_id = $1 AND route_id = $2 AND expires_at > $3
		ORDER BY expires_at DESC
		LIMIT 1
	`
	return scanPass(r.db.QueryRowContext(ctx, query, userID, routeID, now))
}

// ListByUser returns the user's passes, newest first.
func (r *PassRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Pass, error) {
	query := `
		SELECT id, user_id, route_id, fare, external_payment_ref, purchased_at, expires_at
		FROM passes
		WHERE user_id = $1
		ORDER BY purchased_at DESC
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var passes []*domain.Pass
	for rows.Next() {
		var pass domain.Pass
		if err := rows.Scan(&pass.ID, &pass.UserID, &pass.RouteID, &pass.Fare, &pass.ExternalPaymentRef, &pass.PurchasedAt, &pass.ExpiresAt); err != nil {
			return nil, err
		}
		passes = append(passes, &pass)
	}
	return passes, rows.Err()
}

func scanPass(row *sql.Row) (*domain.Pass, error) {
	var pass domain.Pass
	err := row.Scan(&pass.ID, &pass.UserID, &pass.RouteID, &pass.Fare, &pass.ExternalPaymentRef, &pass.PurchasedAt, &pass.ExpiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &pass, nil
}
