package repository

import (
	"context"
	"time"

	"transit/internal/domain"
)

// PaymentRepository defines the persistence operations for payments.
type PaymentRepository interface {
	// Create persists a new payment. Returns ErrDuplicate if a non-failed
	// payment already exists for the same external session id.
	Create(ctx context.Context, payment *domain.Payment) error

	// GetByID retrieves a payment by ID.
	GetByID(ctx context.Context, id string) (*domain.Payment, error)

	// GetByExternalSessionID retrieves a payment by the provider's session id.
	GetByExternalSessionID(ctx context.Context, sessionID string) (*domain.Payment, error)

	// FindPendingByUserAndType returns the newest pending payment of the
	// given type created by the user at or after since. Returns nil when
	// there is none.
	FindPendingByUserAndType(ctx context.Context, userID string, purchaseType domain.PurchaseType, since time.Time) (*domain.Payment, error)

	// MarkCompleted atomically moves the payment for the given external
	// session id from PENDING to COMPLETED. It reports whether this call
	// performed the transition; false with a nil error means the payment
	// was already completed.
	MarkCompleted(ctx context.Context, sessionID string) (bool, error)

	// MarkFailed moves a pending payment to FAILED. Completed payments are
	// never reversed.
	MarkFailed(ctx context.Context, sessionID string) error
}
