package repository

import (
	"context"
	"time"

	"transit/internal/domain"
)

// PassRepository defines the persistence operations for passes.
type PassRepository interface {
	// CreateIfNone persists the pass unless a pass with the same external
	// payment ref exists, or the user already holds a pass for the same
	// route that is still valid at the given instant. Either case returns
	// ErrDuplicate. The ref uniqueness holds under concurrent inserts.
	CreateIfNone(ctx context.Context, pass *domain.Pass, now time.Time) error

	// GetActiveByUserAndRoute returns the user's non-expired pass for the
	// route, or ErrNotFound.
	GetActiveByUserAndRoute(ctx context.Context, userID, routeID string, now time.Time) (*domain.Pass, error)

	// ListByUser returns the user's passes, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Pass, error)
}
