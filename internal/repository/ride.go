package repository

import (
	"context"

	"transit/internal/domain"
)

// RideRepository defines the persistence operations for rides.
type RideRepository interface {
	// Create persists a new active ride. Returns ErrDuplicate if the user
	// already has an active ride.
	Create(ctx context.Context, ride *domain.Ride) error

	// GetByID retrieves a ride by ID.
	GetByID(ctx context.Context, id string) (*domain.Ride, error)

	// GetActiveByUserID retrieves the user's active ride, or ErrNotFound.
	GetActiveByUserID(ctx context.Context, userID string) (*domain.Ride, error)

	// Complete atomically moves the ride from ACTIVE to COMPLETED, writing
	// the end location, distance, calculation method and fare breakdown
	// exactly once. It reports whether this call performed the transition.
	Complete(ctx context.Context, ride *domain.Ride) (bool, error)

	// UpdatePaymentStatus records the outcome of the fare debit.
	UpdatePaymentStatus(ctx context.Context, id string, status domain.RidePaymentStatus) error
}
