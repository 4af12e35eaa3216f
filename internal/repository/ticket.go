package repository

import (
	"context"
	"time"

	"transit/internal/domain"
)

// TicketRepository defines the persistence operations for tickets.
type TicketRepository interface {
	// Create persists a new ticket. Returns ErrDuplicate if a ticket with
	// the same external payment reference already exists.
	Create(ctx context.Context, ticket *domain.Ticket) error

	// GetByID retrieves a ticket by ID.
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)

	// GetByExternalRef retrieves a ticket by its payment reference.
	GetByExternalRef(ctx context.Context, ref string) (*domain.Ticket, error)

	// ListByUser returns the user's tickets, newest first.
	ListByUser(ctx context.Context, userID string) ([]*domain.Ticket, error)

	// ConsumeUse atomically records one use at the given instant: the
	// ticket must be active, unexpired and below its usage cap, the usage
	// count is incremented, and the status flips to USED when the cap is
	// reached. It reports whether the use was recorded.
	ConsumeUse(ctx context.Context, id string, now time.Time) (*domain.Ticket, error)

	// Cancel moves an active ticket to CANCELLED. Reports whether the
	// transition happened.
	Cancel(ctx context.Context, id string) (bool, error)

	// ExpireStale materializes EXPIRED status on active tickets whose
	// expiry has passed. Returns the number of tickets swept.
	ExpireStale(ctx context.Context, now time.Time) (int64, error)
}
