package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"transit/internal/domain"
	"transit/internal/repository"
)

// TicketRepository is a PostgreSQL implementation of repository.TicketRepository.
type TicketRepository struct {
	db *sql.DB
}

// NewTicketRepository creates a new PostgreSQL ticket repository.
func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

const ticketColumns = `id, user_id, route_id, bus_id, start_station, end_station, price, external_payment_ref, status, usage_count, max_usage, expires_at, last_used_at, created_at`

// Create persists a new ticket. The unique index on external_payment_ref
// makes settlement-driven creation idempotent.
func (r *TicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	query := `
		INSERT INTO tickets (` + ticketColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err := r.db.ExecContext(ctx, query,
		ticket.ID,
		ticket.UserID,
		ticket.RouteID,
		ticket.BusID,
		ticket.StartStation,
		ticket.EndStation,
		ticket.Price,
		ticket.ExternalPaymentRef,
		ticket.Status,
		ticket.UsageCount,
		ticket.MaxUsage,
		ticket.ExpiresAt,
		nullableTime(ticket.LastUsedAt),
		ticket.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a ticket by ID.
func (r *TicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE id = $1`
	return scanTicket(r.db.QueryRowContext(ctx, query, id))
}

// GetByExternalRef retrieves a ticket by its payment reference.
func (r *TicketRepository) GetByExternalRef(ctx context.Context, ref string) (*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE external_payment_ref = $1`
	return scanTicket(r.db.QueryRowContext(ctx, query, ref))
}

// ListByUser returns the user's tickets, newest first.
func (r *TicketRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	query := `SELECT ` + ticketColumns + ` FROM tickets WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tickets []*domain.Ticket
	for rows.Next() {
		ticket, err := scanTicketRow(rows)
		if err != nil {
			return nil, err
		}
		tickets = append(tickets, ticket)
	}
	return tickets, rows.Err()
}

// ConsumeUse atomically records one use. The guard conditions live in the
// statement itself, so concurrent uses of a one-ride ticket cannot both
// succeed.
func (r *TicketRepository) ConsumeUse(ctx context.Context, id string, now time.Time) (*domain.Ticket, error) {
	query := `
		UPDATE tickets
		SET usage_count = usage_count + 1,
		    last_used_at = $2,
		    status = CASE WHEN usage_count + 1 >= max_usage THEN $3 ELSE status END
		WHERE id = $1 AND status = $4 AND usage_count < max_usage AND expires_at > $2
		RETURNING ` + ticketColumns + `
	`

	ticket, err := scanTicket(r.db.QueryRowContext(ctx, query, id, now, domain.TicketStatusUsed, domain.TicketStatusActive))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, repository.ErrNotFound
	}
	return ticket, err
}

// Cancel moves an active ticket to CANCELLED.
func (r *TicketRepository) Cancel(ctx context.Context, id string) (bool, error) {
	query := `UPDATE tickets SET status = $1 WHERE id = $2 AND status = $3`

	result, err := r.db.ExecContext(ctx, query, domain.TicketStatusCancelled, id, domain.TicketStatusActive)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// ExpireStale materializes EXPIRED status on active tickets past expiry.
func (r *TicketRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	query := `UPDATE tickets SET status = $1 WHERE status = $2 AND expires_at <= $3`

	result, err := r.db.ExecContext(ctx, query, domain.TicketStatusExpired, domain.TicketStatusActive, now)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTicket(row *sql.Row) (*domain.Ticket, error) {
	ticket, err := scanTicketRow(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	return ticket, err
}

func scanTicketRow(row rowScanner) (*domain.Ticket, error) {
	var ticket domain.Ticket
	var lastUsed sql.NullTime
	err := row.Scan(
		&ticket.ID,
		&ticket.UserID,
		&ticket.RouteID,
		&ticket.BusID,
		&ticket.StartStation,
		&ticket.EndStation,
		&ticket.Price,
		&ticket.ExternalPaymentRef,
		&ticket.Status,
		&ticket.UsageCount,
		&ticket.MaxUsage,
		&ticket.ExpiresAt,
		&lastUsed,
		&ticket.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lastUsed.Valid {
		ticket.LastUsedAt = lastUsed.Time
	}
	return &ticket, nil
}

func nullableTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
