package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"transit/internal/domain"
	"transit/internal/logger"
	"transit/internal/repository"
)

// TicketService owns ticket reads and lifecycle transitions. Tickets are
// created only by settlement; here they are listed, consumed and cancelled.
type TicketService struct {
	ticketRepo repository.TicketRepository
}

// NewTicketService creates a new TicketService.
func NewTicketService(ticketRepo repository.TicketRepository) *TicketService {
	return &TicketService{ticketRepo: ticketRepo}
}

// GetTicket returns the ticket with its status evaluated as of now, so an
// expired-but-unswept ticket reads EXPIRED without being mutated.
func (s *TicketService) GetTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	ticket.Status = ticket.EffectiveStatus(time.Now())
	return ticket, nil
}

// ListTickets returns the user's tickets, newest first, with statuses
// evaluated as of now.
func (s *TicketService) ListTickets(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	tickets, err := s.ticketRepo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	now := time.Now()
	for _, t := range tickets {
		t.Status = t.EffectiveStatus(now)
	}
	return tickets, nil
}

// UseTicket records one use of the ticket. The usage cap, expiry and status
// checks happen atomically in storage; two concurrent uses of a single-use
// ticket can never both succeed.
func (s *TicketService) UseTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	now := time.Now()

	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.IsValid(now) {
		return nil, ErrTicketNotValidForUse
	}

	used, err := s.ticketRepo.ConsumeUse(ctx, id, now)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Valid a moment ago: a concurrent use, cancel or sweep won.
			return nil, ErrTicketNotValidForUse
		}
		return nil, err
	}

	logger.Get().Info("ticket used",
		zap.String("ticket_id", used.ID),
		zap.String("user_id", used.UserID),
		zap.Int("usage_count", used.UsageCount),
		zap.String("status", string(used.Status)))
	return used, nil
}

// CancelTicket cancels a still-active, unexpired ticket. Terminal tickets
// cannot be cancelled.
func (s *TicketService) CancelTicket(ctx context.Context, id string) (*domain.Ticket, error) {
	ticket, err := s.ticketRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !ticket.IsValid(time.Now()) {
		return nil, ErrTicketNotCancellable
	}

	cancelled, err := s.ticketRepo.Cancel(ctx, id)
	if err != nil {
		return nil, err
	}
	if !cancelled {
		return nil, ErrTicketNotCancellable
	}
	return s.ticketRepo.GetByID(ctx, id)
}

// SweepExpired materializes EXPIRED on active tickets whose expiry has
// passed. Reads never mutate; this background pass keeps stored statuses
// converging with the date-derived truth.
func (s *TicketService) SweepExpired(ctx context.Context) (int64, error) {
	swept, err := s.ticketRepo.ExpireStale(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		logger.Get().Info("expired tickets swept", zap.Int64("count", swept))
	}
	return swept, nil
}

// PassService owns pass reads. Passes are created only by settlement and
// have no stored status; validity is computed from dates at read time.
type PassService struct {
	passRepo repository.PassRepository
}

// NewPassService creates a new PassService.
func NewPassService(passRepo repository.PassRepository) *PassService {
	return &PassService{passRepo: passRepo}
}

// ListPasses returns the user's passes, newest first.
func (s *PassService) ListPasses(ctx context.Context, userID string) ([]*domain.Pass, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.passRepo.ListByUser(ctx, userID)
}

// GetActivePass returns the user's currently valid pass for the route, or
// repository.ErrNotFound.
func (s *PassService) GetActivePass(ctx context.Context, userID, routeID string) (*domain.Pass, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.passRepo.GetActiveByUserAndRoute(ctx, userID, routeID, time.Now())
}
