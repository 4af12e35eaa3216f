package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transit/internal/domain"
	"transit/internal/logger"
	"transit/internal/redis"
	"transit/internal/repository"
)

const (
	ticketValidity        = 12 * time.Hour
	passValidityMonths    = 1
	defaultTicketMaxUsage = 1
)

// settleFunc converts one verified payment into its entitlement. Every
// settleFunc is idempotent: replaying it for the same payment leaves
// exactly one credit, ticket or pass behind.
type settleFunc func(ctx context.Context, payment *domain.Payment) error

// SettlementService consumes verified payment-completed events and settles
// them exactly once per external session id.
type SettlementService struct {
	paymentRepo repository.PaymentRepository
	wallet      *WalletService
	ticketRepo  repository.TicketRepository
	passRepo    repository.PassRepository
	routeRepo   repository.RouteRepository
	busRepo     repository.BusRepository
	routeCache  *redis.CacheStore
	dispatch    map[domain.PurchaseType]settleFunc
}

// NewSettlementService creates a new SettlementService. The purchase-type
// dispatch table is built here so an unhandled type is a constructor-time
// omission, not a scattered string comparison.
func NewSettlementService(
	paymentRepo repository.PaymentRepository,
	wallet *WalletService,
	ticketRepo repository.TicketRepository,
	passRepo repository.PassRepository,
	routeRepo repository.RouteRepository,
	busRepo repository.BusRepository,
	routeCache *redis.CacheStore,
) *SettlementService {
	s := &SettlementService{
		paymentRepo: paymentRepo,
		wallet:      wallet,
		ticketRepo:  ticketRepo,
		passRepo:    passRepo,
		routeRepo:   routeRepo,
		busRepo:     busRepo,
		routeCache:  routeCache,
	}
	s.dispatch = map[domain.PurchaseType]settleFunc{
		domain.PurchaseWalletTopup: s.settleWalletTopup,
		domain.PurchasePass:        s.settlePass,
		domain.PurchaseTicket:      s.settleTicket,
	}
	return s
}

// terminalErr marks settlement failures that a provider retry cannot fix.
// The payment is moved to FAILED and the caller should acknowledge the
// event so the provider stops retrying.
type terminalErr struct{ err error }

func (e terminalErr) Error() string { return e.err.Error() }
func (e terminalErr) Unwrap() error { return e.err }

// IsTerminalSettlementError reports whether a settlement error is one a
// retry cannot fix.
func IsTerminalSettlementError(err error) bool {
	var t terminalErr
	return errors.As(err, &t) ||
		errors.Is(err, ErrAmountMismatch) ||
		errors.Is(err, ErrPaymentAlreadyFailed)
}

// Settle processes one verified payment-completed event. Replaying the
// same event any number of times results in exactly one wallet credit,
// ticket or pass, with the payment ending COMPLETED.
//
// Transient failures leave the payment PENDING so a provider retry can
// succeed; deterministic business failures move it to FAILED.
func (s *SettlementService) Settle(ctx context.Context, externalSessionID string, amountPaid float64) error {
	payment, err := s.paymentRepo.GetByExternalSessionID(ctx, externalSessionID)
	if err != nil {
		// Includes not-found: the event may have arrived before our local
		// record; the provider retries until it exists.
		return err
	}

	switch payment.Status {
	case domain.PaymentStatusCompleted:
		// Idempotency short-circuit: already settled, report success.
		return nil
	case domain.PaymentStatusFailed:
		return ErrPaymentAlreadyFailed
	}

	if math.Abs(payment.Amount-amountPaid) > 0.009 {
		logger.Get().Error("settlement amount mismatch",
			zap.String("session_id", externalSessionID),
			zap.Float64("expected", payment.Amount),
			zap.Float64("paid", amountPaid))
		return s.fail(ctx, externalSessionID, ErrAmountMismatch)
	}

	settle, ok := s.dispatch[payment.PurchaseType]
	if !ok {
		return s.fail(ctx, externalSessionID, terminalErr{fmt.Errorf("%w: %q", ErrInvalidPurchaseType, payment.PurchaseType)})
	}

	if err := settle(ctx, payment); err != nil {
		var terminal terminalErr
		if errors.As(err, &terminal) {
			return s.fail(ctx, externalSessionID, terminal)
		}
		return err
	}

	// The entitlement exists; mark the payment settled. Losing this race
	// to a concurrent delivery is fine; someone marked it completed.
	won, err := s.paymentRepo.MarkCompleted(ctx, externalSessionID)
	if err != nil {
		// The entitlement side is idempotent, so a retried event lands
		// here again and completes the payment.
		return err
	}
	if won {
		logger.Get().Info("payment settled",
			zap.String("session_id", externalSessionID),
			zap.String("user_id", payment.UserID),
			zap.String("purchase_type", string(payment.PurchaseType)),
			zap.Float64("amount", payment.Amount))
	}
	return nil
}

// fail moves the payment to FAILED (best effort) and returns the cause.
func (s *SettlementService) fail(ctx context.Context, externalSessionID string, cause error) error {
	if err := s.paymentRepo.MarkFailed(ctx, externalSessionID); err != nil {
		logger.Get().Error("could not mark payment failed",
			zap.String("session_id", externalSessionID),
			zap.Error(err))
	}
	return cause
}

func (s *SettlementService) settleWalletTopup(ctx context.Context, payment *domain.Payment) error {
	// Credit is a ledgered no-op when this payment was already applied.
	_, err := s.wallet.Credit(ctx, payment.UserID, payment.Amount, "wallet_topup", payment.ID)
	return err
}

func (s *SettlementService) settlePass(ctx context.Context, payment *domain.Payment) error {
	route, err := s.resolveRoute(ctx, payment.RouteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return terminalErr{fmt.Errorf("pass route %q: %w", payment.RouteID, err)}
		}
		return err
	}

	now := time.Now()
	err = s.passRepo.CreateIfNone(ctx, &domain.Pass{
		ID:                 uuid.New().String(),
		UserID:             payment.UserID,
		RouteID:            route.ID,
		Fare:               payment.Amount,
		ExternalPaymentRef: payment.ExternalSessionID,
		PurchasedAt:        now,
		ExpiresAt:          now.AddDate(0, passValidityMonths, 0),
	}, now)
	if errors.Is(err, repository.ErrDuplicate) {
		// Already settled: either this session issued its pass or a valid
		// pass covers (user, route).
		return nil
	}
	return err
}

func (s *SettlementService) settleTicket(ctx context.Context, payment *domain.Payment) error {
	existing, err := s.ticketRepo.GetByExternalRef(ctx, payment.ExternalSessionID)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return err
	}
	if existing != nil {
		return nil
	}

	bus, err := s.busRepo.GetByID(ctx, payment.BusID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return terminalErr{fmt.Errorf("ticket bus %q: %w", payment.BusID, err)}
		}
		return err
	}
	route, err := s.resolveRoute(ctx, bus.RouteID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return terminalErr{fmt.Errorf("ticket route %q: %w", bus.RouteID, err)}
		}
		return err
	}

	now := time.Now()
	err = s.ticketRepo.Create(ctx, &domain.Ticket{
		ID:                 uuid.New().String(),
		UserID:             payment.UserID,
		RouteID:            route.ID,
		BusID:              bus.ID,
		StartStation:       payment.StationID,
		EndStation:         route.Snapshot.To,
		Price:              payment.Amount,
		ExternalPaymentRef: payment.ExternalSessionID,
		Status:             domain.TicketStatusActive,
		UsageCount:         0,
		MaxUsage:           defaultTicketMaxUsage,
		ExpiresAt:          now.Add(ticketValidity),
		CreatedAt:          now,
	})
	if errors.Is(err, repository.ErrDuplicate) {
		// Lost a race with a concurrent delivery: the ticket exists.
		return nil
	}
	return err
}

// resolveRoute loads a route reference once, explicitly: an id plus a
// resolved snapshot, never an ambiguous id-or-object value.
func (s *SettlementService) resolveRoute(ctx context.Context, routeID string) (domain.RouteRef, error) {
	if routeID == "" {
		return domain.RouteRef{}, repository.ErrNotFound
	}

	if s.routeCache != nil {
		cached, err := s.routeCache.GetRoute(ctx, routeID)
		if err == nil && cached != nil {
			return domain.RouteRef{
				ID:       cached.ID,
				Snapshot: &domain.Route{ID: cached.ID, Name: cached.Name, From: cached.From, To: cached.To},
			}, nil
		}
	}

	route, err := s.routeRepo.GetByID(ctx, routeID)
	if err != nil {
		return domain.RouteRef{}, err
	}

	if s.routeCache != nil {
		_ = s.routeCache.SetRoute(ctx, &redis.CachedRoute{ID: route.ID, Name: route.Name, From: route.From, To: route.To})
	}
	return domain.RouteRef{ID: route.ID, Snapshot: route}, nil
}
