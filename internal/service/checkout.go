package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transit/internal/domain"
	"transit/internal/logger"
	"transit/internal/redis"
	"transit/internal/repository"
)

const (
	// checkoutDedupWindow is how long an existing pending payment for the
	// same (user, purchase type) suppresses a new session.
	checkoutDedupWindow = 10 * time.Minute

	// checkoutLockTTL bounds how long one in-flight request holds the
	// intent lock if it never releases it.
	checkoutLockTTL = 30 * time.Second
)

// CreateSessionRequest contains the parameters for opening a checkout session.
type CreateSessionRequest struct {
	UserID       string
	PurchaseType domain.PurchaseType
	Amount       float64
	RouteID      string
	StationID    string
	BusID        string
}

// CreateSessionResponse is the rider-facing checkout reference.
type CreateSessionResponse struct {
	PaymentID   string
	CheckoutURL string
}

// CheckoutService opens external checkout sessions, suppresses duplicate
// requests for the same intent, and persists the local payment record.
type CheckoutService struct {
	paymentRepo repository.PaymentRepository
	provider    CheckoutProvider
	lockStore   redis.LockStoreInterface
	validators  map[domain.PurchaseType]func(CreateSessionRequest) error
}

// NewCheckoutService creates a new CheckoutService.
func NewCheckoutService(paymentRepo repository.PaymentRepository, provider CheckoutProvider, lockStore redis.LockStoreInterface) *CheckoutService {
	s := &CheckoutService{
		paymentRepo: paymentRepo,
		provider:    provider,
		lockStore:   lockStore,
	}
	// One validator per purchase type; dispatch replaces string branching.
	s.validators = map[domain.PurchaseType]func(CreateSessionRequest) error{
		domain.PurchaseWalletTopup: func(CreateSessionRequest) error { return nil },
		domain.PurchasePass: func(req CreateSessionRequest) error {
			if req.RouteID == "" {
				return ErrMissingRoute
			}
			return nil
		},
		domain.PurchaseTicket: func(req CreateSessionRequest) error {
			if req.StationID == "" || req.BusID == "" {
				return ErrMissingStationOrBus
			}
			return nil
		},
	}
	return s
}

// CreateSession opens a checkout session for the request's purchase intent.
// A second call for the same (user, type) within the dedup window returns
// the first call's checkout reference instead of opening a new session.
func (s *CheckoutService) CreateSession(ctx context.Context, req CreateSessionRequest) (*CreateSessionResponse, error) {
	if req.UserID == "" {
		return nil, ErrInvalidUserID
	}
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	validate, ok := s.validators[req.PurchaseType]
	if !ok {
		return nil, ErrInvalidPurchaseType
	}
	if err := validate(req); err != nil {
		return nil, err
	}

	// Suppress concurrent duplicates of the same intent.
	if s.lockStore != nil {
		acquired, err := s.lockStore.AcquireCheckoutLock(ctx, req.UserID, string(req.PurchaseType), checkoutLockTTL)
		if err == nil && !acquired {
			return nil, ErrCheckoutInFlight
		}
		if err == nil {
			defer func() {
				_ = s.lockStore.ReleaseCheckoutLock(ctx, req.UserID, string(req.PurchaseType))
			}()
		}
	}

	// Rapid double submission within the window reuses the pending session.
	existing, err := s.paymentRepo.FindPendingByUserAndType(ctx, req.UserID, req.PurchaseType, time.Now().Add(-checkoutDedupWindow))
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return &CreateSessionResponse{
			PaymentID:   existing.ID,
			CheckoutURL: existing.CheckoutURL,
		}, nil
	}

	now := time.Now()
	sess, err := s.provider.CreateSession(ctx, ProviderSessionRequest{
		UserID:         req.UserID,
		PurchaseType:   req.PurchaseType,
		Amount:         req.Amount,
		IdempotencyKey: fmt.Sprintf("%s:%s:%.2f:%d", req.UserID, req.PurchaseType, req.Amount, now.Unix()),
		Metadata: map[string]string{
			"route_id":   req.RouteID,
			"station_id": req.StationID,
			"bus_id":     req.BusID,
		},
	})
	if err != nil {
		return nil, err
	}

	payment := &domain.Payment{
		ID:                uuid.New().String(),
		UserID:            req.UserID,
		PurchaseType:      req.PurchaseType,
		Amount:            req.Amount,
		ExternalSessionID: sess.ID,
		CheckoutURL:       sess.CheckoutURL,
		Status:            domain.PaymentStatusPending,
		RouteID:           req.RouteID,
		StationID:         req.StationID,
		BusID:             req.BusID,
		CreatedAt:         now,
	}

	if err := s.paymentRepo.Create(ctx, payment); err != nil {
		// The provider session exists but we hold no record of it; it
		// expires unused on the provider's side. Orphaning it beats
		// keeping a local record for a session we cannot prove exists.
		logger.Get().Warn("orphaned provider session: local payment write failed",
			zap.String("session_id", sess.ID),
			zap.String("user_id", req.UserID),
			zap.Error(err))
		return nil, err
	}

	return &CreateSessionResponse{
		PaymentID:   payment.ID,
		CheckoutURL: payment.CheckoutURL,
	}, nil
}

// GetPayment retrieves a payment by ID.
func (s *CheckoutService) GetPayment(ctx context.Context, paymentID string) (*domain.Payment, error) {
	if paymentID == "" {
		return nil, repository.ErrNotFound
	}
	return s.paymentRepo.GetByID(ctx, paymentID)
}
