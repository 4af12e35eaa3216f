package service

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"transit/internal/domain"
	"transit/internal/logger"
	"transit/internal/repository"
)

// DebitOutcome reports what happened to the fare debit at ride end. The
// ride completes regardless; a failed debit becomes collectable debt, never
// a rolled-back ride.
type DebitOutcome struct {
	Status  string  `json:"status"`
	Balance float64 `json:"balance,omitempty"`
	Message string  `json:"message,omitempty"`
}

const (
	DebitSuccess           = "success"
	DebitInsufficientFunds = "insufficient_funds"
	DebitError             = "error"
)

// RideSummary is the result of ending a ride.
type RideSummary struct {
	Ride  *domain.Ride
	Debit DebitOutcome
}

// RideService coordinates the ride lifecycle: one active ride per user,
// write-once completion, and the fare debit at ride end.
type RideService struct {
	rideRepo  repository.RideRepository
	userRepo  repository.UserRepository
	estimator *DistanceEstimator
	fares     *FareCalculator
	wallet    *WalletService
}

// NewRideService creates a new RideService.
func NewRideService(
	rideRepo repository.RideRepository,
	userRepo repository.UserRepository,
	estimator *DistanceEstimator,
	fares *FareCalculator,
	wallet *WalletService,
) *RideService {
	return &RideService{
		rideRepo:  rideRepo,
		userRepo:  userRepo,
		estimator: estimator,
		fares:     fares,
		wallet:    wallet,
	}
}

// StartRide opens a ride at the given location. A user can hold at most one
// active ride; the uniqueness check is atomic in storage.
func (s *RideService) StartRide(ctx context.Context, userID, routeID, busID string, start domain.GeoPoint) (*domain.Ride, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	if !validCoordinates(start) {
		return nil, ErrInvalidCoordinates
	}
	if _, err := s.userRepo.GetByID(ctx, userID); err != nil {
		return nil, err
	}

	now := time.Now()
	start.Timestamp = now
	ride := &domain.Ride{
		ID:            uuid.New().String(),
		UserID:        userID,
		RouteID:       routeID,
		BusID:         busID,
		Start:         start,
		Status:        domain.RideStatusActive,
		PaymentStatus: domain.RidePaymentPending,
		CreatedAt:     now,
	}
	if err := s.rideRepo.Create(ctx, ride); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrUserHasActiveRide
		}
		return nil, err
	}
	return ride, nil
}

// GetRide retrieves a ride by id.
func (s *RideService) GetRide(ctx context.Context, id string) (*domain.Ride, error) {
	return s.rideRepo.GetByID(ctx, id)
}

// GetActiveRide retrieves the user's active ride, or repository.ErrNotFound.
func (s *RideService) GetActiveRide(ctx context.Context, userID string) (*domain.Ride, error) {
	if userID == "" {
		return nil, ErrInvalidUserID
	}
	return s.rideRepo.GetActiveByUserID(ctx, userID)
}

// EndRide completes the ride at the given location: the distance is
// estimated, the concession fare computed, the completion written exactly
// once, and the fare debited from the rider's wallet.
//
// Once the completion write lands the ride stays completed no matter what
// the debit does. A debit failure is reported in the summary and recorded
// on the ride, not used to unwind the trip.
func (s *RideService) EndRide(ctx context.Context, rideID string, end domain.GeoPoint) (*RideSummary, error) {
	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.Status != domain.RideStatusActive {
		return nil, ErrRideNotActive
	}

	user, err := s.userRepo.GetByID(ctx, ride.UserID)
	if err != nil {
		return nil, err
	}

	estimate, err := s.estimator.Estimate(ctx, ride.Start, end)
	if err != nil {
		return nil, err
	}
	fare, err := s.fares.Calculate(estimate.DistanceKm, user.Concession)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	end.Timestamp = now
	ride.End = &end
	ride.DistanceKm = estimate.DistanceKm
	ride.Method = estimate.Method
	ride.Fare = fare
	ride.CompletedAt = now

	won, err := s.rideRepo.Complete(ctx, ride)
	if err != nil {
		return nil, err
	}
	if !won {
		// A concurrent end already completed it; its fare stands.
		return nil, ErrRideNotActive
	}
	ride.Status = domain.RideStatusCompleted

	summary := &RideSummary{Ride: ride, Debit: s.debitFare(ctx, ride)}
	return summary, nil
}

// debitFare charges the final fare and records the outcome on the ride.
func (s *RideService) debitFare(ctx context.Context, ride *domain.Ride) DebitOutcome {
	if ride.Fare.FinalFare <= 0 {
		// Fully discounted trips owe nothing.
		s.recordPayment(ctx, ride, domain.RidePaymentPaid)
		return DebitOutcome{Status: DebitSuccess}
	}

	balance, err := s.wallet.Debit(ctx, ride.UserID, ride.Fare.FinalFare, "ride_fare", ride.ID)
	switch {
	case err == nil:
		s.recordPayment(ctx, ride, domain.RidePaymentPaid)
		return DebitOutcome{Status: DebitSuccess, Balance: balance}
	case errors.Is(err, ErrInsufficientFunds):
		logger.Get().Warn("ride fare debit rejected",
			zap.String("ride_id", ride.ID),
			zap.String("user_id", ride.UserID),
			zap.Float64("fare", ride.Fare.FinalFare),
			zap.Float64("balance", balance))
		s.recordPayment(ctx, ride, domain.RidePaymentFailed)
		return DebitOutcome{
			Status:  DebitInsufficientFunds,
			Balance: balance,
			Message: "wallet balance below fare, payment pending",
		}
	default:
		logger.Get().Error("ride fare debit error",
			zap.String("ride_id", ride.ID),
			zap.Error(err))
		s.recordPayment(ctx, ride, domain.RidePaymentFailed)
		return DebitOutcome{Status: DebitError, Message: "fare debit failed, payment pending"}
	}
}

func (s *RideService) recordPayment(ctx context.Context, ride *domain.Ride, status domain.RidePaymentStatus) {
	ride.PaymentStatus = status
	if err := s.rideRepo.UpdatePaymentStatus(ctx, ride.ID, status); err != nil {
		logger.Get().Error("could not record ride payment status",
			zap.String("ride_id", ride.ID),
			zap.String("status", string(status)),
			zap.Error(err))
	}
}

// QuoteFare estimates distance and fare between two points for a concession
// without touching any ride state.
func (s *RideService) QuoteFare(ctx context.Context, origin, destination domain.GeoPoint, concession domain.ConcessionType) (Estimate, domain.FareBreakdown, error) {
	estimate, err := s.estimator.Estimate(ctx, origin, destination)
	if err != nil {
		return Estimate{}, domain.FareBreakdown{}, err
	}
	fare, err := s.fares.Calculate(estimate.DistanceKm, concession)
	if err != nil {
		return Estimate{}, domain.FareBreakdown{}, err
	}
	return estimate, fare, nil
}
