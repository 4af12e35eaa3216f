package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"transit/internal/config"
	"transit/internal/domain"
	"transit/internal/repository"
	"transit/internal/service"
)

type rideFixture struct {
	rideRepo   *MockRideRepository
	userRepo   *MockUserRepository
	walletRepo *MockWalletRepository
	rides      *service.RideService
}

func newRideFixture() *rideFixture {
	f := &rideFixture{
		rideRepo:   NewMockRideRepository(),
		userRepo:   NewMockUserRepository(),
		walletRepo: NewMockWalletRepository(),
	}
	f.userRepo.AddUser(&domain.User{ID: "user-1", Name: "Asha", Phone: "+8801700000001", Concession: domain.ConcessionGeneral})
	f.rides = service.NewRideService(
		f.rideRepo,
		f.userRepo,
		service.NewDistanceEstimator(nil, nil, time.Second),
		service.NewFareCalculator(config.FareConfig{BaseFare: 20, PerKmRate: 8}),
		service.NewWalletService(f.walletRepo),
	)
	return f
}

var (
	// Roughly 15 km apart great-circle.
	rideStart = domain.GeoPoint{Lat: 23.7104, Lng: 90.4074}
	rideEnd   = domain.GeoPoint{Lat: 23.8433, Lng: 90.3978}
)

func TestRide_StartCreatesActiveRide(t *testing.T) {
	t.Parallel()

	f := newRideFixture()

	ride, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ride.Status != domain.RideStatusActive {
		t.Errorf("expected ACTIVE, got %s", ride.Status)
	}
	if ride.PaymentStatus != domain.RidePaymentPending {
		t.Errorf("expected payment PENDING, got %s", ride.PaymentStatus)
	}
}

func TestRide_SecondActiveRideRejected(t *testing.T) {
	t.Parallel()

	f := newRideFixture()

	if _, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err := f.rides.StartRide(context.Background(), "user-1", "route-2", "bus-2", rideStart)
	if !errors.Is(err, service.ErrUserHasActiveRide) {
		t.Fatalf("expected ErrUserHasActiveRide, got %v", err)
	}
}

func TestRide_StartRejectsUnknownUser(t *testing.T) {
	t.Parallel()

	f := newRideFixture()

	_, err := f.rides.StartRide(context.Background(), "ghost", "route-1", "bus-1", rideStart)
	if err == nil {
		t.Fatal("expected error for unknown user")
	}
}

func TestRide_EndComputesFareAndDebits(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.walletRepo.SetBalance("user-1", 1000)

	ride, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	summary, err := f.rides.EndRide(context.Background(), ride.ID, rideEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Ride.Status != domain.RideStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", summary.Ride.Status)
	}
	if summary.Ride.Method != domain.CalculationHaversine {
		t.Errorf("expected haversine audit trail, got %s", summary.Ride.Method)
	}
	if summary.Ride.Fare.FinalFare <= 20 {
		t.Errorf("expected fare above base, got %v", summary.Ride.Fare.FinalFare)
	}
	if summary.Debit.Status != service.DebitSuccess {
		t.Errorf("expected successful debit, got %s", summary.Debit.Status)
	}

	stored := f.rideRepo.GetRide(ride.ID)
	if stored.PaymentStatus != domain.RidePaymentPaid {
		t.Errorf("expected payment PAID, got %s", stored.PaymentStatus)
	}
	if f.walletRepo.Balance("user-1") != 1000-summary.Ride.Fare.FinalFare {
		t.Errorf("wallet not debited by the fare: balance %v", f.walletRepo.Balance("user-1"))
	}
}

func TestRide_ConcessionAppliedAtRideEnd(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.userRepo.AddUser(&domain.User{ID: "user-2", Name: "Rafi", Phone: "+8801700000002", Concession: domain.ConcessionStudent})
	f.walletRepo.SetBalance("user-2", 1000)

	ride, err := f.rides.StartRide(context.Background(), "user-2", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, err := f.rides.EndRide(context.Background(), ride.ID, rideEnd)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Ride.Fare.DiscountPercentage != 30 {
		t.Errorf("expected 30%% student discount, got %v%%", summary.Ride.Fare.DiscountPercentage)
	}
	if summary.Ride.Fare.FinalFare >= summary.Ride.Fare.OriginalFare {
		t.Errorf("expected discounted fare, got %v >= %v", summary.Ride.Fare.FinalFare, summary.Ride.Fare.OriginalFare)
	}
}

func TestRide_DebitFailureDoesNotUnwindCompletion(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.walletRepo.SetBalance("user-1", 5) // far below any fare

	ride, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, err := f.rides.EndRide(context.Background(), ride.ID, rideEnd)
	if err != nil {
		t.Fatalf("ride end must succeed despite the failed debit: %v", err)
	}

	if summary.Debit.Status != service.DebitInsufficientFunds {
		t.Errorf("expected insufficient_funds outcome, got %s", summary.Debit.Status)
	}

	stored := f.rideRepo.GetRide(ride.ID)
	if stored.Status != domain.RideStatusCompleted {
		t.Errorf("ride must stay COMPLETED, got %s", stored.Status)
	}
	if stored.PaymentStatus != domain.RidePaymentFailed {
		t.Errorf("expected payment FAILED, got %s", stored.PaymentStatus)
	}
	if f.walletRepo.Balance("user-1") != 5 {
		t.Errorf("failed debit must not change the balance, got %v", f.walletRepo.Balance("user-1"))
	}

	// The user can start a new ride: the completed one no longer blocks.
	if _, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart); err != nil {
		t.Errorf("expected a fresh ride to start: %v", err)
	}
}

func TestRide_WalletErrorReportsErrorOutcome(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.walletRepo.DebitError = errors.New("connection reset")

	ride, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	summary, err := f.rides.EndRide(context.Background(), ride.ID, rideEnd)
	if err != nil {
		t.Fatalf("ride end must succeed despite the wallet outage: %v", err)
	}

	if summary.Debit.Status != service.DebitError {
		t.Errorf("expected error outcome, got %s", summary.Debit.Status)
	}
	if f.rideRepo.GetRide(ride.ID).Status != domain.RideStatusCompleted {
		t.Error("ride must stay COMPLETED")
	}
}

func TestRide_EndingTwiceRejected(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.walletRepo.SetBalance("user-1", 1000)

	ride, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.rides.EndRide(context.Background(), ride.ID, rideEnd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = f.rides.EndRide(context.Background(), ride.ID, rideEnd)
	if !errors.Is(err, service.ErrRideNotActive) {
		t.Fatalf("expected ErrRideNotActive, got %v", err)
	}

	// Only one debit despite the second attempt.
	if f.walletRepo.LedgerSize() != 1 {
		t.Errorf("expected 1 ledger entry, got %d", f.walletRepo.LedgerSize())
	}
}

func TestRide_EndRejectsInvalidCoordinates(t *testing.T) {
	t.Parallel()

	f := newRideFixture()

	ride, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_, err = f.rides.EndRide(context.Background(), ride.ID, domain.GeoPoint{Lat: 120, Lng: 0})
	if !errors.Is(err, service.ErrInvalidCoordinates) {
		t.Fatalf("expected ErrInvalidCoordinates, got %v", err)
	}

	// The ride is still active and can be ended properly.
	if f.rideRepo.GetRide(ride.ID).Status != domain.RideStatusActive {
		t.Error("failed estimate must leave the ride ACTIVE")
	}
}

func TestRide_QuoteFare(t *testing.T) {
	t.Parallel()

	f := newRideFixture()

	estimate, fare, err := f.rides.QuoteFare(context.Background(), rideStart, rideEnd, domain.ConcessionChild)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if estimate.DistanceKm <= 0 {
		t.Errorf("expected positive distance, got %v", estimate.DistanceKm)
	}
	if fare.DiscountPercentage != 50 {
		t.Errorf("expected 50%% child discount, got %v%%", fare.DiscountPercentage)
	}
}

func TestRide_GetActiveRide(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.walletRepo.SetBalance("user-1", 1000)

	if _, err := f.rides.GetActiveRide(context.Background(), "user-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not-found before any ride, got %v", err)
	}

	started, err := f.rides.StartRide(context.Background(), "user-1", "route-1", "bus-1", rideStart)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	active, err := f.rides.GetActiveRide(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if active.ID != started.ID {
		t.Errorf("expected active ride %s, got %s", started.ID, active.ID)
	}

	if _, err := f.rides.EndRide(context.Background(), started.ID, rideEnd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := f.rides.GetActiveRide(context.Background(), "user-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected not-found after the ride ended, got %v", err)
	}
}

func TestRide_GetActiveRideRequiresUser(t *testing.T) {
	t.Parallel()

	f := newRideFixture()

	if _, err := f.rides.GetActiveRide(context.Background(), ""); !errors.Is(err, service.ErrInvalidUserID) {
		t.Errorf("expected ErrInvalidUserID, got %v", err)
	}
}
