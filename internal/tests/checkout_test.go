package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"transit/internal/domain"
	"transit/internal/service"
)

func newCheckoutService() (*service.CheckoutService, *MockPaymentRepository, *MockCheckoutProvider, *MockLockStore) {
	paymentRepo := NewMockPaymentRepository()
	provider := NewMockCheckoutProvider()
	lockStore := NewMockLockStore()
	return service.NewCheckoutService(paymentRepo, provider, lockStore), paymentRepo, provider, lockStore
}

func topupRequest() service.CreateSessionRequest {
	return service.CreateSessionRequest{
		UserID:       "user-1",
		PurchaseType: domain.PurchaseWalletTopup,
		Amount:       500,
	}
}

func TestCheckout_CreatesSessionAndPendingPayment(t *testing.T) {
	t.Parallel()

	checkout, paymentRepo, provider, _ := newCheckoutService()

	resp, err := checkout.CreateSession(context.Background(), topupRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.CheckoutURL == "" {
		t.Error("expected a checkout url")
	}

	if provider.CreateSessionCallCount != 1 {
		t.Errorf("expected 1 provider call, got %d", provider.CreateSessionCallCount)
	}
	payment := paymentRepo.GetPayment(resp.PaymentID)
	if payment == nil {
		t.Fatal("pending payment not persisted")
	}
	if payment.Status != domain.PaymentStatusPending {
		t.Errorf("expected PENDING, got %s", payment.Status)
	}
	if payment.ExternalSessionID == "" {
		t.Error("payment must record the provider session id")
	}
}

func TestCheckout_Validation(t *testing.T) {
	t.Parallel()

	checkout, _, _, _ := newCheckoutService()

	cases := []struct {
		name string
		req  service.CreateSessionRequest
		want error
	}{
		{"missing user", service.CreateSessionRequest{PurchaseType: domain.PurchaseWalletTopup, Amount: 10}, service.ErrInvalidUserID},
		{"zero amount", service.CreateSessionRequest{UserID: "u", PurchaseType: domain.PurchaseWalletTopup}, service.ErrInvalidAmount},
		{"unknown type", service.CreateSessionRequest{UserID: "u", PurchaseType: "subscription", Amount: 10}, service.ErrInvalidPurchaseType},
		{"pass without route", service.CreateSessionRequest{UserID: "u", PurchaseType: domain.PurchasePass, Amount: 10}, service.ErrMissingRoute},
		{"ticket without bus", service.CreateSessionRequest{UserID: "u", PurchaseType: domain.PurchaseTicket, Amount: 10, StationID: "s"}, service.ErrMissingStationOrBus},
	}

	for _, tc := range cases {
		_, err := checkout.CreateSession(context.Background(), tc.req)
		if !errors.Is(err, tc.want) {
			t.Errorf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestCheckout_RapidDoubleSubmissionReusesSession(t *testing.T) {
	t.Parallel()

	checkout, _, provider, _ := newCheckoutService()

	first, err := checkout.CreateSession(context.Background(), topupRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := checkout.CreateSession(context.Background(), topupRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if first.PaymentID != second.PaymentID {
		t.Errorf("expected the same payment, got %s and %s", first.PaymentID, second.PaymentID)
	}
	if first.CheckoutURL != second.CheckoutURL {
		t.Errorf("expected the same checkout url")
	}
	if provider.CreateSessionCallCount != 1 {
		t.Errorf("expected 1 provider session, got %d", provider.CreateSessionCallCount)
	}
}

func TestCheckout_StalePendingPaymentGetsNewSession(t *testing.T) {
	t.Parallel()

	checkout, paymentRepo, provider, _ := newCheckoutService()

	// A pending payment from 15 minutes ago is outside the dedup window.
	paymentRepo.AddPayment(&domain.Payment{
		ID:                "pay-old",
		UserID:            "user-1",
		PurchaseType:      domain.PurchaseWalletTopup,
		Amount:            500,
		ExternalSessionID: "cs_old",
		Status:            domain.PaymentStatusPending,
		CreatedAt:         time.Now().Add(-15 * time.Minute),
	})

	resp, err := checkout.CreateSession(context.Background(), topupRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp.PaymentID == "pay-old" {
		t.Error("stale pending payment must not be reused")
	}
	if provider.CreateSessionCallCount != 1 {
		t.Errorf("expected a fresh provider session, got %d calls", provider.CreateSessionCallCount)
	}
}

func TestCheckout_ConcurrentIntentBlockedByLock(t *testing.T) {
	t.Parallel()

	checkout, _, _, lockStore := newCheckoutService()

	// Simulate an in-flight request holding the intent lock.
	if acquired, _ := lockStore.AcquireCheckoutLock(context.Background(), "user-1", string(domain.PurchaseWalletTopup), time.Minute); !acquired {
		t.Fatal("seed lock not acquired")
	}

	_, err := checkout.CreateSession(context.Background(), topupRequest())
	if !errors.Is(err, service.ErrCheckoutInFlight) {
		t.Fatalf("expected ErrCheckoutInFlight, got %v", err)
	}
}

func TestCheckout_ProviderFailureCreatesNoPayment(t *testing.T) {
	t.Parallel()

	checkout, paymentRepo, provider, _ := newCheckoutService()
	provider.CreateSessionError = service.ErrProviderUnavailable

	_, err := checkout.CreateSession(context.Background(), topupRequest())
	if !errors.Is(err, service.ErrProviderUnavailable) {
		t.Fatalf("expected ErrProviderUnavailable, got %v", err)
	}
	if paymentRepo.CountPayments() != 0 {
		t.Errorf("expected no payments, got %d", paymentRepo.CountPayments())
	}
}

func TestCheckout_DifferentPurchaseTypesDoNotCollide(t *testing.T) {
	t.Parallel()

	checkout, _, provider, _ := newCheckoutService()

	if _, err := checkout.CreateSession(context.Background(), topupRequest()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	passReq := service.CreateSessionRequest{
		UserID:       "user-1",
		PurchaseType: domain.PurchasePass,
		Amount:       1200,
		RouteID:      "route-1",
	}
	if _, err := checkout.CreateSession(context.Background(), passReq); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if provider.CreateSessionCallCount != 2 {
		t.Errorf("expected 2 provider sessions, got %d", provider.CreateSessionCallCount)
	}
}
