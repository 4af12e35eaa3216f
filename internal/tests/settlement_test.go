package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"transit/internal/domain"
	"transit/internal/service"
)

type settlementFixture struct {
	paymentRepo *MockPaymentRepository
	walletRepo  *MockWalletRepository
	ticketRepo  *MockTicketRepository
	passRepo    *MockPassRepository
	routeRepo   *MockRouteRepository
	busRepo     *MockBusRepository
	settlement  *service.SettlementService
}

func newSettlementFixture() *settlementFixture {
	f := &settlementFixture{
		paymentRepo: NewMockPaymentRepository(),
		walletRepo:  NewMockWalletRepository(),
		ticketRepo:  NewMockTicketRepository(),
		passRepo:    NewMockPassRepository(),
		routeRepo:   NewMockRouteRepository(),
		busRepo:     NewMockBusRepository(),
	}
	f.settlement = service.NewSettlementService(
		f.paymentRepo,
		service.NewWalletService(f.walletRepo),
		f.ticketRepo,
		f.passRepo,
		f.routeRepo,
		f.busRepo,
		nil,
	)
	return f
}

func pendingPayment(purchaseType domain.PurchaseType) *domain.Payment {
	return &domain.Payment{
		ID:                "pay-1",
		UserID:            "user-1",
		PurchaseType:      purchaseType,
		Amount:            500,
		ExternalSessionID: "cs_1",
		Status:            domain.PaymentStatusPending,
		RouteID:           "route-1",
		StationID:         "station-1",
		BusID:             "bus-1",
		CreatedAt:         time.Now(),
	}
}

func TestSettlement_WalletTopup(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchaseWalletTopup))

	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.walletRepo.Balance("user-1") != 500 {
		t.Errorf("expected balance 500, got %v", f.walletRepo.Balance("user-1"))
	}
	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got)
	}
}

func TestSettlement_ReplayedTopupCreditsOnce(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchaseWalletTopup))

	for i := 0; i < 3; i++ {
		if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
			t.Fatalf("replay %d: unexpected error: %v", i, err)
		}
	}

	if f.walletRepo.Balance("user-1") != 500 {
		t.Errorf("expected single credit of 500, got %v", f.walletRepo.Balance("user-1"))
	}
	if f.walletRepo.LedgerSize() != 1 {
		t.Errorf("expected 1 ledger entry, got %d", f.walletRepo.LedgerSize())
	}
}

func TestSettlement_PassCreated(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchasePass))
	f.routeRepo.AddRoute(&domain.Route{ID: "route-1", Name: "Uttara Express", From: "Uttara", To: "Motijheel"})

	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.passRepo.CountPasses() != 1 {
		t.Fatalf("expected 1 pass, got %d", f.passRepo.CountPasses())
	}
	pass, err := f.passRepo.GetActiveByUserAndRoute(context.Background(), "user-1", "route-1", time.Now())
	if err != nil {
		t.Fatalf("expected active pass: %v", err)
	}
	if !pass.IsValid(time.Now().AddDate(0, 0, 27)) {
		t.Error("pass should still be valid after 27 days")
	}
	if pass.IsValid(time.Now().AddDate(0, 1, 1)) {
		t.Error("pass should be invalid after a month")
	}
}

func TestSettlement_ReplayedPassEventIssuesOnePass(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchasePass))
	f.routeRepo.AddRoute(&domain.Route{ID: "route-1", Name: "Uttara Express", From: "Uttara", To: "Motijheel"})

	for i := 0; i < 3; i++ {
		if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
			t.Fatalf("replay %d: unexpected error: %v", i, err)
		}
	}

	if f.passRepo.CountPasses() != 1 {
		t.Errorf("expected 1 pass after replays, got %d", f.passRepo.CountPasses())
	}
}

func TestSettlement_PassRecordsPaymentRef(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchasePass))
	f.routeRepo.AddRoute(&domain.Route{ID: "route-1", Name: "Uttara Express", From: "Uttara", To: "Motijheel"})

	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	pass, err := f.passRepo.GetActiveByUserAndRoute(context.Background(), "user-1", "route-1", time.Now())
	if err != nil {
		t.Fatalf("expected active pass: %v", err)
	}
	if pass.ExternalPaymentRef != "cs_1" {
		t.Errorf("expected pass to carry session ref cs_1, got %q", pass.ExternalPaymentRef)
	}
}

func TestSettlement_RedeliveredPassEventIssuesNoSecondPass(t *testing.T) {
	t.Parallel()

	// A delivery that settles the pass but fails to mark the payment
	// completed leaves it PENDING, so a later redelivery runs the full
	// pass path again. Even once the first pass has aged out and the
	// valid-overlap guard no longer applies, the payment ref must pin
	// the session to the pass it already issued.
	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchasePass))
	f.routeRepo.AddRoute(&domain.Route{ID: "route-1", Name: "Uttara Express", From: "Uttara", To: "Motijheel"})

	f.paymentRepo.MarkCompletedError = errors.New("connection reset")
	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err == nil {
		t.Fatal("expected transient error from first delivery")
	}
	if f.passRepo.CountPasses() != 1 {
		t.Fatalf("expected 1 pass after first delivery, got %d", f.passRepo.CountPasses())
	}

	f.paymentRepo.MarkCompletedError = nil
	f.passRepo.ExpireAllPasses(time.Now())

	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
		t.Fatalf("redelivery: unexpected error: %v", err)
	}

	if f.passRepo.CountPasses() != 1 {
		t.Errorf("expected 1 pass after redelivery, got %d", f.passRepo.CountPasses())
	}
	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusCompleted {
		t.Errorf("expected COMPLETED, got %s", got)
	}
}

func TestSettlement_TicketCreated(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchaseTicket))
	f.routeRepo.AddRoute(&domain.Route{ID: "route-1", Name: "Uttara Express", From: "Uttara", To: "Motijheel"})
	f.busRepo.AddBus(&domain.Bus{ID: "bus-1", RouteID: "route-1", Number: "DHK-1122"})

	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if f.ticketRepo.CountTickets() != 1 {
		t.Fatalf("expected 1 ticket, got %d", f.ticketRepo.CountTickets())
	}
	ticket, err := f.ticketRepo.GetByExternalRef(context.Background(), "cs_1")
	if err != nil {
		t.Fatalf("expected ticket by ref: %v", err)
	}
	if ticket.Status != domain.TicketStatusActive {
		t.Errorf("expected ACTIVE, got %s", ticket.Status)
	}
	if ticket.EndStation != "Motijheel" {
		t.Errorf("expected end station from route snapshot, got %q", ticket.EndStation)
	}
	if until := time.Until(ticket.ExpiresAt); until < 11*time.Hour || until > 12*time.Hour {
		t.Errorf("expected ~12h validity, got %v", until)
	}
}

func TestSettlement_ReplayedTicketEventIssuesOneTicket(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchaseTicket))
	f.routeRepo.AddRoute(&domain.Route{ID: "route-1", Name: "Uttara Express", From: "Uttara", To: "Motijheel"})
	f.busRepo.AddBus(&domain.Bus{ID: "bus-1", RouteID: "route-1", Number: "DHK-1122"})

	for i := 0; i < 3; i++ {
		if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
			t.Fatalf("replay %d: unexpected error: %v", i, err)
		}
	}

	if f.ticketRepo.CountTickets() != 1 {
		t.Errorf("expected 1 ticket after replays, got %d", f.ticketRepo.CountTickets())
	}
}

func TestSettlement_AmountMismatchMarksFailed(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchaseWalletTopup))

	err := f.settlement.Settle(context.Background(), "cs_1", 450)
	if !errors.Is(err, service.ErrAmountMismatch) {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}
	if !service.IsTerminalSettlementError(err) {
		t.Error("amount mismatch must be terminal")
	}

	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusFailed {
		t.Errorf("expected FAILED, got %s", got)
	}
	if f.walletRepo.Balance("user-1") != 0 {
		t.Errorf("mismatched payment must not credit, balance %v", f.walletRepo.Balance("user-1"))
	}
}

func TestSettlement_AlreadyFailedPaymentStaysFailed(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	payment := pendingPayment(domain.PurchaseWalletTopup)
	payment.Status = domain.PaymentStatusFailed
	f.paymentRepo.AddPayment(payment)

	err := f.settlement.Settle(context.Background(), "cs_1", 500)
	if !errors.Is(err, service.ErrPaymentAlreadyFailed) {
		t.Fatalf("expected ErrPaymentAlreadyFailed, got %v", err)
	}
	if !service.IsTerminalSettlementError(err) {
		t.Error("already-failed must be terminal")
	}
}

func TestSettlement_UnknownSessionIsTransient(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()

	err := f.settlement.Settle(context.Background(), "cs_unknown", 500)
	if err == nil {
		t.Fatal("expected error for unknown session")
	}
	if service.IsTerminalSettlementError(err) {
		t.Error("unknown session must stay retryable: the event may precede our record")
	}
}

func TestSettlement_TransientFailureLeavesPending(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchaseWalletTopup))
	f.walletRepo.CreditError = errors.New("connection reset")

	err := f.settlement.Settle(context.Background(), "cs_1", 500)
	if err == nil {
		t.Fatal("expected error")
	}
	if service.IsTerminalSettlementError(err) {
		t.Error("storage failure must stay retryable")
	}
	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusPending {
		t.Errorf("expected payment to stay PENDING, got %s", got)
	}

	// A later retry succeeds once the failure clears.
	f.walletRepo.CreditError = nil
	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
		t.Fatalf("retry should settle: %v", err)
	}
	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusCompleted {
		t.Errorf("expected COMPLETED after retry, got %s", got)
	}
}

func TestSettlement_MissingRouteFailsPassTerminally(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.paymentRepo.AddPayment(pendingPayment(domain.PurchasePass))
	// No route registered.

	err := f.settlement.Settle(context.Background(), "cs_1", 500)
	if err == nil {
		t.Fatal("expected error for unresolvable route")
	}
	if !service.IsTerminalSettlementError(err) {
		t.Error("missing route cannot be fixed by retrying")
	}
	if got := f.paymentRepo.GetPayment("pay-1").Status; got != domain.PaymentStatusFailed {
		t.Errorf("expected FAILED, got %s", got)
	}
}

func TestSettlement_CompletedPaymentIsShortCircuit(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	payment := pendingPayment(domain.PurchaseWalletTopup)
	payment.Status = domain.PaymentStatusCompleted
	f.paymentRepo.AddPayment(payment)

	if err := f.settlement.Settle(context.Background(), "cs_1", 500); err != nil {
		t.Fatalf("settled payment must report success: %v", err)
	}
	if f.walletRepo.Balance("user-1") != 0 {
		t.Errorf("short-circuit must not touch the wallet, balance %v", f.walletRepo.Balance("user-1"))
	}
}
