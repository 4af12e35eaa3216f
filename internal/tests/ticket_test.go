package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"transit/internal/domain"
	"transit/internal/repository"
	"transit/internal/service"
)

func activeTicket(id string) *domain.Ticket {
	return &domain.Ticket{
		ID:                 id,
		UserID:             "user-1",
		RouteID:            "route-1",
		BusID:              "bus-1",
		Price:              100,
		ExternalPaymentRef: "cs_" + id,
		Status:             domain.TicketStatusActive,
		UsageCount:         0,
		MaxUsage:           1,
		ExpiresAt:          time.Now().Add(12 * time.Hour),
		CreatedAt:          time.Now(),
	}
}

func TestTicket_SingleUseFlipsToUsed(t *testing.T) {
	t.Parallel()

	repo := NewMockTicketRepository()
	repo.AddTicket(activeTicket("tkt-1"))
	tickets := service.NewTicketService(repo)

	used, err := tickets.UseTicket(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if used.Status != domain.TicketStatusUsed {
		t.Errorf("expected USED after reaching the cap, got %s", used.Status)
	}
	if used.UsageCount != 1 {
		t.Errorf("expected usage count 1, got %d", used.UsageCount)
	}
	if used.LastUsedAt.IsZero() {
		t.Error("expected last used timestamp")
	}
}

func TestTicket_SecondUseRejected(t *testing.T) {
	t.Parallel()

	repo := NewMockTicketRepository()
	repo.AddTicket(activeTicket("tkt-1"))
	tickets := service.NewTicketService(repo)

	if _, err := tickets.UseTicket(context.Background(), "tkt-1"); err != nil {
		t.Fatalf("first use failed: %v", err)
	}
	_, err := tickets.UseTicket(context.Background(), "tkt-1")
	if !errors.Is(err, service.ErrTicketNotValidForUse) {
		t.Fatalf("expected ErrTicketNotValidForUse, got %v", err)
	}
}

func TestTicket_MultiUseCountsDown(t *testing.T) {
	t.Parallel()

	ticket := activeTicket("tkt-1")
	ticket.MaxUsage = 3
	repo := NewMockTicketRepository()
	repo.AddTicket(ticket)
	tickets := service.NewTicketService(repo)

	for i := 1; i <= 3; i++ {
		used, err := tickets.UseTicket(context.Background(), "tkt-1")
		if err != nil {
			t.Fatalf("use %d failed: %v", i, err)
		}
		if used.UsageCount != i {
			t.Errorf("use %d: expected count %d, got %d", i, i, used.UsageCount)
		}
		if i < 3 && used.Status != domain.TicketStatusActive {
			t.Errorf("use %d: expected ACTIVE, got %s", i, used.Status)
		}
	}

	if repo.GetTicket("tkt-1").Status != domain.TicketStatusUsed {
		t.Errorf("expected USED after final use, got %s", repo.GetTicket("tkt-1").Status)
	}
}

func TestTicket_ConcurrentUsesOfSingleUseTicket(t *testing.T) {
	t.Parallel()

	repo := NewMockTicketRepository()
	repo.AddTicket(activeTicket("tkt-1"))
	tickets := service.NewTicketService(repo)

	const attempts = 10
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := tickets.UseTicket(context.Background(), "tkt-1")
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var successes int
	for err := range results {
		if err == nil {
			successes++
		} else if !errors.Is(err, service.ErrTicketNotValidForUse) {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 successful use, got %d", successes)
	}
}

func TestTicket_ExpiredTicketCannotBeUsed(t *testing.T) {
	t.Parallel()

	ticket := activeTicket("tkt-1")
	ticket.ExpiresAt = time.Now().Add(-time.Minute)
	repo := NewMockTicketRepository()
	repo.AddTicket(ticket)
	tickets := service.NewTicketService(repo)

	_, err := tickets.UseTicket(context.Background(), "tkt-1")
	if !errors.Is(err, service.ErrTicketNotValidForUse) {
		t.Fatalf("expected ErrTicketNotValidForUse, got %v", err)
	}
}

func TestTicket_ReadReportsExpiredWithoutMutating(t *testing.T) {
	t.Parallel()

	ticket := activeTicket("tkt-1")
	ticket.ExpiresAt = time.Now().Add(-time.Minute)
	repo := NewMockTicketRepository()
	repo.AddTicket(ticket)
	tickets := service.NewTicketService(repo)

	got, err := tickets.GetTicket(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.TicketStatusExpired {
		t.Errorf("expected read to report EXPIRED, got %s", got.Status)
	}

	// The stored row is untouched until the sweeper runs.
	if repo.GetTicket("tkt-1").Status != domain.TicketStatusActive {
		t.Errorf("read must not mutate stored status, got %s", repo.GetTicket("tkt-1").Status)
	}
}

func TestTicket_SweepMaterializesExpiry(t *testing.T) {
	t.Parallel()

	expired := activeTicket("tkt-old")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	fresh := activeTicket("tkt-new")

	repo := NewMockTicketRepository()
	repo.AddTicket(expired)
	repo.AddTicket(fresh)
	tickets := service.NewTicketService(repo)

	swept, err := tickets.SweepExpired(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if swept != 1 {
		t.Errorf("expected 1 swept ticket, got %d", swept)
	}
	if repo.GetTicket("tkt-old").Status != domain.TicketStatusExpired {
		t.Errorf("expected EXPIRED, got %s", repo.GetTicket("tkt-old").Status)
	}
	if repo.GetTicket("tkt-new").Status != domain.TicketStatusActive {
		t.Errorf("fresh ticket must stay ACTIVE, got %s", repo.GetTicket("tkt-new").Status)
	}
}

func TestTicket_CancelActiveTicket(t *testing.T) {
	t.Parallel()

	repo := NewMockTicketRepository()
	repo.AddTicket(activeTicket("tkt-1"))
	tickets := service.NewTicketService(repo)

	cancelled, err := tickets.CancelTicket(context.Background(), "tkt-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.Status != domain.TicketStatusCancelled {
		t.Errorf("expected CANCELLED, got %s", cancelled.Status)
	}
}

func TestTicket_TerminalStatesCannotBeCancelled(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.TicketStatus{
		domain.TicketStatusUsed,
		domain.TicketStatusExpired,
		domain.TicketStatusCancelled,
	} {
		ticket := activeTicket("tkt-" + string(status))
		ticket.Status = status
		repo := NewMockTicketRepository()
		repo.AddTicket(ticket)
		tickets := service.NewTicketService(repo)

		_, err := tickets.CancelTicket(context.Background(), ticket.ID)
		if !errors.Is(err, service.ErrTicketNotCancellable) {
			t.Errorf("%s: expected ErrTicketNotCancellable, got %v", status, err)
		}
	}
}

func TestTicket_ListEvaluatesStatusAtReadTime(t *testing.T) {
	t.Parallel()

	expired := activeTicket("tkt-old")
	expired.ExpiresAt = time.Now().Add(-time.Hour)
	fresh := activeTicket("tkt-new")

	repo := NewMockTicketRepository()
	repo.AddTicket(expired)
	repo.AddTicket(fresh)
	tickets := service.NewTicketService(repo)

	list, err := tickets.ListTickets(context.Background(), "user-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("expected 2 tickets, got %d", len(list))
	}
	for _, tk := range list {
		switch tk.ID {
		case "tkt-old":
			if tk.Status != domain.TicketStatusExpired {
				t.Errorf("expected EXPIRED, got %s", tk.Status)
			}
		case "tkt-new":
			if tk.Status != domain.TicketStatusActive {
				t.Errorf("expected ACTIVE, got %s", tk.Status)
			}
		}
	}
}

func TestPass_GetActivePass(t *testing.T) {
	t.Parallel()

	repo := NewMockPassRepository()
	passes := service.NewPassService(repo)

	repo.AddPass(&domain.Pass{
		ID:                 "pass-old",
		UserID:             "user-1",
		RouteID:            "route-1",
		Fare:               500,
		ExternalPaymentRef: "cs_pass_old",
		PurchasedAt:        time.Now().AddDate(0, -2, 0),
		ExpiresAt:          time.Now().AddDate(0, -1, 0),
	})

	if _, err := passes.GetActivePass(context.Background(), "user-1", "route-1"); !errors.Is(err, repository.ErrNotFound) {
		t.Fatalf("expected not-found with only an expired pass, got %v", err)
	}

	repo.AddPass(&domain.Pass{
		ID:                 "pass-new",
		UserID:             "user-1",
		RouteID:            "route-1",
		Fare:               500,
		ExternalPaymentRef: "cs_pass_new",
		PurchasedAt:        time.Now(),
		ExpiresAt:          time.Now().AddDate(0, 1, 0),
	})

	pass, err := passes.GetActivePass(context.Background(), "user-1", "route-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pass.ID != "pass-new" {
		t.Errorf("expected pass-new, got %s", pass.ID)
	}

	if _, err := passes.GetActivePass(context.Background(), "", "route-1"); !errors.Is(err, service.ErrInvalidUserID) {
		t.Errorf("expected ErrInvalidUserID, got %v", err)
	}
}
