package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"transit/internal/domain"
	"transit/internal/repository"
	"transit/internal/service"
)

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User

	CreateCallCount int32

	CreateError error
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*domain.User)}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByPhone(ctx context.Context, phone string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Phone == phone {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) GetAll(ctx context.Context) ([]*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]*domain.User, 0, len(m.users))
	for _, u := range m.users {
		copy := *u
		result = append(result, &copy)
	}
	return result, nil
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.RWMutex
	payments map[string]*domain.Payment // keyed by payment id

	CreateCallCount        int32
	MarkCompletedCallCount int32
	MarkFailedCallCount    int32

	CreateError        error
	GetError           error
	MarkCompletedError error
	MarkFailedError    error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{payments: make(map[string]*domain.Payment)}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ExternalSessionID == payment.ExternalSessionID && p.Status != domain.PaymentStatusFailed {
			return repository.ErrDuplicate
		}
	}
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	payment, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *payment
	return &copy, nil
}

func (m *MockPaymentRepository) GetByExternalSessionID(ctx context.Context, sessionID string) (*domain.Payment, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.payments {
		if p.ExternalSessionID == sessionID {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) FindPendingByUserAndType(ctx context.Context, userID string, purchaseType domain.PurchaseType, since time.Time) (*domain.Payment, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	var newest *domain.Payment
	for _, p := range m.payments {
		if p.UserID != userID || p.PurchaseType != purchaseType || p.Status != domain.PaymentStatusPending {
			continue
		}
		if p.CreatedAt.Before(since) {
			continue
		}
		if newest == nil || p.CreatedAt.After(newest.CreatedAt) {
			newest = p
		}
	}
	if newest == nil {
		return nil, nil
	}
	copy := *newest
	return &copy, nil
}

func (m *MockPaymentRepository) MarkCompleted(ctx context.Context, sessionID string) (bool, error) {
	atomic.AddInt32(&m.MarkCompletedCallCount, 1)
	if m.MarkCompletedError != nil {
		return false, m.MarkCompletedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ExternalSessionID == sessionID && p.Status == domain.PaymentStatusPending {
			p.Status = domain.PaymentStatusCompleted
			return true, nil
		}
	}
	return false, nil
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, sessionID string) error {
	atomic.AddInt32(&m.MarkFailedCallCount, 1)
	if m.MarkFailedError != nil {
		return m.MarkFailedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.ExternalSessionID == sessionID && p.Status == domain.PaymentStatusPending {
			p.Status = domain.PaymentStatusFailed
		}
	}
	return nil
}

// GetPayment returns the stored payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.payments[id]
}

// CountPayments returns the number of stored payments.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.payments)
}

// ──────────────────────────────────────────────
// MOCK WALLET REPOSITORY
// ──────────────────────────────────────────────

// MockWalletRepository is a mock implementation of WalletRepository. Credit
// and Debit hold one mutex across the balance check, the balance update and
// the ledger append, matching the transactional guarantees of the real
// implementation.
type MockWalletRepository struct {
	mu       sync.Mutex
	balances map[string]float64
	ledger   []*domain.WalletTransaction
	applied  map[string]bool // direction + related entity id

	CreditCallCount int32
	DebitCallCount  int32

	CreditError error
	DebitError  error
}

// NewMockWalletRepository creates a new mock wallet repository.
func NewMockWalletRepository() *MockWalletRepository {
	return &MockWalletRepository{
		balances: make(map[string]float64),
		applied:  make(map[string]bool),
	}
}

// SetBalance seeds a wallet balance.
func (m *MockWalletRepository) SetBalance(userID string, balance float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = balance
}

func appliedKey(entry *domain.WalletTransaction) string {
	return string(entry.Direction) + ":" + entry.RelatedEntityID
}

func (m *MockWalletRepository) Credit(ctx context.Context, entry *domain.WalletTransaction) (float64, error) {
	atomic.AddInt32(&m.CreditCallCount, 1)
	if m.CreditError != nil {
		return 0, m.CreditError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.RelatedEntityID != "" && m.applied[appliedKey(entry)] {
		return m.balances[entry.UserID], repository.ErrDuplicate
	}
	m.balances[entry.UserID] += entry.Amount
	m.ledger = append(m.ledger, entry)
	if entry.RelatedEntityID != "" {
		m.applied[appliedKey(entry)] = true
	}
	return m.balances[entry.UserID], nil
}

func (m *MockWalletRepository) Debit(ctx context.Context, entry *domain.WalletTransaction) (float64, error) {
	atomic.AddInt32(&m.DebitCallCount, 1)
	if m.DebitError != nil {
		return 0, m.DebitError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry.RelatedEntityID != "" && m.applied[appliedKey(entry)] {
		return m.balances[entry.UserID], repository.ErrDuplicate
	}
	if m.balances[entry.UserID] < entry.Amount {
		return m.balances[entry.UserID], repository.ErrInsufficientBalance
	}
	m.balances[entry.UserID] -= entry.Amount
	m.ledger = append(m.ledger, entry)
	if entry.RelatedEntityID != "" {
		m.applied[appliedKey(entry)] = true
	}
	return m.balances[entry.UserID], nil
}

func (m *MockWalletRepository) GetByUserID(ctx context.Context, userID string) (*domain.Wallet, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance, ok := m.balances[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &domain.Wallet{UserID: userID, Balance: balance}, nil
}

func (m *MockWalletRepository) ListTransactions(ctx context.Context, userID string, limit, offset int) ([]*domain.WalletTransaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.WalletTransaction
	for i := len(m.ledger) - 1; i >= 0; i-- {
		if m.ledger[i].UserID == userID {
			result = append(result, m.ledger[i])
		}
	}
	if offset >= len(result) {
		return nil, nil
	}
	result = result[offset:]
	if limit > 0 && limit < len(result) {
		result = result[:limit]
	}
	return result, nil
}

// Balance returns the current balance for test assertions.
func (m *MockWalletRepository) Balance(userID string) float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID]
}

// LedgerSize returns the number of ledger entries.
func (m *MockWalletRepository) LedgerSize() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.ledger)
}

// ──────────────────────────────────────────────
// MOCK TICKET REPOSITORY
// ──────────────────────────────────────────────

// MockTicketRepository is a mock implementation of TicketRepository.
type MockTicketRepository struct {
	mu      sync.Mutex
	tickets map[string]*domain.Ticket

	CreateCallCount     int32
	ConsumeUseCallCount int32

	CreateError     error
	GetError        error
	ConsumeUseError error
}

// NewMockTicketRepository creates a new mock ticket repository.
func NewMockTicketRepository() *MockTicketRepository {
	return &MockTicketRepository{tickets: make(map[string]*domain.Ticket)}
}

// AddTicket adds a ticket to the mock repository.
func (m *MockTicketRepository) AddTicket(ticket *domain.Ticket) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tickets[ticket.ID] = ticket
}

func (m *MockTicketRepository) Create(ctx context.Context, ticket *domain.Ticket) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.ExternalPaymentRef == ticket.ExternalPaymentRef {
			return repository.ErrDuplicate
		}
	}
	copy := *ticket
	m.tickets[ticket.ID] = &copy
	return nil
}

func (m *MockTicketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ticket
	return &copy, nil
}

func (m *MockTicketRepository) GetByExternalRef(ctx context.Context, ref string) (*domain.Ticket, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range m.tickets {
		if t.ExternalPaymentRef == ref {
			copy := *t
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockTicketRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Ticket, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Ticket
	for _, t := range m.tickets {
		if t.UserID == userID {
			copy := *t
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MockTicketRepository) ConsumeUse(ctx context.Context, id string, now time.Time) (*domain.Ticket, error) {
	atomic.AddInt32(&m.ConsumeUseCallCount, 1)
	if m.ConsumeUseError != nil {
		return nil, m.ConsumeUseError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if ticket.Status != domain.TicketStatusActive || !now.Before(ticket.ExpiresAt) || ticket.UsageCount >= ticket.MaxUsage {
		return nil, repository.ErrNotFound
	}
	ticket.UsageCount++
	ticket.LastUsedAt = now
	if ticket.UsageCount >= ticket.MaxUsage {
		ticket.Status = domain.TicketStatusUsed
	}
	copy := *ticket
	return &copy, nil
}

func (m *MockTicketRepository) Cancel(ctx context.Context, id string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ticket, ok := m.tickets[id]
	if !ok || ticket.Status != domain.TicketStatusActive {
		return false, nil
	}
	ticket.Status = domain.TicketStatusCancelled
	return true, nil
}

func (m *MockTicketRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var swept int64
	for _, t := range m.tickets {
		if t.Status == domain.TicketStatusActive && !now.Before(t.ExpiresAt) {
			t.Status = domain.TicketStatusExpired
			swept++
		}
	}
	return swept, nil
}

// GetTicket returns the stored ticket for test assertions.
func (m *MockTicketRepository) GetTicket(id string) *domain.Ticket {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tickets[id]
}

// CountTickets returns the number of stored tickets.
func (m *MockTicketRepository) CountTickets() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickets)
}

// ──────────────────────────────────────────────
// MOCK PASS REPOSITORY
// ──────────────────────────────────────────────

// MockPassRepository is a mock implementation of PassRepository.
type MockPassRepository struct {
	mu     sync.Mutex
	passes map[string]*domain.Pass

	CreateIfNoneCallCount int32

	CreateError error
}

// NewMockPassRepository creates a new mock pass repository.
func NewMockPassRepository() *MockPassRepository {
	return &MockPassRepository{passes: make(map[string]*domain.Pass)}
}

// AddPass adds a pass to the mock repository.
func (m *MockPassRepository) AddPass(pass *domain.Pass) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.passes[pass.ID] = pass
}

func (m *MockPassRepository) CreateIfNone(ctx context.Context, pass *domain.Pass, now time.Time) error {
	atomic.AddInt32(&m.CreateIfNoneCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.passes {
		if p.ExternalPaymentRef == pass.ExternalPaymentRef {
			return repository.ErrDuplicate
		}
		if p.UserID == pass.UserID && p.RouteID == pass.RouteID && p.ExpiresAt.After(now) {
			return repository.ErrDuplicate
		}
	}
	copy := *pass
	m.passes[pass.ID] = &copy
	return nil
}

// ExpireAllPasses moves every stored pass's expiry into the past.
func (m *MockPassRepository) ExpireAllPasses(now time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.passes {
		p.ExpiresAt = now.Add(-time.Minute)
	}
}

func (m *MockPassRepository) GetActiveByUserAndRoute(ctx context.Context, userID, routeID string, now time.Time) (*domain.Pass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.passes {
		if p.UserID == userID && p.RouteID == routeID && p.ExpiresAt.After(now) {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPassRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Pass, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Pass
	for _, p := range m.passes {
		if p.UserID == userID {
			copy := *p
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PurchasedAt.After(result[j].PurchasedAt)
	})
	return result, nil
}

// CountPasses returns the number of stored passes.
func (m *MockPassRepository) CountPasses() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.passes)
}

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository.
type MockRideRepository struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride

	CreateCallCount   int32
	CompleteCallCount int32

	CreateError              error
	CompleteError            error
	UpdatePaymentStatusError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{rides: make(map[string]*domain.Ride)}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rides {
		if r.UserID == ride.UserID && r.Status == domain.RideStatusActive {
			return repository.ErrDuplicate
		}
	}
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, r := range m.rides {
		if r.UserID == userID && r.Status == domain.RideStatusActive {
			copy := *r
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockRideRepository) Complete(ctx context.Context, ride *domain.Ride) (bool, error) {
	atomic.AddInt32(&m.CompleteCallCount, 1)
	if m.CompleteError != nil {
		return false, m.CompleteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.rides[ride.ID]
	if !ok || stored.Status != domain.RideStatusActive {
		return false, nil
	}
	stored.Status = domain.RideStatusCompleted
	stored.End = ride.End
	stored.DistanceKm = ride.DistanceKm
	stored.Method = ride.Method
	stored.Fare = ride.Fare
	stored.CompletedAt = ride.CompletedAt
	return true, nil
}

func (m *MockRideRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.RidePaymentStatus) error {
	if m.UpdatePaymentStatusError != nil {
		return m.UpdatePaymentStatusError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	ride.PaymentStatus = status
	return nil
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rides[id]
}

// ──────────────────────────────────────────────
// MOCK ROUTE AND BUS REPOSITORIES
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	mu     sync.RWMutex
	routes map[string]*domain.Route

	GetError error
}

// NewMockRouteRepository creates a new mock route repository.
func NewMockRouteRepository() *MockRouteRepository {
	return &MockRouteRepository{routes: make(map[string]*domain.Route)}
}

// AddRoute adds a route to the mock repository.
func (m *MockRouteRepository) AddRoute(route *domain.Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.routes[route.ID] = route
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	route, ok := m.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *route
	return &copy, nil
}

// MockBusRepository is a mock implementation of BusRepository.
type MockBusRepository struct {
	mu    sync.RWMutex
	buses map[string]*domain.Bus
}

// NewMockBusRepository creates a new mock bus repository.
func NewMockBusRepository() *MockBusRepository {
	return &MockBusRepository{buses: make(map[string]*domain.Bus)}
}

// AddBus adds a bus to the mock repository.
func (m *MockBusRepository) AddBus(bus *domain.Bus) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.buses[bus.ID] = bus
}

func (m *MockBusRepository) GetByID(ctx context.Context, id string) (*domain.Bus, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	bus, ok := m.buses[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *bus
	return &copy, nil
}

// ──────────────────────────────────────────────
// MOCK CHECKOUT PROVIDER
// ──────────────────────────────────────────────

// MockCheckoutProvider is a mock implementation of CheckoutProvider.
type MockCheckoutProvider struct {
	mu       sync.Mutex
	sessions []service.ProviderSessionRequest

	CreateSessionCallCount int32

	CreateSessionError error
}

// NewMockCheckoutProvider creates a new mock checkout provider.
func NewMockCheckoutProvider() *MockCheckoutProvider {
	return &MockCheckoutProvider{}
}

func (m *MockCheckoutProvider) CreateSession(ctx context.Context, req service.ProviderSessionRequest) (*service.ProviderSession, error) {
	n := atomic.AddInt32(&m.CreateSessionCallCount, 1)
	if m.CreateSessionError != nil {
		return nil, m.CreateSessionError
	}
	m.mu.Lock()
	m.sessions = append(m.sessions, req)
	m.mu.Unlock()
	return &service.ProviderSession{
		ID:          fmt.Sprintf("cs_test_%d", n),
		CheckoutURL: fmt.Sprintf("https://checkout.example.com/cs_test_%d", n),
	}, nil
}

// Sessions returns the recorded session requests.
func (m *MockCheckoutProvider) Sessions() []service.ProviderSessionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]service.ProviderSessionRequest(nil), m.sessions...)
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStoreInterface.
type MockLockStore struct {
	mu    sync.Mutex
	locks map[string]bool

	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{locks: make(map[string]bool)}
}

func (m *MockLockStore) AcquireCheckoutLock(ctx context.Context, userID, purchaseType string, ttl time.Duration) (bool, error) {
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	key := userID + ":" + purchaseType
	if m.locks[key] {
		return false, nil
	}
	m.locks[key] = true
	return true, nil
}

func (m *MockLockStore) ReleaseCheckoutLock(ctx context.Context, userID, purchaseType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, userID+":"+purchaseType)
	return nil
}
