package domain

import "time"

// TicketStatus represents the lifecycle state of a ticket.
type TicketStatus string

const (
	TicketStatusActive    TicketStatus = "ACTIVE"
	TicketStatusUsed      TicketStatus = "USED"
	TicketStatusExpired   TicketStatus = "EXPIRED"
	TicketStatusCancelled TicketStatus = "CANCELLED"
)

// Ticket is a single-ride (or bounded multi-ride) entitlement created only
// after payment settlement. USED, EXPIRED and CANCELLED are terminal.
type Ticket struct {
	ID                 string
	UserID             string
	RouteID            string
	BusID              string
	StartStation       string
	EndStation         string
	Price              float64
	ExternalPaymentRef string
	Status             TicketStatus
	UsageCount         int
	MaxUsage           int
	ExpiresAt          time.Time
	LastUsedAt         time.Time
	CreatedAt          time.Time
}

// IsValid reports whether the ticket can be consumed at the given instant.
// A ticket past its expiry is invalid regardless of the stored status.
func (t *Ticket) IsValid(now time.Time) bool {
	return t.Status == TicketStatusActive &&
		now.Before(t.ExpiresAt) &&
		t.UsageCount < t.MaxUsage
}

// EffectiveStatus returns the status as of now, treating an active but
// past-expiry ticket as expired even before the sweeper materializes it.
func (t *Ticket) EffectiveStatus(now time.Time) TicketStatus {
	if t.Status == TicketStatusActive && !now.Before(t.ExpiresAt) {
		return TicketStatusExpired
	}
	return t.Status
}
