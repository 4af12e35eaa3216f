package domain

import "time"

// Pass is a monthly route entitlement. It has no status field: validity is
// purely date-derived, and renewal means creating a new pass.
type Pass struct {
	ID                 string
	UserID             string
	RouteID            string
	Fare               float64
	ExternalPaymentRef string
	PurchasedAt        time.Time
	ExpiresAt          time.Time
}

// IsValid reports whether the pass covers the given instant.
func (p *Pass) IsValid(now time.Time) bool {
	return p.ExpiresAt.After(now)
}
