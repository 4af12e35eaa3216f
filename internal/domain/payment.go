package domain

import "time"

// PaymentStatus represents the current status of a payment.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

// PurchaseType identifies what a checkout session pays for.
type PurchaseType string

const (
	PurchaseWalletTopup PurchaseType = "wallet_topup"
	PurchasePass        PurchaseType = "pass"
	PurchaseTicket      PurchaseType = "ticket"
)

// Valid reports whether t is a known purchase type.
func (t PurchaseType) Valid() bool {
	switch t {
	case PurchaseWalletTopup, PurchasePass, PurchaseTicket:
		return true
	}
	return false
}

// Payment represents a local record of an external checkout session.
// Exactly one non-failed payment may exist per external session id, and
// status only moves PENDING -> COMPLETED or PENDING -> FAILED.
type Payment struct {
	ID                string
	UserID            string
	PurchaseType      PurchaseType
	Amount            float64
	ExternalSessionID string
	CheckoutURL       string
	Status            PaymentStatus
	RouteID           string
	StationID         string
	BusID             string
	CreatedAt         time.Time
}
