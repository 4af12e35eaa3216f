package domain

import "time"

// RideStatus represents the current status of a ride.
type RideStatus string

const (
	RideStatusActive    RideStatus = "ACTIVE"
	RideStatusCompleted RideStatus = "COMPLETED"
	RideStatusCancelled RideStatus = "CANCELLED"
)

// RidePaymentStatus records the outcome of the fare debit at ride end.
type RidePaymentStatus string

const (
	RidePaymentPending RidePaymentStatus = "PENDING"
	RidePaymentPaid    RidePaymentStatus = "PAID"
	RidePaymentFailed  RidePaymentStatus = "FAILED"
)

// CalculationMethod records which path produced a distance estimate.
type CalculationMethod string

const (
	CalculationExternalAPI CalculationMethod = "external_api"
	CalculationHaversine   CalculationMethod = "haversine"
)

// GeoPoint is a timestamped coordinate pair.
type GeoPoint struct {
	Lat       float64
	Lng       float64
	Timestamp time.Time
}

// FareBreakdown is the write-once fare computed when a ride completes.
type FareBreakdown struct {
	OriginalFare       float64
	DiscountAmount     float64
	DiscountPercentage float64
	Concession         ConcessionType
	FinalFare          float64
}

// Ride represents a rider's trip. A user has at most one ACTIVE ride at a
// time; completion is irreversible and the fare fields are written exactly
// once, at completion.
type Ride struct {
	ID            string
	UserID        string
	RouteID       string
	BusID         string
	Start         GeoPoint
	End           *GeoPoint
	Status        RideStatus
	DistanceKm    float64
	Method        CalculationMethod
	Fare          FareBreakdown
	PaymentStatus RidePaymentStatus
	CreatedAt     time.Time
	CompletedAt   time.Time
}
