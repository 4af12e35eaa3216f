package service

import "errors"

var (
	// ErrInvalidUserID is returned when a user id is empty.
	ErrInvalidUserID = errors.New("invalid user id")

	// ErrInvalidAmount is returned when a monetary amount is not positive.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrInvalidPurchaseType is returned for an unrecognized purchase type.
	ErrInvalidPurchaseType = errors.New("invalid purchase type")

	// ErrMissingRoute is returned when a pass checkout lacks a route id.
	ErrMissingRoute = errors.New("route id is required")

	// ErrMissingStationOrBus is returned when a ticket checkout lacks
	// station or bus context.
	ErrMissingStationOrBus = errors.New("station id and bus id are required")

	// ErrNegativeDistance is returned when a fare is requested for a
	// negative distance.
	ErrNegativeDistance = errors.New("distance cannot be negative")

	// ErrInvalidCoordinates is returned for out-of-range lat/lng values.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrInsufficientFunds is returned when a wallet debit would overdraw.
	ErrInsufficientFunds = errors.New("insufficient wallet balance")

	// ErrTicketNotValidForUse is returned when a ticket cannot be consumed.
	ErrTicketNotValidForUse = errors.New("ticket not valid for use")

	// ErrTicketNotCancellable is returned when a ticket is not active.
	ErrTicketNotCancellable = errors.New("ticket cannot be cancelled")

	// ErrUserHasActiveRide is returned when starting a second ride.
	ErrUserHasActiveRide = errors.New("user already has an active ride")

	// ErrRideNotActive is returned when ending a ride that is not active.
	ErrRideNotActive = errors.New("ride is not active")

	// ErrCheckoutInFlight is returned when an identical checkout intent is
	// already being processed. Retryable.
	ErrCheckoutInFlight = errors.New("checkout already in flight for this intent")

	// ErrProviderUnavailable is returned when the payment provider fails.
	ErrProviderUnavailable = errors.New("payment provider unavailable")

	// ErrAmountMismatch is returned when a settlement event's paid amount
	// does not match the recorded payment amount.
	ErrAmountMismatch = errors.New("paid amount does not match payment")

	// ErrPaymentAlreadyFailed is returned for settlement events against a
	// payment in the terminal FAILED state.
	ErrPaymentAlreadyFailed = errors.New("payment already failed")
)
