package postgres

import (
	"context"
	"database/sql"
	"errors"

	"transit/internal/domain"
	"transit/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	db *sql.DB
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{db: db}
}

const rideColumns = `id, user_id, route_id, bus_id, start_lat, start_lng, started_at, end_lat, end_lng, ended_at, status, distance_km, calculation_method, original_fare, discount_amount, discount_percentage, concession, final_fare, payment_status, created_at, completed_at`

// Create persists a new active ride. The partial unique index on
// rides(user_id) WHERE status = 'ACTIVE' enforces one active ride per user.
func (r *RideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	query := `
		INSERT INTO rides (id, user_id, route_id, bus_id, start_lat, start_lng, started_at, status, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		ride.ID,
		ride.UserID,
		ride.RouteID,
		ride.BusID,
		ride.Start.Lat,
		ride.Start.Lng,
		ride.Start.Timestamp,
		ride.Status,
		ride.PaymentStatus,
		ride.CreatedAt,
	)
	if isUniqueViolation(err) {
		return repository.ErrDuplicate
	}
	return err
}

// GetByID retrieves a ride by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE id = $1`
	return scanRide(r.db.QueryRowContext(ctx, query, id))
}

// GetActiveByUserID retrieves the user's active ride.
func (r *RideRepository) GetActiveByUserID(ctx context.Context, userID string) (*domain.Ride, error) {
	query := `SELECT ` + rideColumns + ` FROM rides WHERE user_id = $1 AND status = $2`
	return scanRide(r.db.QueryRowContext(ctx, query, userID, domain.RideStatusActive))
}

// Complete moves the ride from ACTIVE to COMPLETED and writes the end
// location, distance and fare breakdown. The status guard makes the fare
// fields write-once.
func (r *RideRepository) Complete(ctx context.Context, ride *domain.Ride) (bool, error) {
	query := `
		UPDATE rides
		SET status = $1,
		    end_lat = $2, end_lng = $3, ended_at = $4,
		    distance_km = $5, calculation_method = $6,
		    original_fare = $7, discount_amount = $8, discount_percentage = $9,
		    concession = $10, final_fare = $11,
		    completed_at = $12
		WHERE id = $13 AND status = $14
	`

	result, err := r.db.ExecContext(ctx, query,
		domain.RideStatusCompleted,
		ride.End.Lat,
		ride.End.Lng,
		ride.End.Timestamp,
		ride.DistanceKm,
		ride.Method,
		ride.Fare.OriginalFare,
		ride.Fare.DiscountAmount,
		ride.Fare.DiscountPercentage,
		ride.Fare.Concession,
		ride.Fare.FinalFare,
		ride.CompletedAt,
		ride.ID,
		domain.RideStatusActive,
	)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

// UpdatePaymentStatus records the outcome of the fare debit.
func (r *RideRepository) UpdatePaymentStatus(ctx context.Context, id string, status domain.RidePaymentStatus) error {
	query := `UPDATE rides SET payment_status = $1 WHERE id = $2`

	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func scanRide(row *sql.Row) (*domain.Ride, error) {
	var ride domain.Ride
	var endLat, endLng sql.NullFloat64
	var endedAt, completedAt sql.NullTime
	var method, concession sql.NullString

	err := row.Scan(
		&ride.ID,
		&ride.UserID,
		&ride.RouteID,
		&ride.BusID,
		&ride.Start.Lat,
		&ride.Start.Lng,
		&ride.Start.Timestamp,
		&endLat,
		&endLng,
		&endedAt,
		&ride.Status,
		&ride.DistanceKm,
		&method,
		&ride.Fare.OriginalFare,
		&ride.Fare.DiscountAmount,
		&ride.Fare.DiscountPercentage,
		&concession,
		&ride.Fare.FinalFare,
		&ride.PaymentStatus,
		&ride.CreatedAt,
		&completedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	if endLat.Valid && endLng.Valid {
		ride.End = &domain.GeoPoint{Lat: endLat.Float64, Lng: endLng.Float64}
		if endedAt.Valid {
			ride.End.Timestamp = endedAt.Time
		}
	}
	if method.Valid {
		ride.Method = domain.CalculationMethod(method.String)
	}
	if concession.Valid {
		ride.Fare.Concession = domain.ConcessionType(concession.String)
	}
	if completedAt.Valid {
		ride.CompletedAt = completedAt.Time
	}
	return &ride, nil
}
