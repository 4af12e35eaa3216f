package postgres

import (
	"context"
	"database/sql"
	"errors"

	"transit/internal/domain"
	"transit/internal/repository"
)

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	db *sql.DB
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT id, name, origin, destination FROM routes WHERE id = $1`

	var route domain.Route
	err := r.db.QueryRowContext(ctx, query, id).Scan(&route.ID, &route.Name, &route.From, &route.To)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &route, nil
}

// BusRepository is a PostgreSQL implementation of repository.BusRepository.
type BusRepository struct {
	db *sql.DB
}

// NewBusRepository creates a new PostgreSQL bus repository.
func NewBusRepository(db *sql.DB) *BusRepository {
	return &BusRepository{db: db}
}

// GetByID retrieves a bus by ID.
func (r *BusRepository) GetByID(ctx context.Context, id string) (*domain.Bus, error) {
	query := `SELECT id, route_id, number FROM buses WHERE id = $1`

	var bus domain.Bus
	err := r.db.QueryRowContext(ctx, query, id).Scan(&bus.ID, &bus.RouteID, &bus.Number)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &bus, nil
}
