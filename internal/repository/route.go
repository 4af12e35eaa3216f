package repository

import (
	"context"

	"transit/internal/domain"
)

// RouteRepository defines lookup operations for route reference data.
type RouteRepository interface {
	// GetByID retrieves a route by ID.
	GetByID(ctx context.Context, id string) (*domain.Route, error)
}

// BusRepository defines lookup operations for buses.
type BusRepository interface {
	// GetByID retrieves a bus by ID.
	GetByID(ctx context.Context, id string) (*domain.Bus, error)
}
