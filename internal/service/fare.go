package service

import (
	"math"

	"transit/internal/config"
	"transit/internal/domain"
)

// concessionDiscounts maps rider categories to discount percentages.
// Unknown categories fall through to zero.
var concessionDiscounts = map[domain.ConcessionType]float64{
	domain.ConcessionGeneral:  0,
	domain.ConcessionStudent:  30,
	domain.ConcessionChild:    50,
	domain.ConcessionWomen:    20,
	domain.ConcessionElderly:  40,
	domain.ConcessionDisabled: 50,
}

// FareCalculator applies the base-fare/per-km formula and the concession
// discount table. Pure computation, no side effects.
type FareCalculator struct {
	baseFare  float64
	perKmRate float64
}

// NewFareCalculator creates a FareCalculator from config.
func NewFareCalculator(cfg config.FareConfig) *FareCalculator {
	return &FareCalculator{
		baseFare:  cfg.BaseFare,
		perKmRate: cfg.PerKmRate,
	}
}

// Calculate computes the fare breakdown for a distance and concession.
// All monetary outputs are rounded to the nearest whole currency unit.
func (f *FareCalculator) Calculate(distanceKm float64, concession domain.ConcessionType) (domain.FareBreakdown, error) {
	if distanceKm < 0 {
		return domain.FareBreakdown{}, ErrNegativeDistance
	}

	pct := concessionDiscounts[concession]

	original := math.Round(f.baseFare + f.perKmRate*distanceKm)
	discount := original * pct / 100

	return domain.FareBreakdown{
		OriginalFare:       original,
		DiscountAmount:     math.Round(discount),
		DiscountPercentage: pct,
		Concession:         concession,
		FinalFare:          math.Round(original - discount),
	}, nil
}
