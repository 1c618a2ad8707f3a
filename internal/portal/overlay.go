package portal

import "github.com/educypnishi/embassydemo/internal/simrand"

// Overlay is the presentation-time randomization layer applied to the
// data-bearing profiles. It never touches the store: two identical
// queries may disagree about availability while the persisted truth
// stays put. The suppression chances are re-rolled on every call.
type Overlay struct {
	// Month-level: chance of reporting the whole month closed, itself
	// drawn uniformly from [MonthSuppressMin, MonthSuppressMax) per query.
	MonthSuppressMin float64
	MonthSuppressMax float64

	// Day-level: fixed chance of reporting zero time slots for a day.
	DaySuppressChance float64
}

// DefaultOverlay matches the real-portal numbers: 15-25% month
// suppression, 10% day suppression.
func DefaultOverlay() Overlay {
	return Overlay{
		MonthSuppressMin:  0.15,
		MonthSuppressMax:  0.25,
		DaySuppressChance: 0.10,
	}
}

// SuppressMonth rolls the month-level suppression for one query.
func (o Overlay) SuppressMonth(rng *simrand.Rand) bool {
	chance := rng.Between(o.MonthSuppressMin, o.MonthSuppressMax)
	return rng.Float64() < chance
}

// SuppressDay rolls the day-level slot suppression for one query.
func (o Overlay) SuppressDay(rng *simrand.Rand) bool {
	return rng.Float64() < o.DaySuppressChance
}
