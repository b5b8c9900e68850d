package marketview

import (
	"fmt"

	"github.com/nomixtrade/marketsync/pkg/models"
)

// Horizon is the forecast distance in days selected by the user.
type Horizon int

const (
	HorizonDay   Horizon = 1
	HorizonWeek  Horizon = 7
	HorizonMonth Horizon = 30
)

// Valid reports whether h is a supported horizon.
func (h Horizon) Valid() bool {
	switch h {
	case HorizonDay, HorizonWeek, HorizonMonth:
		return true
	}
	return false
}

// Label is the horizon's display name.
func (h Horizon) Label() string {
	switch h {
	case HorizonWeek:
		return "Next 7 Days"
	case HorizonMonth:
		return "Next 30 Days"
	default:
		return "Next Day"
	}
}

// ParseHorizon validates a user-supplied horizon in days.
func ParseHorizon(days int) (Horizon, error) {
	h := Horizon(days)
	if !h.Valid() {
		return 0, fmt.Errorf("unsupported prediction horizon %d (want 1, 7 or 30)", days)
	}
	return h, nil
}

// PredictionFor selects the stock's precomputed forecast for a horizon.
// Unknown horizons fall back to the next-day value, the product default.
func PredictionFor(s models.Stock, h Horizon) float64 {
	switch h {
	case HorizonWeek:
		return s.Pred7
	case HorizonMonth:
		return s.Pred30
	default:
		return s.Pred1
	}
}

// IsBullish reports whether the forecast for a horizon sits above the
// last traded price.
func IsBullish(s models.Stock, h Horizon) bool {
	return PredictionFor(s, h) > s.Last
}
