// internal/odds/odds.go
package odds

import "github.com/shopspring/decimal"

// Config bounds the odds formula. All values are fixed at construction;
// the engine itself is pure and carries no mutable state.
type Config struct {
	HouseEdge      float64 // fraction retained by the house, e.g. 0.15
	AssumedWinProb float64 // win probability assumed when no win-rate is cached
	MinWinProb     float64 // clamp band for the derived win probability
	MaxWinProb     float64
	MinMultiplier  decimal.Decimal // clamp band for the final multiplier
	MaxMultiplier  decimal.Decimal
}

// DefaultConfig returns the production odds parameters: a 15% house edge,
// win probability clamped to [25%, 80%] and the multiplier to [1.20x, 3.00x].
func DefaultConfig() Config {
	return Config{
		HouseEdge:      0.15,
		AssumedWinProb: 0.50,
		MinWinProb:     0.25,
		MaxWinProb:     0.80,
		MinMultiplier:  decimal.NewFromFloat(1.20),
		MaxMultiplier:  decimal.NewFromFloat(3.00),
	}
}

// Engine converts a cached win-rate into a payout multiplier.
type Engine struct {
	cfg Config
}

// NewEngine creates an odds engine with the given configuration.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// Compute maps a win-rate percentage (nullable) to a payout multiplier,
// rounded to two decimal places. With no cached win-rate the assumed
// probability applies, which yields 1.70x under the default config.
// The result is monotonically non-increasing in the win-rate within the
// clamp band: better players get shorter odds.
func (e *Engine) Compute(winRate *float64) decimal.Decimal {
	p := e.cfg.AssumedWinProb
	if winRate != nil {
		p = clampFloat(*winRate/100, e.cfg.MinWinProb, e.cfg.MaxWinProb)
	}

	raw := decimal.NewFromFloat((1 / p) * (1 - e.cfg.HouseEdge))
	if raw.LessThan(e.cfg.MinMultiplier) {
		raw = e.cfg.MinMultiplier
	}
	if raw.GreaterThan(e.cfg.MaxMultiplier) {
		raw = e.cfg.MaxMultiplier
	}
	return raw.Round(2)
}

// LabelFor maps a win-rate to a display category. Pure lookup, no
// behavioral contract beyond matching the odds bands.
func (e *Engine) LabelFor(winRate *float64) string {
	switch {
	case winRate == nil:
		return "Unrated"
	case *winRate >= 65:
		return "Dominant"
	case *winRate >= 45:
		return "Balanced"
	default:
		return "High Risk"
	}
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
