// Package reward maps a quiz outcome to a credit amount. The calculator is
// a pure function over the configured slab table: no clock, no storage, no
// side effects.
package reward

import "lms/config"

type Calculator struct {
	cfg config.EngineConfig
}

func NewCalculator(cfg config.EngineConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Credits returns the credit award for one quiz attempt.
//
// Slabs: full score within the fast threshold earns the top award, full
// score within the normal threshold the middle one, any other passing
// outcome the small one. Attempts over the time limit earn nothing.
func (c *Calculator) Credits(scorePercent float64, timeTakenSeconds int, completedInTime bool) int64 {
	if !completedInTime {
		return 0
	}

	if scorePercent >= 100 {
		switch {
		case timeTakenSeconds <= c.cfg.FastThresholdSeconds:
			return c.cfg.CreditFastAndFull
		case timeTakenSeconds <= c.cfg.NormalThresholdSeconds:
			return c.cfg.CreditNormalAndFull
		default:
			return c.cfg.CreditOther
		}
	}

	// Only reachable when the configured pass threshold is below 100
	if scorePercent >= c.cfg.DefaultPassScorePercent {
		return c.cfg.CreditOther
	}

	return 0
}
