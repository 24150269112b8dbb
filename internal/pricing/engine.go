// Package pricing computes the amount due for a booking in currency
// minor units. All arithmetic is integral; no floating point.
package pricing

import "github.com/wolfman30/telecare-platform/internal/insurance"

// Engine combines the provider base price, the platform fee and the
// eligibility classification into a total due.
type Engine struct {
	platformFeeCents int64
}

// NewEngine creates a pricing engine with the given platform fee.
func NewEngine(platformFeeCents int64) *Engine {
	return &Engine{platformFeeCents: platformFeeCents}
}

// ComputeTotal returns the total due in minor units. An in-network
// classification reduces the total to the copay alone; every other
// status (including not submitted, i.e. self-pay) pays the provider
// base price plus the platform fee.
func (e *Engine) ComputeTotal(basePriceCents int64, elig insurance.Result) int64 {
	if elig.Status == insurance.StatusInNetwork {
		return elig.CopayCents
	}
	return basePriceCents + e.platformFeeCents
}

// PlatformFeeCents returns the configured fee.
func (e *Engine) PlatformFeeCents() int64 {
	return e.platformFeeCents
}
