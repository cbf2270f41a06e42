package metrics

import "errors"

// Metric computation errors. Each per-farm computation is isolated: one
// farm's failure never aborts its siblings.
var (
	// ErrPriceUnavailable is returned when a required symbol has no price.
	// A missing price is never substituted with zero.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrDivisionUndefined is returned when LP supply or staked liquidity is
	// zero. The result is never reported as 0 or Inf.
	ErrDivisionUndefined = errors.New("division undefined")
)
