// Package pricing derives rental charges from a reservation window and a
// snapshotted daily rate. The calculation is a pure function of
// (range, rate); callers recompute the total whenever either changes
// instead of patching it incrementally.
package pricing

import (
	"errors"
	"math"

	"driveshare/pkg/model"
)

var ErrInvalidRate = errors.New("pricing: daily rate must be a non-negative number")

// ComputeTotal returns days * rate where days is the range duration
// rounded up to whole days with a minimum of one.
func ComputeTotal(r model.DateRange, dailyRate float64) (float64, error) {
	if math.IsNaN(dailyRate) || math.IsInf(dailyRate, 0) || dailyRate < 0 {
		return 0, ErrInvalidRate
	}
	return float64(r.Days()) * dailyRate, nil
}
