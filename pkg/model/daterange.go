package model

import (
	"time"
)

const day = 24 * time.Hour

// DateRange is a half-open interval [Start, End): the end boundary is
// exclusive, so a rental ending on day D and another starting on day D
// do not overlap (same-day turnover is allowed).
type DateRange struct {
	Start time.Time `json:"start_date" bson:"start_date" validate:"required"`
	End   time.Time `json:"end_date" bson:"end_date" validate:"required"`
}

func NewDateRange(start, end time.Time) DateRange {
	return DateRange{Start: start, End: end}
}

// IsValid reports whether the range is non-degenerate (End strictly after Start).
func (r DateRange) IsValid() bool {
	return r.End.After(r.Start)
}

// Overlaps reports whether two half-open ranges intersect.
// Symmetric: r.Overlaps(o) == o.Overlaps(r).
func (r DateRange) Overlaps(o DateRange) bool {
	return r.Start.Before(o.End) && o.Start.Before(r.End)
}

// Days returns the billable day count: the duration rounded up to whole
// days, never less than one (a partial day bills a full day).
func (r DateRange) Days() int {
	d := r.End.Sub(r.Start)
	days := int(d / day)
	if d%day != 0 {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days
}

func (r DateRange) String() string {
	return r.Start.Format(time.RFC3339) + ".." + r.End.Format(time.RFC3339)
}
