package model

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestOverlaps(t *testing.T) {
	tests := []struct {
		name string
		a    DateRange
		b    DateRange
		want bool
	}{
		{
			name: "fully overlapping",
			a:    NewDateRange(date(2026, 3, 1), date(2026, 3, 3)),
			b:    NewDateRange(date(2026, 3, 1), date(2026, 3, 3)),
			want: true,
		},
		{
			name: "partial overlap",
			a:    NewDateRange(date(2026, 3, 1), date(2026, 3, 3)),
			b:    NewDateRange(date(2026, 3, 2), date(2026, 3, 4)),
			want: true,
		},
		{
			name: "contained range",
			a:    NewDateRange(date(2026, 3, 1), date(2026, 3, 10)),
			b:    NewDateRange(date(2026, 3, 4), date(2026, 3, 5)),
			want: true,
		},
		{
			name: "same-day turnover does not overlap",
			a:    NewDateRange(date(2026, 3, 1), date(2026, 3, 3)),
			b:    NewDateRange(date(2026, 3, 3), date(2026, 3, 5)),
			want: false,
		},
		{
			name: "disjoint ranges",
			a:    NewDateRange(date(2026, 3, 1), date(2026, 3, 3)),
			b:    NewDateRange(date(2026, 3, 10), date(2026, 3, 12)),
			want: false,
		},
		{
			name: "one day apart",
			a:    NewDateRange(date(2026, 3, 1), date(2026, 3, 2)),
			b:    NewDateRange(date(2026, 3, 3), date(2026, 3, 4)),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.a.Overlaps(tt.b); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v", tt.a, tt.b, got, tt.want)
			}
			// overlap is symmetric
			if got := tt.b.Overlaps(tt.a); got != tt.want {
				t.Errorf("Overlaps(%v, %v) = %v, want %v (symmetry)", tt.b, tt.a, got, tt.want)
			}
		})
	}
}

func TestOverlapsSelf(t *testing.T) {
	r := NewDateRange(date(2026, 3, 1), date(2026, 3, 3))
	if !r.Overlaps(r) {
		t.Error("a non-degenerate range must overlap itself")
	}
}

func TestIsValid(t *testing.T) {
	tests := []struct {
		name string
		r    DateRange
		want bool
	}{
		{"end after start", NewDateRange(date(2026, 3, 1), date(2026, 3, 2)), true},
		{"zero length", NewDateRange(date(2026, 3, 1), date(2026, 3, 1)), false},
		{"end before start", NewDateRange(date(2026, 3, 2), date(2026, 3, 1)), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.IsValid(); got != tt.want {
				t.Errorf("IsValid(%v) = %v, want %v", tt.r, got, tt.want)
			}
		})
	}
}

func TestDays(t *testing.T) {
	tests := []struct {
		name string
		r    DateRange
		want int
	}{
		{
			name: "two full days",
			r:    NewDateRange(date(2026, 3, 1), date(2026, 3, 3)),
			want: 2,
		},
		{
			name: "partial day bills one full day",
			r: DateRange{
				Start: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 3, 1, 17, 0, 0, 0, time.UTC),
			},
			want: 1,
		},
		{
			name: "one day plus an hour rounds up",
			r: DateRange{
				Start: time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 3, 2, 1, 0, 0, 0, time.UTC),
			},
			want: 2,
		},
		{
			name: "week",
			r:    NewDateRange(date(2026, 3, 1), date(2026, 3, 8)),
			want: 7,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.r.Days(); got != tt.want {
				t.Errorf("Days(%v) = %d, want %d", tt.r, got, tt.want)
			}
		})
	}
}
