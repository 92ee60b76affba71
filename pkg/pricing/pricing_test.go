package pricing

import (
	"math"
	"testing"
	"time"

	"driveshare/pkg/model"
)

func day(d int) time.Time {
	return time.Date(2026, 3, d, 0, 0, 0, 0, time.UTC)
}

func TestComputeTotal(t *testing.T) {
	tests := []struct {
		name  string
		r     model.DateRange
		rate  float64
		want  float64
		fails bool
	}{
		{
			name: "two days at 5000",
			r:    model.NewDateRange(day(1), day(3)),
			rate: 5000,
			want: 10000,
		},
		{
			name: "one day at 5000",
			r:    model.NewDateRange(day(5), day(6)),
			rate: 5000,
			want: 5000,
		},
		{
			name: "partial day bills one day",
			r: model.DateRange{
				Start: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
				End:   time.Date(2026, 3, 1, 15, 0, 0, 0, time.UTC),
			},
			rate: 2500,
			want: 2500,
		},
		{
			name: "zero rate is legal",
			r:    model.NewDateRange(day(1), day(4)),
			rate: 0,
			want: 0,
		},
		{
			name:  "negative rate rejected",
			r:     model.NewDateRange(day(1), day(3)),
			rate:  -1,
			fails: true,
		},
		{
			name:  "NaN rate rejected",
			r:     model.NewDateRange(day(1), day(3)),
			rate:  math.NaN(),
			fails: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ComputeTotal(tt.r, tt.rate)
			if tt.fails {
				if err == nil {
					t.Fatalf("expected error, got total %v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("ComputeTotal = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComputeTotalDeterministic(t *testing.T) {
	r := model.NewDateRange(day(1), day(8))
	first, err := ComputeTotal(r, 7300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for i := 0; i < 100; i++ {
		again, err := ComputeTotal(r, 7300)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if again != first {
			t.Fatalf("ComputeTotal not deterministic: %v != %v", again, first)
		}
	}
}
