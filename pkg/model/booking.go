package model

import (
	"time"
)

// Booking is the core reservation document. OwnerID is denormalized from
// the vehicle at creation time so owner-side queries and historical
// earnings survive later vehicle reassignment. DailyRate is snapshotted
// at creation and never resynced with the vehicle; TotalAmount is always
// derived from (StartDate, EndDate, DailyRate) and never mutated
// independently.
type Booking struct {
	ID          string        `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	VehicleID   string        `json:"vehicle_id" bson:"vehicle_id" validate:"required,mongodb"`
	CustomerID  string        `json:"customer_id" bson:"customer_id" validate:"required,mongodb"`
	OwnerID     string        `json:"owner_id" bson:"owner_id" validate:"omitempty,mongodb"`
	StartDate   time.Time     `json:"start_date" bson:"start_date" validate:"required"`
	EndDate     time.Time     `json:"end_date" bson:"end_date" validate:"required,gtfield=StartDate"`
	DailyRate   float64       `json:"daily_rate" bson:"daily_rate" validate:"omitempty,gte=0"`
	TotalAmount float64       `json:"total_amount" bson:"total_amount" validate:"omitempty,gte=0"`
	Currency    string        `json:"currency" bson:"currency" validate:"omitempty,len=3"`
	Status      BookingStatus `json:"status" bson:"status" validate:"omitempty,oneof=pending approved rejected cancelled"`
	Documents   []string      `json:"documents,omitempty" bson:"documents,omitempty" validate:"omitempty,max=20,dive,min=1"`
	CreatedAt   time.Time     `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt   time.Time     `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Range returns the booking's half-open reservation window.
func (b *Booking) Range() DateRange {
	return DateRange{Start: b.StartDate, End: b.EndDate}
}

// BookingUpdate is the mutable subset a customer may patch while the
// booking is pending. Status changes go through the lifecycle
// transitions, not through this patch.
type BookingUpdate struct {
	StartDate *time.Time `json:"start_date,omitempty" validate:"omitempty"`
	EndDate   *time.Time `json:"end_date,omitempty" validate:"omitempty"`
	Documents *[]string  `json:"documents,omitempty" validate:"omitempty,max=20,dive,min=1"`
}

// DatesChanged reports whether the patch touches the reservation window.
func (u *BookingUpdate) DatesChanged() bool {
	return u.StartDate != nil || u.EndDate != nil
}

// CalendarEntry is one occupied window on a vehicle's calendar.
type CalendarEntry struct {
	BookingID string        `json:"booking_id"`
	Range     DateRange     `json:"range"`
	Status    BookingStatus `json:"status"`
}
