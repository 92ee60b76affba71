package model

import "time"

// VehicleApproval is the moderation state of a listed vehicle. Only
// approved vehicles are bookable.
type VehicleApproval string

const (
	VehicleApprovalPending  VehicleApproval = "Pending"
	VehicleApprovalApproved VehicleApproval = "Approved"
	VehicleApprovalRejected VehicleApproval = "Rejected"
)

// Vehicle is owned by the vehicle directory; the booking engine reads
// the approval status, the current daily rate, and the owner of record.
type Vehicle struct {
	ID             string          `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	OwnerID        string          `json:"owner_id" bson:"owner_id" validate:"required,mongodb"`
	Title          string          `json:"title" bson:"title" validate:"required,min=2,max=120"`
	NumberPlate    string          `json:"number_plate" bson:"number_plate" validate:"required"`
	DailyRate      *float64        `json:"daily_rate" bson:"daily_rate" validate:"omitempty,gte=0"`
	Currency       string          `json:"currency" bson:"currency" validate:"omitempty,len=3"`
	ApprovalStatus VehicleApproval `json:"approval_status" bson:"approval_status" validate:"required,oneof=Pending Approved Rejected"`
	CreatedAt      time.Time       `json:"created_at" bson:"created_at" validate:"omitempty"`
	UpdatedAt      time.Time       `json:"updated_at" bson:"updated_at" validate:"omitempty"`
}

// Bookable reports whether the vehicle can accept new reservations.
func (v *Vehicle) Bookable() bool {
	return v.ApprovalStatus == VehicleApprovalApproved
}
