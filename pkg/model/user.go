package model

import "time"

// User is owned by the user directory; the booking engine only reads
// the role for authorization checks.
type User struct {
	ID        string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	Name      string    `json:"name" bson:"name" validate:"required,min=2,max=100"`
	Email     string    `json:"email" bson:"email" validate:"required,email"`
	Role      Role      `json:"role" bson:"role" validate:"required,oneof=customer owner admin"`
	CreatedAt time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}
