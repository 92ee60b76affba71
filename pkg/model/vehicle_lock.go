package model

import "time"

// VehicleLock is an advisory lock held for the duration of a
// conflict-check-and-write on one vehicle. The unique _id makes
// acquisition a single conditional insert; ExpiresAt lets a TTL index
// reap locks abandoned by a crashed writer.
type VehicleLock struct {
	ID        string    `bson:"_id" json:"id"`
	VehicleID string    `bson:"vehicle_id" json:"vehicle_id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
