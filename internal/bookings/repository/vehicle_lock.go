package repository

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "driveshare/internal/bookings/errors"
	"driveshare/pkg/config"
	"driveshare/pkg/model"
)

const LockCollectionName = "Vehicle_locks"

// VehicleLockRepository provides per-vehicle advisory locks. The lock
// document's _id is the vehicle id, so a unique-index violation on
// insert means another request is mid-flight for the same vehicle. A
// TTL index on expires_at reclaims locks abandoned by crashed writers.
type VehicleLockRepository interface {
	Acquire(ctx context.Context, vehicleID string, ttl time.Duration) (*model.VehicleLock, error)
	Release(ctx context.Context, vehicleID string) error
}

type mongoVehicleLockRepository struct {
	collection *mongo.Collection
}

func NewVehicleLockRepository(cfg *config.Config) VehicleLockRepository {
	db := cfg.Client.Mongo.Client.Database(cfg.MongoDatabaseName)
	return &mongoVehicleLockRepository{
		collection: db.Collection(LockCollectionName),
	}
}

func (r *mongoVehicleLockRepository) Acquire(ctx context.Context, vehicleID string, ttl time.Duration) (*model.VehicleLock, error) {
	now := time.Now().UTC()
	lock := &model.VehicleLock{
		ID:        vehicleID,
		VehicleID: vehicleID,
		ExpiresAt: now.Add(ttl),
		CreatedAt: now,
	}

	_, err := r.collection.InsertOne(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, bookingserrors.ErrLockHeld
		}
		return nil, fmt.Errorf("failed to acquire vehicle lock: %w", err)
	}

	return lock, nil
}

func (r *mongoVehicleLockRepository) Release(ctx context.Context, vehicleID string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": vehicleID})
	if err != nil {
		return fmt.Errorf("failed to release vehicle lock: %w", err)
	}
	return nil
}
