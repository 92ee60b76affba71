package testutil

import (
	"context"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"driveshare/pkg/model"
)

const (
	DefaultMongoURI     = "mongodb://localhost:27017"
	DefaultDatabaseName = "driveshare"
	ConnectionTimeout   = 10 * time.Second

	BookingsCollection     = "Bookings"
	VehiclesCollection     = "Vehicles"
	UsersCollection        = "Users"
	VehicleLocksCollection = "Vehicle_locks"
)

// MongoHelper provides direct database access for seeding and cleanup
// around API-level tests.
type MongoHelper struct {
	Client   *mongo.Client
	Database *mongo.Database
	DBName   string
}

func NewMongoHelper(t *testing.T, mongoURI, dbName string) *MongoHelper {
	t.Helper()

	if mongoURI == "" {
		mongoURI = DefaultMongoURI
	}
	if dbName == "" {
		dbName = DefaultDatabaseName
	}

	ctx, cancel := context.WithTimeout(context.Background(), ConnectionTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		t.Fatalf("failed to connect to MongoDB: %v", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		t.Fatalf("failed to ping MongoDB: %v", err)
	}

	return &MongoHelper{
		Client:   client,
		Database: client.Database(dbName),
		DBName:   dbName,
	}
}

func (m *MongoHelper) Close(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := m.Client.Disconnect(ctx); err != nil {
		t.Logf("warning: failed to disconnect from MongoDB: %v", err)
	}
}

// CleanCollections removes all documents from the booking engine's
// collections without dropping indexes or validators.
func (m *MongoHelper) CleanCollections(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	for _, name := range []string{BookingsCollection, VehicleLocksCollection, VehiclesCollection, UsersCollection} {
		if _, err := m.Database.Collection(name).DeleteMany(ctx, bson.M{}); err != nil {
			t.Fatalf("failed to clean collection %s: %v", name, err)
		}
	}
}

// SeedUser inserts a user and returns its hex id.
func (m *MongoHelper) SeedUser(t *testing.T, name, email string, role model.Role) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	res, err := m.Database.Collection(UsersCollection).InsertOne(ctx, bson.M{
		"name":       name,
		"email":      email,
		"role":       role,
		"created_at": time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("failed to seed user: %v", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex()
}

// SeedVehicle inserts a vehicle and returns its hex id. A nil dailyRate
// seeds a vehicle without pricing.
func (m *MongoHelper) SeedVehicle(t *testing.T, ownerID, title, plate string, dailyRate *float64, approval model.VehicleApproval) string {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	doc := bson.M{
		"owner_id":        ownerID,
		"title":           title,
		"number_plate":    plate,
		"currency":        "LKR",
		"approval_status": approval,
		"created_at":      time.Now().UTC(),
		"updated_at":      time.Now().UTC(),
	}
	if dailyRate != nil {
		doc["daily_rate"] = *dailyRate
	}

	res, err := m.Database.Collection(VehiclesCollection).InsertOne(ctx, doc)
	if err != nil {
		t.Fatalf("failed to seed vehicle: %v", err)
	}
	return res.InsertedID.(primitive.ObjectID).Hex()
}
