package integrationtests

import (
	"context"
	"net/http"
	"os"
	"sync"
	"testing"
	"time"

	"driveshare/pkg/client"
	"driveshare/pkg/model"
	"driveshare/test/integration/testutil"
)

// These tests run against a live bookings service and MongoDB. Set
// TEST_SERVER_URL (and optionally MONGO_URI / MONGO_DATABASE_NAME)
// to enable them.

var (
	bookingClient *client.BookingClient
	mongoHelper   *testutil.MongoHelper

	customerID string
	ownerID    string
	vehicleID  string
)

func startDay(n int) time.Time {
	return time.Now().UTC().Truncate(24 * time.Hour).AddDate(0, 0, 7+n)
}

func setup(t *testing.T) {
	t.Helper()

	serverURL := os.Getenv("TEST_SERVER_URL")
	if serverURL == "" {
		t.Skip("TEST_SERVER_URL not set; skipping integration tests")
	}

	bookingClient = client.NewBookingClient(serverURL)
	mongoHelper = testutil.NewMongoHelper(t, os.Getenv("MONGO_URI"), os.Getenv("MONGO_DATABASE_NAME"))
	mongoHelper.CleanCollections(t)

	rate := 5000.0
	customerID = mongoHelper.SeedUser(t, "Test Customer", "customer@test.local", model.RoleCustomer)
	ownerID = mongoHelper.SeedUser(t, "Test Owner", "owner@test.local", model.RoleOwner)
	vehicleID = mongoHelper.SeedVehicle(t, ownerID, "Toyota Aqua 2019", "CAB-1234", &rate, model.VehicleApprovalApproved)
}

func teardown(t *testing.T) {
	t.Helper()
	mongoHelper.CleanCollections(t)
	mongoHelper.Close(t)
}

func TestBookingAPI(t *testing.T) {
	setup(t)
	defer teardown(t)

	t.Run("lifecycle", testLifecycle)
	t.Run("conflict", testConflict)
	t.Run("availability", testAvailability)
	t.Run("concurrent creation", testConcurrentCreation)
}

func createBooking(t *testing.T, start, end time.Time) *model.Booking {
	t.Helper()
	ctx := context.Background()

	resp, err := bookingClient.Create(ctx, customerID, &model.Booking{
		VehicleID: vehicleID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		t.Fatalf("create request failed: %v", err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", resp.StatusCode, resp.Body)
	}

	booking, err := bookingClient.DecodeBooking(resp)
	if err != nil {
		t.Fatal(err)
	}
	return booking
}

func testLifecycle(t *testing.T) {
	ctx := context.Background()

	booking := createBooking(t, startDay(0), startDay(2))
	if booking.Status != model.StatusPending {
		t.Fatalf("expected pending, got %s", booking.Status)
	}
	if booking.TotalAmount != 10000 {
		t.Errorf("expected total 10000, got %v", booking.TotalAmount)
	}
	if booking.OwnerID != ownerID {
		t.Errorf("expected owner snapshot %s, got %s", ownerID, booking.OwnerID)
	}

	// Customer may not approve.
	resp, err := bookingClient.Approve(ctx, customerID, booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("expected 403 for customer approve, got %d", resp.StatusCode)
	}

	// Owner approves.
	resp, err = bookingClient.Approve(ctx, ownerID, booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for owner approve, got %d: %s", resp.StatusCode, resp.Body)
	}

	// Reject after approve is an invalid transition.
	resp, err = bookingClient.Reject(ctx, ownerID, booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409 for reject after approve, got %d", resp.StatusCode)
	}

	// Customer cancels the approved booking.
	resp, err = bookingClient.Cancel(ctx, customerID, booking.ID)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 for customer cancel, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func testConflict(t *testing.T) {
	ctx := context.Background()

	createBooking(t, startDay(10), startDay(13))

	resp, err := bookingClient.Create(ctx, customerID, &model.Booking{
		VehicleID: vehicleID,
		StartDate: startDay(12),
		EndDate:   startDay(15),
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("expected 409 for overlapping booking, got %d: %s", resp.StatusCode, resp.Body)
	}

	// Same-day turnover is allowed.
	resp, err = bookingClient.Create(ctx, customerID, &model.Booking{
		VehicleID: vehicleID,
		StartDate: startDay(13),
		EndDate:   startDay(15),
	})
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201 for back-to-back booking, got %d: %s", resp.StatusCode, resp.Body)
	}
}

func testAvailability(t *testing.T) {
	ctx := context.Background()

	createBooking(t, startDay(20), startDay(23))

	resp, err := bookingClient.FilterAvailable(ctx, []string{vehicleID}, startDay(21), startDay(22))
	if err != nil {
		t.Fatal(err)
	}
	available, err := bookingClient.DecodeAvailable(resp)
	if err != nil {
		t.Fatal(err)
	}
	if len(available) != 0 {
		t.Errorf("expected vehicle unavailable, got %v", available)
	}

	calResp, err := bookingClient.Calendar(ctx, vehicleID)
	if err != nil {
		t.Fatal(err)
	}
	if calResp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 from calendar, got %d", calResp.StatusCode)
	}
}

func testConcurrentCreation(t *testing.T) {
	ctx := context.Background()

	const n = 5
	var wg sync.WaitGroup
	statuses := make(chan int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := bookingClient.Create(ctx, customerID, &model.Booking{
				VehicleID: vehicleID,
				StartDate: startDay(30),
				EndDate:   startDay(33),
			})
			if err != nil {
				t.Errorf("request failed: %v", err)
				return
			}
			statuses <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(statuses)

	created := 0
	for code := range statuses {
		if code == http.StatusCreated {
			created++
		} else if code != http.StatusConflict {
			t.Errorf("unexpected status %d", code)
		}
	}

	if created != 1 {
		t.Fatalf("expected exactly 1 of %d concurrent creates to win, got %d", n, created)
	}
}
