package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	bookingserrors "driveshare/internal/bookings/errors"
	"driveshare/internal/bookings/repository"
	"driveshare/internal/bookings/validator"
	usersrepo "driveshare/internal/users/repository"
	vehiclesrepo "driveshare/internal/vehicles/repository"
	"driveshare/pkg/config"
	mongotx "driveshare/pkg/db/mongo"
	apperrors "driveshare/pkg/errors"
	"driveshare/pkg/logger"
	"driveshare/pkg/model"
)

const (
	vehicleID  = "64f000000000000000000001"
	vehicleID2 = "64f000000000000000000002"
	vehicleID3 = "64f000000000000000000003"
	ownerID    = "64f0000000000000000000aa"
	customerID = "64f0000000000000000000bb"
	adminID    = "64f0000000000000000000cc"
	strangerID = "64f0000000000000000000dd"
)

func day(n int) time.Time {
	return time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
}

// memBookingRepo is an in-memory BookingRepository. Transactions are
// serialized with a separate mutex so the check-then-insert window
// behaves like a real serialized transaction.
type memBookingRepo struct {
	mu   sync.Mutex
	txMu sync.Mutex
	data map[string]*model.Booking
	seq  int
}

func newMemBookingRepo() *memBookingRepo {
	return &memBookingRepo{data: make(map[string]*model.Booking)}
}

func (r *memBookingRepo) Create(_ context.Context, b *model.Booking) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	b.ID = fmt.Sprintf("b%023d", r.seq)
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now
	clone := *b
	r.data[b.ID] = &clone
	return nil
}

func (r *memBookingRepo) FindByID(_ context.Context, id string) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) FindAll(_ context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.data {
		if r.matches(b, filter) {
			clone := *b
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *memBookingRepo) Count(_ context.Context, filter repository.ListFilter) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, b := range r.data {
		if r.matches(b, filter) {
			n++
		}
	}
	return n, nil
}

func (r *memBookingRepo) matches(b *model.Booking, f repository.ListFilter) bool {
	if f.VehicleID != "" && b.VehicleID != f.VehicleID {
		return false
	}
	if f.OwnerID != "" && b.OwnerID != f.OwnerID {
		return false
	}
	if f.CustomerID != "" && b.CustomerID != f.CustomerID {
		return false
	}
	return true
}

func (r *memBookingRepo) Update(_ context.Context, id string, b *model.Booking) (*mongo.UpdateResult, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.data[id]
	if !ok {
		return nil, bookingserrors.ErrNotFound
	}
	existing.StartDate = b.StartDate
	existing.EndDate = b.EndDate
	existing.TotalAmount = b.TotalAmount
	existing.Documents = b.Documents
	existing.UpdatedAt = time.Now().UTC()
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (r *memBookingRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.data[id]; !ok {
		return bookingserrors.ErrNotFound
	}
	delete(r.data, id)
	return nil
}

func (r *memBookingRepo) FindOccupyingOverlap(_ context.Context, vID string, dr model.DateRange, excludeID string) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.data {
		if b.VehicleID != vID || b.ID == excludeID || !b.Status.Occupying() {
			continue
		}
		if b.Range().Overlaps(dr) {
			clone := *b
			out = append(out, &clone)
		}
	}
	sortByWindow(out)
	return out, nil
}

func (r *memBookingRepo) FindOccupyingByVehicle(_ context.Context, vID string) ([]*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.Booking
	for _, b := range r.data {
		if b.VehicleID == vID && b.Status.Occupying() {
			clone := *b
			out = append(out, &clone)
		}
	}
	sortByWindow(out)
	return out, nil
}

func (r *memBookingRepo) DistinctBookedVehicleIDs(_ context.Context, vehicleIDs []string, dr model.DateRange) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	wanted := make(map[string]bool, len(vehicleIDs))
	for _, id := range vehicleIDs {
		wanted[id] = true
	}
	booked := make(map[string]bool)
	for _, b := range r.data {
		if wanted[b.VehicleID] && b.Status.Occupying() && b.Range().Overlaps(dr) {
			booked[b.VehicleID] = true
		}
	}
	out := make([]string, 0, len(booked))
	for id := range booked {
		out = append(out, id)
	}
	return out, nil
}

func (r *memBookingRepo) UpdateStatusIf(_ context.Context, id string, from []model.BookingStatus, to model.BookingStatus) (*model.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.data[id]
	if !ok {
		return nil, bookingserrors.ErrStatusChanged
	}
	matched := false
	for _, s := range from {
		if b.Status == s {
			matched = true
			break
		}
	}
	if !matched {
		return nil, bookingserrors.ErrStatusChanged
	}
	b.Status = to
	b.UpdatedAt = time.Now().UTC()
	clone := *b
	return &clone, nil
}

func (r *memBookingRepo) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	r.txMu.Lock()
	defer r.txMu.Unlock()
	return fn(ctx)
}

func sortByWindow(bookings []*model.Booking) {
	for i := 1; i < len(bookings); i++ {
		for j := i; j > 0; j-- {
			a, b := bookings[j-1], bookings[j]
			if b.StartDate.Before(a.StartDate) ||
				(b.StartDate.Equal(a.StartDate) && b.EndDate.Before(a.EndDate)) {
				bookings[j-1], bookings[j] = b, a
			}
		}
	}
}

type memLockRepo struct {
	mu   sync.Mutex
	held map[string]bool
}

func newMemLockRepo() *memLockRepo {
	return &memLockRepo{held: make(map[string]bool)}
}

func (r *memLockRepo) Acquire(_ context.Context, vID string, _ time.Duration) (*model.VehicleLock, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.held[vID] {
		return nil, bookingserrors.ErrLockHeld
	}
	r.held[vID] = true
	return &model.VehicleLock{ID: vID, VehicleID: vID}, nil
}

func (r *memLockRepo) Release(_ context.Context, vID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.held, vID)
	return nil
}

type memVehicleRepo struct {
	vehicles map[string]*model.Vehicle
}

func (r *memVehicleRepo) FindByID(_ context.Context, id string) (*model.Vehicle, error) {
	v, ok := r.vehicles[id]
	if !ok {
		return nil, vehiclesrepo.ErrNotFound
	}
	clone := *v
	return &clone, nil
}

type memUserRepo struct {
	users map[string]*model.User
}

func (r *memUserRepo) FindByID(_ context.Context, id string) (*model.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, usersrepo.ErrNotFound
	}
	clone := *u
	return &clone, nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) BookingChanged(_ context.Context, eventType string, _ *model.Booking) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, eventType)
}

func (n *recordingNotifier) Events() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.events...)
}

type fixture struct {
	svc      BookingService
	bookings *memBookingRepo
	locks    *memLockRepo
	notifier *recordingNotifier
}

func rate(v float64) *float64 { return &v }

func newFixture(t *testing.T) *fixture {
	t.Helper()

	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	cfg := &config.Config{
		Currency:       "LKR",
		VehicleLockTTL: 10 * time.Second,
		ReadTimeout:    5 * time.Second,
		WriteTimeout:   5 * time.Second,
		Log:            log,
	}

	bookings := newMemBookingRepo()
	locks := newMemLockRepo()
	vehicles := &memVehicleRepo{vehicles: map[string]*model.Vehicle{
		vehicleID: {
			ID:             vehicleID,
			OwnerID:        ownerID,
			Title:          "Toyota Aqua 2019",
			NumberPlate:    "CAB-1234",
			DailyRate:      rate(5000),
			Currency:       "LKR",
			ApprovalStatus: model.VehicleApprovalApproved,
		},
		vehicleID2: {
			ID:             vehicleID2,
			OwnerID:        ownerID,
			Title:          "Suzuki WagonR 2018",
			NumberPlate:    "CAB-5678",
			DailyRate:      rate(4000),
			Currency:       "LKR",
			ApprovalStatus: model.VehicleApprovalPending,
		},
		vehicleID3: {
			ID:             vehicleID3,
			OwnerID:        ownerID,
			Title:          "Honda Vezel 2020",
			NumberPlate:    "CAB-9012",
			DailyRate:      nil,
			Currency:       "LKR",
			ApprovalStatus: model.VehicleApprovalApproved,
		},
	}}
	users := &memUserRepo{users: map[string]*model.User{
		ownerID:    {ID: ownerID, Name: "Owner", Email: "owner@example.com", Role: model.RoleOwner},
		customerID: {ID: customerID, Name: "Customer", Email: "customer@example.com", Role: model.RoleCustomer},
		adminID:    {ID: adminID, Name: "Admin", Email: "admin@example.com", Role: model.RoleAdmin},
		strangerID: {ID: strangerID, Name: "Stranger", Email: "stranger@example.com", Role: model.RoleCustomer},
	}}
	notifier := &recordingNotifier{}

	svc := NewBookingService(cfg, bookings, locks, vehicles, users, validator.NewBookingValidator(log), notifier)

	return &fixture{svc: svc, bookings: bookings, locks: locks, notifier: notifier}
}

func (f *fixture) customer() model.Actor { return model.Actor{ID: customerID, Role: model.RoleCustomer} }
func (f *fixture) owner() model.Actor    { return model.Actor{ID: ownerID, Role: model.RoleOwner} }
func (f *fixture) admin() model.Actor    { return model.Actor{ID: adminID, Role: model.RoleAdmin} }
func (f *fixture) stranger() model.Actor { return model.Actor{ID: strangerID, Role: model.RoleCustomer} }

func (f *fixture) create(t *testing.T, start, end time.Time) *model.Booking {
	t.Helper()
	booking, err := f.svc.Create(context.Background(), f.customer(), &model.Booking{
		VehicleID: vehicleID,
		StartDate: start,
		EndDate:   end,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	return booking
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, err)
	}
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, day(0), day(2))

	if booking.Status != model.StatusPending {
		t.Errorf("expected status pending, got %s", booking.Status)
	}
	if booking.OwnerID != ownerID {
		t.Errorf("expected owner snapshot %s, got %s", ownerID, booking.OwnerID)
	}
	if booking.DailyRate != 5000 {
		t.Errorf("expected daily rate snapshot 5000, got %v", booking.DailyRate)
	}
	if booking.TotalAmount != 10000 {
		t.Errorf("expected total 10000 for 2 days at 5000, got %v", booking.TotalAmount)
	}
	if booking.Currency != "LKR" {
		t.Errorf("expected currency LKR, got %s", booking.Currency)
	}
	if booking.CustomerID != customerID {
		t.Errorf("expected customer %s, got %s", customerID, booking.CustomerID)
	}

	events := f.notifier.Events()
	if len(events) != 1 || events[0] != "booking.created" {
		t.Errorf("expected booking.created event, got %v", events)
	}
}

func TestCreateBookingPartialDayBillsFullDay(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, day(0), day(2).Add(6*time.Hour))

	if booking.TotalAmount != 15000 {
		t.Errorf("expected 3 billable days (15000), got %v", booking.TotalAmount)
	}
}

func TestCreateBookingInvalidRange(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name  string
		start time.Time
		end   time.Time
	}{
		{"end before start", day(2), day(0)},
		{"end equals start", day(1), day(1)},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.customer(), &model.Booking{
				VehicleID: vehicleID,
				StartDate: tc.start,
				EndDate:   tc.end,
			})
			assertCode(t, err, apperrors.CodeInvalidRange)
		})
	}
}

func TestCreateBookingVehicleChecks(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name      string
		vehicleID string
		wantCode  string
	}{
		{"unknown vehicle", "64f0000000000000000000ff", apperrors.CodeNotFound},
		{"unapproved vehicle", vehicleID2, apperrors.CodeVehicleNotApproved},
		{"vehicle without rate", vehicleID3, apperrors.CodePricingUnavailable},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(context.Background(), f.customer(), &model.Booking{
				VehicleID: tc.vehicleID,
				StartDate: day(0),
				EndDate:   day(2),
			})
			assertCode(t, err, tc.wantCode)
		})
	}
}

func TestCreateBookingConflict(t *testing.T) {
	f := newFixture(t)
	f.create(t, day(0), day(3))

	_, err := f.svc.Create(context.Background(), f.stranger(), &model.Booking{
		VehicleID: vehicleID,
		StartDate: day(2),
		EndDate:   day(5),
	})
	assertCode(t, err, apperrors.CodeVehicleUnavailable)

	var appErr *apperrors.AppError
	errors.As(err, &appErr)
	if appErr.Details["conflict_start"] == nil || appErr.Details["conflict_end"] == nil {
		t.Errorf("expected conflict window in details, got %v", appErr.Details)
	}
}

func TestCreateBookingSameDayTurnover(t *testing.T) {
	f := newFixture(t)
	f.create(t, day(0), day(3))

	// A rental starting the day the previous one ends does not overlap.
	if _, err := f.svc.Create(context.Background(), f.stranger(), &model.Booking{
		VehicleID: vehicleID,
		StartDate: day(3),
		EndDate:   day(5),
	}); err != nil {
		t.Fatalf("back-to-back booking should succeed: %v", err)
	}
}

func TestCreateBookingConcurrent(t *testing.T) {
	f := newFixture(t)

	const n = 10
	var wg sync.WaitGroup
	results := make(chan error, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.Create(context.Background(), f.customer(), &model.Booking{
				VehicleID: vehicleID,
				StartDate: day(0),
				EndDate:   day(3),
			})
			results <- err
		}()
	}
	wg.Wait()
	close(results)

	var succeeded, unavailable int
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		var appErr *apperrors.AppError
		if !errors.As(err, &appErr) {
			t.Errorf("unexpected error type: %v", err)
			continue
		}
		if appErr.Code != apperrors.CodeVehicleUnavailable {
			t.Errorf("expected %s, got %s", apperrors.CodeVehicleUnavailable, appErr.Code)
			continue
		}
		unavailable++
	}

	if succeeded != 1 {
		t.Fatalf("expected exactly 1 of %d concurrent bookings to win, got %d", n, succeeded)
	}
	if unavailable != n-1 {
		t.Fatalf("expected %d losers to see the winner's window, got %d", n-1, unavailable)
	}
}

func TestCreateBookingWaitsForLock(t *testing.T) {
	f := newFixture(t)

	if _, err := f.locks.Acquire(context.Background(), vehicleID, time.Second); err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(60 * time.Millisecond)
		_ = f.locks.Release(context.Background(), vehicleID)
	}()

	if _, err := f.svc.Create(context.Background(), f.customer(), &model.Booking{
		VehicleID: vehicleID,
		StartDate: day(0),
		EndDate:   day(2),
	}); err != nil {
		t.Fatalf("create should wait out a transient lock: %v", err)
	}
}

func TestLifecycleTransitions(t *testing.T) {
	f := newFixture(t)

	cases := []struct {
		name     string
		setup    func(t *testing.T, f *fixture, id string)
		act      func(ctx context.Context, f *fixture, id string) error
		wantCode string
	}{
		{
			name: "owner approves pending",
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Approve(ctx, f.owner(), id)
				return err
			},
		},
		{
			name: "owner rejects pending",
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Reject(ctx, f.owner(), id)
				return err
			},
		},
		{
			name: "customer cancels pending",
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Cancel(ctx, f.customer(), id)
				return err
			},
		},
		{
			name: "customer cancels approved",
			setup: func(t *testing.T, f *fixture, id string) {
				if _, err := f.svc.Approve(context.Background(), f.owner(), id); err != nil {
					t.Fatal(err)
				}
			},
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Cancel(ctx, f.customer(), id)
				return err
			},
		},
		{
			name: "customer cannot approve",
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Approve(ctx, f.customer(), id)
				return err
			},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name: "owner cannot cancel",
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Cancel(ctx, f.owner(), id)
				return err
			},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name: "unrelated customer cannot cancel",
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Cancel(ctx, f.stranger(), id)
				return err
			},
			wantCode: apperrors.CodeForbidden,
		},
		{
			name: "approve after reject is invalid",
			setup: func(t *testing.T, f *fixture, id string) {
				if _, err := f.svc.Reject(context.Background(), f.owner(), id); err != nil {
					t.Fatal(err)
				}
			},
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Approve(ctx, f.owner(), id)
				return err
			},
			wantCode: apperrors.CodeInvalidTransition,
		},
		{
			name: "cancel after cancel is invalid",
			setup: func(t *testing.T, f *fixture, id string) {
				if _, err := f.svc.Cancel(context.Background(), f.customer(), id); err != nil {
					t.Fatal(err)
				}
			},
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Cancel(ctx, f.customer(), id)
				return err
			},
			wantCode: apperrors.CodeInvalidTransition,
		},
		{
			name: "admin can approve",
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Approve(ctx, f.admin(), id)
				return err
			},
		},
		{
			name: "admin cannot break the state machine",
			setup: func(t *testing.T, f *fixture, id string) {
				if _, err := f.svc.Reject(context.Background(), f.owner(), id); err != nil {
					t.Fatal(err)
				}
			},
			act: func(ctx context.Context, f *fixture, id string) error {
				_, err := f.svc.Cancel(ctx, f.admin(), id)
				return err
			},
			wantCode: apperrors.CodeInvalidTransition,
		},
	}

	for i, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			booking := f.create(t, day(10*i), day(10*i+2))
			if tc.setup != nil {
				tc.setup(t, f, booking.ID)
			}
			err := tc.act(context.Background(), f, booking.ID)
			if tc.wantCode == "" {
				if err != nil {
					t.Fatalf("expected success, got %v", err)
				}
				return
			}
			assertCode(t, err, tc.wantCode)
		})
	}
}

func TestCancelFreesWindow(t *testing.T) {
	f := newFixture(t)

	booking := f.create(t, day(0), day(3))
	if _, err := f.svc.Cancel(context.Background(), f.customer(), booking.ID); err != nil {
		t.Fatal(err)
	}

	if _, err := f.svc.Create(context.Background(), f.stranger(), &model.Booking{
		VehicleID: vehicleID,
		StartDate: day(0),
		EndDate:   day(3),
	}); err != nil {
		t.Fatalf("window should be free after cancellation: %v", err)
	}
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture(t)
	newEnd := day(4)

	t.Run("date change reprices", func(t *testing.T) {
		booking := f.create(t, day(0), day(2))

		updated, err := f.svc.Update(context.Background(), f.customer(), booking.ID, &model.BookingUpdate{
			EndDate: &newEnd,
		})
		if err != nil {
			t.Fatal(err)
		}
		if updated.TotalAmount != 20000 {
			t.Errorf("expected repriced total 20000 for 4 days, got %v", updated.TotalAmount)
		}
	})

	t.Run("date change hits conflict", func(t *testing.T) {
		f := newFixture(t)
		f.create(t, day(5), day(8))
		booking := f.create(t, day(0), day(3))

		conflictEnd := day(6)
		_, err := f.svc.Update(context.Background(), f.customer(), booking.ID, &model.BookingUpdate{
			EndDate: &conflictEnd,
		})
		assertCode(t, err, apperrors.CodeVehicleUnavailable)
	})

	t.Run("own window is not a conflict", func(t *testing.T) {
		f := newFixture(t)
		booking := f.create(t, day(0), day(2))

		shifted := day(3)
		if _, err := f.svc.Update(context.Background(), f.customer(), booking.ID, &model.BookingUpdate{
			EndDate: &shifted,
		}); err != nil {
			t.Fatalf("extending into own free tail should succeed: %v", err)
		}
	})

	t.Run("non-customer forbidden", func(t *testing.T) {
		f := newFixture(t)
		booking := f.create(t, day(0), day(2))

		_, err := f.svc.Update(context.Background(), f.stranger(), booking.ID, &model.BookingUpdate{
			EndDate: &newEnd,
		})
		assertCode(t, err, apperrors.CodeForbidden)
	})

	t.Run("approved booking dates can change", func(t *testing.T) {
		f := newFixture(t)
		booking := f.create(t, day(0), day(2))
		if _, err := f.svc.Approve(context.Background(), f.owner(), booking.ID); err != nil {
			t.Fatal(err)
		}

		updated, err := f.svc.Update(context.Background(), f.customer(), booking.ID, &model.BookingUpdate{
			EndDate: &newEnd,
		})
		if err != nil {
			t.Fatalf("customer should be able to move an approved booking: %v", err)
		}
		if updated.TotalAmount != 20000 {
			t.Errorf("expected total repriced to 20000 from the creation-time rate, got %v", updated.TotalAmount)
		}
		if updated.Status != model.StatusApproved {
			t.Errorf("update must not change status, got %s", updated.Status)
		}
	})

	t.Run("cancelled booking immutable", func(t *testing.T) {
		f := newFixture(t)
		booking := f.create(t, day(0), day(2))
		if _, err := f.svc.Cancel(context.Background(), f.customer(), booking.ID); err != nil {
			t.Fatal(err)
		}

		_, err := f.svc.Update(context.Background(), f.customer(), booking.ID, &model.BookingUpdate{
			EndDate: &newEnd,
		})
		assertCode(t, err, apperrors.CodeConflict)
	})

	t.Run("rejected booking immutable", func(t *testing.T) {
		f := newFixture(t)
		booking := f.create(t, day(0), day(2))
		if _, err := f.svc.Reject(context.Background(), f.owner(), booking.ID); err != nil {
			t.Fatal(err)
		}

		_, err := f.svc.Update(context.Background(), f.customer(), booking.ID, &model.BookingUpdate{
			EndDate: &newEnd,
		})
		assertCode(t, err, apperrors.CodeConflict)
	})
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t)
	booking := f.create(t, day(0), day(2))

	if err := f.svc.Delete(context.Background(), f.customer(), booking.ID); err == nil {
		t.Fatal("expected non-admin delete to fail")
	}

	if err := f.svc.Delete(context.Background(), f.admin(), booking.ID); err != nil {
		t.Fatalf("admin delete failed: %v", err)
	}

	_, err := f.svc.GetByID(context.Background(), booking.ID)
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestCalendarFor(t *testing.T) {
	f := newFixture(t)

	later := f.create(t, day(5), day(7))
	earlier := f.create(t, day(0), day(3))
	cancelled := f.create(t, day(10), day(12))
	if _, err := f.svc.Cancel(context.Background(), f.customer(), cancelled.ID); err != nil {
		t.Fatal(err)
	}

	calendar, err := f.svc.CalendarFor(context.Background(), vehicleID)
	if err != nil {
		t.Fatal(err)
	}

	if len(calendar) != 2 {
		t.Fatalf("expected 2 occupied windows, got %d", len(calendar))
	}
	if calendar[0].BookingID != earlier.ID || calendar[1].BookingID != later.ID {
		t.Errorf("calendar not sorted by start date: %v", calendar)
	}
}

func TestCalendarForUnknownVehicle(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.CalendarFor(context.Background(), "64f0000000000000000000ff")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestFilterAvailable(t *testing.T) {
	f := newFixture(t)
	f.create(t, day(0), day(3))

	t.Run("booked vehicle excluded", func(t *testing.T) {
		available, err := f.svc.FilterAvailable(context.Background(),
			[]string{vehicleID, vehicleID2, vehicleID3},
			model.NewDateRange(day(1), day(2)))
		if err != nil {
			t.Fatal(err)
		}
		if len(available) != 2 || available[0] != vehicleID2 || available[1] != vehicleID3 {
			t.Errorf("expected [%s %s], got %v", vehicleID2, vehicleID3, available)
		}
	})

	t.Run("non-overlapping window keeps vehicle", func(t *testing.T) {
		available, err := f.svc.FilterAvailable(context.Background(),
			[]string{vehicleID},
			model.NewDateRange(day(3), day(5)))
		if err != nil {
			t.Fatal(err)
		}
		if len(available) != 1 {
			t.Errorf("expected vehicle available for adjacent window, got %v", available)
		}
	})

	t.Run("duplicates collapse", func(t *testing.T) {
		available, err := f.svc.FilterAvailable(context.Background(),
			[]string{vehicleID2, vehicleID2, vehicleID2},
			model.NewDateRange(day(0), day(1)))
		if err != nil {
			t.Fatal(err)
		}
		if len(available) != 1 {
			t.Errorf("expected duplicates to collapse, got %v", available)
		}
	})

	t.Run("invalid range rejected", func(t *testing.T) {
		_, err := f.svc.FilterAvailable(context.Background(),
			[]string{vehicleID},
			model.NewDateRange(day(2), day(0)))
		assertCode(t, err, apperrors.CodeInvalidRange)
	})

	t.Run("empty input", func(t *testing.T) {
		available, err := f.svc.FilterAvailable(context.Background(), nil,
			model.NewDateRange(day(0), day(1)))
		if err != nil {
			t.Fatal(err)
		}
		if len(available) != 0 {
			t.Errorf("expected empty result, got %v", available)
		}
	})
}

func TestFilterAvailableMatchesCalendar(t *testing.T) {
	f := newFixture(t)
	f.create(t, day(0), day(3))
	f.create(t, day(5), day(7))

	window := model.NewDateRange(day(3), day(5))

	available, err := f.svc.FilterAvailable(context.Background(), []string{vehicleID}, window)
	if err != nil {
		t.Fatal(err)
	}

	calendar, err := f.svc.CalendarFor(context.Background(), vehicleID)
	if err != nil {
		t.Fatal(err)
	}

	conflicts := false
	for _, entry := range calendar {
		if entry.Range.Overlaps(window) {
			conflicts = true
		}
	}

	if (len(available) == 1) == conflicts {
		t.Errorf("availability disagrees with calendar: available=%v conflicts=%v", available, conflicts)
	}
}

func TestResolveActor(t *testing.T) {
	f := newFixture(t)

	actor, err := f.svc.ResolveActor(context.Background(), ownerID)
	if err != nil {
		t.Fatal(err)
	}
	if actor.Role != model.RoleOwner {
		t.Errorf("expected owner role, got %s", actor.Role)
	}

	_, err = f.svc.ResolveActor(context.Background(), "64f000000000000000000099")
	assertCode(t, err, apperrors.CodeForbidden)
}
