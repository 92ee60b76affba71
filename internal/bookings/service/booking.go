package service

import (
	"context"
	"errors"
	"strings"
	"time"

	bookingserrors "driveshare/internal/bookings/errors"
	"driveshare/internal/bookings/repository"
	"driveshare/internal/bookings/validator"
	"driveshare/internal/notifications"
	usersrepo "driveshare/internal/users/repository"
	vehiclesrepo "driveshare/internal/vehicles/repository"
	"driveshare/pkg/config"
	apperrors "driveshare/pkg/errors"
	"driveshare/pkg/model"
	"driveshare/pkg/pricing"
)

// lockRetryInterval is the pause between advisory lock attempts while
// another writer holds the vehicle.
const lockRetryInterval = 25 * time.Millisecond

// BookingService coordinates the reservation workflow: validation,
// vehicle eligibility, pricing, conflict detection under a per-vehicle
// lock, lifecycle transitions, and availability queries.
type BookingService interface {
	Create(ctx context.Context, actor model.Actor, booking *model.Booking) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, actor model.Actor, id string, patch *model.BookingUpdate) (*model.Booking, error)
	Delete(ctx context.Context, actor model.Actor, id string) error

	Approve(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	Reject(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	Cancel(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)

	CalendarFor(ctx context.Context, vehicleID string) ([]model.CalendarEntry, error)
	FilterAvailable(ctx context.Context, vehicleIDs []string, r model.DateRange) ([]string, error)

	ResolveActor(ctx context.Context, actorID string) (model.Actor, error)
}

type bookingService struct {
	cfg       *config.Config
	bookings  repository.BookingRepository
	locks     repository.VehicleLockRepository
	vehicles  vehiclesrepo.VehicleRepository
	users     usersrepo.UserRepository
	validator *validator.BookingValidator
	notifier  notifications.Notifier
}

func NewBookingService(
	cfg *config.Config,
	bookings repository.BookingRepository,
	locks repository.VehicleLockRepository,
	vehicles vehiclesrepo.VehicleRepository,
	users usersrepo.UserRepository,
	v *validator.BookingValidator,
	notifier notifications.Notifier,
) BookingService {
	return &bookingService{
		cfg:       cfg,
		bookings:  bookings,
		locks:     locks,
		vehicles:  vehicles,
		users:     users,
		validator: v,
		notifier:  notifier,
	}
}

// ResolveActor maps an actor id from the request to a role-bearing
// identity for authorization checks.
func (s *bookingService) ResolveActor(ctx context.Context, actorID string) (model.Actor, error) {
	user, err := s.users.FindByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, usersrepo.ErrNotFound) {
			return model.Actor{}, apperrors.Forbidden("Unknown actor")
		}
		return model.Actor{}, s.storageError(err)
	}
	return model.Actor{ID: user.ID, Role: user.Role}, nil
}

// Create runs the full reservation workflow. The conflict check and the
// insert execute inside one transaction while the per-vehicle advisory
// lock is held, so two racing requests for overlapping windows cannot
// both pass the check.
func (s *bookingService) Create(ctx context.Context, actor model.Actor, booking *model.Booking) (*model.Booking, error) {
	booking.CustomerID = actor.ID
	booking.Status = model.StatusPending
	booking.Documents = trimDocuments(booking.Documents)

	if !booking.Range().IsValid() {
		return nil, apperrors.InvalidRange("end_date must be strictly after start_date")
	}
	if err := s.validator.Validate(booking); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	vehicle, err := s.vehicles.FindByID(ctx, booking.VehicleID)
	if err != nil {
		if errors.Is(err, vehiclesrepo.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", booking.VehicleID)
		}
		return nil, s.storageError(err)
	}

	if !vehicle.Bookable() {
		return nil, apperrors.VehicleNotApproved(vehicle.ID)
	}
	if vehicle.DailyRate == nil {
		return nil, apperrors.PricingUnavailable(vehicle.ID)
	}

	// Snapshot owner and rate at creation time; neither is resynced if
	// the vehicle changes later.
	booking.OwnerID = vehicle.OwnerID
	booking.DailyRate = *vehicle.DailyRate
	booking.Currency = vehicle.Currency
	if booking.Currency == "" {
		booking.Currency = s.cfg.Currency
	}

	total, err := pricing.ComputeTotal(booking.Range(), booking.DailyRate)
	if err != nil {
		return nil, apperrors.PricingUnavailable(vehicle.ID)
	}
	booking.TotalAmount = total

	if err := s.acquireLock(ctx, booking.VehicleID); err != nil {
		return nil, err
	}
	defer s.releaseLock(booking.VehicleID)

	err = s.bookings.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
		conflicts, err := s.bookings.FindOccupyingOverlap(sessCtx, booking.VehicleID, booking.Range(), "")
		if err != nil {
			return s.storageError(err)
		}
		if len(conflicts) > 0 {
			first := conflicts[0]
			return apperrors.VehicleUnavailable(first.StartDate, first.EndDate)
		}
		return s.bookings.Create(sessCtx, booking)
	})
	if err != nil {
		if apperrors.IsAppError(err) {
			return nil, err
		}
		return nil, s.storageError(err)
	}

	s.notifier.BookingChanged(ctx, notifications.EventBookingCreated, booking)

	return booking, nil
}

func (s *bookingService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.bookingError(err, id)
	}
	return booking, nil
}

func (s *bookingService) GetAll(ctx context.Context, filter repository.ListFilter, limit int, offset int64) ([]*model.Booking, int64, error) {
	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	bookings, err := s.bookings.FindAll(ctx, filter, limit, offset)
	if err != nil {
		return nil, 0, s.storageError(err)
	}

	total, err := s.bookings.Count(ctx, filter)
	if err != nil {
		return nil, 0, s.storageError(err)
	}

	return bookings, total, nil
}

// Update applies a customer patch while the booking still occupies the
// vehicle (pending or approved). A date change re-runs conflict
// detection (excluding the booking itself) and reprices against the
// rate snapshotted at creation, not the vehicle's current rate.
func (s *bookingService) Update(ctx context.Context, actor model.Actor, id string, patch *model.BookingUpdate) (*model.Booking, error) {
	if err := s.validator.ValidateUpdate(patch); err != nil {
		return nil, apperrors.Validation(err.Error(), nil)
	}

	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.bookingError(err, id)
	}

	if actor.Role != model.RoleAdmin && actor.ID != booking.CustomerID {
		return nil, apperrors.Forbidden("Only the booking customer may modify it")
	}
	if !booking.Status.Occupying() {
		return nil, apperrors.Conflict("Rejected or cancelled bookings cannot be modified")
	}

	if patch.StartDate != nil {
		booking.StartDate = *patch.StartDate
	}
	if patch.EndDate != nil {
		booking.EndDate = *patch.EndDate
	}
	if patch.Documents != nil {
		booking.Documents = trimDocuments(*patch.Documents)
	}

	if patch.DatesChanged() {
		if !booking.Range().IsValid() {
			return nil, apperrors.InvalidRange("end_date must be strictly after start_date")
		}

		total, err := pricing.ComputeTotal(booking.Range(), booking.DailyRate)
		if err != nil {
			return nil, apperrors.PricingUnavailable(booking.VehicleID)
		}
		booking.TotalAmount = total

		if err := s.acquireLock(ctx, booking.VehicleID); err != nil {
			return nil, err
		}
		defer s.releaseLock(booking.VehicleID)

		err = s.bookings.ExecuteTransaction(ctx, func(sessCtx context.Context) error {
			conflicts, err := s.bookings.FindOccupyingOverlap(sessCtx, booking.VehicleID, booking.Range(), booking.ID)
			if err != nil {
				return s.storageError(err)
			}
			if len(conflicts) > 0 {
				first := conflicts[0]
				return apperrors.VehicleUnavailable(first.StartDate, first.EndDate)
			}
			_, err = s.bookings.Update(sessCtx, id, booking)
			return err
		})
		if err != nil {
			if apperrors.IsAppError(err) {
				return nil, err
			}
			return nil, s.bookingError(err, id)
		}
	} else {
		if _, err := s.bookings.Update(ctx, id, booking); err != nil {
			return nil, s.bookingError(err, id)
		}
	}

	s.notifier.BookingChanged(ctx, notifications.EventBookingUpdated, booking)

	return booking, nil
}

func (s *bookingService) Delete(ctx context.Context, actor model.Actor, id string) error {
	if actor.Role != model.RoleAdmin {
		return apperrors.Forbidden("Only administrators may delete bookings")
	}
	if err := s.bookings.Delete(ctx, id); err != nil {
		return s.bookingError(err, id)
	}
	return nil
}

func (s *bookingService) Approve(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return s.transition(ctx, actor, id, model.StatusApproved, notifications.EventBookingApproved)
}

func (s *bookingService) Reject(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return s.transition(ctx, actor, id, model.StatusRejected, notifications.EventBookingRejected)
}

func (s *bookingService) Cancel(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return s.transition(ctx, actor, id, model.StatusCancelled, notifications.EventBookingCancelled)
}

// transition performs an authorized, guarded status change. The write is
// a compare-and-swap on the status read here, so a concurrent transition
// surfaces as a conflict instead of silently winning.
func (s *bookingService) transition(ctx context.Context, actor model.Actor, id string, target model.BookingStatus, eventType string) (*model.Booking, error) {
	booking, err := s.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, s.bookingError(err, id)
	}

	if !actor.AuthorizedFor(booking, target) {
		return nil, apperrors.Forbidden("Actor is not permitted to perform this transition")
	}
	if !model.CanTransition(booking.Status, target) {
		return nil, apperrors.InvalidTransition(string(booking.Status), string(target))
	}

	updated, err := s.bookings.UpdateStatusIf(ctx, id, []model.BookingStatus{booking.Status}, target)
	if err != nil {
		if errors.Is(err, bookingserrors.ErrStatusChanged) {
			fresh, readErr := s.bookings.FindByID(ctx, id)
			if readErr != nil {
				return nil, s.bookingError(readErr, id)
			}
			return nil, apperrors.InvalidTransition(string(fresh.Status), string(target))
		}
		return nil, s.bookingError(err, id)
	}

	s.notifier.BookingChanged(ctx, eventType, updated)

	return updated, nil
}

// CalendarFor returns the vehicle's occupied windows sorted by start
// then end date.
func (s *bookingService) CalendarFor(ctx context.Context, vehicleID string) ([]model.CalendarEntry, error) {
	if _, err := s.vehicles.FindByID(ctx, vehicleID); err != nil {
		if errors.Is(err, vehiclesrepo.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Vehicle", vehicleID)
		}
		return nil, s.storageError(err)
	}

	bookings, err := s.bookings.FindOccupyingByVehicle(ctx, vehicleID)
	if err != nil {
		return nil, s.storageError(err)
	}

	calendar := make([]model.CalendarEntry, 0, len(bookings))
	for _, b := range bookings {
		calendar = append(calendar, model.CalendarEntry{
			BookingID: b.ID,
			Range:     b.Range(),
			Status:    b.Status,
		})
	}

	return calendar, nil
}

// FilterAvailable answers which of the candidate vehicles are free for
// the window with a single query: fetch the distinct booked ids, then
// subtract. Input order is preserved and duplicates collapse.
func (s *bookingService) FilterAvailable(ctx context.Context, vehicleIDs []string, r model.DateRange) ([]string, error) {
	if !r.IsValid() {
		return nil, apperrors.InvalidRange("end_date must be strictly after start_date")
	}

	seen := make(map[string]bool, len(vehicleIDs))
	candidates := make([]string, 0, len(vehicleIDs))
	for _, id := range vehicleIDs {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		candidates = append(candidates, id)
	}

	if len(candidates) == 0 {
		return []string{}, nil
	}

	booked, err := s.bookings.DistinctBookedVehicleIDs(ctx, candidates, r)
	if err != nil {
		return nil, s.storageError(err)
	}

	bookedSet := make(map[string]bool, len(booked))
	for _, id := range booked {
		bookedSet[id] = true
	}

	available := make([]string, 0, len(candidates))
	for _, id := range candidates {
		if !bookedSet[id] {
			available = append(available, id)
		}
	}

	return available, nil
}

// trimDocuments drops blank entries; references are otherwise stored
// verbatim.
func trimDocuments(docs []string) []string {
	if len(docs) == 0 {
		return docs
	}
	out := docs[:0:0]
	for _, d := range docs {
		if trimmed := strings.TrimSpace(d); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// acquireLock takes the per-vehicle advisory lock, retrying while
// another writer holds it so a losing request reaches the conflict
// check after the winner's write lands. Retrying stops at the lock TTL;
// a lock still held past its own TTL means the holder is wedged.
func (s *bookingService) acquireLock(ctx context.Context, vehicleID string) error {
	deadline := time.Now().Add(s.cfg.VehicleLockTTL)
	for {
		_, err := s.locks.Acquire(ctx, vehicleID, s.cfg.VehicleLockTTL)
		if err == nil {
			return nil
		}
		if !errors.Is(err, bookingserrors.ErrLockHeld) {
			return s.storageError(err)
		}
		if time.Now().After(deadline) {
			return apperrors.Conflict("Another booking request for this vehicle is in progress")
		}
		select {
		case <-ctx.Done():
			return s.storageError(ctx.Err())
		case <-time.After(lockRetryInterval):
		}
	}
}

// releaseLock best-effort deletes the advisory lock on a detached
// context; the TTL index reclaims anything this misses.
func (s *bookingService) releaseLock(vehicleID string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.WriteTimeout)
	defer cancel()

	if err := s.locks.Release(ctx, vehicleID); err != nil {
		s.cfg.Log.Warn("Failed to release vehicle lock",
			"vehicle_id", vehicleID,
			"error", err,
		)
	}
}

// bookingError maps repository errors for a specific booking id to the
// API error taxonomy.
func (s *bookingService) bookingError(err error, id string) error {
	switch {
	case errors.Is(err, bookingserrors.ErrNotFound):
		return apperrors.NotFoundWithID("Booking", id)
	case errors.Is(err, bookingserrors.ErrInvalidID):
		return apperrors.InvalidInput("Invalid booking ID format")
	default:
		return s.storageError(err)
	}
}

func (s *bookingService) storageError(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return apperrors.Timeout("Storage operation timed out")
	case errors.Is(err, context.Canceled):
		return apperrors.Timeout("Request cancelled")
	default:
		return apperrors.Internal("Storage operation failed", err)
	}
}
