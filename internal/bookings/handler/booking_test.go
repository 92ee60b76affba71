package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/julienschmidt/httprouter"

	"driveshare/internal/bookings/repository"
	apperrors "driveshare/pkg/errors"
	"driveshare/pkg/logger"
	"driveshare/pkg/model"
)

// stubService implements service.BookingService with overridable funcs.
type stubService struct {
	createFn          func(ctx context.Context, actor model.Actor, b *model.Booking) (*model.Booking, error)
	getByIDFn         func(ctx context.Context, id string) (*model.Booking, error)
	approveFn         func(ctx context.Context, actor model.Actor, id string) (*model.Booking, error)
	filterAvailableFn func(ctx context.Context, ids []string, r model.DateRange) ([]string, error)
	resolveActorFn    func(ctx context.Context, actorID string) (model.Actor, error)
}

func (s *stubService) Create(ctx context.Context, actor model.Actor, b *model.Booking) (*model.Booking, error) {
	return s.createFn(ctx, actor, b)
}

func (s *stubService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	return s.getByIDFn(ctx, id)
}

func (s *stubService) GetAll(context.Context, repository.ListFilter, int, int64) ([]*model.Booking, int64, error) {
	return nil, 0, nil
}

func (s *stubService) Update(context.Context, model.Actor, string, *model.BookingUpdate) (*model.Booking, error) {
	return nil, apperrors.Internal("not implemented", nil)
}

func (s *stubService) Delete(context.Context, model.Actor, string) error {
	return apperrors.Internal("not implemented", nil)
}

func (s *stubService) Approve(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return s.approveFn(ctx, actor, id)
}

func (s *stubService) Reject(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return s.approveFn(ctx, actor, id)
}

func (s *stubService) Cancel(ctx context.Context, actor model.Actor, id string) (*model.Booking, error) {
	return s.approveFn(ctx, actor, id)
}

func (s *stubService) CalendarFor(context.Context, string) ([]model.CalendarEntry, error) {
	return []model.CalendarEntry{}, nil
}

func (s *stubService) FilterAvailable(ctx context.Context, ids []string, r model.DateRange) ([]string, error) {
	return s.filterAvailableFn(ctx, ids, r)
}

func (s *stubService) ResolveActor(ctx context.Context, actorID string) (model.Actor, error) {
	return s.resolveActorFn(ctx, actorID)
}

func newTestRouter(svc *stubService) *httprouter.Router {
	log := logger.New(logger.Config{Level: "error", Format: logger.JSON, Service: "test"})
	router := httprouter.New()
	NewBookingHandler(svc, log).RegisterRoutes(router)
	return router
}

func defaultStub() *stubService {
	return &stubService{
		resolveActorFn: func(_ context.Context, actorID string) (model.Actor, error) {
			return model.Actor{ID: actorID, Role: model.RoleCustomer}, nil
		},
		createFn: func(_ context.Context, actor model.Actor, b *model.Booking) (*model.Booking, error) {
			b.ID = "64f000000000000000000099"
			b.CustomerID = actor.ID
			b.Status = model.StatusPending
			return b, nil
		},
		getByIDFn: func(_ context.Context, id string) (*model.Booking, error) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		},
		approveFn: func(_ context.Context, _ model.Actor, _ string) (*model.Booking, error) {
			return &model.Booking{Status: model.StatusApproved}, nil
		},
		filterAvailableFn: func(_ context.Context, ids []string, _ model.DateRange) ([]string, error) {
			return ids, nil
		},
	}
}

func bookingBody(t *testing.T) *bytes.Buffer {
	t.Helper()
	body, err := json.Marshal(map[string]any{
		"vehicle_id": "64f000000000000000000001",
		"start_date": time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		"end_date":   time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewBuffer(body)
}

func TestCreateHandler(t *testing.T) {
	router := newTestRouter(defaultStub())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bookingBody(t))
	req.Header.Set(ActorHeader, "64f0000000000000000000bb")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Data model.Booking `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Data.CustomerID != "64f0000000000000000000bb" {
		t.Errorf("expected customer from actor header, got %s", resp.Data.CustomerID)
	}
}

func TestCreateHandlerMissingActor(t *testing.T) {
	router := newTestRouter(defaultStub())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bookingBody(t))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403 without actor header, got %d", rec.Code)
	}
}

func TestCreateHandlerInvalidBody(t *testing.T) {
	router := newTestRouter(defaultStub())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", strings.NewReader("{not json"))
	req.Header.Set(ActorHeader, "64f0000000000000000000bb")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for malformed body, got %d", rec.Code)
	}
}

func TestCreateHandlerConflictPassthrough(t *testing.T) {
	stub := defaultStub()
	stub.createFn = func(context.Context, model.Actor, *model.Booking) (*model.Booking, error) {
		return nil, apperrors.VehicleUnavailable(
			time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
		)
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", bookingBody(t))
	req.Header.Set(ActorHeader, "64f0000000000000000000bb")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var resp struct {
		Code    string         `json:"code"`
		Details map[string]any `json:"details"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Code != apperrors.CodeVehicleUnavailable {
		t.Errorf("expected code %s, got %s", apperrors.CodeVehicleUnavailable, resp.Code)
	}
	if resp.Details["conflict_start"] == nil {
		t.Errorf("expected conflict window in details, got %v", resp.Details)
	}
}

func TestGetByIDHandlerNotFound(t *testing.T) {
	router := newTestRouter(defaultStub())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/bookings/id/64f000000000000000000042", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestApproveHandlerRouting(t *testing.T) {
	var gotID string
	stub := defaultStub()
	stub.approveFn = func(_ context.Context, _ model.Actor, id string) (*model.Booking, error) {
		gotID = id
		return &model.Booking{ID: id, Status: model.StatusApproved}, nil
	}
	router := newTestRouter(stub)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings/id/64f000000000000000000042/approve", nil)
	req.Header.Set(ActorHeader, "64f0000000000000000000aa")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}
	if gotID != "64f000000000000000000042" {
		t.Errorf("expected id from path, got %s", gotID)
	}
}

func TestFilterAvailableHandler(t *testing.T) {
	router := newTestRouter(defaultStub())

	body, _ := json.Marshal(map[string]any{
		"vehicle_ids": []string{"64f000000000000000000001", "64f000000000000000000002"},
		"start_date":  time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
		"end_date":    time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/availability/filter", bytes.NewBuffer(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body)
	}

	var resp struct {
		Data AvailabilityResponse `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Data.AvailableVehicleIDs) != 2 {
		t.Errorf("expected 2 available vehicles, got %v", resp.Data.AvailableVehicleIDs)
	}
}
