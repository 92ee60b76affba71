package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"driveshare/internal/bookings/repository"
	"driveshare/internal/bookings/service"
	apperrors "driveshare/pkg/errors"
	httputil "driveshare/pkg/http"
	"driveshare/pkg/logger"
	"driveshare/pkg/model"
)

// ActorHeader carries the authenticated principal's id. The gateway in
// front of this service strips and re-sets it after verifying the token.
const ActorHeader = "X-Actor-Id"

type BookingHandler struct {
	service service.BookingService
	log     *logger.Logger
}

func NewBookingHandler(service service.BookingService, log *logger.Logger) *BookingHandler {
	return &BookingHandler{
		service: service,
		log:     log,
	}
}

func (h *BookingHandler) actor(w http.ResponseWriter, r *http.Request) (model.Actor, bool) {
	actorID := r.Header.Get(ActorHeader)
	if actorID == "" {
		h.writeError(w, "actor", apperrors.Forbidden("Missing "+ActorHeader+" header"))
		return model.Actor{}, false
	}

	actor, err := h.service.ResolveActor(r.Context(), actorID)
	if err != nil {
		h.writeError(w, "actor", err)
		return model.Actor{}, false
	}

	return actor, true
}

func (h *BookingHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *BookingHandler) Create(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var booking model.Booking
	if err := json.NewDecoder(r.Body).Decode(&booking); err != nil {
		h.writeError(w, "Create", apperrors.InvalidInput("Invalid request body"))
		return
	}

	created, err := h.service.Create(r.Context(), actor, &booking)
	if err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, created); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *BookingHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	booking, err := h.service.GetByID(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *BookingHandler) GetAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	query := r.URL.Query()
	filter := repository.ListFilter{
		VehicleID:  query.Get("vehicle_id"),
		OwnerID:    query.Get("owner_id"),
		CustomerID: query.Get("customer_id"),
	}

	bookings, total, err := h.service.GetAll(r.Context(), filter, limit, offset)
	if err != nil {
		h.writeError(w, "GetAll", err)
		return
	}

	if bookings == nil {
		bookings = []*model.Booking{}
	}

	if err := httputil.WritePaginated(w, bookings, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "GetAll", "error", err)
	}
}

func (h *BookingHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	var patch model.BookingUpdate
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, "Update", apperrors.InvalidInput("Invalid request body"))
		return
	}

	updated, err := h.service.Update(r.Context(), actor, ps.ByName("id"), &patch)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *BookingHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), actor, ps.ByName("id")); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *BookingHandler) transition(w http.ResponseWriter, r *http.Request, ps httprouter.Params,
	name string, op func(r *http.Request, actor model.Actor, id string) (*model.Booking, error)) {

	actor, ok := h.actor(w, r)
	if !ok {
		return
	}

	booking, err := op(r, actor, ps.ByName("id"))
	if err != nil {
		h.writeError(w, name, err)
		return
	}

	if err := httputil.WriteSuccess(w, booking); err != nil {
		h.log.Error("failed to write success response", "handler", name, "error", err)
	}
}

func (h *BookingHandler) Approve(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Approve", func(r *http.Request, actor model.Actor, id string) (*model.Booking, error) {
		return h.service.Approve(r.Context(), actor, id)
	})
}

func (h *BookingHandler) Reject(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Reject", func(r *http.Request, actor model.Actor, id string) (*model.Booking, error) {
		return h.service.Reject(r.Context(), actor, id)
	})
}

func (h *BookingHandler) Cancel(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	h.transition(w, r, ps, "Cancel", func(r *http.Request, actor model.Actor, id string) (*model.Booking, error) {
		return h.service.Cancel(r.Context(), actor, id)
	})
}

func (h *BookingHandler) Calendar(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	calendar, err := h.service.CalendarFor(r.Context(), ps.ByName("id"))
	if err != nil {
		h.writeError(w, "Calendar", err)
		return
	}

	if err := httputil.WriteSuccess(w, calendar); err != nil {
		h.log.Error("failed to write success response", "handler", "Calendar", "error", err)
	}
}

// AvailabilityRequest is the bulk availability filter payload.
type AvailabilityRequest struct {
	VehicleIDs []string  `json:"vehicle_ids"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
}

type AvailabilityResponse struct {
	AvailableVehicleIDs []string `json:"available_vehicle_ids"`
}

func (h *BookingHandler) FilterAvailable(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	var req AvailabilityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, "FilterAvailable", apperrors.InvalidInput("Invalid request body"))
		return
	}

	available, err := h.service.FilterAvailable(r.Context(), req.VehicleIDs,
		model.NewDateRange(req.StartDate, req.EndDate))
	if err != nil {
		h.writeError(w, "FilterAvailable", err)
		return
	}

	if err := httputil.WriteSuccess(w, AvailabilityResponse{AvailableVehicleIDs: available}); err != nil {
		h.log.Error("failed to write success response", "handler", "FilterAvailable", "error", err)
	}
}

func (h *BookingHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/bookings", h.Create)
	router.GET("/api/v1/bookings", h.GetAll)
	router.GET("/api/v1/bookings/id/:id", h.GetByID)
	router.PATCH("/api/v1/bookings/id/:id", h.Update)
	router.DELETE("/api/v1/bookings/id/:id", h.Delete)
	router.POST("/api/v1/bookings/id/:id/approve", h.Approve)
	router.POST("/api/v1/bookings/id/:id/reject", h.Reject)
	router.POST("/api/v1/bookings/id/:id/cancel", h.Cancel)
	router.GET("/api/v1/vehicles/:id/calendar", h.Calendar)
	router.POST("/api/v1/availability/filter", h.FilterAvailable)
}
