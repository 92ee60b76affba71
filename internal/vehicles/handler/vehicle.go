package handler

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"

	"driveshare/internal/vehicles/repository"
	apperrors "driveshare/pkg/errors"
	httputil "driveshare/pkg/http"
	"driveshare/pkg/logger"
)

// VehicleHandler exposes the read-only vehicle directory view clients
// use alongside the booking API.
type VehicleHandler struct {
	vehicles repository.VehicleRepository
	log      *logger.Logger
}

func NewVehicleHandler(vehicles repository.VehicleRepository, log *logger.Logger) *VehicleHandler {
	return &VehicleHandler{
		vehicles: vehicles,
		log:      log,
	}
}

func (h *VehicleHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	vehicle, err := h.vehicles.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			err = apperrors.NotFoundWithID("Vehicle", id)
		}
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "GetByID", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, vehicle); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *VehicleHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/vehicles/:id", h.GetByID)
}
