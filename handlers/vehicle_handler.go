package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/tbox/dashboard/app"
	"github.com/tbox/dashboard/middleware"
	"github.com/tbox/dashboard/utils"
	"go.uber.org/zap"
)

// GetVehicleHandler returns the latest telemetry snapshot of a device
func GetVehicleHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		deviceName := chi.URLParam(r, "deviceName")
		if err := utils.ValidateRequired(deviceName, "deviceName"); err != nil {
			HandleValidationError(w, err, deps.Logger)
			return
		}

		vehicle, err := deps.VehicleService.GetByDeviceName(r.Context(), deviceName)
		if err != nil {
			deps.Logger.Debug("vehicle lookup failed",
				zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
				zap.String("device_name", deviceName),
				zap.Error(err))
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteJSON(w, http.StatusOK, vehicle)
	}
}
