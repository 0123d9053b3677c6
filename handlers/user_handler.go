package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/tbox/dashboard/app"
	"github.com/tbox/dashboard/middleware"
	"github.com/tbox/dashboard/models"
	"github.com/tbox/dashboard/utils"
	"go.uber.org/zap"
)

const maxAuthEvents = 100

// AuthEventView is an auth event as shown to its own account. Failure
// reasons are left out.
type AuthEventView struct {
	Action    models.AuthAction `json:"action"`
	Channel   string            `json:"channel,omitempty"`
	IPAddress string            `json:"ipAddress,omitempty"`
	UserAgent string            `json:"userAgent,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

// GetUserHandler returns an account by id, without its password hash
func GetUserHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, err := deps.UserService.GetUser(r.Context(), chi.URLParam(r, "id"))
		if err != nil {
			HandleServiceError(w, err, deps.Logger)
			return
		}

		_ = utils.WriteJSON(w, http.StatusOK, user)
	}
}

// ListAuthEventsHandler returns the caller's recent sign-in activity
func ListAuthEventsHandler(deps *app.Dependencies) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := middleware.GetUserIDFromContext(r.Context())
		if !ok {
			_ = utils.WriteUnauthorized(w, middleware.UnauthorizedMessage)
			return
		}

		limit := 20
		if raw := r.URL.Query().Get("limit"); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil || n <= 0 || n > maxAuthEvents {
				_ = utils.WriteBadRequest(w, "limit must be between 1 and 100", nil)
				return
			}
			limit = n
		}

		events, err := deps.Audit.Recent(r.Context(), userID, limit)
		if err != nil {
			deps.Logger.Error("failed to list auth events",
				zap.String("request_id", middleware.GetRequestIDFromContext(r.Context())),
				zap.Error(err))
			_ = utils.WriteInternalServerError(w, "An internal error occurred")
			return
		}

		views := make([]AuthEventView, 0, len(events))
		for _, e := range events {
			views = append(views, AuthEventView{
				Action:    e.Action,
				Channel:   e.Channel,
				IPAddress: e.IPAddress,
				UserAgent: e.UserAgent,
				CreatedAt: e.CreatedAt,
			})
		}

		_ = utils.WriteOK(w, views)
	}
}
