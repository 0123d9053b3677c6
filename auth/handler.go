// Package auth serves the credential protocol: login, signup, bearer and
// cookie verification, and logout.
package auth

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/tbox/dashboard/config"
	"github.com/tbox/dashboard/credential"
	"github.com/tbox/dashboard/internal/observability"
	"github.com/tbox/dashboard/middleware"
	"github.com/tbox/dashboard/models"
	"github.com/tbox/dashboard/services"
	"github.com/tbox/dashboard/services/audit"
	"github.com/tbox/dashboard/utils"
	"go.uber.org/zap"
)

// Response messages of the credential protocol
const (
	MessageLoginSuccessful = "Login successful"
	MessageRegistered      = "User registered successfully"
	MessageTokenValid      = "Token is valid"
	MessageWelcome         = "Welcome to the dashboard"
	MessageLoggedOut       = "Logged out successfully"
)

// Service authenticates and registers accounts
type Service interface {
	Login(ctx context.Context, email, password string) (*services.LoginResult, error)
	Signup(ctx context.Context, input services.SignupInput) (*models.User, error)
}

// Authenticator verifies credentials presented on either channel
type Authenticator interface {
	AuthenticateHeader(r *http.Request) (*credential.Claims, error)
	AuthenticateCookie(r *http.Request) (*credential.Claims, error)
}

// LoginRequest is the body of POST /login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is returned by a successful login
type LoginResponse struct {
	Message string              `json:"message"`
	Token   string              `json:"token"`
	User    credential.Identity `json:"user"`
}

// DashboardResponse is returned by GET / for a valid cookie credential
type DashboardResponse struct {
	Message string             `json:"message"`
	User    *credential.Claims `json:"user"`
}

// Handler handles the credential protocol endpoints
type Handler struct {
	cfg      config.AuthConfig
	service  Service
	authn    Authenticator
	recorder audit.Recorder
	metrics  observability.Metrics
	logger   *zap.Logger
}

// NewHandler creates a new auth handler
func NewHandler(cfg config.AuthConfig, service Service, authn Authenticator, logger *zap.Logger) *Handler {
	return &Handler{
		cfg:      cfg,
		service:  service,
		authn:    authn,
		recorder: audit.NopRecorder{},
		metrics:  observability.NopMetrics{},
		logger:   logger,
	}
}

// WithRecorder sets the audit recorder
func (h *Handler) WithRecorder(recorder audit.Recorder) *Handler {
	h.recorder = recorder
	return h
}

// WithMetrics sets the metrics sink
func (h *Handler) WithMetrics(metrics observability.Metrics) *Handler {
	h.metrics = metrics
	return h
}

// HandleLogin handles POST /login
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	result, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if services.IsUnauthorizedError(err) {
			reason := services.FailureReason(err)
			h.metrics.RecordLogin(observability.OutcomeFailure)
			h.logger.Warn("login failed",
				zap.String("request_id", requestID),
				zap.String("reason", reason))

			event := models.NewAuthEvent(models.AuthActionLoginFailed).
				WithEmail(req.Email).
				WithReason(reason)
			if id, ok := services.GetErrorDetails(err)["user_id"].(string); ok {
				if userID, err := uuid.Parse(id); err == nil {
					event.WithUser(userID)
				}
			}
			h.record(r, event)

			_ = utils.WriteUnauthorized(w, services.InvalidCredentialsMessage)
			return
		}

		h.metrics.RecordLogin(observability.OutcomeError)
		h.logger.Error("login error", zap.String("request_id", requestID), zap.Error(err))
		_ = utils.WriteInternalServerError(w, "An internal error occurred")
		return
	}

	if h.cfg.SetCookie {
		http.SetCookie(w, h.credentialCookie(result.Token, int(h.cfg.TokenTTL.Seconds())))
	}

	h.metrics.RecordLogin(observability.OutcomeSuccess)
	h.logger.Info("login succeeded",
		zap.String("request_id", requestID),
		zap.String("user_id", result.Identity.ID))

	event := models.NewAuthEvent(models.AuthActionLoginSucceeded).WithEmail(result.Identity.Email)
	if userID, err := uuid.Parse(result.Identity.ID); err == nil {
		event.WithUser(userID)
	}
	h.record(r, event)

	_ = utils.WriteJSON(w, http.StatusOK, LoginResponse{
		Message: MessageLoginSuccessful,
		Token:   result.Token,
		User:    result.Identity,
	})
}

// HandleSignup handles POST /signup
func (h *Handler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestIDFromContext(r.Context())

	var input services.SignupInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		_ = utils.WriteBadRequest(w, "Invalid request body", nil)
		return
	}

	if err := utils.ValidateStruct(input); err != nil {
		h.metrics.RecordSignup(observability.OutcomeFailure)
		details := make(map[string]interface{})
		for field, msg := range utils.GetValidationFields(err) {
			details[field] = msg
		}
		_ = utils.WriteBadRequest(w, "Validation failed", details)
		return
	}

	user, err := h.service.Signup(r.Context(), input)
	if err != nil {
		switch {
		case services.IsConflictError(err):
			h.metrics.RecordSignup(observability.OutcomeFailure)
			_ = utils.WriteConflict(w, services.ErrDuplicateEmail.Message, nil)
		case services.IsValidationError(err):
			h.metrics.RecordSignup(observability.OutcomeFailure)
			_ = utils.WriteBadRequest(w, services.ErrInvalidInput.Message, nil)
		default:
			h.metrics.RecordSignup(observability.OutcomeError)
			h.logger.Error("signup error", zap.String("request_id", requestID), zap.Error(err))
			_ = utils.WriteInternalServerError(w, "Error registering user")
		}
		return
	}

	h.metrics.RecordSignup(observability.OutcomeSuccess)
	h.logger.Info("user registered",
		zap.String("request_id", requestID),
		zap.String("user_id", user.ID.String()))
	h.record(r, models.NewAuthEvent(models.AuthActionSignup).WithUser(user.ID).WithEmail(user.Email))

	_ = utils.WriteMessage(w, http.StatusOK, MessageRegistered)
}

// HandleVerifyToken handles POST /verify-token (bearer channel)
func (h *Handler) HandleVerifyToken(w http.ResponseWriter, r *http.Request) {
	if _, err := h.authn.AuthenticateHeader(r); err != nil {
		_ = utils.WriteUnauthorized(w, middleware.UnauthorizedMessage)
		return
	}
	_ = utils.WriteMessage(w, http.StatusOK, MessageTokenValid)
}

// HandleDashboard handles GET / (cookie channel)
func (h *Handler) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	claims, err := h.authn.AuthenticateCookie(r)
	if err != nil {
		_ = utils.WriteUnauthorized(w, middleware.UnauthorizedMessage)
		return
	}
	_ = utils.WriteJSON(w, http.StatusOK, DashboardResponse{
		Message: MessageWelcome,
		User:    claims,
	})
}

// HandleLogout handles POST /logout. It only expires the cookie; the
// credential itself stays valid until its expiry.
func (h *Handler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, h.credentialCookie("", -1))
	h.record(r, models.NewAuthEvent(models.AuthActionLogout))
	_ = utils.WriteMessage(w, http.StatusOK, MessageLoggedOut)
}

func (h *Handler) credentialCookie(value string, maxAge int) *http.Cookie {
	return &http.Cookie{
		Name:     h.cfg.CookieName,
		Value:    value,
		Path:     "/",
		MaxAge:   maxAge,
		HttpOnly: true,
		Secure:   h.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
	}
}

func (h *Handler) record(r *http.Request, event *models.AuthEvent) {
	event.WithRequest(middleware.GetRequestIDFromContext(r.Context()), r.RemoteAddr, r.UserAgent())
	if err := h.recorder.LogEvent(event); err != nil {
		h.logger.Debug("auth event not recorded",
			zap.String("action", string(event.Action)),
			zap.Error(err))
	}
}
