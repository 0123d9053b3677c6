package middleware

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/tbox/dashboard/credential"
	"github.com/tbox/dashboard/internal/observability"
	"github.com/tbox/dashboard/models"
	"github.com/tbox/dashboard/services/audit"
	"github.com/tbox/dashboard/utils"
	"go.uber.org/zap"
)

// UnauthorizedMessage is the body message of every rejected credential,
// whatever the channel and whatever the reason
const UnauthorizedMessage = "Unauthorized"

// TokenVerifier verifies a raw credential
type TokenVerifier interface {
	Verify(token string) (*credential.Claims, error)
}

// AuthMiddleware is the single place where presented credentials are checked.
// The bearer and cookie channels differ only in how the raw token is read.
type AuthMiddleware struct {
	verifier   TokenVerifier
	cookieName string
	metrics    observability.Metrics
	recorder   audit.Recorder
	logger     *zap.Logger
}

// NewAuthMiddleware creates a new AuthMiddleware
func NewAuthMiddleware(verifier TokenVerifier, cookieName string, logger *zap.Logger) *AuthMiddleware {
	return &AuthMiddleware{
		verifier:   verifier,
		cookieName: cookieName,
		metrics:    observability.NopMetrics{},
		recorder:   audit.NopRecorder{},
		logger:     logger,
	}
}

// WithMetrics sets the metrics sink
func (m *AuthMiddleware) WithMetrics(metrics observability.Metrics) *AuthMiddleware {
	m.metrics = metrics
	return m
}

// WithRecorder sets the audit recorder for rejected credentials
func (m *AuthMiddleware) WithRecorder(recorder audit.Recorder) *AuthMiddleware {
	m.recorder = recorder
	return m
}

// CookieName returns the name of the credential cookie
func (m *AuthMiddleware) CookieName() string {
	return m.cookieName
}

// Authenticate verifies the token presented on channel. An empty token is
// rejected with credential.ErrMissingToken.
func (m *AuthMiddleware) Authenticate(r *http.Request, channel, token string) (*credential.Claims, error) {
	requestID := GetRequestIDFromContext(r.Context())

	claims, err := m.verifier.Verify(token)
	if err != nil {
		reason := credential.Reason(err)
		m.metrics.RecordVerification(channel, observability.OutcomeFailure)
		m.logger.Info("credential rejected",
			zap.String("request_id", requestID),
			zap.String("channel", channel),
			zap.String("reason", reason))

		if token != "" {
			event := models.NewAuthEvent(models.AuthActionTokenRejected).
				WithChannel(channel).
				WithReason(reason).
				WithRequest(requestID, r.RemoteAddr, r.UserAgent())
			if err := m.recorder.LogEvent(event); err != nil {
				m.logger.Debug("auth event not recorded", zap.Error(err))
			}
		}
		return nil, err
	}

	m.metrics.RecordVerification(channel, observability.OutcomeSuccess)
	m.logger.Debug("credential accepted",
		zap.String("request_id", requestID),
		zap.String("channel", channel),
		zap.String("sub", claims.Subject))
	return claims, nil
}

// AuthenticateHeader verifies the bearer credential of the request
func (m *AuthMiddleware) AuthenticateHeader(r *http.Request) (*credential.Claims, error) {
	return m.Authenticate(r, observability.ChannelHeader, BearerToken(r))
}

// AuthenticateCookie verifies the cookie credential of the request
func (m *AuthMiddleware) AuthenticateCookie(r *http.Request) (*credential.Claims, error) {
	return m.Authenticate(r, observability.ChannelCookie, CookieToken(r, m.cookieName))
}

// RequireAuth is a middleware that requires a valid credential. The
// Authorization header takes precedence; the cookie is the fallback.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		channel, token := observability.ChannelHeader, BearerToken(r)
		if token == "" {
			if cookieToken := CookieToken(r, m.cookieName); cookieToken != "" {
				channel, token = observability.ChannelCookie, cookieToken
			}
		}

		claims, err := m.Authenticate(r, channel, token)
		if err != nil {
			_ = utils.WriteUnauthorized(w, UnauthorizedMessage)
			return
		}

		ctx := WithClaims(r.Context(), claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSelf rejects requests whose {id} path value is not the caller's own
// subject. Must run after RequireAuth.
func (m *AuthMiddleware) RequireSelf(param func(r *http.Request) string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID, ok := GetUserIDFromContext(r.Context())
			if !ok {
				_ = utils.WriteUnauthorized(w, UnauthorizedMessage)
				return
			}

			requested, err := uuid.Parse(param(r))
			if err != nil || requested != userID {
				m.logger.Warn("access to another account denied",
					zap.String("request_id", GetRequestIDFromContext(r.Context())),
					zap.String("sub", userID.String()))
				_ = utils.WriteNotFound(w, "User not found")
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the Bearer token from the Authorization header
func BearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return ""
	}

	return strings.TrimSpace(parts[1])
}

// CookieToken returns the value of the named credential cookie
func CookieToken(r *http.Request, name string) string {
	cookie, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return cookie.Value
}
