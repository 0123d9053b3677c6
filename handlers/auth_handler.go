package handlers

import (
	"net/http"

	"github.com/tbox/dashboard/auth"
	"github.com/tbox/dashboard/utils"
)

// AuthDeps provides auth handler for route wiring
type AuthDeps interface {
	AuthHandler() *auth.Handler
}

// LoginHandler returns an http.HandlerFunc for POST /login
func LoginHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleLogin)
}

// SignupHandler returns an http.HandlerFunc for POST /signup
func SignupHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleSignup)
}

// VerifyTokenHandler returns an http.HandlerFunc for POST /verify-token
func VerifyTokenHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleVerifyToken)
}

// DashboardHandler returns an http.HandlerFunc for GET /
func DashboardHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleDashboard)
}

// LogoutHandler returns an http.HandlerFunc for POST /logout
func LogoutHandler(deps AuthDeps) http.HandlerFunc {
	return withAuthHandler(deps, (*auth.Handler).HandleLogout)
}

func withAuthHandler(deps AuthDeps, serve func(*auth.Handler, http.ResponseWriter, *http.Request)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if h := deps.AuthHandler(); h != nil {
			serve(h, w, r)
			return
		}
		_ = utils.WriteInternalServerError(w, "Authentication not configured")
	}
}
