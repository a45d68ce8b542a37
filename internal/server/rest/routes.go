package rest

import (
	"net/http"

	"github.com/gorilla/mux"
)

// Handler returns the full HTTP handler: API routes, admin pages and the
// page guard in front of them.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestLogger)

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Handle("/auth/login", s.loginRateLimit(http.HandlerFunc(s.handleLogin))).Methods(http.MethodPost)
	api.HandleFunc("/auth/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/auth/session", s.handleSession).Methods(http.MethodGet)
	api.Handle("/auth/change-password", s.RequireSession(http.HandlerFunc(s.handleChangePassword))).Methods(http.MethodPost)

	api.Handle("/users", s.superadmin(s.handleListUsers)).Methods(http.MethodGet)
	api.Handle("/users", s.superadmin(s.handleCreateUser)).Methods(http.MethodPost)
	api.Handle("/users/{id}", s.RequireSession(http.HandlerFunc(s.handleGetUser))).Methods(http.MethodGet)
	api.Handle("/users/{id}", s.RequireSession(http.HandlerFunc(s.handleUpdateUser))).Methods(http.MethodPut)
	api.Handle("/users/{id}", s.superadmin(s.handleDeactivateUser)).Methods(http.MethodDelete)

	api.Handle("/access-logs", s.superadmin(s.handleAccessLogs)).Methods(http.MethodGet)
	api.Handle("/images/presign", s.RequireSession(http.HandlerFunc(s.handlePresignImage))).Methods(http.MethodPost)

	r.HandleFunc(LoginPath, s.handleLoginPage).Methods(http.MethodGet)
	r.HandleFunc(ProtectedPrefix, s.handleAdminPage).Methods(http.MethodGet)
	r.PathPrefix(ProtectedPrefix + "/").HandlerFunc(s.handleAdminPage).Methods(http.MethodGet)

	return s.SessionGuard(r)
}

func (s *Server) superadmin(h http.HandlerFunc) http.Handler {
	return s.RequireSession(s.RequireSuperadmin(h))
}
