// Package server is the thin BFF surface in front of the session manager: it
// exposes the auth operations as HTTP endpoints for the dashboard and gates
// protected routes through the guard. All session decisions live in the
// manager; handlers here only translate HTTP.
package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	"github.com/jrsteele09/go-session-manager/gateway"
	"github.com/jrsteele09/go-session-manager/guard"
	"github.com/jrsteele09/go-session-manager/internal/config"
	"github.com/jrsteele09/go-session-manager/manager"
	"github.com/jrsteele09/go-session-manager/sessions"
	"github.com/jrsteele09/go-session-manager/store"
)

type Server struct {
	router  *mux.Router
	config  config.Config
	manager *manager.Manager
	gw      gateway.Gateway
	cookies *store.CookieJar
}

// New wires the HTTP surface. The cookie jar is the same instance the session
// store writes through, so handlers can flush pending Set-Cookie values onto
// each response.
func New(cfg config.Config, mgr *manager.Manager, gw gateway.Gateway, cookies *store.CookieJar) (*Server, error) {
	if mgr == nil {
		return nil, errors.New("[server.New] manager is required")
	}
	if gw == nil {
		return nil, errors.New("[server.New] gateway is required")
	}

	s := &Server{
		router:  mux.NewRouter(),
		config:  cfg,
		manager: mgr,
		gw:      gw,
		cookies: cookies,
	}
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	routes := guard.Routes{
		Login: s.config.GetLoginRoute(),
		Home:  s.config.GetHomeRoute(),
	}

	// Public surface
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	s.router.HandleFunc("/signup", s.handleSignup).Methods(http.MethodPost)
	s.router.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	s.router.HandleFunc("/refresh", s.handleRefresh).Methods(http.MethodPost)
	s.router.HandleFunc("/verify-email", s.handleVerifyEmail).Methods(http.MethodPost)
	s.router.HandleFunc("/resend-verification", s.handleResendVerification).Methods(http.MethodPost)
	s.router.HandleFunc("/forgot-password", s.handleForgotPassword).Methods(http.MethodPost)
	s.router.HandleFunc("/reset-password", s.handleResetPassword).Methods(http.MethodPost)

	// Protected surface, any authenticated user
	protected := s.router.PathPrefix("/dashboard").Subrouter()
	protected.Use(guard.Middleware(s.manager, "", routes))
	protected.HandleFunc("", s.handleDashboard).Methods(http.MethodGet)
	protected.HandleFunc("/profile", s.handleProfile).Methods(http.MethodGet)
	protected.HandleFunc("/avatar/{userId}", s.handleAvatar).Methods(http.MethodGet)

	// Admin surface
	admin := s.router.PathPrefix("/admin").Subrouter()
	admin.Use(guard.Middleware(s.manager, sessions.RoleAdmin, routes))
	admin.HandleFunc("", s.handleAdmin).Methods(http.MethodGet)
}
