package server

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/jrsteele09/go-session-manager/gateway"
	errs "github.com/jrsteele09/go-session-manager/internal/errors"
	"github.com/jrsteele09/go-session-manager/sessions"
)

const contentTypeJSON = "application/json; charset=utf-8"

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds gateway.Credentials
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		s.writeError(w, errs.NewValidation("invalid request body"))
		return
	}

	resp, err := s.manager.Login(r.Context(), creds)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.flushCookies(w)
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"user": resp.User})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req gateway.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, errs.NewValidation("invalid request body"))
		return
	}

	user, err := s.manager.Signup(r.Context(), req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Logout(r.Context()); err != nil {
		log.Warn().Err(err).Msg("logout cleanup reported an error")
	}
	s.flushCookies(w)
	// The dashboard treats this as a full reset and reloads from the login page
	s.writeJSON(w, http.StatusOK, map[string]string{"redirect": s.config.GetLoginRoute()})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.RefreshToken(r.Context()); err != nil {
		// The session has already been terminated by the cascade
		s.flushCookies(w)
		s.writeJSON(w, http.StatusUnauthorized, map[string]string{"redirect": s.config.GetLoginRoute()})
		return
	}
	s.flushCookies(w)
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "refreshed"})
}

func (s *Server) handleVerifyEmail(w http.ResponseWriter, r *http.Request) {
	s.messageHandler(w, r, func(body map[string]string) (string, error) {
		return s.manager.VerifyEmail(r.Context(), body["token"])
	})
}

func (s *Server) handleResendVerification(w http.ResponseWriter, r *http.Request) {
	s.messageHandler(w, r, func(body map[string]string) (string, error) {
		return s.manager.ResendVerificationEmail(r.Context(), body["email"])
	})
}

func (s *Server) handleForgotPassword(w http.ResponseWriter, r *http.Request) {
	s.messageHandler(w, r, func(body map[string]string) (string, error) {
		return s.manager.ForgotPassword(r.Context(), body["email"])
	})
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	s.messageHandler(w, r, func(body map[string]string) (string, error) {
		return s.manager.ResetPassword(r.Context(), body["token"], body["password"])
	})
}

func (s *Server) handleDashboard(w http.ResponseWriter, _ *http.Request) {
	snap := s.manager.Snapshot()
	s.writeJSON(w, http.StatusOK, map[string]interface{}{
		"user":   snap.User,
		"status": snap.Status,
	})
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	user, err := s.manager.Profile(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

func (s *Server) handleAvatar(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	data, contentType, err := s.gw.Avatar(r.Context(), userID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleAdmin(w http.ResponseWriter, _ *http.Request) {
	snap := s.manager.Snapshot()
	var role sessions.RoleType
	if snap.User != nil {
		role = snap.User.Role
	}
	s.writeJSON(w, http.StatusOK, map[string]interface{}{"role": role})
}

// messageHandler covers the pass-through endpoints that take a small JSON body
// and answer with the gateway's message.
func (s *Server) messageHandler(w http.ResponseWriter, r *http.Request, call func(map[string]string) (string, error)) {
	var body map[string]string
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		s.writeError(w, errs.NewValidation("invalid request body"))
		return
	}
	msg, err := call(body)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"message": msg})
}

// flushCookies emits the session store's pending cookie writes onto the
// response so the page gate sees the same tokens the durable store holds.
func (s *Server) flushCookies(w http.ResponseWriter) {
	if s.cookies != nil {
		s.cookies.WriteTo(w)
	}
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", contentTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Err(err).Msg("failed to encode response")
	}
}

// writeError maps the error taxonomy onto HTTP statuses: validation failures
// are the caller's fault, transport failures surface the normalized gateway
// message, anything else stays generic.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errs.IsValidation(err):
		status = http.StatusBadRequest
	case errs.IsTransport(err):
		status = http.StatusBadGateway
	}
	s.writeJSON(w, status, map[string]string{"message": errs.DisplayMessage(err)})
}
