// Package httpapi exposes the server over HTTP: JSON endpoints for
// authentication and record mutations, and a websocket watch endpoint that
// pushes a full snapshot of an owner's records after every change.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/msavelyev/stocklive/internal/api"
	"github.com/msavelyev/stocklive/internal/common"
	"github.com/msavelyev/stocklive/internal/logging"
	"github.com/msavelyev/stocklive/internal/server/config"
	"github.com/msavelyev/stocklive/internal/server/services"
)

// Server ties the services to the HTTP surface.
type Server struct {
	addr    string
	cfg     *config.Config
	log     logging.Logger
	users   *services.Users
	records *services.Records
	hub     *Hub
}

// NewServer wires the HTTP surface. It registers the hub as the records
// service's change notifier.
func NewServer(cfg *config.Config, log logging.Logger, us *services.Users, rs *services.Records) *Server {
	s := &Server{
		addr:    cfg.EndpointAddr,
		cfg:     cfg,
		log:     log.With("module", "httpapi"),
		users:   us,
		records: rs,
	}
	s.hub = NewHub(log)
	rs.SetNotifier(s.hub)
	return s
}

// Handler returns the full route table.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("POST /api/v1/auth/signup", s.handleSignUp)
	mux.HandleFunc("POST /api/v1/auth/login", s.handleLogIn)
	mux.HandleFunc("POST /api/v1/auth/refresh", s.handleRefresh)
	mux.HandleFunc("POST /api/v1/auth/logout", s.handleLogOut)
	mux.HandleFunc("POST /api/v1/auth/reset", s.handleReset)
	mux.Handle("PATCH /api/v1/auth/profile", s.withAuth(s.handleProfile))
	mux.Handle("GET /api/v1/auth/me", s.withAuth(s.handleMe))

	mux.Handle("POST /api/v1/records", s.withAuth(s.handleInsert))
	mux.Handle("PATCH /api/v1/records/{id}", s.withAuth(s.handlePatch))
	mux.Handle("DELETE /api/v1/records/{id}", s.withAuth(s.handleDelete))
	mux.HandleFunc("GET /api/v1/records/watch", s.handleWatch)

	return mux
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		s.log.Info(ctx, "Stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info(ctx, "Starting HTTP server", "address", s.addr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if body != nil {
		_ = json.NewEncoder(w).Encode(body)
	}
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, api.ErrorResponse{Error: api.ErrorBody{Code: code, Message: message}})
}

// writeAuthError maps account/service errors onto wire codes. notFoundCode
// lets login-ish endpoints report user_not_found while record endpoints
// report not_found.
func writeAuthError(w http.ResponseWriter, err error, notFoundCode string) {
	switch {
	case errors.Is(err, common.ErrInvalidEmail):
		writeError(w, http.StatusBadRequest, api.CodeInvalidEmail, "malformed email address")
	case errors.Is(err, common.ErrWeakPassword):
		writeError(w, http.StatusBadRequest, api.CodeWeakPassword, "password is too short")
	case errors.Is(err, common.ErrEmailInUse):
		writeError(w, http.StatusConflict, api.CodeEmailInUse, "email already registered")
	case errors.Is(err, common.ErrUserDisabled):
		writeError(w, http.StatusForbidden, api.CodeUserDisabled, "account is disabled")
	case errors.Is(err, common.ErrWrongPassword):
		writeError(w, http.StatusUnauthorized, api.CodeWrongPassword, "wrong password")
	case errors.Is(err, common.ErrRefreshTokenExpired):
		writeError(w, http.StatusUnauthorized, api.CodeRefreshTokenExpired, "refresh token expired")
	case errors.Is(err, common.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, api.CodeUnauthorized, "unauthorized")
	case errors.Is(err, common.ErrNotFound):
		writeError(w, http.StatusNotFound, notFoundCode, "not found")
	default:
		writeError(w, http.StatusInternalServerError, api.CodeInternal, "internal error")
	}
}
