package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/msavelyev/stocklive/internal/api"
	"github.com/msavelyev/stocklive/internal/server/repositories/users"
	"github.com/msavelyev/stocklive/internal/server/services"
)

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var req api.SignUpRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	u, pair, err := s.users.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		s.log.Warn(r.Context(), "signup rejected", "email", req.Email, "err", err)
		writeAuthError(w, err, api.CodeUserNotFound)
		return
	}

	s.log.Info(r.Context(), "account created", "user_id", u.ID)
	writeJSON(w, http.StatusCreated, authResponse(u, pair))
}

func (s *Server) handleLogIn(w http.ResponseWriter, r *http.Request) {
	var req api.LogInRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	u, pair, err := s.users.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.log.Warn(r.Context(), "login rejected", "email", req.Email, "err", err)
		writeAuthError(w, err, api.CodeUserNotFound)
		return
	}

	s.log.Info(r.Context(), "login", "user_id", u.ID)
	writeJSON(w, http.StatusOK, authResponse(u, pair))
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req api.RefreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	u, pair, err := s.users.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		writeAuthError(w, err, api.CodeUserNotFound)
		return
	}

	writeJSON(w, http.StatusOK, authResponse(u, pair))
}

func (s *Server) handleLogOut(w http.ResponseWriter, r *http.Request) {
	var req api.LogOutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	if err := s.users.Logout(r.Context(), req.RefreshToken); err != nil {
		writeAuthError(w, err, api.CodeUserNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleReset(w http.ResponseWriter, r *http.Request) {
	var req api.ResetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	if err := s.users.RequestReset(r.Context(), req.Email); err != nil {
		writeAuthError(w, err, api.CodeUserNotFound)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	var req api.ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, api.CodeInternal, "malformed request body")
		return
	}

	u, err := s.users.UpdateDisplayName(r.Context(), userIDFrom(r.Context()), req.DisplayName)
	if err != nil {
		writeAuthError(w, err, api.CodeUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, actorPayload(u))
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	u, err := s.users.GetByID(r.Context(), userIDFrom(r.Context()))
	if err != nil {
		writeAuthError(w, err, api.CodeUserNotFound)
		return
	}
	writeJSON(w, http.StatusOK, actorPayload(u))
}

func actorPayload(u *users.User) api.Actor {
	return api.Actor{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName}
}

func authResponse(u *users.User, pair services.TokenPair) api.AuthResponse {
	return api.AuthResponse{
		Actor:  actorPayload(u),
		Tokens: api.TokenPair{AccessToken: pair.AccessToken, RefreshToken: pair.RefreshToken},
	}
}
