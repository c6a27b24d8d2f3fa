package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/dmitrymomot/saaskit/pkg/validator"
)

type registerRequest struct {
	Email    string  `json:"email"`
	Password string  `json:"password"`
	Name     *string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type resetRequestRequest struct {
	Email string `json:"email"`
}

type resetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"newPassword"`
}

type healthResponse struct {
	Status string `json:"status"`
}

// decode reads a JSON body into dst, writing a 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decode(w, r, &req) {
		return
	}

	if !validate(w, emailRules(req.Email), passwordRules("password", req.Password), nameRules(req.Name)) {
		return
	}

	res, err := s.auth.Register(r.Context(), services.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decode(w, r, &req) {
		return
	}

	if !validate(w, emailRules(req.Email), []validator.Rule{validator.Required("password", req.Password)}) {
		return
	}

	res, err := s.auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if !decode(w, r, &req) {
		return
	}
	if !validate(w, []validator.Rule{validator.Required("refreshToken", req.RefreshToken)}) {
		return
	}

	res, err := s.auth.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

// handleLogout never fails: an unreadable body is treated as an empty token.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	_ = json.NewDecoder(r.Body).Decode(&req)

	writeJSON(w, http.StatusOK, s.auth.Logout(r.Context(), req.RefreshToken))
}

func (s *Server) handleRequestPasswordReset(w http.ResponseWriter, r *http.Request) {
	var req resetRequestRequest
	if !decode(w, r, &req) {
		return
	}

	if !validate(w, emailRules(req.Email)) {
		return
	}

	res, err := s.auth.RequestPasswordReset(r.Context(), req.Email)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleResetPassword(w http.ResponseWriter, r *http.Request) {
	var req resetConfirmRequest
	if !decode(w, r, &req) {
		return
	}

	if !validate(w, []validator.Rule{validator.Required("token", req.Token)}, passwordRules("newPassword", req.NewPassword)) {
		return
	}

	res, err := s.auth.ResetPassword(r.Context(), req.Token, req.NewPassword)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, invalidTokenMessage)
		return
	}

	res, err := s.auth.Me(r.Context(), userID)
	if err != nil {
		s.writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health != nil {
		if err := s.health(r.Context()); err != nil {
			s.logger.Warn(r.Context(), "health check failed", "error", err)
			writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable"})
			return
		}
	}
	writeJSON(w, http.StatusOK, healthResponse{Status: "ok"})
}
