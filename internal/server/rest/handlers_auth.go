package rest

import (
	"net/http"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/dmitrijs2005/bakehouse/internal/server/services"
)

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionResponse struct {
	User    *models.User `json:"user"`
	Expires time.Time    `json:"expires"`
}

type changePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
	ConfirmPassword string `json:"confirmPassword"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondBadRequest(w, "Username and password are required")
		return
	}

	res, err := s.auth.Authenticate(r.Context(), req.Username, req.Password, s.requestMeta(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	s.setAuthCookie(w, res.Token, s.auth.TokenValidity())
	respondJSON(w, http.StatusOK, sessionResponse{User: res.User, Expires: res.ExpiresAt})
}

// handleLogout always succeeds and always clears the cookie.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	var id *auth.Identity
	if claims := s.auth.VerifyToken(authToken(r)); claims != nil {
		id = claims.Identity()
	}
	s.auth.Logout(r.Context(), id, s.requestMeta(r))

	s.clearAuthCookie(w)
	respondJSON(w, http.StatusOK, nil)
}

func (s *Server) handleSession(w http.ResponseWriter, r *http.Request) {
	token := authToken(r)
	if token == "" {
		respondError(w, http.StatusUnauthorized, string(services.CodeUnauthorized), "Not authenticated")
		return
	}

	info, err := s.auth.Session(r.Context(), token)
	if err != nil {
		if services.CodeOf(err) == services.CodeInvalidToken {
			s.clearAuthCookie(w)
		}
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, sessionResponse{User: info.User, Expires: info.ExpiresAt})
}

func (s *Server) handleChangePassword(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.IdentityFromContext(r.Context())

	var req changePasswordRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}
	if req.CurrentPassword == "" || req.NewPassword == "" {
		respondBadRequest(w, "Current and new password are required")
		return
	}
	if req.NewPassword != req.ConfirmPassword {
		respondBadRequest(w, "Passwords do not match")
		return
	}

	if err := s.auth.ChangePassword(r.Context(), id.UserID, req.CurrentPassword, req.NewPassword, s.requestMeta(r)); err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, nil)
}
