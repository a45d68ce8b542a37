package rest

import (
	"net/http"

	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
	"github.com/dmitrijs2005/bakehouse/internal/server/services"
	"github.com/gorilla/mux"
)

type createUserRequest struct {
	Username string      `json:"username"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type updateUserRequest struct {
	Username *string      `json:"username"`
	Password *string      `json:"password"`
	Role     *models.Role `json:"role"`
	IsActive *bool        `json:"is_active"`
}

func actor(r *http.Request) *auth.Identity {
	id, _ := auth.IdentityFromContext(r.Context())
	return id
}

func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := s.auth.ListUsers(r.Context(), actor(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if users == nil {
		users = []*models.User{}
	}
	respondJSON(w, http.StatusOK, users)
}

func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	user, err := s.auth.CreateUser(r.Context(), services.CreateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
	}, actor(r), s.requestMeta(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusCreated, user)
}

func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.GetUser(r.Context(), mux.Vars(r)["id"], actor(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

func (s *Server) handleUpdateUser(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	user, err := s.auth.UpdateUser(r.Context(), mux.Vars(r)["id"], services.UpdateUserInput{
		Username: req.Username,
		Password: req.Password,
		Role:     req.Role,
		IsActive: req.IsActive,
	}, actor(r), s.requestMeta(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}

// handleDeactivateUser is DELETE /users/{id}; the row is kept.
func (s *Server) handleDeactivateUser(w http.ResponseWriter, r *http.Request) {
	user, err := s.auth.DeactivateUser(r.Context(), mux.Vars(r)["id"], actor(r), s.requestMeta(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, user)
}
