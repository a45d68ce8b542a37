package rest

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrijs2005/bakehouse/internal/server/auth"
	"github.com/dmitrijs2005/bakehouse/internal/server/models"
)

type presignRequest struct {
	ContentType string `json:"contentType"`
}

func (s *Server) handleAccessLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			respondBadRequest(w, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.auth.RecentAccessLogs(r.Context(), limit, actor(r))
	if err != nil {
		respondServiceError(w, err)
		return
	}
	if entries == nil {
		entries = []*models.AccessLogEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handlePresignImage(w http.ResponseWriter, r *http.Request) {
	var req presignRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondBadRequest(w, "Invalid request body")
		return
	}

	upload, err := s.images.PresignUpload(r.Context(), req.ContentType)
	if err != nil {
		s.logger.Error(r.Context(), "presign failed", "error", err)
		respondServiceError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, upload)
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Warn(r.Context(), "health check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "database unreachable")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// The admin screens live in the storefront app; these placeholders only
// show what the guard let through.

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintln(w, "Admin login: POST /api/auth/login")
	if target := r.URL.Query().Get("redirect"); target != "" {
		fmt.Fprintf(w, "After login continue to %s\n", target)
	}
}

func (s *Server) handleAdminPage(w http.ResponseWriter, r *http.Request) {
	id, ok := auth.IdentityFromContext(r.Context())
	if !ok {
		http.Redirect(w, r, LoginPath, http.StatusSeeOther)
		return
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, "Signed in as %s (%s)\n", id.Username, id.Role)
}
