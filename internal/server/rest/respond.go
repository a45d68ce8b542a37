package rest

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/dmitrijs2005/bakehouse/internal/server/services"
)

const (
	codeRateLimited = "RATE_LIMITED"
	maxBodyBytes    = 1 << 20
)

type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// envelope is the shape of every API response.
type envelope struct {
	Success bool      `json:"success"`
	Data    any       `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	writeEnvelope(w, status, envelope{Success: true, Data: data})
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeEnvelope(w, status, envelope{Error: &apiError{Message: message, Code: code}})
}

func writeEnvelope(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// statusFor maps a service error code to its HTTP status.
func statusFor(code services.ErrorCode) int {
	switch code {
	case services.CodeValidation:
		return http.StatusBadRequest
	case services.CodeInvalidCredentials, services.CodeInvalidToken:
		return http.StatusUnauthorized
	case services.CodeUserInactive, services.CodeUnauthorized:
		return http.StatusForbidden
	case services.CodeNotFound:
		return http.StatusNotFound
	case services.CodeUserExists:
		return http.StatusConflict
	case services.CodeUserLocked:
		return http.StatusLocked
	default:
		return http.StatusInternalServerError
	}
}

// respondServiceError writes err as an error envelope. Errors that are not
// AuthErrors never reach the client verbatim.
func respondServiceError(w http.ResponseWriter, err error) {
	var ae *services.AuthError
	if !errors.As(err, &ae) {
		ae = services.ErrInternal
	}
	respondError(w, statusFor(ae.Code), string(ae.Code), ae.Message)
}

func respondBadRequest(w http.ResponseWriter, message string) {
	respondError(w, http.StatusBadRequest, string(services.CodeValidation), message)
}

// decodeJSON reads a JSON body into dst, rejecting bodies over maxBodyBytes.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
