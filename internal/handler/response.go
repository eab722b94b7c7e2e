package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/novelfinder/novelfinder-go/internal/middleware"
	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/service"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	middleware.WriteJSON(w, status, v)
}

func errorResponse(msg string) middleware.Message {
	return middleware.Message{Success: false, Message: msg}
}

func successResponse(msg string) middleware.Message {
	return middleware.Message{Success: true, Message: msg}
}

// decodeJSON reads a JSON request body into v. On failure it writes the error
// response and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	defer r.Body.Close()

	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
		case errors.Is(err, model.ErrInvalidUserRef):
			writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
		default:
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		}
		return false
	}
	return true
}

// statusFor maps a service error kind to an HTTP status.
func statusFor(err error) int {
	switch {
	case errors.Is(err, service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrConflict):
		return http.StatusConflict
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrAuth):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrUpstream):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as {success:false, message}. Errors that are not
// service errors are logged and reported as internal errors.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := describe(r, err)
	writeJSON(w, status, errorResponse(msg))
}

func describe(r *http.Request, err error) (int, string) {
	var svcErr *service.Error
	if errors.As(err, &svcErr) {
		return statusFor(err), svcErr.Message
	}

	slog.ErrorContext(r.Context(), "request failed",
		"request_id", middleware.RequestIDFromContext(r.Context()),
		"path", r.URL.Path,
		"error", err,
	)
	return http.StatusInternalServerError, "internal server error"
}

// checkSession rejects requests whose session belongs to another user. Without
// a session middleware there is nothing to check; a missing id is left to
// validation.
func checkSession(r *http.Request, userID int64) error {
	sessionID, ok := middleware.UserIDFromContext(r.Context())
	if ok && userID != 0 && sessionID != userID {
		return service.ErrSessionMismatch
	}
	return nil
}
