package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/service"
)

// AuthHandler handles HTTP requests for accounts.
type AuthHandler struct {
	service  *service.AuthService
	profiles *service.ProfileService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc *service.AuthService, profiles *service.ProfileService) *AuthHandler {
	return &AuthHandler{service: svc, profiles: profiles}
}

// HandleRegister handles POST /api/register requests.
func (h *AuthHandler) HandleRegister(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.service.Register(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse(id, "registration successful"))
}

// HandleLogin handles POST /api/login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	id, err := h.service.Login(r.Context(), req)
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, authResponse(id, "login successful"))
}

// HandleChangePassword handles POST /api/change-password requests.
func (h *AuthHandler) HandleChangePassword(w http.ResponseWriter, r *http.Request) {
	var req model.ChangePasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := checkSession(r, req.UserID.Int64()); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.ChangePassword(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse("password changed"))
}

// HandleProfile handles GET /api/users/{userId}/profile requests.
func (h *AuthHandler) HandleProfile(w http.ResponseWriter, r *http.Request) {
	ref, err := model.ParseUserRef(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, service.ErrMissingUserID)
		return
	}
	if err := checkSession(r, ref.Int64()); err != nil {
		writeError(w, r, err)
		return
	}

	profile, err := h.profiles.Get(r.Context(), ref.Int64())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.ProfileResponse{Success: true, Profile: profile})
}

func authResponse(id model.Identity, msg string) model.AuthResponse {
	return model.AuthResponse{
		Success:  true,
		Message:  msg,
		Username: id.Username,
		UserID:   id.ID,
		Token:    id.Token,
	}
}
