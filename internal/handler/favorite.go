package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/novelfinder/novelfinder-go/internal/model"
	"github.com/novelfinder/novelfinder-go/internal/service"
)

// FavoriteHandler handles HTTP requests for the favorites list.
type FavoriteHandler struct {
	service *service.FavoriteService
}

// NewFavoriteHandler creates a new FavoriteHandler.
func NewFavoriteHandler(svc *service.FavoriteService) *FavoriteHandler {
	return &FavoriteHandler{service: svc}
}

// HandleList handles GET /api/favorites/{userId} requests.
func (h *FavoriteHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	ref, err := model.ParseUserRef(chi.URLParam(r, "userId"))
	if err != nil {
		writeError(w, r, service.ErrMissingUserID)
		return
	}
	if err := checkSession(r, ref.Int64()); err != nil {
		writeError(w, r, err)
		return
	}

	favs, err := h.service.List(r.Context(), ref.Int64())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.FavoritesResponse{Success: true, Favorites: favs})
}

// HandleAdd handles POST /api/favorites requests.
func (h *FavoriteHandler) HandleAdd(w http.ResponseWriter, r *http.Request) {
	var req model.FavoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := checkSession(r, req.UserID.Int64()); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Add(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse("added to favorites"))
}

// HandleRemove handles DELETE /api/favorites requests.
func (h *FavoriteHandler) HandleRemove(w http.ResponseWriter, r *http.Request) {
	var req model.FavoriteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := checkSession(r, req.UserID.Int64()); err != nil {
		writeError(w, r, err)
		return
	}

	if err := h.service.Remove(r.Context(), req); err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, successResponse("removed from favorites"))
}
