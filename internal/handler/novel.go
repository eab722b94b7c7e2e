package handler

import (
	"net/http"
	"time"

	"github.com/novelfinder/novelfinder-go/internal/service"
)

// Response headers describing where a search payload came from.
const (
	headerSearchFallback = "X-Search-Fallback"
	headerSearchCache    = "X-Search-Cache"
)

type searchError struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type healthResponse struct {
	Status    string    `json:"status"`
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// NovelHandler handles the search and download proxy endpoints.
type NovelHandler struct {
	service *service.NovelService
}

// NewNovelHandler creates a new NovelHandler.
func NewNovelHandler(svc *service.NovelService) *NovelHandler {
	return &NovelHandler{service: svc}
}

// HandleSearch handles GET /api/search?q= requests. The novel API payload is
// written as received.
func (h *NovelHandler) HandleSearch(w http.ResponseWriter, r *http.Request) {
	res, err := h.service.Search(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		status, msg := describe(r, err)
		writeJSON(w, status, searchError{Status: "error", Message: msg})
		return
	}

	if res.Fallback {
		w.Header().Set(headerSearchFallback, "true")
	}
	if res.Cached {
		w.Header().Set(headerSearchCache, "hit")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write(res.Payload)
}

// HandleDownload handles GET /api/download?q=&n=&token= requests by counting
// the download and redirecting to the novel API.
func (h *NovelHandler) HandleDownload(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	target, err := h.service.Download(r.Context(), query.Get("q"), query.Get("n"), query.Get("token"))
	if err != nil {
		writeError(w, r, err)
		return
	}

	http.Redirect(w, r, target, http.StatusFound)
}

// HandleHealth handles GET /api/health requests.
func HandleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:    "ok",
		Message:   "server is running",
		Timestamp: time.Now().UTC(),
	})
}
