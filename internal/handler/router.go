package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/novelfinder/novelfinder-go/internal/middleware"
)

// Routes bundles the handlers served by NewRouter.
type Routes struct {
	Auth      *AuthHandler
	Favorites *FavoriteHandler
	Novels    *NovelHandler

	// SessionSecret, when set, requires a session token on the account and
	// favorites routes.
	SessionSecret string
}

// NewRouter builds the HTTP API.
func NewRouter(rt Routes) http.Handler {
	r := chi.NewRouter()
	r.Use(chimw.RealIP)
	r.Use(middleware.Logger)
	r.Use(chimw.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID", headerSearchFallback, headerSearchCache},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse("not found"))
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse("method not allowed"))
	})

	r.Get("/api/health", HandleHealth)

	r.Post("/api/register", rt.Auth.HandleRegister)
	r.Post("/api/login", rt.Auth.HandleLogin)

	r.Get("/api/search", rt.Novels.HandleSearch)
	r.Get("/api/download", rt.Novels.HandleDownload)

	r.Group(func(r chi.Router) {
		if rt.SessionSecret != "" {
			r.Use(middleware.Session(rt.SessionSecret))
		}

		r.Post("/api/change-password", rt.Auth.HandleChangePassword)
		r.Get("/api/users/{userId}/profile", rt.Auth.HandleProfile)

		r.Get("/api/favorites/{userId}", rt.Favorites.HandleList)
		r.Post("/api/favorites", rt.Favorites.HandleAdd)
		r.Delete("/api/favorites", rt.Favorites.HandleRemove)
	})

	return r
}
