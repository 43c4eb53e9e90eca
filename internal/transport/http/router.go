package http

import (
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/iamasit07/wishplace/backend/internal/transport/http/middleware"
)

// RouterDeps collects everything the router mounts. OAuth, Watchdog,
// Health and StaticDir are optional.
type RouterDeps struct {
	Logger         zerolog.Logger
	Guard          *middleware.Guard
	AllowedOrigins []string
	// AuthLimiter throttles password and registration attempts when set.
	AuthLimiter *middleware.RateLimiter

	Auth      *AuthHandler
	OAuth     *OAuthHandler
	Temples   *TempleHandler
	Favorites *FavoriteHandler
	Todos     *TodoHandler
	Health    http.Handler
	Watchdog  http.Handler

	StaticDir string
}

// NewRouter builds the API. The guard wraps the whole mux, so SPA page
// routes served by the fallback are gated the same way as API routes.
func NewRouter(d RouterDeps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestLogging(d.Logger)...)
	r.Use(chimw.Recoverer)
	r.Use(middleware.SecurityHeaders)
	r.Use(middleware.CORS(d.AllowedOrigins))
	r.Use(d.Guard.Handler)

	r.Route("/api", func(r chi.Router) {
		if d.Health != nil {
			r.Method(http.MethodGet, "/health", d.Health)
		}

		r.Route("/auth", func(r chi.Router) {
			r.Group(func(r chi.Router) {
				if d.AuthLimiter != nil {
					r.Use(d.AuthLimiter.Handler)
				}
				r.Post("/register", d.Auth.Register)
				r.Post("/login", d.Auth.Login)
			})
			r.Post("/logout", d.Auth.Logout)
			r.Get("/me", d.Auth.Me)
			if d.OAuth != nil {
				r.Get("/google/login", d.OAuth.GoogleLogin)
				r.Get("/google/callback", d.OAuth.GoogleCallback)
			}
		})

		r.Get("/sessions", d.Auth.SessionHistory)

		r.Route("/temples", func(r chi.Router) {
			r.Get("/", d.Temples.List)
			r.Get("/{id}", d.Temples.Get)
		})

		r.Route("/favorites", func(r chi.Router) {
			r.Get("/", d.Favorites.List)
			r.Put("/{templeID}", d.Favorites.Put)
			r.Delete("/{templeID}", d.Favorites.Delete)
		})

		r.Route("/todos", func(r chi.Router) {
			r.Get("/", d.Todos.List)
			r.Post("/", d.Todos.Create)
			r.Patch("/{id}", d.Todos.Update)
			r.Delete("/{id}", d.Todos.Delete)
		})

		r.Get("/zodiac", Zodiac)
		r.Get("/zodiac/signs", ZodiacSigns)
	})

	if d.Watchdog != nil {
		r.Method(http.MethodGet, "/ws/watchdog", d.Watchdog)
	}

	if d.StaticDir != "" {
		r.NotFound(spaHandler(d.StaticDir).ServeHTTP)
	}

	return r
}

// spaHandler serves files from dir and falls back to index.html for page
// routes. Unknown /api paths stay 404.
func spaHandler(dir string) http.Handler {
	files := http.FileServer(http.Dir(dir))
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			writeError(w, r, http.StatusNotFound, "Not found", nil)
			return
		}
		clean := path.Clean("/" + r.URL.Path)
		if info, err := os.Stat(filepath.Join(dir, filepath.FromSlash(clean))); err == nil && !info.IsDir() {
			files.ServeHTTP(w, r)
			return
		}
		http.ServeFile(w, r, filepath.Join(dir, "index.html"))
	})
}
