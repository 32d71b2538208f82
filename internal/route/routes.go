package route

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"geocatalog/internal/config"
	"geocatalog/internal/handler"
	"geocatalog/internal/middleware"
	"geocatalog/internal/service"
	"geocatalog/internal/service/storage"
)

// Services bundles what the HTTP layer needs.
type Services struct {
	Auth          *service.AuthService
	Entities      *service.EntityService
	OfflineImages *service.OfflineImageService
	Media         *storage.MediaStore
}

// SetupRoutes registers every endpoint. The API is mounted at the root and
// again under /api; trailing slashes are optional.
func SetupRoutes(svc Services, cfg *config.Config, log zerolog.Logger) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID(log))
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(chimiddleware.StripSlashes)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())
	r.Get("/images/*", handler.ServeMediaHandler(svc.Media))

	api := apiRouter(svc, cfg)
	r.Mount("/api", api)
	r.Mount("/", api)

	return r
}

func apiRouter(svc Services, cfg *config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.TokenAuth(svc.Auth))

	r.Get("/check", handler.CheckHandler)

	// Auth endpoints
	r.Group(func(r chi.Router) {
		r.Use(httprate.Limit(cfg.AuthRateLimit, cfg.AuthRateWindow,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusTooManyRequests)
				_, _ = w.Write([]byte(`{"success":false,"error":"Request was throttled."}`))
			}),
		))
		r.Post("/login", handler.LoginHandler(svc.Auth))
		r.Post("/register", handler.RegisterHandler(svc.Auth))
	})
	r.Post("/logout", handler.LogoutHandler(svc.Auth))

	// Entity endpoints
	r.Route("/entities", func(r chi.Router) {
		r.Get("/", handler.ListEntitiesHandler(svc.Entities, cfg))
		r.Get("/{id}", handler.GetEntityHandler(svc.Entities, cfg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAuth)
			r.Post("/", handler.CreateEntityHandler(svc.Entities, cfg))
			r.Put("/{id}", handler.UpdateEntityHandler(svc.Entities, cfg, false))
			r.Patch("/{id}", handler.UpdateEntityHandler(svc.Entities, cfg, true))
			r.Delete("/{id}", handler.DeleteEntityHandler(svc.Entities))
		})
	})

	// Offline image markers
	r.Route("/offline-images", func(r chi.Router) {
		r.Use(middleware.RequireAuth)
		r.Get("/", handler.ListOfflineImagesHandler(svc.OfflineImages))
		r.Post("/", handler.MarkOfflineImageHandler(svc.OfflineImages))
		r.Delete("/{entityID}", handler.UnmarkOfflineImageHandler(svc.OfflineImages))
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"success":false,"error":"Not found."}`))
	})

	return r
}
