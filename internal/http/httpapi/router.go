package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"yardcraft/internal/http/handlers"
	"yardcraft/internal/middleware"
)

// Options configures the cross-cutting middleware of the API.
type Options struct {
	JWTSecret       string
	AllowedOrigins  []string
	RateLimitPerMin int
	// StaticDir is served under /static when the filesystem store is used.
	StaticDir string
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		chimw.Recoverer,
		middleware.Logger(app.Logger),
		middleware.CORS(opts.AllowedOrigins),
	)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Get("/static/*", fs.ServeHTTP)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/healthz", app.Health)
		r.Get("/options", app.Options)
		r.Post("/webhooks/billing", app.BillingWebhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.AuthJWT(opts.JWTSecret, app.ResolveAccount, app.Logger))
			r.Get("/usage", app.Usage)

			r.Route("/redesigns", func(r chi.Router) {
				r.Get("/", app.ListRedesigns)
				r.Get("/{id}", app.GetRedesign)
				r.Get("/{id}/export", app.ExportRedesign)
				r.Post("/{id}/pin", app.TogglePin)
				r.Delete("/{id}", app.DeleteRedesign)

				r.With(middleware.RateLimit(opts.RateLimitPerMin, time.Minute)).Post("/", app.CreateRedesign)
			})
		})
	})

	return r
}
