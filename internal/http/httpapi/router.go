package httpapi

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/vidmase/bananina/internal/http/handlers"
	"github.com/vidmase/bananina/internal/infra"
	"github.com/vidmase/bananina/internal/middleware"
)

// Options configures the router.
type Options struct {
	AllowedOrigins  []string
	RateLimitPerMin int
	StaticDir       string
	Logger          *infra.Logger
}

func NewRouter(app *handlers.App, opts Options) http.Handler {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		chimw.RealIP,
		middleware.Logger(*infra.OrDiscard(opts.Logger)),
		chimw.Recoverer,
		middleware.CORS(opts.AllowedOrigins),
	)

	r.Get("/v1/healthz", app.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.RateLimit(opts.RateLimitPerMin, time.Minute))
		r.Post("/v1/images/edit", app.ImagesEdit)
		r.Post("/v1/videos/generate", app.VideosGenerate)
	})

	r.Get("/v1/jobs/{job_id}", app.JobStatus)
	r.Delete("/v1/jobs/{job_id}", app.JobCancel)

	if opts.StaticDir != "" {
		fs := http.StripPrefix("/static/", http.FileServer(http.Dir(opts.StaticDir)))
		r.Handle("/static/*", fs)
	}

	return r
}
