package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/httprate"

	"github.com/starford/agora/internal/forum"
)

// RouterConfig configures NewRouter.
type RouterConfig struct {
	AuthEnabled bool
	Token       string
	// SSE, if non-nil, is mounted at GET /events inside the auth group.
	SSE http.Handler
	// RateLimit requests per RateWindow per client IP; zero disables.
	RateLimit  int
	RateWindow time.Duration
}

// NewRouter creates a chi router with all API routes mounted.
func NewRouter(svc *forum.Service, cfg RouterConfig) chi.Router {
	h := NewHandler(svc)

	r := chi.NewRouter()
	if cfg.RateLimit > 0 && cfg.RateWindow > 0 {
		r.Use(httprate.LimitByIP(cfg.RateLimit, cfg.RateWindow))
	}
	r.Use(AuthMiddleware(cfg.AuthEnabled, cfg.Token))

	// Public reads.
	r.Post("/users", h.RegisterUser)
	r.Get("/categories", h.ListCategories)
	r.Get("/courses", h.ListCourses)
	r.Get("/courses/{id}/resources", h.ListResources)
	r.Get("/tags", h.ListTags)
	r.Get("/tags/{slug}/threads", h.ThreadsByTag)
	r.Get("/threads", h.ListThreads)
	r.Get("/threads/filter", h.FilterByTags)
	r.Get("/threads/{id}", h.GetThread)
	r.Get("/search", h.Search)

	// Writes and moderation need an acting user.
	r.Group(func(r chi.Router) {
		r.Use(RequireActor(svc))

		r.Post("/categories", h.CreateCategory)
		r.Post("/courses", h.CreateCourse)
		r.Post("/courses/{id}/resources", h.CreateResource)
		r.Post("/tags", h.CreateTag)

		r.Post("/threads", h.CreateThread)
		r.Patch("/threads/{id}", h.UpdateThread)
		r.Post("/threads/{id}/lock", h.ToggleLock)
		r.Post("/threads/{id}/like", h.LikeThread)
		r.Post("/threads/{id}/posts", h.CreatePost)

		r.Post("/posts/{id}/like", h.LikePost)
		r.Delete("/posts/{id}", h.DeletePost)
		r.Post("/posts/{id}/report", h.ReportPost)

		r.Get("/reports", h.ListReports)
		r.Post("/reports/{id}/resolve", h.ResolveReport)
	})

	// SSE endpoint (protected by same auth middleware).
	if cfg.SSE != nil {
		r.Get("/events", cfg.SSE.ServeHTTP)
	}

	return r
}
