package delivery

import (
	"net/http"
	"time"

	"github.com/Vovarama1992/go-utils/httputil"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
)

const (
	rateLimit  = 60
	rateWindow = time.Minute
)

func NewRouter(h *AdminHandler, adminToken string) http.Handler {
	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
	}))
	RegisterRoutes(r, h, adminToken)
	return r
}

func RegisterRoutes(r chi.Router, h *AdminHandler, adminToken string) {
	r.With(httputil.RecoverMiddleware).Get("/ping", h.Ping)

	// --- protected ---
	r.Group(func(pr chi.Router) {
		pr.Use(
			httputil.RecoverMiddleware,
			httprate.LimitByIP(rateLimit, rateWindow),
			AuthMiddleware(adminToken),
		)

		pr.Get("/stats", h.Stats)
		pr.Get("/tokens/{userID}", h.Tokens)
	})
}
