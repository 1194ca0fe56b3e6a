package httpx

import (
	"encoding/json"
	"net/http"

	"imsidesk/internal/auth"
	"imsidesk/internal/http/handlers"
	middlewarex "imsidesk/internal/http/middleware"
	"imsidesk/internal/provider/mno"
	"imsidesk/internal/services/cases"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
)

// RouterDependencies holds all dependencies for the simulator router
type RouterDependencies struct {
	Cases         *cases.Service
	Issuer        *auth.Issuer
	ReservedRoles []string
	// Quiet drops the per-request access log (tests)
	Quiet bool
}

// NewRouter creates the simulated operator API
func NewRouter(deps RouterDependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimw.RequestID)
	if !deps.Quiet {
		r.Use(chimw.Logger)
	}
	r.Use(chimw.Recoverer)

	// Health check (public)
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status":  "ok",
			"message": "MNO request simulator running",
		})
	})

	// Identity provider stand-in
	r.Post("/auth/token", handlers.Token(deps.Issuer))

	// Operator API (protected by bearer JWT)
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middlewarex.BearerAuth(deps.Issuer, deps.ReservedRoles))

		r.Get("/"+mno.EndpointFirstPage, handlers.FirstPage(deps.Cases))
		r.Get("/"+mno.EndpointBulkDownload, handlers.BulkDownload(deps.Cases))
		r.Put("/"+mno.EndpointSingleUpload, handlers.SingleUpload(deps.Cases))
	})

	return r
}
