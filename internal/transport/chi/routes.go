package chi

import "github.com/go-chi/chi/v5"

// Routes registers the gateway's HTTP surface on r.
func Routes(r chi.Router, s *Server) {
	r.Post("/search", s.Search)
	r.Post("/suggest", s.Suggest)
	r.Post("/explain", s.Explain)
	r.Get("/health", s.Health)
	r.Get("/ready", s.Ready)
	r.Get("/metrics", s.Metrics)
}
