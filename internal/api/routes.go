package api

import (
	"github.com/go-chi/chi/v5"
)

func (s *Server) registerRoutes() {
	r := s.router

	r.Get("/health", s.handleHealth)
	r.Method("GET", "/metrics", s.svc.Metrics().Handler())

	r.Get("/summary", s.handleSummary)
	r.Post("/summary/recompute", s.handleRecompute)

	r.Post("/scan", s.handleScan)
	r.Post("/organize", s.handleOrganize)
	r.Get("/duplicates", s.handleDuplicates)
	r.Post("/cloak", s.handleCloak)

	r.Get("/nodes", s.handleNodes)
	r.Get("/usage", s.handleUsage)

	r.Route("/insights", func(r chi.Router) {
		r.Get("/health", s.handleInsightsHealth)
		r.Get("/archive", s.handleInsightsArchive)
		r.Get("/access", s.handleInsightsAccess)
		r.Get("/organization", s.handleInsightsOrganization)
	})

	r.Route("/jobs", func(r chi.Router) {
		r.Get("/", s.handleListJobs)
		r.Post("/scan", s.handleSubmitScan)
		r.Post("/organize", s.handleSubmitOrganize)
		r.Post("/duplicates", s.handleSubmitDuplicates)
		r.Get("/{id}", s.handleGetJob)
		r.Post("/{id}/cancel", s.handleCancelJob)
	})

	r.Get("/schedules", s.handleSchedules)
	r.Post("/schedules/{id}/run", s.handleRunSchedule)
}
