package handler

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/greenevents/server/internal/service"
)

// Routes builds the full API router, including the global middleware
// stack.
func (h *Handler) Routes(profiles service.ProfileStore, logger *zap.Logger) chi.Router {
	r := chi.NewRouter()

	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(AccessLog(logger))
	r.Use(CORS)
	r.Use(Actor(profiles, logger))

	r.Get("/health", HealthCheck)

	r.Route("/events", func(r chi.Router) {
		r.Get("/", h.ListEvents)
		r.Post("/", h.CreateEvent)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.GetEvent)
			r.Put("/", h.UpdateEvent)
			r.Delete("/", h.DeactivateEvent)
			r.Get("/registrations", h.ListRegistrations)
			r.Post("/register", h.Register)
			r.Delete("/register", h.CancelRegistration)
		})
	})

	r.Route("/profiles", func(r chi.Router) {
		r.Post("/volunteer", h.CreateVolunteerProfile)
		r.Post("/organizer", h.CreateOrganizerProfile)
	})

	r.Get("/me/dashboard", h.Dashboard)

	return r
}
