package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

func NewRouter(apiHandler *APIHandler) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.StripSlashes)

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/signup", apiHandler.SignupHandler)
		r.Post("/login", apiHandler.LoginHandler)
		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		})

		r.Group(func(r chi.Router) {
			r.Use(JWTAuthMiddleware)

			r.Get("/entries", apiHandler.ListEntriesHandler)
			r.Post("/entries", apiHandler.CreateEntryHandler)
			r.Post("/entries/analyze", apiHandler.AnalyzePendingHandler)
			r.Get("/entries/{entryID}", apiHandler.GetEntryHandler)
			r.Put("/entries/{entryID}", apiHandler.UpdateEntryHandler)
			r.Delete("/entries/{entryID}", apiHandler.DeleteEntryHandler)
			r.Post("/entries/{entryID}/analyze", apiHandler.AnalyzeEntryHandler)
			r.Get("/entries/{entryID}/export", apiHandler.ExportEntryHandler)
			r.Get("/tags", apiHandler.TagsHandler)

			r.Get("/insights", apiHandler.InsightsHandler)

			r.Get("/recommendations", apiHandler.ListRecommendationsHandler)
			r.Post("/recommendations", apiHandler.GenerateRecommendationsHandler)
			r.Put("/recommendations/{recID}/feedback", apiHandler.RecommendationFeedbackHandler)

			r.Get("/profile", apiHandler.GetProfileHandler)
			r.Put("/profile", apiHandler.UpdateProfileHandler)
		})
	})

	return r
}
