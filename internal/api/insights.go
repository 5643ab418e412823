package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"selfsight.app/journal/internal/core"
	"selfsight.app/journal/internal/insight"
	"selfsight.app/journal/internal/store"
)

type InsightsResponse struct {
	Trend         []insight.TrendPoint    `json:"trend"`
	TopStrengths  []insight.StrengthCount `json:"top_strengths"`
	TopWeaknesses []insight.WeaknessCount `json:"top_weaknesses"`
	MoodBreakdown insight.MoodBreakdown   `json:"mood_breakdown"`
	Summary       insight.Summary         `json:"summary"`
	Degraded      bool                    `json:"degraded"`
}

func (h *APIHandler) InsightsHandler(w http.ResponseWriter, r *http.Request) {
	list, err := h.journal.ListEntries(userIDFromContext(r.Context()), core.ListFilter{})
	if err != nil {
		respondError(w, r, err, "Failed to compute insights")
		return
	}

	writeJSON(w, http.StatusOK, InsightsResponse{
		Trend:         insight.EmotionTrend(list.Entries),
		TopStrengths:  insight.TopStrengths(list.Entries),
		TopWeaknesses: insight.TopWeaknesses(list.Entries),
		MoodBreakdown: insight.Breakdown(list.Entries),
		Summary:       insight.Summarize(list.Entries),
		Degraded:      list.Degraded,
	})
}

type RecommendationsResponse struct {
	Recommendations []store.Recommendation `json:"recommendations"`
	Degraded        bool                   `json:"degraded"`
}

func (h *APIHandler) ListRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	recs, degraded, err := h.recommendations.ListRecommendations(userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err, "Failed to list recommendations")
		return
	}
	writeJSON(w, http.StatusOK, RecommendationsResponse{Recommendations: recs, Degraded: degraded})
}

func (h *APIHandler) GenerateRecommendationsHandler(w http.ResponseWriter, r *http.Request) {
	batch, err := h.recommendations.Generate(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err, "Failed to generate recommendations")
		return
	}
	writeJSON(w, http.StatusCreated, batch)
}

type FeedbackRequest struct {
	Helpful *bool `json:"helpful"`
}

func (h *APIHandler) RecommendationFeedbackHandler(w http.ResponseWriter, r *http.Request) {
	var req FeedbackRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Helpful == nil {
		http.Error(w, "helpful is required", http.StatusBadRequest)
		return
	}

	err := h.recommendations.MarkRecommendation(userIDFromContext(r.Context()), chi.URLParam(r, "recID"), *req.Helpful)
	if err != nil {
		respondError(w, r, err, "Failed to set feedback")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
