package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/core"
	"selfsight.app/journal/internal/export"
	"selfsight.app/journal/internal/store"
)

type EntryRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

// CreateEntryResponse flags entries that were only saved locally.
type CreateEntryResponse struct {
	*store.Entry
	Degraded bool `json:"degraded"`
}

func (h *APIHandler) ListEntriesHandler(w http.ResponseWriter, r *http.Request) {
	filter := core.ListFilter{
		Query: r.URL.Query().Get("q"),
		Tag:   r.URL.Query().Get("tag"),
	}
	list, err := h.journal.ListEntries(userIDFromContext(r.Context()), filter)
	if err != nil {
		respondError(w, r, err, "Failed to list entries")
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (h *APIHandler) CreateEntryHandler(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.journal.CreateEntry(userIDFromContext(r.Context()), req.Title, req.Content, req.Tags)
	if err != nil {
		respondError(w, r, err, "Failed to create entry")
		return
	}
	writeJSON(w, http.StatusCreated, CreateEntryResponse{Entry: entry, Degraded: entry.Fallback})
}

func (h *APIHandler) GetEntryHandler(w http.ResponseWriter, r *http.Request) {
	entry, err := h.journal.GetEntry(userIDFromContext(r.Context()), chi.URLParam(r, "entryID"))
	if err != nil {
		respondError(w, r, err, "Failed to get entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *APIHandler) UpdateEntryHandler(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	entry, err := h.journal.UpdateEntry(userIDFromContext(r.Context()), chi.URLParam(r, "entryID"), req.Title, req.Content, req.Tags)
	if err != nil {
		respondError(w, r, err, "Failed to update entry")
		return
	}
	writeJSON(w, http.StatusOK, entry)
}

func (h *APIHandler) DeleteEntryHandler(w http.ResponseWriter, r *http.Request) {
	if err := h.journal.DeleteEntry(userIDFromContext(r.Context()), chi.URLParam(r, "entryID")); err != nil {
		respondError(w, r, err, "Failed to delete entry")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type AnalyzeEntryResponse struct {
	Entry    *store.Entry    `json:"entry"`
	Analysis analysis.Result `json:"analysis"`
}

func (h *APIHandler) AnalyzeEntryHandler(w http.ResponseWriter, r *http.Request) {
	entry, res, err := h.journal.AnalyzeEntry(r.Context(), userIDFromContext(r.Context()), chi.URLParam(r, "entryID"))
	if err != nil {
		respondError(w, r, err, "Failed to analyze entry")
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeEntryResponse{Entry: entry, Analysis: res})
}

func (h *APIHandler) AnalyzePendingHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.journal.AnalyzePending(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err, "Failed to analyze entries")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"analyzed": entries})
}

func (h *APIHandler) ExportEntryHandler(w http.ResponseWriter, r *http.Request) {
	format, err := export.ParseFormat(r.URL.Query().Get("format"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	loc, err := exportLocation(r)
	if err != nil {
		http.Error(w, "Unknown time zone", http.StatusBadRequest)
		return
	}

	entry, err := h.journal.GetEntry(userIDFromContext(r.Context()), chi.URLParam(r, "entryID"))
	if err != nil {
		respondError(w, r, err, "Failed to get entry")
		return
	}

	body, err := export.Render(*entry, format, loc)
	if err != nil {
		respondError(w, r, err, "Failed to export entry")
		return
	}

	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", export.Filename(*entry, format, loc)))
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

func (h *APIHandler) TagsHandler(w http.ResponseWriter, r *http.Request) {
	tags, err := h.journal.Tags(userIDFromContext(r.Context()))
	if err != nil {
		respondError(w, r, err, "Failed to list tags")
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"tags": tags})
}
