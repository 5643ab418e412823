package core

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/logger"
	"selfsight.app/journal/internal/store"
)

//go:embed fallback_recommendations.yaml
var fallbackCatalogYAML []byte

const (
	summaryContentLimit = 100

	recommendationPromptTemplate = `Based on these journal entry summaries:
%s

Generate 4 personalized recommendations for resources that would be helpful for the journal writer.
Include a mix of different resource types (youtube videos, books, articles, podcasts).

Format the response as a JSON array with this structure:
[
  {
    "type": "youtube|podcast|article|book",
    "title": "string",
    "description": "string",
    "url": "string (for online resources)",
    "author": "string (if applicable)"
  }
]

Make sure each recommendation is specific, relevant to the journal content themes, and helpful for personal growth.
Only respond with the JSON array and nothing else.`
)

type catalogItem struct {
	Type        store.RecommendationType `yaml:"type" json:"type"`
	Title       string                   `yaml:"title" json:"title"`
	Description string                   `yaml:"description" json:"description"`
	URL         string                   `yaml:"url" json:"url"`
	Author      string                   `yaml:"author" json:"author"`
}

// entrySummary is what the model sees of each analyzed entry.
type entrySummary struct {
	Title    string   `json:"title"`
	Content  string   `json:"content"`
	Mood     string   `json:"mood"`
	Emotions []string `json:"emotions"`
	Strength string   `json:"strength"`
	Weakness string   `json:"weakness"`
}

// EntryLister provides the entries recommendations are based on.
// *JournalService satisfies it.
type EntryLister interface {
	ListEntries(userID string, filter ListFilter) (*EntryList, error)
}

// RecommendationBatch is the result of one generation request.
type RecommendationBatch struct {
	Recommendations []store.Recommendation `json:"recommendations"`
	Fallback        bool                   `json:"fallback"` // canned list served instead of generated items
	Degraded        bool                   `json:"degraded"` // stored in the local cache only
}

type RecommendationService struct {
	recs     RecommendationRepository
	cache    LocalCache
	entries  EntryLister
	gen      analysis.TextGenerator
	opts     analysis.GenerationOptions
	fallback []catalogItem

	mu sync.Mutex // serializes read-modify-write of cached recommendations
}

// NewRecommendationService fails only if the embedded fallback catalog is
// malformed. A nil generator always serves the fallback catalog.
func NewRecommendationService(recs RecommendationRepository, cache LocalCache, entries EntryLister, gen analysis.TextGenerator, model string) (*RecommendationService, error) {
	catalog, err := loadCatalog(fallbackCatalogYAML)
	if err != nil {
		return nil, err
	}
	return &RecommendationService{
		recs:    recs,
		cache:   cache,
		entries: entries,
		gen:     gen,
		opts: analysis.GenerationOptions{
			Model:           model,
			Temperature:     0.7,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: 1024,
		},
		fallback: catalog,
	}, nil
}

func loadCatalog(data []byte) ([]catalogItem, error) {
	var items []catalogItem
	if err := yaml.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("failed to parse fallback catalog: %w", err)
	}
	if err := validateItems(items); err != nil {
		return nil, fmt.Errorf("invalid fallback catalog: %w", err)
	}

	seen := make(map[store.RecommendationType]bool)
	for _, it := range items {
		seen[it.Type] = true
	}
	for _, t := range store.RecommendationTypes {
		if !seen[t] {
			return nil, fmt.Errorf("fallback catalog has no %s item", t)
		}
	}
	return items, nil
}

func validateItems(items []catalogItem) error {
	if len(items) == 0 {
		return errors.New("no recommendations")
	}
	for i, it := range items {
		if !it.Type.Valid() {
			return fmt.Errorf("item %d: unknown type %q", i, it.Type)
		}
		if it.Title == "" {
			return fmt.Errorf("item %d: missing title", i)
		}
	}
	return nil
}

// Generate produces a new batch from the user's analyzed entries and
// appends it to the stored set. Generation problems never fail the call;
// the canned catalog is used instead.
func (s *RecommendationService) Generate(ctx context.Context, userID string) (*RecommendationBatch, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	list, err := s.entries.ListEntries(userID, ListFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to load entries: %w", err)
	}

	batch := &RecommendationBatch{}
	items, err := s.generate(ctx, list.Entries)
	if err != nil {
		logger.Warn("Recommendation generation failed, using fallback list", "user_id", userID, "error", err)
		items = s.fallback
		batch.Fallback = true
	}

	now := time.Now().UTC()
	recs := make([]store.Recommendation, len(items))
	for i, it := range items {
		recs[i] = store.Recommendation{
			ID:          uuid.NewString(),
			UserID:      userID,
			Type:        it.Type,
			Title:       it.Title,
			Description: it.Description,
			URL:         it.URL,
			Author:      it.Author,
			CreatedAt:   now.Add(time.Duration(i) * time.Microsecond),
		}
	}

	if err := s.recs.CreateRecommendations(userID, recs); err != nil {
		logger.Warn("Storing recommendations failed, keeping them locally", "user_id", userID, "error", err)
		batch.Degraded = true
	}
	s.cacheAppend(userID, recs)

	batch.Recommendations = recs
	return batch, nil
}

func (s *RecommendationService) generate(ctx context.Context, entries []store.Entry) ([]catalogItem, error) {
	if s.gen == nil {
		return nil, errors.New("no text generator configured")
	}

	summaries := summarize(entries)
	if len(summaries) == 0 {
		return nil, errors.New("no analyzed entries")
	}
	payload, err := json.MarshalIndent(summaries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode entry summaries: %w", err)
	}

	text, err := s.gen.GenerateText(ctx, fmt.Sprintf(recommendationPromptTemplate, payload), s.opts)
	if err != nil {
		return nil, fmt.Errorf("recommendation request failed: %w", err)
	}

	var items []catalogItem
	if err := json.Unmarshal([]byte(analysis.StripCodeFences(text)), &items); err != nil {
		return nil, fmt.Errorf("failed to parse recommendations: %w", err)
	}
	if err := validateItems(items); err != nil {
		return nil, err
	}
	return items, nil
}

func summarize(entries []store.Entry) []entrySummary {
	summaries := []entrySummary{}
	for _, e := range entries {
		if !e.Analyzed() {
			continue
		}
		summaries = append(summaries, entrySummary{
			Title:    e.Title,
			Content:  truncate(e.Content, summaryContentLimit),
			Mood:     e.Mood,
			Emotions: e.Emotions,
			Strength: e.Strength,
			Weakness: e.Weakness,
		})
	}
	return summaries
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "..."
}

// ListRecommendations returns every stored recommendation in generation
// order, from the local cache when the database is unreachable.
func (s *RecommendationService) ListRecommendations(userID string) ([]store.Recommendation, bool, error) {
	recs, err := s.recs.ListRecommendations(userID)
	if err == nil {
		return s.cacheMerge(userID, recs), false, nil
	}
	logger.Warn("Listing recommendations failed, serving local cache", "user_id", userID, "error", err)
	return s.cached(userID), true, nil
}

// MarkRecommendation records the helpfulness vote.
func (s *RecommendationService) MarkRecommendation(userID, id string, helpful bool) error {
	err := s.recs.SetRecommendationFeedback(id, userID, helpful)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("failed to record feedback: %w", err)
	}

	cachedOK := s.cacheVote(userID, id, helpful)
	if err != nil && !cachedOK {
		return fmt.Errorf("recommendation %s: %w", id, ErrNotFound)
	}
	return nil
}

func (s *RecommendationService) cached(userID string) []store.Recommendation {
	var recs []store.Recommendation
	if _, err := s.cache.Get(userID, store.CacheKeyRecommendations, &recs); err != nil {
		logger.Error("Reading cached recommendations failed", "user_id", userID, "error", err)
	}
	if recs == nil {
		recs = []store.Recommendation{}
	}
	return recs
}

func (s *RecommendationService) put(userID string, recs []store.Recommendation) {
	if err := s.cache.Put(userID, store.CacheKeyRecommendations, recs); err != nil {
		logger.Error("Writing cached recommendations failed", "user_id", userID, "error", err)
	}
}

func (s *RecommendationService) cacheAppend(userID string, recs []store.Recommendation) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(userID, append(s.cached(userID), recs...))
}

// cacheMerge replaces the cached set with the database rows, keeping cached
// items the database never received, and returns the merged set.
func (s *RecommendationService) cacheMerge(userID string, remote []store.Recommendation) []store.Recommendation {
	s.mu.Lock()
	defer s.mu.Unlock()

	known := make(map[string]bool, len(remote))
	for _, r := range remote {
		known[r.ID] = true
	}
	merged := append([]store.Recommendation{}, remote...)
	for _, r := range s.cached(userID) {
		if !known[r.ID] {
			merged = append(merged, r)
		}
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].CreatedAt.Before(merged[j].CreatedAt)
	})
	s.put(userID, merged)
	return merged
}

func (s *RecommendationService) cacheVote(userID, id string, helpful bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	recs := s.cached(userID)
	for i := range recs {
		if recs[i].ID == id {
			v := helpful
			recs[i].IsHelpful = &v
			s.put(userID, recs)
			return true
		}
	}
	return false
}
