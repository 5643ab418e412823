package core

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/store"
)

const generatedReply = "```json\n" + `[
  {"type": "book", "title": "Man's Search for Meaning", "author": "Viktor Frankl", "description": "On purpose."},
  {"type": "podcast", "title": "Hidden Brain", "description": "Why we do what we do.", "url": "https://hiddenbrain.org"},
  {"type": "youtube", "title": "How to Make Stress Your Friend", "description": "Reframing stress.", "url": "https://youtube.com/watch?v=x"},
  {"type": "article", "title": "Writing to Heal", "description": "Expressive writing research."}
]` + "\n```"

type recommendationFixture struct {
	svc     *RecommendationService
	journal *JournalService
	repo    *memRecommendations
	gen     *scriptedGenerator
}

func newRecommendationFixture(t *testing.T, gen *scriptedGenerator) recommendationFixture {
	t.Helper()
	cache := newTestCache(t)
	journal := NewJournalService(newMemEntries(), cache, &heuristicAnalyzer{}, 2)
	repo := &memRecommendations{}

	var tg analysis.TextGenerator
	if gen != nil {
		tg = gen
	}
	svc, err := NewRecommendationService(repo, cache, journal, tg, "test-model")
	require.NoError(t, err)
	return recommendationFixture{svc: svc, journal: journal, repo: repo, gen: gen}
}

func (f recommendationFixture) addAnalyzedEntry(t *testing.T, title, content string) {
	t.Helper()
	e, err := f.journal.CreateEntry("u1", title, content, nil)
	require.NoError(t, err)
	_, _, err = f.journal.AnalyzeEntry(context.Background(), "u1", e.ID)
	require.NoError(t, err)
}

func assertFallbackCatalog(t *testing.T, recs []store.Recommendation) {
	t.Helper()
	require.Len(t, recs, 4)
	types := map[store.RecommendationType]int{}
	for _, r := range recs {
		types[r.Type]++
	}
	for _, typ := range store.RecommendationTypes {
		assert.Equal(t, 1, types[typ], "type %s", typ)
	}
}

func TestGenerateRecommendations(t *testing.T) {
	gen := &scriptedGenerator{reply: generatedReply}
	f := newRecommendationFixture(t, gen)
	f.addAnalyzedEntry(t, "Long day", strings.Repeat("a very long reflection ", 10))

	batch, err := f.svc.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.False(t, batch.Fallback)
	assert.False(t, batch.Degraded)
	require.Len(t, batch.Recommendations, 4)
	assert.Equal(t, "Man's Search for Meaning", batch.Recommendations[0].Title)
	assert.Equal(t, "Viktor Frankl", batch.Recommendations[0].Author)

	require.Len(t, gen.opts, 1)
	assert.InDelta(t, 0.7, gen.opts[0].Temperature, 1e-6)
	assert.Equal(t, "test-model", gen.opts[0].Model)
	assert.Contains(t, gen.prompts[0], `"title": "Long day"`)
	assert.Contains(t, gen.prompts[0], "...", "long content is truncated")

	ids := map[string]bool{}
	for _, r := range batch.Recommendations {
		assert.Equal(t, "u1", r.UserID)
		assert.NotEmpty(t, r.ID)
		ids[r.ID] = true
	}
	assert.Len(t, ids, 4)
}

func TestGenerateFallsBack(t *testing.T) {
	tests := []struct {
		name    string
		gen     *scriptedGenerator
		analyze bool
	}{
		{"no generator", nil, true},
		{"no analyzed entries", &scriptedGenerator{reply: generatedReply}, false},
		{"remote error", &scriptedGenerator{err: analysis.ErrQuotaExceeded}, true},
		{"not json", &scriptedGenerator{reply: "Here are some ideas!"}, true},
		{"empty array", &scriptedGenerator{reply: "[]"}, true},
		{"unknown type", &scriptedGenerator{reply: `[{"type":"tiktok","title":"x","description":"y"}]`}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newRecommendationFixture(t, tt.gen)
			if tt.analyze {
				f.addAnalyzedEntry(t, "Entry", "Some content")
			} else {
				_, err := f.journal.CreateEntry("u1", "Entry", "Some content", nil)
				require.NoError(t, err)
			}

			batch, err := f.svc.Generate(context.Background(), "u1")
			require.NoError(t, err)
			assert.True(t, batch.Fallback)
			assertFallbackCatalog(t, batch.Recommendations)
		})
	}
}

func TestGenerateAppendsWithoutDedup(t *testing.T) {
	f := newRecommendationFixture(t, nil)

	first, err := f.svc.Generate(context.Background(), "u1")
	require.NoError(t, err)
	second, err := f.svc.Generate(context.Background(), "u1")
	require.NoError(t, err)

	recs, degraded, err := f.svc.ListRecommendations("u1")
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, recs, 8)
	assert.Equal(t, first.Recommendations[0].ID, recs[0].ID)
	assert.Equal(t, second.Recommendations[3].ID, recs[7].ID)
	assert.NotEqual(t, recs[0].ID, recs[4].ID)
}

func TestGenerateKeepsBatchLocallyWhenStoreFails(t *testing.T) {
	f := newRecommendationFixture(t, nil)
	f.repo.failCreate = true

	batch, err := f.svc.Generate(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, batch.Degraded)

	f.repo.failList = true
	recs, degraded, err := f.svc.ListRecommendations("u1")
	require.NoError(t, err)
	assert.True(t, degraded)
	assert.Len(t, recs, 4)

	// Once the database is back, the local-only batch is still listed.
	f.repo.failList = false
	recs, degraded, err = f.svc.ListRecommendations("u1")
	require.NoError(t, err)
	assert.False(t, degraded)
	assert.Len(t, recs, 4)
}

func TestMarkRecommendation(t *testing.T) {
	f := newRecommendationFixture(t, nil)
	batch, err := f.svc.Generate(context.Background(), "u1")
	require.NoError(t, err)
	id := batch.Recommendations[1].ID

	require.NoError(t, f.svc.MarkRecommendation("u1", id, true))
	require.NoError(t, f.svc.MarkRecommendation("u1", batch.Recommendations[2].ID, false))

	recs, _, err := f.svc.ListRecommendations("u1")
	require.NoError(t, err)
	assert.Nil(t, recs[0].IsHelpful)
	require.NotNil(t, recs[1].IsHelpful)
	assert.True(t, *recs[1].IsHelpful)
	require.NotNil(t, recs[2].IsHelpful)
	assert.False(t, *recs[2].IsHelpful)

	assert.ErrorIs(t, f.svc.MarkRecommendation("u2", id, true), ErrNotFound)
	assert.ErrorIs(t, f.svc.MarkRecommendation("u1", "missing", true), ErrNotFound)
}

func TestLoadCatalogRejectsIncompleteCatalog(t *testing.T) {
	_, err := loadCatalog([]byte("- type: book\n  title: Only one\n"))
	assert.Error(t, err)

	_, err = loadCatalog([]byte("- type: vinyl\n  title: Unknown\n"))
	assert.Error(t, err)

	items, err := loadCatalog(fallbackCatalogYAML)
	require.NoError(t, err)
	assert.Len(t, items, 4)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 100))
	assert.Equal(t, strings.Repeat("é", 100)+"...", truncate(strings.Repeat("é", 150), 100))
}

func TestListRecommendationsSurvivesCacheFailure(t *testing.T) {
	repo := &memRecommendations{rows: []store.Recommendation{
		{ID: "r1", UserID: "u1", Type: store.RecommendationBook, Title: "Walden"},
	}}
	journal := NewJournalService(newMemEntries(), brokenCache{}, &heuristicAnalyzer{}, 1)
	svc, err := NewRecommendationService(repo, brokenCache{}, journal, nil, "test-model")
	require.NoError(t, err)

	recs, degraded, err := svc.ListRecommendations("u1")
	require.NoError(t, err)
	assert.False(t, degraded)
	require.Len(t, recs, 1)
	assert.Equal(t, "Walden", recs[0].Title)
}
