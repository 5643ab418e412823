package core

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/store"
)

var (
	errDBDown    = errors.New("database unreachable")
	errCacheDown = errors.New("cache unavailable")
)

// brokenCache fails every operation.
type brokenCache struct{}

func (brokenCache) Get(string, string, any) (bool, error) { return false, errCacheDown }
func (brokenCache) Put(string, string, any) error         { return errCacheDown }
func (brokenCache) Delete(string, string) error           { return errCacheDown }

func newTestCache(t *testing.T) *store.Cache {
	t.Helper()
	cache, err := store.NewCache(filepath.Join(t.TempDir(), "cache.db"))
	require.NoError(t, err)
	t.Cleanup(func() { cache.Close() })
	return cache
}

// memEntries is an in-memory EntryRepository whose operations can be made
// to fail.
type memEntries struct {
	mu      sync.Mutex
	rows    map[string]store.Entry
	failAll bool
	clock   time.Time
}

func newMemEntries() *memEntries {
	return &memEntries{
		rows:  make(map[string]store.Entry),
		clock: time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC),
	}
}

func (m *memEntries) CreateEntry(e *store.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errDBDown
	}
	m.clock = m.clock.Add(time.Minute)
	e.ID = uuid.NewString()
	e.CreatedAt, e.UpdatedAt = m.clock, m.clock
	m.rows[e.ID] = *e
	return nil
}

func (m *memEntries) GetEntry(id, userID string) (*store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errDBDown
	}
	e, ok := m.rows[id]
	if !ok || e.UserID != userID {
		return nil, store.ErrNotFound
	}
	return &e, nil
}

func (m *memEntries) ListEntries(userID string) ([]store.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return nil, errDBDown
	}
	out := []store.Entry{}
	for _, e := range m.rows {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memEntries) UpdateEntry(e *store.Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errDBDown
	}
	cur, ok := m.rows[e.ID]
	if !ok || cur.UserID != e.UserID {
		return store.ErrNotFound
	}
	cur.Title, cur.Content, cur.Tags = e.Title, e.Content, e.Tags
	m.rows[e.ID] = cur
	return nil
}

func (m *memEntries) SaveAnalysis(id, userID string, a store.EntryAnalysis) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errDBDown
	}
	cur, ok := m.rows[id]
	if !ok || cur.UserID != userID {
		return store.ErrNotFound
	}
	cur.Mood, cur.Emotions, cur.Strength, cur.Weakness, cur.Insight, cur.Analysis =
		a.Mood, a.Emotions, a.Strength, a.Weakness, a.Insight, a.Raw
	m.rows[id] = cur
	return nil
}

func (m *memEntries) DeleteEntry(id, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAll {
		return errDBDown
	}
	cur, ok := m.rows[id]
	if !ok || cur.UserID != userID {
		return store.ErrNotFound
	}
	delete(m.rows, id)
	return nil
}

func (m *memEntries) setFailing(v bool) {
	m.mu.Lock()
	m.failAll = v
	m.mu.Unlock()
}

// heuristicAnalyzer analyzes offline and counts calls.
type heuristicAnalyzer struct {
	mu    sync.Mutex
	calls int
}

func (h *heuristicAnalyzer) Analyze(_ context.Context, title, content string) analysis.Result {
	h.mu.Lock()
	h.calls++
	h.mu.Unlock()
	return analysis.Heuristic(title, content)
}

type scriptedGenerator struct {
	reply   string
	err     error
	prompts []string
	opts    []analysis.GenerationOptions
}

func (g *scriptedGenerator) GenerateText(_ context.Context, prompt string, opts analysis.GenerationOptions) (string, error) {
	g.prompts = append(g.prompts, prompt)
	g.opts = append(g.opts, opts)
	return g.reply, g.err
}

type memRecommendations struct {
	rows       []store.Recommendation
	failCreate bool
	failList   bool
}

func (m *memRecommendations) CreateRecommendations(userID string, recs []store.Recommendation) error {
	if m.failCreate {
		return errDBDown
	}
	m.rows = append(m.rows, recs...)
	return nil
}

func (m *memRecommendations) ListRecommendations(userID string) ([]store.Recommendation, error) {
	if m.failList {
		return nil, errDBDown
	}
	out := []store.Recommendation{}
	for _, r := range m.rows {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *memRecommendations) SetRecommendationFeedback(id, userID string, helpful bool) error {
	for i := range m.rows {
		if m.rows[i].ID == id && m.rows[i].UserID == userID {
			v := helpful
			m.rows[i].IsHelpful = &v
			return nil
		}
	}
	return store.ErrNotFound
}

type memUsers struct {
	byID    map[string]store.User
	failGet bool
}

func newMemUsers() *memUsers {
	return &memUsers{byID: make(map[string]store.User)}
}

func (m *memUsers) CreateUser(u *store.User) error {
	u.ID = uuid.NewString()
	u.CreatedAt = time.Now().UTC()
	m.byID[u.ID] = *u
	return nil
}

func (m *memUsers) GetUserByEmail(email string) (*store.User, error) {
	for _, u := range m.byID {
		if u.Email == email {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

func (m *memUsers) GetUserByID(id string) (*store.User, error) {
	if m.failGet {
		return nil, errDBDown
	}
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) UpdateUserProfile(id string, p store.Profile) (*store.User, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	u.Profile = p
	u.IsNewUser = false
	m.byID[id] = u
	return &u, nil
}
