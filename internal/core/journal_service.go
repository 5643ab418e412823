package core

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/logger"
	"selfsight.app/journal/internal/store"
)

const (
	fallbackIDPrefix = "local-"
	degradedNotice   = "Could not reach the journal database. Showing entries saved on this device."
)

// ListFilter narrows a user's entry list. Zero values match everything.
type ListFilter struct {
	Query string
	Tag   string
}

// EntryList is a list read, flagged when it was served from the local cache.
type EntryList struct {
	Entries  []store.Entry `json:"entries"`
	Degraded bool          `json:"degraded"`
	Notice   string        `json:"notice,omitempty"`
}

type JournalService struct {
	entries     EntryRepository
	cache       LocalCache
	analyzer    EntryAnalyzer
	concurrency int

	mu sync.Mutex // serializes read-modify-write of cached entry lists
}

func NewJournalService(entries EntryRepository, cache LocalCache, analyzer EntryAnalyzer, concurrency int) *JournalService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &JournalService{
		entries:     entries,
		cache:       cache,
		analyzer:    analyzer,
		concurrency: concurrency,
	}
}

// CreateEntry inserts a new entry. When the database insert fails the entry
// is kept in the local cache only and returned with Fallback set.
func (s *JournalService) CreateEntry(userID, title, content string, tags []string) (*store.Entry, error) {
	entry, err := validateEntry(userID, title, content, tags)
	if err != nil {
		return nil, err
	}

	if err := s.entries.CreateEntry(entry); err != nil {
		logger.Warn("Database insert failed, keeping entry locally", "user_id", userID, "error", err)
		now := time.Now().UTC()
		entry.ID = fallbackIDPrefix + uuid.NewString()
		entry.CreatedAt = now
		entry.UpdatedAt = now
		entry.Fallback = true
	}

	s.cacheUpsert(userID, *entry)
	return entry, nil
}

// ListEntries returns the user's entries newest first. Entries that only
// exist locally are merged into a successful database read so they are not
// lost when the cache is refreshed.
func (s *JournalService) ListEntries(userID string, filter ListFilter) (*EntryList, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	list := &EntryList{}
	remote, err := s.entries.ListEntries(userID)
	if err != nil {
		logger.Warn("Listing entries failed, serving local cache", "user_id", userID, "error", err)
		list.Entries = s.cachedEntries(userID)
		list.Degraded = true
		list.Notice = degradedNotice
	} else {
		list.Entries = s.refreshCache(userID, remote)
	}

	list.Entries = filterEntries(list.Entries, filter)
	return list, nil
}

// GetEntry reads one entry, falling back to the local cache.
func (s *JournalService) GetEntry(userID, id string) (*store.Entry, error) {
	entry, err := s.entries.GetEntry(id, userID)
	if err == nil {
		return entry, nil
	}

	cached, ok := s.findCached(userID, id)
	switch {
	case errors.Is(err, store.ErrNotFound):
		// A missing row is only shadowed by an entry that never reached the database.
		if ok && cached.Fallback {
			return &cached, nil
		}
		return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
	case ok:
		logger.Warn("Reading entry failed, serving local cache", "entry_id", id, "error", err)
		return &cached, nil
	default:
		return nil, fmt.Errorf("failed to get entry %s: %w", id, err)
	}
}

// UpdateEntry replaces title, content and tags. Local-only entries are
// edited in the cache.
func (s *JournalService) UpdateEntry(userID, id, title, content string, tags []string) (*store.Entry, error) {
	update, err := validateEntry(userID, title, content, tags)
	if err != nil {
		return nil, err
	}
	update.ID = id

	if strings.HasPrefix(id, fallbackIDPrefix) {
		cached, ok := s.findCached(userID, id)
		if !ok {
			return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		cached.Title, cached.Content, cached.Tags = update.Title, update.Content, update.Tags
		cached.UpdatedAt = time.Now().UTC()
		s.cacheUpsert(userID, cached)
		return &cached, nil
	}

	if err := s.entries.UpdateEntry(update); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("failed to update entry %s: %w", id, err)
	}

	updated, err := s.entries.GetEntry(id, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to reload entry %s: %w", id, err)
	}
	s.cacheUpsert(userID, *updated)
	return updated, nil
}

func (s *JournalService) DeleteEntry(userID, id string) error {
	if strings.HasPrefix(id, fallbackIDPrefix) {
		if !s.cacheRemove(userID, id) {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		return nil
	}

	if err := s.entries.DeleteEntry(id, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return fmt.Errorf("entry %s: %w", id, ErrNotFound)
		}
		return fmt.Errorf("failed to delete entry %s: %w", id, err)
	}
	s.cacheRemove(userID, id)
	return nil
}

// AnalyzeEntry runs the analyzer over one entry and stores the result on it.
func (s *JournalService) AnalyzeEntry(ctx context.Context, userID, id string) (*store.Entry, analysis.Result, error) {
	entry, err := s.GetEntry(userID, id)
	if err != nil {
		return nil, analysis.Result{}, err
	}
	res, err := s.analyze(ctx, entry)
	if err != nil {
		return nil, analysis.Result{}, err
	}
	return entry, res, nil
}

// AnalyzePending analyzes every entry of the user that has no analysis yet,
// at most s.concurrency at a time. It returns the entries that were updated.
func (s *JournalService) AnalyzePending(ctx context.Context, userID string) ([]store.Entry, error) {
	list, err := s.ListEntries(userID, ListFilter{})
	if err != nil {
		return nil, err
	}

	var pending []store.Entry
	for _, e := range list.Entries {
		if !e.Analyzed() {
			pending = append(pending, e)
		}
	}
	if len(pending) == 0 {
		return []store.Entry{}, nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i := range pending {
		entry := &pending[i]
		g.Go(func() error {
			_, err := s.analyze(gctx, entry)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logger.Info("Analyzed pending entries", "user_id", userID, "count", len(pending))
	return pending, nil
}

// analyze mutates entry in place with the analysis result.
func (s *JournalService) analyze(ctx context.Context, entry *store.Entry) (analysis.Result, error) {
	res := s.analyzer.Analyze(ctx, entry.Title, entry.Content)
	raw, err := json.Marshal(res)
	if err != nil {
		return analysis.Result{}, fmt.Errorf("failed to encode analysis: %w", err)
	}

	entry.Mood = res.Mood
	entry.Emotions = res.Emotions
	entry.Strength = res.Strength
	entry.Weakness = res.Weakness
	entry.Insight = res.Insight
	entry.Analysis = raw
	entry.UpdatedAt = time.Now().UTC()

	if !entry.Fallback {
		err := s.entries.SaveAnalysis(entry.ID, entry.UserID, store.EntryAnalysis{
			Mood:     res.Mood,
			Emotions: res.Emotions,
			Strength: res.Strength,
			Weakness: res.Weakness,
			Insight:  res.Insight,
			Raw:      raw,
		})
		if err != nil {
			return analysis.Result{}, fmt.Errorf("failed to save analysis for entry %s: %w", entry.ID, err)
		}
	}

	s.cacheUpsert(entry.UserID, *entry)
	return res, nil
}

// Tags returns the sorted union of the user's tags.
func (s *JournalService) Tags(userID string) ([]string, error) {
	list, err := s.ListEntries(userID, ListFilter{})
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{})
	tags := []string{}
	for _, e := range list.Entries {
		for _, t := range e.Tags {
			if _, ok := seen[t]; !ok {
				seen[t] = struct{}{}
				tags = append(tags, t)
			}
		}
	}
	sort.Strings(tags)
	return tags, nil
}

func validateEntry(userID, title, content string, tags []string) (*store.Entry, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, fmt.Errorf("%w: title is required", ErrInvalidInput)
	}
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, fmt.Errorf("%w: content is required", ErrInvalidInput)
	}
	return &store.Entry{
		UserID:  userID,
		Title:   title,
		Content: content,
		Tags:    normalizeTags(tags),
	}, nil
}

func normalizeTags(tags []string) []string {
	out := []string{}
	seen := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" {
			continue
		}
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}

func filterEntries(entries []store.Entry, filter ListFilter) []store.Entry {
	query := strings.ToLower(strings.TrimSpace(filter.Query))
	tag := strings.TrimSpace(filter.Tag)
	if query == "" && tag == "" {
		return entries
	}

	out := []store.Entry{}
	for _, e := range entries {
		if query != "" &&
			!strings.Contains(strings.ToLower(e.Title), query) &&
			!strings.Contains(strings.ToLower(e.Content), query) {
			continue
		}
		if tag != "" && !hasTag(e.Tags, tag) {
			continue
		}
		out = append(out, e)
	}
	return out
}

func hasTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}

func sortNewestFirst(entries []store.Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
}

// Cache helpers. Cache failures are logged and never surfaced: the cache is
// the fallback, not the source of truth.

func (s *JournalService) cachedEntries(userID string) []store.Entry {
	var entries []store.Entry
	if _, err := s.cache.Get(userID, store.CacheKeyEntries, &entries); err != nil {
		logger.Error("Reading cached entries failed", "user_id", userID, "error", err)
	}
	if entries == nil {
		entries = []store.Entry{}
	}
	return entries
}

func (s *JournalService) putCachedEntries(userID string, entries []store.Entry) {
	if err := s.cache.Put(userID, store.CacheKeyEntries, entries); err != nil {
		logger.Error("Writing cached entries failed", "user_id", userID, "error", err)
	}
}

func (s *JournalService) findCached(userID, id string) (store.Entry, bool) {
	for _, e := range s.cachedEntries(userID) {
		if e.ID == id {
			return e, true
		}
	}
	return store.Entry{}, false
}

func (s *JournalService) cacheUpsert(userID string, entry store.Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cachedEntries(userID)
	replaced := false
	for i := range entries {
		if entries[i].ID == entry.ID {
			entries[i] = entry
			replaced = true
			break
		}
	}
	if !replaced {
		entries = append(entries, entry)
	}
	sortNewestFirst(entries)
	s.putCachedEntries(userID, entries)
}

func (s *JournalService) cacheRemove(userID, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.cachedEntries(userID)
	kept := entries[:0]
	removed := false
	for _, e := range entries {
		if e.ID == id {
			removed = true
			continue
		}
		kept = append(kept, e)
	}
	switch {
	case !removed:
	case len(kept) == 0:
		if err := s.cache.Delete(userID, store.CacheKeyEntries); err != nil {
			logger.Error("Clearing cached entries failed", "user_id", userID, "error", err)
		}
	default:
		s.putCachedEntries(userID, kept)
	}
	return removed
}

// refreshCache replaces the cached list with the database result plus any
// local-only entries, and returns the merged list.
func (s *JournalService) refreshCache(userID string, remote []store.Entry) []store.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged := make([]store.Entry, 0, len(remote))
	for _, e := range s.cachedEntries(userID) {
		if e.Fallback {
			merged = append(merged, e)
		}
	}
	merged = append(merged, remote...)
	sortNewestFirst(merged)
	s.putCachedEntries(userID, merged)
	return merged
}
