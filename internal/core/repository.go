package core

import (
	"context"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/store"
)

// EntryRepository is the remote relational store for journal entries.
// *store.SQLStore satisfies it.
type EntryRepository interface {
	CreateEntry(entry *store.Entry) error
	GetEntry(id, userID string) (*store.Entry, error)
	ListEntries(userID string) ([]store.Entry, error)
	UpdateEntry(entry *store.Entry) error
	SaveAnalysis(id, userID string, a store.EntryAnalysis) error
	DeleteEntry(id, userID string) error
}

type RecommendationRepository interface {
	CreateRecommendations(userID string, recs []store.Recommendation) error
	ListRecommendations(userID string) ([]store.Recommendation, error)
	SetRecommendationFeedback(id, userID string, helpful bool) error
}

type UserRepository interface {
	CreateUser(user *store.User) error
	GetUserByEmail(email string) (*store.User, error)
	GetUserByID(id string) (*store.User, error)
	UpdateUserProfile(id string, profile store.Profile) (*store.User, error)
}

// LocalCache is the per-user key-value fallback. *store.Cache satisfies it.
type LocalCache interface {
	Get(userID, key string, dst any) (bool, error)
	Put(userID, key string, value any) error
	Delete(userID, key string) error
}

// EntryAnalyzer turns an entry into an analysis result without failing.
type EntryAnalyzer interface {
	Analyze(ctx context.Context, title, content string) analysis.Result
}
