package store

import (
	"encoding/json"
	"errors"
	"time"
)

// ErrNotFound is returned when a row does not exist or is not owned by the
// requesting user.
var ErrNotFound = errors.New("not found")

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"` // Do not expose this in JSON responses
	IsNewUser    bool      `json:"is_new_user"`
	Profile      Profile   `json:"profile"`
	CreatedAt    time.Time `json:"created_at"`
}

// Profile is the free-text self description gathered during onboarding.
type Profile struct {
	Personality string `json:"personality"`
	Values      string `json:"values"`
	Strengths   string `json:"strengths"`
	Goals       string `json:"goals"`
}

type Entry struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Mood     string          `json:"mood,omitempty"`
	Emotions []string        `json:"emotions,omitempty"`
	Strength string          `json:"strength,omitempty"`
	Weakness string          `json:"weakness,omitempty"`
	Insight  string          `json:"insight,omitempty"`
	Analysis json.RawMessage `json:"analysis,omitempty"` // Full analysis payload as returned by the analyzer

	// Fallback marks an entry that only exists in the local cache because the
	// database insert failed.
	Fallback bool `json:"fallback,omitempty"`
}

// Analyzed reports whether analysis fields have been attached to the entry.
func (e Entry) Analyzed() bool {
	return e.Mood != ""
}

// EntryAnalysis is the set of columns written when an entry is analyzed.
type EntryAnalysis struct {
	Mood     string
	Emotions []string
	Strength string
	Weakness string
	Insight  string
	Raw      json.RawMessage
}

type RecommendationType string

const (
	RecommendationYouTube RecommendationType = "youtube"
	RecommendationPodcast RecommendationType = "podcast"
	RecommendationArticle RecommendationType = "article"
	RecommendationBook    RecommendationType = "book"
)

// RecommendationTypes lists every valid type in display order.
var RecommendationTypes = []RecommendationType{
	RecommendationYouTube,
	RecommendationPodcast,
	RecommendationArticle,
	RecommendationBook,
}

func (t RecommendationType) Valid() bool {
	for _, v := range RecommendationTypes {
		if t == v {
			return true
		}
	}
	return false
}

type Recommendation struct {
	ID          string             `json:"id"`
	UserID      string             `json:"user_id"`
	Type        RecommendationType `json:"type"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	URL         string             `json:"url,omitempty"`
	Author      string             `json:"author,omitempty"`
	IsHelpful   *bool              `json:"is_helpful"` // nil until the user votes
	CreatedAt   time.Time          `json:"created_at"`
}
