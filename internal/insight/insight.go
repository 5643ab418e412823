// Package insight derives statistics from a user's entries. Everything here
// is a pure function recomputed on each request.
package insight

import (
	"math"
	"sort"
	"strings"

	"selfsight.app/journal/internal/store"
)

const trendDateLayout = "2006-01-02"

type TrendPoint struct {
	Date    string `json:"date"`
	Value   int    `json:"value"`
	Emotion string `json:"emotion"`
}

type StrengthCount struct {
	Strength string `json:"strength"`
	Count    int    `json:"count"`
}

type WeaknessCount struct {
	Weakness string `json:"weakness"`
	Count    int    `json:"count"`
}

type MoodBreakdown struct {
	Positive        int `json:"positive"`
	Negative        int `json:"negative"`
	Neutral         int `json:"neutral"`
	PositivePercent int `json:"positive_percent"`
	NegativePercent int `json:"negative_percent"`
	NeutralPercent  int `json:"neutral_percent"`
}

type Summary struct {
	TotalEntries    int    `json:"total_entries"`
	AnalyzedEntries int    `json:"analyzed_entries"`
	AnalyzedPercent int    `json:"analyzed_percent"`
	LatestEntryID   string `json:"latest_entry_id,omitempty"`
	LatestTitle     string `json:"latest_title,omitempty"`
}

const topN = 3

var moodValence = map[string]int{
	"happy":         8,
	"excited":       8,
	"hopeful":       8,
	"calm":          6,
	"content":       6,
	"relaxed":       6,
	"anxious":       3,
	"stressed":      3,
	"sad":           2,
	"depressed":     2,
	"contemplative": 5,
	"reflective":    5,
}

const neutralValence = 5

var (
	positiveMoods = []string{"happy", "excited", "content", "grateful", "hopeful", "inspired"}
	negativeMoods = []string{"sad", "anxious", "angry", "frustrated", "stressed", "overwhelmed"}
)

// Valence maps a mood onto the 2-8 scale used by the trend chart.
func Valence(mood string) int {
	if v, ok := moodValence[strings.ToLower(mood)]; ok {
		return v
	}
	return neutralValence
}

// EmotionTrend returns one point per analyzed entry, in input order.
func EmotionTrend(entries []store.Entry) []TrendPoint {
	points := []TrendPoint{}
	for _, e := range entries {
		if !e.Analyzed() {
			continue
		}
		points = append(points, TrendPoint{
			Date:    e.CreatedAt.Format(trendDateLayout),
			Value:   Valence(e.Mood),
			Emotion: e.Mood,
		})
	}
	return points
}

// TopStrengths counts strengths across entries and keeps the three most
// frequent. Ties keep first-encountered order.
func TopStrengths(entries []store.Entry) []StrengthCount {
	ranked := rank(entries, func(e store.Entry) string { return e.Strength })
	out := make([]StrengthCount, len(ranked))
	for i, r := range ranked {
		out[i] = StrengthCount{Strength: r.label, Count: r.count}
	}
	return out
}

func TopWeaknesses(entries []store.Entry) []WeaknessCount {
	ranked := rank(entries, func(e store.Entry) string { return e.Weakness })
	out := make([]WeaknessCount, len(ranked))
	for i, r := range ranked {
		out[i] = WeaknessCount{Weakness: r.label, Count: r.count}
	}
	return out
}

type labelCount struct {
	label string
	count int
}

func rank(entries []store.Entry, field func(store.Entry) string) []labelCount {
	var counts []labelCount
	index := map[string]int{}
	for _, e := range entries {
		label := field(e)
		if label == "" {
			continue
		}
		if i, ok := index[label]; ok {
			counts[i].count++
			continue
		}
		index[label] = len(counts)
		counts = append(counts, labelCount{label: label, count: 1})
	}

	sort.SliceStable(counts, func(i, j int) bool {
		return counts[i].count > counts[j].count
	})
	if len(counts) > topN {
		counts = counts[:topN]
	}
	return counts
}

// Breakdown groups analyzed entries into positive, negative and neutral
// moods with rounded percentages.
func Breakdown(entries []store.Entry) MoodBreakdown {
	var b MoodBreakdown
	for _, e := range entries {
		if !e.Analyzed() {
			continue
		}
		mood := strings.ToLower(e.Mood)
		switch {
		case contains(positiveMoods, mood):
			b.Positive++
		case contains(negativeMoods, mood):
			b.Negative++
		default:
			b.Neutral++
		}
	}

	total := b.Positive + b.Negative + b.Neutral
	b.PositivePercent = percent(b.Positive, total)
	b.NegativePercent = percent(b.Negative, total)
	b.NeutralPercent = percent(b.Neutral, total)
	return b
}

// Summarize backs the dashboard counters. Entries are expected newest first.
func Summarize(entries []store.Entry) Summary {
	s := Summary{TotalEntries: len(entries)}
	for _, e := range entries {
		if e.Analyzed() {
			s.AnalyzedEntries++
		}
	}
	s.AnalyzedPercent = percent(s.AnalyzedEntries, s.TotalEntries)
	if len(entries) > 0 {
		s.LatestEntryID = entries[0].ID
		s.LatestTitle = entries[0].Title
	}
	return s
}

func percent(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
