package insight

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"

	"selfsight.app/journal/internal/store"
)

func day(d int) time.Time {
	return time.Date(2024, time.March, d, 9, 30, 0, 0, time.UTC)
}

func TestTopStrengths(t *testing.T) {
	entries := []store.Entry{
		{Strength: "a"},
		{Strength: "a"},
		{Strength: "b"},
	}
	want := []StrengthCount{{Strength: "a", Count: 2}, {Strength: "b", Count: 1}}
	if diff := cmp.Diff(want, TopStrengths(entries)); diff != "" {
		t.Errorf("TopStrengths mismatch (-want +got):\n%s", diff)
	}
}

func TestTopStrengthsTiesAndTruncation(t *testing.T) {
	entries := []store.Entry{
		{Strength: "focus"},
		{Strength: "empathy"},
		{},
		{Strength: "courage"},
		{Strength: "patience"},
		{Strength: "patience"},
	}
	want := []StrengthCount{
		{Strength: "patience", Count: 2},
		{Strength: "focus", Count: 1},
		{Strength: "empathy", Count: 1},
	}
	if diff := cmp.Diff(want, TopStrengths(entries)); diff != "" {
		t.Errorf("TopStrengths mismatch (-want +got):\n%s", diff)
	}
}

func TestTopWeaknesses(t *testing.T) {
	entries := []store.Entry{
		{Weakness: "detail"},
		{Weakness: "clarity"},
		{Weakness: "clarity"},
	}
	want := []WeaknessCount{{Weakness: "clarity", Count: 2}, {Weakness: "detail", Count: 1}}
	if diff := cmp.Diff(want, TopWeaknesses(entries)); diff != "" {
		t.Errorf("TopWeaknesses mismatch (-want +got):\n%s", diff)
	}
	assert.Empty(t, TopWeaknesses(nil))
}

func TestEmotionTrend(t *testing.T) {
	entries := []store.Entry{
		{Mood: "sad", CreatedAt: day(3)},
		{Title: "not analyzed", CreatedAt: day(2)},
		{Mood: "Happy", CreatedAt: day(1)},
		{Mood: "curious", CreatedAt: day(4)},
	}
	want := []TrendPoint{
		{Date: "2024-03-03", Value: 2, Emotion: "sad"},
		{Date: "2024-03-01", Value: 8, Emotion: "Happy"},
		{Date: "2024-03-04", Value: 5, Emotion: "curious"},
	}
	if diff := cmp.Diff(want, EmotionTrend(entries)); diff != "" {
		t.Errorf("EmotionTrend mismatch (-want +got):\n%s", diff)
	}
	assert.Equal(t, []TrendPoint{}, EmotionTrend(nil))
}

func TestValence(t *testing.T) {
	tests := map[string]int{
		"happy": 8, "excited": 8, "hopeful": 8,
		"calm": 6, "content": 6, "relaxed": 6,
		"anxious": 3, "stressed": 3,
		"sad": 2, "depressed": 2,
		"contemplative": 5, "reflective": 5, "intense": 5,
	}
	for mood, want := range tests {
		assert.Equal(t, want, Valence(mood), mood)
	}
}

func TestBreakdown(t *testing.T) {
	entries := []store.Entry{
		{Mood: "happy"},
		{Mood: "grateful"},
		{Mood: "anxious"},
		{Mood: "contemplative"},
		{Mood: "curious"},
		{Mood: "inspired"},
		{},
	}
	want := MoodBreakdown{
		Positive: 3, Negative: 1, Neutral: 2,
		PositivePercent: 50, NegativePercent: 17, NeutralPercent: 33,
	}
	assert.Equal(t, want, Breakdown(entries))
	assert.Equal(t, MoodBreakdown{}, Breakdown(nil))
}

func TestSummarize(t *testing.T) {
	entries := []store.Entry{
		{ID: "3", Title: "Newest", Mood: "calm"},
		{ID: "2", Title: "Middle"},
		{ID: "1", Title: "Oldest", Mood: "sad"},
	}
	want := Summary{TotalEntries: 3, AnalyzedEntries: 2, AnalyzedPercent: 67, LatestEntryID: "3", LatestTitle: "Newest"}
	assert.Equal(t, want, Summarize(entries))
	assert.Equal(t, Summary{}, Summarize(nil))
}
