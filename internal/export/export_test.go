package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"selfsight.app/journal/internal/store"
)

func sampleEntry() store.Entry {
	return store.Entry{
		ID:        "e1",
		Title:     "Great Day",
		Content:   "I am happy today.\nSo happy.",
		CreatedAt: time.Date(2024, time.May, 7, 18, 45, 0, 0, time.UTC),
	}
}

func analyzed(e store.Entry) store.Entry {
	e.Mood = "happy"
	e.Emotions = []string{"joyful", "optimistic", "grateful"}
	e.Strength = "conciseness"
	e.Weakness = "detail"
	e.Insight = "Share it."
	return e
}

func TestTextRoundTrip(t *testing.T) {
	entry := sampleEntry()

	parsed, err := ParseText(Text(entry, nil))
	require.NoError(t, err)
	assert.Equal(t, "Great Day", parsed.Title)
	assert.Equal(t, "May 7, 2024 • 18:45", parsed.DateLine)
	assert.Equal(t, entry.Content, parsed.Content)
	assert.False(t, parsed.HasAnalysis)
}

func TestTextWithAnalysis(t *testing.T) {
	entry := analyzed(sampleEntry())
	out := string(Text(entry, nil))

	assert.Contains(t, out, "AI ANALYSIS")
	assert.Contains(t, out, "Mood: happy\n")
	assert.Contains(t, out, "Emotions: joyful, optimistic, grateful\n")
	assert.Contains(t, out, "Area for Growth: detail\n")

	parsed, err := ParseText([]byte(out))
	require.NoError(t, err)
	assert.True(t, parsed.HasAnalysis)
	assert.Equal(t, entry.Content, parsed.Content)
}

func TestTextRoundTripKeepsHeaderLikeContent(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"header mid content", "notes\n\nAI ANALYSIS\nmine"},
		{"header at end", "notes\n\nAI ANALYSIS"},
		{"partial block", "notes\n\nAI ANALYSIS\n-----------\nMood: fine"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entry := sampleEntry()
			entry.Content = tt.content

			parsed, err := ParseText(Text(entry, nil))
			require.NoError(t, err)
			assert.Equal(t, tt.content, parsed.Content)
			assert.False(t, parsed.HasAnalysis)
		})
	}
}

func TestTextAnalysisValuesStayOnOneLine(t *testing.T) {
	entry := analyzed(sampleEntry())
	entry.Insight = "First thought.\nSecond thought."

	out := Text(entry, nil)
	assert.Contains(t, string(out), "Key Insight: First thought. Second thought.\n")

	parsed, err := ParseText(out)
	require.NoError(t, err)
	assert.True(t, parsed.HasAnalysis)
	assert.Equal(t, entry.Content, parsed.Content)
}

func TestTextPlaceholders(t *testing.T) {
	entry := sampleEntry()
	entry.Mood = "calm"
	out := string(Text(entry, nil))

	assert.Contains(t, out, "Emotions: None\n")
	assert.Contains(t, out, "Strength: None detected\n")
	assert.Contains(t, out, "Key Insight: None provided\n")
}

func TestTextUsesLocation(t *testing.T) {
	loc := time.FixedZone("UTC+8", 8*60*60)
	parsed, err := ParseText(Text(sampleEntry(), loc))
	require.NoError(t, err)
	assert.Equal(t, "May 8, 2024 • 02:45", parsed.DateLine)
	assert.Equal(t, "journal-2024-05-08.txt", Filename(sampleEntry(), FormatText, loc))
}

func TestHTML(t *testing.T) {
	entry := sampleEntry()
	entry.Title = "<script>alert(1)</script>"

	out, err := HTML(entry, nil)
	require.NoError(t, err)
	html := string(out)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<style>")
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "I am happy today.<br>So happy.")
	assert.NotContains(t, html, "AI Analysis")

	out, err = HTML(analyzed(sampleEntry()), nil)
	require.NoError(t, err)
	assert.Contains(t, string(out), "<strong>Mood:</strong> happy")
}

func TestFilenameAndFormat(t *testing.T) {
	assert.Equal(t, "journal-2024-05-07.html", Filename(sampleEntry(), FormatHTML, nil))

	f, err := ParseFormat("")
	require.NoError(t, err)
	assert.Equal(t, FormatText, f)

	f, err = ParseFormat("HTML")
	require.NoError(t, err)
	assert.Equal(t, FormatHTML, f)
	assert.Equal(t, "text/html; charset=utf-8", f.ContentType())

	_, err = ParseFormat("pdf")
	assert.Error(t, err)
}

func TestParseTextRejectsOtherFiles(t *testing.T) {
	_, err := ParseText([]byte("just one line"))
	assert.Error(t, err)
}
