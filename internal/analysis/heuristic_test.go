package analysis

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHeuristicMood(t *testing.T) {
	tests := []struct {
		name    string
		title   string
		content string
		want    string
	}{
		{"no keywords defaults to contemplative", "Tuesday", "The meeting ran long and the train was late.", "contemplative"},
		{"happy keywords", "Great Day", "I am happy today. So happy. Really happy", "happy"},
		{"anxious keywords", "Exams", "I feel so nervous and worried about tomorrow", "anxious"},
		{"tie goes to the earlier mood", "", "sad happy", "happy"},
		{"shared keyword counts for both moods", "", "upset", "sad"},
		{"title words count", "Peaceful", "the lake at dusk", "calm"},
		{"four question marks make it curious", "", "Why? How? What? When?", "curious"},
		{"question marks override keywords", "", "happy happy happy? really? truly? why?", "curious"},
		{"three question marks are not enough", "", "Why? How? What?", "contemplative"},
		{"exclamations with happy words are excited", "", "Great! Amazing! Wow! Yes!", "excited"},
		{"exclamations without happy words are intense", "", "Go! Run! Now! Move!", "intense"},
		{"three exclamations are not enough", "", "Go! Run! Now!", "contemplative"},
		{"question override wins over exclamations", "", "a? b? c? d? e! f! g! h!", "curious"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Heuristic(tt.title, tt.content).Mood)
		})
	}
}

func TestHeuristicGreatDay(t *testing.T) {
	res := Heuristic("Great Day", "I am happy today. So happy. Really happy")

	assert.Equal(t, "happy", res.Mood)
	assert.Equal(t, []string{"joyful", "optimistic", "grateful"}, res.Emotions)
	assert.Equal(t, "conciseness", res.Strength, "short entries are concise")
	assert.Equal(t, "detail", res.Weakness)
	assert.Equal(t, insightHappy, res.Insight)
	assert.False(t, res.Fallback)
}

func TestHeuristicStrengthAndWeakness(t *testing.T) {
	long := strings.Repeat("walk ", 120)
	medium := strings.Repeat("walk ", 30)

	tests := []struct {
		name         string
		content      string
		wantStrength string
		wantWeakness string
	}{
		{"long entry", long, "expressiveness", "clarity"},
		{"medium entry", medium, "self-awareness", "clarity"},
		{"short entry", "walk", "conciseness", "detail"},
		{"reflective word", "I think we walked", "self-reflection", "detail"},
		{"reflective word in a long entry", long + " realize", "self-reflection", "clarity"},
		{"uncertainty word", medium + " maybe", "self-awareness", "certainty"},
		{"reflective needs a whole token", "rethinking everything", "conciseness", "detail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Heuristic("", tt.content)
			assert.Equal(t, tt.wantStrength, res.Strength)
			assert.Equal(t, tt.wantWeakness, res.Weakness)
		})
	}
}

func TestHeuristicInsight(t *testing.T) {
	assert.Equal(t, insightAnxious, Heuristic("", "so stressed").Insight)
	assert.Equal(t, insightSad, Heuristic("", "a gloomy week").Insight)
	assert.Equal(t, insightDetailed, Heuristic("", strings.Repeat("walk ", 120)).Insight)
	assert.Equal(t, insightQuestion, Heuristic("", "is this it?").Insight)
	assert.Equal(t, insightDefault, Heuristic("", "walked home").Insight)
}

func TestHeuristicEmotionsPerMood(t *testing.T) {
	assert.Equal(t, defaultEmotions, Heuristic("", "walked home").Emotions)
	assert.Equal(t, []string{"inquisitive", "thoughtful", "interested"}, Heuristic("", "a? b? c? d?").Emotions)
	assert.Equal(t, []string{"focused", "determined", "serious"}, Heuristic("", "a! b! c! d!").Emotions)

	// Results must not share backing arrays with the lookup table.
	res := Heuristic("", "walked home")
	res.Emotions[0] = "changed"
	assert.Equal(t, "thoughtful", Heuristic("", "walked home").Emotions[0])
}

func TestHeuristicIsDeterministic(t *testing.T) {
	content := "Some days I wonder whether I could do more. Still, the garden was quiet."
	assert.Equal(t, Heuristic("Garden", content), Heuristic("Garden", content))
}
