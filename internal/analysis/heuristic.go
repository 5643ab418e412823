package analysis

import (
	"slices"
	"strings"
	"unicode/utf8"
)

const defaultMood = "contemplative"

type moodKeywords struct {
	mood     string
	keywords []string
}

// Order matters: on equal counts the earlier mood wins.
var moodLexicon = []moodKeywords{
	{"happy", []string{"happy", "joy", "excited", "glad", "wonderful", "great", "fantastic", "pleased", "smile", "laugh"}},
	{"sad", []string{"sad", "unhappy", "depressed", "down", "upset", "disappointing", "somber", "gloomy", "cry", "hurt"}},
	{"angry", []string{"angry", "frustrated", "annoyed", "mad", "irritated", "furious", "rage", "upset", "hostile"}},
	{"anxious", []string{"anxious", "worried", "nervous", "stressed", "overwhelmed", "concerned", "tense", "fear", "panic"}},
	{"calm", []string{"calm", "peaceful", "relaxed", "tranquil", "serene", "content", "balanced", "quiet", "still"}},
}

var moodEmotions = map[string][]string{
	"happy":   {"joyful", "optimistic", "grateful"},
	"sad":     {"melancholy", "reflective", "sensitive"},
	"angry":   {"frustrated", "irritated", "passionate"},
	"anxious": {"worried", "cautious", "alert"},
	"calm":    {"peaceful", "mindful", "balanced"},
	"curious": {"inquisitive", "thoughtful", "interested"},
	"excited": {"enthusiastic", "eager", "animated"},
	"intense": {"focused", "determined", "serious"},
}

var defaultEmotions = []string{"thoughtful", "contemplative", "reflective"}

var (
	reflectiveWords  = []string{"think", "feel", "realize", "understand", "learn", "reflect", "consider"}
	uncertaintyWords = []string{"maybe", "perhaps", "might", "could", "possibly", "unsure", "wonder"}
)

const (
	longEntryRunes  = 500
	shortEntryRunes = 100
	// punctuationThreshold is exceeded when a mark appears more than this many times.
	punctuationThreshold = 3
)

const (
	insightDefault  = "Taking time to write down your thoughts shows a commitment to self-reflection."
	insightAnxious  = "Your writing reveals concerns that might benefit from being addressed directly."
	insightHappy    = "Your positive outlook can be channeled into productive pursuits and shared with others."
	insightSad      = "Processing these feelings through writing is a healthy step toward understanding them better."
	insightDetailed = "Your detailed expression suggests deep engagement with your thoughts and experiences."
	insightQuestion = "Your questioning nature shows a desire to understand things more deeply."
)

// Heuristic scores an entry by keyword frequency. It depends only on its
// input and always returns a fully populated result.
func Heuristic(title, content string) Result {
	words := strings.Fields(strings.ToLower(content))
	titleWords := strings.Fields(strings.ToLower(title))
	length := utf8.RuneCountInString(content)

	counts := make(map[string]int, len(moodLexicon))
	for _, word := range append(slices.Clone(words), titleWords...) {
		for _, mk := range moodLexicon {
			if containsAny(word, mk.keywords) {
				counts[mk.mood]++
			}
		}
	}

	mood := defaultMood
	highest := 0
	for _, mk := range moodLexicon {
		if counts[mk.mood] > highest {
			highest = counts[mk.mood]
			mood = mk.mood
		}
	}

	switch {
	case strings.Count(content, "?") > punctuationThreshold:
		mood = "curious"
	case strings.Count(content, "!") > punctuationThreshold:
		if counts["happy"] > 0 {
			mood = "excited"
		} else {
			mood = "intense"
		}
	}

	emotions, ok := moodEmotions[mood]
	if !ok {
		emotions = defaultEmotions
	}

	strength, weakness := "self-awareness", "clarity"
	if length > longEntryRunes {
		strength = "expressiveness"
	} else if length < shortEntryRunes {
		strength = "conciseness"
		weakness = "detail"
	}
	if anyWord(words, reflectiveWords) {
		strength = "self-reflection"
	}
	if anyWord(words, uncertaintyWords) {
		weakness = "certainty"
	}

	insight := insightDefault
	switch {
	case mood == "anxious":
		insight = insightAnxious
	case mood == "happy":
		insight = insightHappy
	case mood == "sad":
		insight = insightSad
	case length > longEntryRunes:
		insight = insightDetailed
	case strings.Contains(content, "?"):
		insight = insightQuestion
	}

	return Result{
		Mood:     mood,
		Emotions: slices.Clone(emotions),
		Strength: strength,
		Weakness: weakness,
		Insight:  insight,
	}
}

// containsAny reports whether any keyword is a substring of word.
func containsAny(word string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(word, k) {
			return true
		}
	}
	return false
}

// anyWord reports whether any candidate appears as a whole token.
func anyWord(words, candidates []string) bool {
	for _, c := range candidates {
		if slices.Contains(words, c) {
			return true
		}
	}
	return false
}
