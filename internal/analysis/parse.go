package analysis

import (
	"encoding/json"
	"fmt"
	"strings"
)

// StripCodeFences removes Markdown code fence markers that models wrap
// around JSON output.
func StripCodeFences(text string) string {
	text = strings.ReplaceAll(text, "```json", "")
	text = strings.ReplaceAll(text, "```", "")
	return strings.TrimSpace(text)
}

type modelReply struct {
	Mood     string   `json:"mood"`
	Emotions []string `json:"emotions"`
	Strength string   `json:"strength"`
	Weakness string   `json:"weakness"`
	Insight  string   `json:"insight"`
}

// ParseResult decodes a model reply into a Result. Missing keys get neutral
// defaults; malformed JSON is an error.
func ParseResult(text string) (Result, error) {
	var reply modelReply
	if err := json.Unmarshal([]byte(StripCodeFences(text)), &reply); err != nil {
		return Result{}, fmt.Errorf("invalid JSON response from model: %w", err)
	}

	res := Result{
		Mood:     orDefault(reply.Mood, "neutral"),
		Emotions: reply.Emotions,
		Strength: orDefault(reply.Strength, "reflection"),
		Weakness: orDefault(reply.Weakness, "unclear"),
		Insight:  orDefault(reply.Insight, "Continue journaling to develop more insights."),
	}
	if len(res.Emotions) == 0 {
		res.Emotions = []string{"neutral"}
	}
	res.Patterns = &Patterns{
		Positive:       []string{"journaling"},
		AreasForGrowth: []string{orDefault(reply.Weakness, "self-awareness")},
	}
	return res, nil
}

func orDefault(value, fallback string) string {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return value
}
