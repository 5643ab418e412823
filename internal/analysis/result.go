// Package analysis turns a journal entry into a mood/emotions/strength/
// weakness/insight tuple, either through a text-generation model or through
// an offline keyword heuristic.
package analysis

// Result is the analysis tuple attached to an entry.
type Result struct {
	Mood     string    `json:"mood"`
	Emotions []string  `json:"emotions"`
	Strength string    `json:"strength"`
	Weakness string    `json:"weakness"`
	Insight  string    `json:"insight"`
	Patterns *Patterns `json:"patterns,omitempty"`

	// Fallback is set when the result came from the heuristic because the
	// model call failed. QuotaExceeded narrows the cause to rate limiting.
	Fallback      bool `json:"_fallback,omitempty"`
	QuotaExceeded bool `json:"_quotaExceeded,omitempty"`
}

type Patterns struct {
	Positive       []string `json:"positive"`
	AreasForGrowth []string `json:"areas_for_growth"`
}
