package analysis

import (
	"context"
	"errors"
	"fmt"

	"selfsight.app/journal/internal/logger"
)

// ErrQuotaExceeded marks a generation failure caused by provider rate limiting.
var ErrQuotaExceeded = errors.New("text generation quota exceeded")

var errNoGenerator = errors.New("no text generator configured")

// GenerationOptions tunes a single text-generation call.
type GenerationOptions struct {
	Model           string
	Temperature     float32
	TopK            int32
	TopP            float32
	MaxOutputTokens int32
}

// TextGenerator is a hosted text-completion service.
type TextGenerator interface {
	GenerateText(ctx context.Context, prompt string, opts GenerationOptions) (string, error)
}

const analysisPromptTemplate = `Analyze the following journal entry.
Title: "%s"
Content: "%s"

Provide a detailed analysis with the following components:
1. The overall mood of the writer (single word or short phrase)
2. Three key emotions expressed (as a list of single words)
3. One notable strength demonstrated in the entry (single word or short phrase)
4. One area for growth or weakness (single word or short phrase)
5. A brief insight or pattern (1-2 sentences)

Format the response as a JSON object with this structure:
{
  "mood": "string",
  "emotions": ["string", "string", "string"],
  "strength": "string",
  "weakness": "string",
  "insight": "string"
}

Only respond with the JSON object and nothing else.`

// Analyzer calls the text generator once per entry and degrades to the
// keyword heuristic on any failure. It holds no mutable state.
type Analyzer struct {
	gen  TextGenerator
	opts GenerationOptions
}

// NewAnalyzer builds an analyzer for the given model. A nil generator makes
// every analysis a heuristic fallback.
func NewAnalyzer(gen TextGenerator, model string) *Analyzer {
	return &Analyzer{
		gen: gen,
		opts: GenerationOptions{
			Model:           model,
			Temperature:     0.4,
			TopK:            32,
			TopP:            1,
			MaxOutputTokens: 1024,
		},
	}
}

// Analyze never fails: a remote error yields the heuristic result tagged as
// a fallback.
func (a *Analyzer) Analyze(ctx context.Context, title, content string) Result {
	res, err := a.Remote(ctx, title, content)
	if err == nil {
		return res
	}

	logger.Warn("Remote analysis failed, using heuristic", "title", title, "error", err)
	fallback := Heuristic(title, content)
	fallback.Fallback = true
	fallback.QuotaExceeded = errors.Is(err, ErrQuotaExceeded)
	return fallback
}

// Remote makes exactly one generation attempt and parses its reply.
func (a *Analyzer) Remote(ctx context.Context, title, content string) (Result, error) {
	if a.gen == nil {
		return Result{}, errNoGenerator
	}

	text, err := a.gen.GenerateText(ctx, fmt.Sprintf(analysisPromptTemplate, title, content), a.opts)
	if err != nil {
		return Result{}, fmt.Errorf("analysis request failed: %w", err)
	}
	return ParseResult(text)
}
