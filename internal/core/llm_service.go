package core

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/googleapis/gax-go/v2/apierror"
	"golang.org/x/time/rate"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"selfsight.app/journal/internal/analysis"
	"selfsight.app/journal/internal/logger"
)

// LLMService is the Gemini-backed text generator shared by entry analysis
// and recommendation generation.
type LLMService struct {
	client  *genai.Client
	limiter *rate.Limiter
}

func NewLLMService(apiKey string, requestsPerMinute int) (*LLMService, error) {
	if apiKey == "" {
		return nil, errors.New("gemini api key is required")
	}
	if requestsPerMinute <= 0 {
		requestsPerMinute = 60
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return &LLMService{
		client:  client,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(requestsPerMinute)), 1),
	}, nil
}

func (s *LLMService) Close() {
	if s.client != nil {
		if err := s.client.Close(); err != nil {
			logger.Error("Error closing GenAI client", "error", err)
		} else {
			logger.Info("GenAI client closed")
		}
	}
}

// GenerateText sends a single prompt and returns the concatenated text parts
// of the first candidate. Rate-limit responses are wrapped in
// analysis.ErrQuotaExceeded.
func (s *LLMService) GenerateText(ctx context.Context, prompt string, opts analysis.GenerationOptions) (string, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("gemini request not sent: %w", err)
	}

	model := s.client.GenerativeModel(opts.Model)
	model.GenerationConfig = genai.GenerationConfig{
		Temperature:     &opts.Temperature,
		TopK:            &opts.TopK,
		TopP:            &opts.TopP,
		MaxOutputTokens: &opts.MaxOutputTokens,
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		if isQuotaError(err) {
			return "", fmt.Errorf("%w: %v", analysis.ErrQuotaExceeded, err)
		}
		return "", fmt.Errorf("gemini generate request failed: %w", err)
	}

	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", errors.New("gemini returned no candidates")
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if txt, ok := part.(genai.Text); ok {
			text.WriteString(string(txt))
		} else {
			logger.Debug("Gemini response part was not text", "type", fmt.Sprintf("%T", part))
		}
	}
	if text.Len() == 0 {
		return "", errors.New("gemini returned an empty text response")
	}
	return text.String(), nil
}

// isQuotaError recognises HTTP 429 from the Gemini API in either of the
// error shapes the client library produces.
func isQuotaError(err error) bool {
	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPCode() == http.StatusTooManyRequests {
		return true
	}
	var gErr *googleapi.Error
	if errors.As(err, &gErr) && gErr.Code == http.StatusTooManyRequests {
		return true
	}
	return false
}
