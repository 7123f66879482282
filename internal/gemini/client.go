// Package gemini implements integration with Google's Gemini AI API.
// It turns a day's worth of user events into social media post drafts and
// reports the token usage of each call.
package gemini

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"google.golang.org/genai"

	"github.com/jackiboi12/telegram-bot/internal/config"
)

// ErrQuotaExhausted signals that the API rejected the request because the
// usage quota is spent. Callers should not retry until the quota resets.
var ErrQuotaExhausted = errors.New("gemini quota exhausted")

// TokenUsage records the token cost of a single generation call as reported
// by the API.
type TokenUsage struct {
	PromptTokens     int64
	CompletionTokens int64
}

// Client defines the interface for AI operations used by the generation
// workflow.
type Client interface {
	// GeneratePosts asks the model for platform-tailored post drafts built
	// from the given event texts. On success it returns the generated text
	// and the reported token usage. Quota exhaustion is reported as an
	// error wrapping ErrQuotaExhausted.
	GeneratePosts(ctx context.Context, eventTexts []string) (string, TokenUsage, error)
}

type sdkClient struct {
	genaiClient   *genai.Client
	log           *slog.Logger
	contentConfig *genai.GenerateContentConfig
	modelName     string
	timeout       time.Duration
}

// NewClient creates a new Gemini AI client with the provided configuration.
// It initializes the connection to the Gemini API and sets up the content
// generation parameters (persona instruction, temperature, output bound).
func NewClient(ctx context.Context, cfg config.GeminiConfig, log *slog.Logger) (Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}

	gi, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create genai client: %w", err)
	}

	instruction := cfg.Instruction
	if instruction == "" {
		instruction = DefaultSystemInstruction
	}

	temperature := cfg.Temperature
	baseCfg := &genai.GenerateContentConfig{
		Temperature:       &temperature,
		MaxOutputTokens:   cfg.MaxOutputTokens,
		SystemInstruction: &genai.Content{Parts: []*genai.Part{{Text: instruction}}},
	}

	logger := log.With("component", "gemini_client")
	logger.Info("Gemini client initialized successfully", "model", cfg.Model)
	return &sdkClient{
		genaiClient:   gi,
		log:           logger,
		contentConfig: baseCfg,
		modelName:     cfg.Model,
		timeout:       cfg.Timeout,
	}, nil
}

func (c *sdkClient) GeneratePosts(ctx context.Context, eventTexts []string) (string, TokenUsage, error) {
	if len(eventTexts) == 0 {
		return "", TokenUsage{}, fmt.Errorf("no event texts provided")
	}

	c.log.DebugContext(ctx, "Generating post drafts", "event_count", len(eventTexts))

	callCtx := ctx
	if c.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	contents := []*genai.Content{
		genai.NewContentFromText(BuildPostPrompt(eventTexts), genai.RoleUser),
	}

	resp, err := c.genaiClient.Models.GenerateContent(callCtx, c.modelName, contents, c.contentConfig)
	if err != nil {
		var apiErr *genai.APIError
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusTooManyRequests {
			c.log.WarnContext(ctx, "Gemini quota exhausted", "code", apiErr.Code, "status", apiErr.Status)
			return "", TokenUsage{}, fmt.Errorf("%w: %s", ErrQuotaExhausted, apiErr.Status)
		}
		c.log.ErrorContext(ctx, "Gemini API call failed", "error", err)
		return "", TokenUsage{}, fmt.Errorf("gemini API call failed: %w", err)
	}

	text, err := extractText(resp)
	if err != nil {
		c.log.WarnContext(ctx, "Gemini response unusable", "error", err)
		return "", TokenUsage{}, err
	}

	usage := usageFromResponse(resp)
	c.log.DebugContext(ctx, "Post drafts generated",
		"prompt_tokens", usage.PromptTokens, "completion_tokens", usage.CompletionTokens)
	return text, usage, nil
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockedReasonUnspecified {
		reasonMsg := fmt.Sprintf("%v", resp.PromptFeedback.BlockReason)
		if resp.PromptFeedback.BlockReasonMessage != "" {
			reasonMsg = resp.PromptFeedback.BlockReasonMessage
		}
		return "", fmt.Errorf("generation blocked by safety filter: %s", reasonMsg)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		finishReason := "unknown"
		if len(resp.Candidates) > 0 && resp.Candidates[0].FinishReason != genai.FinishReasonUnspecified {
			finishReason = fmt.Sprintf("%v", resp.Candidates[0].FinishReason)
		}
		return "", fmt.Errorf("generation returned no content, finish reason: %s", finishReason)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("generation returned empty text")
	}
	return text, nil
}

func usageFromResponse(resp *genai.GenerateContentResponse) TokenUsage {
	if resp.UsageMetadata == nil {
		return TokenUsage{}
	}
	return TokenUsage{
		PromptTokens:     int64(resp.UsageMetadata.PromptTokenCount),
		CompletionTokens: int64(resp.UsageMetadata.CandidatesTokenCount),
	}
}
