package llmclient

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/genai"

	"github.com/deskpilot/deskpilot/internal/config"
)

// GeminiClient is the cloud backend, for hosts without a local model server.
type GeminiClient struct {
	client *genai.Client
	model  string
	cfg    config.LLMConfig
	logger *zap.Logger
}

// NewGeminiClient initializes the client against the Gemini API.
func NewGeminiClient(ctx context.Context, cfg config.LLMConfig, logger *zap.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("gemini model name is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		model:  cfg.Model,
		cfg:    cfg,
		logger: logger.Named("llm_client.gemini"),
	}, nil
}

// Generate sends the prompt and returns the generated text.
func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	timeout := c.cfg.APITimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	temp := float32(c.cfg.Temperature)
	genConfig := &genai.GenerateContentConfig{
		Temperature: &temp,
	}
	if c.cfg.MaxTokens > 0 {
		genConfig.MaxOutputTokens = int32(c.cfg.MaxTokens)
	}

	startTime := time.Now()
	resp, err := c.client.Models.GenerateContent(genCtx, c.model, genai.Text(prompt), genConfig)
	if err != nil {
		return "", fmt.Errorf("gemini generation failed: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("gemini returned no usable candidates")
	}

	c.logger.Info("LLM generation complete (Gemini)",
		zap.String("model", c.model),
		zap.Duration("duration", time.Since(startTime)),
	)
	return text, nil
}

// Reachable reports whether the backend can serve a call. The Gemini API has
// no cheap liveness probe, so a configured client is assumed reachable;
// actual failures surface from Generate and take the fallback path.
func (c *GeminiClient) Reachable(ctx context.Context) bool {
	return c.client != nil
}
