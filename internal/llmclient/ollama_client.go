package llmclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/internal/config"
)

// OllamaClient talks to a local Ollama server over its HTTP API. It is the
// default backend: no API key, no cloud round trip.
type OllamaClient struct {
	endpoint   string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
	cfg        config.LLMConfig
}

// -- Ollama API request/response structures (internal to this file) --

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	TopP        float64 `json:"top_p,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type ollamaGeneratePayload struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	Options ollamaOptions `json:"options"`
}

type ollamaGenerateResponse struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
}

type ollamaTagsResponse struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

// NewOllamaClient initializes the client.
func NewOllamaClient(cfg config.LLMConfig, logger *zap.Logger) (*OllamaClient, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("ollama endpoint is required")
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("ollama model name is required")
	}

	timeout := cfg.APITimeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}

	return &OllamaClient{
		endpoint: strings.TrimRight(cfg.Endpoint, "/"),
		model:    cfg.Model,
		cfg:      cfg,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.Named("llm_client.ollama"),
	}, nil
}

// Generate sends the prompt to Ollama and returns the generated text,
// retrying transient transport failures with exponential backoff.
func (c *OllamaClient) Generate(ctx context.Context, prompt string) (string, error) {
	payload := ollamaGeneratePayload{
		Model:  c.model,
		Prompt: prompt,
		Stream: false,
		Options: ollamaOptions{
			Temperature: c.cfg.Temperature,
			TopP:        c.cfg.TopP,
			NumPredict:  c.cfg.MaxTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal request payload: %w", err)
	}

	b := backoff.NewExponentialBackOff()
	b.MaxElapsedTime = 30 * time.Second
	b.MaxInterval = 10 * time.Second

	var generated string

	operation := func() error {
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint+"/api/generate", bytes.NewBuffer(body))
		if err != nil {
			return backoff.Permanent(fmt.Errorf("failed to create HTTP request: %w", err))
		}
		httpReq.Header.Set("Content-Type", "application/json")

		startTime := time.Now()
		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			c.logger.Warn("Network error during LLM request, retrying...", zap.Error(err))
			return fmt.Errorf("failed to execute HTTP request: %w", err)
		}
		defer resp.Body.Close()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("failed to read response body: %w", err)
		}

		if resp.StatusCode != http.StatusOK {
			return c.handleAPIError(resp.StatusCode, respBody)
		}

		var decoded ollamaGenerateResponse
		if err := json.Unmarshal(respBody, &decoded); err != nil {
			return backoff.Permanent(fmt.Errorf("failed to decode response payload: %w", err))
		}
		if decoded.Response == "" {
			return backoff.Permanent(fmt.Errorf("ollama returned an empty response"))
		}

		c.logger.Info("LLM generation complete (Ollama)",
			zap.String("model", c.model),
			zap.Duration("duration", time.Since(startTime)),
		)

		generated = decoded.Response
		return nil
	}

	if err = backoff.Retry(operation, backoff.WithContext(b, ctx)); err != nil {
		return "", err
	}
	return generated, nil
}

// Reachable probes the Ollama tags endpoint. Connected-but-empty counts as
// unreachable: without a pulled model, generation cannot succeed.
func (c *OllamaClient) Reachable(ctx context.Context) bool {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, c.endpoint+"/api/tags", nil)
	if err != nil {
		return false
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Debug("Ollama not reachable", zap.Error(err))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return false
	}

	var tags ollamaTagsResponse
	if err := json.NewDecoder(resp.Body).Decode(&tags); err != nil {
		return false
	}
	if len(tags.Models) == 0 {
		c.logger.Warn("Ollama is running but no models are pulled")
		return false
	}
	return true
}

func (c *OllamaClient) handleAPIError(statusCode int, body []byte) error {
	c.logger.Error("Ollama API returned error status", zap.Int("status", statusCode), zap.ByteString("response", body))
	err := fmt.Errorf("ollama API error: status %d, body: %s", statusCode, string(body))

	switch statusCode {
	case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusInternalServerError:
		return err // Transient, retry.
	default:
		return backoff.Permanent(err)
	}
}
