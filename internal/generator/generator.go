// Package generator turns a free-form task string into an ordered instruction
// sequence, using a language model when one is reachable and deterministic
// rules when it is not.
package generator

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/llmutil"
)

// ErrNoInstructions is returned when neither the model nor the fallback rules
// can produce anything usable for the task. It is the generator's only
// failure mode; transport and parse problems never escape this package.
var ErrNoInstructions = errors.New("could not generate instructions for this task")

// Generator maps task text to instruction sequences.
type Generator struct {
	client schemas.LLMClient
	logger *zap.Logger
}

// New creates a generator. client may be nil, in which case only the
// rule-based path is available.
func New(client schemas.LLMClient, logger *zap.Logger) *Generator {
	return &Generator{
		client: client,
		logger: logger.Named("generator"),
	}
}

// Generate produces the instruction sequence for a task. The model path is
// tried first; any failure there (unreachable backend, malformed output)
// collapses into the rule-based fallback rather than surfacing as an error.
// Transient network errors are indistinguishable from an absent backend at
// this layer, so they take the fallback immediately instead of retrying.
func (g *Generator) Generate(ctx context.Context, task string) (schemas.Sequence, error) {
	if task == "" {
		return nil, ErrNoInstructions
	}

	if seq := g.generateWithModel(ctx, task); len(seq) > 0 {
		return seq, nil
	}

	seq := Fallback(task)
	if len(seq) == 0 {
		return nil, ErrNoInstructions
	}
	g.logger.Info("Generated instructions via fallback rules",
		zap.String("task", task), zap.Int("count", len(seq)))
	return seq, nil
}

// generateWithModel runs the LLM path end to end, returning nil on any
// failure so the caller falls through to the rules.
func (g *Generator) generateWithModel(ctx context.Context, task string) schemas.Sequence {
	if g.client == nil || !g.client.Reachable(ctx) {
		return nil
	}

	response, err := g.client.Generate(ctx, BuildPrompt(task))
	if err != nil {
		g.logger.Warn("Model generation failed, falling back to rules", zap.Error(err))
		return nil
	}

	seq, err := llmutil.ParseInstructions(response)
	if err != nil {
		g.logger.Warn("Model output unparsable, falling back to rules", zap.Error(err))
		return nil
	}
	if len(seq) == 0 {
		return nil
	}

	g.logger.Info("Generated instructions via model", zap.String("task", task), zap.Int("count", len(seq)))
	return seq
}

// BuildPrompt renders the fixed prompt template embedding the task and the
// action catalog with few-shot examples.
func BuildPrompt(task string) string {
	return fmt.Sprintf(`You are a desktop automation expert. Convert this task to JSON instructions.

Available actions:
- OPEN_APP: Open application
- OPEN_URL: Open website
- WEB_SEARCH: Search on a website (YouTube, Google, etc.)
- CLICK: Click coordinates
- TYPE: Type text
- SCREENSHOT: Take screenshot
- WAIT: Wait specified seconds
- COPY: Copy selection to clipboard
- PASTE: Paste from clipboard
- SET_CLIPBOARD: Put text on the clipboard
- SCROLL: Scroll the viewport
- PRESS_KEY: Press keyboard key
- HOTKEY: Key combinations

IMPORTANT: For YouTube tasks, use the WEB_SEARCH action!

Examples:

Task: "play song despacito on youtube"
Output: [
  {"action": "WEB_SEARCH", "params": {"site": "youtube", "query": "despacito", "auto_play": true}}
]

Task: "search for python tutorial on youtube"
Output: [
  {"action": "WEB_SEARCH", "params": {"site": "youtube", "query": "python tutorial", "auto_play": false}}
]

Task: "open google and search for weather"
Output: [
  {"action": "WEB_SEARCH", "params": {"site": "google", "query": "weather", "auto_play": false}}
]

Task: "open calculator and chrome"
Output: [
  {"action": "OPEN_APP", "params": {"app": "calc", "wait_time": 3}},
  {"action": "WAIT", "params": {"seconds": 2}},
  {"action": "OPEN_URL", "params": {"url": "https://google.com", "wait_time": 4}}
]

Now convert this task: "%s"
Output:`, task)
}
