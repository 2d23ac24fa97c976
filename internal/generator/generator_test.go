// internal/generator/generator_test.go
package generator_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/generator"
)

// fakeLLM is a canned-response LLM client.
type fakeLLM struct {
	reachable bool
	response  string
	err       error
	prompts   []string
}

func (f *fakeLLM) Generate(_ context.Context, prompt string) (string, error) {
	f.prompts = append(f.prompts, prompt)
	return f.response, f.err
}

func (f *fakeLLM) Reachable(context.Context) bool { return f.reachable }

func TestGenerateUsesModelWhenReachable(t *testing.T) {
	llm := &fakeLLM{
		reachable: true,
		response:  `[{"action": "OPEN_APP", "params": {"app": "calc", "wait_time": 3}}]`,
	}
	g := generator.New(llm, zap.NewNop())

	seq, err := g.Generate(context.Background(), "open the calculator")
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, schemas.ActionOpenApp, seq[0].Action)

	require.Len(t, llm.prompts, 1)
	assert.Contains(t, llm.prompts[0], `"open the calculator"`, "prompt should embed the task")
}

func TestGenerateFallsBackWhenUnreachable(t *testing.T) {
	llm := &fakeLLM{reachable: false}
	g := generator.New(llm, zap.NewNop())

	seq, err := g.Generate(context.Background(), "play song despacito on youtube")
	require.NoError(t, err)
	require.Len(t, seq, 1)

	assert.Equal(t, schemas.ActionWebSearch, seq[0].Action)
	assert.Equal(t, "despacito", seq[0].Params.String("query", ""))
	assert.Empty(t, llm.prompts, "unreachable backend must not be prompted")
}

func TestGenerateFallsBackOnModelError(t *testing.T) {
	llm := &fakeLLM{reachable: true, err: errors.New("connection reset")}
	g := generator.New(llm, zap.NewNop())

	seq, err := g.Generate(context.Background(), "play despacito")
	require.NoError(t, err)
	require.NotEmpty(t, seq)
	assert.Equal(t, "youtube", seq[0].Params.String("site", ""))
}

func TestGenerateFallsBackOnGarbageOutput(t *testing.T) {
	llm := &fakeLLM{reachable: true, response: "I'm sorry, I can't do that."}
	g := generator.New(llm, zap.NewNop())

	seq, err := g.Generate(context.Background(), "open notepad")
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, schemas.ActionOpenApp, seq[0].Action)
}

func TestGenerateNoInstructionsAnywhere(t *testing.T) {
	llm := &fakeLLM{reachable: false}
	g := generator.New(llm, zap.NewNop())

	_, err := g.Generate(context.Background(), "defragment the flux capacitor")
	require.ErrorIs(t, err, generator.ErrNoInstructions)
}

func TestGenerateEmptyTask(t *testing.T) {
	g := generator.New(nil, zap.NewNop())

	_, err := g.Generate(context.Background(), "")
	require.ErrorIs(t, err, generator.ErrNoInstructions)
}

func TestGenerateNilClientUsesRules(t *testing.T) {
	g := generator.New(nil, zap.NewNop())

	seq, err := g.Generate(context.Background(), "take a screenshot")
	require.NoError(t, err)
	require.Len(t, seq, 1)
	assert.Equal(t, schemas.ActionScreenshot, seq[0].Action)
}
