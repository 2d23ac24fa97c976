package cmd

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/browser"
	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/internal/desktop"
	"github.com/deskpilot/deskpilot/internal/executor"
	"github.com/deskpilot/deskpilot/internal/generator"
	"github.com/deskpilot/deskpilot/internal/llmclient"
	"github.com/deskpilot/deskpilot/internal/session"
)

// appRuntime bundles the wired components shared by the serve and run
// commands.
type appRuntime struct {
	Config    *config.Config
	LLM       schemas.LLMClient
	Store     *session.Store
	Generator *generator.Generator
	Executor  *executor.Executor
	Processes *desktop.Processes
}

// buildRuntime wires the capability providers, generator, and executor from
// the loaded configuration.
func buildRuntime(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*appRuntime, error) {
	llm, err := llmclient.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create LLM client: %w", err)
	}

	shots, err := cfg.ScreenshotDir()
	if err != nil {
		return nil, err
	}

	store := session.NewStore(logger)
	procs := desktop.NewProcesses(logger)

	browserCfg := cfg.Browser
	deps := executor.Deps{
		Input:     desktop.NewInput(logger),
		Clipboard: desktop.NewClipboard(),
		Processes: procs,
		Screen:    desktop.NewScreen(logger),
		Browser: func() (schemas.BrowserDriver, error) {
			return browser.NewDriver(browserCfg, logger)
		},
	}

	return &appRuntime{
		Config:    cfg,
		LLM:       llm,
		Store:     store,
		Generator: generator.New(llm, logger),
		Executor:  executor.New(deps, store, cfg.Executor, shots, logger),
		Processes: procs,
	}, nil
}
