// Package executor plays an instruction sequence back against the desktop
// and browser capability providers, one step at a time.
package executor

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/internal/session"
)

// BrowserFactory creates a fresh browser driver for one run. Injected so
// tests never launch a real browser.
type BrowserFactory func() (schemas.BrowserDriver, error)

// Deps bundles the capability providers an executor dispatches through.
type Deps struct {
	Input     schemas.DesktopInput
	Clipboard schemas.Clipboard
	Processes schemas.ProcessControl
	Screen    schemas.ScreenCapture
	Browser   BrowserFactory
}

// Executor runs instruction sequences. One Executor serves many sessions;
// all per-run state lives in the run type below, so concurrent sessions
// only share the capability providers and the session store.
type Executor struct {
	deps   Deps
	store  *session.Store
	cfg    config.ExecutorConfig
	shots  string
	logger *zap.Logger
}

// New creates an executor. screenshotDir is where SCREENSHOT steps land
// when the instruction does not name a file.
func New(deps Deps, store *session.Store, cfg config.ExecutorConfig, screenshotDir string, logger *zap.Logger) *Executor {
	return &Executor{
		deps:   deps,
		store:  store,
		cfg:    cfg,
		shots:  screenshotDir,
		logger: logger.Named("executor"),
	}
}

// Run executes the sequence for the given session, strictly in order. Every
// per-step failure is logged and skipped; the only fatal condition is a
// failed browser acquisition when the sequence contains web steps. The
// browser handle, if acquired, is handed to the session store at the end
// rather than closed, so the user keeps seeing the final page.
func (e *Executor) Run(ctx context.Context, sessionID string, seq schemas.Sequence) error {
	log := e.logger.With(zap.String("session_id", sessionID))

	if err := e.store.SetStatus(sessionID, schemas.StatusRunning); err != nil {
		return fmt.Errorf("cannot start session %s: %w", sessionID, err)
	}
	e.store.Append(sessionID, schemas.NewLogEntry(
		fmt.Sprintf("Starting execution of %d instructions", len(seq)), schemas.LogInfo))

	r := &run{exec: e, sessionID: sessionID}
	r.buildRegistry()

	if seq.NeedsBrowser() {
		driver, err := e.deps.Browser()
		if err != nil {
			msg := fmt.Sprintf("Cannot perform web actions without browser automation: %v", err)
			e.store.Append(sessionID, schemas.NewLogEntry(msg, schemas.LogError))
			_ = e.store.SetStatus(sessionID, schemas.StatusFailed)
			log.Error("Browser acquisition failed, aborting run", zap.Error(err))
			return fmt.Errorf("browser acquisition failed: %w", err)
		}
		r.browser = driver
		log.Info("Browser acquired for web instructions")
	}

	// Inter-step pacing; the first step goes through immediately.
	pause := e.cfg.StepPause
	if pause <= 0 {
		pause = 500 * time.Millisecond
	}
	limiter := rate.NewLimiter(rate.Every(pause), 1)

	interrupted := false
	for i, inst := range seq {
		if err := limiter.Wait(ctx); err != nil {
			// Context gone; record what stopped the run and finish.
			e.store.Append(sessionID, schemas.NewLogEntry(
				fmt.Sprintf("Run interrupted before step %d: %v", i+1, err), schemas.LogError))
			interrupted = true
			break
		}

		e.store.Append(sessionID, schemas.NewLogEntry(
			fmt.Sprintf("Step %d/%d: %s", i+1, len(seq), inst.Action), schemas.LogInfo))

		if err := r.dispatch(ctx, inst); err != nil {
			e.store.Append(sessionID, schemas.NewLogEntry(
				fmt.Sprintf("Error in step %d: %v", i+1, err), schemas.LogError))
			log.Warn("Step failed, continuing", zap.Int("step", i+1), zap.Error(err))
			continue
		}
	}

	if interrupted {
		e.store.Append(sessionID, schemas.NewLogEntry(
			"Run stopped before completing all instructions", schemas.LogInfo))
	} else {
		e.store.Append(sessionID, schemas.NewLogEntry("All instructions completed!", schemas.LogSuccess))
	}

	if r.browser != nil {
		// The store becomes the handle's owner; closing is a separate,
		// explicit operation so the user can see the final state.
		if err := e.store.AttachBrowser(sessionID, r.browser); err != nil {
			log.Warn("Session gone before browser handoff, quitting browser", zap.Error(err))
			_ = r.browser.Quit()
		} else {
			e.store.Append(sessionID, schemas.NewLogEntry(
				"Browser is open. You can close it when done.", schemas.LogInfo))
		}
	}

	return e.store.SetStatus(sessionID, schemas.StatusCompleted)
}

// run holds the per-run state: the session id, the optional browser handle,
// and the dispatch registry.
type run struct {
	exec      *Executor
	sessionID string
	browser   schemas.BrowserDriver
	registry  map[schemas.ActionType]func(ctx context.Context, inst schemas.Instruction) error
}

func (r *run) buildRegistry() {
	r.registry = map[schemas.ActionType]func(context.Context, schemas.Instruction) error{
		schemas.ActionWebSearch:    r.webSearch,
		schemas.ActionOpenApp:      r.openApp,
		schemas.ActionOpenURL:      r.openURL,
		schemas.ActionClick:        r.click,
		schemas.ActionTypeText:     r.typeText,
		schemas.ActionScreenshot:   r.screenshot,
		schemas.ActionWait:         r.wait,
		schemas.ActionCopy:         r.copyToClipboard,
		schemas.ActionPaste:        r.pasteFromClipboard,
		schemas.ActionSetClipboard: r.setClipboard,
		schemas.ActionScroll:       r.scroll,
		schemas.ActionPressKey:     r.pressKey,
		schemas.ActionHotkey:       r.hotkey,
	}
}

// dispatch routes one instruction through the registry behind a panic
// boundary: a defect inside a handler becomes a step error, never a dead
// run.
func (r *run) dispatch(ctx context.Context, inst schemas.Instruction) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("step panicked: %v", rec)
		}
	}()

	handler, ok := r.registry[inst.Action]
	if !ok {
		return fmt.Errorf("unknown action: %s", inst.Action)
	}
	return handler(ctx, inst)
}

// -- Handlers --

func (r *run) webSearch(ctx context.Context, inst schemas.Instruction) error {
	site := inst.Params.String("site", "google")
	query := inst.Params.String("query", "")
	autoPlay := inst.Params.Bool("auto_play", false)

	if query == "" {
		return fmt.Errorf("no search query provided")
	}
	if r.browser == nil {
		return fmt.Errorf("browser not available")
	}

	switch site {
	case "youtube":
		title, err := r.browser.SearchYouTube(ctx, query, autoPlay)
		if err != nil {
			return err
		}
		if title != "" {
			r.appendLog(fmt.Sprintf("Playing: %s", title), schemas.LogSuccess)
		} else {
			r.appendLog(fmt.Sprintf("YouTube results displayed for %q", query), schemas.LogInfo)
		}
		return nil
	case "google":
		if err := r.browser.SearchGoogle(ctx, query); err != nil {
			return err
		}
		r.appendLog(fmt.Sprintf("Google search completed for %q", query), schemas.LogSuccess)
		return nil
	default:
		return fmt.Errorf("unsupported search site: %s", site)
	}
}

func (r *run) openApp(ctx context.Context, inst schemas.Instruction) error {
	alias := inst.Params.String("app", "")
	waitTime := inst.Params.Float("wait_time", 3)

	info, ok := deskResolveApp(alias)
	if !ok {
		// Unknown alias is a no-op per the dispatch contract.
		r.appendLog(fmt.Sprintf("Unknown application alias %q, skipping", alias), schemas.LogInfo)
		return nil
	}

	if r.exec.deps.Processes.IsRunning(info.ProcessName) {
		r.appendLog(fmt.Sprintf("%s is already running", alias), schemas.LogInfo)
		return nil
	}

	if err := r.exec.deps.Processes.Launch(info.Executable); err != nil {
		return fmt.Errorf("failed to open %s: %w", alias, err)
	}
	r.sleep(ctx, secondsToDuration(waitTime))
	r.appendLog(fmt.Sprintf("Opened application: %s", alias), schemas.LogSuccess)
	return nil
}

func (r *run) openURL(ctx context.Context, inst schemas.Instruction) error {
	url := inst.Params.String("url", "")
	waitTime := inst.Params.Float("wait_time", 4)

	if url == "" {
		return nil
	}

	var err error
	if r.browser != nil {
		err = r.browser.Open(ctx, url)
	} else {
		err = openInDefaultBrowser(url)
	}
	if err != nil {
		return fmt.Errorf("failed to open URL %q: %w", url, err)
	}

	r.sleep(ctx, secondsToDuration(waitTime))
	r.appendLog(fmt.Sprintf("Opened URL: %s", url), schemas.LogSuccess)
	return nil
}

func (r *run) click(_ context.Context, inst schemas.Instruction) error {
	if inst.Params.Has("x") && inst.Params.Has("y") {
		x := inst.Params.Int("x", 0)
		y := inst.Params.Int("y", 0)
		r.exec.deps.Input.Click(x, y)
		r.appendLog(fmt.Sprintf("Clicked at (%d, %d)", x, y), schemas.LogSuccess)
		return nil
	}
	r.exec.deps.Input.ClickCenter()
	r.appendLog("Clicked center of screen", schemas.LogSuccess)
	return nil
}

func (r *run) typeText(_ context.Context, inst schemas.Instruction) error {
	text := inst.Params.String("text", "")
	interval := inst.Params.Float("interval", 0.05)

	r.exec.deps.Input.TypeText(text, int(interval*1000))
	r.appendLog(fmt.Sprintf("Typed: %q", text), schemas.LogSuccess)
	return nil
}

func (r *run) screenshot(_ context.Context, inst schemas.Instruction) error {
	filename := inst.Params.String("filename", "")
	if filename == "" {
		filename = fmt.Sprintf("screenshot_%d.png", time.Now().Unix())
	}
	path := filename
	if r.exec.shots != "" && !isAbsPath(filename) {
		path = joinPath(r.exec.shots, filename)
	}

	if err := r.exec.deps.Screen.Capture(path); err != nil {
		return fmt.Errorf("screenshot failed: %w", err)
	}
	r.appendLog(fmt.Sprintf("Screenshot saved: %s", path), schemas.LogSuccess)
	return nil
}

func (r *run) wait(ctx context.Context, inst schemas.Instruction) error {
	seconds := inst.Params.Float("seconds", 1)
	r.appendLog(fmt.Sprintf("Waiting %.1f seconds...", seconds), schemas.LogInfo)
	r.sleep(ctx, secondsToDuration(seconds))
	return nil
}

func (r *run) copyToClipboard(_ context.Context, _ schemas.Instruction) error {
	if err := r.exec.deps.Input.Hotkey([]string{"ctrl", "c"}); err != nil {
		return err
	}
	r.appendLog("Copied selection to clipboard", schemas.LogSuccess)
	return nil
}

func (r *run) pasteFromClipboard(_ context.Context, _ schemas.Instruction) error {
	if err := r.exec.deps.Input.Hotkey([]string{"ctrl", "v"}); err != nil {
		return err
	}
	r.appendLog("Pasted from clipboard", schemas.LogSuccess)
	return nil
}

func (r *run) setClipboard(_ context.Context, inst schemas.Instruction) error {
	text := inst.Params.String("text", "")
	if text == "" {
		return nil
	}
	if err := r.exec.deps.Clipboard.WriteAll(text); err != nil {
		return err
	}
	r.appendLog(fmt.Sprintf("Clipboard set (%d chars)", len(text)), schemas.LogSuccess)
	return nil
}

func (r *run) scroll(_ context.Context, inst schemas.Instruction) error {
	direction := inst.Params.String("direction", "down")
	clicks := inst.Params.Int("clicks", 3)

	r.exec.deps.Input.Scroll(direction, clicks)
	r.appendLog(fmt.Sprintf("Scrolled %s", direction), schemas.LogSuccess)
	return nil
}

func (r *run) pressKey(_ context.Context, inst schemas.Instruction) error {
	key := inst.Params.String("key", "")
	if key == "" {
		return nil
	}
	if err := r.exec.deps.Input.PressKey(key); err != nil {
		return err
	}
	r.appendLog(fmt.Sprintf("Pressed: %s", key), schemas.LogSuccess)
	return nil
}

func (r *run) hotkey(_ context.Context, inst schemas.Instruction) error {
	keys := inst.Params.StringSlice("keys")
	if len(keys) == 0 {
		return nil
	}
	if err := r.exec.deps.Input.Hotkey(keys); err != nil {
		return err
	}
	r.appendLog(fmt.Sprintf("Hotkey: %v", keys), schemas.LogSuccess)
	return nil
}

// -- helpers --

func (r *run) appendLog(message string, level schemas.LogLevel) {
	r.exec.store.Append(r.sessionID, schemas.NewLogEntry(message, level))
}

// sleep blocks only this run's goroutine, never the store or other sessions.
func (r *run) sleep(ctx context.Context, dur time.Duration) {
	if dur <= 0 {
		return
	}
	select {
	case <-time.After(dur):
	case <-ctx.Done():
	}
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}
