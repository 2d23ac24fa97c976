// internal/executor/executor_test.go
package executor_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/config"
	"github.com/deskpilot/deskpilot/internal/executor"
	"github.com/deskpilot/deskpilot/internal/session"
)

// -- fakes --

type fakeInput struct {
	mu     sync.Mutex
	clicks [][2]int
	center int
	typed  []string
	keys   []string
	combos [][]string
	scroll []string
}

func (f *fakeInput) Click(x, y int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clicks = append(f.clicks, [2]int{x, y})
}
func (f *fakeInput) ClickCenter() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.center++
}
func (f *fakeInput) TypeText(text string, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.typed = append(f.typed, text)
}
func (f *fakeInput) PressKey(key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.keys = append(f.keys, key)
	return nil
}
func (f *fakeInput) Hotkey(keys []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.combos = append(f.combos, keys)
	return nil
}
func (f *fakeInput) Scroll(direction string, _ int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scroll = append(f.scroll, direction)
}

type fakeClipboard struct {
	content string
}

func (f *fakeClipboard) ReadAll() (string, error)   { return f.content, nil }
func (f *fakeClipboard) WriteAll(text string) error { f.content = text; return nil }

type fakeProcesses struct {
	running  map[string]bool
	launched []string
}

func (f *fakeProcesses) IsRunning(name string) bool { return f.running[name] }
func (f *fakeProcesses) Launch(executable string) error {
	f.launched = append(f.launched, executable)
	return nil
}

type fakeScreen struct {
	paths []string
	err   error
}

func (f *fakeScreen) Capture(path string) error {
	if f.err != nil {
		return f.err
	}
	f.paths = append(f.paths, path)
	return nil
}

type fakeDriver struct {
	searches []string
	googles  []string
	opened   []string
	quits    int
}

func (f *fakeDriver) Open(_ context.Context, url string) error {
	f.opened = append(f.opened, url)
	return nil
}
func (f *fakeDriver) SearchYouTube(_ context.Context, query string, _ bool) (string, error) {
	f.searches = append(f.searches, query)
	return "Some Video", nil
}
func (f *fakeDriver) SearchGoogle(_ context.Context, query string) error {
	f.googles = append(f.googles, query)
	return nil
}
func (f *fakeDriver) Quit() error { f.quits++; return nil }

// -- harness --

type fixture struct {
	exec    *executor.Executor
	store   *session.Store
	input   *fakeInput
	clip    *fakeClipboard
	procs   *fakeProcesses
	screen  *fakeScreen
	driver  *fakeDriver
	factory int // times the browser factory ran
}

func newFixture(t *testing.T, factoryErr error) *fixture {
	t.Helper()
	fx := &fixture{
		input:  &fakeInput{},
		clip:   &fakeClipboard{},
		procs:  &fakeProcesses{running: map[string]bool{}},
		screen: &fakeScreen{},
		driver: &fakeDriver{},
	}
	fx.store = session.NewStore(zap.NewNop())

	deps := executor.Deps{
		Input:     fx.input,
		Clipboard: fx.clip,
		Processes: fx.procs,
		Screen:    fx.screen,
		Browser: func() (schemas.BrowserDriver, error) {
			fx.factory++
			if factoryErr != nil {
				return nil, factoryErr
			}
			return fx.driver, nil
		},
	}
	cfg := config.ExecutorConfig{StepPause: time.Millisecond}
	fx.exec = executor.New(deps, fx.store, cfg, t.TempDir(), zap.NewNop())
	return fx
}

func logMessages(t *testing.T, store *session.Store, id string) []string {
	t.Helper()
	logs, _, err := store.Snapshot(id)
	require.NoError(t, err)
	msgs := make([]string, len(logs))
	for i, e := range logs {
		msgs[i] = e.Message
	}
	return msgs
}

func errorCount(t *testing.T, store *session.Store, id string) int {
	t.Helper()
	logs, _, err := store.Snapshot(id)
	require.NoError(t, err)
	n := 0
	for _, e := range logs {
		if e.Level == schemas.LogError {
			n++
		}
	}
	return n
}

// -- tests --

func TestRunDesktopOnlySkipsBrowserAcquisition(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")

	seq := schemas.Sequence{
		{Action: schemas.ActionOpenApp, Params: schemas.Params{"app": "notepad", "wait_time": 0}},
		{Action: schemas.ActionScreenshot, Params: schemas.Params{"filename": "shot.png"}},
	}

	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))

	assert.Equal(t, 0, fx.factory, "no WEB_ step means no browser acquisition")
	assert.Len(t, fx.procs.launched, 1)
	require.Len(t, fx.screen.paths, 1)
	assert.True(t, strings.HasSuffix(fx.screen.paths[0], "shot.png"))

	status, err := fx.store.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusCompleted, status)
	assert.False(t, fx.store.HasBrowser("s1"))
}

func TestRunBrowserAcquisitionFailureIsFatal(t *testing.T) {
	fx := newFixture(t, errors.New("no chrome found"))
	fx.store.Create("s1")

	seq := schemas.Sequence{
		{Action: schemas.ActionWebSearch, Params: schemas.Params{"site": "youtube", "query": "cats"}},
		{Action: schemas.ActionScreenshot},
	}

	err := fx.exec.Run(context.Background(), "s1", seq)
	require.Error(t, err)

	status, serr := fx.store.Status("s1")
	require.NoError(t, serr)
	assert.Equal(t, schemas.StatusFailed, status)

	// No step ever dispatched.
	assert.Empty(t, fx.screen.paths)
	assert.Empty(t, fx.driver.searches)
	assert.Equal(t, 1, errorCount(t, fx.store, "s1"))
}

func TestRunCanceledContextSkipsCompletionBanner(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	seq := schemas.Sequence{
		{Action: schemas.ActionPressKey, Params: schemas.Params{"key": "enter"}},
		{Action: schemas.ActionScreenshot},
	}

	require.NoError(t, fx.exec.Run(ctx, "s1", seq))

	// Nothing dispatched once the context was gone.
	assert.Empty(t, fx.input.keys)
	assert.Empty(t, fx.screen.paths)

	msgs := logMessages(t, fx.store, "s1")
	assert.NotContains(t, msgs, "All instructions completed!",
		"an interrupted run must not claim success")
	assert.Contains(t, msgs, "Run stopped before completing all instructions")

	interrupted := false
	for _, m := range msgs {
		if strings.Contains(m, "Run interrupted before step 1") {
			interrupted = true
		}
	}
	assert.True(t, interrupted, "the interruption itself should be logged")

	status, err := fx.store.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusCompleted, status)
}

func TestRunStepFailureContinuesToNextStep(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")
	fx.screen.err = errors.New("display unavailable")

	seq := schemas.Sequence{
		{Action: schemas.ActionPressKey, Params: schemas.Params{"key": "enter"}},
		{Action: schemas.ActionScreenshot},
		{Action: schemas.ActionPressKey, Params: schemas.Params{"key": "esc"}},
	}

	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))

	// Step 3 still ran after step 2 failed.
	assert.Equal(t, []string{"enter", "esc"}, fx.input.keys)
	assert.Equal(t, 1, errorCount(t, fx.store, "s1"))

	status, err := fx.store.Status("s1")
	require.NoError(t, err)
	assert.Equal(t, schemas.StatusCompleted, status)
}

func TestRunUnknownActionIsLoggedAndSkipped(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")

	seq := schemas.Sequence{
		{Action: schemas.ActionType("TELEPORT")},
		{Action: schemas.ActionPressKey, Params: schemas.Params{"key": "enter"}},
	}

	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))

	assert.Equal(t, []string{"enter"}, fx.input.keys)
	msgs := strings.Join(logMessages(t, fx.store, "s1"), "\n")
	assert.Contains(t, msgs, "unknown action: TELEPORT")
}

func TestRunAttachesBrowserInsteadOfClosing(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")

	seq := schemas.Sequence{
		{Action: schemas.ActionWebSearch, Params: schemas.Params{"site": "youtube", "query": "lofi", "auto_play": true}},
	}

	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))

	assert.Equal(t, []string{"lofi"}, fx.driver.searches)
	assert.Equal(t, 0, fx.driver.quits, "the run must hand the browser over, not close it")
	assert.True(t, fx.store.HasBrowser("s1"))

	// Closing is the store's explicit release operation.
	require.NoError(t, fx.store.ReleaseBrowser("s1"))
	assert.Equal(t, 1, fx.driver.quits)
}

func TestRunWebSearchRequiresQuery(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")

	seq := schemas.Sequence{
		{Action: schemas.ActionWebSearch, Params: schemas.Params{"site": "google"}},
	}

	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))

	assert.Empty(t, fx.driver.googles)
	assert.Equal(t, 1, errorCount(t, fx.store, "s1"))
}

func TestRunScreenshotDefaultFilename(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")

	seq := schemas.Sequence{{Action: schemas.ActionScreenshot}}
	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))

	require.Len(t, fx.screen.paths, 1)
	assert.Contains(t, fx.screen.paths[0], "screenshot_")
	assert.True(t, strings.HasSuffix(fx.screen.paths[0], ".png"))
}

func TestRunClipboardActions(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")

	seq := schemas.Sequence{
		{Action: schemas.ActionSetClipboard, Params: schemas.Params{"text": "hello"}},
		{Action: schemas.ActionCopy},
		{Action: schemas.ActionPaste},
	}

	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))

	assert.Equal(t, "hello", fx.clip.content)
	assert.Equal(t, [][]string{{"ctrl", "c"}, {"ctrl", "v"}}, fx.input.combos)
}

func TestRunOpenAppAlreadyRunning(t *testing.T) {
	fx := newFixture(t, nil)
	fx.store.Create("s1")
	fx.procs.running["gedit"] = true
	fx.procs.running["notepad"] = true

	seq := schemas.Sequence{
		{Action: schemas.ActionOpenApp, Params: schemas.Params{"app": "notepad", "wait_time": 0}},
	}

	require.NoError(t, fx.exec.Run(context.Background(), "s1", seq))
	assert.Empty(t, fx.procs.launched, "a running app must not be launched again")
}

func TestRunUnknownSessionFails(t *testing.T) {
	fx := newFixture(t, nil)

	err := fx.exec.Run(context.Background(), "ghost", schemas.Sequence{})
	require.Error(t, err)
}
