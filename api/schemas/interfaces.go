package schemas

import "context"

// -- Capability Provider Interfaces --
//
// The executor depends on these contracts rather than on concrete automation
// libraries, so tests run against fakes and the platform bindings stay in one
// place.

// LLMClient sends a prompt to a language model backend and returns the raw
// generated text. Implementations handle their own transport retries; a
// returned error means the backend is effectively unavailable for this call.
type LLMClient interface {
	Generate(ctx context.Context, prompt string) (string, error)
	// Reachable probes the backend without generating. Used by the status
	// endpoint and by the generator to short-circuit to the fallback path.
	Reachable(ctx context.Context) bool
}

// BrowserDriver is the automated-browser capability. A driver instance is
// exclusively owned by the executor (then session store) that created it and
// must not be shared across sessions.
type BrowserDriver interface {
	Open(ctx context.Context, url string) error
	// SearchYouTube submits the query on youtube.com and, when autoPlay is
	// set, clicks the first result. It returns the clicked video title, or
	// "" when nothing was clicked.
	SearchYouTube(ctx context.Context, query string, autoPlay bool) (string, error)
	SearchGoogle(ctx context.Context, query string) error
	// Quit tears the browser down. Safe to call more than once.
	Quit() error
}

// DesktopInput simulates mouse and keyboard events against the real desktop.
// These are process-wide by nature: concurrent sessions driving the desktop
// interfere at the OS level, which the design accepts.
type DesktopInput interface {
	Click(x, y int)
	ClickCenter()
	TypeText(text string, intervalMs int)
	PressKey(key string) error
	Hotkey(keys []string) error
	Scroll(direction string, clicks int)
}

// Clipboard reads and writes the system clipboard.
type Clipboard interface {
	ReadAll() (string, error)
	WriteAll(text string) error
}

// ProcessControl launches and probes desktop applications.
type ProcessControl interface {
	IsRunning(name string) bool
	Launch(executable string) error
}

// ScreenCapture grabs and persists screenshots.
type ScreenCapture interface {
	Capture(path string) error
}
