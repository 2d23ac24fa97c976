// Package browser drives a real Chrome instance over the DevTools protocol.
package browser

import (
	"context"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"github.com/chromedp/chromedp/kb"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/config"
)

const (
	youtubeURL = "https://www.youtube.com"
	googleURL  = "https://www.google.com"
)

// Driver owns one browser process and one tab for the lifetime of a session.
// It deliberately outlives the executor run that created it: the browser
// stays open showing the final state until an explicit Quit.
type Driver struct {
	logger *zap.Logger
	cfg    config.BrowserConfig

	allocCtx    context.Context
	allocCancel context.CancelFunc
	tabCtx      context.Context
	tabCancel   context.CancelFunc

	quitOnce sync.Once
}

var _ schemas.BrowserDriver = (*Driver)(nil)

// NewDriver launches the browser process and verifies it responds. The
// driver's lifetime is detached from the caller's context because the
// browser must survive the executor run.
func NewDriver(cfg config.BrowserConfig, logger *zap.Logger) (*Driver, error) {
	d := &Driver{
		logger: logger.Named("browser"),
		cfg:    cfg,
	}

	opts := d.buildAllocatorOptions()
	d.allocCtx, d.allocCancel = chromedp.NewExecAllocator(context.Background(), opts...)
	d.tabCtx, d.tabCancel = chromedp.NewContext(d.allocCtx)

	// Confirm the browser is alive before any instruction depends on it,
	// and hide the webdriver flag sites use to reject automated visitors.
	startCtx, cancel := context.WithTimeout(d.tabCtx, 30*time.Second)
	defer cancel()
	err := chromedp.Run(startCtx,
		chromedp.ActionFunc(func(ctx context.Context) error {
			_, err := page.AddScriptToEvaluateOnNewDocument(
				`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`,
			).Do(ctx)
			return err
		}),
		chromedp.Navigate("about:blank"),
	)
	if err != nil {
		d.Quit()
		return nil, fmt.Errorf("browser failed to start or respond: %w", err)
	}

	d.logger.Info("Browser launched successfully and is responsive.")
	return d, nil
}

// buildAllocatorOptions assembles the launch flags explicitly rather than
// relying on chromedp's defaults, suppressing the automation banner and
// adding container-friendly flags on Linux.
func (d *Driver) buildAllocatorOptions() []chromedp.ExecAllocatorOption {
	opts := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
		// Suppress the "controlled by automated software" banner.
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("exclude-switches", "enable-automation"),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("disable-extensions", true),
		chromedp.Flag("start-maximized", true),
	}

	// When using custom options, headless must be set explicitly.
	if d.cfg.Headless {
		opts = append(opts, chromedp.Headless, chromedp.DisableGPU)
	}

	// Additional flags from the config file's 'args' slice; key=value
	// arguments keep their value, bare names become boolean flags.
	for _, arg := range d.cfg.Args {
		key, value, found := strings.Cut(strings.TrimPrefix(arg, "--"), "=")
		if found {
			opts = append(opts, chromedp.Flag(key, value))
		} else {
			opts = append(opts, chromedp.Flag(key, true))
		}
	}

	if runtime.GOOS == "linux" {
		opts = append(opts,
			chromedp.NoSandbox,
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.Flag("disable-setuid-sandbox", true),
		)
	}

	return opts
}

// elementTimeout bounds every wait-for-element; a missing element fails the
// step instead of hanging the run.
func (d *Driver) elementTimeout() time.Duration {
	if d.cfg.ElementTimeout > 0 {
		return d.cfg.ElementTimeout
	}
	return 10 * time.Second
}

func (d *Driver) settleTime() time.Duration {
	if d.cfg.SettleTime > 0 {
		return d.cfg.SettleTime
	}
	return 3 * time.Second
}

// run executes chromedp actions on the session tab, bounded by both the
// caller's context and the element timeout.
func (d *Driver) run(ctx context.Context, actions ...chromedp.Action) error {
	runCtx, cancel := context.WithTimeout(d.tabCtx, d.elementTimeout())
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- chromedp.Run(runCtx, actions...) }()

	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		cancel()
		<-done
		return ctx.Err()
	}
}

// Open navigates the automated browser to the given URL.
func (d *Driver) Open(ctx context.Context, url string) error {
	d.logger.Info("Navigating", zap.String("url", url))
	if err := d.run(ctx, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("navigation to %q failed: %w", url, err)
	}
	return nil
}

// SearchYouTube submits the query in the YouTube search box and, when
// autoPlay is set, clicks the first video result. It returns the clicked
// video's title, or "" when nothing was clicked.
func (d *Driver) SearchYouTube(ctx context.Context, query string, autoPlay bool) (string, error) {
	d.logger.Info("Searching YouTube", zap.String("query", query), zap.Bool("auto_play", autoPlay))

	const searchBox = `input[name="search_query"]`
	err := d.run(ctx,
		chromedp.Navigate(youtubeURL),
		chromedp.WaitVisible(searchBox, chromedp.ByQuery),
		chromedp.Click(searchBox, chromedp.ByQuery),
		chromedp.SendKeys(searchBox, query+kb.Enter, chromedp.ByQuery),
	)
	if err != nil {
		return "", fmt.Errorf("youtube search failed: %w", err)
	}

	// Give the results page time to render.
	d.sleep(ctx, d.settleTime())

	if !autoPlay {
		d.logger.Info("Search results displayed")
		return "", nil
	}

	const firstVideo = `a#video-title`
	var title string
	err = d.run(ctx,
		chromedp.WaitVisible(firstVideo, chromedp.ByQuery),
		chromedp.AttributeValue(firstVideo, "title", &title, nil, chromedp.ByQuery),
		chromedp.Click(firstVideo, chromedp.ByQuery),
	)
	if err != nil {
		// Results are on screen even when the click misses; not fatal.
		d.logger.Warn("Could not auto-play first result", zap.Error(err))
		return "", nil
	}

	d.sleep(ctx, d.settleTime())
	d.logger.Info("Playing first result", zap.String("title", title))
	return title, nil
}

// SearchGoogle submits the query on the Google front page. Google has served
// both a textarea and an input for the search box over the years, so both
// selectors are tried.
func (d *Driver) SearchGoogle(ctx context.Context, query string) error {
	d.logger.Info("Searching Google", zap.String("query", query))

	if err := d.run(ctx, chromedp.Navigate(googleURL)); err != nil {
		return fmt.Errorf("google navigation failed: %w", err)
	}

	selectors := []string{`textarea[name="q"]`, `input[name="q"]`}
	var lastErr error
	for _, sel := range selectors {
		err := d.run(ctx,
			chromedp.WaitVisible(sel, chromedp.ByQuery),
			chromedp.SendKeys(sel, query+kb.Enter, chromedp.ByQuery),
		)
		if err == nil {
			d.sleep(ctx, d.settleTime())
			return nil
		}
		lastErr = err
	}
	return fmt.Errorf("google search box not found: %w", lastErr)
}

// sleep pauses without outliving the caller's context.
func (d *Driver) sleep(ctx context.Context, dur time.Duration) {
	select {
	case <-time.After(dur):
	case <-ctx.Done():
	}
}

// Quit tears down the tab and the browser process. Idempotent.
func (d *Driver) Quit() error {
	d.quitOnce.Do(func() {
		d.logger.Info("Closing browser.")
		if d.tabCancel != nil {
			d.tabCancel()
		}
		if d.allocCancel != nil {
			d.allocCancel()
		}
	})
	return nil
}
