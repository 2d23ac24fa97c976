package desktop

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
)

// Screen captures and persists screenshots of the primary display.
type Screen struct {
	logger *zap.Logger
}

var _ schemas.ScreenCapture = (*Screen)(nil)

// NewScreen returns the screenshot provider.
func NewScreen(logger *zap.Logger) *Screen {
	return &Screen{logger: logger.Named("desktop.screen")}
}

// Capture grabs the full screen and writes it to path as PNG, creating the
// parent directory if needed.
func (s *Screen) Capture(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create screenshot directory %q: %w", dir, err)
		}
	}

	img := robotgo.CaptureImg()
	if img == nil {
		return fmt.Errorf("screen capture returned no image")
	}

	if err := robotgo.Save(img, path); err != nil {
		return fmt.Errorf("failed to save screenshot to %q: %w", path, err)
	}

	s.logger.Info("Screenshot saved", zap.String("path", path))
	return nil
}
