// Package desktop binds the capability provider interfaces to the real
// operating system: input simulation, clipboard, process control, and screen
// capture. Everything here is process-wide; there is exactly one desktop.
package desktop

import (
	"fmt"
	"strings"

	"github.com/go-vgo/robotgo"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
)

// Input simulates mouse and keyboard events through robotgo.
type Input struct {
	logger *zap.Logger
}

var _ schemas.DesktopInput = (*Input)(nil)

// NewInput returns the desktop input provider.
func NewInput(logger *zap.Logger) *Input {
	return &Input{logger: logger.Named("desktop.input")}
}

// Click moves the pointer to the given screen coordinates and clicks.
func (in *Input) Click(x, y int) {
	robotgo.Move(x, y)
	robotgo.Click("left")
	in.logger.Debug("Clicked", zap.Int("x", x), zap.Int("y", y))
}

// ClickCenter clicks the middle of the primary screen.
func (in *Input) ClickCenter() {
	w, h := robotgo.GetScreenSize()
	in.Click(w/2, h/2)
}

// TypeText types the text one rune at a time with the given inter-character
// delay in milliseconds.
func (in *Input) TypeText(text string, intervalMs int) {
	for _, r := range text {
		robotgo.TypeStr(string(r))
		if intervalMs > 0 {
			robotgo.MilliSleep(intervalMs)
		}
	}
	in.logger.Debug("Typed text", zap.Int("chars", len(text)))
}

// PressKey taps a single key by name.
func (in *Input) PressKey(key string) error {
	key = strings.ToLower(strings.TrimSpace(key))
	if key == "" {
		return fmt.Errorf("empty key name")
	}
	if err := robotgo.KeyTap(key); err != nil {
		return fmt.Errorf("key tap %q failed: %w", key, err)
	}
	return nil
}

// Hotkey presses a key combination. The convention follows the usual
// modifiers-first order ("ctrl", "c"), so the final element is the key and
// everything before it is a modifier.
func (in *Input) Hotkey(keys []string) error {
	if len(keys) == 0 {
		return fmt.Errorf("empty key combination")
	}

	key := strings.ToLower(keys[len(keys)-1])
	mods := make([]interface{}, 0, len(keys)-1)
	for _, m := range keys[:len(keys)-1] {
		mods = append(mods, strings.ToLower(m))
	}

	if err := robotgo.KeyTap(key, mods...); err != nil {
		return fmt.Errorf("hotkey %s failed: %w", strings.Join(keys, "+"), err)
	}
	return nil
}

// Scroll scrolls the viewport. Direction is "up" or "down"; anything else is
// treated as down, matching the generator's defaults.
func (in *Input) Scroll(direction string, clicks int) {
	if clicks <= 0 {
		clicks = 3
	}
	dir := "down"
	if strings.EqualFold(direction, "up") {
		dir = "up"
	}
	robotgo.ScrollDir(clicks, dir)
	in.logger.Debug("Scrolled", zap.String("direction", dir), zap.Int("clicks", clicks))
}
