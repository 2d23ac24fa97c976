package desktop

import (
	"fmt"

	"github.com/atotto/clipboard"

	"github.com/deskpilot/deskpilot/api/schemas"
)

// SystemClipboard backs the clipboard capability with the OS clipboard.
type SystemClipboard struct{}

var _ schemas.Clipboard = (*SystemClipboard)(nil)

// NewClipboard returns the system clipboard provider.
func NewClipboard() *SystemClipboard {
	return &SystemClipboard{}
}

// ReadAll returns the current clipboard text.
func (c *SystemClipboard) ReadAll() (string, error) {
	text, err := clipboard.ReadAll()
	if err != nil {
		return "", fmt.Errorf("clipboard read failed: %w", err)
	}
	return text, nil
}

// WriteAll replaces the clipboard contents.
func (c *SystemClipboard) WriteAll(text string) error {
	if err := clipboard.WriteAll(text); err != nil {
		return fmt.Errorf("clipboard write failed: %w", err)
	}
	return nil
}
