package executor

import (
	"path/filepath"

	"github.com/pkg/browser"

	"github.com/deskpilot/deskpilot/internal/desktop"
)

// Indirection over the desktop app catalog and the OS-default browser so
// tests can swap either without touching real processes.
var (
	deskResolveApp       = desktop.ResolveApp
	openInDefaultBrowser = browser.OpenURL
)

func isAbsPath(path string) bool { return filepath.IsAbs(path) }

func joinPath(dir, name string) string { return filepath.Join(dir, name) }
