package desktop

import (
	"runtime"
	"strings"
)

// AppInfo describes how to launch a known desktop application and how to
// recognize it among running processes.
type AppInfo struct {
	Executable  string
	ProcessName string
}

// windowsApps and linuxApps map user-facing aliases to launchable
// executables. The alias table is intentionally small: resolving arbitrary
// application names is the language model's job, not this table's.
var windowsApps = map[string]AppInfo{
	"calc":       {Executable: "calc.exe", ProcessName: "Calculator"},
	"calculator": {Executable: "calc.exe", ProcessName: "Calculator"},
	"notepad":    {Executable: "notepad.exe", ProcessName: "notepad"},
	"paint":      {Executable: "mspaint.exe", ProcessName: "mspaint"},
	"explorer":   {Executable: "explorer.exe", ProcessName: "explorer"},
}

var linuxApps = map[string]AppInfo{
	"calc":       {Executable: "gnome-calculator", ProcessName: "gnome-calculator"},
	"calculator": {Executable: "gnome-calculator", ProcessName: "gnome-calculator"},
	"notepad":    {Executable: "gedit", ProcessName: "gedit"},
	"editor":     {Executable: "gedit", ProcessName: "gedit"},
	"paint":      {Executable: "gimp", ProcessName: "gimp"},
	"files":      {Executable: "nautilus", ProcessName: "nautilus"},
}

// ResolveApp maps a user-facing application alias to launch information.
// The second return value is false for unknown aliases.
func ResolveApp(alias string) (AppInfo, bool) {
	table := linuxApps
	if runtime.GOOS == "windows" {
		table = windowsApps
	}
	info, ok := table[strings.ToLower(strings.TrimSpace(alias))]
	return info, ok
}

// KnownApp reports whether the alias resolves on the current platform.
func KnownApp(alias string) bool {
	_, ok := ResolveApp(alias)
	return ok
}
