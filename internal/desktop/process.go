package desktop

import (
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/shirou/gopsutil/v4/process"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
)

// Processes launches and probes desktop applications. Launched handles are
// tracked so Teardown can terminate anything still running.
type Processes struct {
	logger *zap.Logger

	mu       sync.Mutex
	launched []*exec.Cmd
}

var _ schemas.ProcessControl = (*Processes)(nil)

// NewProcesses returns the process control provider.
func NewProcesses(logger *zap.Logger) *Processes {
	return &Processes{logger: logger.Named("desktop.process")}
}

// IsRunning reports whether any running process name contains the given name
// (case-insensitive substring match, the way desktop app names behave in
// practice).
func (p *Processes) IsRunning(name string) bool {
	if name == "" {
		return false
	}
	procs, err := process.Processes()
	if err != nil {
		p.logger.Debug("Process enumeration failed", zap.Error(err))
		return false
	}

	needle := strings.ToLower(name)
	for _, proc := range procs {
		pname, err := proc.Name()
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(pname), needle) {
			return true
		}
	}
	return false
}

// Launch starts the executable without waiting for it to exit.
func (p *Processes) Launch(executable string) error {
	if executable == "" {
		return fmt.Errorf("empty executable name")
	}

	cmd := exec.Command(executable)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to launch %q: %w", executable, err)
	}

	p.mu.Lock()
	p.launched = append(p.launched, cmd)
	p.mu.Unlock()

	p.logger.Info("Launched application", zap.String("executable", executable), zap.Int("pid", cmd.Process.Pid))

	// Reap the child when it exits so it never lingers as a zombie.
	go func() { _ = cmd.Wait() }()
	return nil
}

// Teardown terminates every process this provider launched that is still
// alive. Errors are logged and swallowed; teardown is best effort.
func (p *Processes) Teardown() {
	p.mu.Lock()
	launched := p.launched
	p.launched = nil
	p.mu.Unlock()

	for _, cmd := range launched {
		if cmd.Process == nil {
			continue
		}
		if err := cmd.Process.Kill(); err != nil {
			p.logger.Debug("Process already gone", zap.Int("pid", cmd.Process.Pid), zap.Error(err))
		}
	}
}
