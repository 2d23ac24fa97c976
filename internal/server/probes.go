package server

import (
	"context"
	"os/exec"
	"time"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/config"
)

// Probes answers the capability questions behind GET /api/status. Each probe
// is a field so tests can stub individual capabilities.
type Probes struct {
	LLMReachable  func(ctx context.Context) bool
	WebAutomation func() bool
	Speech        func() bool
	TTS           func() bool
}

// chromeBinaries are the executables the browser driver can attach to, in
// preference order.
var chromeBinaries = []string{
	"google-chrome",
	"google-chrome-stable",
	"chromium",
	"chromium-browser",
	"chrome",
}

// NewProbes builds the default capability probes from the configuration and
// the LLM client.
func NewProbes(llm schemas.LLMClient, speech config.SpeechConfig) Probes {
	return Probes{
		LLMReachable: func(ctx context.Context) bool {
			probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()
			return llm.Reachable(probeCtx)
		},
		WebAutomation: func() bool {
			for _, bin := range chromeBinaries {
				if _, err := exec.LookPath(bin); err == nil {
					return true
				}
			}
			return false
		},
		Speech: func() bool {
			if !speech.Enabled {
				return false
			}
			_, err := exec.LookPath(speech.RecordBinary)
			return err == nil
		},
		TTS: func() bool {
			if !speech.Enabled {
				return false
			}
			_, err := exec.LookPath(speech.TTSBinary)
			return err == nil
		},
	}
}
