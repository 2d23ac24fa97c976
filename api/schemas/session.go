package schemas

import "time"

// -- Session Schemas --

// SessionStatus tracks one execution run through its lifecycle. Transitions
// are monotonic: pending -> running -> {completed, failed}.
type SessionStatus string

const (
	StatusPending   SessionStatus = "pending"
	StatusRunning   SessionStatus = "running"
	StatusCompleted SessionStatus = "completed"
	StatusFailed    SessionStatus = "failed"
)

// Terminal reports whether the status permits no further transition.
func (s SessionStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// LogLevel classifies a session log entry.
type LogLevel string

const (
	LogInfo    LogLevel = "info"
	LogSuccess LogLevel = "success"
	LogError   LogLevel = "error"
)

// LogEntry is one timestamped line in a session's append-only log. The log
// stream is the primary diagnostic surface; terminal status is deliberately
// coarser.
type LogEntry struct {
	Timestamp string   `json:"timestamp"`
	Message   string   `json:"message"`
	Level     LogLevel `json:"level"`
}

// NewLogEntry stamps a log entry with the wall-clock time in the HH:MM:SS
// layout the web UI renders.
func NewLogEntry(message string, level LogLevel) LogEntry {
	return LogEntry{
		Timestamp: time.Now().Format("15:04:05"),
		Message:   message,
		Level:     level,
	}
}

// -- Wire Schemas (HTTP surface) --

// GenerateRequest is the body of POST /api/generate.
type GenerateRequest struct {
	Task string `json:"task"`
}

// GenerateResponse carries a freshly generated instruction plan.
type GenerateResponse struct {
	Success      bool     `json:"success"`
	Instructions Sequence `json:"instructions,omitempty"`
	SessionID    string   `json:"session_id,omitempty"`
	Count        int      `json:"count,omitempty"`
	Error        string   `json:"error,omitempty"`
}

// ExecuteRequest is the body of POST /api/execute.
type ExecuteRequest struct {
	Instructions Sequence `json:"instructions"`
	SessionID    string   `json:"session_id,omitempty"`
}

// ExecuteResponse acknowledges an asynchronous launch; it never waits for
// completion.
type ExecuteResponse struct {
	Success   bool   `json:"success"`
	SessionID string `json:"session_id,omitempty"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
}

// LogsResponse is the polling payload of GET /api/logs/{session_id}.
type LogsResponse struct {
	Logs   []LogEntry    `json:"logs"`
	Status SessionStatus `json:"status"`
}

// CloseBrowserResponse reports the outcome of a close-browser request.
type CloseBrowserResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// StatusResponse is the capability probe payload of GET /api/status.
type StatusResponse struct {
	LLMBackendReachable    bool `json:"llm_backend_reachable"`
	WebAutomationAvailable bool `json:"web_automation_available"`
	SpeechAvailable        bool `json:"speech_available"`
	TTSAvailable           bool `json:"tts_available"`
}

// ExamplesResponse lists canned example tasks for the front-end.
type ExamplesResponse struct {
	Examples []string `json:"examples"`
}
