package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"go.uber.org/zap"

	"github.com/deskpilot/deskpilot/api/schemas"
	"github.com/deskpilot/deskpilot/internal/session"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// InstructionGenerator turns a natural-language task into an instruction
// sequence.
type InstructionGenerator interface {
	Generate(ctx context.Context, task string) (schemas.Sequence, error)
}

// InstructionExecutor plays a sequence back for a session.
type InstructionExecutor interface {
	Run(ctx context.Context, sessionID string, seq schemas.Sequence) error
}

// Handlers contains all HTTP handler implementations.
type Handlers struct {
	generator InstructionGenerator
	executor  InstructionExecutor
	store     *session.Store
	probes    Probes
	logger    *zap.Logger
}

// NewHandlers creates the handler set.
func NewHandlers(gen InstructionGenerator, exec InstructionExecutor, store *session.Store, probes Probes, logger *zap.Logger) *Handlers {
	return &Handlers{
		generator: gen,
		executor:  exec,
		store:     store,
		probes:    probes,
		logger:    logger.Named("handlers"),
	}
}

// HandleGenerate generates an instruction plan for a task and opens a
// session for it. Nothing executes yet; the client reviews the plan first.
func (h *Handlers) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	var req schemas.GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, schemas.GenerateResponse{
			Success: false, Error: "invalid request body",
		})
		return
	}

	task := strings.TrimSpace(req.Task)
	if task == "" {
		writeJSON(w, http.StatusBadRequest, schemas.GenerateResponse{
			Success: false, Error: "No task provided",
		})
		return
	}

	seq, err := h.generator.Generate(r.Context(), task)
	if err != nil {
		h.logger.Warn("Instruction generation failed", zap.String("task", task), zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, schemas.GenerateResponse{
			Success: false, Error: err.Error(),
		})
		return
	}

	sessionID := uuid.New().String()
	h.store.Create(sessionID)

	writeJSON(w, http.StatusOK, schemas.GenerateResponse{
		Success:      true,
		Instructions: seq,
		SessionID:    sessionID,
		Count:        len(seq),
	})
}

// HandleExecute starts asynchronous execution of a sequence and returns
// immediately. The client follows progress via the logs endpoint.
func (h *Handlers) HandleExecute(w http.ResponseWriter, r *http.Request) {
	var req schemas.ExecuteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, schemas.ExecuteResponse{
			Success: false, Error: "invalid request body",
		})
		return
	}

	if len(req.Instructions) == 0 {
		writeJSON(w, http.StatusBadRequest, schemas.ExecuteResponse{
			Success: false, Error: "No instructions provided",
		})
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}
	h.store.Create(sessionID)

	// Detached from the request context: execution outlives the HTTP
	// exchange by design.
	go func() {
		if err := h.executor.Run(context.Background(), sessionID, req.Instructions); err != nil {
			h.logger.Error("Execution run failed",
				zap.String("session_id", sessionID), zap.Error(err))
		}
	}()

	writeJSON(w, http.StatusOK, schemas.ExecuteResponse{
		Success:   true,
		SessionID: sessionID,
		Message:   "Execution started",
	})
}

// HandleLogs returns the current log snapshot and status for a session.
func (h *Handlers) HandleLogs(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	logs, status, err := h.store.Snapshot(sessionID)
	if err != nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "session not found"})
		return
	}

	writeJSON(w, http.StatusOK, schemas.LogsResponse{Logs: logs, Status: status})
}

// HandleCloseBrowser closes the browser held open for a session.
func (h *Handlers) HandleCloseBrowser(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("session_id")

	if err := h.store.ReleaseBrowser(sessionID); err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			writeJSON(w, http.StatusNotFound, schemas.CloseBrowserResponse{
				Success: false, Error: "No browser session found",
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, schemas.CloseBrowserResponse{
			Success: false, Error: err.Error(),
		})
		return
	}

	writeJSON(w, http.StatusOK, schemas.CloseBrowserResponse{
		Success: true, Message: "Browser closed",
	})
}

// HandleStatus reports which capabilities are currently available.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, schemas.StatusResponse{
		LLMBackendReachable:    h.probes.LLMReachable(r.Context()),
		WebAutomationAvailable: h.probes.WebAutomation(),
		SpeechAvailable:        h.probes.Speech(),
		TTSAvailable:           h.probes.TTS(),
	})
}

// HandleExamples lists canned example tasks for the front-end.
func (h *Handlers) HandleExamples(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, schemas.ExamplesResponse{Examples: exampleTasks})
}

// HandleHealth is a liveness check.
func (h *Handlers) HandleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

var exampleTasks = []string{
	"play despacito on youtube",
	"search for weather forecast on google",
	"open calculator",
	"open notepad and take a screenshot",
	"play some music and open calculator",
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
