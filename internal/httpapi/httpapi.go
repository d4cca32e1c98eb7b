// Package httpapi is the coordinator's HTTP surface: health, dashboard,
// next-instruction, submit-case. A Server struct holds its
// collaborators; routes are registered in Start and shut down
// gracefully on ctx.Done().
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/antigravity-dev/corpusgen/internal/coordstate"
	"github.com/antigravity-dev/corpusgen/internal/store"
	"github.com/antigravity-dev/corpusgen/internal/validator"
)

// ErrClientProvidedTarget is returned when a submit-case body carries a
// target field of its own; the locked server target is always the
// source of truth.
var ErrClientProvidedTarget = errors.New("httpapi: client-provided target payload is rejected")

// Server is the HTTP API server.
type Server struct {
	coord      *coordstate.Coordinator
	logger     *slog.Logger
	httpServer *http.Server
	addr       string
}

// New builds a Server bound to addr.
func New(addr string, coord *coordstate.Coordinator, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{coord: coord, logger: logger, addr: addr}
}

// Start registers routes and blocks serving HTTP until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/dashboard", s.handleDashboard)
	mux.HandleFunc("/next-instruction", s.handleNextInstruction)
	mux.HandleFunc("/submit-case", s.handleSubmitCase)

	s.httpServer = &http.Server{
		Addr:        s.addr,
		Handler:     mux,
		BaseContext: func(_ net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.httpServer.Shutdown(shutCtx)
	}()

	s.logger.Info("http api starting", "addr", s.addr)
	err := s.httpServer.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// apiError is the machine-readable error shape: a kind plus a
// human-readable reason.
type apiError struct {
	Kind    string `json:"kind"`
	Reason  string `json:"reason"`
	TraceID string `json:"trace_id,omitempty"`
}

func writeError(w http.ResponseWriter, status int, kind, reason string) {
	writeJSON(w, status, apiError{Kind: kind, Reason: reason})
}

func (s *Server) writeInternalError(w http.ResponseWriter, context string, err error) {
	traceID := coordstate.TraceID()
	s.logger.Error("internal error", "context", context, "trace_id", traceID, "error", err)
	writeJSON(w, http.StatusInternalServerError, apiError{Kind: "internal_error", Reason: "an internal error occurred", TraceID: traceID})
}

// GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GET /dashboard
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.coord.Dashboard())
}

type nextInstructionResponse struct {
	InstructionID string   `json:"instruction_id"`
	TargetTOON    string   `json:"target_toon"`
	Prompt        string   `json:"prompt"`
	MustInclude   []string `json:"must_include,omitempty"`
	MustAvoid     []string `json:"must_avoid,omitempty"`
	AgentID       string   `json:"agent_id,omitempty"`
	Exhausted     bool     `json:"exhausted,omitempty"`
}

// GET|POST /next-instruction
func (s *Server) handleNextInstruction(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET and POST are supported")
		return
	}

	var agentID string
	if r.Method == http.MethodPost && r.ContentLength != 0 {
		var body struct {
			AgentID string `json:"agent_id"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")
			return
		}
		agentID = body.AgentID
	} else {
		agentID = r.URL.Query().Get("agent_id")
	}

	rec, err := s.coord.NextInstruction(r.Context(), agentID)
	if err != nil {
		switch {
		case errors.Is(err, coordstate.ErrExhausted):
			writeJSON(w, http.StatusOK, nextInstructionResponse{Exhausted: true})
		case errors.Is(err, coordstate.ErrGenerationFailed):
			writeError(w, http.StatusServiceUnavailable, "generation_failed", "target generation exhausted its retry budget, please retry")
		default:
			s.writeInternalError(w, "next-instruction", err)
		}
		return
	}

	writeJSON(w, http.StatusOK, nextInstructionResponse{
		InstructionID: rec.InstructionID,
		TargetTOON:    rec.TargetTOON,
		Prompt:        rec.Prompt,
		MustInclude:   rec.MustInclude,
		MustAvoid:     rec.MustAvoid,
		AgentID:       rec.AgentID,
	})
}

type submitCaseRequest struct {
	InstructionID string          `json:"instruction_id"`
	CaseText      string          `json:"case_text"`
	AgentID       string          `json:"agent_id,omitempty"`
	Target        json.RawMessage `json:"target,omitempty"`
}

type submitCaseResponse struct {
	Accepted          bool `json:"accepted"`
	SimilarityWarning bool `json:"similarity_warning,omitempty"`
}

// POST /submit-case
func (s *Server) handleSubmitCase(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is supported")
		return
	}

	var body submitCaseRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", "request body must be valid JSON")
		return
	}
	if body.InstructionID == "" || body.CaseText == "" {
		writeError(w, http.StatusBadRequest, "bad_request", "instruction_id and case_text are required")
		return
	}
	if len(body.Target) > 0 {
		writeError(w, http.StatusBadRequest, "legacy_target", ErrClientProvidedTarget.Error())
		return
	}

	sub, err := s.coord.SubmitCase(r.Context(), body.InstructionID, body.CaseText, body.AgentID)
	if err != nil {
		kind, reason, status, ok := classifySubmitError(err)
		if !ok {
			s.writeInternalError(w, "submit-case", err)
			return
		}
		writeError(w, status, kind, reason)
		return
	}

	writeJSON(w, http.StatusOK, submitCaseResponse{Accepted: true, SimilarityWarning: sub.SimilarityWarning})
}

func classifySubmitError(err error) (kind, reason string, status int, ok bool) {
	switch {
	case errors.Is(err, store.ErrUnknownInstruction):
		return "unknown_instruction", err.Error(), http.StatusBadRequest, true
	case errors.Is(err, store.ErrAlreadySubmitted):
		return "already_submitted", err.Error(), http.StatusBadRequest, true
	case errors.Is(err, validator.ErrLeakage):
		return "leakage", err.Error(), http.StatusBadRequest, true
	case errors.Is(err, validator.ErrMissingName):
		return "missing_name", err.Error(), http.StatusBadRequest, true
	default:
		return "", "", 0, false
	}
}
