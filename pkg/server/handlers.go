package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/koztechie/svitlogics/pkg/analysis"
	"github.com/koztechie/svitlogics/pkg/cascade"
	"github.com/koztechie/svitlogics/pkg/prompt"
	"github.com/koztechie/svitlogics/pkg/store"
	"github.com/koztechie/svitlogics/pkg/taskqueue"
)

type analyzeRequest struct {
	Text     string `json:"text"`
	Language string `json:"language"`
}

func (s *Server) decodeAnalyzeRequest(w http.ResponseWriter, r *http.Request) (analysis.Request, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return analysis.Request{}, false
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return analysis.Request{}, false
	}
	lang, err := analysis.ParseLanguage(req.Language)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return analysis.Request{}, false
	}
	system, err := prompt.System(lang)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return analysis.Request{}, false
	}
	return analysis.Request{Text: req.Text, Language: lang, SystemPrompt: system}, true
}

// handleAnalyze is the synchronous shape: the caller blocks on the full
// cascade and receives the terminal result or error directly.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cascadeTimeout)
	defer cancel()

	result, err := s.orch.Analyze(ctx, req)
	if err != nil {
		s.writeAnalyzeError(w, req.Language, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) writeAnalyzeError(w http.ResponseWriter, lang analysis.Language, err error) {
	switch {
	case errors.Is(err, cascade.ErrNoModelFits):
		msg := err.Error()
		if max, merr := s.orch.MaxChars(lang); merr == nil && max > 0 {
			msg = err.Error() + ": the current limit is " + strconv.Itoa(max) + " characters"
		}
		writeError(w, http.StatusRequestEntityTooLarge, msg)
	case errors.Is(err, cascade.ErrNoModelsAvailable),
		errors.Is(err, cascade.ErrCascadeExhausted):
		writeError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		writeError(w, http.StatusGatewayTimeout, "analysis timed out")
	default:
		var fatal *cascade.FatalError
		if errors.As(err, &fatal) {
			// Surfaced verbatim: these indicate a request-shape problem
			// worth debugging, not a capacity condition.
			writeError(w, http.StatusBadGateway, fatal.Error())
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

type triggerResponse struct {
	TaskID string `json:"taskId"`
}

// handleTrigger is the asynchronous shape's entry: accept, enqueue, return
// the task ID immediately. An enqueue failure is a 503, distinct from any
// later analysis failure, which only the status endpoint reports.
func (s *Server) handleTrigger(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	req, ok := s.decodeAnalyzeRequest(w, r)
	if !ok {
		return
	}

	task := &taskqueue.Task{
		ID:           uuid.NewString(),
		Text:         req.Text,
		Language:     req.Language,
		SystemPrompt: req.SystemPrompt,
		EnqueuedAt:   time.Now().UTC(),
	}
	if err := s.queue.Enqueue(r.Context(), task); err != nil {
		s.logger.Error("enqueue failed", zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "could not accept analysis task")
		return
	}

	s.logger.Info("task accepted",
		zap.String("task_id", task.ID),
		zap.String("language", string(task.Language)))
	writeJSON(w, http.StatusAccepted, triggerResponse{TaskID: task.ID})
}

// handleStatus reports a task's terminal record, or pending when the key is
// absent. Reads never mutate store state; polling is idempotent.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	taskID := r.URL.Query().Get("taskId")
	if taskID == "" {
		writeError(w, http.StatusBadRequest, "taskId is required")
		return
	}

	rec, err := s.store.Get(r.Context(), taskID)
	if errors.Is(err, store.ErrNotFound) {
		writeJSON(w, http.StatusAccepted, store.TaskRecord{Status: store.StatusPending})
		return
	}
	if err != nil {
		s.logger.Error("status read failed", zap.String("task_id", taskID), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "could not read task status")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type limitsResponse struct {
	Language string       `json:"language"`
	MaxChars int          `json:"maxChars"`
	Models   []modelLimit `json:"models"`
}

type modelLimit struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
	MaxChars    int    `json:"maxChars"`
}

// handleLimits exposes the per-model character budgets so the UI can show
// users how much text fits before they submit.
func (s *Server) handleLimits(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	lang, err := analysis.ParseLanguage(r.URL.Query().Get("language"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	limits, err := s.orch.ModelLimits(lang)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := limitsResponse{Language: string(lang)}
	for _, l := range limits {
		resp.Models = append(resp.Models, modelLimit{
			ID:          l.Model.ID,
			DisplayName: l.Model.DisplayName,
			MaxChars:    l.MaxChars,
		})
		if l.MaxChars > resp.MaxChars {
			resp.MaxChars = l.MaxChars
		}
	}
	writeJSON(w, http.StatusOK, resp)
}
