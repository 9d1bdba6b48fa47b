package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"stresscheck/internal/analysis"
	apperrors "stresscheck/internal/common/errors"
	"stresscheck/internal/common/logger"
)

const savedMessage = "Responses saved successfully"

type Handler struct {
	opts   Options
	logger logger.Logger
}

// SaveResponseBody is returned by POST /api/save-response. Analysis is null
// when the submission held no answer text.
type SaveResponseBody struct {
	Message      string                   `json:"message"`
	TranscriptID string                   `json:"transcriptId,omitempty"`
	Analysis     *analysis.AnalysisResult `json:"analysis"`
}

// AnalyzeBody is returned by POST /api/analyze.
type AnalyzeBody struct {
	Analysis *analysis.AnalysisResult `json:"analysis"`
}

type errorBody struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Questions handles GET /api/questions
func (h *Handler) Questions(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, analysis.Questions())
}

// SaveResponse handles POST /api/save-response: persist, then analyze.
func (h *Handler) SaveResponse(w http.ResponseWriter, r *http.Request) {
	if h.opts.Store == nil {
		writeError(w, http.StatusServiceUnavailable, "transcript store not configured", "")
		return
	}

	rs, ok := h.readResponses(w, r)
	if !ok {
		return
	}

	saved, err := h.opts.Store.Save(r.Context(), rs)
	if err != nil {
		h.writeAppError(w, err)
		return
	}

	result, ok := h.analyze(w, r, saved.Responses)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, SaveResponseBody{
		Message:      savedMessage,
		TranscriptID: saved.ID,
		Analysis:     result,
	})
}

// Analyze handles POST /api/analyze: analyze without persisting.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	rs, ok := h.readResponses(w, r)
	if !ok {
		return
	}
	result, ok := h.analyze(w, r, rs)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, AnalyzeBody{Analysis: result})
}

// analyze maps input errors to a nil result and writes every other failure.
// The bool is false when a response has already been written.
func (h *Handler) analyze(w http.ResponseWriter, r *http.Request, rs analysis.ResponseSet) (*analysis.AnalysisResult, bool) {
	result, err := h.opts.Analyzer.Analyze(r.Context(), rs)
	if err != nil {
		if apperrors.IsInputError(err) {
			return nil, true
		}
		h.writeAppError(w, err)
		return nil, false
	}
	h.notify(r.Context(), result)
	return result, true
}

func (h *Handler) notify(ctx context.Context, result *analysis.AnalysisResult) {
	if h.opts.Notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), h.opts.AlertTimeout)
	defer cancel()

	if _, err := h.opts.Notifier.Notify(ctx, result, "api"); err != nil {
		h.logger.Warn("stress alert not delivered", map[string]interface{}{
			"analysisId": result.AnalysisID,
			"error":      err,
		})
	}
}

func (h *Handler) readResponses(w http.ResponseWriter, r *http.Request) (analysis.ResponseSet, bool) {
	raw, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.opts.MaxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "request body too large", string(apperrors.ErrCodeInputMalformed))
			return nil, false
		}
		writeError(w, http.StatusBadRequest, "could not read request body", string(apperrors.ErrCodeInputMalformed))
		return nil, false
	}

	rs, err := analysis.ParseResponseSet(raw)
	if err != nil {
		h.writeAppError(w, err)
		return nil, false
	}
	return rs, true
}

func (h *Handler) writeAppError(w http.ResponseWriter, err error) {
	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		stdErr = apperrors.NewInternalError(err)
	}

	status := http.StatusInternalServerError
	switch {
	case apperrors.IsInputError(stdErr):
		status = http.StatusBadRequest
	case apperrors.IsClassifierError(stdErr):
		status = http.StatusServiceUnavailable
	case stdErr.Code == apperrors.ErrCodeTranscriptNotFound:
		status = http.StatusNotFound
	}

	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", map[string]interface{}{
			"errorCode": stdErr.Code,
			"error":     err,
		})
	}

	msg := stdErr.Message
	if stdErr.Details != "" && status == http.StatusBadRequest {
		msg = stdErr.Message + ": " + stdErr.Details
	}
	writeError(w, status, msg, string(stdErr.Code))
}

// Health handles GET /health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": h.opts.Version,
		"time":    time.Now().Format(time.RFC3339),
	})
}

// Ready handles GET /ready. Every readiness check must pass.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	checks := make(map[string]string, len(h.opts.ReadinessChecks))
	status := http.StatusOK
	for name, check := range h.opts.ReadinessChecks {
		if err := check(ctx); err != nil {
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
		"time":   time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(v)
}

func writeError(w http.ResponseWriter, status int, message, code string) {
	writeJSON(w, status, errorBody{Error: message, Code: code})
}
