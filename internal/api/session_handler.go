// Package api provides HTTP handlers for the API.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lumenlms/adapt-api/internal/api/shared"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
	"github.com/lumenlms/adapt-api/internal/redact"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
)

// SessionHandler handles adaptive session HTTP requests.
type SessionHandler struct {
	assessmentService assessment.Service
	logger            *slog.Logger
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(
	assessmentService assessment.Service,
	logger *slog.Logger,
) *SessionHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for SessionHandler")
	}

	return &SessionHandler{
		assessmentService: assessmentService,
		logger:            logger.With(slog.String("component", "session_handler")),
	}
}

// StartSession handles POST /sessions requests. It opens a new adaptive
// session for the authenticated examinee and returns the first item.
func (h *SessionHandler) StartSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, ok := getExamineeIDFromContext(r)
	if !ok {
		log.Warn("examinee ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Examinee ID not found or invalid")
		return
	}

	var req StartSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("examinee_id", examineeID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.assessmentService.StartSession(r.Context(), examineeID, req.PoolScope)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to start session")
		return
	}

	log.Debug("session started",
		slog.String("examinee_id", examineeID.String()),
		slog.String("session_id", result.Session.ID.String()),
		slog.String("pool_scope", req.PoolScope))

	shared.RespondWithJSON(w, r, http.StatusCreated, StartSessionResponse{
		SessionID: result.Session.ID,
		Status:    result.Session.Status,
		Item:      itemToView(result.Item),
	})
}

// SubmitResponse handles POST /sessions/{id}/responses requests. It grades
// the answer for the session's active item and returns either the next
// item or the termination outcome.
func (h *SessionHandler) SubmitResponse(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, sessionID, ok := handleExamineeIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	var req SubmitResponseRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format",
			slog.String("error", redact.Error(err)),
			slog.String("session_id", sessionID.String()))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.assessmentService.SubmitResponse(
		r.Context(),
		sessionID,
		examineeID,
		req.ItemID,
		req.RawAnswer,
		time.Duration(req.ResponseTimeMs)*time.Millisecond,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to submit response")
		return
	}

	resp := SubmitResponseResponse{
		SessionID:     result.Session.ID,
		IsCorrect:     result.Grade.IsCorrect,
		Score:         result.Grade.Score,
		Theta:         result.Session.Estimate.Theta,
		StandardError: result.Session.Estimate.StandardError,
		Administered:  len(result.Session.History),
		Terminated:    result.Terminated,
		Reason:        result.Reason,
	}
	if result.NextItem != nil {
		view := itemToView(*result.NextItem)
		resp.NextItem = &view
	}

	log.Debug("response submitted",
		slog.String("session_id", sessionID.String()),
		slog.Bool("is_correct", result.Grade.IsCorrect),
		slog.Bool("terminated", result.Terminated))

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// AbandonSession handles POST /sessions/{id}/abandon requests.
func (h *SessionHandler) AbandonSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, sessionID, ok := handleExamineeIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	session, err := h.assessmentService.AbandonSession(r.Context(), sessionID, examineeID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to abandon session")
		return
	}

	log.Info("session abandoned",
		slog.String("session_id", sessionID.String()),
		slog.String("examinee_id", examineeID.String()))

	shared.RespondWithJSON(w, r, http.StatusOK, sessionToResponse(session))
}

// GetProgress handles GET /sessions/{id} requests.
func (h *SessionHandler) GetProgress(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, sessionID, ok := handleExamineeIDAndPathUUID(w, r, "id", log)
	if !ok {
		return
	}

	progress, err := h.assessmentService.GetProgress(r.Context(), sessionID, examineeID)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get session progress")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, progress)
}
