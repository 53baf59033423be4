package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/lumenlms/adapt-api/internal/api/shared"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
	"github.com/lumenlms/adapt-api/internal/redact"
	"github.com/lumenlms/adapt-api/internal/service/review"
)

// ReviewHandler handles spaced-repetition review HTTP requests.
type ReviewHandler struct {
	reviewService review.Service
	logger        *slog.Logger
}

// NewReviewHandler creates a new ReviewHandler.
func NewReviewHandler(reviewService review.Service, logger *slog.Logger) *ReviewHandler {
	if logger == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("logger cannot be nil for ReviewHandler")
	}

	return &ReviewHandler{
		reviewService: reviewService,
		logger:        logger.With(slog.String("component", "review_handler")),
	}
}

// BuildSession handles POST /reviews/session requests. It assembles a
// review session of due-first items for the authenticated examinee.
func (h *ReviewHandler) BuildSession(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, ok := getExamineeIDFromContext(r)
	if !ok {
		log.Warn("examinee ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Examinee ID not found or invalid")
		return
	}

	var req ReviewSessionRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	items, err := h.reviewService.SelectForSession(r.Context(), examineeID, req.PoolScope, req.Count)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to build review session")
		return
	}

	views := make([]ItemView, 0, len(items))
	for _, item := range items {
		views = append(views, itemToView(item))
	}

	log.Debug("review session built",
		slog.String("examinee_id", examineeID.String()),
		slog.Int("item_count", len(views)))

	shared.RespondWithJSON(w, r, http.StatusOK, views)
}

// GetDueQueue handles GET /reviews/due requests. The pool scope comes
// from the "scope" query parameter.
func (h *ReviewHandler) GetDueQueue(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, ok := getExamineeIDFromContext(r)
	if !ok {
		log.Warn("examinee ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Examinee ID not found or invalid")
		return
	}

	poolScope := r.URL.Query().Get("scope")
	if poolScope == "" {
		shared.RespondWithError(w, r, http.StatusBadRequest, "scope query parameter is required")
		return
	}

	entries, err := h.reviewService.GetDueQueue(r.Context(), examineeID, poolScope)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to get due queue")
		return
	}

	resp := make([]DueQueueEntryResponse, 0, len(entries))
	for _, entry := range entries {
		resp = append(resp, DueQueueEntryResponse{
			Item:           itemToView(entry.Item),
			Record:         recordToResponse(entry.Record),
			OverdueSeconds: int64(entry.Overdue.Seconds()),
		})
	}

	shared.RespondWithJSON(w, r, http.StatusOK, resp)
}

// RecordReview handles POST /reviews requests. It grades the answer and
// applies the scheduling update to the examinee's learning record.
func (h *ReviewHandler) RecordReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, ok := getExamineeIDFromContext(r)
	if !ok {
		log.Warn("examinee ID not found or invalid in request context")
		shared.RespondWithError(w, r, http.StatusUnauthorized, "Examinee ID not found or invalid")
		return
	}

	var req RecordReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	result, err := h.reviewService.RecordReview(
		r.Context(),
		examineeID,
		req.PoolScope,
		req.ItemID,
		req.RawAnswer,
		time.Duration(req.ResponseTimeMs)*time.Millisecond,
	)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to record review")
		return
	}

	log.Debug("review recorded",
		slog.String("examinee_id", examineeID.String()),
		slog.String("item_id", req.ItemID.String()),
		slog.Int("quality", int(result.Quality)))

	shared.RespondWithJSON(w, r, http.StatusOK, ReviewResultResponse{
		Quality: int(result.Quality),
		Record:  recordToResponse(result.Record),
	})
}

// PostponeReview handles POST /reviews/{itemID}/postpone requests.
func (h *ReviewHandler) PostponeReview(w http.ResponseWriter, r *http.Request) {
	log := logger.FromContextOrDefault(r.Context(), h.logger)

	examineeID, itemID, ok := handleExamineeIDAndPathUUID(w, r, "itemID", log)
	if !ok {
		return
	}

	var req PostponeReviewRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		log.Warn("invalid request format", slog.String("error", redact.Error(err)))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return
	}

	if err := shared.Validate.Struct(req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return
	}

	record, err := h.reviewService.PostponeReview(r.Context(), examineeID, itemID, req.Days)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to postpone review")
		return
	}

	log.Debug("review postponed",
		slog.String("examinee_id", examineeID.String()),
		slog.String("item_id", itemID.String()),
		slog.Int("days", req.Days))

	shared.RespondWithJSON(w, r, http.StatusOK, recordToResponse(record))
}
