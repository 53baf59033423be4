package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
)

// Common request/response structures

// RegisterRequest defines the payload for the examinee registration endpoint.
type RegisterRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=12,max=72"`
}

// LoginRequest defines the payload for the examinee login endpoint.
type LoginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// AuthResponse defines the successful response for authentication endpoints.
type AuthResponse struct {
	ExamineeID uuid.UUID `json:"examinee_id"`
	Token      string    `json:"token"`
}

// StartSessionRequest defines the payload for starting an adaptive session.
type StartSessionRequest struct {
	PoolScope string `json:"pool_scope" validate:"required,min=1,max=255"`
}

// SubmitResponseRequest defines the payload for answering the active item.
type SubmitResponseRequest struct {
	ItemID         uuid.UUID `json:"item_id"          validate:"required"`
	RawAnswer      string    `json:"raw_answer"       validate:"required"`
	ResponseTimeMs int64     `json:"response_time_ms" validate:"min=0"`
}

// ItemView is the examinee-facing projection of an item. Calibration
// parameters stay server-side.
type ItemView struct {
	ID            uuid.UUID `json:"id"`
	CompetencyTag string    `json:"competency_tag,omitempty"`
}

func itemToView(item domain.Item) ItemView {
	return ItemView{
		ID:            item.ID,
		CompetencyTag: item.CompetencyTag,
	}
}

// StartSessionResponse defines the successful response for session start.
type StartSessionResponse struct {
	SessionID uuid.UUID            `json:"session_id"`
	Status    domain.SessionStatus `json:"status"`
	Item      ItemView             `json:"item"`
}

// SubmitResponseResponse defines the successful response for a graded
// submission. NextItem is absent when the session terminated.
type SubmitResponseResponse struct {
	SessionID     uuid.UUID                `json:"session_id"`
	IsCorrect     bool                     `json:"is_correct"`
	Score         float64                  `json:"score"`
	Theta         float64                  `json:"theta"`
	StandardError float64                  `json:"standard_error"`
	Administered  int                      `json:"administered"`
	NextItem      *ItemView                `json:"next_item,omitempty"`
	Terminated    bool                     `json:"terminated"`
	Reason        domain.TerminationReason `json:"reason,omitempty"`
}

// SessionResponse is the full session snapshot returned by abandon.
type SessionResponse struct {
	SessionID     uuid.UUID                `json:"session_id"`
	Status        domain.SessionStatus     `json:"status"`
	Reason        domain.TerminationReason `json:"reason,omitempty"`
	Theta         float64                  `json:"theta"`
	StandardError float64                  `json:"standard_error"`
	Administered  int                      `json:"administered"`
}

func sessionToResponse(session *domain.SessionState) SessionResponse {
	return SessionResponse{
		SessionID:     session.ID,
		Status:        session.Status,
		Reason:        session.Reason,
		Theta:         session.Estimate.Theta,
		StandardError: session.Estimate.StandardError,
		Administered:  len(session.History),
	}
}

// ReviewSessionRequest defines the payload for building a review session.
// A zero count uses the server's configured session size.
type ReviewSessionRequest struct {
	PoolScope string `json:"pool_scope" validate:"required,min=1,max=255"`
	Count     int    `json:"count"      validate:"min=0"`
}

// RecordReviewRequest defines the payload for recording a review answer.
type RecordReviewRequest struct {
	PoolScope      string    `json:"pool_scope"       validate:"required,min=1,max=255"`
	ItemID         uuid.UUID `json:"item_id"          validate:"required"`
	RawAnswer      string    `json:"raw_answer"       validate:"required"`
	ResponseTimeMs int64     `json:"response_time_ms" validate:"min=0"`
}

// PostponeReviewRequest defines the payload for postponing an item's review.
type PostponeReviewRequest struct {
	Days int `json:"days" validate:"required,min=1"`
}

// LearningRecordResponse is the examinee-facing view of scheduling state.
type LearningRecordResponse struct {
	ItemID             uuid.UUID `json:"item_id"`
	EaseFactor         float64   `json:"ease_factor"`
	IntervalDays       int       `json:"interval_days"`
	ConsecutiveCorrect int       `json:"consecutive_correct"`
	ReviewCount        int       `json:"review_count"`
	LastReviewedAt     time.Time `json:"last_reviewed_at"`
	NextReviewAt       time.Time `json:"next_review_at"`
}

func recordToResponse(record *domain.LearningRecord) LearningRecordResponse {
	return LearningRecordResponse{
		ItemID:             record.ItemID,
		EaseFactor:         record.EaseFactor,
		IntervalDays:       record.IntervalDays,
		ConsecutiveCorrect: record.ConsecutiveCorrect,
		ReviewCount:        record.ReviewCount,
		LastReviewedAt:     record.LastReviewedAt,
		NextReviewAt:       record.NextReviewAt,
	}
}

// ReviewResultResponse defines the successful response for a recorded review.
type ReviewResultResponse struct {
	Quality int                    `json:"quality"`
	Record  LearningRecordResponse `json:"record"`
}

// DueQueueEntryResponse is one entry of the due queue, most overdue first.
type DueQueueEntryResponse struct {
	Item           ItemView               `json:"item"`
	Record         LearningRecordResponse `json:"record"`
	OverdueSeconds int64                  `json:"overdue_seconds"`
}
