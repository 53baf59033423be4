package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/lumenlms/adapt-api/internal/api/shared"
	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
	"github.com/lumenlms/adapt-api/internal/service/review"
)

// stubAssessmentService implements assessment.Service with function fields.
type stubAssessmentService struct {
	StartSessionFn   func(ctx context.Context, examineeID uuid.UUID, poolScope string) (*assessment.StartResult, error)
	SubmitResponseFn func(ctx context.Context, sessionID, examineeID, itemID uuid.UUID, rawAnswer string, responseTime time.Duration) (*assessment.SubmitResult, error)
	AbandonSessionFn func(ctx context.Context, sessionID, examineeID uuid.UUID) (*domain.SessionState, error)
	GetProgressFn    func(ctx context.Context, sessionID, examineeID uuid.UUID) (*assessment.Progress, error)
}

var _ assessment.Service = (*stubAssessmentService)(nil)

func (s *stubAssessmentService) StartSession(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
) (*assessment.StartResult, error) {
	return s.StartSessionFn(ctx, examineeID, poolScope)
}

func (s *stubAssessmentService) SubmitResponse(
	ctx context.Context,
	sessionID, examineeID, itemID uuid.UUID,
	rawAnswer string,
	responseTime time.Duration,
) (*assessment.SubmitResult, error) {
	return s.SubmitResponseFn(ctx, sessionID, examineeID, itemID, rawAnswer, responseTime)
}

func (s *stubAssessmentService) AbandonSession(
	ctx context.Context,
	sessionID, examineeID uuid.UUID,
) (*domain.SessionState, error) {
	return s.AbandonSessionFn(ctx, sessionID, examineeID)
}

func (s *stubAssessmentService) GetProgress(
	ctx context.Context,
	sessionID, examineeID uuid.UUID,
) (*assessment.Progress, error) {
	return s.GetProgressFn(ctx, sessionID, examineeID)
}

// stubReviewService implements review.Service with function fields.
type stubReviewService struct {
	SelectForSessionFn func(ctx context.Context, examineeID uuid.UUID, poolScope string, desiredCount int) ([]domain.Item, error)
	GetDueQueueFn      func(ctx context.Context, examineeID uuid.UUID, poolScope string) ([]review.QueueEntry, error)
	RecordReviewFn     func(ctx context.Context, examineeID uuid.UUID, poolScope string, itemID uuid.UUID, rawAnswer string, responseTime time.Duration) (*review.ReviewResult, error)
	PostponeReviewFn   func(ctx context.Context, examineeID, itemID uuid.UUID, days int) (*domain.LearningRecord, error)
}

var _ review.Service = (*stubReviewService)(nil)

func (s *stubReviewService) SelectForSession(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
	desiredCount int,
) ([]domain.Item, error) {
	return s.SelectForSessionFn(ctx, examineeID, poolScope, desiredCount)
}

func (s *stubReviewService) GetDueQueue(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
) ([]review.QueueEntry, error) {
	return s.GetDueQueueFn(ctx, examineeID, poolScope)
}

func (s *stubReviewService) RecordReview(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
	itemID uuid.UUID,
	rawAnswer string,
	responseTime time.Duration,
) (*review.ReviewResult, error) {
	return s.RecordReviewFn(ctx, examineeID, poolScope, itemID, rawAnswer, responseTime)
}

func (s *stubReviewService) PostponeReview(
	ctx context.Context,
	examineeID, itemID uuid.UUID,
	days int,
) (*domain.LearningRecord, error) {
	return s.PostponeReviewFn(ctx, examineeID, itemID, days)
}

// newJSONRequest builds a request with a JSON body and, when examineeID is
// non-nil, the authentication context the middleware would have set.
func newJSONRequest(t *testing.T, method, target string, body interface{}, examineeID uuid.UUID) *http.Request {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")

	if examineeID != uuid.Nil {
		ctx := context.WithValue(req.Context(), shared.ExamineeIDContextKey, examineeID)
		req = req.WithContext(ctx)
	}

	return req
}

// serveWithParam routes the request through a chi router so URL path
// parameters resolve as they do in production.
func serveWithParam(method, pattern string, handler http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	router.Method(method, pattern, handler)

	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func decodeBody[T any](t *testing.T, recorder *httptest.ResponseRecorder) T {
	t.Helper()

	var out T
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&out))
	return out
}
