package api

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumenlms/adapt-api/internal/api/shared"
	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
	"github.com/lumenlms/adapt-api/internal/service/selection"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testSessionState(examineeID uuid.UUID) *domain.SessionState {
	return &domain.SessionState{
		ID:         uuid.New(),
		ExamineeID: examineeID,
		PoolScope:  "algebra-1",
		Estimate: domain.AbilityEstimate{
			Theta:         0.0,
			StandardError: 1.0,
			Model:         domain.Model2PL,
		},
		History:   make([]domain.Response, 0),
		Status:    domain.SessionInProgress,
		CreatedAt: time.Now().UTC(),
		UpdatedAt: time.Now().UTC(),
	}
}

func testItem(difficulty float64) domain.Item {
	return domain.Item{
		ID:             uuid.New(),
		Difficulty:     difficulty,
		Discrimination: 1.0,
		CompetencyTag:  "algebra",
	}
}

func TestStartSessionHandler(t *testing.T) {
	t.Parallel()

	examineeID := uuid.New()

	t.Run("successful start", func(t *testing.T) {
		t.Parallel()

		session := testSessionState(examineeID)
		item := testItem(0.2)
		session.CurrentItemID = item.ID

		svc := &stubAssessmentService{
			StartSessionFn: func(ctx context.Context, gotExaminee uuid.UUID, poolScope string) (*assessment.StartResult, error) {
				assert.Equal(t, examineeID, gotExaminee)
				assert.Equal(t, "algebra-1", poolScope)
				return &assessment.StartResult{Session: session, Item: item}, nil
			},
		}
		handler := NewSessionHandler(svc, testLogger())

		req := newJSONRequest(t, http.MethodPost, "/sessions", StartSessionRequest{PoolScope: "algebra-1"}, examineeID)
		recorder := httptest.NewRecorder()
		handler.StartSession(recorder, req)

		require.Equal(t, http.StatusCreated, recorder.Code)
		resp := decodeBody[StartSessionResponse](t, recorder)
		assert.Equal(t, session.ID, resp.SessionID)
		assert.Equal(t, domain.SessionInProgress, resp.Status)
		assert.Equal(t, item.ID, resp.Item.ID)
		assert.Equal(t, "algebra", resp.Item.CompetencyTag)

		// Calibration parameters never leave the server.
		body := recorder.Body.String()
		assert.NotContains(t, body, "difficulty")
		assert.NotContains(t, body, "discrimination")
		assert.NotContains(t, body, "guessing")
	})

	t.Run("missing authentication context", func(t *testing.T) {
		t.Parallel()

		handler := NewSessionHandler(&stubAssessmentService{}, testLogger())

		req := newJSONRequest(t, http.MethodPost, "/sessions", StartSessionRequest{PoolScope: "algebra-1"}, uuid.Nil)
		recorder := httptest.NewRecorder()
		handler.StartSession(recorder, req)

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})

	t.Run("empty pool scope fails validation", func(t *testing.T) {
		t.Parallel()

		handler := NewSessionHandler(&stubAssessmentService{}, testLogger())

		req := newJSONRequest(t, http.MethodPost, "/sessions", StartSessionRequest{}, examineeID)
		recorder := httptest.NewRecorder()
		handler.StartSession(recorder, req)

		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("active session conflict", func(t *testing.T) {
		t.Parallel()

		svc := &stubAssessmentService{
			StartSessionFn: func(ctx context.Context, _ uuid.UUID, _ string) (*assessment.StartResult, error) {
				return nil, assessment.ErrSessionConflict
			},
		}
		handler := NewSessionHandler(svc, testLogger())

		req := newJSONRequest(t, http.MethodPost, "/sessions", StartSessionRequest{PoolScope: "algebra-1"}, examineeID)
		recorder := httptest.NewRecorder()
		handler.StartSession(recorder, req)

		require.Equal(t, http.StatusConflict, recorder.Code)
		resp := decodeBody[shared.ErrorResponse](t, recorder)
		assert.Equal(t, "An active session already exists for this pool", resp.Error)
	})

	t.Run("empty pool maps to unprocessable entity", func(t *testing.T) {
		t.Parallel()

		svc := &stubAssessmentService{
			StartSessionFn: func(ctx context.Context, _ uuid.UUID, _ string) (*assessment.StartResult, error) {
				return nil, selection.ErrPoolExhausted
			},
		}
		handler := NewSessionHandler(svc, testLogger())

		req := newJSONRequest(t, http.MethodPost, "/sessions", StartSessionRequest{PoolScope: "empty-pool"}, examineeID)
		recorder := httptest.NewRecorder()
		handler.StartSession(recorder, req)

		require.Equal(t, http.StatusUnprocessableEntity, recorder.Code)
	})
}

func TestSubmitResponseHandler(t *testing.T) {
	t.Parallel()

	examineeID := uuid.New()
	sessionID := uuid.New()
	itemID := uuid.New()

	submitPayload := SubmitResponseRequest{
		ItemID:         itemID,
		RawAnswer:      "42",
		ResponseTimeMs: 8000,
	}

	serveSubmit := func(svc assessment.Service, target string, payload interface{}) *httptest.ResponseRecorder {
		handler := NewSessionHandler(svc, testLogger())
		req := newJSONRequest(t, http.MethodPost, target, payload, examineeID)
		return serveWithParam(http.MethodPost, "/sessions/{id}/responses", handler.SubmitResponse, req)
	}

	t.Run("continuing session returns next item", func(t *testing.T) {
		t.Parallel()

		session := testSessionState(examineeID)
		session.ID = sessionID
		session.Estimate.Theta = 0.8
		session.Estimate.StandardError = 0.7
		session.History = []domain.Response{{ItemID: itemID, IsCorrect: true}}
		next := testItem(1.1)

		svc := &stubAssessmentService{
			SubmitResponseFn: func(
				ctx context.Context,
				gotSession, gotExaminee, gotItem uuid.UUID,
				rawAnswer string,
				responseTime time.Duration,
			) (*assessment.SubmitResult, error) {
				assert.Equal(t, sessionID, gotSession)
				assert.Equal(t, examineeID, gotExaminee)
				assert.Equal(t, itemID, gotItem)
				assert.Equal(t, "42", rawAnswer)
				assert.Equal(t, 8*time.Second, responseTime)
				return &assessment.SubmitResult{
					Session:  session,
					Grade:    assessment.GradeResult{IsCorrect: true, Score: 1.0},
					NextItem: &next,
				}, nil
			},
		}

		recorder := serveSubmit(svc, "/sessions/"+sessionID.String()+"/responses", submitPayload)

		require.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeBody[SubmitResponseResponse](t, recorder)
		assert.Equal(t, sessionID, resp.SessionID)
		assert.True(t, resp.IsCorrect)
		assert.InDelta(t, 0.8, resp.Theta, 1e-9)
		assert.Equal(t, 1, resp.Administered)
		assert.False(t, resp.Terminated)
		require.NotNil(t, resp.NextItem)
		assert.Equal(t, next.ID, resp.NextItem.ID)
	})

	t.Run("terminated session omits next item", func(t *testing.T) {
		t.Parallel()

		session := testSessionState(examineeID)
		session.ID = sessionID
		session.Status = domain.SessionTerminated
		session.Reason = domain.TerminationPrecisionReached

		svc := &stubAssessmentService{
			SubmitResponseFn: func(
				ctx context.Context,
				_, _, _ uuid.UUID,
				_ string,
				_ time.Duration,
			) (*assessment.SubmitResult, error) {
				return &assessment.SubmitResult{
					Session:    session,
					Grade:      assessment.GradeResult{IsCorrect: true, Score: 1.0},
					Terminated: true,
					Reason:     domain.TerminationPrecisionReached,
				}, nil
			},
		}

		recorder := serveSubmit(svc, "/sessions/"+sessionID.String()+"/responses", submitPayload)

		require.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeBody[SubmitResponseResponse](t, recorder)
		assert.True(t, resp.Terminated)
		assert.Equal(t, domain.TerminationPrecisionReached, resp.Reason)
		assert.Nil(t, resp.NextItem)
		assert.NotContains(t, recorder.Body.String(), "next_item")
	})

	t.Run("malformed session id returns bad request", func(t *testing.T) {
		t.Parallel()

		recorder := serveSubmit(&stubAssessmentService{}, "/sessions/not-a-uuid/responses", submitPayload)
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("missing raw answer fails validation", func(t *testing.T) {
		t.Parallel()

		recorder := serveSubmit(&stubAssessmentService{}, "/sessions/"+sessionID.String()+"/responses", SubmitResponseRequest{
			ItemID: itemID,
		})
		require.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("service errors map to status codes", func(t *testing.T) {
		t.Parallel()

		tests := []struct {
			name       string
			err        error
			wantStatus int
			wantBody   string
		}{
			{
				name:       "unknown session",
				err:        assessment.ErrSessionNotFound,
				wantStatus: http.StatusNotFound,
				wantBody:   "Session not found",
			},
			{
				name:       "session owned by someone else",
				err:        assessment.ErrSessionNotOwned,
				wantStatus: http.StatusForbidden,
				wantBody:   "You do not own this session",
			},
			{
				name:       "stale submission",
				err:        assessment.ErrStaleSubmission,
				wantStatus: http.StatusConflict,
				wantBody:   "Submission does not match the active question",
			},
			{
				name:       "terminated session",
				err:        assessment.ErrInvalidStateTransition,
				wantStatus: http.StatusConflict,
				wantBody:   "Session is already terminated",
			},
			{
				name:       "grading timeout",
				err:        assessment.ErrGradingTimeout,
				wantStatus: http.StatusGatewayTimeout,
				wantBody:   "Grading timed out, please retry",
			},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				t.Parallel()

				svc := &stubAssessmentService{
					SubmitResponseFn: func(
						ctx context.Context,
						_, _, _ uuid.UUID,
						_ string,
						_ time.Duration,
					) (*assessment.SubmitResult, error) {
						return nil, tc.err
					},
				}

				recorder := serveSubmit(svc, "/sessions/"+sessionID.String()+"/responses", submitPayload)

				require.Equal(t, tc.wantStatus, recorder.Code)
				resp := decodeBody[shared.ErrorResponse](t, recorder)
				assert.Equal(t, tc.wantBody, resp.Error)
			})
		}
	})
}

func TestAbandonSessionHandler(t *testing.T) {
	t.Parallel()

	examineeID := uuid.New()
	sessionID := uuid.New()

	t.Run("successful abandon", func(t *testing.T) {
		t.Parallel()

		session := testSessionState(examineeID)
		session.ID = sessionID
		session.Status = domain.SessionTerminated
		session.Reason = domain.TerminationAbandoned
		session.Estimate.Theta = -0.4

		svc := &stubAssessmentService{
			AbandonSessionFn: func(ctx context.Context, gotSession, gotExaminee uuid.UUID) (*domain.SessionState, error) {
				assert.Equal(t, sessionID, gotSession)
				assert.Equal(t, examineeID, gotExaminee)
				return session, nil
			},
		}
		handler := NewSessionHandler(svc, testLogger())

		req := newJSONRequest(t, http.MethodPost, "/sessions/"+sessionID.String()+"/abandon", nil, examineeID)
		recorder := serveWithParam(http.MethodPost, "/sessions/{id}/abandon", handler.AbandonSession, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeBody[SessionResponse](t, recorder)
		assert.Equal(t, sessionID, resp.SessionID)
		assert.Equal(t, domain.SessionTerminated, resp.Status)
		assert.Equal(t, domain.TerminationAbandoned, resp.Reason)
		assert.InDelta(t, -0.4, resp.Theta, 1e-9)
	})

	t.Run("already terminated", func(t *testing.T) {
		t.Parallel()

		svc := &stubAssessmentService{
			AbandonSessionFn: func(ctx context.Context, _, _ uuid.UUID) (*domain.SessionState, error) {
				return nil, assessment.ErrInvalidStateTransition
			},
		}
		handler := NewSessionHandler(svc, testLogger())

		req := newJSONRequest(t, http.MethodPost, "/sessions/"+sessionID.String()+"/abandon", nil, examineeID)
		recorder := serveWithParam(http.MethodPost, "/sessions/{id}/abandon", handler.AbandonSession, req)

		require.Equal(t, http.StatusConflict, recorder.Code)
	})
}

func TestGetProgressHandler(t *testing.T) {
	t.Parallel()

	examineeID := uuid.New()
	sessionID := uuid.New()

	t.Run("returns progress snapshot", func(t *testing.T) {
		t.Parallel()

		svc := &stubAssessmentService{
			GetProgressFn: func(ctx context.Context, gotSession, gotExaminee uuid.UUID) (*assessment.Progress, error) {
				assert.Equal(t, sessionID, gotSession)
				assert.Equal(t, examineeID, gotExaminee)
				return &assessment.Progress{
					SessionID:     sessionID,
					Status:        domain.SessionInProgress,
					Administered:  3,
					Theta:         0.5,
					StandardError: 0.6,
				}, nil
			},
		}
		handler := NewSessionHandler(svc, testLogger())

		req := newJSONRequest(t, http.MethodGet, "/sessions/"+sessionID.String(), nil, examineeID)
		recorder := serveWithParam(http.MethodGet, "/sessions/{id}", handler.GetProgress, req)

		require.Equal(t, http.StatusOK, recorder.Code)
		resp := decodeBody[assessment.Progress](t, recorder)
		assert.Equal(t, 3, resp.Administered)
		assert.Equal(t, domain.SessionInProgress, resp.Status)
	})

	t.Run("unknown session returns not found", func(t *testing.T) {
		t.Parallel()

		svc := &stubAssessmentService{
			GetProgressFn: func(ctx context.Context, _, _ uuid.UUID) (*assessment.Progress, error) {
				return nil, assessment.ErrSessionNotFound
			},
		}
		handler := NewSessionHandler(svc, testLogger())

		req := newJSONRequest(t, http.MethodGet, "/sessions/"+sessionID.String(), nil, examineeID)
		recorder := serveWithParam(http.MethodGet, "/sessions/{id}", handler.GetProgress, req)

		require.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("missing authentication context", func(t *testing.T) {
		t.Parallel()

		handler := NewSessionHandler(&stubAssessmentService{}, testLogger())

		req := newJSONRequest(t, http.MethodGet, "/sessions/"+sessionID.String(), nil, uuid.Nil)
		recorder := serveWithParam(http.MethodGet, "/sessions/{id}", handler.GetProgress, req)

		require.Equal(t, http.StatusUnauthorized, recorder.Code)
	})
}
