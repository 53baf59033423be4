package domain

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// SessionStatus represents the lifecycle state of an adaptive session.
type SessionStatus string

// Session lifecycle states. TERMINATED is terminal: a terminated session
// has no outgoing transitions and is immutable from then on.
const (
	SessionInitialized SessionStatus = "initialized"
	SessionInProgress  SessionStatus = "in_progress"
	SessionTerminated  SessionStatus = "terminated"
)

// TerminationReason records why an adaptive session stopped.
type TerminationReason string

// Possible termination reasons
const (
	TerminationNone             TerminationReason = ""
	TerminationMaxReached       TerminationReason = "MAX_REACHED"
	TerminationPrecisionReached TerminationReason = "PRECISION_REACHED"
	TerminationPoolExhausted    TerminationReason = "POOL_EXHAUSTED"
	TerminationAbandoned        TerminationReason = "ABANDONED"
)

// Session-specific validation errors
var (
	ErrSessionIDEmpty       = errors.New("session ID cannot be empty")
	ErrSessionExamineeEmpty = errors.New("session examinee ID cannot be empty")
	ErrSessionScopeEmpty    = errors.New("session pool scope cannot be empty")
	ErrInvalidSessionStatus = errors.New("invalid session status")
)

// Response records a single graded administration within a session,
// including the item parameters at the time it was administered. Keeping
// the parameters on the response makes the history self-contained even if
// the item is recalibrated later.
type Response struct {
	ItemID         uuid.UUID     `json:"item_id"`
	IsCorrect      bool          `json:"is_correct"`
	ResponseTime   time.Duration `json:"response_time"`
	Difficulty     float64       `json:"difficulty"`
	Discrimination float64       `json:"discrimination"`
	Guessing       float64       `json:"guessing"`
	AnsweredAt     time.Time     `json:"answered_at"`
}

// SessionState holds the complete state of one adaptive test session.
// It is created at session start, mutated only by the session controller,
// and immutable once Status is SessionTerminated.
type SessionState struct {
	ID         uuid.UUID         `json:"id"`
	ExamineeID uuid.UUID         `json:"examinee_id"`
	PoolScope  string            `json:"pool_scope"`
	Estimate   AbilityEstimate   `json:"estimate"`
	History    []Response        `json:"history"`
	Status     SessionStatus     `json:"status"`
	Reason     TerminationReason `json:"reason,omitempty"`

	// CurrentItemID is the single in-flight item, if any. It is the only
	// item a submission may reference while the session is in progress.
	CurrentItemID uuid.UUID `json:"current_item_id,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// NewSessionState creates a session in the INITIALIZED state with the given
// starting estimate. Returns an error if validation fails.
func NewSessionState(examineeID uuid.UUID, poolScope string, estimate AbilityEstimate) (*SessionState, error) {
	now := time.Now().UTC()
	session := &SessionState{
		ID:         uuid.New(),
		ExamineeID: examineeID,
		PoolScope:  poolScope,
		Estimate:   estimate,
		History:    make([]Response, 0),
		Status:     SessionInitialized,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return session, nil
}

// Validate checks if the SessionState has valid data.
// Returns an error if any field fails validation.
func (s *SessionState) Validate() error {
	if s.ID == uuid.Nil {
		return ErrSessionIDEmpty
	}

	if s.ExamineeID == uuid.Nil {
		return ErrSessionExamineeEmpty
	}

	if s.PoolScope == "" {
		return ErrSessionScopeEmpty
	}

	switch s.Status {
	case SessionInitialized, SessionInProgress, SessionTerminated:
	default:
		return ErrInvalidSessionStatus
	}

	return s.Estimate.Validate()
}

// IsTerminated reports whether the session has reached its terminal state.
func (s *SessionState) IsTerminated() bool {
	return s.Status == SessionTerminated
}

// UsedItemIDs returns the IDs of every item already administered in this
// session, including the current in-flight item if one exists. The selector
// uses this set to guarantee no item is administered twice.
func (s *SessionState) UsedItemIDs() map[uuid.UUID]bool {
	used := make(map[uuid.UUID]bool, len(s.History)+1)
	for _, r := range s.History {
		used[r.ItemID] = true
	}
	if s.CurrentItemID != uuid.Nil {
		used[s.CurrentItemID] = true
	}
	return used
}

// Serialize encodes the session state as JSON for the persistence
// collaborator. The engine assumes the collaborator provides durability
// and does not manage storage itself.
func (s *SessionState) Serialize() ([]byte, error) {
	return json.Marshal(s)
}

// DeserializeSessionState decodes a session state previously produced by
// Serialize. The decoded state is validated before being returned.
func DeserializeSessionState(data []byte) (*SessionState, error) {
	var session SessionState
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}

	if err := session.Validate(); err != nil {
		return nil, err
	}

	return &session, nil
}
