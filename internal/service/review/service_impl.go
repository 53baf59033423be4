package review

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/domain/srs"
	"github.com/lumenlms/adapt-api/internal/platform/logger"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
	"github.com/lumenlms/adapt-api/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// serviceImpl implements the Service interface.
type serviceImpl struct {
	recordStore store.LearningRecordStore
	pool        assessment.ItemPool
	grader      assessment.Grader
	scheduler   srs.Service
	sessionSize int
	logger      *slog.Logger
	timeFunc    func() time.Time // Injectable for testing
}

// NewService creates a new review Service implementation. sessionSize is the
// number of items selected when a caller does not request a specific count; a
// non-positive value falls back to DefaultSessionSize.
func NewService(
	recordStore store.LearningRecordStore,
	pool assessment.ItemPool,
	grader assessment.Grader,
	scheduler srs.Service,
	sessionSize int,
	log *slog.Logger,
) Service {
	if recordStore == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("recordStore cannot be nil")
	}
	if pool == nil {
		panic("pool cannot be nil")
	}
	if grader == nil {
		panic("grader cannot be nil")
	}
	if scheduler == nil {
		panic("scheduler cannot be nil")
	}

	if log == nil {
		log = slog.Default()
	}
	if sessionSize < 1 {
		sessionSize = DefaultSessionSize
	}

	return &serviceImpl{
		recordStore: recordStore,
		pool:        pool,
		grader:      grader,
		scheduler:   scheduler,
		sessionSize: sessionSize,
		logger:      log.With(slog.String("component", "review_service")),
		timeFunc:    func() time.Time { return time.Now().UTC() },
	}
}

// SelectForSession implements Service.SelectForSession.
func (s *serviceImpl) SelectForSession(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
	desiredCount int,
) ([]domain.Item, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if desiredCount < 0 {
		return nil, ErrInvalidCount
	}
	if desiredCount == 0 {
		desiredCount = s.sessionSize
	}

	items, err := s.pool.GetAvailableItems(ctx, poolScope)
	if err != nil {
		return nil, &ServiceError{Operation: "select_for_session", Message: "failed to load item pool", Err: err}
	}

	records, err := s.recordStore.GetForExaminee(ctx, examineeID)
	if err != nil {
		return nil, &ServiceError{Operation: "select_for_session", Message: "failed to load learning records", Err: err}
	}

	now := s.timeFunc()
	byItem := make(map[uuid.UUID]*domain.LearningRecord, len(records))
	for _, r := range records {
		byItem[r.ItemID] = r
	}

	// Due items first, most overdue leading.
	due := make([]QueueEntry, 0, len(records))
	for _, item := range items {
		if r, ok := byItem[item.ID]; ok && r.IsDue(now) {
			due = append(due, QueueEntry{Item: item, Record: r, Overdue: r.Overdue(now)})
		}
	}
	sort.Slice(due, func(i, j int) bool {
		if due[i].Overdue != due[j].Overdue {
			return due[i].Overdue > due[j].Overdue
		}
		return due[i].Item.ID.String() < due[j].Item.ID.String()
	})

	selected := make([]domain.Item, 0, desiredCount)
	for _, entry := range due {
		if len(selected) == desiredCount {
			break
		}
		selected = append(selected, entry.Item)
	}

	// Fill remaining slots with never-reviewed items, easiest first.
	if len(selected) < desiredCount {
		fresh := make([]domain.Item, 0, len(items))
		for _, item := range items {
			if _, ok := byItem[item.ID]; !ok {
				fresh = append(fresh, item)
			}
		}
		sort.Slice(fresh, func(i, j int) bool {
			if fresh[i].Difficulty != fresh[j].Difficulty {
				return fresh[i].Difficulty < fresh[j].Difficulty
			}
			return fresh[i].ID.String() < fresh[j].ID.String()
		})

		for _, item := range fresh {
			if len(selected) == desiredCount {
				break
			}
			selected = append(selected, item)
		}
	}

	// Returning fewer than desiredCount is not an error condition.
	log.Debug("review session selected",
		slog.String("examinee_id", examineeID.String()),
		slog.Int("desired", desiredCount),
		slog.Int("selected", len(selected)))

	return selected, nil
}

// GetDueQueue implements Service.GetDueQueue.
func (s *serviceImpl) GetDueQueue(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
) ([]QueueEntry, error) {
	items, err := s.pool.GetAvailableItems(ctx, poolScope)
	if err != nil {
		return nil, &ServiceError{Operation: "get_due_queue", Message: "failed to load item pool", Err: err}
	}

	records, err := s.recordStore.GetForExaminee(ctx, examineeID)
	if err != nil {
		return nil, &ServiceError{Operation: "get_due_queue", Message: "failed to load learning records", Err: err}
	}

	now := s.timeFunc()
	byItem := make(map[uuid.UUID]domain.Item, len(items))
	for _, item := range items {
		byItem[item.ID] = item
	}

	queue := make([]QueueEntry, 0, len(records))
	for _, r := range records {
		item, ok := byItem[r.ItemID]
		if !ok || !r.IsDue(now) {
			continue
		}
		queue = append(queue, QueueEntry{Item: item, Record: r, Overdue: r.Overdue(now)})
	}

	sort.Slice(queue, func(i, j int) bool {
		if queue[i].Overdue != queue[j].Overdue {
			return queue[i].Overdue > queue[j].Overdue
		}
		return queue[i].Item.ID.String() < queue[j].Item.ID.String()
	})

	return queue, nil
}

// RecordReview implements Service.RecordReview.
func (s *serviceImpl) RecordReview(
	ctx context.Context,
	examineeID uuid.UUID,
	poolScope string,
	itemID uuid.UUID,
	rawAnswer string,
	responseTime time.Duration,
) (*ReviewResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	item, err := s.findItem(ctx, poolScope, itemID)
	if err != nil {
		return nil, err
	}

	grade, err := s.grader.GradeResponse(ctx, item, rawAnswer)
	if err != nil {
		return nil, &ServiceError{Operation: "record_review", Message: "grading failed", Err: err}
	}

	record, err := s.recordStore.Get(ctx, examineeID, itemID)
	created := false
	if err != nil {
		if !errors.Is(err, store.ErrLearningRecordNotFound) {
			return nil, &ServiceError{Operation: "record_review", Message: "failed to load learning record", Err: err}
		}
		// First exposure to this item.
		record, err = s.scheduler.NewRecord(examineeID, itemID)
		if err != nil {
			return nil, err
		}
		created = true
	}

	now := s.timeFunc()
	updated, err := s.scheduler.RecordReview(record, grade.IsCorrect, responseTime, item.Difficulty, now)
	if err != nil {
		return nil, &ServiceError{Operation: "record_review", Message: "scheduling update failed", Err: err}
	}

	if created {
		err = s.recordStore.Create(ctx, updated)
	} else {
		err = s.recordStore.Update(ctx, updated)
	}
	if err != nil {
		return nil, &ServiceError{Operation: "record_review", Message: "failed to persist learning record", Err: err}
	}

	quality := s.scheduler.ScoreQuality(grade.IsCorrect, responseTime, item.Difficulty)

	log.Debug("review recorded",
		slog.String("examinee_id", examineeID.String()),
		slog.String("item_id", itemID.String()),
		slog.Bool("is_correct", grade.IsCorrect),
		slog.Int("quality", int(quality)),
		slog.Int("interval_days", updated.IntervalDays))

	return &ReviewResult{Record: updated, Quality: quality}, nil
}

// PostponeReview implements Service.PostponeReview.
func (s *serviceImpl) PostponeReview(
	ctx context.Context,
	examineeID, itemID uuid.UUID,
	days int,
) (*domain.LearningRecord, error) {
	record, err := s.recordStore.Get(ctx, examineeID, itemID)
	if err != nil {
		if errors.Is(err, store.ErrLearningRecordNotFound) {
			return nil, err
		}
		return nil, &ServiceError{Operation: "postpone_review", Message: "failed to load learning record", Err: err}
	}

	updated, err := s.scheduler.PostponeReview(record, days, s.timeFunc())
	if err != nil {
		return nil, err
	}

	if err := s.recordStore.Update(ctx, updated); err != nil {
		return nil, &ServiceError{Operation: "postpone_review", Message: "failed to persist learning record", Err: err}
	}

	return updated, nil
}

// findItem resolves an item from the pool scope.
func (s *serviceImpl) findItem(ctx context.Context, scope string, itemID uuid.UUID) (domain.Item, error) {
	items, err := s.pool.GetAvailableItems(ctx, scope)
	if err != nil {
		return domain.Item{}, &ServiceError{Operation: "find_item", Message: "failed to load item pool", Err: err}
	}

	for _, item := range items {
		if item.ID == itemID {
			return item, nil
		}
	}

	return domain.Item{}, ErrItemNotFound
}
