// Package grading provides the default answer grader: a normalized
// exact-match comparison against the item bank's stored answer keys.
// Richer graders (rubric scoring, external judges) satisfy the same
// assessment.Grader interface.
package grading

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
)

// AnswerKeySource supplies stored answer keys for items.
type AnswerKeySource interface {
	GetAnswerKey(ctx context.Context, itemID uuid.UUID) (string, error)
}

// KeyGrader grades raw answers by case-insensitive comparison with the
// item's answer key after trimming surrounding whitespace.
type KeyGrader struct {
	keys   AnswerKeySource
	logger *slog.Logger
}

// NewKeyGrader creates a KeyGrader over the given answer key source.
func NewKeyGrader(keys AnswerKeySource, logger *slog.Logger) *KeyGrader {
	if keys == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("answer key source cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &KeyGrader{
		keys:   keys,
		logger: logger.With(slog.String("component", "key_grader")),
	}
}

// Ensure KeyGrader implements assessment.Grader
var _ assessment.Grader = (*KeyGrader)(nil)

// GradeResponse implements assessment.Grader. Score is binary: 1.0 for a
// match, 0.0 otherwise.
func (g *KeyGrader) GradeResponse(
	ctx context.Context,
	item domain.Item,
	rawAnswer string,
) (assessment.GradeResult, error) {
	key, err := g.keys.GetAnswerKey(ctx, item.ID)
	if err != nil {
		return assessment.GradeResult{}, err
	}

	correct := strings.EqualFold(normalize(rawAnswer), normalize(key))

	result := assessment.GradeResult{IsCorrect: correct}
	if correct {
		result.Score = 1.0
	}

	g.logger.Debug("graded response",
		slog.String("item_id", item.ID.String()),
		slog.Bool("is_correct", correct))

	return result, nil
}

func normalize(answer string) string {
	return strings.Join(strings.Fields(answer), " ")
}
