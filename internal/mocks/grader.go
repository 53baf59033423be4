package mocks

import (
	"context"

	"github.com/lumenlms/adapt-api/internal/domain"
	"github.com/lumenlms/adapt-api/internal/service/assessment"
)

// MockGrader implements assessment.Grader for testing
type MockGrader struct {
	// GradeResponseFn allows test cases to mock grading behavior
	GradeResponseFn func(ctx context.Context, item domain.Item, rawAnswer string) (assessment.GradeResult, error)

	// Data for default implementation
	Result assessment.GradeResult
	Err    error
}

// GradeResponse implements the assessment.Grader interface
func (m *MockGrader) GradeResponse(
	ctx context.Context,
	item domain.Item,
	rawAnswer string,
) (assessment.GradeResult, error) {
	if m.GradeResponseFn != nil {
		return m.GradeResponseFn(ctx, item, rawAnswer)
	}
	return m.Result, m.Err
}
