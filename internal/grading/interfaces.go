package grading

import (
	"context"

	"codequest/internal/practice"
)

type Grader interface {
	Grade(ctx context.Context, req Request) (practice.EvaluationResult, error)
}
