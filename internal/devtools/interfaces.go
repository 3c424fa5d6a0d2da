package devtools

import (
	"context"
	"net/http"
)

// Service is the offline stand-in for the remote evaluation service.
type Service interface {
	Handler() http.Handler
	Start(addr string) (string, error)
	Shutdown(ctx context.Context) error
}

type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

type generateRequest struct {
	DataStructure string `json:"data_structure" validate:"required,max=200"`
	Topic         string `json:"topic" validate:"required,max=200"`
}

type evaluationRequest struct {
	ProblemID string `json:"problem_id" validate:"required"`
	Code      string `json:"code" validate:"max=100000"`
	Language  string `json:"language" validate:"required,oneof=python java javascript c++"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}
