package state

import (
	"context"
	"time"
)

type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordAttempt(ctx context.Context, attempt Attempt) error
	RecentAttempts(ctx context.Context, limit int) ([]Attempt, error)
	GetProblemProgressMap(ctx context.Context) (map[string]ProblemProgress, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	GetSummary(ctx context.Context) (Summary, error)
	Close() error
}

// Attempt is one completed workspace operation.
type Attempt struct {
	SessionID  string
	Kind       string
	ProblemID  string
	Language   string
	Topic      string
	Outcome    string
	Message    string
	DurationMS int64
	TS         time.Time
}

type Summary struct {
	Generates   int
	Runs        int
	Submissions int
	Accepted    int
	Errors      int
}

type ProblemProgress struct {
	ProblemID     string
	Submissions   int
	PassedCount   int
	LastLanguage  string
	LastAttemptTS time.Time
	LastPassedTS  time.Time
}

const (
	SettingDataStructure = "workspace.data_structure"
	SettingTopic         = "workspace.topic"
	SettingLanguage      = "workspace.language"
)
