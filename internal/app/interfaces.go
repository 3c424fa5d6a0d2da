package app

import (
	"context"

	"codequest/internal/state"
	"codequest/internal/ui"
	"codequest/internal/workspace"
)

// Store is the slice of persistence the controller uses.
type Store interface {
	EnsureSchema(ctx context.Context) error
	RecordAttempt(ctx context.Context, attempt state.Attempt) error
	GetProblemProgressMap(ctx context.Context) (map[string]state.ProblemProgress, error)
	SaveSettings(ctx context.Context, values map[string]string) error
	LoadSettings(ctx context.Context) (map[string]string, error)
	Close() error
}

// Workspace is the orchestrator surface driven by the controller.
type Workspace interface {
	Generate(ctx context.Context, dataStructure, topic string) error
	RunTests(ctx context.Context) error
	Submit(ctx context.Context) error
	SelectProblem(id string) error
	Edit(text string)
	SetLanguage(id string) error
	ToggleOptimal() bool
	Cancel() bool
	Snapshot() workspace.Snapshot
	DownloadCode(dir string) (string, error)
	CopyCode(cb workspace.Clipboard) error
}

// viewFactory builds the view once the layout exists.
type viewFactory func(layout *workspace.Layout) ui.View

var (
	_ Store     = (*state.SQLiteStore)(nil)
	_ Workspace = (*workspace.Orchestrator)(nil)
)
