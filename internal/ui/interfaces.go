package ui

import (
	"time"

	"codequest/internal/practice"
)

// Controller receives user intents from the view. Callbacks run on their own
// goroutine and may block.
type Controller interface {
	OnGenerate(dataStructure, topic string)
	OnRunTests()
	OnSubmit()
	OnSelectProblem(id string)
	OnEdit(code string)
	OnCycleLanguage()
	OnToggleOptimal()
	OnCopyCode()
	OnDownloadCode()
	OnCancel()
	OnQuit()
}

type View interface {
	Run() error
	Stop()
	SetController(Controller)
	SetWorkspace(WorkspaceState)
	SetTopic(dataStructure, topic string)
	FlashStatus(msg string)
}

type ProblemRow struct {
	ID         string
	Title      string
	Difficulty practice.Difficulty
	Solved     bool
}

// WorkspaceState is the view model pushed by the controller after every
// workspace transition.
type WorkspaceState struct {
	LoggedIn bool
	Problems []ProblemRow
	// Problem is the selected problem, nil when nothing is selected.
	Problem *practice.Problem
	Code    string
	// CodeRevision changes when the editor must be reseeded from Code.
	CodeRevision   int
	Language       practice.Language
	Result         *practice.EvaluationResult
	ResultAt       time.Time
	OptimalVisible bool
	Error          string
	Generating     bool
	Testing        bool
	Submitting     bool
}

func (s WorkspaceState) Busy() bool {
	return s.Generating || s.Testing || s.Submitting
}

func (s WorkspaceState) SelectedID() string {
	if s.Problem == nil {
		return ""
	}
	return s.Problem.ID
}

type focusArea int

const (
	focusEditor focusArea = iota
	focusDataStructure
	focusTopic
	focusProblems
	focusResults
)

func (f focusArea) String() string {
	switch f {
	case focusDataStructure:
		return "data_structure"
	case focusTopic:
		return "topic"
	case focusProblems:
		return "problems"
	case focusResults:
		return "results"
	default:
		return "editor"
	}
}
