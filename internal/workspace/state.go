package workspace

import (
	"time"

	"codequest/internal/practice"
)

// Operation is the single in-flight operation. Run and submit are mutually
// exclusive because only one tag can be current.
type Operation int

const (
	OpIdle Operation = iota
	OpGenerating
	OpTesting
	OpSubmitting
)

func (o Operation) String() string {
	switch o {
	case OpGenerating:
		return "generating"
	case OpTesting:
		return "testing"
	case OpSubmitting:
		return "submitting"
	default:
		return "idle"
	}
}

// Buffer is the editable solution text. Revision changes only when the text
// is reseeded from a problem, never on edits.
type Buffer struct {
	Text     string
	Language string
	Revision int
}

// state is mutated only through the transition methods below, always under
// the orchestrator lock.
type state struct {
	problems []practice.Problem
	selected int
	buffer   Buffer
	result   *practice.EvaluationResult
	resultAt time.Time
	reveal   bool
	err      error
	op       Operation
	seq      uint64
}

func newState(language string) state {
	return state{selected: -1, buffer: Buffer{Language: practice.LanguageFor(language).ID}}
}

func (s *state) selectedProblem() (practice.Problem, bool) {
	if s.selected < 0 || s.selected >= len(s.problems) {
		return practice.Problem{}, false
	}
	return s.problems[s.selected], true
}

func (s *state) indexOf(id string) int {
	for i, p := range s.problems {
		if p.ID == id {
			return i
		}
	}
	return -1
}

func (s *state) beginGenerate() {
	s.problems = nil
	s.selected = -1
	s.result = nil
	s.resultAt = time.Time{}
	s.reveal = false
	s.err = nil
}

func (s *state) finishGenerate(problems []practice.Problem) {
	s.problems = problems
	s.selected = -1
	if len(problems) > 0 {
		s.selectProblem(0)
	}
}

func (s *state) selectProblem(i int) {
	s.selected = i
	s.buffer.Text = s.problems[i].StarterCode
	s.buffer.Revision++
	s.result = nil
	s.resultAt = time.Time{}
	s.reveal = false
	s.err = nil
}

func (s *state) beginEvaluation() {
	s.result = nil
	s.resultAt = time.Time{}
	s.err = nil
}

func (s *state) finishEvaluation(res *practice.EvaluationResult, at time.Time, reveal bool) {
	s.result = res
	s.resultAt = at
	if reveal && res.Passed {
		s.reveal = true
	}
}

func (s *state) failOperation(err error) {
	s.err = err
}

func (s *state) edit(text string) {
	s.buffer.Text = text
}

func (s *state) snapshot() Snapshot {
	snap := Snapshot{
		Problems:      s.problems,
		Buffer:        s.buffer,
		Result:        s.result,
		ResultAt:      s.resultAt,
		RevealOptimal: s.reveal,
		Err:           s.err,
		Operation:     s.op,
	}
	if p, ok := s.selectedProblem(); ok {
		snap.Selected = &p
	}
	return snap
}

// Snapshot is a consistent copy of the workspace. Problems and Result are
// shared with the orchestrator and must not be mutated.
type Snapshot struct {
	Problems      []practice.Problem
	Selected      *practice.Problem
	Buffer        Buffer
	Result        *practice.EvaluationResult
	ResultAt      time.Time
	RevealOptimal bool
	Err           error
	Operation     Operation
}

func (s Snapshot) Generating() bool { return s.Operation == OpGenerating }
func (s Snapshot) Testing() bool    { return s.Operation == OpTesting }
func (s Snapshot) Submitting() bool { return s.Operation == OpSubmitting }
func (s Snapshot) Busy() bool       { return s.Operation != OpIdle }

func (s Snapshot) ErrorMessage() string { return UserMessage(s.Err) }

// OptimalVisible reports whether the optimal solution should be shown.
func (s Snapshot) OptimalVisible() bool {
	return s.RevealOptimal && s.Result != nil && s.Result.Passed &&
		s.Selected != nil && s.Selected.HasOptimal()
}
