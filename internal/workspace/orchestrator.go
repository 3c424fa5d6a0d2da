package workspace

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"codequest/internal/practice"
	"codequest/internal/remote"
	"codequest/internal/session"
)

type Service interface {
	GenerateProblems(ctx context.Context, token, dataStructure, topic string) ([]practice.Problem, error)
	RunTests(ctx context.Context, problemID, code, language string) (*practice.EvaluationResult, error)
	EvaluateSolution(ctx context.Context, problemID, code, language string) (*practice.EvaluationResult, error)
}

type Credentials interface {
	LoggedIn() bool
	Token() (string, error)
}

// Panes is the part of the layout the orchestrator drives.
type Panes interface {
	Compact() bool
	CloseSidebar()
	OpenResults()
}

type Logger interface {
	Info(msg string, fields map[string]any)
	Error(msg string, fields map[string]any)
}

// Attempt is one completed operation, as handed to a Recorder.
type Attempt struct {
	Kind      string
	ProblemID string
	Language  string
	Topic     string
	Outcome   string
	Message   string
	Duration  time.Duration
	At        time.Time
}

type Recorder interface {
	RecordAttempt(ctx context.Context, a Attempt) error
}

const (
	OutcomePassed     = "passed"
	OutcomeFailed     = "failed"
	OutcomeError      = "error"
	OutcomeSuperseded = "superseded"
)

type Options struct {
	Service     Service
	Credentials Credentials
	Panes       Panes
	Recorder    Recorder
	Logger      Logger
	// Timeout bounds each remote call; zero uses remote.DefaultTimeout.
	Timeout  time.Duration
	Language string
	Now      func() time.Time
}

// Orchestrator runs the workspace operations against the service and owns
// the workspace state. Every operation start takes a new sequence number; a
// completion is applied only while its number is still the latest.
type Orchestrator struct {
	service  Service
	creds    Credentials
	panes    Panes
	recorder Recorder
	logger   Logger
	timeout  time.Duration
	now      func() time.Time

	mu       sync.Mutex
	st       state
	cancel   context.CancelFunc
	onChange func(Snapshot)
}

func NewOrchestrator(opts Options) *Orchestrator {
	o := &Orchestrator{
		service:  opts.Service,
		creds:    opts.Credentials,
		panes:    opts.Panes,
		recorder: opts.Recorder,
		logger:   opts.Logger,
		timeout:  opts.Timeout,
		now:      opts.Now,
		st:       newState(opts.Language),
	}
	if o.timeout <= 0 {
		o.timeout = remote.DefaultTimeout
	}
	if o.now == nil {
		o.now = time.Now
	}
	if o.panes == nil {
		o.panes = NewLayout(DefaultCompactBreakpoint)
	}
	return o
}

// OnChange registers the hook told about every state transition. It is
// called outside the orchestrator lock.
func (o *Orchestrator) OnChange(fn func(Snapshot)) {
	o.mu.Lock()
	o.onChange = fn
	o.mu.Unlock()
}

func (o *Orchestrator) Snapshot() Snapshot {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.st.snapshot()
}

func (o *Orchestrator) notify() {
	o.mu.Lock()
	fn := o.onChange
	snap := o.st.snapshot()
	o.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

// Generate replaces the catalog with problems for the topic. Validation and
// authentication failures are recorded without sending a request.
func (o *Orchestrator) Generate(ctx context.Context, dataStructure, topic string) error {
	dataStructure, topic = strings.TrimSpace(dataStructure), strings.TrimSpace(topic)

	o.mu.Lock()
	if o.st.op == OpGenerating {
		o.mu.Unlock()
		return ErrBusy
	}
	if dataStructure == "" || topic == "" {
		err := &ValidationError{Message: msgMissingTopic}
		o.st.failOperation(err)
		o.mu.Unlock()
		o.notify()
		return err
	}
	token, err := o.authorize()
	if err != nil {
		o.st.failOperation(err)
		o.mu.Unlock()
		o.notify()
		return err
	}
	seq, opCtx, cancel := o.begin(ctx, OpGenerating)
	defer cancel()
	o.st.beginGenerate()
	o.mu.Unlock()
	o.notify()
	o.logInfo("workspace.generate.start", map[string]any{"seq": seq, "data_structure": dataStructure, "topic": topic})

	started := o.now()
	problems, callErr := o.service.GenerateProblems(opCtx, token, dataStructure, topic)
	if callErr != nil {
		callErr = classify(callErr, fallbackGenerate, true)
	}

	attempt := Attempt{Kind: "generate", Topic: dataStructure + "/" + topic, At: started}
	applied := o.complete(seq, func(st *state) {
		if callErr != nil {
			st.failOperation(callErr)
			return
		}
		st.finishGenerate(problems)
	})
	o.finishAttempt(seq, attempt, applied, callErr, started, func(a *Attempt) {
		a.Outcome = OutcomePassed
		a.Message = fmt.Sprintf("%d problems", len(problems))
	})
	if !applied {
		return ErrSuperseded
	}
	if callErr == nil && o.panes.Compact() {
		o.panes.CloseSidebar()
	}
	return callErr
}

// authorize resolves the bearer token. Called with o.mu held.
func (o *Orchestrator) authorize() (string, error) {
	if o.creds == nil || !o.creds.LoggedIn() {
		return "", &AuthError{Message: msgLoggedOut}
	}
	token, err := o.creds.Token()
	switch {
	case errors.Is(err, session.ErrTokenExpired):
		return "", &AuthError{Message: msgAuthFailed, Err: err}
	case err != nil:
		return "", &AuthError{Message: msgTokenNotFound, Err: err}
	case strings.TrimSpace(token) == "":
		return "", &AuthError{Message: msgTokenNotFound}
	}
	return token, nil
}

func (o *Orchestrator) RunTests(ctx context.Context) error {
	return o.evaluate(ctx, OpTesting)
}

// Submit evaluates the buffer against the full test suite. A passing
// submission reveals the optimal solution.
func (o *Orchestrator) Submit(ctx context.Context) error {
	return o.evaluate(ctx, OpSubmitting)
}

func (o *Orchestrator) evaluate(ctx context.Context, op Operation) error {
	o.mu.Lock()
	problem, ok := o.st.selectedProblem()
	if !ok {
		o.mu.Unlock()
		return ErrNoProblem
	}
	if o.st.op == OpTesting || o.st.op == OpSubmitting {
		o.mu.Unlock()
		return ErrBusy
	}
	seq, opCtx, cancel := o.begin(ctx, op)
	defer cancel()
	o.st.beginEvaluation()
	code, language := o.st.buffer.Text, o.st.buffer.Language
	o.mu.Unlock()
	o.panes.OpenResults()
	o.notify()

	kind, fallback, event := "run", fallbackRun, "workspace.run_tests"
	call := o.service.RunTests
	if op == OpSubmitting {
		kind, fallback, event = "submit", fallbackEvaluate, "workspace.submit"
		call = o.service.EvaluateSolution
	}
	o.logInfo(event+".start", map[string]any{"seq": seq, "problem_id": problem.ID, "language": language})

	started := o.now()
	res, callErr := call(opCtx, problem.ID, code, language)
	switch {
	case callErr != nil:
		callErr = classify(callErr, fallback, false)
	case res == nil:
		callErr = &RemoteError{Message: fallback}
	}

	attempt := Attempt{Kind: kind, ProblemID: problem.ID, Language: language, At: started}
	completedAt := o.now()
	applied := o.complete(seq, func(st *state) {
		if callErr != nil {
			st.failOperation(callErr)
			return
		}
		st.finishEvaluation(res, completedAt, op == OpSubmitting)
	})
	o.finishAttempt(seq, attempt, applied, callErr, started, func(a *Attempt) {
		a.Outcome = OutcomeFailed
		if res.Passed {
			a.Outcome = OutcomePassed
		}
		a.Message = fmt.Sprintf("%d/%d passed", res.PassedCount(), len(res.TestCases))
	})
	if !applied {
		return ErrSuperseded
	}
	return callErr
}

// SelectProblem makes the catalog entry with id current and reseeds the
// buffer from its starter code. An in-flight run or submit is superseded.
func (o *Orchestrator) SelectProblem(id string) error {
	o.mu.Lock()
	idx := o.st.indexOf(id)
	if idx < 0 {
		o.mu.Unlock()
		return fmt.Errorf("problem %q not in catalog", id)
	}
	if o.st.op == OpTesting || o.st.op == OpSubmitting {
		o.supersede()
	}
	o.st.selectProblem(idx)
	o.mu.Unlock()
	if o.panes.Compact() {
		o.panes.CloseSidebar()
	}
	o.notify()
	return nil
}

func (o *Orchestrator) Edit(text string) {
	o.mu.Lock()
	o.st.edit(text)
	o.mu.Unlock()
}

func (o *Orchestrator) SetLanguage(id string) error {
	lang, ok := practice.LookupLanguage(id)
	if !ok {
		return fmt.Errorf("unsupported language %q", id)
	}
	o.mu.Lock()
	o.st.buffer.Language = lang.ID
	o.mu.Unlock()
	o.notify()
	return nil
}

// ToggleOptimal flips the reveal flag. It only applies after a passing
// submission and reports the resulting visibility.
func (o *Orchestrator) ToggleOptimal() bool {
	o.mu.Lock()
	if o.st.result == nil || !o.st.result.Passed {
		o.mu.Unlock()
		return false
	}
	o.st.reveal = !o.st.reveal
	visible := o.st.reveal
	o.mu.Unlock()
	o.notify()
	return visible
}

// Cancel aborts the in-flight operation and returns to idle. The aborted
// completion is discarded. It reports whether anything was running.
func (o *Orchestrator) Cancel() bool {
	o.mu.Lock()
	if o.st.op == OpIdle {
		o.mu.Unlock()
		return false
	}
	op := o.st.op
	o.supersede()
	o.mu.Unlock()
	o.logInfo("workspace.cancel", map[string]any{"operation": op.String()})
	o.notify()
	return true
}

// begin starts op, superseding whatever was in flight. Called with o.mu held.
func (o *Orchestrator) begin(parent context.Context, op Operation) (uint64, context.Context, context.CancelFunc) {
	if o.cancel != nil {
		o.cancel()
	}
	o.st.seq++
	o.st.op = op
	ctx, cancel := context.WithTimeout(parent, o.timeout)
	o.cancel = cancel
	return o.st.seq, ctx, cancel
}

// supersede invalidates the in-flight operation. Called with o.mu held.
func (o *Orchestrator) supersede() {
	if o.cancel != nil {
		o.cancel()
		o.cancel = nil
	}
	o.st.seq++
	o.st.op = OpIdle
}

// complete applies fn and returns to idle if seq is still current.
func (o *Orchestrator) complete(seq uint64, fn func(*state)) bool {
	o.mu.Lock()
	if o.st.seq != seq {
		o.mu.Unlock()
		return false
	}
	fn(&o.st)
	o.st.op = OpIdle
	o.cancel = nil
	o.mu.Unlock()
	o.notify()
	return true
}

func (o *Orchestrator) finishAttempt(seq uint64, a Attempt, applied bool, callErr error, started time.Time, onSuccess func(*Attempt)) {
	a.Duration = o.now().Sub(started)
	switch {
	case !applied:
		a.Outcome = OutcomeSuperseded
	case callErr != nil:
		a.Outcome = OutcomeError
		a.Message = UserMessage(callErr)
	default:
		onSuccess(&a)
	}

	fields := map[string]any{
		"seq":         seq,
		"kind":        a.Kind,
		"outcome":     a.Outcome,
		"duration_ms": a.Duration.Milliseconds(),
	}
	if a.ProblemID != "" {
		fields["problem_id"] = a.ProblemID
	}
	if a.Message != "" {
		fields["message"] = a.Message
	}
	if a.Outcome == OutcomeError {
		o.logError("workspace.operation.failed", fields)
	} else {
		o.logInfo("workspace.operation.done", fields)
	}

	if o.recorder == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := o.recorder.RecordAttempt(ctx, a); err != nil {
		o.logError("workspace.record.failed", map[string]any{"kind": a.Kind, "error": err.Error()})
	}
}

func (o *Orchestrator) logInfo(msg string, fields map[string]any) {
	if o.logger != nil {
		o.logger.Info(msg, fields)
	}
}

func (o *Orchestrator) logError(msg string, fields map[string]any) {
	if o.logger != nil {
		o.logger.Error(msg, fields)
	}
}
