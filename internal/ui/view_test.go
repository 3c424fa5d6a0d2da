package ui

import (
	"strings"
	"sync"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/x/ansi"

	"codequest/internal/practice"
	"codequest/internal/workspace"
)

type mockController struct {
	mu    sync.Mutex
	calls chan string
	edits []string
	args  []string
}

func newMockController() *mockController {
	return &mockController{calls: make(chan string, 32)}
}

func (m *mockController) record(name string, args ...string) {
	m.mu.Lock()
	m.args = append(m.args, args...)
	m.mu.Unlock()
	m.calls <- name
}

func (m *mockController) OnGenerate(ds, topic string) { m.record("generate", ds, topic) }
func (m *mockController) OnRunTests()                 { m.record("run") }
func (m *mockController) OnSubmit()                   { m.record("submit") }
func (m *mockController) OnSelectProblem(id string)   { m.record("select", id) }
func (m *mockController) OnEdit(code string) {
	m.mu.Lock()
	m.edits = append(m.edits, code)
	m.mu.Unlock()
}
func (m *mockController) OnCycleLanguage() { m.record("language") }
func (m *mockController) OnToggleOptimal() { m.record("optimal") }
func (m *mockController) OnCopyCode()      { m.record("copy") }
func (m *mockController) OnDownloadCode()  { m.record("download") }
func (m *mockController) OnCancel()        { m.record("cancel") }
func (m *mockController) OnQuit()          { m.record("quit") }

func (m *mockController) lastEdit() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.edits) == 0 {
		return ""
	}
	return m.edits[len(m.edits)-1]
}

func waitCall(t *testing.T, m *mockController, want string) {
	t.Helper()
	select {
	case got := <-m.calls:
		if got != want {
			t.Fatalf("expected controller call %q, got %q", want, got)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("timed out waiting for controller call %q", want)
	}
}

func press(v *Root, code rune, mod tea.KeyMod, text string) {
	_, _ = v.Update(tea.KeyPressMsg{Code: code, Mod: mod, Text: text})
}

func typeText(v *Root, s string) {
	for _, ch := range s {
		press(v, ch, 0, string(ch))
	}
}

func newTestView(t *testing.T, cols, rows int) (*Root, *mockController, *workspace.Layout) {
	t.Helper()
	layout := workspace.NewLayout(100)
	v := New(Options{Layout: layout, ASCIIOnly: true, MotionLevel: "off", LogOutput: &strings.Builder{}})
	ctrl := newMockController()
	v.SetController(ctrl)
	_, _ = v.Update(tea.WindowSizeMsg{Width: cols, Height: rows})
	return v, ctrl, layout
}

func sampleState() WorkspaceState {
	p := practice.Problem{
		ID:              "two-sum",
		Title:           "Two Sum",
		Difficulty:      practice.DifficultyEasy,
		Description:     "Find two numbers.",
		Examples:        []practice.Example{{Input: "nums = [2,7], target = 9", ExpectedOutput: "[0,1]"}},
		StarterCode:     "def two_sum(nums, target):\n    pass\n",
		OptimalSolution: "def two_sum(nums, target):\n    seen = {}\n",
	}
	return WorkspaceState{
		LoggedIn:     true,
		Problems:     []ProblemRow{{ID: p.ID, Title: p.Title, Difficulty: p.Difficulty}, {ID: "contains-duplicate", Title: "Contains Duplicate", Difficulty: practice.DifficultyEasy}},
		Problem:      &p,
		Code:         p.StarterCode,
		CodeRevision: 1,
		Language:     practice.LanguageFor("python"),
	}
}

func TestGenerateUsesTopicInputs(t *testing.T) {
	v, ctrl, _ := newTestView(t, 140, 40)
	typeText(v, "Arrays")
	press(v, tea.KeyTab, 0, "")
	typeText(v, "hashing")
	press(v, tea.KeyEnter, 0, "")

	waitCall(t, ctrl, "generate")
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if len(ctrl.args) != 2 || ctrl.args[0] != "Arrays" || ctrl.args[1] != "hashing" {
		t.Fatalf("unexpected generate args %#v", ctrl.args)
	}
}

func TestRunAndSubmitKeys(t *testing.T) {
	v, ctrl, _ := newTestView(t, 140, 40)
	press(v, tea.KeyF5, 0, "")
	waitCall(t, ctrl, "run")
	press(v, tea.KeyF6, 0, "")
	waitCall(t, ctrl, "submit")
}

func TestEditorReseedsOnlyOnRevisionChange(t *testing.T) {
	v, ctrl, _ := newTestView(t, 140, 40)
	st := sampleState()
	v.SetWorkspace(st)
	if v.editor.Value() != st.Code {
		t.Fatalf("expected editor seeded with starter code, got %q", v.editor.Value())
	}
	if v.focus != focusEditor {
		t.Fatalf("expected focus to move to editor after selection, got %s", v.focus)
	}

	press(v, tea.KeyTab, 0, "")
	if !strings.HasPrefix(v.editor.Value(), "  ") {
		t.Fatalf("expected tab to insert two spaces, got %q", v.editor.Value())
	}
	if ctrl.lastEdit() != v.editor.Value() {
		t.Fatalf("expected edit handed to controller synchronously")
	}

	edited := v.editor.Value()
	st.Code = "stale"
	v.SetWorkspace(st)
	if v.editor.Value() != edited {
		t.Fatalf("same revision must not overwrite the editor")
	}
	st.CodeRevision = 2
	v.SetWorkspace(st)
	if v.editor.Value() != "stale" {
		t.Fatalf("new revision must reseed the editor")
	}
}

func TestDividerDragCapturesAndReleasesPointer(t *testing.T) {
	v, _, layout := newTestView(t, 140, 40)
	layout.OpenResults()
	v.SetWorkspace(sampleState())
	_ = v.renderWorkspace()

	g := v.geo
	if g.dividerY < 0 {
		t.Fatalf("expected a divider when results are open")
	}
	_, _ = v.Update(tea.MouseClickMsg{X: g.columnX + 2, Y: g.dividerY, Button: tea.MouseLeft})
	if !v.captured.Load() || v.currentMouseMode() != tea.MouseModeAllMotion {
		t.Fatalf("expected pointer capture during drag")
	}
	if !layout.State().Resizing {
		t.Fatalf("expected layout to report resizing")
	}

	y := g.bodyTop + g.bodyHeight/2
	_, _ = v.Update(tea.MouseMotionMsg{X: g.columnX + 2, Y: y, Button: tea.MouseLeft})
	if got := layout.State().EditorHeightPercent; got != 50 {
		t.Fatalf("expected 50%% split, got %v", got)
	}

	_, _ = v.Update(tea.MouseReleaseMsg{X: g.columnX + 2, Y: g.bodyTop + 1})
	st := layout.State()
	if v.captured.Load() || st.Resizing {
		t.Fatalf("expected capture released after drag")
	}
	if st.EditorHeightPercent != workspace.MinEditorPercent {
		t.Fatalf("expected release position clamped to minimum, got %v", st.EditorHeightPercent)
	}
	if v.currentMouseMode() != tea.MouseModeCellMotion {
		t.Fatalf("expected normal mouse mode after release")
	}
}

func TestCompactSidebarOverlayClosesOnEsc(t *testing.T) {
	v, _, layout := newTestView(t, 80, 30)
	if !layout.Compact() || layout.State().SidebarOpen {
		t.Fatalf("expected compact layout with sidebar closed")
	}
	press(v, 'b', tea.ModCtrl, "")
	if !layout.State().SidebarOpen {
		t.Fatalf("expected ctrl+b to open the sidebar")
	}
	out := ansi.Strip(v.renderWorkspace())
	if !strings.Contains(out, "Data Structure") {
		t.Fatalf("expected sidebar overlay in compact render")
	}
	press(v, tea.KeyEscape, 0, "")
	if layout.State().SidebarOpen {
		t.Fatalf("expected esc to close the compact sidebar")
	}
}

func TestEscCancelsBusyOperation(t *testing.T) {
	v, ctrl, _ := newTestView(t, 140, 40)
	st := sampleState()
	st.Testing = true
	v.SetWorkspace(st)
	press(v, tea.KeyEscape, 0, "")
	waitCall(t, ctrl, "cancel")
}

func TestProblemListSelection(t *testing.T) {
	v, ctrl, _ := newTestView(t, 140, 40)
	v.SetWorkspace(sampleState())
	v.setFocus(focusProblems)
	press(v, tea.KeyDown, 0, "")
	press(v, tea.KeyEnter, 0, "")
	waitCall(t, ctrl, "select")
	ctrl.mu.Lock()
	defer ctrl.mu.Unlock()
	if ctrl.args[len(ctrl.args)-1] != "contains-duplicate" {
		t.Fatalf("expected second problem selected, got %#v", ctrl.args)
	}
}

func TestResultsRenderPassedRunWithOptimal(t *testing.T) {
	v, _, layout := newTestView(t, 160, 48)
	layout.OpenResults()
	layout.Nudge(-40)
	st := sampleState()
	st.Result = &practice.EvaluationResult{
		Passed: true,
		TestCases: []practice.TestCaseResult{
			{Input: "a", ExpectedOutput: "1", ActualOutput: "1", Passed: true},
			{Input: "b", ExpectedOutput: "2", ActualOutput: "2", Passed: true},
		},
		Efficiency: &practice.EfficiencyReport{TimeComplexity: "O(n)", OptimalTimeComplexity: "O(n)"},
	}
	st.ResultAt = time.Now()
	st.OptimalVisible = true
	v.SetWorkspace(st)

	out := ansi.Strip(v.renderWorkspace())
	for _, want := range []string{"All test cases passed!", "2/2 passed", "Optimal solution", "seen = {}"} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %q in results render", want)
		}
	}
}

func TestResultsRenderErrors(t *testing.T) {
	v, _, layout := newTestView(t, 140, 40)
	layout.OpenResults()
	st := sampleState()
	st.Result = &practice.EvaluationResult{Errors: []practice.ErrorDetail{{Type: "SyntaxError", Message: "bad indent"}}}
	v.SetWorkspace(st)
	out := ansi.Strip(v.renderWorkspace())
	if !strings.Contains(out, "Solution failed") || !strings.Contains(out, "SyntaxError: bad indent") {
		t.Fatalf("expected error details in results render")
	}
}

func TestErrorBannerInSidebar(t *testing.T) {
	v, _, _ := newTestView(t, 140, 40)
	st := sampleState()
	st.Error = "Please enter both Data Structure and Topic"
	v.SetWorkspace(st)
	out := ansi.Strip(v.renderWorkspace())
	if !strings.Contains(out, "Please enter both") {
		t.Fatalf("expected error banner")
	}
}

func TestTooSmallTerminal(t *testing.T) {
	v, _, _ := newTestView(t, 40, 10)
	out := ansi.Strip(v.renderWorkspace())
	if !strings.Contains(out, "Terminal too small") {
		t.Fatalf("expected too-small notice")
	}
}

func TestComposeOverlayKeepsBaseOutsideOverlay(t *testing.T) {
	base := strings.Join([]string{"aaaaaaaa", "bbbbbbbb", "cccccccc"}, "\n")
	out := composeOverlay(base, "XX", 8, 3)
	lines := strings.Split(out, "\n")
	if lines[1] != "bbbXXbbb" {
		t.Fatalf("unexpected overlay row %q", lines[1])
	}
	if lines[0] != "aaaaaaaa" || lines[2] != "cccccccc" {
		t.Fatalf("expected untouched rows, got %#v", lines)
	}
}
