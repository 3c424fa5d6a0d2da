package ui

import (
	"fmt"
	"io"
	"os"
	"runtime/debug"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"charm.land/bubbles/v2/help"
	"charm.land/bubbles/v2/key"
	"charm.land/bubbles/v2/spinner"
	"charm.land/bubbles/v2/textarea"
	"charm.land/bubbles/v2/textinput"
	"charm.land/bubbles/v2/viewport"
	tea "charm.land/bubbletea/v2"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/harmonica"
	clog "github.com/charmbracelet/log"

	"codequest/internal/workspace"
)

type applyMsg struct {
	fn func(*Root)
}

type animateMsg time.Time
type clockMsg time.Time

type workspaceKeyMap struct {
	Run      key.Binding
	Submit   key.Binding
	Generate key.Binding
	Sidebar  key.Binding
	Results  key.Binding
	Language key.Binding
	Optimal  key.Binding
	Copy     key.Binding
	Download key.Binding
	Grow     key.Binding
	Shrink   key.Binding
	Problem  key.Binding
	Cancel   key.Binding
	Help     key.Binding
	Quit     key.Binding
}

func (k workspaceKeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Run, k.Submit, k.Generate, k.Sidebar, k.Results, k.Problem, k.Help, k.Quit}
}

func (k workspaceKeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Run, k.Submit, k.Generate, k.Cancel},
		{k.Sidebar, k.Results, k.Problem, k.Grow, k.Shrink},
		{k.Language, k.Optimal, k.Copy, k.Download},
		{k.Help, k.Quit},
	}
}

func newKeyMap() workspaceKeyMap {
	return workspaceKeyMap{
		Run:      key.NewBinding(key.WithKeys("f5", "ctrl+r"), key.WithHelp("F5", "Run")),
		Submit:   key.NewBinding(key.WithKeys("f6", "ctrl+s"), key.WithHelp("F6", "Submit")),
		Generate: key.NewBinding(key.WithKeys("ctrl+g"), key.WithHelp("^G", "Generate")),
		Sidebar:  key.NewBinding(key.WithKeys("ctrl+b"), key.WithHelp("^B", "Sidebar")),
		Results:  key.NewBinding(key.WithKeys("ctrl+t"), key.WithHelp("^T", "Results")),
		Language: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("^L", "Language")),
		Optimal:  key.NewBinding(key.WithKeys("ctrl+o"), key.WithHelp("^O", "Optimal")),
		Copy:     key.NewBinding(key.WithKeys("ctrl+y", "f7"), key.WithHelp("^Y", "Copy")),
		Download: key.NewBinding(key.WithKeys("f8"), key.WithHelp("F8", "Download")),
		Grow:     key.NewBinding(key.WithKeys("alt+down"), key.WithHelp("alt+↓", "Grow editor")),
		Shrink:   key.NewBinding(key.WithKeys("alt+up"), key.WithHelp("alt+↑", "Shrink editor")),
		Problem:  key.NewBinding(key.WithKeys("f2"), key.WithHelp("F2", "Problem")),
		Cancel:   key.NewBinding(key.WithKeys("esc"), key.WithHelp("Esc", "Cancel/Back")),
		Help:     key.NewBinding(key.WithKeys("f1"), key.WithHelp("F1", "Help")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+q", "ctrl+c"), key.WithHelp("^Q", "Quit")),
	}
}

// geometry is the screen placement computed by the last render. Mouse
// handling hit-tests against it.
type geometry struct {
	compact    bool
	bodyTop    int
	bodyHeight int
	sidebarW   int
	problemX   int
	problemW   int
	columnX    int
	columnW    int
	editorH    int
	resultsH   int
	dividerY   int
	sidebar    map[int]sidebarHit
}

func (g geometry) inColumn(x int) bool {
	return x >= g.columnX && x < g.columnX+g.columnW
}

func (g geometry) inSidebar(x, y int) bool {
	return g.sidebarW > 0 && x < g.sidebarW && y >= g.bodyTop && y < g.bodyTop+g.bodyHeight
}

type Root struct {
	theme        Theme
	ascii        bool
	debug        bool
	ctrl         Controller
	layout       *workspace.Layout
	styleVariant string
	motionLevel  string
	mouseScope   string

	mu      sync.Mutex
	program *tea.Program
	running bool

	cols int
	rows int
	geo  geometry

	ws           WorkspaceState
	codeRevision int
	lastCode     string
	listIndex    int
	listOffset   int
	statusFlash  string

	focus       focusArea
	helpOpen    bool
	problemOpen bool

	editor      textarea.Model
	dsInput     textinput.Model
	topicInput  textinput.Model
	results     viewport.Model
	problemView viewport.Model

	gesture     *workspace.ResizeGesture
	captured    atomic.Bool
	resumeFocus focusArea

	help     help.Model
	keymap   workspaceKeyMap
	busySpin spinner.Model
	logger   *clog.Logger

	markdown      *glamour.TermRenderer
	markdownWidth int
	markdownKey   string
	markdownOut   string
	highlightKey  string
	highlightOut  string

	sidebarPos float64
	sidebarVel float64
	spring     harmonica.Spring

	lastInputEvent string
}

type Options struct {
	Layout       *workspace.Layout
	ASCIIOnly    bool
	Debug        bool
	StyleVariant string
	MotionLevel  string
	MouseScope   string
	// LogOutput receives recovered panics; stderr when nil.
	LogOutput io.Writer
}

func New(opts Options) *Root {
	out := opts.LogOutput
	if out == nil {
		out = os.Stderr
	}
	logger := clog.NewWithOptions(out, clog.Options{Prefix: "codequest-ui", Level: clog.WarnLevel})
	if opts.Debug {
		logger.SetLevel(clog.DebugLevel)
	}
	layout := opts.Layout
	if layout == nil {
		layout = workspace.NewLayout(workspace.DefaultCompactBreakpoint)
	}

	h := help.New()
	h.Styles = help.DefaultDarkStyles()
	motionLevel := normalizeMotionLevel(opts.MotionLevel)
	mouseScope := normalizeMouseScope(opts.MouseScope)
	styleVariant := normalizeStyleVariant(opts.StyleVariant)
	theme := ThemeForVariant(styleVariant)
	spring := harmonica.NewSpring(harmonica.FPS(60), 10.0, 0.8)
	if motionLevel == "reduced" {
		spring = harmonica.NewSpring(harmonica.FPS(30), 9.0, 0.92)
	}

	editor := textarea.New()
	editor.Prompt = ""
	editor.Placeholder = "Generate problems to start coding."
	editor.ShowLineNumbers = true
	editor.CharLimit = 0
	editor.MaxHeight = 0

	ds := textinput.New()
	ds.Prompt = "> "
	ds.Placeholder = "e.g. Arrays"
	topic := textinput.New()
	topic.Prompt = "> "
	topic.Placeholder = "e.g. Two Pointers"

	r := &Root{
		theme:        theme,
		ascii:        opts.ASCIIOnly,
		debug:        opts.Debug,
		layout:       layout,
		styleVariant: styleVariant,
		motionLevel:  motionLevel,
		mouseScope:   mouseScope,
		cols:         120,
		rows:         32,
		editor:       editor,
		dsInput:      ds,
		topicInput:   topic,
		results:      viewport.New(),
		problemView:  viewport.New(),
		help:         h,
		keymap:       newKeyMap(),
		busySpin:     spinner.New(spinner.WithSpinner(spinner.MiniDot), spinner.WithStyle(theme.Accent)),
		logger:       logger,
		spring:       spring,
		focus:        focusDataStructure,
		ws:           WorkspaceState{LoggedIn: true},
	}
	if layout.State().SidebarOpen {
		r.sidebarPos = 1
	}
	r.dsInput.Focus()
	return r
}

func (r *Root) Init() tea.Cmd {
	return tea.Batch(clockTickCmd(), spinnerTickCmd(r.busySpin), r.animateIfNeeded())
}

func (r *Root) Update(msg tea.Msg) (model tea.Model, cmd tea.Cmd) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("update", rec, msg)
			model = r
			cmd = nil
		}
	}()

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		r.cols = msg.Width
		r.rows = msg.Height
		r.layout.SetViewport(msg.Width, msg.Height)
		return r, r.animateIfNeeded()
	case applyMsg:
		if msg.fn != nil {
			msg.fn(r)
		}
		return r, r.animateIfNeeded()
	case clockMsg:
		return r, clockTickCmd()
	case animateMsg:
		target := r.sidebarTarget()
		r.sidebarPos, r.sidebarVel = r.spring.Update(r.sidebarPos, r.sidebarVel, target)
		if r.shouldAnimate(target) {
			return r, animateTickCmd()
		}
		r.sidebarPos = target
		r.sidebarVel = 0
		return r, nil
	case spinner.TickMsg:
		var cmd tea.Cmd
		r.busySpin, cmd = r.busySpin.Update(msg)
		return r, cmd
	case tea.PasteMsg:
		return r.handlePaste(msg)
	case tea.MouseClickMsg:
		return r.handleMouseClick(msg)
	case tea.MouseMotionMsg:
		return r.handleMouseMotion(msg)
	case tea.MouseReleaseMsg:
		return r.handleMouseRelease(msg)
	case tea.MouseWheelMsg:
		return r.handleMouseWheel(msg)
	case tea.KeyPressMsg:
		return r.handleKey(msg)
	}
	return r, r.forwardToFocused(msg)
}

func (r *Root) View() (view tea.View) {
	defer func() {
		if rec := recover(); rec != nil {
			r.onModelPanic("view", rec, nil)
			width := max(1, r.cols)
			if r.statusFlash == "" {
				r.statusFlash = "Recovered UI panic"
			}
			view = tea.NewView(r.theme.Fail.Width(width).Render(trimForWidth("UI recovered from a rendering panic. Check logs.", max(1, width-1))))
		}
	}()

	if r.cols < 1 {
		r.cols = 120
	}
	if r.rows < 1 {
		r.rows = 32
	}

	base := r.renderWorkspace()
	if overlay := r.renderOverlay(); overlay != "" {
		base = composeOverlay(base, overlay, r.cols, r.rows)
	}
	v := tea.NewView(base)
	v.AltScreen = true
	v.MouseMode = r.currentMouseMode()
	return v
}

func (r *Root) Run() error {
	r.mu.Lock()
	if r.running {
		r.mu.Unlock()
		return nil
	}
	p := tea.NewProgram(r)
	r.program = p
	r.running = true
	r.mu.Unlock()

	_, err := p.Run()

	r.mu.Lock()
	r.program = nil
	r.running = false
	r.mu.Unlock()
	return err
}

func (r *Root) Stop() {
	r.mu.Lock()
	p := r.program
	r.mu.Unlock()
	if p != nil {
		p.Quit()
	}
}

func (r *Root) SetController(c Controller) {
	r.ctrl = c
}

func (r *Root) SetWorkspace(state WorkspaceState) {
	r.apply(func(m *Root) {
		m.setWorkspace(state)
	})
}

func (r *Root) SetTopic(dataStructure, topic string) {
	r.apply(func(m *Root) {
		m.dsInput.SetValue(dataStructure)
		m.topicInput.SetValue(topic)
	})
}

func (r *Root) FlashStatus(msg string) {
	r.apply(func(m *Root) {
		m.statusFlash = msg
	})
}

// CapturePointer and ReleasePointer bracket a divider drag. They may be
// called off the UI loop when the layout is closed.
func (r *Root) CapturePointer() { r.captured.Store(true) }
func (r *Root) ReleasePointer() { r.captured.Store(false) }

func (r *Root) setWorkspace(s WorkspaceState) {
	prevSelected := r.ws.SelectedID()
	prevResult := r.ws.Result
	r.ws = s

	if s.CodeRevision != r.codeRevision {
		r.codeRevision = s.CodeRevision
		r.editor.SetValue(s.Code)
		r.editor.MoveToBegin()
		r.lastCode = s.Code
	}
	if sel := s.SelectedID(); sel != prevSelected {
		for i, p := range s.Problems {
			if p.ID == sel {
				r.listIndex = i
			}
		}
		r.problemView.GotoTop()
		if sel != "" && (r.focus == focusDataStructure || r.focus == focusTopic) && !s.Generating {
			r.setFocus(focusEditor)
		}
	}
	if r.listIndex >= len(s.Problems) {
		r.listIndex = max(0, len(s.Problems)-1)
	}
	if s.Result != prevResult {
		r.results.GotoTop()
	}
	if !s.OptimalVisible {
		r.highlightKey = ""
	}
}

func (r *Root) apply(fn func(*Root)) {
	if fn == nil {
		return
	}
	r.mu.Lock()
	p := r.program
	running := r.running
	if !running || p == nil {
		fn(r)
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()
	p.Send(applyMsg{fn: fn})
}

func (r *Root) dispatchController(fn func(Controller)) {
	if fn == nil || r.ctrl == nil {
		return
	}
	ctrl := r.ctrl
	go fn(ctrl)
}

func (r *Root) setFocus(f focusArea) tea.Cmd {
	r.focus = f
	r.editor.Blur()
	r.dsInput.Blur()
	r.topicInput.Blur()
	switch f {
	case focusEditor:
		return r.editor.Focus()
	case focusDataStructure:
		return r.dsInput.Focus()
	case focusTopic:
		return r.topicInput.Focus()
	}
	return nil
}

var focusCycle = []focusArea{focusDataStructure, focusTopic, focusProblems, focusEditor, focusResults}

func (r *Root) cycleFocus(delta int) tea.Cmd {
	idx := 0
	for i, f := range focusCycle {
		if f == r.focus {
			idx = i
		}
	}
	for range focusCycle {
		idx = (idx + delta + len(focusCycle)) % len(focusCycle)
		if r.focusable(focusCycle[idx]) {
			break
		}
	}
	return r.setFocus(focusCycle[idx])
}

func (r *Root) focusable(f focusArea) bool {
	st := r.layout.State()
	switch f {
	case focusDataStructure, focusTopic, focusProblems:
		return st.SidebarOpen
	case focusResults:
		return st.ResultsOpen
	default:
		return true
	}
}

func (r *Root) generate() {
	ds := r.dsInput.Value()
	topic := r.topicInput.Value()
	r.dispatchController(func(c Controller) { c.OnGenerate(ds, topic) })
}

func (r *Root) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("key:%s focus:%s", msg.String(), r.focus))

	if key.Matches(msg, r.keymap.Quit) {
		r.dispatchController(func(c Controller) { c.OnQuit() })
		return r, nil
	}
	if r.helpOpen {
		if key.Matches(msg, r.keymap.Help, r.keymap.Cancel) || msg.String() == "?" || msg.String() == "enter" {
			r.helpOpen = false
		}
		return r, nil
	}
	if r.problemOpen {
		switch {
		case key.Matches(msg, r.keymap.Problem, r.keymap.Cancel):
			r.problemOpen = false
		case msg.String() == "up" || msg.String() == "k":
			r.problemView.ScrollUp(1)
		case msg.String() == "down" || msg.String() == "j":
			r.problemView.ScrollDown(1)
		case msg.String() == "pgup":
			r.problemView.PageUp()
		case msg.String() == "pgdown":
			r.problemView.PageDown()
		}
		return r, nil
	}

	switch {
	case key.Matches(msg, r.keymap.Help):
		r.helpOpen = true
		return r, nil
	case key.Matches(msg, r.keymap.Generate):
		r.generate()
		return r, nil
	case key.Matches(msg, r.keymap.Run):
		r.dispatchController(func(c Controller) { c.OnRunTests() })
		return r, nil
	case key.Matches(msg, r.keymap.Submit):
		r.dispatchController(func(c Controller) { c.OnSubmit() })
		return r, nil
	case key.Matches(msg, r.keymap.Sidebar):
		open := r.layout.ToggleSidebar()
		if !open && (r.focus == focusDataStructure || r.focus == focusTopic || r.focus == focusProblems) {
			return r, tea.Batch(r.setFocus(focusEditor), r.animateIfNeeded())
		}
		return r, r.animateIfNeeded()
	case key.Matches(msg, r.keymap.Results):
		if !r.layout.ToggleResults() && r.focus == focusResults {
			return r, r.setFocus(focusEditor)
		}
		return r, nil
	case key.Matches(msg, r.keymap.Language):
		r.dispatchController(func(c Controller) { c.OnCycleLanguage() })
		return r, nil
	case key.Matches(msg, r.keymap.Optimal):
		r.dispatchController(func(c Controller) { c.OnToggleOptimal() })
		return r, nil
	case key.Matches(msg, r.keymap.Copy):
		code := r.editor.Value()
		r.dispatchController(func(c Controller) { c.OnCopyCode() })
		return r, tea.SetClipboard(code)
	case key.Matches(msg, r.keymap.Download):
		r.dispatchController(func(c Controller) { c.OnDownloadCode() })
		return r, nil
	case key.Matches(msg, r.keymap.Grow):
		r.layout.Nudge(workspace.NudgeStep)
		return r, nil
	case key.Matches(msg, r.keymap.Shrink):
		r.layout.Nudge(-workspace.NudgeStep)
		return r, nil
	case key.Matches(msg, r.keymap.Problem):
		if r.geo.problemW > 0 {
			r.statusFlash = "The problem is shown beside the editor"
			return r, nil
		}
		r.problemOpen = r.ws.Problem != nil
		return r, nil
	case key.Matches(msg, r.keymap.Cancel):
		return r.handleEscape()
	}

	switch r.focus {
	case focusEditor:
		return r.handleEditorKey(msg)
	case focusDataStructure, focusTopic:
		return r.handleInputKey(msg)
	case focusProblems:
		return r.handleListKey(msg)
	case focusResults:
		return r.handleResultsKey(msg)
	}
	return r, nil
}

func (r *Root) handleEscape() (tea.Model, tea.Cmd) {
	switch {
	case r.ws.Busy():
		r.dispatchController(func(c Controller) { c.OnCancel() })
		return r, nil
	case r.layout.Compact() && r.layout.State().SidebarOpen:
		r.layout.CloseSidebar()
		return r, tea.Batch(r.setFocus(focusEditor), r.animateIfNeeded())
	case r.focus == focusEditor && r.layout.State().SidebarOpen:
		return r, r.setFocus(focusProblems)
	case r.focus != focusEditor:
		return r, r.setFocus(focusEditor)
	}
	return r, nil
}

func (r *Root) handleEditorKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "tab" {
		r.editor.InsertString("  ")
		r.syncEdit()
		return r, nil
	}
	if msg.String() == "shift+tab" {
		return r, r.cycleFocus(-1)
	}
	var cmd tea.Cmd
	r.editor, cmd = r.editor.Update(msg)
	r.syncEdit()
	return r, cmd
}

// syncEdit hands the buffer to the controller synchronously so a run or
// submit dispatched afterwards always sees the latest text.
func (r *Root) syncEdit() {
	v := r.editor.Value()
	if v == r.lastCode {
		return
	}
	r.lastCode = v
	if r.ctrl != nil {
		r.ctrl.OnEdit(v)
	}
}

func (r *Root) handleInputKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		if r.focus == focusDataStructure && strings.TrimSpace(r.topicInput.Value()) == "" {
			return r, r.setFocus(focusTopic)
		}
		r.generate()
		return r, nil
	case "tab", "down":
		return r, r.cycleFocus(1)
	case "shift+tab", "up":
		return r, r.cycleFocus(-1)
	}
	var cmd tea.Cmd
	if r.focus == focusDataStructure {
		r.dsInput, cmd = r.dsInput.Update(msg)
	} else {
		r.topicInput, cmd = r.topicInput.Update(msg)
	}
	return r, cmd
}

func (r *Root) handleListKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		r.moveList(-1)
	case "down", "j":
		r.moveList(1)
	case "enter", "space":
		r.selectListIndex()
	case "tab":
		return r, r.cycleFocus(1)
	case "shift+tab":
		return r, r.cycleFocus(-1)
	case "?":
		r.helpOpen = true
	}
	return r, nil
}

func (r *Root) handleResultsKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "up", "k":
		r.results.ScrollUp(1)
	case "down", "j":
		r.results.ScrollDown(1)
	case "pgup":
		r.results.PageUp()
	case "pgdown":
		r.results.PageDown()
	case "home":
		r.results.GotoTop()
	case "end":
		r.results.GotoBottom()
	case "tab":
		return r, r.cycleFocus(1)
	case "shift+tab":
		return r, r.cycleFocus(-1)
	case "?":
		r.helpOpen = true
	}
	return r, nil
}

func (r *Root) moveList(delta int) {
	n := len(r.ws.Problems)
	if n == 0 {
		return
	}
	r.listIndex = min(n-1, max(0, r.listIndex+delta))
}

func (r *Root) selectListIndex() {
	if r.listIndex < 0 || r.listIndex >= len(r.ws.Problems) {
		return
	}
	id := r.ws.Problems[r.listIndex].ID
	r.dispatchController(func(c Controller) { c.OnSelectProblem(id) })
}

func (r *Root) handlePaste(msg tea.PasteMsg) (tea.Model, tea.Cmd) {
	r.recordInputEvent(fmt.Sprintf("paste:%d", len(msg.Content)))
	if r.helpOpen || r.problemOpen || msg.Content == "" {
		return r, nil
	}
	return r, r.forwardToFocused(msg)
}

func (r *Root) forwardToFocused(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch r.focus {
	case focusEditor:
		r.editor, cmd = r.editor.Update(msg)
		r.syncEdit()
	case focusDataStructure:
		r.dsInput, cmd = r.dsInput.Update(msg)
	case focusTopic:
		r.topicInput, cmd = r.topicInput.Update(msg)
	}
	return cmd
}

func (r *Root) handleMouseClick(msg tea.MouseClickMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_click:%d,%d button:%v", m.X, m.Y, m.Button))
	if r.mouseScope == "off" || m.Button != tea.MouseLeft {
		return r, nil
	}
	if r.helpOpen {
		r.helpOpen = false
		return r, nil
	}
	if r.problemOpen {
		r.problemOpen = false
		return r, nil
	}

	g := r.geo
	if g.dividerY >= 0 && m.Y == g.dividerY && g.inColumn(m.X) {
		r.resumeFocus = r.focus
		r.setFocus(focusResults)
		r.gesture = r.layout.BeginResize(g.bodyTop, g.bodyHeight, r)
		return r, nil
	}
	if g.inSidebar(m.X, m.Y) {
		return r.handleSidebarClick(m.Y - g.bodyTop - 1)
	}
	if g.compact && r.layout.State().SidebarOpen {
		r.layout.CloseSidebar()
		return r, r.animateIfNeeded()
	}
	if g.inColumn(m.X) && m.Y >= g.bodyTop {
		if m.Y < g.bodyTop+g.editorH {
			return r, r.setFocus(focusEditor)
		}
		if g.resultsH > 0 {
			return r, r.setFocus(focusResults)
		}
	}
	return r, nil
}

func (r *Root) handleSidebarClick(line int) (tea.Model, tea.Cmd) {
	hit, ok := r.geo.sidebar[line]
	if !ok {
		return r, nil
	}
	switch hit.kind {
	case hitDataStructure:
		return r, r.setFocus(focusDataStructure)
	case hitTopic:
		return r, r.setFocus(focusTopic)
	case hitGenerate:
		r.generate()
	case hitProblem:
		r.setFocus(focusProblems)
		r.listIndex = hit.index
		r.selectListIndex()
	}
	return r, nil
}

func (r *Root) handleMouseMotion(msg tea.MouseMotionMsg) (tea.Model, tea.Cmd) {
	if r.gesture == nil {
		return r, nil
	}
	r.gesture.Move(msg.Mouse().Y)
	return r, nil
}

func (r *Root) handleMouseRelease(msg tea.MouseReleaseMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_release:%d,%d", m.X, m.Y))
	if r.gesture == nil {
		return r, nil
	}
	r.gesture.Move(m.Y)
	r.gesture.End()
	r.gesture = nil
	return r, r.setFocus(r.resumeFocus)
}

func (r *Root) handleMouseWheel(msg tea.MouseWheelMsg) (tea.Model, tea.Cmd) {
	m := msg.Mouse()
	r.recordInputEvent(fmt.Sprintf("mouse_wheel:%d,%d button:%v", m.X, m.Y, m.Button))
	if r.mouseScope == "off" {
		return r, nil
	}
	delta := 0
	switch m.Button {
	case tea.MouseWheelUp:
		delta = -1
	case tea.MouseWheelDown:
		delta = 1
	}
	if delta == 0 {
		return r, nil
	}

	g := r.geo
	switch {
	case r.problemOpen:
		scrollViewport(&r.problemView, delta*3)
	case g.inSidebar(m.X, m.Y):
		r.moveList(delta)
	case g.problemW > 0 && m.X >= g.problemX && m.X < g.problemX+g.problemW:
		scrollViewport(&r.problemView, delta*3)
	case g.inColumn(m.X) && g.resultsH > 0 && m.Y > g.dividerY:
		scrollViewport(&r.results, delta*3)
	case g.inColumn(m.X) && r.mouseScope == "full":
		if delta < 0 {
			r.editor.CursorUp()
		} else {
			r.editor.CursorDown()
		}
	}
	return r, nil
}

func scrollViewport(v *viewport.Model, delta int) {
	if delta < 0 {
		v.ScrollUp(-delta)
	} else {
		v.ScrollDown(delta)
	}
}

func (r *Root) sidebarTarget() float64 {
	if r.layout.State().SidebarOpen {
		return 1
	}
	return 0
}

func (r *Root) animateIfNeeded() tea.Cmd {
	target := r.sidebarTarget()
	if r.motionLevel == "off" {
		r.sidebarPos = target
		r.sidebarVel = 0
		return nil
	}
	if r.shouldAnimate(target) {
		return animateTickCmd()
	}
	return nil
}

func (r *Root) shouldAnimate(target float64) bool {
	if r.motionLevel == "off" {
		return false
	}
	if target > 0 {
		return r.sidebarPos < 0.999 || abs(r.sidebarVel) > 0.001
	}
	return r.sidebarPos > 0.001 || abs(r.sidebarVel) > 0.001
}

func clockTickCmd() tea.Cmd {
	return tea.Tick(time.Second, func(t time.Time) tea.Msg { return clockMsg(t) })
}

func animateTickCmd() tea.Cmd {
	return tea.Tick(time.Second/60, func(t time.Time) tea.Msg { return animateMsg(t) })
}

func spinnerTickCmd(model spinner.Model) tea.Cmd {
	return func() tea.Msg {
		return model.Tick()
	}
}

func (r *Root) currentMouseMode() tea.MouseMode {
	switch {
	case r.mouseScope == "off":
		return tea.MouseModeNone
	case r.captured.Load():
		return tea.MouseModeAllMotion
	default:
		return tea.MouseModeCellMotion
	}
}

func normalizeStyleVariant(v string) string {
	switch strings.TrimSpace(v) {
	case "midnight", "daylight", "retro":
		return strings.TrimSpace(v)
	default:
		return "midnight"
	}
}

func normalizeMotionLevel(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "reduced", "full":
		return strings.TrimSpace(v)
	default:
		return "full"
	}
}

func normalizeMouseScope(v string) string {
	switch strings.TrimSpace(v) {
	case "off", "scoped", "full":
		return strings.TrimSpace(v)
	default:
		return "scoped"
	}
}

func (r *Root) recordInputEvent(event string) {
	r.lastInputEvent = trimForWidth(strings.TrimSpace(event), 160)
}

func (r *Root) onModelPanic(where string, recovered any, msg tea.Msg) {
	if r.statusFlash == "" {
		r.statusFlash = "Recovered UI panic"
	}
	msgType := ""
	if msg != nil {
		msgType = fmt.Sprintf("%T", msg)
	}
	r.logger.Error("ui.panic_recovered",
		"where", where,
		"panic", fmt.Sprintf("%v", recovered),
		"message_type", msgType,
		"cols", r.cols,
		"rows", r.rows,
		"focus", r.focus.String(),
		"last_input", r.lastInputEvent,
		"stack", string(debug.Stack()),
	)
}

var _ tea.Model = (*Root)(nil)
var _ View = (*Root)(nil)
var _ workspace.PointerCapture = (*Root)(nil)
