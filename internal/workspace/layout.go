package workspace

import (
	"math"
	"sync"
)

const (
	MinEditorPercent     = 20.0
	MaxEditorPercent     = 80.0
	DefaultEditorPercent = 60.0
	CompactEditorPercent = 50.0
	NudgeStep            = 5.0

	DefaultCompactBreakpoint = 100
)

// PointerCapture is acquired for the lifetime of a resize gesture.
type PointerCapture interface {
	CapturePointer()
	ReleasePointer()
}

type LayoutState struct {
	Width               int
	Height              int
	SidebarOpen         bool
	ResultsOpen         bool
	EditorHeightPercent float64
	Resizing            bool
	Compact             bool
}

// Layout owns pane visibility and the editor/results split. It is safe for
// concurrent use; the UI reads it while controller goroutines open panes.
type Layout struct {
	mu         sync.Mutex
	breakpoint int
	measured   bool
	state      LayoutState
	gesture    *ResizeGesture
}

func NewLayout(compactBreakpoint int) *Layout {
	if compactBreakpoint <= 0 {
		compactBreakpoint = DefaultCompactBreakpoint
	}
	return &Layout{
		breakpoint: compactBreakpoint,
		state: LayoutState{
			SidebarOpen:         true,
			EditorHeightPercent: DefaultEditorPercent,
		},
	}
}

func (l *Layout) State() LayoutState {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

func (l *Layout) Compact() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state.Compact
}

// SetViewport records a terminal size. Entering compact mode, on the first
// measurement or from a wide size, closes the sidebar and resets the split.
func (l *Layout) SetViewport(width, height int) LayoutState {
	l.mu.Lock()
	defer l.mu.Unlock()
	compact := width < l.breakpoint
	entering := compact && (!l.measured || !l.state.Compact)
	l.measured = true
	l.state.Width, l.state.Height = width, height
	l.state.Compact = compact
	if entering {
		l.state.SidebarOpen = false
		l.state.EditorHeightPercent = CompactEditorPercent
	}
	return l.state
}

func (l *Layout) ToggleSidebar() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.SidebarOpen = !l.state.SidebarOpen
	return l.state.SidebarOpen
}

func (l *Layout) CloseSidebar() {
	l.mu.Lock()
	l.state.SidebarOpen = false
	l.mu.Unlock()
}

func (l *Layout) ToggleResults() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.ResultsOpen = !l.state.ResultsOpen
	return l.state.ResultsOpen
}

func (l *Layout) OpenResults() {
	l.mu.Lock()
	l.state.ResultsOpen = true
	l.mu.Unlock()
}

// Nudge moves the split by delta percentage points within the clamp.
func (l *Layout) Nudge(delta float64) float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.state.EditorHeightPercent = clampPercent(l.state.EditorHeightPercent + delta)
	return l.state.EditorHeightPercent
}

// BeginResize starts a drag over a container spanning height rows from top.
// A gesture already in progress is ended first. It returns nil when the
// container has no height.
func (l *Layout) BeginResize(top, height int, capture PointerCapture) *ResizeGesture {
	if height <= 0 {
		return nil
	}
	l.mu.Lock()
	prev := l.gesture
	l.mu.Unlock()
	if prev != nil {
		prev.End()
	}

	g := &ResizeGesture{layout: l, top: top, height: height, capture: capture}
	l.mu.Lock()
	l.gesture = g
	l.state.Resizing = true
	l.mu.Unlock()
	if capture != nil {
		capture.CapturePointer()
	}
	return g
}

// Close ends any live gesture, releasing its pointer capture.
func (l *Layout) Close() {
	l.mu.Lock()
	g := l.gesture
	l.mu.Unlock()
	if g != nil {
		g.End()
	}
}

type ResizeGesture struct {
	layout  *Layout
	top     int
	height  int
	capture PointerCapture
	ended   bool
}

// Move applies a pointer row and returns the resulting split percentage.
func (g *ResizeGesture) Move(y int) float64 {
	if g == nil {
		return 0
	}
	l := g.layout
	l.mu.Lock()
	defer l.mu.Unlock()
	if g.ended {
		return l.state.EditorHeightPercent
	}
	l.state.EditorHeightPercent = EditorPercentAt(y, g.top, g.height)
	return l.state.EditorHeightPercent
}

// End finishes the gesture. Only the first call releases the capture.
func (g *ResizeGesture) End() {
	if g == nil {
		return
	}
	l := g.layout
	l.mu.Lock()
	if g.ended {
		l.mu.Unlock()
		return
	}
	g.ended = true
	if l.gesture == g {
		l.gesture = nil
		l.state.Resizing = false
	}
	l.mu.Unlock()
	if g.capture != nil {
		g.capture.ReleasePointer()
	}
}

func (g *ResizeGesture) Active() bool {
	if g == nil {
		return false
	}
	g.layout.mu.Lock()
	defer g.layout.mu.Unlock()
	return !g.ended
}

// EditorPercentAt converts a pointer row inside a container to a clamped
// editor share.
func EditorPercentAt(y, top, height int) float64 {
	if height <= 0 {
		return DefaultEditorPercent
	}
	return clampPercent(float64(y-top) / float64(height) * 100)
}

func clampPercent(p float64) float64 {
	if math.IsNaN(p) {
		return DefaultEditorPercent
	}
	return math.Min(MaxEditorPercent, math.Max(MinEditorPercent, p))
}

// SplitRows divides total rows between editor and results for a percentage,
// keeping at least minRows on each side when possible.
func SplitRows(total int, percent float64, minRows int) (editor, results int) {
	if total <= 0 {
		return 0, 0
	}
	editor = int(math.Round(float64(total) * percent / 100))
	if total >= 2*minRows {
		if editor < minRows {
			editor = minRows
		}
		if total-editor < minRows {
			editor = total - minRows
		}
	}
	if editor > total {
		editor = total
	}
	return editor, total - editor
}
