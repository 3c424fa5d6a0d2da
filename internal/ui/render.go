package ui

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/lipgloss/v2"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
	"github.com/dustin/go-humanize"

	"codequest/internal/practice"
	"codequest/internal/workspace"
)

const (
	minCols = 50
	minRows = 14
)

type hitKind int

const (
	hitDataStructure hitKind = iota
	hitTopic
	hitGenerate
	hitProblem
)

type sidebarHit struct {
	kind  hitKind
	index int
}

func (r *Root) renderWorkspace() string {
	w, h := r.cols, r.rows
	if w < minCols || h < minRows {
		r.geo = geometry{dividerY: -1}
		msg := []string{
			"Terminal too small",
			fmt.Sprintf("Current: %dx%d", w, h),
			fmt.Sprintf("Minimum: %dx%d", minCols, minRows),
		}
		panel := r.drawPanel("Resize Required", msg, min(40, w), min(6, h), false)
		return lipgloss.Place(w, h, lipgloss.Center, lipgloss.Center, panel)
	}

	st := r.layout.State()
	g := geometry{
		compact:    st.Compact,
		bodyTop:    1,
		bodyHeight: h - 2,
		dividerY:   -1,
	}

	sidebarFull := clampInt(w/4, 26, 36)
	if st.Compact {
		sidebarFull = min(w-4, 36)
	}
	sidebarW := int(r.sidebarPos*float64(sidebarFull) + 0.5)
	if sidebarW < 8 {
		sidebarW = 0
	}
	g.sidebarW = sidebarW

	mainX := 0
	if !st.Compact {
		mainX = sidebarW
	}
	mainW := w - mainX
	if !st.Compact && mainW >= 70 {
		g.problemX = mainX
		g.problemW = max(24, mainW*2/5)
	}
	g.columnX = mainX + g.problemW
	g.columnW = w - g.columnX

	if st.ResultsOpen {
		g.editorH, g.resultsH = workspace.SplitRows(g.bodyHeight-1, st.EditorHeightPercent, 3)
		g.dividerY = g.bodyTop + g.editorH
	} else {
		g.editorH = g.bodyHeight
	}

	parts := make([]string, 0, 3)
	var sidebar string
	if sidebarW > 0 {
		sidebar, g.sidebar = r.renderSidebar(sidebarW, g.bodyHeight)
		if !st.Compact {
			parts = append(parts, sidebar)
		}
	}
	if g.problemW > 0 {
		parts = append(parts, r.renderProblemPanel(g.problemW, g.bodyHeight))
	}
	column := []string{r.renderEditor(g.columnW, g.editorH)}
	if st.ResultsOpen {
		column = append(column, r.renderDivider(g.columnW, st), r.renderResults(g.columnW, g.resultsH))
	}
	parts = append(parts, strings.Join(column, "\n"))
	body := lipgloss.JoinHorizontal(lipgloss.Top, parts...)

	r.geo = g
	base := r.headerText() + "\n" + body + "\n" + r.statusText()
	if st.Compact && sidebar != "" {
		base = spliceOverlay(base, sidebar, w, h, g.bodyTop, 0)
	}
	return base
}

func (r *Root) renderOverlay() string {
	switch {
	case r.helpOpen:
		hm := r.help
		hm.ShowAll = true
		hm.SetWidth(max(20, r.cols-8))
		lines := []string{r.theme.OverlayTitle.Render("Keys"), ""}
		lines = append(lines, strings.Split(hm.View(r.keymap), "\n")...)
		lines = append(lines, "", r.theme.Muted.Render("Tab inserts two spaces in the editor. Esc leaves it."))
		lines = append(lines, r.theme.Muted.Render("Drag the divider to resize the editor and results."))
		width := min(r.cols-4, 84)
		return r.drawPanel("Help", lines, width, min(r.rows-2, len(lines)+2), true)
	case r.problemOpen && r.ws.Problem != nil:
		return r.renderProblemPanel(max(20, r.cols-6), max(6, r.rows-4))
	}
	return ""
}

func (r *Root) headerText() string {
	width := max(1, r.cols-2)
	parts := []string{"codequest"}
	if p := r.ws.Problem; p != nil {
		parts = append(parts, p.Title)
	}
	parts = append(parts, r.ws.Language.Name)
	if !r.ws.LoggedIn {
		parts = append(parts, "logged out")
	}
	txt := strings.Join(parts, " | ")
	if r.debug {
		st := r.layout.State()
		txt = fmt.Sprintf("%s | %dx%d compact=%v split=%.0f%% focus=%s", txt, r.cols, r.rows, st.Compact, st.EditorHeightPercent, r.focus)
	}
	return r.theme.Header.Width(max(1, r.cols)).Render(trimForWidth(txt, width))
}

func (r *Root) statusText() string {
	keys := r.help.View(r.keymap)
	if keys == "" {
		keys = "F5 Run  F6 Submit  ^G Generate  ^B Sidebar  ^T Results  F1 Help  ^Q Quit"
	}
	if label := r.busyLabel(); label != "" {
		keys = r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View())+" "+label) + " | " + keys
	}
	if r.statusFlash != "" {
		keys = r.statusFlash + " | " + keys
	}
	keys = trimForWidth(keys, max(1, r.cols-2))
	return r.theme.Status.Width(max(1, r.cols)).Render(keys)
}

func (r *Root) busyLabel() string {
	switch {
	case r.ws.Generating:
		return "Generating..."
	case r.ws.Testing:
		return "Running tests..."
	case r.ws.Submitting:
		return "Submitting..."
	}
	return ""
}

func (r *Root) renderSidebar(width, height int) (string, map[int]sidebarHit) {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	hits := map[int]sidebarHit{}
	lines := make([]string, 0, innerH)

	r.dsInput.SetWidth(max(1, innerW-3))
	r.topicInput.SetWidth(max(1, innerW-3))

	lines = append(lines, r.labelFor("Data Structure", r.focus == focusDataStructure))
	hits[len(lines)] = sidebarHit{kind: hitDataStructure}
	lines = append(lines, r.dsInput.View())
	lines = append(lines, r.labelFor("Topic", r.focus == focusTopic))
	hits[len(lines)] = sidebarHit{kind: hitTopic}
	lines = append(lines, r.topicInput.View(), "")

	hits[len(lines)] = sidebarHit{kind: hitGenerate}
	switch {
	case r.ws.Generating:
		lines = append(lines, r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View())+" Generating..."))
	case !r.ws.LoggedIn:
		lines = append(lines, r.theme.Muted.Render("[ Generate ] log in first"))
	default:
		lines = append(lines, r.theme.Accent.Render("[ Generate ]")+r.theme.Muted.Render(" ^G"))
	}

	if r.ws.Error != "" {
		lines = append(lines, "")
		for _, l := range strings.Split(ansi.Wrap(r.ws.Error, innerW, ""), "\n") {
			lines = append(lines, r.theme.Banner.Render(l))
		}
	}

	lines = append(lines, "", r.labelFor(fmt.Sprintf("Problems (%d)", len(r.ws.Problems)), r.focus == focusProblems))
	listTop := len(lines)
	visible := max(1, innerH-listTop)
	if r.listIndex < r.listOffset {
		r.listOffset = r.listIndex
	}
	if r.listIndex >= r.listOffset+visible {
		r.listOffset = r.listIndex - visible + 1
	}
	if len(r.ws.Problems) == 0 {
		lines = append(lines, r.theme.Muted.Render("No problems yet."))
	}
	selected := r.ws.SelectedID()
	for i := r.listOffset; i < len(r.ws.Problems) && len(lines) < innerH; i++ {
		p := r.ws.Problems[i]
		hits[len(lines)] = sidebarHit{kind: hitProblem, index: i}
		lines = append(lines, r.problemRow(p, i == r.listIndex && r.focus == focusProblems, p.ID == selected, innerW))
	}
	return r.drawPanel("Workspace", lines, width, height, r.sidebarFocused()), hits
}

func (r *Root) sidebarFocused() bool {
	return r.focus == focusDataStructure || r.focus == focusTopic || r.focus == focusProblems
}

func (r *Root) labelFor(label string, focused bool) string {
	if focused {
		return r.theme.Accent.Render(label)
	}
	return r.theme.Muted.Render(label)
}

func (r *Root) problemRow(p ProblemRow, cursor, selected bool, width int) string {
	marker := "  "
	switch {
	case cursor:
		marker = r.glyph("▸ ", "> ")
	case selected:
		marker = r.glyph("● ", "* ")
	}
	tag := string(p.Difficulty)
	if tag == "" {
		tag = "?"
	}
	suffix := " " + tag
	if p.Solved {
		suffix += r.glyph(" ✓", " ok")
	}
	title := trimForWidth(p.Title, max(1, width-ansi.StringWidth(marker)-ansi.StringWidth(suffix)))
	line := marker + title
	pad := max(0, width-ansi.StringWidth(line)-ansi.StringWidth(suffix))
	styledSuffix := " " + r.theme.Difficulty(p.Difficulty).Render(tag)
	if p.Solved {
		styledSuffix += r.theme.Pass.Render(r.glyph(" ✓", " ok"))
	}
	if selected {
		line = r.theme.Accent.Render(line)
	}
	return line + strings.Repeat(" ", pad) + styledSuffix
}

func (r *Root) renderProblemPanel(width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	p := r.ws.Problem
	if p == nil {
		return r.drawPanel("Problem", []string{r.theme.Muted.Render("Select a problem to see its description.")}, width, height, false)
	}
	r.problemView.SetWidth(innerW)
	r.problemView.SetHeight(innerH)
	r.problemView.SetContent(r.renderMarkdown(p.ID, problemMarkdown(*p), innerW))
	return r.drawPanel(p.Title, strings.Split(r.problemView.View(), "\n"), width, height, r.problemOpen)
}

func problemMarkdown(p practice.Problem) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**Difficulty:** %s\n\n", difficultyLabel(p.Difficulty))
	b.WriteString(strings.TrimSpace(p.Description))
	b.WriteString("\n\n")
	if len(p.Examples) > 0 {
		b.WriteString("## Examples\n\n")
		for i, ex := range p.Examples {
			fmt.Fprintf(&b, "**Example %d**\n\n```text\nInput: %s\nOutput: %s\n```\n\n", i+1, ex.Input, ex.ExpectedOutput)
			if ex.Explanation != "" {
				fmt.Fprintf(&b, "_Explanation:_ %s\n\n", ex.Explanation)
			}
		}
	}
	if len(p.Constraints) > 0 {
		b.WriteString("## Constraints\n\n")
		for _, c := range p.Constraints {
			fmt.Fprintf(&b, "- `%s`\n", c)
		}
	}
	return b.String()
}

func difficultyLabel(d practice.Difficulty) string {
	if d == "" {
		return "Unknown"
	}
	s := string(d)
	return strings.ToUpper(s[:1]) + s[1:]
}

func (r *Root) renderMarkdown(id, md string, width int) string {
	cacheKey := id + ":" + strconv.Itoa(width) + ":" + strconv.Itoa(len(md))
	if cacheKey == r.markdownKey {
		return r.markdownOut
	}
	if r.markdown == nil || r.markdownWidth != width {
		style := "dark"
		switch {
		case r.ascii:
			style = "ascii"
		case r.styleVariant == "daylight":
			style = "light"
		}
		renderer, err := glamour.NewTermRenderer(
			glamour.WithStandardStyle(style),
			glamour.WithWordWrap(max(10, width-2)),
		)
		if err == nil {
			r.markdown = renderer
			r.markdownWidth = width
		}
	}
	out := ansi.Wrap(md, width, "")
	if r.markdown != nil {
		if rendered, err := r.markdown.Render(md); err == nil {
			out = strings.Trim(rendered, "\n")
		}
	}
	r.markdownKey = cacheKey
	r.markdownOut = out
	return out
}

func (r *Root) renderEditor(width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	if r.editor.Width() != innerW {
		r.editor.SetWidth(innerW)
	}
	if r.editor.Height() != innerH {
		r.editor.SetHeight(innerH)
	}
	lang := r.ws.Language
	title := fmt.Sprintf("Solution %s %s (%s)", r.glyph("·", "-"), lang.Name, practice.SolutionFileName(lang.ID))
	if lang.Name == "" {
		title = "Solution"
	}
	return r.drawPanel(title, strings.Split(r.editor.View(), "\n"), width, height, r.focus == focusEditor)
}

func (r *Root) renderDivider(width int, st workspace.LayoutState) string {
	style := r.theme.Divider
	if st.Resizing {
		style = r.theme.DividerActive
	}
	fill := r.glyph("─", "-")
	label := fmt.Sprintf(" editor %.0f%% %s drag or alt+%s/%s ", st.EditorHeightPercent, r.glyph("·", "-"), r.glyph("↑", "up"), r.glyph("↓", "down"))
	if ansi.StringWidth(label)+4 > width {
		label = fmt.Sprintf(" %.0f%% ", st.EditorHeightPercent)
	}
	left := max(0, (width-ansi.StringWidth(label))/2)
	right := max(0, width-left-ansi.StringWidth(label))
	return style.Render(trimForWidth(strings.Repeat(fill, left)+label+strings.Repeat(fill, right), width))
}

func (r *Root) renderResults(width, height int) string {
	innerW := max(1, width-2)
	innerH := max(1, height-2)
	r.results.SetWidth(innerW)
	r.results.SetHeight(innerH)
	r.results.SetContent(strings.Join(r.resultLines(innerW), "\n"))
	title := "Results"
	if res := r.ws.Result; res != nil && len(res.TestCases) > 0 {
		title = fmt.Sprintf("Results %d/%d passed", res.PassedCount(), len(res.TestCases))
	}
	return r.drawPanel(title, strings.Split(r.results.View(), "\n"), width, height, r.focus == focusResults)
}

func (r *Root) resultLines(width int) []string {
	ws := r.ws
	if ws.Testing || ws.Submitting {
		return []string{r.theme.Accent.Render(strings.TrimSpace(r.busySpin.View()) + " " + r.busyLabel())}
	}
	res := ws.Result
	if res == nil {
		if ws.Problem == nil {
			return []string{r.theme.Muted.Render("Generate and select a problem first.")}
		}
		return []string{r.theme.Muted.Render("Run tests (F5) or submit (F6) to see results here.")}
	}

	var lines []string
	headline := res.Headline()
	if res.Passed {
		lines = append(lines, r.theme.Pass.Render(r.glyph("✓ ", "")+headline))
	} else {
		lines = append(lines, r.theme.Fail.Render(r.glyph("✗ ", "")+headline))
	}
	if !ws.ResultAt.IsZero() {
		lines = append(lines, r.theme.Muted.Render("evaluated "+humanize.Time(ws.ResultAt)))
	}

	if len(res.Errors) > 0 {
		lines = append(lines, "", r.theme.Fail.Render("Errors"))
		for _, e := range res.Errors {
			text := e.Message
			if e.Type != "" {
				text = e.Type + ": " + e.Message
			}
			lines = append(lines, wrapLines(text, width)...)
		}
	}

	if len(res.TestCases) > 0 {
		lines = append(lines, "", r.theme.Accent.Render(fmt.Sprintf("Test Cases: %d/%d passed", res.PassedCount(), len(res.TestCases))))
		for i, tc := range res.TestCases {
			mark := r.theme.Pass.Render(r.glyph("✓", "PASS"))
			if !tc.Passed {
				mark = r.theme.Fail.Render(r.glyph("✗", "FAIL"))
			}
			lines = append(lines, fmt.Sprintf("%s Case %d", mark, i+1))
			lines = append(lines, wrapLines("  Input:    "+tc.Input.String(), width)...)
			lines = append(lines, wrapLines("  Expected: "+tc.ExpectedOutput.String(), width)...)
			lines = append(lines, wrapLines("  Output:   "+tc.ActualOutput.String(), width)...)
		}
	}

	if eff := res.Efficiency; eff != nil {
		lines = append(lines, "", r.theme.Accent.Render("Efficiency"))
		lines = append(lines, fmt.Sprintf("  %-6s %-12s optimal %s", "Time", eff.TimeComplexity, eff.OptimalTimeComplexity))
		lines = append(lines, fmt.Sprintf("  %-6s %-12s optimal %s", "Space", eff.SpaceComplexity, eff.OptimalSpaceComplexity))
		if eff.Comparison != "" {
			lines = append(lines, wrapLines("  "+eff.Comparison, width)...)
		}
	}

	if res.Passed && ws.Problem != nil && ws.Problem.HasOptimal() {
		lines = append(lines, "")
		if ws.OptimalVisible {
			lines = append(lines, r.theme.Accent.Render("Optimal solution")+r.theme.Muted.Render(" (^O to hide)"))
			lines = append(lines, strings.Split(r.highlight(ws.Problem.ID, ws.Problem.OptimalSolution, ws.Language), "\n")...)
			if ws.Problem.OptimalExplanation != "" {
				lines = append(lines, "")
				lines = append(lines, wrapLines(ws.Problem.OptimalExplanation, width)...)
			}
		} else {
			lines = append(lines, r.theme.Muted.Render("^O shows the optimal solution"))
		}
	}
	return lines
}

func (r *Root) highlight(id, code string, lang practice.Language) string {
	code = strings.TrimRight(code, "\n")
	if r.ascii {
		return code
	}
	cacheKey := id + ":" + lang.ID + ":" + strconv.Itoa(len(code))
	if cacheKey == r.highlightKey {
		return r.highlightOut
	}
	var b strings.Builder
	out := code
	if err := quick.Highlight(&b, code, lang.Lexer, "terminal256", "monokai"); err == nil {
		out = strings.TrimRight(b.String(), "\n")
	}
	r.highlightKey = cacheKey
	r.highlightOut = out
	return out
}

func (r *Root) glyph(unicode, ascii string) string {
	if r.ascii {
		return ascii
	}
	return unicode
}

func (r *Root) drawPanel(title string, lines []string, width, height int, focused bool) string {
	width = max(4, width)
	height = max(3, height)
	innerW := width - 2
	innerH := height - 2

	h, v := "─", "│"
	tl, tr, bl, br := "┌", "┐", "└", "┘"
	if r.ascii {
		h, v = "-", "|"
		tl, tr, bl, br = "+", "+", "+", "+"
	}
	border := r.theme.PanelBorder
	if focused {
		border = r.theme.FocusBorder
	}

	top := tl + strings.Repeat(h, innerW) + tr
	if title != "" && innerW > 2 {
		t := " " + trimForWidth(title, innerW-2) + " "
		runes := []rune(top)
		for i, ch := range []rune(t) {
			pos := 1 + i
			if pos >= len(runes)-1 {
				break
			}
			runes[pos] = ch
		}
		top = string(runes)
	}

	out := make([]string, 0, height)
	out = append(out, border.Render(top))
	for row := 0; row < innerH; row++ {
		line := ""
		if row < len(lines) {
			line = lines[row]
		}
		out = append(out, border.Render(v)+r.theme.PanelBody.Render(fitWidth(line, innerW))+border.Render(v))
	}
	out = append(out, border.Render(bl+strings.Repeat(h, innerW)+br))
	return strings.Join(out, "\n")
}

// fitWidth truncates or pads s to exactly width cells, preserving styling.
func fitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\t", "    ")
	if ansi.StringWidth(s) > width {
		s = ansi.Truncate(s, width, "")
	}
	if w := ansi.StringWidth(s); w < width {
		s += strings.Repeat(" ", width-w)
	}
	return s
}

func wrapLines(s string, width int) []string {
	return strings.Split(ansi.Wrap(strings.TrimRight(s, "\n"), max(1, width), ""), "\n")
}

func composeOverlay(base, overlay string, cols, rows int) string {
	lines := strings.Split(strings.TrimRight(overlay, "\n"), "\n")
	ow := 1
	for _, line := range lines {
		ow = max(ow, ansi.StringWidth(line))
	}
	return spliceOverlay(base, overlay, cols, rows, max(0, (rows-len(lines))/2), max(0, (cols-ow)/2))
}

// spliceOverlay draws overlay over base with its top-left cell at
// (startRow, startCol). Cells outside the overlay keep their styling.
func spliceOverlay(base, overlay string, cols, rows, startRow, startCol int) string {
	if cols <= 0 || rows <= 0 {
		return base
	}
	baseLines := strings.Split(base, "\n")
	for len(baseLines) < rows {
		baseLines = append(baseLines, "")
	}
	for i, line := range strings.Split(strings.TrimRight(overlay, "\n"), "\n") {
		row := startRow + i
		if row < 0 || row >= rows {
			continue
		}
		under := fitWidth(baseLines[row], cols)
		w := min(ansi.StringWidth(line), cols-startCol)
		if w <= 0 {
			continue
		}
		left := ansi.Truncate(under, startCol, "")
		right := ansi.TruncateLeft(under, startCol+w, "")
		baseLines[row] = left + ansi.Truncate(line, w, "") + right
	}
	return strings.Join(baseLines[:rows], "\n")
}

func trimForWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	s = strings.ReplaceAll(s, "\n", " ")
	if ansi.StringWidth(s) <= width {
		return s
	}
	if width == 1 {
		return "…"
	}
	return ansi.Truncate(s, width, "…")
}

func clampInt(v, lo, hi int) int {
	return min(hi, max(lo, v))
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
