// internal/tui/app.go
//
// This is the terminal dashboard for xaicompare.
// It uses bubbletea, which follows The Elm Architecture:
//
// 1. Model: the selected run and what is on screen
// 2. Update: a function that updates state based on messages
// 3. View: a function that renders state to a string
//
// Every (re)render of a run goes through dashboard.Session.Render, so the
// terminal halts on exactly the same conditions as the HTTP dashboard.

package tui

import (
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/kingrea/xaicompare/internal/artifact"
	"github.com/kingrea/xaicompare/internal/dashboard"
	"github.com/kingrea/xaicompare/internal/logbook"
)

const (
	defaultTopK     = 10
	maxTopK         = 50
	recentRunsLimit = 20
	logTailLines    = 6
	barWidth        = 24
)

type focusArea int

const (
	focusInput focusArea = iota // run path override
	focusRuns                   // recent runs list
	focusBody                   // importance table and sample panel
)

// renderedMsg carries the outcome of one render cycle.
type renderedMsg struct {
	result dashboard.Result
	err    error
}

// AppOption customizes App construction for tests and alternate runtimes.
type AppOption func(*App)

// WithLogbook shows the tail of the session journal in a log panel.
func WithLogbook(book *logbook.Logbook) AppOption {
	return func(a *App) {
		a.logbook = book
	}
}

// WithTopK sets how many global importances are listed initially.
func WithTopK(k int) AppOption {
	return func(a *App) {
		if k > 0 {
			a.topK = k
		}
	}
}

// runItem implements list.Item for a run directory.
type runItem struct {
	path string
}

func (i runItem) Title() string       { return filepath.Base(i.path) }
func (i runItem) Description() string { return i.path }
func (i runItem) FilterValue() string { return i.path }

// App is the dashboard model.
type App struct {
	session *dashboard.Session
	logbook *logbook.Logbook

	// UI components
	input      textinput.Model
	runs       list.Model
	importance table.Model

	focus     focusArea
	result    dashboard.Result
	halt      *dashboard.Halt
	samples   []int
	sampleIdx int
	topK      int
	statusMsg string
	rendering bool

	width  int
	height int
}

// NewApp creates the dashboard for session. The run input is prefilled with
// the resolved candidate; editing it replaces that candidate on the next
// render.
func NewApp(session *dashboard.Session, opts ...AppOption) *App {
	input := textinput.New()
	input.Prompt = "run › "
	input.Placeholder = "path to a run directory"
	input.CharLimit = 512
	input.SetValue(session.Candidate().Path)
	input.Focus()

	runs := list.New(nil, list.NewDefaultDelegate(), 0, 0)
	runs.Title = "Recent runs"
	runs.SetShowStatusBar(false)
	runs.SetFilteringEnabled(false)
	runs.SetShowHelp(false)

	importance := table.New(
		table.WithColumns(importanceColumns(barWidth)),
		table.WithHeight(defaultTopK+1),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("#444444")).
		BorderBottom(true).
		Bold(true)
	styles.Selected = styles.Selected.
		Foreground(lipgloss.Color("#FFFFFF")).
		Background(lipgloss.Color("#5B8DEF"))
	importance.SetStyles(styles)

	a := &App{
		session:    session,
		input:      input,
		runs:       runs,
		importance: importance,
		focus:      focusInput,
		topK:       defaultTopK,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	a.refreshRuns()
	return a
}

func importanceColumns(width int) []table.Column {
	return []table.Column{
		{Title: "Feature", Width: 24},
		{Title: "Importance", Width: 12},
		{Title: "", Width: width},
	}
}

// Init is called once when the program starts.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.renderCmd(a.input.Value()), textinput.Blink)
}

// renderCmd runs one render cycle off the update loop.
func (a *App) renderCmd(override string) tea.Cmd {
	a.rendering = true
	session := a.session
	return func() tea.Msg {
		result, err := session.Render(override)
		return renderedMsg{result: result, err: err}
	}
}

// Update is called when a message is received.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.runs.SetSize(max(20, msg.Width/3-4), max(5, msg.Height-16))
		a.input.Width = max(20, msg.Width-12)
		return a, nil

	case renderedMsg:
		a.applyRender(msg)
		return a, nil

	case tea.KeyMsg:
		key := msg.String()
		switch key {
		case "ctrl+c":
			return a, tea.Quit
		case "tab":
			return a, a.cycleFocus()
		case "enter":
			switch a.focus {
			case focusInput:
				a.statusMsg = "Loading " + strings.TrimSpace(a.input.Value())
				return a, a.renderCmd(a.input.Value())
			case focusRuns:
				if item, ok := a.runs.SelectedItem().(runItem); ok {
					a.input.SetValue(item.path)
					a.statusMsg = "Loading " + item.path
					return a, a.renderCmd(item.path)
				}
				return a, nil
			}
		}
		if a.focus != focusInput {
			switch key {
			case "q":
				return a, tea.Quit
			case "r":
				a.refreshRuns()
				return a, a.renderCmd(a.input.Value())
			case "right", "l":
				a.moveSample(1)
				return a, nil
			case "left", "h":
				a.moveSample(-1)
				return a, nil
			case "+", "=":
				a.setTopK(a.topK + 5)
				return a, nil
			case "-":
				a.setTopK(a.topK - 5)
				return a, nil
			}
		}
	}

	var cmd tea.Cmd
	switch a.focus {
	case focusInput:
		a.input, cmd = a.input.Update(msg)
	case focusRuns:
		a.runs, cmd = a.runs.Update(msg)
	case focusBody:
		a.importance, cmd = a.importance.Update(msg)
	}
	return a, cmd
}

func (a *App) applyRender(msg renderedMsg) {
	a.rendering = false
	a.refreshRuns()
	if msg.err != nil {
		halt := dashboard.HaltFor(msg.result.Selection, msg.err)
		a.halt = &halt
		a.result = dashboard.Result{}
		a.samples = nil
		a.importance.SetRows(nil)
		a.statusMsg = ""
		return
	}
	a.halt = nil
	a.result = msg.result
	if strings.TrimSpace(a.input.Value()) == "" {
		a.input.SetValue(msg.result.Selection.Path)
	}
	a.samples = dashboard.SampleIDs(msg.result.Bundle)
	if a.sampleIdx >= len(a.samples) {
		a.sampleIdx = 0
	}
	a.statusMsg = fmt.Sprintf("Loaded %s (%s)", msg.result.Selection.Path, msg.result.Selection.Source)
	if len(msg.result.Bundle.Missing) > 0 {
		a.statusMsg += " · missing: " + strings.Join(msg.result.Bundle.Missing, ", ")
	}
	a.refreshImportance()
}

func (a *App) refreshRuns() {
	paths := a.session.RecentRuns(recentRunsLimit)
	items := make([]list.Item, 0, len(paths))
	for _, p := range paths {
		items = append(items, runItem{path: p})
	}
	a.runs.SetItems(items)
}

func (a *App) refreshImportance() {
	if a.result.Bundle == nil {
		a.importance.SetRows(nil)
		return
	}
	top, err := dashboard.TopImportances(a.result.Bundle, a.topK)
	if err != nil {
		a.statusMsg = err.Error()
		a.importance.SetRows(nil)
		return
	}
	var peak float64
	if len(top) > 0 {
		peak = top[0].Value
	}
	rows := make([]table.Row, 0, len(top))
	for _, imp := range top {
		rows = append(rows, table.Row{
			imp.Feature,
			strconv.FormatFloat(imp.Value, 'f', 4, 64),
			bar(imp.Value, peak, barWidth),
		})
	}
	a.importance.SetRows(rows)
	a.importance.SetHeight(min(len(rows), a.topK) + 1)
}

func (a *App) cycleFocus() tea.Cmd {
	a.focus = (a.focus + 1) % 3
	a.input.Blur()
	a.importance.Blur()
	switch a.focus {
	case focusInput:
		return a.input.Focus()
	case focusBody:
		a.importance.Focus()
	}
	return nil
}

func (a *App) moveSample(delta int) {
	if len(a.samples) == 0 {
		return
	}
	a.sampleIdx = (a.sampleIdx + delta + len(a.samples)) % len(a.samples)
}

func (a *App) setTopK(k int) {
	a.topK = min(maxTopK, max(1, k))
	a.refreshImportance()
}

// currentSample returns the selected sample id.
func (a *App) currentSample() (int, bool) {
	if len(a.samples) == 0 {
		return 0, false
	}
	return a.samples[a.sampleIdx], true
}

// View renders the current state to a string.
func (a *App) View() string {
	width := a.width
	if width <= 0 {
		width = 100
	}
	rightWidth := max(28, width/3)
	leftWidth := width - rightWidth - 4
	if leftWidth < 40 {
		leftWidth = width - 4
		rightWidth = 0
	}

	header := headerStyle.Render("◆ XAICOMPARE")
	input := panel(a.focus == focusInput, width-4, a.input.View())

	var body string
	switch {
	case a.halt != nil:
		body = a.renderHalt()
	case a.result.Bundle == nil:
		body = dimStyle.Render("Resolving run…")
	default:
		body = a.renderRun(leftWidth)
	}
	main := body
	if rightWidth > 0 {
		runs := panel(a.focus == focusRuns, rightWidth, a.runs.View())
		main = lipgloss.JoinHorizontal(lipgloss.Top, lipgloss.NewStyle().Width(leftWidth).Render(body), runs)
	}

	sections := []string{header, input, main}
	if logPanel := a.renderLogPanel(width - 4); logPanel != "" {
		sections = append(sections, logPanel)
	}
	if a.statusMsg != "" {
		sections = append(sections, dimStyle.Render(a.statusMsg))
	}
	sections = append(sections, hintStyle.Render("tab focus · enter load · ←/→ sample · +/- features · r reload · q quit"))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (a *App) renderHalt() string {
	if a.halt.Severity == dashboard.SeverityWarning {
		return warningStyle.Render("⚠ " + a.halt.Message)
	}
	return errorStyle.Render("✖ " + a.halt.Message)
}

func (a *App) renderRun(width int) string {
	b := a.result.Bundle
	meta := titleStyle.Render("RUN · "+filepath.Base(a.result.Selection.Path)) + "\n" +
		dimStyle.Render(strings.Join(dashboard.MetaLines(b), "\n"))

	importance := titleStyle.Render(fmt.Sprintf("GLOBAL IMPORTANCE · top %d", a.topK)) + "\n"
	if b.IsMissing(artifact.GlobalImportance.ID) {
		importance += dimStyle.Render("global_importance.csv not found")
	} else {
		importance += a.importance.View()
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		panel(false, width, meta),
		panel(a.focus == focusBody, width, importance),
		panel(false, width, a.renderSample(width-4)),
	)
}

func (a *App) renderSample(width int) string {
	id, ok := a.currentSample()
	if !ok {
		return titleStyle.Render("SAMPLE") + "\n" + dimStyle.Render("No samples in this run.")
	}
	b := a.result.Bundle
	lines := []string{titleStyle.Render(fmt.Sprintf("SAMPLE %d · %d/%d", id, a.sampleIdx+1, len(a.samples)))}
	if text, ok := dashboard.SampleText(b, id); ok {
		lines = append(lines, lipgloss.NewStyle().Width(max(20, width)).Render(text))
	}
	attrs, err := dashboard.SampleAttributions(b, id, a.topK)
	if err != nil {
		lines = append(lines, negativeStyle.Render(err.Error()))
		return strings.Join(lines, "\n")
	}
	for _, attr := range attrs {
		style := positiveStyle
		sign := "+"
		if attr.Value < 0 {
			style = negativeStyle
			sign = "−"
		}
		lines = append(lines, fmt.Sprintf("%-24s %s", attr.Feature,
			style.Render(fmt.Sprintf("%s%.4f", sign, attr.Abs))))
	}
	return strings.Join(lines, "\n")
}

func (a *App) renderLogPanel(width int) string {
	if a.logbook == nil {
		return ""
	}
	lines, total := a.logbook.Tail(logTailLines)
	if len(lines) == 0 {
		return ""
	}
	fileName := filepath.Base(a.logbook.Path())
	if fileName == "." || fileName == "" {
		fileName = "log"
	}
	head := titleStyle.Render(fmt.Sprintf("LOG · %s · %d entries", fileName, total))
	return panel(false, width, head+"\n"+dimStyle.Render(strings.Join(lines, "\n")))
}
