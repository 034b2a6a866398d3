package main

import (
	"fmt"
	"strings"
	"sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"earcheck/chart"
	"earcheck/clipboard"
	"earcheck/engine"
	"earcheck/log"
	"earcheck/report"
)

// TUI message types
type ProgressMsg struct{ engine.Progress }
type CompleteMsg struct{ Results engine.ResultSet }
type FailedMsg struct{ Err error }
type ErrorMsg struct{ Err error }
type SavedMsg struct {
	Path string
	Err  error
}
type CopiedMsg struct{ Err error }
type DeviceLineMsg struct{ Text string }
type clearNoticeMsg struct{ id int }

type tuiScreen int

const (
	screenSetup tuiScreen = iota
	screenTest
	screenResults
)

const noticeDuration = 3 * time.Second

type tuiModel struct {
	eng    *engine.Engine
	outDir string
	format report.Format

	screen        tuiScreen
	progress      engine.Progress
	results       engine.ResultSet
	summary       engine.Summary
	deviceLine    string
	notice        string // transient, cleared after noticeDuration
	noticeID      int
	errText       string
	width, height int
}

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
)

var (
	titleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("63")).Bold(true)
	headStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("252")).Bold(true)
	textStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	keyStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("239")).Bold(true)
	warnStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("208"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	buttonStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255")).
			Background(lipgloss.Color("34")).
			Bold(true).
			Padding(0, 3)
	buttonOffStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("244")).
			Background(lipgloss.Color("236")).
			Padding(0, 3)
	boxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("238")).
			Padding(0, 2)

	statusStyles = map[engine.Status]lipgloss.Style{
		engine.Normal:   lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true),
		engine.Mild:     lipgloss.NewStyle().Foreground(lipgloss.Color("220")).Bold(true),
		engine.Moderate: lipgloss.NewStyle().Foreground(lipgloss.Color("208")).Bold(true),
		engine.Severe:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		engine.Profound: lipgloss.NewStyle().Foreground(lipgloss.Color("160")).Bold(true),
	}
)

func NewTUIProgram(eng *engine.Engine, outDir string, format report.Format) *tea.Program {
	m := tuiModel{eng: eng, outDir: outDir, format: format}
	return tea.NewProgram(m, tea.WithAltScreen())
}

// tuiSend delivers a message to the running program, if any.
func tuiSend(msg tea.Msg) {
	tuiMu.Lock()
	p := tuiProgram
	tuiMu.Unlock()
	if p != nil {
		p.Send(msg)
	}
}

func (m tuiModel) Init() tea.Cmd {
	return nil
}

// Engine calls run in commands: the engine notifies the presenter while
// holding its lock, and the presenter blocks on the program's event loop.
func (m tuiModel) engineCmd(fn func() error) tea.Cmd {
	return func() tea.Msg {
		if err := fn(); err != nil {
			return ErrorMsg{Err: err}
		}
		return nil
	}
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tea.KeyMsg:
		return m.handleKey(msg)

	case ProgressMsg:
		m.progress = msg.Progress
		if msg.State.Running() {
			m.screen = screenTest
			m.errText = ""
		} else if msg.State == engine.Idle && m.screen == screenTest {
			m.screen = screenSetup
		}

	case CompleteMsg:
		m.results = msg.Results
		m.summary = engine.Summarize(msg.Results)
		m.screen = screenResults

	case FailedMsg:
		m.screen = screenSetup
		m.errText = "Test aborted: " + msg.Err.Error()

	case ErrorMsg:
		m.errText = msg.Err.Error()

	case SavedMsg:
		if msg.Err != nil {
			m.errText = "Save failed: " + msg.Err.Error()
			return m, nil
		}
		m.errText = ""
		return m.showNotice("Results saved! " + msg.Path)

	case CopiedMsg:
		if msg.Err != nil {
			m.errText = "Copy failed: " + msg.Err.Error()
			return m, nil
		}
		return m.showNotice("Summary copied to clipboard")

	case clearNoticeMsg:
		if msg.id == m.noticeID {
			m.notice = ""
		}

	case DeviceLineMsg:
		m.deviceLine = msg.Text
	}
	return m, nil
}

func (m tuiModel) showNotice(text string) (tea.Model, tea.Cmd) {
	m.noticeID++
	m.notice = text
	id := m.noticeID
	return m, tea.Tick(noticeDuration, func(time.Time) tea.Msg { return clearNoticeMsg{id: id} })
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" || key == "q" {
		return m, tea.Quit
	}
	eng := m.eng

	switch m.screen {
	case screenSetup:
		switch key {
		case "v":
			return m, m.engineCmd(eng.Calibrate)
		case "s", "enter":
			return m, m.engineCmd(eng.Start)
		}

	case screenTest:
		switch key {
		case " ", "enter", "h":
			return m, func() tea.Msg { eng.Respond(); return nil }
		case "r":
			return m, func() tea.Msg { eng.Restart(); return nil }
		}

	case screenResults:
		switch key {
		case "s":
			return m, saveCmd(m.outDir, m.results, m.format)
		case "c":
			text := m.summary.Text()
			return m, func() tea.Msg { return CopiedMsg{Err: clipboard.Copy(text)} }
		case "r":
			m.screen = screenSetup
			m.results = nil
			return m, func() tea.Msg { eng.Restart(); return nil }
		}
	}
	return m, nil
}

func saveCmd(dir string, rs engine.ResultSet, format report.Format) tea.Cmd {
	return func() tea.Msg {
		path, err := report.Save(dir, rs, time.Now(), format)
		if err != nil {
			log.Errorf("report save failed: %v", err)
			return SavedMsg{Err: err}
		}
		log.ReportSaved(path, string(format))
		return SavedMsg{Path: path}
	}
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var body string
	switch m.screen {
	case screenSetup:
		body = m.viewSetup()
	case screenTest:
		body = m.viewTest()
	case screenResults:
		body = m.viewResults()
	}

	var lines []string
	lines = append(lines, titleStyle.Render("🎧 Hearing Test"), "", body)
	if m.errText != "" {
		lines = append(lines, "", errStyle.Render(m.errText))
	}
	if m.notice != "" {
		lines = append(lines, "", okStyle.Render("✓ "+m.notice))
	}
	if m.deviceLine != "" {
		lines = append(lines, "", dimStyle.Render(m.deviceLine))
	}
	lines = append(lines, "", m.helpLine(), helpStyle.Render("earcheck "+version))

	return lipgloss.NewStyle().Padding(1, 2).Render(strings.Join(lines, "\n"))
}

func (m tuiModel) viewSetup() string {
	var b strings.Builder
	b.WriteString(warnStyle.Bold(true).Render("⚠ Important Setup Instructions") + "\n")
	b.WriteString(textStyle.Render("Please wear headphones before starting this test.") + "\n")
	b.WriteString(dimStyle.Render("Headphones are essential to:") + "\n")
	for _, s := range []string{
		"Block ambient noise interference",
		"Ensure accurate left/right ear testing",
		"Provide precise frequency control",
	} {
		b.WriteString(dimStyle.Render("  • "+s) + "\n")
	}
	b.WriteString("\n" + headStyle.Render("How the test works:") + "\n")
	for _, s := range []string{
		"You'll hear tones at different frequencies",
		"Each tone starts very quietly and gradually increases",
		"Press space as soon as you detect the sound",
		"We'll test both ears separately",
		"The test takes about 5-10 minutes",
	} {
		b.WriteString(textStyle.Render("  • "+s) + "\n")
	}
	b.WriteString("\n" + headStyle.Render("Volume Check") + "\n")
	if m.progress.Calibrating {
		b.WriteString(okStyle.Render("♪ "+engine.StatusCalibrating) + "\n")
	} else {
		b.WriteString(textStyle.Render("Press v to play a 1000 Hz reference tone, then adjust your system volume.") + "\n")
	}
	return boxStyle.Render(strings.TrimRight(b.String(), "\n"))
}

func (m tuiModel) viewTest() string {
	p := m.progress
	var lines []string
	lines = append(lines,
		headStyle.Render("Testing: ")+textStyle.Render(p.Ear.Title()),
		headStyle.Render("Frequency: ")+textStyle.Render(fmt.Sprintf("%d Hz", p.FrequencyHz)),
		headStyle.Render("Progress: ")+textStyle.Render(fmt.Sprintf("Test %d of %d", p.Trial, engine.TotalTrials)),
		bar(p.Percent/100, 40, "63"),
		"",
		dimStyle.Render("Volume Level"),
		bar(p.Volume/engine.MaxVolume, 40, "208"),
		"",
		textStyle.Render(p.Status),
		"",
	)
	if p.CanRespond {
		lines = append(lines, buttonStyle.Render("I Can Hear It! (space)"))
	} else {
		lines = append(lines, buttonOffStyle.Render("I Can Hear It!"))
	}
	return strings.Join(lines, "\n")
}

func bar(frac float64, width int, color string) string {
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	filled := int(frac*float64(width) + 0.5)
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(lipgloss.Color("237")).Render(strings.Repeat("░", width-filled))
}

func (m tuiModel) viewResults() string {
	s := m.summary
	var cards []string
	for _, e := range s.Ears() {
		card := headStyle.Render(e.Ear.Title()) + "\n" +
			textStyle.Render("Average Threshold: "+engine.FormatDB(e.AverageDB)+" dB HL") + "\n" +
			statusStyles[e.Status].Render(strings.ToUpper(e.Status.Label()))
		cards = append(cards, boxStyle.Render(card))
	}

	var table strings.Builder
	table.WriteString(headStyle.Render(fmt.Sprintf("%-15s %-17s %-17s", "Frequency (Hz)", "Left Ear (dB HL)", "Right Ear (dB HL)")) + "\n")
	for _, f := range engine.Frequencies {
		l, _ := s.Left.Result(f)
		r, _ := s.Right.Result(f)
		table.WriteString(fmt.Sprintf("%-15d ", f) + tableCell(l) + " " + tableCell(r) + "\n")
	}
	table.WriteString(dimStyle.Italic(true).Render("* No response at maximum safe volume"))

	return lipgloss.JoinHorizontal(lipgloss.Top, cards...) + "\n\n" +
		headStyle.Render("Hearing Threshold Chart") + "\n" +
		chart.Terminal(m.results, chart.DefaultRows) + "\n" +
		headStyle.Render("Detailed Results") + "\n" +
		table.String()
}

func tableCell(r engine.TrialResult) string {
	v := engine.FormatDB(r.HearingLevelDB)
	if r.NoResponse {
		v += "*"
	}
	return statusStyles[engine.Classify(r.HearingLevelDB)].UnsetBold().Render(fmt.Sprintf("%-17s", v))
}

func (m tuiModel) helpLine() string {
	type binding struct{ key, desc string }
	var keys []binding
	switch m.screen {
	case screenSetup:
		keys = []binding{{"v", "volume check"}, {"s", "start test"}, {"q", "quit"}}
	case screenTest:
		keys = []binding{{"space", "I can hear it"}, {"r", "restart"}, {"q", "quit"}}
	case screenResults:
		keys = []binding{{"s", "save report"}, {"c", "copy summary"}, {"r", "take test again"}, {"q", "quit"}}
	}
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = keyStyle.Render(k.key) + helpStyle.Render(" "+k.desc)
	}
	return strings.Join(parts, helpStyle.Render("  ·  "))
}
