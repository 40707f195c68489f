package telemetry

import (
	"fmt"
	"os"
	"strings"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"
)

// teaProgram abstracts bubbletea.Program for testing.
type teaProgram interface {
	Send(tea.Msg)
}

// logMsg carries a rendered event line for the viewport.
type logMsg struct{ line string }

// statusMsg carries a status snapshot.
type statusMsg struct{ StatusRow }

// adminMsg reports admin API status.
type adminMsg struct{ active bool }

const maxLogLines = 500

var levelStyles = map[string]lipgloss.Style{
	"GREEN":  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42")),
	"YELLOW": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("220")),
	"ORANGE": lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("208")),
	"RED":    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196")),
	"OMEGA":  lipgloss.NewStyle().Bold(true).Blink(true).Foreground(lipgloss.Color("201")),
}

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("213"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	alertStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

func styleLevel(level string) string {
	if s, ok := levelStyles[level]; ok {
		return s.Render(level)
	}
	return level
}

// TUIWriter renders the unit's status and mission log using a bubbletea TUI.
type TUIWriter struct {
	program    teaProgram
	done       chan struct{}
	sendSignal atomic.Bool
}

// NewTUIWriter starts a bubbletea program and returns a TUIWriter. When the
// user quits the monitor the process receives an interrupt so the run
// command shuts down cleanly.
func NewTUIWriter(unitName string) *TUIWriter {
	w := &TUIWriter{done: make(chan struct{})}
	w.sendSignal.Store(true)
	p := tea.NewProgram(newTUIModel(unitName), tea.WithAltScreen())
	w.program = p
	go func() {
		_, _ = p.Run()
		close(w.done)
		if w.sendSignal.Load() {
			if proc, err := os.FindProcess(os.Getpid()); err == nil {
				_ = proc.Signal(os.Interrupt)
			}
		}
	}()
	return w
}

// WriteEvent implements EventWriter.
func (w *TUIWriter) WriteEvent(row EventRow) error {
	line := fmt.Sprintf("%s %s %s %s",
		dimStyle.Render(row.Timestamp.Format(time.TimeOnly)),
		styleLevel(row.ThreatLevel),
		row.EventType,
		row.Description)
	if len(row.ResponseActions) > 0 {
		line += dimStyle.Render(" → " + strings.Join(row.ResponseActions, "; "))
	}
	w.program.Send(logMsg{line: line})
	return nil
}

// WriteEvents implements BatchEventWriter.
func (w *TUIWriter) WriteEvents(rows []EventRow) error {
	for _, r := range rows {
		_ = w.WriteEvent(r)
	}
	return nil
}

// WriteStatus implements StatusWriter.
func (w *TUIWriter) WriteStatus(row StatusRow) error {
	w.program.Send(statusMsg{StatusRow: row})
	return nil
}

// SetAdminStatus updates the admin API indicator.
func (w *TUIWriter) SetAdminStatus(active bool) {
	w.program.Send(adminMsg{active: active})
}

// Close shuts down the TUI program and waits for cleanup.
func (w *TUIWriter) Close() error {
	w.sendSignal.Store(false)
	if w.program != nil {
		w.program.Send(tea.Quit())
	}
	if w.done != nil {
		<-w.done
	}
	return nil
}

type tuiModel struct {
	name         string
	table        table.Model
	vp           viewport.Model
	logs         []string
	status       StatusRow
	haveStatus   bool
	admin        bool
	wrap         bool
	autoscroll   bool
	help         bool
	header       string
	headerHeight int
	width        int
	height       int
}

func newTUIModel(name string) tuiModel {
	cols := []table.Column{
		{Title: "System", Width: 18},
		{Title: "Value", Width: 14},
		{Title: "System", Width: 18},
		{Title: "Value", Width: 14},
	}
	t := table.New(table.WithColumns(cols), table.WithRows(statusRows(StatusRow{})), table.WithHeight(5))
	m := tuiModel{
		name:       name,
		table:      t,
		vp:         viewport.New(0, 0),
		autoscroll: true,
	}
	m.header = m.renderHeader()
	m.headerHeight = lipgloss.Height(m.header)
	return m
}

func statusRows(s StatusRow) []table.Row {
	return []table.Row{
		{"Battery", fmt.Sprintf("%.1f%%", s.Battery), "Siren", fmt.Sprintf("%d", s.SirenVolume)},
		{"Flight Time", fmt.Sprintf("%dmin", s.FlightTimeRemaining/60), "Strobe", s.StrobePattern},
		{"Shield", fmt.Sprintf("%.0f%%", s.ShieldIntegrity), "Fire Health", s.FireHealth},
		{"Comms / GPS", fmt.Sprintf("%t / %t", s.CommsOK, s.GPSLock), "Fire Capacity", fmt.Sprintf("%.0f%%", s.FireCapacity)},
		{"Threat Score", fmt.Sprintf("%.2f", s.ThreatScore), "Temp / Smoke", fmt.Sprintf("%.0fC / %.2f", s.Temperature, s.Smoke)},
	}
}

func (m tuiModel) Init() tea.Cmd { return nil }

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetWidth(msg.Width)
		m.vp.Width = msg.Width
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
		m.refreshViewport()
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "w":
			m.wrap = !m.wrap
			m.header = m.renderHeader()
			m.headerHeight = lipgloss.Height(m.header)
			m.updateViewportHeight()
			m.refreshViewport()
			return m, nil
		case "s":
			m.autoscroll = !m.autoscroll
			if m.autoscroll {
				m.vp.GotoBottom()
			}
			return m, nil
		case "h", "?":
			m.help = !m.help
			m.updateViewportHeight()
			return m, nil
		}
		var cmd tea.Cmd
		m.vp, cmd = m.vp.Update(msg)
		return m, cmd
	case logMsg:
		m.logs = append(m.logs, msg.line)
		if len(m.logs) > maxLogLines {
			m.logs = m.logs[len(m.logs)-maxLogLines:]
		}
		m.refreshViewport()
	case statusMsg:
		m.status = msg.StatusRow
		m.haveStatus = true
		m.table.SetRows(statusRows(msg.StatusRow))
		m.header = m.renderHeader()
		m.headerHeight = lipgloss.Height(m.header)
		m.updateViewportHeight()
	case adminMsg:
		m.admin = msg.active
		m.header = m.renderHeader()
	}
	return m, nil
}

func (m *tuiModel) renderHeader() string {
	title := titleStyle.Render("DARK PHOENIX") + " " + m.name
	level := "GREEN"
	if m.haveStatus {
		level = m.status.ThreatLevel
	}
	line := fmt.Sprintf("%s  threat=%s", title, styleLevel(level))
	if m.status.Critical {
		line += "  " + alertStyle.Render("CRITICAL")
	}
	if m.status.FireDischarging {
		line += "  " + alertStyle.Render("DISCHARGING")
	}
	if m.status.Landed {
		line += "  " + alertStyle.Render("LANDED")
	}
	if m.admin {
		line += "  " + dimStyle.Render("admin:on")
	}
	parts := []string{line}
	if m.status.VoiceMessage != "" {
		msg := "voice: " + m.status.VoiceMessage
		if m.wrap && m.width > 0 {
			msg = wordwrap.String(msg, m.width)
		}
		parts = append(parts, dimStyle.Render(msg))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

func (m *tuiModel) updateViewportHeight() {
	h := m.height - m.headerHeight - lipgloss.Height(m.table.View()) - 1
	if m.help {
		h -= lipgloss.Height(helpText)
	}
	m.vp.Height = max(h, 1)
}

func (m *tuiModel) refreshViewport() {
	lines := m.logs
	if m.wrap && m.vp.Width > 0 {
		lines = make([]string, len(m.logs))
		for i, l := range m.logs {
			lines[i] = wordwrap.String(l, m.vp.Width)
		}
	}
	m.vp.SetContent(strings.Join(lines, "\n"))
	if m.autoscroll {
		m.vp.GotoBottom()
	}
}

const helpText = "q quit | w wrap | s autoscroll | ↑/↓ scroll | h help"

func (m tuiModel) View() string {
	parts := []string{m.header, m.table.View(), m.vp.View()}
	if m.help {
		parts = append(parts, dimStyle.Render(helpText))
	}
	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}
