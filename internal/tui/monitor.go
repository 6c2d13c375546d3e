package tui

import (
	"fmt"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dxlhw/internal/loop"
	"github.com/san-kum/dxlhw/internal/viz"
)

const (
	historyCapacity = 240
	sparkWidth      = 60
)

// Switcher is the controller manager as seen by the monitor.
type Switcher interface {
	Names() []string
	Running() []string
	RequestSwitch(start, stop []string)
}

type Model struct {
	feed     *Feed
	sw       Switcher
	joints   map[string][]string
	duration float64
	quit     func()

	names    []string
	running  []string
	cursor   int
	tick     loop.Tick
	history  map[string][]float64
	done     bool
	lastNote string
}

// New builds a monitor. joints maps each controller to the actuators it
// uses; starting a controller stops running ones that share an actuator.
// quit is called when the user leaves so the loop can be cancelled.
func New(feed *Feed, sw Switcher, joints map[string][]string, duration float64, quit func()) Model {
	if quit == nil {
		quit = func() {}
	}
	return Model{
		feed:     feed,
		sw:       sw,
		joints:   joints,
		duration: duration,
		quit:     quit,
		names:    sw.Names(),
		running:  sw.Running(),
		history:  make(map[string][]float64),
	}
}

func (m Model) Init() tea.Cmd {
	return m.feed.Next()
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quit()
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.names)-1 {
				m.cursor++
			}
		case "enter", " ":
			m.toggle()
		case "x":
			if len(m.running) > 0 {
				m.sw.RequestSwitch(nil, m.running)
				m.lastNote = "stop all requested"
			}
		}
	case TickMsg:
		m.tick = loop.Tick(msg)
		m.running = m.sw.Running()
		for _, s := range m.tick.Snapshots {
			h := append(m.history[s.Name], s.Position)
			if len(h) > historyCapacity {
				h = h[len(h)-historyCapacity:]
			}
			m.history[s.Name] = h
		}
		return m, m.feed.Next()
	case DoneMsg:
		m.done = true
	}
	return m, nil
}

// toggle stops the selected controller if it runs, otherwise starts it in
// place of every running controller that shares one of its actuators.
func (m *Model) toggle() {
	if len(m.names) == 0 {
		return
	}
	name := m.names[m.cursor]
	if slices.Contains(m.running, name) {
		m.sw.RequestSwitch(nil, []string{name})
		m.lastNote = "stop " + name
		return
	}
	var stop []string
	for _, r := range m.running {
		if m.overlaps(name, r) {
			stop = append(stop, r)
		}
	}
	m.sw.RequestSwitch([]string{name}, stop)
	if len(stop) > 0 {
		m.lastNote = fmt.Sprintf("start %s, stop %s", name, strings.Join(stop, ", "))
	} else {
		m.lastNote = "start " + name
	}
}

func (m *Model) overlaps(a, b string) bool {
	for _, j := range m.joints[a] {
		if slices.Contains(m.joints[b], j) {
			return true
		}
	}
	return false
}

func (m Model) View() string {
	var s strings.Builder
	s.WriteString(viz.HeaderStyle.Render("DXLHW LIVE") + "\n\n")

	status := viz.ModeActive.Render("RUNNING")
	if m.done {
		status = viz.ModePassive.Render("STOPPED")
	}
	s.WriteString(viz.MetricLabel.Render("status  ") + status + "\n")
	s.WriteString(viz.MetricLabel.Render("time    ") + viz.MetricValue.Render(fmt.Sprintf("%.2fs", m.tick.Time)))
	if m.duration > 0 {
		s.WriteString("  " + viz.ProgressBar(m.tick.Time/m.duration, 30))
	}
	s.WriteString("\n")
	s.WriteString(viz.MetricLabel.Render("tick    ") + fmt.Sprintf("%d (%v)", m.tick.Index, m.tick.Elapsed) + "\n\n")

	s.WriteString(viz.Panel.Render(strings.TrimRight(viz.StatusTable(m.tick.Snapshots), "\n")) + "\n")
	if items := viz.ItemTable(m.tick.Snapshots); items != "" {
		s.WriteString(items)
	}
	s.WriteString("\n")

	for _, snap := range m.tick.Snapshots {
		label := lipgloss.NewStyle().Width(12).Render(snap.Name)
		s.WriteString(viz.MetricLabel.Render(label) + viz.SparklineChart(m.history[snap.Name], sparkWidth) + "\n")
	}
	s.WriteString("\nCONTROLLERS\n")
	for i, name := range m.names {
		mark := "  "
		if slices.Contains(m.running, name) {
			mark = viz.ModeActive.Render("● ")
		}
		line := name
		if i == m.cursor {
			line = viz.Selected.Render("> " + name)
		} else {
			line = "  " + line
		}
		s.WriteString(mark + line + "\n")
	}
	if m.lastNote != "" {
		s.WriteString("\n" + viz.Subtle.Render(m.lastNote) + "\n")
	}
	s.WriteString("\n" + viz.KeyHint.Render("↑/↓ select • enter start/stop • x stop all • q quit"))
	return s.String()
}
