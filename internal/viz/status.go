package viz

import (
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/dxlhw/internal/actuator"
)

var statusColumns = []struct {
	title string
	width int
}{
	{"ACTUATOR", 12},
	{"ID", 4},
	{"MODE", 24},
	{"POS", 9},
	{"VEL", 9},
	{"EFF", 9},
	{"POS CMD", 9},
	{"VEL CMD", 9},
	{"EFF CMD", 9},
}

func cell(i int, s string) string {
	return lipgloss.NewStyle().Width(statusColumns[i].width).Render(s)
}

// StatusTable renders one row per snapshot. Unset commands show as "-".
func StatusTable(snaps []actuator.Snapshot) string {
	var b strings.Builder
	for i, col := range statusColumns {
		b.WriteString(MetricLabel.Render(cell(i, col.title)))
	}
	b.WriteString("\n")

	for _, s := range snaps {
		mode := s.Mode
		if mode == "" {
			mode = "idle"
		}
		b.WriteString(cell(0, s.Name))
		b.WriteString(cell(1, fmt.Sprintf("%d", s.ID)))
		b.WriteString(ModeStyle(s.Mode).Render(cell(2, mode)))
		b.WriteString(MetricValue.Render(cell(3, formatValue(s.Position))))
		b.WriteString(MetricValue.Render(cell(4, formatValue(s.Velocity))))
		b.WriteString(MetricValue.Render(cell(5, formatValue(s.Effort))))
		b.WriteString(cell(6, formatValue(s.PositionCmd)))
		b.WriteString(cell(7, formatValue(s.VelocityCmd)))
		b.WriteString(cell(8, formatValue(s.EffortCmd)))
		b.WriteString("\n")
	}
	return b.String()
}

// ItemTable lists the additional states and commands of each snapshot.
func ItemTable(snaps []actuator.Snapshot) string {
	var b strings.Builder
	for _, s := range snaps {
		if len(s.States) == 0 && len(s.Commands) == 0 {
			continue
		}
		b.WriteString(s.Name)
		for _, k := range sortedKeys(s.States) {
			b.WriteString("  " + MetricLabel.Render(k+"=") + MetricValue.Render(fmt.Sprintf("%d", s.States[k])))
		}
		for _, k := range sortedKeys(s.Commands) {
			b.WriteString("  " + MetricLabel.Render(k+"<-") + fmt.Sprintf("%d", s.Commands[k]))
		}
		b.WriteString("\n")
	}
	return b.String()
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return "-"
	}
	return fmt.Sprintf("%+.3f", v)
}
