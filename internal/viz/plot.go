package viz

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/dxlhw/internal/trace"
)

var ErrNoData = errors.New("viz: not enough samples to plot")

const (
	PlotWidth  = 80
	PlotHeight = 10
)

// PlotTrace draws one actuator's position against its position command, and
// its effort below. The command series is left out when it was never set.
func PlotTrace(samples []trace.Sample, name string) (string, error) {
	_, pos, cmd := trace.Series(samples, name)
	if len(pos) < 2 {
		return "", fmt.Errorf("%w: %s", ErrNoData, name)
	}

	var eff []float64
	for _, s := range samples {
		if s.Actuator == name {
			eff = append(eff, s.Effort)
		}
	}

	series := [][]float64{pos}
	legends := []string{"position"}
	colors := []asciigraph.AnsiColor{asciigraph.Blue}
	if anyFinite(cmd) {
		series = append(series, cmd)
		legends = append(legends, "command")
		colors = append(colors, asciigraph.Red)
	}

	var b strings.Builder
	b.WriteString(asciigraph.PlotMany(series,
		asciigraph.Height(PlotHeight),
		asciigraph.Width(PlotWidth),
		asciigraph.Caption(name+" position (rad)"),
		asciigraph.SeriesColors(colors...),
		asciigraph.SeriesLegends(legends...),
	))
	b.WriteString("\n\n")
	b.WriteString(asciigraph.Plot(eff,
		asciigraph.Height(PlotHeight/2),
		asciigraph.Width(PlotWidth),
		asciigraph.Caption(name+" effort (N·m)"),
		asciigraph.SeriesColors(asciigraph.Green),
	))
	return b.String(), nil
}

func anyFinite(values []float64) bool {
	for _, v := range values {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
