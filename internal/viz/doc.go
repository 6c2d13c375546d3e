// Package viz renders actuator state and recorded runs for the terminal.
//
// [StatusTable] formats hardware snapshots with lipgloss styles and
// [PlotTrace] draws a recorded position trace with asciigraph. Both are
// shared by the one-shot CLI commands and the live monitor.
package viz
