// Package tui is the live terminal monitor for a running control loop.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/dxlhw/internal/loop"
)

// TickMsg carries one loop tick to the monitor.
type TickMsg loop.Tick

// DoneMsg is delivered once the loop has stopped and the feed is closed.
type DoneMsg struct{}

// Feed is a loop observer that hands ticks to the UI. Ticks are dropped
// rather than stalling the loop when the UI falls behind.
type Feed struct {
	ch chan loop.Tick
}

func NewFeed(buffer int) *Feed {
	return &Feed{ch: make(chan loop.Tick, buffer)}
}

func (f *Feed) OnTick(tick loop.Tick) {
	select {
	case f.ch <- tick:
	default:
	}
}

// Close must be called after the loop has returned.
func (f *Feed) Close() { close(f.ch) }

// Next waits for the next tick.
func (f *Feed) Next() tea.Cmd {
	return func() tea.Msg {
		tick, ok := <-f.ch
		if !ok {
			return DoneMsg{}
		}
		return TickMsg(tick)
	}
}
