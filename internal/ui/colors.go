package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/butter/internal/tasks"
)

var styles = newPalette()

// palette holds the dashboard styles: one per monitor state and one per kind of inventory change.
type palette struct {
	live    lipgloss.Style
	failed  lipgloss.Style
	stopped lipgloss.Style
	idle    lipgloss.Style

	added   lipgloss.Style
	removed lipgloss.Style
	updated lipgloss.Style
}

func newPalette() palette {
	fg := func(c string) lipgloss.Style { return lipgloss.NewStyle().Foreground(lipgloss.Color(c)) }
	return palette{
		live:    fg("#04B575").Bold(true),
		failed:  fg("#FF4D4F").Bold(true),
		stopped: fg("#FFA500"),
		idle:    fg("#626262").Italic(true),
		added:   fg("#04B575"),
		removed: fg("#FF4D4F"),
		updated: fg("#F2C94C"),
	}
}

// changes renders a poll's diff as "+a -r ~u", each count in its own color.
func (p palette) changes(c tasks.Changes) string {
	return fmt.Sprintf("%s %s %s",
		p.added.Render(fmt.Sprintf("+%d", len(c.Added))),
		p.removed.Render(fmt.Sprintf("-%d", len(c.Removed))),
		p.updated.Render(fmt.Sprintf("~%d", len(c.Updated))),
	)
}
