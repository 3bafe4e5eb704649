package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

// renderFieldLine draws a single-line field (text input or choice) as a row of
// exactly w cells: a focus gutter, then the view on the input background. Views
// wider than the row are truncated with an ellipsis; they never wrap.
func renderFieldLine(w int, view string, focused bool) string {
	if w < 10 {
		w = 10
	}
	view = strings.NewReplacer("\n", " ", "\r", " ").Replace(view)

	gutter := " "
	if focused {
		gutter = lipgloss.NewStyle().Foreground(colorAccent).Render("▌")
	}
	inner := w - 1
	if xansi.StringWidth(view) >= inner {
		view = xansi.Truncate(view, inner-2, "…")
	}
	return gutter + lipgloss.PlaceHorizontal(
		inner,
		lipgloss.Left,
		view+" ",
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceBackground(colorInputBg),
	)
}
