package cli

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
)

var (
	stylePrimary = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#C45A3C", Dark: "#DA7756"})
	styleBorder  = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#D1D5DB", Dark: "#4B5563"})
	styleSuccess = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#059669", Dark: "#10B981"})
	styleError   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#DC2626", Dark: "#F87171"})
	styleMuted   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#6B7280", Dark: "#9CA3AF"})
)

// isTerminal reports whether w is an interactive terminal. Anything else
// (pipes, files, buffers) gets plain tab-separated output.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// renderTable writes rows as a bordered table on a terminal, else as one
// tab-separated line per row without the header.
func renderTable(w io.Writer, headers []string, rows [][]string) error {
	if !isTerminal(w) {
		var b strings.Builder
		for _, r := range rows {
			b.WriteString(strings.Join(r, "\t"))
			b.WriteByte('\n')
		}
		_, err := io.WriteString(w, b.String())
		return err
	}
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styleBorder).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			s := lipgloss.NewStyle().Padding(0, 1)
			switch {
			case row == table.HeaderRow:
				return s.Inherit(stylePrimary).Bold(true)
			case col == 0:
				return s.Bold(true)
			default:
				return s
			}
		})
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func printSuccess(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if isTerminal(w) {
		msg = styleSuccess.Render("✓") + " " + msg
	}
	fmt.Fprintln(w, msg)
}

func printError(w io.Writer, format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	if isTerminal(w) {
		msg = styleError.Render("✗ " + msg)
	} else {
		msg = "error: " + msg
	}
	fmt.Fprintln(w, msg)
}

func muted(w io.Writer, s string) string {
	if !isTerminal(w) {
		return s
	}
	return styleMuted.Render(s)
}
