package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Styles
// =============================================================================

var (
	styleTitle   = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleValue   = lipgloss.NewStyle().Foreground(colorWhite)
	styleNumber  = lipgloss.NewStyle().Foreground(colorCyan)
	styleWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleKey     = lipgloss.NewStyle().Foreground(colorGray).Width(14)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)

	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)
)

// =============================================================================
// Icons
// =============================================================================

const (
	iconSuccess = "✓"
	iconError   = "✗"
	iconWarning = "!"
	iconInfo    = "›"
	iconArrow   = "→"
)

// =============================================================================
// Printer
// =============================================================================

// printer writes styled status lines. Commands create one over
// cmd.OutOrStdout() so output can be captured.
type printer struct {
	w io.Writer
}

func (p printer) line(s string) {
	fmt.Fprintln(p.w, s)
}

func (p printer) success(format string, args ...any) {
	p.line(styleIconSuccess.Render(iconSuccess) + " " + fmt.Sprintf(format, args...))
}

func (p printer) failure(format string, args ...any) {
	p.line(styleIconError.Render(iconError) + " " + fmt.Sprintf(format, args...))
}

func (p printer) warning(format string, args ...any) {
	p.line(styleIconWarning.Render(iconWarning) + " " + styleWarning.Render(fmt.Sprintf(format, args...)))
}

func (p printer) info(format string, args ...any) {
	p.line(styleIconInfo.Render(iconInfo) + " " + fmt.Sprintf(format, args...))
}

// detail prints an indented, dimmed line.
func (p printer) detail(format string, args ...any) {
	p.line("  " + styleDim.Render(fmt.Sprintf(format, args...)))
}

// file prints an output file line.
func (p printer) file(path string) {
	p.line("  " + styleDim.Render(iconArrow) + " " + styleValue.Render(path))
}

func (p printer) title(s string) {
	p.line(styleTitle.Render(s))
}

func (p printer) keyValue(key, value string) {
	p.line(styleKey.Render(key) + " " + styleValue.Render(value))
}

// stats prints graph counts on a single line, skipping zero counts.
func (p printer) stats(nodes, edges, annotations int) {
	var parts []string
	for _, c := range []struct {
		n    int
		unit string
	}{{nodes, "nodes"}, {edges, "edges"}, {annotations, "annotations"}} {
		if c.n > 0 {
			parts = append(parts, styleNumber.Render(fmt.Sprint(c.n))+" "+styleDim.Render(c.unit))
		}
	}
	if len(parts) == 0 {
		parts = append(parts, styleDim.Render("empty"))
	}
	p.line("  " + strings.Join(parts, styleDim.Render(" · ")))
}

// table prints rows in a rounded table.
func (p printer) table(headers []string, rows [][]string) {
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 { // header
				return styleHeader.Padding(0, 1)
			}
			return lipgloss.NewStyle().Padding(0, 1)
		})
	p.line(t.Render())
}
