package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/voltseed/pkg/estimate"
	"github.com/matzehuels/voltseed/pkg/network"
)

// =============================================================================
// Color Palette
// =============================================================================

var (
	colorCyan   = lipgloss.Color("36")  // Teal - primary actions
	colorGreen  = lipgloss.Color("35")  // Green - success
	colorYellow = lipgloss.Color("220") // Amber - warnings
	colorRed    = lipgloss.Color("167") // Soft red - errors
	colorBlue   = lipgloss.Color("75")  // Light blue - commands
	colorWhite  = lipgloss.Color("255") // Bright white - values
	colorGray   = lipgloss.Color("245") // Gray - secondary text
	colorDim    = lipgloss.Color("240") // Dim gray - muted text
)

// =============================================================================
// Public Styles
// =============================================================================

var (
	// StyleTitle for main headings.
	StyleTitle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)

	// StyleDim for secondary/muted text.
	StyleDim = lipgloss.NewStyle().Foreground(colorDim)

	// StyleValue for data values.
	StyleValue = lipgloss.NewStyle().Foreground(colorWhite)

	// StyleNumber for numeric values.
	StyleNumber = lipgloss.NewStyle().Foreground(colorCyan)

	// StyleSuccess for success messages.
	StyleSuccess = lipgloss.NewStyle().Foreground(colorGreen)

	// StyleWarning for warning messages.
	StyleWarning = lipgloss.NewStyle().Foreground(colorYellow)
)

// =============================================================================
// Internal Styles
// =============================================================================

var (
	styleIconSuccess = lipgloss.NewStyle().Foreground(colorGreen)
	styleIconError   = lipgloss.NewStyle().Foreground(colorRed)
	styleIconWarning = lipgloss.NewStyle().Foreground(colorYellow)
	styleIconInfo    = lipgloss.NewStyle().Foreground(colorGray)
	styleIconSpinner = lipgloss.NewStyle().Foreground(colorCyan)

	styleCached   = lipgloss.NewStyle().Foreground(colorGreen)
	styleComputed = lipgloss.NewStyle().Foreground(colorGray)

	styleCommand = lipgloss.NewStyle().Foreground(colorBlue)
	styleHeader  = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	styleNull    = lipgloss.NewStyle().Foreground(colorRed)
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
	iconCached  = "cached"
	iconFresh   = "fresh"
)

// =============================================================================
// Status Output
// =============================================================================

// printSuccess prints a success message.
func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconSuccess.Render(iconSuccess) + " " + msg)
}

// printError prints an error message.
func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconError.Render(iconError) + " " + msg)
}

// printWarning prints a warning message.
func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconWarning.Render(iconWarning) + " " + StyleWarning.Render(msg))
}

// printInfo prints an info/status message.
func printInfo(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println(styleIconInfo.Render(iconInfo) + " " + msg)
}

// printDetail prints a detail line (indented).
func printDetail(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Println("  " + StyleDim.Render(msg))
}

// =============================================================================
// File Output
// =============================================================================

// printFile prints a file output line.
func printFile(path string) {
	fmt.Println("  " + StyleDim.Render(iconArrow) + " " + StyleValue.Render(path))
}

// =============================================================================
// Key-Value Output
// =============================================================================

// printKeyValue prints a labeled value.
func printKeyValue(key, value string) {
	keyStyle := lipgloss.NewStyle().Foreground(colorGray).Width(12)
	fmt.Println(keyStyle.Render(key) + " " + StyleValue.Render(value))
}

// =============================================================================
// Stats Display
// =============================================================================

// statsLine formats estimate statistics as a single line.
func statsLine(s estimate.Stats, cached bool) string {
	parts := []string{
		fmt.Sprintf("%d sources", s.Sources),
		fmt.Sprintf("%d/%d transformers", s.Resolved, s.Transformers),
		fmt.Sprintf("%d sweeps", s.Sweeps),
	}
	if s.Filled > 0 {
		parts = append(parts, fmt.Sprintf("%d flat", s.Filled))
	}
	if s.Unresolved > 0 {
		parts = append(parts, fmt.Sprintf("%d unresolved", s.Unresolved))
	}

	status := iconFresh
	statusStyle := styleComputed
	if cached {
		status = iconCached
		statusStyle = styleCached
	}

	line := "  "
	for i, part := range parts {
		if i > 0 {
			line += StyleDim.Render(" · ")
		}
		line += StyleDim.Render(part)
	}
	return line + StyleDim.Render(" · ") + statusStyle.Render(status)
}

// printStats prints estimate statistics on a single line.
func printStats(s estimate.Stats, cached bool) {
	fmt.Println(statsLine(s, cached))
}

// =============================================================================
// Voltage Table
// =============================================================================

// nullCell marks the value columns of an unresolved bus.
const nullCell = "—"

// voltageRow is one formatted line of a voltage table.
type voltageRow struct {
	Bus      int
	Cells    []string // bus, name, kV, magnitude, angle
	Resolved bool
}

// voltageRows formats the table bus by bus. Unresolved buses show nullCell in
// both value columns.
func voltageRows(net *network.Network, t *estimate.Table) []voltageRow {
	names := map[int]network.Bus{}
	if net != nil {
		for _, b := range net.Buses {
			names[b.ID] = b
		}
	}

	rows := make([]voltageRow, 0, t.Len())
	for _, bus := range t.Buses() {
		b := names[bus]
		vm, va := nullCell, nullCell
		v, ok := t.Get(bus)
		if ok {
			vm = strconv.FormatFloat(v.VmPU, 'f', 4, 64)
			va = strconv.FormatFloat(v.VaDegree, 'f', 2, 64)
		}
		kv := ""
		if net != nil {
			kv = strconv.FormatFloat(b.VnKV, 'g', -1, 64)
		}
		rows = append(rows, voltageRow{
			Bus:      bus,
			Cells:    []string{strconv.Itoa(bus), b.Name, kv, vm, va},
			Resolved: ok,
		})
	}
	return rows
}

// writeVoltageTable renders the estimate as a bordered terminal table.
func writeVoltageTable(w io.Writer, net *network.Network, t *estimate.Table) {
	rows := voltageRows(net, t)
	cells := make([][]string, len(rows))
	for i, r := range rows {
		cells[i] = r.Cells
	}
	tbl := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("Bus", "Name", "kV", "Vm [pu]", "Va [°]").
		Rows(cells...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			style := lipgloss.NewStyle().Padding(0, 1)
			if row < len(rows) && !rows[row].Resolved {
				return style.Inherit(styleNull)
			}
			if col >= 3 {
				return style.Inherit(StyleNumber)
			}
			return style
		})
	fmt.Fprintln(w, tbl.Render())
}

// =============================================================================
// Commands & Next Steps
// =============================================================================

// printNextStep prints a suggested next command.
func printNextStep(description, cmd string) {
	fmt.Println(StyleDim.Render(description+":") + " " + styleCommand.Render(cmd))
}
