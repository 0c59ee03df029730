package cli

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/matzehuels/voltseed/pkg/estimate"
	"github.com/matzehuels/voltseed/pkg/network"
	"github.com/matzehuels/voltseed/pkg/topology"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// InspectModel - Interactive voltage table browser
// =============================================================================

// InspectModel is the bubbletea model for browsing an estimate bus by bus.
type InspectModel struct {
	Network *network.Network
	Table   *estimate.Table
	Stats   estimate.Stats

	Rows   []voltageRow
	Cursor int // position within the visible rows
	Offset int
	Height int

	// Topology is the region summary shown under the title. Empty for saved
	// runs, which carry no network.
	Topology string

	graph   *topology.Graph
	visible []int // indices into Rows currently shown

	OnlyUnresolved bool
	ShowDetail     bool
}

// NewInspectModel creates a browser over the estimate t of net.
func NewInspectModel(net *network.Network, t *estimate.Table, stats estimate.Stats) InspectModel {
	m := InspectModel{
		Network: net,
		Table:   t,
		Stats:   stats,
		Rows:    voltageRows(net, t),
		Height:  15,
	}
	if net != nil {
		m.graph = topology.Build(net, topology.Options{})
		m.Topology = topology.Summarize(net).String()
	}
	m.filter()
	return m
}

// filter rebuilds the visible row list and clamps the cursor.
func (m *InspectModel) filter() {
	visible := make([]int, 0, len(m.Rows))
	for i, r := range m.Rows {
		if m.OnlyUnresolved && r.Resolved {
			continue
		}
		visible = append(visible, i)
	}
	m.visible = visible
	if m.Cursor >= len(m.visible) {
		m.Cursor = max(len(m.visible)-1, 0)
	}
	if m.Offset > m.Cursor {
		m.Offset = m.Cursor
	}
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.visible)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "u":
			m.OnlyUnresolved = !m.OnlyUnresolved
			m.Cursor, m.Offset = 0, 0
			m.filter()
		case "enter":
			m.ShowDetail = !m.ShowDetail
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 8
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

// Selected returns the bus ID under the cursor.
func (m InspectModel) Selected() (int, bool) {
	if len(m.visible) == 0 {
		return 0, false
	}
	return m.Rows[m.visible[m.Cursor]].Bus, true
}

func (m InspectModel) View() string {
	var b strings.Builder

	title := "Bus Voltages"
	if m.Network != nil && m.Network.Name != "" {
		title += " · " + m.Network.Name
	}
	b.WriteString(StyleTitle.Render(title))
	b.WriteString("\n")
	if m.Topology != "" {
		b.WriteString(listDimStyle.Render(m.Topology))
		b.WriteString("\n")
	}
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  u unresolved only  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.visible))
	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		rows = append(rows, append([]string{cursor}, m.Rows[m.visible[i]].Cells...))
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "Bus", "Name", "kV", "Vm [pu]", "Va [°]").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleHeader
			}
			idx := m.Offset + row
			if idx >= len(m.visible) {
				return lipgloss.NewStyle()
			}
			unresolved := !m.Rows[m.visible[idx]].Resolved
			base := lipgloss.NewStyle()
			switch {
			case idx == m.Cursor && unresolved:
				return base.Foreground(colorRed).Bold(true)
			case idx == m.Cursor:
				return base.Foreground(colorGreen).Bold(true)
			case unresolved:
				return base.Foreground(colorDim)
			case col >= 4:
				return base.Foreground(colorCyan)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(statsLine(m.Stats, false))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.visible)), len(m.visible))))

	if m.ShowDetail {
		if id, ok := m.Selected(); ok {
			b.WriteString("\n\n")
			b.WriteString(m.detail(id))
		}
	}
	return b.String()
}

// detail describes the elements attached to bus id.
func (m InspectModel) detail(id int) string {
	var b strings.Builder
	b.WriteString(listSelectedStyle.Render(fmt.Sprintf("Bus %d", id)))
	b.WriteString("\n")
	if m.Network == nil {
		return b.String()
	}

	for _, bus := range m.Network.Buses {
		if bus.ID == id && !bus.InService {
			b.WriteString(StyleWarning.Render("  out of service") + "\n")
		}
	}
	for _, g := range m.Network.ExtGrids {
		if g.Bus == id {
			fmt.Fprintf(&b, "  ext grid %d  %.4f pu ∠ %.2f°\n", g.ID, g.VmPU, g.VaDegree)
		}
	}
	for _, t := range m.Network.Transformers {
		switch id {
		case t.HVBus:
			fmt.Fprintf(&b, "  trafo %d  HV side, LV bus %d, shift %.1f°\n", t.ID, t.LVBus, t.Shift())
		case t.LVBus:
			fmt.Fprintf(&b, "  trafo %d  LV side, HV bus %d, shift %.1f°\n", t.ID, t.HVBus, t.Shift())
		}
	}
	for _, l := range m.Network.Lines {
		switch id {
		case l.FromBus:
			fmt.Fprintf(&b, "  line %d  to bus %d\n", l.ID, l.ToBus)
		case l.ToBus:
			fmt.Fprintf(&b, "  line %d  to bus %d\n", l.ID, l.FromBus)
		}
	}
	if m.graph != nil && m.graph.HasBus(id) {
		if nb := m.graph.Neighbors(id); len(nb) > 0 {
			fmt.Fprintf(&b, "  connected  %s\n", joinInts(nb))
		}
		if region, err := m.graph.ConnectedComponent(id); err == nil {
			fmt.Fprintf(&b, "  region     %d buses\n", len(region))
		}
	}
	return listDimStyle.Render(b.String())
}

// =============================================================================
// Helpers
// =============================================================================

func formatRelativeTime(t time.Time) string {
	diff := time.Since(t)

	switch {
	case diff < time.Hour:
		return fmt.Sprintf("%dm ago", int(diff.Minutes()))
	case diff < 24*time.Hour:
		return fmt.Sprintf("%dh ago", int(diff.Hours()))
	case diff < 7*24*time.Hour:
		return fmt.Sprintf("%dd ago", int(diff.Hours()/24))
	default:
		return t.Format("Jan 2, 2006")
	}
}

// joinInts formats bus IDs as "1, 2, 4".
func joinInts(ids []int) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	return strings.Join(parts, ", ")
}
