package cli

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/matzehuels/voltseed/pkg/estimate"
	pkgio "github.com/matzehuels/voltseed/pkg/io"
)

func inspectFixture(t *testing.T) InspectModel {
	t.Helper()
	net, err := pkgio.ReadJSON(strings.NewReader(feederJSON))
	if err != nil {
		t.Fatal(err)
	}
	res, err := estimate.Estimate(net, estimate.Options{})
	if err != nil {
		t.Fatal(err)
	}
	return NewInspectModel(net, res.Table, res.Stats)
}

func key(s string) tea.KeyMsg {
	switch s {
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(m InspectModel, keys ...string) InspectModel {
	for _, k := range keys {
		next, _ := m.Update(key(k))
		m = next.(InspectModel)
	}
	return m
}

func TestInspectModelNavigation(t *testing.T) {
	m := inspectFixture(t)

	if id, ok := m.Selected(); !ok || id != 0 {
		t.Fatalf("initial selection = %d, %v; want bus 0", id, ok)
	}

	m = press(m, "down", "down", "down")
	if id, _ := m.Selected(); id != 2 {
		t.Errorf("cursor past the end selected bus %d, want 2", id)
	}

	m = press(m, "up", "k")
	if id, _ := m.Selected(); id != 0 {
		t.Errorf("after moving up selected bus %d, want 0", id)
	}
}

func TestInspectModelScroll(t *testing.T) {
	m := inspectFixture(t)
	m.Height = 1

	m = press(m, "j", "j")
	if m.Offset != 2 {
		t.Errorf("Offset = %d, want 2", m.Offset)
	}
	m = press(m, "k")
	if m.Offset != 1 {
		t.Errorf("Offset = %d, want 1", m.Offset)
	}
}

func TestInspectModelUnresolvedFilter(t *testing.T) {
	m := press(inspectFixture(t), "u")

	if !m.OnlyUnresolved {
		t.Fatal("u should enable the unresolved filter")
	}
	if id, ok := m.Selected(); !ok || id != 2 {
		t.Errorf("filtered selection = %d, %v; want bus 2", id, ok)
	}
	if !strings.Contains(m.View(), "[1/1]") {
		t.Error("filtered view should show one row")
	}

	m = press(m, "u")
	if strings.Contains(m.View(), "[1/1]") {
		t.Error("second u should clear the filter")
	}
}

func TestInspectModelDetail(t *testing.T) {
	m := press(inspectFixture(t), "down", "enter")

	view := m.View()
	if !strings.Contains(view, "Bus 1") {
		t.Errorf("detail should name the selected bus:\n%s", view)
	}
	if !strings.Contains(view, "LV side, HV bus 0, shift 30.0°") {
		t.Errorf("detail should list the transformer:\n%s", view)
	}
}

func TestInspectModelTopology(t *testing.T) {
	m := inspectFixture(t)
	if want := "3 buses · 1 branch · 3 regions"; m.Topology != want {
		t.Errorf("Topology = %q, want %q", m.Topology, want)
	}
	if !strings.Contains(m.View(), m.Topology) {
		t.Error("view should show the topology summary")
	}

	saved := NewInspectModel(nil, m.Table, m.Stats)
	if saved.Topology != "" {
		t.Errorf("saved run Topology = %q, want empty", saved.Topology)
	}
	saved = press(saved, "enter")
	if !strings.Contains(saved.View(), "Bus 0") {
		t.Error("saved run detail should still name the bus")
	}
}

func TestInspectModelDetailNeighbours(t *testing.T) {
	net, err := pkgio.ReadJSON(strings.NewReader(`{
  "buses": [{"id": 0, "vn_kv": 20}, {"id": 1, "vn_kv": 20}, {"id": 2, "vn_kv": 20}],
  "ext_grids": [{"bus": 0, "vm_pu": 1}],
  "lines": [{"from_bus": 0, "to_bus": 1}, {"from_bus": 1, "to_bus": 2}]
}`))
	if err != nil {
		t.Fatal(err)
	}
	res, err := estimate.Estimate(net, estimate.Options{})
	if err != nil {
		t.Fatal(err)
	}
	m := press(NewInspectModel(net, res.Table, res.Stats), "down", "enter")

	view := m.View()
	if !strings.Contains(view, "connected  0, 2") {
		t.Errorf("detail should list neighbouring buses:\n%s", view)
	}
	if !strings.Contains(view, "region     3 buses") {
		t.Errorf("detail should give the region size:\n%s", view)
	}
}

// The unresolved filter and styling follow the table, not the cell text.
func TestInspectModelUnresolvedIgnoresCellText(t *testing.T) {
	m := inspectFixture(t)
	for i := range m.Rows {
		m.Rows[i].Cells[3] = "n/a"
	}
	m = press(m, "u")
	if id, ok := m.Selected(); !ok || id != 2 {
		t.Errorf("filtered selection = %d, %v; want bus 2", id, ok)
	}
	if !strings.Contains(m.View(), "[1/1]") {
		t.Error("filter should keep exactly the unresolved bus")
	}
}

func TestVoltageRows(t *testing.T) {
	m := inspectFixture(t)
	rows := voltageRows(m.Network, m.Table)
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}
	for _, r := range rows {
		if r.Resolved != m.Table.Resolved(r.Bus) {
			t.Errorf("bus %d Resolved = %v, table says %v", r.Bus, r.Resolved, m.Table.Resolved(r.Bus))
		}
	}
	if got := rows[2].Cells; got[1] != "island" || got[3] != nullCell || got[4] != nullCell {
		t.Errorf("unresolved row = %v", got)
	}
	if got := rows[1].Cells; got[2] != "110" || got[4] != "-25.00" {
		t.Errorf("resolved row = %v", got)
	}
}

func TestInspectModelQuit(t *testing.T) {
	m := inspectFixture(t)
	for _, k := range []string{"q", "esc"} {
		msg := key(k)
		if k == "esc" {
			msg = tea.KeyMsg{Type: tea.KeyEsc}
		}
		_, cmd := m.Update(msg)
		if cmd == nil {
			t.Fatalf("%s should return a command", k)
		}
		if _, ok := cmd().(tea.QuitMsg); !ok {
			t.Errorf("%s should quit", k)
		}
	}
}

func TestInspectModelWindowSize(t *testing.T) {
	m := inspectFixture(t)
	next, _ := m.Update(tea.WindowSizeMsg{Width: 80, Height: 10})
	if got := next.(InspectModel).Height; got != 5 {
		t.Errorf("Height = %d, want minimum 5", got)
	}
}

func TestFormatRelativeTime(t *testing.T) {
	tests := []struct {
		ago  time.Duration
		want string
	}{
		{5 * time.Minute, "5m ago"},
		{3 * time.Hour, "3h ago"},
		{50 * time.Hour, "2d ago"},
	}
	for _, tt := range tests {
		if got := formatRelativeTime(time.Now().Add(-tt.ago)); got != tt.want {
			t.Errorf("formatRelativeTime(-%v) = %q, want %q", tt.ago, got, tt.want)
		}
	}
}
