package estimate

import (
	"encoding/json"
	"fmt"
)

// Voltage is a bus voltage estimate.
type Voltage struct {
	VmPU     float64 // magnitude in per-unit
	VaDegree float64 // angle in degrees
}

// FlatVoltage is the flat-start guess: 1.0 per-unit, 0 degrees.
var FlatVoltage = Voltage{VmPU: 1.0, VaDegree: 0}

// Table maps bus IDs to voltage estimates. A bus is either resolved, with a
// magnitude and an angle, or null.
//
// Tables returned by [Estimate] are snapshots: the exported API is read-only.
// Table is not safe for concurrent mutation, but concurrent reads are fine.
type Table struct {
	buses  []int
	rows   map[int]bool
	values map[int]Voltage
}

// NewTable creates a table with every bus null. Duplicate IDs are kept once.
func NewTable(buses []int) *Table {
	t := &Table{
		rows:   make(map[int]bool, len(buses)),
		values: make(map[int]Voltage, len(buses)),
	}
	for _, id := range buses {
		if t.rows[id] {
			continue
		}
		t.rows[id] = true
		t.buses = append(t.buses, id)
	}
	return t
}

// set assigns v to bus. Buses outside the table are ignored.
func (t *Table) set(bus int, v Voltage) {
	if !t.Has(bus) {
		return
	}
	t.values[bus] = v
}

// Has reports whether bus is a row of the table, resolved or not.
func (t *Table) Has(bus int) bool { return t.rows[bus] }

// Get returns the estimate for bus and whether it is resolved.
func (t *Table) Get(bus int) (Voltage, bool) {
	v, ok := t.values[bus]
	return v, ok
}

// Resolved reports whether bus has an estimate.
func (t *Table) Resolved(bus int) bool {
	_, ok := t.values[bus]
	return ok
}

// Len returns the number of rows.
func (t *Table) Len() int { return len(t.buses) }

// Buses returns all bus IDs in row order.
func (t *Table) Buses() []int {
	return append([]int(nil), t.buses...)
}

// Unresolved returns the IDs of null rows in row order.
func (t *Table) Unresolved() []int {
	var out []int
	for _, id := range t.buses {
		if !t.Resolved(id) {
			out = append(out, id)
		}
	}
	return out
}

// Row is one table row with nullable fields, as exchanged with callers.
type Row struct {
	Bus      int      `json:"bus"`
	VmPU     *float64 `json:"vm_pu"`
	VaDegree *float64 `json:"va_degree"`
}

// Rows returns the table in row order. Null rows have nil fields.
func (t *Table) Rows() []Row {
	rows := make([]Row, len(t.buses))
	for i, id := range t.buses {
		rows[i] = Row{Bus: id}
		if v, ok := t.values[id]; ok {
			vm, va := v.VmPU, v.VaDegree
			rows[i].VmPU = &vm
			rows[i].VaDegree = &va
		}
	}
	return rows
}

// FromRows rebuilds a table from rows, e.g. after decoding a stored result.
// A row is resolved only when both fields are present.
func FromRows(rows []Row) *Table {
	ids := make([]int, len(rows))
	for i, r := range rows {
		ids[i] = r.Bus
	}
	t := NewTable(ids)
	for _, r := range rows {
		if r.VmPU != nil && r.VaDegree != nil {
			t.set(r.Bus, Voltage{VmPU: *r.VmPU, VaDegree: *r.VaDegree})
		}
	}
	return t
}

type tableJSON struct {
	Buses []Row `json:"buses"`
}

// MarshalJSON encodes the table as {"buses": [...rows]}.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{Buses: t.Rows()})
}

// UnmarshalJSON decodes the format written by MarshalJSON.
func (t *Table) UnmarshalJSON(data []byte) error {
	var in tableJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return fmt.Errorf("decode table: %w", err)
	}
	*t = *FromRows(in.Buses)
	return nil
}
