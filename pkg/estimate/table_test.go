package estimate

import (
	"encoding/json"
	"testing"
)

func TestNewTable(t *testing.T) {
	tbl := NewTable([]int{3, 1, 3, 2})

	if got := tbl.Len(); got != 3 {
		t.Errorf("Len() = %d, want 3", got)
	}
	got := tbl.Buses()
	want := []int{3, 1, 2}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Buses() = %v, want %v", got, want)
		}
	}
	if len(tbl.Unresolved()) != 3 {
		t.Errorf("Unresolved() = %v, want all buses", tbl.Unresolved())
	}
}

func TestTableSetIgnoresUnknownBus(t *testing.T) {
	tbl := NewTable([]int{0})
	tbl.set(7, FlatVoltage)

	if tbl.Has(7) || tbl.Resolved(7) {
		t.Error("set() added a bus outside the table")
	}
	if tbl.Len() != 1 {
		t.Errorf("Len() = %d, want 1", tbl.Len())
	}
}

func TestTableBusesIsCopy(t *testing.T) {
	tbl := NewTable([]int{0, 1})
	b := tbl.Buses()
	b[0] = 99

	if tbl.Buses()[0] != 0 {
		t.Error("Buses() exposed internal slice")
	}
}

func TestTableJSON(t *testing.T) {
	tbl := NewTable([]int{0, 1})
	tbl.set(0, Voltage{VmPU: 1.02, VaDegree: 5})

	data, err := json.Marshal(tbl)
	if err != nil {
		t.Fatalf("Marshal() error: %v", err)
	}
	want := `{"buses":[{"bus":0,"vm_pu":1.02,"va_degree":5},{"bus":1,"vm_pu":null,"va_degree":null}]}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}

	var back Table
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal() error: %v", err)
	}
	if v, ok := back.Get(0); !ok || v.VmPU != 1.02 || v.VaDegree != 5 {
		t.Errorf("Get(0) = %v, %v, want (1.02, 5)", v, ok)
	}
	if back.Resolved(1) {
		t.Error("bus 1 should stay null")
	}
}

func TestTableUnmarshalInvalid(t *testing.T) {
	var tbl Table
	if err := json.Unmarshal([]byte(`{"buses":"x"}`), &tbl); err == nil {
		t.Error("Unmarshal() expected error")
	}
}

func TestFromRowsPartial(t *testing.T) {
	vm := 0.97
	tbl := FromRows([]Row{{Bus: 4, VmPU: &vm}, {Bus: 5}})

	if tbl.Len() != 2 {
		t.Errorf("Len() = %d, want 2", tbl.Len())
	}
	if tbl.Resolved(4) {
		t.Error("row with only a magnitude should be null")
	}
}

func TestFlatStart(t *testing.T) {
	tbl := NewTable([]int{0, 1, 2})
	tbl.set(1, Voltage{VmPU: 1.05, VaDegree: -30})

	if n := FlatStart(tbl); n != 2 {
		t.Errorf("FlatStart() = %d, want 2", n)
	}
	if v, _ := tbl.Get(1); v.VmPU != 1.05 || v.VaDegree != -30 {
		t.Errorf("FlatStart() overwrote resolved bus: %v", v)
	}
	if v, _ := tbl.Get(2); v != FlatVoltage {
		t.Errorf("Get(2) = %v, want %v", v, FlatVoltage)
	}
	if n := FlatStart(tbl); n != 0 {
		t.Errorf("second FlatStart() = %d, want 0", n)
	}
}
