package network

import (
	"errors"
	"fmt"
)

var (
	// ErrDuplicateBusID is returned by [Network.Validate] when two buses share an ID.
	ErrDuplicateBusID = errors.New("duplicate bus ID")

	// ErrDuplicateElementID is returned by [Network.Validate] when two elements of
	// the same table (ext grids, transformers, lines or switches) share an ID.
	ErrDuplicateElementID = errors.New("duplicate element ID")

	// ErrUnknownBus is returned by [Network.Validate] when an element references
	// a bus that is not in the bus table.
	ErrUnknownBus = errors.New("unknown bus")

	// ErrUnknownElement is returned by [Network.Validate] when a switch references
	// a line, transformer or bus that does not exist.
	ErrUnknownElement = errors.New("unknown switch element")

	// ErrInvalidSwitchType is returned by [Network.Validate] for a switch whose
	// Type is not one of SwitchBus, SwitchLine or SwitchTransformer.
	ErrInvalidSwitchType = errors.New("invalid switch type")
)

// Bus is a node of the electrical network.
type Bus struct {
	ID        int
	Name      string
	VnKV      float64 // nominal voltage level in kV
	InService bool
}

// ExtGrid is a reference source (slack) with an externally fixed voltage.
type ExtGrid struct {
	ID        int
	Name      string
	Bus       int
	VmPU      float64 // voltage magnitude in per-unit
	VaDegree  float64 // voltage angle in degrees
	InService bool
}

// Transformer is a two-winding transformer between a high-voltage and a
// low-voltage bus.
type Transformer struct {
	ID     int
	Name   string
	HVBus  int
	LVBus  int
	VnHVKV float64 // rated voltage at the high-voltage side in kV
	VnLVKV float64 // rated voltage at the low-voltage side in kV

	// ShiftDegree is the phase shift across the transformer. Nil means the
	// transformer carries no shift information and is treated as 0.
	ShiftDegree *float64

	InService bool
}

// Shift returns the phase shift in degrees, or 0 when none is set.
func (t Transformer) Shift() float64 {
	if t.ShiftDegree == nil {
		return 0
	}
	return *t.ShiftDegree
}

// Line is a non-transformer branch. Voltage is assumed identical at both ends.
type Line struct {
	ID        int
	Name      string
	FromBus   int
	ToBus     int
	InService bool
}

// SwitchType identifies what a switch connects its bus to.
type SwitchType string

const (
	// SwitchBus connects two buses directly; Element is the second bus.
	SwitchBus SwitchType = "b"
	// SwitchLine sits between a bus and a line end; Element is the line ID.
	SwitchLine SwitchType = "l"
	// SwitchTransformer sits between a bus and a transformer end; Element is the transformer ID.
	SwitchTransformer SwitchType = "t"
)

// Switch is a breaker or disconnector. A closed bus-bus switch joins two buses;
// an open line or transformer switch disconnects that branch.
type Switch struct {
	ID      int
	Bus     int
	Element int
	Type    SwitchType
	Closed  bool
}

// Network is the complete electrical model. Slices keep table order, which is
// the order every algorithm iterates in.
//
// The zero value is usable but empty. Lookup indices are built lazily by
// [Network.Bus] and rebuilt by [Network.Reindex]; callers that mutate Buses
// after the first lookup must call Reindex.
type Network struct {
	Name         string
	Buses        []Bus
	ExtGrids     []ExtGrid
	Transformers []Transformer
	Lines        []Line
	Switches     []Switch

	busIndex map[int]int // bus ID -> position in Buses
}

// Reindex rebuilds the bus lookup index.
func (n *Network) Reindex() {
	n.busIndex = make(map[int]int, len(n.Buses))
	for i, b := range n.Buses {
		if _, dup := n.busIndex[b.ID]; !dup {
			n.busIndex[b.ID] = i
		}
	}
}

// Bus returns the bus with the given ID. The returned pointer aliases the
// Buses slice.
func (n *Network) Bus(id int) (*Bus, bool) {
	if n.busIndex == nil || len(n.busIndex) != len(n.Buses) {
		n.Reindex()
	}
	i, ok := n.busIndex[id]
	if !ok {
		return nil, false
	}
	return &n.Buses[i], true
}

// BusIDs returns all bus IDs in table order.
func (n *Network) BusIDs() []int {
	ids := make([]int, len(n.Buses))
	for i, b := range n.Buses {
		ids[i] = b.ID
	}
	return ids
}

// InServiceExtGrids returns the in-service reference sources in table order.
func (n *Network) InServiceExtGrids() []ExtGrid {
	var out []ExtGrid
	for _, eg := range n.ExtGrids {
		if eg.InService {
			out = append(out, eg)
		}
	}
	return out
}

// InServiceTransformers returns the in-service transformers in table order.
func (n *Network) InServiceTransformers() []Transformer {
	var out []Transformer
	for _, t := range n.Transformers {
		if t.InService {
			out = append(out, t)
		}
	}
	return out
}

// Validate checks referential integrity of the network tables.
// It does not inspect electrical values: a zero nominal voltage is accepted
// and surfaces later as a non-finite estimate.
func (n *Network) Validate() error {
	buses := make(map[int]bool, len(n.Buses))
	for _, b := range n.Buses {
		if buses[b.ID] {
			return fmt.Errorf("bus %d: %w", b.ID, ErrDuplicateBusID)
		}
		buses[b.ID] = true
	}
	n.Reindex()

	checkBus := func(kind string, id, bus int) error {
		if !buses[bus] {
			return fmt.Errorf("%s %d references bus %d: %w", kind, id, bus, ErrUnknownBus)
		}
		return nil
	}

	seen := map[int]bool{}
	for _, eg := range n.ExtGrids {
		if seen[eg.ID] {
			return fmt.Errorf("ext grid %d: %w", eg.ID, ErrDuplicateElementID)
		}
		seen[eg.ID] = true
		if err := checkBus("ext grid", eg.ID, eg.Bus); err != nil {
			return err
		}
	}

	trafos := map[int]bool{}
	for _, t := range n.Transformers {
		if trafos[t.ID] {
			return fmt.Errorf("transformer %d: %w", t.ID, ErrDuplicateElementID)
		}
		trafos[t.ID] = true
		if err := checkBus("transformer", t.ID, t.HVBus); err != nil {
			return err
		}
		if err := checkBus("transformer", t.ID, t.LVBus); err != nil {
			return err
		}
	}

	lines := map[int]bool{}
	for _, l := range n.Lines {
		if lines[l.ID] {
			return fmt.Errorf("line %d: %w", l.ID, ErrDuplicateElementID)
		}
		lines[l.ID] = true
		if err := checkBus("line", l.ID, l.FromBus); err != nil {
			return err
		}
		if err := checkBus("line", l.ID, l.ToBus); err != nil {
			return err
		}
	}

	seen = map[int]bool{}
	for _, s := range n.Switches {
		if seen[s.ID] {
			return fmt.Errorf("switch %d: %w", s.ID, ErrDuplicateElementID)
		}
		seen[s.ID] = true
		if err := checkBus("switch", s.ID, s.Bus); err != nil {
			return err
		}
		var known bool
		switch s.Type {
		case SwitchBus:
			known = buses[s.Element]
		case SwitchLine:
			known = lines[s.Element]
		case SwitchTransformer:
			known = trafos[s.Element]
		default:
			return fmt.Errorf("switch %d type %q: %w", s.ID, s.Type, ErrInvalidSwitchType)
		}
		if !known {
			return fmt.Errorf("switch %d element %d: %w", s.ID, s.Element, ErrUnknownElement)
		}
	}

	return nil
}
