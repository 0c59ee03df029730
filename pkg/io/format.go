package io

import (
	"github.com/matzehuels/voltseed/pkg/network"
)

// document is the on-disk network layout shared by JSON, TOML and YAML.
// Omitted IDs default to the row position, omitted in_service and closed
// flags default to true.
type document struct {
	Name         string       `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Buses        []busDoc     `json:"buses" toml:"buses" yaml:"buses"`
	ExtGrids     []extGridDoc `json:"ext_grids,omitempty" toml:"ext_grids,omitempty" yaml:"ext_grids,omitempty"`
	Transformers []trafoDoc   `json:"transformers,omitempty" toml:"transformers,omitempty" yaml:"transformers,omitempty"`
	Lines        []lineDoc    `json:"lines,omitempty" toml:"lines,omitempty" yaml:"lines,omitempty"`
	Switches     []switchDoc  `json:"switches,omitempty" toml:"switches,omitempty" yaml:"switches,omitempty"`
}

type busDoc struct {
	ID        *int    `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
	Name      string  `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	VnKV      float64 `json:"vn_kv" toml:"vn_kv" yaml:"vn_kv"`
	InService *bool   `json:"in_service,omitempty" toml:"in_service,omitempty" yaml:"in_service,omitempty"`
}

type extGridDoc struct {
	ID        *int    `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
	Name      string  `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	Bus       int     `json:"bus" toml:"bus" yaml:"bus"`
	VmPU      float64 `json:"vm_pu" toml:"vm_pu" yaml:"vm_pu"`
	VaDegree  float64 `json:"va_degree" toml:"va_degree" yaml:"va_degree"`
	InService *bool   `json:"in_service,omitempty" toml:"in_service,omitempty" yaml:"in_service,omitempty"`
}

type trafoDoc struct {
	ID          *int     `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
	Name        string   `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	HVBus       int      `json:"hv_bus" toml:"hv_bus" yaml:"hv_bus"`
	LVBus       int      `json:"lv_bus" toml:"lv_bus" yaml:"lv_bus"`
	VnHVKV      float64  `json:"vn_hv_kv" toml:"vn_hv_kv" yaml:"vn_hv_kv"`
	VnLVKV      float64  `json:"vn_lv_kv" toml:"vn_lv_kv" yaml:"vn_lv_kv"`
	ShiftDegree *float64 `json:"shift_degree,omitempty" toml:"shift_degree,omitempty" yaml:"shift_degree,omitempty"`
	InService   *bool    `json:"in_service,omitempty" toml:"in_service,omitempty" yaml:"in_service,omitempty"`
}

type lineDoc struct {
	ID        *int   `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
	Name      string `json:"name,omitempty" toml:"name,omitempty" yaml:"name,omitempty"`
	FromBus   int    `json:"from_bus" toml:"from_bus" yaml:"from_bus"`
	ToBus     int    `json:"to_bus" toml:"to_bus" yaml:"to_bus"`
	InService *bool  `json:"in_service,omitempty" toml:"in_service,omitempty" yaml:"in_service,omitempty"`
}

type switchDoc struct {
	ID      *int   `json:"id,omitempty" toml:"id,omitempty" yaml:"id,omitempty"`
	Bus     int    `json:"bus" toml:"bus" yaml:"bus"`
	Element int    `json:"element" toml:"element" yaml:"element"`
	Type    string `json:"type" toml:"type" yaml:"type"`
	Closed  *bool  `json:"closed,omitempty" toml:"closed,omitempty" yaml:"closed,omitempty"`
}

func idOr(id *int, row int) int {
	if id == nil {
		return row
	}
	return *id
}

func flagOr(b *bool) bool {
	return b == nil || *b
}

func ptr[T any](v T) *T { return &v }

func (d *document) network() *network.Network {
	net := &network.Network{
		Name:         d.Name,
		Buses:        make([]network.Bus, len(d.Buses)),
		ExtGrids:     make([]network.ExtGrid, len(d.ExtGrids)),
		Transformers: make([]network.Transformer, len(d.Transformers)),
		Lines:        make([]network.Line, len(d.Lines)),
		Switches:     make([]network.Switch, len(d.Switches)),
	}
	for i, b := range d.Buses {
		net.Buses[i] = network.Bus{ID: idOr(b.ID, i), Name: b.Name, VnKV: b.VnKV, InService: flagOr(b.InService)}
	}
	for i, eg := range d.ExtGrids {
		net.ExtGrids[i] = network.ExtGrid{
			ID: idOr(eg.ID, i), Name: eg.Name, Bus: eg.Bus,
			VmPU: eg.VmPU, VaDegree: eg.VaDegree, InService: flagOr(eg.InService),
		}
	}
	for i, t := range d.Transformers {
		net.Transformers[i] = network.Transformer{
			ID: idOr(t.ID, i), Name: t.Name, HVBus: t.HVBus, LVBus: t.LVBus,
			VnHVKV: t.VnHVKV, VnLVKV: t.VnLVKV, ShiftDegree: t.ShiftDegree,
			InService: flagOr(t.InService),
		}
	}
	for i, l := range d.Lines {
		net.Lines[i] = network.Line{
			ID: idOr(l.ID, i), Name: l.Name, FromBus: l.FromBus, ToBus: l.ToBus,
			InService: flagOr(l.InService),
		}
	}
	for i, s := range d.Switches {
		net.Switches[i] = network.Switch{
			ID: idOr(s.ID, i), Bus: s.Bus, Element: s.Element,
			Type: network.SwitchType(s.Type), Closed: flagOr(s.Closed),
		}
	}
	return net
}

func newDocument(net *network.Network) document {
	d := document{
		Name:         net.Name,
		Buses:        make([]busDoc, len(net.Buses)),
		ExtGrids:     make([]extGridDoc, len(net.ExtGrids)),
		Transformers: make([]trafoDoc, len(net.Transformers)),
		Lines:        make([]lineDoc, len(net.Lines)),
		Switches:     make([]switchDoc, len(net.Switches)),
	}
	for i, b := range net.Buses {
		d.Buses[i] = busDoc{ID: ptr(b.ID), Name: b.Name, VnKV: b.VnKV, InService: ptr(b.InService)}
	}
	for i, eg := range net.ExtGrids {
		d.ExtGrids[i] = extGridDoc{
			ID: ptr(eg.ID), Name: eg.Name, Bus: eg.Bus,
			VmPU: eg.VmPU, VaDegree: eg.VaDegree, InService: ptr(eg.InService),
		}
	}
	for i, t := range net.Transformers {
		d.Transformers[i] = trafoDoc{
			ID: ptr(t.ID), Name: t.Name, HVBus: t.HVBus, LVBus: t.LVBus,
			VnHVKV: t.VnHVKV, VnLVKV: t.VnLVKV, ShiftDegree: t.ShiftDegree,
			InService: ptr(t.InService),
		}
	}
	for i, l := range net.Lines {
		d.Lines[i] = lineDoc{
			ID: ptr(l.ID), Name: l.Name, FromBus: l.FromBus, ToBus: l.ToBus,
			InService: ptr(l.InService),
		}
	}
	for i, s := range net.Switches {
		d.Switches[i] = switchDoc{
			ID: ptr(s.ID), Bus: s.Bus, Element: s.Element,
			Type: string(s.Type), Closed: ptr(s.Closed),
		}
	}
	return d
}
