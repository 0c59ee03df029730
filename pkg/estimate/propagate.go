package estimate

import (
	"github.com/matzehuels/voltseed/pkg/network"
)

// propagate carries resolved voltages across in-service transformers from the
// high-voltage to the low-voltage side until no transformer is pending.
//
// The pending list is revisited in sweeps, in table order. A transformer
// leaves the list once its high side is resolved, whether it assigns its low
// side region or finds it already set by a parallel transformer.
func (e *estimator) propagate() {
	pending := e.net.InServiceTransformers()
	total := len(pending)
	e.stats.Transformers = total

	for len(pending) > 0 {
		e.stats.Sweeps++
		var kept []network.Transformer
		removed := 0

		for i, t := range pending {
			switch hvSet := e.table.Resolved(t.HVBus); {
			case hvSet && !e.table.Resolved(t.LVBus):
				e.resolve(t)
				removed++
			case hvSet:
				e.stats.Parallel++
				removed++
				e.logger.Debug("skipped parallel transformer", "transformer", t.ID)
			default:
				kept = append(kept, t)
			}

			// Heuristic with observable edge effects: the check runs after every
			// visit, not after a full sweep. If the first transformers visited make
			// no progress the network is assumed to be fed from its low-voltage side
			// (typical of transmission grids with several parallel in-feeds) and the
			// rest is flat-started, even if a later transformer in the same sweep
			// could have been resolved.
			if len(kept)+len(pending)-i-1 == total {
				e.fallback(t)
				return
			}
		}

		if removed == 0 {
			e.stats.Stalled = true
			e.logger.Warn("transformer propagation stalled", "pending", len(kept))
			return
		}
		pending = kept
	}
}

// resolve assigns the low-side region of t from its resolved high side.
func (e *estimator) resolve(t network.Transformer) {
	region, err := e.graph.ConnectedComponent(t.LVBus)
	if err != nil {
		e.issues = append(e.issues, Issue{Kind: IssueTransformer, Element: t.ID, Bus: t.LVBus, Err: err})
		return
	}

	hv, _ := e.table.Get(t.HVBus)
	v := Voltage{
		VmPU:     hv.VmPU * e.ratio(t),
		VaDegree: hv.VaDegree - t.Shift(),
	}
	e.assign(region, v)
	e.stats.Resolved++

	e.logger.Debug("resolved transformer", "transformer", t.ID, "lv_bus", t.LVBus,
		"buses", len(region), "vm_pu", v.VmPU, "va_degree", v.VaDegree)
}

// ratio is the transformer's rated voltage ratio relative to the nominal
// voltage ratio of the buses it connects. It is 1 when the ratings match the
// bus levels exactly.
func (e *estimator) ratio(t network.Transformer) float64 {
	return (t.VnHVKV / t.VnLVKV) / (e.vn[t.HVBus] / e.vn[t.LVBus])
}

// fallback flat-starts every null bus after propagation failed to start.
func (e *estimator) fallback(at network.Transformer) {
	n := FlatStart(e.table)
	e.stats.FlatStart = true
	e.stats.Filled += n
	e.logger.Warn("no transformer resolvable from reference sources, using flat start",
		"transformer", at.ID, "buses", n)
}
