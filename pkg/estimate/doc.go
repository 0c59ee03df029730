// Package estimate computes initial bus voltage guesses for iterative
// power-flow and state-estimation solvers.
//
// # Algorithm
//
// [Estimate] runs three stages over a single topology graph built without
// transformer branches, so that each connected component is a region of
// uniform voltage:
//
//  1. Seeding: every in-service ext grid assigns its magnitude and angle to
//     its region.
//  2. Propagation: in-service transformers whose high side is resolved assign
//     their low-side region vm = vm_hv * ratio, va = va_hv - shift, where
//     ratio = (vn_hv_kv / vn_lv_kv) / (bus_vn_hv / bus_vn_lv). Transformers are
//     revisited in sweeps until none is pending.
//  3. Fallback: if the first transformers visited make no progress at all,
//     every null bus gets the flat start (1.0 pu, 0 degrees).
//
// # Results
//
// The [Table] holds one row per bus of the network. Buses unreachable from any
// source stay null unless [Options].FillUnresolved is set:
//
//	res, err := estimate.Estimate(net, estimate.Options{})
//	var ce *estimate.ConsistencyError
//	if errors.As(err, &ce) {
//	    // res is usable, but regions behind ce.Issues are unreliable
//	} else if err != nil {
//	    return err
//	}
//	v, ok := res.Table.Get(busID)
//
// # Concurrency
//
// Estimate holds no state between calls and may run concurrently on
// different networks.
package estimate
