// Package topology builds undirected bus connectivity graphs from a
// [network.Network] and answers connected-component queries on them.
//
// The voltage estimator builds one graph per call with transformers excluded,
// so that every component is a region of uniform voltage:
//
//	g := topology.Build(net, topology.Options{})
//	region, err := g.ConnectedComponent(busID)
//	if errors.Is(err, topology.ErrBusNotInGraph) {
//	    // bus is out of service
//	}
//
// Components are computed on first query and memoized for the lifetime of
// the graph.
//
// Switch states are honoured by default. Options.AllSwitchesClosed follows
// pandapower's respect_switches=False instead. [Summarize] compares both views
// for the inspect header, so that regions split only by open switches stand
// out.
//
// [network.Network]: github.com/matzehuels/voltseed/pkg/network.Network
package topology
