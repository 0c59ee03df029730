package topology

import (
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/matzehuels/voltseed/pkg/network"
)

// ErrBusNotInGraph is returned by [Graph.ConnectedComponent] when the bus is
// not a node of the graph, either because it is out of service or because it
// does not exist.
var ErrBusNotInGraph = errors.New("bus not in topology graph")

// Options controls which branches become graph edges.
type Options struct {
	// IncludeTransformers adds in-service transformers as edges. The estimator
	// builds its graph without them so that each component is one region.
	IncludeTransformers bool

	// AllSwitchesClosed disregards switch states and treats every switch as
	// closed, matching pandapower's respect_switches=False: bus-bus switches
	// join their buses and no line or transformer is cut.
	AllSwitchesClosed bool
}

// Graph is an undirected bus connectivity graph.
//
// A Graph is immutable after [Build]. Component queries are memoized and safe
// for concurrent use.
type Graph struct {
	order []int         // in-service bus IDs in table order
	adj   map[int][]int // bus ID -> neighbour bus IDs
	edges int

	mu    sync.Mutex
	comp  map[int]int // bus ID -> component index, filled lazily
	comps [][]int     // component index -> sorted bus IDs
}

// Build creates the connectivity graph of net.
//
// Nodes are the in-service buses. Edges are in-service lines whose ends are
// both in service, closed bus-bus switches and, with IncludeTransformers,
// in-service transformers. An open line or transformer switch removes that
// branch. Parallel branches collapse into a single edge.
func Build(net *network.Network, opts Options) *Graph {
	g := &Graph{
		adj:  make(map[int][]int),
		comp: make(map[int]int),
	}
	for _, b := range net.Buses {
		if !b.InService {
			continue
		}
		if _, dup := g.adj[b.ID]; dup {
			continue
		}
		g.adj[b.ID] = nil
		g.order = append(g.order, b.ID)
	}

	openLines := map[int]bool{}
	openTrafos := map[int]bool{}
	for _, s := range net.Switches {
		closed := s.Closed || opts.AllSwitchesClosed
		switch s.Type {
		case network.SwitchLine:
			if !closed {
				openLines[s.Element] = true
			}
		case network.SwitchTransformer:
			if !closed {
				openTrafos[s.Element] = true
			}
		case network.SwitchBus:
			if closed {
				g.addEdge(s.Bus, s.Element)
			}
		}
	}

	for _, l := range net.Lines {
		if l.InService && !openLines[l.ID] {
			g.addEdge(l.FromBus, l.ToBus)
		}
	}

	if opts.IncludeTransformers {
		for _, t := range net.Transformers {
			if t.InService && !openTrafos[t.ID] {
				g.addEdge(t.HVBus, t.LVBus)
			}
		}
	}

	return g
}

// addEdge links a and b if both are nodes. Self loops and duplicates are dropped.
func (g *Graph) addEdge(a, b int) {
	if a == b {
		return
	}
	na, okA := g.adj[a]
	_, okB := g.adj[b]
	if !okA || !okB {
		return
	}
	if slices.Contains(na, b) {
		return
	}
	g.adj[a] = append(na, b)
	g.adj[b] = append(g.adj[b], a)
	g.edges++
}

// HasBus reports whether bus is a node of the graph.
func (g *Graph) HasBus(bus int) bool {
	_, ok := g.adj[bus]
	return ok
}

// Neighbors returns the buses adjacent to bus in ascending order.
func (g *Graph) Neighbors(bus int) []int {
	nb := slices.Clone(g.adj[bus])
	slices.Sort(nb)
	return nb
}

// NodeCount returns the number of buses in the graph.
func (g *Graph) NodeCount() int { return len(g.order) }

// EdgeCount returns the number of distinct undirected edges.
func (g *Graph) EdgeCount() int { return g.edges }

// ConnectedComponent returns the IDs of all buses reachable from bus, including
// bus itself, in ascending order. It returns ErrBusNotInGraph if bus is not a
// node. The returned slice is a copy.
func (g *Graph) ConnectedComponent(bus int) ([]int, error) {
	if !g.HasBus(bus) {
		return nil, ErrBusNotInGraph
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	return slices.Clone(g.comps[g.componentLocked(bus)]), nil
}

// Components returns every connected component, ordered by the table position
// of its first bus. Each component is sorted ascending.
func (g *Graph) Components() [][]int {
	g.mu.Lock()
	defer g.mu.Unlock()

	var out [][]int
	seen := make(map[int]bool)
	for _, id := range g.order {
		idx := g.componentLocked(id)
		if seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, slices.Clone(g.comps[idx]))
	}
	return out
}

// componentLocked returns the component index of bus, running a BFS the first
// time bus is seen. g.mu must be held.
func (g *Graph) componentLocked(bus int) int {
	if idx, ok := g.comp[bus]; ok {
		return idx
	}

	idx := len(g.comps)
	members := []int{bus}
	g.comp[bus] = idx
	for queue := []int{bus}; len(queue) > 0; {
		cur := queue[0]
		queue = queue[1:]
		for _, nb := range g.adj[cur] {
			if _, visited := g.comp[nb]; visited {
				continue
			}
			g.comp[nb] = idx
			members = append(members, nb)
			queue = append(queue, nb)
		}
	}
	slices.Sort(members)
	g.comps = append(g.comps, members)
	return idx
}

// Summary counts the graph of a network for display.
type Summary struct {
	Buses    int `json:"buses"`    // in-service buses
	Branches int `json:"branches"` // distinct lines, closed bus switches and transformers
	Regions  int `json:"regions"`  // components joined without transformers

	// RegionsAllClosed is the region count with every switch closed. It
	// exceeds Regions by the number of splits that open switches cause.
	RegionsAllClosed int `json:"regions_all_closed"`
}

// Summarize counts the buses, branches and regions of net.
func Summarize(net *network.Network) Summary {
	full := Build(net, Options{IncludeTransformers: true})
	return Summary{
		Buses:            full.NodeCount(),
		Branches:         full.EdgeCount(),
		Regions:          len(Build(net, Options{}).Components()),
		RegionsAllClosed: len(Build(net, Options{AllSwitchesClosed: true}).Components()),
	}
}

// String returns e.g. "5 buses · 4 branches · 2 regions".
func (s Summary) String() string {
	out := plural(s.Buses, "bus", "buses") + " · " +
		plural(s.Branches, "branch", "branches") + " · " +
		plural(s.Regions, "region", "regions")
	if s.Regions != s.RegionsAllClosed {
		out += fmt.Sprintf(" (%d with all switches closed)", s.RegionsAllClosed)
	}
	return out
}

func plural(n int, one, many string) string {
	if n == 1 {
		return "1 " + one
	}
	return fmt.Sprintf("%d %s", n, many)
}
