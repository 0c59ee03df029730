package estimate

import (
	"io"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/voltseed/pkg/network"
	"github.com/matzehuels/voltseed/pkg/topology"
)

// Topology answers connected-component queries over a network's buses.
// *topology.Graph implements it.
type Topology interface {
	ConnectedComponent(bus int) ([]int, error)
}

// Builder creates the topology of net, with or without transformer branches.
type Builder func(net *network.Network, includeTransformers bool) Topology

// DefaultBuilder builds a [topology.Graph] honouring switch states.
func DefaultBuilder(net *network.Network, includeTransformers bool) Topology {
	return topology.Build(net, topology.Options{IncludeTransformers: includeTransformers})
}

// Options configures an [Estimate] call. The zero value is ready to use.
type Options struct {
	// Logger receives debug traces and warnings. Defaults to a discard logger.
	Logger *log.Logger

	// Builder creates the topology graph. Defaults to DefaultBuilder.
	Builder Builder

	// FillUnresolved flat-starts buses still null after propagation finishes
	// or stalls. Without it, buses unreachable from any source stay null.
	FillUnresolved bool
}

func (o *Options) setDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	if o.Builder == nil {
		o.Builder = DefaultBuilder
	}
}

// Stats summarises one estimation.
type Stats struct {
	Sources      int           `json:"sources"`      // in-service ext grids seeded
	SeededBuses  int           `json:"seeded_buses"` // buses assigned by seeding
	Transformers int           `json:"transformers"` // in-service transformers considered
	Resolved     int           `json:"resolved"`     // transformers that assigned a low-side region
	Parallel     int           `json:"parallel"`     // transformers skipped because their low side was already set
	Sweeps       int           `json:"sweeps"`       // passes over the pending transformers
	FlatStart    bool          `json:"flat_start"`   // the no-progress fallback fired
	Stalled      bool          `json:"stalled"`      // a full sweep made no progress after earlier progress
	Filled       int           `json:"filled"`       // buses set to the flat-start guess
	Unresolved   int           `json:"unresolved"`   // buses still null at the end
	Duration     time.Duration `json:"duration"`
}

// Result is the outcome of [Estimate].
type Result struct {
	Table *Table
	Stats Stats
}

// Estimate computes an initial voltage guess for every bus of net.
//
// Reference sources seed their regions (buses connected without crossing a
// transformer), then transformers carry known voltages from their high-side
// region to their low-side region, correcting magnitude by the rated-to-nominal
// voltage ratio and angle by the phase shift. When propagation cannot start
// at all, remaining buses get the flat start of 1.0 pu and 0 degrees.
//
// Inconsistent elements do not abort the computation: Estimate returns the
// best-effort result together with a *ConsistencyError. Any other error comes
// with a nil result.
func Estimate(net *network.Network, opts Options) (*Result, error) {
	if net == nil {
		return nil, ErrNilNetwork
	}
	opts.setDefaults()
	start := time.Now()

	e := &estimator{
		net:    net,
		graph:  opts.Builder(net, false),
		table:  NewTable(net.BusIDs()),
		vn:     make(map[int]float64, len(net.Buses)),
		logger: opts.Logger,
	}
	for _, b := range net.Buses {
		if _, dup := e.vn[b.ID]; !dup {
			e.vn[b.ID] = b.VnKV
		}
	}

	e.seed()
	e.propagate()

	if opts.FillUnresolved && !e.stats.FlatStart {
		if n := FlatStart(e.table); n > 0 {
			e.stats.Filled += n
			e.logger.Info("filled unresolved buses with flat start", "buses", n)
		}
	}

	e.stats.Unresolved = len(e.table.Unresolved())
	e.stats.Duration = time.Since(start)

	e.logger.Debug("estimated bus voltages",
		"network", net.Name,
		"buses", e.table.Len(),
		"sweeps", e.stats.Sweeps,
		"unresolved", e.stats.Unresolved,
		"duration", e.stats.Duration)

	res := &Result{Table: e.table, Stats: e.stats}
	if len(e.issues) > 0 {
		err := &ConsistencyError{Issues: e.issues}
		e.logger.Warn(err.Error())
		return res, err
	}
	return res, nil
}

// estimator carries the state of one Estimate call.
type estimator struct {
	net    *network.Network
	graph  Topology
	table  *Table
	vn     map[int]float64 // bus ID -> nominal kV
	logger *log.Logger
	stats  Stats
	issues []Issue
}

// assign sets v on every bus of region.
func (e *estimator) assign(region []int, v Voltage) {
	for _, bus := range region {
		e.table.set(bus, v)
	}
}
