// Package pkg provides the core libraries for voltseed, an initial bus voltage
// estimator for power networks.
//
// # Overview
//
// Power-flow solvers converge faster and more reliably from a good starting
// point than from the flat start of 1.0 pu and 0° at every bus. Voltseed
// derives that starting point from the network itself: reference sources
// (ext grids) fix the voltage of the buses they are galvanically connected to,
// and transformers carry it across voltage levels. The pkg directory is
// organized into three main areas:
//
//  1. Domain logic ([network], [topology], [estimate])
//  2. Formats and output ([io], [render])
//  3. Infrastructure ([pipeline], [cache], [store], [observability], [errors])
//
// # Architecture
//
// The typical data flow through voltseed:
//
//	JSON / TOML / YAML network file
//	         ↓
//	    [io] package (decode + validate)
//	         ↓
//	    [topology] package (regions joined by lines and closed switches)
//	         ↓
//	    [estimate] package (seed regions, propagate across transformers)
//	         ↓
//	    voltage table (JSON) or diagram (DOT/SVG/PDF/PNG)
//
// # Quick Start
//
// Estimate the voltages of a network file:
//
//	import (
//	    "github.com/matzehuels/voltseed/pkg/estimate"
//	    "github.com/matzehuels/voltseed/pkg/io"
//	)
//
//	net, _ := io.Import("grid.json")
//	res, err := estimate.Estimate(net, estimate.Options{FillUnresolved: true})
//	var ce *estimate.ConsistencyError
//	if errors.As(err, &ce) {
//	    // res is still usable; ce.Issues lists what was skipped
//	}
//	io.ExportResultJSON(res.Table, "voltages.json")
//
// # Main Packages
//
// [network] - The network model: buses, ext grids, transformers, lines and
// switches, with structural validation.
//
// [topology] - Undirected bus graph honouring service flags and switch states,
// with connected components for region lookup.
//
// [estimate] - The estimator. Seeds every region holding a reference source,
// then sweeps the transformers until no more can be resolved, correcting the
// magnitude by the rated-to-nominal voltage ratio and the angle by the phase
// shift. Falls back to the flat start when propagation cannot begin.
//
// [io] - Network import from JSON, TOML and YAML and result export as JSON with
// explicit nulls for unresolved buses.
//
// [render] - Network diagrams through Graphviz, optionally labelled with the
// estimated voltages.
//
// [pipeline] - Estimate and render orchestration with caching, run storage and
// observability hooks. Used by both the CLI and the HTTP API.
//
// [cache] - Result and diagram caches: file-based for the CLI, Redis for the
// server, a null cache for tests.
//
// [store] - Saved runs on the filesystem or in MongoDB.
//
// [observability] - Hook interfaces for estimates, renders, cache lookups and
// HTTP requests, with a Prometheus implementation in observability/prom.
//
// # Testing
//
// Run tests:
//
//	go test ./pkg/...                    # All tests
//	go test ./pkg/estimate/...           # Specific package
//	go test -short ./...                 # Skip Graphviz rendering
//
// [network]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/network
// [topology]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/topology
// [estimate]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/estimate
// [io]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/io
// [render]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/render
// [pipeline]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/pipeline
// [cache]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/cache
// [store]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/store
// [observability]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/observability
// [errors]: https://pkg.go.dev/github.com/matzehuels/voltseed/pkg/errors
package pkg
