// Package network holds the electrical network model consumed by the voltage
// estimator: buses with their nominal voltage levels, reference sources
// (ext grids), two-winding transformers, lines and switches.
//
// # Tables
//
// Each element kind lives in its own slice on [Network]. Slice order is
// meaningful: the estimator seeds sources and scans transformers in table
// order, so two networks with the same elements in a different order may
// produce different results on degenerate topologies.
//
// # Service state
//
// Every element carries an InService flag. Out-of-service buses are absent
// from the topology graph; out-of-service sources and transformers are
// ignored by the estimator.
//
// # Validation
//
// [Network.Validate] checks referential integrity only (duplicate IDs,
// dangling bus references, unknown switch targets). Electrical values are
// taken as-is.
package network
