// Package store persists estimation runs.
//
// A [Run] captures one estimate: the network it was computed for, the options
// used, the resulting table rows, statistics and warnings. Two backends
// implement [Store]:
//   - file: JSON files under ~/.config/voltseed/runs, for the CLI
//   - mongo: a MongoDB collection, for the API server
//
// # Usage
//
//	runs, err := store.NewFileStore("")
//	run := store.NewRun("feeder", hash, false, res, warnings)
//	if err := runs.Put(ctx, run); err != nil {
//	    return err
//	}
//	run, err = runs.Get(ctx, run.ID)
//	if errors.Is(err, store.ErrNotFound) {
//	    // unknown run
//	}
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/matzehuels/voltseed/pkg/estimate"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("run not found")

// Run is one stored estimation.
type Run struct {
	ID             string         `json:"id" bson:"_id"`
	Network        string         `json:"network" bson:"network"`
	NetworkHash    string         `json:"network_hash" bson:"network_hash"`
	FillUnresolved bool           `json:"fill_unresolved" bson:"fill_unresolved"`
	CreatedAt      time.Time      `json:"created_at" bson:"created_at"`
	Buses          []estimate.Row `json:"buses" bson:"buses"`
	Stats          estimate.Stats `json:"stats" bson:"stats"`
	Warnings       []string       `json:"warnings,omitempty" bson:"warnings,omitempty"`
}

// NewRun creates a run with a fresh UUID from an estimation result.
func NewRun(network, networkHash string, fill bool, res *estimate.Result, warnings []string) *Run {
	return &Run{
		ID:             uuid.NewString(),
		Network:        network,
		NetworkHash:    networkHash,
		FillUnresolved: fill,
		CreatedAt:      time.Now().UTC(),
		Buses:          res.Table.Rows(),
		Stats:          res.Stats,
		Warnings:       warnings,
	}
}

// Table rebuilds the estimate table of the run.
func (r *Run) Table() *estimate.Table {
	return estimate.FromRows(r.Buses)
}

// Store is the interface for run storage backends.
type Store interface {
	// Get retrieves a run by ID. Returns ErrNotFound if it does not exist.
	Get(ctx context.Context, id string) (*Run, error)

	// Put stores a run, replacing any run with the same ID.
	Put(ctx context.Context, run *Run) error

	// List returns up to limit runs, newest first. A limit of zero or less
	// returns all runs.
	List(ctx context.Context, limit int) ([]*Run, error)

	// Delete removes a run. Deleting a missing run is not an error.
	Delete(ctx context.Context, id string) error

	// Close releases backend resources.
	Close() error
}
