// Package pipeline provides the estimation pipeline shared by the CLI and the
// HTTP API.
//
// This package ties the core estimator to the surrounding infrastructure:
// content-addressed caching of results and diagrams, optional persistence of
// runs, observability hooks and warning collection. By centralizing this
// logic, the CLI and the API server behave identically.
//
// # Architecture
//
// A run goes through these stages:
//
//  1. Hash: the network is serialized to canonical JSON and hashed
//  2. Estimate: the result is read from the cache or computed with
//     [estimate.Estimate] and cached
//  3. Save: when requested, the run is persisted to a [store.Store]
//
// Rendering is a separate step on an existing network and table.
//
// # Usage
//
//	runner := pipeline.NewRunner(cache, nil, runs, logger)
//	res, err := runner.Execute(ctx, net, pipeline.Options{FillUnresolved: true})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	for _, w := range res.Warnings {
//	    fmt.Println("warning:", w)
//	}
//
// Inconsistent networks are not errors at this level: the issues of an
// [estimate.ConsistencyError] become warnings of the result.
package pipeline

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/voltseed/pkg/cache"
	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	"github.com/matzehuels/voltseed/pkg/estimate"
	"github.com/matzehuels/voltseed/pkg/network"
	"github.com/matzehuels/voltseed/pkg/render"
)

// DefaultFormat is the default diagram format.
const DefaultFormat = render.FormatSVG

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for a pipeline run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Estimate options
	FillUnresolved bool `json:"fill_unresolved,omitempty"`
	Refresh        bool `json:"refresh,omitempty"` // bypass cached results
	Save           bool `json:"save,omitempty"`    // persist the run to the store

	// Render options
	Format   string `json:"format,omitempty"`
	Voltages bool   `json:"voltages,omitempty"` // annotate buses with the estimate

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// Network is the estimated network.
	Network *network.Network

	// NetworkHash is the content hash of the network's canonical JSON.
	NetworkHash string

	// Table holds the per-bus voltage guesses.
	Table *estimate.Table

	// Stats describes how the estimate was reached.
	Stats estimate.Stats

	// Warnings lists consistency issues and fallbacks, in the order found.
	Warnings []string

	// RunID is set when the run was saved.
	RunID string

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	EstimateHit bool // Whether the table came from cache
	RenderHit   bool // Whether the diagram came from cache
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateFormat checks that a diagram format is valid.
func ValidateFormat(format string) error {
	_, err := render.ParseFormat(format)
	return err
}

// ValidateNetwork checks net for structural errors.
func ValidateNetwork(net *network.Network) error {
	if net == nil {
		return voltErrors.New(voltErrors.ErrCodeInvalidInput, "network is required")
	}
	if err := net.Validate(); err != nil {
		return voltErrors.Wrap(voltErrors.ErrCodeInvalidNetwork, err, "invalid network %q", net.Name)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks fields and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForRender(); err != nil {
		return err
	}
	o.validated = true
	return nil
}

// SetDefaults sets default values for estimation.
func (o *Options) SetDefaults() {
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
}

// ValidateForRender validates and sets defaults for rendering.
func (o *Options) ValidateForRender() error {
	o.SetDefaults()
	if o.Format == "" {
		o.Format = string(DefaultFormat)
	}
	return ValidateFormat(o.Format)
}

// ResultKeyOpts returns cache key options for estimation.
func (o *Options) ResultKeyOpts() cache.ResultKeyOpts {
	return cache.ResultKeyOpts{FillUnresolved: o.FillUnresolved}
}

// RenderKeyOpts returns cache key options for rendering.
func (o *Options) RenderKeyOpts() cache.RenderKeyOpts {
	return cache.RenderKeyOpts{Format: o.Format, Voltages: o.Voltages}
}

// Warnings turns the outcome of an estimate into human-readable warnings.
// Consistency issues come first, followed by fallback notices.
func Warnings(stats estimate.Stats, err error) []string {
	var warnings []string
	var ce *estimate.ConsistencyError
	if errors.As(err, &ce) {
		for _, issue := range ce.Issues {
			warnings = append(warnings, issue.String())
		}
	}
	if stats.FlatStart {
		warnings = append(warnings, fmt.Sprintf("no transformer could be resolved from the reference sources; %d buses use the flat start", stats.Filled))
	}
	if stats.Stalled {
		warnings = append(warnings, "transformer propagation stalled before every transformer was resolved")
	}
	if stats.Unresolved > 0 {
		warnings = append(warnings, fmt.Sprintf("%d buses have no estimate", stats.Unresolved))
	}
	return warnings
}
