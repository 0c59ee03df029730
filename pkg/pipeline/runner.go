package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/voltseed/pkg/cache"
	voltErrors "github.com/matzehuels/voltseed/pkg/errors"
	"github.com/matzehuels/voltseed/pkg/estimate"
	pkgio "github.com/matzehuels/voltseed/pkg/io"
	"github.com/matzehuels/voltseed/pkg/network"
	"github.com/matzehuels/voltseed/pkg/observability"
	"github.com/matzehuels/voltseed/pkg/render"
	"github.com/matzehuels/voltseed/pkg/store"
)

const (
	keyTypeResult = "result"
	keyTypeRender = "render"
)

// Runner encapsulates pipeline execution with caching and persistence.
// Both CLI and API use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its backends and logger. Multiple
// goroutines can safely use the same Runner with different options.
type Runner struct {
	Cache  cache.Cache
	Keyer  cache.Keyer
	Store  store.Store // nil disables saving
	Logger *log.Logger
}

// NewRunner creates a runner with the given cache, keyer and run store.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If runs is nil, Options.Save is rejected.
func NewRunner(c cache.Cache, keyer cache.Keyer, runs store.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:  c,
		Keyer:  keyer,
		Store:  runs,
		Logger: logger,
	}
}

// cachedResult is the cache payload of an estimate.
type cachedResult struct {
	Buses    []estimate.Row `json:"buses"`
	Stats    estimate.Stats `json:"stats"`
	Warnings []string       `json:"warnings,omitempty"`
}

// Execute estimates net with caching and, when opts.Save is set, stores the
// run.
func (r *Runner) Execute(ctx context.Context, net *network.Network, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	if opts.Save && r.Store == nil {
		return nil, voltErrors.New(voltErrors.ErrCodeUnsupported, "no run store configured")
	}
	if err := ValidateNetwork(net); err != nil {
		return nil, err
	}

	hash, err := NetworkHash(net)
	if err != nil {
		return nil, err
	}

	result := &Result{Network: net, NetworkHash: hash}
	if err := r.estimate(ctx, result, opts); err != nil {
		return nil, fmt.Errorf("estimate: %w", err)
	}

	if opts.Save {
		if err := pkgio.CheckFinite(result.Table); err != nil {
			return nil, err
		}
		run := store.NewRun(net.Name, hash, opts.FillUnresolved,
			&estimate.Result{Table: result.Table, Stats: result.Stats}, result.Warnings)
		err := r.retry(ctx, opts.Logger, "save run", func() error {
			return r.Store.Put(ctx, run)
		})
		if err != nil {
			return nil, fmt.Errorf("save run: %w", err)
		}
		result.RunID = run.ID
		opts.Logger.Info("saved run", "id", run.ID)
	}

	return result, nil
}

// estimate fills result.Table, Stats and Warnings from the cache or a fresh
// computation.
func (r *Runner) estimate(ctx context.Context, result *Result, opts Options) error {
	key := r.Keyer.ResultKey(result.NetworkHash, opts.ResultKeyOpts())
	hooks := observability.Cache()
	if reason := cache.DisabledReason(r.Cache); reason != "" {
		opts.Logger.Debug("result cache off", "reason", reason)
	}

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			var cached cachedResult
			if err := json.Unmarshal(data, &cached); err == nil {
				hooks.OnCacheHit(ctx, keyTypeResult)
				result.Table = estimate.FromRows(cached.Buses)
				result.Stats = cached.Stats
				result.Warnings = cached.Warnings
				result.CacheInfo.EstimateHit = true
				opts.Logger.Debug("estimate from cache", "network", result.Network.Name)
				return nil
			}
			// If deserialization fails, fall through to recompute
		} else if err != nil {
			opts.Logger.Warn("cache read failed", "error", err)
		}
		hooks.OnCacheMiss(ctx, keyTypeResult)
	}

	net := result.Network
	pipelineHooks := observability.Pipeline()
	pipelineHooks.OnEstimateStart(ctx, net.Name, len(net.Buses))

	res, err := estimate.Estimate(net, estimate.Options{
		Logger:         opts.Logger,
		FillUnresolved: opts.FillUnresolved,
	})

	var inconsistent *estimate.ConsistencyError
	ev := observability.EstimateEvent{Network: net.Name, Buses: len(net.Buses), Err: err, Inconsistent: errors.As(err, &inconsistent)}
	if res != nil {
		ev.Transformers = res.Stats.Transformers
		ev.Sweeps = res.Stats.Sweeps
		ev.Unresolved = res.Stats.Unresolved
		ev.FlatStart = res.Stats.FlatStart
		ev.Stalled = res.Stats.Stalled
		ev.Duration = res.Stats.Duration
	}
	pipelineHooks.OnEstimateComplete(ctx, ev)

	if err != nil && !ev.Inconsistent {
		return err
	}

	result.Table = res.Table
	result.Stats = res.Stats
	result.Warnings = Warnings(res.Stats, err)

	opts.Logger.Info("estimated bus voltages",
		"network", net.Name,
		"buses", res.Table.Len(),
		"transformers", res.Stats.Transformers,
		"sweeps", res.Stats.Sweeps,
		"duration", res.Stats.Duration)

	data, err := json.Marshal(cachedResult{Buses: res.Table.Rows(), Stats: res.Stats, Warnings: result.Warnings})
	if err != nil {
		// Non-finite voltages cannot be encoded; the result is returned uncached.
		opts.Logger.Debug("result not cached", "error", err)
		return nil
	}
	if err := r.Cache.Set(ctx, key, data, cache.TTLResult); err != nil {
		opts.Logger.Warn("cache write failed", "error", err)
		return nil
	}
	hooks.OnCacheSet(ctx, keyTypeResult, len(data))
	return nil
}

// Load reads a saved run and rebuilds its result. The network itself is not
// stored, so Result.Network is nil.
func (r *Runner) Load(ctx context.Context, id string) (*Result, error) {
	if r.Store == nil {
		return nil, voltErrors.New(voltErrors.ErrCodeUnsupported, "no run store configured")
	}
	if err := voltErrors.ValidateRunID(id); err != nil {
		return nil, err
	}
	var run *store.Run
	err := r.retry(ctx, r.Logger, "load run", func() error {
		var err error
		run, err = r.Store.Get(ctx, id)
		return err
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, voltErrors.Wrap(voltErrors.ErrCodeNotFound, err, "run %s", id)
	}
	if err != nil {
		return nil, fmt.Errorf("load run %s: %w", id, err)
	}
	return &Result{
		NetworkHash: run.NetworkHash,
		Table:       run.Table(),
		Stats:       run.Stats,
		Warnings:    run.Warnings,
		RunID:       run.ID,
	}, nil
}

// RenderWithCacheInfo draws the network of result in opts.Format, annotated
// with its table when opts.Voltages is set, and reports whether the diagram
// came from cache.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, result *Result, opts Options) ([]byte, bool, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateForRender(); err != nil {
		return nil, false, err
	}

	if result == nil || result.Network == nil {
		return nil, false, voltErrors.New(voltErrors.ErrCodeInvalidInput, "render needs a network")
	}

	hash := result.NetworkHash
	if hash == "" {
		var err error
		if hash, err = NetworkHash(result.Network); err != nil {
			return nil, false, err
		}
	}
	renderOpts := render.Options{}
	if opts.Voltages && result.Table != nil {
		renderOpts.Table = result.Table
		rows, err := json.Marshal(result.Table)
		if err != nil {
			return nil, false, voltErrors.Wrap(voltErrors.ErrCodeInvalidNetwork, err, "encode estimate")
		}
		hash = cache.LabelledHash(hash, rows)
	}

	key := r.Keyer.RenderKey(hash, opts.RenderKeyOpts())
	hooks := observability.Cache()
	if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
		hooks.OnCacheHit(ctx, keyTypeRender)
		return data, true, nil
	}
	hooks.OnCacheMiss(ctx, keyTypeRender)

	pipelineHooks := observability.Pipeline()
	pipelineHooks.OnRenderStart(ctx, opts.Format)
	start := time.Now()

	dot := render.ToDOT(result.Network, renderOpts)
	out, err := render.Render(ctx, dot, render.Format(opts.Format))
	pipelineHooks.OnRenderComplete(ctx, opts.Format, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	opts.Logger.Debug("rendered diagram", "format", opts.Format, "bytes", len(out), "duration", time.Since(start))

	if err := r.Cache.Set(ctx, key, out, cache.TTLRender); err == nil {
		hooks.OnCacheSet(ctx, keyTypeRender, len(out))
	}
	return out, false, nil
}

// Render is a convenience wrapper that calls RenderWithCacheInfo and discards the cache hit info.
func (r *Runner) Render(ctx context.Context, result *Result, opts Options) ([]byte, error) {
	out, hit, err := r.RenderWithCacheInfo(ctx, result, opts)
	if result != nil {
		result.CacheInfo.RenderHit = hit
	}
	return out, err
}

// retry runs a store operation under [cache.RunBackoff], logging each retry.
func (r *Runner) retry(ctx context.Context, logger *log.Logger, op string, fn func() error) error {
	b := cache.RunBackoff
	b.OnRetry = func(attempt int, wait time.Duration, err error) {
		logger.Warn("retrying "+op, "attempt", attempt, "wait", wait, "error", err)
	}
	return b.Retry(ctx, fn)
}

// NetworkHash returns the content hash of net's canonical JSON encoding.
func NetworkHash(net *network.Network) (string, error) {
	var buf bytes.Buffer
	if err := pkgio.WriteJSON(net, &buf); err != nil {
		return "", voltErrors.Wrap(voltErrors.ErrCodeInternal, err, "serialize network for cache key")
	}
	return cache.Hash(buf.Bytes()), nil
}

// Close releases resources held by the runner.
func (r *Runner) Close() error {
	var errs []error
	if r.Cache != nil {
		errs = append(errs, r.Cache.Close())
	}
	if r.Store != nil {
		errs = append(errs, r.Store.Close())
	}
	return errors.Join(errs...)
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
