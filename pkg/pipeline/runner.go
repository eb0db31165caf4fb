package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/svg2png/pkg/convert"
	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/observability"
	"github.com/matzehuels/svg2png/pkg/records"
)

// Runner dispatches the records of a batch to a Converter.
//
// The Runner is stateless except for the converter and logger - it doesn't
// store batch results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Converter *convert.Converter
	Logger    *log.Logger
}

// NewRunner creates a runner around conv.
// If conv is nil, a converter with default settings and no side files is used.
func NewRunner(conv *convert.Converter, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.Default()
	}
	if conv == nil {
		conv = convert.New(nil, nil, nil, nil, logger)
	}
	return &Runner{
		Converter: conv,
		Logger:    logger,
	}
}

// outcome is the result of converting one record.
type outcome struct {
	png string
	hit bool
	err error
}

// Execute converts every record of in and returns the output set.
//
// Per-record failures are collected in Result.Failures and handled by
// opts.OnFailure. Execute only returns an error for invalid options, a
// cancelled ctx, or, with opts.FailFast, the first record failure.
func (r *Runner) Execute(ctx context.Context, in *records.Set, opts Options) (*Result, error) {
	r.applyLogger(&opts)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, fmt.Errorf("invalid options: %w", err)
	}

	runID := uuid.NewString()
	logger := opts.Logger.With("run_id", runID)
	start := time.Now()

	logger.Info("starting batch",
		"records", in.Len(),
		"strategy", opts.Strategy,
		"workers", opts.Workers,
		"on_failure", opts.OnFailure)
	observability.Batch().OnBatchStart(ctx, runID, opts.Strategy, in.Len())

	d := &dispatcher{
		conv:   r.Converter,
		opts:   opts,
		logger: logger,
		hooks:  r.itemHooks(opts),
	}

	var (
		outcomes map[string]outcome
		err      error
	)
	switch opts.Strategy {
	case StrategySequential:
		outcomes, err = d.sequential(ctx, in)
	case StrategyTask:
		outcomes, err = d.task(ctx, in)
	default:
		outcomes, err = d.pool(ctx, in)
	}

	if err != nil {
		elapsed := time.Since(start)
		observability.Batch().OnBatchComplete(ctx, runID, 0, 0, elapsed, err)
		logger.Error("batch aborted", "error", err, "duration", elapsed)
		return nil, err
	}

	result := collect(in, outcomes, opts.OnFailure)
	result.RunID = runID
	result.Stats.Duration = time.Since(start)

	observability.Batch().OnBatchComplete(ctx, runID, result.Stats.Converted, result.Stats.Failed, result.Stats.Duration, nil)
	logger.Info("batch complete",
		"converted", result.Stats.Converted,
		"failed", result.Stats.Failed,
		"cache_hits", result.Stats.CacheHits,
		"duration", result.Stats.Duration)
	return result, nil
}

// ConvertFile loads the record set at inPath, converts it and writes the
// output set to outPath. Nothing is written when Execute fails.
func (r *Runner) ConvertFile(ctx context.Context, inPath, outPath string, opts Options) (*Result, error) {
	in, err := records.Load(inPath)
	if err != nil {
		return nil, err
	}
	result, err := r.Execute(ctx, in, opts)
	if err != nil {
		return nil, err
	}
	if err := records.Save(outPath, result.Records); err != nil {
		return result, err
	}
	return result, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Converter != nil {
		return r.Converter.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}

func (r *Runner) itemHooks(opts Options) observability.ItemHooks {
	global := observability.Items()
	if opts.Hooks == nil {
		return global
	}
	return observability.MultiItemHooks{global, opts.Hooks}
}

// collect builds the output set from the per-record outcomes.
func collect(in *records.Set, outcomes map[string]outcome, policy string) *Result {
	out := in.Clone()
	result := &Result{Records: out}

	for _, key := range in.Keys() {
		o := outcomes[key]
		if o.err == nil {
			out.Put(key, o.png)
			result.Converted = append(result.Converted, key)
			if o.hit {
				result.Stats.CacheHits++
			}
			continue
		}

		code := errors.CodeOf(o.err)
		result.Failures = append(result.Failures, Failure{
			Key:     key,
			Code:    code,
			Message: errors.UserMessage(o.err),
		})
		switch policy {
		case FailureOmit:
			out.Delete(key)
		case FailureSentinel:
			out.Put(key, Sentinel(code))
		}
	}

	result.Stats.Total = in.Len()
	result.Stats.Converted = len(result.Converted)
	result.Stats.Failed = len(result.Failures)
	return result
}

// =============================================================================
// Strategies
// =============================================================================

// dispatcher runs conversions for one batch.
type dispatcher struct {
	conv   *convert.Converter
	opts   Options
	logger *log.Logger
	hooks  observability.ItemHooks
}

// one converts a single record. In-flight records are detached from ctx
// cancellation so they always finish; ItemTimeout still bounds them.
func (d *dispatcher) one(ctx context.Context, key, payload string) outcome {
	itemCtx := context.WithoutCancel(ctx)
	if d.opts.ItemTimeout > 0 {
		var cancel context.CancelFunc
		itemCtx, cancel = context.WithTimeout(itemCtx, d.opts.ItemTimeout)
		defer cancel()
	}

	d.hooks.OnItemStart(ctx, key)
	start := time.Now()
	png, hit, err := d.conv.ConvertWithCacheInfo(itemCtx, key, payload)
	d.hooks.OnItemComplete(ctx, key, time.Since(start), err)

	if err != nil {
		d.logger.Warn("conversion failed", "key", key, "code", errors.CodeOf(err), "error", errors.UserMessage(err))
	}
	return outcome{png: png, hit: hit, err: err}
}

// failFast returns the error that aborts the batch for o, if any.
func (d *dispatcher) failFast(key string, o outcome) error {
	if !d.opts.FailFast || o.err == nil {
		return nil
	}
	return fmt.Errorf("record %q: %w", key, o.err)
}

func cancelled(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return errors.Wrap(errors.ErrCodeTimeout, err, "batch cancelled")
	}
	return nil
}

func (d *dispatcher) sequential(ctx context.Context, in *records.Set) (map[string]outcome, error) {
	out := make(map[string]outcome, in.Len())
	for _, rec := range in.Records() {
		if err := cancelled(ctx); err != nil {
			return nil, err
		}
		o := d.one(ctx, rec.Key, rec.Payload)
		out[rec.Key] = o
		if err := d.failFast(rec.Key, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// task starts one goroutine per record and waits for it before starting the
// next, so at most one conversion is in flight.
func (d *dispatcher) task(ctx context.Context, in *records.Set) (map[string]outcome, error) {
	out := make(map[string]outcome, in.Len())
	for _, rec := range in.Records() {
		if err := cancelled(ctx); err != nil {
			return nil, err
		}
		done := make(chan outcome, 1)
		go func() {
			done <- d.one(ctx, rec.Key, rec.Payload)
		}()
		o := <-done
		out[rec.Key] = o
		if err := d.failFast(rec.Key, o); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// pool converts records on opts.Workers goroutines. Outcomes are collected
// in a mutex-guarded map and merged by the caller after every worker is done.
func (d *dispatcher) pool(ctx context.Context, in *records.Set) (map[string]outcome, error) {
	var (
		mu  sync.Mutex
		out = make(map[string]outcome, in.Len())
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.opts.Workers)

	for _, rec := range in.Records() {
		if gctx.Err() != nil {
			break
		}
		g.Go(func() error {
			// Go may have waited for a slot freed by a failing record.
			if gctx.Err() != nil {
				return nil
			}
			o := d.one(ctx, rec.Key, rec.Payload)
			mu.Lock()
			out[rec.Key] = o
			mu.Unlock()
			return d.failFast(rec.Key, o)
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := cancelled(ctx); err != nil {
		return nil, err
	}
	return out, nil
}
