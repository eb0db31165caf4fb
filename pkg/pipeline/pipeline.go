// Package pipeline provides the batch conversion pipeline for svg2png.
//
// This package implements the load → convert → collect → save flow used by
// both the CLI and the HTTP server. By centralizing it here, every entry
// point dispatches records, applies the failure policy and reports
// statistics the same way.
//
// # Strategies
//
// Three dispatch strategies differ only in concurrency:
//
//   - sequential: one record at a time on the calling goroutine
//   - task: each record runs on its own goroutine, awaited before the next
//     one starts
//   - pool: a fixed number of workers convert records concurrently
//
// All three produce the same output for the same input.
//
// # Failure Policies
//
// A record that fails to convert is never fatal unless FailFast is set. What
// the output holds for it depends on OnFailure:
//
//   - keep: the input SVG payload is left in place (legacy behavior)
//   - omit: the key is removed from the output
//   - sentinel: the value becomes "error:<CODE>"
//
// # Usage
//
//	conv := convert.New(renderer, cache, nil, store, logger)
//	runner := pipeline.NewRunner(conv, logger)
//	result, err := runner.ConvertFile(ctx, "Json.txt", "Result.json", pipeline.Options{
//	    Strategy: pipeline.StrategyPool,
//	    Workers:  4,
//	})
package pipeline

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/observability"
	"github.com/matzehuels/svg2png/pkg/records"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI and Server
// =============================================================================

// Strategy names.
const (
	StrategySequential = "sequential"
	StrategyTask       = "task"
	StrategyPool       = "pool"
)

// Failure policy names.
const (
	FailureKeep     = "keep"
	FailureOmit     = "omit"
	FailureSentinel = "sentinel"
)

const (
	// DefaultStrategy is the dispatch strategy used when none is given.
	DefaultStrategy = StrategyPool

	// DefaultWorkers is the pool size used when none is given.
	DefaultWorkers = 2

	// DefaultOnFailure is the failure policy used when none is given.
	DefaultOnFailure = FailureOmit

	// SentinelPrefix starts every sentinel value. ':' is not in the base64
	// alphabet, so a sentinel can never be mistaken for a PNG payload.
	SentinelPrefix = "error:"
)

// ValidStrategies is the set of supported dispatch strategies.
var ValidStrategies = map[string]bool{
	StrategySequential: true,
	StrategyTask:       true,
	StrategyPool:       true,
}

// ValidFailurePolicies is the set of supported failure policies.
var ValidFailurePolicies = map[string]bool{
	FailureKeep:     true,
	FailureOmit:     true,
	FailureSentinel: true,
}

// =============================================================================
// Options - Batch Configuration
// =============================================================================

// Options configures one batch run.
// This struct supports JSON serialization for API requests.
type Options struct {
	Strategy    string        `json:"strategy,omitempty"`
	Workers     int           `json:"workers,omitempty"`
	OnFailure   string        `json:"on_failure,omitempty"`
	FailFast    bool          `json:"fail_fast,omitempty"`
	ItemTimeout time.Duration `json:"item_timeout,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`
	// Hooks receives item events for this run in addition to the globally
	// registered observability hooks.
	Hooks observability.ItemHooks `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Result contains the outputs of a batch run.
type Result struct {
	// RunID identifies the run in logs and API responses.
	RunID string

	// Records is the output set, in input order, after the failure policy
	// has been applied.
	Records *records.Set

	// Converted lists the keys that converted successfully, in input order.
	Converted []string

	// Failures lists failed records in input order.
	Failures []Failure

	// Stats contains counts and timing.
	Stats Stats
}

// Failure describes one record that could not be converted.
type Failure struct {
	Key     string      `json:"key"`
	Code    errors.Code `json:"code"`
	Message string      `json:"message"`
}

// Stats contains batch execution statistics.
type Stats struct {
	Total     int           `json:"total"`
	Converted int           `json:"converted"`
	Failed    int           `json:"failed"`
	CacheHits int           `json:"cache_hits"`
	Duration  time.Duration `json:"duration_ns"`
}

// =============================================================================
// Validation Functions
// =============================================================================

// ValidateStrategy checks that a strategy is valid.
func ValidateStrategy(s string) error {
	if !ValidStrategies[s] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid strategy: %q (must be one of: sequential, task, pool)", s)
	}
	return nil
}

// ValidateFailurePolicy checks that a failure policy is valid.
func ValidateFailurePolicy(p string) error {
	if !ValidFailurePolicies[p] {
		return errors.New(errors.ErrCodeInvalidConfig, "invalid on_failure: %q (must be one of: keep, omit, sentinel)", p)
	}
	return nil
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks the options and applies defaults.
// This method is idempotent - calling it multiple times has the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Strategy == "" {
		o.Strategy = DefaultStrategy
	}
	if o.OnFailure == "" {
		o.OnFailure = DefaultOnFailure
	}
	if o.Workers == 0 {
		o.Workers = DefaultWorkers
	}
	if err := ValidateStrategy(o.Strategy); err != nil {
		return err
	}
	if err := ValidateFailurePolicy(o.OnFailure); err != nil {
		return err
	}
	if o.Workers < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "workers must be positive, got %d", o.Workers)
	}
	if o.ItemTimeout < 0 {
		return errors.New(errors.ErrCodeInvalidConfig, "item_timeout must not be negative, got %s", o.ItemTimeout)
	}
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}
	o.validated = true
	return nil
}

// =============================================================================
// Sentinel Values
// =============================================================================

// Sentinel returns the output value the sentinel policy stores for a failed
// record.
func Sentinel(code errors.Code) string {
	return SentinelPrefix + string(code)
}

// ParseSentinel reports whether value is a sentinel and returns its code.
func ParseSentinel(value string) (errors.Code, bool) {
	code, ok := strings.CutPrefix(value, SentinelPrefix)
	if !ok || code == "" {
		return "", false
	}
	return errors.Code(code), true
}

func (f Failure) String() string {
	return fmt.Sprintf("%s: %s: %s", f.Key, f.Code, f.Message)
}
