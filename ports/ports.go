// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// Fingerprinter derives a stable, non-reversible fingerprint of a description,
// so analytics can group repeated requests without storing the text.
type Fingerprinter interface {
	Fingerprint(text string) string
}

// -----------------------------------------------------------------------------
// Oracle Port
// -----------------------------------------------------------------------------

// Oracle is the external text generator that proposes parameter values.
type Oracle interface {
	// Complete returns the raw reply for a prompt. It must honour ctx
	// cancellation and deadlines.
	Complete(ctx context.Context, prompt string) (string, error)

	// Name identifies the oracle in logs and analytics.
	Name() string
}

// -----------------------------------------------------------------------------
// Event Ports
// -----------------------------------------------------------------------------

// Outcome classifies how a generation request ended.
type Outcome string

const (
	OutcomeOK               Outcome = "ok"
	OutcomeEmptyDescription Outcome = "empty_description"
	OutcomeOracleError      Outcome = "oracle_error"
	OutcomeExtractionError  Outcome = "extraction_error"
	OutcomeInternalError    Outcome = "internal_error"
)

// Generation describes one finished generation request. It never carries the
// description or the generated world.
type Generation struct {
	ID          string
	Fingerprint string
	Oracle      string
	Outcome     Outcome
	Terrains    int
	Objects     int
	Adjustments int
	CityMode    bool
	Duration    time.Duration
	Timestamp   time.Time
}

// GenerationRecorder accepts generation events for async processing.
type GenerationRecorder interface {
	// Record queues an event for processing.
	// This should be non-blocking.
	Record(g Generation)

	// Flush forces immediate processing of queued events.
	Flush(ctx context.Context) error

	// Close stops the recorder and flushes remaining events.
	Close() error
}

// -----------------------------------------------------------------------------
// Metrics Port
// -----------------------------------------------------------------------------

// PipelineObserver receives pipeline measurements (Prometheus in production).
type PipelineObserver interface {
	// ObserveOracle records one oracle call. timeout is set when the call hit
	// its deadline.
	ObserveOracle(oracle string, d time.Duration, err error, timeout bool)

	// ObserveAdjustment records one normaliser adjustment.
	ObserveAdjustment(module, kind string)

	// ObserveRule records a consistency rule that changed the configuration.
	ObserveRule(name string)

	// ObserveGeneration records the outcome of one request.
	ObserveGeneration(outcome Outcome)
}
