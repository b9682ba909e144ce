// Package analytics keeps a journal of generation requests and summarises it.
// Only request outcomes are stored: never the description text and never the
// generated world.
package analytics

import (
	"context"
	"time"

	"github.com/easyworld/worldgen/ports"
)

// Summary represents aggregated generations for a group or time period.
type Summary struct {
	// Grouping
	Outcome string `json:"outcome,omitempty"`
	Oracle  string `json:"oracle,omitempty"`
	Period  string `json:"period,omitempty"`

	// Time range
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`

	// Counts
	Total        int64 `json:"total"`
	Succeeded    int64 `json:"succeeded"`
	Failed       int64 `json:"failed"`
	CityRequests int64 `json:"city_requests"`
	Distinct     int64 `json:"distinct_descriptions"`

	// Latency (nanoseconds)
	AvgDurationNS int64 `json:"avg_duration_ns"`
	MinDurationNS int64 `json:"min_duration_ns"`
	MaxDurationNS int64 `json:"max_duration_ns"`

	// Pipeline
	AvgTerrains    float64 `json:"avg_terrains"`
	AvgAdjustments float64 `json:"avg_adjustments"`
}

// SuccessRate returns the share of successful requests in [0, 1].
func (s Summary) SuccessRate() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Succeeded) / float64(s.Total)
}

// QueryOptions configures journal queries.
type QueryOptions struct {
	// Time range
	Start time.Time
	End   time.Time

	// Filters
	Outcome     ports.Outcome
	Oracle      string
	Fingerprint string

	// Pagination
	Limit  int
	Offset int

	// Ordering
	OrderBy   string // timestamp, duration_ns, adjustments
	OrderDesc bool
}

// AggregateOptions configures aggregation queries.
type AggregateOptions struct {
	// Time range
	Start time.Time
	End   time.Time

	// Grouping
	GroupBy []string // outcome, oracle
	Period  string   // minute, hour, day

	// Filters
	Oracle string
}

// Store provides journal storage and querying.
type Store interface {
	// Write writes generations to storage.
	Write(ctx context.Context, gens []ports.Generation) error

	// Query retrieves generations matching the options.
	Query(ctx context.Context, opts QueryOptions) ([]ports.Generation, int64, error)

	// Aggregate returns summarized generations.
	Aggregate(ctx context.Context, opts AggregateOptions) ([]Summary, error)

	// Delete removes generations older than the given time.
	Delete(ctx context.Context, before time.Time) (int64, error)

	// Close shuts down the store.
	Close() error
}

// Journal combines asynchronous recording and querying.
type Journal interface {
	ports.GenerationRecorder
	Store
}
