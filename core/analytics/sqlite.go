package analytics

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/easyworld/worldgen/ports"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// timeLayout has fixed width so stored timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLiteStore implements Journal on the generations table.
type SQLiteStore struct {
	db     *sql.DB
	buffer chan ports.Generation
	done   chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
	logger zerolog.Logger

	// Configuration
	batchSize     int
	flushInterval time.Duration
}

// SQLiteConfig configures the SQLite journal.
type SQLiteConfig struct {
	// BatchSize is the number of generations to batch before writing.
	BatchSize int

	// FlushInterval is the maximum time between flushes.
	FlushInterval time.Duration

	// BufferSize is the size of the in-memory buffer. Records beyond it
	// are dropped.
	BufferSize int

	Logger zerolog.Logger
}

// DefaultSQLiteConfig returns sensible defaults.
func DefaultSQLiteConfig() SQLiteConfig {
	return SQLiteConfig{
		BatchSize:     100,
		FlushInterval: time.Second,
		BufferSize:    10000,
		Logger:        zerolog.Nop(),
	}
}

// NewSQLiteStore creates a journal on a migrated database and starts its
// background flusher. Close stops it.
func NewSQLiteStore(db *sql.DB, cfg SQLiteConfig) (*SQLiteStore, error) {
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval == 0 {
		cfg.FlushInterval = time.Second
	}
	if cfg.BufferSize == 0 {
		cfg.BufferSize = 10000
	}

	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM generations").Scan(&n); err != nil {
		return nil, fmt.Errorf("generations table: %w", err)
	}

	s := &SQLiteStore{
		db:            db,
		buffer:        make(chan ports.Generation, cfg.BufferSize),
		done:          make(chan struct{}),
		logger:        cfg.Logger,
		batchSize:     cfg.BatchSize,
		flushInterval: cfg.FlushInterval,
	}

	// Start background flusher
	s.wg.Add(1)
	go s.flusher()

	return s, nil
}

// Record queues a generation (non-blocking).
func (s *SQLiteStore) Record(g ports.Generation) {
	select {
	case s.buffer <- g:
	default:
		s.logger.Warn().Str("id", g.ID).Msg("analytics buffer full, generation dropped")
	}
}

// Flush forces pending generations to be written.
func (s *SQLiteStore) Flush(ctx context.Context) error {
	gens := s.drain()
	if len(gens) == 0 {
		return nil
	}
	return s.Write(ctx, gens)
}

// drain collects all pending generations from the buffer.
func (s *SQLiteStore) drain() []ports.Generation {
	var gens []ports.Generation
	for {
		select {
		case g := <-s.buffer:
			gens = append(gens, g)
		default:
			return gens
		}
	}
}

// flusher periodically flushes generations to storage.
func (s *SQLiteStore) flusher() {
	defer s.wg.Done()

	ticker := time.NewTicker(s.flushInterval)
	defer ticker.Stop()

	var batch []ports.Generation
	write := func(gens []ports.Generation) {
		if err := s.Write(context.Background(), gens); err != nil {
			s.logger.Error().Err(err).Int("count", len(gens)).Msg("analytics write failed")
		}
	}

	for {
		select {
		case <-s.done:
			batch = append(batch, s.drain()...)
			if len(batch) > 0 {
				write(batch)
			}
			return

		case g := <-s.buffer:
			batch = append(batch, g)
			if len(batch) >= s.batchSize {
				write(batch)
				batch = nil
			}

		case <-ticker.C:
			if len(batch) > 0 {
				write(batch)
				batch = nil
			}
		}
	}
}

// Write writes generations to storage.
func (s *SQLiteStore) Write(ctx context.Context, gens []ports.Generation) error {
	if len(gens) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO generations (
			id, timestamp, fingerprint, oracle, outcome,
			terrains, objects, adjustments, city_mode, duration_ns
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, g := range gens {
		if g.ID == "" {
			g.ID = uuid.New().String()
		}
		if g.Timestamp.IsZero() {
			g.Timestamp = time.Now()
		}

		city := 0
		if g.CityMode {
			city = 1
		}

		_, err := stmt.ExecContext(ctx,
			g.ID, g.Timestamp.UTC().Format(timeLayout), g.Fingerprint, g.Oracle, string(g.Outcome),
			g.Terrains, g.Objects, g.Adjustments, city, g.Duration.Nanoseconds(),
		)
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// Query retrieves generations matching the options.
func (s *SQLiteStore) Query(ctx context.Context, opts QueryOptions) ([]ports.Generation, int64, error) {
	var conditions []string
	var args []any

	if !opts.Start.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, opts.Start.UTC().Format(timeLayout))
	}
	if !opts.End.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, opts.End.UTC().Format(timeLayout))
	}
	if opts.Outcome != "" {
		conditions = append(conditions, "outcome = ?")
		args = append(args, string(opts.Outcome))
	}
	if opts.Oracle != "" {
		conditions = append(conditions, "oracle = ?")
		args = append(args, opts.Oracle)
	}
	if opts.Fingerprint != "" {
		conditions = append(conditions, "fingerprint = ?")
		args = append(args, opts.Fingerprint)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Count total
	var total int64
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM generations "+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	// Order - whitelist allowed columns to prevent SQL injection
	allowedOrderCols := map[string]bool{
		"timestamp":   true,
		"duration_ns": true,
		"adjustments": true,
		"terrains":    true,
		"outcome":     true,
	}
	orderBy := "timestamp"
	if opts.OrderBy != "" && allowedOrderCols[opts.OrderBy] {
		orderBy = opts.OrderBy
	}
	order := "ASC"
	if opts.OrderDesc {
		order = "DESC"
	}

	limit := 100
	if opts.Limit > 0 {
		limit = opts.Limit
	}

	query := fmt.Sprintf(`
		SELECT id, timestamp, fingerprint, oracle, outcome,
			terrains, objects, adjustments, city_mode, duration_ns
		FROM generations %s
		ORDER BY %s %s
		LIMIT ? OFFSET ?
	`, where, orderBy, order)
	args = append(args, limit, opts.Offset)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var gens []ports.Generation
	for rows.Next() {
		var g ports.Generation
		var ts, outcome string
		var city int
		var durationNS int64

		err := rows.Scan(
			&g.ID, &ts, &g.Fingerprint, &g.Oracle, &outcome,
			&g.Terrains, &g.Objects, &g.Adjustments, &city, &durationNS,
		)
		if err != nil {
			return nil, 0, err
		}

		g.Timestamp, _ = time.Parse(timeLayout, ts)
		g.Outcome = ports.Outcome(outcome)
		g.CityMode = city == 1
		g.Duration = time.Duration(durationNS)

		gens = append(gens, g)
	}

	return gens, total, rows.Err()
}

// Aggregate returns summarized generations.
func (s *SQLiteStore) Aggregate(ctx context.Context, opts AggregateOptions) ([]Summary, error) {
	var conditions []string
	var args []any

	if !opts.Start.IsZero() {
		conditions = append(conditions, "timestamp >= ?")
		args = append(args, opts.Start.UTC().Format(timeLayout))
	}
	if !opts.End.IsZero() {
		conditions = append(conditions, "timestamp <= ?")
		args = append(args, opts.End.UTC().Format(timeLayout))
	}
	if opts.Oracle != "" {
		conditions = append(conditions, "oracle = ?")
		args = append(args, opts.Oracle)
	}

	where := ""
	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	// Build GROUP BY; unknown names are ignored
	var groupCols []string
	var groups []string
	for _, g := range opts.GroupBy {
		switch g {
		case "outcome", "oracle":
			groupCols = append(groupCols, g)
			groups = append(groups, g)
		}
	}

	// Time period grouping
	periodExpr := ""
	switch opts.Period {
	case "minute":
		periodExpr = "strftime('%Y-%m-%d %H:%M', timestamp)"
	case "hour":
		periodExpr = "strftime('%Y-%m-%d %H', timestamp)"
	case "day":
		periodExpr = "strftime('%Y-%m-%d', timestamp)"
	}

	selectCols := append([]string(nil), groupCols...)
	if periodExpr != "" {
		groupCols = append(groupCols, periodExpr)
		selectCols = append(selectCols, periodExpr+" as period")
	}

	groupBy := ""
	if len(groupCols) > 0 {
		groupBy = "GROUP BY " + strings.Join(groupCols, ", ")
	}

	selectPart := strings.Join(selectCols, ", ")
	if selectPart != "" {
		selectPart += ","
	}

	query := fmt.Sprintf(`
		SELECT %s
			COUNT(*) as total,
			COALESCE(SUM(CASE WHEN outcome = 'ok' THEN 1 ELSE 0 END), 0) as succeeded,
			COALESCE(SUM(CASE WHEN outcome != 'ok' THEN 1 ELSE 0 END), 0) as failed,
			COALESCE(SUM(city_mode), 0) as city_requests,
			COUNT(DISTINCT NULLIF(fingerprint, '')) as distinct_descriptions,
			CAST(COALESCE(AVG(duration_ns), 0) AS INTEGER) as avg_duration_ns,
			COALESCE(MIN(duration_ns), 0) as min_duration_ns,
			COALESCE(MAX(duration_ns), 0) as max_duration_ns,
			COALESCE(AVG(CASE WHEN outcome = 'ok' THEN terrains END), 0) as avg_terrains,
			COALESCE(AVG(CASE WHEN outcome = 'ok' THEN adjustments END), 0) as avg_adjustments,
			COALESCE(MIN(timestamp), '') as start_time,
			COALESCE(MAX(timestamp), '') as end_time
		FROM generations %s %s
		ORDER BY start_time DESC
	`, selectPart, where, groupBy)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var summaries []Summary
	for rows.Next() {
		var sum Summary
		var startStr, endStr string
		var outcome, oracle, period sql.NullString

		scanTargets := make([]any, 0, len(groups)+13)
		for _, g := range groups {
			switch g {
			case "outcome":
				scanTargets = append(scanTargets, &outcome)
			case "oracle":
				scanTargets = append(scanTargets, &oracle)
			}
		}
		if periodExpr != "" {
			scanTargets = append(scanTargets, &period)
		}
		scanTargets = append(scanTargets,
			&sum.Total, &sum.Succeeded, &sum.Failed, &sum.CityRequests, &sum.Distinct,
			&sum.AvgDurationNS, &sum.MinDurationNS, &sum.MaxDurationNS,
			&sum.AvgTerrains, &sum.AvgAdjustments, &startStr, &endStr,
		)

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, err
		}

		sum.Outcome = outcome.String
		sum.Oracle = oracle.String
		sum.Period = period.String
		sum.Start, _ = time.Parse(timeLayout, startStr)
		sum.End, _ = time.Parse(timeLayout, endStr)

		summaries = append(summaries, sum)
	}

	return summaries, rows.Err()
}

// Delete removes generations older than the given time.
func (s *SQLiteStore) Delete(ctx context.Context, before time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM generations WHERE timestamp < ?",
		before.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

// Close stops the flusher after writing what is still buffered. It is safe to
// call more than once.
func (s *SQLiteStore) Close() error {
	s.once.Do(func() { close(s.done) })
	s.wg.Wait()
	return nil
}

// Ensure interface compliance.
var _ Journal = (*SQLiteStore)(nil)
