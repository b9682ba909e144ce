package main

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/easyworld/worldgen/adapters/sqlite"
	"github.com/easyworld/worldgen/config"
	"github.com/easyworld/worldgen/core/analytics"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

var (
	statsSince  time.Duration
	statsPeriod string
	statsGroup  []string
	statsJSON   bool
	pruneOlder  time.Duration
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the generation journal",
	Long: `Summarize recorded generation requests: counts by outcome, success
rate and latency. Descriptions are never stored, only a keyed fingerprint.

Examples:
  worldgen stats
  worldgen stats --since 168h --period day
  worldgen stats --group oracle --json`,
	RunE: runStats,
}

var pruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old journal entries",
	Long: `Delete generation records older than --older-than.

Examples:
  worldgen prune --older-than 720h`,
	RunE: runPrune,
}

func init() {
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(pruneCmd)

	statsCmd.Flags().DurationVar(&statsSince, "since", 24*time.Hour, "summarize requests newer than this")
	statsCmd.Flags().StringVar(&statsPeriod, "period", "", "bucket by minute, hour or day")
	statsCmd.Flags().StringSliceVar(&statsGroup, "group", []string{"outcome"}, "group by outcome and/or oracle")
	statsCmd.Flags().BoolVar(&statsJSON, "json", false, "print JSON")

	pruneCmd.Flags().DurationVar(&pruneOlder, "older-than", 30*24*time.Hour, "delete records older than this")
}

// openJournal opens the configured journal for reading.
func openJournal() (analytics.Store, func(), error) {
	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	db, err := sqlite.Open(cfg.Analytics.Path)
	if err != nil {
		return nil, nil, err
	}
	if _, err := db.Migrate(); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("migrate: %w", err)
	}

	sc := analytics.DefaultSQLiteConfig()
	sc.Logger = zerolog.Nop()
	store, err := analytics.NewSQLiteStore(db.DB, sc)
	if err != nil {
		db.Close()
		return nil, nil, err
	}
	return store, func() {
		store.Close()
		db.Close()
	}, nil
}

func runStats(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openJournal()
	if err != nil {
		return err
	}
	defer closeFn()

	ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
	defer cancel()

	end := time.Now().UTC()
	summaries, err := store.Aggregate(ctx, analytics.AggregateOptions{
		Start:   end.Add(-statsSince),
		End:     end,
		GroupBy: statsGroup,
		Period:  statsPeriod,
	})
	if err != nil {
		return fmt.Errorf("aggregate: %w", err)
	}

	out := cmd.OutOrStdout()
	if statsJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(summaries)
	}

	if len(summaries) == 0 {
		fmt.Fprintln(out, "No generations recorded.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "PERIOD\tOUTCOME\tORACLE\tTOTAL\tSUCCESS\tDISTINCT\tAVG\tMAX\tAVG ADJ")
	for _, s := range summaries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%.0f%%\t%d\t%s\t%s\t%.1f\n",
			dash(s.Period), dash(s.Outcome), dash(s.Oracle),
			s.Total, s.SuccessRate()*100, s.Distinct,
			time.Duration(s.AvgDurationNS).Round(time.Millisecond),
			time.Duration(s.MaxDurationNS).Round(time.Millisecond),
			s.AvgAdjustments)
	}
	return tw.Flush()
}

func runPrune(cmd *cobra.Command, args []string) error {
	store, closeFn, err := openJournal()
	if err != nil {
		return err
	}
	defer closeFn()

	n, err := store.Delete(cmd.Context(), time.Now().UTC().Add(-pruneOlder))
	if err != nil {
		return fmt.Errorf("prune: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d generation records.\n", n)
	return nil
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
