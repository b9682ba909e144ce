package main

import (
	"context"
	"fmt"
	"time"

	"github.com/easyworld/worldgen/adapters/sqlite"
	"github.com/easyworld/worldgen/bootstrap"
	"github.com/easyworld/worldgen/config"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration before deployment",
	Long: `Validate the worldgen configuration file.

Checks:
  - YAML syntax is valid
  - Oracle settings are complete
  - Oracle client can be created (optional)
  - Journal database is writable (optional)

Examples:
  worldgen validate
  worldgen validate --check-oracle --check-database`,
	RunE: runValidate,
}

var (
	validateCheckOracle   bool
	validateCheckDatabase bool
)

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().BoolVar(&validateCheckOracle, "check-oracle", false, "check that the oracle client can be created")
	validateCmd.Flags().BoolVar(&validateCheckDatabase, "check-database", false, "check that the journal database is writable")
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Validating %s...\n\n", cfgFile)

	if !fileExists(cfgFile) {
		fmt.Fprintf(out, "  %s Config file exists\n", crossMark)
		return fmt.Errorf("config file not found: %s", cfgFile)
	}
	fmt.Fprintf(out, "  %s Config file exists\n", checkMark)

	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(out, "  %s Config syntax valid\n", crossMark)
		return fmt.Errorf("config error: %w", err)
	}
	fmt.Fprintf(out, "  %s Config syntax valid\n", checkMark)

	// Show config summary
	fmt.Fprintf(out, "  %s Listen: %s\n", checkMark, cfg.Server.Addr())
	fmt.Fprintf(out, "  %s Oracle: %s (timeout %s)\n", checkMark, cfg.Oracle.Provider, cfg.Oracle.Timeout)
	if cfg.Analytics.Enabled {
		fmt.Fprintf(out, "  %s Journal: %s\n", checkMark, cfg.Analytics.Path)
	} else {
		fmt.Fprintf(out, "  %s Journal: disabled\n", checkMark)
	}

	if validateCheckOracle {
		if err := checkOracle(cmd.Context(), cfg.Oracle); err != nil {
			fmt.Fprintf(out, "  %s Oracle client\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Oracle client\n", checkMark)
		}
	}

	if validateCheckDatabase {
		if err := checkDatabaseWritable(cfg.Analytics.Path); err != nil {
			fmt.Fprintf(out, "  %s Database writable\n", crossMark)
			fmt.Fprintf(out, "      Error: %v\n", err)
		} else {
			fmt.Fprintf(out, "  %s Database writable\n", checkMark)
		}
	}

	fmt.Fprintln(out)
	fmt.Fprintln(out, "Configuration is valid.")
	return nil
}

func checkOracle(ctx context.Context, cfg config.OracleConfig) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_, err := bootstrap.NewOracle(ctx, cfg)
	return err
}

func checkDatabaseWritable(path string) error {
	db, err := sqlite.Open(path)
	if err != nil {
		return err
	}
	defer db.Close()
	_, err = db.Migrate()
	return err
}

const (
	checkMark = "\033[32m✓\033[0m"
	crossMark = "\033[31m✗\033[0m"
)
