package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/easyworld/worldgen/adapters/oracle"
	"github.com/easyworld/worldgen/bootstrap"
	"github.com/easyworld/worldgen/config"
	"github.com/easyworld/worldgen/domain/world"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	generateRaw      string
	generateParallel int
	generateVerbose  bool
)

var generateCmd = &cobra.Command{
	Use:   "generate [description...]",
	Short: "Generate world configurations from descriptions",
	Long: `Run the generation pipeline for each description and print the
resulting configurations as JSON. Each argument is one description; with no
arguments, descriptions are read from stdin, one per line.

Examples:
  worldgen generate "a frozen tundra under the northern lights"
  worldgen generate --parallel 8 < descriptions.txt
  worldgen generate --raw reply.json "a desert canyon"`,
	RunE: runGenerate,
}

func init() {
	rootCmd.AddCommand(generateCmd)

	generateCmd.Flags().StringVar(&generateRaw, "raw", "", "answer every prompt with this file instead of calling the oracle")
	generateCmd.Flags().IntVarP(&generateParallel, "parallel", "p", 4, "maximum concurrent generations")
	generateCmd.Flags().BoolVarP(&generateVerbose, "verbose", "v", false, "log pipeline details to stderr")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	descriptions := args
	if len(descriptions) == 0 {
		var err error
		descriptions, err = readLines(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("read descriptions: %w", err)
		}
	}
	if len(descriptions) == 0 {
		return fmt.Errorf("no descriptions given")
	}
	if generateParallel < 1 {
		return fmt.Errorf("--parallel must be at least 1")
	}

	cfg, err := config.LoadWithFallback(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Level = "warn"
	if generateVerbose {
		cfg.Logging.Level = "debug"
	}
	cfg.Logging.Format = "console"

	opts := bootstrap.Options{
		Registry:  prometheus.NewRegistry(),
		LogOutput: cmd.ErrOrStderr(),
		Version:   version,
	}
	if generateRaw != "" {
		opts.Oracle = oracle.NewReplay(generateRaw)
	}

	app, err := bootstrap.NewWithConfig(cfg, opts)
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}
	defer app.Shutdown()

	configs := make([]*world.Config, len(descriptions))

	g, ctx := errgroup.WithContext(cmd.Context())
	g.SetLimit(generateParallel)
	for i, desc := range descriptions {
		g.Go(func() error {
			res, err := app.World.Generate(ctx, desc)
			if err != nil {
				return fmt.Errorf("generate %q: %w", desc, err)
			}
			configs[i] = res.Config
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	if len(configs) == 1 {
		return enc.Encode(configs[0])
	}
	return enc.Encode(configs)
}

func readLines(r io.Reader) ([]string, error) {
	var lines []string
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			lines = append(lines, line)
		}
	}
	return lines, sc.Err()
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
