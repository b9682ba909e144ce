package main

import (
	"fmt"

	"github.com/easyworld/worldgen/bootstrap"
	"github.com/spf13/cobra"
)

var (
	hotReload bool
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long: `Start the worldgen HTTP server.

The server will:
  - Load configuration from worldgen.yaml (or --config)
  - Or load configuration from WORLDGEN_* environment variables
  - Open the generation journal
  - Serve POST /parse_description, /schema, /health and /metrics

Environment variables (for Docker deployments):
  GEMINI_API_KEY            - Gemini API key (API_KEY also works)
  WORLDGEN_ORACLE_PROVIDER  - gemini, remote or replay
  WORLDGEN_SERVER_PORT      - Server port (default: 5000)
  WORLDGEN_ANALYTICS_PATH   - Journal database (default: worldgen.db)
  WORLDGEN_LOG_LEVEL        - Log level: debug, info, warn, error

Examples:
  worldgen serve
  worldgen serve --config /etc/worldgen/worldgen.yaml
  worldgen serve --hot-reload=false`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&hotReload, "hot-reload", true, "reload configuration on file change or SIGHUP")
}

func runServe(cmd *cobra.Command, args []string) error {
	app, err := bootstrap.New(bootstrap.Options{
		ConfigPath: cfgFile,
		HotReload:  hotReload && fileExists(cfgFile),
		Version:    version,
	})
	if err != nil {
		return fmt.Errorf("initialize: %w", err)
	}

	// Run (blocks until shutdown)
	return app.Run()
}
