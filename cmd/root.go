// Package cmd implements the CLI commands using Cobra.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"anistream/internal/cache"
	"anistream/internal/config"
	"anistream/internal/extract"
	"anistream/internal/pipeline"
	"anistream/internal/provider"
	"anistream/internal/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Global flags
var (
	flagAddr    string
	flagBase    string
	flagNoCache bool
	flagDebug   bool
)

// cfg holds the loaded configuration (merged: defaults < config file < env < flags).
var cfg *config.Config

// logger is shared by every command after loadConfig runs.
var logger *log.Logger

var rootCmd = &cobra.Command{
	Use:   "anistream",
	Short: "Anime catalog and stream extraction service",
	Long: `Anistream scrapes an anime catalog site, resolves episode hosting
servers, and decodes embed payloads into playable HLS stream URLs.
Run without arguments to start the HTTP API.`,
	Args:              cobra.NoArgs,
	PersistentPreRunE: loadConfig,
	RunE:              serveRun,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&flagAddr, "addr", "a", "", "HTTP listen address (default :8080)")
	rootCmd.PersistentFlags().StringVarP(&flagBase, "base", "b", "", "Upstream host, e.g. hianime.to")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Disable response caching")
	rootCmd.PersistentFlags().BoolVarP(&flagDebug, "debug", "x", false, "Debug logging to stderr")

	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(versionCmd)
}

// loadConfig loads and merges configuration: defaults < config file < env < CLI flags.
func loadConfig(cmd *cobra.Command, args []string) error {
	var err error
	cfg, err = config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	// CLI flags override config file and environment values
	if flagAddr != "" {
		cfg.Addr = flagAddr
	}
	if flagBase != "" {
		cfg.Base = flagBase
	}
	if flagNoCache {
		cfg.CacheSeconds = 0
	}
	if flagDebug {
		cfg.Debug = true
	}

	// Re-validate after flag overrides
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05",
		Prefix:          "anistream",
	})
	if cfg.Debug {
		logger.SetLevel(log.DebugLevel)
	}

	return nil
}

// buildService assembles the extraction pipeline from the loaded config,
// wrapped in a TTL cache unless caching is disabled.
func buildService() pipeline.Service {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second

	catalog := provider.NewHiAnime(cfg.Base, timeout, logger)
	backends := extract.NewSet(extract.Options{
		Timeout:    timeout,
		KeyService: cfg.KeyService,
		DecryptAPI: cfg.DecryptAPI,
	})

	var svc pipeline.Service = pipeline.New(catalog, backends, logger)
	if cfg.CacheSeconds > 0 {
		svc = cache.New(svc,
			time.Duration(cfg.CacheSeconds)*time.Second,
			time.Duration(cfg.StreamSeconds)*time.Second)
	}
	return svc
}

// serveRun is the default command: start the HTTP API.
func serveRun(cmd *cobra.Command, args []string) error {
	svc := buildService()
	app := server.New(server.NewHandler(svc, logger))

	logger.Info("listening", "addr", cfg.Addr, "base", cfg.Base, "cache", cfg.CacheSeconds > 0)
	if err := app.Listen(cfg.Addr); err != nil {
		return fmt.Errorf("serving: %w", err)
	}
	return nil
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("anistream %s\n", Version)
	},
}
