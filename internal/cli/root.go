package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"searchfox/config"
	"searchfox/internal/adapter/report"
	"searchfox/internal/adapter/searchfox"
	"searchfox/internal/telemetry"
)

var (
	cfgFile     string
	repoFlag    string
	logRequests bool
	verbose     bool
	traceFlag   bool
	noCache     bool

	cfg      *config.Config
	logger   *slog.Logger
	shutdown func(context.Context) error
)

var rootCmd = &cobra.Command{
	Use:   "searchfox",
	Short: "Query a searchfox.org code index from the terminal",
	Long: `searchfox queries a searchfox.org instance: text and symbol search,
complete definitions extracted from source, call graphs and class layouts.

Example usage:
  searchfox search -q "AddRef" -p dom/base
  searchfox define 'mozilla::dom::Element::GetAttr'
  searchfox calls-from 'nsGlobalWindowInner::Close' --depth 2
  searchfox calls-between 'mozilla::dom::Document,mozilla::PresShell'`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if cfgFile != "" {
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadDefault()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if repoFlag != "" {
			cfg.Repo = repoFlag
		}
		if logRequests {
			cfg.Logging.LogRequests = true
		}
		if noCache {
			cfg.Cache.Enabled = false
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid config: %w", err)
		}

		logger = newLogger(cfg.Logging.Level, verbose)
		slog.SetDefault(logger)

		tc := telemetry.DefaultConfig(searchfox.Version)
		if traceFlag {
			tc.Exporter = "stdout"
		}
		shutdown, err = telemetry.Init(cmd.Context(), tc)
		if err != nil {
			return fmt.Errorf("failed to init tracing: %w", err)
		}
		return nil
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if shutdown == nil {
			return nil
		}
		return shutdown(context.Background())
	},
}

func newLogger(level string, verbose bool) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(strings.ToUpper(level))); err != nil {
		lvl = slog.LevelWarn
	}
	if verbose {
		lvl = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}

func Execute() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		if logger != nil {
			logger.Debug("command failed", "error", err)
		}
		fmt.Fprintf(os.Stderr, "Error: %s\n", report.ErrorMessage(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $XDG_CONFIG_HOME/searchfox-cli/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&repoFlag, "repo", "R", "", "repository to query (default from config, mozilla-central)")
	rootCmd.PersistentFlags().BoolVar(&logRequests, "log-requests", false, "log every HTTP request with timing")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "debug logging")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "print OpenTelemetry spans to stderr")
	rootCmd.PersistentFlags().BoolVar(&noCache, "no-cache", false, "bypass the response and file caches")
}

func GetConfig() *config.Config {
	return cfg
}
