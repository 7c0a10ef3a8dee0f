package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	"github.com/spf13/cobra"

	"roost/pkg/auth"
	"roost/pkg/config"
	errs "roost/pkg/errors"
	"roost/pkg/logger"
	"roost/pkg/metrics"
	"roost/pkg/twitter"
	"roost/pkg/ui"
)

var (
	// Version information
	version   = "0.4.0"
	gitCommit = "unknown"
	buildDate = "unknown"

	// Global flags
	configFile  string
	profileName string
	profileFile string
	logLevel    string
	metricsAddr string
	byID        bool
	byHandle    bool

	// Set up by PersistentPreRunE
	cfg       *config.Config
	log       logger.Logger
	collector *metrics.Collector
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "roost",
	Short: "A rate-aware client for the v1 REST and streaming API",
	Long: `roost reads followers, friends, profiles and timelines from a v1 style
REST API and collects the filter stream.

Every request is OAuth 1.0a signed. roost tracks the quota reported by the
server, waits out rate limits and over-capacity cooldowns, and retries
transient failures until the listing is complete.`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, gitCommit, buildDate),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return setup(cmd.Context())
	},
}

// Execute runs the root command with a context cancelled on SIGINT/SIGTERM.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		reportError(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (default is .roost.yaml or ~/.config/roost/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&profileName, "profile", "P", "", "credential profile name (default \"default\")")
	rootCmd.PersistentFlags().StringVar(&profileFile, "profile-file", "", "read credentials from this profile file")
	rootCmd.PersistentFlags().StringVarP(&logLevel, "log-level", "d", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&metricsAddr, "metrics-addr", "", "serve prometheus metrics on this address, e.g. :9090")
	rootCmd.PersistentFlags().BoolVar(&byID, "by-id", false, "treat subjects as numeric user ids")
	rootCmd.PersistentFlags().BoolVar(&byHandle, "by-handle", false, "treat subjects as screen names")
	rootCmd.MarkFlagsMutuallyExclusive("by-id", "by-handle")
	rootCmd.MarkFlagsMutuallyExclusive("profile", "profile-file")

	rootCmd.SetVersionTemplate(`roost {{.Version}}
Go Version: ` + runtime.Version() + `
OS/Arch: ` + runtime.GOOS + `/` + runtime.GOARCH + `
`)

	rootCmd.CompletionOptions.DisableDefaultCmd = true
}

// setup loads configuration, initializes logging and starts the metrics
// listener when one is configured.
func setup(ctx context.Context) error {
	loaded, err := config.Load(configFile, config.Overrides{
		Profile:     profileName,
		ProfileFile: profileFile,
		LogLevel:    logLevel,
		MetricsAddr: metricsAddr,
		Track:       trackTerms,
		StreamOut:   streamOutput,
	})
	if err != nil {
		return err
	}
	cfg = loaded

	if err := logger.Initialize(&cfg.Logging); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	log = logger.GetLogger()
	collector = metrics.NewCollector()

	if cfg.Metrics.Addr != "" && ctx != nil {
		go func() {
			if err := collector.Serve(ctx, cfg.Metrics.Addr); err != nil {
				log.WithError(err).Warn("metrics listener stopped")
			}
		}()
		log.WithField("addr", cfg.Metrics.Addr).Info("serving metrics")
	}
	return nil
}

// credentials resolves the configured profile. A profile file wins over the
// profile name, which always has a default.
func credentials() (auth.Credentials, error) {
	src := auth.Source{ProfileFile: cfg.Profile.File}

	// a profile file is read directly, without touching the stores
	manager := auth.NewManagerWithStores()
	if src.ProfileFile == "" {
		src.ProfileName = cfg.Profile.Name
		m, err := auth.NewManager(cfg.Profile.Dir)
		if err != nil {
			return auth.Credentials{}, err
		}
		manager = m
	}

	creds, err := manager.Resolve(src)
	if errors.Is(err, auth.ErrCredentialsNotFound) {
		return creds, fmt.Errorf("%w: run 'roost auth login' to create a profile", err)
	}
	return creds, err
}

// newClient builds a signed client and, if configured, seeds its quota from
// the rate limit status endpoint.
func newClient(ctx context.Context) (*twitter.Client, error) {
	creds, err := credentials()
	if err != nil {
		return nil, err
	}
	return buildClient(ctx, creds)
}

func buildClient(ctx context.Context, creds auth.Credentials) (*twitter.Client, error) {
	client, err := twitter.NewClient(creds, cfg,
		twitter.WithLogger(log),
		twitter.WithRecorder(collector),
	)
	if err != nil {
		return nil, err
	}

	if cfg.Twitter.SyncRateLimit {
		if _, err := client.SyncRateLimit(ctx); err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.WithError(err).Warn("could not read rate limit status, starting without it")
		}
	}
	return client, nil
}

// unavailable logs that a subject could not be read. It is not a failure.
func unavailable(s twitter.Subject, err error) {
	log.WithField("subject", s.String()).WithError(err).Warn("account unavailable")
}

// reportError prints a fatal error. API errors carry the full response.
func reportError(err error) {
	if fatal, ok := errs.AsFatal(err); ok {
		ui.PrintError("Request failed", fatal.Description)
		fmt.Fprintln(ui.Output, fatal.Error())
		return
	}
	if errors.Is(err, context.Canceled) {
		ui.PrintWarning("Interrupted")
		return
	}
	ui.PrintError("Error", err)
}
