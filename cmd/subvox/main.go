// Package main provides the subvox CLI application entry point.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/subosito/gotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"golang.org/x/sync/errgroup"

	"subvox/internal/bus"
	"subvox/internal/core"
	httpserver "subvox/internal/http"
	"subvox/internal/i18n"
	"subvox/internal/store"
	"subvox/internal/subsonic"
)

const defaultServerHost = "0.0.0.0"

var (
	cfgFile string
	config  *core.Config
	logger  *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "subvox",
	Short: "subvox - voice-controlled Subsonic playback",
	Long: `subvox bridges a voice assistant's message bus and a Subsonic music server.
It resolves spoken requests against the server's catalog, drives the assistant's
playback queue and keeps radio or random sessions topped up in the background.`,
	RunE: runSubvox,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is .env)")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().String("subsonic-url", "", "Subsonic server base URL")
	rootCmd.PersistentFlags().String("subsonic-user", "", "Subsonic username")
	rootCmd.PersistentFlags().String("subsonic-password", "", "Subsonic password")
	rootCmd.PersistentFlags().Int("subsonic-timeout-secs", 10, "Subsonic request timeout in seconds")
	rootCmd.PersistentFlags().String("bus-url", "ws://127.0.0.1:8181/core", "Voice assistant message bus URL")
	rootCmd.PersistentFlags().Int("bus-reconnect-delay-secs", 1, "Initial bus reconnect delay in seconds")
	rootCmd.PersistentFlags().Int("bus-max-reconnect-delay-secs", 30, "Maximum bus reconnect delay in seconds")
	rootCmd.PersistentFlags().String("server-host", defaultServerHost, "HTTP server host")
	rootCmd.PersistentFlags().Int("server-port", 8080, "HTTP server port")
	rootCmd.PersistentFlags().Float64("match-threshold", 0.8, "Minimum similarity for artist constraint filtering")
	rootCmd.PersistentFlags().Int("search-limit", 20, "Maximum results per entity kind from catalog search")
	rootCmd.PersistentFlags().Int("random-batch-size", 20, "Tracks fetched per random continuation batch")
	rootCmd.PersistentFlags().Int("similar-batch-size", 20, "Tracks fetched per radio continuation batch")
	rootCmd.PersistentFlags().Int("queue-low-water-mark", 1, "Remaining-track count that triggers a continuation refill")
	rootCmd.PersistentFlags().Int("queue-poll-interval-secs", 2, "Continuation queue poll interval in seconds")
	rootCmd.PersistentFlags().Int("refill-backoff-max-secs", 60, "Maximum delay between failed continuation fetches in seconds")
	rootCmd.PersistentFlags().Int("recent-tracks-size", 500, "Recently played tracks remembered per session")
	supportedLangs := strings.Join(i18n.GetSupportedLanguages(), ", ")
	rootCmd.PersistentFlags().String("language", i18n.DefaultLanguage, fmt.Sprintf("Spoken dialog language (%s)", supportedLangs))

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to bind flags: %v\n", err)
		os.Exit(1)
	}
}

func initConfig() {
	envFile := ".env"
	if cfgFile != "" {
		envFile = cfgFile
	}

	if err := gotenv.Load(envFile); err != nil {
		if !os.IsNotExist(err) {
			fmt.Fprintf(os.Stderr, "Error loading .env file: %v\n", err)
		}
	}

	viper.SetEnvPrefix("SUBVOX")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	config = buildConfig()
	logger = buildLogger(config.Log.Level)
}

func buildConfig() *core.Config {
	cfg := core.DefaultConfig()

	configureSubsonic(cfg)
	configureBus(cfg)
	configureServer(cfg)
	configureApp(cfg)

	return cfg
}

func configureSubsonic(cfg *core.Config) {
	cfg.Subsonic.ServerURL = strings.TrimRight(viper.GetString("subsonic-url"), "/")
	cfg.Subsonic.Username = viper.GetString("subsonic-user")
	cfg.Subsonic.Password = viper.GetString("subsonic-password")
	if secs := viper.GetInt("subsonic-timeout-secs"); secs > 0 {
		cfg.Subsonic.Timeout = time.Duration(secs) * time.Second
	}
	if limit := viper.GetInt("search-limit"); limit > 0 {
		cfg.Subsonic.SearchLimit = limit
	}
}

func configureBus(cfg *core.Config) {
	if url := viper.GetString("bus-url"); url != "" {
		cfg.Bus.URL = url
	}
	if delay := viper.GetInt("bus-reconnect-delay-secs"); delay > 0 {
		cfg.Bus.ReconnectDelaySecs = delay
	}
	if delay := viper.GetInt("bus-max-reconnect-delay-secs"); delay > 0 {
		cfg.Bus.MaxReconnectDelaySecs = delay
	}
}

func configureServer(cfg *core.Config) {
	cfg.Server.Host = viper.GetString("server-host")
	if cfg.Server.Host == "" {
		cfg.Server.Host = defaultServerHost
	}
	cfg.Server.Port = viper.GetInt("server-port")
	cfg.Log.Level = viper.GetString("log-level")
}

func configureApp(cfg *core.Config) {
	if threshold := viper.GetFloat64("match-threshold"); threshold > 0 && threshold <= 1 {
		cfg.App.MatchThreshold = threshold
	}
	if size := viper.GetInt("random-batch-size"); size > 0 {
		cfg.App.RandomBatchSize = size
	}
	if size := viper.GetInt("similar-batch-size"); size > 0 {
		cfg.App.SimilarBatchSize = size
	}
	if mark := viper.GetInt("queue-low-water-mark"); mark > 0 {
		cfg.App.QueueLowWaterMark = mark
	}
	if secs := viper.GetInt("queue-poll-interval-secs"); secs > 0 {
		cfg.App.QueuePollInterval = time.Duration(secs) * time.Second
	}
	if secs := viper.GetInt("refill-backoff-max-secs"); secs > 0 {
		cfg.App.RefillBackoffMax = time.Duration(secs) * time.Second
	}
	if size := viper.GetInt("recent-tracks-size"); size > 0 {
		cfg.App.RecentTracksSize = size
	}

	cfg.App.Language = viper.GetString("language")
	if cfg.App.Language == "" {
		cfg.App.Language = i18n.DefaultLanguage
	}
	supported := false
	for _, lang := range i18n.GetSupportedLanguages() {
		if cfg.App.Language == lang {
			supported = true
			break
		}
	}
	if !supported {
		fmt.Fprintf(os.Stderr, "Warning: Unsupported language '%s', falling back to '%s'\n",
			cfg.App.Language, i18n.DefaultLanguage)
		cfg.App.Language = i18n.DefaultLanguage
	}
}

func buildLogger(level string) *zap.Logger {
	var zapLevel zapcore.Level
	switch strings.ToLower(level) {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(zapLevel)

	builtLogger, err := cfg.Build()
	if err != nil {
		panic(fmt.Sprintf("Failed to build logger: %v", err))
	}

	return builtLogger
}

func runSubvox(_ *cobra.Command, _ []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger.Info("Starting subvox",
		zap.String("subsonic_url", config.Subsonic.ServerURL),
		zap.String("bus_url", config.Bus.URL),
		zap.String("language", config.App.Language))

	if err := validateConfig(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	svcs := initializeServices()
	return runServices(ctx, svcs)
}

type services struct {
	busClient  *bus.Client
	catalog    *subsonic.Client
	httpServer *httpserver.Server
	dispatcher *core.Dispatcher
}

func initializeServices() *services {
	recent := store.NewRecentTracks(config.App.RecentTracksSize, 0.001)

	busClient := bus.NewClient(&config.Bus, logger.Named("bus"))
	catalog := subsonic.NewClient(&config.Subsonic, logger.Named("subsonic"))
	httpServer := httpserver.NewServer(&config.Server, logger.Named("http"))

	// The bus carries both directions: intents in, speech and queue
	// commands out.
	dispatcher := core.NewDispatcher(config, busClient, catalog, busClient, recent,
		httpServer.Metrics(), logger.Named("dispatcher"))

	// Ready means both dependencies are usable: the bus socket is up and the
	// catalog answers an authenticated ping.
	httpServer.SetReadinessCheck(func(ctx context.Context) error {
		if !busClient.Connected() {
			return fmt.Errorf("message bus disconnected")
		}
		return catalog.Ping(ctx)
	})

	return &services{
		busClient:  busClient,
		catalog:    catalog,
		httpServer: httpServer,
		dispatcher: dispatcher,
	}
}

func runServices(ctx context.Context, svcs *services) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return svcs.httpServer.Start(gCtx)
	})

	g.Go(func() error {
		return svcs.dispatcher.Start(gCtx)
	})

	logger.Info("subvox started successfully",
		zap.String("http_addr", fmt.Sprintf("%s:%d", config.Server.Host, config.Server.Port)))

	if err := g.Wait(); err != nil {
		logger.Error("subvox stopped with error", zap.Error(err))
		if stopErr := svcs.dispatcher.Stop(context.Background()); stopErr != nil {
			logger.Debug("Failed to stop dispatcher gracefully", zap.Error(stopErr))
		}
		return err
	}

	if err := svcs.dispatcher.Stop(context.Background()); err != nil {
		logger.Debug("Failed to stop dispatcher gracefully", zap.Error(err))
	}

	logger.Info("subvox stopped gracefully")
	return nil
}

func validateConfig() error {
	if config.Subsonic.ServerURL == "" {
		return fmt.Errorf("subsonic-url is required (SUBVOX_SUBSONIC_URL)")
	}
	if !strings.HasPrefix(config.Subsonic.ServerURL, "http://") &&
		!strings.HasPrefix(config.Subsonic.ServerURL, "https://") {
		return fmt.Errorf("subsonic-url must start with http:// or https://")
	}
	if config.Subsonic.Username == "" {
		return fmt.Errorf("subsonic-user is required (SUBVOX_SUBSONIC_USER)")
	}
	if config.Subsonic.Password == "" {
		return fmt.Errorf("subsonic-password is required (SUBVOX_SUBSONIC_PASSWORD)")
	}
	if config.Bus.URL == "" {
		return fmt.Errorf("bus-url is required (SUBVOX_BUS_URL)")
	}
	return nil
}
