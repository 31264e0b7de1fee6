package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cartridge/experience/internal/config"
	"github.com/cartridge/experience/internal/events"
	httpServer "github.com/cartridge/experience/internal/http"
	"github.com/cartridge/experience/internal/replay"
	"github.com/cartridge/experience/internal/service"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "experience-server",
	Short: "Prioritized experience replay service",
	Long: `Serves a prioritized experience replay buffer over HTTP.

Environment adapters append transitions and terminal markers; the learner
draws priority-ordered mini-batches and reports refined TD-error priorities
back after each training step.`,
	RunE: runServer,
}

func init() {
	cfg = config.Default()

	// Server settings
	rootCmd.Flags().StringVar(&cfg.Host, "host", cfg.Host, "HTTP listen host")
	rootCmd.Flags().IntVar(&cfg.Port, "port", cfg.Port, "HTTP listen port")
	rootCmd.Flags().DurationVar(&cfg.ReadTimeout, "read-timeout", cfg.ReadTimeout, "HTTP read timeout")
	rootCmd.Flags().DurationVar(&cfg.WriteTimeout, "write-timeout", cfg.WriteTimeout, "HTTP write timeout")
	rootCmd.Flags().DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "Graceful shutdown timeout")

	// Buffer settings
	rootCmd.Flags().IntVar(&cfg.Capacity, "capacity", cfg.Capacity, "Maximum number of transitions to retain")
	rootCmd.Flags().IntVar(&cfg.BatchSize, "batch-size", cfg.BatchSize, "Mini-batch size for prioritized draws")

	// Event publishing
	rootCmd.Flags().StringVar(&cfg.NATSURL, "nats-url", cfg.NATSURL, "NATS server URL (empty disables event publishing)")
	rootCmd.Flags().StringVar(&cfg.NATSSubject, "nats-subject", cfg.NATSSubject, "NATS subject prefix for buffer events")

	// Logging
	rootCmd.Flags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "Log level (debug, info, warn, error)")

	// Bind flags to viper for environment variable support
	viper.BindPFlags(rootCmd.Flags())
	viper.SetEnvPrefix("REPLAY")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
}

func runServer(cmd *cobra.Command, args []string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	logger := zerolog.New(os.Stdout).Level(level).With().Timestamp().Logger()

	store, err := replay.New(cfg.Capacity)
	if err != nil {
		return err
	}

	var publisher events.Publisher = events.NoopPublisher{}
	if cfg.NATSURL != "" {
		natsPublisher, err := events.NewNATSPublisher(cfg.NATSURL, cfg.NATSSubject, logger)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS at %s: %w", cfg.NATSURL, err)
		}
		defer natsPublisher.Close()
		publisher = natsPublisher
	}

	sampler := service.NewSampler(store, cfg.BatchSize, publisher, logger)
	h := httpServer.NewServer(sampler, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	srv := &http.Server{
		Addr:              addr,
		Handler:           h.Routes(),
		ReadHeaderTimeout: cfg.ReadTimeout,
		ReadTimeout:       cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
	}

	done := make(chan struct{})
	go func() {
		logger.Info().
			Str("addr", addr).
			Int("capacity", cfg.Capacity).
			Int("batch_size", cfg.BatchSize).
			Msg("replay HTTP server starting")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
		close(done)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	<-sig
	logger.Info().Msg("shutdown signal received")

	ctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	<-done
	logger.Info().Msg("replay server stopped")
	return nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
