package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/gramboard/instagram-insights/client"
	"github.com/gramboard/instagram-insights/common"
	"github.com/gramboard/instagram-insights/config"
	"github.com/gramboard/instagram-insights/dashboard"
	"github.com/gramboard/instagram-insights/server"
	"github.com/gramboard/instagram-insights/state"
)

var (
	configPath string
	logLevel   string
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix

	root := &cobra.Command{
		Use:   "instagram-insights",
		Short: "Instagram business account analytics dashboard",
		Long: "Fetches media, stories and audience insights from the Instagram " +
			"Graph API, normalizes them into derived metrics and serves the " +
			"resulting dashboard over HTTP.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setupLogging()
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to a YAML config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (trace|debug|info|warn|error)")

	root.AddCommand(serveCommand())
	root.AddCommand(dumpCommand())

	if err := root.Execute(); err != nil {
		log.Fatal().Err(err).Msg("Command failed")
	}
}

func setupLogging() error {
	if logLevel == "" {
		return nil
	}
	level, err := zerolog.ParseLevel(config.ParseLogLevel(logLevel))
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", logLevel, err)
	}
	zerolog.SetGlobalLevel(level)
	return nil
}

func serveCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the dashboard HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			graphClient, err := newGraphClient(cfg)
			if err != nil {
				return err
			}

			store, err := newSnapshotStore(cfg)
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			srv := server.New(dashboard.NewBuilder(graphClient, cfg), store, cfg)
			return srv.Run(ctx)
		},
	}
}

func dumpCommand() *cobra.Command {
	var pretty bool
	cmd := &cobra.Command{
		Use:   "dump",
		Short: "Build one dashboard payload and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			graphClient, err := newGraphClient(cfg)
			if err != nil {
				return err
			}

			runID := common.GenerateRunID()
			log.Info().Str("runId", runID).Msg("Building dashboard payload")

			payload, err := dashboard.NewBuilder(graphClient, cfg).Build(cmd.Context())
			if err != nil {
				return fmt.Errorf("dashboard build failed: %w", err)
			}

			enc := json.NewEncoder(os.Stdout)
			if pretty {
				enc.SetIndent("", "  ")
			}
			return enc.Encode(payload)
		},
	}
	cmd.Flags().BoolVar(&pretty, "pretty", false, "indent the JSON output")
	return cmd
}

func loadConfig() (common.Config, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return common.Config{}, err
	}
	if logLevel == "" {
		level, err := zerolog.ParseLevel(config.ParseLogLevel(cfg.LogLevel))
		if err == nil {
			zerolog.SetGlobalLevel(level)
		}
	}
	return cfg, nil
}

func newGraphClient(cfg common.Config) (*client.GraphClient, error) {
	return client.NewGraphClient(client.GraphConfig{
		BaseURL:     cfg.APIBaseURL,
		APIVersion:  cfg.APIVersion,
		AccessToken: cfg.AccessToken,
		UserID:      cfg.UserID,
		Timeout:     cfg.RequestTimeout,
	})
}

func newSnapshotStore(cfg common.Config) (state.SnapshotStore, error) {
	storeConfig := state.Config{StorageRoot: cfg.StorageRoot}
	if cfg.UseDapr {
		storeConfig.DaprConfig = &state.DaprConfig{StateStoreName: cfg.StateStoreName}
	}
	return state.NewStoreFactory().Create(storeConfig)
}
