package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/relaychat/internal/app"
	"github.com/vovakirdan/relaychat/internal/config"
	rclog "github.com/vovakirdan/relaychat/internal/log"
)

type rootOptions struct {
	configPath string
	overrides  config.Config
	// requireToken is set only when --require-token was given.
	requireToken *bool
}

// apply layers command-line overrides onto cfg.
func (o *rootOptions) apply(cfg *config.Config) {
	cfg.UpdateFrom(o.overrides)
	if o.requireToken != nil {
		cfg.RequireToken = *o.requireToken
	}
}

func newRootCmd() *cobra.Command {
	return newRootCmdWith(&rootOptions{})
}

func newRootCmdWith(opts *rootOptions) *cobra.Command {
	var requireToken bool

	cmd := &cobra.Command{
		Use:           "relaychat",
		Short:         "Room-based websocket chat relay",
		SilenceUsage:  true,
		SilenceErrors: true,
		PreRun: func(cmd *cobra.Command, _ []string) {
			if cmd.Flags().Changed("require-token") {
				opts.requireToken = &requireToken
			}
		},
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServer(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configPath, "config", "", "config file (default ./config.yaml or $RELAYCHAT_CONFIG_DEFAULT_PATH/config.yaml)")
	flags.StringVar(&opts.overrides.Addr, "addr", "", "HTTP listen address")
	flags.StringVar(&opts.overrides.LogLevel, "log-level", "", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.overrides.DatabasePath, "db", "", "SQLite database path")
	cmd.Flags().BoolVar(&requireToken, "require-token", false, "require a valid session token on authenticate")

	cmd.AddCommand(newUserAddCmd(opts))
	return cmd
}

// loadConfig resolves configuration and builds the logger it asks for.
func loadConfig(opts *rootOptions) (config.Config, *zerolog.Logger, error) {
	bootstrap := rclog.New(opts.overrides.LogLevel)

	cfg, path, err := config.Load(bootstrap, opts.configPath)
	if err != nil {
		bootstrap.Error().Err(err).Str("path", path).Msg("failed to load config")
		return cfg, bootstrap, err
	}
	opts.apply(&cfg)

	logger := rclog.New(cfg.LogLevel)
	logger.Debug().Str("path", path).Msg("config loaded")
	return cfg, logger, nil
}

func runServer(ctx context.Context, opts *rootOptions) error {
	cfg, logger, err := loadConfig(opts)
	if err != nil {
		return err
	}

	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		logger.Error().Err(err).Msg("failed to initialize app")
		return fmt.Errorf("init app: %w", err)
	}

	logger.Info().Str("addr", cfg.Addr).Strs("rooms", cfg.DefaultRooms).Msg("starting relaychat server")
	if err := application.Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
