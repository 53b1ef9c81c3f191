package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"

	"github.com/vovakirdan/wirechat-relay/internal/app"
	"github.com/vovakirdan/wirechat-relay/internal/config"
	"github.com/vovakirdan/wirechat-relay/internal/log"
)

type flags struct {
	configPath string
	overrides  config.Config
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:           "wirechat-relay",
		Short:         "Room-based chat relay over WebSocket",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(f)
			if err != nil {
				return err
			}

			logger := log.New(cfg.LogLevel, cfg.LogFormat)
			gin.SetMode(gin.ReleaseMode)

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			logger.Info().
				Str("addr", cfg.Addr).
				Int("room_buffer_size", cfg.RoomBufferSize).
				Msg("starting wirechat relay")

			if err := app.New(&cfg, logger).Run(ctx); err != nil {
				return fmt.Errorf("server exited with error: %w", err)
			}
			logger.Info().Msg("server stopped")
			return nil
		},
	}

	fs := cmd.Flags()
	fs.StringVar(&f.configPath, "config", "", "path to config file (default: config.yaml)")
	fs.StringVar(&f.overrides.Addr, "addr", "", "HTTP listen address")
	fs.StringVar(&f.overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	fs.StringVar(&f.overrides.LogFormat, "log-format", "", "log format: console or json")
	fs.IntVar(&f.overrides.RoomBufferSize, "room-buffer", 0, "lines retained per room for slow readers")
	fs.IntVar(&f.overrides.RateLimitPerMinute, "rate-limit", 0, "chat lines per minute per session, 0 disables")

	return cmd
}

// loadConfig reads file and environment, then applies flags on top.
func loadConfig(f flags) (config.Config, error) {
	bootLogger := log.New("info", "console")

	cfg, path, err := config.Load(bootLogger, f.configPath)
	if err != nil {
		return config.Config{}, fmt.Errorf("load config: %w", err)
	}
	bootLogger.Debug().Str("path", path).Msg("config loaded")

	cfg.UpdateFrom(f.overrides)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	return cfg, nil
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
