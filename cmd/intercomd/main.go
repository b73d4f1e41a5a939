package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/openintercom/intercomd/internal/app"
	"github.com/openintercom/intercomd/internal/auth"
	"github.com/openintercom/intercomd/internal/config"
	"github.com/openintercom/intercomd/internal/log"
)

func main() {
	var configPath string

	root := &cobra.Command{
		Use:          "intercomd",
		Short:        "Smart intercom orchestration service",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd, configPath)
		},
	}
	root.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")

	hashSecret := &cobra.Command{
		Use:   "hash-secret <secret>",
		Short: "Print the bcrypt hash of a panel provisioning secret",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	}
	root.AddCommand(hashSecret)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func runServe(cmd *cobra.Command, configPath string) error {
	bootLogger := log.New("info")

	cfg, path, err := config.Load(bootLogger, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().Str("config", path).Str("device_id", cfg.DeviceID).Msg("starting intercomd")

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("init app: %w", err)
	}

	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("run: %w", err)
	}

	logger.Info().Msg("intercomd stopped")
	return nil
}
