package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"evedash/config"
	"evedash/internal/aggregate"
	"evedash/internal/logger"
	"evedash/internal/metrics"
	"evedash/internal/pipeline"
	"evedash/internal/server"
)

var serveConfig string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve aggregations and publish snapshots over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		return runServe(ctx, serveConfig)
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveConfig, "config", "", "config file (default: ./evedash.yml or beside the executable)")
}

func runServe(ctx context.Context, configArg string) error {
	configPath := config.FindConfigFile(configArg)
	if configArg != "" && configPath != configArg {
		return fmt.Errorf("config file not found: %s", configArg)
	}
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	ed := cfg.EveDash

	if err := initLogging(ed.Logging); err != nil {
		return fmt.Errorf("initialize logger: %w", err)
	}
	defer logger.Sync()

	logger.Infof("evedash starting")
	if configPath != "" {
		logger.Infof("Config loaded from: %s", configPath)
	} else {
		logger.Infof("No config file found; using defaults and environment")
	}

	events, err := loadEvents(ctx, ed.Events)
	if err != nil {
		return err
	}
	engine, err := loadEngine(ed.Rules.Enabled, ed.Rules.Path)
	if err != nil {
		return fmt.Errorf("load sigma rules: %w", err)
	}
	writers, err := buildWriters(ed.Output)
	if err != nil {
		return fmt.Errorf("open snapshot outputs: %w", err)
	}

	order, err := aggregate.ParseOrder(ed.Charts.Order)
	if err != nil {
		return err
	}
	reg := prometheus.NewRegistry()
	dash := pipeline.NewDashboard(events, engine, metrics.New(reg), aggregate.SeriesOptions{Order: order, Limit: ed.Charts.Limit}, writers)
	defer func() {
		if err := dash.Close(); err != nil {
			logger.Errorf("Error closing snapshot outputs: %v", err)
		}
	}()

	srv := server.New(dash, reg)
	err = srv.Run(ctx, server.Config{
		Addr:         ed.Server.Addr,
		ReadTimeout:  ed.Server.ReadTimeout,
		WriteTimeout: ed.Server.WriteTimeout,
	})
	logger.Infof("evedash stopped")
	return err
}
