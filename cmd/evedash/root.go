package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"evedash/config"
	"evedash/internal/input/file"
	inputredis "evedash/internal/input/redis"
	"evedash/internal/logger"
	"evedash/internal/output/snapshothttp"
	"evedash/internal/output/snapshotjson"
	"evedash/internal/output/snapshotnats"
	"evedash/internal/output/snapshotredis"
	"evedash/internal/pipeline"
	"evedash/internal/rules"
	"evedash/pkg/models"
)

var rootCmd = &cobra.Command{
	Use:   "evedash",
	Short: "Suricata EVE alert dashboard aggregator",
	Long: `evedash computes alert distributions over Suricata EVE events:
event types, signatures, severities, source and destination addresses,
optionally restricted to a date window.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.AddCommand(aggregateCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(seedCmd)
}

func initLogging(cfg config.LoggingConfig) error {
	return logger.Init(cfg.Enabled, cfg.Level, cfg.File, cfg.Console)
}

// loadEvents reads the configured event source once.
func loadEvents(ctx context.Context, cfg config.EventsConfig) ([]*models.Event, error) {
	switch strings.ToLower(cfg.Source) {
	case "", config.SourceFile:
		if cfg.Path == "" {
			return nil, fmt.Errorf("events.path is required for the file source")
		}
		events, _, err := file.Load(cfg.Path)
		return events, err
	case config.SourceRedis:
		loader, err := inputredis.NewLoader(inputredis.Config{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			Key:       cfg.Redis.Key,
			BatchSize: cfg.Redis.BatchSize,
		})
		if err != nil {
			return nil, err
		}
		defer loader.Close()
		events, _, err := loader.Load(ctx)
		return events, err
	default:
		return nil, fmt.Errorf("unknown event source %q", cfg.Source)
	}
}

// loadEngine returns nil when rules are disabled.
func loadEngine(enabled bool, path string) (rules.Engine, error) {
	if !enabled {
		return nil, nil
	}
	if strings.TrimSpace(path) == "" {
		logger.Warnf("Rules enabled but rules.path is empty; rule filtering disabled")
		return nil, nil
	}
	engine, stats, err := rules.NewSigmaEngine(path)
	if err != nil {
		return nil, err
	}
	logger.Infof("Sigma rules loaded: loaded=%d skipped_complex=%d skipped_datasource=%d skipped_invalid=%d files=%d",
		stats.Loaded, stats.SkippedComplex, stats.SkippedDatasource, stats.SkippedInvalid, stats.TotalFiles)
	if stats.Loaded == 0 {
		logger.Warnf("No compatible Sigma rules loaded; every event will be filtered out")
	}
	return engine, nil
}

// buildWriters opens one writer per configured output mode. Writers opened
// before a failure are closed.
func buildWriters(out config.OutputConfig) ([]pipeline.NamedWriter, error) {
	var writers []pipeline.NamedWriter
	fail := func(err error) ([]pipeline.NamedWriter, error) {
		for _, w := range writers {
			_ = w.Writer.Close()
		}
		return nil, err
	}

	for _, mode := range out.Modes {
		mode = strings.ToLower(strings.TrimSpace(mode))
		switch mode {
		case config.ModeFile:
			w, err := snapshotjson.NewWriter(snapshotjson.Config{Path: out.File.Path, MaxBytes: out.File.MaxBytes})
			if err != nil {
				return fail(err)
			}
			writers = append(writers, pipeline.NamedWriter{Name: mode, Writer: w})
			logger.Infof("Snapshot output: file (%s)", out.File.Path)
		case config.ModeHTTP:
			w, err := snapshothttp.NewWriter(snapshothttp.Config{
				URL:      out.HTTP.URL,
				Timeout:  out.HTTP.Timeout,
				Headers:  out.HTTP.Headers,
				Attempts: out.HTTP.Attempts,
			})
			if err != nil {
				return fail(err)
			}
			writers = append(writers, pipeline.NamedWriter{Name: mode, Writer: w})
			logger.Infof("Snapshot output: http (%s)", out.HTTP.URL)
		case config.ModeRedis:
			w, err := snapshotredis.NewWriter(snapshotredis.Config{
				Addr:      out.Redis.Addr,
				Password:  out.Redis.Password,
				DB:        out.Redis.DB,
				KeyPrefix: out.Redis.KeyPrefix,
				Channel:   out.Redis.Channel,
				TTL:       out.Redis.TTL,
			})
			if err != nil {
				return fail(err)
			}
			writers = append(writers, pipeline.NamedWriter{Name: mode, Writer: w})
			logger.Infof("Snapshot output: redis (%s key=%s)", out.Redis.Addr, w.LatestKey())
		case config.ModeNATS:
			w, err := snapshotnats.NewWriter(snapshotnats.Config{
				URL:           out.NATS.URL,
				Subject:       out.NATS.Subject,
				MaxReconnects: out.NATS.MaxReconnects,
			})
			if err != nil {
				return fail(err)
			}
			writers = append(writers, pipeline.NamedWriter{Name: mode, Writer: w})
			logger.Infof("Snapshot output: nats (%s subject=%s)", out.NATS.URL, out.NATS.Subject)
		}
	}
	return writers, nil
}
