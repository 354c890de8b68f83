// Package redis loads EVE records that Suricata's redis output appended to a list.
package redis

import (
	"context"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"evedash/internal/input/file"
	"evedash/internal/logger"
	"evedash/internal/transform/eve"
	"evedash/pkg/models"
)

// Config configures the Redis list source.
type Config struct {
	Addr      string
	Password  string
	DB        int
	Key       string
	BatchSize int64
}

// Loader reads a Redis list without consuming it.
type Loader struct {
	client    *redis.Client
	key       string
	batchSize int64
}

// NewLoader creates a loader for list-based EVE output and pings the server.
func NewLoader(cfg Config) (*Loader, error) {
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:6379"
	}
	if cfg.Key == "" {
		return nil, fmt.Errorf("redis key is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis event source: %w", err)
	}
	return NewLoaderWithClient(client, cfg.Key, cfg.BatchSize), nil
}

// NewLoaderWithClient wraps an existing client. The loader owns the client.
func NewLoaderWithClient(client *redis.Client, key string, batchSize int64) *Loader {
	if batchSize <= 0 {
		batchSize = 1000
	}
	return &Loader{client: client, key: key, batchSize: batchSize}
}

// Load reads the whole list in pages. Malformed entries are skipped.
func (l *Loader) Load(ctx context.Context) ([]*models.Event, file.LoadStats, error) {
	stats := file.LoadStats{Format: "redis"}
	events := []*models.Event{}

	for start := int64(0); ; start += l.batchSize {
		page, err := l.client.LRange(ctx, l.key, start, start+l.batchSize-1).Result()
		if err != nil {
			return nil, stats, fmt.Errorf("read redis list %s: %w", l.key, err)
		}
		for i, raw := range page {
			event, err := eve.Parse([]byte(raw))
			if err != nil {
				logger.Warnf("Skipping malformed EVE entry %s[%d]: %v", l.key, start+int64(i), err)
				stats.Skipped++
				continue
			}
			events = append(events, event)
		}
		if int64(len(page)) < l.batchSize {
			break
		}
	}

	stats.Records = len(events)
	logger.Infof("Loaded %d events from redis list %s (skipped=%d)", len(events), l.key, stats.Skipped)
	return events, stats, nil
}

// Close closes the loader.
func (l *Loader) Close() error {
	return l.client.Close()
}
