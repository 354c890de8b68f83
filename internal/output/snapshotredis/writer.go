package snapshotredis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	redis "github.com/redis/go-redis/v9"

	"evedash/pkg/models"
)

// Config configures Redis access for snapshot publishing.
type Config struct {
	Addr      string
	Password  string
	DB        int
	KeyPrefix string
	Channel   string
	TTL       time.Duration
}

// Writer stores the latest snapshot under a key and announces it on a channel.
type Writer struct {
	client  *redis.Client
	prefix  string
	channel string
	ttl     time.Duration
}

// NewWriter connects to Redis and verifies the connection.
func NewWriter(cfg Config) (*Writer, error) {
	if strings.TrimSpace(cfg.Addr) == "" {
		cfg.Addr = "127.0.0.1:6379"
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
		return nil, fmt.Errorf("ping redis snapshot sink: %w", err)
	}

	return NewWriterWithClient(client, cfg), nil
}

// NewWriterWithClient wraps an existing client. The writer owns the client.
func NewWriterWithClient(client *redis.Client, cfg Config) *Writer {
	prefix := strings.TrimSpace(cfg.KeyPrefix)
	if prefix == "" {
		prefix = "evedash:snapshot"
	}
	return &Writer{
		client:  client,
		prefix:  prefix,
		channel: strings.TrimSpace(cfg.Channel),
		ttl:     cfg.TTL,
	}
}

// LatestKey is the key holding the most recent snapshot.
func (w *Writer) LatestKey() string {
	return w.prefix + ":latest"
}

// WriteSnapshot stores the snapshot and publishes it when a channel is set.
func (w *Writer) WriteSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}

	pipe := w.client.TxPipeline()
	pipe.Set(ctx, w.LatestKey(), data, w.ttl)
	if w.channel != "" {
		pipe.Publish(ctx, w.channel, data)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("write snapshot redis keys: %w", err)
	}
	return nil
}

// Latest reads back the most recent snapshot, or nil when none is stored.
func (w *Writer) Latest(ctx context.Context) (*models.Snapshot, error) {
	data, err := w.client.Get(ctx, w.LatestKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read latest snapshot: %w", err)
	}
	var snap models.Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("decode latest snapshot: %w", err)
	}
	return &snap, nil
}

// Close closes Redis resources.
func (w *Writer) Close() error {
	if w == nil || w.client == nil {
		return nil
	}
	return w.client.Close()
}
