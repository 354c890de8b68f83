package snapshotnats

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"evedash/internal/logger"
	"evedash/pkg/models"
)

// Config holds NATS connection settings for snapshot publishing.
type Config struct {
	URL     string
	Subject string
	Name    string
	// MaxReconnects caps reconnect attempts; negative or zero retries forever.
	MaxReconnects int
	ReconnectWait time.Duration
	Timeout       time.Duration
}

// Publisher is the subset of a NATS connection the writer needs.
type Publisher interface {
	Publish(subject string, data []byte) error
	Flush() error
	Drain() error
}

// Writer publishes snapshots to a NATS subject.
type Writer struct {
	conn    Publisher
	subject string
}

func (c Config) withDefaults() Config {
	if c.URL == "" {
		c.URL = nats.DefaultURL
	}
	if c.Name == "" {
		c.Name = "evedash"
	}
	if c.MaxReconnects <= 0 {
		c.MaxReconnects = -1
	}
	if c.ReconnectWait <= 0 {
		c.ReconnectWait = 2 * time.Second
	}
	if c.Timeout <= 0 {
		c.Timeout = 5 * time.Second
	}
	return c
}

// NewWriter connects to NATS. The connection keeps reconnecting after a
// broker outage unless MaxReconnects is set.
func NewWriter(cfg Config) (*Writer, error) {
	cfg = cfg.withDefaults()

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warnf("NATS disconnected: %v", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			logger.Infof("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}
	return NewWriterWithConn(conn, cfg.Subject)
}

// NewWriterWithConn wraps an existing publisher.
func NewWriterWithConn(conn Publisher, subject string) (*Writer, error) {
	if subject == "" {
		return nil, fmt.Errorf("nats snapshot subject is empty")
	}
	return &Writer{conn: conn, subject: subject}, nil
}

// WriteSnapshot publishes one snapshot as JSON.
func (w *Writer) WriteSnapshot(ctx context.Context, snapshot *models.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := w.conn.Publish(w.subject, data); err != nil {
		return fmt.Errorf("publish snapshot to %s: %w", w.subject, err)
	}
	return nil
}

// Close flushes pending messages and drains the connection.
func (w *Writer) Close() error {
	if w == nil || w.conn == nil {
		return nil
	}
	if err := w.conn.Flush(); err != nil {
		logger.Warnf("NATS flush on close failed: %v", err)
	}
	return w.conn.Drain()
}
