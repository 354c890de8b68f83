package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"evedash/internal/aggregate"
	"evedash/internal/logger"
	"evedash/internal/metrics"
	"evedash/internal/rules"
	"evedash/pkg/models"
)

// NamedWriter pairs a writer with the sink name used in logs and metrics.
type NamedWriter struct {
	Name   string
	Writer SnapshotWriter
}

// Dashboard recomputes aggregations on demand over a fixed event set.
// The event slice is read-only after construction, so Compute may run
// concurrently.
type Dashboard struct {
	events  []*models.Event
	engine  rules.Engine
	metrics *metrics.Metrics
	series  aggregate.SeriesOptions
	writers []NamedWriter
	now     func() time.Time
}

// NewDashboard creates a dashboard. engine, m and writers may be nil.
func NewDashboard(events []*models.Event, engine rules.Engine, m *metrics.Metrics, series aggregate.SeriesOptions, writers []NamedWriter) *Dashboard {
	return &Dashboard{
		events:  events,
		engine:  engine,
		metrics: m,
		series:  series,
		writers: writers,
		now:     time.Now,
	}
}

// Events returns the number of loaded events.
func (d *Dashboard) Events() int {
	return len(d.events)
}

// SeriesOptions returns the default chart options.
func (d *Dashboard) SeriesOptions() aggregate.SeriesOptions {
	return d.series
}

// Aggregate runs the rule filter and the aggregation for one filter.
func (d *Dashboard) Aggregate(filter aggregate.DateFilter) (*models.AggregationResult, models.AggregationStats) {
	started := time.Now()
	selected := rules.Filter(d.engine, d.events)
	res, stats := aggregate.AggregateWithStats(selected, filter)
	d.metrics.ObserveAggregation(stats, time.Since(started))
	logger.Debugf("Aggregated events: scanned=%d counted=%d no_alert=%d out_of_window=%d bad_timestamp=%d",
		stats.Scanned, stats.Counted, stats.NoAlert, stats.OutOfWindow, stats.BadTimestamp)
	return res, stats
}

// Compute builds a snapshot with chart series using opts.
func (d *Dashboard) Compute(filter aggregate.DateFilter, opts aggregate.SeriesOptions) *models.Snapshot {
	res, stats := d.Aggregate(filter)
	return &models.Snapshot{
		ID:          uuid.NewString(),
		GeneratedAt: d.now().UTC(),
		Start:       filter.Start,
		End:         filter.End,
		Result:      res,
		Charts:      aggregate.Charts(res, opts),
		Stats:       stats,
	}
}

// Publish computes a snapshot and hands it to every writer.
// All writers are attempted; their errors are joined.
func (d *Dashboard) Publish(ctx context.Context, filter aggregate.DateFilter) (*models.Snapshot, error) {
	snapshot := d.Compute(filter, d.series)

	var errs []error
	for _, w := range d.writers {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		err := w.Writer.WriteSnapshot(ctx, snapshot)
		d.metrics.ObserveWrite(w.Name, err)
		if err != nil {
			logger.Errorf("Failed to write snapshot %s to %s: %v", snapshot.ID, w.Name, err)
			errs = append(errs, fmt.Errorf("%s: %w", w.Name, err))
			continue
		}
		logger.Debugf("Snapshot %s written to %s", snapshot.ID, w.Name)
	}
	return snapshot, errors.Join(errs...)
}

// Close releases writer resources.
func (d *Dashboard) Close() error {
	var errs []error
	for _, w := range d.writers {
		if err := w.Writer.Close(); err != nil {
			logger.Errorf("Failed to close %s writer: %v", w.Name, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
