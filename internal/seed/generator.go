// Package seed generates synthetic Suricata EVE fixtures.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"evedash/pkg/models"
)

// EVETimeLayout is the timestamp layout Suricata writes.
const EVETimeLayout = "2006-01-02T15:04:05.000000-0700"

// Config controls fixture generation.
type Config struct {
	Count      int
	AlertRatio float64
	// Seed fixes the random source; 0 seeds from crypto/rand.
	Seed int64
	End        time.Time
	Span       time.Duration
	// PoolSize bounds the number of distinct source and destination addresses.
	PoolSize int
}

// DefaultConfig returns a week of 1000 events ending now.
func DefaultConfig() Config {
	return Config{
		Count:      1000,
		AlertRatio: 0.3,
		Seed:       1,
		End:        time.Now().UTC(),
		Span:       7 * 24 * time.Hour,
		PoolSize:   12,
	}
}

var (
	eventTypes   = []interface{}{"dns", "http", "flow", "tls"}
	eventWeights = []float32{4, 3, 5, 2}

	signatures = []string{
		"ET SCAN Nmap Scripting Engine User-Agent Detected",
		"ET SCAN Potential SSH Scan",
		"ET POLICY Outdated Windows Flash Version IE",
		"ET MALWARE Possible Windows executable sent when remote host claims to send html content",
		"ET WEB_SERVER SQL Injection Attempt",
		"ET DNS Query to a *.top domain - Likely Hostile",
		"GPL ICMP_INFO PING *NIX",
		"SURICATA STREAM ESTABLISHED packet out of window",
	}
	severityWeights = []float32{1, 3, 4, 2, 1}
)

// Generate produces cfg.Count events. Output is identical for equal configs.
func Generate(cfg Config) ([]*models.Event, error) {
	if cfg.Count < 0 {
		return nil, fmt.Errorf("count must be non-negative, got %d", cfg.Count)
	}
	if cfg.AlertRatio < 0 || cfg.AlertRatio > 1 {
		return nil, fmt.Errorf("alert ratio must be within [0,1], got %v", cfg.AlertRatio)
	}
	if cfg.Span <= 0 {
		cfg.Span = 24 * time.Hour
	}
	if cfg.PoolSize <= 0 {
		cfg.PoolSize = 12
	}
	if cfg.End.IsZero() {
		cfg.End = time.Now().UTC()
	}

	faker := gofakeit.New(cfg.Seed)
	srcPool := addressPool(faker, cfg.PoolSize)
	destPool := addressPool(faker, cfg.PoolSize)
	start := cfg.End.Add(-cfg.Span)

	severities := make([]interface{}, 0, 5)
	for s := 1; s <= 5; s++ {
		severities = append(severities, s)
	}

	events := make([]*models.Event, 0, cfg.Count)
	for i := 0; i < cfg.Count; i++ {
		ev := &models.Event{
			SrcIP:     faker.RandomString(srcPool),
			DestIP:    faker.RandomString(destPool),
			Timestamp: spreadTime(faker, start, cfg.Span, i, cfg.Count).Format(EVETimeLayout),
		}

		if faker.Float64Range(0, 1) < cfg.AlertRatio {
			sev, err := faker.Weighted(severities, severityWeights)
			if err != nil {
				return nil, fmt.Errorf("pick severity: %w", err)
			}
			ev.EventType = "alert"
			ev.Alert = &models.Alert{
				Signature: faker.RandomString(signatures),
				Severity:  sev.(int),
			}
		} else {
			et, err := faker.Weighted(eventTypes, eventWeights)
			if err != nil {
				return nil, fmt.Errorf("pick event type: %w", err)
			}
			ev.EventType = et.(string)
		}
		events = append(events, ev)
	}
	return events, nil
}

func addressPool(faker *gofakeit.Faker, n int) []string {
	seen := make(map[string]struct{}, n)
	pool := make([]string, 0, n)
	for len(pool) < n {
		ip := faker.IPv4Address()
		if _, ok := seen[ip]; ok {
			continue
		}
		seen[ip] = struct{}{}
		pool = append(pool, ip)
	}
	return pool
}

// spreadTime spaces events evenly across the window with jitter.
func spreadTime(faker *gofakeit.Faker, start time.Time, span time.Duration, index, total int) time.Time {
	interval := float64(span) / float64(total)
	offset := float64(index)*interval + faker.Float64Range(0, interval*0.8)
	if offset > float64(span) {
		offset = float64(span)
	}
	return start.Add(time.Duration(offset)).UTC().Truncate(time.Microsecond)
}

// WriteJSON writes events as a JSON array, or one object per line when jsonl is set.
func WriteJSON(w io.Writer, events []*models.Event, jsonl bool) error {
	if !jsonl {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(events); err != nil {
			return fmt.Errorf("encode events: %w", err)
		}
		return nil
	}

	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return fmt.Errorf("encode event: %w", err)
		}
	}
	return nil
}
