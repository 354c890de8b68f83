package seed

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evedash/internal/aggregate"
	"evedash/internal/input/file"
)

func testConfig() Config {
	return Config{
		Count:      400,
		AlertRatio: 0.5,
		Seed:       42,
		End:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Span:       48 * time.Hour,
		PoolSize:   5,
	}
}

func TestGenerateDeterministic(t *testing.T) {
	a, err := Generate(testConfig())
	require.NoError(t, err)
	b, err := Generate(testConfig())
	require.NoError(t, err)

	require.Len(t, a, 400)
	assert.Equal(t, a, b)
}

func TestGenerateShape(t *testing.T) {
	cfg := testConfig()
	events, err := Generate(cfg)
	require.NoError(t, err)

	start := cfg.End.Add(-cfg.Span)
	srcs := map[string]struct{}{}
	alerts := 0
	for _, ev := range events {
		ts, ok := aggregate.ParseTimestamp(ev.Timestamp)
		require.True(t, ok, ev.Timestamp)
		assert.False(t, ts.Before(start), ev.Timestamp)
		assert.False(t, ts.After(cfg.End), ev.Timestamp)

		srcs[ev.SrcIP] = struct{}{}
		if ev.Alert == nil {
			assert.NotEqual(t, "alert", ev.EventType)
			continue
		}
		alerts++
		assert.Equal(t, "alert", ev.EventType)
		assert.NotEmpty(t, ev.Alert.Signature)
		assert.GreaterOrEqual(t, ev.Alert.Severity, 1)
		assert.LessOrEqual(t, ev.Alert.Severity, 5)
	}

	assert.LessOrEqual(t, len(srcs), cfg.PoolSize)
	assert.InDelta(t, 200, alerts, 60)
}

func TestGenerateValidates(t *testing.T) {
	cfg := testConfig()
	cfg.AlertRatio = 1.5
	_, err := Generate(cfg)
	assert.Error(t, err)

	cfg = testConfig()
	cfg.Count = -1
	_, err = Generate(cfg)
	assert.Error(t, err)
}

func TestWriteJSONRoundTripsThroughReader(t *testing.T) {
	events, err := Generate(testConfig())
	require.NoError(t, err)

	for _, jsonl := range []bool{false, true} {
		var buf bytes.Buffer
		require.NoError(t, WriteJSON(&buf, events, jsonl))

		if jsonl {
			assert.Equal(t, len(events), strings.Count(buf.String(), "\n"))
		} else {
			assert.True(t, strings.HasPrefix(buf.String(), "["))
		}

		loaded, stats, err := file.Read(&buf)
		require.NoError(t, err)
		assert.Equal(t, len(events), stats.Records)
		assert.Equal(t, aggregate.Aggregate(events, aggregate.DateFilter{}), aggregate.Aggregate(loaded, aggregate.DateFilter{}))
	}
}
