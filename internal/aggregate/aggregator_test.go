package aggregate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"evedash/pkg/models"
)

func alertEvent(ts, eventType, src, dst, sig string, sev int) *models.Event {
	return &models.Event{
		EventType: eventType,
		SrcIP:     src,
		DestIP:    dst,
		Timestamp: ts,
		Alert:     &models.Alert{Signature: sig, Severity: sev},
	}
}

func at(t time.Time) *time.Time { return &t }

func TestAggregateEmptyInputSeedsSeverities(t *testing.T) {
	res := Aggregate(nil, DateFilter{})

	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, res.Severities)
	assert.Empty(t, res.EventTypes)
	assert.Empty(t, res.Signatures)
	assert.Empty(t, res.SrcIPs)
	assert.Empty(t, res.DestIPs)
}

func TestAggregateSingleAlertEvent(t *testing.T) {
	events := []*models.Event{
		alertEvent("2023-01-01T00:00:00Z", "alert", "1.1.1.1", "2.2.2.2", "X", 3),
	}

	res := Aggregate(events, DateFilter{})

	assert.Equal(t, map[string]int{"alert": 1}, res.EventTypes)
	assert.Equal(t, map[string]int{"X": 1}, res.Signatures)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 1, 4: 0, 5: 0}, res.Severities)
	assert.Equal(t, map[string]int{"1.1.1.1": 1}, res.SrcIPs)
	assert.Equal(t, map[string]int{"2.2.2.2": 1}, res.DestIPs)
}

func TestAggregateSkipsEventsWithoutAlert(t *testing.T) {
	events := []*models.Event{
		{EventType: "dns", SrcIP: "10.0.0.1", DestIP: "10.0.0.2", Timestamp: "2023-01-01T00:00:00Z"},
		{EventType: "flow", SrcIP: "10.0.0.3", DestIP: "10.0.0.4", Timestamp: "2023-01-01T00:00:00Z"},
	}

	res, stats := AggregateWithStats(events, DateFilter{})

	assert.Empty(t, res.EventTypes)
	assert.Empty(t, res.SrcIPs)
	assert.Empty(t, res.DestIPs)
	assert.Equal(t, 2, stats.NoAlert)
	assert.Equal(t, 0, stats.Counted)
}

func TestAggregateCountersAreIndependent(t *testing.T) {
	events := []*models.Event{
		{Timestamp: "2023-01-01T00:00:00Z", SrcIP: "10.0.0.1", Alert: &models.Alert{}},
		{EventType: "alert", Timestamp: "2023-01-01T00:00:00Z", Alert: &models.Alert{Signature: "ET SCAN", Severity: 0}},
	}

	res := Aggregate(events, DateFilter{})

	assert.Equal(t, map[string]int{"alert": 1}, res.EventTypes)
	assert.Equal(t, map[string]int{"ET SCAN": 1}, res.Signatures)
	assert.Equal(t, map[string]int{"10.0.0.1": 1}, res.SrcIPs)
	assert.Empty(t, res.DestIPs)
	assert.Equal(t, map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0}, res.Severities)
}

func TestAggregateKeepsOffRangeSeverities(t *testing.T) {
	events := []*models.Event{
		alertEvent("2023-01-01T00:00:00Z", "alert", "", "", "A", 7),
		alertEvent("2023-01-01T00:00:00Z", "alert", "", "", "B", -1),
		alertEvent("2023-01-01T00:00:00Z", "alert", "", "", "C", 2),
	}

	res := Aggregate(events, DateFilter{})

	assert.Equal(t, map[int]int{-1: 1, 1: 0, 2: 1, 3: 0, 4: 0, 5: 0, 7: 1}, res.Severities)
}

func TestAggregateSeverityTotals(t *testing.T) {
	events := []*models.Event{
		alertEvent("2023-01-01T00:00:00Z", "alert", "a", "b", "s1", 1),
		alertEvent("2023-01-01T00:00:00Z", "alert", "a", "b", "s1", 5),
		alertEvent("2023-01-01T00:00:00Z", "alert", "a", "b", "s2", 5),
		alertEvent("2023-01-01T00:00:00Z", "alert", "a", "b", "s3", 0),
		{EventType: "dns", Timestamp: "2023-01-01T00:00:00Z"},
		nil,
	}

	res, stats := AggregateWithStats(events, DateFilter{})

	sum := 0
	for _, c := range res.Severities {
		sum += c
	}
	assert.Equal(t, 3, sum)
	assert.Equal(t, 5, stats.Scanned)
	assert.Equal(t, 4, stats.Counted)
	assert.Equal(t, 1, stats.NoAlert)
}

func TestAggregateFilterBoundsAreInclusive(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	events := []*models.Event{
		alertEvent("2023-01-01T00:00:00Z", "alert", "start", "", "edge", 1),
		alertEvent("2023-01-02T00:00:00Z", "alert", "end", "", "edge", 1),
		alertEvent("2023-01-01T12:00:00+00:00", "alert", "mid", "", "inner", 2),
	}

	res := Aggregate(events, DateFilter{Start: at(start), End: at(end)})

	assert.Equal(t, map[string]int{"start": 1, "end": 1, "mid": 1}, res.SrcIPs)
	assert.Equal(t, map[string]int{"edge": 2, "inner": 1}, res.Signatures)
}

func TestAggregateFilterExcludesOutsideWindow(t *testing.T) {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)
	events := []*models.Event{
		alertEvent("2022-12-31T23:59:59.999Z", "alert", "early", "x", "before", 4),
		alertEvent("2023-01-02T00:00:00.000001Z", "alert", "late", "y", "after", 4),
		alertEvent("2023-01-01T06:00:00Z", "alert", "ok", "z", "inside", 4),
	}

	res, stats := AggregateWithStats(events, DateFilter{Start: at(start), End: at(end)})

	assert.Equal(t, map[string]int{"alert": 1}, res.EventTypes)
	assert.Equal(t, map[string]int{"inside": 1}, res.Signatures)
	assert.Equal(t, 1, res.Severities[4])
	assert.Equal(t, map[string]int{"ok": 1}, res.SrcIPs)
	assert.Equal(t, map[string]int{"z": 1}, res.DestIPs)
	assert.Equal(t, 2, stats.OutOfWindow)
}

func TestAggregateOpenEndedFilters(t *testing.T) {
	pivot := time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC)
	events := []*models.Event{
		alertEvent("2023-05-01T00:00:00Z", "alert", "may", "", "s", 1),
		alertEvent("2023-07-01T00:00:00Z", "alert", "jul", "", "s", 1),
	}

	onlyStart := Aggregate(events, DateFilter{Start: at(pivot)})
	onlyEnd := Aggregate(events, DateFilter{End: at(pivot)})

	assert.Equal(t, map[string]int{"jul": 1}, onlyStart.SrcIPs)
	assert.Equal(t, map[string]int{"may": 1}, onlyEnd.SrcIPs)
}

func TestAggregateUnparsableTimestampAsymmetry(t *testing.T) {
	events := []*models.Event{
		alertEvent("not-a-date", "alert", "10.1.1.1", "10.2.2.2", "weird", 2),
		alertEvent("", "alert", "10.1.1.1", "10.2.2.2", "weird", 2),
	}
	far := time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

	open := Aggregate(events, DateFilter{})
	assert.Equal(t, map[string]int{"weird": 2}, open.Signatures)

	res, stats := AggregateWithStats(events, DateFilter{Start: at(far)})
	assert.Empty(t, res.Signatures)
	assert.Equal(t, 0, res.Severities[2])
	assert.Equal(t, 2, stats.BadTimestamp)

	res = Aggregate(events, DateFilter{End: at(far.AddDate(100, 0, 0))})
	assert.Empty(t, res.Signatures)
}

func TestAggregateInvertedWindowCountsNothing(t *testing.T) {
	start := time.Date(2023, 2, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	events := []*models.Event{
		alertEvent("2023-01-15T00:00:00Z", "alert", "a", "b", "s", 1),
	}

	res := Aggregate(events, DateFilter{Start: at(start), End: at(end)})

	assert.Empty(t, res.Signatures)
}

func TestAggregateIsIdempotentAndFresh(t *testing.T) {
	events := []*models.Event{
		alertEvent("2023-01-01T00:00:00Z", "alert", "1.1.1.1", "2.2.2.2", "X", 3),
		alertEvent("2023-01-01T00:00:01Z", "alert", "1.1.1.1", "3.3.3.3", "Y", 1),
	}

	first := Aggregate(events, DateFilter{})
	second := Aggregate(events, DateFilter{})
	require.Equal(t, first, second)

	first.SrcIPs["1.1.1.1"] = 99
	assert.Equal(t, 2, second.SrcIPs["1.1.1.1"])
	assert.Equal(t, 2, Aggregate(events, DateFilter{}).SrcIPs["1.1.1.1"])
}
