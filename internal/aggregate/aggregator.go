// Package aggregate turns security events into frequency distributions.
package aggregate

import "evedash/pkg/models"

// Severities 1..5 are always present in a result, even at zero.
const (
	MinSeverity = 1
	MaxSeverity = 5
)

// NewResult returns an empty result with the seeded severity keys.
func NewResult() *models.AggregationResult {
	severities := make(map[int]int, MaxSeverity)
	for s := MinSeverity; s <= MaxSeverity; s++ {
		severities[s] = 0
	}
	return &models.AggregationResult{
		EventTypes: make(map[string]int),
		Signatures: make(map[string]int),
		Severities: severities,
		SrcIPs:     make(map[string]int),
		DestIPs:    make(map[string]int),
	}
}

// Aggregate counts event types, signatures, severities and IPs of the
// alert-bearing events inside the filter window.
func Aggregate(events []*models.Event, filter DateFilter) *models.AggregationResult {
	res, _ := AggregateWithStats(events, filter)
	return res
}

// AggregateWithStats is Aggregate plus a breakdown of why events were
// skipped.
//
// Only events with an alert count, and all five counters are gated on it,
// including event type and IPs. An unparsable timestamp passes an open
// filter but fails any bounded one. Each counter is skipped on its own
// when its source value is empty or zero. Severities outside 1..5 get
// their own keys.
func AggregateWithStats(events []*models.Event, filter DateFilter) (*models.AggregationResult, models.AggregationStats) {
	res := NewResult()
	var stats models.AggregationStats
	bounded := filter.Bounded()

	for _, event := range events {
		if event == nil {
			continue
		}
		stats.Scanned++

		if !event.HasAlert() {
			stats.NoAlert++
			continue
		}
		if bounded {
			ts, ok := ParseTimestamp(event.Timestamp)
			if !ok {
				stats.BadTimestamp++
				continue
			}
			if !filter.Contains(ts) {
				stats.OutOfWindow++
				continue
			}
		}
		stats.Counted++

		if event.EventType != "" {
			res.EventTypes[event.EventType]++
		}
		if event.Alert.Signature != "" {
			res.Signatures[event.Alert.Signature]++
		}
		if event.Alert.Severity != 0 {
			res.Severities[event.Alert.Severity]++
		}
		if event.SrcIP != "" {
			res.SrcIPs[event.SrcIP]++
		}
		if event.DestIP != "" {
			res.DestIPs[event.DestIP]++
		}
	}

	return res, stats
}
