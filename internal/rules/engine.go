package rules

import "evedash/pkg/models"

// Engine selects events for aggregation.
type Engine interface {
	Match(event *models.Event) bool
}

// NoopEngine matches every event.
type NoopEngine struct{}

// Match always returns true.
func (n *NoopEngine) Match(event *models.Event) bool {
	return true
}

// Filter returns the events the engine matches, in input order.
// A nil engine returns events unchanged.
func Filter(engine Engine, events []*models.Event) []*models.Event {
	if engine == nil {
		return events
	}
	out := make([]*models.Event, 0, len(events))
	for _, event := range events {
		if event == nil {
			continue
		}
		if engine.Match(event) {
			out = append(out, event)
		}
	}
	return out
}
