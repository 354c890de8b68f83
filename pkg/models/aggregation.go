package models

import "time"

// AggregationResult holds the five frequency distributions of a run.
type AggregationResult struct {
	EventTypes map[string]int `json:"eventTypes" yaml:"eventTypes"`
	Signatures map[string]int `json:"signatures" yaml:"signatures"`
	Severities map[int]int    `json:"severities" yaml:"severities"`
	SrcIPs     map[string]int `json:"srcIps" yaml:"srcIps"`
	DestIPs    map[string]int `json:"destIps" yaml:"destIps"`
}

// AggregationStats explains how the scanned events were classified.
type AggregationStats struct {
	Scanned      int `json:"scanned"`
	Counted      int `json:"counted"`
	NoAlert      int `json:"no_alert"`
	OutOfWindow  int `json:"out_of_window"`
	BadTimestamp int `json:"bad_timestamp"`
}

// ChartSeries is one distribution flattened for a chart.
// Labels[i] and Series[i] always describe the same key.
type ChartSeries struct {
	Name   string   `json:"name"`
	Labels []string `json:"labels"`
	Series []int    `json:"series"`
}

// Snapshot is a published aggregation with its filter and chart series.
type Snapshot struct {
	ID          string             `json:"id"`
	GeneratedAt time.Time          `json:"generated_at"`
	Start       *time.Time         `json:"start,omitempty"`
	End         *time.Time         `json:"end,omitempty"`
	Result      *AggregationResult `json:"result"`
	Charts      []ChartSeries      `json:"charts"`
	Stats       AggregationStats   `json:"stats"`
}
