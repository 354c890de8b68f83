package aggregate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"evedash/pkg/models"
)

// Order selects how labels of a string-keyed distribution are sorted.
type Order string

const (
	OrderByKey   Order = "key"
	OrderByCount Order = "count"
)

// ParseOrder validates an order name. Blank means OrderByKey.
func ParseOrder(raw string) (Order, error) {
	switch Order(strings.ToLower(strings.TrimSpace(raw))) {
	case "", OrderByKey:
		return OrderByKey, nil
	case OrderByCount:
		return OrderByCount, nil
	default:
		return "", fmt.Errorf("unknown order %q (want key or count)", raw)
	}
}

// SeriesOptions controls label ordering and truncation.
type SeriesOptions struct {
	Order Order
	// Limit keeps the first N labels after ordering; 0 keeps all.
	Limit int
}

// Chart titles, in the order Charts returns them.
const (
	ChartEventTypes = "Event Types"
	ChartSignatures = "Signatures"
	ChartSeverities = "Severities"
	ChartSrcIPs     = "Source IPs"
	ChartDestIPs    = "Destination IPs"
)

// Series flattens a string-keyed distribution into paired labels and counts.
func Series(name string, counts map[string]int, opts SeriesOptions) models.ChartSeries {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}

	if opts.Order == OrderByCount {
		sort.Slice(keys, func(i, j int) bool {
			if counts[keys[i]] != counts[keys[j]] {
				return counts[keys[i]] > counts[keys[j]]
			}
			return keys[i] < keys[j]
		})
	} else {
		sort.Strings(keys)
	}
	if opts.Limit > 0 && len(keys) > opts.Limit {
		keys = keys[:opts.Limit]
	}

	out := models.ChartSeries{
		Name:   name,
		Labels: make([]string, 0, len(keys)),
		Series: make([]int, 0, len(keys)),
	}
	for _, k := range keys {
		out.Labels = append(out.Labels, k)
		out.Series = append(out.Series, counts[k])
	}
	return out
}

// SeveritySeries flattens the severity distribution in numeric order.
func SeveritySeries(counts map[int]int) models.ChartSeries {
	keys := make([]int, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Ints(keys)

	out := models.ChartSeries{
		Name:   ChartSeverities,
		Labels: make([]string, 0, len(keys)),
		Series: make([]int, 0, len(keys)),
	}
	for _, k := range keys {
		out.Labels = append(out.Labels, strconv.Itoa(k))
		out.Series = append(out.Series, counts[k])
	}
	return out
}

// Charts returns the five chart series of a result.
func Charts(res *models.AggregationResult, opts SeriesOptions) []models.ChartSeries {
	if res == nil {
		res = NewResult()
	}
	return []models.ChartSeries{
		Series(ChartEventTypes, res.EventTypes, opts),
		Series(ChartSignatures, res.Signatures, opts),
		SeveritySeries(res.Severities),
		Series(ChartSrcIPs, res.SrcIPs, opts),
		Series(ChartDestIPs, res.DestIPs, opts),
	}
}
