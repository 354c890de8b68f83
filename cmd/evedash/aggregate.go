package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"evedash/internal/aggregate"
	"evedash/internal/input/file"
	"evedash/internal/metrics"
	"evedash/internal/pipeline"
	"evedash/pkg/models"
)

type aggregateOptions struct {
	events string
	start  string
	end    string
	rules  string
	format string
	order  string
	limit  int
}

var aggregateOpts aggregateOptions

var aggregateCmd = &cobra.Command{
	Use:   "aggregate",
	Short: "Aggregate an EVE event file once and print the distributions",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAggregate(cmd.OutOrStdout(), aggregateOpts)
	},
}

func init() {
	f := aggregateCmd.Flags()
	f.StringVar(&aggregateOpts.events, "events", "", "EVE events file (JSON array or JSON lines)")
	f.StringVar(&aggregateOpts.start, "start", "", "inclusive window start (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&aggregateOpts.end, "end", "", "inclusive window end (RFC3339 or YYYY-MM-DD)")
	f.StringVar(&aggregateOpts.rules, "rules", "", "Sigma rules file or directory used as a pre-filter")
	f.StringVar(&aggregateOpts.format, "format", "table", "output format: table, json, yaml")
	f.StringVar(&aggregateOpts.order, "order", "key", "label order: key or count")
	f.IntVar(&aggregateOpts.limit, "limit", 0, "keep the first N labels per chart (0 keeps all)")
	_ = aggregateCmd.MarkFlagRequired("events")
}

func runAggregate(out io.Writer, opts aggregateOptions) error {
	filter, err := aggregate.ParseDateFilter(opts.start, opts.end)
	if err != nil {
		return err
	}
	order, err := aggregate.ParseOrder(opts.order)
	if err != nil {
		return err
	}
	if opts.limit < 0 {
		return fmt.Errorf("limit must be non-negative, got %d", opts.limit)
	}
	series := aggregate.SeriesOptions{Order: order, Limit: opts.limit}

	events, _, err := file.Load(opts.events)
	if err != nil {
		return err
	}
	engine, err := loadEngine(opts.rules != "", opts.rules)
	if err != nil {
		return err
	}

	dash := pipeline.NewDashboard(events, engine, metrics.New(nil), series, nil)
	snapshot := dash.Compute(filter, series)

	switch strings.ToLower(opts.format) {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(snapshot.Result)
	case "yaml":
		enc := yaml.NewEncoder(out)
		enc.SetIndent(2)
		if err := enc.Encode(snapshot.Result); err != nil {
			return err
		}
		return enc.Close()
	case "table", "":
		return writeTable(out, snapshot.Charts)
	default:
		return fmt.Errorf("unknown format %q (want table, json or yaml)", opts.format)
	}
}

func writeTable(out io.Writer, charts []models.ChartSeries) error {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, chart := range charts {
		if i > 0 {
			fmt.Fprintln(tw)
		}
		fmt.Fprintf(tw, "%s\tCOUNT\n", strings.ToUpper(chart.Name))
		for j, label := range chart.Labels {
			fmt.Fprintf(tw, "%s\t%d\n", label, chart.Series[j])
		}
	}
	return tw.Flush()
}
