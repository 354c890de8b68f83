package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"evedash/internal/seed"
)

type seedOptions struct {
	out        string
	count      int
	alertRatio float64
	seed       int64
	span       time.Duration
	jsonl      bool
}

var seedOpts seedOptions

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Generate a synthetic EVE event file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := runSeed(seedOpts); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "wrote events=%d output=%s\n", seedOpts.count, seedOpts.out)
		return nil
	},
}

func init() {
	def := seed.DefaultConfig()
	f := seedCmd.Flags()
	f.StringVar(&seedOpts.out, "out", "", "output file")
	f.IntVar(&seedOpts.count, "count", def.Count, "number of events")
	f.Float64Var(&seedOpts.alertRatio, "alert-ratio", def.AlertRatio, "fraction of events carrying an alert")
	f.Int64Var(&seedOpts.seed, "seed", def.Seed, "random seed")
	f.DurationVar(&seedOpts.span, "span", def.Span, "time window covered, ending now")
	f.BoolVar(&seedOpts.jsonl, "jsonl", false, "write JSON lines instead of a JSON array")
	_ = seedCmd.MarkFlagRequired("out")
}

func runSeed(opts seedOptions) error {
	cfg := seed.DefaultConfig()
	cfg.Count = opts.count
	cfg.AlertRatio = opts.alertRatio
	cfg.Seed = opts.seed
	cfg.Span = opts.span

	events, err := seed.Generate(cfg)
	if err != nil {
		return err
	}

	dir := filepath.Dir(opts.out)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("create output file: %w", err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	if err := seed.WriteJSON(w, events, opts.jsonl); err != nil {
		return err
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("flush output: %w", err)
	}
	return nil
}
