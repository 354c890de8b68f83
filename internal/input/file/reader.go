// Package file loads static EVE event collections from disk.
package file

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"evedash/internal/logger"
	"evedash/internal/transform/eve"
	"evedash/pkg/models"
)

const maxLineSize = 4 * 1024 * 1024

// LoadStats reports how an input was read.
type LoadStats struct {
	Format  string
	Records int
	Skipped int
}

// Load reads events from a JSON array or JSON Lines file.
func Load(path string) ([]*models.Event, LoadStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadStats{}, fmt.Errorf("open events file: %w", err)
	}
	defer f.Close()

	events, stats, err := Read(f)
	if err != nil {
		return nil, stats, fmt.Errorf("read events from %s: %w", path, err)
	}
	logger.Infof("Loaded %d events from %s (format=%s skipped=%d)", len(events), path, stats.Format, stats.Skipped)
	return events, stats, nil
}

// Read detects the input format from the first non-space byte.
func Read(r io.Reader) ([]*models.Event, LoadStats, error) {
	br := bufio.NewReader(r)
	for {
		b, err := br.Peek(1)
		if err == io.EOF {
			return []*models.Event{}, LoadStats{Format: "empty"}, nil
		}
		if err != nil {
			return nil, LoadStats{}, err
		}
		switch b[0] {
		case ' ', '\t', '\r', '\n':
			_, _ = br.ReadByte()
			continue
		case '[':
			return readArray(br)
		default:
			return readLines(br)
		}
	}
}

func readArray(r io.Reader) ([]*models.Event, LoadStats, error) {
	stats := LoadStats{Format: "json"}
	var raw []map[string]interface{}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, stats, fmt.Errorf("decode event array: %w", err)
	}

	events := make([]*models.Event, 0, len(raw))
	for _, item := range raw {
		if item == nil {
			stats.Skipped++
			continue
		}
		events = append(events, eve.ParseMap(item))
	}
	stats.Records = len(events)
	return events, stats, nil
}

func readLines(r io.Reader) ([]*models.Event, LoadStats, error) {
	stats := LoadStats{Format: "jsonl"}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var events []*models.Event
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}
		event, err := eve.Parse(line)
		if err != nil {
			logger.Warnf("Skipping malformed EVE line %d: %v", lineNo, err)
			stats.Skipped++
			continue
		}
		events = append(events, event)
	}
	if err := scanner.Err(); err != nil {
		return nil, stats, fmt.Errorf("scan event lines: %w", err)
	}
	if events == nil {
		events = []*models.Event{}
	}
	stats.Records = len(events)
	return events, stats, nil
}
