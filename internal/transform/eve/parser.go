// Package eve decodes Suricata EVE JSON records.
package eve

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"evedash/pkg/models"
)

// Parse converts one EVE JSON object into an Event.
// Missing or mistyped fields are left empty; only invalid JSON is an error.
func Parse(data []byte) (*models.Event, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	if raw == nil {
		return nil, fmt.Errorf("eve record is not a JSON object")
	}
	return ParseMap(raw), nil
}

// ParseMap converts an already decoded EVE object into an Event.
func ParseMap(raw map[string]interface{}) *models.Event {
	event := &models.Event{
		EventType: getString(raw, "event_type"),
		SrcIP:     getString(raw, "src_ip"),
		DestIP:    getString(raw, "dest_ip"),
		Timestamp: getString(raw, "timestamp", "@timestamp"),
	}

	if v, ok := getPath(raw, "alert"); ok {
		if m, ok := v.(map[string]interface{}); ok {
			event.Alert = &models.Alert{
				Signature: getString(m, "signature"),
				Severity:  getInt(m, "severity"),
			}
		}
	}
	return event
}

func getString(root map[string]interface{}, paths ...string) string {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			switch val := v.(type) {
			case string:
				return val
			case float64:
				return strconv.FormatFloat(val, 'f', -1, 64)
			case bool:
				if val {
					return "true"
				}
			}
		}
	}
	return ""
}

// getInt accepts integral numbers and numeric strings that fit in an int.
// Anything else is 0.
func getInt(root map[string]interface{}, paths ...string) int {
	for _, path := range paths {
		if v, ok := getPath(root, path); ok {
			switch val := v.(type) {
			case float64:
				if val == math.Trunc(val) && val >= float64(math.MinInt) && val < -float64(math.MinInt) {
					return int(val)
				}
			case string:
				if parsed, err := strconv.Atoi(strings.TrimSpace(val)); err == nil {
					return parsed
				}
			}
		}
	}
	return 0
}

func getPath(root map[string]interface{}, path string) (interface{}, bool) {
	parts := strings.Split(path, ".")
	var current interface{} = root
	for _, part := range parts {
		m, ok := current.(map[string]interface{})
		if !ok {
			return nil, false
		}
		v, ok := m[part]
		if !ok || v == nil {
			return nil, false
		}
		current = v
	}
	return current, true
}
