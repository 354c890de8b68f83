package models

import "strconv"

// Event is one Suricata EVE record as consumed by the dashboard.
type Event struct {
	EventType string `json:"event_type,omitempty"`
	SrcIP     string `json:"src_ip,omitempty"`
	DestIP    string `json:"dest_ip,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Alert     *Alert `json:"alert,omitempty"`
}

// Alert is the detection sub-record of an event.
// A zero Severity means the record carried no usable severity.
type Alert struct {
	Signature string `json:"signature,omitempty"`
	Severity  int    `json:"severity,omitempty"`
}

// HasAlert reports whether the event carries an alert record.
func (e *Event) HasAlert() bool {
	return e != nil && e.Alert != nil
}

// Field returns a field value by its EVE name. Alert fields are addressed
// as alert.signature and alert.severity.
func (e *Event) Field(name string) string {
	if e == nil {
		return ""
	}
	switch name {
	case "event_type":
		return e.EventType
	case "src_ip":
		return e.SrcIP
	case "dest_ip":
		return e.DestIP
	case "timestamp":
		return e.Timestamp
	case "alert.signature":
		if e.Alert != nil {
			return e.Alert.Signature
		}
	case "alert.severity":
		if e.Alert != nil && e.Alert.Severity != 0 {
			return strconv.Itoa(e.Alert.Severity)
		}
	}
	return ""
}
