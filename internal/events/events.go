package events

import (
	"encoding/json"
	"time"
)

// Event types published when tracked data changes.
const (
	TypePing           = "ping"
	TypeJobCreated     = "job_created"
	TypeJobUpdated     = "job_updated"
	TypeJobDeleted     = "job_deleted"
	TypeFormulaCreated = "formula_created"
	TypeFormulaUpdated = "formula_updated"
	TypeFormulaDeleted = "formula_deleted"
	TypeJobsPurged     = "jobs_purged"
)

type Event struct {
	Type      string          `json:"type"`
	Version   int             `json:"v"`
	At        time.Time       `json:"at"`
	RequestID string          `json:"request_id,omitempty"`
	Data      json.RawMessage `json:"data,omitempty"`
}

// MakeEvent encodes an envelope. data may be nil.
func MakeEvent(reqID, typ string, v int, data any) string {
	var raw json.RawMessage
	if data != nil {
		b, _ := json.Marshal(data)
		raw = b
	}
	e := Event{
		Type:      typ,
		Version:   v,
		At:        time.Now().UTC(),
		RequestID: reqID,
		Data:      raw,
	}
	b, _ := json.Marshal(e)
	return string(b)
}
