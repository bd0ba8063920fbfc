package checkin

import "time"

const ActionVerify Action = "verify"

type HistoryStatus string

const (
	HistorySuccess HistoryStatus = "success"
	HistoryFailed  HistoryStatus = "failed"
)

// HistoryEntry is one verification or check-in attempt made at a desk.
type HistoryEntry struct {
	ID        string        `json:"id"`
	Station   string        `json:"station"`
	Operator  string        `json:"operator"`
	Kind      Kind          `json:"kind"`
	Action    Action        `json:"action"`
	LookupKey string        `json:"lookup_key"`
	RecordID  string        `json:"record_id"`
	Status    HistoryStatus `json:"status"`
	Error     string        `json:"error,omitempty"`
	CreatedAt time.Time     `json:"created_at"`
}

// Attendance aggregates desk activity per day and subject (event name or room).
type Attendance struct {
	Day        time.Time `json:"day"`
	Subject    string    `json:"subject"`
	Verified   int       `json:"verified"`
	Failed     int       `json:"failed"`
	CheckedIn  int       `json:"checked_in"`
	Guests     int       `json:"guests"`
	CheckedOut int       `json:"checked_out"`
	LastUpdate time.Time `json:"last_update"`
}
