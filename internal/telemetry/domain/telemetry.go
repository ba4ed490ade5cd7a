package domain

import "time"

// Event is a structured record of something that happened in the admin flow
// (auth outcome, admin API mutation). Exported as an OTel log record.
type Event struct {
	EventType string
	Source    string
	Actor     string
	Resource  string
	IP        string
	Metadata  []byte // JSON
	CreatedAt time.Time
}
