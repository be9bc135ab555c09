package model

import "time"

// Snapshot is one immutable import of a CRM card export.
type Snapshot struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	RecordCount int       `json:"record_count"`
	CreatedAt   time.Time `json:"created_at"`
}
