package model

import "time"

// Sentinel ids substituted for blank family / requester values so that
// grouping never silently drops a card.
const (
	UnknownFamily    = "UNKNOWN_FAMILY"
	UnknownRequester = "UNKNOWN_REQUESTER"
)

// Record is one processing card as exported from the CRM. The core never
// mutates it.
type Record struct {
	RecordID    string `json:"record_id"`
	FamilyID    string `json:"family_id"`
	RequesterID string `json:"requester_id"`
	PipelineID  string `json:"pipeline_id"`
	// StageCode is nil when the export carried no stage field at all.
	// A present-but-blank stage is the empty string.
	StageCode *string   `json:"stage_code"`
	CreatedAt time.Time `json:"created_at"`

	// Optional host dimensions, used only by report grouping.
	Assignee string `json:"assignee,omitempty"`
	Desk     string `json:"desk,omitempty"`
}

// Stage returns a pointer to s, for building records in code.
func Stage(s string) *string {
	return &s
}

// ResolvedBy records which resolution step produced a canonical stage.
type ResolvedBy string

const (
	ResolvedExact ResolvedBy = "exact"
	ResolvedLocal ResolvedBy = "local"
	ResolvedNone  ResolvedBy = "none"
)

// NormalizedRecord is a Record after id clean-up, stage resolution and
// outcome classification.
type NormalizedRecord struct {
	RecordID       string       `json:"record_id"`
	FamilyID       string       `json:"family_id"`
	RequesterID    string       `json:"requester_id"`
	PipelineID     string       `json:"pipeline_id"`
	StageCode      string       `json:"stage_code"`
	CanonicalStage string       `json:"canonical_stage"`
	Outcome        OutcomeClass `json:"outcome_class"`
	ResolvedBy     ResolvedBy   `json:"resolved_by"`
	Assignee       string       `json:"assignee,omitempty"`
	Desk           string       `json:"desk,omitempty"`
}

// Resolved reports whether the stage code matched the catalog.
func (n NormalizedRecord) Resolved() bool {
	return n.ResolvedBy != ResolvedNone && n.ResolvedBy != ""
}
