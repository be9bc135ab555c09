package model

import "fmt"

// MissingStageError is returned when a record carries no stage field at all.
// It is the only hard failure of normalization: callers are expected to
// report it back to the source system rather than drop the row.
type MissingStageError struct {
	FamilyID string
	RecordID string
}

func (e *MissingStageError) Error() string {
	if e.RecordID == "" {
		return fmt.Sprintf("record in family %q has no stage field", e.FamilyID)
	}
	return fmt.Sprintf("record %q in family %q has no stage field", e.RecordID, e.FamilyID)
}
