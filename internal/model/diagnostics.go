package model

import "fmt"

// WarningKind classifies a non-fatal data-quality finding.
type WarningKind string

const (
	WarnBlankFamilyID      WarningKind = "blank_family_id"
	WarnBlankRequesterID   WarningKind = "blank_requester_id"
	WarnUnresolvedStage    WarningKind = "unresolved_stage"
	WarnAmbiguousLocalCode WarningKind = "ambiguous_local_code"
	WarnCatalogConflict    WarningKind = "catalog_conflict"
)

// Warning is one diagnostic entry returned alongside a result.
type Warning struct {
	Kind     WarningKind `json:"kind"`
	FamilyID string      `json:"family_id,omitempty"`
	RecordID string      `json:"record_id,omitempty"`
	Detail   string      `json:"detail"`
}

func (w Warning) String() string {
	if w.RecordID != "" {
		return fmt.Sprintf("%s: record %s (family %s): %s", w.Kind, w.RecordID, w.FamilyID, w.Detail)
	}
	return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
}

// Diagnostics is the ordered collection of warnings for one run.
type Diagnostics []Warning

// CountByKind tallies warnings per kind.
func (d Diagnostics) CountByKind() map[WarningKind]int {
	out := make(map[WarningKind]int)
	for _, w := range d {
		out[w.Kind]++
	}
	return out
}

// OfKind returns the warnings matching kind, preserving order.
func (d Diagnostics) OfKind(kind WarningKind) Diagnostics {
	var out Diagnostics
	for _, w := range d {
		if w.Kind == kind {
			out = append(out, w)
		}
	}
	return out
}
