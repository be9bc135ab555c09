package rollup

import (
	"fmt"

	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/model"
)

// Normalizer cleans record ids and attaches canonical stage and outcome.
type Normalizer struct {
	cat        *catalog.Catalog
	resolver   Resolver
	classifier Classifier
}

// NewNormalizer returns a Normalizer whose resolver and classifier share cat.
func NewNormalizer(cat *catalog.Catalog) Normalizer {
	return Normalizer{
		cat:        cat,
		resolver:   NewResolver(cat),
		classifier: NewClassifier(cat),
	}
}

// Normalize converts one raw record. It fails only when the record has no
// stage field; every other anomaly becomes a sentinel value plus a warning.
func (n Normalizer) Normalize(rec model.Record) (model.NormalizedRecord, []model.Warning, error) {
	var warns []model.Warning

	familyID := catalog.Normalize(rec.FamilyID)
	recordID := catalog.Normalize(rec.RecordID)
	if familyID == "" {
		familyID = model.UnknownFamily
		warns = append(warns, model.Warning{
			Kind:     model.WarnBlankFamilyID,
			FamilyID: familyID,
			RecordID: recordID,
			Detail:   "blank family id replaced with sentinel",
		})
	}

	if rec.StageCode == nil {
		return model.NormalizedRecord{}, warns, &model.MissingStageError{FamilyID: familyID, RecordID: recordID}
	}

	requesterID := catalog.Normalize(rec.RequesterID)
	if requesterID == "" {
		requesterID = model.UnknownRequester
		warns = append(warns, model.Warning{
			Kind:     model.WarnBlankRequesterID,
			FamilyID: familyID,
			RecordID: recordID,
			Detail:   "blank requester id replaced with sentinel",
		})
	}

	code := catalog.Normalize(*rec.StageCode)
	canonical, by := n.resolver.Resolve(code)
	resolved := by != model.ResolvedNone

	switch by {
	case model.ResolvedNone:
		warns = append(warns, model.Warning{
			Kind:     model.WarnUnresolvedStage,
			FamilyID: familyID,
			RecordID: recordID,
			Detail:   fmt.Sprintf("stage code %q not in catalog", code),
		})
	case model.ResolvedLocal:
		if _, local, _ := catalog.SplitCode(code); n.cat.IsConflicting(local) {
			warns = append(warns, model.Warning{
				Kind:     model.WarnAmbiguousLocalCode,
				FamilyID: familyID,
				RecordID: recordID,
				Detail:   fmt.Sprintf("stage code %q resolved by fallback to %q but %s differs across pipelines", code, canonical, local),
			})
		}
	}

	return model.NormalizedRecord{
		RecordID:       recordID,
		FamilyID:       familyID,
		RequesterID:    requesterID,
		PipelineID:     catalog.Normalize(rec.PipelineID),
		StageCode:      code,
		CanonicalStage: canonical,
		Outcome:        n.classifier.Classify(canonical, resolved),
		ResolvedBy:     by,
		Assignee:       catalog.Normalize(rec.Assignee),
		Desk:           catalog.Normalize(rec.Desk),
	}, warns, nil
}

// NormalizeAll converts records in order. The first record without a stage
// field aborts with its *model.MissingStageError.
func (n Normalizer) NormalizeAll(records []model.Record) ([]model.NormalizedRecord, model.Diagnostics, error) {
	out := make([]model.NormalizedRecord, 0, len(records))
	var diags model.Diagnostics
	for _, rec := range records {
		nr, warns, err := n.Normalize(rec)
		diags = append(diags, warns...)
		if err != nil {
			return nil, diags, err
		}
		out = append(out, nr)
	}
	return out, diags, nil
}
