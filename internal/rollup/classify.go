package rollup

import (
	"github.com/sells-group/emission-rollup/internal/catalog"
	"github.com/sells-group/emission-rollup/internal/model"
)

// Classifier maps canonical stages to outcome classes.
type Classifier struct {
	cat *catalog.Catalog
}

// NewClassifier returns a Classifier backed by cat.
func NewClassifier(cat *catalog.Catalog) Classifier {
	return Classifier{cat: cat}
}

// Classify returns UNKNOWN for unresolved stages, SUCCESS or FAILURE for
// members of the catalog's closed sets, and IN_PROGRESS otherwise.
func (c Classifier) Classify(canonical string, resolved bool) model.OutcomeClass {
	if !resolved {
		return model.OutcomeUnknown
	}
	switch {
	case c.cat.IsSuccess(canonical):
		return model.OutcomeSuccess
	case c.cat.IsFailure(canonical):
		return model.OutcomeFailure
	}
	return model.OutcomeInProgress
}
