package model

// OutcomeClass is the terminal meaning of a canonical stage.
type OutcomeClass string

const (
	OutcomeSuccess    OutcomeClass = "SUCCESS"
	OutcomeInProgress OutcomeClass = "IN_PROGRESS"
	OutcomeFailure    OutcomeClass = "FAILURE"
	OutcomeUnknown    OutcomeClass = "UNKNOWN"
)

// AllOutcomes returns every outcome class in report order.
func AllOutcomes() []OutcomeClass {
	return []OutcomeClass{
		OutcomeSuccess,
		OutcomeInProgress,
		OutcomeFailure,
		OutcomeUnknown,
	}
}

// IsTerminal reports whether the outcome ends a card's lifecycle.
// UNKNOWN is not terminal: an unresolved card may still be moving.
func (o OutcomeClass) IsTerminal() bool {
	switch o {
	case OutcomeSuccess, OutcomeFailure:
		return true
	}
	return false
}

// Valid reports whether o is one of the four defined classes.
func (o OutcomeClass) Valid() bool {
	switch o {
	case OutcomeSuccess, OutcomeInProgress, OutcomeFailure, OutcomeUnknown:
		return true
	}
	return false
}
