package domain

// Keys used in ImportOutcome.Errors besides row indexes.
const ErrorKeyDatabase = "database"

// ImportOutcome summarizes one batch import. Errors is keyed by the
// 0-based data row index, or ErrorKeyDatabase for a rolled back batch.
type ImportOutcome struct {
	SuccessCount int               `json:"rows_processed_successfully"`
	FailureCount int               `json:"rows_could_not_be_processed"`
	Errors       map[string]string `json:"errors"`
}

// NewImportOutcome returns an empty outcome with a non-nil error map.
func NewImportOutcome() *ImportOutcome {
	return &ImportOutcome{Errors: make(map[string]string)}
}

// Status classifies the outcome into a terminal task state.
func (o *ImportOutcome) Status() TaskState {
	switch {
	case o.SuccessCount == 0:
		return TaskStateFailed
	case o.FailureCount > 0:
		return TaskStatePartiallyCompleted
	default:
		return TaskStateCompleted
	}
}

// Message returns the human readable summary for the outcome's status.
func (o *ImportOutcome) Message() string {
	return OutcomeMessage(o.Status())
}

// OutcomeMessage maps a terminal state to its user facing message.
func OutcomeMessage(state TaskState) string {
	switch state {
	case TaskStateCompleted:
		return "CSV file processed successfully"
	case TaskStatePartiallyCompleted:
		return "Not all rows could be processed successfully"
	default:
		return "CSV file could not be processed"
	}
}
