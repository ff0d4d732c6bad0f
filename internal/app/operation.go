package app

import "time"

// Operation tracks the CLI command an App was created for. Its ID tags every
// log line and its outcome is logged when the App closes.
type Operation struct {
	ID         string
	Name       string
	Parameters string
	Status     string // "success" or "error"
	StartedAt  time.Time
}

// NewOperation creates an operation that has not failed yet.
func NewOperation(id, name, parameters string, startedAt time.Time) *Operation {
	return &Operation{
		ID:         id,
		Name:       name,
		Parameters: parameters,
		Status:     "success",
		StartedAt:  startedAt,
	}
}

// Fail marks the operation as failed. A nil err leaves it unchanged.
func (op *Operation) Fail(err error) {
	if err != nil {
		op.Status = "error"
	}
}

// Failed returns true once any step of the operation has failed.
func (op *Operation) Failed() bool {
	return op.Status == "error"
}

// operationID formats startedAt as the compact timestamp used in log lines.
func operationID(startedAt time.Time) string {
	return startedAt.UTC().Format("20060102T150405Z")
}
