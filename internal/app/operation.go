package app

// Operation is the CLI command being run. It is recorded in the journal
// only once it opens a torrents database; read-only commands such as
// history never start a run.
type Operation struct {
	RunID      string
	Name       string
	Parameters string
	started    bool
}

// NewOperation creates an operation that has not started a run yet.
func NewOperation(runID, name, parameters string) *Operation {
	return &Operation{
		RunID:      runID,
		Name:       name,
		Parameters: parameters,
	}
}

// Started returns true once the run has been written to the journal.
func (op *Operation) Started() bool {
	return op.started
}
