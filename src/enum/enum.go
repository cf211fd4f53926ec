package enum

const (
	// state of a file row in the run ledger
	// a file is transferred once per run, failed rows are not picked up again
	FileStatePending = 0
	FileStateSuccess = 1
	FileStateFail    = 2

	DefaultConcurrency = 15
	DefaultChunkSize   = 8 * 1024
)
