package constants

// JobStatus is the canonical status for rows in extract_jobs.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusRunning   JobStatus = "RUNNING"   // analysis in progress
	JobStatusSucceeded JobStatus = "SUCCEEDED" // record written
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)

// RecordStatusSuccess is the status tag written into every extraction record.
const RecordStatusSuccess = "success"

// Trigger outcomes reported per object by the analysis entry point.
const (
	OutcomeProcessed = "processed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)
