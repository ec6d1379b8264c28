package constants

// TaskStatus is the status string reported by the compliance API for an
// analysis or report task.
type TaskStatus string

// Stable values (compare against the exact strings the API returns).
const (
	TaskStarting   TaskStatus = "STARTING"   // accepted, not yet running
	TaskProcessing TaskStatus = "PROCESSING" // in progress
	TaskCompleted  TaskStatus = "COMPLETED"  // terminal success
	TaskError      TaskStatus = "ERROR"      // terminal failure
)

// IsTerminal reports whether the status ends polling for a job.
func (s TaskStatus) IsTerminal() bool {
	return s == TaskCompleted || s == TaskError
}
