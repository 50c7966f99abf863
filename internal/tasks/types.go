package tasks

import "github.com/mikestefanello/backlite"

// ReconcileStatusesQueue is the queue and task type name of status reconciliation.
const ReconcileStatusesQueue = "reconcile_statuses"

// TaskType describes a task that can be triggered by hand.
type TaskType struct {
	Type        string `json:"type"`
	Description string `json:"description"`
	Queue       string `json:"queue"`
}

// Types lists the task types that can be run on demand.
func Types() []TaskType {
	return []TaskType{
		{
			Type:        ReconcileStatusesQueue,
			Description: "Recompute stored reading statuses from logged sessions",
			Queue:       ReconcileStatusesQueue,
		},
	}
}

// RunParams carries the optional parameters of a manually triggered task.
type RunParams struct {
	ReaderID uint `json:"reader_id,omitempty"`
}

// NewTask builds the task for a type name. The boolean is false for
// unknown types.
func NewTask(taskType string, params RunParams) (backlite.Task, bool) {
	switch taskType {
	case ReconcileStatusesQueue:
		return ReconcileStatusesTask{ReaderID: params.ReaderID}, true
	default:
		return nil, false
	}
}

// StatusName converts a backlite status into its API name.
func StatusName(status backlite.TaskStatus) string {
	switch status {
	case backlite.TaskStatusPending:
		return "pending"
	case backlite.TaskStatusRunning:
		return "running"
	case backlite.TaskStatusSuccess:
		return "success"
	case backlite.TaskStatusFailure:
		return "failure"
	case backlite.TaskStatusNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}
