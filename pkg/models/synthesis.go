package models

// SynthesisStatus is the lifecycle state of an asynchronous speech job.
type SynthesisStatus string

const (
	SynthesisScheduled  SynthesisStatus = "scheduled"
	SynthesisInProgress SynthesisStatus = "inProgress"
	SynthesisCompleted  SynthesisStatus = "completed"
	SynthesisFailed     SynthesisStatus = "failed"
)

// Pending reports whether the job has not yet reached a terminal state.
func (s SynthesisStatus) Pending() bool {
	return s == SynthesisScheduled || s == SynthesisInProgress
}

// SynthesisTask is a speech synthesis job as reported by the speech service.
// OutputURI is set only when Status is completed.
type SynthesisTask struct {
	TaskID       string          `json:"taskId"`
	Status       SynthesisStatus `json:"status"`
	OutputURI    string          `json:"outputUri,omitempty"`
	StatusReason string          `json:"statusReason,omitempty"`
}
