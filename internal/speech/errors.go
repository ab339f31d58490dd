package speech

import (
	"errors"
	"fmt"

	"medtranslate/pkg/models"
)

var (
	// ErrUnsupportedLanguage is returned for languages without a voice.
	ErrUnsupportedLanguage = errors.New("unsupported language")

	// ErrSynthesisFailed is returned when a task ends in a non-completed state
	// or the speech service rejects a call.
	ErrSynthesisFailed = errors.New("speech synthesis failed")

	// ErrSynthesisTimeout is returned when a task is still pending after the
	// maximum wait.
	ErrSynthesisTimeout = errors.New("speech synthesis timed out")

	// ErrEmptyText is returned when there is nothing to synthesize.
	ErrEmptyText = errors.New("text is empty")
)

// SynthesisError wraps a speech failure with the task it concerns.
type SynthesisError struct {
	Op     string
	TaskID string
	Status models.SynthesisStatus
	Err    error
}

func (e *SynthesisError) Error() string {
	msg := "speech: " + e.Op
	if e.TaskID != "" {
		msg += fmt.Sprintf(" task %s", e.TaskID)
	}
	if e.Status != "" {
		msg += fmt.Sprintf(" (%s)", e.Status)
	}
	return fmt.Sprintf("%s: %v", msg, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// WrapSynthesisError wraps err unless it already is a SynthesisError.
func WrapSynthesisError(op, taskID string, status models.SynthesisStatus, err error) error {
	if err == nil {
		return nil
	}
	var synthErr *SynthesisError
	if errors.As(err, &synthErr) {
		return err
	}
	return &SynthesisError{Op: op, TaskID: taskID, Status: status, Err: err}
}
