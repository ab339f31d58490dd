package pipeline

import (
	"errors"
	"fmt"

	"medtranslate/internal/speech"
)

// Stage names reported in StageError.
const (
	StageValidate  = "validate"
	StageExtract   = "extract"
	StageDetect    = "detect"
	StageTranslate = "translate"
	StageSynthesis = "synthesize"
)

var (
	// ErrMissingFileID is returned when a process request has no file id.
	ErrMissingFileID = errors.New("file id is required")

	// ErrInvalidMode is returned for a processing mode other than full_text or structured.
	ErrInvalidMode = errors.New("invalid mode")

	// ErrMissingText is returned when a translate or synthesize request has no text.
	ErrMissingText = errors.New("text is required")

	// ErrNoTextDetected is returned when OCR finds no text in the image.
	ErrNoTextDetected = errors.New("no text detected in the image")
)

// StageError records which pipeline stage failed.
type StageError struct {
	Stage   string
	Err     error
	Details map[string]string
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

func stageError(stage string, err error) error {
	return &StageError{Stage: stage, Err: err}
}

// IsClientError reports whether err was caused by the request itself.
func IsClientError(err error) bool {
	return errors.Is(err, ErrMissingFileID) ||
		errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrMissingText) ||
		errors.Is(err, speech.ErrUnsupportedLanguage)
}

// Message returns the text shown to API clients for err.
func Message(err error) string {
	switch {
	case errors.Is(err, ErrMissingFileID):
		return "File ID is required."
	case errors.Is(err, ErrInvalidMode):
		return "Invalid mode. Choose 'full_text' or 'structured'."
	case errors.Is(err, ErrMissingText):
		return "Text is required."
	case errors.Is(err, ErrNoTextDetected):
		return "No text detected in the image."
	case errors.Is(err, speech.ErrUnsupportedLanguage):
		var stageErr *StageError
		if errors.As(err, &stageErr) && stageErr.Details["language"] != "" {
			return "Unsupported language: " + stageErr.Details["language"]
		}
		return "Unsupported language."
	}
	return err.Error()
}
