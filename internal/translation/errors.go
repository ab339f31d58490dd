package translation

import (
	"errors"
	"fmt"
)

var (
	// ErrTranslationFailed is returned when the translation service call fails.
	ErrTranslationFailed = errors.New("translation failed")

	// ErrMalformedResponse is returned when the service answers without a
	// translation or without a resolved source language.
	ErrMalformedResponse = errors.New("malformed translation response")

	// ErrEmptyText is returned when there is nothing to translate.
	ErrEmptyText = errors.New("text is empty")
)

// TranslationError wraps a translation failure with the provider and
// language pair involved.
type TranslationError struct {
	Provider string
	Source   string
	Target   string
	Err      error
}

func (e *TranslationError) Error() string {
	return fmt.Sprintf("translation: %s %s->%s: %v", e.Provider, e.Source, e.Target, e.Err)
}

func (e *TranslationError) Unwrap() error {
	return e.Err
}
