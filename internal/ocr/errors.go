package ocr

import (
	"errors"
	"fmt"
)

// Common OCR processing errors
var (
	// ErrOCRFailed is returned when the OCR service call fails or reports an
	// error for the image.
	ErrOCRFailed = errors.New("OCR processing failed")

	// ErrMissingCredentials is returned when a Google backend is selected but
	// neither GOOGLE_APPLICATION_CREDENTIALS nor GOOGLE_CREDENTIALS is usable
	// and no default credentials exist.
	ErrMissingCredentials = errors.New("missing Google Cloud credentials: set GOOGLE_APPLICATION_CREDENTIALS or GOOGLE_CREDENTIALS environment variable")

	// ErrImageTooLarge is returned when an image exceeds the inline request limit.
	ErrImageTooLarge = errors.New("image exceeds the maximum size for inline OCR (20MB)")

	// ErrEmptyImage is returned when the stored object has no content.
	ErrEmptyImage = errors.New("image is empty")
)

// OCRError wraps errors with additional context about the OCR processing failure.
type OCRError struct {
	// Op is the operation that failed (e.g., "ExtractText", "NewClient").
	Op string

	// Key is the storage key of the image, if known.
	Key string

	// Err is the underlying error.
	Err error

	// Details provides additional context about the failure.
	Details string
}

// Error implements the error interface.
func (e *OCRError) Error() string {
	subject := e.Op
	if e.Key != "" {
		subject = fmt.Sprintf("%s(%s)", e.Op, e.Key)
	}
	if e.Details != "" {
		return fmt.Sprintf("ocr: %s failed: %s: %v", subject, e.Details, e.Err)
	}
	return fmt.Sprintf("ocr: %s failed: %v", subject, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *OCRError) Unwrap() error {
	return e.Err
}

// WrapOCRError wraps an error as an OCRError if it isn't already one.
func WrapOCRError(op, key string, err error, details string) error {
	if err == nil {
		return nil
	}

	var ocrErr *OCRError
	if errors.As(err, &ocrErr) {
		return err
	}

	return &OCRError{Op: op, Key: key, Err: err, Details: details}
}
