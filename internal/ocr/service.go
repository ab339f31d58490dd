// Package ocr extracts printed text from stored document images.
//
// Three backends implement TextExtractor:
//   - Amazon Rekognition DetectText, reading the image straight from S3
//   - Google Cloud Vision document text detection over the image bytes
//   - Google Document AI OCR processor over the image bytes
//
// Every backend reduces the service output to line-level detections in the
// order the service returns them and joins them with single spaces. An image
// without any line yields an empty string and no error; deciding whether that
// is acceptable is left to the caller.
//
// Required Environment Variables for the Google backends:
//   - GOOGLE_APPLICATION_CREDENTIALS: Path to service account JSON file, OR
//   - GOOGLE_CREDENTIALS: Inline JSON credentials string
//   - GOOGLE_CLOUD_PROJECT, DOCUMENT_AI_PROCESSOR_ID: Document AI only
package ocr

import (
	"context"
	"fmt"
	"strings"
)

// MaxInlineImageBytes is the largest image sent inline to the Google backends.
const MaxInlineImageBytes = 20 * 1024 * 1024

// TextExtractor defines the interface for OCR text extraction services.
type TextExtractor interface {
	// ExtractText returns the line-level text of the image stored under key,
	// space-joined in service order. Returns "" when no line was detected.
	ExtractText(ctx context.Context, key string) (string, error)
}

// JoinLines trims each line, drops empty ones and joins the rest with a
// single space.
func JoinLines(lines []string) string {
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		if line = strings.TrimSpace(line); line != "" {
			kept = append(kept, line)
		}
	}
	return strings.Join(kept, " ")
}

func serviceFailure(err error) error {
	return fmt.Errorf("%w: %w", ErrOCRFailed, err)
}
