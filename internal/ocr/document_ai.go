package ocr

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"strings"
	"time"

	documentai "cloud.google.com/go/documentai/apiv1"
	"cloud.google.com/go/documentai/apiv1/documentaipb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"
	"google.golang.org/api/option"

	"medtranslate/internal/logger"
	"medtranslate/internal/storage"
)

// DocumentProcessor is the subset of the Document AI client used here.
type DocumentProcessor interface {
	ProcessDocument(ctx context.Context, req *documentaipb.ProcessRequest, opts ...gax.CallOption) (*documentaipb.ProcessResponse, error)
	Close() error
}

// DocumentAIConfig holds configuration for the Document AI OCR processor.
type DocumentAIConfig struct {
	// ProjectID is the Google Cloud project ID where Document AI is enabled.
	ProjectID string

	// Location is the processing location (e.g., "us", "eu").
	Location string

	// ProcessorID is the ID of an OCR processor in that location.
	ProcessorID string

	// Timeout bounds a single ProcessDocument call.
	Timeout time.Duration
}

// ProcessorName is the full resource name of the configured processor.
func (c DocumentAIConfig) ProcessorName() string {
	return fmt.Sprintf("projects/%s/locations/%s/processors/%s", c.ProjectID, c.Location, c.ProcessorID)
}

// DocumentAIExtractor implements TextExtractor with a Document AI OCR processor.
type DocumentAIExtractor struct {
	client  DocumentProcessor
	fetcher storage.Fetcher
	config  DocumentAIConfig
	log     zerolog.Logger
}

// NewDocumentAIExtractor creates an extractor using credentials from environment.
func NewDocumentAIExtractor(ctx context.Context, config DocumentAIConfig, fetcher storage.Fetcher) (*DocumentAIExtractor, error) {
	const op = "NewDocumentAIExtractor"

	if config.Location == "" {
		config.Location = "us"
	}

	clientOptions := googleClientOptions()
	if config.Location != "us" {
		endpoint := fmt.Sprintf("%s-documentai.googleapis.com:443", config.Location)
		clientOptions = append(clientOptions, option.WithEndpoint(endpoint))
	}

	client, err := documentai.NewDocumentProcessorClient(ctx, clientOptions...)
	if err != nil {
		return nil, WrapOCRError(op, "", err, fmt.Sprintf("failed to create Document AI client for location: %s", config.Location))
	}

	return NewDocumentAIExtractorWithClient(client, config, fetcher), nil
}

// NewDocumentAIExtractorWithClient creates an extractor with an explicit client (for testing).
func NewDocumentAIExtractorWithClient(client DocumentProcessor, config DocumentAIConfig, fetcher storage.Fetcher) *DocumentAIExtractor {
	if config.Timeout <= 0 {
		config.Timeout = 60 * time.Second
	}
	return &DocumentAIExtractor{
		client:  client,
		fetcher: fetcher,
		config:  config,
		log:     logger.WithComponent("ocr-documentai"),
	}
}

// ExtractText sends the image to the OCR processor and returns its page
// lines in page order.
func (d *DocumentAIExtractor) ExtractText(ctx context.Context, key string) (string, error) {
	const op = "ExtractText"

	image, err := fetchImage(ctx, d.fetcher, key)
	if err != nil {
		return "", WrapOCRError(op, key, err, "failed to read image")
	}

	processCtx, cancel := context.WithTimeout(ctx, d.config.Timeout)
	defer cancel()

	resp, err := d.client.ProcessDocument(processCtx, &documentaipb.ProcessRequest{
		Name: d.config.ProcessorName(),
		Source: &documentaipb.ProcessRequest_RawDocument{
			RawDocument: &documentaipb.RawDocument{
				Content:  image,
				MimeType: imageMimeType(key, image),
			},
		},
	})
	if err != nil {
		d.log.Error().Err(err).Str("key", key).Str("processor", d.config.ProcessorID).Msg("Document AI call failed")
		return "", WrapOCRError(op, key, serviceFailure(err), "Document AI ProcessDocument")
	}

	doc := resp.GetDocument()
	if doc == nil {
		return "", WrapOCRError(op, key, ErrOCRFailed, "no document in response")
	}

	var lines []string
	for _, page := range doc.GetPages() {
		for _, line := range page.GetLines() {
			lines = append(lines, anchorText(doc.GetText(), line.GetLayout().GetTextAnchor()))
		}
	}

	d.log.Debug().
		Str("key", key).
		Int("pages", len(doc.GetPages())).
		Int("lines", len(lines)).
		Msg("Text detected")

	return JoinLines(lines), nil
}

// Close closes the underlying Document AI client.
func (d *DocumentAIExtractor) Close() error {
	if d.client != nil {
		return d.client.Close()
	}
	return nil
}

// anchorText resolves a layout's text segments against the document text.
func anchorText(text string, anchor *documentaipb.Document_TextAnchor) string {
	var b strings.Builder
	for _, seg := range anchor.GetTextSegments() {
		start, end := seg.GetStartIndex(), seg.GetEndIndex()
		if start < 0 || end > int64(len(text)) || start >= end {
			continue
		}
		b.WriteString(text[start:end])
	}
	return b.String()
}

func imageMimeType(key string, image []byte) string {
	if ext := storage.Extension(key); ext != "" {
		if ct := mime.TypeByExtension("." + strings.ToLower(ext)); ct != "" {
			return ct
		}
	}
	return http.DetectContentType(image)
}
