package ocr

import (
	"context"
	"fmt"
	"strings"

	vision "cloud.google.com/go/vision/v2/apiv1"
	"cloud.google.com/go/vision/v2/apiv1/visionpb"
	"github.com/googleapis/gax-go/v2"
	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
	"medtranslate/internal/storage"
)

// ImageAnnotator is the subset of the Vision client used here.
type ImageAnnotator interface {
	BatchAnnotateImages(ctx context.Context, req *visionpb.BatchAnnotateImagesRequest, opts ...gax.CallOption) (*visionpb.BatchAnnotateImagesResponse, error)
	Close() error
}

// GoogleVisionExtractor implements TextExtractor using Google Cloud Vision API.
type GoogleVisionExtractor struct {
	client  ImageAnnotator
	fetcher storage.Fetcher
	log     zerolog.Logger
}

// NewGoogleVisionExtractor creates an extractor with credentials from environment.
// It expects either GOOGLE_APPLICATION_CREDENTIALS path or GOOGLE_CREDENTIALS JSON in env,
// falling back to application default credentials.
func NewGoogleVisionExtractor(ctx context.Context, fetcher storage.Fetcher) (*GoogleVisionExtractor, error) {
	const op = "NewGoogleVisionExtractor"

	opts := googleClientOptions()
	client, err := vision.NewImageAnnotatorClient(ctx, opts...)
	if err != nil {
		if len(opts) == 0 {
			return nil, WrapOCRError(op, "", ErrMissingCredentials, "no credentials found in environment")
		}
		return nil, WrapOCRError(op, "", err, "failed to create Vision client")
	}

	return NewGoogleVisionExtractorWithClient(client, fetcher), nil
}

// NewGoogleVisionExtractorWithClient creates an extractor with an explicit client (for testing).
func NewGoogleVisionExtractorWithClient(client ImageAnnotator, fetcher storage.Fetcher) *GoogleVisionExtractor {
	return &GoogleVisionExtractor{
		client:  client,
		fetcher: fetcher,
		log:     logger.WithComponent("ocr-vision"),
	}
}

// ExtractText fetches the image and runs document text detection on it.
// The full-text annotation lists one detected line per newline.
func (g *GoogleVisionExtractor) ExtractText(ctx context.Context, key string) (string, error) {
	const op = "ExtractText"

	image, err := fetchImage(ctx, g.fetcher, key)
	if err != nil {
		return "", WrapOCRError(op, key, err, "failed to read image")
	}

	resp, err := g.client.BatchAnnotateImages(ctx, &visionpb.BatchAnnotateImagesRequest{
		Requests: []*visionpb.AnnotateImageRequest{
			{
				Image: &visionpb.Image{Content: image},
				Features: []*visionpb.Feature{
					{Type: visionpb.Feature_DOCUMENT_TEXT_DETECTION},
				},
			},
		},
	})
	if err != nil {
		g.log.Error().Err(err).Str("key", key).Msg("Vision API call failed")
		return "", WrapOCRError(op, key, serviceFailure(err), "Vision BatchAnnotateImages")
	}

	if len(resp.GetResponses()) == 0 {
		return "", WrapOCRError(op, key, ErrOCRFailed, "no response from Vision API")
	}

	imageResp := resp.GetResponses()[0]
	if msg := imageResp.GetError().GetMessage(); msg != "" {
		return "", WrapOCRError(op, key, ErrOCRFailed, fmt.Sprintf("Vision API error: %s", msg))
	}

	lines := strings.Split(imageResp.GetFullTextAnnotation().GetText(), "\n")
	text := JoinLines(lines)

	g.log.Debug().Str("key", key).Int("text_length", len(text)).Msg("Text detected")
	return text, nil
}

// Close closes the underlying Vision client.
func (g *GoogleVisionExtractor) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

func fetchImage(ctx context.Context, fetcher storage.Fetcher, key string) ([]byte, error) {
	image, err := fetcher.Fetch(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(image) == 0 {
		return nil, ErrEmptyImage
	}
	if len(image) > MaxInlineImageBytes {
		return nil, ErrImageTooLarge
	}
	return image, nil
}
