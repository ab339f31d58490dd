package ocr

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/rekognition/types"
	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
)

// RekognitionAPI is the subset of the Rekognition client used here.
type RekognitionAPI interface {
	DetectText(ctx context.Context, params *rekognition.DetectTextInput, optFns ...func(*rekognition.Options)) (*rekognition.DetectTextOutput, error)
}

// RekognitionExtractor implements TextExtractor with Amazon Rekognition,
// which reads the image directly from the S3 bucket.
type RekognitionExtractor struct {
	client RekognitionAPI
	bucket string
	log    zerolog.Logger
}

// NewRekognitionExtractor creates an extractor for images stored in bucket.
func NewRekognitionExtractor(client RekognitionAPI, bucket string) *RekognitionExtractor {
	return &RekognitionExtractor{
		client: client,
		bucket: bucket,
		log:    logger.WithComponent("ocr-rekognition"),
	}
}

// ExtractText issues one DetectText call for the object and keeps only LINE
// detections; WORD detections repeat the same text and are discarded.
func (r *RekognitionExtractor) ExtractText(ctx context.Context, key string) (string, error) {
	const op = "ExtractText"

	out, err := r.client.DetectText(ctx, &rekognition.DetectTextInput{
		Image: &types.Image{
			S3Object: &types.S3Object{
				Bucket: aws.String(r.bucket),
				Name:   aws.String(key),
			},
		},
	})
	if err != nil {
		r.log.Error().Err(err).Str("key", key).Msg("Rekognition DetectText failed")
		return "", WrapOCRError(op, key, serviceFailure(err), "Rekognition DetectText")
	}

	var lines []string
	for _, detection := range out.TextDetections {
		if detection.Type == types.TextTypesLine {
			lines = append(lines, aws.ToString(detection.DetectedText))
		}
	}

	r.log.Debug().
		Str("key", key).
		Int("detections", len(out.TextDetections)).
		Int("lines", len(lines)).
		Msg("Text detected")

	return JoinLines(lines), nil
}
