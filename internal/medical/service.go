// Package medical detects clinically relevant entities (medications,
// dosages, conditions, procedures) in free text using Amazon Comprehend
// Medical.
package medical

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/comprehendmedical"
	"github.com/aws/aws-sdk-go-v2/service/comprehendmedical/types"
	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// MaxTextBytes is the Comprehend Medical limit for a single request.
const MaxTextBytes = 20000

// EntityDetector finds medical entities in text.
type EntityDetector interface {
	DetectEntities(ctx context.Context, text string) ([]models.MedicalEntity, error)
}

// ComprehendMedicalAPI is the subset of the Comprehend Medical client used here.
type ComprehendMedicalAPI interface {
	DetectEntitiesV2(ctx context.Context, params *comprehendmedical.DetectEntitiesV2Input, optFns ...func(*comprehendmedical.Options)) (*comprehendmedical.DetectEntitiesV2Output, error)
}

// ComprehendDetector implements EntityDetector.
type ComprehendDetector struct {
	client ComprehendMedicalAPI
	log    zerolog.Logger
}

// NewComprehendDetector wraps a Comprehend Medical client.
func NewComprehendDetector(client ComprehendMedicalAPI) *ComprehendDetector {
	return &ComprehendDetector{
		client: client,
		log:    logger.WithComponent("medical"),
	}
}

// DetectEntities runs one detection call over the whole text. Blank text
// yields an empty slice without calling the service.
func (d *ComprehendDetector) DetectEntities(ctx context.Context, text string) ([]models.MedicalEntity, error) {
	const op = "DetectEntities"

	if strings.TrimSpace(text) == "" {
		return []models.MedicalEntity{}, nil
	}
	if len(text) > MaxTextBytes {
		return nil, &EntityError{Op: op, Err: ErrTextTooLong, Details: fmt.Sprintf("%d bytes", len(text))}
	}

	out, err := d.client.DetectEntitiesV2(ctx, &comprehendmedical.DetectEntitiesV2Input{
		Text: aws.String(text),
	})
	if err != nil {
		d.log.Error().Err(err).Int("text_length", len(text)).Msg("Comprehend Medical call failed")
		return nil, &EntityError{Op: op, Err: fmt.Errorf("%w: %w", ErrDetectionFailed, err)}
	}

	entities := make([]models.MedicalEntity, 0, len(out.Entities))
	for _, e := range out.Entities {
		entities = append(entities, toEntity(e))
	}

	d.log.Debug().Int("entities", len(entities)).Msg("Medical entities detected")
	return entities, nil
}

func toEntity(e types.Entity) models.MedicalEntity {
	traits := make([]models.Trait, 0, len(e.Traits))
	for _, t := range e.Traits {
		traits = append(traits, models.Trait{
			Name:  string(t.Name),
			Score: aws.ToFloat32(t.Score),
		})
	}

	return models.MedicalEntity{
		ID:          aws.ToInt32(e.Id),
		Text:        aws.ToString(e.Text),
		Category:    string(e.Category),
		Type:        string(e.Type),
		Score:       aws.ToFloat32(e.Score),
		BeginOffset: aws.ToInt32(e.BeginOffset),
		EndOffset:   aws.ToInt32(e.EndOffset),
		Traits:      traits,
	}
}
