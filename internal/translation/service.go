// Package translation translates free text and detected medical entities.
//
// Translators resolve the "auto" source language to the language the
// service detected and report that back; callers never see "auto" in a
// successful result.
package translation

import (
	"context"
	"strings"

	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// Translator translates a single piece of text.
type Translator interface {
	Translate(ctx context.Context, text, source, target string) (*models.TranslationResult, error)
}

// normalize applies the request defaults: auto-detected source, English target.
func normalize(source, target string) (string, string) {
	if source = strings.TrimSpace(source); source == "" {
		source = models.AutoDetectLanguage
	}
	if target = strings.TrimSpace(target); target == "" {
		target = models.DefaultTargetLanguage
	}
	return source, target
}

// TranslateEntities translates each entity's text one at a time. A failed
// entity gets models.TranslationFailedMarker and the batch carries on.
//
// The returned language is the first source language the service resolved,
// or source itself when nothing was translated. The batch stops with the
// context error once ctx is done.
func TranslateEntities(ctx context.Context, tr Translator, entities []models.MedicalEntity, source, target string) ([]models.MedicalEntity, string, error) {
	log := logger.WithComponent("translation")
	resolved := ""

	out := make([]models.MedicalEntity, len(entities))
	for i, entity := range entities {
		if err := ctx.Err(); err != nil {
			log.Warn().Err(err).Int("translated", i).Int("entities", len(entities)).Msg("Entity translation interrupted")
			return nil, "", err
		}
		out[i] = entity

		result, err := tr.Translate(ctx, entity.Text, source, target)
		if err != nil {
			log.Warn().
				Err(err).
				Str("entity", entity.Text).
				Str("category", entity.Category).
				Msg("Entity translation failed, continuing with remaining entities")
			out[i].TranslatedText = models.TranslationFailedMarker
			continue
		}

		out[i].TranslatedText = result.TranslatedText
		if resolved == "" {
			resolved = result.SourceLanguage
		}
	}

	if resolved == "" {
		resolved = source
	}
	return out, resolved, nil
}
