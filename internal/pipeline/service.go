// Package pipeline runs the document and speech workflows: OCR, optional
// medical entity detection, translation and speech synthesis.
//
// Requests are validated before any remote call. Each stage returns its error
// to the orchestrator, which decides whether the request fails. The only
// tolerated failure is the translation of a single entity, which is replaced
// by models.TranslationFailedMarker.
package pipeline

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
	"medtranslate/internal/medical"
	"medtranslate/internal/ocr"
	"medtranslate/internal/translation"
	"medtranslate/pkg/models"
)

// Synthesizer is the speech stage.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, language string) (string, error)
	Start(ctx context.Context, text, language string) (*models.SynthesisTask, error)
	Status(ctx context.Context, taskID string) (*models.SynthesisTask, error)
}

// TaskTracker follows a started synthesis task and reports to a callback URL.
type TaskTracker interface {
	Track(taskID, callbackURL string)
}

// ProcessRequest asks for OCR and translation of a stored image.
type ProcessRequest struct {
	FileID         string      `json:"fileId"`
	Mode           models.Mode `json:"mode"`
	SourceLanguage string      `json:"sourceLanguage"`
	TargetLanguage string      `json:"targetLanguage"`
}

// TranslateRequest asks for the translation of free text.
type TranslateRequest struct {
	Text           string `json:"text"`
	SourceLanguage string `json:"sourceLanguage"`
	TargetLanguage string `json:"targetLanguage"`
}

// SynthesizeRequest asks for speech from text.
type SynthesizeRequest struct {
	Text           string `json:"text"`
	TargetLanguage string `json:"targetLanguage"`
	Async          bool   `json:"async"`
	CallbackURL    string `json:"callbackUrl"`
}

func (r *ProcessRequest) normalize() error {
	r.FileID = strings.TrimSpace(r.FileID)
	if r.FileID == "" {
		return ErrMissingFileID
	}
	if r.Mode == "" {
		r.Mode = models.ModeFullText
	}
	if !r.Mode.Valid() {
		return ErrInvalidMode
	}
	r.SourceLanguage, r.TargetLanguage = languages(r.SourceLanguage, r.TargetLanguage)
	return nil
}

func (r *TranslateRequest) normalize() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrMissingText
	}
	r.SourceLanguage, r.TargetLanguage = languages(r.SourceLanguage, r.TargetLanguage)
	return nil
}

func (r *SynthesizeRequest) normalize() error {
	if strings.TrimSpace(r.Text) == "" {
		return ErrMissingText
	}
	if r.TargetLanguage = strings.TrimSpace(r.TargetLanguage); r.TargetLanguage == "" {
		r.TargetLanguage = models.DefaultTargetLanguage
	}
	return nil
}

func languages(source, target string) (string, string) {
	if source = strings.TrimSpace(source); source == "" {
		source = models.AutoDetectLanguage
	}
	if target = strings.TrimSpace(target); target == "" {
		target = models.DefaultTargetLanguage
	}
	return source, target
}

// Orchestrator wires the stages together.
type Orchestrator struct {
	extractor  ocr.TextExtractor
	detector   medical.EntityDetector
	translator translation.Translator
	speech     Synthesizer
	tracker    TaskTracker
	log        zerolog.Logger
}

// NewOrchestrator creates an orchestrator. tracker may be nil, in which case
// callback URLs are ignored.
func NewOrchestrator(extractor ocr.TextExtractor, detector medical.EntityDetector, translator translation.Translator, speech Synthesizer, tracker TaskTracker) *Orchestrator {
	return &Orchestrator{
		extractor:  extractor,
		detector:   detector,
		translator: translator,
		speech:     speech,
		tracker:    tracker,
		log:        logger.WithComponent("pipeline"),
	}
}

// Process extracts the text of a stored image and translates it, either as a
// whole or entity by entity.
func (o *Orchestrator) Process(ctx context.Context, req ProcessRequest) (*models.ProcessResult, error) {
	if err := req.normalize(); err != nil {
		return nil, stageError(StageValidate, err)
	}

	log := logger.Ctx(ctx).With().
		Str("component", "pipeline").
		Str("file_id", req.FileID).
		Str("mode", string(req.Mode)).
		Logger()

	text, err := o.extractor.ExtractText(ctx, req.FileID)
	if err != nil {
		log.Error().Err(err).Msg("Text extraction failed")
		return nil, stageError(StageExtract, err)
	}
	if strings.TrimSpace(text) == "" {
		log.Warn().Msg("No text detected")
		return nil, stageError(StageExtract, ErrNoTextDetected)
	}
	log.Debug().Int("chars", len(text)).Msg("Text extracted")

	result := &models.ProcessResult{
		FileID:         req.FileID,
		Mode:           req.Mode,
		OriginalText:   text,
		TargetLanguage: req.TargetLanguage,
	}

	switch req.Mode {
	case models.ModeStructured:
		entities, err := o.detector.DetectEntities(ctx, text)
		if err != nil {
			log.Error().Err(err).Msg("Entity detection failed")
			return nil, stageError(StageDetect, err)
		}

		translated, source, err := translation.TranslateEntities(ctx, o.translator, entities, req.SourceLanguage, req.TargetLanguage)
		if err != nil {
			log.Error().Err(err).Msg("Entity translation aborted")
			return nil, stageError(StageTranslate, err)
		}
		result.MedicalEntities = translated
		result.SourceLanguage = source

		failed := 0
		for _, e := range translated {
			if e.TranslationFailed() {
				failed++
			}
		}
		log.Info().Int("entities", len(translated)).Int("failed", failed).Msg("Structured processing finished")

	default:
		tr, err := o.translator.Translate(ctx, text, req.SourceLanguage, req.TargetLanguage)
		if err != nil {
			log.Error().Err(err).Msg("Translation failed")
			return nil, stageError(StageTranslate, err)
		}
		result.TranslatedText = tr.TranslatedText
		result.SourceLanguage = tr.SourceLanguage
		result.TargetLanguage = tr.TargetLanguage
		log.Info().Str("source_language", tr.SourceLanguage).Msg("Full text processing finished")
	}

	return result, nil
}

// Translate translates free text.
func (o *Orchestrator) Translate(ctx context.Context, req TranslateRequest) (*models.TranslationResult, error) {
	if err := req.normalize(); err != nil {
		return nil, stageError(StageValidate, err)
	}

	result, err := o.translator.Translate(ctx, req.Text, req.SourceLanguage, req.TargetLanguage)
	if err != nil {
		return nil, stageError(StageTranslate, err)
	}
	return result, nil
}

// Synthesize produces speech for the text and waits for its URL.
func (o *Orchestrator) Synthesize(ctx context.Context, req SynthesizeRequest) (string, error) {
	if err := req.normalize(); err != nil {
		return "", stageError(StageValidate, err)
	}

	uri, err := o.speech.Synthesize(ctx, req.Text, req.TargetLanguage)
	if err != nil {
		return "", synthesisError(err, req.TargetLanguage)
	}
	return uri, nil
}

// StartSynthesis starts a synthesis task and returns without waiting. When
// the request names a callback URL the task is tracked in the background.
func (o *Orchestrator) StartSynthesis(ctx context.Context, req SynthesizeRequest) (*models.SynthesisTask, error) {
	if err := req.normalize(); err != nil {
		return nil, stageError(StageValidate, err)
	}

	task, err := o.speech.Start(ctx, req.Text, req.TargetLanguage)
	if err != nil {
		return nil, synthesisError(err, req.TargetLanguage)
	}

	if req.CallbackURL != "" {
		if o.tracker == nil {
			o.log.Warn().Str("task_id", task.TaskID).Msg("Callback requested but no tracker configured")
		} else {
			o.tracker.Track(task.TaskID, req.CallbackURL)
		}
	}
	return task, nil
}

// SynthesisStatus reports the state of a synthesis task.
func (o *Orchestrator) SynthesisStatus(ctx context.Context, taskID string) (*models.SynthesisTask, error) {
	task, err := o.speech.Status(ctx, taskID)
	if err != nil {
		return nil, stageError(StageSynthesis, err)
	}
	return task, nil
}

func synthesisError(err error, language string) error {
	return &StageError{
		Stage:   StageSynthesis,
		Err:     err,
		Details: map[string]string{"language": language},
	}
}
