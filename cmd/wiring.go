package cmd

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/comprehendmedical"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/rs/zerolog"

	"medtranslate/internal/cache"
	"medtranslate/internal/config"
	"medtranslate/internal/medical"
	"medtranslate/internal/ocr"
	"medtranslate/internal/pipeline"
	"medtranslate/internal/speech"
	"medtranslate/internal/storage"
	"medtranslate/internal/translation"
)

// services holds the stages built from configuration.
type services struct {
	cfg        *config.Config
	gateway    *storage.Gateway
	extractor  ocr.TextExtractor
	detector   medical.EntityDetector
	translator translation.Translator
	speech     *speech.Service
	closers    []func() error
	log        zerolog.Logger
}

// buildServices creates every stage for the configured providers.
func buildServices(ctx context.Context, cfg *config.Config, log zerolog.Logger) (*services, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	s := &services{cfg: cfg, log: log}

	var store storage.ObjectStore
	switch cfg.StorageBackend {
	case config.StorageMemory:
		log.Warn().Msg("Using in-memory storage, uploads are lost on exit")
		store = storage.NewMemoryStore(cfg.StorageBucket)
	default:
		store = storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.StorageBucket)
	}
	s.gateway = storage.NewGateway(store)

	switch cfg.OCRProvider {
	case config.OCRVision:
		extractor, err := ocr.NewGoogleVisionExtractor(ctx, s.gateway)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create Vision OCR: %w", err)
		}
		s.extractor = extractor
		s.closers = append(s.closers, extractor.Close)
	case config.OCRDocumentAI:
		extractor, err := ocr.NewDocumentAIExtractor(ctx, ocr.DocumentAIConfig{
			ProjectID:   cfg.GoogleCloudProject,
			Location:    cfg.GoogleCloudLocation,
			ProcessorID: cfg.DocumentAIProcessorID,
		}, s.gateway)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to create Document AI OCR: %w", err)
		}
		s.extractor = extractor
		s.closers = append(s.closers, extractor.Close)
	default:
		s.extractor = ocr.NewRekognitionExtractor(rekognition.NewFromConfig(awsCfg), cfg.StorageBucket)
	}

	s.detector = medical.NewComprehendDetector(comprehendmedical.NewFromConfig(awsCfg))

	var translator translation.Translator
	switch cfg.TranslationProvider {
	case config.TranslationOpenAI:
		translator = translation.NewOpenAITranslator(cfg.OpenAIAPIKey, translation.OpenAIConfig{Model: cfg.OpenAIModel})
	default:
		translator = translation.NewAWSTranslator(translate.NewFromConfig(awsCfg))
	}

	switch cfg.TranslationCache {
	case config.CacheMemory:
		translator = translation.NewCachedTranslator(translator, cache.NewMemoryClient(0), cfg.TranslationCacheTTL)
	case config.CacheRedis:
		rc, err := cache.NewRedisClient(ctx, cache.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("failed to connect translation cache: %w", err)
		}
		s.closers = append(s.closers, rc.Close)
		translator = translation.NewCachedTranslator(translator, rc, cfg.TranslationCacheTTL)
	}
	s.translator = translator

	makePublic := cfg.SpeechMakePublic
	if makePublic && cfg.StorageBackend == config.StorageMemory {
		log.Warn().Msg("Speech output is written to S3, skipping publish step with in-memory storage")
		makePublic = false
	}
	s.speech = speech.NewService(
		speech.NewPollyClient(polly.NewFromConfig(awsCfg), cfg.StorageBucket),
		s.gateway,
		speech.Config{
			PollInterval:    cfg.SpeechPollInterval,
			MaxPollInterval: cfg.SpeechPollMaxInterval,
			MaxWait:         cfg.SpeechMaxWait,
			MakePublic:      makePublic,
		},
	)

	log.Debug().
		Str("storage", cfg.StorageBackend).
		Str("ocr", cfg.OCRProvider).
		Str("translation", cfg.TranslationProvider).
		Str("cache", cfg.TranslationCache).
		Msg("Services created")

	return s, nil
}

// orchestrator wires the stages into a pipeline. tracker may be nil.
func (s *services) orchestrator(tracker *speech.Tracker) *pipeline.Orchestrator {
	if tracker == nil {
		return pipeline.NewOrchestrator(s.extractor, s.detector, s.translator, s.speech, nil)
	}
	return pipeline.NewOrchestrator(s.extractor, s.detector, s.translator, s.speech, tracker)
}

// Close releases clients that hold connections.
func (s *services) Close() {
	for _, closeFn := range s.closers {
		if err := closeFn(); err != nil {
			s.log.Warn().Err(err).Msg("Failed to close client")
		}
	}
}

// loadServices loads configuration and builds the services for a command.
func loadServices(ctx context.Context, log zerolog.Logger) (*services, error) {
	cfg, err := config.Load()
	if err != nil {
		log.Error().Err(err).Msg("Invalid configuration")
		return nil, err
	}
	return buildServices(ctx, cfg, log)
}
