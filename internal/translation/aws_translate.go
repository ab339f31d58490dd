package translation

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/translate"
	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// TranslateAPI is the subset of the Amazon Translate client used here.
type TranslateAPI interface {
	TranslateText(ctx context.Context, params *translate.TranslateTextInput, optFns ...func(*translate.Options)) (*translate.TranslateTextOutput, error)
}

// AWSTranslator implements Translator with Amazon Translate.
type AWSTranslator struct {
	client TranslateAPI
	log    zerolog.Logger
}

// NewAWSTranslator wraps an Amazon Translate client.
func NewAWSTranslator(client TranslateAPI) *AWSTranslator {
	return &AWSTranslator{
		client: client,
		log:    logger.WithComponent("translation-aws"),
	}
}

func (a *AWSTranslator) Translate(ctx context.Context, text, source, target string) (*models.TranslationResult, error) {
	source, target = normalize(source, target)
	fail := func(err error) error {
		return &TranslationError{Provider: "aws", Source: source, Target: target, Err: err}
	}

	if strings.TrimSpace(text) == "" {
		return nil, fail(ErrEmptyText)
	}

	out, err := a.client.TranslateText(ctx, &translate.TranslateTextInput{
		Text:               aws.String(text),
		SourceLanguageCode: aws.String(source),
		TargetLanguageCode: aws.String(target),
	})
	if err != nil {
		a.log.Error().Err(err).Str("source", source).Str("target", target).Msg("TranslateText failed")
		return nil, fail(fmt.Errorf("%w: %w", ErrTranslationFailed, err))
	}

	if out.TranslatedText == nil {
		return nil, fail(fmt.Errorf("%w: no translated text", ErrMalformedResponse))
	}

	resolved := aws.ToString(out.SourceLanguageCode)
	if resolved == "" {
		resolved = source
	}
	if resolved == models.AutoDetectLanguage {
		return nil, fail(fmt.Errorf("%w: source language not resolved", ErrMalformedResponse))
	}

	resolvedTarget := aws.ToString(out.TargetLanguageCode)
	if resolvedTarget == "" {
		resolvedTarget = target
	}

	return &models.TranslationResult{
		OriginalText:   text,
		TranslatedText: aws.ToString(out.TranslatedText),
		SourceLanguage: resolved,
		TargetLanguage: resolvedTarget,
	}, nil
}
