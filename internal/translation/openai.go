package translation

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sashabaranov/go-openai"

	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// ChatCompleter is the subset of the OpenAI client used here.
type ChatCompleter interface {
	CreateChatCompletion(ctx context.Context, request openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// OpenAIConfig configures the chat-model translator.
type OpenAIConfig struct {
	Model       string
	Temperature float32
}

// OpenAITranslator implements Translator with a chat completion model
// instructed to answer in JSON.
type OpenAITranslator struct {
	client ChatCompleter
	config OpenAIConfig
	log    zerolog.Logger
}

type chatTranslation struct {
	SourceLanguage string `json:"sourceLanguage"`
	TranslatedText string `json:"translatedText"`
}

// NewOpenAITranslator creates a translator from an API key.
func NewOpenAITranslator(apiKey string, config OpenAIConfig) *OpenAITranslator {
	return NewOpenAITranslatorWithClient(openai.NewClient(apiKey), config)
}

// NewOpenAITranslatorWithClient creates a translator with an explicit client (for testing).
func NewOpenAITranslatorWithClient(client ChatCompleter, config OpenAIConfig) *OpenAITranslator {
	if config.Model == "" {
		config.Model = openai.GPT4oMini
	}
	return &OpenAITranslator{
		client: client,
		config: config,
		log:    logger.WithComponent("translation-openai"),
	}
}

func (o *OpenAITranslator) Translate(ctx context.Context, text, source, target string) (*models.TranslationResult, error) {
	source, target = normalize(source, target)
	fail := func(err error) error {
		return &TranslationError{Provider: "openai", Source: source, Target: target, Err: err}
	}

	if strings.TrimSpace(text) == "" {
		return nil, fail(ErrEmptyText)
	}

	resp, err := o.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       o.config.Model,
		Temperature: o.config.Temperature,
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: systemPrompt(source, target),
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: text,
			},
		},
	})
	if err != nil {
		o.log.Error().Err(err).Str("model", o.config.Model).Msg("Chat completion failed")
		return nil, fail(fmt.Errorf("%w: %w", ErrTranslationFailed, err))
	}

	if len(resp.Choices) == 0 {
		return nil, fail(fmt.Errorf("%w: no choices", ErrMalformedResponse))
	}

	var parsed chatTranslation
	if err := json.Unmarshal([]byte(resp.Choices[0].Message.Content), &parsed); err != nil {
		return nil, fail(fmt.Errorf("%w: %v", ErrMalformedResponse, err))
	}
	if parsed.TranslatedText == "" {
		return nil, fail(fmt.Errorf("%w: no translated text", ErrMalformedResponse))
	}

	resolved := source
	if source == models.AutoDetectLanguage {
		resolved = strings.ToLower(strings.TrimSpace(parsed.SourceLanguage))
		if resolved == "" || resolved == models.AutoDetectLanguage {
			return nil, fail(fmt.Errorf("%w: source language not resolved", ErrMalformedResponse))
		}
	}

	return &models.TranslationResult{
		OriginalText:   text,
		TranslatedText: parsed.TranslatedText,
		SourceLanguage: resolved,
		TargetLanguage: target,
	}, nil
}

func systemPrompt(source, target string) string {
	from := fmt.Sprintf("from the language with ISO 639-1 code %q", source)
	if source == models.AutoDetectLanguage {
		from = "from whatever language it is written in"
	}

	return fmt.Sprintf(`You translate medical documents. Translate the user's message %s into the language with ISO 639-1 code %q.
Keep drug names, dosages, units and numbers exactly as written.
Respond only with a JSON object of the form {"sourceLanguage": "<ISO 639-1 code of the original text>", "translatedText": "<translation>"}.`, from, target)
}
