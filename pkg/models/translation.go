package models

// AutoDetectLanguage asks the translation service to detect the source language.
const AutoDetectLanguage = "auto"

// DefaultTargetLanguage is used when a request does not name a target language.
const DefaultTargetLanguage = "en"

// TranslationResult is the outcome of a single translation call.
type TranslationResult struct {
	OriginalText   string `json:"originalText"`
	TranslatedText string `json:"translatedText"`
	SourceLanguage string `json:"sourceLanguage"` // Resolved language, never "auto" once detected
	TargetLanguage string `json:"targetLanguage"`
}
