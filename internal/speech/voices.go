package speech

import (
	"fmt"
	"strings"
)

var voices = map[string]string{
	"en": "Ivy",
	"de": "Marlene",
	"fr": "Celine",
	"it": "Carla",
	"es": "Conchita",
}

// VoiceFor returns the voice used for a language code.
func VoiceFor(language string) (string, error) {
	voice, ok := voices[strings.ToLower(strings.TrimSpace(language))]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedLanguage, language)
	}
	return voice, nil
}
