package models

// TranslationFailedMarker replaces an entity's translation when the
// translation call for that entity fails.
const TranslationFailedMarker = "Translation failed."

// Trait is a contextual attribute attached to a medical entity (e.g. NEGATION).
type Trait struct {
	Name  string  `json:"name"`
	Score float32 `json:"score"`
}

// MedicalEntity is a clinically relevant span detected in free text.
type MedicalEntity struct {
	ID             int32   `json:"id"`
	Text           string  `json:"text"`
	Category       string  `json:"category"` // e.g. MEDICATION, TEST_TREATMENT_PROCEDURE
	Type           string  `json:"type"`     // e.g. GENERIC_NAME, DOSAGE
	Score          float32 `json:"score"`
	BeginOffset    int32   `json:"beginOffset"`
	EndOffset      int32   `json:"endOffset"`
	Traits         []Trait `json:"traits"`
	TranslatedText string  `json:"translatedText,omitempty"`
}

// TranslationFailed reports whether the entity carries the failure marker.
func (e MedicalEntity) TranslationFailed() bool {
	return e.TranslatedText == TranslationFailedMarker
}
