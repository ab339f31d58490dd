package models

import "encoding/json"

// StoredObject describes a blob written through the storage gateway.
type StoredObject struct {
	Key       string `json:"fileId"`  // Generated object key (UUID + original extension)
	Bucket    string `json:"bucket"`  // Bucket the object lives in
	PublicURL string `json:"fileUrl"` // Public HTTP URL of the object
}

// ExtractedText is the OCR output for one stored image.
type ExtractedText struct {
	SourceKey string `json:"fileId"`
	Text      string `json:"text"` // Space-joined line detections, may be empty
}

// Mode selects how the processing pipeline treats extracted text.
type Mode string

const (
	// ModeFullText translates the whole extracted text in one call.
	ModeFullText Mode = "full_text"
	// ModeStructured detects medical entities and translates each one.
	ModeStructured Mode = "structured"
)

// Valid reports whether m is a known processing mode.
func (m Mode) Valid() bool {
	return m == ModeFullText || m == ModeStructured
}

// ProcessResult is the aggregated payload returned by the processing pipeline.
type ProcessResult struct {
	FileID          string          `json:"fileId"`
	Mode            Mode            `json:"mode"`
	OriginalText    string          `json:"originalText"`
	TranslatedText  string          `json:"translatedText,omitempty"` // full_text mode only
	MedicalEntities []MedicalEntity `json:"medicalEntities"`          // structured mode only
	SourceLanguage  string          `json:"sourceLanguage"`
	TargetLanguage  string          `json:"targetLanguage"`
}

// MarshalJSON always emits medicalEntities for structured results, as an
// empty array when nothing was detected, and never for full_text results.
func (r ProcessResult) MarshalJSON() ([]byte, error) {
	type plain ProcessResult

	if r.Mode == ModeStructured {
		entities := r.MedicalEntities
		if entities == nil {
			entities = []MedicalEntity{}
		}
		return json.Marshal(struct {
			plain
			MedicalEntities []MedicalEntity `json:"medicalEntities"`
		}{plain(r), entities})
	}

	return json.Marshal(struct {
		plain
		MedicalEntities []MedicalEntity `json:"medicalEntities,omitempty"`
	}{plain: plain(r)})
}
