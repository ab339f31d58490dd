package pipeline

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtranslate/internal/speech"
	"medtranslate/pkg/models"
)

type fakeExtractor struct {
	text  string
	err   error
	calls []string
}

func (f *fakeExtractor) ExtractText(_ context.Context, key string) (string, error) {
	f.calls = append(f.calls, key)
	return f.text, f.err
}

type fakeDetector struct {
	entities []models.MedicalEntity
	err      error
	calls    int
}

func (f *fakeDetector) DetectEntities(context.Context, string) ([]models.MedicalEntity, error) {
	f.calls++
	return f.entities, f.err
}

// mapTranslator translates from a fixed table and fails on unknown text.
type mapTranslator struct {
	table  map[string]string
	source string
	calls  []string
	after  func()
}

func (m *mapTranslator) Translate(_ context.Context, text, source, target string) (*models.TranslationResult, error) {
	m.calls = append(m.calls, text)
	if m.after != nil {
		defer m.after()
	}
	out, ok := m.table[text]
	if !ok {
		return nil, errors.New("service unavailable")
	}
	if source == models.AutoDetectLanguage {
		source = m.source
	}
	return &models.TranslationResult{OriginalText: text, TranslatedText: out, SourceLanguage: source, TargetLanguage: target}, nil
}

type fakeSpeech struct {
	uri      string
	err      error
	started  []string
	statuses map[string]*models.SynthesisTask
}

func (f *fakeSpeech) Synthesize(_ context.Context, text, language string) (string, error) {
	if _, err := speech.VoiceFor(language); err != nil {
		return "", err
	}
	return f.uri, f.err
}

func (f *fakeSpeech) Start(_ context.Context, text, language string) (*models.SynthesisTask, error) {
	if _, err := speech.VoiceFor(language); err != nil {
		return nil, err
	}
	f.started = append(f.started, text)
	return &models.SynthesisTask{TaskID: "task-1", Status: models.SynthesisScheduled}, f.err
}

func (f *fakeSpeech) Status(_ context.Context, taskID string) (*models.SynthesisTask, error) {
	task, ok := f.statuses[taskID]
	if !ok {
		return nil, speech.ErrSynthesisFailed
	}
	return task, nil
}

type recordingTracker struct {
	tracked map[string]string
}

func (r *recordingTracker) Track(taskID, callbackURL string) {
	if r.tracked == nil {
		r.tracked = map[string]string{}
	}
	r.tracked[taskID] = callbackURL
}

func TestProcess_FullText(t *testing.T) {
	extractor := &fakeExtractor{text: "BP 120/80"}
	translator := &mapTranslator{table: map[string]string{"BP 120/80": "TA 120/80"}, source: "en"}
	o := NewOrchestrator(extractor, &fakeDetector{}, translator, &fakeSpeech{}, nil)

	result, err := o.Process(context.Background(), ProcessRequest{FileID: "abc.png", Mode: models.ModeFullText, TargetLanguage: "fr"})
	require.NoError(t, err)

	assert.Equal(t, models.ModeFullText, result.Mode)
	assert.Equal(t, "BP 120/80", result.OriginalText)
	assert.Equal(t, "TA 120/80", result.TranslatedText)
	assert.Equal(t, "en", result.SourceLanguage)
	assert.Equal(t, "fr", result.TargetLanguage)
	assert.Empty(t, result.MedicalEntities)
	assert.Equal(t, []string{"abc.png"}, extractor.calls)
}

func TestProcess_DefaultsToFullTextAndEnglish(t *testing.T) {
	translator := &mapTranslator{table: map[string]string{"Fieber": "Fever"}, source: "de"}
	o := NewOrchestrator(&fakeExtractor{text: "Fieber"}, &fakeDetector{}, translator, &fakeSpeech{}, nil)

	result, err := o.Process(context.Background(), ProcessRequest{FileID: "a.png"})
	require.NoError(t, err)
	assert.Equal(t, models.ModeFullText, result.Mode)
	assert.Equal(t, "en", result.TargetLanguage)
	assert.Equal(t, "de", result.SourceLanguage)
}

func TestProcess_ValidationMakesNoCalls(t *testing.T) {
	tests := []struct {
		name    string
		req     ProcessRequest
		wantErr error
		wantMsg string
	}{
		{name: "missing file id", req: ProcessRequest{Mode: models.ModeFullText}, wantErr: ErrMissingFileID, wantMsg: "File ID is required."},
		{name: "blank file id", req: ProcessRequest{FileID: "  "}, wantErr: ErrMissingFileID, wantMsg: "File ID is required."},
		{name: "bogus mode", req: ProcessRequest{FileID: "x.png", Mode: "bogus"}, wantErr: ErrInvalidMode, wantMsg: "Invalid mode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			extractor := &fakeExtractor{text: "anything"}
			o := NewOrchestrator(extractor, &fakeDetector{}, &mapTranslator{}, &fakeSpeech{}, nil)

			_, err := o.Process(context.Background(), tt.req)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.True(t, IsClientError(err))
			assert.Contains(t, Message(err), tt.wantMsg)
			assert.Empty(t, extractor.calls)
		})
	}
}

func TestProcess_NoTextDetected(t *testing.T) {
	translator := &mapTranslator{}
	o := NewOrchestrator(&fakeExtractor{text: "  "}, &fakeDetector{}, translator, &fakeSpeech{}, nil)

	_, err := o.Process(context.Background(), ProcessRequest{FileID: "blank.png"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoTextDetected)
	assert.False(t, IsClientError(err))
	assert.Equal(t, "No text detected in the image.", Message(err))
	assert.Empty(t, translator.calls)
}

func TestProcess_ExtractionFailure(t *testing.T) {
	o := NewOrchestrator(&fakeExtractor{err: errors.New("InvalidS3ObjectException")}, &fakeDetector{}, &mapTranslator{}, &fakeSpeech{}, nil)

	_, err := o.Process(context.Background(), ProcessRequest{FileID: "x.png"})
	require.Error(t, err)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageExtract, stageErr.Stage)
	assert.Contains(t, Message(err), "InvalidS3ObjectException")
}

func TestProcess_FullTextTranslationFailure(t *testing.T) {
	o := NewOrchestrator(&fakeExtractor{text: "unknown"}, &fakeDetector{}, &mapTranslator{}, &fakeSpeech{}, nil)

	_, err := o.Process(context.Background(), ProcessRequest{FileID: "x.png"})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageTranslate, stageErr.Stage)
}

func TestProcess_StructuredIsolatesEntityFailures(t *testing.T) {
	detector := &fakeDetector{entities: []models.MedicalEntity{
		{ID: 0, Text: "aspirina", Category: "MEDICATION"},
		{ID: 1, Text: "cefalea", Category: "MEDICAL_CONDITION"},
		{ID: 2, Text: "81 mg", Category: "MEDICATION"},
	}}
	translator := &mapTranslator{table: map[string]string{"aspirina": "aspirin", "81 mg": "81 mg"}, source: "es"}
	o := NewOrchestrator(&fakeExtractor{text: "aspirina 81 mg para cefalea"}, detector, translator, &fakeSpeech{}, nil)

	result, err := o.Process(context.Background(), ProcessRequest{FileID: "rx.png", Mode: models.ModeStructured})
	require.NoError(t, err)

	require.Len(t, result.MedicalEntities, 3)
	assert.Equal(t, "aspirin", result.MedicalEntities[0].TranslatedText)
	assert.Equal(t, models.TranslationFailedMarker, result.MedicalEntities[1].TranslatedText)
	assert.Equal(t, "81 mg", result.MedicalEntities[2].TranslatedText)
	assert.Equal(t, "es", result.SourceLanguage)
	assert.Empty(t, result.TranslatedText)
	assert.Equal(t, []string{"aspirina", "cefalea", "81 mg"}, translator.calls)
}

func TestProcess_StructuredStopsWhenContextDone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	detector := &fakeDetector{entities: []models.MedicalEntity{{Text: "aspirina"}, {Text: "81 mg"}}}
	translator := &mapTranslator{table: map[string]string{"aspirina": "aspirin", "81 mg": "81 mg"}, source: "es", after: cancel}
	o := NewOrchestrator(&fakeExtractor{text: "aspirina 81 mg"}, detector, translator, &fakeSpeech{}, nil)

	result, err := o.Process(ctx, ProcessRequest{FileID: "rx.png", Mode: models.ModeStructured})
	require.Error(t, err)
	assert.Nil(t, result)
	assert.ErrorIs(t, err, context.Canceled)

	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageTranslate, stageErr.Stage)
	assert.Equal(t, []string{"aspirina"}, translator.calls)
}

func TestProcess_StructuredDetectionFailureIsFatal(t *testing.T) {
	translator := &mapTranslator{}
	detector := &fakeDetector{err: errors.New("TooManyRequestsException")}
	o := NewOrchestrator(&fakeExtractor{text: "text"}, detector, translator, &fakeSpeech{}, nil)

	_, err := o.Process(context.Background(), ProcessRequest{FileID: "x.png", Mode: models.ModeStructured})
	var stageErr *StageError
	require.ErrorAs(t, err, &stageErr)
	assert.Equal(t, StageDetect, stageErr.Stage)
	assert.Empty(t, translator.calls)
}

func TestTranslate(t *testing.T) {
	translator := &mapTranslator{table: map[string]string{"Hola": "Hello"}, source: "es"}
	o := NewOrchestrator(&fakeExtractor{}, &fakeDetector{}, translator, &fakeSpeech{}, nil)

	result, err := o.Translate(context.Background(), TranslateRequest{Text: "Hola"})
	require.NoError(t, err)
	assert.Equal(t, "Hello", result.TranslatedText)
	assert.Equal(t, "es", result.SourceLanguage)
	assert.Equal(t, "en", result.TargetLanguage)

	_, err = o.Translate(context.Background(), TranslateRequest{})
	assert.ErrorIs(t, err, ErrMissingText)
	assert.Len(t, translator.calls, 1)
}

func TestSynthesize(t *testing.T) {
	o := NewOrchestrator(&fakeExtractor{}, &fakeDetector{}, &mapTranslator{}, &fakeSpeech{uri: "https://s3/b/t.mp3"}, nil)

	uri, err := o.Synthesize(context.Background(), SynthesizeRequest{Text: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "https://s3/b/t.mp3", uri)

	_, err = o.Synthesize(context.Background(), SynthesizeRequest{})
	assert.ErrorIs(t, err, ErrMissingText)
}

func TestSynthesize_UnsupportedLanguage(t *testing.T) {
	o := NewOrchestrator(&fakeExtractor{}, &fakeDetector{}, &mapTranslator{}, &fakeSpeech{}, nil)

	_, err := o.Synthesize(context.Background(), SynthesizeRequest{Text: "こんにちは", TargetLanguage: "ja"})
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.Equal(t, "Unsupported language: ja", Message(err))
}

func TestStartSynthesis_TracksCallback(t *testing.T) {
	sp := &fakeSpeech{}
	tracker := &recordingTracker{}
	o := NewOrchestrator(&fakeExtractor{}, &fakeDetector{}, &mapTranslator{}, sp, tracker)

	task, err := o.StartSynthesis(context.Background(), SynthesizeRequest{Text: "Hallo", TargetLanguage: "de", CallbackURL: "https://example.test/hook"})
	require.NoError(t, err)
	assert.Equal(t, "task-1", task.TaskID)
	assert.Equal(t, "https://example.test/hook", tracker.tracked["task-1"])

	_, err = o.StartSynthesis(context.Background(), SynthesizeRequest{Text: "Hallo"})
	require.NoError(t, err)
	assert.Len(t, tracker.tracked, 1)
	assert.Len(t, sp.started, 2)
}

func TestSynthesisStatus(t *testing.T) {
	sp := &fakeSpeech{statuses: map[string]*models.SynthesisTask{
		"done": {TaskID: "done", Status: models.SynthesisCompleted, OutputURI: "https://s3/b/done.mp3"},
	}}
	o := NewOrchestrator(&fakeExtractor{}, &fakeDetector{}, &mapTranslator{}, sp, nil)

	task, err := o.SynthesisStatus(context.Background(), "done")
	require.NoError(t, err)
	assert.Equal(t, "https://s3/b/done.mp3", task.OutputURI)

	_, err = o.SynthesisStatus(context.Background(), "missing")
	assert.ErrorIs(t, err, speech.ErrSynthesisFailed)
}
