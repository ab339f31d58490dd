package speech

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/polly"
	"github.com/aws/aws-sdk-go-v2/service/polly/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"medtranslate/pkg/models"
)

// scriptedClient reports the statuses in order, repeating the last one.
type scriptedClient struct {
	mu       sync.Mutex
	statuses []models.SynthesisStatus
	getErr   error
	startErr error
	noURI    bool
	starts   []string
	gets     int
}

func (c *scriptedClient) StartTask(_ context.Context, text, voice string) (*models.SynthesisTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.starts = append(c.starts, voice)
	if c.startErr != nil {
		return nil, c.startErr
	}
	return &models.SynthesisTask{TaskID: "task-1", Status: models.SynthesisScheduled}, nil
}

func (c *scriptedClient) GetTask(_ context.Context, taskID string) (*models.SynthesisTask, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, c.getErr
	}
	i := c.gets
	if i >= len(c.statuses) {
		i = len(c.statuses) - 1
	}
	c.gets++

	task := &models.SynthesisTask{TaskID: taskID, Status: c.statuses[i]}
	switch task.Status {
	case models.SynthesisCompleted:
		if !c.noURI {
			task.OutputURI = "https://s3.us-east-1.amazonaws.com/speech/" + taskID + ".mp3"
		}
	case models.SynthesisFailed:
		task.StatusReason = "Invalid SSML request"
	}
	return task, nil
}

type recordingPublisher struct {
	uris []string
	err  error
}

func (p *recordingPublisher) MakePublic(_ context.Context, uri string) error {
	p.uris = append(p.uris, uri)
	return p.err
}

func fastConfig() Config {
	return Config{
		PollInterval:    time.Millisecond,
		MaxPollInterval: 2 * time.Millisecond,
		MaxWait:         time.Second,
		MakePublic:      true,
	}
}

func TestVoiceFor(t *testing.T) {
	tests := map[string]string{"en": "Ivy", "de": "Marlene", "fr": "Celine", "it": "Carla", "es": "Conchita", " ES ": "Conchita"}
	for lang, want := range tests {
		voice, err := VoiceFor(lang)
		require.NoError(t, err, lang)
		assert.Equal(t, want, voice)
	}

	_, err := VoiceFor("ja")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
}

func TestSynthesize_UnsupportedLanguageMakesNoCalls(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisCompleted}}
	svc := NewService(client, nil, fastConfig())

	_, err := svc.Synthesize(context.Background(), "Hello", "ja")
	assert.ErrorIs(t, err, ErrUnsupportedLanguage)
	assert.Empty(t, client.starts)
	assert.Zero(t, client.gets)
}

func TestSynthesize_PollsUntilCompleted(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{
		models.SynthesisScheduled,
		models.SynthesisInProgress,
		models.SynthesisCompleted,
	}}
	pub := &recordingPublisher{}
	svc := NewService(client, pub, fastConfig())

	uri, err := svc.Synthesize(context.Background(), "Take one tablet daily", "en")
	require.NoError(t, err)

	assert.Equal(t, "https://s3.us-east-1.amazonaws.com/speech/task-1.mp3", uri)
	assert.Equal(t, []string{"Ivy"}, client.starts)
	assert.Equal(t, 3, client.gets)
	assert.Equal(t, []string{uri}, pub.uris)
}

func TestSynthesize_NoPublishWhenDisabled(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisCompleted}}
	pub := &recordingPublisher{}
	cfg := fastConfig()
	cfg.MakePublic = false

	_, err := NewService(client, pub, cfg).Synthesize(context.Background(), "Hallo", "de")
	require.NoError(t, err)
	assert.Empty(t, pub.uris)
}

func TestSynthesize_TaskFailed(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisInProgress, models.SynthesisFailed}}

	_, err := NewService(client, nil, fastConfig()).Synthesize(context.Background(), "Bonjour", "fr")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Contains(t, err.Error(), "Invalid SSML request")

	var synthErr *SynthesisError
	require.ErrorAs(t, err, &synthErr)
	assert.Equal(t, models.SynthesisFailed, synthErr.Status)
	assert.Equal(t, "task-1", synthErr.TaskID)
}

func TestSynthesize_Timeout(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisInProgress}}
	cfg := fastConfig()
	cfg.MaxWait = 20 * time.Millisecond

	_, err := NewService(client, nil, cfg).Synthesize(context.Background(), "Ciao", "it")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesisTimeout)
	assert.Greater(t, client.gets, 1)
}

func TestSynthesize_CompletedWithoutOutput(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisCompleted}, noURI: true}
	pub := &recordingPublisher{}

	uri, err := NewService(client, pub, fastConfig()).Synthesize(context.Background(), "Hello", "en")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Contains(t, err.Error(), "no output URI")
	assert.Empty(t, uri)
	assert.Empty(t, pub.uris)
}

func TestSynthesize_StartFailure(t *testing.T) {
	client := &scriptedClient{startErr: errors.New("TextLengthExceededException")}

	_, err := NewService(client, nil, fastConfig()).Synthesize(context.Background(), "Hola", "es")
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Contains(t, err.Error(), "TextLengthExceededException")
}

func TestSynthesize_EmptyText(t *testing.T) {
	client := &scriptedClient{}

	_, err := NewService(client, nil, fastConfig()).Synthesize(context.Background(), " ", "en")
	assert.ErrorIs(t, err, ErrEmptyText)
	assert.Empty(t, client.starts)
}

func TestWait_StatusLookupFailureIsNotRetried(t *testing.T) {
	client := &scriptedClient{getErr: errors.New("SynthesisTaskNotFoundException")}

	_, err := NewService(client, nil, fastConfig()).Wait(context.Background(), "gone")
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Zero(t, client.gets)
}

func TestWait_ContextCancelled(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisScheduled}}
	cfg := fastConfig()
	cfg.MaxWait = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := NewService(client, nil, cfg).Wait(ctx, "task-1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestStatus_PublishesCompletedTask(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisCompleted}}
	pub := &recordingPublisher{}

	task, err := NewService(client, pub, fastConfig()).Status(context.Background(), "task-9")
	require.NoError(t, err)
	assert.Equal(t, models.SynthesisCompleted, task.Status)
	assert.Equal(t, []string{task.OutputURI}, pub.uris)
}

func TestStatus_PendingIsNotPublished(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisInProgress}}
	pub := &recordingPublisher{}

	task, err := NewService(client, pub, fastConfig()).Status(context.Background(), "task-9")
	require.NoError(t, err)
	assert.Empty(t, task.OutputURI)
	assert.Empty(t, pub.uris)
}

func TestStatus_CompletedWithoutOutput(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisCompleted}, noURI: true}
	pub := &recordingPublisher{}

	task, err := NewService(client, pub, fastConfig()).Status(context.Background(), "task-9")
	require.Error(t, err)
	assert.Nil(t, task)
	assert.ErrorIs(t, err, ErrSynthesisFailed)
	assert.Empty(t, pub.uris)
}

type fakePolly struct {
	start *polly.StartSpeechSynthesisTaskInput
	task  types.SynthesisTask
}

func (f *fakePolly) StartSpeechSynthesisTask(_ context.Context, in *polly.StartSpeechSynthesisTaskInput, _ ...func(*polly.Options)) (*polly.StartSpeechSynthesisTaskOutput, error) {
	f.start = in
	return &polly.StartSpeechSynthesisTaskOutput{SynthesisTask: &f.task}, nil
}

func (f *fakePolly) GetSpeechSynthesisTask(_ context.Context, _ *polly.GetSpeechSynthesisTaskInput, _ ...func(*polly.Options)) (*polly.GetSpeechSynthesisTaskOutput, error) {
	return &polly.GetSpeechSynthesisTaskOutput{SynthesisTask: &f.task}, nil
}

func TestPollyClient(t *testing.T) {
	fake := &fakePolly{task: types.SynthesisTask{
		TaskId:     aws.String("abc"),
		TaskStatus: types.TaskStatusInProgress,
		OutputUri:  aws.String("https://s3.us-east-1.amazonaws.com/speech/abc.mp3"),
	}}
	client := NewPollyClient(fake, "speech")

	task, err := client.StartTask(context.Background(), "Hello", "Ivy")
	require.NoError(t, err)
	assert.Equal(t, "abc", task.TaskID)
	assert.Equal(t, models.SynthesisInProgress, task.Status)
	assert.Empty(t, task.OutputURI, "uri is only reported for completed tasks")

	assert.Equal(t, types.OutputFormatMp3, fake.start.OutputFormat)
	assert.Equal(t, types.VoiceIdIvy, fake.start.VoiceId)
	assert.Equal(t, "speech", aws.ToString(fake.start.OutputS3BucketName))

	fake.task.TaskStatus = types.TaskStatusCompleted
	task, err = client.GetTask(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, "https://s3.us-east-1.amazonaws.com/speech/abc.mp3", task.OutputURI)
}

type chanNotifier struct {
	got chan CallbackPayload
	url chan string
}

func (n *chanNotifier) Notify(ctx context.Context, url string, payload any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.url <- url
	n.got <- payload.(CallbackPayload)
	return nil
}

func TestTracker_NotifiesOnCompletion(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisInProgress, models.SynthesisCompleted}}
	notifier := &chanNotifier{got: make(chan CallbackPayload, 1), url: make(chan string, 1)}
	tracker := NewTracker(context.Background(), NewService(client, nil, fastConfig()), notifier)

	tracker.Track("task-7", "https://example.test/hook")
	require.NoError(t, tracker.Shutdown(context.Background()))

	assert.Equal(t, "https://example.test/hook", <-notifier.url)
	payload := <-notifier.got
	assert.Equal(t, "task-7", payload.TaskID)
	assert.Equal(t, models.SynthesisCompleted, payload.Status)
	assert.Contains(t, payload.SpeechURL, "task-7.mp3")
	assert.Empty(t, payload.Error)
}

func TestTracker_NotifiesOnFailure(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisFailed}}
	notifier := &chanNotifier{got: make(chan CallbackPayload, 1), url: make(chan string, 1)}
	tracker := NewTracker(context.Background(), NewService(client, nil, fastConfig()), notifier)

	tracker.Track("task-8", "https://example.test/hook")
	require.NoError(t, tracker.Shutdown(context.Background()))

	<-notifier.url
	payload := <-notifier.got
	assert.Equal(t, models.SynthesisFailed, payload.Status)
	assert.Contains(t, payload.Error, "Invalid SSML request")
}

func TestTracker_TimeoutKeepsPendingStatus(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisInProgress}}
	cfg := fastConfig()
	cfg.MaxWait = 20 * time.Millisecond
	notifier := &chanNotifier{got: make(chan CallbackPayload, 1), url: make(chan string, 1)}
	tracker := NewTracker(context.Background(), NewService(client, nil, cfg), notifier)

	tracker.Track("task-9", "https://example.test/hook")
	require.NoError(t, tracker.Shutdown(context.Background()))

	require.Len(t, notifier.got, 1)
	payload := <-notifier.got
	assert.Equal(t, models.SynthesisInProgress, payload.Status)
	assert.Contains(t, payload.Error, "timed out")
	assert.Empty(t, payload.SpeechURL)
}

func TestTracker_CancelStillNotifies(t *testing.T) {
	client := &scriptedClient{statuses: []models.SynthesisStatus{models.SynthesisScheduled}}
	cfg := fastConfig()
	cfg.MaxWait = time.Minute
	notifier := &chanNotifier{got: make(chan CallbackPayload, 1), url: make(chan string, 1)}
	base, cancel := context.WithCancel(context.Background())
	tracker := NewTracker(base, NewService(client, nil, cfg), notifier)

	tracker.Track("task-10", "https://example.test/hook")
	cancel()

	ctx, done := context.WithTimeout(context.Background(), 5*time.Second)
	defer done()
	require.NoError(t, tracker.Shutdown(ctx))

	require.Len(t, notifier.got, 1)
	payload := <-notifier.got
	assert.Equal(t, "task-10", payload.TaskID)
	assert.Equal(t, models.SynthesisScheduled, payload.Status)
	assert.Contains(t, payload.Error, context.Canceled.Error())
}

func TestAbandonedStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want models.SynthesisStatus
	}{
		{name: "timeout", err: WrapSynthesisError("Wait", "t", models.SynthesisInProgress, ErrSynthesisTimeout), want: models.SynthesisInProgress},
		{name: "cancelled before first poll", err: WrapSynthesisError("Wait", "t", "", context.Canceled), want: models.SynthesisScheduled},
		{name: "task failed", err: WrapSynthesisError("Wait", "t", models.SynthesisFailed, ErrSynthesisFailed), want: models.SynthesisFailed},
		{name: "lookup error", err: ErrSynthesisFailed, want: models.SynthesisFailed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, abandonedStatus(tt.err))
		})
	}
}
