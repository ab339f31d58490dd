package speech

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// Notifier delivers a finished task to a callback URL.
type Notifier interface {
	Notify(ctx context.Context, url string, payload any) error
}

// CallbackPayload is posted to the callback URL when a tracked task ends.
type CallbackPayload struct {
	TaskID    string                 `json:"taskId"`
	Status    models.SynthesisStatus `json:"status"`
	SpeechURL string                 `json:"speechUrl,omitempty"`
	Error     string                 `json:"error,omitempty"`
}

// Tracker waits for tasks in the background and reports their outcome.
// Trackers stop waiting when the base context is cancelled and still post
// a callback carrying the last known status.
type Tracker struct {
	service  *Service
	notifier Notifier
	ctx      context.Context
	wg       sync.WaitGroup
	log      zerolog.Logger
}

// NewTracker creates a tracker bound to ctx, usually the server lifetime.
func NewTracker(ctx context.Context, service *Service, notifier Notifier) *Tracker {
	return &Tracker{
		service:  service,
		notifier: notifier,
		ctx:      ctx,
		log:      logger.WithComponent("speech-tracker"),
	}
}

// Track waits for taskID in a goroutine and posts the outcome to callbackURL.
func (t *Tracker) Track(taskID, callbackURL string) {
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()

		payload := CallbackPayload{TaskID: taskID}
		task, err := t.service.Wait(t.ctx, taskID)
		if err != nil {
			payload.Status = abandonedStatus(err)
			payload.Error = err.Error()
		} else {
			payload.Status = task.Status
			payload.SpeechURL = task.OutputURI
		}

		if err := t.notifier.Notify(context.WithoutCancel(t.ctx), callbackURL, payload); err != nil {
			t.log.Error().Err(err).Str("task_id", taskID).Str("callback_url", callbackURL).Msg("Callback delivery failed")
			return
		}
		t.log.Info().Str("task_id", taskID).Str("status", string(payload.Status)).Msg("Callback delivered")
	}()
}

// abandonedStatus is the status reported for a task the tracker stopped
// waiting on. Timeouts and cancellation keep the last polled status since
// the task may still complete.
func abandonedStatus(err error) models.SynthesisStatus {
	if !errors.Is(err, ErrSynthesisTimeout) && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return models.SynthesisFailed
	}

	var synthErr *SynthesisError
	if errors.As(err, &synthErr) && synthErr.Status != "" {
		return synthErr.Status
	}
	return models.SynthesisScheduled
}

// Shutdown waits for in-flight trackers or until ctx is done.
func (t *Tracker) Shutdown(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
