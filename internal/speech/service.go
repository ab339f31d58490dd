// Package speech turns text into spoken audio with an asynchronous
// synthesis service and waits for the result.
//
// A task is started, then polled with bounded exponential backoff until it
// completes, fails or the maximum wait runs out. Completed audio can be made
// publicly readable before its URI is handed back.
package speech

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"medtranslate/internal/logger"
	"medtranslate/pkg/models"
)

// Publisher makes a finished object readable by anyone.
type Publisher interface {
	MakePublic(ctx context.Context, uri string) error
}

// Config controls polling and publishing.
type Config struct {
	PollInterval    time.Duration // First wait between status checks
	MaxPollInterval time.Duration // Upper bound for a single wait
	MaxWait         time.Duration // Total time before giving up
	MakePublic      bool          // Publish output once the task completes
}

// DefaultConfig returns the polling defaults.
func DefaultConfig() Config {
	return Config{
		PollInterval:    time.Second,
		MaxPollInterval: 5 * time.Second,
		MaxWait:         2 * time.Minute,
		MakePublic:      true,
	}
}

// Service synthesizes speech.
type Service struct {
	client    TaskClient
	publisher Publisher
	config    Config
	log       zerolog.Logger
}

var (
	errStillPending  = errors.New("task still pending")
	errMissingOutput = fmt.Errorf("%w: completed task has no output URI", ErrSynthesisFailed)
)

// NewService creates a speech service. publisher may be nil when
// config.MakePublic is false.
func NewService(client TaskClient, publisher Publisher, config Config) *Service {
	return &Service{
		client:    client,
		publisher: publisher,
		config:    config,
		log:       logger.WithComponent("speech"),
	}
}

// Synthesize starts a task for text in language and waits for its output URI.
func (s *Service) Synthesize(ctx context.Context, text, language string) (string, error) {
	task, err := s.Start(ctx, text, language)
	if err != nil {
		return "", err
	}

	done, err := s.Wait(ctx, task.TaskID)
	if err != nil {
		return "", err
	}
	return done.OutputURI, nil
}

// Start submits a synthesis task without waiting for it.
func (s *Service) Start(ctx context.Context, text, language string) (*models.SynthesisTask, error) {
	const op = "Start"

	voice, err := VoiceFor(language)
	if err != nil {
		return nil, WrapSynthesisError(op, "", "", err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, WrapSynthesisError(op, "", "", ErrEmptyText)
	}

	task, err := s.client.StartTask(ctx, text, voice)
	if err != nil {
		s.log.Error().Err(err).Str("voice", voice).Msg("Failed to start synthesis task")
		return nil, WrapSynthesisError(op, "", "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err))
	}

	s.log.Info().
		Str("task_id", task.TaskID).
		Str("voice", voice).
		Int("chars", len(text)).
		Msg("Synthesis task started")

	return task, nil
}

// Status returns the current state of a task. A completed task is published
// first when configured.
func (s *Service) Status(ctx context.Context, taskID string) (*models.SynthesisTask, error) {
	const op = "Status"

	task, err := s.client.GetTask(ctx, taskID)
	if err != nil {
		return nil, WrapSynthesisError(op, taskID, "", fmt.Errorf("%w: %w", ErrSynthesisFailed, err))
	}

	if task.Status == models.SynthesisCompleted {
		if task.OutputURI == "" {
			return nil, WrapSynthesisError(op, taskID, task.Status, errMissingOutput)
		}
		if err := s.publish(ctx, task); err != nil {
			return nil, WrapSynthesisError(op, taskID, task.Status, err)
		}
	}
	return task, nil
}

// Wait polls a task until it reaches a terminal state and returns the
// completed task. A failed task yields ErrSynthesisFailed, exhausting the
// maximum wait yields ErrSynthesisTimeout.
func (s *Service) Wait(ctx context.Context, taskID string) (*models.SynthesisTask, error) {
	const op = "Wait"
	start := time.Now()

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.config.PollInterval
	b.MaxInterval = s.config.MaxPollInterval
	b.MaxElapsedTime = s.config.MaxWait

	var last *models.SynthesisTask
	poll := func() error {
		task, err := s.client.GetTask(ctx, taskID)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("%w: %w", ErrSynthesisFailed, err))
		}
		last = task
		if task.Status.Pending() {
			return errStillPending
		}
		return nil
	}
	notify := func(_ error, next time.Duration) {
		s.log.Debug().
			Str("task_id", taskID).
			Str("status", string(last.Status)).
			Dur("next", next).
			Msg("Synthesis task pending")
	}

	err := backoff.RetryNotify(poll, backoff.WithContext(b, ctx), notify)
	switch {
	case errors.Is(err, errStillPending):
		s.log.Warn().Str("task_id", taskID).Dur("waited", time.Since(start)).Msg("Synthesis task timed out")
		return nil, WrapSynthesisError(op, taskID, last.Status, ErrSynthesisTimeout)
	case err != nil:
		return nil, WrapSynthesisError(op, taskID, statusOf(last), err)
	}

	if last.Status != models.SynthesisCompleted {
		reason := last.StatusReason
		if reason == "" {
			reason = "no reason given"
		}
		s.log.Error().Str("task_id", taskID).Str("status", string(last.Status)).Str("reason", reason).Msg("Synthesis task did not complete")
		return nil, WrapSynthesisError(op, taskID, last.Status, fmt.Errorf("%w: %s", ErrSynthesisFailed, reason))
	}
	if last.OutputURI == "" {
		s.log.Error().Str("task_id", taskID).Msg("Synthesis task completed without output")
		return nil, WrapSynthesisError(op, taskID, last.Status, errMissingOutput)
	}

	if err := s.publish(ctx, last); err != nil {
		return nil, WrapSynthesisError(op, taskID, last.Status, err)
	}

	s.log.Info().
		Str("task_id", taskID).
		Str("output_uri", last.OutputURI).
		Dur("waited", time.Since(start)).
		Msg("Synthesis task completed")

	return last, nil
}

func (s *Service) publish(ctx context.Context, task *models.SynthesisTask) error {
	if !s.config.MakePublic || s.publisher == nil {
		return nil
	}
	if err := s.publisher.MakePublic(ctx, task.OutputURI); err != nil {
		return fmt.Errorf("publish output: %w", err)
	}
	return nil
}

func statusOf(task *models.SynthesisTask) models.SynthesisStatus {
	if task == nil {
		return ""
	}
	return task.Status
}
