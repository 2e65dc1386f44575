package usecase

import (
	"context"
	"errors"

	applogger "SignalSynth/pkg/logger"
	"SignalSynth/pkg/queue"
)

// RunTriggerType is the queue message type that triggers a synthesis run.
const RunTriggerType = "synthesis_run"

// RunTriggerPayload records where a run request came from.
type RunTriggerPayload struct {
	Source string `json:"source"` // "api", "kafka", "startup"
}

// Scheduler accepts a request for a synthesis run without waiting for it.
type Scheduler interface {
	Schedule(ctx context.Context, source string) error
}

// QueueScheduler schedules runs through the Redis queue, serializing
// triggers from every source.
type QueueScheduler struct {
	queue queue.Publisher
}

func NewQueueScheduler(q queue.Publisher) *QueueScheduler {
	return &QueueScheduler{queue: q}
}

func (s *QueueScheduler) Schedule(ctx context.Context, source string) error {
	return s.queue.PublishMessage(ctx, RunTriggerType, RunTriggerPayload{Source: source})
}

// DirectScheduler runs the synthesis in a background goroutine. Used when
// Redis is disabled; the run lock still prevents overlap.
type DirectScheduler struct {
	runner *SynthesisRunner
	l      *applogger.Logger
}

func NewDirectScheduler(runner *SynthesisRunner, l *applogger.Logger) *DirectScheduler {
	return &DirectScheduler{runner: runner, l: l}
}

func (s *DirectScheduler) Schedule(_ context.Context, source string) error {
	go func() {
		if _, err := s.runner.Run(context.Background()); err != nil {
			if errors.Is(err, ErrRunInProgress) {
				s.l.Warn("run trigger dropped, run in progress",
					applogger.String("source", source))
				return
			}
			s.l.Error("scheduled run failed",
				applogger.String("source", source),
				applogger.Error(err))
		}
	}()
	return nil
}

// RunJob is the queue job executing synthesis runs.
type RunJob struct {
	runner *SynthesisRunner
	l      *applogger.Logger
}

func NewRunJob(runner *SynthesisRunner, l *applogger.Logger) *RunJob {
	return &RunJob{runner: runner, l: l}
}

func (j *RunJob) Name() string { return "synthesis-run" }
func (j *RunJob) Type() string { return RunTriggerType }

func (j *RunJob) Handle(ctx context.Context, payload interface{}) error {
	trigger, err := queue.ParsePayload[RunTriggerPayload](payload)
	if err != nil {
		return err
	}

	_, err = j.runner.Run(ctx)
	if errors.Is(err, ErrRunInProgress) {
		// The holder is computing the same thing; retrying buys nothing.
		j.l.Warn("run trigger dropped, run in progress",
			applogger.String("source", trigger.Source))
		return nil
	}
	return err
}
