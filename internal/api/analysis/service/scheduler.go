package analysisService

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"VisionGuide/internal/api/analysis"
	"VisionGuide/internal/entity"
	"VisionGuide/pkg/audio"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"
)

type FrameRunner interface {
	Run(ctx context.Context, frame entity.Frame, engine audio.Engine, voice audio.VoiceParams) (*entity.FrameAnalysis, error)
}

// Observer is notified as each frame task finishes. It is called from the
// frame's goroutine and must be safe for concurrent use. Frame events are
// provisional: when the batch is cancelled OnBatchCancelled follows and the
// frames already reported are discarded.
type Observer interface {
	OnFrameDone(batchID string, index int, result *entity.FrameAnalysis, err error)
	OnBatchCancelled(batchID string, err error)
}

type Scheduler struct {
	log      *logrus.Logger
	runner   FrameRunner
	workers  int64
	observer Observer
}

func NewScheduler(log *logrus.Logger, runner FrameRunner, workers int, observer Observer) *Scheduler {
	if workers <= 0 {
		workers = 5
	}
	return &Scheduler{
		log:      log,
		runner:   runner,
		workers:  int64(workers),
		observer: observer,
	}
}

type frameSlot struct {
	index    int
	analysis *entity.FrameAnalysis
	err      error
}

// Run analyses frames with at most `workers` frames in flight. Each task
// owns exactly one slot of the result slice. A cancelled ctx discards all
// work and returns ctx.Err().
func (s *Scheduler) Run(ctx context.Context, batchID string, frames []entity.Frame, engine audio.Engine, voice audio.VoiceParams) (*entity.BatchOutcome, error) {
	slots, err := s.collect(ctx, batchID, frames, engine, voice)
	if err != nil {
		return nil, err
	}
	return assemble(batchID, slots)
}

func (s *Scheduler) collect(ctx context.Context, batchID string, frames []entity.Frame, engine audio.Engine, voice audio.VoiceParams) ([]frameSlot, error) {
	sem := semaphore.NewWeighted(s.workers)
	slots := make([]frameSlot, len(frames))
	var wg sync.WaitGroup

	for i, frame := range frames {
		if err := sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)
		go func(i int, frame entity.Frame) {
			defer wg.Done()
			defer sem.Release(1)

			result, err := s.runner.Run(ctx, frame, engine, voice)
			slots[i] = frameSlot{index: frame.Index, analysis: result, err: err}

			if s.observer != nil {
				s.observer.OnFrameDone(batchID, frame.Index, result, err)
			}
		}(i, frame)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		s.log.WithFields(logrus.Fields{
			"batch_id": batchID,
			"error":    err.Error(),
		}).Warn("Batch cancelled, discarding frames")
		if s.observer != nil {
			s.observer.OnBatchCancelled(batchID, err)
		}
		return nil, err
	}

	return slots, nil
}

// assemble keeps frame-index order. When no frame succeeded the outcome is
// returned with Fatal set alongside an error wrapping ErrBatchFailed.
func assemble(batchID string, slots []frameSlot) (*entity.BatchOutcome, error) {
	outcome := &entity.BatchOutcome{
		BatchID:     batchID,
		TotalFrames: len(slots),
		Frames:      make([]entity.FrameAnalysis, 0, len(slots)),
	}

	var lastErr error
	for _, slot := range slots {
		if slot.err == nil && slot.analysis != nil {
			outcome.Frames = append(outcome.Frames, *slot.analysis)
			continue
		}

		err := slot.err
		if err == nil {
			err = errors.New("frame produced no result")
		}
		lastErr = err

		failure := entity.FrameFailure{FrameIndex: slot.index, Error: err.Error()}
		var stageErr *analysis.StageError
		if errors.As(err, &stageErr) {
			failure.Stage = string(stageErr.Stage)
		}
		outcome.Failed = append(outcome.Failed, failure)
	}
	outcome.FailedCount = len(outcome.Failed)

	if len(slots) > 0 && len(outcome.Frames) == 0 {
		outcome.Fatal = true
		return outcome, fmt.Errorf("%w: %w", analysis.ErrBatchFailed, lastErr)
	}

	return outcome, nil
}
