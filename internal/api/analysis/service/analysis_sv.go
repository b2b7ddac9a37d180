package analysisService

import (
	"errors"
	"time"

	"VisionGuide/internal/api/analysis"
	"VisionGuide/internal/entity"
	"VisionGuide/pkg/audio"
	contextPkg "VisionGuide/pkg/context"
	"VisionGuide/pkg/frames"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

func (s *analysisService) RunBatch(ctx context.Context, req analysis.RunBatchRequest) (*entity.BatchOutcome, error) {
	requestID := contextPkg.GetRequestID(ctx)

	engine, err := s.ParseEngine(req.Engine)
	if err != nil {
		return nil, err
	}

	batch, err := s.batchFrames(req.BatchID)
	if err != nil {
		return nil, err
	}

	start, end, err := analysis.FrameRange{Start: req.Start, End: req.End}.Resolve(len(batch))
	if err != nil {
		return nil, err
	}

	runID, err := s.newID()
	if err != nil {
		return nil, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"batch_id":   req.BatchID,
		"run_id":     runID,
		"start":      start,
		"end":        end,
		"engine":     engine,
		"workers":    s.cfg.Workers,
	}).Info("Starting batch analysis")

	started := time.Now()
	outcome, err := s.scheduler.Run(ctx, req.BatchID, batch[start:end], engine, req.Voice)
	if outcome != nil {
		outcome.RunID = runID
	}
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"batch_id":   req.BatchID,
			"run_id":     runID,
			"error":      err.Error(),
		}).Error("Batch analysis failed")
		return outcome, err
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"batch_id":   req.BatchID,
		"run_id":     runID,
		"succeeded":  len(outcome.Frames),
		"failed":     outcome.FailedCount,
		"elapsed":    time.Since(started).String(),
	}).Info("Batch analysis finished")

	export := s.cfg.ExportReports
	if req.ExportReport != nil {
		export = *req.ExportReport
	}
	if export {
		record, err := s.exportReport(ctx, req.BatchID, runID, outcome.Frames)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"batch_id":   req.BatchID,
				"error":      err.Error(),
			}).Warn("Failed to export execution time report")
		} else {
			outcome.Report = record
		}
	}

	return outcome, nil
}

func (s *analysisService) RunSingleFrame(ctx context.Context, batchID string, index int, engine audio.Engine, voice audio.VoiceParams) (*entity.FrameAnalysis, error) {
	batch, err := s.batchFrames(batchID)
	if err != nil {
		return nil, err
	}
	if index < 0 || index >= len(batch) {
		return nil, analysis.ErrInvalidFrameIndex
	}
	if engine == "" {
		engine = s.cfg.DefaultEngine
	}

	return s.sequencer.Run(ctx, batch[index], engine, voice)
}

func (s *analysisService) AnalyzeImage(ctx context.Context, image []byte, engine audio.Engine, voice audio.VoiceParams) (*entity.FrameAnalysis, error) {
	if len(image) == 0 {
		return nil, analysis.ErrInvalidImage
	}
	if engine == "" {
		engine = s.cfg.DefaultEngine
	}

	return s.sequencer.Run(ctx, entity.Frame{Data: image}, engine, voice)
}

func (s *analysisService) ListBatches(ctx context.Context) ([]entity.FrameBatch, error) {
	if s.deps.Frames == nil {
		return []entity.FrameBatch{}, nil
	}
	return s.deps.Frames.ListBatches()
}

// ParseEngine maps a request's engine name to an engine, falling back to
// the configured default when the name is empty.
func (s *analysisService) ParseEngine(name string) (audio.Engine, error) {
	if name == "" {
		return s.cfg.DefaultEngine, nil
	}
	engine, err := audio.ParseEngine(name)
	if err != nil {
		return "", analysis.ErrUnknownEngine
	}
	return engine, nil
}

func (s *analysisService) batchFrames(batchID string) ([]entity.Frame, error) {
	if s.deps.Frames == nil {
		return nil, analysis.ErrBatchNotFound
	}

	batch, err := s.deps.Frames.Frames(batchID)
	if errors.Is(err, frames.ErrBatchNotFound) || errors.Is(err, frames.ErrInvalidBatchID) {
		return nil, analysis.ErrBatchNotFound
	}
	return batch, err
}

func (s *analysisService) newID() (string, error) {
	if s.deps.IDs == nil {
		return "", errors.New("no id generator configured")
	}
	return s.deps.IDs.NewULIDFromTimestamp(time.Now())
}
