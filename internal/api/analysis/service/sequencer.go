package analysisService

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"VisionGuide/internal/api/analysis"
	"VisionGuide/internal/entity"
	"VisionGuide/pkg/audio"
	"VisionGuide/pkg/navigation"
	"github.com/sirupsen/logrus"
)

// Sequencer drives a single frame through detection, depth, ranking,
// guidance and speech. Stages run strictly in order.
type Sequencer struct {
	log  *logrus.Logger
	cfg  Config
	deps Dependencies
}

func NewSequencer(log *logrus.Logger, cfg Config, deps Dependencies) *Sequencer {
	return &Sequencer{log: log, cfg: cfg, deps: deps}
}

// Run returns the frame's analysis or a *analysis.StageError naming the
// stage that failed.
func (s *Sequencer) Run(ctx context.Context, frame entity.Frame, engine audio.Engine, voice audio.VoiceParams) (*entity.FrameAnalysis, error) {
	image, err := s.load(frame)
	if err != nil {
		return nil, s.fail(frame, analysis.StageLoad, err)
	}

	var detected []entity.DetectedObject
	start := time.Now()
	err = s.call(ctx, frame, analysis.StageDetection, func(ctx context.Context) error {
		var err error
		detected, err = s.deps.Detector.DetectObjects(ctx, image)
		return err
	})
	detectionTime := time.Since(start)
	if err != nil {
		return nil, err
	}

	relevant := navigation.FilterRelevant(detected)
	objects := []entity.RankedObject{}
	guidance := navigation.ClearPath()
	var depthTime, guidanceTime time.Duration

	if len(relevant) > 0 {
		var withDepth []entity.RankedObject
		start = time.Now()
		err = s.call(ctx, frame, analysis.StageDepth, func(ctx context.Context) error {
			var err error
			withDepth, err = s.deps.Depth.EstimateDepth(ctx, image, relevant)
			if err == nil && len(withDepth) != len(relevant) {
				err = fmt.Errorf("depth returned %d objects for %d detections", len(withDepth), len(relevant))
			}
			return err
		})
		depthTime = time.Since(start)
		if err != nil {
			return nil, err
		}

		start = time.Now()
		objects = navigation.AssignDistanceRanks(withDepth)
		guidance = navigation.Synthesize(navigation.Rank(objects), s.cfg.Synthesis)
		guidanceTime = time.Since(start)
	}

	var result *entity.AudioResult
	start = time.Now()
	err = s.call(ctx, frame, analysis.StageSpeech, func(ctx context.Context) error {
		var err error
		result, err = s.deps.Speaker.Synthesize(ctx, guidance.Text, engine, voice)
		if err == nil && result == nil {
			err = errors.New("speech returned no audio")
		}
		return err
	})
	speechTime := time.Since(start)
	if err != nil {
		return nil, err
	}

	s.storeAudio(ctx, frame, result)

	timing := entity.NewStageTiming(detectionTime, depthTime, guidanceTime, speechTime)

	s.log.WithFields(logrus.Fields{
		"batch_id":    frame.BatchID,
		"frame_index": frame.Index,
		"objects":     len(objects),
		"warning":     guidance.WarningPresent,
		"total":       timing.Total.String(),
	}).Debug("Frame analysed")

	return &entity.FrameAnalysis{
		FrameIndex: frame.Index,
		FramePath:  frame.Path,
		Objects:    objects,
		Guidance:   guidance,
		Audio:      *result,
		Timing:     timing,
	}, nil
}

func (s *Sequencer) load(frame entity.Frame) ([]byte, error) {
	image := frame.Data
	if len(image) == 0 {
		if s.deps.Frames == nil {
			return nil, errors.New("no frame source configured")
		}
		var err error
		image, err = s.deps.Frames.Load(frame)
		if err != nil {
			return nil, err
		}
	}

	if s.cfg.MaxImageDimension <= 0 || s.deps.Optimizer == nil {
		return image, nil
	}

	optimized, err := s.deps.Optimizer.OptimizeImage(image, s.cfg.MaxImageDimension, s.cfg.MaxImageDimension, s.cfg.ImageQuality)
	if err != nil {
		s.log.WithFields(logrus.Fields{
			"frame_index": frame.Index,
			"error":       err.Error(),
		}).Warn("Frame optimisation failed, using original image")
		return image, nil
	}
	return optimized, nil
}

// call runs one gateway call under its own timeout, retrying up to
// StageRetries times unless the parent context is done.
func (s *Sequencer) call(ctx context.Context, frame entity.Frame, stage analysis.Stage, fn func(ctx context.Context) error) error {
	attempts := s.cfg.StageRetries + 1
	if attempts < 1 {
		attempts = 1
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		callCtx, cancel := ctx, context.CancelFunc(func() {})
		if s.cfg.StageTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, s.cfg.StageTimeout)
		}
		err = fn(callCtx)
		cancel()

		if err == nil {
			return nil
		}
		if ctx.Err() != nil {
			break
		}
		if attempt < attempts {
			s.log.WithFields(logrus.Fields{
				"frame_index": frame.Index,
				"stage":       stage,
				"attempt":     attempt,
				"error":       err.Error(),
			}).Warn("Stage call failed, retrying")
		}
	}

	return s.fail(frame, stage, err)
}

func (s *Sequencer) fail(frame entity.Frame, stage analysis.Stage, err error) error {
	s.log.WithFields(logrus.Fields{
		"batch_id":    frame.BatchID,
		"frame_index": frame.Index,
		"stage":       stage,
		"error":       err.Error(),
	}).Error("Frame failed")

	return &analysis.StageError{FrameIndex: frame.Index, Stage: stage, Err: err}
}

// storeAudio persists the synthesized audio. Failures are logged and never
// fail the frame.
func (s *Sequencer) storeAudio(ctx context.Context, frame entity.Frame, result *entity.AudioResult) {
	if len(result.Bytes) == 0 || frame.BatchID == "" {
		return
	}

	fields := logrus.Fields{"batch_id": frame.BatchID, "frame_index": frame.Index}

	if s.cfg.SaveAudio && s.deps.Artefacts != nil {
		p, err := s.deps.Artefacts.SaveAudio(frame.BatchID, frame.Index, result.Format, result.Bytes)
		if err != nil {
			s.log.WithFields(fields).Warn("Failed to save audio: " + err.Error())
		} else {
			result.Path = p
		}
	}

	if s.cfg.UploadAudio && s.deps.Uploader != nil {
		key := path.Join("audio", frame.BatchID, fmt.Sprintf("frame_%d.%s", frame.Index, result.Format))
		url, err := publish(ctx, s.deps.Uploader, key, result.Bytes, "audio/"+mimeSubtype(result.Format))
		if err != nil {
			s.log.WithFields(fields).Warn("Failed to upload audio: " + err.Error())
		} else {
			result.URL = url
		}
	}
}

func mimeSubtype(format string) string {
	if format == "mp3" {
		return "mpeg"
	}
	return format
}
