package analysisService

import (
	"time"

	"VisionGuide/internal/api/analysis"
	analysisRepository "VisionGuide/internal/api/analysis/repository"
	"VisionGuide/internal/entity"
	"VisionGuide/pkg/audio"
	"VisionGuide/pkg/navigation"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type IAnalysisService interface {
	RunBatch(ctx context.Context, req analysis.RunBatchRequest) (*entity.BatchOutcome, error)
	RunSingleFrame(ctx context.Context, batchID string, index int, engine audio.Engine, voice audio.VoiceParams) (*entity.FrameAnalysis, error)
	AnalyzeImage(ctx context.Context, image []byte, engine audio.Engine, voice audio.VoiceParams) (*entity.FrameAnalysis, error)
	ListBatches(ctx context.Context) ([]entity.FrameBatch, error)
	ExportReport(ctx context.Context, batchID string, frames []entity.FrameAnalysis) (*entity.ReportRecord, error)
	GetRunTimings(ctx context.Context, runID string) ([]entity.FrameTiming, error)
	ParseEngine(name string) (audio.Engine, error)
}

type Config struct {
	Workers       int
	StageTimeout  time.Duration
	StageRetries  int
	DefaultEngine audio.Engine
	Synthesis     navigation.SynthesisOptions

	SaveAudio     bool
	UploadAudio   bool
	ExportReports bool
	UploadReports bool

	// Frames larger than this are downscaled before detection. 0 disables it.
	MaxImageDimension int
	ImageQuality      int
}

func DefaultConfig() Config {
	synthesis := navigation.DefaultSynthesisOptions()
	synthesis.ApplyMinScore = false

	return Config{
		Workers:       5,
		StageTimeout:  30 * time.Second,
		DefaultEngine: audio.EngineOpenAI,
		Synthesis:     synthesis,
		SaveAudio:     true,
		ExportReports: true,
		ImageQuality:  85,
	}
}

// Dependencies are constructed once per process and shared read-only by
// every frame task.
type Dependencies struct {
	Detector  Detector
	Depth     DepthEstimator
	Speaker   Speaker
	Frames    FrameSource
	Artefacts ArtefactStore
	Uploader  Uploader
	Optimizer ImageOptimizer
	IDs       IDGenerator
	Repo      analysisRepository.Repository
}

type analysisService struct {
	log       *logrus.Logger
	cfg       Config
	deps      Dependencies
	sequencer *Sequencer
	scheduler *Scheduler
}

func New(log *logrus.Logger, cfg Config, deps Dependencies, observer Observer) IAnalysisService {
	if cfg.Workers <= 0 {
		cfg.Workers = 5
	}
	if cfg.DefaultEngine == "" {
		cfg.DefaultEngine = audio.EngineOpenAI
	}

	sequencer := NewSequencer(log, cfg, deps)
	return &analysisService{
		log:       log,
		cfg:       cfg,
		deps:      deps,
		sequencer: sequencer,
		scheduler: NewScheduler(log, sequencer, cfg.Workers, observer),
	}
}
