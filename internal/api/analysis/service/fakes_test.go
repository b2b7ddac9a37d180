package analysisService

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"sync/atomic"

	analysisRepository "VisionGuide/internal/api/analysis/repository"
	"VisionGuide/internal/entity"
	"VisionGuide/pkg/audio"
	"VisionGuide/pkg/frames"
	"VisionGuide/pkg/utils"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

type fakeDetector struct {
	calls  atomic.Int32
	detect func(ctx context.Context, image []byte) ([]entity.DetectedObject, error)
}

func (f *fakeDetector) DetectObjects(ctx context.Context, image []byte) ([]entity.DetectedObject, error) {
	f.calls.Add(1)
	if f.detect == nil {
		return nil, nil
	}
	return f.detect(ctx, image)
}

// fakeDepth assigns depths by label; unknown labels get an invalid depth.
type fakeDepth struct {
	calls  atomic.Int32
	depths map[string]float64
	drop   bool
	err    error
}

func (f *fakeDepth) EstimateDepth(_ context.Context, _ []byte, objects []entity.DetectedObject) ([]entity.RankedObject, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	out := make([]entity.RankedObject, 0, len(objects))
	for _, obj := range objects {
		d, ok := f.depths[obj.Label]
		if !ok {
			d = entity.InvalidDepth
		}
		out = append(out, entity.RankedObject{DetectedObject: obj, Depth: d})
	}
	if f.drop && len(out) > 0 {
		out = out[:len(out)-1]
	}
	return out, nil
}

type fakeSpeaker struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (f *fakeSpeaker) Synthesize(_ context.Context, text string, engine audio.Engine, voice audio.VoiceParams) (*entity.AudioResult, error) {
	f.mu.Lock()
	f.texts = append(f.texts, text)
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &entity.AudioResult{
		Bytes:  []byte("audio:" + text),
		Text:   text,
		Engine: string(engine),
		Voice:  voice.Voice,
		Format: "mp3",
	}, nil
}

func (f *fakeSpeaker) lastText() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.texts) == 0 {
		return ""
	}
	return f.texts[len(f.texts)-1]
}

// memoryFrames serves batches whose frame data is "<batch>/<index>".
type memoryFrames struct {
	batches map[string]int
}

func (m *memoryFrames) ListBatches() ([]entity.FrameBatch, error) {
	out := make([]entity.FrameBatch, 0, len(m.batches))
	for name, count := range m.batches {
		out = append(out, entity.FrameBatch{Name: name, FrameCount: count})
	}
	return out, nil
}

func (m *memoryFrames) Frames(batchID string) ([]entity.Frame, error) {
	count, ok := m.batches[batchID]
	if !ok {
		return nil, frames.ErrBatchNotFound
	}
	out := make([]entity.Frame, count)
	for i := range out {
		out[i] = entity.Frame{BatchID: batchID, Index: i, Path: fmt.Sprintf("%s/frame_%02d.jpg", batchID, i)}
	}
	return out, nil
}

func (m *memoryFrames) Load(frame entity.Frame) ([]byte, error) {
	return []byte(fmt.Sprintf("%s/%d", frame.BatchID, frame.Index)), nil
}

type memoryArtefacts struct {
	mu      sync.Mutex
	audio   map[string][]byte
	reports map[string][]byte
}

func newMemoryArtefacts() *memoryArtefacts {
	return &memoryArtefacts{audio: map[string][]byte{}, reports: map[string][]byte{}}
}

func (m *memoryArtefacts) SaveAudio(batchID string, index int, format string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := fmt.Sprintf("audio/%s/frame_%d.%s", batchID, index, format)
	m.audio[p] = data
	return p, nil
}

func (m *memoryArtefacts) SaveReport(batchID, fileName string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := "reports/" + batchID + "/" + fileName
	m.reports[p] = data
	return p, nil
}

type memoryTimings struct {
	mu   sync.Mutex
	rows []entity.FrameTiming
	err  error
}

func (m *memoryTimings) CreateFrameTiming(_ context.Context, timing entity.FrameTiming) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.rows = append(m.rows, timing)
	return nil
}

func (m *memoryTimings) GetFrameTimingsByRunID(_ context.Context, runID string) ([]entity.FrameTiming, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []entity.FrameTiming
	for _, row := range m.rows {
		if row.RunID == runID {
			out = append(out, row)
		}
	}
	return out, nil
}

type memoryRepo struct {
	timings *memoryTimings
	commits atomic.Int32
}

func (r *memoryRepo) NewClient(bool) (analysisRepository.Client, error) {
	return analysisRepository.Client{
		FrameTimings: r.timings,
		Commit: func() error {
			r.commits.Add(1)
			return nil
		},
		Rollback: func() error { return nil },
	}, nil
}

type memoryUploader struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemoryUploader() *memoryUploader {
	return &memoryUploader{objects: map[string][]byte{}}
}

func (m *memoryUploader) UploadObject(_ context.Context, key string, body []byte, _ string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.objects[key] = body
	return "https://bucket.s3.amazonaws.com/" + key, nil
}

func (m *memoryUploader) PresignUrl(fileUrl string) (string, error) {
	return fileUrl + "?X-Amz-Signature=test", nil
}

// failOn makes detection fail for images whose data ends in one of the
// given frame indexes.
func failOn(indexes ...int) func(context.Context, []byte) ([]entity.DetectedObject, error) {
	return func(_ context.Context, image []byte) ([]entity.DetectedObject, error) {
		for _, idx := range indexes {
			if strings.HasSuffix(string(image), fmt.Sprintf("/%d", idx)) {
				return nil, errors.New("vision model unavailable")
			}
		}
		return []entity.DetectedObject{person()}, nil
	}
}

func person() entity.DetectedObject {
	return entity.DetectedObject{Box: [4]float64{100, 400, 900, 600}, Label: "person", Position: "center", Type: "person"}
}

func tree() entity.DetectedObject {
	return entity.DetectedObject{Box: [4]float64{200, 50, 800, 250}, Label: "tree", Position: "left", Type: "plant"}
}

type harness struct {
	detector  *fakeDetector
	depth     *fakeDepth
	speaker   *fakeSpeaker
	frames    *memoryFrames
	artefacts *memoryArtefacts
	repo      *memoryRepo
}

func newHarness() *harness {
	return &harness{
		detector:  &fakeDetector{},
		depth:     &fakeDepth{depths: map[string]float64{"person": 0.9, "tree": 0.1, "car": 0.8}},
		speaker:   &fakeSpeaker{},
		frames:    &memoryFrames{batches: map[string]int{"walk": 3, "long_walk": 12}},
		artefacts: newMemoryArtefacts(),
		repo:      &memoryRepo{timings: &memoryTimings{}},
	}
}

func (h *harness) deps() Dependencies {
	return Dependencies{
		Detector:  h.detector,
		Depth:     h.depth,
		Speaker:   h.speaker,
		Frames:    h.frames,
		Artefacts: h.artefacts,
		IDs:       utils.New(),
		Repo:      h.repo,
	}
}
