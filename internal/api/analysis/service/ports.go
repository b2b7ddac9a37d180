package analysisService

import (
	"context"
	"fmt"
	"time"

	"VisionGuide/internal/entity"
	"VisionGuide/pkg/audio"
)

type Detector interface {
	DetectObjects(ctx context.Context, image []byte) ([]entity.DetectedObject, error)
}

// DepthEstimator returns one RankedObject per input object, in input order.
// Objects without a usable depth carry entity.InvalidDepth.
type DepthEstimator interface {
	EstimateDepth(ctx context.Context, image []byte, objects []entity.DetectedObject) ([]entity.RankedObject, error)
}

type Speaker interface {
	Synthesize(ctx context.Context, text string, engine audio.Engine, voice audio.VoiceParams) (*entity.AudioResult, error)
}

type FrameSource interface {
	ListBatches() ([]entity.FrameBatch, error)
	Frames(batchID string) ([]entity.Frame, error)
	Load(frame entity.Frame) ([]byte, error)
}

type ArtefactStore interface {
	SaveAudio(batchID string, index int, format string, data []byte) (string, error)
	SaveReport(batchID, fileName string, data []byte) (string, error)
}

type Uploader interface {
	UploadObject(ctx context.Context, key string, body []byte, contentType string) (string, error)
	PresignUrl(fileUrl string) (string, error)
}

// publish uploads body and returns a time-limited link to the stored object.
func publish(ctx context.Context, up Uploader, key string, body []byte, contentType string) (string, error) {
	location, err := up.UploadObject(ctx, key, body, contentType)
	if err != nil {
		return "", err
	}

	signed, err := up.PresignUrl(location)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}
	return signed, nil
}

type ImageOptimizer interface {
	OptimizeImage(imageData []byte, maxWidth, maxHeight int, quality int) ([]byte, error)
}

type IDGenerator interface {
	NewULIDFromTimestamp(t time.Time) (string, error)
}
