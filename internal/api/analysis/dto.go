package analysis

import (
	"VisionGuide/internal/entity"
	"VisionGuide/pkg/audio"
)

type RunBatchRequest struct {
	BatchID      string            `json:"-" validate:"required"`
	Start        int               `json:"start" validate:"min=0"`
	End          int               `json:"end" validate:"min=0"`
	Engine       string            `json:"engine" validate:"omitempty,oneof=openai gtts elevenlabs"`
	Voice        audio.VoiceParams `json:"voice"`
	ExportReport *bool             `json:"export_report,omitempty"`
}

type RunFrameRequest struct {
	Engine string            `json:"engine" validate:"omitempty,oneof=openai gtts elevenlabs"`
	Voice  audio.VoiceParams `json:"voice"`
}

// FrameRange selects frames [Start, End). End 0 means the end of the batch.
type FrameRange struct {
	Start int
	End   int
}

func (r FrameRange) Resolve(total int) (int, int, error) {
	end := r.End
	if end == 0 {
		end = total
	}
	if r.Start < 0 || end > total || r.Start >= end {
		return 0, 0, ErrInvalidFrameRange
	}
	return r.Start, end, nil
}

type BatchListResponse struct {
	Batches []entity.FrameBatch `json:"batches"`
}

type BatchResponse struct {
	Data entity.BatchOutcome `json:"data"`
}

type FrameResponse struct {
	Data entity.FrameAnalysis `json:"data"`
}

type TimingsResponse struct {
	RunID   string               `json:"run_id"`
	Timings []entity.FrameTiming `json:"timings"`
}
