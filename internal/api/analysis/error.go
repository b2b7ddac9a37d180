package analysis

import (
	"fmt"
	"net/http"

	"VisionGuide/pkg/response"
)

var (
	ErrBatchNotFound       = response.NewError(http.StatusNotFound, "frame batch not found")
	ErrInvalidFrameRange   = response.NewError(http.StatusBadRequest, "invalid frame range")
	ErrInvalidFrameIndex   = response.NewError(http.StatusBadRequest, "invalid frame index")
	ErrUnknownEngine       = response.NewError(http.StatusBadRequest, "unknown speech engine")
	ErrInvalidImage        = response.NewError(http.StatusBadRequest, "invalid image")
	ErrRunNotFound         = response.NewError(http.StatusNotFound, "analysis run not found")
	ErrTimingsUnavailable  = response.NewError(http.StatusServiceUnavailable, "timing storage is not configured")
	ErrBatchFailed         = response.NewError(http.StatusInternalServerError, "every frame in the batch failed")
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
)

type Stage string

const (
	StageLoad      Stage = "load"
	StageDetection Stage = "detection"
	StageDepth     Stage = "depth"
	StageSpeech    Stage = "speech"
)

// StageError marks a frame that failed, and the stage it failed in.
type StageError struct {
	FrameIndex int
	Stage      Stage
	Err        error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("frame %d failed at %s: %v", e.FrameIndex, e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
