package entity

import (
	"encoding/json"
	"math"
	"strconv"
	"time"
)

// InvalidDepth marks an object whose depth could not be measured.
var InvalidDepth = math.NaN()

type Frame struct {
	BatchID string `json:"batch_id"`
	Index   int    `json:"frame_index"`
	Path    string `json:"frame_path"`
	Data    []byte `json:"-"`
}

type FrameBatch struct {
	Name       string    `json:"folder_name"`
	FrameCount int       `json:"frame_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// DetectedObject box is [y_min, x_min, y_max, x_max] on a 0-1000 scale.
type DetectedObject struct {
	Box      [4]float64 `json:"box_2d"`
	Label    string     `json:"label"`
	Position string     `json:"position"`
	Type     string     `json:"type"`
}

func (o DetectedObject) XCenter() float64 {
	return (o.Box[1] + o.Box[3]) / 2
}

func (o DetectedObject) Width() float64 {
	return o.Box[3] - o.Box[1]
}

func (o DetectedObject) Height() float64 {
	return o.Box[2] - o.Box[0]
}

type RankedObject struct {
	DetectedObject
	Depth        float64 `json:"depth"`
	DistanceRank int     `json:"distance_rank"`
}

func (o RankedObject) HasValidDepth() bool {
	return !math.IsNaN(o.Depth) && !math.IsInf(o.Depth, 0)
}

// MarshalJSON writes an invalid depth as null, JSON has no NaN.
func (o RankedObject) MarshalJSON() ([]byte, error) {
	var depth *float64
	if o.HasValidDepth() {
		d := o.Depth
		depth = &d
	}
	return json.Marshal(struct {
		DetectedObject
		Depth        *float64 `json:"depth"`
		DistanceRank int      `json:"distance_rank"`
	}{o.DetectedObject, depth, o.DistanceRank})
}

type WarningLevel string

const (
	WarningHigh   WarningLevel = "High"
	WarningMedium WarningLevel = "Medium"
	WarningNone   WarningLevel = "None"
)

type ScoredObject struct {
	RankedObject
	Score        float64      `json:"score"`
	WarningLevel WarningLevel `json:"warning_level"`
}

type GuidanceResult struct {
	Text            string         `json:"navigation_text"`
	PriorityObjects []RankedObject `json:"priority_objects"`
	WarningPresent  bool           `json:"warning_present"`
}

type AudioResult struct {
	Bytes           []byte   `json:"-"`
	Text            string   `json:"text"`
	Engine          string   `json:"engine"`
	Voice           string   `json:"voice,omitempty"`
	DurationSeconds *float64 `json:"duration,omitempty"`
	Format          string   `json:"format"`
	Path            string   `json:"path,omitempty"`
	URL             string   `json:"url,omitempty"`
}

type StageTiming struct {
	Detection time.Duration `json:"object_detection"`
	Depth     time.Duration `json:"depth_estimation"`
	Guidance  time.Duration `json:"navigation_generation"`
	Speech    time.Duration `json:"text_to_speech"`
	Total     time.Duration `json:"total"`
}

// NewStageTiming clamps negative durations to zero and sets Total to the sum.
func NewStageTiming(detection, depth, guidance, speech time.Duration) StageTiming {
	t := StageTiming{
		Detection: nonNegative(detection),
		Depth:     nonNegative(depth),
		Guidance:  nonNegative(guidance),
		Speech:    nonNegative(speech),
	}
	t.Total = t.Detection + t.Depth + t.Guidance + t.Speech
	return t
}

// Rounded rounds each stage to the microsecond and recomputes Total from the
// rounded parts.
func (t StageTiming) Rounded() StageTiming {
	return NewStageTiming(
		t.Detection.Round(time.Microsecond),
		t.Depth.Round(time.Microsecond),
		t.Guidance.Round(time.Microsecond),
		t.Speech.Round(time.Microsecond),
	)
}

// MarshalJSON reports every stage in seconds with microsecond precision.
// The encoded total is exactly the decimal sum of the encoded stages.
func (t StageTiming) MarshalJSON() ([]byte, error) {
	r := t.Rounded()
	return json.Marshal(map[string]json.Number{
		"object_detection":      secondsNumber(r.Detection),
		"depth_estimation":      secondsNumber(r.Depth),
		"navigation_generation": secondsNumber(r.Guidance),
		"text_to_speech":        secondsNumber(r.Speech),
		"total":                 secondsNumber(r.Total),
	})
}

func secondsNumber(d time.Duration) json.Number {
	return json.Number(strconv.FormatFloat(d.Seconds(), 'f', 6, 64))
}

func nonNegative(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}

type FrameAnalysis struct {
	FrameIndex int            `json:"frame_index"`
	FramePath  string         `json:"frame_path"`
	Objects    []RankedObject `json:"objects"`
	Guidance   GuidanceResult `json:"navigation"`
	Audio      AudioResult    `json:"audio"`
	Timing     StageTiming    `json:"execution_time"`
}

type FrameFailure struct {
	FrameIndex int    `json:"frame_index"`
	Stage      string `json:"stage"`
	Error      string `json:"error"`
}

type BatchOutcome struct {
	BatchID     string          `json:"batch_id"`
	RunID       string          `json:"run_id"`
	TotalFrames int             `json:"total_frames"`
	Frames      []FrameAnalysis `json:"frames_analysis"`
	Failed      []FrameFailure  `json:"failed_frames,omitempty"`
	FailedCount int             `json:"failed_count"`
	Fatal       bool            `json:"fatal"`
	Report      *ReportRecord   `json:"report,omitempty"`
}

type ReportRecord struct {
	BatchID  string `json:"batch_id"`
	RunID    string `json:"run_id"`
	FilePath string `json:"file_path"`
	URL      string `json:"url,omitempty"`
	Rows     int    `json:"rows"`
}

type FrameTiming struct {
	ID         string    `json:"id"`
	RunID      string    `json:"run_id"`
	BatchID    string    `json:"batch_id"`
	FrameIndex int       `json:"frame_index"`
	Detection  float64   `json:"object_detection"`
	Depth      float64   `json:"depth_estimation"`
	Guidance   float64   `json:"navigation_generation"`
	Speech     float64   `json:"text_to_speech"`
	Total      float64   `json:"total"`
	CreatedAt  time.Time `json:"created_at"`
}
