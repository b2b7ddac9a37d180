package analysisService

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"path"
	"sort"
	"strconv"
	"time"

	"VisionGuide/internal/api/analysis"
	"VisionGuide/internal/entity"
	contextPkg "VisionGuide/pkg/context"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

var reportHeader = []string{
	"frame_index",
	"object_detection",
	"depth_estimation",
	"navigation_generation",
	"text_to_speech",
	"total",
}

func (s *analysisService) ExportReport(ctx context.Context, batchID string, frames []entity.FrameAnalysis) (*entity.ReportRecord, error) {
	runID, err := s.newID()
	if err != nil {
		return nil, err
	}
	return s.exportReport(ctx, batchID, runID, frames)
}

func (s *analysisService) exportReport(ctx context.Context, batchID, runID string, frames []entity.FrameAnalysis) (*entity.ReportRecord, error) {
	requestID := contextPkg.GetRequestID(ctx)
	now := time.Now()

	timings := make([]entity.FrameTiming, 0, len(frames))
	for _, frame := range frames {
		id, err := s.newID()
		if err != nil {
			return nil, err
		}
		timings = append(timings, FrameTimingFrom(id, runID, batchID, frame, now))
	}
	sort.SliceStable(timings, func(i, j int) bool {
		return timings[i].FrameIndex < timings[j].FrameIndex
	})

	data, err := EncodeTimingsCSV(timings)
	if err != nil {
		return nil, err
	}

	fileName := fmt.Sprintf("execution_time_%s.csv", now.Format("20060102_150405"))
	record := &entity.ReportRecord{
		BatchID: batchID,
		RunID:   runID,
		Rows:    len(timings),
	}

	// Timings are committed before the report file is written.
	if s.deps.Repo != nil {
		if err := s.persistTimings(ctx, timings); err != nil {
			return nil, err
		}
	}

	if s.deps.Artefacts != nil {
		record.FilePath, err = s.deps.Artefacts.SaveReport(batchID, fileName, data)
		if err != nil {
			return nil, fmt.Errorf("failed to save report: %w", err)
		}
	}

	if s.cfg.UploadReports && s.deps.Uploader != nil {
		url, err := publish(ctx, s.deps.Uploader, path.Join("reports", batchID, fileName), data, "text/csv")
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"request_id": requestID,
				"batch_id":   batchID,
				"error":      err.Error(),
			}).Warn("Failed to upload report")
		} else {
			record.URL = url
		}
	}

	s.log.WithFields(logrus.Fields{
		"request_id": requestID,
		"batch_id":   batchID,
		"run_id":     runID,
		"rows":       record.Rows,
		"file":       record.FilePath,
	}).Info("Execution time report saved")

	return record, nil
}

func (s *analysisService) persistTimings(ctx context.Context, timings []entity.FrameTiming) error {
	client, err := s.deps.Repo.NewClient(true)
	if err != nil {
		return err
	}

	for _, timing := range timings {
		if err := client.FrameTimings.CreateFrameTiming(ctx, timing); err != nil {
			if rbErr := client.Rollback(); rbErr != nil {
				s.log.Error("Failed to rollback frame timings: " + rbErr.Error())
			}
			return err
		}
	}

	return client.Commit()
}

func (s *analysisService) GetRunTimings(ctx context.Context, runID string) ([]entity.FrameTiming, error) {
	if s.deps.Repo == nil {
		return nil, analysis.ErrTimingsUnavailable
	}

	client, err := s.deps.Repo.NewClient(false)
	if err != nil {
		return nil, err
	}

	timings, err := client.FrameTimings.GetFrameTimingsByRunID(ctx, runID)
	if err != nil {
		return nil, err
	}
	if len(timings) == 0 {
		return nil, analysis.ErrRunNotFound
	}
	return timings, nil
}

func FrameTimingFrom(id, runID, batchID string, frame entity.FrameAnalysis, createdAt time.Time) entity.FrameTiming {
	timing := frame.Timing.Rounded()
	return entity.FrameTiming{
		ID:         id,
		RunID:      runID,
		BatchID:    batchID,
		FrameIndex: frame.FrameIndex,
		Detection:  timing.Detection.Seconds(),
		Depth:      timing.Depth.Seconds(),
		Guidance:   timing.Guidance.Seconds(),
		Speech:     timing.Speech.Seconds(),
		Total:      timing.Total.Seconds(),
		CreatedAt:  createdAt,
	}
}

// EncodeTimingsCSV writes one row per frame, durations in seconds.
func EncodeTimingsCSV(timings []entity.FrameTiming) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write(reportHeader); err != nil {
		return nil, err
	}
	for _, t := range timings {
		row := []string{
			strconv.Itoa(t.FrameIndex),
			formatSeconds(t.Detection),
			formatSeconds(t.Depth),
			formatSeconds(t.Guidance),
			formatSeconds(t.Speech),
			formatSeconds(t.Total),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}

	w.Flush()
	return buf.Bytes(), w.Error()
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', 6, 64)
}
