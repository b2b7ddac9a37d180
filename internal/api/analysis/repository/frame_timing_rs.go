package analysisRepository

import (
	"database/sql"
	"time"

	"VisionGuide/internal/entity"
	contextPkg "VisionGuide/pkg/context"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

type FrameTimingDB struct {
	ID                   sql.NullString  `db:"id"`
	RunID                sql.NullString  `db:"run_id"`
	BatchID              sql.NullString  `db:"batch_id"`
	FrameIndex           sql.NullInt64   `db:"frame_index"`
	ObjectDetection      sql.NullFloat64 `db:"object_detection"`
	DepthEstimation      sql.NullFloat64 `db:"depth_estimation"`
	NavigationGeneration sql.NullFloat64 `db:"navigation_generation"`
	TextToSpeech         sql.NullFloat64 `db:"text_to_speech"`
	Total                sql.NullFloat64 `db:"total"`
	CreatedAt            time.Time       `db:"created_at"`
}

func (r *frameTimingRepository) CreateFrameTiming(ctx context.Context, timing entity.FrameTiming) error {
	requestID := contextPkg.GetRequestID(ctx)

	argsKV := map[string]interface{}{
		"id":                    timing.ID,
		"run_id":                timing.RunID,
		"batch_id":              timing.BatchID,
		"frame_index":           timing.FrameIndex,
		"object_detection":      timing.Detection,
		"depth_estimation":      timing.Depth,
		"navigation_generation": timing.Guidance,
		"text_to_speech":        timing.Speech,
		"total":                 timing.Total,
		"created_at":            timing.CreatedAt,
	}

	query, args, err := sqlx.Named(queryCreateFrameTiming, argsKV)
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("Failed to build SQL query for CreateFrameTiming")
		return err
	}
	query = r.q.Rebind(query)

	if _, err := r.q.ExecContext(ctx, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id":  requestID,
			"run_id":      timing.RunID,
			"frame_index": timing.FrameIndex,
			"error":       err.Error(),
		}).Error("Database error when creating frame timing")
		return err
	}

	return nil
}

func (r *frameTimingRepository) GetFrameTimingsByRunID(ctx context.Context, runID string) ([]entity.FrameTiming, error) {
	requestID := contextPkg.GetRequestID(ctx)

	query, args, err := sqlx.Named(queryGetFrameTimingsByRunID, map[string]interface{}{"run_id": runID})
	if err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"error":      err.Error(),
		}).Error("GetFrameTimingsByRunID named query preparation err")
		return nil, err
	}
	query = r.q.Rebind(query)

	var rows []FrameTimingDB
	if err := r.q.SelectContext(ctx, &rows, query, args...); err != nil {
		r.log.WithFields(logrus.Fields{
			"request_id": requestID,
			"run_id":     runID,
			"error":      err.Error(),
		}).Error("GetFrameTimingsByRunID execution err")
		return nil, err
	}

	timings := make([]entity.FrameTiming, 0, len(rows))
	for _, row := range rows {
		timings = append(timings, r.makeFrameTiming(row))
	}
	return timings, nil
}

func (r *frameTimingRepository) makeFrameTiming(row FrameTimingDB) entity.FrameTiming {
	return entity.FrameTiming{
		ID:         row.ID.String,
		RunID:      row.RunID.String,
		BatchID:    row.BatchID.String,
		FrameIndex: int(row.FrameIndex.Int64),
		Detection:  row.ObjectDetection.Float64,
		Depth:      row.DepthEstimation.Float64,
		Guidance:   row.NavigationGeneration.Float64,
		Speech:     row.TextToSpeech.Float64,
		Total:      row.Total.Float64,
		CreatedAt:  row.CreatedAt,
	}
}
