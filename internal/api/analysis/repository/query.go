package analysisRepository

const (
	queryCreateFrameTiming = `
		INSERT INTO frame_timings (
			id, run_id, batch_id, frame_index,
			object_detection, depth_estimation, navigation_generation,
			text_to_speech, total, created_at
		) VALUES (
			:id, :run_id, :batch_id, :frame_index,
			:object_detection, :depth_estimation, :navigation_generation,
			:text_to_speech, :total, :created_at
		)
	`

	queryGetFrameTimingsByRunID = `
		SELECT
			id, run_id, batch_id, frame_index,
			object_detection, depth_estimation, navigation_generation,
			text_to_speech, total, created_at
		FROM frame_timings
		WHERE run_id = :run_id
		ORDER BY frame_index ASC
	`
)
