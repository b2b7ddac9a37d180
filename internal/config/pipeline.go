package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	analysisService "VisionGuide/internal/api/analysis/service"
	"VisionGuide/pkg/audio"
)

// LoadPipelineConfig overlays PIPELINE_* and related variables on the
// service defaults.
func LoadPipelineConfig() (analysisService.Config, error) {
	cfg := analysisService.DefaultConfig()

	if v := os.Getenv("PIPELINE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("PIPELINE_WORKERS must be a positive integer, got %q", v)
		}
		cfg.Workers = n
	}

	if v := os.Getenv("PIPELINE_STAGE_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil || d <= 0 {
			return cfg, fmt.Errorf("PIPELINE_STAGE_TIMEOUT must be a positive duration, got %q", v)
		}
		cfg.StageTimeout = d
	}

	if v := os.Getenv("PIPELINE_STAGE_RETRIES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("PIPELINE_STAGE_RETRIES must be zero or more, got %q", v)
		}
		cfg.StageRetries = n
	}

	if v := os.Getenv("DEFAULT_SPEECH_ENGINE"); v != "" {
		engine, err := audio.ParseEngine(v)
		if err != nil {
			return cfg, fmt.Errorf("DEFAULT_SPEECH_ENGINE: %w", err)
		}
		cfg.DefaultEngine = engine
	}

	if v := os.Getenv("GUIDANCE_MAX_OBJECTS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return cfg, fmt.Errorf("GUIDANCE_MAX_OBJECTS must be a positive integer, got %q", v)
		}
		cfg.Synthesis.MaxObjects = n
	}

	if v := os.Getenv("GUIDANCE_MIN_SCORE"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return cfg, fmt.Errorf("GUIDANCE_MIN_SCORE must be a number, got %q", v)
		}
		cfg.Synthesis.MinScore = f
		cfg.Synthesis.ApplyMinScore = true
	}

	for name, target := range map[string]*bool{
		"AUDIO_SAVE_ENABLED":    &cfg.SaveAudio,
		"AUDIO_UPLOAD_ENABLED":  &cfg.UploadAudio,
		"EXPORT_REPORTS":        &cfg.ExportReports,
		"REPORT_UPLOAD_ENABLED": &cfg.UploadReports,
	} {
		v := os.Getenv(name)
		if v == "" {
			continue
		}
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cfg, fmt.Errorf("%s must be a boolean, got %q", name, v)
		}
		*target = b
	}

	if v := os.Getenv("FRAME_MAX_DIMENSION"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			return cfg, fmt.Errorf("FRAME_MAX_DIMENSION must be zero or more, got %q", v)
		}
		cfg.MaxImageDimension = n
	}

	if v := os.Getenv("FRAME_JPEG_QUALITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			return cfg, fmt.Errorf("FRAME_JPEG_QUALITY must be between 1 and 100, got %q", v)
		}
		cfg.ImageQuality = n
	}

	return cfg, nil
}
