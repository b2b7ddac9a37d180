package config

import (
	"testing"
	"time"

	"VisionGuide/pkg/audio"
)

func TestLoadPipelineConfigDefaults(t *testing.T) {
	cfg, err := LoadPipelineConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 5 || cfg.StageTimeout != 30*time.Second || cfg.StageRetries != 0 {
		t.Errorf("unexpected defaults: %+v", cfg)
	}
	if cfg.Synthesis.ApplyMinScore {
		t.Error("min score must be off by default")
	}
}

func TestLoadPipelineConfigOverrides(t *testing.T) {
	t.Setenv("PIPELINE_WORKERS", "8")
	t.Setenv("PIPELINE_STAGE_TIMEOUT", "12s")
	t.Setenv("PIPELINE_STAGE_RETRIES", "2")
	t.Setenv("DEFAULT_SPEECH_ENGINE", "gtts")
	t.Setenv("GUIDANCE_MIN_SCORE", "0.4")
	t.Setenv("AUDIO_UPLOAD_ENABLED", "true")
	t.Setenv("EXPORT_REPORTS", "false")

	cfg, err := LoadPipelineConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Workers != 8 || cfg.StageTimeout != 12*time.Second || cfg.StageRetries != 2 {
		t.Errorf("scheduler settings not applied: %+v", cfg)
	}
	if cfg.DefaultEngine != audio.EngineGTTS {
		t.Errorf("engine %q", cfg.DefaultEngine)
	}
	if !cfg.Synthesis.ApplyMinScore || cfg.Synthesis.MinScore != 0.4 {
		t.Errorf("min score not applied: %+v", cfg.Synthesis)
	}
	if !cfg.UploadAudio || cfg.ExportReports {
		t.Errorf("flags not applied: %+v", cfg)
	}
}

func TestLoadPipelineConfigRejectsBadValues(t *testing.T) {
	for name, value := range map[string]string{
		"PIPELINE_WORKERS":       "0",
		"PIPELINE_STAGE_TIMEOUT": "soon",
		"DEFAULT_SPEECH_ENGINE":  "festival",
		"EXPORT_REPORTS":         "maybe",
	} {
		t.Run(name, func(t *testing.T) {
			t.Setenv(name, value)
			if _, err := LoadPipelineConfig(); err == nil {
				t.Errorf("%s=%s accepted", name, value)
			}
		})
	}
}
