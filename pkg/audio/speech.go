package audio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"VisionGuide/internal/entity"
	"VisionGuide/pkg/openai"
	"VisionGuide/pkg/redis"
	"github.com/sirupsen/logrus"
)

var ErrEngineNotConfigured = errors.New("speech engine not configured")

// Generator is satisfied by the ElevenLabs and gTTS clients. The second
// argument is the voice id or the language code respectively.
type Generator interface {
	GenerateAudio(ctx context.Context, text, param string) ([]byte, error)
}

type ISpeech interface {
	Synthesize(ctx context.Context, text string, engine Engine, params VoiceParams) (*entity.AudioResult, error)
}

type SpeechConfig struct {
	OpenAI     openai.ISpeech
	ElevenLabs Generator
	GTTS       Generator
	Cache      redis.IRedis
	CacheTTL   time.Duration
}

func CacheTTLFromEnv() time.Duration {
	ttl, err := time.ParseDuration(os.Getenv("AUDIO_CACHE_TTL"))
	if err != nil || ttl <= 0 {
		return 24 * time.Hour
	}
	return ttl
}

type speechService struct {
	log *logrus.Logger
	cfg SpeechConfig
}

func NewSpeechService(log *logrus.Logger, cfg SpeechConfig) ISpeech {
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 24 * time.Hour
	}
	return &speechService{log: log, cfg: cfg}
}

func (s *speechService) Synthesize(ctx context.Context, text string, engine Engine, params VoiceParams) (*entity.AudioResult, error) {
	if text == "" {
		return nil, errors.New("empty text")
	}
	params = params.withDefaults(engine)

	format := formatFor(engine)
	key := cacheKey(text, engine, params)

	data, cached := s.fromCache(ctx, key)
	if !cached {
		var err error
		data, err = s.generate(ctx, text, engine, params)
		if err != nil {
			return nil, fmt.Errorf("%s synthesis failed: %w", engine, err)
		}
		s.toCache(ctx, key, data)
	}

	result := &entity.AudioResult{
		Bytes:  data,
		Text:   text,
		Engine: string(engine),
		Voice:  params.Voice,
		Format: format,
	}

	if format == "wav" {
		if seconds, err := WAVDuration(data); err == nil {
			result.DurationSeconds = &seconds
		} else {
			s.log.WithField("engine", engine).Warn("Could not read WAV duration: " + err.Error())
		}
	}

	s.log.WithFields(logrus.Fields{
		"engine": engine,
		"bytes":  len(data),
		"cached": cached,
	}).Debug("Speech synthesized")

	return result, nil
}

func (s *speechService) generate(ctx context.Context, text string, engine Engine, params VoiceParams) ([]byte, error) {
	switch engine {
	case EngineOpenAI:
		if s.cfg.OpenAI == nil {
			return nil, ErrEngineNotConfigured
		}
		return s.cfg.OpenAI.CreateSpeech(ctx, text, params.Voice, params.Speed)
	case EngineElevenLabs:
		if s.cfg.ElevenLabs == nil {
			return nil, ErrEngineNotConfigured
		}
		return s.cfg.ElevenLabs.GenerateAudio(ctx, text, params.Voice)
	case EngineGTTS:
		if s.cfg.GTTS == nil {
			return nil, ErrEngineNotConfigured
		}
		return s.cfg.GTTS.GenerateAudio(ctx, text, params.Language)
	default:
		return nil, fmt.Errorf("unknown speech engine %q", engine)
	}
}

func (s *speechService) fromCache(ctx context.Context, key string) ([]byte, bool) {
	if s.cfg.Cache == nil {
		return nil, false
	}
	data, err := s.cfg.Cache.GetAudio(ctx, key)
	if err != nil {
		if !errors.Is(err, redis.ErrCacheMiss) {
			s.log.Warn("Audio cache read failed: " + err.Error())
		}
		return nil, false
	}
	return data, len(data) > 0
}

func (s *speechService) toCache(ctx context.Context, key string, data []byte) {
	if s.cfg.Cache == nil || len(data) == 0 {
		return
	}
	if err := s.cfg.Cache.SetAudio(ctx, key, data, s.cfg.CacheTTL); err != nil {
		s.log.Warn("Audio cache write failed: " + err.Error())
	}
}

func formatFor(engine Engine) string {
	if engine == EngineOpenAI {
		return "wav"
	}
	return "mp3"
}

func cacheKey(text string, engine Engine, params VoiceParams) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s", engine, params.Voice, strconv.FormatFloat(params.Speed, 'f', 2, 64), params.Language, text)
	return hex.EncodeToString(h.Sum(nil))
}
