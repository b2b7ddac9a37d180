package openai

import (
	"context"
	"io"
	"os"

	"github.com/sashabaranov/go-openai"
)

type ISpeech interface {
	CreateSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error)
}

type speechService struct {
	client *openai.Client
	model  openai.SpeechModel
}

func NewSpeech() ISpeech {
	apiKey := os.Getenv("OPENAI_API_KEY")
	model := os.Getenv("OPENAI_TTS_MODEL")

	if model == "" {
		model = string(openai.TTSModel1)
	}

	return &speechService{
		client: openai.NewClient(apiKey),
		model:  openai.SpeechModel(model),
	}
}

// CreateSpeech returns WAV audio for text.
func (s *speechService) CreateSpeech(ctx context.Context, text, voice string, speed float64) ([]byte, error) {
	if voice == "" {
		voice = string(openai.VoiceAlloy)
	}
	if speed <= 0 {
		speed = 1.0
	}

	resp, err := s.client.CreateSpeech(ctx, openai.CreateSpeechRequest{
		Model:          s.model,
		Input:          text,
		Voice:          openai.SpeechVoice(voice),
		ResponseFormat: openai.SpeechResponseFormatWav,
		Speed:          speed,
	})
	if err != nil {
		return nil, err
	}
	defer resp.Close()

	return io.ReadAll(resp)
}
