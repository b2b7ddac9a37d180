package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	jsoniter "github.com/json-iterator/go"
)

const (
	defaultElevenLabsVoice = "21m00Tcm4TlvDq8ikWAM"
	defaultElevenLabsModel = "eleven_multilingual_v2"
)

type elevenLabsVoiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
	Style           float64 `json:"style"`
	UseSpeakerBoost bool    `json:"use_speaker_boost"`
}

type elevenLabsRequest struct {
	Text          string                  `json:"text"`
	ModelID       string                  `json:"model_id"`
	VoiceSettings elevenLabsVoiceSettings `json:"voice_settings"`
}

// TTSService speaks through the ElevenLabs text-to-speech API and returns
// MP3 audio.
type TTSService struct {
	apiKey  string
	voiceID string
	modelID string
	client  *http.Client
	baseURL string
}

func NewTTSService(apiKey, voiceID string) *TTSService {
	if voiceID == "" {
		voiceID = defaultElevenLabsVoice
	}
	return &TTSService{
		apiKey:  apiKey,
		voiceID: voiceID,
		modelID: defaultElevenLabsModel,
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://api.elevenlabs.io/v1/text-to-speech/",
	}
}

// GenerateAudio uses voiceID when one is chosen explicitly, otherwise the
// voice configured on the service.
func (tts *TTSService) GenerateAudio(ctx context.Context, text string, voiceID string) ([]byte, error) {
	if voiceID == "" || voiceID == defaultElevenLabsVoice {
		voiceID = tts.voiceID
	}

	body, err := jsoniter.Marshal(elevenLabsRequest{
		Text:    text,
		ModelID: tts.modelID,
		VoiceSettings: elevenLabsVoiceSettings{
			Stability:       0.5,
			SimilarityBoost: 0.8,
			UseSpeakerBoost: true,
		},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, tts.baseURL+voiceID, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("xi-api-key", tts.apiKey)

	resp, err := tts.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("elevenlabs request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("elevenlabs API error: %s: %s", resp.Status, bytes.TrimSpace(detail))
	}

	audio, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if len(audio) == 0 {
		return nil, fmt.Errorf("elevenlabs returned no audio")
	}
	return audio, nil
}
