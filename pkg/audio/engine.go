package audio

import (
	"fmt"
	"strings"
)

type Engine string

const (
	EngineOpenAI     Engine = "openai"
	EngineGTTS       Engine = "gtts"
	EngineElevenLabs Engine = "elevenlabs"
)

var Engines = []Engine{EngineOpenAI, EngineGTTS, EngineElevenLabs}

func ParseEngine(name string) (Engine, error) {
	e := Engine(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Engines {
		if e == known {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown speech engine %q", name)
}

type VoiceParams struct {
	Voice    string  `json:"voice,omitempty"`
	Speed    float64 `json:"speed,omitempty"`
	Language string  `json:"language,omitempty"`
}

// withDefaults fills the per-engine defaults used when a request leaves a
// field empty.
func (p VoiceParams) withDefaults(engine Engine) VoiceParams {
	if p.Speed <= 0 {
		p.Speed = 1.0
	}
	if p.Language == "" {
		p.Language = "en"
	}
	if p.Voice == "" {
		switch engine {
		case EngineOpenAI:
			p.Voice = "alloy"
		case EngineElevenLabs:
			p.Voice = defaultElevenLabsVoice
		}
	}
	return p
}
