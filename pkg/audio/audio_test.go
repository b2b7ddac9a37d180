package audio

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"VisionGuide/pkg/redis"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func makeWAV(byteRate uint32, payload int) []byte {
	var buf bytes.Buffer
	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(36+payload))
	buf.WriteString("WAVE")
	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, uint16(1))
	binary.Write(&buf, binary.LittleEndian, byteRate/2)
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, uint16(2))
	binary.Write(&buf, binary.LittleEndian, uint16(16))
	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(payload))
	buf.Write(make([]byte, payload))
	return buf.Bytes()
}

func TestWAVDuration(t *testing.T) {
	got, err := WAVDuration(makeWAV(48000, 24000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(got-0.5) > 1e-9 {
		t.Errorf("duration = %v, want 0.5", got)
	}

	if _, err := WAVDuration([]byte("ID3 not a wav file")); !errors.Is(err, ErrNotWAV) {
		t.Errorf("expected ErrNotWAV, got %v", err)
	}
}

func TestSplitText(t *testing.T) {
	text := strings.Repeat("word ", 100)
	chunks := splitText(text, 50)
	if len(chunks) < 2 {
		t.Fatalf("expected several chunks, got %d", len(chunks))
	}
	for _, c := range chunks {
		if len(c) > 50 {
			t.Errorf("chunk longer than limit: %q", c)
		}
	}
	if strings.Join(chunks, " ") != strings.TrimSpace(text) {
		t.Error("chunks do not reassemble into the original text")
	}
}

func TestParseEngine(t *testing.T) {
	for _, name := range []string{"openai", " GTTS ", "ElevenLabs"} {
		if _, err := ParseEngine(name); err != nil {
			t.Errorf("ParseEngine(%q) failed: %v", name, err)
		}
	}
	if _, err := ParseEngine("festival"); err == nil {
		t.Error("expected error for unknown engine")
	}
}

type fakeOpenAI struct {
	calls int
	data  []byte
}

func (f *fakeOpenAI) CreateSpeech(_ context.Context, _, _ string, _ float64) ([]byte, error) {
	f.calls++
	return f.data, nil
}

type fakeGenerator struct {
	lastParam string
	err       error
}

func (f *fakeGenerator) GenerateAudio(_ context.Context, _ string, param string) ([]byte, error) {
	f.lastParam = param
	if f.err != nil {
		return nil, f.err
	}
	return []byte("mp3-bytes"), nil
}

type memoryCache struct {
	items map[string][]byte
}

func (m *memoryCache) GetAudio(_ context.Context, key string) ([]byte, error) {
	if v, ok := m.items[key]; ok {
		return v, nil
	}
	return nil, redis.ErrCacheMiss
}

func (m *memoryCache) SetAudio(_ context.Context, key string, data []byte, _ time.Duration) error {
	m.items[key] = data
	return nil
}

func (m *memoryCache) Ping(context.Context) error { return nil }

func TestSynthesizeOpenAIUsesCache(t *testing.T) {
	oa := &fakeOpenAI{data: makeWAV(32000, 64000)}
	cache := &memoryCache{items: map[string][]byte{}}
	svc := NewSpeechService(testLogger(), SpeechConfig{OpenAI: oa, Cache: cache})

	for i := 0; i < 2; i++ {
		res, err := svc.Synthesize(context.Background(), "There is a car (very close) directly ahead.", EngineOpenAI, VoiceParams{})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if res.Format != "wav" || res.Voice != "alloy" {
			t.Errorf("unexpected result metadata: %+v", res)
		}
		if res.DurationSeconds == nil || math.Abs(*res.DurationSeconds-2.0) > 1e-9 {
			t.Errorf("unexpected duration: %v", res.DurationSeconds)
		}
	}

	if oa.calls != 1 {
		t.Errorf("engine called %d times, want 1", oa.calls)
	}
}

func TestSynthesizeDispatch(t *testing.T) {
	eleven := &fakeGenerator{}
	gtts := &fakeGenerator{}
	svc := NewSpeechService(testLogger(), SpeechConfig{ElevenLabs: eleven, GTTS: gtts})

	res, err := svc.Synthesize(context.Background(), "hello", EngineGTTS, VoiceParams{Language: "id"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if gtts.lastParam != "id" || res.Format != "mp3" || res.DurationSeconds != nil {
		t.Errorf("gtts dispatch wrong: param=%q result=%+v", gtts.lastParam, res)
	}

	if _, err := svc.Synthesize(context.Background(), "hello", EngineElevenLabs, VoiceParams{}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if eleven.lastParam != defaultElevenLabsVoice {
		t.Errorf("elevenlabs voice = %q", eleven.lastParam)
	}

	if _, err := svc.Synthesize(context.Background(), "hello", EngineOpenAI, VoiceParams{}); !errors.Is(err, ErrEngineNotConfigured) {
		t.Errorf("expected ErrEngineNotConfigured, got %v", err)
	}
}

func TestSynthesizePropagatesEngineError(t *testing.T) {
	boom := errors.New("quota exceeded")
	svc := NewSpeechService(testLogger(), SpeechConfig{GTTS: &fakeGenerator{err: boom}})

	if _, err := svc.Synthesize(context.Background(), "hello", EngineGTTS, VoiceParams{}); !errors.Is(err, boom) {
		t.Errorf("expected wrapped engine error, got %v", err)
	}
}

func TestElevenLabsRequest(t *testing.T) {
	var gotPath, gotKey string
	var gotBody elevenLabsRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.Header.Get("xi-api-key")
		_ = jsoniter.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte("mp3"))
	}))
	defer server.Close()

	tts := NewTTSService("key", "configured-voice")
	tts.baseURL = server.URL + "/v1/text-to-speech/"

	audio, err := tts.GenerateAudio(context.Background(), "Warning! A person directly ahead.", defaultElevenLabsVoice)
	if err != nil {
		t.Fatal(err)
	}
	if string(audio) != "mp3" || gotKey != "key" {
		t.Errorf("audio %q key %q", audio, gotKey)
	}
	if gotPath != "/v1/text-to-speech/configured-voice" {
		t.Errorf("default voice not replaced by the configured one: %s", gotPath)
	}
	if gotBody.ModelID != defaultElevenLabsModel || gotBody.Text == "" {
		t.Errorf("unexpected request body %+v", gotBody)
	}
}
