package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Google Translate rejects requests longer than this.
const gttsMaxChars = 200

type GTTSService struct {
	client  *http.Client
	baseURL string
}

func NewGTTSService() *GTTSService {
	return &GTTSService{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: "https://translate.google.com/translate_tts",
	}
}

// GenerateAudio returns MP3 audio; long sentences are requested in chunks and
// the MP3 frames concatenated.
func (g *GTTSService) GenerateAudio(ctx context.Context, text, language string) ([]byte, error) {
	var buf bytes.Buffer
	for _, chunk := range splitText(text, gttsMaxChars) {
		data, err := g.fetch(ctx, chunk, language)
		if err != nil {
			return nil, err
		}
		buf.Write(data)
	}
	return buf.Bytes(), nil
}

func (g *GTTSService) fetch(ctx context.Context, text, language string) ([]byte, error) {
	params := url.Values{}
	params.Set("ie", "UTF-8")
	params.Set("client", "tw-ob")
	params.Set("tl", language)
	params.Set("q", text)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("gTTS error: %s", resp.Status)
	}

	return io.ReadAll(resp.Body)
}

func splitText(text string, limit int) []string {
	words := strings.Fields(text)
	var chunks []string
	var current strings.Builder

	for _, word := range words {
		if current.Len() > 0 && current.Len()+1+len(word) > limit {
			chunks = append(chunks, current.String())
			current.Reset()
		}
		for len(word) > limit {
			chunks = append(chunks, word[:limit])
			word = word[limit:]
		}
		if current.Len() > 0 {
			current.WriteByte(' ')
		}
		current.WriteString(word)
	}
	if current.Len() > 0 {
		chunks = append(chunks, current.String())
	}
	return chunks
}
