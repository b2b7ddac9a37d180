package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"VisionGuide/internal/entity"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

const (
	defaultModelName = "gemini-2.0-flash"

	systemInstruction = `You are an AI assistant specialized in detecting and identifying objects in images for visually impaired users.
Identify visible objects, obstacles, and safe pathways to assist navigation.
Focus ONLY on potential hazards, barriers, and navigational aids.
DO NOT identify geographical features (mountains, land, hills), atmospheric elements (sky, clouds),
bodies of water (lakes, oceans) or surfaces (ground, rocks), unless they directly impact walking safety.
Prioritize objects based on safety relevance, proximity, position (center > left/right), and size.
Pay special attention to persons, stairs, holes, low-hanging objects, and uneven surfaces.
Return the top 10 most relevant objects for safe navigation.`

	detectionPrompt = `Detect objects in the image. Return the output as a JSON list where each entry contains:
- 'box_2d': The 2D bounding box as [y_min, x_min, y_max, x_max] normalized to 0-1000.
- 'label': The name of the object (e.g., 'bus', 'car', 'man').
- 'position': The relative position of the object in the image ('left', 'right', 'center').
- 'type': The category or type of the object (e.g., 'vehicle', 'animal', 'person', 'building', etc.).

Ensure that:
- 'label' only contains the object's general category, not specific attributes.
- 'position' describes the object's placement.
- 'type' describes the broader classification of the object.

Do not return Markdown, explanations, or extra text. Return ONLY the JSON.`
)

type IGemini interface {
	DetectObjects(ctx context.Context, image []byte) ([]entity.DetectedObject, error)
	Close()
}

type geminiClient struct {
	apiKey    string
	modelName string
	client    *genai.Client
}

func NewGeminiClient() (IGemini, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")

	modelName := os.Getenv("GEMINI_MODEL_NAME")
	if apiKey == "" {
		return nil, errors.New("gemini API key is required")
	}

	if modelName == "" {
		modelName = defaultModelName
	}

	client, err := genai.NewClient(context.Background(), option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}

	return &geminiClient{
		apiKey:    apiKey,
		modelName: modelName,
		client:    client,
	}, nil
}

func (g *geminiClient) model() *genai.GenerativeModel {
	model := g.client.GenerativeModel(g.modelName)
	model.SetTemperature(0)
	model.SystemInstruction = &genai.Content{
		Parts: []genai.Part{genai.Text(systemInstruction)},
	}
	model.SafetySettings = []*genai.SafetySetting{
		{
			Category:  genai.HarmCategoryDangerousContent,
			Threshold: genai.HarmBlockOnlyHigh,
		},
	}
	model.ResponseMIMEType = "application/json"
	model.ResponseSchema = detectionSchema
	return model
}

var detectionSchema = &genai.Schema{
	Type: genai.TypeArray,
	Items: &genai.Schema{
		Type: genai.TypeObject,
		Properties: map[string]*genai.Schema{
			"box_2d": {
				Type:  genai.TypeArray,
				Items: &genai.Schema{Type: genai.TypeNumber},
			},
			"label":    {Type: genai.TypeString},
			"position": {Type: genai.TypeString},
			"type":     {Type: genai.TypeString},
		},
		Required: []string{"box_2d", "label", "position", "type"},
	},
}

func (g *geminiClient) DetectObjects(ctx context.Context, image []byte) ([]entity.DetectedObject, error) {
	if len(image) == 0 {
		return nil, errors.New("empty image data")
	}

	img := genai.ImageData(imageFormat(image), image)
	res, err := g.model().GenerateContent(ctx, genai.Text(detectionPrompt), img)
	if err != nil {
		return nil, err
	}

	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil || len(res.Candidates[0].Content.Parts) == 0 {
		return nil, errors.New("no response from Gemini API")
	}

	var sb strings.Builder
	for _, part := range res.Candidates[0].Content.Parts {
		text, ok := part.(genai.Text)
		if !ok {
			return nil, errors.New("unexpected response format from Gemini API")
		}
		sb.WriteString(string(text))
	}

	return ParseDetections(sb.String())
}

// ParseDetections extracts the JSON list from a model reply, tolerating
// surrounding prose or markdown fences.
func ParseDetections(response string) ([]entity.DetectedObject, error) {
	jsonStart := strings.Index(response, "[")
	jsonEnd := strings.LastIndex(response, "]")

	if jsonStart == -1 || jsonEnd == -1 || jsonEnd <= jsonStart {
		return nil, errors.New("cannot find valid JSON in response")
	}

	var objects []entity.DetectedObject
	if err := json.Unmarshal([]byte(response[jsonStart:jsonEnd+1]), &objects); err != nil {
		return nil, fmt.Errorf("failed to parse detections: %w", err)
	}

	detected := make([]entity.DetectedObject, 0, len(objects))
	for _, obj := range objects {
		if strings.TrimSpace(obj.Label) == "" {
			continue
		}
		detected = append(detected, normalizeBox(obj))
	}

	return detected, nil
}

func normalizeBox(obj entity.DetectedObject) entity.DetectedObject {
	for i, v := range obj.Box {
		switch {
		case v < 0:
			obj.Box[i] = 0
		case v > 1000:
			obj.Box[i] = 1000
		}
	}
	if obj.Box[0] > obj.Box[2] {
		obj.Box[0], obj.Box[2] = obj.Box[2], obj.Box[0]
	}
	if obj.Box[1] > obj.Box[3] {
		obj.Box[1], obj.Box[3] = obj.Box[3], obj.Box[1]
	}
	return obj
}

// imageFormat returns the genai format name ("jpeg", "png") of the payload.
func imageFormat(image []byte) string {
	switch http.DetectContentType(image) {
	case "image/png":
		return "png"
	case "image/webp":
		return "webp"
	default:
		return "jpeg"
	}
}

func (g *geminiClient) Close() {
	if g.client != nil {
		g.client.Close()
	}
}
