package analysis

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"

	"genai-yolo-go/internal/config"
	"genai-yolo-go/internal/models"
)

// ErrMissingAPIKey is returned when the Gemini backend is selected without credentials
var ErrMissingAPIKey = errors.New("GEMINI_API_KEY (or API_KEY) is not set")

// GeminiBackend asks a Gemini model for YOLO-style detections with a strict JSON response schema
type GeminiBackend struct {
	client      *genai.Client
	model       string
	temperature float32
	language    string
}

// NewGeminiClient builds the genai client from configuration
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*genai.Client, error) {
	if cfg.GeminiAPIKey == "" {
		return nil, ErrMissingAPIKey
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}
	return client, nil
}

// NewGeminiBackend wraps an already constructed client
func NewGeminiBackend(cfg *config.Config, client *genai.Client) *GeminiBackend {
	return &GeminiBackend{
		client:      client,
		model:       cfg.GeminiModel,
		temperature: float32(cfg.GeminiTemperature),
		language:    cfg.DetectionLanguage,
	}
}

func (b *GeminiBackend) Name() string {
	return "gemini"
}

// Infer sends the still inline together with the detection prompt
func (b *GeminiBackend) Infer(ctx context.Context, still models.Still) ([]byte, error) {
	mime := still.MIME
	if mime == "" {
		mime = "image/jpeg"
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(still.Data, mime),
			genai.NewPartFromText(userPrompt(b.language)),
		}, genai.RoleUser),
	}

	resp, err := b.client.Models.GenerateContent(ctx, b.model, contents, &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemInstruction(b.language), genai.RoleUser),
		ResponseMIMEType:  "application/json",
		ResponseSchema:    detectionSchema(b.language),
		Temperature:       genai.Ptr(b.temperature),
	})
	if err != nil {
		return nil, fmt.Errorf("generate content: %w", err)
	}

	return []byte(resp.Text()), nil
}

func systemInstruction(language string) string {
	return fmt.Sprintf("You are an advanced object detection engine similar to YOLOv8. "+
		"Your goal is to return precise bounding boxes for every visible object. "+
		"Coordinates are normalized to the 0-1000 range. Every label must be written in %s.", language)
}

func userPrompt(language string) string {
	return fmt.Sprintf("Detect all relevant objects in the image and give a bounding box for each one. "+
		"Coordinates must be precise. Return object names (labels) in %s. "+
		"Identify people, vehicles, animals and common street or household items.", language)
}

func detectionSchema(language string) *genai.Schema {
	coord := func(desc string) *genai.Schema {
		return &genai.Schema{Type: genai.TypeNumber, Description: desc}
	}

	return &genai.Schema{
		Type: genai.TypeArray,
		Items: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"label": {
					Type:        genai.TypeString,
					Description: fmt.Sprintf("The name of the detected object class in %s.", language),
				},
				"confidence": {
					Type:        genai.TypeNumber,
					Description: "Confidence score between 0.0 and 1.0.",
				},
				"box_2d": {
					Type:        genai.TypeObject,
					Description: "Bounding box coordinates normalized to 1000x1000 scale.",
					Properties: map[string]*genai.Schema{
						"ymin": coord("Top coordinate (0-1000)"),
						"xmin": coord("Left coordinate (0-1000)"),
						"ymax": coord("Bottom coordinate (0-1000)"),
						"xmax": coord("Right coordinate (0-1000)"),
					},
					Required: []string{"ymin", "xmin", "ymax", "xmax"},
				},
			},
			Required: []string{"label", "confidence", "box_2d"},
		},
	}
}
