package tabledetect

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"image/png"

	"github.com/charmbracelet/log"
	"google.golang.org/api/option"
	"google.golang.org/generative-ai-go/genai"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// GeminiVisionModel implements pipeline.VisionModel over a cropped table
// region via the Gemini vision API: temperature 0, JSON mime type, and a
// cropped-table prompt for the fee amount.
type GeminiVisionModel struct {
	client *genai.Client
	model  *genai.GenerativeModel
	Logger *log.Logger
}

// NewGeminiVisionModel dials the Gemini API and configures the model for
// deterministic, JSON-shaped vision extraction.
func NewGeminiVisionModel(ctx context.Context, apiKey, modelName string, maxOutputTokens int32, logger *log.Logger) (*GeminiVisionModel, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("dial gemini: %w", err)
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}

	model := client.GenerativeModel(modelName)
	temp := float32(0)
	model.Temperature = &temp
	model.ResponseMIMEType = "application/json"
	if maxOutputTokens > 0 {
		model.MaxOutputTokens = &maxOutputTokens
	}

	return &GeminiVisionModel{client: client, model: model, Logger: logger}, nil
}

// Close releases the underlying gRPC connection.
func (g *GeminiVisionModel) Close() error {
	return g.client.Close()
}

type feeResponse struct {
	RegistrationFee json.Number `json:"registration_fee"`
}

const visionFeePrompt = `You are reading a cropped image of a fee or registration table from an Indian property sale deed.
Return ONLY a JSON object of the shape {"registration_fee": <number or null>} containing the registration fee amount, with no surrounding text.`

// ExtractFee implements pipeline.VisionModel. It sends the cropped table
// region to Gemini and parses {"registration_fee": ...} out of the
// response, returning (nil, nil) whenever the model can't find an amount.
func (g *GeminiVisionModel) ExtractFee(ctx context.Context, tableCrop image.Image) (*float64, error) {
	blob, err := encodePNG(tableCrop)
	if err != nil {
		return nil, err
	}

	resp, err := g.model.GenerateContent(ctx, genai.Text(visionFeePrompt), genai.ImageData("png", blob))
	if err != nil {
		return nil, fmt.Errorf("gemini generate content: %w", err)
	}

	text := responseText(resp)
	if text == "" {
		return nil, nil
	}

	var parsed feeResponse
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		g.Logger.Warnf("gemini vision fee response not valid json: %v", err)
		return nil, nil
	}

	fee, err := parsed.RegistrationFee.Float64()
	if err != nil {
		return nil, nil
	}
	return &fee, nil
}

func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page image: %w", err)
	}
	return buf.Bytes(), nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return ""
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			out += string(t)
		}
	}
	return out
}

var _ pipeline.VisionModel = (*GeminiVisionModel)(nil)
