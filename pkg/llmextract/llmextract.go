// Package llmextract implements C6: the structured sale-deed extractor.
// It asks an OpenAI-compatible chat model to fill a strict JSON tool-call
// contract from document text (and, for the vision fallback, leading page
// images), at temperature 0 with no retries at this layer — a malformed
// or missing tool call is surfaced as an error and Stage-2 records the
// document as Failed.
package llmextract

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"image"
	"image/png"

	"github.com/charmbracelet/log"
	"github.com/openai/openai-go"

	"github.com/deedflow/pipeline/pkg/ai"
	"github.com/deedflow/pipeline/pkg/pipeline"
)

// Extractor implements pipeline.LanguageModel over an injected
// ai.Completion client, the chat-completions-with-tool-calling
// abstraction pkg/ai exposes.
type Extractor struct {
	Completion ai.Completion
	Model      string
	Logger     *log.Logger
}

// NewExtractor constructs an Extractor bound to the given model name.
func NewExtractor(completion ai.Completion, model string, logger *log.Logger) *Extractor {
	return &Extractor{Completion: completion, Model: model, Logger: logger}
}

// Extract implements pipeline.LanguageModel.
func (e *Extractor) Extract(ctx context.Context, prompt string, text string, images []image.Image) (pipeline.ExtractedRecord, error) {
	content, err := buildUserContent(text, images)
	if err != nil {
		return pipeline.ExtractedRecord{}, err
	}

	messages := []openai.ChatCompletionMessageParamUnion{
		{
			OfSystem: &openai.ChatCompletionSystemMessageParam{
				Content: openai.ChatCompletionSystemMessageParamContentUnion{OfString: openai.String(prompt)},
			},
		},
		{
			OfUser: &openai.ChatCompletionUserMessageParam{
				Content: openai.ChatCompletionUserMessageParamContentUnion{OfArrayOfContentParts: content},
			},
		},
	}

	response, err := e.Completion.Completions(ctx, messages, []openai.ChatCompletionToolParam{extractRecordTool}, e.Model)
	if err != nil {
		return pipeline.ExtractedRecord{}, fmt.Errorf("structured extraction completion: %w", err)
	}

	for _, call := range response.ToolCalls {
		if call.Function.Name != extractRecordToolName {
			continue
		}
		var wire wireRecord
		if err := json.Unmarshal([]byte(call.Function.Arguments), &wire); err != nil {
			return pipeline.ExtractedRecord{}, fmt.Errorf("decode tool call arguments: %w", err)
		}
		return toExtractedRecord(wire), nil
	}

	return pipeline.ExtractedRecord{}, fmt.Errorf("model did not call %s", extractRecordToolName)
}

func buildUserContent(text string, images []image.Image) ([]openai.ChatCompletionContentPartUnionParam, error) {
	parts := make([]openai.ChatCompletionContentPartUnionParam, 0, len(images)+1)
	if text != "" {
		parts = append(parts, openai.TextContentPart(text))
	}
	for i, img := range images {
		dataURL, err := toDataURL(img)
		if err != nil {
			return nil, fmt.Errorf("encode page image %d: %w", i+1, err)
		}
		parts = append(parts, openai.ImageContentPart(openai.ChatCompletionContentPartImageImageURLParam{URL: dataURL}))
	}
	if len(parts) == 0 {
		parts = append(parts, openai.TextContentPart(""))
	}
	return parts, nil
}

func toDataURL(img image.Image) (string, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", err
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func toExtractedRecord(w wireRecord) pipeline.ExtractedRecord {
	return pipeline.ExtractedRecord{
		Document: pipeline.DocumentFields{
			TransactionDate:    w.TransactionDate,
			RegistrationOffice: w.RegistrationOffice,
		},
		Property: pipeline.PropertyFields{
			ScheduleBArea:     w.ScheduleBArea,
			ScheduleCName:     w.ScheduleCName,
			ScheduleCAddress:  w.ScheduleCAddress,
			ScheduleCArea:     w.ScheduleCArea,
			Pincode:           w.Pincode,
			State:             w.State,
			SaleConsideration: w.SaleConsideration,
			StampDutyFee:      w.StampDutyFee,
			CashPaymentMode:   w.CashPaymentMode,
		},
		Sellers:           toParties(w.Sellers),
		Buyers:            toParties(w.Buyers),
		ConfirmingParties: toParties(w.ConfirmingParties),
	}
}

func toParties(in []wireParty) []pipeline.Party {
	out := make([]pipeline.Party, 0, len(in))
	for _, p := range in {
		out = append(out, pipeline.Party{
			Role:               p.Role,
			Name:               p.Name,
			Gender:             p.Gender,
			FatherOrSpouseName: p.FatherOrSpouseName,
			DOB:                p.DOB,
			NationalID:         p.NationalID,
			TaxID:              p.TaxID,
			Address:            p.Address,
			Pincode:            p.Pincode,
			State:              p.State,
			Phone1:             p.Phone1,
			Phone2:             p.Phone2,
			Email:              p.Email,
			Share:              p.Share,
		})
	}
	return out
}

var _ pipeline.LanguageModel = (*Extractor)(nil)
