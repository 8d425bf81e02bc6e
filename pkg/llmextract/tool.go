package llmextract

import (
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

const extractRecordToolName = "EXTRACT_SALE_DEED_RECORD"

var partySchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"role":               map[string]any{"type": "string", "enum": []string{"S", "B", "C"}},
		"name":               map[string]any{"type": "string"},
		"gender":             map[string]any{"type": "string"},
		"fatherOrSpouseName": map[string]any{"type": "string"},
		"dob":                map[string]any{"type": "string"},
		"nationalId":         map[string]any{"type": "string"},
		"taxId":              map[string]any{"type": "string"},
		"address":            map[string]any{"type": "string"},
		"pincode":            map[string]any{"type": "string"},
		"state":              map[string]any{"type": "string"},
		"phone1":             map[string]any{"type": "string"},
		"phone2":             map[string]any{"type": "string"},
		"email":              map[string]any{"type": "string"},
		"share":              map[string]any{"type": "number"},
	},
	"required": []string{"role", "name"},
}

// extractRecordTool defines the strict JSON contract the structured
// extractor asks the model to fill, mirroring the data model's document,
// property and party fields. It has no registrationFee or guidanceValue
// field, so Extract always leaves Property.RegistrationFee and
// Property.GuidanceValue nil and Stage-2's last-resort fee source finds
// nothing when this extractor is the LanguageModel.
var extractRecordTool = openai.ChatCompletionToolParam{
	Type: "function",
	Function: openai.FunctionDefinitionParam{
		Name: extractRecordToolName,
		Description: param.NewOpt(
			"Extract the structured sale-deed record from the provided document text and/or page images: document-level fields, property (schedule) fields, and every seller, buyer, and confirming party. Use null for any field you cannot find in the document rather than guessing.",
		),
		Parameters: openai.FunctionParameters{
			"type": "object",
			"properties": map[string]any{
				"transactionDate":    map[string]any{"type": []string{"string", "null"}},
				"registrationOffice": map[string]any{"type": []string{"string", "null"}},
				"scheduleBArea":      map[string]any{"type": []string{"string", "null"}},
				"scheduleCName":      map[string]any{"type": []string{"string", "null"}},
				"scheduleCAddress":   map[string]any{"type": []string{"string", "null"}},
				"scheduleCArea":      map[string]any{"type": []string{"string", "null"}},
				"pincode":            map[string]any{"type": []string{"string", "null"}},
				"state":              map[string]any{"type": []string{"string", "null"}},
				"saleConsideration":  map[string]any{"type": []string{"number", "null"}},
				"stampDutyFee":       map[string]any{"type": []string{"number", "null"}},
				"cashPaymentMode":    map[string]any{"type": []string{"boolean", "null"}},
				"sellers":            map[string]any{"type": "array", "items": partySchema},
				"buyers":             map[string]any{"type": "array", "items": partySchema},
				"confirmingParties":  map[string]any{"type": "array", "items": partySchema},
			},
			"required": []string{"sellers", "buyers"},
		},
	},
}

// wireParty and wireRecord mirror the tool schema field-for-field so
// json.Unmarshal can decode tool-call arguments directly, before mapping
// into pipeline.ExtractedRecord.
type wireParty struct {
	Role               string   `json:"role"`
	Name               string   `json:"name"`
	Gender             string   `json:"gender"`
	FatherOrSpouseName string   `json:"fatherOrSpouseName"`
	DOB                string   `json:"dob"`
	NationalID         string   `json:"nationalId"`
	TaxID              string   `json:"taxId"`
	Address            string   `json:"address"`
	Pincode            string   `json:"pincode"`
	State              string   `json:"state"`
	Phone1             string   `json:"phone1"`
	Phone2             string   `json:"phone2"`
	Email              string   `json:"email"`
	Share              *float64 `json:"share"`
}

type wireRecord struct {
	TransactionDate    *string     `json:"transactionDate"`
	RegistrationOffice *string     `json:"registrationOffice"`
	ScheduleBArea      *string     `json:"scheduleBArea"`
	ScheduleCName      *string     `json:"scheduleCName"`
	ScheduleCAddress   *string     `json:"scheduleCAddress"`
	ScheduleCArea      *string     `json:"scheduleCArea"`
	Pincode            *string     `json:"pincode"`
	State              *string     `json:"state"`
	SaleConsideration  *float64    `json:"saleConsideration"`
	StampDutyFee       *float64    `json:"stampDutyFee"`
	CashPaymentMode    *bool       `json:"cashPaymentMode"`
	Sellers            []wireParty `json:"sellers"`
	Buyers             []wireParty `json:"buyers"`
	ConfirmingParties  []wireParty `json:"confirmingParties"`
}
