// Package validate implements C7: field cleaning, date/decimal coercion,
// transliteration, the guidanceValue derivation, and a non-blocking
// PAN-shape cross-check diagnostic.
package validate

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"github.com/charmbracelet/log"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// IdentityTransliterator is a pass-through default implementation of
// pipeline.Transliterator. The Go ecosystem carries no equivalent of
// indic_transliteration in the retrieval pack; callers that need real
// script conversion inject their own Transliterator.
type IdentityTransliterator struct{}

func (IdentityTransliterator) ToLatin(s string) string { return s }

// Validator implements pipeline.Validator.
type Validator struct {
	Transliterator pipeline.Transliterator
	Logger         *log.Logger

	// GuidanceRate expresses the assumed ratio of registrationFee to
	// guidanceValue (registration fee is commonly fixed at 1% of the
	// guidance value in Indian state stamp-duty schedules). No
	// authoritative formula ships with this pipeline's sources, so this
	// is a documented, overridable default rather than a verbatim port.
	GuidanceRate float64
}

// NewValidator constructs a Validator. A nil Transliterator defaults to
// IdentityTransliterator; a zero GuidanceRate defaults to 0.01.
func NewValidator(t pipeline.Transliterator, logger *log.Logger) *Validator {
	if t == nil {
		t = IdentityTransliterator{}
	}
	return &Validator{Transliterator: t, Logger: logger, GuidanceRate: 0.01}
}

var currencyStripRE = regexp.MustCompile(`[^\d.\-]`)

func cleanNumeric(s string) (float64, bool) {
	trimmed := currencyStripRE.ReplaceAllString(s, "")
	if trimmed == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var dateREs = []*regexp.Regexp{
	regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`),
	regexp.MustCompile(`^(\d{2})/(\d{2})/(\d{4})$`),
	regexp.MustCompile(`^(\d{2})-(\d{2})-(\d{4})$`),
}

// coerceDate normalizes dd/mm/yyyy and dd-mm-yyyy into YYYY-MM-DD.
// Already-ISO dates pass through unchanged; anything else is returned
// as-is so a downstream reader can still see the raw value.
func coerceDate(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return s
	}
	if m := dateREs[0].FindStringSubmatch(s); m != nil {
		return s
	}
	for _, re := range dateREs[1:] {
		if m := re.FindStringSubmatch(s); m != nil {
			return m[3] + "-" + m[2] + "-" + m[1]
		}
	}
	return s
}

func (v *Validator) cleanParty(p pipeline.Party) pipeline.Party {
	p.Name = v.Transliterator.ToLatin(strings.TrimSpace(p.Name))
	p.FatherOrSpouseName = v.Transliterator.ToLatin(strings.TrimSpace(p.FatherOrSpouseName))
	p.Address = v.Transliterator.ToLatin(strings.TrimSpace(p.Address))
	p.DOB = coerceDate(p.DOB)
	p.Pincode = strings.TrimSpace(p.Pincode)
	p.NationalID = strings.ToUpper(strings.TrimSpace(p.NationalID))
	p.TaxID = strings.ToUpper(strings.TrimSpace(p.TaxID))
	return p
}

// Normalize implements pipeline.Validator. It never returns an error for
// cleaning failures — an unparsable numeric or date field is left as it
// was rather than failing the whole document,
// consistent with the pipeline's "no hard failures below Stage-2's own
// boundary" posture.
func (v *Validator) Normalize(ctx context.Context, record pipeline.ExtractedRecord) (pipeline.ExtractedRecord, error) {
	record.Document.TransactionDate = normalizeDatePtr(record.Document.TransactionDate)

	record.Property.ScheduleBArea = normalizeTrimPtr(record.Property.ScheduleBArea)
	record.Property.ScheduleCName = normalizeTransliteratePtr(v.Transliterator, record.Property.ScheduleCName)
	record.Property.ScheduleCAddress = normalizeTransliteratePtr(v.Transliterator, record.Property.ScheduleCAddress)
	record.Property.ScheduleCArea = normalizeTrimPtr(record.Property.ScheduleCArea)
	record.Property.Pincode = normalizeTrimPtr(record.Property.Pincode)

	if record.Property.SaleConsideration != nil {
		if cleaned, ok := cleanNumeric(strconv.FormatFloat(*record.Property.SaleConsideration, 'f', -1, 64)); ok {
			record.Property.SaleConsideration = &cleaned
		}
	}
	if record.Property.StampDutyFee != nil {
		if cleaned, ok := cleanNumeric(strconv.FormatFloat(*record.Property.StampDutyFee, 'f', -1, 64)); ok {
			record.Property.StampDutyFee = &cleaned
		}
	}

	for i := range record.Sellers {
		record.Sellers[i] = v.cleanParty(record.Sellers[i])
	}
	for i := range record.Buyers {
		record.Buyers[i] = v.cleanParty(record.Buyers[i])
	}
	for i := range record.ConfirmingParties {
		record.ConfirmingParties[i] = v.cleanParty(record.ConfirmingParties[i])
	}

	return record, nil
}

// GuidanceValue implements pipeline.Validator: a fixed function of the
// arbitrated registration fee.
func (v *Validator) GuidanceValue(chosenFee float64) float64 {
	rate := v.GuidanceRate
	if rate == 0 {
		rate = 0.01
	}
	return chosenFee / rate
}

func normalizeTrimPtr(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	return &trimmed
}

func normalizeDatePtr(s *string) *string {
	if s == nil {
		return nil
	}
	coerced := coerceDate(*s)
	return &coerced
}

func normalizeTransliteratePtr(t pipeline.Transliterator, s *string) *string {
	if s == nil {
		return nil
	}
	out := t.ToLatin(strings.TrimSpace(*s))
	return &out
}

var _ pipeline.Validator = (*Validator)(nil)
