package validate

import (
	"regexp"

	"github.com/deedflow/pipeline/pkg/pipeline"
)

// panRE matches the Indian PAN shape: 5 letters, 4 digits, 1 letter.
var panRE = regexp.MustCompile(`\b[A-Z]{5}[0-9]{4}[A-Z]\b`)

// ExtractPANs returns every PAN-shaped token found in text, in order of
// appearance, including duplicates.
func ExtractPANs(text string) []string {
	if text == "" {
		return nil
	}
	return panRE.FindAllString(text, -1)
}

func uniqueCount(ss []string) int {
	seen := make(map[string]struct{}, len(ss))
	for _, s := range ss {
		seen[s] = struct{}{}
	}
	return len(seen)
}

// CrossCheckPANs compares the count of distinct PAN-shaped tokens in raw
// extracted text against the parties whose NationalID/TaxID is PAN-shaped
// on a structured record, and logs a Warn on mismatch. This never fails or
// blocks a document — it is a diagnostic only.
func (v *Validator) CrossCheckPANs(text string, record pipeline.ExtractedRecord) {
	textPANs := uniqueCount(ExtractPANs(text))

	recordPANs := 0
	for _, parties := range [][]pipeline.Party{record.Sellers, record.Buyers, record.ConfirmingParties} {
		for _, p := range parties {
			if panRE.MatchString(p.TaxID) || panRE.MatchString(p.NationalID) {
				recordPANs++
			}
		}
	}

	if textPANs != recordPANs {
		v.Logger.Warnf("PAN count mismatch: %d PAN-shaped tokens in source text, %d on the extracted record", textPANs, recordPANs)
	}
}
