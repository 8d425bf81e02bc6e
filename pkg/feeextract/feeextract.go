// Package feeextract implements the registration-fee heuristic (C4): a
// regexp-based scan over raw extracted text for amounts near fee-related
// keywords, honoring Indian numbering idioms (lakhs, comma-grouped
// thousands).
package feeextract

import (
	"regexp"
	"strconv"
	"strings"
)

// Extractor implements pipeline.FeeExtractor.
type Extractor struct {
	MinFee     float64
	MaxMiscFee float64
}

// NewExtractor builds an Extractor with the documented fee bounds.
func NewExtractor(minFee, maxMiscFee float64) *Extractor {
	if minFee == 0 {
		minFee = 100
	}
	if maxMiscFee == 0 {
		maxMiscFee = 3000
	}
	return &Extractor{MinFee: minFee, MaxMiscFee: maxMiscFee}
}

// feeLineRE matches a fee-keyword line followed by a rupee amount, e.g.
// "Registration Fee: Rs. 1,500.00" or "Regn Fee Rs 1500/-".
var feeLineRE = regexp.MustCompile(`(?i)(registration|regn\.?|misc(?:ellaneous)?)\s*fee[s]?\D{0,20}(?:rs\.?|inr|₹)?\s*([0-9][0-9,]*(?:\.\d{1,2})?)`)

// lakhRE matches amounts expressed in lakhs, e.g. "1.5 lakhs" => 150000.
var lakhRE = regexp.MustCompile(`(?i)([0-9]+(?:\.[0-9]+)?)\s*lakh[s]?`)

// FromText implements pipeline.FeeExtractor. It returns nil (no error) when
// no candidate is found or every candidate falls below MinFee: no guess is
// ever emitted below the configured minimum.
func (e *Extractor) FromText(text string) (*float64, error) {
	var candidates []float64

	for _, m := range feeLineRE.FindAllStringSubmatch(text, -1) {
		raw := strings.ReplaceAll(m[2], ",", "")
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			continue
		}
		if strings.Contains(strings.ToLower(m[1]), "misc") && v > e.MaxMiscFee {
			continue
		}
		candidates = append(candidates, v)
	}

	for _, m := range lakhRE.FindAllStringSubmatch(text, -1) {
		v, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		candidates = append(candidates, v*100000)
	}

	var best float64
	found := false
	for _, v := range candidates {
		if v < e.MinFee {
			continue
		}
		if !found || v > best {
			best = v
			found = true
		}
	}

	if !found {
		return nil, nil
	}
	return &best, nil
}
