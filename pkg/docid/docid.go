// Package docid derives a stable document identity from an input filename
// (C1).
package docid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
	"strings"
)

// FromFilename derives a stable documentId from sourcePath. Running this
// twice on the same filename always yields the same id, and the result is
// safe to use as a filesystem-path component or a SQL primary key.
func FromFilename(sourcePath string) string {
	base := filepath.Base(sourcePath)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	stem = sanitize(stem)

	sum := sha256.Sum256([]byte(base))
	suffix := hex.EncodeToString(sum[:])[:12]

	if stem == "" {
		return suffix
	}
	return stem + "-" + suffix
}

// sanitize keeps the id filesystem- and SQL-identifier-friendly.
func sanitize(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case r == '-' || r == '_':
			b.WriteRune('-')
		default:
			b.WriteRune('-')
		}
	}
	out := b.String()
	for strings.Contains(out, "--") {
		out = strings.ReplaceAll(out, "--", "-")
	}
	return strings.Trim(out, "-")
}

// Classify reports whether sourcePath looks like a PDF input, based on its
// extension. The core only ever processes PDFs; this is a thin guard the
// surrounding upload surface can use before submitting a Task.
func Classify(sourcePath string) (isPDF bool) {
	return strings.EqualFold(filepath.Ext(sourcePath), ".pdf")
}
