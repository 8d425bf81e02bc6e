// Package duplicate implements content-hash based duplicate detection at
// upload time, hashing each file's bytes and checking the hash against a
// store of previously-ingested file hashes before a document is queued.
package duplicate

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
)

// HashLookup abstracts the store-side existence check so this package
// doesn't depend on pkg/store directly.
type HashLookup interface {
	FileHashExists(ctx context.Context, fileHash string) (bool, error)
}

// Detector computes a document's content hash and checks it against
// previously-ingested documents.
type Detector struct {
	Lookup HashLookup
}

// NewDetector constructs a Detector over an injected HashLookup.
func NewDetector(lookup HashLookup) *Detector {
	return &Detector{Lookup: lookup}
}

// HashFile computes the SHA256 content hash of a file, streaming it to
// avoid loading the whole document into memory.
func HashFile(r io.Reader) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, r); err != nil {
		return "", fmt.Errorf("hash document contents: %w", err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsDuplicate reports whether a document with this content hash has
// already been ingested.
func (d *Detector) IsDuplicate(ctx context.Context, fileHash string) (bool, error) {
	if d.Lookup == nil {
		return false, nil
	}
	return d.Lookup.FileHashExists(ctx, fileHash)
}
