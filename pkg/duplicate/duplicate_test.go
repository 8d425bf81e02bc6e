package duplicate

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubLookup struct {
	exists map[string]bool
	err    error
}

func (s stubLookup) FileHashExists(ctx context.Context, fileHash string) (bool, error) {
	if s.err != nil {
		return false, s.err
	}
	return s.exists[fileHash], nil
}

func TestHashFileIsStableForIdenticalContent(t *testing.T) {
	h1, err := HashFile(bytes.NewReader([]byte("hello deed")))
	require.NoError(t, err)
	h2, err := HashFile(bytes.NewReader([]byte("hello deed")))
	require.NoError(t, err)

	assert.Equal(t, h1, h2)
	assert.Len(t, h1, 64)
}

func TestHashFileDiffersForDifferentContent(t *testing.T) {
	h1, err := HashFile(bytes.NewReader([]byte("document a")))
	require.NoError(t, err)
	h2, err := HashFile(bytes.NewReader([]byte("document b")))
	require.NoError(t, err)

	assert.NotEqual(t, h1, h2)
}

func TestIsDuplicateReflectsLookup(t *testing.T) {
	lookup := stubLookup{exists: map[string]bool{"abc": true}}
	d := NewDetector(lookup)

	dup, err := d.IsDuplicate(context.Background(), "abc")
	require.NoError(t, err)
	assert.True(t, dup)

	dup, err = d.IsDuplicate(context.Background(), "xyz")
	require.NoError(t, err)
	assert.False(t, dup)
}

func TestIsDuplicateWithNilLookupNeverFlagsADuplicate(t *testing.T) {
	d := NewDetector(nil)

	dup, err := d.IsDuplicate(context.Background(), "anything")
	require.NoError(t, err)
	assert.False(t, dup)
}
