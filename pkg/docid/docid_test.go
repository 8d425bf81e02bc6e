package docid

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFromFilenameIsStable(t *testing.T) {
	a := FromFilename("/uploads/batch1/Sale Deed #42.pdf")
	b := FromFilename("/uploads/batch1/Sale Deed #42.pdf")
	assert.Equal(t, a, b)
}

func TestFromFilenameDiffersByName(t *testing.T) {
	a := FromFilename("/uploads/doc1.pdf")
	b := FromFilename("/uploads/doc2.pdf")
	assert.NotEqual(t, a, b)
}

func TestFromFilenameIgnoresDirectory(t *testing.T) {
	a := FromFilename("/uploads/batch1/doc.pdf")
	b := FromFilename("/elsewhere/doc.pdf")
	assert.Equal(t, a, b, "id is derived from the filename, not its directory")
}

func TestClassify(t *testing.T) {
	assert.True(t, Classify("deed.pdf"))
	assert.True(t, Classify("deed.PDF"))
	assert.False(t, Classify("deed.docx"))
}
