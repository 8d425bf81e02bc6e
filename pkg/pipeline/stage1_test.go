package pipeline

import (
	"context"
	"errors"
	"image"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRasterizer struct {
	pages []image.Image
	err   error
}

func (s stubRasterizer) ToPages(ctx context.Context, sourcePath string, maxPages int) ([]image.Image, error) {
	return s.pages, s.err
}

type stubTextExtractor struct {
	perPage []PageText
	err     error
}

func (s stubTextExtractor) PerPage(ctx context.Context, sourcePath string, pages []image.Image, opts TextExtractOptions) ([]PageText, error) {
	return s.perPage, s.err
}

type stubFeeExtractor struct {
	fee *float64
	err error
}

func (s stubFeeExtractor) FromText(text string) (*float64, error) {
	return s.fee, s.err
}

func testStage1Deps(t *testing.T, r Rasterizer, te TextExtractor, fe FeeExtractor) stage1Deps {
	return stage1Deps{
		Rasterizer:    r,
		TextExtractor: te,
		FeeExtractor:  fe,
		Options:       DefaultOptions(),
		Stop:          newStopFlag(),
		Logger:        log.New(nil),
		Stats:         newStats(1, 1, 1),
	}
}

func longEnoughText() []PageText {
	text := ""
	for i := 0; i < 20; i++ {
		text += "the quick brown fox jumps over the lazy dog. "
	}
	return []PageText{{PageNumber: 1, Text: text}}
}

func TestStage1JobSucceedsAndCarriesFeeFromText(t *testing.T) {
	fee := 1500.0
	deps := testStage1Deps(t,
		stubRasterizer{pages: []image.Image{nil}},
		stubTextExtractor{perPage: longEnoughText()},
		stubFeeExtractor{fee: &fee},
	)
	job := Stage1Job{Task: Task{DocumentID: "d1", SourcePath: "a.pdf"}, deps: deps}

	out, err := job.Process(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusOk, out.Status)
	require.NotNil(t, out.FeeFromText)
	assert.Equal(t, fee, *out.FeeFromText)
}

func TestStage1JobFailsWhenRasterizerErrors(t *testing.T) {
	deps := testStage1Deps(t,
		stubRasterizer{err: errors.New("pdftoppm not found")},
		stubTextExtractor{},
		stubFeeExtractor{},
	)
	job := Stage1Job{Task: Task{DocumentID: "d1", SourcePath: "a.pdf"}, deps: deps}

	out, err := job.Process(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrRasterizationMissing, out.Kind)
}

func TestStage1JobFailsOnInsufficientText(t *testing.T) {
	deps := testStage1Deps(t,
		stubRasterizer{pages: []image.Image{nil}},
		stubTextExtractor{perPage: []PageText{{PageNumber: 1, Text: "too short"}}},
		stubFeeExtractor{},
	)
	job := Stage1Job{Task: Task{DocumentID: "d1", SourcePath: "a.pdf"}, deps: deps}

	out, err := job.Process(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, ErrInsufficientText, out.Kind)
}

func TestStage1JobStopsWhenFlagAlreadyCleared(t *testing.T) {
	deps := testStage1Deps(t,
		stubRasterizer{pages: []image.Image{nil}},
		stubTextExtractor{perPage: longEnoughText()},
		stubFeeExtractor{},
	)
	deps.Stop.stop()
	job := Stage1Job{Task: Task{DocumentID: "d1", SourcePath: "a.pdf"}, deps: deps}

	out, err := job.Process(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusStopped, out.Status)
	assert.Equal(t, ErrCancelled, out.Kind)
}

func TestStage1JobContinuesWhenFeeExtractorErrors(t *testing.T) {
	deps := testStage1Deps(t,
		stubRasterizer{pages: []image.Image{nil}},
		stubTextExtractor{perPage: longEnoughText()},
		stubFeeExtractor{err: errors.New("bad regex state")},
	)
	job := Stage1Job{Task: Task{DocumentID: "d1", SourcePath: "a.pdf"}, deps: deps}

	out, err := job.Process(context.Background())

	require.NoError(t, err)
	assert.Equal(t, StatusOk, out.Status)
	assert.Nil(t, out.FeeFromText)
}
