package pipeline

import (
	"context"
	"errors"
	"image"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubBatchStore struct {
	mu         sync.Mutex
	created    bool
	processing bool
	completed  bool
	processed  int
	failed     int
}

func (s *stubBatchStore) Create(ctx context.Context, batchID, name string, uploadedCount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.created = true
	return nil
}

func (s *stubBatchStore) MarkProcessing(ctx context.Context, batchID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processing = true
	return nil
}

func (s *stubBatchStore) MarkCompleted(ctx context.Context, batchID string, processed, failed int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.completed = true
	s.processed = processed
	s.failed = failed
	return nil
}

type stubNotifier struct {
	mu     sync.Mutex
	events []CompletionEvent
}

func (n *stubNotifier) Emit(ctx context.Context, event CompletionEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func newTestCoordinator(deps Dependencies, opts Options) *Coordinator {
	if deps.Rasterizer == nil {
		deps.Rasterizer = stubRasterizer{pages: []image.Image{nil}}
	}
	if deps.TextExtractor == nil {
		deps.TextExtractor = stubTextExtractor{perPage: longEnoughText()}
	}
	if deps.FeeExtractor == nil {
		deps.FeeExtractor = stubFeeExtractor{fee: floatPtr(1000)}
	}
	if deps.LanguageModel == nil {
		deps.LanguageModel = stubLanguageModel{}
	}
	if deps.Validator == nil {
		deps.Validator = &stubValidator{}
	}
	if deps.DocumentStore == nil {
		deps.DocumentStore = &stubDocumentStore{}
	}
	if deps.FileMover == nil {
		deps.FileMover = &stubFileMover{}
	}
	if deps.Logger == nil {
		deps.Logger = log.New(nil)
	}
	return NewCoordinator(deps, opts)
}

func tasksNamed(n int, batchID string) []Task {
	tasks := make([]Task, n)
	for i := range tasks {
		tasks[i] = Task{DocumentID: "doc" + string(rune('a'+i)), SourcePath: "doc.pdf", BatchID: batchID}
	}
	return tasks
}

func TestRunBatchProcessesAllDocumentsSuccessfully(t *testing.T) {
	batchStore := &stubBatchStore{}
	notifier := &stubNotifier{}
	coord := newTestCoordinator(Dependencies{
		BatchStore: batchStore,
		Notifier:   notifier,
	}, Options{OCRWorkers: 2, LLMWorkers: 2, HandoffCapacity: 1})

	tasks := tasksNamed(5, "b1")
	summary, err := coord.RunBatch(context.Background(), "b1", "batch one", tasks)

	require.NoError(t, err)
	assert.Equal(t, 5, summary.Total)
	assert.Equal(t, 5, summary.Successful)
	assert.Equal(t, 0, summary.Failed)
	assert.Equal(t, 0, summary.Stopped)
	assert.True(t, batchStore.created)
	assert.True(t, batchStore.processing)
	assert.True(t, batchStore.completed)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, SeveritySuccess, notifier.events[0].Severity)
}

func TestRunBatchAllFailuresReportErrorSeverity(t *testing.T) {
	notifier := &stubNotifier{}
	coord := newTestCoordinator(Dependencies{
		LanguageModel: stubLanguageModel{err: assertError("extraction down")},
		Notifier:      notifier,
	}, Options{OCRWorkers: 1, LLMWorkers: 1, HandoffCapacity: 1})

	tasks := tasksNamed(3, "b2")
	summary, err := coord.RunBatch(context.Background(), "b2", "batch two", tasks)

	require.NoError(t, err)
	assert.Equal(t, 3, summary.Total)
	assert.Equal(t, 0, summary.Successful)
	assert.Equal(t, 3, summary.Failed)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, SeverityError, notifier.events[0].Severity, "zero successes out of a non-empty batch is an error, not a warning")
}

func TestRunBatchMixedOutcomeReportsWarningSeverity(t *testing.T) {
	notifier := &stubNotifier{}
	coord := newTestCoordinator(Dependencies{
		// Single OCR/LLM worker keeps processing order == task order, so
		// this deterministically fails the second of three documents.
		LanguageModel: &failOnNthCall{n: 2},
		Notifier:      notifier,
	}, Options{OCRWorkers: 1, LLMWorkers: 1, HandoffCapacity: 1})

	tasks := tasksNamed(3, "b2b")
	summary, err := coord.RunBatch(context.Background(), "b2b", "batch two b", tasks)

	require.NoError(t, err)
	assert.Equal(t, 2, summary.Successful)
	assert.Equal(t, 1, summary.Failed)
	require.Len(t, notifier.events, 1)
	assert.Equal(t, SeverityWarning, notifier.events[0].Severity)
}

func TestBatchSeverityPrecedence(t *testing.T) {
	// failed == 0 wins even when successful == 0 too (e.g. an all-stopped
	// batch), so the zero/zero case reads as success rather than error.
	assert.Equal(t, SeveritySuccess, batchSeverity(0, 0))
	assert.Equal(t, SeveritySuccess, batchSeverity(5, 0))
	assert.Equal(t, SeverityError, batchSeverity(0, 5))
	assert.Equal(t, SeverityWarning, batchSeverity(2, 1))
}

type failOnNthCall struct {
	n     int
	calls int
}

func (f *failOnNthCall) Extract(ctx context.Context, prompt, text string, images []image.Image) (ExtractedRecord, error) {
	f.calls++
	if f.calls == f.n {
		return ExtractedRecord{}, assertError("extraction down")
	}
	return ExtractedRecord{}, nil
}

func TestRunBatchHonorsHandoffCapacityAsBackpressure(t *testing.T) {
	var peakInBuffer int
	var mu sync.Mutex

	slowModel := slowLanguageModel{delay: 30 * time.Millisecond}
	coord := newTestCoordinator(Dependencies{LanguageModel: slowModel}, Options{
		OCRWorkers:      4,
		LLMWorkers:      1,
		HandoffCapacity: 1,
	})

	tasks := tasksNamed(6, "b3")

	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-done:
				return
			default:
				snap := coord.Stats()
				mu.Lock()
				if snap.InBuffer > peakInBuffer {
					peakInBuffer = snap.InBuffer
				}
				mu.Unlock()
				time.Sleep(2 * time.Millisecond)
			}
		}
	}()

	summary, err := coord.RunBatch(context.Background(), "b3", "batch three", tasks)
	close(done)

	require.NoError(t, err)
	assert.Equal(t, 6, summary.Successful)
	mu.Lock()
	defer mu.Unlock()
	assert.LessOrEqual(t, peakInBuffer, 1, "buffer occupancy should never exceed HandoffCapacity")
}

func TestRunBatchStopIsCooperativeNotInstant(t *testing.T) {
	slowModel := slowLanguageModel{delay: 20 * time.Millisecond}
	coord := newTestCoordinator(Dependencies{LanguageModel: slowModel}, Options{
		OCRWorkers:      2,
		LLMWorkers:      2,
		HandoffCapacity: 2,
	})

	tasks := tasksNamed(10, "b4")

	go func() {
		time.Sleep(15 * time.Millisecond)
		coord.Stop()
	}()

	summary, err := coord.RunBatch(context.Background(), "b4", "batch four", tasks)

	require.NoError(t, err)
	assert.Equal(t, 10, summary.Total)
	assert.Equal(t, summary.Successful+summary.Failed+summary.Stopped, summary.Total)
	assert.Greater(t, summary.Stopped, 0, "stopping mid-batch should leave at least one document Stopped")
}

func TestCoordinatorUpdateOptionsAppliesToNextBatchOnly(t *testing.T) {
	coord := newTestCoordinator(Dependencies{}, Options{OCRWorkers: 1, LLMWorkers: 1, HandoffCapacity: 1})

	coord.UpdateOptions(Options{OCRWorkers: 3, LLMWorkers: 3, HandoffCapacity: 2})

	assert.Equal(t, 3, coord.currentOptions().OCRWorkers)
}

type slowLanguageModel struct {
	delay time.Duration
}

func (s slowLanguageModel) Extract(ctx context.Context, prompt, text string, images []image.Image) (ExtractedRecord, error) {
	select {
	case <-time.After(s.delay):
	case <-ctx.Done():
	}
	return ExtractedRecord{}, nil
}

func assertError(msg string) error { return errors.New(msg) }
