package pipeline

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/charmbracelet/log"
)

// Dependencies bundles every collaborator the Coordinator needs across both
// stages. Each field corresponds to one of the interfaces in contracts.go;
// tests substitute stubs for all of them.
type Dependencies struct {
	Rasterizer    Rasterizer
	TextExtractor TextExtractor
	FeeExtractor  FeeExtractor
	TableDetector TableDetector
	VisionModel   VisionModel
	LanguageModel LanguageModel
	Validator     Validator
	DocumentStore DocumentStore
	BatchStore    BatchStore
	FileMover     FileMover
	Notifier      Notifier
	Logger        *log.Logger

	// AllowRerasterOnMiss gates the C5 re-rasterization-on-miss path.
	// Default false.
	AllowRerasterOnMiss bool
}

// BatchSummary is the return value of RunBatch.
type BatchSummary struct {
	Total      int
	Processed  int
	Successful int
	Failed     int
	Stopped    int
	Results    []Result
}

// Coordinator is C11: it owns the bounded hand-off buffer, the worker
// pools for both stages, live statistics, and the stop signal.
type Coordinator struct {
	deps Dependencies

	optsMu sync.RWMutex
	opts   Options

	runMu    sync.Mutex
	curStop  atomic.Pointer[stopFlag]
	curStats atomic.Pointer[stats]
}

// NewCoordinator constructs a Coordinator with its collaborators and
// starting options. Options are normalized (defaults filled, bounds
// clamped) once here and again on every UpdateOptions call.
func NewCoordinator(deps Dependencies, opts Options) *Coordinator {
	return &Coordinator{deps: deps, opts: opts.Normalize()}
}

// UpdateOptions swaps the coordinator's option cell for the NEXT batch.
// It never mutates counters or worker pools of a batch already running,
// avoiding mid-batch races on worker counts.
func (c *Coordinator) UpdateOptions(opts Options) {
	c.optsMu.Lock()
	c.opts = opts.Normalize()
	c.optsMu.Unlock()
}

func (c *Coordinator) currentOptions() Options {
	c.optsMu.RLock()
	defer c.optsMu.RUnlock()
	return c.opts
}

// Stop requests cooperative shutdown of whatever batch is currently
// running. Idempotent; safe to call from any goroutine, including before a
// batch has started (in which case it is a no-op remembered only for the
// duration it's set — a subsequent RunBatch starts its own fresh flag).
func (c *Coordinator) Stop() {
	if f := c.curStop.Load(); f != nil {
		f.stop()
	}
}

// Stats returns a consistent snapshot of the currently running (or most
// recently run) batch's counters.
func (c *Coordinator) Stats() Snapshot {
	running := false
	if f := c.curStop.Load(); f != nil {
		running = f.isRunning()
	}
	if s := c.curStats.Load(); s != nil {
		return s.snapshot(running)
	}
	return Snapshot{}
}

// RunBatch processes every task through both stages and returns only once
// both stages have fully drained.
func (c *Coordinator) RunBatch(ctx context.Context, batchID, batchName string, tasks []Task) (BatchSummary, error) {
	c.runMu.Lock()
	defer c.runMu.Unlock()

	opts := c.currentOptions()
	stop := newStopFlag()
	st := newStats(len(tasks), opts.OCRWorkers, opts.LLMWorkers)
	c.curStop.Store(stop)
	c.curStats.Store(st)

	log := c.deps.Logger
	log.Infof("batch %s (%s): starting, %d tasks, ocrWorkers=%d llmWorkers=%d handoffCapacity=%d",
		batchID, batchName, len(tasks), opts.OCRWorkers, opts.LLMWorkers, opts.HandoffCapacity)

	if c.deps.BatchStore != nil {
		if err := c.deps.BatchStore.Create(ctx, batchID, batchName, len(tasks)); err != nil {
			log.Warnf("batch %s: recording upload failed: %v", batchID, err)
		}
		if err := c.deps.BatchStore.MarkProcessing(ctx, batchID); err != nil {
			log.Warnf("batch %s: marking processing failed: %v", batchID, err)
		}
	}

	handoff := make(chan Stage1Output, opts.HandoffCapacity)

	s1deps := stage1Deps{
		Rasterizer:    c.deps.Rasterizer,
		TextExtractor: c.deps.TextExtractor,
		FeeExtractor:  c.deps.FeeExtractor,
		Options:       opts,
		Stop:          stop,
		Logger:        log,
		Stats:         st,
	}

	jobs := make([]Stage1Job, len(tasks))
	for i, t := range tasks {
		jobs[i] = Stage1Job{Task: t, deps: s1deps}
	}

	pool := NewWorkerPool[Stage1Job, Stage1Output](opts.OCRWorkers, log)
	stage1Results := pool.Process(ctx, jobs)

	s2deps := stage2Deps{
		LanguageModel:       c.deps.LanguageModel,
		Validator:           c.deps.Validator,
		TableDetector:       c.deps.TableDetector,
		VisionModel:         c.deps.VisionModel,
		DocumentStore:       c.deps.DocumentStore,
		FileMover:           c.deps.FileMover,
		Rasterizer:          c.deps.Rasterizer,
		Options:             opts,
		Stop:                stop,
		Logger:              log,
		Stats:               st,
		AllowRerasterOnMiss: c.deps.AllowRerasterOnMiss,
	}
	stage2Results := runStage2Workers(ctx, s2deps, handoff, opts.LLMWorkers)

	var allResults []Result
	var resultsMu sync.Mutex
	var collectWG sync.WaitGroup
	collectWG.Add(1)
	go func() {
		defer collectWG.Done()
		for r := range stage2Results {
			resultsMu.Lock()
			allResults = append(allResults, r)
			resultsMu.Unlock()
		}
	}()

	// Feed Stage-1 outputs into the hand-off buffer. A blocked send here IS
	// the backpressure mechanism: Stage-1 workers run inside pool.Process,
	// so a full buffer stalls the pool's consumption of stage1Results,
	// which stalls its workers' next job pull.
	for r := range stage1Results {
		out := r.Result
		if r.Error != nil {
			log.Errorf("[%s] stage1 error: %v", out.DocumentID, r.Error)
		}
		switch out.Status {
		case StatusOk:
			handoff <- out
			st.enqueued()
		case StatusFailed:
			moveBestEffortTo(ctx, c.deps.FileMover, log, AreaFailed, out.SourcePath)
			st.recordStage1Terminal(Result{DocumentID: out.DocumentID, Status: StatusFailed, Kind: out.Kind, Err: out.Err})
			resultsMu.Lock()
			allResults = append(allResults, Result{DocumentID: out.DocumentID, Status: StatusFailed, Kind: out.Kind, Err: out.Err})
			resultsMu.Unlock()
		case StatusStopped:
			st.recordStage1Terminal(Result{DocumentID: out.DocumentID, Status: StatusStopped, Kind: out.Kind})
			resultsMu.Lock()
			allResults = append(allResults, Result{DocumentID: out.DocumentID, Status: StatusStopped, Kind: out.Kind})
			resultsMu.Unlock()
		}
	}

	// All Stage-1 workers have exited; safe to close the hand-off channel
	// so Stage-2 consumers can observe "closed and empty" and terminate.
	close(handoff)

	collectWG.Wait()

	snap := st.snapshot(stop.isRunning())
	summary := BatchSummary{
		Total:      snap.Total,
		Processed:  snap.Processed,
		Successful: snap.Successful,
		Failed:     snap.Failed,
		Stopped:    snap.Stopped,
		Results:    allResults,
	}

	severity := batchSeverity(summary.Successful, summary.Failed)

	if c.deps.BatchStore != nil {
		if err := c.deps.BatchStore.MarkCompleted(ctx, batchID, summary.Processed, summary.Failed); err != nil {
			log.Warnf("batch %s: marking completed failed: %v", batchID, err)
		}
	}
	if c.deps.Notifier != nil {
		c.deps.Notifier.Emit(ctx, CompletionEvent{
			BatchID:    batchID,
			BatchName:  batchName,
			Total:      summary.Total,
			Successful: summary.Successful,
			Failed:     summary.Failed,
			Severity:   severity,
		})
	}

	log.Infof("batch %s (%s): done total=%d successful=%d failed=%d stopped=%d",
		batchID, batchName, summary.Total, summary.Successful, summary.Failed, summary.Stopped)

	return summary, nil
}

// batchSeverity classifies a completed batch: success if nothing failed,
// error if nothing succeeded either, warning otherwise. Checked in that
// order, so an all-stopped batch (failed == 0 and successful == 0) reads
// as success rather than error.
func batchSeverity(successful, failed int) NotifySeverity {
	switch {
	case failed == 0:
		return SeveritySuccess
	case successful == 0:
		return SeverityError
	default:
		return SeverityWarning
	}
}

func moveBestEffortTo(ctx context.Context, mover FileMover, log *log.Logger, area Area, sourcePath string) {
	if mover == nil {
		return
	}
	if err := mover.MoveTo(ctx, area, sourcePath); err != nil {
		log.Warnf("moving %s to %s area failed: %v", sourcePath, area, err)
	}
}
