package pipeline

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
)

const minTextLength = 100

// stage1Deps bundles the collaborators a Stage1Job needs.
type stage1Deps struct {
	Rasterizer    Rasterizer
	TextExtractor TextExtractor
	FeeExtractor  FeeExtractor
	Options       Options
	Stop          *stopFlag
	Logger        *log.Logger
	Stats         *stats
}

// Stage1Job runs C2 -> C3 -> C4 for a single task. It satisfies
// Job[Stage1Output] and is dispatched through the generic WorkerPool.
type Stage1Job struct {
	Task Task
	deps stage1Deps
}

// Process implements Job[Stage1Output]. Stop-flag checks sit at three
// checkpoints: before starting (which is also before rasterization),
// before text extraction, before fee extraction.
func (j Stage1Job) Process(ctx context.Context) (Stage1Output, error) {
	out := Stage1Output{DocumentID: j.Task.DocumentID, BatchID: j.Task.BatchID, SourcePath: j.Task.SourcePath}
	log := j.deps.Logger

	j.deps.Stats.enterStage1(j.Task.DocumentID)
	defer j.deps.Stats.exitStage1()

	if !j.deps.Stop.isRunning() {
		log.Debugf("[%s] stage1: stop observed before start", j.Task.DocumentID)
		out.Status = StatusStopped
		out.Kind = ErrCancelled
		return out, nil
	}

	pages, err := j.deps.Rasterizer.ToPages(ctx, j.Task.SourcePath, j.deps.Options.MaxPages)
	if err != nil {
		log.Errorf("[%s] rasterization failed: %v", j.Task.DocumentID, err)
		out.Status = StatusFailed
		out.Kind = ErrRasterizationMissing
		out.Err = fmt.Errorf("rasterize: %w", err)
		return out, nil
	}
	out.PageImages = pages

	if !j.deps.Stop.isRunning() {
		out.Status = StatusStopped
		out.Kind = ErrCancelled
		return out, nil
	}
	opts := TextExtractOptions{PageConcurrency: j.deps.Options.OCRPageConcurrency}
	perPage, err := j.deps.TextExtractor.PerPage(ctx, j.Task.SourcePath, pages, opts)
	if err != nil {
		log.Errorf("[%s] text extraction failed: %v", j.Task.DocumentID, err)
		out.Status = StatusFailed
		out.Kind = ErrUnknown
		out.Err = fmt.Errorf("extract text: %w", err)
		return out, nil
	}

	fullText := joinPages(perPage)
	out.FullText = fullText

	if len(fullText) < minTextLength {
		log.Infof("[%s] insufficient text: %d chars", j.Task.DocumentID, len(fullText))
		out.Status = StatusFailed
		out.Kind = ErrInsufficientText
		out.Err = fmt.Errorf("insufficient text: %d chars < %d", len(fullText), minTextLength)
		return out, nil
	}

	if !j.deps.Stop.isRunning() {
		out.Status = StatusStopped
		out.Kind = ErrCancelled
		return out, nil
	}
	fee, err := j.deps.FeeExtractor.FromText(fullText)
	if err != nil {
		log.Warnf("[%s] fee extraction error, continuing without feeFromText: %v", j.Task.DocumentID, err)
	} else {
		out.FeeFromText = fee
	}

	out.Status = StatusOk
	log.Debugf("[%s] stage1 ok: %d pages, %d chars, feeFromText=%v", j.Task.DocumentID, len(pages), len(fullText), fee)
	return out, nil
}

func joinPages(pages []PageText) string {
	var s string
	for _, p := range pages {
		s += fmt.Sprintf("\n\n--- Page %d ---\n\n%s", p.PageNumber, p.Text)
	}
	if len(s) >= 2 {
		return s[2:]
	}
	return s
}
