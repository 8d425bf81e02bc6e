package pipeline

import (
	"context"
	"image"
	"sync"

	"github.com/charmbracelet/log"
)

// panChecker is an optional capability a Validator implementation may
// provide: a non-blocking diagnostic cross-check of PAN-shaped tokens in
// raw text against the structured record. Not part of the Validator
// contract itself since it has no bearing on document success/failure.
type panChecker interface {
	CrossCheckPANs(text string, record ExtractedRecord)
}

// stage2Deps bundles the collaborators a Stage-2 worker needs.
type stage2Deps struct {
	LanguageModel LanguageModel
	Validator     Validator
	TableDetector TableDetector
	VisionModel   VisionModel
	DocumentStore DocumentStore
	FileMover     FileMover
	Rasterizer    Rasterizer // used only for the optional re-raster-on-miss path
	Options       Options
	Stop          *stopFlag
	Logger        *log.Logger
	Stats         *stats

	// AllowRerasterOnMiss gates the re-rasterization path: when
	// feeFromText is absent and no page images exist, C5 MAY
	// re-rasterize. Defaults to false.
	AllowRerasterOnMiss bool
}

// runStage2Workers starts llmWorkers consumers draining the hand-off
// channel. It returns a channel of terminal Results that is closed once
// all consumers have exited.
func runStage2Workers(ctx context.Context, deps stage2Deps, handoff <-chan Stage1Output, llmWorkers int) <-chan Result {
	results := make(chan Result, llmWorkers)

	var wg sync.WaitGroup
	wg.Add(llmWorkers)
	for i := 0; i < llmWorkers; i++ {
		go func(id int) {
			defer wg.Done()
			stage2Worker(ctx, id, deps, handoff, results)
		}(i)
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

func stage2Worker(ctx context.Context, id int, deps stage2Deps, handoff <-chan Stage1Output, results chan<- Result) {
	for in := range handoff {
		deps.Stats.dequeued()
		deps.Stats.enterStage2()
		res := processStage2(ctx, deps, in)
		deps.Stats.exitStage2(res)
		results <- res
	}
	deps.Logger.Debugf("stage2 worker %d: handoff closed and drained", id)
}

func processStage2(ctx context.Context, deps stage2Deps, in Stage1Output) Result {
	log := deps.Logger
	docID := in.DocumentID

	if !deps.Stop.isRunning() {
		log.Debugf("[%s] stage2: stop observed before start", docID)
		return Result{DocumentID: docID, Status: StatusStopped, Kind: ErrCancelled}
	}

	record, err := deps.LanguageModel.Extract(ctx, extractionPrompt, in.FullText, leadingImages(in.PageImages, 3))
	if err != nil {
		log.Errorf("[%s] language model extraction failed: %v", docID, err)
		deps.moveBestEffort(ctx, AreaFailed, in.SourcePath)
		return Result{DocumentID: docID, Status: StatusFailed, Kind: ErrModelInvocation, Err: err}
	}

	if !deps.Stop.isRunning() {
		return Result{DocumentID: docID, Status: StatusStopped, Kind: ErrCancelled}
	}

	record, err = deps.Validator.Normalize(ctx, record)
	if err != nil {
		log.Errorf("[%s] validation failed: %v", docID, err)
		deps.moveBestEffort(ctx, AreaFailed, in.SourcePath)
		return Result{DocumentID: docID, Status: StatusFailed, Kind: ErrValidation, Err: err}
	}

	if checker, ok := deps.Validator.(panChecker); ok {
		checker.CrossCheckPANs(in.FullText, record)
	}

	if !deps.Stop.isRunning() {
		return Result{DocumentID: docID, Status: StatusStopped, Kind: ErrCancelled}
	}

	chosenFee := deps.arbitrateFee(ctx, in, &record)
	if chosenFee != nil {
		record.Property.RegistrationFee = chosenFee
		gv := deps.Validator.GuidanceValue(*chosenFee)
		record.Property.GuidanceValue = &gv
	}

	if !deps.Stop.isRunning() {
		return Result{DocumentID: docID, Status: StatusStopped, Kind: ErrCancelled}
	}

	if err := deps.DocumentStore.Upsert(ctx, docID, in.BatchID, record); err != nil {
		log.Errorf("[%s] persistence failed: %v", docID, err)
		deps.moveBestEffort(ctx, AreaFailed, in.SourcePath)
		return Result{DocumentID: docID, Status: StatusFailed, Kind: ErrPersistence, Err: err}
	}

	if err := deps.FileMover.MoveTo(ctx, AreaProcessed, in.SourcePath); err != nil {
		log.Warnf("[%s] moved to processed area failed: %v", docID, err)
	}

	log.Infof("[%s] stage2 ok", docID)
	return Result{DocumentID: docID, Status: StatusOk}
}

// arbitrateFee implements the fee-source priority order: feeFromText (P1)
// is final if present; otherwise C5 (table detect + vision) runs;
// otherwise the LLM's own registrationFee guess is used; otherwise none.
func (d stage2Deps) arbitrateFee(ctx context.Context, in Stage1Output, record *ExtractedRecord) *float64 {
	if in.FeeFromText != nil {
		return in.FeeFromText
	}

	pages := in.PageImages
	if len(pages) == 0 && d.AllowRerasterOnMiss && d.Rasterizer != nil {
		reraster, err := d.Rasterizer.ToPages(ctx, in.SourcePath, d.Options.MaxPages)
		if err != nil {
			d.Logger.Warnf("[%s] re-rasterization for fee-table fallback failed: %v", in.DocumentID, err)
		} else {
			pages = reraster
		}
	}

	if len(pages) > 0 && d.TableDetector != nil && d.VisionModel != nil {
		crop, found, err := d.TableDetector.DetectAndCrop(ctx, pages, d.Options.TableConfidence)
		if err != nil {
			d.Logger.Warnf("[%s] table detection error: %v", in.DocumentID, err)
		} else if found {
			fee, err := d.VisionModel.ExtractFee(ctx, crop)
			if err != nil {
				d.Logger.Warnf("[%s] vision fee extraction error: %v", in.DocumentID, err)
			} else if fee != nil {
				return fee
			}
		}
	}

	return record.Property.RegistrationFee
}

func (d stage2Deps) moveBestEffort(ctx context.Context, area Area, sourcePath string) {
	if err := d.FileMover.MoveTo(ctx, area, sourcePath); err != nil {
		d.Logger.Warnf("moving %s to %s area failed: %v", sourcePath, area, err)
	}
}

// leadingImages returns at most n page images, for the optional
// high-value-field multimodal prompt enrichment.
func leadingImages(pages []image.Image, n int) []image.Image {
	if len(pages) <= n {
		return pages
	}
	return pages[:n]
}

const extractionPrompt = "Extract the structured sale-deed record described by the schema: parties (sellers, buyers, confirming parties), property attributes, and fees. Return strict JSON matching the given tool schema."
