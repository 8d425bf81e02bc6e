// Package main wires every collaborator in pkg/pipeline.Dependencies and
// exposes the batch pipeline as a CLI (charmbracelet/log, go-flags,
// lib/pq, goose).
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	flags "github.com/jessevdk/go-flags"

	"github.com/deedflow/pipeline/pkg/ai"
	batchstore "github.com/deedflow/pipeline/pkg/batch"
	pipelineconfig "github.com/deedflow/pipeline/pkg/config"
	"github.com/deedflow/pipeline/pkg/docid"
	"github.com/deedflow/pipeline/pkg/duplicate"
	"github.com/deedflow/pipeline/pkg/feeextract"
	"github.com/deedflow/pipeline/pkg/filemover"
	"github.com/deedflow/pipeline/pkg/llmextract"
	"github.com/deedflow/pipeline/pkg/notify"
	"github.com/deedflow/pipeline/pkg/pgdb"
	"github.com/deedflow/pipeline/pkg/pipeline"
	"github.com/deedflow/pipeline/pkg/raster"
	"github.com/deedflow/pipeline/pkg/store"
	"github.com/deedflow/pipeline/pkg/tabledetect"
	"github.com/deedflow/pipeline/pkg/textextract"
	"github.com/deedflow/pipeline/pkg/validate"
)

type cliOptions struct {
	InputDir  string `short:"i" long:"input" description:"directory of PDF documents to ingest" required:"true"`
	BatchName string `short:"n" long:"name" description:"human-readable batch name" default:"batch"`
	PrintEnv  bool   `long:"print-env" description:"log resolved configuration at startup (secrets masked)"`
}

func main() {
	var opts cliOptions
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	logger := log.NewWithOptions(os.Stdout, log.Options{
		ReportCaller:    true,
		ReportTimestamp: true,
		Level:           log.InfoLevel,
	})

	cfg, err := pipelineconfig.Load(opts.PrintEnv)
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}
	logger.Infof("config loaded: %s", cfg)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	coordinator, documentStore, closeFn, err := buildCoordinator(ctx, cfg, logger)
	if err != nil {
		logger.Fatalf("build pipeline: %v", err)
	}
	defer closeFn()

	tasks, err := discoverTasks(ctx, opts.InputDir, documentStore, logger)
	if err != nil {
		logger.Fatalf("discover input: %v", err)
	}
	if len(tasks) == 0 {
		logger.Warnf("no documents found under %s", opts.InputDir)
		return
	}

	batchID := uuid.New().String()
	for i := range tasks {
		tasks[i].BatchID = batchID
	}

	go func() {
		<-ctx.Done()
		logger.Warn("shutdown signal received, stopping batch cooperatively")
		coordinator.Stop()
	}()

	summary, err := coordinator.RunBatch(ctx, batchID, opts.BatchName, tasks)
	if err != nil {
		logger.Fatalf("batch %s failed: %v", batchID, err)
	}

	logger.Infof("batch %s complete: total=%d successful=%d failed=%d stopped=%d",
		batchID, summary.Total, summary.Successful, summary.Failed, summary.Stopped)
}

// discoverTasks lists every .pdf file directly under dir, hashes each one
// for C13's duplicate check, and derives every surviving file's document
// ID from its filename (docid.FromFilename, stable across runs). Documents are discovered flat under dir and gated by a
// content-hash duplicate check before being assigned a task.
func discoverTasks(ctx context.Context, dir string, documentStore *store.PostgresDocumentStore, logger *log.Logger) ([]pipeline.Task, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dir, err)
	}

	dupDetector := duplicate.NewDetector(documentStore)

	var tasks []pipeline.Task
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if !docid.Classify(path) {
			continue
		}

		f, err := os.Open(path)
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			continue
		}
		hash, err := duplicate.HashFile(f)
		f.Close()
		if err != nil {
			logger.Warnf("skipping %s: %v", path, err)
			continue
		}

		isDup, err := dupDetector.IsDuplicate(ctx, hash)
		if err != nil {
			logger.Warnf("duplicate check failed for %s, ingesting anyway: %v", path, err)
		} else if isDup {
			logger.Infof("skipping %s: content already ingested (hash %s)", path, hash)
			continue
		}

		documentID := docid.FromFilename(path)
		if err := documentStore.RecordFileHash(ctx, documentID, hash); err != nil {
			logger.Warnf("recording file hash for %s failed: %v", path, err)
		}

		tasks = append(tasks, pipeline.Task{
			SourcePath: path,
			DocumentID: documentID,
		})
	}
	logger.Infof("discovered %d documents under %s", len(tasks), dir)
	return tasks, nil
}

// buildCoordinator wires every pkg/pipeline.Dependencies collaborator from
// cfg, returning a cleanup func that closes the DB pool and any open model
// clients.
func buildCoordinator(ctx context.Context, cfg *pipelineconfig.Config, logger *log.Logger) (*pipeline.Coordinator, *store.PostgresDocumentStore, func(), error) {
	db, err := pgdb.Open(ctx, cfg.PostgresDSN, logger)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open database: %w", err)
	}

	documentStore := store.NewPostgresDocumentStore(db, logger)
	batchStore := batchstore.NewPostgresBatchStore(db, logger)

	mover, err := filemover.NewDirMover(cfg.ProcessedDir, cfg.FailedDir)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("prepare file-mover directories: %w", err)
	}

	bus := notify.NewBus(logger)
	bus.Subscribe(func(ctx context.Context, event pipeline.CompletionEvent) error {
		logger.Infof("batch %s (%s) notification: severity=%s total=%d successful=%d failed=%d",
			event.BatchID, event.BatchName, event.Severity, event.Total, event.Successful, event.Failed)
		return nil
	})

	rasterizer := raster.NewPopplerRasterizer(200, cfg.TargetWidth, logger)

	var textExtractor pipeline.TextExtractor
	switch pipeline.TextMode(cfg.Mode) {
	case pipeline.ModeNative:
		textExtractor = &textextract.NativeExtractor{Logger: logger}
	default:
		textExtractor = textextract.NewTesseractExtractor(cfg.OCRLang, logger)
	}

	openaiService, err := ai.NewOpenAIService(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL)
	if err != nil {
		db.Close()
		return nil, nil, nil, fmt.Errorf("build openai client: %w", err)
	}
	extractor := llmextract.NewExtractor(openaiService, cfg.OpenAICompletionsModel, logger)

	var tableDetector pipeline.TableDetector
	var visionModel pipeline.VisionModel
	if cfg.GeminiAPIKey != "" {
		geminiVision, err := tabledetect.NewGeminiVisionModel(ctx, cfg.GeminiAPIKey, cfg.GeminiVisionModel, 256, logger)
		if err != nil {
			logger.Warnf("gemini vision unavailable, table-fee fallback disabled: %v", err)
		} else {
			visionModel = geminiVision
			// No ObjectDetector ships with this core — detector weights/APIs
			// are an injected, out-of-tree concern. Without one the
			// table-crop fallback never runs, so tableDetector stays nil and
			// Stage-2 simply skips that branch.
		}
	}

	validator := validate.NewValidator(validate.IdentityTransliterator{}, logger)
	feeExtractor := feeextract.NewExtractor(cfg.MinFee, cfg.MaxMiscFee)

	deps := pipeline.Dependencies{
		Rasterizer:    rasterizer,
		TextExtractor: textExtractor,
		FeeExtractor:  feeExtractor,
		TableDetector: tableDetector,
		VisionModel:   visionModel,
		LanguageModel: extractor,
		Validator:     validator,
		DocumentStore: documentStore,
		BatchStore:    batchStore,
		FileMover:     mover,
		Notifier:      bus,
		Logger:        logger,
	}

	popts := pipeline.Options{
		OCRWorkers:         cfg.OCRWorkers,
		LLMWorkers:         cfg.LLMWorkers,
		HandoffCapacity:    cfg.HandoffCapacity,
		OCRPageConcurrency: cfg.OCRPageConcurrency,
		MaxPages:           cfg.MaxPages,
		TargetWidth:        cfg.TargetWidth,
		MinFee:             cfg.MinFee,
		MaxMiscFee:         cfg.MaxMiscFee,
		TableConfidence:    cfg.TableConfidence,
		Mode:               pipeline.TextMode(cfg.Mode),
		LLMTimeout:         300 * time.Second,
	}

	coordinator := pipeline.NewCoordinator(deps, popts)

	closeFn := func() {
		if geminiVision, ok := visionModel.(*tabledetect.GeminiVisionModel); ok {
			geminiVision.Close()
		}
		db.Close()
	}

	return coordinator, documentStore, closeFn, nil
}
