// Package pipeline runs the two-stage batch ingestion pipeline: Stage-1
// (CPU-bound rasterization/OCR) hands off to Stage-2 (I/O-bound structured
// extraction, validation, persistence) through a bounded buffer.
package pipeline

import (
	"context"
	"image"
)

// Status is the terminal outcome of a document as it moves through a stage.
type Status string

const (
	StatusOk      Status = "Ok"
	StatusStopped Status = "Stopped"
	StatusFailed  Status = "Failed"
)

// ErrorKind categorizes why a document failed or stopped. These are kinds,
// not Go error types: a failed or stopped Result (or Stage1Output) carries
// one kind plus the underlying error, if any.
type ErrorKind string

const (
	ErrInsufficientText    ErrorKind = "InsufficientText"
	ErrRasterizationMissing ErrorKind = "RasterizationMissing"
	ErrModelInvocation     ErrorKind = "ModelInvocation"
	ErrValidation          ErrorKind = "Validation"
	ErrPersistence         ErrorKind = "Persistence"
	ErrCancelled           ErrorKind = "Cancelled"
	ErrUnknown             ErrorKind = "Unknown"
)

// Task is one input document submitted as part of a batch.
type Task struct {
	SourcePath string
	DocumentID string
	BatchID    string
}

// Stage1Output is the hand-off record carried from Stage-1 to Stage-2
// through the bounded buffer.
type Stage1Output struct {
	DocumentID  string
	BatchID     string
	SourcePath  string
	PageImages  []image.Image
	FullText    string
	FeeFromText *float64
	Status      Status
	Kind        ErrorKind
	Err         error
}

// Result is the terminal per-document outcome produced by Stage-2 (or by
// Stage-1 when a document never reaches Stage-2).
type Result struct {
	DocumentID string
	Status     Status
	Kind       ErrorKind
	Err        error
}

// Rasterizer converts a PDF into an ordered sequence of page images.
type Rasterizer interface {
	ToPages(ctx context.Context, sourcePath string, maxPages int) ([]image.Image, error)
}

// PageText is one page's extracted text in page order.
type PageText struct {
	PageNumber int
	Text       string
}

// TextExtractOptions configures a TextExtractor invocation.
type TextExtractOptions struct {
	Lang               string
	PSM                int
	OEM                int
	PageConcurrency    int
}

// TextExtractor produces per-page text either from page images or directly
// from a source PDF's embedded text layer.
type TextExtractor interface {
	PerPage(ctx context.Context, sourcePath string, pages []image.Image, opts TextExtractOptions) ([]PageText, error)
}

// FeeExtractor parses a registration-fee amount out of raw extracted text.
type FeeExtractor interface {
	FromText(text string) (*float64, error)
}

// TableDetector locates a fee table region on a page image.
type TableDetector interface {
	DetectAndCrop(ctx context.Context, pages []image.Image, minConfidence float64) (crop image.Image, found bool, err error)
}

// VisionModel extracts a fee amount from a cropped table-region image.
type VisionModel interface {
	ExtractFee(ctx context.Context, crop image.Image) (*float64, error)
}

// Party is one seller/buyer/confirming-party record.
type Party struct {
	Role        string // S, B, or C
	Name        string
	Gender      string
	FatherOrSpouseName string
	DOB         string
	NationalID  string
	TaxID       string
	Address     string
	Pincode     string
	State       string
	Phone1      string
	Phone2      string
	Email       string
	Share       *float64
}

// DocumentFields holds the document-level extracted fields.
type DocumentFields struct {
	TransactionDate    *string
	RegistrationOffice *string
}

// PropertyFields holds the property-level extracted fields.
type PropertyFields struct {
	ScheduleBArea     *string
	ScheduleCName     *string
	ScheduleCAddress  *string
	ScheduleCArea     *string
	Pincode           *string
	State             *string
	SaleConsideration *float64
	StampDutyFee      *float64
	RegistrationFee   *float64
	GuidanceValue     *float64
	CashPaymentMode   *bool
}

// ExtractedRecord is the in-memory Stage-2 structured extraction result,
// before validation/normalization.
type ExtractedRecord struct {
	Document          DocumentFields
	Property          PropertyFields
	Sellers           []Party
	Buyers            []Party
	ConfirmingParties []Party
}

// LanguageModel converts full document text (plus an optional slice of
// leading page images) into a structured record.
type LanguageModel interface {
	Extract(ctx context.Context, prompt string, text string, images []image.Image) (ExtractedRecord, error)
}

// Validator cleans and normalizes a freshly extracted record (C7): strips
// currency marks, coerces dates, transliterates regional-script fields. Fee
// arbitration and guidanceValue derivation are handled separately by the
// coordinator/Stage-2 worker, since they depend on sources outside the
// record itself (feeFromText, the vision fallback).
type Validator interface {
	Normalize(ctx context.Context, record ExtractedRecord) (ExtractedRecord, error)
	GuidanceValue(chosenFee float64) float64
}

// Transliterator renders regional-script text into a Latin form. The
// identity default ships with this module (see validate.IdentityTransliterator);
// real transliteration is an injected concern.
type Transliterator interface {
	ToLatin(text string) string
}

// DocumentStore persists the validated record for one document.
type DocumentStore interface {
	Upsert(ctx context.Context, documentID, batchID string, record ExtractedRecord) error
}

// BatchStore tracks batch session lifecycle and aggregate counts.
type BatchStore interface {
	Create(ctx context.Context, batchID, name string, uploadedCount int) error
	MarkProcessing(ctx context.Context, batchID string) error
	MarkCompleted(ctx context.Context, batchID string, processed, failed int) error
}

// Area is a named file-movement destination.
type Area string

const (
	AreaProcessed Area = "processed"
	AreaFailed    Area = "failed"
)

// FileMover relocates a source document once its terminal outcome is known.
type FileMover interface {
	MoveTo(ctx context.Context, area Area, sourcePath string) error
}

// NotifySeverity classifies a batch-completion notification.
type NotifySeverity string

const (
	SeveritySuccess NotifySeverity = "success"
	SeverityWarning NotifySeverity = "warning"
	SeverityError   NotifySeverity = "error"
)

// CompletionEvent carries the terminal summary for one batch run.
type CompletionEvent struct {
	BatchID    string
	BatchName  string
	Total      int
	Successful int
	Failed     int
	Severity   NotifySeverity
}

// Notifier emits batch-completion events to interested listeners.
type Notifier interface {
	Emit(ctx context.Context, event CompletionEvent)
}
