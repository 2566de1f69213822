package extraction

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Config controls how the backend is asked to generate. It is passed in
// explicitly at construction; nothing here is read from the environment.
type Config struct {
	Model            string
	Temperature      float32
	StructuredOutput bool
}

// Backend is the text-generation service performing the semantic
// extraction. Given a prompt and a determinism flag it returns the raw
// text payload; format is not guaranteed.
type Backend interface {
	Generate(ctx context.Context, prompt string, deterministic bool) (string, error)
	// Name identifies the backend in logs.
	Name() string
	// Close releases backend resources.
	Close() error
}

// Extractor runs one extraction: build the prompt, call the backend
// exactly once with deterministic sampling, recover the JSON object.
// There are no retries and no internal timeout; the caller's context
// carries the deadline.
type Extractor struct {
	backend Backend
	logger  *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger replaces the default logger.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// New creates an Extractor around a backend.
func New(backend Backend, opts ...Option) *Extractor {
	e := &Extractor{
		backend: backend,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// ExtractReceipt turns OCR text into the raw structured object the
// backend produced. The object is schema-checked advisorily; deviations
// are logged and left for normalization to absorb.
func (e *Extractor) ExtractReceipt(ctx context.Context, ocrText string) (map[string]any, error) {
	reqID := uuid.NewString()
	backend := e.backend.Name()
	e.logger.Info("extract.start", "req_id", reqID, "backend", backend, "ocr_chars", len(ocrText))

	start := time.Now()
	raw, err := e.backend.Generate(ctx, BuildPrompt(ocrText), true)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		var xerr *Error
		if !errors.As(err, &xerr) {
			err = backendError("backend call failed", err)
		}
		e.logger.Error("extract.error", "req_id", reqID, "backend", backend, "elapsed_ms", elapsed, "error", err)
		return nil, err
	}

	obj, err := ExtractJSONObject(raw)
	if err != nil {
		e.logger.Error("extract.malformed", "req_id", reqID, "backend", backend, "elapsed_ms", elapsed, "response_chars", len(raw))
		return nil, err
	}
	if verr := ValidateReceiptObject(obj); verr != nil {
		e.logger.Warn("extract.schema_mismatch", "req_id", reqID, "backend", backend, "error", verr)
	}

	e.logger.Info("extract.ok", "req_id", reqID, "backend", backend, "elapsed_ms", elapsed, "response_chars", len(raw))
	return obj, nil
}

// Close closes the underlying backend.
func (e *Extractor) Close() error {
	return e.backend.Close()
}
