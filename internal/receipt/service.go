package receipt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shiget/resheet/internal/extraction"
	"github.com/shiget/resheet/internal/quota"
)

// ErrEmptyText rejects blank OCR input before it reaches the quota or
// the backend.
var ErrEmptyText = errors.New("ocr text is required")

// Extractor produces the raw structured object for OCR text.
type Extractor interface {
	ExtractReceipt(ctx context.Context, ocrText string) (map[string]any, error)
}

// Quota budgets extraction calls per day.
type Quota interface {
	Take() error
	Snapshot() (quota.Usage, int)
}

// IDGenerator generates unique IDs for extractions
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return uuid.NewString()
}

type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// ServiceConfig holds the behavior switches for a Service.
type ServiceConfig struct {
	// Layout selects the TSV detail-row layout.
	Layout Layout
	// SaveArtifacts controls whether OCR input, TSV results and
	// history records are persisted.
	SaveArtifacts bool
}

// Service handles extraction requests end to end
type Service struct {
	db          DB
	storage     Storage
	extractor   Extractor
	quota       Quota
	cfg         ServiceConfig
	idGenerator IDGenerator
	timeSource  TimeSource
}

// NewService creates a new Service with default ID generator and time source
func NewService(db DB, storage Storage, extractor Extractor, quota Quota, cfg ServiceConfig) *Service {
	return NewServiceWithDeps(db, storage, extractor, quota, cfg, &defaultIDGenerator{}, &defaultTimeSource{})
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, storage Storage, extractor Extractor, quota Quota, cfg ServiceConfig, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:          db,
		storage:     storage,
		extractor:   extractor,
		quota:       quota,
		cfg:         cfg,
		idGenerator: idGen,
		timeSource:  timeSrc,
	}
}

// extractReceipt runs the backend call and normalization.
func extractReceipt(ctx context.Context, extractor Extractor, ocrText string) (*Receipt, error) {
	if strings.TrimSpace(ocrText) == "" {
		return nil, ErrEmptyText
	}
	obj, err := extractor.ExtractReceipt(ctx, ocrText)
	if err != nil {
		return nil, err
	}
	return Normalize(obj), nil
}

// ExtractAndSerialize is the stateless pipeline: extract, normalize,
// serialize. No quota, no persistence.
func ExtractAndSerialize(ctx context.Context, extractor Extractor, ocrText string, layout Layout) (string, error) {
	r, err := extractReceipt(ctx, extractor, ocrText)
	if err != nil {
		return "", err
	}
	return ToTSV(r, layout), nil
}

// Parse runs one extraction request: budget check, backend call,
// normalization, serialization, persistence.
func (s *Service) Parse(ctx context.Context, ocrText string) (*Extraction, string, error) {
	if strings.TrimSpace(ocrText) == "" {
		return nil, "", ErrEmptyText
	}
	if err := s.quota.Take(); err != nil {
		return nil, "", err
	}

	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	r, err := extractReceipt(ctx, s.extractor, ocrText)
	if err != nil {
		s.keepRawResponse(id, err)
		return nil, "", err
	}

	tsv := ToTSV(r, s.cfg.Layout)
	record := &Extraction{
		ID:        id,
		Receipt:   *r,
		CreatedAt: now,
	}
	if !s.cfg.SaveArtifacts {
		return record, tsv, nil
	}

	ocrFile, err := s.storage.Save(ocrFilename(id), []byte(ocrText))
	if err != nil {
		return nil, "", fmt.Errorf("saving ocr text: %w", err)
	}
	tsvFile, err := s.storage.Save(tsvFilename(id), []byte(tsv))
	if err != nil {
		s.storage.Delete(ocrFile)
		return nil, "", fmt.Errorf("saving tsv: %w", err)
	}
	record.OCRFile = ocrFile
	record.TSVFile = tsvFile

	if err := s.db.SaveExtraction(record); err != nil {
		// Clean up artifacts if the database save fails
		s.storage.Delete(ocrFile)
		s.storage.Delete(tsvFile)
		return nil, "", fmt.Errorf("saving extraction to database: %w", err)
	}

	return record, tsv, nil
}

// keepRawResponse stores unparseable backend text so it can be
// recovered manually. Best effort.
func (s *Service) keepRawResponse(id string, err error) {
	if !s.cfg.SaveArtifacts {
		return
	}
	raw := extraction.RawResponse(err)
	if raw == "" {
		return
	}
	if _, serr := s.storage.Save(rawFilename(id), []byte(raw)); serr != nil {
		slog.Warn("Failed to save raw response", "id", id, "error", serr)
	}
}

// GetExtraction retrieves an extraction by ID
func (s *Service) GetExtraction(id string) (*Extraction, error) {
	record, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	return record, nil
}

// ListExtractions returns all extractions, newest first
func (s *Service) ListExtractions() ([]*Extraction, error) {
	records, err := s.db.ListExtractions()
	if err != nil {
		return nil, fmt.Errorf("listing extractions: %w", err)
	}
	return records, nil
}

// DeleteExtraction removes an extraction and its artifact files
func (s *Service) DeleteExtraction(id string) error {
	record, err := s.db.GetExtraction(id)
	if err != nil {
		return fmt.Errorf("getting extraction for deletion: %w", err)
	}

	for _, file := range []string{record.OCRFile, record.TSVFile} {
		if file == "" {
			continue
		}
		if err := s.storage.Delete(file); err != nil {
			// Log error but continue with database deletion
			slog.Warn("Failed to delete artifact", "filename", file, "error", err)
		}
	}

	if err := s.db.DeleteExtraction(id); err != nil {
		return fmt.Errorf("deleting extraction from database: %w", err)
	}
	return nil
}

// GetExtractionTSV returns the stored TSV for an extraction
func (s *Service) GetExtractionTSV(id string) ([]byte, error) {
	record, err := s.db.GetExtraction(id)
	if err != nil {
		return nil, fmt.Errorf("getting extraction: %w", err)
	}
	if record.TSVFile == "" {
		// Record was saved without artifacts; rebuild from the receipt.
		return []byte(ToTSV(&record.Receipt, s.cfg.Layout)), nil
	}
	data, err := s.storage.Get(record.TSVFile)
	if err != nil {
		return nil, fmt.Errorf("getting tsv file: %w", err)
	}
	return data, nil
}

// UsageToday returns the current quota usage and limit.
func (s *Service) UsageToday() (quota.Usage, int) {
	return s.quota.Snapshot()
}
