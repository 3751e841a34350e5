package bill

import (
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/zombor/bill-audit/internal/scanning"
)

// ErrQualityTooLow is returned when an extraction scores below the
// configured quality floor.
var ErrQualityTooLow = errors.New("extraction quality below threshold")

// IDGenerator generates unique IDs for audit records
type IDGenerator interface {
	Generate() string
}

// TimeSource provides the current time
type TimeSource interface {
	Now() time.Time
}

// defaultIDGenerator generates IDs using UnixNano timestamp
type defaultIDGenerator struct{}

func (g *defaultIDGenerator) Generate() string {
	return fmt.Sprintf("%d", time.Now().UnixNano())
}

// defaultTimeSource provides the current time
type defaultTimeSource struct{}

func (t *defaultTimeSource) Now() time.Time {
	return time.Now()
}

// Service runs the extraction pipeline: render pages, scan each one,
// normalize, deduplicate, reconcile, assemble, persist.
type Service struct {
	db              DB
	scanner         scanning.Scanner
	textExtractor   scanning.TextExtractor // optional OCR assist
	storage         Storage
	fetcher         Fetcher
	config          Config
	minQualityScore float64
	idGenerator     IDGenerator
	timeSource      TimeSource
}

// NewService creates a new Service with default ID generator, time source
// and fetcher. textExtractor may be nil.
func NewService(db DB, scanner scanning.Scanner, textExtractor scanning.TextExtractor, storage Storage, config Config, minQualityScore float64) *Service {
	return &Service{
		db:              db,
		scanner:         scanner,
		textExtractor:   textExtractor,
		storage:         storage,
		fetcher:         NewHTTPFetcher(),
		config:          config,
		minQualityScore: minQualityScore,
		idGenerator:     &defaultIDGenerator{},
		timeSource:      &defaultTimeSource{},
	}
}

// NewServiceWithDeps creates a new Service with custom dependencies for testing
func NewServiceWithDeps(db DB, scanner scanning.Scanner, textExtractor scanning.TextExtractor, storage Storage, fetcher Fetcher, config Config, minQualityScore float64, idGen IDGenerator, timeSrc TimeSource) *Service {
	return &Service{
		db:              db,
		scanner:         scanner,
		textExtractor:   textExtractor,
		storage:         storage,
		fetcher:         fetcher,
		config:          config,
		minQualityScore: minQualityScore,
		idGenerator:     idGen,
		timeSource:      timeSrc,
	}
}

// sanitizeFilename cleans up a filename by removing special characters and truncating length
func sanitizeFilename(filename string) string {
	ext := filepath.Ext(filename)
	base := strings.TrimSuffix(filename, ext)

	// Remove special characters, keep only alphanumeric, spaces, hyphens, and underscores
	reg := regexp.MustCompile(`[^a-zA-Z0-9\s\-_]`)
	base = reg.ReplaceAllString(base, "")

	// Replace multiple spaces with single space
	reg = regexp.MustCompile(`\s+`)
	base = reg.ReplaceAllString(base, " ")

	base = strings.TrimSpace(base)

	// Truncate to reasonable length (50 chars for base, plus extension)
	maxLen := 50
	if len(base) > maxLen {
		base = base[:maxLen]
	}

	if base == "" {
		base = "document"
	}

	return base + ext
}

// ProcessDocument runs the full extraction pipeline over an uploaded
// document and persists the resulting audit record.
func (s *Service) ProcessDocument(filename string, data []byte, contentType string) (*AuditRecord, error) {
	id := s.idGenerator.Generate()
	now := s.timeSource.Now()

	cleanFilename := sanitizeFilename(filename)

	// Keep the source document so the audit record can be checked against
	// the original later.
	savedPath, err := s.storage.Save(fmt.Sprintf("%s_%s", id, cleanFilename), data)
	if err != nil {
		return nil, fmt.Errorf("saving document: %w", err)
	}

	record, err := s.extract(id, data, contentType)
	if err != nil {
		s.storage.Delete(savedPath)
		return nil, err
	}

	record.Filename = savedPath
	record.ContentType = contentType
	record.CreatedAt = now
	record.UpdatedAt = now

	if err := s.db.SaveAudit(record); err != nil {
		s.storage.Delete(savedPath)
		return nil, fmt.Errorf("saving audit record: %w", err)
	}

	return record, nil
}

// ProcessDocumentURL fetches a remote document and processes it
func (s *Service) ProcessDocumentURL(url string) (*AuditRecord, error) {
	if err := ValidateDocumentURL(url); err != nil {
		return nil, err
	}

	data, contentType, err := s.fetcher.Fetch(url)
	if err != nil {
		return nil, err
	}

	// Use the last path segment as the filename
	filename := url
	if idx := strings.LastIndex(filename, "/"); idx != -1 {
		filename = filename[idx+1:]
	}
	if filename == "" {
		filename = "document"
	}

	return s.ProcessDocument(filename, data, contentType)
}

// extract runs the scan and the engine over an in-memory document
func (s *Service) extract(id string, data []byte, contentType string) (*AuditRecord, error) {
	pages, err := scanning.DocumentPages(data, contentType)
	if err != nil {
		return nil, fmt.Errorf("rendering document pages: %w", err)
	}

	var usage scanning.TokenUsage
	candidates := make([]scanning.PageCandidate, 0, len(pages))
	for i, pageImage := range pages {
		pageNo := i + 1

		ocrText := ""
		if s.textExtractor != nil {
			text, err := s.textExtractor.ExtractText(pageImage)
			if err != nil {
				// OCR is an assist; a failed page falls back to pure vision
				slog.Warn("OCR failed for page", "page", pageNo, "error", err)
			} else {
				ocrText = text
			}
		}

		candidate, pageUsage, err := s.scanner.ScanPage(pageImage, ocrText, pageNo)
		usage.Add(pageUsage)
		if err != nil {
			slog.Error("Failed to scan page", "page", pageNo, "error", err)
			return nil, fmt.Errorf("scanning page %d: %w", pageNo, err)
		}
		candidates = append(candidates, *candidate)
	}

	ex, err := NormalizeDocument(candidates)
	if err != nil {
		return nil, err
	}

	MarkDuplicates(ex, s.config)
	rec := Reconcile(ex, s.config)

	report := AssessQuality(ex)
	slog.Info("Extraction quality",
		"valid_items", report.ValidItems,
		"dropped_items", report.DroppedItems,
		"duplicates", report.DuplicateItems,
		"score", report.Score,
	)
	if report.TotalItems > 0 && report.Score < s.minQualityScore {
		return nil, fmt.Errorf("%w: quality score %.1f%%", ErrQualityTooLow, report.Score)
	}

	result := Assemble(ex, rec, usage)

	return &AuditRecord{
		ID:             id,
		PageCount:      len(ex.Pages),
		TotalItemCount: result.Data.TotalItemCount,
		DuplicateCount: rec.DuplicateCount,
		ComputedTotal:  rec.ComputedTotal,
		ClaimedTotal:   rec.ClaimedTotal,
		Status:         rec.Status,
		TokenUsage:     usage,
		Result:         result,
	}, nil
}

// GetAudit retrieves an audit record by ID
func (s *Service) GetAudit(id string) (*AuditRecord, error) {
	record, err := s.db.GetAudit(id)
	if err != nil {
		return nil, fmt.Errorf("getting audit record: %w", err)
	}
	return record, nil
}

// ListAudits returns all audit records
func (s *Service) ListAudits() ([]*AuditRecord, error) {
	records, err := s.db.ListAudits()
	if err != nil {
		return nil, fmt.Errorf("listing audit records: %w", err)
	}
	return records, nil
}

// DeleteAudit removes an audit record and its stored document
func (s *Service) DeleteAudit(id string) error {
	record, err := s.db.GetAudit(id)
	if err != nil {
		return fmt.Errorf("getting audit record for deletion: %w", err)
	}

	if err := s.storage.Delete(record.Filename); err != nil {
		// Log error but continue with database deletion
		slog.Warn("Failed to delete document", "filename", record.Filename, "error", err)
	}

	if err := s.db.DeleteAudit(id); err != nil {
		return fmt.Errorf("deleting audit record: %w", err)
	}
	return nil
}

// GetAuditFile retrieves the stored source document for an audit record
func (s *Service) GetAuditFile(id string) ([]byte, string, error) {
	record, err := s.db.GetAudit(id)
	if err != nil {
		return nil, "", fmt.Errorf("getting audit record: %w", err)
	}

	data, err := s.storage.Get(record.Filename)
	if err != nil {
		return nil, "", fmt.Errorf("getting audit document: %w", err)
	}

	return data, record.ContentType, nil
}
