package ingest

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ledongthuc/pdf"
	"github.com/xuri/excelize/v2"

	"github.com/Opsightlive/opsight-live-sub001/internal/extract"
	"github.com/Opsightlive/opsight-live-sub001/internal/logging"
	"github.com/Opsightlive/opsight-live-sub001/internal/models"
)

// DocumentStore is the slice of the store document processing needs.
// *db.DB satisfies it.
type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (models.Document, error)
	SetDocumentStatus(ctx context.Context, id, status string) error
	CompleteDocument(ctx context.Context, id, category string, confidence float64) error
	FailDocument(ctx context.Context, id, errMsg string) error
	InsertKPIRecord(ctx context.Context, rec models.KPIRecord) error
}

// DocumentProcessor runs the ingestion path for stored files: pick the
// format-specific text extraction, run the KPI extractor, write the
// resulting records, and move the document status along
// processing -> completed|failed.
type DocumentProcessor struct {
	store  DocumentStore
	logger *logging.Logger
}

func NewDocumentProcessor(store DocumentStore, logger *logging.Logger) *DocumentProcessor {
	return &DocumentProcessor{store: store, logger: logger}
}

// Process extracts KPIs from one document on behalf of a user.
func (p *DocumentProcessor) Process(ctx context.Context, documentID, userID string) error {
	doc, err := p.store.GetDocument(ctx, documentID)
	if err != nil {
		return err
	}
	if doc.UserID != userID {
		return fmt.Errorf("document %s does not belong to user %s", documentID, userID)
	}

	if err := p.store.SetDocumentStatus(ctx, doc.ID, models.DocumentProcessing); err != nil {
		return err
	}

	text, err := textFromFile(doc.StoragePath, doc.Filename)
	if err != nil {
		p.fail(ctx, doc.ID, err)
		return fmt.Errorf("text extraction failed for document %s: %w", doc.ID, err)
	}

	result := extract.Extract(text, doc.Filename)
	p.logger.Infof("Document %s: extracted %d KPIs, category %s, confidence %.2f",
		doc.ID, len(result.KPIs), result.Category, result.Confidence)

	now := time.Now()
	for _, kpi := range result.KPIs {
		value := kpi.Value
		rec := models.KPIRecord{
			UserID:               userID,
			PropertyName:         propertyNameFromFilename(doc.Filename),
			KPIType:              kpi.Type,
			KPIName:              kpi.Name,
			Value:                &value,
			Unit:                 kpi.Unit,
			PeriodStart:          now,
			PeriodEnd:            now,
			ExtractionConfidence: kpi.Confidence,
			CreatedAt:            now,
		}
		if err := p.store.InsertKPIRecord(ctx, rec); err != nil {
			p.fail(ctx, doc.ID, err)
			return fmt.Errorf("failed to write kpi record for document %s: %w", doc.ID, err)
		}
	}

	if err := p.store.CompleteDocument(ctx, doc.ID, result.Category, result.Confidence); err != nil {
		return err
	}
	return nil
}

func (p *DocumentProcessor) fail(ctx context.Context, documentID string, cause error) {
	if err := p.store.FailDocument(ctx, documentID, cause.Error()); err != nil {
		p.logger.Errorf("Failed to record failure for document %s: %v", documentID, err)
	}
}

// propertyNameFromFilename derives the property label source systems
// embed in report filenames, e.g. "Oak Ridge - March Report.pdf".
func propertyNameFromFilename(filename string) string {
	name := strings.TrimSuffix(filename, filepath.Ext(filename))
	if i := strings.Index(name, " - "); i > 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(strings.ReplaceAll(name, "_", " "))
	if name == "" {
		return "Unknown Property"
	}
	return name
}

// textFromFile normalizes every supported format to plain text.
func textFromFile(path, filename string) (string, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return textFromPDF(path)
	case ".xlsx", ".xlsm":
		return textFromExcel(path)
	case ".csv":
		return textFromCSV(path)
	default:
		raw, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to read file: %w", err)
		}
		return string(raw), nil
	}
}

func textFromPDF(path string) (string, error) {
	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	reader, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to extract pdf text: %w", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(reader); err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}
	return buf.String(), nil
}

func textFromExcel(path string) (string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var b strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("failed to read sheet %s: %w", sheet, err)
		}
		for _, row := range rows {
			b.WriteString(strings.Join(row, " "))
			b.WriteString("\n")
		}
	}
	return b.String(), nil
}

func textFromCSV(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open csv: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		return "", fmt.Errorf("failed to parse csv: %w", err)
	}

	var b strings.Builder
	for _, row := range records {
		b.WriteString(strings.Join(row, " "))
		b.WriteString("\n")
	}
	return b.String(), nil
}
