package services

import (
	"context"
	"fmt"
	"log"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/cardbazaar/cardbazaar/backend/internal/metrics"
)

// RowReader abstracts the spreadsheet collaborator: rows of strings,
// header row already skipped. Kept as an interface so the sync is
// testable without Sheets credentials.
type RowReader interface {
	ReadRows(ctx context.Context) ([][]string, error)
}

// SheetsRowReader reads the set-code sheet through the Google Sheets
// API. Authentication is an API key provisioned out-of-band.
type SheetsRowReader struct {
	apiKey        string
	spreadsheetID string
	readRange     string // e.g. "SetCodes!A2:C"
}

func NewSheetsRowReader(apiKey, spreadsheetID, readRange string) *SheetsRowReader {
	if readRange == "" {
		readRange = "SetCodes!A2:C"
	}
	return &SheetsRowReader{
		apiKey:        apiKey,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
	}
}

func (r *SheetsRowReader) ReadRows(ctx context.Context) ([][]string, error) {
	svc, err := sheets.NewService(ctx, option.WithAPIKey(r.apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create sheets client: %w", err)
	}

	resp, err := svc.Spreadsheets.Values.Get(r.spreadsheetID, r.readRange).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to read range %s: %w", r.readRange, err)
	}

	rows := make([][]string, 0, len(resp.Values))
	for _, row := range resp.Values {
		cells := make([]string, 0, len(row))
		for _, cell := range row {
			cells = append(cells, fmt.Sprint(cell))
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

// SetCodeReport summarizes one sync: which rows applied and which
// matched no catalog records. Failed rows are reported, never fatal.
type SetCodeReport struct {
	Success bool     `json:"success"`
	Applied int      `json:"applied"`
	Failed  []string `json:"failed,omitempty"`
	Error   string   `json:"error,omitempty"`
}

// SetCodeSyncService is the one-way sync from the spreadsheet into the
// catalog's set_code attribute. It shares the upsert philosophy of the
// merge but has no pagination: the sheet is one bounded range.
type SetCodeSyncService struct {
	catalog *CatalogService
	reader  RowReader
}

func NewSetCodeSyncService(catalog *CatalogService, reader RowReader) *SetCodeSyncService {
	return &SetCodeSyncService{
		catalog: catalog,
		reader:  reader,
	}
}

// Sync reads (groupId, displayName, code) rows and stamps each code
// onto the group's records. Rows with no matching records are recorded
// as failed; malformed rows are skipped.
func (s *SetCodeSyncService) Sync(ctx context.Context) SetCodeReport {
	report := SetCodeReport{Success: true}

	rows, err := s.reader.ReadRows(ctx)
	if err != nil {
		log.Printf("Set-code sync: failed to read sheet: %v", err)
		report.Success = false
		report.Error = err.Error()
		return report
	}

	for _, row := range rows {
		if len(row) < 3 {
			continue
		}
		setID := strings.TrimSpace(row[0])
		code := strings.TrimSpace(row[2])
		if setID == "" || code == "" {
			continue
		}

		affected, err := s.catalog.ApplySetCode(setID, code)
		if err != nil {
			log.Printf("Set-code sync: failed to apply %s to %s: %v", code, setID, err)
			report.Failed = append(report.Failed, setID)
			metrics.SetCodeRowsTotal.WithLabelValues("failed").Inc()
			continue
		}
		if affected == 0 {
			report.Failed = append(report.Failed, setID)
			metrics.SetCodeRowsTotal.WithLabelValues("failed").Inc()
			continue
		}

		report.Applied++
		metrics.SetCodeRowsTotal.WithLabelValues("applied").Inc()
	}

	log.Printf("Set-code sync: applied %d codes, %d rows failed", report.Applied, len(report.Failed))
	return report
}
