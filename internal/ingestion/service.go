// Package ingestion loads tabular catalog data (CSV or XLSX) into the
// document store. Headers become document keys; numeric-looking cells are
// stored as numbers, everything else as trimmed strings.
package ingestion

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/gamedash/api/internal/domain"
)

var (
	// ErrUnsupportedFormat is returned when an uploaded file is not supported.
	ErrUnsupportedFormat = errors.New("unsupported file format")

	byteOrderMark = []byte{0xEF, 0xBB, 0xBF}
)

// Collection names accepted by the loader.
const (
	CollectionGames = "games"
	CollectionSales = "sales"
)

// GameWriter is the slice of the games repository ingestion needs.
type GameWriter interface {
	Insert(ctx context.Context, doc domain.Document) (domain.GameRecord, error)
}

// SalesWriter is the slice of the sales repository ingestion needs.
type SalesWriter interface {
	Insert(ctx context.Context, doc domain.Document) (domain.SalesRecord, error)
}

// Service ingests tabular data into the games and sales collections.
type Service struct {
	games GameWriter
	sales SalesWriter
}

// NewService creates a new ingestion service.
func NewService(games GameWriter, sales SalesWriter) *Service {
	return &Service{games: games, sales: sales}
}

// Request describes the ingestion input.
type Request struct {
	Collection string
	FileName   string
	Data       io.Reader
}

// Summary returns ingestion level metrics.
type Summary struct {
	TotalRows   int      `json:"totalRows"`
	Inserted    int      `json:"inserted"`
	SkippedRows int      `json:"skippedRows"`
	Errors      []string `json:"errors,omitempty"`
}

type tableData struct {
	headers []string
	rows    [][]string
}

// Ingest reads the uploaded file and persists one document per data row.
// Rows that fail to insert are counted and reported, not fatal.
func (s *Service) Ingest(ctx context.Context, req Request) (Summary, error) {
	summary := Summary{}

	collection := strings.ToLower(strings.TrimSpace(req.Collection))
	if collection != CollectionGames && collection != CollectionSales {
		return summary, fmt.Errorf("unknown collection %q", req.Collection)
	}
	if req.Data == nil {
		return summary, errors.New("data reader is required")
	}

	payload, err := io.ReadAll(req.Data)
	if err != nil {
		return summary, fmt.Errorf("failed to read upload: %w", err)
	}
	if len(payload) == 0 {
		return summary, errors.New("file is empty")
	}

	table, err := parseTable(req.FileName, payload)
	if err != nil {
		return summary, err
	}
	if len(table.headers) == 0 {
		return summary, errors.New("no header row detected")
	}

	summary.TotalRows = len(table.rows)

	for rowIdx, row := range table.rows {
		doc := buildDocument(table.headers, row)
		if len(doc) == 0 {
			summary.SkippedRows++
			continue
		}

		var insertErr error
		if collection == CollectionGames {
			_, insertErr = s.games.Insert(ctx, doc)
		} else {
			_, insertErr = s.sales.Insert(ctx, doc)
		}
		if insertErr != nil {
			summary.SkippedRows++
			summary.Errors = append(summary.Errors,
				fmt.Sprintf("row %d: %v", rowIdx+2, insertErr))
			continue
		}
		summary.Inserted++
	}

	return summary, nil
}

// buildDocument maps a row onto its headers. Blank cells are omitted so
// downstream null-key handling sees genuinely absent fields.
func buildDocument(headers []string, row []string) domain.Document {
	doc := domain.Document{}
	for idx, header := range headers {
		if idx >= len(row) {
			continue
		}
		raw := strings.TrimSpace(row[idx])
		if raw == "" {
			continue
		}
		doc[header] = coerceCell(raw)
	}
	return doc
}

// coerceCell stores clean numerics as numbers and leaves everything else,
// including date strings and delimited lists, as text.
func coerceCell(raw string) any {
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func parseTable(fileName string, payload []byte) (tableData, error) {
	ext := strings.ToLower(filepath.Ext(fileName))
	switch ext {
	case ".csv":
		return parseCSV(payload)
	case ".xlsx":
		return parseExcel(payload)
	default:
		return tableData{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

func parseCSV(payload []byte) (tableData, error) {
	reader := bufio.NewReader(bytes.NewReader(payload))
	if prefix, err := reader.Peek(len(byteOrderMark)); err == nil && bytes.Equal(prefix, byteOrderMark) {
		_, _ = reader.Discard(len(byteOrderMark))
	}

	csvReader := csv.NewReader(reader)
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	records, err := csvReader.ReadAll()
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read csv: %w", err)
	}
	return normalizeTable(records)
}

func parseExcel(payload []byte) (tableData, error) {
	f, err := excelize.OpenReader(bytes.NewReader(payload))
	if err != nil {
		return tableData{}, fmt.Errorf("failed to open xlsx: %w", err)
	}
	defer func() { _ = f.Close() }()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return tableData{}, errors.New("excel file has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return tableData{}, fmt.Errorf("failed to read rows from xlsx: %w", err)
	}
	return normalizeTable(rows)
}

func normalizeTable(records [][]string) (tableData, error) {
	if len(records) == 0 {
		return tableData{}, errors.New("no rows found in file")
	}

	var headerRow []string
	var dataRows [][]string
	for _, row := range records {
		if len(cleanRow(row)) == 0 {
			continue
		}
		if headerRow == nil {
			headerRow = row
			continue
		}
		dataRows = append(dataRows, row)
	}

	if headerRow == nil {
		return tableData{}, errors.New("header row could not be detected")
	}

	headers := sanitizeHeaders(headerRow)
	for i := range dataRows {
		dataRows[i] = padRow(dataRows[i], len(headers))
	}

	return tableData{headers: headers, rows: dataRows}, nil
}

func cleanRow(row []string) []string {
	var cleaned []string
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			cleaned = append(cleaned, cell)
		}
	}
	return cleaned
}

func sanitizeHeaders(raw []string) []string {
	headers := make([]string, len(raw))
	seen := make(map[string]int)

	for idx, value := range raw {
		name := strings.ToLower(strings.TrimSpace(value))
		name = strings.ReplaceAll(name, " ", "_")
		name = strings.ReplaceAll(name, ".", "_")
		name = strings.ReplaceAll(name, "-", "_")
		name = strings.Trim(name, "_")
		if name == "" {
			name = fmt.Sprintf("column_%d", idx+1)
		}

		base := name
		count := seen[base]
		if count > 0 {
			name = fmt.Sprintf("%s_%d", base, count+1)
		}
		seen[base] = count + 1

		headers[idx] = name
	}

	return headers
}

func padRow(row []string, length int) []string {
	if len(row) >= length {
		return row[:length]
	}
	padded := make([]string, length)
	copy(padded, row)
	for i := len(row); i < length; i++ {
		padded[i] = ""
	}
	return padded
}
