package excel

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"surveydash/domain/dataset"
	"surveydash/internal"
)

// Format is a tabular file format
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
)

// FormatFromPath picks the format from a file extension. Anything that is
// not .csv is read as a workbook.
func FormatFromPath(path string) Format {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return FormatCSV
	}
	return FormatXLSX
}

var logger = internal.DefaultLogger.WithComponent("DataReader")

// DataReader handles reading survey exports from Excel and CSV files
type DataReader struct {
	filePath string
	format   Format
}

// NewDataReader creates a reader for a workbook or CSV file
func NewDataReader(filePath string) *DataReader {
	return &DataReader{filePath: filePath, format: FormatFromPath(filePath)}
}

// ReadTable reads the file into a table
func (r *DataReader) ReadTable() (*dataset.Table, error) {
	logger.Info("reading %s file: %s", r.format, r.filePath)

	f, err := os.Open(r.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(string(r.format)), r.filePath)
		}
		return nil, fmt.Errorf("failed to open %s: %w", r.filePath, err)
	}
	defer f.Close()

	return Read(f, r.format)
}

// Read parses a workbook (first sheet) or CSV stream into a table. The first
// row is the header; cells are trimmed and blank cells are missing.
func Read(src io.Reader, format Format) (*dataset.Table, error) {
	start := time.Now()

	var rows [][]string
	var err error
	switch format {
	case FormatCSV:
		rows, err = readCSVRows(src)
	case FormatXLSX:
		rows, err = readWorkbookRows(src)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", format)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s file is empty", strings.ToUpper(string(format)))
	}

	table := processRows(rows)
	logger.Debug("%s processed in %.2fms (%d columns, %d rows)",
		format, float64(time.Since(start).Nanoseconds())/1e6, len(table.Columns()), table.Len())
	return table, nil
}

func readWorkbookRows(src io.Reader) ([][]string, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSVRows(src io.Reader) ([][]string, error) {
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows converts raw string rows into a table
func processRows(rows [][]string) *dataset.Table {
	headers := make([]string, len(rows[0]))
	for i, header := range rows[0] {
		headers[i] = strings.TrimSpace(header)
	}

	records := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		rec := make([]string, len(row))
		for j, cell := range row {
			rec[j] = strings.TrimSpace(cell)
		}
		records = append(records, rec)
	}
	return dataset.FromRecords(headers, records)
}
