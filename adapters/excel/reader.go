package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"estimateml/domain/core"
	"estimateml/domain/items"
	"estimateml/internal"
	"estimateml/ports"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet estimates are read from and written to
const SheetName = "Sheet1"

// ItemReader reads estimate line items from .xlsx or .csv files
type ItemReader struct {
	logger *internal.Logger
}

var _ ports.ItemReader = (*ItemReader)(nil)

// NewItemReader creates a reader; a nil logger uses the default one
func NewItemReader(logger *internal.Logger) *ItemReader {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ItemReader{logger: logger}
}

func fileType(path string) string {
	if strings.EqualFold(filepath.Ext(path), ".csv") {
		return "csv"
	}
	return "xlsx"
}

// ReadItems reads and converts every data row. Rows without a name are skipped; rows
// with unparseable numbers fail the whole read with the row number.
func (r *ItemReader) ReadItems(ctx context.Context, path string) ([]items.Item, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := r.ReadData(path)
	if err != nil {
		return nil, err
	}

	out := make([]items.Item, 0, len(data.Rows))
	for i, row := range data.Rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if row[ColName] == "" {
			continue
		}
		it, err := toItem(row, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, it)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: %s has no line items", core.ErrNoData, path)
	}
	r.logger.Info("[ItemReader] %d items read from %s", len(out), path)
	return out, nil
}

// ReadData reads the raw rows of an .xlsx (Sheet1) or .csv file, mapping headers to
// canonical column names
func (r *ItemReader) ReadData(path string) (*SheetData, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, fmt.Errorf("%s file not found: %s", strings.ToUpper(fileType(path)), path)
	}

	started := time.Now()
	var (
		rows [][]string
		err  error
	)
	switch fileType(path) {
	case "csv":
		rows, err = readCSV(path)
	default:
		rows, err = readXLSX(path)
	}
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: %s must have a header row and at least one data row", core.ErrNoData, path)
	}
	r.logger.Debug("[ItemReader] %s read in %.2fms (%d rows)", path, float64(time.Since(started).Nanoseconds())/1e6, len(rows))

	return processRows(rows)
}

func readXLSX(path string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", SheetName, err)
	}
	return rows, nil
}

func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV file: %w", err)
	}
	return rows, nil
}

// processRows maps the header row to canonical columns; unknown headers are ignored
func processRows(rows [][]string) (*SheetData, error) {
	headers := make([]string, len(rows[0]))
	seen := make(map[string]bool)
	for i, h := range rows[0] {
		key := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if canonical, ok := headerAliases[key]; ok && !seen[canonical] {
			headers[i] = canonical
			seen[canonical] = true
		}
	}
	for _, required := range []string{ColName, ColPrice} {
		if !seen[required] {
			return nil, fmt.Errorf("%w: missing required column %q", core.ErrInvalidArgument, required)
		}
	}

	data := &SheetData{Rows: make([]RawRowData, 0, len(rows)-1)}
	for _, h := range headers {
		if h != "" {
			data.Headers = append(data.Headers, h)
		}
	}
	for _, row := range rows[1:] {
		raw := make(RawRowData, len(data.Headers))
		for j, cell := range row {
			if j < len(headers) && headers[j] != "" {
				raw[headers[j]] = strings.TrimSpace(cell)
			}
		}
		data.Rows = append(data.Rows, raw)
	}
	return data, nil
}

func toItem(row RawRowData, line int) (items.Item, error) {
	it := items.Item{
		ID:       row[ColID],
		Name:     row[ColName],
		Category: row[ColCategory],
		Unit:     row[ColUnit],
		Region:   row[ColRegion],
		Quantity: 1,
	}
	if it.ID == "" {
		it.ID = fmt.Sprintf("row-%d", line)
	}

	price, err := parseNumber(row[ColPrice])
	if err != nil {
		return items.Item{}, fmt.Errorf("%w: row %d: price %q", core.ErrInvalidArgument, line, row[ColPrice])
	}
	it.Price = price
	if q := row[ColQuantity]; q != "" {
		qty, err := parseNumber(q)
		if err != nil {
			return items.Item{}, fmt.Errorf("%w: row %d: quantity %q", core.ErrInvalidArgument, line, q)
		}
		it.Quantity = qty
	}
	return it, nil
}

// parseNumber accepts "1 234,50", "1234.5" and "1,234.50"
func parseNumber(s string) (float64, error) {
	s = strings.NewReplacer(" ", "", "\u00a0", "", "₽", "", "руб.", "", "руб", "").Replace(strings.TrimSpace(s))
	if strings.Contains(s, ",") {
		if strings.Contains(s, ".") {
			s = strings.ReplaceAll(s, ",", "")
		} else {
			s = strings.ReplaceAll(s, ",", ".")
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if v < 0 || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%g is not a finite non-negative number", v)
	}
	return v, nil
}

// WriteItems writes items to an .xlsx or .csv file with the canonical header row
func WriteItems(path string, batch []items.Item) error {
	rows := make([][]string, 0, len(batch)+1)
	rows = append(rows, Columns)
	for _, it := range batch {
		rows = append(rows, []string{
			it.ID,
			it.Name,
			it.Category,
			strconv.FormatFloat(it.Price, 'f', -1, 64),
			strconv.FormatFloat(it.Quantity, 'f', -1, 64),
			it.Unit,
			it.Region,
		})
	}

	if fileType(path) == "csv" {
		file, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create CSV file: %w", err)
		}
		defer file.Close()
		w := csv.NewWriter(file)
		if err := w.WriteAll(rows); err != nil {
			return fmt.Errorf("failed to write CSV file: %w", err)
		}
		return nil
	}

	f := excelize.NewFile()
	defer f.Close()
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		values := make([]interface{}, len(row))
		for j, v := range row {
			values[j] = v
		}
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i+1, err)
		}
	}
	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save Excel file: %w", err)
	}
	return nil
}
