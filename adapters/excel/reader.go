package excel

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"oltmap/internal/errors"
	"oltmap/internal/ingestion"
)

// Reader turns uploaded workbooks and CSV files into ingestion datasets.
// Only the first sheet is read; row 1 is the header row.
type Reader struct {
	config ReaderConfig
	logger *slog.Logger
}

// NewReader creates a new upload reader
func NewReader(config ReaderConfig, logger *slog.Logger) *Reader {
	return &Reader{config: config, logger: logger}
}

// Parse reads src according to the extension of filename
func (r *Reader) Parse(ctx context.Context, filename string, src io.Reader) (*ingestion.Dataset, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	start := time.Now()
	var (
		ds  *ingestion.Dataset
		err error
	)
	switch DetectFileType(filename) {
	case FileTypeCSV:
		ds, err = r.readCSV(src)
	default:
		ds, err = r.readWorkbook(src)
	}
	if err != nil {
		return nil, err
	}
	ds.Filename = filename

	if r.config.MaxRows > 0 && len(ds.Rows) > r.config.MaxRows {
		return nil, errors.New(errors.CodeTooManyRows,
			fmt.Sprintf("El archivo tiene %d filas; el máximo es %d", len(ds.Rows), r.config.MaxRows))
	}

	r.logger.Debug("upload parsed",
		"file", filename,
		"sheet", ds.Sheet,
		"columns", len(ds.Headers),
		"rows", len(ds.Rows),
		"duration_ms", time.Since(start).Milliseconds())
	return ds, nil
}

// readWorkbook reads the first sheet, keeping the native cell type of every value
func (r *Reader) readWorkbook(src io.Reader) (*ingestion.Dataset, error) {
	f, err := excelize.OpenReader(src)
	if err != nil {
		return nil, errors.WithCode(errors.CodeUnreadableFile, errors.Wrap(err, "No se pudo leer el archivo Excel"))
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyWorkbook
	}
	sheet := sheets[0]

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, errors.WithCode(errors.CodeUnreadableFile, errors.Wrapf(err, "No se pudo leer la hoja %s", sheet))
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	headers := trimHeaders(rows[0])
	ds := &ingestion.Dataset{Sheet: sheet, Headers: headers}

	for i := 1; i < len(rows); i++ {
		rowNumber := i + 1
		cells := make(map[string]ingestion.RawValue, len(headers))
		for j, text := range rows[i] {
			if j >= len(headers) || headers[j] == "" || strings.TrimSpace(text) == "" {
				continue
			}
			cells[headers[j]] = r.cellValue(f, sheet, j+1, rowNumber, text)
		}
		if len(cells) == 0 {
			continue
		}
		ds.Rows = append(ds.Rows, ingestion.RawRow{Number: rowNumber, Cells: cells})
	}
	return ds, nil
}

// cellValue types a cell as a number when the sheet stores it as one
func (r *Reader) cellValue(f *excelize.File, sheet string, col, row int, text string) ingestion.RawValue {
	cell, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return ingestion.StringValue(text)
	}
	cellType, err := f.GetCellType(sheet, cell)
	if err != nil {
		return ingestion.StringValue(text)
	}

	switch cellType {
	case excelize.CellTypeNumber, excelize.CellTypeUnset, excelize.CellTypeFormula:
		if n, err := strconv.ParseFloat(strings.TrimSpace(text), 64); err == nil {
			v := ingestion.NumberValue(n)
			v.Text = text
			return v
		}
	}
	return ingestion.StringValue(text)
}

// readCSV reads a comma separated upload. Every cell is text.
func (r *Reader) readCSV(src io.Reader) (*ingestion.Dataset, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	headerRow, err := reader.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, errors.WithCode(errors.CodeUnreadableFile, errors.Wrap(err, "No se pudo leer el archivo CSV"))
	}
	if len(headerRow) > 0 {
		headerRow[0] = strings.TrimPrefix(headerRow[0], "\ufeff")
	}
	headers := trimHeaders(headerRow)
	ds := &ingestion.Dataset{Sheet: "csv", Headers: headers}

	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.WithCode(errors.CodeUnreadableFile, errors.Wrap(err, "No se pudo leer el archivo CSV"))
		}
		// Blank lines are skipped by the csv reader; the line number keeps rows aligned with the file.
		line, _ := reader.FieldPos(0)

		cells := make(map[string]ingestion.RawValue, len(headers))
		for j, text := range record {
			if j >= len(headers) || headers[j] == "" || strings.TrimSpace(text) == "" {
				continue
			}
			cells[headers[j]] = ingestion.StringValue(text)
		}
		if len(cells) == 0 {
			continue
		}
		ds.Rows = append(ds.Rows, ingestion.RawRow{Number: line, Cells: cells})
	}
	return ds, nil
}

func trimHeaders(row []string) []string {
	headers := make([]string, len(row))
	for i, h := range row {
		headers[i] = strings.TrimSpace(h)
	}
	return headers
}
