package testkit

import (
	"fmt"
	"testing"

	"github.com/xuri/excelize/v2"

	"oltmap/internal/ingestion"
)

// DefaultSheet is the sheet name used by generated workbooks
const DefaultSheet = "Puertos"

// BuildWorkbook writes headers and rows to the first sheet of a new xlsx file.
// Numeric Go values become numeric cells; nil leaves the cell empty.
func BuildWorkbook(headers []string, rows [][]any) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DefaultSheet); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}

	header := make([]any, len(headers))
	for i, h := range headers {
		header[i] = h
	}
	if err := f.SetSheetRow(DefaultSheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("failed to write header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		values := row
		if err := f.SetSheetRow(DefaultSheet, cell, &values); err != nil {
			return nil, fmt.Errorf("failed to write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// MustWorkbook is BuildWorkbook for tests
func MustWorkbook(t testing.TB, headers []string, rows [][]any) []byte {
	t.Helper()
	b, err := BuildWorkbook(headers, rows)
	if err != nil {
		t.Fatalf("build workbook: %v", err)
	}
	return b
}

// Dataset builds the parsed form of a sheet without going through a file.
// Data row i gets spreadsheet row number i+2.
func Dataset(headers []string, rows [][]any) *ingestion.Dataset {
	ds := &ingestion.Dataset{Filename: "test.xlsx", Sheet: DefaultSheet, Headers: headers}
	for i, row := range rows {
		cells := make(map[string]ingestion.RawValue, len(headers))
		for j, v := range row {
			if j >= len(headers) {
				break
			}
			if rv, ok := rawValue(v); ok {
				cells[headers[j]] = rv
			}
		}
		ds.Rows = append(ds.Rows, ingestion.RawRow{Number: i + 2, Cells: cells})
	}
	return ds
}

func rawValue(v any) (ingestion.RawValue, bool) {
	switch t := v.(type) {
	case nil:
		return ingestion.RawValue{}, false
	case int:
		return ingestion.NumberValue(float64(t)), true
	case int64:
		return ingestion.NumberValue(float64(t)), true
	case float64:
		return ingestion.NumberValue(t), true
	case string:
		return ingestion.StringValue(t), true
	default:
		return ingestion.StringValue(fmt.Sprint(t)), true
	}
}

// Upload headers of each layout
var (
	PortHeaders     = []string{"slot", "portNumber", "label"}
	OltPortHeaders  = []string{"OLT", "OLT_NAME", "slot", "portNumber", "label"}
	MappingHeaders  = []string{"OLT", "SLOT", "PON", "EDFA", "PON/EDFA", "COM/EDFA", "CHASIS", "P./SPLITTER", "SALIDA SPLITTER", "ENTRADA", "O.D.F", "BUFFER", "HILO (S)", "FEEDER"}
	RequiredMapping = []string{"OLT", "SLOT", "PON", "O.D.F", "BUFFER", "HILO (S)"}
)
