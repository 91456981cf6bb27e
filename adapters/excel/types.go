package excel

import (
	"path/filepath"
	"strings"

	"oltmap/internal/errors"
)

// FileType is the upload format, chosen by file extension
type FileType string

const (
	FileTypeXLSX FileType = "xlsx"
	FileTypeCSV  FileType = "csv"
)

// DetectFileType maps a filename to its format. Anything that is not .csv is read as a workbook.
func DetectFileType(filename string) FileType {
	if strings.EqualFold(filepath.Ext(filename), ".csv") {
		return FileTypeCSV
	}
	return FileTypeXLSX
}

// Structural errors. They reject the whole upload.
var (
	ErrEmptyWorkbook = errors.New(errors.CodeEmptyWorkbook, "El archivo Excel no contiene hojas")
	ErrNoHeader      = errors.New(errors.CodeEmptyWorkbook, "La primera hoja no tiene fila de encabezados")
)
