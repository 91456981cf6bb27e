package ingestion

import (
	"encoding/json"
	"strconv"
	"strings"
)

// ValueKind tells how a cell was typed in the source sheet
type ValueKind int

const (
	KindAbsent ValueKind = iota
	KindString
	KindNumber
)

// RawValue is an untyped cell value as read from the upload
type RawValue struct {
	Kind   ValueKind
	Text   string
	Number float64
}

// StringValue creates a text cell
func StringValue(s string) RawValue {
	return RawValue{Kind: KindString, Text: s}
}

// NumberValue creates a numeric cell
func NumberValue(n float64) RawValue {
	return RawValue{Kind: KindNumber, Number: n, Text: strconv.FormatFloat(n, 'f', -1, 64)}
}

// String returns the cell as typed by the operator
func (v RawValue) String() string {
	switch v.Kind {
	case KindAbsent:
		return ""
	case KindNumber:
		if v.Text != "" {
			return v.Text
		}
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	default:
		return v.Text
	}
}

// RawRow is one data row of the upload. Number is the row as shown by the spreadsheet (header = 1).
type RawRow struct {
	Number int
	Cells  map[string]RawValue
}

// Lookup finds a cell by header name, trying each name exactly and then ignoring case
func (r RawRow) Lookup(names ...string) RawValue {
	for _, name := range names {
		if v, ok := r.Cells[name]; ok {
			return v
		}
	}
	for _, name := range names {
		for header, v := range r.Cells {
			if strings.EqualFold(strings.TrimSpace(header), name) {
				return v
			}
		}
	}
	return RawValue{}
}

// Dataset is a parsed upload: the first sheet's header and its non-blank data rows in order
type Dataset struct {
	Filename string
	Sheet    string
	Headers  []string
	Rows     []RawRow
}

// FieldState is the outcome of normalizing one cell
type FieldState int

const (
	Missing FieldState = iota
	Invalid
	Valid
)

// Field is a normalized cell: Missing, Invalid (keeping the raw text) or Valid with a typed value
type Field[T any] struct {
	State FieldState
	Value T
	Raw   string
}

// OK reports whether the field holds a usable value
func (f Field[T]) OK() bool {
	return f.State == Valid
}

// RowError describes one rule violation in one row
type RowError struct {
	Row      int    `json:"row"`
	Olt      string `json:"olt,omitempty"`
	Slot     *int   `json:"slot,omitempty"`
	Field    string `json:"field,omitempty"`
	Value    string `json:"value"`
	Expected string `json:"expected,omitempty"`
	Error    string `json:"error"`
}

// PortLayout selects the column contract of a port upload
type PortLayout int

const (
	// LayoutFixedOlt has columns slot, portNumber, label; the OLT comes from the caller.
	LayoutFixedOlt PortLayout = iota
	// LayoutPerRowOlt adds OLT (numeric id) and OLT_NAME to every row.
	LayoutPerRowOlt
)

// ValidPortRow is a port row that passed validation
type ValidPortRow struct {
	Row        int
	OltID      int64
	OltName    string
	Slot       int
	PortNumber int
	Label      string
}

// ValidMappingRow is a mapping row that passed validation
type ValidMappingRow struct {
	Row            int
	OltName        string
	Slot           int
	Pon            int
	OdfNumber      int
	Buffer         int
	Color          string
	Edfa           string
	EdfaPonPort    *string
	EdfaComPort    *string
	Chasis         string
	DivisorSlot    *int
	SplitterOutput *string
	Entrada        *string
	Feeder         *string
}

// ReplaceScope selects what a replacement deletes before inserting
type ReplaceScope string

const (
	// ScopeAllMappings deletes every mapping of every OLT
	ScopeAllMappings ReplaceScope = "all"
	// ScopeOltMappings deletes the mappings of the listed OLTs
	ScopeOltMappings ReplaceScope = "olt-mappings"
	// ScopeOltPorts deletes the ports of the listed OLTs together with their mappings
	ScopeOltPorts ReplaceScope = "olt-ports"
)

// ParseMappingScope reads the scope of a mapping replacement. Empty means all mappings;
// "olt" is accepted as a short form of "olt-mappings".
func ParseMappingScope(s string) (ReplaceScope, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", string(ScopeAllMappings):
		return ScopeAllMappings, true
	case "olt", string(ScopeOltMappings):
		return ScopeOltMappings, true
	}
	return "", false
}

// ReplacePlan describes the optional pre-delete step of an import
type ReplacePlan struct {
	Enabled  bool
	Scope    ReplaceScope
	OltIDs   []int64
	OltNames []string
}

// ReportKind names the import variant a report belongs to
type ReportKind string

const (
	ReportPorts    ReportKind = "ports"
	ReportMappings ReportKind = "mappings"
)

// Report is the outcome of one import
type Report struct {
	Message        string
	Kind           ReportKind
	InsertedCount  int
	RowsTotal      int
	RowsWithErrors int
	Deleted        int64
	Errors         []RowError
}

// MarshalJSON adds the legacy count alias (inserted / insertedMappings) next to insertedCount
func (r Report) MarshalJSON() ([]byte, error) {
	errs := r.Errors
	if errs == nil {
		errs = []RowError{}
	}
	out := map[string]any{
		"message":        r.Message,
		"insertedCount":  r.InsertedCount,
		"rowsTotal":      r.RowsTotal,
		"rowsWithErrors": r.RowsWithErrors,
		"errors":         errs,
	}
	if r.Deleted > 0 {
		out["deleted"] = r.Deleted
	}
	switch r.Kind {
	case ReportMappings:
		out["insertedMappings"] = r.InsertedCount
	default:
		out["inserted"] = r.InsertedCount
	}
	return json.Marshal(out)
}
