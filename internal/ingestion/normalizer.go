package ingestion

import (
	"math"
	"strconv"
	"strings"
)

// IntField normalizes the first matching column of row to an integer.
// Blank cells are Missing; anything that is not a finite whole number is Invalid.
func IntField(row RawRow, names ...string) Field[int] {
	v := row.Lookup(names...)
	switch v.Kind {
	case KindAbsent:
		return Field[int]{State: Missing}
	case KindNumber:
		return intFromFloat(v.Number, v.String())
	}

	raw := strings.TrimSpace(v.Text)
	if raw == "" {
		return Field[int]{State: Missing}
	}
	if n, err := strconv.Atoi(raw); err == nil {
		return Field[int]{State: Valid, Value: n, Raw: raw}
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return Field[int]{State: Invalid, Raw: raw}
	}
	return intFromFloat(f, raw)
}

func intFromFloat(f float64, raw string) Field[int] {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) ||
		f > math.MaxInt32 || f < math.MinInt32 {
		return Field[int]{State: Invalid, Raw: raw}
	}
	return Field[int]{State: Valid, Value: int(f), Raw: raw}
}

// StringField normalizes the first matching column of row to trimmed text.
// Blank cells are Missing.
func StringField(row RawRow, names ...string) Field[string] {
	v := row.Lookup(names...)
	s := strings.TrimSpace(v.String())
	if s == "" {
		return Field[string]{State: Missing}
	}
	return Field[string]{State: Valid, Value: s, Raw: s}
}

// optionalString returns a pointer to the trimmed text, or nil for blank cells
func optionalString(row RawRow, names ...string) *string {
	f := StringField(row, names...)
	if !f.OK() {
		return nil
	}
	return &f.Value
}
