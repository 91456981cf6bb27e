package ingestion

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func row(cells map[string]RawValue) RawRow {
	return RawRow{Number: 2, Cells: cells}
}

func TestIntField(t *testing.T) {
	tests := []struct {
		name  string
		cell  RawValue
		state FieldState
		value int
	}{
		{"absent", RawValue{}, Missing, 0},
		{"empty text", StringValue(""), Missing, 0},
		{"whitespace", StringValue("   "), Missing, 0},
		{"number cell", NumberValue(3), Valid, 3},
		{"integral float cell", NumberValue(4.0), Valid, 4},
		{"text integer", StringValue(" 12 "), Valid, 12},
		{"text float integral", StringValue("3.0"), Valid, 3},
		{"fractional", StringValue("1.5"), Invalid, 0},
		{"fractional cell", NumberValue(2.25), Invalid, 0},
		{"letters", StringValue("abc"), Invalid, 0},
		{"nan text", StringValue("NaN"), Invalid, 0},
		{"inf cell", NumberValue(math.Inf(1)), Invalid, 0},
		{"negative", StringValue("-2"), Valid, -2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := IntField(row(map[string]RawValue{"slot": tt.cell}), "slot")
			assert.Equal(t, tt.state, f.State)
			assert.Equal(t, tt.value, f.Value)
		})
	}
}

func TestIntFieldKeepsRawOnInvalid(t *testing.T) {
	f := IntField(row(map[string]RawValue{"PON": StringValue("abc")}), "PON")
	assert.Equal(t, Invalid, f.State)
	assert.Equal(t, "abc", f.Raw)
}

func TestStringField(t *testing.T) {
	r := row(map[string]RawValue{
		"label": StringValue("  Cliente A "),
		"blank": StringValue("  "),
		"num":   NumberValue(7),
	})

	f := StringField(r, "label")
	assert.True(t, f.OK())
	assert.Equal(t, "Cliente A", f.Value)

	assert.Equal(t, Missing, StringField(r, "blank").State)
	assert.Equal(t, Missing, StringField(r, "nope").State)
	assert.Equal(t, "7", StringField(r, "num").Value)
}

func TestLookupFallsBackToCaseInsensitive(t *testing.T) {
	r := row(map[string]RawValue{"Slot": NumberValue(5), "SALIDA": StringValue("OUT")})

	assert.Equal(t, 5, IntField(r, "slot").Value)
	assert.Equal(t, "OUT", StringField(r, splitterOutputColumns...).Value)
}
