package ingestion

import "encoding/json"

// ManualMapping is a single mapping entered through the API, keyed like the upload columns
type ManualMapping struct {
	Olt            any `json:"olt"`
	Slot           any `json:"slot"`
	Port           any `json:"port"`
	Odf            any `json:"odf"`
	Buffer         any `json:"buffer"`
	Hilo           any `json:"hilo"`
	Edfa           any `json:"edfa,omitempty"`
	EdfaPonPort    any `json:"edfaPon,omitempty"`
	EdfaComPort    any `json:"edfaCom,omitempty"`
	Chasis         any `json:"chasis,omitempty"`
	Splitter       any `json:"splitter,omitempty"`
	SplitterOutput any `json:"splitterOutput,omitempty"`
	Entrada        any `json:"entrada,omitempty"`
	Feeder         any `json:"feeder,omitempty"`
}

// Row converts the input into the synthetic upload row 1
func (m ManualMapping) Row() RawRow {
	cells := map[string]RawValue{}
	set := func(col string, v any) {
		if rv, ok := rawFromJSON(v); ok {
			cells[col] = rv
		}
	}
	set(ColOlt, m.Olt)
	set(ColSlot, m.Slot)
	set(ColPon, m.Port)
	set(ColOdf, m.Odf)
	set(ColBuffer, m.Buffer)
	set(ColHilo, m.Hilo)
	set(ColEdfa, m.Edfa)
	set(ColEdfaPon, m.EdfaPonPort)
	set(ColEdfaCom, m.EdfaComPort)
	set(ColChasis, m.Chasis)
	set(ColSplitter, m.Splitter)
	set(ColSplitterOutput, m.SplitterOutput)
	set(ColEntrada, m.Entrada)
	set(ColFeeder, m.Feeder)
	return RawRow{Number: 1, Cells: cells}
}

func rawFromJSON(v any) (RawValue, bool) {
	switch t := v.(type) {
	case nil:
		return RawValue{}, false
	case string:
		return StringValue(t), true
	case float64:
		return NumberValue(t), true
	case int:
		return NumberValue(float64(t)), true
	case json.Number:
		if f, err := t.Float64(); err == nil {
			return NumberValue(f), true
		}
		return StringValue(t.String()), true
	default:
		return StringValue(jsonText(t)), true
	}
}

func jsonText(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
