package ingestion

import (
	"fmt"
	"strconv"

	"oltmap/domain/inventory"
)

// Column names of the upload layouts
const (
	ColPortOlt     = "OLT"
	ColPortOltName = "OLT_NAME"
	ColPortSlot    = "slot"
	ColPortNumber  = "portNumber"
	ColPortLabel   = "label"

	ColOlt            = "OLT"
	ColSlot           = "SLOT"
	ColPon            = "PON"
	ColEdfa           = "EDFA"
	ColEdfaPon        = "PON/EDFA"
	ColEdfaCom        = "COM/EDFA"
	ColChasis         = "CHASIS"
	ColSplitter       = "P./SPLITTER"
	ColSplitterOutput = "SALIDA SPLITTER"
	ColEntrada        = "ENTRADA"
	ColOdf            = "O.D.F"
	ColBuffer         = "BUFFER"
	ColHilo           = "HILO (S)"
	ColFeeder         = "FEEDER"
)

var splitterOutputColumns = []string{ColSplitterOutput, "SALIDA", "SPLITTER_SALIDA"}

const (
	expectedInteger     = "número entero"
	expectedOltName     = "nombre de OLT"
	expectedOltID       = "id numérico de OLT"
	expectedSlotRange   = "entero entre 1 y 18"
	expectedServiceSlot = "slot distinto de 9 o 10"
	expectedPortRange   = "entero entre 1 y 16"
	expectedLabel       = "texto no vacío"
	expectedColor       = "color válido"
)

// Validator checks normalized rows against the inventory rules.
// Every violation of a row is reported; validation never stops at the first one.
type Validator struct {
	// StrictColors rejects fiber colors outside inventory.FiberColors
	StrictColors bool
}

// NewValidator creates a new row validator
func NewValidator(strictColors bool) *Validator {
	return &Validator{StrictColors: strictColors}
}

// rowContext collects the errors of one row, prefixing messages with the OLT and slot when known
type rowContext struct {
	row  int
	olt  string
	slot *int
	errs []RowError
}

func (c *rowContext) add(field, value, expected, msg string) {
	prefix := ""
	switch {
	case c.olt != "" && c.slot != nil:
		prefix = fmt.Sprintf("OLT %s, Slot %d: ", c.olt, *c.slot)
	case c.olt != "":
		prefix = fmt.Sprintf("OLT %s: ", c.olt)
	}
	c.errs = append(c.errs, RowError{
		Row:      c.row,
		Olt:      c.olt,
		Slot:     c.slot,
		Field:    field,
		Value:    value,
		Expected: expected,
		Error:    prefix + msg,
	})
}

// checkSlot applies the slot rules and returns the slot when a Port may be created there
func (c *rowContext) checkSlot(f Field[int], field string) (int, bool) {
	if !f.OK() {
		c.add(field, f.Raw, expectedInteger, "Slot inválido")
		return 0, false
	}
	slot := f.Value
	c.slot = &slot
	value := strconv.Itoa(slot)
	if !inventory.SlotInRange(slot) {
		c.add(field, value, expectedSlotRange, "Slot fuera de rango (1–18)")
		return 0, false
	}
	if inventory.IsControllerSlot(slot) {
		c.add(field, value, expectedServiceSlot, "Slot prohibido (9 o 10): controladora, no se crea Port")
		return 0, false
	}
	return slot, true
}

func (c *rowContext) checkPortNumber(f Field[int], field, subject string) (int, bool) {
	if !f.OK() {
		c.add(field, f.Raw, expectedInteger, subject+" inválido")
		return 0, false
	}
	if !inventory.PortNumberInRange(f.Value) {
		c.add(field, strconv.Itoa(f.Value), expectedPortRange, subject+" fuera de rango (1–16)")
		return 0, false
	}
	return f.Value, true
}

// ValidatePortRow validates a row of a port upload
func (v *Validator) ValidatePortRow(row RawRow, layout PortLayout) (ValidPortRow, []RowError) {
	ctx := &rowContext{row: row.Number}
	out := ValidPortRow{Row: row.Number}

	if layout == LayoutPerRowOlt {
		id := IntField(row, ColPortOlt)
		if !id.OK() || id.Value <= 0 {
			ctx.add(ColPortOlt, id.Raw, expectedOltID, "OLT inválido")
		} else {
			out.OltID = int64(id.Value)
			if name := StringField(row, ColPortOltName); name.OK() {
				out.OltName = name.Value
			}
			ctx.olt = strconv.FormatInt(out.OltID, 10)
		}
	}

	out.Slot, _ = ctx.checkSlot(IntField(row, ColPortSlot), ColPortSlot)
	out.PortNumber, _ = ctx.checkPortNumber(IntField(row, ColPortNumber), ColPortNumber, "Número de puerto")

	label := StringField(row, ColPortLabel)
	if !label.OK() {
		ctx.add(ColPortLabel, "", expectedLabel, "Label vacío (datos incompletos)")
	}
	out.Label = label.Value

	return out, ctx.errs
}

// ValidateMappingRow validates a row of a full mapping upload
func (v *Validator) ValidateMappingRow(row RawRow) (ValidMappingRow, []RowError) {
	ctx := &rowContext{row: row.Number}
	out := ValidMappingRow{Row: row.Number}

	olt := StringField(row, ColOlt)
	if !olt.OK() {
		ctx.add(ColOlt, "", expectedOltName, "OLT vacío")
	} else {
		out.OltName = olt.Value
		ctx.olt = olt.Value
	}

	out.Slot, _ = ctx.checkSlot(IntField(row, ColSlot), ColSlot)
	out.Pon, _ = ctx.checkPortNumber(IntField(row, ColPon), ColPon, "PON")

	odf := IntField(row, ColOdf)
	if !odf.OK() {
		ctx.add(ColOdf, odf.Raw, expectedInteger, "O.D.F inválido")
	}
	out.OdfNumber = odf.Value

	buffer := IntField(row, ColBuffer)
	if !buffer.OK() {
		ctx.add(ColBuffer, buffer.Raw, expectedInteger, "BUFFER inválido")
	}
	out.Buffer = buffer.Value

	hilo := StringField(row, ColHilo)
	switch {
	case !hilo.OK():
		ctx.add(ColHilo, "", expectedColor, "HILO (S) vacío")
	default:
		if canonical, ok := inventory.CanonicalColor(hilo.Value); ok {
			out.Color = canonical
		} else if v.StrictColors {
			ctx.add(ColHilo, hilo.Value, expectedColor, "HILO (S) color desconocido")
		} else {
			out.Color = hilo.Value
		}
	}

	switch splitter := IntField(row, ColSplitter); splitter.State {
	case Valid:
		out.DivisorSlot = &splitter.Value
	case Invalid:
		ctx.add(ColSplitter, splitter.Raw, expectedInteger, "P./SPLITTER inválido")
	}

	out.Edfa = StringField(row, ColEdfa).Value
	out.Chasis = StringField(row, ColChasis).Value
	out.EdfaPonPort = optionalString(row, ColEdfaPon)
	out.EdfaComPort = optionalString(row, ColEdfaCom)
	out.SplitterOutput = optionalString(row, splitterOutputColumns...)
	out.Entrada = optionalString(row, ColEntrada)
	out.Feeder = optionalString(row, ColFeeder)

	return out, ctx.errs
}
