package inventory

import (
	"fmt"
	"time"
)

// PortStatus is the operational state of an OLT port
type PortStatus string

const (
	StatusAvailable   PortStatus = "available"
	StatusOccupied    PortStatus = "occupied"
	StatusMaintenance PortStatus = "maintenance"
)

// Valid reports whether s is one of the known statuses
func (s PortStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusOccupied, StatusMaintenance:
		return true
	}
	return false
}

// Olt is an optical line terminal
type Olt struct {
	ID        int64     `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Port is a physical PON port of an OLT, identified by (OltID, Slot, PortNumber)
type Port struct {
	ID         int64      `db:"id" json:"id"`
	OltID      int64      `db:"olt_id" json:"oltId"`
	Slot       int        `db:"slot" json:"slot"`
	PortNumber int        `db:"port_number" json:"portNumber"`
	Status     PortStatus `db:"status" json:"status"`
	Label      string     `db:"label" json:"label"`
	Rx         *float64   `db:"rx" json:"rx,omitempty"`
	Tx         *float64   `db:"tx" json:"tx,omitempty"`
	Vcc        *float64   `db:"vcc" json:"vcc,omitempty"`
	Brand      *string    `db:"brand" json:"brand,omitempty"`
	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
}

// PortKey is the natural key of a port
type PortKey struct {
	OltID      int64
	Slot       int
	PortNumber int
}

// Key returns the natural key of p
func (p Port) Key() PortKey {
	return PortKey{OltID: p.OltID, Slot: p.Slot, PortNumber: p.PortNumber}
}

// PortUpdate carries the editable fields of a port. Nil fields are left untouched.
type PortUpdate struct {
	Status *PortStatus `json:"status,omitempty"`
	Label  *string     `json:"label,omitempty"`
}

// Chasis houses splitter cards
type Chasis struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Divisor is a splitter card in a chassis slot
type Divisor struct {
	ID       int64   `db:"id" json:"id"`
	ChasisID int64   `db:"chasis_id" json:"chasisId"`
	Slot     int     `db:"slot" json:"slot"`
	Type     *string `db:"type" json:"type,omitempty"`
}

// Edfa is an optical amplifier
type Edfa struct {
	ID   int64  `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}

// Odf is an optical distribution frame
type Odf struct {
	ID        int64     `db:"id" json:"id"`
	Name      *string   `db:"name" json:"name"`
	OdfNumber int       `db:"odf_number" json:"odfNumber"`
	Ports     []OdfPort `db:"-" json:"ports,omitempty"`
}

// OdfPort is a fiber position in an ODF, identified by (OdfID, Buffer, Color)
type OdfPort struct {
	ID     int64  `db:"id" json:"id"`
	OdfID  int64  `db:"odf_id" json:"odfId"`
	Number *int   `db:"number" json:"number,omitempty"`
	Buffer int    `db:"buffer" json:"buffer"`
	Color  string `db:"color" json:"color"`
}

// Mapping links an OLT port to an ODF position plus the optional passive chain between them
type Mapping struct {
	ID             int64     `db:"id" json:"id"`
	OltID          int64     `db:"olt_id" json:"oltId"`
	PortID         int64     `db:"port_id" json:"portId"`
	OdfPortID      int64     `db:"odf_port_id" json:"odfPortId"`
	EdfaID         *int64    `db:"edfa_id" json:"edfaId,omitempty"`
	ChasisID       *int64    `db:"chasis_id" json:"chasisId,omitempty"`
	DivisorID      *int64    `db:"divisor_id" json:"divisorId,omitempty"`
	EdfaComPort    *string   `db:"edfa_com_port" json:"edfaComPort,omitempty"`
	EdfaPonPort    *string   `db:"edfa_pon_port" json:"edfaPonPort,omitempty"`
	SplitterOutput *string   `db:"splitter_output" json:"splitterOutput,omitempty"`
	Entrada        *string   `db:"entrada" json:"entrada,omitempty"`
	Feeder         *string   `db:"feeder" json:"feeder,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"createdAt"`
}

// MappingDetail is a mapping joined with its ODF position, used by read paths
type MappingDetail struct {
	Mapping
	OdfPort OdfPort `json:"odfPort"`
	Odf     Odf     `json:"odf"`
}

// DefaultPortLabel is the label given to ports created while resolving mappings
func DefaultPortLabel(slot, portNumber int) string {
	return fmt.Sprintf("S%d-P%d", slot, portNumber)
}
