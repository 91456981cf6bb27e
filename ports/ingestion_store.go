package ports

import (
	"context"
	"errors"

	"oltmap/domain/inventory"
)

// IngestionTx is the set of storage operations available inside one ingestion transaction.
// FindOrCreate methods look a row up by its natural key and insert it only when absent;
// existing rows are returned untouched.
type IngestionTx interface {
	// FindOltByID and FindOltByName return an error with code NOT_FOUND when absent.
	FindOltByID(ctx context.Context, id int64) (*inventory.Olt, error)
	FindOltByName(ctx context.Context, name string) (*inventory.Olt, error)
	FindOrCreateOltByName(ctx context.Context, name string) (*inventory.Olt, error)
	// EnsureOltByID returns the OLT with the given id, creating it with name when absent.
	EnsureOltByID(ctx context.Context, id int64, name string) (*inventory.Olt, error)
	FindOrCreatePort(ctx context.Context, port inventory.Port) (*inventory.Port, error)
	FindOrCreateEdfa(ctx context.Context, name string) (*inventory.Edfa, error)
	FindOrCreateChasis(ctx context.Context, name string) (*inventory.Chasis, error)
	FindOrCreateDivisor(ctx context.Context, chasisID int64, slot int) (*inventory.Divisor, error)
	FindOrCreateOdf(ctx context.Context, odfNumber int) (*inventory.Odf, error)
	FindOrCreateOdfPort(ctx context.Context, odfID int64, buffer int, color string) (*inventory.OdfPort, error)
	CreateMapping(ctx context.Context, m inventory.Mapping) (*inventory.Mapping, error)

	// Descriptive attributes that are not part of any natural key
	SetOdfName(ctx context.Context, odfID int64, name string) error
	SetOdfPortNumber(ctx context.Context, odfPortID int64, number int) error
	SetDivisorType(ctx context.Context, divisorID int64, kind string) error

	// Replacement
	DeleteAllMappings(ctx context.Context) (int64, error)
	DeleteOltMappings(ctx context.Context, oltID int64) (int64, error)
	DeleteOltPortsAndMappings(ctx context.Context, oltID int64) (int64, error)

	// BulkInsertPorts inserts ports, skipping rows whose natural key already exists.
	// It returns the number of ports accepted.
	BulkInsertPorts(ctx context.Context, ports []inventory.Port) (int, error)
}

// IngestionStore opens ingestion transactions
type IngestionStore interface {
	// InTx runs fn in a transaction, committing when fn returns nil and rolling back otherwise
	InTx(ctx context.Context, fn func(tx IngestionTx) error) error
}

// ErrTxConflict marks a transaction that lost a race on a natural key or failed
// serialization. The whole transaction may be retried.
var ErrTxConflict = errors.New("transaction conflict")
