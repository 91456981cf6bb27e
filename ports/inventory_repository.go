package ports

import (
	"context"

	"oltmap/domain/inventory"
)

// InventoryRepository defines the read and edit operations behind the inventory API
type InventoryRepository interface {
	// OLTs
	CreateOlt(ctx context.Context, name string) (*inventory.Olt, error)
	ListOlts(ctx context.Context) ([]inventory.Olt, error)
	GetOlt(ctx context.Context, id int64) (*inventory.Olt, error)

	// Ports
	ListPortsByOlt(ctx context.Context, oltID int64) ([]inventory.Port, error)
	ListPorts(ctx context.Context) ([]inventory.Port, error)
	GetPort(ctx context.Context, id int64) (*inventory.Port, error)
	UpdatePort(ctx context.Context, id int64, update inventory.PortUpdate) (*inventory.Port, error)

	// ODFs, with their ports loaded
	ListOdfs(ctx context.Context) ([]inventory.Odf, error)
	GetOdf(ctx context.Context, id int64) (*inventory.Odf, error)

	// Mappings joined with their ODF position
	ListMappingDetails(ctx context.Context) ([]inventory.MappingDetail, error)
}

// Store is a storage backend serving both ingestion and inventory reads
type Store interface {
	IngestionStore
	InventoryRepository
	Ping(ctx context.Context) error
	Close() error
}
