package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
	"oltmap/ports"
)

// Service serves the inventory read and edit operations
type Service struct {
	repo   ports.InventoryRepository
	logger *slog.Logger
}

// NewService creates a catalog service over repo
func NewService(repo ports.InventoryRepository, logger *slog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// CreateOlt registers a new OLT. Blank names are rejected and duplicates conflict.
func (s *Service) CreateOlt(ctx context.Context, name string) (*inventory.Olt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ValidationError("Nombre de OLT requerido")
	}
	olt, err := s.repo.CreateOlt(ctx, name)
	if err != nil {
		return nil, err
	}
	s.logger.Info("olt created", "olt_id", olt.ID, "name", olt.Name)
	return olt, nil
}

func (s *Service) ListOlts(ctx context.Context) ([]inventory.Olt, error) {
	return s.repo.ListOlts(ctx)
}

func (s *Service) GetOlt(ctx context.Context, id int64) (*inventory.Olt, error) {
	return s.repo.GetOlt(ctx, id)
}

// ListOltPorts returns the ports of an OLT ordered by slot and port number
func (s *Service) ListOltPorts(ctx context.Context, oltID int64) ([]inventory.Port, error) {
	if _, err := s.repo.GetOlt(ctx, oltID); err != nil {
		return nil, err
	}
	return s.repo.ListPortsByOlt(ctx, oltID)
}

// UpdatePort edits the status and label of a port
func (s *Service) UpdatePort(ctx context.Context, id int64, update inventory.PortUpdate) (*inventory.Port, error) {
	if update.Status == nil && update.Label == nil {
		return nil, errors.InvalidInput("Nada que actualizar: status o label requerido")
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, errors.ValidationError(fmt.Sprintf("Estado inválido %q (available, occupied, maintenance)", *update.Status))
	}
	if update.Label != nil {
		label := strings.TrimSpace(*update.Label)
		update.Label = &label
	}
	port, err := s.repo.UpdatePort(ctx, id, update)
	if err != nil {
		return nil, err
	}
	s.logger.Info("port updated", "port_id", port.ID, "status", port.Status)
	return port, nil
}

func (s *Service) ListOdfs(ctx context.Context) ([]inventory.Odf, error) {
	return s.repo.ListOdfs(ctx)
}

func (s *Service) GetOdf(ctx context.Context, id int64) (*inventory.Odf, error) {
	return s.repo.GetOdf(ctx, id)
}
