package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"oltmap/domain/inventory"
	"oltmap/ports"
)

// Resolver turns validated rows into stored entities, creating the referenced
// OLT, port, EDFA, chassis, splitter, ODF and ODF position when they do not exist yet.
type Resolver struct {
	logger *slog.Logger
}

// NewResolver creates a new entity resolver
func NewResolver(logger *slog.Logger) *Resolver {
	return &Resolver{logger: logger}
}

// ResolvePortOwner returns the OLT a per-row port upload refers to, creating it when absent.
// A blank name defaults to OLT-<id>.
func (r *Resolver) ResolvePortOwner(ctx context.Context, tx ports.IngestionTx, oltID int64, oltName string) (*inventory.Olt, error) {
	if oltName == "" {
		oltName = fmt.Sprintf("OLT-%d", oltID)
	}
	olt, err := tx.EnsureOltByID(ctx, oltID, oltName)
	if err != nil {
		return nil, fmt.Errorf("ensure olt %d: %w", oltID, err)
	}
	return olt, nil
}

// ResolveMapping resolves the chain of one mapping row and creates the mapping
func (r *Resolver) ResolveMapping(ctx context.Context, tx ports.IngestionTx, row ValidMappingRow) (*inventory.Mapping, error) {
	if inventory.IsControllerSlot(row.Slot) {
		return nil, inventory.ErrControllerSlot
	}

	olt, err := tx.FindOrCreateOltByName(ctx, row.OltName)
	if err != nil {
		return nil, fmt.Errorf("olt %q: %w", row.OltName, err)
	}

	port, err := tx.FindOrCreatePort(ctx, inventory.Port{
		OltID:      olt.ID,
		Slot:       row.Slot,
		PortNumber: row.Pon,
		Status:     inventory.StatusAvailable,
		Label:      inventory.DefaultPortLabel(row.Slot, row.Pon),
	})
	if err != nil {
		return nil, fmt.Errorf("port S%d-P%d: %w", row.Slot, row.Pon, err)
	}

	m := inventory.Mapping{
		OltID:          olt.ID,
		PortID:         port.ID,
		EdfaComPort:    row.EdfaComPort,
		EdfaPonPort:    row.EdfaPonPort,
		SplitterOutput: row.SplitterOutput,
		Entrada:        row.Entrada,
		Feeder:         row.Feeder,
	}

	if row.Edfa != "" {
		edfa, err := tx.FindOrCreateEdfa(ctx, row.Edfa)
		if err != nil {
			return nil, fmt.Errorf("edfa %q: %w", row.Edfa, err)
		}
		m.EdfaID = &edfa.ID
	}

	if row.Chasis != "" {
		chasis, err := tx.FindOrCreateChasis(ctx, row.Chasis)
		if err != nil {
			return nil, fmt.Errorf("chasis %q: %w", row.Chasis, err)
		}
		m.ChasisID = &chasis.ID

		if row.DivisorSlot != nil {
			divisor, err := tx.FindOrCreateDivisor(ctx, chasis.ID, *row.DivisorSlot)
			if err != nil {
				return nil, fmt.Errorf("divisor %s/%d: %w", row.Chasis, *row.DivisorSlot, err)
			}
			m.DivisorID = &divisor.ID
		}
	}

	odf, err := tx.FindOrCreateOdf(ctx, row.OdfNumber)
	if err != nil {
		return nil, fmt.Errorf("odf %d: %w", row.OdfNumber, err)
	}

	odfPort, err := tx.FindOrCreateOdfPort(ctx, odf.ID, row.Buffer, row.Color)
	if err != nil {
		return nil, fmt.Errorf("odf port %d/%d/%s: %w", row.OdfNumber, row.Buffer, row.Color, err)
	}
	m.OdfPortID = odfPort.ID

	created, err := tx.CreateMapping(ctx, m)
	if err != nil {
		return nil, fmt.Errorf("create mapping: %w", err)
	}

	r.logger.Debug("mapping resolved",
		"row", row.Row,
		"olt", olt.Name,
		"port_id", port.ID,
		"odf_port_id", odfPort.ID,
		"mapping_id", created.ID)
	return created, nil
}
