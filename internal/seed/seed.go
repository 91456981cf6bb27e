// Package seed loads the demonstration inventory: one fully populated OLT wired to a
// 12-fiber ODF through an EDFA and a splitter.
package seed

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
	"oltmap/ports"
)

// Fixture names
const (
	OltName    = "GRN-OLT1"
	EdfaName   = "EDFA-GRN01"
	ChasisName = "CHASIS-GRN01"
	OdfName    = "FEEDER GRN01"
	OdfNumber  = 1
	Brand      = "FIBERHOME"
	SplitRatio = "1:4"
)

// Config controls the seeded volume
type Config struct {
	PortsPerSlot int
	Mappings     int
	Seed         int64
}

// DefaultConfig fills every service slot and maps one port per ODF fiber
func DefaultConfig() Config {
	return Config{
		PortsPerSlot: inventory.MaxPortNumber,
		Mappings:     len(inventory.FiberColors),
		Seed:         1,
	}
}

// Result counts what was written
type Result struct {
	OltID    int64 `json:"oltId"`
	Ports    int   `json:"ports"`
	OdfPorts int   `json:"odfPorts"`
	Mappings int   `json:"mappings"`
	Deleted  int64 `json:"deleted"`
}

// Run writes the fixture in a single transaction. Ports and mappings of an existing
// GRN-OLT1 are replaced, so running it twice leaves the same inventory.
func Run(ctx context.Context, store ports.IngestionStore, cfg Config, logger *slog.Logger) (*Result, error) {
	if cfg.PortsPerSlot < 1 || cfg.PortsPerSlot > inventory.MaxPortNumber {
		return nil, errors.InvalidInput(fmt.Sprintf("ports per slot must be within 1-%d", inventory.MaxPortNumber))
	}
	if cfg.Mappings > len(inventory.FiberColors) {
		return nil, errors.InvalidInput(fmt.Sprintf("at most %d mappings fit in the ODF", len(inventory.FiberColors)))
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	var res *Result
	err := store.InTx(ctx, func(tx ports.IngestionTx) error {
		r, err := write(ctx, tx, cfg, rng)
		res = r
		return err
	})
	if err != nil {
		return nil, errors.Wrap(err, "seed failed")
	}

	logger.Info("seed completed",
		"olt_id", res.OltID,
		"ports", res.Ports,
		"odf_ports", res.OdfPorts,
		"mappings", res.Mappings,
		"deleted", res.Deleted,
	)
	return res, nil
}

func write(ctx context.Context, tx ports.IngestionTx, cfg Config, rng *rand.Rand) (*Result, error) {
	olt, err := tx.FindOrCreateOltByName(ctx, OltName)
	if err != nil {
		return nil, err
	}
	res := &Result{OltID: olt.ID}
	if res.Deleted, err = tx.DeleteOltPortsAndMappings(ctx, olt.ID); err != nil {
		return nil, err
	}

	brand := Brand
	var batch []inventory.Port
	for _, slot := range inventory.ServiceSlots() {
		for p := 1; p <= cfg.PortsPerSlot; p++ {
			rx := rng.Float64() * -20
			txPower := rng.Float64() * 5
			vcc := 3.3
			batch = append(batch, inventory.Port{
				OltID:      olt.ID,
				Slot:       slot,
				PortNumber: p,
				Status:     inventory.StatusAvailable,
				Label:      fmt.Sprintf("%d", p),
				Rx:         &rx,
				Tx:         &txPower,
				Vcc:        &vcc,
				Brand:      &brand,
			})
		}
	}
	if res.Ports, err = tx.BulkInsertPorts(ctx, batch); err != nil {
		return nil, err
	}

	edfa, err := tx.FindOrCreateEdfa(ctx, EdfaName)
	if err != nil {
		return nil, err
	}
	chasis, err := tx.FindOrCreateChasis(ctx, ChasisName)
	if err != nil {
		return nil, err
	}
	divisor, err := tx.FindOrCreateDivisor(ctx, chasis.ID, 1)
	if err != nil {
		return nil, err
	}
	if err := tx.SetDivisorType(ctx, divisor.ID, SplitRatio); err != nil {
		return nil, err
	}

	odf, err := tx.FindOrCreateOdf(ctx, OdfNumber)
	if err != nil {
		return nil, err
	}
	if err := tx.SetOdfName(ctx, odf.ID, OdfName); err != nil {
		return nil, err
	}

	odfPorts := make([]*inventory.OdfPort, 0, len(inventory.FiberColors))
	for i, color := range inventory.FiberColors {
		op, err := tx.FindOrCreateOdfPort(ctx, odf.ID, i+1, color)
		if err != nil {
			return nil, err
		}
		if err := tx.SetOdfPortNumber(ctx, op.ID, i+1); err != nil {
			return nil, err
		}
		odfPorts = append(odfPorts, op)
	}
	res.OdfPorts = len(odfPorts)

	// The first ports in chassis order take one fiber each
	for i := 0; i < cfg.Mappings && i < len(batch); i++ {
		port, err := tx.FindOrCreatePort(ctx, batch[i])
		if err != nil {
			return nil, err
		}
		_, err = tx.CreateMapping(ctx, inventory.Mapping{
			OltID:     olt.ID,
			PortID:    port.ID,
			OdfPortID: odfPorts[i].ID,
			EdfaID:    &edfa.ID,
			ChasisID:  &chasis.ID,
			DivisorID: &divisor.ID,
		})
		if err != nil {
			return nil, err
		}
		res.Mappings++
	}
	return res, nil
}
