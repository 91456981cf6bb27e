package testkit

import (
	"fmt"
	"math/rand"

	"oltmap/domain/inventory"
)

// InventoryGeneratorConfig configures the upload generator
type InventoryGeneratorConfig struct {
	OltCount     int    `json:"olt_count"`
	PortsPerSlot int    `json:"ports_per_slot"`
	OdfCount     int    `json:"odf_count"`
	OltPrefix    string `json:"olt_prefix"`
	Seed         int64  `json:"seed"`
}

// DefaultInventoryConfig returns a full chassis for one OLT
func DefaultInventoryConfig() InventoryGeneratorConfig {
	return InventoryGeneratorConfig{
		OltCount:     1,
		PortsPerSlot: inventory.MaxPortNumber,
		OdfCount:     4,
		OltPrefix:    "GRN-OLT",
		Seed:         42,
	}
}

// InventoryGenerator produces realistic, valid upload rows
type InventoryGenerator struct {
	config InventoryGeneratorConfig
	rng    *rand.Rand
}

// NewInventoryGenerator creates a new generator
func NewInventoryGenerator(config InventoryGeneratorConfig) *InventoryGenerator {
	return &InventoryGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// PortRows generates a fixed-OLT port upload covering every service slot
func (g *InventoryGenerator) PortRows() [][]any {
	var rows [][]any
	for _, slot := range inventory.ServiceSlots() {
		for port := 1; port <= g.config.PortsPerSlot; port++ {
			rows = append(rows, []any{slot, port, fmt.Sprintf("%d", port)})
		}
	}
	return rows
}

// OltPortRows generates a per-row-OLT port upload for OLT ids 1..OltCount
func (g *InventoryGenerator) OltPortRows() [][]any {
	var rows [][]any
	for olt := 1; olt <= g.config.OltCount; olt++ {
		name := fmt.Sprintf("%s%d", g.config.OltPrefix, olt)
		for _, slot := range inventory.ServiceSlots() {
			for port := 1; port <= g.config.PortsPerSlot; port++ {
				rows = append(rows, []any{olt, name, slot, port, inventory.DefaultPortLabel(slot, port)})
			}
		}
	}
	return rows
}

// MappingRows generates a full mapping upload in MappingHeaders order.
// ODF positions are assigned sequentially so no two rows share one.
func (g *InventoryGenerator) MappingRows() [][]any {
	var rows [][]any
	position := 0
	for olt := 1; olt <= g.config.OltCount; olt++ {
		name := fmt.Sprintf("%s%d", g.config.OltPrefix, olt)
		for _, slot := range inventory.ServiceSlots() {
			for port := 1; port <= g.config.PortsPerSlot; port++ {
				color := inventory.FiberColors[position%len(inventory.FiberColors)]
				buffer := position/len(inventory.FiberColors) + 1
				odf := g.rng.Intn(max(g.config.OdfCount, 1)) + 1
				rows = append(rows, []any{
					name, slot, port,
					fmt.Sprintf("EDFA-%02d", olt), g.rng.Intn(16) + 1, g.rng.Intn(16) + 1,
					fmt.Sprintf("CHASIS-%02d", olt), slot, fmt.Sprintf("%d", port),
					fmt.Sprintf("IN-%d", slot), odf, buffer, color, fmt.Sprintf("FEEDER %d", odf),
				})
				position++
			}
		}
	}
	return rows
}
