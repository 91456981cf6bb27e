package catalog

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"oltmap/domain/inventory"
)

// OltNode is an OLT with its ports, as rendered by the topology view
type OltNode struct {
	ID        int64      `json:"id"`
	Name      string     `json:"name"`
	CreatedAt time.Time  `json:"createdAt"`
	Ports     []PortNode `json:"ports"`
}

// PortNode is a port with every mapping that leaves it. OdfPort mirrors the first mapping
// for clients that expect a single ODF position per port.
type PortNode struct {
	ID         int64                     `json:"id"`
	Slot       int                       `json:"slot"`
	PortNumber int                       `json:"portNumber"`
	Label      string                    `json:"label"`
	Status     inventory.PortStatus      `json:"status"`
	OdfPort    *OdfPortNode              `json:"odfPort"`
	Mappings   []inventory.MappingDetail `json:"mappings"`
}

// OdfPortNode is an ODF position with its frame inlined
type OdfPortNode struct {
	ID     int64         `json:"id"`
	Number *int          `json:"number"`
	Color  string        `json:"color"`
	Buffer int           `json:"buffer"`
	Odf    inventory.Odf `json:"odf"`
}

// Topology assembles the OLT -> port -> mapping -> ODF tree. OLTs, ports and mappings are
// loaded concurrently.
func (s *Service) Topology(ctx context.Context) ([]OltNode, error) {
	var (
		olts     []inventory.Olt
		allPorts []inventory.Port
		details  []inventory.MappingDetail
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		olts, err = s.repo.ListOlts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		allPorts, err = s.repo.ListPorts(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		details, err = s.repo.ListMappingDetails(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return buildTopology(olts, allPorts, details), nil
}

func buildTopology(olts []inventory.Olt, allPorts []inventory.Port, details []inventory.MappingDetail) []OltNode {
	byPort := make(map[int64][]inventory.MappingDetail)
	for _, d := range details {
		byPort[d.PortID] = append(byPort[d.PortID], d)
	}

	byOlt := make(map[int64][]PortNode)
	for _, p := range allPorts {
		node := PortNode{
			ID:         p.ID,
			Slot:       p.Slot,
			PortNumber: p.PortNumber,
			Label:      p.Label,
			Status:     p.Status,
			Mappings:   byPort[p.ID],
		}
		if node.Mappings == nil {
			node.Mappings = []inventory.MappingDetail{}
		} else {
			first := node.Mappings[0]
			node.OdfPort = &OdfPortNode{
				ID:     first.OdfPort.ID,
				Number: first.OdfPort.Number,
				Color:  first.OdfPort.Color,
				Buffer: first.OdfPort.Buffer,
				Odf:    first.Odf,
			}
		}
		byOlt[p.OltID] = append(byOlt[p.OltID], node)
	}

	out := make([]OltNode, 0, len(olts))
	for _, o := range olts {
		nodes := byOlt[o.ID]
		if nodes == nil {
			nodes = []PortNode{}
		}
		out = append(out, OltNode{ID: o.ID, Name: o.Name, CreatedAt: o.CreatedAt, Ports: nodes})
	}
	return out
}
