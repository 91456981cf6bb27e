package catalog

import (
	"context"
	"sort"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"
	gonumstat "gonum.org/v1/gonum/stat"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
)

// OltSummary describes how an OLT's ports are used
type OltSummary struct {
	OltID       int64         `json:"oltId"`
	Name        string        `json:"name"`
	TotalPorts  int           `json:"totalPorts"`
	Available   int           `json:"available"`
	Occupied    int           `json:"occupied"`
	Maintenance int           `json:"maintenance"`
	Mapped      int           `json:"mapped"`
	Slots       []SlotSummary `json:"slots"`
	Occupancy   *Distribution `json:"occupancy,omitempty"`
	Rx          *Distribution `json:"rx,omitempty"`
}

// SlotSummary holds the per-slot counts. Occupancy is the share of non-available ports.
type SlotSummary struct {
	Slot        int     `json:"slot"`
	Total       int     `json:"total"`
	Available   int     `json:"available"`
	Occupied    int     `json:"occupied"`
	Maintenance int     `json:"maintenance"`
	Mapped      int     `json:"mapped"`
	Occupancy   float64 `json:"occupancy"`
}

// Distribution summarises a sample of values
type Distribution struct {
	Count  int     `json:"count"`
	Mean   float64 `json:"mean"`
	Median float64 `json:"median"`
	StdDev float64 `json:"stdDev"`
	Min    float64 `json:"min"`
	Max    float64 `json:"max"`
	P10    float64 `json:"p10"`
	P90    float64 `json:"p90"`
}

// Summary computes port usage for one OLT, per slot and overall
func (s *Service) Summary(ctx context.Context, oltID int64) (*OltSummary, error) {
	olt, err := s.repo.GetOlt(ctx, oltID)
	if err != nil {
		return nil, err
	}

	var (
		oltPorts []inventory.Port
		details  []inventory.MappingDetail
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		oltPorts, err = s.repo.ListPortsByOlt(gctx, oltID)
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

	summary, err := summarize(*olt, oltPorts, details)
	if err != nil {
		return nil, errors.Wrap(err, "failed to compute summary")
	}
	return summary, nil
}

func summarize(olt inventory.Olt, oltPorts []inventory.Port, details []inventory.MappingDetail) (*OltSummary, error) {
	mapped := make(map[int64]bool)
	for _, d := range details {
		mapped[d.PortID] = true
	}

	summary := &OltSummary{OltID: olt.ID, Name: olt.Name, Slots: []SlotSummary{}}
	slots := make(map[int]*SlotSummary)
	var rx []float64

	for _, p := range oltPorts {
		slot, ok := slots[p.Slot]
		if !ok {
			slot = &SlotSummary{Slot: p.Slot}
			slots[p.Slot] = slot
		}
		slot.Total++
		summary.TotalPorts++
		switch p.Status {
		case inventory.StatusOccupied:
			slot.Occupied++
			summary.Occupied++
		case inventory.StatusMaintenance:
			slot.Maintenance++
			summary.Maintenance++
		default:
			slot.Available++
			summary.Available++
		}
		if mapped[p.ID] {
			slot.Mapped++
			summary.Mapped++
		}
		if p.Rx != nil {
			rx = append(rx, *p.Rx)
		}
	}

	occupancy := make([]float64, 0, len(slots))
	for _, slot := range slots {
		slot.Occupancy = float64(slot.Total-slot.Available) / float64(slot.Total)
		summary.Slots = append(summary.Slots, *slot)
		occupancy = append(occupancy, slot.Occupancy)
	}
	sort.Slice(summary.Slots, func(i, j int) bool { return summary.Slots[i].Slot < summary.Slots[j].Slot })

	var err error
	if summary.Occupancy, err = distribution(occupancy); err != nil {
		return nil, err
	}
	if summary.Rx, err = distribution(rx); err != nil {
		return nil, err
	}
	return summary, nil
}

// distribution returns nil for an empty sample
func distribution(data []float64) (*Distribution, error) {
	if len(data) == 0 {
		return nil, nil
	}

	mean, err := stats.Mean(data)
	if err != nil {
		return nil, err
	}
	median, err := stats.Median(data)
	if err != nil {
		return nil, err
	}
	stdDev, err := stats.StandardDeviation(data)
	if err != nil {
		return nil, err
	}
	min, err := stats.Min(data)
	if err != nil {
		return nil, err
	}
	max, err := stats.Max(data)
	if err != nil {
		return nil, err
	}

	// Empirical quantiles need sorted input
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)

	return &Distribution{
		Count:  len(data),
		Mean:   mean,
		Median: median,
		StdDev: stdDev,
		Min:    min,
		Max:    max,
		P10:    gonumstat.Quantile(0.1, gonumstat.Empirical, sorted, nil),
		P90:    gonumstat.Quantile(0.9, gonumstat.Empirical, sorted, nil),
	}, nil
}
