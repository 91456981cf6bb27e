package ingestion

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"time"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
	"oltmap/ports"
)

// Options tunes the import pipeline
type Options struct {
	BatchSize    int
	TxRetries    int
	StrictColors bool
}

// DefaultOptions mirrors the configuration defaults
func DefaultOptions() Options {
	return Options{BatchSize: 500, TxRetries: 3}
}

// Service runs the import variants: validate every row, optionally replace, then store the valid rows
type Service struct {
	store       ports.IngestionStore
	validator   *Validator
	resolver    *Resolver
	coordinator *Coordinator
	opts        Options
	logger      *slog.Logger
}

// NewService creates a new ingestion service
func NewService(store ports.IngestionStore, opts Options, logger *slog.Logger) *Service {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultOptions().BatchSize
	}
	if opts.TxRetries < 0 {
		opts.TxRetries = 0
	}
	return &Service{
		store:       store,
		validator:   NewValidator(opts.StrictColors),
		resolver:    NewResolver(logger),
		coordinator: NewCoordinator(store, logger),
		opts:        opts,
		logger:      logger,
	}
}

// ImportPorts loads a port upload for a single OLT given by the caller.
// With replace enabled the OLT's ports and their mappings are deleted first.
func (s *Service) ImportPorts(ctx context.Context, oltID int64, ds *Dataset, replace bool) (*Report, error) {
	start := time.Now()
	if oltID <= 0 {
		return nil, errors.InvalidInput("OLT id inválido")
	}
	if err := s.store.InTx(ctx, func(tx ports.IngestionTx) error {
		_, err := tx.FindOltByID(ctx, oltID)
		return err
	}); err != nil {
		return nil, errors.Wrapf(err, "olt %d", oltID)
	}

	agg := NewAggregator(ReportPorts, len(ds.Rows))
	valid := s.validatePorts(ds, LayoutFixedOlt, agg)
	for i := range valid {
		valid[i].OltID = oltID
	}
	valid = dedupePorts(valid, agg)

	deleted, err := s.coordinator.Apply(ctx, ReplacePlan{Enabled: replace, Scope: ScopeOltPorts, OltIDs: []int64{oltID}})
	if err != nil {
		return nil, err
	}

	s.insertPorts(ctx, valid, agg)

	message := MessageCompleted
	if replace {
		message = MessageCompletedReplace
	}
	report := agg.Report(message, deleted)
	s.logReport("ports import finished", ds, report, start, "olt_id", oltID)
	return report, nil
}

// ImportOltPorts loads a port upload whose rows name their OLT by id.
// Missing OLTs are created; with replace enabled the ports of every OLT present in valid rows are deleted first.
func (s *Service) ImportOltPorts(ctx context.Context, ds *Dataset, replace bool) (*Report, error) {
	start := time.Now()
	agg := NewAggregator(ReportPorts, len(ds.Rows))
	valid := s.validatePorts(ds, LayoutPerRowOlt, agg)
	valid = dedupePorts(valid, agg)

	// Ensure each OLT once, in order of first appearance.
	owners := make(map[int64]bool)
	var ids []int64
	for _, row := range valid {
		if _, seen := owners[row.OltID]; seen {
			continue
		}
		err := s.withRetry(ctx, func(tx ports.IngestionTx) error {
			_, err := s.resolver.ResolvePortOwner(ctx, tx, row.OltID, row.OltName)
			return err
		})
		owners[row.OltID] = err == nil
		if err != nil {
			s.logger.Error("olt could not be resolved", "row", row.Row, "olt_id", row.OltID, "error", err)
			continue
		}
		ids = append(ids, row.OltID)
	}

	kept := valid[:0]
	for _, row := range valid {
		if owners[row.OltID] {
			kept = append(kept, row)
		} else {
			agg.RowFailed(row.Row)
		}
	}

	deleted, err := s.coordinator.Apply(ctx, ReplacePlan{Enabled: replace, Scope: ScopeOltPorts, OltIDs: ids})
	if err != nil {
		return nil, err
	}

	s.insertPorts(ctx, kept, agg)

	report := agg.Report("Carga finalizada", deleted)
	s.logReport("olt ports import finished", ds, report, start)
	return report, nil
}

// ImportMappings loads a full mapping upload. Each valid row is resolved in its own transaction.
func (s *Service) ImportMappings(ctx context.Context, ds *Dataset, plan ReplacePlan) (*Report, error) {
	start := time.Now()
	agg := NewAggregator(ReportMappings, len(ds.Rows))

	valid := make([]ValidMappingRow, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		v, errs := s.validator.ValidateMappingRow(row)
		if len(errs) > 0 {
			agg.Reject(errs...)
			continue
		}
		valid = append(valid, v)
	}

	if plan.Enabled && plan.Scope == ScopeOltMappings && len(plan.OltIDs) == 0 && len(plan.OltNames) == 0 {
		plan.OltNames = distinctOltNames(valid)
	}
	deleted, err := s.coordinator.Apply(ctx, plan)
	if err != nil {
		return nil, err
	}

	for _, row := range valid {
		s.resolveMappingRow(ctx, row, agg)
	}

	report := agg.Report(MessageCompleted, deleted)
	s.logReport("mappings import finished", ds, report, start)
	return report, nil
}

// CreateManualMapping runs the mapping rules and resolution on a single row entered by hand
func (s *Service) CreateManualMapping(ctx context.Context, input ManualMapping) (*Report, error) {
	ds := &Dataset{Filename: "manual", Rows: []RawRow{input.Row()}}
	return s.ImportMappings(ctx, ds, ReplacePlan{})
}

func (s *Service) resolveMappingRow(ctx context.Context, row ValidMappingRow, agg *Aggregator) {
	err := s.withRetry(ctx, func(tx ports.IngestionTx) error {
		_, err := s.resolver.ResolveMapping(ctx, tx, row)
		return err
	})
	if err != nil {
		s.logger.Error("mapping row failed",
			"row", row.Row,
			"olt", row.OltName,
			"slot", row.Slot,
			"pon", row.Pon,
			"error", err)
		agg.RowFailed(row.Row)
		return
	}
	agg.Committed(1)
}

func (s *Service) validatePorts(ds *Dataset, layout PortLayout, agg *Aggregator) []ValidPortRow {
	valid := make([]ValidPortRow, 0, len(ds.Rows))
	for _, row := range ds.Rows {
		v, errs := s.validator.ValidatePortRow(row, layout)
		if len(errs) > 0 {
			agg.Reject(errs...)
			continue
		}
		valid = append(valid, v)
	}
	return valid
}

// insertPorts stores rows in chunks. A failing chunk is retried row by row so
// only the offending rows are reported.
func (s *Service) insertPorts(ctx context.Context, rows []ValidPortRow, agg *Aggregator) {
	for start := 0; start < len(rows); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(rows))
		chunk := rows[start:end]

		err := s.withRetry(ctx, func(tx ports.IngestionTx) error {
			_, err := tx.BulkInsertPorts(ctx, toPorts(chunk))
			return err
		})
		if err == nil {
			agg.Committed(len(chunk))
			continue
		}

		s.logger.Warn("port chunk failed, retrying rows one by one",
			"first_row", chunk[0].Row,
			"rows", len(chunk),
			"error", err)
		for _, row := range chunk {
			err := s.withRetry(ctx, func(tx ports.IngestionTx) error {
				_, err := tx.BulkInsertPorts(ctx, toPorts([]ValidPortRow{row}))
				return err
			})
			if err != nil {
				s.logger.Error("port row failed", "row", row.Row, "olt_id", row.OltID,
					"slot", row.Slot, "port_number", row.PortNumber, "error", err)
				agg.RowFailed(row.Row)
				continue
			}
			agg.Committed(1)
		}
	}
}

// withRetry runs fn in a transaction, retrying when the store reports a conflict
func (s *Service) withRetry(ctx context.Context, fn func(tx ports.IngestionTx) error) error {
	var err error
	for attempt := 0; attempt <= s.opts.TxRetries; attempt++ {
		err = s.store.InTx(ctx, fn)
		if err == nil || !stderrors.Is(err, ports.ErrTxConflict) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		s.logger.Debug("transaction conflict, retrying", "attempt", attempt+1, "error", err)
	}
	return err
}

func (s *Service) logReport(msg string, ds *Dataset, r *Report, start time.Time, args ...any) {
	attrs := append([]any{
		"file", ds.Filename,
		"rows_total", r.RowsTotal,
		"inserted", r.InsertedCount,
		"rows_with_errors", r.RowsWithErrors,
		"deleted", r.Deleted,
		"duration_ms", time.Since(start).Milliseconds(),
	}, args...)
	s.logger.Info(msg, attrs...)
}

// dedupePorts rejects repeated (OLT, slot, port) keys within one upload, keeping the first occurrence
func dedupePorts(rows []ValidPortRow, agg *Aggregator) []ValidPortRow {
	first := make(map[inventory.PortKey]int, len(rows))
	out := rows[:0]
	for _, row := range rows {
		key := inventory.PortKey{OltID: row.OltID, Slot: row.Slot, PortNumber: row.PortNumber}
		if prev, dup := first[key]; dup {
			slot := row.Slot
			agg.Reject(RowError{
				Row:      row.Row,
				Slot:     &slot,
				Field:    ColPortNumber,
				Value:    fmt.Sprintf("%d", row.PortNumber),
				Expected: "puerto único por archivo",
				Error:    fmt.Sprintf("Puerto duplicado: %s ya aparece en la fila %d", inventory.DefaultPortLabel(row.Slot, row.PortNumber), prev),
			})
			continue
		}
		first[key] = row.Row
		out = append(out, row)
	}
	return out
}

func toPorts(rows []ValidPortRow) []inventory.Port {
	out := make([]inventory.Port, len(rows))
	for i, row := range rows {
		out[i] = inventory.Port{
			OltID:      row.OltID,
			Slot:       row.Slot,
			PortNumber: row.PortNumber,
			Status:     inventory.StatusAvailable,
			Label:      row.Label,
		}
	}
	return out
}

func distinctOltNames(rows []ValidMappingRow) []string {
	seen := make(map[string]bool)
	var names []string
	for _, row := range rows {
		if !seen[row.OltName] {
			seen[row.OltName] = true
			names = append(names, row.OltName)
		}
	}
	return names
}
