package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"oltmap/internal/errors"
	"oltmap/ports"
)

// Coordinator runs the pre-delete step of replace-mode imports.
// All deletes of one plan happen in a single transaction, before any insert.
type Coordinator struct {
	store  ports.IngestionStore
	logger *slog.Logger
}

// NewCoordinator creates a new replacement coordinator
func NewCoordinator(store ports.IngestionStore, logger *slog.Logger) *Coordinator {
	return &Coordinator{store: store, logger: logger}
}

// Apply executes plan and returns the number of deleted rows
func (c *Coordinator) Apply(ctx context.Context, plan ReplacePlan) (int64, error) {
	if !plan.Enabled {
		return 0, nil
	}

	var deleted int64
	err := c.store.InTx(ctx, func(tx ports.IngestionTx) error {
		deleted = 0
		switch plan.Scope {
		case ScopeAllMappings:
			n, err := tx.DeleteAllMappings(ctx)
			if err != nil {
				return fmt.Errorf("delete all mappings: %w", err)
			}
			deleted += n
			return nil
		case ScopeOltMappings, ScopeOltPorts:
		default:
			return errors.InvalidInput(fmt.Sprintf("unknown replace scope %q", plan.Scope))
		}

		ids, err := c.oltIDs(ctx, tx, plan)
		if err != nil {
			return err
		}
		for _, id := range ids {
			var n int64
			if plan.Scope == ScopeOltPorts {
				n, err = tx.DeleteOltPortsAndMappings(ctx, id)
			} else {
				n, err = tx.DeleteOltMappings(ctx, id)
			}
			if err != nil {
				return fmt.Errorf("replace olt %d: %w", id, err)
			}
			deleted += n
		}
		return nil
	})
	if err != nil {
		return 0, errors.Wrap(err, "replacement failed")
	}

	c.logger.Info("replacement applied",
		"scope", string(plan.Scope),
		"olt_ids", plan.OltIDs,
		"olt_names", plan.OltNames,
		"deleted", deleted)
	return deleted, nil
}

// oltIDs merges the explicit ids with the ids of the named OLTs. Unknown names have nothing to delete.
func (c *Coordinator) oltIDs(ctx context.Context, tx ports.IngestionTx, plan ReplacePlan) ([]int64, error) {
	seen := make(map[int64]bool, len(plan.OltIDs)+len(plan.OltNames))
	var ids []int64
	add := func(id int64) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	for _, id := range plan.OltIDs {
		add(id)
	}
	for _, name := range plan.OltNames {
		olt, err := tx.FindOltByName(ctx, name)
		if errors.GetCode(err) == errors.CodeNotFound {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("find olt %q: %w", name, err)
		}
		add(olt.ID)
	}
	return ids, nil
}
