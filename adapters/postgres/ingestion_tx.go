package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
	"oltmap/ports"
)

const portColumns = `id, olt_id, slot, port_number, status, label, rx, tx, vcc, brand, created_at, updated_at`

// ingestionTx implements ports.IngestionTx on one database transaction
type ingestionTx struct {
	tx *sqlx.Tx
}

var _ ports.IngestionTx = (*ingestionTx)(nil)

func (t *ingestionTx) FindOltByID(ctx context.Context, id int64) (*inventory.Olt, error) {
	var olt inventory.Olt
	err := t.tx.GetContext(ctx, &olt, `SELECT id, name, created_at FROM olts WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("olt %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get olt %d: %w", id, err)
	}
	return &olt, nil
}

func (t *ingestionTx) FindOltByName(ctx context.Context, name string) (*inventory.Olt, error) {
	var olt inventory.Olt
	err := t.tx.GetContext(ctx, &olt, `SELECT id, name, created_at FROM olts WHERE name = $1`, name)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("olt %q", name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get olt %q: %w", name, err)
	}
	return &olt, nil
}

func (t *ingestionTx) FindOrCreateOltByName(ctx context.Context, name string) (*inventory.Olt, error) {
	olt, err := t.FindOltByName(ctx, name)
	if errors.GetCode(err) != errors.CodeNotFound {
		return olt, err
	}

	var created inventory.Olt
	err = t.tx.GetContext(ctx, &created,
		`INSERT INTO olts (name) VALUES ($1) RETURNING id, name, created_at`, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create olt %q: %w", name, err)
	}
	return &created, nil
}

func (t *ingestionTx) EnsureOltByID(ctx context.Context, id int64, name string) (*inventory.Olt, error) {
	olt, err := t.FindOltByID(ctx, id)
	if errors.GetCode(err) != errors.CodeNotFound {
		return olt, err
	}

	var created inventory.Olt
	err = t.tx.GetContext(ctx, &created,
		`INSERT INTO olts (id, name) VALUES ($1, $2) RETURNING id, name, created_at`, id, name)
	if err != nil {
		return nil, fmt.Errorf("failed to create olt %d: %w", id, err)
	}
	// Explicit ids bypass the sequence; move it past the highest id.
	if _, err := t.tx.ExecContext(ctx,
		`SELECT setval(pg_get_serial_sequence('olts', 'id'), (SELECT MAX(id) FROM olts))`); err != nil {
		return nil, fmt.Errorf("failed to advance olt sequence: %w", err)
	}
	return &created, nil
}

func (t *ingestionTx) FindOrCreatePort(ctx context.Context, port inventory.Port) (*inventory.Port, error) {
	if inventory.IsControllerSlot(port.Slot) {
		return nil, inventory.ErrControllerSlot
	}

	var p inventory.Port
	err := t.tx.GetContext(ctx, &p,
		`SELECT `+portColumns+` FROM ports WHERE olt_id = $1 AND slot = $2 AND port_number = $3`,
		port.OltID, port.Slot, port.PortNumber)
	if err == nil {
		return &p, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get port: %w", err)
	}

	if port.Status == "" {
		port.Status = inventory.StatusAvailable
	}
	err = t.tx.GetContext(ctx, &p,
		`INSERT INTO ports (olt_id, slot, port_number, status, label, rx, tx, vcc, brand)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING `+portColumns,
		port.OltID, port.Slot, port.PortNumber, port.Status, port.Label,
		port.Rx, port.Tx, port.Vcc, port.Brand)
	if err != nil {
		return nil, fmt.Errorf("failed to create port: %w", err)
	}
	return &p, nil
}

// BulkInsertPorts inserts all ports with one statement, skipping existing natural keys
func (t *ingestionTx) BulkInsertPorts(ctx context.Context, batch []inventory.Port) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	const cols = 9
	var b strings.Builder
	b.WriteString(`INSERT INTO ports (olt_id, slot, port_number, status, label, rx, tx, vcc, brand) VALUES `)
	args := make([]any, 0, len(batch)*cols)
	for i, p := range batch {
		if inventory.IsControllerSlot(p.Slot) {
			return 0, inventory.ErrControllerSlot
		}
		status := p.Status
		if status == "" {
			status = inventory.StatusAvailable
		}
		if i > 0 {
			b.WriteString(", ")
		}
		n := i * cols
		fmt.Fprintf(&b, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			n+1, n+2, n+3, n+4, n+5, n+6, n+7, n+8, n+9)
		args = append(args, p.OltID, p.Slot, p.PortNumber, string(status), p.Label, p.Rx, p.Tx, p.Vcc, p.Brand)
	}
	b.WriteString(` ON CONFLICT (olt_id, slot, port_number) DO NOTHING`)

	res, err := t.tx.ExecContext(ctx, b.String(), args...)
	if err != nil {
		if isCheckViolation(err) {
			return 0, errors.WithCode(errors.CodeValidationError, errors.Wrap(err, "port violates slot rules"))
		}
		return 0, fmt.Errorf("failed to insert ports: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to count inserted ports: %w", err)
	}
	return int(n), nil
}

func (t *ingestionTx) FindOrCreateEdfa(ctx context.Context, name string) (*inventory.Edfa, error) {
	var e inventory.Edfa
	err := t.tx.GetContext(ctx, &e, `SELECT id, name FROM edfas WHERE name = $1`, name)
	if err == nil {
		return &e, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get edfa: %w", err)
	}
	if err := t.tx.GetContext(ctx, &e, `INSERT INTO edfas (name) VALUES ($1) RETURNING id, name`, name); err != nil {
		return nil, fmt.Errorf("failed to create edfa: %w", err)
	}
	return &e, nil
}

func (t *ingestionTx) FindOrCreateChasis(ctx context.Context, name string) (*inventory.Chasis, error) {
	var c inventory.Chasis
	err := t.tx.GetContext(ctx, &c, `SELECT id, name FROM chasis WHERE name = $1`, name)
	if err == nil {
		return &c, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get chasis: %w", err)
	}
	if err := t.tx.GetContext(ctx, &c, `INSERT INTO chasis (name) VALUES ($1) RETURNING id, name`, name); err != nil {
		return nil, fmt.Errorf("failed to create chasis: %w", err)
	}
	return &c, nil
}

func (t *ingestionTx) FindOrCreateDivisor(ctx context.Context, chasisID int64, slot int) (*inventory.Divisor, error) {
	var d inventory.Divisor
	err := t.tx.GetContext(ctx, &d,
		`SELECT id, chasis_id, slot, type FROM divisors WHERE chasis_id = $1 AND slot = $2`, chasisID, slot)
	if err == nil {
		return &d, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get divisor: %w", err)
	}
	err = t.tx.GetContext(ctx, &d,
		`INSERT INTO divisors (chasis_id, slot) VALUES ($1, $2) RETURNING id, chasis_id, slot, type`, chasisID, slot)
	if err != nil {
		return nil, fmt.Errorf("failed to create divisor: %w", err)
	}
	return &d, nil
}

func (t *ingestionTx) FindOrCreateOdf(ctx context.Context, odfNumber int) (*inventory.Odf, error) {
	var o inventory.Odf
	err := t.tx.GetContext(ctx, &o, `SELECT id, name, odf_number FROM odfs WHERE odf_number = $1`, odfNumber)
	if err == nil {
		return &o, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get odf: %w", err)
	}
	err = t.tx.GetContext(ctx, &o,
		`INSERT INTO odfs (odf_number) VALUES ($1) RETURNING id, name, odf_number`, odfNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to create odf: %w", err)
	}
	return &o, nil
}

func (t *ingestionTx) FindOrCreateOdfPort(ctx context.Context, odfID int64, buffer int, color string) (*inventory.OdfPort, error) {
	var p inventory.OdfPort
	err := t.tx.GetContext(ctx, &p,
		`SELECT id, odf_id, number, buffer, color FROM odf_ports WHERE odf_id = $1 AND buffer = $2 AND color = $3`,
		odfID, buffer, color)
	if err == nil {
		return &p, nil
	}
	if !stderrors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to get odf port: %w", err)
	}
	err = t.tx.GetContext(ctx, &p,
		`INSERT INTO odf_ports (odf_id, buffer, color) VALUES ($1, $2, $3) RETURNING id, odf_id, number, buffer, color`,
		odfID, buffer, color)
	if err != nil {
		return nil, fmt.Errorf("failed to create odf port: %w", err)
	}
	return &p, nil
}

func (t *ingestionTx) CreateMapping(ctx context.Context, m inventory.Mapping) (*inventory.Mapping, error) {
	err := t.tx.QueryRowxContext(ctx,
		`INSERT INTO mappings (
			olt_id, port_id, odf_port_id, edfa_id, chasis_id, divisor_id,
			edfa_com_port, edfa_pon_port, splitter_output, entrada, feeder
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING id, created_at`,
		m.OltID, m.PortID, m.OdfPortID, m.EdfaID, m.ChasisID, m.DivisorID,
		m.EdfaComPort, m.EdfaPonPort, m.SplitterOutput, m.Entrada, m.Feeder).Scan(&m.ID, &m.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create mapping: %w", err)
	}
	return &m, nil
}

func (t *ingestionTx) SetOdfName(ctx context.Context, odfID int64, name string) error {
	return t.update(ctx, "odf", `UPDATE odfs SET name = $2 WHERE id = $1`, odfID, name)
}

func (t *ingestionTx) SetOdfPortNumber(ctx context.Context, odfPortID int64, number int) error {
	return t.update(ctx, "odf port", `UPDATE odf_ports SET number = $2 WHERE id = $1`, odfPortID, number)
}

func (t *ingestionTx) SetDivisorType(ctx context.Context, divisorID int64, kind string) error {
	return t.update(ctx, "divisor", `UPDATE divisors SET type = $2 WHERE id = $1`, divisorID, kind)
}

func (t *ingestionTx) update(ctx context.Context, resource, query string, id int64, value any) error {
	res, err := t.tx.ExecContext(ctx, query, id, value)
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", resource, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update %s: %w", resource, err)
	}
	if n == 0 {
		return errors.NotFound(fmt.Sprintf("%s %d", resource, id))
	}
	return nil
}

func (t *ingestionTx) DeleteAllMappings(ctx context.Context) (int64, error) {
	res, err := t.tx.ExecContext(ctx, `DELETE FROM mappings`)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mappings: %w", err)
	}
	return res.RowsAffected()
}

func (t *ingestionTx) DeleteOltMappings(ctx context.Context, oltID int64) (int64, error) {
	res, err := t.tx.ExecContext(ctx,
		`DELETE FROM mappings
		WHERE olt_id = $1 OR port_id IN (SELECT id FROM ports WHERE olt_id = $1)`, oltID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete mappings of olt %d: %w", oltID, err)
	}
	return res.RowsAffected()
}

func (t *ingestionTx) DeleteOltPortsAndMappings(ctx context.Context, oltID int64) (int64, error) {
	mappings, err := t.DeleteOltMappings(ctx, oltID)
	if err != nil {
		return 0, err
	}
	res, err := t.tx.ExecContext(ctx, `DELETE FROM ports WHERE olt_id = $1`, oltID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete ports of olt %d: %w", oltID, err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return mappings + removed, nil
}
