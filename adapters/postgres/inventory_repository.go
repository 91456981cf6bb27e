package postgres

import (
	"context"
	"database/sql"
	stderrors "errors"
	"fmt"
	"strings"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
)

// CreateOlt inserts a new OLT. Duplicate names are a conflict.
func (s *Store) CreateOlt(ctx context.Context, name string) (*inventory.Olt, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.ValidationError("Nombre de OLT requerido")
	}

	var olt inventory.Olt
	err := s.db.GetContext(ctx, &olt, `INSERT INTO olts (name) VALUES ($1) RETURNING id, name, created_at`, name)
	if isUniqueViolation(err) {
		return nil, errors.Conflict(fmt.Sprintf("olt %q already exists", name))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create olt: %w", err)
	}
	return &olt, nil
}

// ListOlts returns every OLT ordered by id
func (s *Store) ListOlts(ctx context.Context) ([]inventory.Olt, error) {
	olts := []inventory.Olt{}
	if err := s.db.SelectContext(ctx, &olts, `SELECT id, name, created_at FROM olts ORDER BY id`); err != nil {
		return nil, fmt.Errorf("failed to list olts: %w", err)
	}
	return olts, nil
}

func (s *Store) GetOlt(ctx context.Context, id int64) (*inventory.Olt, error) {
	var olt inventory.Olt
	err := s.db.GetContext(ctx, &olt, `SELECT id, name, created_at FROM olts WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("olt %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get olt: %w", err)
	}
	return &olt, nil
}

// ListPortsByOlt returns the ports of one OLT ordered by slot and port number
func (s *Store) ListPortsByOlt(ctx context.Context, oltID int64) ([]inventory.Port, error) {
	ports := []inventory.Port{}
	err := s.db.SelectContext(ctx, &ports,
		`SELECT `+portColumns+` FROM ports WHERE olt_id = $1 ORDER BY slot, port_number`, oltID)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	return ports, nil
}

func (s *Store) ListPorts(ctx context.Context) ([]inventory.Port, error) {
	ports := []inventory.Port{}
	err := s.db.SelectContext(ctx, &ports,
		`SELECT `+portColumns+` FROM ports ORDER BY olt_id, slot, port_number`)
	if err != nil {
		return nil, fmt.Errorf("failed to list ports: %w", err)
	}
	return ports, nil
}

func (s *Store) GetPort(ctx context.Context, id int64) (*inventory.Port, error) {
	var p inventory.Port
	err := s.db.GetContext(ctx, &p, `SELECT `+portColumns+` FROM ports WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("port %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get port: %w", err)
	}
	return &p, nil
}

// UpdatePort changes status and/or label of a port
func (s *Store) UpdatePort(ctx context.Context, id int64, update inventory.PortUpdate) (*inventory.Port, error) {
	var status *string
	if update.Status != nil {
		if !update.Status.Valid() {
			return nil, errors.ValidationError(fmt.Sprintf("estado inválido %q", *update.Status))
		}
		v := string(*update.Status)
		status = &v
	}

	var p inventory.Port
	err := s.db.GetContext(ctx, &p,
		`UPDATE ports
		SET status = COALESCE($2, status), label = COALESCE($3, label), updated_at = now()
		WHERE id = $1
		RETURNING `+portColumns,
		id, status, update.Label)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("port %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update port: %w", err)
	}
	return &p, nil
}

// ListOdfs returns every ODF with its ports, ordered by ODF number
func (s *Store) ListOdfs(ctx context.Context) ([]inventory.Odf, error) {
	odfs := []inventory.Odf{}
	if err := s.db.SelectContext(ctx, &odfs, `SELECT id, name, odf_number FROM odfs ORDER BY odf_number`); err != nil {
		return nil, fmt.Errorf("failed to list odfs: %w", err)
	}

	var odfPorts []inventory.OdfPort
	if err := s.db.SelectContext(ctx, &odfPorts,
		`SELECT id, odf_id, number, buffer, color FROM odf_ports ORDER BY odf_id, buffer, id`); err != nil {
		return nil, fmt.Errorf("failed to list odf ports: %w", err)
	}

	byOdf := make(map[int64][]inventory.OdfPort, len(odfs))
	for _, p := range odfPorts {
		byOdf[p.OdfID] = append(byOdf[p.OdfID], p)
	}
	for i := range odfs {
		odfs[i].Ports = byOdf[odfs[i].ID]
		if odfs[i].Ports == nil {
			odfs[i].Ports = []inventory.OdfPort{}
		}
	}
	return odfs, nil
}

func (s *Store) GetOdf(ctx context.Context, id int64) (*inventory.Odf, error) {
	var odf inventory.Odf
	err := s.db.GetContext(ctx, &odf, `SELECT id, name, odf_number FROM odfs WHERE id = $1`, id)
	if stderrors.Is(err, sql.ErrNoRows) {
		return nil, errors.NotFound(fmt.Sprintf("odf %d", id))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get odf: %w", err)
	}

	odf.Ports = []inventory.OdfPort{}
	if err := s.db.SelectContext(ctx, &odf.Ports,
		`SELECT id, odf_id, number, buffer, color FROM odf_ports WHERE odf_id = $1 ORDER BY buffer, id`, id); err != nil {
		return nil, fmt.Errorf("failed to list odf ports: %w", err)
	}
	return &odf, nil
}

// mappingDetailRow is the flat shape of the mapping/odf_port/odf join
type mappingDetailRow struct {
	inventory.Mapping
	OpNumber  *int    `db:"op_number"`
	OpBuffer  int     `db:"op_buffer"`
	OpColor   string  `db:"op_color"`
	OdfID     int64   `db:"odf_id"`
	OdfName   *string `db:"odf_name"`
	OdfNumber int     `db:"odf_number"`
}

// ListMappingDetails returns every mapping joined with its ODF position
func (s *Store) ListMappingDetails(ctx context.Context) ([]inventory.MappingDetail, error) {
	var rows []mappingDetailRow
	err := s.db.SelectContext(ctx, &rows, `SELECT
		m.id, m.olt_id, m.port_id, m.odf_port_id, m.edfa_id, m.chasis_id, m.divisor_id,
		m.edfa_com_port, m.edfa_pon_port, m.splitter_output, m.entrada, m.feeder, m.created_at,
		op.number AS op_number, op.buffer AS op_buffer, op.color AS op_color,
		o.id AS odf_id, o.name AS odf_name, o.odf_number
	FROM mappings m
	JOIN odf_ports op ON op.id = m.odf_port_id
	JOIN odfs o ON o.id = op.odf_id
	ORDER BY m.id`)
	if err != nil {
		return nil, fmt.Errorf("failed to list mappings: %w", err)
	}

	out := make([]inventory.MappingDetail, len(rows))
	for i, r := range rows {
		out[i] = inventory.MappingDetail{
			Mapping: r.Mapping,
			OdfPort: inventory.OdfPort{
				ID:     r.OdfPortID,
				OdfID:  r.OdfID,
				Number: r.OpNumber,
				Buffer: r.OpBuffer,
				Color:  r.OpColor,
			},
			Odf: inventory.Odf{ID: r.OdfID, Name: r.OdfName, OdfNumber: r.OdfNumber},
		}
	}
	return out, nil
}
