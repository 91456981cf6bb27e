package postgres

import (
	"context"
	stderrors "errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oltmap/domain/inventory"
	"oltmap/internal/errors"
	"oltmap/ports"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewStore(sqlx.NewDb(db, "postgres")), mock
}

func TestFindOrCreateOltByNameReturnsExisting(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, created_at FROM olts WHERE name = $1`)).
		WithArgs("GRN-OLT1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow(7, "GRN-OLT1", now))
	mock.ExpectCommit()

	var got *inventory.Olt
	err := store.InTx(context.Background(), func(tx ports.IngestionTx) error {
		var err error
		got, err = tx.FindOrCreateOltByName(context.Background(), "GRN-OLT1")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(7), got.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindOrCreateOltByNameInsertsMissing(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, name, created_at FROM olts WHERE name = $1`)).
		WithArgs("NEW").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}))
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO olts (name) VALUES ($1)`)).
		WithArgs("NEW").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "created_at"}).AddRow(3, "NEW", now))
	mock.ExpectCommit()

	err := store.InTx(context.Background(), func(tx ports.IngestionTx) error {
		olt, err := tx.FindOrCreateOltByName(context.Background(), "NEW")
		if err == nil {
			assert.Equal(t, int64(3), olt.ID)
		}
		return err
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertPortsSingleStatement(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(
		`INSERT INTO ports (olt_id, slot, port_number, status, label, rx, tx, vcc, brand) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9), ($10, $11, $12, $13, $14, $15, $16, $17, $18) ON CONFLICT (olt_id, slot, port_number) DO NOTHING`)).
		WithArgs(int64(1), 1, 1, "available", "A", nil, nil, nil, nil,
			int64(1), 1, 2, "available", "B", nil, nil, nil, nil).
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()

	var inserted int
	err := store.InTx(context.Background(), func(tx ports.IngestionTx) error {
		var err error
		inserted, err = tx.BulkInsertPorts(context.Background(), []inventory.Port{
			{OltID: 1, Slot: 1, PortNumber: 1, Label: "A"},
			{OltID: 1, Slot: 1, PortNumber: 2, Label: "B"},
		})
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, 2, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBulkInsertPortsRejectsControllerSlot(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx ports.IngestionTx) error {
		_, err := tx.BulkInsertPorts(context.Background(), []inventory.Port{{OltID: 1, Slot: 10, PortNumber: 1, Label: "x"}})
		return err
	})
	assert.ErrorIs(t, err, inventory.ErrControllerSlot)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInTxReportsConflicts(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		conflict bool
	}{
		{"pq unique violation", &pq.Error{Code: pgerrcode.UniqueViolation}, true},
		{"pgx serialization failure", &pgconn.PgError{Code: pgerrcode.SerializationFailure}, true},
		{"pq check violation", &pq.Error{Code: pgerrcode.CheckViolation}, false},
		{"plain error", stderrors.New("boom"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, mock := newMockStore(t)
			mock.ExpectBegin()
			mock.ExpectRollback()

			err := store.InTx(context.Background(), func(tx ports.IngestionTx) error {
				return tt.err
			})
			require.Error(t, err)
			assert.Equal(t, tt.conflict, stderrors.Is(err, ports.ErrTxConflict))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestDeleteOltPortsAndMappings(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM mappings WHERE olt_id = $1 OR port_id IN`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM ports WHERE olt_id = $1`)).
		WithArgs(int64(4)).
		WillReturnResult(sqlmock.NewResult(0, 10))
	mock.ExpectCommit()

	var deleted int64
	err := store.InTx(context.Background(), func(tx ports.IngestionTx) error {
		var err error
		deleted, err = tx.DeleteOltPortsAndMappings(context.Background(), 4)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, int64(13), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateOltDuplicateIsConflict(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO olts (name) VALUES ($1)`)).
		WithArgs("GRN-OLT1").
		WillReturnError(&pq.Error{Code: pgerrcode.UniqueViolation})

	_, err := store.CreateOlt(context.Background(), " GRN-OLT1 ")
	require.Error(t, err)
	assert.Equal(t, errors.CodeConflict, errors.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetPortNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM ports WHERE id = $1`)).
		WithArgs(int64(99)).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := store.GetPort(context.Background(), 99)
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListMappingDetails(t *testing.T) {
	store, mock := newMockStore(t)
	now := time.Now()

	cols := []string{
		"id", "olt_id", "port_id", "odf_port_id", "edfa_id", "chasis_id", "divisor_id",
		"edfa_com_port", "edfa_pon_port", "splitter_output", "entrada", "feeder", "created_at",
		"op_number", "op_buffer", "op_color", "odf_id", "odf_name", "odf_number",
	}
	mock.ExpectQuery(regexp.QuoteMeta(`FROM mappings m`)).
		WillReturnRows(sqlmock.NewRows(cols).AddRow(
			1, 1, 5, 9, nil, nil, nil,
			nil, nil, "OUT-1", nil, "F1", now,
			nil, 1, "Azul", 2, "FEEDER GRN01", 1,
		))

	details, err := store.ListMappingDetails(context.Background())
	require.NoError(t, err)
	require.Len(t, details, 1)
	d := details[0]
	assert.Equal(t, int64(5), d.PortID)
	assert.Equal(t, "Azul", d.OdfPort.Color)
	assert.Equal(t, int64(9), d.OdfPort.ID)
	assert.Equal(t, 1, d.Odf.OdfNumber)
	require.NotNil(t, d.SplitterOutput)
	assert.Equal(t, "OUT-1", *d.SplitterOutput)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSetOdfNameMissingRow(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE odfs SET name = $2 WHERE id = $1`)).
		WithArgs(int64(4), "FEEDER GRN01").
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := store.InTx(context.Background(), func(tx ports.IngestionTx) error {
		return tx.SetOdfName(context.Background(), 4, "FEEDER GRN01")
	})
	assert.Equal(t, errors.CodeNotFound, errors.GetCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
