package migration

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmbeddedMigrations(t *testing.T) {
	files, err := fs.Glob(migrations, migrationsDir+"/*.sql")
	require.NoError(t, err)
	require.NotEmpty(t, files)

	for _, name := range files {
		body, err := fs.ReadFile(migrations, name)
		require.NoError(t, err)
		text := string(body)
		assert.Contains(t, text, "-- +goose Up", name)
		assert.Contains(t, text, "-- +goose Down", name)
	}
}

func TestSchemaForbidsControllerSlots(t *testing.T) {
	body, err := fs.ReadFile(migrations, migrationsDir+"/00001_inventory.sql")
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(body), "slot NOT IN (9, 10)"))
	assert.Contains(t, string(body), "UNIQUE (olt_id, slot, port_number)")
	assert.Contains(t, string(body), "UNIQUE (odf_id, buffer, color)")
}
