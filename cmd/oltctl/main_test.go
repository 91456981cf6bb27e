package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	t.Setenv("STORAGE", "memory")
	t.Setenv("LOG_LEVEL", "ERROR")

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestImportOltPortsPrintsReport(t *testing.T) {
	path := writeFile(t, "olts.csv", "OLT,OLT_NAME,slot,portNumber,label\n1,GRN-OLT1,1,1,a\n1,GRN-OLT1,10,1,b\n")

	out, err := run(t, "import", "olt-ports", path)
	require.NoError(t, err)

	var report map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.EqualValues(t, 1, report["insertedCount"])
	assert.EqualValues(t, 2, report["rowsTotal"])
	assert.EqualValues(t, 1, report["rowsWithErrors"])
}

func TestImportPortsRequiresOlt(t *testing.T) {
	path := writeFile(t, "p.csv", "slot,portNumber,label\n1,1,a\n")
	_, err := run(t, "import", "ports", path)
	assert.Error(t, err)
}

func TestImportMappingsRejectsScope(t *testing.T) {
	path := writeFile(t, "m.csv", "OLT,SLOT,PON,O.D.F,BUFFER,HILO (S)\nGRN-OLT1,1,1,1,1,Azul\n")
	_, err := run(t, "import", "mappings", "--replace", "--scope", "bogus", path)
	assert.ErrorContains(t, err, "invalid scope")

	out, err := run(t, "import", "mappings", "--replace", "--scope", "olt", path)
	require.NoError(t, err)
	assert.Contains(t, out, `"insertedMappings": 1`)
}

func TestImportMissingFile(t *testing.T) {
	_, err := run(t, "import", "olt-ports", filepath.Join(t.TempDir(), "nope.xlsx"))
	assert.Error(t, err)
}

func TestSeedAndMigrateOnMemory(t *testing.T) {
	out, err := run(t, "seed", "--ports-per-slot", "2", "--mappings", "3")
	require.NoError(t, err)
	assert.Contains(t, out, `"ports": 32`)
	assert.Contains(t, out, `"mappings": 3`)

	out, err = run(t, "migrate")
	require.NoError(t, err)
	assert.Empty(t, out)
}
