package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"oltmap/adapters/memory"
	"oltmap/internal"
	"oltmap/internal/config"
	"oltmap/internal/container"
	"oltmap/internal/testkit"
)

type reportBody struct {
	Message          string `json:"message"`
	InsertedCount    int    `json:"insertedCount"`
	RowsTotal        int    `json:"rowsTotal"`
	RowsWithErrors   int    `json:"rowsWithErrors"`
	InsertedMappings *int   `json:"insertedMappings"`
	Deleted          int64  `json:"deleted"`
	Errors           []struct {
		Row      int    `json:"row"`
		Field    string `json:"field"`
		Value    string `json:"value"`
		Expected string `json:"expected"`
		Error    string `json:"error"`
	} `json:"errors"`
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	cfg := &config.Config{
		Storage: config.StorageMemory,
		Server:  config.ServerConfig{CORSAllowedOrigins: []string{"http://localhost:5173"}},
		Import:  config.ImportConfig{MaxFileMB: 1, MaxRows: 100, BatchSize: 50, TxRetries: 1},
	}
	c, err := container.New(cfg, internal.NopLogger())
	require.NoError(t, err)
	c.InitWithStore(memory.NewStore())
	return NewServer(c)
}

func do(t *testing.T, s *Server, method, target string, body io.Reader, contentType string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, body)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func doJSON(t *testing.T, s *Server, method, target string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	b, err := json.Marshal(payload)
	require.NoError(t, err)
	return do(t, s, method, target, bytes.NewReader(b), "application/json")
}

func upload(t *testing.T, s *Server, target, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return do(t, s, http.MethodPost, target, &body, mw.FormDataContentType())
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func createOlt(t *testing.T, s *Server, name string) int64 {
	t.Helper()
	rec := doJSON(t, s, http.MethodPost, "/api/olts", map[string]string{"name": name})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[struct {
		ID int64 `json:"id"`
	}](t, rec).ID
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)
	rec := do(t, s, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(RequestIDHeader))
}

func TestCreateOltConflictEnvelope(t *testing.T) {
	s := newTestServer(t)
	createOlt(t, s, "GRN-OLT1")

	req := httptest.NewRequest(http.MethodPost, "/api/olts", strings.NewReader(`{"name":"GRN-OLT1"}`))
	req.Header.Set(RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
	env := decode[ErrorEnvelope](t, rec)
	assert.Equal(t, "CONFLICT", env.Error.Code)
	assert.Equal(t, "req-123", env.RequestID)

	rec = do(t, s, http.MethodPost, "/api/olts", strings.NewReader(`{`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadPortsControllerSlot(t *testing.T) {
	s := newTestServer(t)
	id := createOlt(t, s, "GRN-OLT1")

	wb := testkit.MustWorkbook(t, testkit.PortHeaders, [][]any{{9, 1, "1"}})
	rec := upload(t, s, "/api/olts/1/ports", "puertos.xlsx", wb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[reportBody](t, rec)
	assert.Equal(t, 0, report.InsertedCount)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, 2, report.Errors[0].Row)
	assert.Contains(t, report.Errors[0].Error, "Slot prohibido")

	rec = do(t, s, http.MethodGet, "/api/olts/1/ports", nil, "")
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, int64(1), id)
}

func TestUploadPortsReplaceTwice(t *testing.T) {
	s := newTestServer(t)
	createOlt(t, s, "GRN-OLT1")

	wb := testkit.MustWorkbook(t, testkit.PortHeaders, [][]any{{1, 1, "1"}, {1, 2, "2"}})
	for i := 0; i < 2; i++ {
		rec := upload(t, s, "/api/olts/1/ports", "puertos.xlsx", wb)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}

	rec := do(t, s, http.MethodGet, "/api/olts/1/ports", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	listed := decode[[]struct {
		Slot       int    `json:"slot"`
		PortNumber int    `json:"portNumber"`
		Label      string `json:"label"`
		Status     string `json:"status"`
	}](t, rec)
	require.Len(t, listed, 2)
	assert.Equal(t, "available", listed[0].Status)
	assert.Equal(t, "2", listed[1].Label)

	csv := []byte("slot,portNumber,label\n2,1,x\n")
	rec = upload(t, s, "/api/olts/1/ports?append=true", "extra.csv", csv)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rec = do(t, s, http.MethodGet, "/api/olts/1/ports", nil, "")
	assert.Len(t, decode[[]map[string]any](t, rec), 3)
}

func TestUploadStructuralErrors(t *testing.T) {
	s := newTestServer(t)
	createOlt(t, s, "GRN-OLT1")

	rec := do(t, s, http.MethodPost, "/api/olts/1/ports", strings.NewReader(`{}`), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "MISSING_FILE", decode[ErrorEnvelope](t, rec).Error.Code)

	rec = upload(t, s, "/api/olts/1/ports", "broken.xlsx", []byte("not a workbook"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNREADABLE_FILE", decode[ErrorEnvelope](t, rec).Error.Code)

	rec = upload(t, s, "/api/olts/1/ports", "big.csv", bytes.Repeat([]byte("a"), 3<<20))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	wb := testkit.MustWorkbook(t, testkit.PortHeaders, [][]any{{1, 1, "1"}})
	rec = upload(t, s, "/api/olts/77/ports", "puertos.xlsx", wb)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = upload(t, s, "/api/olts/abc/ports", "puertos.xlsx", wb)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUploadOltPorts(t *testing.T) {
	s := newTestServer(t)

	wb := testkit.MustWorkbook(t, testkit.OltPortHeaders, [][]any{
		{3, "GRN-OLT3", 1, 1, "a"},
		{3, "GRN-OLT3", 1, 2, "b"},
	})
	rec := upload(t, s, "/api/olts/upload", "olts.xlsx", wb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, 2, decode[reportBody](t, rec).InsertedCount)

	rec = do(t, s, http.MethodGet, "/api/olts", nil, "")
	assert.Contains(t, rec.Body.String(), "GRN-OLT3")
}

func TestUploadMappingsReportsFieldErrors(t *testing.T) {
	s := newTestServer(t)

	wb := testkit.MustWorkbook(t, testkit.MappingHeaders, [][]any{
		{"GRN-OLT1", 1, 1, "EDFA-1", 1, 2, "CH-1", 1, "3", "E1", 1, 1, "Azul", "F1"},
		{"GRN-OLT1", 1, "abc", nil, nil, nil, nil, nil, nil, nil, 1, 2, "Verde", nil},
	})
	rec := upload(t, s, "/api/mappings/upload", "mapeo.xlsx", wb)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	report := decode[reportBody](t, rec)
	assert.Equal(t, 1, report.InsertedCount)
	require.NotNil(t, report.InsertedMappings)
	assert.Equal(t, 1, *report.InsertedMappings)
	assert.Equal(t, 2, report.RowsTotal)
	require.Len(t, report.Errors, 1)
	assert.Equal(t, "PON", report.Errors[0].Field)
	assert.Equal(t, "abc", report.Errors[0].Value)
	assert.Equal(t, "número entero", report.Errors[0].Expected)

	rec = upload(t, s, "/api/mappings/upload?replace=true", "mapeo.xlsx", wb)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(1), decode[reportBody](t, rec).Deleted)

	rec = upload(t, s, "/api/mappings/upload?replace=true&scope=everything", "mapeo.xlsx", wb)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decode[ErrorEnvelope](t, rec).Error.Code)
}

func TestManualMappingAndReads(t *testing.T) {
	s := newTestServer(t)

	rec := doJSON(t, s, http.MethodPost, "/api/mappings/manual", map[string]any{
		"olt": "GRN-OLT1", "slot": 2, "port": 5, "odf": 1, "buffer": 1, "hilo": "rojo",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = doJSON(t, s, http.MethodPost, "/api/mappings/manual", map[string]any{"olt": "GRN-OLT1", "slot": 9})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.NotEmpty(t, decode[reportBody](t, rec).Errors)

	rec = do(t, s, http.MethodGet, "/api/topology", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	tree := decode[[]struct {
		Name  string `json:"name"`
		Ports []struct {
			Slot    int `json:"slot"`
			OdfPort *struct {
				Color string `json:"color"`
			} `json:"odfPort"`
		} `json:"ports"`
	}](t, rec)
	require.Len(t, tree, 1)
	require.Len(t, tree[0].Ports, 1)
	require.NotNil(t, tree[0].Ports[0].OdfPort)
	assert.Equal(t, "Rojo", tree[0].Ports[0].OdfPort.Color)

	rec = do(t, s, http.MethodGet, "/api/odfs", nil, "")
	odfs := decode[[]struct {
		ID    int64            `json:"id"`
		Ports []map[string]any `json:"ports"`
	}](t, rec)
	require.Len(t, odfs, 1)
	assert.Len(t, odfs[0].Ports, 1)

	rec = do(t, s, http.MethodGet, "/api/odfs/1", nil, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	rec = do(t, s, http.MethodGet, "/api/odfs/9", nil, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodGet, "/api/olts/1/summary", nil, "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decode[struct {
		TotalPorts int `json:"totalPorts"`
		Mapped     int `json:"mapped"`
	}](t, rec)
	assert.Equal(t, 1, summary.TotalPorts)
	assert.Equal(t, 1, summary.Mapped)
}

func TestUpdatePort(t *testing.T) {
	s := newTestServer(t)
	createOlt(t, s, "GRN-OLT1")
	wb := testkit.MustWorkbook(t, testkit.PortHeaders, [][]any{{1, 1, "1"}})
	require.Equal(t, http.StatusOK, upload(t, s, "/api/olts/1/ports", "p.xlsx", wb).Code)

	rec := doJSON(t, s, http.MethodPut, "/api/ports/1", map[string]string{"status": "occupied", "label": "Cliente"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"status":"occupied"`)

	rec = doJSON(t, s, http.MethodPut, "/api/ports/1", map[string]string{"status": "gone"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, s, http.MethodPut, "/api/ports/50", map[string]string{"label": "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	s := newTestServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/olts", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/olts", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}
