package ingestion

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAggregatorOrdersErrorsByRow(t *testing.T) {
	agg := NewAggregator(ReportPorts, 5)
	agg.Committed(2)
	agg.Reject(RowError{Row: 6, Error: "b1"}, RowError{Row: 6, Error: "b2"})
	agg.RowFailed(3)
	agg.Reject(RowError{Row: 2, Error: "a"})

	r := agg.Report(MessageCompleted, 0)
	assert.Equal(t, 2, r.InsertedCount)
	assert.Equal(t, 3, r.RowsWithErrors)
	assert.Equal(t, r.RowsTotal, r.InsertedCount+r.RowsWithErrors)

	var order []string
	for _, e := range r.Errors {
		order = append(order, e.Error)
	}
	assert.Equal(t, []string{"a", MessageRowFailed, "b1", "b2"}, order)
	assert.True(t, agg.Rejected(3))
	assert.False(t, agg.Rejected(4))
}

func TestReportJSONAlias(t *testing.T) {
	ports, err := json.Marshal(Report{Message: "ok", Kind: ReportPorts, InsertedCount: 4, RowsTotal: 4})
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(ports, &decoded))
	assert.Equal(t, float64(4), decoded["inserted"])
	assert.Equal(t, float64(4), decoded["insertedCount"])
	assert.Equal(t, []any{}, decoded["errors"])
	assert.NotContains(t, decoded, "insertedMappings")

	mappings, err := json.Marshal(Report{Kind: ReportMappings, InsertedCount: 1})
	require.NoError(t, err)
	decoded = nil
	require.NoError(t, json.Unmarshal(mappings, &decoded))
	assert.Equal(t, float64(1), decoded["insertedMappings"])
	assert.NotContains(t, decoded, "inserted")
}

func TestParseMappingScope(t *testing.T) {
	tests := []struct {
		in   string
		want ReplaceScope
		ok   bool
	}{
		{"", ScopeAllMappings, true},
		{"ALL", ScopeAllMappings, true},
		{" olt ", ScopeOltMappings, true},
		{"olt-mappings", ScopeOltMappings, true},
		{"olt-ports", "", false},
		{"everything", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseMappingScope(tt.in)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}
