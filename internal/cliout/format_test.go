package cliout

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type pair struct {
	Name  string `json:"name" yaml:"name"`
	Value int    `json:"value" yaml:"value"`
}

type pairs []pair

func (p pairs) Headers() []string { return []string{"Name", "Value"} }

func (p pairs) Rows() [][]string {
	rows := make([][]string, 0, len(p))
	for _, item := range p {
		rows = append(rows, []string{item.Name, fmt.Sprint(item.Value)})
	}
	return rows
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatTable, "table": FormatTable, "JSON": FormatJSON, "yaml": FormatYAML, "yml": FormatYAML}
	for input, want := range cases {
		got, err := ParseFormat(input)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseFormat("xml")
	assert.Error(t, err)
}

func TestPrintJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintJSON(&buf, pair{Name: "bf6900-1", Value: 1}))
	assert.Contains(t, buf.String(), `"name": "bf6900-1"`)
}

func TestPrintYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, PrintYAML(&buf, pair{Name: "bf6900-1", Value: 1}))
	assert.Contains(t, buf.String(), "name: bf6900-1")
}

func TestPrintTableFallsBackToJSONWithoutRenderer(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Print(&buf, FormatTable, pair{Name: "x", Value: 1}))
	assert.Contains(t, buf.String(), `"name"`)
}

func TestPrintTableUsesRenderer(t *testing.T) {
	var buf bytes.Buffer
	data := pairs{{Name: "bf6900-1", Value: 1}}
	require.NoError(t, Print(&buf, FormatTable, data))
	assert.Contains(t, buf.String(), "bf6900-1")
}
