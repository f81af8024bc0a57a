package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseASTMTimestampFullPrecision(t *testing.T) {
	ts, ok := ParseASTMTimestamp("20231205143210")
	require.True(t, ok)
	assert.Equal(t, 2023, ts.Year())
	assert.Equal(t, 14, ts.Hour())
	assert.Equal(t, 32, ts.Minute())
	assert.Equal(t, 10, ts.Second())
}

func TestParseASTMTimestampDateOnly(t *testing.T) {
	ts, ok := ParseASTMTimestamp("20231205")
	require.True(t, ok)
	assert.Equal(t, 2023, ts.Year())
	assert.Equal(t, 0, ts.Hour())
}

func TestParseASTMTimestampTooShort(t *testing.T) {
	_, ok := ParseASTMTimestamp("2023")
	assert.False(t, ok)
}

func TestParseASTMTimestampEmpty(t *testing.T) {
	_, ok := ParseASTMTimestamp("")
	assert.False(t, ok)
}

func TestParseASTMTimestampIgnoresTrailingNonDigits(t *testing.T) {
	ts, ok := ParseASTMTimestamp("20231205120000.5Z")
	require.True(t, ok)
	assert.Equal(t, 2023, ts.Year())
}

func TestParseASTMHeader(t *testing.T) {
	fields := []string{"H", "\\^&", "", "", "", "", "", "", "", "", "", "", "P", "LIS2-A", "20231205120000"}
	h := ParseASTMHeader(fields)
	assert.Equal(t, "P", h.ProcessingID)
	assert.Equal(t, "LIS2-A", h.Version)
	require.NotNil(t, h.Timestamp)
	assert.Equal(t, 2023, h.Timestamp.Year())
}

func TestParseASTMOrder(t *testing.T) {
	fields := []string{"O", "1", "SAMPLE-1", "", "", "GLU\\CREA"}
	o := ParseASTMOrder(fields)
	assert.Equal(t, "SAMPLE-1", o.SampleID)
	assert.Equal(t, []string{"GLU", "CREA"}, o.TestIDs)
}

func TestParseASTMComment(t *testing.T) {
	fields := []string{"C", "1", "I", "hemolyzed sample"}
	c := ParseASTMComment(fields)
	assert.Equal(t, "hemolyzed sample", c.Text)
}

func TestParseASTMQuery(t *testing.T) {
	fields := []string{"Q", "1", "ALL"}
	q := ParseASTMQuery(fields)
	assert.Equal(t, "ALL", q.StartingRange)
}
