package record

import (
	"testing"

	"github.com/AireshBhat/nramh-lis/internal/astm"
	"github.com/AireshBhat/nramh-lis/internal/hl7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseASTMResult(t *testing.T) {
	rec := astm.Record{
		Type: "R",
		Fields: []string{
			"R", "1", "^^^GLU", "98", "mg/dL", "70-110", "N", "", "", "", "",
			"", "SAMPLE-7", "", "", "", "", "ANALYZER-A",
		},
	}

	r := ParseASTMResult(rec, "astm-bf6900")
	assert.Equal(t, "GLU", r.TestID)
	assert.Equal(t, ValueNumeric, r.Value.Kind)
	assert.Equal(t, 98.0, r.Value.Numeric)
	assert.Equal(t, "mg/dL", r.Units)
	require.NotNil(t, r.ReferenceRange)
	assert.Equal(t, 70.0, *r.ReferenceRange.Lo)
	assert.Equal(t, "SAMPLE-7", r.SampleID)
	assert.Equal(t, StatusFinal, r.Status)
	assert.Equal(t, "astm-bf6900", r.AnalyzerID)
	assert.NotEmpty(t, r.ResultID)
}

func TestParseASTMResultGeneratesSampleIDWhenMissing(t *testing.T) {
	rec := astm.Record{Type: "R", Fields: []string{"R", "1", "GLU", "98"}}
	r := ParseASTMResult(rec, "astm-bf6900")
	assert.NotEmpty(t, r.SampleID)
}

func TestParseHL7ResultNumeric(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||ORU^R01|1|P|2.3.1\r" +
		"OBX|1|NM|2006^V_WBC^LOCAL||6.8|10^9/L|4-10|N|||F|||20231205120000\r"
	msg, err := hl7.ParseMessage(text)
	require.NoError(t, err)

	obx := msg.FirstSegment("OBX")
	r := ParseHL7Result(obx, "SAMPLE-1", "hl7-hematology")
	assert.Equal(t, "V_WBC", r.TestID)
	assert.Equal(t, ValueNumeric, r.Value.Kind)
	assert.Equal(t, 6.8, r.Value.Numeric)
	assert.Equal(t, StatusFinal, r.Status)
	require.NotNil(t, r.CompletedAt)
	assert.Equal(t, 2023, r.CompletedAt.Year())
}

func TestParseHL7ResultBinaryAttachment(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||ORU^R01|1|P|2.3.1\r" +
		"OBX|1|ED|2101^RBC Histogram^LOCAL||payload-bytes\r"
	msg, err := hl7.ParseMessage(text)
	require.NoError(t, err)

	obx := msg.FirstSegment("OBX")
	r := ParseHL7Result(obx, "SAMPLE-2", "hl7-hematology")
	assert.Equal(t, "RBCHistogram.PNG", r.TestID)
	assert.Equal(t, ValueBinary, r.Value.Kind)
	assert.Equal(t, []byte("payload-bytes"), r.Value.Binary)
}

func TestExtractHL7ResultsUsesPrecedingOBRSampleID(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||ORU^R01|1|P|2.3.1\r" +
		"PID|1||P1\rOBR|1||SAMPLE-42\rOBX|1|NM|2006^V_WBC||6.8\rOBX|2|NM|2007^V_RBC||4.5\r"
	msg, err := hl7.ParseMessage(text)
	require.NoError(t, err)

	results := ExtractHL7Results(msg, "hl7-hematology")
	require.Len(t, results, 2)
	assert.Equal(t, "SAMPLE-42", results[0].SampleID)
	assert.Equal(t, "SAMPLE-42", results[1].SampleID)
}
