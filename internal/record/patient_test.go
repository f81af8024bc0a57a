package record

import (
	"testing"

	"github.com/AireshBhat/nramh-lis/internal/astm"
	"github.com/AireshBhat/nramh-lis/internal/hl7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseASTMPatient(t *testing.T) {
	rec := astm.Record{
		Type: "P",
		Fields: []string{
			"P", "1", "", "PID-1", "",
			"Doe^John^Q^Jr^Dr", "", "19800101", "M", "ATT-PHYS",
			"", "123 Main St^^^Springfield^IL^62701^USA", "", "555-1234",
		},
	}

	p := ParseASTMPatient(rec)
	assert.Equal(t, "PID-1", p.PatientID)
	assert.Equal(t, "Doe", p.Name.Last)
	assert.Equal(t, "John", p.Name.First)
	assert.Equal(t, "M", p.Sex)
	require.NotNil(t, p.BirthDate)
	assert.Equal(t, 1980, p.BirthDate.Year())
	require.NotNil(t, p.Address)
	assert.Equal(t, "Springfield", p.Address.City)
	require.Len(t, p.Phones, 1)
	assert.Equal(t, "555-1234", p.Phones[0])
}

func TestParseASTMPatientDefaultsSexToUnknown(t *testing.T) {
	rec := astm.Record{Type: "P", Fields: []string{"P", "1", "", "PID-2"}}
	p := ParseASTMPatient(rec)
	assert.Equal(t, "U", p.Sex)
}

func TestParseHL7Patient(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||ORU^R01|1|P|2.3.1\r" +
		"PID|1||PID-9^^^MRN~ALT-1||Doe^Jane^M||19750605|F|||" +
		"1 Oak Ave^^^Metropolis^NY^10001^USA||555-9999\r"
	msg, err := hl7.ParseMessage(text)
	require.NoError(t, err)

	p := ParseHL7Patient(msg.FirstSegment("PID"))
	require.NotNil(t, p)
	assert.Equal(t, "PID-9", p.PatientID)
	assert.Equal(t, "Doe", p.Name.Last)
	assert.Equal(t, "Jane", p.Name.First)
	assert.Equal(t, "F", p.Sex)
	require.NotNil(t, p.BirthDate)
	assert.Equal(t, 1975, p.BirthDate.Year())
	require.NotNil(t, p.Address)
	assert.Equal(t, "Metropolis", p.Address.City)
	require.Len(t, p.Phones, 1)
}

func TestParseHL7PatientNilSegment(t *testing.T) {
	assert.Nil(t, ParseHL7Patient(nil))
}
