package record

import (
	"testing"

	"github.com/AireshBhat/nramh-lis/internal/hl7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHL7ObservationRequestPrefersFillerIDThenSet(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||ORU^R01|1|P|2.3.1\rOBR|1||SAMPLE-9^LOCAL|2006^V_WBC\r"
	msg, err := hl7.ParseMessage(text)
	require.NoError(t, err)

	obr := ParseHL7ObservationRequest(msg.FirstSegment("OBR"))
	assert.Equal(t, "SAMPLE-9^LOCAL", obr.SampleID)
	assert.Equal(t, "2006^V_WBC", obr.ServiceID)
}

func TestParseHL7ObservationRequestNil(t *testing.T) {
	obr := ParseHL7ObservationRequest(nil)
	assert.Equal(t, ObservationRequest{}, obr)
}

func TestParseHL7Acknowledgement(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||ACK^R01|2|P|2.3.1\rMSA|AA|1\r"
	msg, err := hl7.ParseMessage(text)
	require.NoError(t, err)

	msa := ParseHL7Acknowledgement(msg.FirstSegment("MSA"))
	assert.Equal(t, "AA", msa.Code)
	assert.Equal(t, "1", msa.ControlID)
}

func TestParseHL7OrderControl(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||ORM^O01|3|P|2.3.1\rORC|NW|ORDER-5\r"
	msg, err := hl7.ParseMessage(text)
	require.NoError(t, err)

	orc := ParseHL7OrderControl(msg.FirstSegment("ORC"))
	assert.Equal(t, "NW", orc.ControlCode)
	assert.Equal(t, "ORDER-5", orc.OrderNumber)
}
