package hl7

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMessageORU(t *testing.T) {
	text := "MSH|^~\\&|BF-6900|HOSPITAL|LIS|HOSPITAL|20231205120000||ORU^R01|123|P|2.3.1\r" +
		"PID|1||P123\rOBR|1||S1\rOBX|1|NM|2006^V_WBC^LOCAL||6.8|10^9/L|4-10|N|||F\r"

	msg, err := ParseMessage(text)
	require.NoError(t, err)
	assert.Equal(t, "ORU^R01", msg.Type)
	assert.Equal(t, "123", msg.ControlID)
	assert.Equal(t, ProcessingProduction, msg.ProcessingID)
	assert.Equal(t, "2.3.1", msg.Version)
	require.NotNil(t, msg.FirstSegment("PID"))
	assert.Equal(t, "P123", msg.FirstSegment("PID").Field(3))
	require.Len(t, msg.SegmentsByTag("OBX"), 1)
}

func TestParseMessageRejectsNonMSHFirstSegment(t *testing.T) {
	_, err := ParseMessage("PID|1||P123\r")
	require.Error(t, err)
}

func TestParseMessageRejectsEmpty(t *testing.T) {
	_, err := ParseMessage("")
	require.Error(t, err)
}

func TestParseMessageFlagsQualityControlByServiceID(t *testing.T) {
	text := "MSH|^~\\&|A|B|C|D|now||OUL^R21|5|P|2.4\rOBR|1|||1002^QC TEST\r"
	msg, err := ParseMessage(text)
	require.NoError(t, err)
	assert.Equal(t, ProcessingQC, msg.ProcessingID)
}

func TestSupportedMessageTypesAllowlist(t *testing.T) {
	assert.True(t, SupportedMessageTypes["ORU^R01"])
	assert.True(t, SupportedMessageTypes["OUL^R21"])
	assert.False(t, SupportedMessageTypes["ADT^A08"])
}
