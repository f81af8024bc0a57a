package astm

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for seq := uint8(0); seq < 8; seq++ {
		f := Frame{
			Sequence:   seq,
			Payload:    []byte("H|\\^&||||||||||P|E 1394-97|20231205120000"),
			Terminator: TerminatorETX,
		}
		encoded := Encode(f)
		decoded, err := Decode(encoded)
		require.NoError(t, err)
		assert.Equal(t, f.Sequence, decoded.Sequence)
		assert.Equal(t, f.Payload, decoded.Payload)
		assert.Equal(t, f.Terminator, decoded.Terminator)
		assert.True(t, VerifyChecksum(decoded))
	}
}

func TestEncodeUsesModulo256HexChecksum(t *testing.T) {
	f := Frame{Sequence: 1, Payload: []byte("P|1|2|3"), Terminator: TerminatorETX}
	encoded := Encode(f)
	// STX + seq + payload + ETX + 2 hex digits + CR LF
	assert.Equal(t, STX, encoded[0])
	assert.Len(t, encoded, 1+1+len(f.Payload)+1+2+2)
	// '1' + "P|1|2|3" + ETX sums to 654; 654 mod 256 = 0x8E.
	assert.Equal(t, "8E", string(encoded[len(encoded)-4:len(encoded)-2]))
}

func TestDecodeToleratesLegacyMod8Checksum(t *testing.T) {
	// single-digit checksum, as emitted by the mod-8 vendor convention
	raw := []byte{STX, '1', 'H', '|', '1', ETX, '5', CR, LF}
	f, err := Decode(raw)
	require.NoError(t, err)
	assert.True(t, f.ChecksumLegacyMod8)
	assert.Equal(t, uint8(1), f.Sequence)
}

func TestDecodeToleratesBadChecksumAsWarningNotRejection(t *testing.T) {
	f := Frame{Sequence: 2, Payload: []byte("R|1|^^^GLU|95"), Terminator: TerminatorETX}
	encoded := Encode(f)
	// corrupt the checksum bytes (last 4 bytes are checksum+CR+LF)
	corrupted := append([]byte(nil), encoded...)
	corrupted[len(corrupted)-4] = 'F'
	corrupted[len(corrupted)-3] = 'F'

	decoded, err := Decode(corrupted)
	require.NoError(t, err)
	assert.False(t, VerifyChecksum(decoded))
}

func TestDecodeMissingSTX(t *testing.T) {
	_, err := Decode([]byte{'1', 'H', ETX, '0', '0', CR, LF})
	require.Error(t, err)
}

func TestDecodeMissingTerminator(t *testing.T) {
	_, err := Decode([]byte{STX, '1', 'H', '|', '1'})
	require.Error(t, err)
}

func TestDecodeFrameTooShort(t *testing.T) {
	_, err := Decode([]byte{STX, '1'})
	require.Error(t, err)
}

func TestDecodeHandlesMissingTrailingCRLFAsWarning(t *testing.T) {
	f := Frame{Sequence: 3, Payload: []byte("L|1|N"), Terminator: TerminatorETX}
	encoded := Encode(f)
	// strip the trailing CR LF
	noCRLF := encoded[:len(encoded)-2]
	decoded, err := Decode(noCRLF)
	require.NoError(t, err)
	assert.Equal(t, f.Payload, decoded.Payload)
}

func TestSplitRecordsDropsEmptyTrailingRecord(t *testing.T) {
	payload := []byte("H|\\^&\rP|1|2\rR|1|^^^GLU|95\r")
	records := SplitRecords(payload)
	require.Len(t, records, 3)
	assert.Equal(t, "H", records[0].Type)
	assert.Equal(t, "P", records[1].Type)
	assert.Equal(t, "R", records[2].Type)
}

func TestSplitRecordsPreservesEmptyFields(t *testing.T) {
	records := SplitRecords([]byte("P|1||3|"))
	require.Len(t, records, 1)
	assert.Equal(t, []string{"P", "1", "", "3", ""}, records[0].Fields)
}
