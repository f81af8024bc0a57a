package session

import (
	"context"
	"io"
	"log/slog"
	"net"
	"testing"
	"time"

	"github.com/AireshBhat/nramh-lis/internal/astm"
	"github.com/AireshBhat/nramh-lis/internal/eventbus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type capturingSink struct {
	events chan eventbus.DomainEvent
}

func newCapturingSink() *capturingSink {
	return &capturingSink{events: make(chan eventbus.DomainEvent, 32)}
}

func (s *capturingSink) Publish(_ context.Context, event eventbus.DomainEvent) bool {
	s.events <- event
	return true
}

func readByteWithTimeout(t *testing.T, conn net.Conn) byte {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 1)
	_, err := conn.Read(buf)
	require.NoError(t, err)
	return buf[0]
}

func TestRunASTMFullTransmission(t *testing.T) {
	server, client := net.Pipe()
	sess := New("astm-analyzer", server)
	bus := eventbus.New(0, discardLogger())
	sink := newCapturingSink()
	bus.Subscribe(sink)
	defer bus.Close()

	done := make(chan error, 1)
	go func() { done <- RunASTM(context.Background(), sess, bus, discardLogger()) }()

	_, err := client.Write([]byte{astm.ENQ})
	require.NoError(t, err)
	assert.Equal(t, astm.ACK, readByteWithTimeout(t, client))

	frame := astm.Encode(astm.Frame{
		Sequence:   0,
		Payload:    []byte("R|1|^^^GLU|98|mg/dL|70-110|N"),
		Terminator: astm.TerminatorETX,
	})
	_, err = client.Write(frame)
	require.NoError(t, err)
	assert.Equal(t, astm.ACK, readByteWithTimeout(t, client))

	_, err = client.Write([]byte{astm.EOT})
	require.NoError(t, err)
	assert.Equal(t, astm.ACK, readByteWithTimeout(t, client))

	var wireEvent, resultsEvent eventbus.DomainEvent
	for i := 0; i < 2; i++ {
		select {
		case e := <-sink.events:
			if e.Kind == eventbus.WireMessageReceived {
				wireEvent = e
			} else if e.Kind == eventbus.ResultsProcessed {
				resultsEvent = e
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for events")
		}
	}

	assert.Equal(t, "ASTM", wireEvent.WireMessageKind)
	require.Len(t, resultsEvent.Results, 1)
	assert.Equal(t, "GLU", resultsEvent.Results[0].TestID)
	assert.Equal(t, "98", resultsEvent.Results[0].Value.String())

	server.Close()
	client.Close()
	<-done
}

func TestRunASTMBadCRNaksAndRetries(t *testing.T) {
	server, client := net.Pipe()
	sess := New("astm-analyzer", server)
	bus := eventbus.New(0, discardLogger())
	defer bus.Close()

	done := make(chan error, 1)
	go func() { done <- RunASTM(context.Background(), sess, bus, discardLogger()) }()

	_, err := client.Write([]byte{astm.ENQ})
	require.NoError(t, err)
	readByteWithTimeout(t, client)

	// STX, seq, payload, ETX, two checksum bytes, then a non-hex byte
	// instead of CR — the checksum field never terminates cleanly.
	malformed := []byte{astm.STX, '0'}
	malformed = append(malformed, []byte("P|1")...)
	malformed = append(malformed, astm.ETX, 'F', 'F', 'X')
	_, err = client.Write(malformed)
	require.NoError(t, err)
	assert.Equal(t, astm.NAK, readByteWithTimeout(t, client))

	server.Close()
	client.Close()
	<-done
	assert.Equal(t, 1, sess.RetryCount)
}
