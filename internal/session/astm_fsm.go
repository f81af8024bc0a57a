package session

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/AireshBhat/nramh-lis/internal/astm"
	"github.com/AireshBhat/nramh-lis/internal/eventbus"
	"github.com/AireshBhat/nramh-lis/internal/record"
)

// astmState is the ASTM session FSM's current state, per spec.md §4.4.
type astmState int

const (
	astmWaitingForEnq astmState = iota
	astmWaitingForFrame
	astmProcessingFrame
	astmWaitingForChecksum
	astmWaitingForLF
)

// maxConsecutiveTimeouts bounds how many read timeouts in a row a session
// tolerates before the driver gives up on the link, per spec.md §4.4's
// "read times out repeatedly" termination clause.
const maxConsecutiveTimeouts = 3

// RunASTM drives the ASTM E1394 session state machine over sess's
// connection until the socket closes, the link goes unrecoverable, or ctx
// is cancelled. Modeled on the teacher's handleClient read loop
// (bufio-driven, deadline reset per byte of activity), generalized from a
// line-oriented scanner to the byte-level contention protocol spec.md
// §4.4 requires.
func RunASTM(ctx context.Context, sess *Session, bus *eventbus.Bus, logger *slog.Logger) error {
	defer bus.Publish(eventbus.DomainEvent{
		Kind:       eventbus.AnalyzerDisconnected,
		AnalyzerID: sess.AnalyzerID,
		SessionID:  sess.ID,
		RemoteAddr: sess.RemoteAddr,
	})

	reader := bufio.NewReader(sess.Conn)
	state := astmWaitingForEnq
	var frameBuf []byte
	var messageBuf []byte
	consecutiveTimeouts := 0
	checksumBytesSeen := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		sess.Conn.SetReadDeadline(sess.deadline())
		b, err := reader.ReadByte()
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				consecutiveTimeouts++
				if consecutiveTimeouts >= maxConsecutiveTimeouts {
					logger.Info("astm session closed on repeated read timeout", "session_id", sess.ID)
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				logger.Info("astm session closed by peer", "session_id", sess.ID)
				return nil
			}
			logger.Warn("astm session transport error", "session_id", sess.ID, "error", err)
			return err
		}
		consecutiveTimeouts = 0
		sess.touch()

		// Nested STX: discard whatever frame is in flight and restart.
		if b == astm.STX && (state == astmProcessingFrame || state == astmWaitingForChecksum ||
			state == astmWaitingForLF) {
			logger.Warn("astm nested STX, discarding in-flight frame", "session_id", sess.ID)
			frameBuf = []byte{astm.STX}
			checksumBytesSeen = 0
			state = astmProcessingFrame
			continue
		}

		switch state {
		case astmWaitingForEnq:
			if b == astm.ENQ {
				writeByte(sess.Conn, astm.ACK)
				state = astmWaitingForFrame
			}
			// Any other byte: log and stay (spec.md §4.4 S0).

		case astmWaitingForFrame:
			switch b {
			case astm.STX:
				frameBuf = []byte{astm.STX}
				state = astmProcessingFrame
			case astm.EOT:
				finalizeASTMMessage(sess, messageBuf, bus, logger)
				writeByte(sess.Conn, astm.ACK)
				messageBuf = nil
				state = astmWaitingForEnq
			}
			// Other bytes ignored.

		case astmProcessingFrame:
			frameBuf = append(frameBuf, b)
			if b == astm.ETX || b == astm.ETB {
				state = astmWaitingForChecksum
			}

		case astmWaitingForChecksum:
			// The checksum field is one or two ASCII bytes (E1394's
			// two-hex-digit norm, or a vendor's single legacy digit —
			// astm.Decode tolerates both), with no explicit length
			// prefix: CR marks its end. So this state keeps consuming
			// checksum bytes until CR arrives rather than assuming a
			// fixed width, per the checksum-width decision recorded in
			// DESIGN.md.
			if b == astm.CR {
				frameBuf = append(frameBuf, b)
				checksumBytesSeen = 0
				state = astmWaitingForLF
				break
			}
			checksumBytesSeen++
			if checksumBytesSeen > 2 {
				logger.Warn("astm checksum field too long, missing CR", "session_id", sess.ID)
				writeByte(sess.Conn, astm.NAK)
				sess.recordRetry()
				frameBuf = nil
				checksumBytesSeen = 0
				state = astmWaitingForFrame
				break
			}
			frameBuf = append(frameBuf, b)

		case astmWaitingForLF:
			if b != astm.LF {
				logger.Warn("astm frame missing LF", "session_id", sess.ID)
				writeByte(sess.Conn, astm.NAK)
				sess.recordRetry()
				frameBuf = nil
				state = astmWaitingForFrame
				break
			}
			frameBuf = append(frameBuf, b)

			frame, decodeErr := astm.Decode(frameBuf)
			if decodeErr != nil {
				logger.Warn("astm frame rejected", "session_id", sess.ID, "error", decodeErr)
				writeByte(sess.Conn, astm.NAK)
				sess.recordRetry()
			} else {
				if !astm.VerifyChecksum(frame) {
					logger.Warn("astm frame checksum mismatch, accepting per vendor tolerance", "session_id", sess.ID)
				}
				messageBuf = append(messageBuf, frame.Payload...)
				bus.Publish(eventbus.DomainEvent{
					Kind:            eventbus.WireMessageReceived,
					AnalyzerID:      sess.AnalyzerID,
					SessionID:       sess.ID,
					WireMessageKind: "ASTM",
					RawMessage:      append([]byte(nil), frame.Payload...),
				})
				writeByte(sess.Conn, astm.ACK)
				sess.resetRetries()
			}
			frameBuf = nil
			state = astmWaitingForFrame
		}

		if sess.exceededRetries() {
			logger.Warn("astm session exceeded retry ceiling, closing", "session_id", sess.ID, "retry_count", sess.RetryCount)
			return nil
		}
	}
}

func writeByte(conn net.Conn, b byte) {
	conn.Write([]byte{b})
}

// finalizeASTMMessage splits the reassembled payload into records, builds
// a PatientRecord and any TestResults, and publishes ResultsProcessed, per
// spec.md §4.4 S1's EOT transition.
func finalizeASTMMessage(sess *Session, payload []byte, bus *eventbus.Bus, logger *slog.Logger) {
	if len(payload) == 0 {
		return
	}

	records := astm.SplitRecords(payload)
	var patient *eventbus.PatientPayload
	var results []eventbus.ResultPayload

	for _, rec := range records {
		switch rec.Type {
		case "P":
			p := record.ParseASTMPatient(rec)
			patient = &eventbus.PatientPayload{PatientRecord: p}
		case "R":
			r := record.ParseASTMResult(rec, sess.AnalyzerID)
			results = append(results, eventbus.ResultPayload{TestResult: r})
		case "H", "O", "C", "Q", "L":
			// Logged for traceability only; spec.md §4.3 scopes these to
			// logging, not result construction.
			logger.Debug("astm non-result record", "session_id", sess.ID, "type", rec.Type)
		default:
			logger.Warn("astm unknown record type", "session_id", sess.ID, "type", rec.Type)
		}
	}

	if len(results) == 0 {
		return
	}

	bus.Publish(eventbus.DomainEvent{
		Kind:       eventbus.ResultsProcessed,
		AnalyzerID: sess.AnalyzerID,
		SessionID:  sess.ID,
		Patient:    patient,
		Results:    results,
	})
}
