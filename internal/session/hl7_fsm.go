package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"

	"github.com/AireshBhat/nramh-lis/internal/eventbus"
	"github.com/AireshBhat/nramh-lis/internal/hl7"
	"github.com/AireshBhat/nramh-lis/internal/record"
	"github.com/google/uuid"
)

// SenderIdentity fills MSH-5/6 of the AE reply sent when a message cannot
// be parsed at all. Replies to parsed messages echo the request's own
// MSH-3/4 there instead, per spec.md §4.2's build_ack layout.
type SenderIdentity struct {
	Application string
	Facility    string
}

// DefaultSenderIdentity matches the teacher's createAcknowledgment,
// which hardcodes "HL7SERVER"/"HOSPITAL" style identifiers.
var DefaultSenderIdentity = SenderIdentity{Application: "LIS", Facility: "HOSPITAL"}

const readChunkSize = 4096

// RunHL7 drives the simpler HL7/MLLP session loop (spec.md §4.5): read
// bytes into a per-session buffer, extract complete MLLP frames, parse and
// validate each, and ACK/NAK accordingly. Modeled on the teacher's
// HL7Server.handleClient loop, generalized from bufio.Scanner
// line-splitting to MLLP frame boundaries.
func RunHL7(ctx context.Context, sess *Session, bus *eventbus.Bus, logger *slog.Logger, identity SenderIdentity) error {
	defer bus.Publish(eventbus.DomainEvent{
		Kind:       eventbus.AnalyzerDisconnected,
		AnalyzerID: sess.AnalyzerID,
		SessionID:  sess.ID,
		RemoteAddr: sess.RemoteAddr,
	})

	var buf []byte
	chunk := make([]byte, readChunkSize)
	consecutiveTimeouts := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		sess.Conn.SetReadDeadline(sess.deadline())
		n, err := sess.Conn.Read(chunk)
		if err != nil {
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				consecutiveTimeouts++
				if consecutiveTimeouts >= maxConsecutiveTimeouts {
					logger.Info("hl7 session closed on repeated read timeout", "session_id", sess.ID)
					return nil
				}
				continue
			}
			if errors.Is(err, io.EOF) {
				logger.Info("hl7 session closed by peer", "session_id", sess.ID)
				return nil
			}
			logger.Warn("hl7 session transport error", "session_id", sess.ID, "error", err)
			return err
		}
		consecutiveTimeouts = 0
		sess.touch()
		buf = append(buf, chunk[:n]...)

		for {
			text, consumed, ok := hl7.Extract(buf)
			if !ok {
				if consumed > 0 {
					buf = buf[consumed:]
				}
				break
			}
			buf = buf[consumed:]
			processHL7Message(sess, text, bus, logger, identity)

			if sess.exceededRetries() {
				logger.Warn("hl7 session exceeded retry ceiling, closing", "session_id", sess.ID, "retry_count", sess.RetryCount)
				return nil
			}
		}
	}
}

// processHL7Message implements spec.md §4.5's per-message steps 1-3.
func processHL7Message(sess *Session, text []byte, bus *eventbus.Bus, logger *slog.Logger, identity SenderIdentity) {
	bus.Publish(eventbus.DomainEvent{
		Kind:            eventbus.WireMessageReceived,
		AnalyzerID:      sess.AnalyzerID,
		SessionID:       sess.ID,
		WireMessageKind: "HL7",
		RawMessage:      append([]byte(nil), text...),
	})

	msg, err := hl7.ParseMessage(string(text))
	if err != nil {
		logger.Warn("hl7 message parse failure", "session_id", sess.ID, "error", err)
		stub := &hl7.Message{Version: "2.3.1"}
		ack := hl7.BuildAck(stub, hl7.AckApplicationError, err.Error(), identity.Application, identity.Facility, uuid.NewString())
		sendHL7(sess.Conn, ack)
		sess.recordRetry()
		return
	}

	senderApp, senderFac := identity.Application, identity.Facility
	if msh := msg.FirstSegment("MSH"); msh != nil {
		senderApp, senderFac = msh.Field(2), msh.Field(3)
	}

	if validationErr := validateHL7Message(msg); validationErr != "" {
		logger.Warn("hl7 message validation failure", "session_id", sess.ID, "reason", validationErr)
		ack := hl7.BuildAck(msg, hl7.AckApplicationError, validationErr, senderApp, senderFac, uuid.NewString())
		sendHL7(sess.Conn, ack)
		sess.recordRetry()
		return
	}

	ack := hl7.BuildAck(msg, hl7.AckApplicationAccept, "", senderApp, senderFac, uuid.NewString())
	sendHL7(sess.Conn, ack)
	sess.resetRetries()

	pid := msg.FirstSegment("PID")
	if pid == nil && (msg.Type == "ORU^R01" || msg.Type == "OUL^R21") {
		logger.Warn("hl7 message missing PID", "session_id", sess.ID, "type", msg.Type)
	}

	var patient *eventbus.PatientPayload
	if p := record.ParseHL7Patient(pid); p != nil {
		patient = &eventbus.PatientPayload{PatientRecord: *p}
	}

	results := record.ExtractHL7Results(msg, sess.AnalyzerID)
	if len(results) == 0 {
		return
	}

	payloads := make([]eventbus.ResultPayload, 0, len(results))
	for _, r := range results {
		payloads = append(payloads, eventbus.ResultPayload{TestResult: r})
	}

	bus.Publish(eventbus.DomainEvent{
		Kind:       eventbus.ResultsProcessed,
		AnalyzerID: sess.AnalyzerID,
		SessionID:  sess.ID,
		Patient:    patient,
		Results:    payloads,
	})
}

// validateHL7Message implements spec.md §4.5 step 2. An empty return means
// the message is valid.
func validateHL7Message(msg *hl7.Message) string {
	if len(msg.Segments) == 0 || msg.Segments[0].Tag != "MSH" {
		return "message has no segments or first segment is not MSH"
	}
	if !hl7.SupportedMessageTypes[msg.Type] {
		return "unsupported message type: " + msg.Type
	}
	if msg.Type == "ORU^R01" || msg.Type == "OUL^R21" {
		if len(msg.SegmentsByTag("OBX")) == 0 {
			return "missing required OBX segment"
		}
	}
	return ""
}

func sendHL7(conn net.Conn, text string) {
	conn.Write(hl7.Wrap([]byte(text)))
}
