package hl7

import (
	"fmt"
	"strings"
	"time"
)

// AckCode is an HL7 MSA.1 acknowledgement code (spec.md §6).
type AckCode string

const (
	AckApplicationAccept AckCode = "AA"
	AckApplicationError  AckCode = "AE"
	AckApplicationReject AckCode = "AR"
)

// nowFunc is overridable in tests so ACK timestamps are deterministic.
var nowFunc = time.Now

// BuildAck constructs the text of an ACK/NAK reply to request, following
// the layout in spec.md §4.2:
//
//	MSH|^~\&|LIS|HOSPITAL|<sender_app>|<sender_fac>|<now>||ACK^<trigger>^ACK|<new_control_id>|P|<version>
//	MSA|<code>|<request.control_id>|<note>
//
// senderApp/senderFac identify the original message's sending system (MSH
// fields 3/4, echoed back as MSH fields 5/6 of the reply per HL7 convention
// — teacher's createAcknowledgment reads these from the request the same
// way). newControlID should be a freshly generated ID for the ACK itself.
func BuildAck(request *Message, code AckCode, note string, senderApp, senderFac, newControlID string) string {
	trigger := triggerFromType(request.Type)
	msh := fmt.Sprintf("MSH|^~\\&|LIS|HOSPITAL|%s|%s|%s||ACK^%s^ACK|%s|P|%s",
		senderApp, senderFac, nowFunc().Format("20060102150405"), trigger, newControlID, request.Version)
	msa := fmt.Sprintf("MSA|%s|%s|%s", code, request.ControlID, note)
	return msh + "\r" + msa + "\r"
}

func triggerFromType(msgType string) string {
	if idx := strings.IndexByte(msgType, '^'); idx >= 0 {
		return msgType[idx+1:]
	}
	return msgType
}
