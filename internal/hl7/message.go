package hl7

import (
	"strings"

	"github.com/AireshBhat/nramh-lis/internal/lisrerr"
)

// Field/component/repetition/escape separators, per spec.md §1/§4.2.
const (
	FieldSep     = "|"
	ComponentSep = "^"
	RepeatSep    = "~"
	SubcompSep   = "&"
	EscapeChar   = "\\"
)

// ProcessingID values, per spec.md §3.
const (
	ProcessingProduction = "P"
	ProcessingQC         = "Q"
)

// SupportedMessageTypes is the allowlist spec.md §4.2 defines. Anything
// else is a validation error answered with NAK AE.
var SupportedMessageTypes = map[string]bool{
	"ORU^R01": true,
	"OUL^R21": true,
	"ORM^O01": true,
	"ORR^O02": true,
	"ACK":     true,
}

// qcServiceIDCodes flags OBR universal-service-id codes that mark a
// message as quality control rather than patient data (spec.md §4.2).
var qcServiceIDCodes = map[string]bool{
	"QC":   true,
	"1002": true,
	"1003": true,
	"1004": true,
	"1005": true,
	"1006": true,
}

// Segment is one CR-delimited line of an HL7 message, split on the field
// separator. Fields[0] is the segment tag itself.
type Segment struct {
	Tag    string
	Fields []string
}

// Field returns the 1-indexed field value (HL7 fields are conventionally
// numbered from the segment tag, so Field(1) is Fields[1]), or "" if the
// segment is too short or nil.
func (s *Segment) Field(n int) string {
	if s == nil || n < 0 || n >= len(s.Fields) {
		return ""
	}
	return s.Fields[n]
}

// Message is a parsed HL7 message: an MSH-derived header plus the ordered
// segment list, per spec.md §3.
type Message struct {
	Type         string // e.g. "ORU^R01"
	ControlID    string
	ProcessingID string // P or Q
	Version      string
	Segments     []Segment
	Raw          string
}

// SegmentsByTag returns every segment with the given tag, in order.
func (m *Message) SegmentsByTag(tag string) []*Segment {
	var out []*Segment
	for i := range m.Segments {
		if m.Segments[i].Tag == tag {
			out = append(out, &m.Segments[i])
		}
	}
	return out
}

// FirstSegment returns the first segment with the given tag, or nil.
func (m *Message) FirstSegment(tag string) *Segment {
	for i := range m.Segments {
		if m.Segments[i].Tag == tag {
			return &m.Segments[i]
		}
	}
	return nil
}

// ParseMessage splits text on CR into segments, parses the MSH header
// fields, and determines whether the message is QC or patient processing.
// The first segment must be MSH. Supported-type checking is left to the
// session driver (spec.md §4.5 step 2), since an unsupported type still
// needs a control ID to build its NAK.
func ParseMessage(text string) (*Message, error) {
	lines := strings.Split(text, "\r")
	msg := &Message{Raw: text, ProcessingID: ProcessingProduction}

	for _, line := range lines {
		line = strings.TrimRight(line, "\n")
		if line == "" {
			continue
		}
		fields := strings.Split(line, FieldSep)
		msg.Segments = append(msg.Segments, Segment{Tag: fields[0], Fields: fields})
	}

	if len(msg.Segments) == 0 {
		return nil, lisrerr.New(lisrerr.KindValidation, "empty message")
	}
	if msg.Segments[0].Tag != "MSH" {
		return nil, lisrerr.New(lisrerr.KindValidation, "first segment is not MSH")
	}

	// MSH is the one segment where Fields[n] doesn't line up with field
	// number n: MSH-1 is the field separator itself, consumed by the
	// split rather than appearing as its own element, so every later
	// field is shifted down by one relative to a normal segment
	// (Fields[1] is MSH-2, Fields[8] is MSH-9, and so on).
	msh := &msg.Segments[0]
	msg.Type = msh.Field(8)
	msg.ControlID = msh.Field(9)
	if p := msh.Field(10); p != "" {
		msg.ProcessingID = p
	}
	msg.Version = msh.Field(11)

	if isQCMessage(msg) {
		msg.ProcessingID = ProcessingQC
	}

	return msg, nil
}

func isQCMessage(msg *Message) bool {
	if !strings.HasPrefix(msg.Type, "OUL") && !strings.HasPrefix(msg.Type, "ORU") {
		return false
	}
	obr := msg.FirstSegment("OBR")
	if obr == nil {
		return false
	}
	serviceID := obr.Field(4)
	for _, component := range strings.Split(serviceID, ComponentSep) {
		if qcServiceIDCodes[component] {
			return true
		}
	}
	return false
}
