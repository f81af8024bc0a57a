package record

import "github.com/AireshBhat/nramh-lis/internal/hl7"

// ObservationRequest is the parsed OBR segment: the sample id each OBX in
// the same message set belongs to, and the service-id components used
// upstream for QC classification (internal/hl7.ParseMessage already makes
// that call; this type just carries the fields along for logging and for
// threading sample_id into ParseHL7Result).
type ObservationRequest struct {
	SampleID  string
	ServiceID string
}

// ParseHL7ObservationRequest builds an ObservationRequest from an OBR
// segment: sample/filler id at field 2 or 3 (whichever is populated),
// universal service id at field 4.
func ParseHL7ObservationRequest(obr *hl7.Segment) ObservationRequest {
	if obr == nil {
		return ObservationRequest{}
	}
	sampleID := obr.Field(3)
	if sampleID == "" {
		sampleID = obr.Field(2)
	}
	return ObservationRequest{
		SampleID:  sampleID,
		ServiceID: obr.Field(4),
	}
}

// Acknowledgement is the parsed MSA segment, kept for acknowledgement
// logging only (spec.md §4.3).
type Acknowledgement struct {
	Code      string
	ControlID string
}

// ParseHL7Acknowledgement builds an Acknowledgement from an MSA segment.
func ParseHL7Acknowledgement(msa *hl7.Segment) Acknowledgement {
	if msa == nil {
		return Acknowledgement{}
	}
	return Acknowledgement{
		Code:      msa.Field(1),
		ControlID: msa.Field(2),
	}
}

// OrderControl is the parsed ORC segment, kept for order-control logging
// only (spec.md §4.3: this service does not act on worklist flows).
type OrderControl struct {
	ControlCode string
	OrderNumber string
}

// ParseHL7OrderControl builds an OrderControl from an ORC segment.
func ParseHL7OrderControl(orc *hl7.Segment) OrderControl {
	if orc == nil {
		return OrderControl{}
	}
	return OrderControl{
		ControlCode: orc.Field(1),
		OrderNumber: orc.Field(2),
	}
}

// ExtractHL7Results walks every OBX segment in msg and builds a TestResult
// for each, threading the sample id from the nearest preceding OBR
// (spec.md §4.5 step 3). If no OBR precedes a run of OBX segments, the
// message's control id is used as a fallback sample id so results are
// never silently dropped.
func ExtractHL7Results(msg *hl7.Message, analyzerID string) []TestResult {
	results := make([]TestResult, 0, len(msg.Segments))
	sampleID := msg.ControlID

	for i := range msg.Segments {
		seg := &msg.Segments[i]
		switch seg.Tag {
		case "OBR":
			obr := ParseHL7ObservationRequest(seg)
			if obr.SampleID != "" {
				sampleID = obr.SampleID
			}
		case "OBX":
			results = append(results, ParseHL7Result(seg, sampleID, analyzerID))
		}
	}

	return results
}
