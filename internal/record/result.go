package record

import (
	"strings"
	"time"

	"github.com/AireshBhat/nramh-lis/internal/astm"
	"github.com/AireshBhat/nramh-lis/internal/hl7"
	"github.com/google/uuid"
)

// ResultStatus mirrors spec.md §3's Final|Preliminary|Correction tag.
type ResultStatus string

const (
	StatusFinal        ResultStatus = "Final"
	StatusPreliminary  ResultStatus = "Preliminary"
	StatusCorrection   ResultStatus = "Correction"
)

// TestResult is the canonical result shape spec.md §3 defines.
type TestResult struct {
	ResultID        string
	TestID          string
	SampleID        string
	Value           Value
	Units           string
	ReferenceRange  *ReferenceRange
	AbnormalFlags   []string
	Status          ResultStatus
	CompletedAt     *time.Time
	AnalyzerID      string
}

// ParseASTMResult builds a TestResult from an ASTM R record, per spec.md
// §4.3: test id at 2 (keeping the last ^-component as the canonical
// name), value at 3, units at 4, reference range at 5, abnormal flag at
// 6, sample id at 12 (generated if empty), instrument id at 17, status
// defaults Final.
func ParseASTMResult(rec astm.Record, analyzerID string) TestResult {
	r := TestResult{
		ResultID:   uuid.NewString(),
		TestID:     lastComponent(field(rec.Fields, 2), string(rune(astm.ComponentDelimiter))),
		Value:      ParseValue(field(rec.Fields, 3)),
		Units:      field(rec.Fields, 4),
		AnalyzerID: analyzerID,
		Status:     StatusFinal,
	}

	if rr := field(rec.Fields, 5); rr != "" {
		parsed := ParseReferenceRange(rr)
		r.ReferenceRange = &parsed
	}

	if flag := field(rec.Fields, 6); flag != "" {
		r.AbnormalFlags = strings.Split(flag, string(rune(astm.RepeatDelimiter)))
	}

	r.SampleID = field(rec.Fields, 12)
	if r.SampleID == "" {
		r.SampleID = uuid.NewString()
	}

	if inst := field(rec.Fields, 17); inst != "" && r.AnalyzerID == "" {
		r.AnalyzerID = inst
	}

	return r
}

// ParseHL7Result builds a TestResult from an OBX segment, per spec.md
// §4.3: value-type at 2, observation identifier at 3 (code^text^system),
// value at 5, units at 6, reference range at 7, abnormal flags at 8
// (~-separated), status at 11, observed-at at 14. sampleID is threaded in
// from the enclosing OBR since OBX carries none of its own.
func ParseHL7Result(obx *hl7.Segment, sampleID, analyzerID string) TestResult {
	valueType := obx.Field(2)
	idComponents := strings.Split(obx.Field(3), hl7.ComponentSep)
	code := componentAt(idComponents, 0)
	text := componentAt(idComponents, 1)

	r := TestResult{
		ResultID:   uuid.NewString(),
		TestID:     CanonicalParameterName(code, text),
		Units:      obx.Field(6),
		SampleID:   sampleID,
		AnalyzerID: analyzerID,
		Status:     StatusFinal,
	}

	if valueType == "ED" {
		r.Value = BinaryValue([]byte(obx.Field(5)))
	} else {
		r.Value = ParseValue(obx.Field(5))
	}

	if rr := obx.Field(7); rr != "" {
		parsed := ParseReferenceRange(rr)
		r.ReferenceRange = &parsed
	}

	if flags := obx.Field(8); flags != "" {
		r.AbnormalFlags = strings.Split(flags, hl7.RepeatSep)
	}

	if status := obx.Field(11); status != "" {
		r.Status = obxStatusToResultStatus(status)
	}

	if observedAt := obx.Field(14); observedAt != "" {
		if t, ok := ParseASTMTimestamp(observedAt); ok {
			r.CompletedAt = &t
		}
	}

	if r.SampleID == "" {
		r.SampleID = uuid.NewString()
	}

	return r
}

// obxStatusToResultStatus maps the HL7 OBX-11 single-letter result-status
// code to this service's ResultStatus. "F" final and "C" correction map
// directly; anything else (preliminary "P", incomplete "I", etc.) is
// treated as Preliminary so downstream consumers never over-trust an
// unfinished result.
func obxStatusToResultStatus(code string) ResultStatus {
	switch code {
	case "F":
		return StatusFinal
	case "C":
		return StatusCorrection
	default:
		return StatusPreliminary
	}
}

func lastComponent(raw, sep string) string {
	parts := strings.Split(raw, sep)
	if len(parts) == 0 {
		return raw
	}
	return parts[len(parts)-1]
}

func componentAt(parts []string, i int) string {
	if i < len(parts) {
		return parts[i]
	}
	return ""
}
