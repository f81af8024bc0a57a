package record

import (
	"strings"
	"time"
)

// HeaderRecord is the parsed ASTM H record (spec.md §4.3): field 2 holds
// the delimiter definitions the sender claims to use, field 12 the
// processing id, field 13 the version, field 14 a UTC timestamp.
type HeaderRecord struct {
	Delimiters   string
	ProcessingID string
	Version      string
	Timestamp    *time.Time
}

// ParseASTMHeader builds a HeaderRecord from an H record's fields.
func ParseASTMHeader(fields []string) HeaderRecord {
	h := HeaderRecord{
		Delimiters:   field(fields, 2),
		ProcessingID: field(fields, 12),
		Version:      field(fields, 13),
	}
	if ts := field(fields, 14); ts != "" {
		if t, ok := ParseASTMTimestamp(ts); ok {
			h.Timestamp = &t
		}
	}
	return h
}

// OrderRecord is the parsed ASTM O record. Only the fields the rest of the
// system consumes (sample id, test ids) are surfaced; the record is
// otherwise logged for traceability, per spec.md §4.3's scope.
type OrderRecord struct {
	SampleID string
	TestIDs  []string
}

// ParseASTMOrder builds an OrderRecord from an O record's fields: sample
// id at field 2, requested test(s) at field 5 (repeat-delimited).
func ParseASTMOrder(fields []string) OrderRecord {
	o := OrderRecord{SampleID: field(fields, 2)}
	if tests := field(fields, 5); tests != "" {
		o.TestIDs = strings.Split(tests, string(rune(repeatDelimiterRune)))
	}
	return o
}

// CommentRecord is the parsed ASTM C record: free-text comment at field 3.
type CommentRecord struct {
	Text string
}

// ParseASTMComment builds a CommentRecord from a C record's fields.
func ParseASTMComment(fields []string) CommentRecord {
	return CommentRecord{Text: field(fields, 3)}
}

// QueryRecord is the parsed ASTM Q record, used by instruments that poll
// for worklist information. This service does not answer queries (spec.md
// §1 Non-goals: no bidirectional query protocol); the record is parsed
// only so it can be logged rather than rejected as unknown.
type QueryRecord struct {
	StartingRange string
}

// ParseASTMQuery builds a QueryRecord from a Q record's fields.
func ParseASTMQuery(fields []string) QueryRecord {
	return QueryRecord{StartingRange: field(fields, 2)}
}

// repeatDelimiterRune has the same value as astm.RepeatDelimiter, which
// result.go uses for the same split.
const repeatDelimiterRune = '\\'

// ParseASTMTimestamp parses the ASTM/HL7 shared timestamp grammar: a
// YYYYMMDDHHMMSS string, tolerantly truncated from the right (date-only,
// date+hour, date+hour+minute, etc., per original_source's parse_datetime).
// Truncated fields default to the start of their unit (month/day default
// to 1, time fields default to 0).
func ParseASTMTimestamp(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}
	// Some senders append a timezone offset or decimal fraction; this
	// service only needs wall-clock precision, so anything past the
	// 14-digit YYYYMMDDHHMMSS core is ignored.
	digits := raw
	for i, r := range raw {
		if r < '0' || r > '9' {
			digits = raw[:i]
			break
		}
	}
	if len(digits) < 8 {
		return time.Time{}, false
	}
	if len(digits) > 14 {
		digits = digits[:14]
	}
	// Odd-length tails (a stray half-byte) truncate to the last complete
	// two-digit unit; the grammar is always whole year/month/day/hour/
	// minute/second groups.
	if len(digits)%2 != 0 {
		digits = digits[:len(digits)-1]
	}

	layout := "20060102150405"[:len(digits)]
	t, err := time.Parse(layout, digits)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
