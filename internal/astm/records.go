package astm

import "strings"

// Record is one CR-delimited line of a reassembled ASTM message, already
// split into |-separated fields (empty fields preserved). Component and
// repeat splitting is left to the internal/record parsers, per spec.md §4.1.
type Record struct {
	Type   string
	Fields []string
}

// SplitRecords splits a reassembled message payload on CR into records,
// then each record on the field delimiter. Empty trailing records (from a
// trailing CR) are dropped.
func SplitRecords(payload []byte) []Record {
	lines := strings.Split(string(payload), string(rune(CR)))
	records := make([]Record, 0, len(lines))
	for _, line := range lines {
		if line == "" {
			continue
		}
		fields := strings.Split(line, string(rune(FieldDelimiter)))
		records = append(records, Record{
			Type:   fields[0],
			Fields: fields,
		})
	}
	return records
}

// TerminatorRecord builds the canonical "L|1|N" normal-termination record
// (original_source/src-tauri/src/protocol/astm/mod.rs's create_terminator_record).
func TerminatorRecord() Record {
	return Record{Type: "L", Fields: []string{"L", "1", "N"}}
}
