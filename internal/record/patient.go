package record

import (
	"strings"
	"time"

	"github.com/AireshBhat/nramh-lis/internal/astm"
	"github.com/AireshBhat/nramh-lis/internal/hl7"
)

// Name is a structured patient name (spec.md §3).
type Name struct {
	Last   string
	First  string
	Middle string
	Suffix string
	Title  string
}

// Address is a structured patient address (spec.md §3, ASTM P field 11:
// street, _, _, city, state, zip, country).
type Address struct {
	Street  string
	City    string
	State   string
	Zip     string
	Country string
}

// Physicians groups the physician references a PatientRecord may carry.
type Physicians struct {
	Ordering  string
	Attending string
	Referring string
}

// PatientRecord is the canonical patient shape spec.md §3 defines.
type PatientRecord struct {
	PatientID  string
	Name       Name
	BirthDate  *time.Time
	Sex        string // M, F, or U
	Address    *Address
	Phones     []string
	Physicians Physicians
	Height     *float64
	Weight     *float64
}

// ParseASTMPatient builds a PatientRecord from an ASTM P record, per
// spec.md §4.3: id at field 3, name at 5, birth date at 7, sex at 8
// (default U), address at 11, phone at 13, attending physician at 9.
func ParseASTMPatient(rec astm.Record) PatientRecord {
	p := PatientRecord{
		PatientID: field(rec.Fields, 3),
		Sex:       "U",
	}

	p.Name = parseASTMName(field(rec.Fields, 5))

	if bd := field(rec.Fields, 7); bd != "" {
		if t, ok := ParseASTMTimestamp(bd); ok {
			p.BirthDate = &t
		}
	}

	if sex := strings.ToUpper(field(rec.Fields, 8)); sex == "M" || sex == "F" || sex == "U" {
		p.Sex = sex
	}

	if addr := field(rec.Fields, 11); addr != "" {
		p.Address = parseASTMAddress(addr)
	}

	if phone := field(rec.Fields, 13); phone != "" {
		p.Phones = append(p.Phones, phone)
	}

	p.Physicians.Attending = field(rec.Fields, 9)

	return p
}

// ParseHL7Patient builds a PatientRecord from a PID segment, per spec.md
// §4.3: set-id, identifier list (-> patient_id), name at 5, birth date at
// 7, sex at 8, address at 11, phone at 13. Height/weight are never carried
// on PID in this service's message set (SPEC_FULL.md §5.4), so they stay
// nil.
func ParseHL7Patient(pid *hl7.Segment) *PatientRecord {
	if pid == nil {
		return nil
	}

	p := PatientRecord{
		PatientID: firstIdentifier(pid.Field(3)),
		Sex:       "U",
	}

	p.Name = parseHL7Name(pid.Field(5))

	if bd := pid.Field(7); bd != "" {
		if t, ok := ParseASTMTimestamp(bd); ok {
			p.BirthDate = &t
		}
	}

	if sex := strings.ToUpper(pid.Field(8)); sex == "M" || sex == "F" || sex == "U" {
		p.Sex = sex
	}

	if addr := pid.Field(11); addr != "" {
		p.Address = parseHL7Address(addr)
	}

	if phone := pid.Field(13); phone != "" {
		p.Phones = append(p.Phones, phone)
	}

	return &p
}

func parseASTMName(raw string) Name {
	parts := strings.Split(raw, string(rune(astm.ComponentDelimiter)))
	return nameFromComponents(parts)
}

func parseHL7Name(raw string) Name {
	parts := strings.Split(raw, hl7.ComponentSep)
	return nameFromComponents(parts)
}

func nameFromComponents(parts []string) Name {
	n := Name{}
	if len(parts) > 0 {
		n.Last = parts[0]
	}
	if len(parts) > 1 {
		n.First = parts[1]
	}
	if len(parts) > 2 {
		n.Middle = parts[2]
	}
	if len(parts) > 3 {
		n.Suffix = parts[3]
	}
	if len(parts) > 4 {
		n.Title = parts[4]
	}
	return n
}

func parseASTMAddress(raw string) *Address {
	parts := strings.Split(raw, string(rune(astm.ComponentDelimiter)))
	return addressFromComponents(parts)
}

func parseHL7Address(raw string) *Address {
	parts := strings.Split(raw, hl7.ComponentSep)
	return addressFromComponents(parts)
}

// addressFromComponents maps street, _, _, city, state, zip, country
// (spec.md §4.3's ASTM field-11 layout, reused for HL7's PID-11 since both
// follow the same XAD-style component ordering).
func addressFromComponents(parts []string) *Address {
	get := func(i int) string {
		if i < len(parts) {
			return parts[i]
		}
		return ""
	}
	return &Address{
		Street:  get(0),
		City:    get(3),
		State:   get(4),
		Zip:     get(5),
		Country: get(6),
	}
}

// firstIdentifier returns the first repetition of an HL7 identifier-list
// field (PID-3 can repeat with ~), used as patient_id.
func firstIdentifier(raw string) string {
	if idx := strings.IndexByte(raw, '~'); idx >= 0 {
		raw = raw[:idx]
	}
	if idx := strings.IndexByte(raw, '^'); idx >= 0 {
		raw = raw[:idx]
	}
	return raw
}

func field(fields []string, idx int) string {
	if idx < 0 || idx >= len(fields) {
		return ""
	}
	return fields[idx]
}
