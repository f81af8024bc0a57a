package record

// hematologyCodes maps vendor observation-identifier codes (HL7 OBX-3
// components; ParseASTMResult does not consult it) to canonical parameter
// names, per
// spec.md §4.3. Modeled on the flat lookup tables in the teacher's
// driver/serial/type.go (DRI subrecord/message-type codes), which favors
// one big const-keyed map over a generated enum.
var hematologyCodes = map[string]string{
	"2006": "V_WBC",
	"2007": "V_RBC",
	"2008": "V_HGB",
	"2009": "V_HCT",
	"2010": "V_MCV",
	"2011": "V_MCH",
	"2012": "V_MCHC",
	"2013": "V_PLT",
	"2014": "V_RDW",
	"2015": "V_PDW",
	"2016": "V_MPV",
	"2017": "V_LYM_PCT",
	"2018": "V_MID_PCT",
	"2019": "V_GRAN_PCT",
	"2020": "V_LYM_ABS",
	"2021": "V_MID_ABS",
	"2022": "V_GRAN_ABS",
	"2031": "V_CRP",
	"2032": "V_HS_CRP",
	"2101": "RBCHistogram.PNG",
	"2102": "WBCHistogram.PNG",
	"2103": "PLTHistogram.PNG",
}

// CanonicalParameterName looks up the vendor code from an observation
// identifier component triple (code^text^system). Unknown codes fall
// through to the human-readable text component, per spec.md §4.3.
func CanonicalParameterName(code, text string) string {
	if name, ok := hematologyCodes[code]; ok {
		return name
	}
	if text != "" {
		return text
	}
	return code
}
