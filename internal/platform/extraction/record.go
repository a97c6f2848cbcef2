package extraction

// Gender values produced by the extractor.
const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

// Vital sign keys. A record's Vitals map only ever uses these keys.
const (
	VitalBP    = "BP"
	VitalTemp  = "Temp"
	VitalPulse = "Pulse"
	VitalRR    = "RR"
	VitalO2    = "O2"
)

// Contact-Info keys.
const (
	ContactPhone = "phone"
	ContactEmail = "email"
)

// NoAllergies is the single element of Allergies when nothing was detected
// or an explicit "no known allergy" phrase is present.
const NoAllergies = "None"

// ClinicalRecord is the structured result of extracting one encounter text.
//
// Absence is represented per field kind:
//
//	singular (Name, Age, Gender, ReasonForVisit)     -> nil (JSON null)
//	list (Symptoms, MedicalHistory, CurrentMedications, LabResults) -> empty slice
//	Allergies                                        -> ["None"]
//	mappings (ContactInfo, Vitals)                   -> empty map
//
// The JSON keys are consumed by downstream intake systems and must not change.
type ClinicalRecord struct {
	Name               *string           `json:"Name"`
	Age                *int              `json:"Age"`
	Gender             *string           `json:"Gender"`
	ContactInfo        map[string]string `json:"Contact-Info"`
	ReasonForVisit     *string           `json:"Reason For Visit"`
	Symptoms           []string          `json:"Symptoms"`
	Notes              string            `json:"Notes"`
	MedicalHistory     []string          `json:"Medical History"`
	Allergies          []string          `json:"Allergies"`
	CurrentMedications []string          `json:"Current Medications"`
	Vitals             map[string]string `json:"Vitals"`
	LabResults         []string          `json:"Lab Results"`
}

// PopulatedFields counts fields that carry extracted information. Notes is
// always present and is not counted; Allergies counts only when it holds
// something other than the "None" sentinel.
func (r *ClinicalRecord) PopulatedFields() int {
	n := 0
	for _, f := range r.fieldPresence() {
		if f.present {
			n++
		}
	}
	return n
}

// MissingFields returns the JSON names of fields that resolved to their
// absence sentinel.
func (r *ClinicalRecord) MissingFields() []string {
	var missing []string
	for _, f := range r.fieldPresence() {
		if !f.present {
			missing = append(missing, f.name)
		}
	}
	return missing
}

type presence struct {
	name    string
	present bool
}

func (r *ClinicalRecord) fieldPresence() []presence {
	return []presence{
		{"Name", r.Name != nil},
		{"Age", r.Age != nil},
		{"Gender", r.Gender != nil},
		{"Contact-Info", len(r.ContactInfo) > 0},
		{"Reason For Visit", r.ReasonForVisit != nil},
		{"Symptoms", len(r.Symptoms) > 0},
		{"Medical History", len(r.MedicalHistory) > 0},
		{"Allergies", !IsNoAllergies(r.Allergies)},
		{"Current Medications", len(r.CurrentMedications) > 0},
		{"Vitals", len(r.Vitals) > 0},
		{"Lab Results", len(r.LabResults) > 0},
	}
}

// IsNoAllergies reports whether allergies is the ["None"] sentinel.
func IsNoAllergies(allergies []string) bool {
	return len(allergies) == 1 && allergies[0] == NoAllergies
}
