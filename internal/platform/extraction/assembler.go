package extraction

// Assembler runs every field extractor over one text and builds the record.
type Assembler struct {
	ex *Extractor
}

// NewAssembler creates an assembler. A nil extractor uses the default
// library.
func NewAssembler(ex *Extractor) *Assembler {
	if ex == nil {
		ex = NewExtractor(nil)
	}
	return &Assembler{ex: ex}
}

// Assemble extracts a ClinicalRecord from text. It never fails: fields with
// no match resolve to their absence sentinel. Notes is always text verbatim.
func (a *Assembler) Assemble(text string) *ClinicalRecord {
	symptoms := a.ex.Symptoms(text)

	rec := &ClinicalRecord{
		Name:               a.ex.Name(text),
		Age:                a.ex.Age(text),
		Gender:             a.ex.Gender(text),
		ContactInfo:        a.ex.ContactInfo(text),
		Symptoms:           symptoms,
		Notes:              text,
		MedicalHistory:     a.ex.MedicalHistory(text),
		Allergies:          a.ex.Allergies(text),
		CurrentMedications: a.ex.Medications(text),
		Vitals:             a.ex.Vitals(text),
		LabResults:         a.ex.LabResults(text),
	}
	if len(symptoms) > 0 {
		reason := symptoms[0]
		rec.ReasonForVisit = &reason
	}
	return rec
}

var defaultAssembler = NewAssembler(nil)

// Extract assembles a record from text with the default library.
func Extract(text string) *ClinicalRecord {
	return defaultAssembler.Assemble(text)
}
