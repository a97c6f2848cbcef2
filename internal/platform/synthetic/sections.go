package synthetic

import (
	"fmt"
	"strings"

	"github.com/Inreet-Kaur/capstone/internal/platform/classifier"
	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
)

// Section labels emitted by SectionCorpus.
const (
	LabelSymptoms       = "symptoms"
	LabelMedicalHistory = "medical_history"
	LabelMedications    = "medications"
	LabelAllergies      = "allergies"
	LabelVitals         = "vitals"
	LabelLabResults     = "lab_results"
	LabelDemographics   = "demographics"
)

// SectionCorpus generates n records and breaks each into one labelled
// sentence per section, seven examples per record.
func (g *Generator) SectionCorpus(n int) *classifier.Corpus {
	corp := &classifier.Corpus{Examples: make([]classifier.Example, 0, 7*n)}
	for _, rec := range g.GenerateN(n) {
		t := rec.Truth
		allergies := "Allergies: " + strings.Join(t.Allergies, ", ")
		if extraction.IsNoAllergies(t.Allergies) {
			allergies = "No known drug allergies"
		}
		corp.Add(
			classifier.Example{
				Label: LabelDemographics,
				Text:  fmt.Sprintf("%s, %d years old %s, contact %s", t.Name, t.Age, strings.ToLower(t.Gender), t.Phone),
			},
			classifier.Example{Label: LabelSymptoms, Text: "Patient presents with " + strings.Join(t.Symptoms, " and ")},
			classifier.Example{
				Label: LabelVitals,
				Text: fmt.Sprintf("BP: %s, Temp: %s, Pulse: %s",
					t.Vitals[extraction.VitalBP], t.Vitals[extraction.VitalTemp], t.Vitals[extraction.VitalPulse]),
			},
			classifier.Example{Label: LabelLabResults, Text: "Lab Results: " + strings.Join(t.LabResults, ", ")},
			classifier.Example{Label: LabelAllergies, Text: allergies},
			classifier.Example{Label: LabelMedicalHistory, Text: "Medical history includes " + strings.Join(t.MedicalHistory, ", ")},
			classifier.Example{Label: LabelMedications, Text: "Currently taking " + strings.Join(t.CurrentMedications, ", ")},
		)
	}
	return corp
}
