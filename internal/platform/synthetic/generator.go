// Package synthetic generates labelled encounter notes for exercising and
// scoring the extractor, and section-labelled sentences for the classifier.
package synthetic

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"

	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
)

// Style selects the note template.
type Style string

const (
	StyleStructured Style = "structured"
	StyleNarrative  Style = "narrative"
	StyleMixed      Style = "mixed"
)

// ParseStyle validates a style name.
func ParseStyle(s string) (Style, error) {
	switch Style(s) {
	case StyleStructured, StyleNarrative, StyleMixed:
		return Style(s), nil
	}
	return "", fmt.Errorf("unknown style %q (want structured, narrative or mixed)", s)
}

// Truth is what an ideal extraction of the generated text yields.
type Truth struct {
	Name               string            `json:"Name" yaml:"name"`
	Age                int               `json:"Age" yaml:"age"`
	Gender             string            `json:"Gender" yaml:"gender"`
	Phone              string            `json:"Phone" yaml:"phone"`
	Symptoms           []string          `json:"Symptoms" yaml:"symptoms"`
	Vitals             map[string]string `json:"Vitals" yaml:"vitals"`
	LabResults         []string          `json:"Lab Results" yaml:"lab_results"`
	Allergies          []string          `json:"Allergies" yaml:"allergies"`
	MedicalHistory     []string          `json:"Medical History" yaml:"medical_history"`
	CurrentMedications []string          `json:"Current Medications" yaml:"current_medications"`
}

// Record is one generated note and its ground truth.
type Record struct {
	Style Style  `json:"style" yaml:"style"`
	Text  string `json:"text" yaml:"text"`
	Truth Truth  `json:"truth" yaml:"truth"`
}

// Generator produces reproducible synthetic notes. It is safe for
// concurrent use; output order under concurrency follows call order.
type Generator struct {
	mu    sync.Mutex
	rng   *rand.Rand
	style Style
}

// NewGenerator returns a generator seeded with seed. Two generators with the
// same seed and style produce the same sequence.
func NewGenerator(seed int64, style Style) *Generator {
	if style == "" {
		style = StyleMixed
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), style: style}
}

// GenerateN returns n records.
func (g *Generator) GenerateN(n int) []Record {
	out := make([]Record, n)
	for i := range out {
		out[i] = g.Generate()
	}
	return out
}

// Generate returns the next record.
func (g *Generator) Generate() Record {
	g.mu.Lock()
	defer g.mu.Unlock()

	r := g.rng
	gender := "male"
	if r.Intn(2) == 1 {
		gender = "female"
	}
	main := pick(r, symptoms)
	extras := sampleExcluding(r, symptoms, r.Intn(3), main)
	bp := fmt.Sprintf("%d/%d", 90+r.Intn(51), 60+r.Intn(31))
	temp := fmt.Sprintf("%.1f", 36+r.Float64()*2)
	pulse := fmt.Sprintf("%d", 60+r.Intn(41))

	t := Truth{
		Name:               pick(r, firstNames) + " " + pick(r, lastNames),
		Age:                18 + r.Intn(68),
		Phone:              fmt.Sprintf("%d-%d-%d", 100+r.Intn(900), 100+r.Intn(900), 1000+r.Intn(9000)),
		Symptoms:           append([]string{main}, extras...),
		Vitals:             map[string]string{extraction.VitalBP: bp, extraction.VitalTemp: temp, extraction.VitalPulse: pulse},
		LabResults:         sample(r, labPanels, 1+r.Intn(len(labPanels))),
		Allergies:          sample(r, allergens, r.Intn(3)),
		MedicalHistory:     sample(r, conditions, 1+r.Intn(3)),
		CurrentMedications: sample(r, medications, 1+r.Intn(3)),
	}
	if gender == "male" {
		t.Gender = extraction.GenderMale
	} else {
		t.Gender = extraction.GenderFemale
	}
	if len(t.Allergies) == 0 {
		t.Allergies = []string{extraction.NoAllergies}
	}

	style := g.style
	if style == StyleMixed {
		style = StyleStructured
		if r.Intn(2) == 1 {
			style = StyleNarrative
		}
	}

	vitals := fmt.Sprintf("BP: %s, Temp: %s, Pulse: %s", bp, temp, pulse)
	labs := "Lab Results: " + strings.Join(t.LabResults, ", ")
	allergies := strings.Join(t.Allergies, ", ")

	var b strings.Builder
	switch style {
	case StyleNarrative:
		fmt.Fprintf(&b, "Patient %s (%d years old %s) arrived complaining of %s. ", t.Name, t.Age, gender, main)
		if len(extras) > 0 {
			fmt.Fprintf(&b, "Symptoms: %s. ", strings.Join(extras, ", "))
		}
		fmt.Fprintf(&b, "Contact: %s. %s %s. Allergies: %s. ", t.Phone, vitals, labs, allergies)
		fmt.Fprintf(&b, "Medical history includes %s. Currently taking %s.",
			strings.Join(t.MedicalHistory, ", "), strings.Join(t.CurrentMedications, ", "))
	default:
		fmt.Fprintf(&b, "NAME: %s\nAGE: %d\nGENDER: %s\nCONTACT: %s\nCHIEF COMPLAINT: %s\n", t.Name, t.Age, gender, t.Phone, main)
		if len(extras) > 0 {
			fmt.Fprintf(&b, "SYMPTOMS: %s\n", strings.Join(extras, ", "))
		}
		fmt.Fprintf(&b, "%s\n%s\nALLERGIES: %s\nMEDICAL HISTORY: %s\nCURRENT MEDICATIONS: %s",
			vitals, labs, allergies, strings.Join(t.MedicalHistory, ", "), strings.Join(t.CurrentMedications, ", "))
	}

	return Record{Style: style, Text: b.String(), Truth: t}
}

func pick(r *rand.Rand, from []string) string {
	return from[r.Intn(len(from))]
}

// sample draws k distinct values in draw order.
func sample(r *rand.Rand, from []string, k int) []string {
	return sampleExcluding(r, from, k, "")
}

func sampleExcluding(r *rand.Rand, from []string, k int, skip string) []string {
	out := make([]string, 0, k)
	for _, i := range r.Perm(len(from)) {
		if len(out) == k {
			break
		}
		if from[i] == skip {
			continue
		}
		out = append(out, from[i])
	}
	return out
}
