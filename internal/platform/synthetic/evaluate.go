package synthetic

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
)

// Fields scored by Evaluate, in report order. Names match the record's JSON
// keys.
var evaluatedFields = []string{
	"Name", "Age", "Gender", "Contact-Info", "Symptoms", "Vitals",
	"Lab Results", "Allergies", "Medical History", "Current Medications",
}

// Report holds per-field recall over a generated sample.
type Report struct {
	Samples int                `json:"samples"`
	Recall  map[string]float64 `json:"recall"`
}

// Fields returns the scored field names in report order.
func (r Report) Fields() []string {
	return append([]string(nil), evaluatedFields...)
}

// WriteTable writes a two-column recall table.
func (r Report) WriteTable(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 8, 2, ' ', 0)
	fmt.Fprintln(tw, "FIELD\tRECALL")
	for _, f := range evaluatedFields {
		fmt.Fprintf(tw, "%s\t%.3f\n", f, r.Recall[f])
	}
	fmt.Fprintf(tw, "samples\t%d\n", r.Samples)
	return tw.Flush()
}

// Evaluate generates n records, extracts each with a, and scores recall.
// Singular fields score 1 on an exact match. Symptoms score 1 when the main
// complaint is present. Other list fields and vitals score the fraction of
// truth items recovered. A nil assembler uses the default library.
func Evaluate(g *Generator, n int, a *extraction.Assembler) Report {
	if a == nil {
		a = extraction.NewAssembler(nil)
	}
	sums := make(map[string]float64, len(evaluatedFields))
	for i := 0; i < n; i++ {
		rec := g.Generate()
		got := a.Assemble(rec.Text)
		for f, s := range Score(rec.Truth, got) {
			sums[f] += s
		}
	}

	rep := Report{Samples: n, Recall: make(map[string]float64, len(evaluatedFields))}
	for _, f := range evaluatedFields {
		if n > 0 {
			rep.Recall[f] = sums[f] / float64(n)
		}
	}
	return rep
}

// Score compares one extraction against its truth.
func Score(t Truth, got *extraction.ClinicalRecord) map[string]float64 {
	s := make(map[string]float64, len(evaluatedFields))
	s["Name"] = boolScore(got.Name != nil && *got.Name == t.Name)
	s["Age"] = boolScore(got.Age != nil && *got.Age == t.Age)
	s["Gender"] = boolScore(got.Gender != nil && *got.Gender == t.Gender)
	s["Contact-Info"] = boolScore(got.ContactInfo[extraction.ContactPhone] == t.Phone)
	s["Symptoms"] = boolScore(len(t.Symptoms) > 0 && contains(got.Symptoms, t.Symptoms[0]))
	s["Lab Results"] = fraction(t.LabResults, got.LabResults)
	s["Allergies"] = fraction(t.Allergies, got.Allergies)
	s["Medical History"] = fraction(t.MedicalHistory, got.MedicalHistory)
	s["Current Medications"] = fraction(t.CurrentMedications, got.CurrentMedications)

	matched := 0
	for k, v := range t.Vitals {
		if got.Vitals[k] == v {
			matched++
		}
	}
	if len(t.Vitals) > 0 {
		s["Vitals"] = float64(matched) / float64(len(t.Vitals))
	} else {
		s["Vitals"] = 1
	}
	return s
}

func boolScore(ok bool) float64 {
	if ok {
		return 1
	}
	return 0
}

func fraction(want, got []string) float64 {
	if len(want) == 0 {
		return 1
	}
	hit := 0
	for _, w := range want {
		if contains(got, w) {
			hit++
		}
	}
	return float64(hit) / float64(len(want))
}

// contains matches items case-insensitively after trimming.
func contains(list []string, s string) bool {
	s = strings.TrimSpace(s)
	for _, v := range list {
		if strings.EqualFold(strings.TrimSpace(v), s) {
			return true
		}
	}
	return false
}
