package extraction

import "regexp"

// Regex fragments shared by the list-field cascades.
const (
	// sentenceEnd terminates a lazily captured value: a period followed by
	// whitespace or end of text, a newline, or end of text. Decimal points
	// ("38.1", "0.5mg") never terminate.
	sentenceEnd = `(?:\.(?:\s|$)|\n|$)`

	// sentenceRest runs to the end of the current sentence or line, stepping
	// over decimal points.
	sentenceRest = `(?:[^.\n]|\.\d)*`

	// namePhrase is two or more capitalised words. Under (?i) the case
	// classes accept any letters, which is what lets a header match names
	// written in capitals.
	namePhrase = `([A-Z][a-z]+(?:\s+[A-Z][a-z]+)+)`

	phoneDigits = `\d{3}[-.]?\d{3}[-.]?\d{4}`
)

// Singular cascades run case-insensitive and multi-line; list cascades are
// case-insensitive only, so $ anchors at end of text.
const (
	singularFlags = `(?im)`
	listFlags     = `(?i)`
)

// Selector picks the value out of a match. submatches holds the strings of
// each group (index 0 is the whole match); ok[i] reports whether group i
// participated in the match.
type Selector func(submatches []string, ok []bool) (string, bool)

// Group selects capture group n.
func Group(n int) Selector {
	return func(sub []string, ok []bool) (string, bool) {
		if n >= len(sub) || !ok[n] {
			return "", false
		}
		return sub[n], true
	}
}

// FirstGroup selects the first participating capture group, falling back to
// the whole match when no group captured.
func FirstGroup(sub []string, ok []bool) (string, bool) {
	for i := 1; i < len(sub); i++ {
		if ok[i] {
			return sub[i], true
		}
	}
	return sub[0], true
}

// Pattern is one cascade entry.
type Pattern struct {
	Re     *regexp.Regexp
	Select Selector
}

// Cascade is an ordered list of patterns for one field. The declaration
// order is the tie-break: structured-header patterns come before narrative
// fallbacks.
type Cascade []Pattern

// VitalPattern binds a vital key to its pattern. Capture group 1 is the value.
type VitalPattern struct {
	Key string
	Re  *regexp.Regexp
}

// Library is the static, per-field pattern configuration. It is built once
// and never mutated; a *Library is safe for concurrent use.
type Library struct {
	Name  Cascade
	Age   Cascade
	Phone Cascade
	Email Cascade

	MaleTokens   []*regexp.Regexp
	FemaleTokens []*regexp.Regexp

	Symptoms       Cascade
	MedicalHistory Cascade
	Medications    Cascade
	LabResults     Cascade
	Allergies      Cascade
	AllergyNone    Cascade

	VitalsSection *regexp.Regexp
	Vitals        []VitalPattern

	// Split separates list values into fragments.
	Split *regexp.Regexp
	// StopPrefixes drop fragments that are boilerplate lead-ins.
	StopPrefixes []string
}

func singular(expr string, sel Selector) Pattern {
	return Pattern{Re: regexp.MustCompile(singularFlags + expr), Select: sel}
}

func list(expr string) Pattern {
	return Pattern{Re: regexp.MustCompile(listFlags + expr), Select: FirstGroup}
}

func tokens(exprs ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(exprs))
	for i, e := range exprs {
		out[i] = regexp.MustCompile(`(?i)` + e)
	}
	return out
}

// NewLibrary builds the default pattern library.
func NewLibrary() *Library {
	return &Library{
		Name: Cascade{
			singular(`(?:NAME|Patient Name):\s*`+namePhrase+`(?:\s*\n|\s*$|\s*,)`, Group(1)),
			singular(`Patient\s+`+namePhrase+`\s+(?:arrived|is|was|presents|complains|reports)`, Group(1)),
			singular(`Patient\s+`+namePhrase+`\s*\(\s*\d{1,3}\s*(?:years?|yo|y\.o\.)`, Group(1)),
			singular(namePhrase+`\s*(?:\(|\s+is\s+)?\d{1,3}\s*(?:year|yo|y\.o\.|years)`, Group(1)),
			singular(`(?:^|\n)\s*`+namePhrase+`(?:\n|,|\s+(?:is|was|arrived|presents|complains|reports))`, Group(1)),
		},
		Age: Cascade{
			singular(`(\d{1,3})\s*(?:years?\s*old|yo|y\.o\.?)`, Group(1)),
			singular(`age:?\s*(\d{1,3})`, Group(1)),
			singular(`\((\d{1,3})\s*(?:yo|year)`, Group(1)),
		},
		Phone: Cascade{
			singular(`(?:Phone|Contact|TEL)(?:\s*(?:number|#))?:?\s*(`+phoneDigits+`)`, Group(1)),
			singular(`(`+phoneDigits+`)`, Group(1)),
			singular(`(\+\d{1,3}[-.]?\d{3}[-.]?\d{3}[-.]?\d{4})`, Group(1)),
		},
		Email: Cascade{
			singular(`(?:Email|e-mail):\s*([\w.-]+@[\w.-]+\.\w+)|[\w.-]+@[\w.-]+\.\w+`, FirstGroup),
		},

		MaleTokens:   tokens(`\bmale\b`, `\bM\b`, `gentleman`, `sir`),
		FemaleTokens: tokens(`\bfemale\b`, `\bF\b`, `lady`, `madam`),

		Symptoms: Cascade{
			list(`(?:CHIEF COMPLAINT|SYMPTOMS|complaint|Main Issue):\s*(.*?)` + sentenceEnd),
			list(`(?:presents with|complaining of)\s*(.*?)` + sentenceEnd),
			list(`(?:Additional )?Symptoms?:\s*(.*?)` + sentenceEnd),
			list(`(productive cough` + sentenceRest + `)`),
			list(`((?:fever|fatigue|sputum)` + sentenceRest + `)`),
		},
		MedicalHistory: Cascade{
			list(`(?:MEDICAL HISTORY|Past Medical History|PMH):\s*(.*?)` + sentenceEnd),
			list(`history includes\s+(.*?)` + sentenceEnd),
			list(`diagnosed with\s+(.*?)` + sentenceEnd),
			list(`PMH:\s*(.*?)` + sentenceEnd),
			list(`smoker|seasonal allerg(?:y|ies)`),
		},
		Medications: Cascade{
			list(`(?:CURRENT MEDICATIONS|MEDICATIONS|Medications|Meds):\s*(.*?)` + sentenceEnd),
			list(`\b(?:currently taking|using)\s+(.*?)` + sentenceEnd),
			list(`Meds:\s*(.*?)` + sentenceEnd),
			list(`(?:Ventolin|Flonase)` + sentenceRest),
		},
		LabResults: Cascade{
			list(`(?:Lab Results|Labs|Tests|LABS ORDERED):\s*(.*?)` + sentenceEnd),
			list(`Tests Ordered:\s*(.*?)` + sentenceEnd),
			list(`Tests:\s*(.*?)` + sentenceEnd),
			list(`(?:Rapid strep|CXR)` + sentenceRest),
		},
		Allergies: Cascade{
			list(`(?:ALLERGIES|Known Allergies):\s*(.*?)` + sentenceEnd),
			list(`allergic to\s+(.*?)` + sentenceEnd),
			list(`Known Allergies:?\s*(.*?)` + sentenceEnd),
			list(`PCN|NKDA`),
		},
		AllergyNone: Cascade{
			list(`(?:ALLERGIES|Known Allergies):\s*(?:None|NKDA|no known drug allergies|no known allergies)`),
			list(`NKDA|no known drug allergies|no known allergies`),
		},

		VitalsSection: regexp.MustCompile(`(?i)\b(?:VS|Vitals|Vital signs):(?:[^.]|\.\d)*`),
		Vitals: []VitalPattern{
			{VitalBP, regexp.MustCompile(`(?i)\b(?:BP|Blood Pressure)\b:?\s*(\d{2,3}/\d{2,3})`)},
			{VitalTemp, regexp.MustCompile(`(?i)\b(?:Temperature|Temp|T)\b:?\s*(\d{2,3}(?:\.\d+)?)`)},
			{VitalPulse, regexp.MustCompile(`(?i)\b(?:Pulse|Heart Rate|HR|P)\b:?\s*(\d{2,3})`)},
			{VitalRR, regexp.MustCompile(`(?i)\b(?:RR|Respiratory Rate)\b:?\s*(\d{1,2})`)},
			{VitalO2, regexp.MustCompile(`(?i)\bO2\s*(?:sat|saturation)?\s*(?:is|of)?\s*(\d{1,3}%)`)},
		},

		Split:        regexp.MustCompile(`,|\sand\s|;`),
		StopPrefixes: []string{"patient", "presents", "complaining", "test"},
	}
}

// defaultLibrary is loaded once at process start.
var defaultLibrary = NewLibrary()

// DefaultLibrary returns the shared default pattern library.
func DefaultLibrary() *Library {
	return defaultLibrary
}
