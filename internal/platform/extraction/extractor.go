package extraction

import (
	"strconv"
	"strings"
)

// Extractor applies a Library's cascades to text. It holds no mutable state
// and is safe for concurrent use.
type Extractor struct {
	lib *Library
}

// NewExtractor creates an extractor over lib. A nil lib uses the default
// library.
func NewExtractor(lib *Library) *Extractor {
	if lib == nil {
		lib = DefaultLibrary()
	}
	return &Extractor{lib: lib}
}

// Library returns the pattern library the extractor runs.
func (e *Extractor) Library() *Library {
	return e.lib
}

// -- Singular fields --

func (e *Extractor) Name(text string) *string {
	v, ok := e.lib.Name.First(text)
	if !ok {
		return nil
	}
	v = strings.TrimSpace(v)
	return &v
}

func (e *Extractor) Age(text string) *int {
	v, ok := e.lib.Age.First(text)
	if !ok {
		return nil
	}
	age, err := strconv.Atoi(v)
	if err != nil {
		return nil
	}
	return &age
}

func (e *Extractor) Gender(text string) *string {
	g, ok := CanonicalGender(text, e.lib.MaleTokens, e.lib.FemaleTokens)
	if !ok {
		return nil
	}
	return &g
}

// ContactInfo returns phone and email when found. The map is never nil.
func (e *Extractor) ContactInfo(text string) map[string]string {
	info := make(map[string]string)
	if v, ok := e.lib.Phone.First(text); ok {
		info[ContactPhone] = v
	}
	if v, ok := e.lib.Email.First(text); ok {
		info[ContactEmail] = v
	}
	return info
}

// -- List fields --

func (e *Extractor) Symptoms(text string) []string {
	return e.collect(e.lib.Symptoms, text)
}

func (e *Extractor) MedicalHistory(text string) []string {
	return e.collect(e.lib.MedicalHistory, text)
}

func (e *Extractor) Medications(text string) []string {
	return e.collect(e.lib.Medications, text)
}

func (e *Extractor) LabResults(text string) []string {
	return e.collect(e.lib.LabResults, text)
}

// Allergies never returns an empty list. An explicit "no known allergy"
// phrase anywhere in the text wins over any allergy names found elsewhere.
func (e *Extractor) Allergies(text string) []string {
	if e.lib.AllergyNone.Any(text) {
		return []string{NoAllergies}
	}
	found := e.collect(e.lib.Allergies, text)
	if len(found) == 0 {
		return []string{NoAllergies}
	}
	return found
}

func (e *Extractor) collect(c Cascade, text string) []string {
	var fragments []string
	for _, raw := range c.All(text) {
		fragments = append(fragments, SplitFragments(raw, e.lib.Split, e.lib.StopPrefixes)...)
	}
	return Dedup(fragments)
}

// -- Vitals --

// Vitals searches every vitals section ("Vitals:", "VS:", "Vital signs:")
// in order, a later section overriding an earlier one, then the whole text
// for any vital still missing. Fahrenheit temperatures are converted to
// Celsius. The map is never nil.
func (e *Extractor) Vitals(text string) map[string]string {
	vitals := make(map[string]string)
	for _, section := range e.lib.VitalsSection.FindAllString(text, -1) {
		e.scanVitals(section, vitals, true)
	}
	e.scanVitals(text, vitals, false)

	if t, ok := vitals[VitalTemp]; ok {
		vitals[VitalTemp] = NormalizeTemperature(t)
	}
	return vitals
}

func (e *Extractor) scanVitals(window string, into map[string]string, overwrite bool) {
	for _, vp := range e.lib.Vitals {
		if _, done := into[vp.Key]; done && !overwrite {
			continue
		}
		if m := vp.Re.FindStringSubmatch(window); m != nil {
			into[vp.Key] = m[1]
		}
	}
}
