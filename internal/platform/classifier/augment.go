package classifier

import "regexp"

type substitution struct {
	re   *regexp.Regexp
	with string
}

// paraphrases are applied one at a time; each yields one variant per example.
var paraphrases = []substitution{
	{regexp.MustCompile(`\bPatient\b`), "Individual"},
	{regexp.MustCompile(`\bCHIEF COMPLAINT\b`), "Main Issue"},
}

// Augment returns the corpus followed by one paraphrased copy per
// substitution, all under the original labels. Variants identical to their
// source are kept so every label's weight scales evenly.
func Augment(texts, labels []string) ([]string, []string) {
	n := len(texts) * (1 + len(paraphrases))
	outTexts := make([]string, 0, n)
	outLabels := make([]string, 0, n)
	outTexts = append(outTexts, texts...)
	outLabels = append(outLabels, labels...)
	for i, text := range texts {
		for _, p := range paraphrases {
			outTexts = append(outTexts, p.re.ReplaceAllString(text, p.with))
			outLabels = append(outLabels, labels[i])
		}
	}
	return outTexts, outLabels
}
