package classifier

import (
	"math"
	"regexp"
	"sort"
	"strings"
)

var tokenPattern = regexp.MustCompile(`\b\w\w+\b`)

// SparseVector is a document in feature space. Idx is sorted ascending.
type SparseVector struct {
	Idx []int
	Val []float64
}

// At returns the value of feature f.
func (v SparseVector) At(f int) float64 {
	i := sort.SearchInts(v.Idx, f)
	if i < len(v.Idx) && v.Idx[i] == f {
		return v.Val[i]
	}
	return 0
}

// Vectorizer is a TF-IDF bag of word n-grams. English stop words are removed
// before n-grams are formed, the vocabulary keeps the MaxFeatures most
// frequent terms, and output vectors are L2-normalised.
type Vectorizer struct {
	MaxFeatures int
	NGramMax    int

	vocab map[string]int
	terms []string
	idf   []float64
}

// NewVectorizer creates an unfitted vectorizer.
func NewVectorizer(maxFeatures, ngramMax int) *Vectorizer {
	return &Vectorizer{MaxFeatures: maxFeatures, NGramMax: ngramMax}
}

// Analyze returns the n-gram terms of text in document order.
func (v *Vectorizer) Analyze(text string) []string {
	var words []string
	for _, tok := range tokenPattern.FindAllString(strings.ToLower(text), -1) {
		if _, stop := englishStopWords[tok]; stop {
			continue
		}
		words = append(words, tok)
	}

	maxN := v.NGramMax
	if maxN < 1 {
		maxN = 1
	}
	terms := make([]string, 0, len(words)*maxN)
	for n := 1; n <= maxN; n++ {
		for i := 0; i+n <= len(words); i++ {
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}

// Fit learns the vocabulary and inverse document frequencies from docs.
func (v *Vectorizer) Fit(docs []string) {
	total := make(map[string]int)
	df := make(map[string]int)
	for _, doc := range docs {
		seen := make(map[string]struct{})
		for _, term := range v.Analyze(doc) {
			total[term]++
			if _, ok := seen[term]; !ok {
				seen[term] = struct{}{}
				df[term]++
			}
		}
	}

	terms := make([]string, 0, len(total))
	for term := range total {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if total[terms[i]] != total[terms[j]] {
			return total[terms[i]] > total[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if v.MaxFeatures > 0 && len(terms) > v.MaxFeatures {
		terms = terms[:v.MaxFeatures]
	}
	sort.Strings(terms)

	n := float64(len(docs))
	v.terms = terms
	v.vocab = make(map[string]int, len(terms))
	v.idf = make([]float64, len(terms))
	for i, term := range terms {
		v.vocab[term] = i
		v.idf[i] = math.Log((1+n)/(1+float64(df[term]))) + 1
	}
}

// Transform maps text into the fitted feature space. Terms outside the
// vocabulary are ignored.
func (v *Vectorizer) Transform(text string) SparseVector {
	counts := make(map[int]float64)
	for _, term := range v.Analyze(text) {
		if idx, ok := v.vocab[term]; ok {
			counts[idx]++
		}
	}

	out := SparseVector{Idx: make([]int, 0, len(counts)), Val: make([]float64, 0, len(counts))}
	for idx := range counts {
		out.Idx = append(out.Idx, idx)
	}
	sort.Ints(out.Idx)

	var norm float64
	for _, idx := range out.Idx {
		w := counts[idx] * v.idf[idx]
		out.Val = append(out.Val, w)
		norm += w * w
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for i := range out.Val {
			out.Val[i] /= norm
		}
	}
	return out
}

// VocabularySize returns the number of fitted features.
func (v *Vectorizer) VocabularySize() int {
	return len(v.terms)
}

// Terms returns the fitted vocabulary in feature-index order.
func (v *Vectorizer) Terms() []string {
	return append([]string(nil), v.terms...)
}
