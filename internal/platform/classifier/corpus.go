package classifier

import (
	"bytes"
	"embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed corpus/sections.yaml
var corpusFS embed.FS

// Example is one labelled training sentence.
type Example struct {
	Text  string `yaml:"text" json:"text"`
	Label string `yaml:"label" json:"label"`
}

// Corpus is an ordered set of training examples.
type Corpus struct {
	Examples []Example `yaml:"examples" json:"examples"`
}

// ParseCorpus decodes a YAML corpus. Unknown keys are rejected.
func ParseCorpus(data []byte) (*Corpus, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	var c Corpus
	if err := dec.Decode(&c); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedCorpus, err)
	}
	if len(c.Examples) == 0 {
		return nil, fmt.Errorf("%w: no examples", ErrMalformedCorpus)
	}
	for i, ex := range c.Examples {
		if ex.Text == "" || ex.Label == "" {
			return nil, fmt.Errorf("%w: example %d needs both text and label", ErrMalformedCorpus, i)
		}
	}
	return &c, nil
}

// LoadCorpus reads a YAML corpus file from disk.
func LoadCorpus(path string) (*Corpus, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading corpus %s: %w", path, err)
	}
	return ParseCorpus(data)
}

// DefaultCorpus returns the built-in section corpus.
func DefaultCorpus() *Corpus {
	data, err := corpusFS.ReadFile("corpus/sections.yaml")
	if err != nil {
		panic(fmt.Sprintf("classifier: embedded corpus missing: %v", err))
	}
	c, err := ParseCorpus(data)
	if err != nil {
		panic(fmt.Sprintf("classifier: embedded corpus invalid: %v", err))
	}
	return c
}

// Add appends examples to the corpus.
func (c *Corpus) Add(examples ...Example) {
	c.Examples = append(c.Examples, examples...)
}

// Split returns parallel text and label slices.
func (c *Corpus) Split() ([]string, []string) {
	texts := make([]string, len(c.Examples))
	labels := make([]string, len(c.Examples))
	for i, ex := range c.Examples {
		texts[i] = ex.Text
		labels[i] = ex.Label
	}
	return texts, labels
}
