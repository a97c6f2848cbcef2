// Package classifier assigns short clinical sentences to a section label
// such as "symptoms" or "medications". It pairs a TF-IDF n-gram vectorizer
// with a random forest.
package classifier

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"
)

var (
	// ErrUntrainedModel is returned by Classify before a successful Train.
	ErrUntrainedModel = errors.New("classifier: model is not trained")
	// ErrMalformedCorpus is returned by Train for unusable training input.
	ErrMalformedCorpus = errors.New("classifier: malformed training corpus")
)

// Options configures vectorization and the forest.
type Options struct {
	Trees       int
	MaxFeatures int
	NGramMax    int
	Seed        int64
}

// DefaultOptions returns 100 trees over at most 5000 uni/bi/tri-gram features.
func DefaultOptions() Options {
	return Options{Trees: 100, MaxFeatures: 5000, NGramMax: 3, Seed: 42}
}

// TrainStats summarises a completed training run.
type TrainStats struct {
	Examples int
	Features int
	Labels   []string
	Trees    int
	Duration time.Duration
}

type model struct {
	vec    *Vectorizer
	forest *Forest
	labels []string
}

// SectionClassifier is safe for concurrent use. Classify calls proceed
// against the last trained model while a new Train is running.
type SectionClassifier struct {
	opts Options

	trainMu sync.Mutex
	mu      sync.RWMutex
	m       *model
}

// New creates an untrained classifier. Zero option fields take defaults.
func New(opts Options) *SectionClassifier {
	def := DefaultOptions()
	if opts.Trees < 1 {
		opts.Trees = def.Trees
	}
	if opts.MaxFeatures < 1 {
		opts.MaxFeatures = def.MaxFeatures
	}
	if opts.NGramMax < 1 {
		opts.NGramMax = def.NGramMax
	}
	return &SectionClassifier{opts: opts}
}

// Train augments texts and labels with paraphrased variants, fits a new
// model on the result and swaps it in. TrainStats.Examples is the augmented
// size.
func (c *SectionClassifier) Train(ctx context.Context, texts, labels []string) (TrainStats, error) {
	if len(texts) == 0 {
		return TrainStats{}, fmt.Errorf("%w: no examples", ErrMalformedCorpus)
	}
	if len(texts) != len(labels) {
		return TrainStats{}, fmt.Errorf("%w: %d texts but %d labels", ErrMalformedCorpus, len(texts), len(labels))
	}
	for i, l := range labels {
		if l == "" {
			return TrainStats{}, fmt.Errorf("%w: example %d has an empty label", ErrMalformedCorpus, i)
		}
	}

	texts, labels = Augment(texts, labels)

	c.trainMu.Lock()
	defer c.trainMu.Unlock()
	start := time.Now()

	classIndex := make(map[string]int)
	for _, l := range labels {
		classIndex[l] = 0
	}
	names := make([]string, 0, len(classIndex))
	for l := range classIndex {
		names = append(names, l)
	}
	sort.Strings(names)
	for i, l := range names {
		classIndex[l] = i
	}

	vec := NewVectorizer(c.opts.MaxFeatures, c.opts.NGramMax)
	vec.Fit(texts)
	if vec.VocabularySize() == 0 {
		return TrainStats{}, fmt.Errorf("%w: no usable terms after stop-word removal", ErrMalformedCorpus)
	}

	x := make([]SparseVector, len(texts))
	y := make([]int, len(texts))
	for i, t := range texts {
		x[i] = vec.Transform(t)
		y[i] = classIndex[labels[i]]
	}

	forest, err := fitForest(ctx, x, y, vec.VocabularySize(), len(names), c.opts.Trees, c.opts.Seed)
	if err != nil {
		return TrainStats{}, fmt.Errorf("fitting forest: %w", err)
	}

	c.mu.Lock()
	c.m = &model{vec: vec, forest: forest, labels: names}
	c.mu.Unlock()

	return TrainStats{
		Examples: len(texts),
		Features: vec.VocabularySize(),
		Labels:   append([]string(nil), names...),
		Trees:    c.opts.Trees,
		Duration: time.Since(start),
	}, nil
}

// TrainCorpus trains on the examples of corp.
func (c *SectionClassifier) TrainCorpus(ctx context.Context, corp *Corpus) (TrainStats, error) {
	texts, labels := corp.Split()
	return c.Train(ctx, texts, labels)
}

// Classify returns the predicted section label for text.
func (c *SectionClassifier) Classify(text string) (string, error) {
	c.mu.RLock()
	m := c.m
	c.mu.RUnlock()
	if m == nil {
		return "", ErrUntrainedModel
	}
	return m.labels[m.forest.Predict(m.vec.Transform(text))], nil
}

// Trained reports whether a model is available.
func (c *SectionClassifier) Trained() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.m != nil
}

// Labels returns the label set of the current model in sorted order.
func (c *SectionClassifier) Labels() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.m == nil {
		return nil
	}
	return append([]string(nil), c.m.labels...)
}
