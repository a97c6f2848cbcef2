package intake

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/Inreet-Kaur/capstone/internal/platform/classifier"
	"github.com/Inreet-Kaur/capstone/internal/platform/extraction"
	"github.com/Inreet-Kaur/capstone/internal/platform/metrics"
	"github.com/Inreet-Kaur/capstone/internal/platform/synthetic"
	"github.com/Inreet-Kaur/capstone/internal/platform/transcribe"
	"github.com/Inreet-Kaur/capstone/internal/platform/webhook"
)

var (
	ErrEmptyText              = errors.New("text is required")
	ErrPersistenceDisabled    = errors.New("intake storage is not configured")
	ErrTranscriberUnavailable = errors.New("transcriber is not configured")
)

// TranscriptionError reports a failed call to the transcriber.
type TranscriptionError struct{ Err error }

func (e *TranscriptionError) Error() string { return "transcribe audio: " + e.Err.Error() }

func (e *TranscriptionError) Unwrap() error { return e.Err }

// EventPublisher is notified after each extraction.
type EventPublisher interface {
	Publish(ctx context.Context, eventType, resourceID string, payload interface{})
}

// Transcriber turns recorded speech into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) (string, error)
}

type Service struct {
	repo        Repository
	assembler   *extraction.Assembler
	transcriber Transcriber
	sections    *classifier.SectionClassifier
	metrics     *metrics.Metrics
	events      EventPublisher
	logger      zerolog.Logger
	workers     int
}

// Option configures a Service.
type Option func(*Service)

// WithRepository enables persistence. Without it records are extracted but
// not stored.
func WithRepository(r Repository) Option {
	return func(s *Service) { s.repo = r }
}

func WithTranscriber(t Transcriber) Option {
	return func(s *Service) { s.transcriber = t }
}

func WithClassifier(c *classifier.SectionClassifier) Option {
	return func(s *Service) { s.sections = c }
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithEvents publishes an event after each extraction.
func WithEvents(p EventPublisher) Option {
	return func(s *Service) { s.events = p }
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithWorkers bounds batch extraction concurrency.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

func NewService(assembler *extraction.Assembler, opts ...Option) *Service {
	if assembler == nil {
		assembler = extraction.NewAssembler(nil)
	}
	s := &Service{
		assembler: assembler,
		logger:    zerolog.Nop(),
		workers:   runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// PersistenceEnabled reports whether extracted records are stored.
func (s *Service) PersistenceEnabled() bool { return s.repo != nil }

// Classifier returns the section classifier, or nil.
func (s *Service) Classifier() *classifier.SectionClassifier { return s.sections }

// Extract assembles a record from text and stores it when persistence is
// enabled. The returned record has a zero ID when it was not stored.
func (s *Service) Extract(ctx context.Context, text, actor string) (*IntakeRecord, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyText
	}
	return s.extract(ctx, SourceText, text, actor)
}

// ExtractBatch extracts every text concurrently. Results keep input order.
// Any empty text rejects the whole batch before work starts.
func (s *Service) ExtractBatch(ctx context.Context, texts []string, actor string) ([]*IntakeRecord, error) {
	for i, t := range texts {
		if strings.TrimSpace(t) == "" {
			return nil, fmt.Errorf("texts[%d]: %w", i, ErrEmptyText)
		}
	}

	out := make([]*IntakeRecord, len(texts))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, t := range texts {
		i, t := i, t
		g.Go(func() error {
			rec, err := s.extract(gctx, SourceText, t, actor)
			if err != nil {
				return fmt.Errorf("texts[%d]: %w", i, err)
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Transcribe sends audio to the transcriber and extracts the transcript.
// An unclear-audio transcript is extracted like any other text.
func (s *Service) Transcribe(ctx context.Context, audio []byte, actor string) (*IntakeRecord, error) {
	if s.transcriber == nil {
		return nil, ErrTranscriberUnavailable
	}
	if len(audio) == 0 {
		return nil, transcribe.ErrEmptyAudio
	}

	transcript, err := s.transcriber.Transcribe(ctx, audio)
	if err != nil {
		s.recordTranscription("error")
		return nil, &TranscriptionError{Err: err}
	}
	if transcript == transcribe.UnclearAudio {
		s.recordTranscription("unclear")
	} else {
		s.recordTranscription("ok")
	}
	return s.extract(ctx, SourceAudio, transcript, actor)
}

func (s *Service) recordTranscription(outcome string) {
	if s.metrics != nil {
		s.metrics.RecordTranscription(outcome)
	}
}

func (s *Service) extract(ctx context.Context, source, text, actor string) (*IntakeRecord, error) {
	start := time.Now()
	rec := s.assembler.Assemble(text)
	elapsed := time.Since(start)

	populated := rec.PopulatedFields()
	if s.metrics != nil {
		s.metrics.RecordExtraction(source, elapsed.Seconds(), rec.MissingFields())
	}
	s.logger.Debug().
		Str("source", source).
		Int("populated_fields", populated).
		Dur("duration", elapsed).
		Msg("record extracted")

	ir := &IntakeRecord{
		Source:          source,
		Transcript:      text,
		Record:          rec,
		PopulatedFields: populated,
		CreatedAt:       start.UTC(),
	}
	if actor != "" {
		ir.CreatedBy = &actor
	}
	if s.repo != nil {
		if err := s.repo.Create(ctx, ir); err != nil {
			return nil, fmt.Errorf("store intake record: %w", err)
		}
	}
	s.publish(ctx, ir)
	return ir, nil
}

func (s *Service) publish(ctx context.Context, ir *IntakeRecord) {
	if s.events == nil {
		return
	}
	var resourceID string
	if ir.ID != uuid.Nil {
		resourceID = ir.ID.String()
	}
	s.events.Publish(ctx, webhook.EventRecordExtracted, resourceID, toResponse(ir))
}

// Classify predicts the section label of text.
func (s *Service) Classify(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyText
	}
	if s.sections == nil {
		return "", classifier.ErrUntrainedModel
	}
	label, err := s.sections.Classify(text)
	if err != nil {
		return "", err
	}
	if s.metrics != nil {
		s.metrics.RecordClassification(label)
	}
	return label, nil
}

// TrainClassifier trains the section classifier on base (the built-in corpus
// when nil) plus sections cut from samples synthetic records drawn with seed.
// base is not modified.
func (s *Service) TrainClassifier(ctx context.Context, base *classifier.Corpus, samples int, seed int64) (classifier.TrainStats, error) {
	if s.sections == nil {
		return classifier.TrainStats{}, errors.New("section classifier is not configured")
	}

	if base == nil {
		base = classifier.DefaultCorpus()
	}
	corp := &classifier.Corpus{Examples: append([]classifier.Example(nil), base.Examples...)}
	if samples > 0 {
		gen := synthetic.NewGenerator(seed, synthetic.StyleMixed)
		corp.Add(gen.SectionCorpus(samples).Examples...)
	}

	stats, err := s.sections.TrainCorpus(ctx, corp)
	if s.metrics != nil {
		s.metrics.RecordTraining(err == nil, stats.Duration.Seconds(), stats.Features)
	}
	if err != nil {
		s.logger.Error().Err(err).Int("examples", len(corp.Examples)).Msg("section classifier training failed")
		return stats, err
	}

	s.logger.Info().
		Int("corpus_size", len(corp.Examples)).
		Int("base_examples", len(base.Examples)).
		Int("augmented_size", stats.Examples).
		Int("vocabulary_size", stats.Features).
		Strs("labels", stats.Labels).
		Dur("duration", stats.Duration).
		Msg("section classifier trained")
	return stats, nil
}

func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*IntakeRecord, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListRecords(ctx context.Context, limit, offset int) ([]*IntakeRecord, int, error) {
	if s.repo == nil {
		return nil, 0, ErrPersistenceDisabled
	}
	return s.repo.List(ctx, limit, offset)
}

func (s *Service) DeleteRecord(ctx context.Context, id uuid.UUID) error {
	if s.repo == nil {
		return ErrPersistenceDisabled
	}
	return s.repo.Delete(ctx, id)
}
